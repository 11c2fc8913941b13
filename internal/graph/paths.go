package graph

// CriticalPath returns the longest latency-weighted path through t and its
// total latency. Distances are computed over the topological order; on equal
// distances the first-discovered predecessor wins. The endpoint is the sink
// (or, without sinks, any node) maximizing distance plus own latency.
//
// When t is cyclic no such path exists: the node list in input order is
// returned together with the sum of all latencies.
func CriticalPath(t *Topology, latency map[string]float64) ([]string, float64) {
	if t.Len() == 0 {
		return nil, 0
	}

	order := t.TopologicalOrder()
	if len(order) == 0 {
		var total float64
		for _, id := range t.nodes {
			total += latency[id]
		}
		return t.Nodes(), total
	}

	dist := make(map[string]float64, len(order))
	prev := make(map[string]string, len(order))
	for _, v := range order {
		best, found := 0.0, false
		for _, u := range t.pred[v] {
			cand := dist[u] + latency[u]
			if !found || cand > best {
				best, found = cand, true
				prev[v] = u
			}
		}
		dist[v] = best
	}

	candidates := make([]string, 0, len(order))
	for _, id := range order {
		if t.IsSink(id) {
			candidates = append(candidates, id)
		}
	}
	if len(candidates) == 0 {
		candidates = order
	}

	end, endTotal := candidates[0], dist[candidates[0]]+latency[candidates[0]]
	for _, id := range candidates[1:] {
		if total := dist[id] + latency[id]; total > endTotal {
			end, endTotal = id, total
		}
	}

	var path []string
	for cur, ok := end, true; ok; cur, ok = prev[cur] {
		path = append(path, cur)
	}
	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}

	return path, endTotal
}

// ParallelLevels groups nodes into execution levels: a node's level is one
// more than the highest level among its predecessors, zero for roots. Within
// a level nodes keep topological order. A cyclic graph collapses into one
// level holding every node.
func ParallelLevels(t *Topology) [][]string {
	if t.Len() == 0 {
		return nil
	}

	order := t.TopologicalOrder()
	if len(order) == 0 {
		return [][]string{t.Nodes()}
	}

	depth := make(map[string]int, len(order))
	maxLevel := 0
	for _, id := range order {
		d := 0
		for _, p := range t.pred[id] {
			if depth[p]+1 > d {
				d = depth[p] + 1
			}
		}
		depth[id] = d
		if d > maxLevel {
			maxLevel = d
		}
	}

	levels := make([][]string, maxLevel+1)
	for _, id := range order {
		levels[depth[id]] = append(levels[depth[id]], id)
	}
	return levels
}
