// Package graph answers structural questions about workflow graphs:
// cycles, topological order, strongly connected components, loop
// decomposition, critical paths and parallel levels. It knows nothing
// about tokens, prices or models.
package graph

import (
	"slices"
	"sync"

	"github.com/rendis/flowcost/pkg/schema"
)

// Topology is the immutable adjacency representation of a workflow graph.
// Node order is the input order and drives every traversal, so identical
// input always yields identical results. Safe for concurrent use.
type Topology struct {
	nodes    []string            // node IDs in input order, deduplicated
	index    map[string]int      // node ID → input position
	succ     map[string][]string // node ID → targets (repeats kept)
	pred     map[string][]string // node ID → sources (repeats kept)
	inDegree map[string]int
	edges    int

	sccOnce sync.Once
	sccs    [][]string
}

// NewTopology builds a Topology from node IDs and edges. Duplicate node IDs
// keep their first occurrence; edges touching unknown nodes are dropped.
// Multi-edges and self-loops are kept.
func NewTopology(nodeIDs []string, edges []schema.Edge) *Topology {
	t := &Topology{
		nodes:    make([]string, 0, len(nodeIDs)),
		index:    make(map[string]int, len(nodeIDs)),
		succ:     make(map[string][]string, len(nodeIDs)),
		pred:     make(map[string][]string, len(nodeIDs)),
		inDegree: make(map[string]int, len(nodeIDs)),
	}

	for _, id := range nodeIDs {
		if _, exists := t.index[id]; exists {
			continue
		}
		t.index[id] = len(t.nodes)
		t.nodes = append(t.nodes, id)
		t.inDegree[id] = 0
	}

	for _, e := range edges {
		if !t.Has(e.Source) || !t.Has(e.Target) {
			continue
		}
		t.succ[e.Source] = append(t.succ[e.Source], e.Target)
		t.pred[e.Target] = append(t.pred[e.Target], e.Source)
		t.inDegree[e.Target]++
		t.edges++
	}

	return t
}

// Nodes returns the node IDs in input order.
func (t *Topology) Nodes() []string {
	out := make([]string, len(t.nodes))
	copy(out, t.nodes)
	return out
}

// Len returns the number of distinct nodes.
func (t *Topology) Len() int { return len(t.nodes) }

// EdgeCount returns the number of retained edges, multi-edges included.
func (t *Topology) EdgeCount() int { return t.edges }

// Has reports whether id is a node of the graph.
func (t *Topology) Has(id string) bool {
	_, ok := t.index[id]
	return ok
}

// Position returns the input position of id, or -1.
func (t *Topology) Position(id string) int {
	if i, ok := t.index[id]; ok {
		return i
	}
	return -1
}

// Successors returns the targets of id's outgoing edges in edge order.
func (t *Topology) Successors(id string) []string { return t.succ[id] }

// Predecessors returns the sources of id's incoming edges in edge order.
func (t *Topology) Predecessors(id string) []string { return t.pred[id] }

// HasSelfLoop reports whether id has an edge to itself.
func (t *Topology) HasSelfLoop(id string) bool {
	for _, s := range t.succ[id] {
		if s == id {
			return true
		}
	}
	return false
}

// IsSink reports whether id has no outgoing edges.
func (t *Topology) IsSink(id string) bool { return len(t.succ[id]) == 0 }

const (
	white = iota // unvisited
	gray         // on the DFS stack
	black        // finished
)

// dfsFrame is one entry of the explicit DFS stack: a node and the index of
// the next successor to visit.
type dfsFrame struct {
	node string
	next int
}

// IsCyclic reports whether the graph contains at least one cycle, self-loops
// included. Uses a three-color DFS over an explicit stack.
func (t *Topology) IsCyclic() bool {
	color := make(map[string]int, len(t.nodes))
	for _, root := range t.nodes {
		if color[root] != white {
			continue
		}
		stack := []dfsFrame{{node: root}}
		color[root] = gray
		for len(stack) > 0 {
			top := &stack[len(stack)-1]
			succ := t.succ[top.node]
			if top.next >= len(succ) {
				color[top.node] = black
				stack = stack[:len(stack)-1]
				continue
			}
			w := succ[top.next]
			top.next++
			switch color[w] {
			case gray:
				return true
			case white:
				color[w] = gray
				stack = append(stack, dfsFrame{node: w})
			}
		}
	}
	return false
}

// TopologicalOrder returns a topological ordering computed with Kahn's
// algorithm, seeded in input order. An empty result on a non-empty graph
// means the graph is cyclic and no order exists.
func (t *Topology) TopologicalOrder() []string {
	inDegree := make(map[string]int, len(t.inDegree))
	queue := make([]string, 0, len(t.nodes))
	for _, id := range t.nodes {
		inDegree[id] = t.inDegree[id]
		if inDegree[id] == 0 {
			queue = append(queue, id)
		}
	}

	order := make([]string, 0, len(t.nodes))
	for len(queue) > 0 {
		node := queue[0]
		queue = queue[1:]
		order = append(order, node)
		for _, next := range t.succ[node] {
			inDegree[next]--
			if inDegree[next] == 0 {
				queue = append(queue, next)
			}
		}
	}

	if len(order) < len(t.nodes) {
		return nil
	}
	return order
}

// StronglyConnectedComponents returns every SCC, singletons included, using
// an iterative Tarjan's algorithm. Members of each component are listed in
// input order. The result is computed once and shared; callers must not
// modify it.
func (t *Topology) StronglyConnectedComponents() [][]string {
	t.sccOnce.Do(func() {
		t.sccs = t.tarjan()
	})
	return t.sccs
}

func (t *Topology) tarjan() [][]string {
	var (
		counter int
		index   = make(map[string]int, len(t.nodes))
		low     = make(map[string]int, len(t.nodes))
		onStack = make(map[string]bool, len(t.nodes))
		stack   []string
		result  [][]string
	)

	visit := func(v string) {
		index[v] = counter
		low[v] = counter
		counter++
		stack = append(stack, v)
		onStack[v] = true
	}

	for _, root := range t.nodes {
		if _, seen := index[root]; seen {
			continue
		}
		visit(root)
		frames := []dfsFrame{{node: root}}

		for len(frames) > 0 {
			top := &frames[len(frames)-1]
			v := top.node
			succ := t.succ[v]

			if top.next < len(succ) {
				w := succ[top.next]
				top.next++
				if _, seen := index[w]; !seen {
					visit(w)
					frames = append(frames, dfsFrame{node: w})
				} else if onStack[w] && index[w] < low[v] {
					low[v] = index[w]
				}
				continue
			}

			// All successors done: close v, then propagate low-link to its parent.
			frames = frames[:len(frames)-1]
			if low[v] == index[v] {
				var comp []string
				for {
					w := stack[len(stack)-1]
					stack = stack[:len(stack)-1]
					onStack[w] = false
					comp = append(comp, w)
					if w == v {
						break
					}
				}
				result = append(result, t.inInputOrder(comp))
			}
			if len(frames) > 0 {
				parent := frames[len(frames)-1].node
				if low[v] < low[parent] {
					low[parent] = low[v]
				}
			}
		}
	}

	return result
}

// inInputOrder sorts ids in place by input position.
func (t *Topology) inInputOrder(ids []string) []string {
	slices.SortFunc(ids, func(a, b string) int { return t.index[a] - t.index[b] })
	return ids
}
