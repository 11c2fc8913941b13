package graph

import (
	"math"
	"slices"
)

// Iteration policy defaults.
const (
	DefaultLoopCap        = 10
	DefaultRecursionLimit = 25
)

// IterationPolicy controls how many laps a cycle group is expected to run.
type IterationPolicy struct {
	// Caps holds the configured per-node loop caps (agent max_steps).
	// Nodes without a cap are absent and do not constrain a group.
	Caps map[string]int
	// DefaultCap applies when no member of a group configures a cap.
	DefaultCap int
	// RecursionLimit is the graph-wide upper bound on laps.
	RecursionLimit int
	// LoopIntensity scales the capped lap count; zero means 1.0.
	LoopIntensity float64
}

func (p IterationPolicy) limit() int {
	if p.RecursionLimit < 1 {
		return DefaultRecursionLimit
	}
	return p.RecursionLimit
}

// MaxIterations returns the lap cap for a group with the given members:
// the smallest configured cap (or the default), clamped to the recursion
// limit, scaled by loop intensity with half-to-even rounding, and clamped
// again to [1, limit].
func (p IterationPolicy) MaxIterations(members []string) int {
	limit := p.limit()

	capped := -1
	for _, id := range members {
		if c, ok := p.Caps[id]; ok && (capped < 0 || c < capped) {
			capped = c
		}
	}
	if capped < 0 {
		capped = p.DefaultCap
		if capped < 1 {
			capped = DefaultLoopCap
		}
	}
	capped = min(capped, limit)

	intensity := p.LoopIntensity
	if intensity <= 0 {
		intensity = 1.0
	}
	scaled := int(math.RoundToEven(float64(capped) * intensity))
	return max(1, min(scaled, limit))
}

// ExpectedIterations returns max(1, ceil(maxIterations/2)).
func ExpectedIterations(maxIterations int) int {
	return max(1, (maxIterations+1)/2)
}

// CycleGroup is a strongly connected component that models a bounded loop.
type CycleGroup struct {
	ID                 int
	Nodes              []string    // members in input order
	BackEdges          [][2]string // (source, target) edges closing the loop
	MinIterations      int
	MaxIterations      int
	ExpectedIterations int
	// Constrained is false when no member configured a cap and the default applied.
	Constrained bool
}

// Contains reports whether id is a member of the group.
func (g *CycleGroup) Contains(id string) bool {
	for _, n := range g.Nodes {
		if n == id {
			return true
		}
	}
	return false
}

// LoopDecomposition splits a graph into its DAG zone and cycle groups.
type LoopDecomposition struct {
	Groups  []CycleGroup
	groupOf map[string]int // node ID → index into Groups
}

// InCycle reports whether id belongs to any cycle group.
func (d *LoopDecomposition) InCycle(id string) bool {
	_, ok := d.groupOf[id]
	return ok
}

// GroupOf returns the cycle group containing id, or nil.
func (d *LoopDecomposition) GroupOf(id string) *CycleGroup {
	if i, ok := d.groupOf[id]; ok {
		return &d.Groups[i]
	}
	return nil
}

// DAGZone returns the nodes outside every cycle group, in input order.
func (d *LoopDecomposition) DAGZone(t *Topology) []string {
	out := make([]string, 0, t.Len()-len(d.groupOf))
	for _, id := range t.nodes {
		if !d.InCycle(id) {
			out = append(out, id)
		}
	}
	return out
}

// DecomposeLoops finds the cycle groups of t: SCCs with two or more members.
// A node whose only loop is an edge to itself stays in the DAG zone and is
// counted once, although the graph is still cyclic. Groups are numbered from
// 0 in the input order of their first member.
func DecomposeLoops(t *Topology, policy IterationPolicy) *LoopDecomposition {
	d := &LoopDecomposition{groupOf: make(map[string]int)}

	var comps [][]string
	for _, scc := range t.StronglyConnectedComponents() {
		if len(scc) >= 2 {
			comps = append(comps, scc)
		}
	}
	slices.SortFunc(comps, func(a, b []string) int { return t.index[a[0]] - t.index[b[0]] })

	for _, members := range comps {
		nodes := make([]string, len(members))
		copy(nodes, members)

		constrained := false
		for _, id := range nodes {
			if _, ok := policy.Caps[id]; ok {
				constrained = true
				break
			}
		}

		maxIter := policy.MaxIterations(nodes)
		g := CycleGroup{
			ID:                 len(d.Groups),
			Nodes:              nodes,
			BackEdges:          backEdges(t, nodes),
			MinIterations:      1,
			MaxIterations:      maxIter,
			ExpectedIterations: ExpectedIterations(maxIter),
			Constrained:        constrained,
		}
		for _, id := range nodes {
			d.groupOf[id] = len(d.Groups)
		}
		d.Groups = append(d.Groups, g)
	}

	return d
}

// backEdges runs a three-color DFS restricted to members and records every
// edge that reaches a node still on the stack. Parallel edges are not
// collapsed: each traversal of a closing edge yields its own entry.
func backEdges(t *Topology, members []string) [][2]string {
	inGroup := make(map[string]bool, len(members))
	for _, id := range members {
		inGroup[id] = true
	}

	color := make(map[string]int, len(members))
	var out [][2]string

	for _, root := range members {
		if color[root] != white {
			continue
		}
		color[root] = gray
		stack := []dfsFrame{{node: root}}
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
			if !inGroup[w] {
				continue
			}
			switch color[w] {
			case gray:
				out = append(out, [2]string{top.node, w})
			case white:
				color[w] = gray
				stack = append(stack, dfsFrame{node: w})
			}
		}
	}

	return out
}
