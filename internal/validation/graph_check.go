package validation

import (
	"fmt"

	"github.com/rendis/flowcost/internal/graph"
	"github.com/rendis/flowcost/pkg/schema"
)

// validateGraph inspects the workflow topology: loops that fall back to the
// default iteration cap, nodes that only loop to themselves, and nodes
// unreachable from any start node. All are warnings; cyclic graphs are legal.
func validateGraph(req *schema.EstimateRequest, prefix string) *schema.ValidationResult {
	result := &schema.ValidationResult{}

	caps := make(map[string]int)
	for _, n := range req.Nodes {
		if n.Kind == schema.NodeKindAgent && n.MaxSteps != nil {
			caps[n.ID] = *n.MaxSteps
		}
	}

	topo := graph.NewTopology(req.NodeIDs(), req.Edges)
	loops := graph.DecomposeLoops(topo, graph.IterationPolicy{
		Caps:           caps,
		DefaultCap:     graph.DefaultLoopCap,
		RecursionLimit: req.EffectiveRecursionLimit(),
		LoopIntensity:  req.EffectiveLoopIntensity(),
	})
	for _, g := range loops.Groups {
		if !g.Constrained {
			result.AddWarning(fmt.Sprintf("%scycles[%d]", prefix, g.ID), schema.ErrCodeValidation,
				fmt.Sprintf("loop %v has no agent with max_steps; assuming %d iterations", g.Nodes, g.MaxIterations))
		}
	}

	for _, id := range topo.Nodes() {
		if topo.HasSelfLoop(id) && !loops.InCycle(id) {
			result.AddNodeWarning(fmt.Sprintf("%snodes[%s]", prefix, id), id, schema.ErrCodeValidation,
				fmt.Sprintf("node %q loops only to itself; it is counted as a single pass", id))
		}
	}

	// Reachability: BFS from start nodes. Skipped when there are none.
	var queue []string
	reachable := make(map[string]bool, topo.Len())
	for _, n := range req.Nodes {
		if n.Kind == schema.NodeKindStart && !reachable[n.ID] {
			reachable[n.ID] = true
			queue = append(queue, n.ID)
		}
	}
	if len(queue) == 0 {
		return result
	}

	for len(queue) > 0 {
		node := queue[0]
		queue = queue[1:]
		for _, next := range topo.Successors(node) {
			if !reachable[next] {
				reachable[next] = true
				queue = append(queue, next)
			}
		}
	}

	for _, id := range topo.Nodes() {
		if !reachable[id] {
			result.AddNodeWarning(fmt.Sprintf("%snodes[%s]", prefix, id), id, schema.ErrCodeValidation,
				fmt.Sprintf("node %q is unreachable from any start node", id))
		}
	}

	return result
}
