package diagram

import (
	"fmt"

	"github.com/rendis/flowcost/internal/graph"
	"github.com/rendis/flowcost/pkg/schema"
)

// Build constructs a DiagramModel from a request and, optionally, its
// estimation. Without an estimation only structure and loops are shown.
func Build(req *schema.EstimateRequest, est *schema.WorkflowEstimation) (*DiagramModel, error) {
	if req == nil {
		return nil, schema.NewError(schema.ErrCodeRender, "diagram: request is nil")
	}

	topo := graph.NewTopology(req.NodeIDs(), req.Edges)
	loops := graph.DecomposeLoops(topo, graph.IterationPolicy{
		Caps:           stepCaps(req),
		DefaultCap:     graph.DefaultLoopCap,
		RecursionLimit: req.EffectiveRecursionLimit(),
		LoopIntensity:  req.EffectiveLoopIntensity(),
	})

	model := &DiagramModel{Title: "Workflow"}

	// Node list follows topology order, which drops duplicate IDs.
	byID := make(map[string]*schema.Node, len(req.Nodes))
	for i := range req.Nodes {
		if _, dup := byID[req.Nodes[i].ID]; !dup {
			byID[req.Nodes[i].ID] = &req.Nodes[i]
		}
	}
	for _, id := range topo.Nodes() {
		n := byID[id]
		dn := &Node{ID: id, Label: n.DisplayName(id), Kind: kindOf(n.Kind), LoopID: -1}
		if g := loops.GroupOf(id); g != nil {
			dn.LoopID = g.ID
		}
		model.Nodes = append(model.Nodes, dn)
	}

	back := make(map[[2]string]bool)
	for _, g := range loops.Groups {
		cluster := &LoopCluster{ID: g.ID, NodeIDs: g.Nodes, MaxIterations: g.MaxIterations}
		for _, e := range g.BackEdges {
			back[e] = true
		}
		model.Loops = append(model.Loops, cluster)
	}

	seen := make(map[[2]string]bool)
	var forward []schema.Edge
	for _, e := range req.Edges {
		key := [2]string{e.Source, e.Target}
		if !topo.Has(e.Source) || !topo.Has(e.Target) || seen[key] {
			continue
		}
		seen[key] = true
		model.Edges = append(model.Edges, Edge{From: e.Source, To: e.Target, Back: back[key]})
		if !back[key] {
			forward = append(forward, e)
		}
	}

	model.Levels = graph.ParallelLevels(graph.NewTopology(topo.Nodes(), forward))

	if est != nil {
		overlay(model, est)
	}
	return model, nil
}

func overlay(model *DiagramModel, est *schema.WorkflowEstimation) {
	for _, ne := range est.Breakdown {
		if n := model.node(ne.NodeID); n != nil {
			n.Cost = &CostOverlay{
				Cost:     ne.Cost,
				Latency:  ne.Latency,
				Tokens:   ne.Tokens,
				Severity: string(ne.BottleneckSeverity),
			}
		}
	}

	model.CriticalPath = est.CriticalPath
	onPath := make(map[[2]string]bool, len(est.CriticalPath))
	for i, id := range est.CriticalPath {
		if n := model.node(id); n != nil {
			n.Critical = true
		}
		if i > 0 {
			onPath[[2]string{est.CriticalPath[i-1], id}] = true
		}
	}
	for i := range model.Edges {
		model.Edges[i].Critical = onPath[[2]string{model.Edges[i].From, model.Edges[i].To}]
	}

	for _, c := range est.DetectedCycles {
		for _, l := range model.Loops {
			if l.ID == c.CycleID {
				l.Risk = string(c.RiskLevel)
				l.MaxIterations = c.MaxIterations
			}
		}
	}

	model.Subtitle = fmt.Sprintf("%s | $%.4f | %.2fs | %d tokens", est.GraphType, est.TotalCost, est.TotalLatency, est.TotalTokens)
}

func stepCaps(req *schema.EstimateRequest) map[string]int {
	caps := make(map[string]int)
	for _, n := range req.Nodes {
		if n.Kind == schema.NodeKindAgent && n.MaxSteps != nil {
			caps[n.ID] = *n.MaxSteps
		}
	}
	return caps
}

func kindOf(k schema.NodeKind) NodeKind {
	switch k {
	case schema.NodeKindStart:
		return NodeKindStart
	case schema.NodeKindAgent:
		return NodeKindAgent
	case schema.NodeKindTool:
		return NodeKindTool
	case schema.NodeKindFinish:
		return NodeKindFinish
	default:
		return NodeKindOther
	}
}
