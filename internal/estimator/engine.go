// Package estimator turns a workflow graph into a cycle-aware token, cost
// and latency estimate. Estimation is a pure function of the request and
// the read-only catalogs: no I/O, no shared mutable state.
package estimator

import (
	"github.com/rendis/flowcost/internal/graph"
	"github.com/rendis/flowcost/internal/tokenizer"
	"github.com/rendis/flowcost/pkg/schema"
)

// Engine orchestrates a full workflow estimation. Safe for concurrent use.
type Engine struct {
	costs *NodeCostModel
}

// New creates an Engine over the given catalogs and token counter.
func New(pricing PricingLookup, tools ToolLookup, tokens tokenizer.Counter) *Engine {
	return &Engine{costs: NewNodeCostModel(pricing, tools, tokens)}
}

// CostModel returns the per-node cost model used by the engine.
func (e *Engine) CostModel() *NodeCostModel { return e.costs }

// workflow is the normalized view of a request shared by the estimation steps.
type workflow struct {
	nodes    []*schema.Node // first occurrence of each ID, input order
	byID     map[string]*schema.Node
	topology *graph.Topology
	loops    *graph.LoopDecomposition
}

func newWorkflow(req *schema.EstimateRequest) *workflow {
	w := &workflow{byID: make(map[string]*schema.Node, len(req.Nodes))}
	ids := make([]string, 0, len(req.Nodes))
	caps := make(map[string]int)

	for i := range req.Nodes {
		n := &req.Nodes[i]
		if _, dup := w.byID[n.ID]; dup {
			continue
		}
		w.byID[n.ID] = n
		w.nodes = append(w.nodes, n)
		ids = append(ids, n.ID)
		if n.Kind == schema.NodeKindAgent && n.MaxSteps != nil {
			caps[n.ID] = *n.MaxSteps
		}
	}

	w.topology = graph.NewTopology(ids, req.Edges)
	w.loops = graph.DecomposeLoops(w.topology, graph.IterationPolicy{
		Caps:           caps,
		DefaultCap:     graph.DefaultLoopCap,
		RecursionLimit: req.EffectiveRecursionLimit(),
		LoopIntensity:  req.EffectiveLoopIntensity(),
	})
	return w
}

// label returns the display label of a node, falling back to its ID.
func (w *workflow) label(id string) string {
	if n, ok := w.byID[id]; ok && n.Label != "" {
		return n.Label
	}
	return id
}

// connectTools maps each agent to the tool nodes it is wired to, in either
// edge direction, deduplicated and in first-seen edge order.
func (w *workflow) connectTools(edges []schema.Edge) map[string][]*schema.Node {
	out := make(map[string][]*schema.Node)
	seen := make(map[[2]string]bool)
	link := func(agent, tool *schema.Node) {
		key := [2]string{agent.ID, tool.ID}
		if seen[key] {
			return
		}
		seen[key] = true
		out[agent.ID] = append(out[agent.ID], tool)
	}

	for _, e := range edges {
		src, okSrc := w.byID[e.Source]
		dst, okDst := w.byID[e.Target]
		if !okSrc || !okDst {
			continue
		}
		if src.Kind == schema.NodeKindAgent && dst.Kind == schema.NodeKindTool {
			link(src, dst)
		}
		if src.Kind == schema.NodeKindTool && dst.Kind == schema.NodeKindAgent {
			link(dst, src)
		}
	}
	return out
}

// Estimate runs the full estimation pipeline. It never fails: unknown
// references degrade to documented defaults and cyclic structure falls
// back to documented approximations.
func (e *Engine) Estimate(req *schema.EstimateRequest) *schema.WorkflowEstimation {
	w := newWorkflow(req)
	agentTools := w.connectTools(req.Edges)

	breakdown := make([]schema.NodeEstimation, 0, len(w.nodes))
	for _, n := range w.nodes {
		inCycle := w.loops.InCycle(n.ID)
		switch n.Kind {
		case schema.NodeKindAgent:
			breakdown = append(breakdown, e.costs.Agent(n, agentTools[n.ID], inCycle))
		case schema.NodeKindTool:
			breakdown = append(breakdown, e.costs.Tool(n, inCycle))
		default:
			breakdown = append(breakdown, e.costs.Placeholder(n, inCycle))
		}
	}

	est := &schema.WorkflowEstimation{
		GraphType:      schema.GraphTypeDAG,
		Breakdown:      breakdown,
		RecursionLimit: req.EffectiveRecursionLimit(),
		DetectedCycles: []schema.CycleReport{},
	}
	if w.topology.IsCyclic() {
		est.GraphType = schema.GraphTypeCyclic
	}

	t := aggregate(w, breakdown)
	est.TotalTokens = t.tokens.avg
	est.TotalInputTokens = t.inputTokens
	est.TotalOutputTokens = t.outputTokens
	est.TotalCost = roundTo(t.cost.avg, 8)
	est.TotalLatency = roundTo(t.latency.avg, 3)
	est.TotalToolLatency = roundTo(t.toolLatency, 3)
	est.TokenRange = t.tokens.toRange()
	est.CostRange = t.cost.rounded(8)
	est.LatencyRange = t.latency.rounded(3)

	assignBottlenecks(breakdown, est.TotalCost, est.TotalLatency)
	est.DetectedCycles = e.cycleReports(w, breakdown, est.TotalCost, est.TotalLatency)

	latency := make(map[string]float64, len(breakdown))
	for _, b := range breakdown {
		latency[b.NodeID] = b.Latency
	}
	path, pathLatency := graph.CriticalPath(w.topology, latency)
	if path == nil {
		path = []string{}
	}
	est.CriticalPath = path
	est.CriticalPathLatency = roundTo(pathLatency, 4)

	est.ParallelSteps = parallelSteps(w, breakdown)
	if req.RunsPerDay != nil {
		est.ScalingProjection = project(est, *req.RunsPerDay, req.EffectiveLoopIntensity())
	}
	est.Sensitivity = schema.SensitivityReadout{
		CostMin:    est.CostRange.Min,
		CostAvg:    est.CostRange.Avg,
		CostMax:    est.CostRange.Max,
		LatencyMin: est.LatencyRange.Min,
		LatencyAvg: est.LatencyRange.Avg,
		LatencyMax: est.LatencyRange.Max,
	}
	est.Health = e.health(w, est)

	return est
}
