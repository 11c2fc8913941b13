package estimator

import (
	"fmt"
	"math"
	"strings"

	"github.com/rendis/flowcost/pkg/schema"
)

// Risk thresholds.
const (
	criticalIterations   = 20
	highIterations       = 15
	mediumIterations     = 5
	highCostContribution = 0.5
	midCostContribution  = 0.2
)

type span struct {
	min, avg, max float64
}

func (s span) rounded(places int) schema.Range {
	return schema.Range{Min: roundTo(s.min, places), Avg: roundTo(s.avg, places), Max: roundTo(s.max, places)}
}

type tokenSpan struct {
	min, avg, max int
}

func (s tokenSpan) toRange() schema.Range {
	return schema.Range{Min: float64(s.min), Avg: float64(s.avg), Max: float64(s.max)}
}

// totals holds the workflow-level sums. DAG-zone nodes count once in every
// case; cycle members count 1, expected and max laps for min, avg and max.
type totals struct {
	tokens        tokenSpan
	cost, latency span
	inputTokens   int
	outputTokens  int
	toolLatency   float64
}

func aggregate(w *workflow, breakdown []schema.NodeEstimation) totals {
	var t totals
	for _, b := range breakdown {
		lo, mid, hi := 1, 1, 1
		if g := w.loops.GroupOf(b.NodeID); g != nil {
			lo, mid, hi = g.MinIterations, g.ExpectedIterations, g.MaxIterations
		}

		t.tokens.min += b.Tokens * lo
		t.tokens.avg += b.Tokens * mid
		t.tokens.max += b.Tokens * hi

		t.cost.min += b.Cost * float64(lo)
		t.cost.avg += b.Cost * float64(mid)
		t.cost.max += b.Cost * float64(hi)

		t.latency.min += b.Latency * float64(lo)
		t.latency.avg += b.Latency * float64(mid)
		t.latency.max += b.Latency * float64(hi)

		t.inputTokens += b.InputTokens * mid
		t.outputTokens += b.OutputTokens * mid
		t.toolLatency += b.ToolLatency * float64(mid)
	}
	return t
}

// cycleReports builds one report per cycle group with per-lap sums, the
// group's share of the workflow totals, and its risk level.
func (e *Engine) cycleReports(w *workflow, breakdown []schema.NodeEstimation, totalCost, totalLatency float64) []schema.CycleReport {
	reports := make([]schema.CycleReport, 0, len(w.loops.Groups))
	if len(w.loops.Groups) == 0 {
		return reports
	}

	byID := make(map[string]*schema.NodeEstimation, len(breakdown))
	for i := range breakdown {
		byID[breakdown[i].NodeID] = &breakdown[i]
	}

	for _, g := range w.loops.Groups {
		r := schema.CycleReport{
			CycleID:            g.ID,
			NodeIDs:            g.Nodes,
			NodeLabels:         make([]string, 0, len(g.Nodes)),
			BackEdges:          g.BackEdges,
			MinIterations:      g.MinIterations,
			MaxIterations:      g.MaxIterations,
			ExpectedIterations: g.ExpectedIterations,
		}
		if r.BackEdges == nil {
			r.BackEdges = [][2]string{}
		}

		var lapCost, lapLatency float64
		expensive := ""
		for _, id := range g.Nodes {
			r.NodeLabels = append(r.NodeLabels, w.label(id))
			b := byID[id]
			r.TokensPerLap += b.Tokens
			lapCost += b.Cost
			lapLatency += b.Latency
			if expensive == "" && b.Kind == schema.NodeKindAgent && e.costs.IsExpensive(b.ModelProvider, b.ModelName) {
				expensive = b.ModelProvider + "/" + b.ModelName
			}
		}
		r.CostPerLap = roundTo(lapCost, 8)
		r.LatencyPerLap = roundTo(lapLatency, 4)

		expected := float64(g.ExpectedIterations)
		if totalCost > 0 {
			r.CostContribution = roundTo(lapCost*expected/totalCost, 4)
		}
		if totalLatency > 0 {
			r.LatencyContribution = roundTo(lapLatency*expected/totalLatency, 4)
		}

		r.RiskLevel, r.RiskReason = classifyRisk(expensive, r.MaxIterations, r.CostContribution)
		reports = append(reports, r)
	}
	return reports
}

// classifyRisk assigns the first matching level in the order critical,
// high, medium, low, and lists every condition that fired for that level.
// expensive is the "provider/model" of a premium model in the loop, or "".
func classifyRisk(expensive string, maxIter int, costShare float64) (schema.RiskLevel, string) {
	var reasons []string
	pct := func() string { return fmt.Sprintf("%d%%", int(math.RoundToEven(costShare*100))) }

	switch {
	case expensive != "" && maxIter >= criticalIterations:
		reasons = append(reasons,
			fmt.Sprintf("Expensive model (%s)", expensive),
			fmt.Sprintf("High max iterations (%d)", maxIter))
		return schema.RiskCritical, strings.Join(reasons, "; ")

	case expensive != "" || maxIter >= highIterations || costShare > highCostContribution:
		if expensive != "" {
			reasons = append(reasons, fmt.Sprintf("Expensive model (%s)", expensive))
		}
		if maxIter >= highIterations {
			reasons = append(reasons, fmt.Sprintf("High max iterations (%d)", maxIter))
		}
		if costShare > highCostContribution {
			reasons = append(reasons, "Loop dominates cost ("+pct()+")")
		}
		return schema.RiskHigh, strings.Join(reasons, "; ")

	case maxIter >= mediumIterations || costShare > midCostContribution:
		if maxIter >= mediumIterations {
			reasons = append(reasons, fmt.Sprintf("Moderate iterations (%d)", maxIter))
		}
		if costShare > midCostContribution {
			reasons = append(reasons, "Significant cost share ("+pct()+")")
		}
		return schema.RiskMedium, strings.Join(reasons, "; ")
	}

	return schema.RiskLow, "Bounded loop with low cost impact"
}
