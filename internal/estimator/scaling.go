package estimator

import (
	"github.com/rendis/flowcost/internal/graph"
	"github.com/rendis/flowcost/pkg/schema"
)

// DaysPerMonth is the monthly multiplier for scaling projections.
const DaysPerMonth = 30

// project extrapolates per-run headline totals to a monthly volume.
func project(est *schema.WorkflowEstimation, runsPerDay int, loopIntensity float64) *schema.ScalingProjection {
	rpd := max(1, runsPerDay)
	rpm := rpd * DaysPerMonth
	return &schema.ScalingProjection{
		RunsPerDay:            rpd,
		RunsPerMonth:          rpm,
		LoopIntensity:         loopIntensity,
		MonthlyCost:           roundTo(est.TotalCost*float64(rpm), 4),
		MonthlyTokens:         est.TotalTokens * rpm,
		MonthlyComputeSeconds: roundTo(est.TotalLatency*float64(rpm), 2),
		CostPer1KRuns:         roundTo(est.TotalCost*1000, 6),
	}
}

// parallelSteps describes each execution level: its slowest node's latency,
// the summed cost, and how many nodes run side by side.
func parallelSteps(w *workflow, breakdown []schema.NodeEstimation) []schema.ParallelStep {
	byID := make(map[string]*schema.NodeEstimation, len(breakdown))
	for i := range breakdown {
		byID[breakdown[i].NodeID] = &breakdown[i]
	}

	levels := graph.ParallelLevels(w.topology)
	steps := make([]schema.ParallelStep, 0, len(levels))
	for i, ids := range levels {
		step := schema.ParallelStep{
			Step:        i,
			NodeIDs:     ids,
			NodeLabels:  make([]string, 0, len(ids)),
			Parallelism: len(ids),
		}
		var slowest, cost float64
		for _, id := range ids {
			step.NodeLabels = append(step.NodeLabels, w.label(id))
			if b, ok := byID[id]; ok {
				slowest = max(slowest, b.Latency)
				cost += b.Cost
			}
		}
		step.TotalLatency = roundTo(slowest, 4)
		step.TotalCost = roundTo(cost, 8)
		steps = append(steps, step)
	}
	return steps
}
