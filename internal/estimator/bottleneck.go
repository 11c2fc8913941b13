package estimator

import (
	"slices"

	"github.com/rendis/flowcost/pkg/schema"
)

// Rank percentile cut-offs for bottleneck severity.
const (
	highSeverityPercentile   = 0.2
	mediumSeverityPercentile = 0.5
)

// assignBottlenecks sets cost and latency shares on every node and ranks
// nodes by max(cost_share, latency_share). The top 20% are high, up to 50%
// medium, the rest low. Nodes with neither cost nor latency stay low.
func assignBottlenecks(breakdown []schema.NodeEstimation, totalCost, totalLatency float64) {
	for i := range breakdown {
		b := &breakdown[i]
		b.CostShare, b.LatencyShare = 0, 0
		if totalCost > 0 {
			b.CostShare = roundTo(b.Cost/totalCost, 4)
		}
		if totalLatency > 0 {
			b.LatencyShare = roundTo(b.Latency/totalLatency, 4)
		}
	}

	ranked := make([]int, len(breakdown))
	for i := range ranked {
		ranked[i] = i
	}
	impact := func(i int) float64 { return max(breakdown[i].CostShare, breakdown[i].LatencyShare) }
	slices.SortStableFunc(ranked, func(a, b int) int {
		switch ia, ib := impact(a), impact(b); {
		case ia > ib:
			return -1
		case ia < ib:
			return 1
		}
		return 0
	})

	n := float64(len(ranked))
	for rank, idx := range ranked {
		b := &breakdown[idx]
		pct := float64(rank+1) / n
		active := b.Cost > 0 || b.Latency > 0
		switch {
		case active && pct <= highSeverityPercentile:
			b.BottleneckSeverity = schema.BottleneckHigh
		case active && pct <= mediumSeverityPercentile:
			b.BottleneckSeverity = schema.BottleneckMedium
		default:
			b.BottleneckSeverity = schema.BottleneckLow
		}
	}
}
