package estimator

import (
	"slices"

	"github.com/rendis/flowcost/pkg/schema"
)

// Health badges.
const (
	BadgeCostEfficient    = "Cost-efficient"
	BadgeCostConcentrated = "Cost-concentrated"
	BadgeLoopFree         = "Loop-free"
	BadgeLoopHeavy        = "Loop-heavy"
	BadgeBudgetFriendly   = "Budget-friendly"
	BadgePremiumHeavy     = "High premium-model usage"
	BadgeLatencySensitive = "Latency-sensitive"
)

// health scores four 0-25 factors and maps their sum to a letter grade.
func (e *Engine) health(w *workflow, est *schema.WorkflowEstimation) schema.HealthScore {
	d := schema.HealthDetails{
		CostConcentration: costConcentration(est.Breakdown),
		LoopRisk:          loopRisk(est.DetectedCycles),
		PremiumModels:     e.premiumModels(w),
		LatencyBalance:    latencyBalance(est.TotalLatency, est.CriticalPathLatency),
	}

	score := d.CostConcentration.Score + d.LoopRisk.Score + d.PremiumModels.Score + d.LatencyBalance.Score
	badges := make([]string, 0, 4)
	for _, f := range []schema.HealthFactor{d.CostConcentration, d.LoopRisk, d.PremiumModels, d.LatencyBalance} {
		badges = append(badges, f.Badges...)
	}

	return schema.HealthScore{Grade: Grade(score), Score: score, Badges: badges, Details: d}
}

// Grade maps a 0-100 health score to a letter.
func Grade(score int) string {
	switch {
	case score >= 85:
		return "A"
	case score >= 70:
		return "B"
	case score >= 55:
		return "C"
	case score >= 40:
		return "D"
	}
	return "F"
}

// costConcentration scores the share of cost held by the two most
// expensive nodes; lower concentration scores higher.
func costConcentration(breakdown []schema.NodeEstimation) schema.HealthFactor {
	var shares []float64
	for _, b := range breakdown {
		if b.Cost > 0 {
			shares = append(shares, b.CostShare)
		}
	}
	slices.SortFunc(shares, func(a, b float64) int {
		switch {
		case a > b:
			return -1
		case a < b:
			return 1
		}
		return 0
	})
	var top2 float64
	for i := 0; i < len(shares) && i < 2; i++ {
		top2 += shares[i]
	}

	f := schema.HealthFactor{Metric: roundTo(top2, 3)}
	switch {
	case top2 <= 0.4:
		f.Score, f.Badges = 25, []string{BadgeCostEfficient}
	case top2 <= 0.6:
		f.Score = 18
	case top2 <= 0.8:
		f.Score, f.Badges = 10, []string{BadgeCostConcentrated}
	default:
		f.Score, f.Badges = 3, []string{BadgeCostConcentrated}
	}
	return f
}

// loopRisk scores by the most severe cycle; the metric is the cycle count.
func loopRisk(cycles []schema.CycleReport) schema.HealthFactor {
	f := schema.HealthFactor{Metric: float64(len(cycles))}
	if len(cycles) == 0 {
		f.Score, f.Badges = 25, []string{BadgeLoopFree}
		return f
	}

	counts := make(map[schema.RiskLevel]int, 4)
	for _, c := range cycles {
		counts[c.RiskLevel]++
	}
	switch {
	case counts[schema.RiskCritical] > 0:
		f.Score, f.Badges = 3, []string{BadgeLoopHeavy}
	case counts[schema.RiskHigh] > 0:
		f.Score, f.Badges = 10, []string{BadgeLoopHeavy}
	case counts[schema.RiskMedium] > 0:
		f.Score = 18
	default:
		f.Score = 22
	}
	return f
}

// premiumModels scores the fraction of agents running a premium model.
func (e *Engine) premiumModels(w *workflow) schema.HealthFactor {
	agents, premium := 0, 0
	for _, n := range w.nodes {
		if n.Kind != schema.NodeKindAgent {
			continue
		}
		agents++
		if e.costs.IsExpensive(n.ModelProvider, n.ModelName) {
			premium++
		}
	}

	var ratio float64
	if agents > 0 {
		ratio = float64(premium) / float64(agents)
	}

	f := schema.HealthFactor{Metric: roundTo(ratio, 3)}
	switch {
	case ratio <= 0.2:
		f.Score = 25
		if agents > 0 {
			f.Badges = []string{BadgeBudgetFriendly}
		}
	case ratio <= 0.5:
		f.Score = 18
	case ratio <= 0.8:
		f.Score, f.Badges = 10, []string{BadgePremiumHeavy}
	default:
		f.Score, f.Badges = 3, []string{BadgePremiumHeavy}
	}
	return f
}

// latencyBalance scores how much parallelism shortens the critical path
// relative to the serial sum. The metric is critical/total latency.
func latencyBalance(totalLatency, criticalLatency float64) schema.HealthFactor {
	f := schema.HealthFactor{Metric: roundTo(criticalLatency/max(totalLatency, 0.001), 3)}
	if totalLatency <= 0 || criticalLatency <= 0 {
		f.Score = 15
		return f
	}

	benefit := 1 - criticalLatency/totalLatency
	switch {
	case benefit >= 0.3:
		f.Score = 25
	case benefit >= 0.15:
		f.Score = 20
	case benefit >= 0.05:
		f.Score = 15
	default:
		f.Score, f.Badges = 8, []string{BadgeLatencySensitive}
	}
	return f
}
