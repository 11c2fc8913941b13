package expressions

import (
	"context"
	"sync"
	"testing"

	"github.com/rendis/flowcost/pkg/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleEstimation() *schema.WorkflowEstimation {
	return &schema.WorkflowEstimation{
		TotalTokens:         4200,
		TotalInputTokens:    3000,
		TotalOutputTokens:   1200,
		TotalCost:           0.0425,
		TotalLatency:        6.5,
		TotalToolLatency:    0.8,
		GraphType:           schema.GraphTypeCyclic,
		CriticalPathLatency: 5.25,
		RecursionLimit:      25,
		Breakdown: []schema.NodeEstimation{
			{NodeID: "start", Kind: schema.NodeKindStart},
			{NodeID: "writer", Kind: schema.NodeKindAgent, Cost: 0.03, InCycle: true},
			{NodeID: "critic", Kind: schema.NodeKindAgent, Cost: 0.0125, InCycle: true},
		},
		DetectedCycles: []schema.CycleReport{{CycleID: 0, NodeIDs: []string{"writer", "critic"}, MaxIterations: 10}},
		CostRange:      schema.Range{Min: 0.01, Avg: 0.0425, Max: 0.09},
		LatencyRange:   schema.Range{Min: 2, Avg: 6.5, Max: 14},
		TokenRange:     schema.Range{Min: 1000, Avg: 4200, Max: 9000},
		Health:         schema.HealthScore{Grade: "B", Score: 78},
	}
}

func newEvaluator(t *testing.T) *Evaluator {
	t.Helper()
	ev, err := NewEvaluator()
	require.NoError(t, err)
	return ev
}

func TestGuardData(t *testing.T) {
	data := GuardData(sampleEstimation())

	assert.Equal(t, int64(4200), data["total_tokens"])
	assert.Equal(t, int64(1), data["cycle_count"])
	assert.Equal(t, int64(3), data["node_count"])
	assert.Equal(t, "CYCLIC", data["graph_type"])
	assert.Equal(t, 0.0, data["monthly_cost"])
	assert.Equal(t, map[string]float64{"min": 0.01, "avg": 0.0425, "max": 0.09}, data["cost_range"])

	for _, v := range guardVariables {
		assert.Contains(t, data, v.name)
	}
}

func TestGuardData_MonthlyCost(t *testing.T) {
	est := sampleEstimation()
	est.ScalingProjection = &schema.ScalingProjection{MonthlyCost: 127.5}
	assert.Equal(t, 127.5, GuardData(est)["monthly_cost"])
}

func TestEvaluateGuards(t *testing.T) {
	ev := newEvaluator(t)
	guards := []schema.Guard{
		{Name: "budget", Expression: "total_cost < 0.05"},
		{Name: "worst-case", Engine: "cel", Expression: "cost_range.max <= 0.05"},
		{Name: "mixed numeric", Engine: "cel", Expression: "total_tokens < 5000.5"},
		{Name: "cyclic", Engine: "cel", Expression: `graph_type == "CYCLIC" && cycle_count == 1`},
		{Name: "expr budget", Engine: "expr", Expression: "total_cost < 0.05 && latency_range.max < 20"},
		{Name: "expr let", Engine: "expr", Expression: "let headroom = 0.05 - total_cost; headroom > 0.01"},
		{Engine: "expr", Expression: `grade in ["A", "B"]`},
	}

	results := ev.EvaluateGuards(context.Background(), sampleEstimation(), guards)
	require.Len(t, results, len(guards))

	want := []bool{true, false, true, true, true, false, true}
	for i, r := range results {
		assert.Empty(t, r.Error, r.Name)
		assert.Equal(t, want[i], r.Passed, r.Name)
	}
	assert.Equal(t, "cel", results[0].Engine)
	assert.Equal(t, "guard-6", results[6].Name)
}

func TestEvaluateGuards_ErrorsAreIsolated(t *testing.T) {
	ev := newEvaluator(t)
	guards := []schema.Guard{
		{Name: "syntax", Expression: "total_cost <"},
		{Name: "not bool", Expression: "total_cost * 2.0"},
		{Name: "unknown var", Expression: "tokens_per_dollar > 1.0"},
		{Name: "engine", Engine: "lua", Expression: "true"},
		{Name: "ok", Expression: "health_score >= 70"},
	}

	results := ev.EvaluateGuards(context.Background(), sampleEstimation(), guards)
	require.Len(t, results, 5)
	for _, r := range results[:4] {
		assert.False(t, r.Passed, r.Name)
		assert.NotEmpty(t, r.Error, r.Name)
	}
	assert.True(t, results[4].Passed)
	assert.Empty(t, results[4].Error)
}

func TestEvaluateGuards_Empty(t *testing.T) {
	assert.Nil(t, newEvaluator(t).EvaluateGuards(context.Background(), sampleEstimation(), nil))
}

func TestCheckGuards(t *testing.T) {
	ev := newEvaluator(t)

	assert.NoError(t, ev.CheckGuards([]schema.Guard{
		{Expression: "total_cost < 1.0"},
		{Engine: "expr", Expression: "total_latency < 30"},
	}))

	err := ev.CheckGuards([]schema.Guard{
		{Expression: "total_cost < 1.0"},
		{Engine: "expr", Expression: "total_latency +"},
	})
	require.Error(t, err)
	assert.Equal(t, schema.ErrCodeExpression, schema.CodeOf(err))
	assert.Contains(t, err.Error(), "guards[1]")

	err = ev.CheckGuards([]schema.Guard{{Engine: "expr", Expression: "total_cost * 2"}})
	assert.Error(t, err, "non-boolean expr guards are rejected at compile time")

	err = ev.CheckGuards([]schema.Guard{{Expression: ""}})
	assert.Error(t, err)
}

func TestEvaluateGuards_Concurrent(t *testing.T) {
	ev := newEvaluator(t)
	est := sampleEstimation()
	guards := []schema.Guard{{Expression: "total_cost < 0.05"}, {Engine: "expr", Expression: "total_tokens > 100"}}

	var wg sync.WaitGroup
	for range 16 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for _, r := range ev.EvaluateGuards(context.Background(), est, guards) {
				assert.True(t, r.Passed)
			}
		}()
	}
	wg.Wait()
}

func TestPackageLevelHelpers(t *testing.T) {
	results, err := EvaluateGuards(context.Background(), sampleEstimation(), []schema.Guard{{Expression: "total_latency < 10.0"}})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.True(t, results[0].Passed)

	out, err := Query(context.Background(), sampleEstimation(), ".total_cost")
	require.NoError(t, err)
	assert.Equal(t, 0.0425, out)
}
