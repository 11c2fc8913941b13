package estimator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rendis/flowcost/internal/tokenizer"
	"github.com/rendis/flowcost/pkg/schema"
)

func newTestCostModel() *NodeCostModel {
	return NewNodeCostModel(testPricing, testTools, tokenizer.Whitespace{})
}

func TestOutputMultiplier(t *testing.T) {
	tests := []struct {
		task, size string
		want       float64
	}{
		{"classification", "short", 0.3},
		{"code_generation", "very_long", 4.5},
		{"routing", "medium", 0.4},
		{"summarization", "", DefaultOutputRatio},
		{"", "long", DefaultOutputRatio},
		{"poetry", "long", DefaultOutputRatio},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, OutputMultiplier(tt.task, tt.size), "%s/%s", tt.task, tt.size)
	}
}

func TestAgent_UnknownModelReportsTokensOnly(t *testing.T) {
	m := newTestCostModel()
	n := agentNode("a", "Nobody", "ghost", "plan the work")

	est := m.Agent(&n, nil, false)
	assert.Equal(t, 203, est.InputTokens)
	assert.Equal(t, 304, est.OutputTokens) // int(203 * 1.5)
	assert.Equal(t, 507, est.Tokens)
	assert.Zero(t, est.Cost)
	assert.Zero(t, est.Latency)
	assert.Equal(t, "agentNode", est.NodeName)
}

func TestAgent_PricedWithTaskMultiplier(t *testing.T) {
	m := newTestCostModel()
	n := agentNode("a", "Acme", "standard", "w1 w2 w3 w4 w5 w6 w7 w8 w9 w10")
	n.Label = "Writer"
	n.TaskType = "code_generation"
	n.ExpectedOutputSize = "medium"

	est := m.Agent(&n, nil, true)
	assert.Equal(t, "Writer", est.NodeName)
	assert.Equal(t, 210, est.InputTokens)
	assert.Equal(t, 420, est.OutputTokens)
	assert.InDelta(t, 0.00042, est.InputCost, 1e-12)
	assert.InDelta(t, 0.00336, est.OutputCost, 1e-12)
	assert.InDelta(t, 0.00378, est.Cost, 1e-12)
	assert.InDelta(t, 4.2, est.Latency, 1e-9)
	assert.True(t, est.InCycle)
}

func TestAgent_CallsPerRunScalesTokensAndToolLatency(t *testing.T) {
	m := newTestCostModel()
	n := agentNode("a", "Acme", "standard", "")
	n.ExpectedCallsPerRun = intPtr(3)
	tool := toolNode("t", "sql")

	est := m.Agent(&n, []*schema.Node{&tool}, false)
	// base 200, input 200+100+400=700, output 300, each x3.
	assert.Equal(t, 2100, est.InputTokens)
	assert.Equal(t, 900, est.OutputTokens)
	assert.InDelta(t, 0.15, est.ToolLatency, 1e-9)
	assert.InDelta(t, 9.0+0.15, est.Latency, 1e-9)
	// Tool sizes are reported per call.
	assert.Equal(t, 100, est.ToolSchemaTokens)
	assert.Equal(t, 400, est.ToolResponseTokens)
}

func TestAgent_DefaultThroughput(t *testing.T) {
	m := newTestCostModel()
	n := agentNode("a", "Acme", "nothroughput", "")

	est := m.Agent(&n, nil, false)
	assert.InDelta(t, 300/DefaultTokensPerSec, est.Latency, 1e-9)
}

func TestAgent_UnknownToolUsesDefaults(t *testing.T) {
	m := newTestCostModel()
	n := agentNode("a", "", "", "")
	tool := toolNode("t", "not-in-catalog")

	est := m.Agent(&n, []*schema.Node{&tool}, false)
	require.Len(t, est.ToolImpacts, 1)
	ti := est.ToolImpacts[0]
	assert.Equal(t, "Unknown Tool", ti.ToolName)
	assert.Empty(t, ti.ToolID)
	assert.Equal(t, DefaultToolSchemaTokens, ti.SchemaTokens)
	assert.Equal(t, DefaultToolResponseTokens, ti.ResponseTokens)
	assert.InDelta(t, 0.2, ti.ExecutionLatency, 1e-9)
	assert.Equal(t, 200+DefaultToolSchemaTokens+DefaultToolResponseTokens, est.InputTokens)
	assert.InDelta(t, 0.2, est.Latency, 1e-9)
}

func TestTool(t *testing.T) {
	m := newTestCostModel()

	known := toolNode("t1", "web_search")
	est := m.Tool(&known, false)
	assert.Equal(t, "Web Search", est.NodeName)
	assert.Zero(t, est.Tokens)
	assert.Zero(t, est.Cost)
	assert.InDelta(t, 0.8, est.Latency, 1e-9)
	assert.Equal(t, 1200, est.ToolResponseTokens)

	unknown := toolNode("t2", "")
	est = m.Tool(&unknown, true)
	assert.Equal(t, "Tool", est.NodeName)
	assert.InDelta(t, 0.2, est.Latency, 1e-9)
	assert.Equal(t, DefaultToolResponseTokens, est.ToolResponseTokens)
	assert.True(t, est.InCycle)
}

func TestPlaceholder(t *testing.T) {
	m := newTestCostModel()

	s := startNode("s")
	est := m.Placeholder(&s, false)
	assert.Equal(t, "startNode", est.NodeName)
	assert.Zero(t, est.Tokens)
	assert.Zero(t, est.Latency)

	odd := schema.Node{ID: "x", Kind: "mysteryNode", Label: "Mystery"}
	est = m.Placeholder(&odd, true)
	assert.Equal(t, "Mystery", est.NodeName)
	assert.True(t, est.InCycle)
}

func TestIsExpensive(t *testing.T) {
	m := newTestCostModel()
	assert.True(t, m.IsExpensive("Acme", "premium"))
	assert.False(t, m.IsExpensive("Acme", "standard"))
	assert.False(t, m.IsExpensive("Acme", "unknown"))
	assert.False(t, m.IsExpensive("", ""))
}
