package estimator

import (
	"github.com/rendis/flowcost/internal/catalog"
	"github.com/rendis/flowcost/internal/tokenizer"
	"github.com/rendis/flowcost/pkg/schema"
)

// --- fakes ---

type fakePricing map[[2]string]catalog.ModelPricing

func (f fakePricing) Lookup(provider, model string) (catalog.ModelPricing, bool) {
	p, ok := f[[2]string{provider, model}]
	return p, ok
}

type fakeTools map[string]catalog.ToolDefinition

func (f fakeTools) Lookup(id string) (catalog.ToolDefinition, bool) {
	t, ok := f[id]
	return t, ok
}

var testPricing = fakePricing{
	{"Acme", "standard"}:     {ID: "standard", InputPerMillion: 2.0, OutputPerMillion: 8.0, TokensPerSec: 100},
	{"Acme", "premium"}:      {ID: "premium", InputPerMillion: 15.0, OutputPerMillion: 75.0, TokensPerSec: 40},
	{"Acme", "nothroughput"}: {ID: "nothroughput", InputPerMillion: 1.0, OutputPerMillion: 1.0},
}

var testTools = fakeTools{
	"web_search": {ID: "web_search", DisplayName: "Web Search", SchemaTokens: 120, AvgResponseTokens: 1200, LatencyMs: 800},
	"sql":        {ID: "sql", DisplayName: "SQL", SchemaTokens: 100, AvgResponseTokens: 400, LatencyMs: 50},
}

func newTestEngine() *Engine {
	return New(testPricing, testTools, tokenizer.Whitespace{})
}

// --- node builders ---

func intPtr(v int) *int { return &v }

func floatPtr(v float64) *float64 { return &v }

func startNode(id string) schema.Node {
	return schema.Node{ID: id, Kind: schema.NodeKindStart}
}

func finishNode(id string) schema.Node {
	return schema.Node{ID: id, Kind: schema.NodeKindFinish}
}

func agentNode(id, provider, model, context string) schema.Node {
	return schema.Node{ID: id, Kind: schema.NodeKindAgent, ModelProvider: provider, ModelName: model, Context: context}
}

func toolNode(id, toolID string) schema.Node {
	return schema.Node{ID: id, Kind: schema.NodeKindTool, ToolID: toolID}
}

func edge(src, dst string) schema.Edge {
	return schema.Edge{Source: src, Target: dst}
}

func nodeByID(est *schema.WorkflowEstimation, id string) *schema.NodeEstimation {
	for i := range est.Breakdown {
		if est.Breakdown[i].NodeID == id {
			return &est.Breakdown[i]
		}
	}
	return nil
}
