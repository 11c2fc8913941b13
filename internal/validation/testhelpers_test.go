package validation

import (
	"github.com/rendis/flowcost/internal/catalog"
	"github.com/rendis/flowcost/pkg/schema"
)

type mockModels map[string]bool

func (m mockModels) Lookup(provider, model string) (catalog.ModelPricing, bool) {
	if m[provider+"/"+model] {
		return catalog.ModelPricing{ID: model, InputPerMillion: 1, OutputPerMillion: 2}, true
	}
	return catalog.ModelPricing{}, false
}

type mockTools map[string]bool

func (m mockTools) Lookup(id string) (catalog.ToolDefinition, bool) {
	if m[id] {
		return catalog.ToolDefinition{ID: id}, true
	}
	return catalog.ToolDefinition{}, false
}

func mockCatalogs() Catalogs {
	return Catalogs{
		Pricing: mockModels{"OpenAI/GPT-4o": true},
		Tools:   mockTools{"web_search": true},
	}
}

func intPtr(v int) *int { return &v }

func floatPtr(v float64) *float64 { return &v }

func agent(id string) schema.Node {
	return schema.Node{
		ID:            id,
		Kind:          schema.NodeKindAgent,
		ModelProvider: "OpenAI",
		ModelName:     "GPT-4o",
		Context:       "Answer the user",
	}
}

// linearRequest is start -> agent -> finish with a known model.
func linearRequest() *schema.EstimateRequest {
	return &schema.EstimateRequest{
		Nodes: []schema.Node{
			{ID: "start", Kind: schema.NodeKindStart},
			agent("a1"),
			{ID: "end", Kind: schema.NodeKindFinish},
		},
		Edges: []schema.Edge{
			{Source: "start", Target: "a1"},
			{Source: "a1", Target: "end"},
		},
	}
}
