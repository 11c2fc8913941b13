package estimator

import (
	"math"

	"github.com/rendis/flowcost/internal/catalog"
	"github.com/rendis/flowcost/internal/tokenizer"
	"github.com/rendis/flowcost/pkg/schema"
)

// Cost model constants.
const (
	SystemPromptTokens        = 200
	DefaultOutputRatio        = 1.5
	DefaultTokensPerSec       = 50.0
	DefaultToolSchemaTokens   = 200
	DefaultToolResponseTokens = 800
	DefaultToolLatencyMs      = 200
	// ExpensiveModelThreshold is the input price ($ per 1M tokens) at or
	// above which a model counts as premium.
	ExpensiveModelThreshold = 10.0
)

// PricingLookup resolves (provider, model) pairs to prices.
type PricingLookup interface {
	Lookup(provider, model string) (catalog.ModelPricing, bool)
}

// ToolLookup resolves tool IDs to their metadata.
type ToolLookup interface {
	Lookup(toolID string) (catalog.ToolDefinition, bool)
}

type outputKey struct {
	task string
	size string
}

// taskOutputMultipliers maps (task type, expected output size) to the
// output/base-context token ratio.
var taskOutputMultipliers = map[outputKey]float64{
	{"classification", "short"}:         0.3,
	{"classification", "medium"}:        0.5,
	{"classification", "long"}:          0.8,
	{"classification", "very_long"}:     1.0,
	{"summarization", "short"}:          0.8,
	{"summarization", "medium"}:         1.2,
	{"summarization", "long"}:           1.8,
	{"summarization", "very_long"}:      2.5,
	{"code_generation", "short"}:        1.0,
	{"code_generation", "medium"}:       2.0,
	{"code_generation", "long"}:         3.0,
	{"code_generation", "very_long"}:    4.5,
	{"rag_answer", "short"}:             0.6,
	{"rag_answer", "medium"}:            1.2,
	{"rag_answer", "long"}:              2.0,
	{"rag_answer", "very_long"}:         3.0,
	{"tool_orchestration", "short"}:     0.5,
	{"tool_orchestration", "medium"}:    1.0,
	{"tool_orchestration", "long"}:      1.5,
	{"tool_orchestration", "very_long"}: 2.0,
	{"routing", "short"}:                0.2,
	{"routing", "medium"}:               0.4,
	{"routing", "long"}:                 0.6,
	{"routing", "very_long"}:            0.8,
}

// OutputMultiplier returns the output ratio for a task classification and
// output size bucket. Unknown or partial combinations use DefaultOutputRatio.
func OutputMultiplier(task, size string) float64 {
	if task == "" || size == "" {
		return DefaultOutputRatio
	}
	if m, ok := taskOutputMultipliers[outputKey{task, size}]; ok {
		return m
	}
	return DefaultOutputRatio
}

// NodeCostModel estimates the single-pass cost of one node. It holds only
// read-only collaborators and is safe for concurrent use.
type NodeCostModel struct {
	pricing PricingLookup
	tools   ToolLookup
	tokens  tokenizer.Counter
}

// NewNodeCostModel creates a NodeCostModel.
func NewNodeCostModel(pricing PricingLookup, tools ToolLookup, tokens tokenizer.Counter) *NodeCostModel {
	return &NodeCostModel{pricing: pricing, tools: tools, tokens: tokens}
}

func (m *NodeCostModel) lookupTool(toolID string) (catalog.ToolDefinition, bool) {
	if toolID == "" || m.tools == nil {
		return catalog.ToolDefinition{}, false
	}
	return m.tools.Lookup(toolID)
}

func (m *NodeCostModel) lookupModel(provider, model string) (catalog.ModelPricing, bool) {
	if provider == "" || model == "" || m.pricing == nil {
		return catalog.ModelPricing{}, false
	}
	return m.pricing.Lookup(provider, model)
}

// IsExpensive reports whether a model's input price meets the premium threshold.
func (m *NodeCostModel) IsExpensive(provider, model string) bool {
	p, ok := m.lookupModel(provider, model)
	return ok && p.InputPerMillion >= ExpensiveModelThreshold
}

// ToolImpact returns the overhead a tool node adds to a calling agent.
func (m *NodeCostModel) ToolImpact(tool *schema.Node) schema.ToolImpact {
	if def, ok := m.lookupTool(tool.ToolID); ok {
		return schema.ToolImpact{
			ToolNodeID:       tool.ID,
			ToolName:         tool.DisplayName(def.DisplayName),
			ToolID:           def.ID,
			SchemaTokens:     def.SchemaTokens,
			ResponseTokens:   def.AvgResponseTokens,
			ExecutionLatency: roundTo(float64(def.LatencyMs)/1000, 3),
		}
	}
	return schema.ToolImpact{
		ToolNodeID:       tool.ID,
		ToolName:         tool.DisplayName("Unknown Tool"),
		SchemaTokens:     DefaultToolSchemaTokens,
		ResponseTokens:   DefaultToolResponseTokens,
		ExecutionLatency: roundTo(DefaultToolLatencyMs/1000.0, 3),
	}
}

// Tool estimates a tool node: no tokens or cost, latency from the catalog.
// The response size is reported but charged to calling agents.
func (m *NodeCostModel) Tool(node *schema.Node, inCycle bool) schema.NodeEstimation {
	latency := DefaultToolLatencyMs / 1000.0
	response := DefaultToolResponseTokens
	name := node.DisplayName("Tool")
	if def, ok := m.lookupTool(node.ToolID); ok {
		latency = float64(def.LatencyMs) / 1000
		response = def.AvgResponseTokens
		name = node.DisplayName(def.DisplayName)
	}

	return schema.NodeEstimation{
		NodeID:             node.ID,
		NodeName:           name,
		Kind:               node.Kind,
		Latency:            roundTo(latency, 3),
		ToolID:             node.ToolID,
		ToolResponseTokens: response,
		ToolLatency:        roundTo(latency, 3),
		InCycle:            inCycle,
	}
}

// Agent estimates an agent node together with the tools wired to it.
func (m *NodeCostModel) Agent(node *schema.Node, tools []*schema.Node, inCycle bool) schema.NodeEstimation {
	var (
		impacts        []schema.ToolImpact
		schemaTokens   int
		responseTokens int
		toolLatency    float64
	)
	for _, tn := range tools {
		ti := m.ToolImpact(tn)
		impacts = append(impacts, ti)
		schemaTokens += ti.SchemaTokens
		responseTokens += ti.ResponseTokens
		toolLatency += ti.ExecutionLatency
	}

	base := SystemPromptTokens
	if node.Context != "" && m.tokens != nil {
		base += m.tokens.Count(node.Context)
	}
	input := base + schemaTokens + responseTokens
	output := int(float64(base) * OutputMultiplier(node.TaskType, node.ExpectedOutputSize))

	calls := 1
	if node.ExpectedCallsPerRun != nil && *node.ExpectedCallsPerRun > 1 {
		calls = *node.ExpectedCallsPerRun
	}
	input *= calls
	output *= calls
	scaledToolLatency := toolLatency * float64(calls)

	est := schema.NodeEstimation{
		NodeID:             node.ID,
		NodeName:           node.DisplayName(string(node.Kind)),
		Kind:               node.Kind,
		Tokens:             input + output,
		InputTokens:        input,
		OutputTokens:       output,
		ModelProvider:      node.ModelProvider,
		ModelName:          node.ModelName,
		ToolImpacts:        impacts,
		ToolSchemaTokens:   schemaTokens,
		ToolResponseTokens: responseTokens,
		ToolLatency:        roundTo(scaledToolLatency, 3),
		InCycle:            inCycle,
	}

	pricing, ok := m.lookupModel(node.ModelProvider, node.ModelName)
	if !ok {
		// Unknown model: tokens are still reported, only tool time is charged.
		est.Latency = roundTo(scaledToolLatency, 3)
		return est
	}

	inputCost := float64(input) / 1_000_000 * pricing.InputPerMillion
	outputCost := float64(output) / 1_000_000 * pricing.OutputPerMillion
	tps := pricing.TokensPerSec
	if tps <= 0 {
		tps = DefaultTokensPerSec
	}

	est.InputCost = roundTo(inputCost, 8)
	est.OutputCost = roundTo(outputCost, 8)
	est.Cost = roundTo(inputCost+outputCost, 8)
	est.Latency = roundTo(float64(output)/tps+scaledToolLatency, 3)
	return est
}

// Placeholder estimates start, finish and unrecognized nodes: identity only.
func (m *NodeCostModel) Placeholder(node *schema.Node, inCycle bool) schema.NodeEstimation {
	name := string(node.Kind)
	if name == "" {
		name = node.ID
	}
	return schema.NodeEstimation{
		NodeID:   node.ID,
		NodeName: node.DisplayName(name),
		Kind:     node.Kind,
		InCycle:  inCycle,
	}
}

// roundTo rounds v to the given number of decimal places.
func roundTo(v float64, places int) float64 {
	p := math.Pow10(places)
	return math.Round(v*p) / p
}
