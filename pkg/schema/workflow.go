package schema

// NodeKind enumerates the kinds of nodes in an agentic workflow graph.
type NodeKind string

const (
	NodeKindStart  NodeKind = "startNode"
	NodeKindAgent  NodeKind = "agentNode"
	NodeKindTool   NodeKind = "toolNode"
	NodeKindFinish NodeKind = "finishNode"
)

// GraphType classifies a workflow graph as acyclic or cyclic.
type GraphType string

const (
	GraphTypeDAG    GraphType = "DAG"
	GraphTypeCyclic GraphType = "CYCLIC"
)

// Defaults and bounds for estimation requests.
const (
	DefaultRecursionLimit = 25
	MinRecursionLimit     = 1
	MaxRecursionLimit     = 200
	DefaultLoopIntensity  = 1.0
	MinLoopIntensity      = 0.1
	MaxLoopIntensity      = 5.0
	MaxBatchWorkflows     = 10
	MaxContextLength      = 500
	MaxNodeSteps          = 100
)

// Node is a single vertex of a workflow graph. Agent-specific and
// tool-specific fields are ignored for other kinds.
type Node struct {
	ID    string   `json:"id"`
	Kind  NodeKind `json:"type"`
	Label string   `json:"label,omitempty"`

	// Agent fields.
	ModelProvider       string `json:"model_provider,omitempty"`
	ModelName           string `json:"model_name,omitempty"`
	Context             string `json:"context,omitempty"`
	TaskType            string `json:"task_type,omitempty"`
	ExpectedOutputSize  string `json:"expected_output_size,omitempty"`
	MaxSteps            *int   `json:"max_steps,omitempty"`
	ExpectedCallsPerRun *int   `json:"expected_calls_per_run,omitempty"`

	// Tool fields.
	ToolID       string `json:"tool_id,omitempty"`
	ToolCategory string `json:"tool_category,omitempty"`
}

// DisplayName returns the label if set, otherwise fallback.
func (n *Node) DisplayName(fallback string) string {
	if n.Label != "" {
		return n.Label
	}
	return fallback
}

// Edge is a directed connection between two nodes. Duplicates are allowed.
type Edge struct {
	ID     string `json:"id,omitempty"`
	Source string `json:"source"`
	Target string `json:"target"`
}

// Guard is a budget assertion evaluated against a finished estimation.
type Guard struct {
	Name       string `json:"name,omitempty"`
	Engine     string `json:"engine,omitempty"` // cel | expr (default: cel)
	Expression string `json:"expression"`
}

// EstimateRequest is the input of a single estimation call.
type EstimateRequest struct {
	Nodes          []Node   `json:"nodes"`
	Edges          []Edge   `json:"edges"`
	RecursionLimit int      `json:"recursion_limit,omitempty"`
	RunsPerDay     *int     `json:"runs_per_day,omitempty"`
	LoopIntensity  *float64 `json:"loop_intensity,omitempty"`
	Guards         []Guard  `json:"guards,omitempty"`
}

// EffectiveRecursionLimit returns the recursion limit, defaulting when unset.
func (r *EstimateRequest) EffectiveRecursionLimit() int {
	if r.RecursionLimit <= 0 {
		return DefaultRecursionLimit
	}
	return r.RecursionLimit
}

// EffectiveLoopIntensity returns the loop intensity, defaulting when unset.
func (r *EstimateRequest) EffectiveLoopIntensity() float64 {
	if r.LoopIntensity == nil {
		return DefaultLoopIntensity
	}
	return *r.LoopIntensity
}

// NodeIDs returns node ids in input order.
func (r *EstimateRequest) NodeIDs() []string {
	ids := make([]string, len(r.Nodes))
	for i := range r.Nodes {
		ids[i] = r.Nodes[i].ID
	}
	return ids
}

// BatchWorkflowItem is one workflow inside a batch request.
type BatchWorkflowItem struct {
	ID   string `json:"id"`
	Name string `json:"name,omitempty"`
	EstimateRequest
}

// BatchEstimateRequest estimates several independent workflows at once.
type BatchEstimateRequest struct {
	Workflows []BatchWorkflowItem `json:"workflows"`
}

// ImportedWorkflow is the result of translating a third-party workflow format.
type ImportedWorkflow struct {
	Nodes    []Node         `json:"nodes"`
	Edges    []Edge         `json:"edges"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// Request converts an imported workflow into an estimation request, picking
// up a recursion_limit from metadata when the source declared one.
func (w *ImportedWorkflow) Request() *EstimateRequest {
	req := &EstimateRequest{Nodes: w.Nodes, Edges: w.Edges}
	switch v := w.Metadata["recursion_limit"].(type) {
	case int:
		req.RecursionLimit = v
	case float64:
		req.RecursionLimit = int(v)
	}
	return req
}
