package schema

// ToolImpact is the token and latency overhead a tool imposes on its calling agent.
type ToolImpact struct {
	ToolNodeID       string  `json:"tool_node_id"`
	ToolName         string  `json:"tool_name"`
	ToolID           string  `json:"tool_id,omitempty"`
	SchemaTokens     int     `json:"schema_tokens"`
	ResponseTokens   int     `json:"response_tokens"`
	ExecutionLatency float64 `json:"execution_latency"` // seconds
}

// BottleneckSeverity ranks a node's share of workflow cost/latency.
type BottleneckSeverity string

const (
	BottleneckHigh   BottleneckSeverity = "high"
	BottleneckMedium BottleneckSeverity = "medium"
	BottleneckLow    BottleneckSeverity = "low"
)

// NodeEstimation is the single-pass resource cost of one node.
type NodeEstimation struct {
	NodeID        string       `json:"node_id"`
	NodeName      string       `json:"node_name"`
	Kind          NodeKind     `json:"type"`
	Tokens        int          `json:"tokens"`
	InputTokens   int          `json:"input_tokens"`
	OutputTokens  int          `json:"output_tokens"`
	Cost          float64      `json:"cost"`
	InputCost     float64      `json:"input_cost"`
	OutputCost    float64      `json:"output_cost"`
	Latency       float64      `json:"latency"` // seconds
	ModelProvider string       `json:"model_provider,omitempty"`
	ModelName     string       `json:"model_name,omitempty"`
	ToolID        string       `json:"tool_id,omitempty"`
	ToolImpacts   []ToolImpact `json:"tool_impacts,omitempty"`

	ToolSchemaTokens   int     `json:"tool_schema_tokens"`
	ToolResponseTokens int     `json:"tool_response_tokens"`
	ToolLatency        float64 `json:"tool_latency"`

	InCycle bool `json:"in_cycle"`

	CostShare          float64            `json:"cost_share"`
	LatencyShare       float64            `json:"latency_share"`
	BottleneckSeverity BottleneckSeverity `json:"bottleneck_severity"`
}

// RiskLevel is the qualitative risk of a detected loop.
type RiskLevel string

const (
	RiskCritical RiskLevel = "critical"
	RiskHigh     RiskLevel = "high"
	RiskMedium   RiskLevel = "medium"
	RiskLow      RiskLevel = "low"
)

// CycleReport describes one detected loop and its contribution to the workflow.
type CycleReport struct {
	CycleID            int         `json:"cycle_id"`
	NodeIDs            []string    `json:"node_ids"`
	NodeLabels         []string    `json:"node_labels"`
	BackEdges          [][2]string `json:"back_edges"`
	MinIterations      int         `json:"min_iterations"`
	MaxIterations      int         `json:"max_iterations"`
	ExpectedIterations int         `json:"expected_iterations"`

	TokensPerLap  int     `json:"tokens_per_lap"`
	CostPerLap    float64 `json:"cost_per_lap"`
	LatencyPerLap float64 `json:"latency_per_lap"`

	CostContribution    float64 `json:"cost_contribution"`
	LatencyContribution float64 `json:"latency_contribution"`

	RiskLevel  RiskLevel `json:"risk_level"`
	RiskReason string    `json:"risk_reason"`
}

// Range is a min/avg/max triple for a scalar metric.
type Range struct {
	Min float64 `json:"min"`
	Avg float64 `json:"avg"`
	Max float64 `json:"max"`
}

// ParallelStep is one level of nodes that may execute concurrently.
type ParallelStep struct {
	Step         int      `json:"step"`
	NodeIDs      []string `json:"node_ids"`
	NodeLabels   []string `json:"node_labels"`
	TotalLatency float64  `json:"total_latency"` // slowest node in the level
	TotalCost    float64  `json:"total_cost"`
	Parallelism  int      `json:"parallelism"`
}

// ScalingProjection extrapolates per-run totals to a monthly volume.
type ScalingProjection struct {
	RunsPerDay            int     `json:"runs_per_day"`
	RunsPerMonth          int     `json:"runs_per_month"`
	LoopIntensity         float64 `json:"loop_intensity"`
	MonthlyCost           float64 `json:"monthly_cost"`
	MonthlyTokens         int     `json:"monthly_tokens"`
	MonthlyComputeSeconds float64 `json:"monthly_compute_seconds"`
	CostPer1KRuns         float64 `json:"cost_per_1k_runs"`
}

// SensitivityReadout flattens the cost and latency ranges for display.
type SensitivityReadout struct {
	CostMin    float64 `json:"cost_min"`
	CostAvg    float64 `json:"cost_avg"`
	CostMax    float64 `json:"cost_max"`
	LatencyMin float64 `json:"latency_min"`
	LatencyAvg float64 `json:"latency_avg"`
	LatencyMax float64 `json:"latency_max"`
}

// HealthFactor is one 0-25 component of the health score.
type HealthFactor struct {
	Score  int      `json:"score"`
	Metric float64  `json:"metric"`
	Badges []string `json:"badges,omitempty"`
}

// HealthDetails holds the four health factors.
type HealthDetails struct {
	CostConcentration HealthFactor `json:"cost_concentration"`
	LoopRisk          HealthFactor `json:"loop_risk"`
	PremiumModels     HealthFactor `json:"premium_models"`
	LatencyBalance    HealthFactor `json:"latency_balance"`
}

// HealthScore is the composite 0-100 workflow grade.
type HealthScore struct {
	Grade   string        `json:"grade"`
	Score   int           `json:"score"`
	Badges  []string      `json:"badges"`
	Details HealthDetails `json:"details"`
}

// GuardResult is the outcome of one budget guard.
type GuardResult struct {
	Name       string `json:"name"`
	Engine     string `json:"engine"`
	Expression string `json:"expression"`
	Passed     bool   `json:"passed"`
	Error      string `json:"error,omitempty"`
}

// WorkflowEstimation is the aggregate result of one estimation call.
type WorkflowEstimation struct {
	TotalTokens       int     `json:"total_tokens"`
	TotalInputTokens  int     `json:"total_input_tokens"`
	TotalOutputTokens int     `json:"total_output_tokens"`
	TotalCost         float64 `json:"total_cost"`
	TotalLatency      float64 `json:"total_latency"`
	TotalToolLatency  float64 `json:"total_tool_latency"`

	GraphType           GraphType        `json:"graph_type"`
	Breakdown           []NodeEstimation `json:"breakdown"`
	CriticalPath        []string         `json:"critical_path"`
	CriticalPathLatency float64          `json:"critical_path_latency"`

	DetectedCycles []CycleReport `json:"detected_cycles"`
	TokenRange     Range         `json:"token_range"`
	CostRange      Range         `json:"cost_range"`
	LatencyRange   Range         `json:"latency_range"`
	RecursionLimit int           `json:"recursion_limit"`

	ParallelSteps     []ParallelStep     `json:"parallel_steps"`
	ScalingProjection *ScalingProjection `json:"scaling_projection,omitempty"`
	Sensitivity       SensitivityReadout `json:"sensitivity"`
	Health            HealthScore        `json:"health"`

	Guards   []GuardResult     `json:"guards,omitempty"`
	Warnings []ValidationIssue `json:"warnings,omitempty"`
}

// BatchEstimateResult summarizes one workflow of a batch.
type BatchEstimateResult struct {
	ID               string    `json:"id"`
	Name             string    `json:"name,omitempty"`
	GraphType        GraphType `json:"graph_type"`
	TotalTokens      int       `json:"total_tokens"`
	TotalCost        float64   `json:"total_cost"`
	TotalLatency     float64   `json:"total_latency"`
	TotalToolLatency float64   `json:"total_tool_latency"`
	NodeCount        int       `json:"node_count"`
	EdgeCount        int       `json:"edge_count"`
	TokenRange       Range     `json:"token_range"`
	CostRange        Range     `json:"cost_range"`
	LatencyRange     Range     `json:"latency_range"`
	DetectedCycles   int       `json:"detected_cycles"`
	HealthGrade      string    `json:"health_grade"`
}

// BatchEstimateResponse is the result of a batch estimation.
type BatchEstimateResponse struct {
	Results []BatchEstimateResult `json:"results"`
}
