package validation

import (
	"fmt"

	"github.com/rendis/flowcost/pkg/schema"
)

// validateSemantic checks what JSON Schema cannot express: unique node IDs,
// edge references, catalog references, and per-node configuration that is
// legal but probably unintended.
func validateSemantic(req *schema.EstimateRequest, cats Catalogs, prefix string) *schema.ValidationResult {
	result := &schema.ValidationResult{}

	ids := make(map[string]int, len(req.Nodes))
	for i := range req.Nodes {
		n := &req.Nodes[i]
		path := fmt.Sprintf("%snodes[%d]", prefix, i)

		if first, dup := ids[n.ID]; dup {
			result.AddNodeError(path+".id", n.ID, schema.ErrCodeValidation,
				fmt.Sprintf("duplicate node id %q (first defined at nodes[%d])", n.ID, first))
			continue
		}
		ids[n.ID] = i

		switch n.Kind {
		case schema.NodeKindAgent:
			validateAgent(n, path, req.EffectiveRecursionLimit(), cats, result)
		case schema.NodeKindTool:
			validateTool(n, path, cats, result)
		}
	}

	for i, e := range req.Edges {
		path := fmt.Sprintf("%sedges[%d]", prefix, i)
		if _, ok := ids[e.Source]; !ok {
			result.AddWarning(path+".source", schema.ErrCodeValidation,
				fmt.Sprintf("references non-existent node %q; edge is ignored", e.Source))
		}
		if _, ok := ids[e.Target]; !ok {
			result.AddWarning(path+".target", schema.ErrCodeValidation,
				fmt.Sprintf("references non-existent node %q; edge is ignored", e.Target))
		}
	}

	for i, g := range req.Guards {
		if g.Engine != "" && g.Engine != "cel" && g.Engine != "expr" {
			result.AddError(fmt.Sprintf("%sguards[%d].engine", prefix, i), schema.ErrCodeExpression,
				fmt.Sprintf("unsupported guard engine %q", g.Engine))
		}
	}

	return result
}

func validateAgent(n *schema.Node, path string, recursionLimit int, cats Catalogs, result *schema.ValidationResult) {
	switch {
	case n.ModelProvider == "" || n.ModelName == "":
		result.AddNodeWarning(path+".model_name", n.ID, schema.ErrCodeValidation,
			"agent has no model configured; cost is reported as zero")
	case cats.Pricing != nil:
		if _, ok := cats.Pricing.Lookup(n.ModelProvider, n.ModelName); !ok {
			result.AddNodeWarning(path+".model_name", n.ID, schema.ErrCodeNotFound,
				fmt.Sprintf("model %s/%s is not in the pricing catalog; cost is reported as zero", n.ModelProvider, n.ModelName))
		}
	}

	if n.Context == "" {
		result.AddNodeWarning(path+".context", n.ID, schema.ErrCodeValidation,
			"agent has no context; only the system prompt overhead is counted")
	}

	if (n.TaskType == "") != (n.ExpectedOutputSize == "") {
		result.AddNodeWarning(path, n.ID, schema.ErrCodeValidation,
			"task_type and expected_output_size must both be set to use a task-specific output ratio")
	}

	if n.MaxSteps != nil && *n.MaxSteps > recursionLimit {
		result.AddNodeWarning(path+".max_steps", n.ID, schema.ErrCodeValidation,
			fmt.Sprintf("max_steps (%d) exceeds recursion_limit (%d) and will be clamped", *n.MaxSteps, recursionLimit))
	}
}

func validateTool(n *schema.Node, path string, cats Catalogs, result *schema.ValidationResult) {
	if n.ToolID == "" {
		result.AddNodeWarning(path+".tool_id", n.ID, schema.ErrCodeValidation,
			"tool node has no tool_id; default tool sizes and latency are used")
		return
	}
	if cats.Tools != nil {
		if _, ok := cats.Tools.Lookup(n.ToolID); !ok {
			result.AddNodeWarning(path+".tool_id", n.ID, schema.ErrCodeNotFound,
				fmt.Sprintf("tool %q is not in the tool catalog; default tool sizes and latency are used", n.ToolID))
		}
	}
}
