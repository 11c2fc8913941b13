package importer

import (
	"fmt"

	"github.com/rendis/flowcost/pkg/schema"
)

// importGeneric reads {nodes, edges, recursion_limit?, name?} where node
// fields use flowcost's own names.
func importGeneric(payload map[string]any) (*schema.ImportedWorkflow, error) {
	rawNodes, err := list(payload, "nodes")
	if err != nil {
		return nil, err
	}
	rawEdges, err := list(payload, "edges")
	if err != nil {
		return nil, err
	}

	wf := &schema.ImportedWorkflow{Metadata: map[string]any{"source": "generic"}}
	var defaulted []string

	for i, raw := range rawNodes {
		rn, ok := raw.(map[string]any)
		if !ok {
			return nil, schema.NewErrorf(schema.ErrCodeImport, "nodes[%d] must be an object", i)
		}

		id := str(rn, "id")
		if id == "" {
			id = scalar(rn["id"])
		}
		if id == "" {
			id = fmt.Sprintf("imported-%d", i)
		}

		kind, matched := kindOf(str(rn, "type"), str(rn, "name"), str(rn, "label"))
		if !matched {
			defaulted = append(defaulted, id)
		}

		label := str(rn, "label", "name")
		if label == "" {
			label = string(kind)
		}

		wf.Nodes = append(wf.Nodes, schema.Node{
			ID:                  id,
			Kind:                kind,
			Label:               label,
			ModelProvider:       str(rn, "model_provider"),
			ModelName:           str(rn, "model_name"),
			Context:             truncateContext(str(rn, "context")),
			TaskType:            str(rn, "task_type"),
			ExpectedOutputSize:  str(rn, "expected_output_size"),
			MaxSteps:            optInt(rn, "max_steps"),
			ExpectedCallsPerRun: optInt(rn, "expected_calls_per_run"),
			ToolID:              str(rn, "tool_id"),
			ToolCategory:        str(rn, "tool_category"),
		})
	}

	for i, raw := range rawEdges {
		re, ok := raw.(map[string]any)
		if !ok {
			return nil, schema.NewErrorf(schema.ErrCodeImport, "edges[%d] must be an object", i)
		}
		src, dst := scalar(re["source"]), scalar(re["target"])
		if src == "" || dst == "" {
			return nil, schema.NewErrorf(schema.ErrCodeImport, "edges[%d] must have 'source' and 'target'", i)
		}
		id := str(re, "id")
		if id == "" {
			id = fmt.Sprintf("ie-%d", i)
		}
		wf.Edges = append(wf.Edges, schema.Edge{ID: id, Source: src, Target: dst})
	}

	if v, ok := payload["recursion_limit"].(float64); ok {
		wf.Metadata["recursion_limit"] = int(v)
	}
	if name := str(payload, "name"); name != "" {
		wf.Metadata["name"] = name
	}
	if len(defaulted) > 0 {
		wf.Metadata["defaulted_kinds"] = defaulted
	}
	return wf, nil
}
