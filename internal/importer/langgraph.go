package importer

import (
	"fmt"
	"slices"

	"github.com/rendis/flowcost/pkg/schema"
)

// importLangGraph reads a LangGraph StateGraph export. Accepted shapes are
// {nodes, edges, conditional_edges} and the same wrapped in {"graph": ...}.
// Nodes may be plain names; edges may be [source, target] pairs.
// Conditional edges are flattened into one edge per possible target.
func importLangGraph(payload map[string]any) (*schema.ImportedWorkflow, error) {
	g := payload
	if inner, ok := payload["graph"].(map[string]any); ok {
		g = inner
	}

	rawNodes, err := list(g, "nodes")
	if err != nil || rawNodes == nil {
		return nil, schema.NewError(schema.ErrCodeImport, "LangGraph payload must contain a 'nodes' array")
	}
	rawEdges, err := list(g, "edges")
	if err != nil {
		return nil, err
	}
	conditional, err := list(g, "conditional_edges")
	if err != nil {
		return nil, err
	}

	wf := &schema.ImportedWorkflow{}
	var defaulted []string

	for i, raw := range rawNodes {
		var rn map[string]any
		switch v := raw.(type) {
		case string:
			rn = map[string]any{"id": v, "name": v}
		case map[string]any:
			rn = v
		default:
			return nil, schema.NewErrorf(schema.ErrCodeImport, "nodes[%d] must be an object or string", i)
		}

		id := str(rn, "id", "name")
		if id == "" {
			id = fmt.Sprintf("lg-%d", i)
		}
		name := str(rn, "name", "id")
		if name == "" {
			name = fmt.Sprintf("LG Node %d", i)
		}

		kind, matched := kindOf(name, str(rn, "type"))
		if !matched {
			defaulted = append(defaulted, id)
		}

		wf.Nodes = append(wf.Nodes, schema.Node{
			ID:                 id,
			Kind:               kind,
			Label:              name,
			ModelProvider:      str(rn, "model_provider", "llm_provider"),
			ModelName:          str(rn, "model_name", "llm_model"),
			Context:            truncateContext(str(rn, "system_prompt", "context")),
			TaskType:           str(rn, "task_type"),
			ExpectedOutputSize: str(rn, "expected_output_size"),
			MaxSteps:           optInt(rn, "max_steps"),
			ToolID:             str(rn, "tool_id"),
		})
	}

	addEdge := func(src, dst string) {
		wf.Edges = append(wf.Edges, schema.Edge{ID: fmt.Sprintf("lge-%d", len(wf.Edges)), Source: src, Target: dst})
	}

	for _, raw := range rawEdges {
		switch re := raw.(type) {
		case []any:
			if len(re) >= 2 {
				addEdge(scalar(re[0]), scalar(re[1]))
			}
		case map[string]any:
			if _, ok := re["source"]; !ok {
				continue
			}
			if _, ok := re["target"]; !ok {
				continue
			}
			id := str(re, "id")
			if id == "" {
				id = fmt.Sprintf("lge-%d", len(wf.Edges))
			}
			wf.Edges = append(wf.Edges, schema.Edge{ID: id, Source: scalar(re["source"]), Target: scalar(re["target"])})
		}
	}

	for _, raw := range conditional {
		ce, ok := raw.(map[string]any)
		if !ok {
			continue
		}
		src := scalar(ce["source"])
		targets, ok := ce["targets"]
		if !ok {
			targets = ce["mapping"]
		}
		switch t := targets.(type) {
		case map[string]any:
			// Branch labels carry no ordering; sort for stable edge IDs.
			conds := make([]string, 0, len(t))
			for c := range t {
				conds = append(conds, c)
			}
			slices.Sort(conds)
			for _, c := range conds {
				addEdge(src, scalar(t[c]))
			}
		case []any:
			for _, dst := range t {
				addEdge(src, scalar(dst))
			}
		}
	}

	wf.Metadata = map[string]any{
		"source":                 "langgraph",
		"original_node_count":    len(rawNodes),
		"conditional_edge_count": len(conditional),
	}
	if v, ok := g["recursion_limit"].(float64); ok {
		wf.Metadata["recursion_limit"] = int(v)
	}
	if len(defaulted) > 0 {
		wf.Metadata["defaulted_kinds"] = defaulted
	}
	return wf, nil
}
