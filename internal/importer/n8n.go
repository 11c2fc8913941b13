package importer

import (
	"fmt"
	"slices"
	"strings"

	"github.com/rendis/flowcost/pkg/schema"
)

const n8nStickyNote = "n8n-nodes-base.stickyNote"

// importN8N reads an n8n workflow export: a nodes array plus a connections
// map keyed by source node name. Chat model sub-nodes wired to an agent
// through ai_languageModel are folded into that agent's model fields.
// Other ai_* connections point from the sub-node to its parent and are
// reversed so the parent calls the sub-node.
func importN8N(payload map[string]any) (*schema.ImportedWorkflow, error) {
	rawNodes, err := list(payload, "nodes")
	if err != nil || rawNodes == nil {
		return nil, schema.NewError(schema.ErrCodeImport, "n8n payload must contain a 'nodes' array")
	}
	connections, _ := payload["connections"].(map[string]any)

	type n8nNode struct {
		node     schema.Node
		nodeType string
	}

	var (
		nodes     []*n8nNode
		byName    = make(map[string]*n8nNode)
		defaulted []string
	)
	for i, raw := range rawNodes {
		rn, ok := raw.(map[string]any)
		if !ok {
			return nil, schema.NewErrorf(schema.ErrCodeImport, "nodes[%d] must be an object", i)
		}
		nodeType := str(rn, "type")
		if nodeType == n8nStickyNote {
			continue
		}

		name := str(rn, "name")
		id := str(rn, "id", "name")
		if id == "" {
			id = fmt.Sprintf("n8n-%d", i)
		}
		if name == "" {
			name = id
		}

		kind, matched := n8nKind(nodeType)
		if !matched {
			defaulted = append(defaulted, id)
		}

		params, _ := rn["parameters"].(map[string]any)
		n := &n8nNode{
			node:     schema.Node{ID: id, Kind: kind, Label: name},
			nodeType: nodeType,
		}
		if kind == schema.NodeKindAgent {
			applyN8NAgent(&n.node, nodeType, params)
		}
		if kind == schema.NodeKindTool {
			_, short := splitN8NType(nodeType)
			n.node.ToolCategory = short
		}
		nodes = append(nodes, n)
		byName[name] = n
	}

	wf := &schema.ImportedWorkflow{}
	folded := make(map[string]bool)

	addEdge := func(src, dst string) {
		wf.Edges = append(wf.Edges, schema.Edge{ID: fmt.Sprintf("n8n-e-%d", len(wf.Edges)), Source: src, Target: dst})
	}

	// Walk connections in node order so edge IDs are stable.
	for _, from := range nodes {
		outputs, ok := connections[from.node.Label].(map[string]any)
		if !ok {
			continue
		}
		kinds := make([]string, 0, len(outputs))
		for k := range outputs {
			kinds = append(kinds, k)
		}
		slices.Sort(kinds)

		for _, connType := range kinds {
			for _, target := range n8nTargets(outputs[connType]) {
				to, ok := byName[target]
				if !ok {
					continue
				}
				switch {
				case connType == "main":
					addEdge(from.node.ID, to.node.ID)
				case connType == "ai_languageModel" && isChatModel(from.nodeType) && to.node.Kind == schema.NodeKindAgent:
					if to.node.ModelName == "" {
						to.node.ModelProvider = from.node.ModelProvider
						to.node.ModelName = from.node.ModelName
					}
					folded[from.node.ID] = true
				case strings.HasPrefix(connType, "ai_"):
					addEdge(to.node.ID, from.node.ID)
				default:
					addEdge(from.node.ID, to.node.ID)
				}
			}
		}
	}

	for _, n := range nodes {
		if !folded[n.node.ID] {
			wf.Nodes = append(wf.Nodes, n.node)
		}
	}

	wf.Metadata = map[string]any{
		"source":              "n8n",
		"original_node_count": len(rawNodes),
		"folded_model_nodes":  len(folded),
	}
	if name := str(payload, "name"); name != "" {
		wf.Metadata["name"] = name
	}
	if len(defaulted) > 0 {
		wf.Metadata["defaulted_kinds"] = defaulted
	}
	return wf, nil
}

func isChatModel(nodeType string) bool {
	_, short := splitN8NType(nodeType)
	return strings.HasPrefix(short, "lmChat")
}

// n8nTargets flattens the [[{node, type, index}]] output matrix into node names.
func n8nTargets(v any) []string {
	var names []string
	outputs, _ := v.([]any)
	for _, out := range outputs {
		conns, _ := out.([]any)
		for _, c := range conns {
			if cm, ok := c.(map[string]any); ok {
				if name := str(cm, "node"); name != "" {
					names = append(names, name)
				}
			}
		}
	}
	return names
}

// applyN8NAgent copies model and prompt parameters onto an agent node.
func applyN8NAgent(n *schema.Node, nodeType string, params map[string]any) {
	_, short := splitN8NType(nodeType)
	n.ModelProvider = n8nProviders[short]

	if params == nil {
		return
	}
	switch m := params["model"].(type) {
	case string:
		n.ModelName = m
	case map[string]any:
		n.ModelName = str(m, "value", "cachedResultName")
	}
	if n.ModelName == "" {
		n.ModelName = str(params, "modelName", "modelId")
	}

	prompt := str(params, "text", "prompt")
	if opts, ok := params["options"].(map[string]any); ok {
		if sys := str(opts, "systemMessage"); sys != "" {
			prompt = sys
		}
	}
	n.Context = truncateContext(prompt)
}
