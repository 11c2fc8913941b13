package diagram

import (
	"fmt"
	"strings"
)

// RenderMermaid renders a DiagramModel as a Mermaid flowchart string.
// Loops become subgraphs, back-edges are dotted and critical path edges thick.
func RenderMermaid(model *DiagramModel) string {
	var b strings.Builder

	b.WriteString("graph TD\n")

	// Title as comment.
	if model.Title != "" {
		b.WriteString(fmt.Sprintf("    %%%% %s\n", model.Title))
	}
	if model.Subtitle != "" {
		b.WriteString(fmt.Sprintf("    %%%% %s\n", model.Subtitle))
	}

	inLoop := make(map[string]bool)
	for _, loop := range model.Loops {
		b.WriteString(fmt.Sprintf("    subgraph loop_%d[%q]\n", loop.ID, loopTitle(loop)))
		for _, id := range loop.NodeIDs {
			if n := model.node(id); n != nil {
				b.WriteString(fmt.Sprintf("        %s\n", mermaidNodeDef(n)))
				inLoop[id] = true
			}
		}
		b.WriteString("    end\n")
	}

	for _, node := range model.Nodes {
		if !inLoop[node.ID] {
			b.WriteString(fmt.Sprintf("    %s\n", mermaidNodeDef(node)))
		}
	}

	for _, edge := range model.Edges {
		arrow := "-->"
		switch {
		case edge.Critical:
			arrow = "==>"
		case edge.Back:
			arrow = "-.->"
		}
		label := edge.Label
		if edge.Back && label == "" {
			label = "loop"
		}
		if label != "" {
			label = fmt.Sprintf("|%s|", label)
		}
		b.WriteString(fmt.Sprintf("    %s %s%s %s\n",
			mermaidSafeID(edge.From), arrow, label, mermaidSafeID(edge.To)))
	}

	// Severity class definitions.
	b.WriteString("\n")
	b.WriteString("    classDef high fill:#8b1a1a,stroke:#5c0e0e,color:#fff\n")
	b.WriteString("    classDef medium fill:#b7791a,stroke:#8a5c14,color:#fff\n")
	b.WriteString("    classDef low fill:#2d6a2d,stroke:#1a4a1a,color:#fff\n")
	b.WriteString("    classDef critical stroke:#d62728,stroke-width:3px\n")

	for _, node := range model.Nodes {
		if node.Cost != nil && node.Cost.Severity != "" {
			b.WriteString(fmt.Sprintf("    class %s %s\n", mermaidSafeID(node.ID), node.Cost.Severity))
		}
	}
	var critical []string
	for _, node := range model.Nodes {
		if node.Critical {
			critical = append(critical, mermaidSafeID(node.ID))
		}
	}
	if len(critical) > 0 {
		b.WriteString(fmt.Sprintf("    class %s critical\n", strings.Join(critical, ",")))
	}

	return b.String()
}

// mermaidNodeDef returns a Mermaid node definition with the appropriate shape.
func mermaidNodeDef(node *Node) string {
	id := mermaidSafeID(node.ID)
	label := mermaidEscapeLabel(nodeCaption(node, "<br/>"))

	switch node.Kind {
	case NodeKindStart, NodeKindFinish:
		return fmt.Sprintf("%s((%q))", id, label)
	case NodeKindTool:
		return fmt.Sprintf("%s[[%q]]", id, label)
	case NodeKindOther:
		return fmt.Sprintf("%s([%q])", id, label)
	default: // agent
		return fmt.Sprintf("%s[%q]", id, label)
	}
}

// nodeCaption joins the node label with its cost figures.
func nodeCaption(node *Node, sep string) string {
	label := firstLine(node.Label)
	if node.Cost == nil || (node.Kind != NodeKindAgent && node.Kind != NodeKindTool) {
		return label
	}
	return label + sep + formatFigures(node.Cost)
}

func formatFigures(c *CostOverlay) string {
	return fmt.Sprintf("$%.4f | %.2fs", c.Cost, c.Latency)
}

func loopTitle(loop *LoopCluster) string {
	title := fmt.Sprintf("Loop %d (max %dx)", loop.ID, loop.MaxIterations)
	if loop.Risk != "" {
		title += " " + loop.Risk
	}
	return title
}

// mermaidSafeID converts a node ID to a Mermaid-safe identifier.
func mermaidSafeID(id string) string {
	r := strings.NewReplacer(".", "_", "-", "_", " ", "_", ":", "_", "/", "_")
	safe := r.Replace(id)
	// "end" is a Mermaid keyword.
	if strings.EqualFold(safe, "end") {
		safe = "n_" + safe
	}
	return safe
}

// mermaidEscapeLabel escapes characters Mermaid treats specially inside quoted labels.
func mermaidEscapeLabel(s string) string {
	return strings.ReplaceAll(s, `"`, "#quot;")
}
