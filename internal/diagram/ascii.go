package diagram

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// severityTag returns a short ASCII indicator for a bottleneck severity.
func severityTag(severity string) string {
	switch severity {
	case "high":
		return "[HIGH]"
	case "medium":
		return "[MED]"
	case "low":
		return "[LOW]"
	default:
		return ""
	}
}

// RenderASCII renders a DiagramModel as a text-based ASCII diagram.
// It uses a level-based layout with box-drawing characters, followed by
// a loop section and the critical path.
func RenderASCII(model *DiagramModel) string {
	var b strings.Builder

	// Title.
	if model.Title != "" {
		b.WriteString(fmt.Sprintf("=== %s ===\n", model.Title))
	}
	if model.Subtitle != "" {
		b.WriteString(model.Subtitle + "\n")
	}
	b.WriteByte('\n')

	// Render each level.
	for levelIdx, level := range model.Levels {
		var boxes []asciiBox
		for _, nodeID := range level {
			node := model.node(nodeID)
			if node == nil {
				continue
			}
			boxes = append(boxes, makeBox(node))
		}

		renderBoxRow(&b, boxes)

		if levelIdx < len(model.Levels)-1 {
			renderConnector(&b, len(boxes))
		}
	}

	if len(model.Loops) > 0 {
		b.WriteString("\n--- loops ---\n")
		for _, loop := range model.Loops {
			b.WriteString(fmt.Sprintf("  %s: %s\n", loopTitle(loop), strings.Join(loop.NodeIDs, ", ")))
			for _, e := range model.Edges {
				if e.Back && loop.contains(e.From) {
					b.WriteString(fmt.Sprintf("    %s ─→ %s (back)\n", e.From, e.To))
				}
			}
		}
	}

	if len(model.CriticalPath) > 0 {
		b.WriteString("\n--- critical path ---\n  ")
		b.WriteString(strings.Join(model.CriticalPath, " → "))
		b.WriteByte('\n')
	}

	return b.String()
}

func (l *LoopCluster) contains(id string) bool {
	for _, n := range l.NodeIDs {
		if n == id {
			return true
		}
	}
	return false
}

// asciiBox holds the rendered lines of a single box.
type asciiBox struct {
	lines []string
	width int
}

// makeBox creates an ASCII box for a node.
func makeBox(node *Node) asciiBox {
	label := firstLine(node.Label)
	if node.Critical {
		label = "* " + label
	}
	contentLines := []string{label}

	if node.Cost != nil && (node.Kind == NodeKindAgent || node.Kind == NodeKindTool) {
		contentLines = append(contentLines, formatFigures(node.Cost))
		if tag := severityTag(node.Cost.Severity); tag != "" {
			contentLines = append(contentLines, tag)
		}
	}

	maxLen := 0
	for _, line := range contentLines {
		if n := utf8.RuneCountInString(line); n > maxLen {
			maxLen = n
		}
	}
	width := maxLen + 4 // 2 border + 2 padding

	var lines []string
	top := "┌" + strings.Repeat("─", width-2) + "┐"
	bot := "└" + strings.Repeat("─", width-2) + "┘"
	lines = append(lines, top)
	for _, content := range contentLines {
		padded := content + strings.Repeat(" ", maxLen-utf8.RuneCountInString(content))
		lines = append(lines, "│ "+padded+" │")
	}
	lines = append(lines, bot)

	return asciiBox{lines: lines, width: width}
}

// firstLine returns only the first line of a multi-line label.
func firstLine(s string) string {
	if i := strings.Index(s, "\n"); i >= 0 {
		return s[:i]
	}
	return s
}

// renderBoxRow writes boxes side by side.
func renderBoxRow(b *strings.Builder, boxes []asciiBox) {
	if len(boxes) == 0 {
		return
	}

	maxHeight := 0
	for _, box := range boxes {
		if len(box.lines) > maxHeight {
			maxHeight = len(box.lines)
		}
	}

	for row := 0; row < maxHeight; row++ {
		for i, box := range boxes {
			if i > 0 {
				b.WriteString("  ") // gap between boxes
			}
			if row < len(box.lines) {
				b.WriteString(box.lines[row])
			} else {
				b.WriteString(strings.Repeat(" ", box.width))
			}
		}
		b.WriteByte('\n')
	}
}

// renderConnector draws a vertical connector between levels.
func renderConnector(b *strings.Builder, boxCount int) {
	if boxCount == 0 {
		return
	}
	b.WriteString("       │\n")
	b.WriteString("       ▼\n")
}
