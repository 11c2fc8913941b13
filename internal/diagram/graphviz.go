package diagram

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/goccy/go-graphviz"
	"github.com/goccy/go-graphviz/cgraph"
	"github.com/rendis/flowcost/pkg/schema"
)

// ImageFormat selects the graphviz output encoding.
type ImageFormat string

const (
	FormatPNG ImageFormat = "png"
	FormatSVG ImageFormat = "svg"
)

// ParseImageFormat accepts "png" or "svg" in any case.
func ParseImageFormat(s string) (ImageFormat, error) {
	switch f := ImageFormat(strings.ToLower(s)); f {
	case FormatPNG, FormatSVG:
		return f, nil
	default:
		return "", schema.NewErrorf(schema.ErrCodeRender, "unsupported image format %q (want png or svg)", s)
	}
}

// RenderImage renders a DiagramModel as PNG or SVG using graphviz.
func RenderImage(model *DiagramModel, format ImageFormat) ([]byte, error) {
	gvFormat := graphviz.PNG
	if format == FormatSVG {
		gvFormat = graphviz.SVG
	}

	ctx := context.Background()

	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, renderError("create graphviz", err)
	}
	defer gv.Close()

	gv.SetLayout(graphviz.DOT)

	graph, err := gv.Graph()
	if err != nil {
		return nil, renderError("create graph", err)
	}
	defer graph.Close()

	graph.SetRankDir(cgraph.TBRank)
	if model.Title != "" {
		title := model.Title
		if model.Subtitle != "" {
			title += "\n" + model.Subtitle
		}
		graph.SetLabel(title)
	}

	gvNodes := make(map[string]*cgraph.Node, len(model.Nodes))

	// Loop members are created inside their cluster first.
	for _, loop := range model.Loops {
		sub, subErr := graph.CreateSubGraphByName(fmt.Sprintf("cluster_loop_%d", loop.ID))
		if subErr != nil {
			return nil, renderError("create loop cluster", subErr)
		}
		sub.SetLabel(loopTitle(loop))
		sub.SetStyle(cgraph.DashedGraphStyle)

		for _, id := range loop.NodeIDs {
			node := model.node(id)
			if node == nil {
				continue
			}
			gvNode, nErr := sub.CreateNodeByName(node.ID)
			if nErr != nil {
				return nil, renderError("create node "+node.ID, nErr)
			}
			applyNodeStyle(gvNode, node)
			gvNodes[node.ID] = gvNode
		}
	}

	for _, node := range model.Nodes {
		if _, done := gvNodes[node.ID]; done {
			continue
		}
		gvNode, nErr := graph.CreateNodeByName(node.ID)
		if nErr != nil {
			return nil, renderError("create node "+node.ID, nErr)
		}
		applyNodeStyle(gvNode, node)
		gvNodes[node.ID] = gvNode
	}

	for _, edge := range model.Edges {
		fromGV, toGV := gvNodes[edge.From], gvNodes[edge.To]
		if fromGV == nil || toGV == nil {
			continue
		}
		e, eErr := graph.CreateEdgeByName("", fromGV, toGV)
		if eErr != nil {
			return nil, renderError("create edge", eErr)
		}
		if edge.Label != "" {
			e.SetLabel(edge.Label)
		}
		switch {
		case edge.Critical:
			e.SetColor("#d62728")
			e.SetPenWidth(2.5)
		case edge.Back:
			e.SetStyle(cgraph.DashedEdgeStyle)
			e.SetLabel("loop")
		}
	}

	var buf bytes.Buffer
	if err := gv.Render(ctx, graph, gvFormat, &buf); err != nil {
		return nil, renderError("render "+string(format), err)
	}

	return buf.Bytes(), nil
}

func renderError(op string, err error) error {
	return schema.NewErrorf(schema.ErrCodeRender, "diagram: %s: %s", op, err.Error()).WithCause(err)
}

// applyNodeStyle sets graphviz attributes based on node kind and severity.
func applyNodeStyle(gvNode *cgraph.Node, node *Node) {
	gvNode.SetLabel(nodeCaption(node, "\n"))

	switch node.Kind {
	case NodeKindAgent:
		gvNode.SetShape(cgraph.BoxShape)
	case NodeKindTool:
		gvNode.SetShape(cgraph.HexagonShape)
	case NodeKindOther:
		gvNode.SetShape(cgraph.EllipseShape)
	case NodeKindStart, NodeKindFinish:
		gvNode.SetShape(cgraph.CircleShape)
		gvNode.SetWidth(0.5)
		gvNode.SetHeight(0.5)
	}

	if node.Cost != nil {
		applySeverityColor(gvNode, node.Cost.Severity)
	}
	if node.Critical {
		gvNode.SetColor("#d62728")
		gvNode.SetPenWidth(2)
	}
}

// applySeverityColor sets fill color based on bottleneck severity.
func applySeverityColor(gvNode *cgraph.Node, severity string) {
	switch severity {
	case "high":
		gvNode.SetStyle(cgraph.FilledNodeStyle)
		gvNode.SetFillColor("#8b1a1a")
		gvNode.SetFontColor("white")
	case "medium":
		gvNode.SetStyle(cgraph.FilledNodeStyle)
		gvNode.SetFillColor("#b7791a")
		gvNode.SetFontColor("white")
	case "low":
		gvNode.SetStyle(cgraph.FilledNodeStyle)
		gvNode.SetFillColor("#d3ead3")
		gvNode.SetFontColor("black")
	}
}
