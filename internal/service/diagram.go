package service

import (
	"context"
	"strings"

	"github.com/rendis/flowcost/internal/diagram"
	"github.com/rendis/flowcost/pkg/schema"
)

// Diagram formats accepted by RenderDiagram.
const (
	DiagramMermaid = "mermaid"
	DiagramASCII   = "ascii"
	DiagramPNG     = "png"
	DiagramSVG     = "svg"
)

// DiagramFormats lists the accepted formats in display order.
var DiagramFormats = []string{DiagramMermaid, DiagramASCII, DiagramSVG, DiagramPNG}

// Diagram is a rendered estimated workflow.
type Diagram struct {
	Format      string
	ContentType string
	Body        []byte
	Estimation  *schema.WorkflowEstimation
}

// RenderDiagram estimates req and renders the annotated graph.
func (s *Service) RenderDiagram(ctx context.Context, req *schema.EstimateRequest, format string) (*Diagram, error) {
	format = strings.ToLower(strings.TrimSpace(format))
	if format == "" {
		format = DiagramMermaid
	}
	contentType, ok := diagramContentType(format)
	if !ok {
		return nil, schema.NewErrorf(schema.ErrCodeValidation,
			"unsupported diagram format %q (want %s)", format, strings.Join(DiagramFormats, ", "))
	}

	est, err := s.Estimate(ctx, req)
	if err != nil {
		return nil, err
	}
	model, err := diagram.Build(req, est)
	if err != nil {
		return nil, err
	}

	out := &Diagram{Format: format, ContentType: contentType, Estimation: est}
	switch format {
	case DiagramMermaid:
		out.Body = []byte(diagram.RenderMermaid(model))
	case DiagramASCII:
		out.Body = []byte(diagram.RenderASCII(model))
	default:
		imgFormat, err := diagram.ParseImageFormat(format)
		if err != nil {
			return nil, err
		}
		if out.Body, err = diagram.RenderImage(model, imgFormat); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func diagramContentType(format string) (string, bool) {
	switch format {
	case DiagramMermaid, DiagramASCII:
		return "text/plain; charset=utf-8", true
	case DiagramSVG:
		return "image/svg+xml", true
	case DiagramPNG:
		return "image/png", true
	default:
		return "", false
	}
}
