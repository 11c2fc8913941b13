package mcp

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/mark3labs/mcp-go/mcp"

	"github.com/rendis/flowcost/internal/logging"
	"github.com/rendis/flowcost/internal/service"
	"github.com/rendis/flowcost/pkg/schema"
)

// handleEstimate estimates one workflow, optionally projected by a jq query.
func (s *Server) handleEstimate(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	ctx = callContext(ctx)

	var wf schema.EstimateRequest
	if err := decodeArgument(req, "workflow", &wf); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	query := req.GetString("query", "")
	if query != "" {
		if err := s.svc.CheckQuery(query); err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
	}

	est, err := s.svc.Estimate(ctx, &wf)
	if err != nil {
		return errorResult(err), nil
	}
	if query == "" {
		return marshalResult(est)
	}
	out, err := s.svc.Query(ctx, est, query)
	if err != nil {
		return errorResult(err), nil
	}
	return marshalResult(out)
}

func (s *Server) handleBatch(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	ctx = callContext(ctx)

	var batch schema.BatchEstimateRequest
	if err := decodeArgument(req, "workflows", &batch.Workflows); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	resp, err := s.svc.EstimateBatch(ctx, &batch)
	if err != nil {
		return errorResult(err), nil
	}
	return marshalResult(resp)
}

// handleDiagram renders the estimated workflow. PNG is returned as an
// image content block, text formats as plain text.
func (s *Server) handleDiagram(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	ctx = callContext(ctx)

	var wf schema.EstimateRequest
	if err := decodeArgument(req, "workflow", &wf); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	d, err := s.svc.RenderDiagram(ctx, &wf, req.GetString("format", service.DiagramMermaid))
	if err != nil {
		return errorResult(err), nil
	}

	summary := fmt.Sprintf("%s | $%.4f | %.2fs", d.Estimation.GraphType, d.Estimation.TotalCost, d.Estimation.TotalLatency)
	if d.Format == service.DiagramPNG {
		return mcp.NewToolResultImage(summary, base64.StdEncoding.EncodeToString(d.Body), d.ContentType), nil
	}
	return mcp.NewToolResultText(string(d.Body)), nil
}

func (s *Server) handleImport(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	ctx = callContext(ctx)

	source, err := req.RequireString("source")
	if err != nil {
		return mcp.NewToolResultError("source is required"), nil
	}
	payload, err := req.RequireString("payload")
	if err != nil {
		return mcp.NewToolResultError("payload is required"), nil
	}

	wf, err := s.svc.Import(ctx, source, []byte(payload))
	if err != nil {
		return errorResult(err), nil
	}
	return marshalResult(wf)
}

func (s *Server) handleModels(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	provider := req.GetString("provider", "")
	if model := req.GetString("model", ""); model != "" {
		if provider == "" {
			return mcp.NewToolResultError("provider is required when model is set"), nil
		}
		m, err := s.svc.Model(provider, model)
		if err != nil {
			return errorResult(err), nil
		}
		return marshalResult(m)
	}
	return marshalResult(map[string]any{
		"version": s.svc.Pricing().Version(),
		"models":  s.svc.Pricing().Models(provider, req.GetString("family", "")),
	})
}

func (s *Server) handleTools(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if id := req.GetString("tool_id", ""); id != "" {
		t, err := s.svc.Tool(id)
		if err != nil {
			return errorResult(err), nil
		}
		return marshalResult(t)
	}
	return marshalResult(map[string]any{
		"version": s.svc.Tools().Version(),
		"tools":   s.svc.Tools().Tools(req.GetString("category", "")),
	})
}

// --- Helpers ---

// callContext tags a tool call with a fresh request ID.
func callContext(ctx context.Context) context.Context {
	return logging.WithIDs(ctx, uuid.NewString(), "", "mcp")
}

// decodeArgument re-decodes a structured argument into a typed value.
func decodeArgument(req mcp.CallToolRequest, key string, out any) error {
	raw := mcp.ParseArgument(req, key, nil)
	if raw == nil {
		return fmt.Errorf("%s is required", key)
	}
	data, err := json.Marshal(raw)
	if err != nil {
		return fmt.Errorf("invalid %s: %w", key, err)
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("invalid %s: %w", key, err)
	}
	return nil
}

// errorResult reports a FlowcostError with its details as the tool error text.
func errorResult(err error) *mcp.CallToolResult {
	var fe *schema.FlowcostError
	if !errors.As(err, &fe) || len(fe.Details) == 0 {
		return mcp.NewToolResultError(err.Error())
	}
	data, mErr := json.Marshal(fe)
	if mErr != nil {
		return mcp.NewToolResultError(err.Error())
	}
	return mcp.NewToolResultError(string(data))
}

// marshalResult converts a value to a JSON text tool result.
func marshalResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to marshal result: %v", err)), nil
	}
	return mcp.NewToolResultJSON(json.RawMessage(data))
}
