package api

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rendis/flowcost/internal/catalog"
	"github.com/rendis/flowcost/internal/service"
	"github.com/rendis/flowcost/internal/tokenizer"
	"github.com/rendis/flowcost/pkg/schema"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	pricing, err := catalog.NewPricingCatalog(catalog.PricingData{
		Version: "2025-01",
		Providers: []catalog.Provider{
			{ID: "OpenAI", Name: "OpenAI", Models: []catalog.ModelPricing{
				{ID: "GPT-4o", Family: "gpt", InputPerMillion: 2.5, OutputPerMillion: 10, TokensPerSec: 100},
				{ID: "o1", Family: "reasoning", InputPerMillion: 15, OutputPerMillion: 60, TokensPerSec: 40},
			}},
			{ID: "Anthropic", Name: "Anthropic", Models: []catalog.ModelPricing{
				{ID: "Claude Sonnet", Family: "claude", InputPerMillion: 3, OutputPerMillion: 15, TokensPerSec: 80},
			}},
		},
	})
	require.NoError(t, err)
	tools, err := catalog.NewToolCatalog(catalog.ToolData{
		Version: "2025-01",
		ToolCategories: []catalog.ToolCategory{
			{ID: "search", Name: "Search", Tools: []catalog.ToolDefinition{
				{ID: "web_search", SchemaTokens: 100, AvgResponseTokens: 400, LatencyMs: 500},
			}},
			{ID: "code", Name: "Code", Tools: []catalog.ToolDefinition{
				{ID: "python_exec", SchemaTokens: 150, AvgResponseTokens: 300, LatencyMs: 900},
			}},
		},
	})
	require.NoError(t, err)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc, err := service.New(service.Deps{
		Pricing: pricing,
		Tools:   tools,
		Tokens:  tokenizer.Whitespace{},
		Logger:  logger,
	})
	require.NoError(t, err)

	srv := NewServer(ServerDeps{
		Service:        svc,
		Logger:         logger,
		AllowedOrigins: []string{"http://localhost:3000/"},
		Version:        "test",
	})
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return ts
}

const linearBody = `{
  "nodes": [
    {"id": "start", "type": "startNode"},
    {"id": "a1", "type": "agentNode", "model_provider": "OpenAI", "model_name": "GPT-4o", "context": "summarize the ticket"},
    {"id": "end", "type": "finishNode"}
  ],
  "edges": [
    {"source": "start", "target": "a1"},
    {"source": "a1", "target": "end"}
  ]
}`

const loopBody = `{
  "nodes": [
    {"id": "start", "type": "startNode"},
    {"id": "writer", "type": "agentNode", "model_provider": "OpenAI", "model_name": "GPT-4o", "context": "draft", "max_steps": 3},
    {"id": "critic", "type": "agentNode", "model_provider": "OpenAI", "model_name": "GPT-4o", "context": "review"},
    {"id": "end", "type": "finishNode"}
  ],
  "edges": [
    {"source": "start", "target": "writer"},
    {"source": "writer", "target": "critic"},
    {"source": "critic", "target": "writer"},
    {"source": "critic", "target": "end"}
  ]
}`

func do(t *testing.T, ts *httptest.Server, method, path, body string) *http.Response {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req, err := http.NewRequest(method, ts.URL+path, r)
	require.NoError(t, err)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := ts.Client().Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))
	return v
}

type errorBody struct {
	Error struct {
		Code    string         `json:"code"`
		Message string         `json:"message"`
		Details map[string]any `json:"details"`
	} `json:"error"`
}

func TestHealth(t *testing.T) {
	ts := newTestServer(t)
	resp := do(t, ts, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	body := decode[map[string]string](t, resp)
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, "test", body["version"])
}

func TestEstimate(t *testing.T) {
	ts := newTestServer(t)
	resp := do(t, ts, http.MethodPost, "/api/estimate", linearBody)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotEmpty(t, resp.Header.Get(headerRequestID))

	est := decode[schema.WorkflowEstimation](t, resp)
	assert.Equal(t, schema.GraphTypeDAG, est.GraphType)
	assert.Len(t, est.Breakdown, 3)
	assert.Equal(t, []string{"start", "a1", "end"}, est.CriticalPath)
}

func TestEstimateCyclic(t *testing.T) {
	ts := newTestServer(t)
	resp := do(t, ts, http.MethodPost, "/api/estimate", loopBody)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	est := decode[schema.WorkflowEstimation](t, resp)
	assert.Equal(t, schema.GraphTypeCyclic, est.GraphType)
	require.Len(t, est.DetectedCycles, 1)
	assert.Equal(t, 3, est.DetectedCycles[0].MaxIterations)
	assert.ElementsMatch(t, []string{"writer", "critic"}, est.DetectedCycles[0].NodeIDs)
}

func TestEstimateQuery(t *testing.T) {
	ts := newTestServer(t)
	resp := do(t, ts, http.MethodPost, "/api/estimate?query="+url.QueryEscape(".detected_cycles | length"), loopBody)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, float64(1), decode[float64](t, resp))

	resp = do(t, ts, http.MethodPost, "/api/estimate?query="+url.QueryEscape(".["), loopBody)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, schema.ErrCodeExpression, decode[errorBody](t, resp).Error.Code)
}

func TestEstimateErrors(t *testing.T) {
	ts := newTestServer(t)

	tests := []struct {
		name string
		body string
		code string
	}{
		{"malformed json", `{"nodes": [`, schema.ErrCodeValidation},
		{"wrong node kind", `{"nodes":[{"id":"a","type":"robotNode"}],"edges":[]}`, schema.ErrCodeValidation},
		{"duplicate ids", `{"nodes":[{"id":"a","type":"agentNode"},{"id":"a","type":"toolNode"}],"edges":[]}`, schema.ErrCodeValidation},
		{"bad guard", `{"nodes":[],"edges":[],"guards":[{"expression":"total_cost <"}]}`, schema.ErrCodeExpression},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			resp := do(t, ts, http.MethodPost, "/api/estimate", tc.body)
			assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
			assert.Equal(t, tc.code, decode[errorBody](t, resp).Error.Code)
		})
	}
}

func TestEstimateBatch(t *testing.T) {
	ts := newTestServer(t)
	body := `{"workflows": [` +
		`{"id": "linear", ` + strings.TrimPrefix(linearBody, "{") + `,` +
		`{"id": "loop", "name": "writer/critic", ` + strings.TrimPrefix(loopBody, "{") +
		`]}`

	resp := do(t, ts, http.MethodPost, "/api/estimate/batch", body)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	out := decode[schema.BatchEstimateResponse](t, resp)
	require.Len(t, out.Results, 2)
	assert.Equal(t, "linear", out.Results[0].ID)
	assert.Equal(t, 3, out.Results[0].NodeCount)
	assert.Equal(t, "loop", out.Results[1].ID)
	assert.Equal(t, 1, out.Results[1].DetectedCycles)
}

func TestEstimateBatchLimit(t *testing.T) {
	ts := newTestServer(t)
	var items []string
	for i := 0; i < 11; i++ {
		items = append(items, `{"id":"w`+string(rune('a'+i))+`","nodes":[],"edges":[]}`)
	}
	resp := do(t, ts, http.MethodPost, "/api/estimate/batch", `{"workflows":[`+strings.Join(items, ",")+`]}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, schema.ErrCodeBatchLimit, decode[errorBody](t, resp).Error.Code)
}

func TestDiagram(t *testing.T) {
	ts := newTestServer(t)

	resp := do(t, ts, http.MethodPost, "/api/diagram", loopBody)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/plain; charset=utf-8", resp.Header.Get("Content-Type"))
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(body, []byte("graph TD")))

	resp = do(t, ts, http.MethodPost, "/api/diagram?format=gif", loopBody)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestImport(t *testing.T) {
	ts := newTestServer(t)

	resp := do(t, ts, http.MethodGet, "/api/import/sources", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, decode[map[string][]string](t, resp)["sources"], "n8n")

	payload := `{"nodes": ["__start__", "agent", "tools", "__end__"],
		"edges": [["__start__","agent"],["agent","tools"],["tools","agent"],["agent","__end__"]]}`
	resp = do(t, ts, http.MethodPost, "/api/import/langgraph", payload)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	wf := decode[schema.ImportedWorkflow](t, resp)
	require.Len(t, wf.Nodes, 4)
	assert.Equal(t, schema.NodeKindStart, wf.Nodes[0].Kind)
	assert.Equal(t, schema.NodeKindTool, wf.Nodes[2].Kind)

	resp = do(t, ts, http.MethodPost, "/api/import/zapier", payload)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, schema.ErrCodeImport, decode[errorBody](t, resp).Error.Code)
}

func TestCatalogEndpoints(t *testing.T) {
	ts := newTestServer(t)

	providers := decode[[]catalog.ProviderSummary](t, do(t, ts, http.MethodGet, "/api/providers", ""))
	require.Len(t, providers, 2)
	assert.Equal(t, 2, providers[0].ModelCount)

	detailed := decode[[]catalog.Provider](t, do(t, ts, http.MethodGet, "/api/providers/detailed", ""))
	require.Len(t, detailed, 2)
	assert.Len(t, detailed[0].Models, 2)

	models := decode[[]catalog.ModelEntry](t, do(t, ts, http.MethodGet, "/api/models?provider=OpenAI&family=reasoning", ""))
	require.Len(t, models, 1)
	assert.Equal(t, "o1", models[0].ID)

	none := decode[[]catalog.ModelEntry](t, do(t, ts, http.MethodGet, "/api/models?provider=Nobody", ""))
	assert.Empty(t, none)

	model := decode[catalog.ModelEntry](t, do(t, ts, http.MethodGet, "/api/models/Anthropic/Claude%20Sonnet", ""))
	assert.Equal(t, 3.0, model.InputPerMillion)

	resp := do(t, ts, http.MethodGet, "/api/models/OpenAI/GPT-9", "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, schema.ErrCodeNotFound, decode[errorBody](t, resp).Error.Code)

	pricing := decode[map[string]any](t, do(t, ts, http.MethodGet, "/api/pricing", ""))
	assert.Equal(t, "2025-01", pricing["version"])

	cats := decode[[]catalog.CategorySummary](t, do(t, ts, http.MethodGet, "/api/tools/categories", ""))
	require.Len(t, cats, 2)
	assert.Equal(t, 1, cats[1].ToolCount)

	tools := decode[[]catalog.ToolEntry](t, do(t, ts, http.MethodGet, "/api/tools?category=code", ""))
	require.Len(t, tools, 1)
	assert.Equal(t, "python_exec", tools[0].ID)

	tool := decode[catalog.ToolDefinition](t, do(t, ts, http.MethodGet, "/api/tools/web_search", ""))
	assert.Equal(t, 500, tool.LatencyMs)

	resp = do(t, ts, http.MethodGet, "/api/tools/nope", "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestRequestIDPropagation(t *testing.T) {
	ts := newTestServer(t)
	req, err := http.NewRequest(http.MethodGet, ts.URL+"/health", nil)
	require.NoError(t, err)
	req.Header.Set(headerRequestID, "trace-123")
	resp, err := ts.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, "trace-123", resp.Header.Get(headerRequestID))
}

func TestCORS(t *testing.T) {
	ts := newTestServer(t)

	preflight, err := http.NewRequest(http.MethodOptions, ts.URL+"/api/estimate", nil)
	require.NoError(t, err)
	preflight.Header.Set("Origin", "http://localhost:3000")
	preflight.Header.Set("Access-Control-Request-Method", "POST")
	preflight.Header.Set("Access-Control-Request-Headers", "content-type")
	resp, err := ts.Client().Do(preflight)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	assert.Equal(t, "http://localhost:3000", resp.Header.Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", resp.Header.Get("Access-Control-Allow-Credentials"))
	assert.Equal(t, "content-type", resp.Header.Get("Access-Control-Allow-Headers"))

	other, err := http.NewRequest(http.MethodGet, ts.URL+"/health", nil)
	require.NoError(t, err)
	other.Header.Set("Origin", "http://evil.example")
	resp2, err := ts.Client().Do(other)
	require.NoError(t, err)
	defer resp2.Body.Close()
	assert.Equal(t, http.StatusOK, resp2.StatusCode)
	assert.Empty(t, resp2.Header.Get("Access-Control-Allow-Origin"))
}

func TestStatusFor(t *testing.T) {
	assert.Equal(t, http.StatusBadRequest, statusFor(schema.ErrCodeValidation))
	assert.Equal(t, http.StatusBadRequest, statusFor(schema.ErrCodeImport))
	assert.Equal(t, http.StatusBadRequest, statusFor(schema.ErrCodeExpression))
	assert.Equal(t, http.StatusBadRequest, statusFor(schema.ErrCodeBatchLimit))
	assert.Equal(t, http.StatusNotFound, statusFor(schema.ErrCodeNotFound))
	assert.Equal(t, http.StatusInternalServerError, statusFor(schema.ErrCodeCatalog))
	assert.Equal(t, http.StatusInternalServerError, statusFor(schema.ErrCodeRender))
}
