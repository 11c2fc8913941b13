// Package mcp exposes the estimator as Model Context Protocol tools so
// agents can price a workflow before building it.
package mcp

import (
	"context"
	"log/slog"
	"os"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/rendis/flowcost/internal/importer"
	"github.com/rendis/flowcost/internal/service"
)

// ServerDeps holds the dependencies for creating a Server.
type ServerDeps struct {
	Service *service.Service
	Logger  *slog.Logger
	Version string
}

// Server wraps an MCP server with flowcost tool handlers.
type Server struct {
	svc       *service.Service
	logger    *slog.Logger
	mcpServer *server.MCPServer
}

// NewServer creates a Server with all tools registered.
func NewServer(deps ServerDeps) *Server {
	logger := deps.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))
	}
	version := deps.Version
	if version == "" {
		version = "dev"
	}

	s := &Server{
		svc:    deps.Service,
		logger: logger,
	}

	mcpSrv := server.NewMCPServer(
		"flowcost",
		version,
		server.WithToolCapabilities(false),
		server.WithRecovery(),
		server.WithInstructions("Flowcost estimates token usage, cost and latency of agentic workflow graphs, including graphs with bounded loops. "+
			"Use flowcost.estimate for one workflow, flowcost.batch to compare up to 10 variants, flowcost.diagram to visualize the estimate, "+
			"flowcost.import to convert LangGraph or n8n exports, and flowcost.models / flowcost.tools to browse the catalogs."),
	)

	mcpSrv.AddTools(s.tools()...)
	s.mcpServer = mcpSrv
	return s
}

// Serve starts the stdio transport and blocks until ctx is cancelled or stdin closes.
func (s *Server) Serve(ctx context.Context) error {
	stdio := server.NewStdioServer(s.mcpServer)
	return stdio.Listen(ctx, os.Stdin, os.Stdout)
}

// MCPServer returns the underlying MCPServer for testing or custom transports.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcpServer
}

func (s *Server) tools() []server.ServerTool {
	return []server.ServerTool{
		{Tool: estimateTool(), Handler: s.handleEstimate},
		{Tool: batchTool(), Handler: s.handleBatch},
		{Tool: diagramTool(), Handler: s.handleDiagram},
		{Tool: importTool(), Handler: s.handleImport},
		{Tool: modelsTool(), Handler: s.handleModels},
		{Tool: toolsTool(), Handler: s.handleTools},
	}
}

// --- Tool definitions ---

func estimateTool() mcp.Tool {
	return mcp.NewTool("flowcost.estimate",
		mcp.WithDescription("Estimate tokens, cost and latency of a workflow graph"),
		mcp.WithObject("workflow", mcp.Required(),
			mcp.Description("Workflow: {nodes, edges, recursion_limit?, runs_per_day?, loop_intensity?, guards?}")),
		mcp.WithString("query", mcp.Description("Optional jq expression applied to the estimation, e.g. '.cost_range'")),
	)
}

func batchTool() mcp.Tool {
	return mcp.NewTool("flowcost.batch",
		mcp.WithDescription("Estimate up to 10 workflows and return one summary row per workflow"),
		mcp.WithArray("workflows", mcp.Required(),
			mcp.Description("Workflows, each with a unique id plus nodes and edges")),
	)
}

func diagramTool() mcp.Tool {
	return mcp.NewTool("flowcost.diagram",
		mcp.WithDescription("Render an estimated workflow with costs, loops and the critical path"),
		mcp.WithObject("workflow", mcp.Required(), mcp.Description("Workflow to estimate and render")),
		mcp.WithString("format",
			mcp.Enum(service.DiagramFormats...),
			mcp.Description("Output format: mermaid (default), ascii, svg, or png (base64 image)"),
		),
	)
}

func importTool() mcp.Tool {
	return mcp.NewTool("flowcost.import",
		mcp.WithDescription("Convert a third-party workflow export into a flowcost workflow"),
		mcp.WithString("source", mcp.Required(),
			mcp.Enum(importer.Sources()...),
			mcp.Description("Format of the export"),
		),
		mcp.WithString("payload", mcp.Required(), mcp.Description("The exported workflow JSON, as text")),
	)
}

func modelsTool() mcp.Tool {
	return mcp.NewTool("flowcost.models",
		mcp.WithDescription("List priced models"),
		mcp.WithString("provider", mcp.Description("Filter by provider id")),
		mcp.WithString("family", mcp.Description("Filter by model family")),
		mcp.WithString("model", mcp.Description("Return a single model (requires provider)")),
	)
}

func toolsTool() mcp.Tool {
	return mcp.NewTool("flowcost.tools",
		mcp.WithDescription("List tools with their token and latency profile"),
		mcp.WithString("category", mcp.Description("Filter by category id")),
		mcp.WithString("tool_id", mcp.Description("Return a single tool")),
	)
}
