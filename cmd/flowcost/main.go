// Command flowcost estimates the token usage, cost and latency of agentic
// workflow graphs. It serves an HTTP API, an MCP stdio server, or runs
// one-off estimations from the command line.
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/joho/godotenv/autoload"

	"github.com/rendis/flowcost/internal/catalog"
	"github.com/rendis/flowcost/internal/logging"
	"github.com/rendis/flowcost/internal/observability"
	"github.com/rendis/flowcost/internal/service"
)

const usage = `usage: flowcost <command> [flags]

commands:
  serve      run the HTTP API
  mcp        run the MCP server on stdio
  estimate   estimate a workflow read from a file or stdin
  import     convert a LangGraph, n8n or generic export
  diagram    render an estimated workflow
  version    print the version
`

// cli carries the process environment shared by all commands.
type cli struct {
	cfg    Config
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer
	logger *slog.Logger
}

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg := loadConfig()
	c := &cli{
		cfg:    cfg,
		stdin:  os.Stdin,
		stdout: os.Stdout,
		stderr: os.Stderr,
		logger: newLogger(os.Stderr, cfg.LogLevel),
	}
	slog.SetDefault(c.logger)

	if err := c.run(ctx, os.Args[1], os.Args[2:]); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func (c *cli) run(ctx context.Context, cmd string, args []string) error {
	switch cmd {
	case "serve":
		return c.runServe(ctx, args)
	case "mcp":
		return c.runMCP(ctx, args)
	case "estimate":
		return c.runEstimate(ctx, args)
	case "import":
		return c.runImport(ctx, args)
	case "diagram":
		return c.runDiagram(ctx, args)
	case "version", "-v", "--version":
		printVersion(c.stdout)
		return nil
	case "help", "-h", "--help":
		fmt.Fprint(c.stdout, usage)
		return nil
	default:
		return fmt.Errorf("unknown command %q\n%s", cmd, usage)
	}
}

// newLogger writes text logs to w with request correlation.
func newLogger(w io.Writer, level string) *slog.Logger {
	inner := slog.NewTextHandler(w, &slog.HandlerOptions{Level: logging.ParseLevel(level)})
	return slog.New(logging.NewCorrelationHandler(inner))
}

// newService loads the configured catalogs and builds the pipeline.
func (c *cli) newService() (*service.Service, error) {
	pricing, err := catalog.LoadPricing(c.cfg.PricingFile)
	if err != nil {
		return nil, err
	}
	tools, err := catalog.LoadTools(c.cfg.ToolsFile)
	if err != nil {
		return nil, err
	}

	deps := service.Deps{
		Pricing: pricing,
		Tools:   tools,
		Logger:  c.logger,
	}
	if c.cfg.Metrics {
		deps.Metrics = observability.NewMetricsRecorder()
		deps.Spans = observability.NewSpanManager()
	}
	return service.New(deps)
}
