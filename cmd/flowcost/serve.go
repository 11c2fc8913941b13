package main

import (
	"context"
	"flag"
	"log/slog"

	"github.com/rendis/flowcost/internal/api"
	"github.com/rendis/flowcost/pkg/mcp"
)

func (c *cli) runServe(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("serve", flag.ContinueOnError)
	fs.SetOutput(c.stderr)
	host := fs.String("host", c.cfg.Host, "listen host")
	port := fs.Int("port", c.cfg.Port, "listen port")
	if err := fs.Parse(args); err != nil {
		return err
	}
	c.cfg.Host, c.cfg.Port = *host, *port

	svc, err := c.newService()
	if err != nil {
		return err
	}

	srv := api.NewServer(api.ServerDeps{
		Service:        svc,
		Logger:         c.logger,
		AllowedOrigins: c.cfg.Origins(),
		Version:        version,
	})
	c.logger.Info("flowcost starting",
		slog.String("version", version),
		slog.String("pricing_version", svc.Pricing().Version()),
		slog.String("tools_version", svc.Tools().Version()),
		slog.Bool("metrics", c.cfg.Metrics),
	)
	return srv.ListenAndServe(ctx, c.cfg.Addr())
}

// runMCP serves MCP on stdio. Logs go to stderr since stdout carries the protocol.
func (c *cli) runMCP(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("mcp", flag.ContinueOnError)
	fs.SetOutput(c.stderr)
	if err := fs.Parse(args); err != nil {
		return err
	}

	svc, err := c.newService()
	if err != nil {
		return err
	}
	return mcp.NewServer(mcp.ServerDeps{
		Service: svc,
		Logger:  c.logger,
		Version: version,
	}).Serve(ctx)
}
