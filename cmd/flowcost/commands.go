package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/rendis/flowcost/internal/importer"
	"github.com/rendis/flowcost/internal/service"
	"github.com/rendis/flowcost/pkg/schema"
)

func (c *cli) runEstimate(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("estimate", flag.ContinueOnError)
	fs.SetOutput(c.stderr)
	file := fs.String("f", "-", "workflow JSON file (- for stdin)")
	batch := fs.Bool("batch", false, "input is a batch request")
	query := fs.String("query", "", "jq expression applied to the estimation")
	if err := fs.Parse(args); err != nil {
		return err
	}

	payload, err := c.readInput(*file)
	if err != nil {
		return err
	}
	svc, err := c.newService()
	if err != nil {
		return err
	}

	if *batch {
		var req schema.BatchEstimateRequest
		if err := decodeInput(payload, &req); err != nil {
			return err
		}
		resp, err := svc.EstimateBatch(ctx, &req)
		if err != nil {
			return err
		}
		return c.printJSON(resp)
	}

	var req schema.EstimateRequest
	if err := decodeInput(payload, &req); err != nil {
		return err
	}
	if *query != "" {
		if err := svc.CheckQuery(*query); err != nil {
			return err
		}
	}
	est, err := svc.Estimate(ctx, &req)
	if err != nil {
		return err
	}
	if *query == "" {
		return c.printJSON(est)
	}
	out, err := svc.Query(ctx, est, *query)
	if err != nil {
		return err
	}
	return c.printJSON(out)
}

func (c *cli) runImport(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("import", flag.ContinueOnError)
	fs.SetOutput(c.stderr)
	file := fs.String("f", "-", "export file (- for stdin)")
	source := fs.String("source", "generic", fmt.Sprintf("export format %v", importer.Sources()))
	estimate := fs.Bool("estimate", false, "estimate the imported workflow")
	if err := fs.Parse(args); err != nil {
		return err
	}

	payload, err := c.readInput(*file)
	if err != nil {
		return err
	}
	svc, err := c.newService()
	if err != nil {
		return err
	}

	wf, err := svc.Import(ctx, *source, payload)
	if err != nil {
		return err
	}
	if !*estimate {
		return c.printJSON(wf)
	}
	est, err := svc.Estimate(ctx, wf.Request())
	if err != nil {
		return err
	}
	return c.printJSON(est)
}

func (c *cli) runDiagram(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("diagram", flag.ContinueOnError)
	fs.SetOutput(c.stderr)
	file := fs.String("f", "-", "workflow JSON file (- for stdin)")
	format := fs.String("format", service.DiagramMermaid, "mermaid, ascii, svg or png")
	output := fs.String("o", "", "output file (default stdout)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	payload, err := c.readInput(*file)
	if err != nil {
		return err
	}
	var req schema.EstimateRequest
	if err := decodeInput(payload, &req); err != nil {
		return err
	}
	svc, err := c.newService()
	if err != nil {
		return err
	}

	d, err := svc.RenderDiagram(ctx, &req, *format)
	if err != nil {
		return err
	}
	if *output == "" {
		_, err = c.stdout.Write(d.Body)
		return err
	}
	if err := os.WriteFile(*output, d.Body, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", *output, err)
	}
	fmt.Fprintf(c.stderr, "wrote %s (%d bytes)\n", *output, len(d.Body))
	return nil
}

func (c *cli) readInput(path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(c.stdin)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return data, nil
}

func decodeInput(payload []byte, v any) error {
	if err := json.Unmarshal(payload, v); err != nil {
		return schema.NewErrorf(schema.ErrCodeValidation, "invalid JSON input: %v", err)
	}
	return nil
}

func (c *cli) printJSON(v any) error {
	enc := json.NewEncoder(c.stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
