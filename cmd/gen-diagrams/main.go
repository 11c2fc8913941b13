// gen-diagrams renders the sample workflows under examples/workflows into
// docs/assets for README documentation.
// Run: go run ./cmd/gen-diagrams
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rendis/flowcost/internal/service"
	"github.com/rendis/flowcost/pkg/schema"
)

func main() {
	svc, err := service.New(service.Deps{})
	if err != nil {
		fmt.Fprintf(os.Stderr, "service error: %v\n", err)
		os.Exit(1)
	}

	files, _ := filepath.Glob(filepath.Join("examples", "workflows", "*.json"))
	if len(files) == 0 {
		fmt.Fprintln(os.Stderr, "no sample workflows found; run from the repository root")
		os.Exit(1)
	}

	outDir := filepath.Join("docs", "assets")
	os.MkdirAll(outDir, 0o755)

	ctx := context.Background()
	for _, file := range files {
		name := strings.TrimSuffix(filepath.Base(file), ".json")
		data, err := os.ReadFile(file)
		if err != nil {
			fmt.Fprintf(os.Stderr, "%s: %v\n", file, err)
			continue
		}
		var req schema.EstimateRequest
		if err := json.Unmarshal(data, &req); err != nil {
			fmt.Fprintf(os.Stderr, "%s: %v\n", file, err)
			continue
		}

		for _, format := range []string{service.DiagramMermaid, service.DiagramASCII, service.DiagramSVG} {
			d, err := svc.RenderDiagram(ctx, &req, format)
			if err != nil {
				fmt.Fprintf(os.Stderr, "%s (%s): %v\n", name, format, err)
				continue
			}

			body := d.Body
			ext := format
			switch format {
			case service.DiagramMermaid:
				body = []byte("```mermaid\n" + string(d.Body) + "\n```\n")
				ext = "md"
			case service.DiagramASCII:
				ext = "txt"
			}
			path := filepath.Join(outDir, name+"."+ext)
			os.WriteFile(path, body, 0o644)

			if format == service.DiagramSVG {
				fmt.Printf("=== %s (svg) ===\nWritten: %s (%d bytes)\n", name, path, len(body))
			} else {
				fmt.Printf("=== %s (%s) ===\n%s\n", name, format, d.Body)
			}
		}
	}
}
