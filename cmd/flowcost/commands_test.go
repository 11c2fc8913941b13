package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rendis/flowcost/pkg/schema"
)

const researchLoop = `{
  "nodes": [
    {"id": "start", "type": "startNode"},
    {"id": "planner", "type": "agentNode", "model_provider": "OpenAI", "model_name": "GPT-4o",
     "context": "plan the research steps", "max_steps": 3},
    {"id": "critic", "type": "agentNode", "model_provider": "OpenAI", "model_name": "GPT-4o-mini",
     "context": "review the plan"},
    {"id": "end", "type": "finishNode"}
  ],
  "edges": [
    {"source": "start", "target": "planner"},
    {"source": "planner", "target": "critic"},
    {"source": "critic", "target": "planner"},
    {"source": "planner", "target": "end"}
  ]
}`

func newTestCLI(t *testing.T, stdin string) (*cli, *bytes.Buffer) {
	t.Helper()
	var out bytes.Buffer
	return &cli{
		cfg:    defaultConfig(),
		stdin:  strings.NewReader(stdin),
		stdout: &out,
		stderr: io.Discard,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}, &out
}

func TestRunEstimate(t *testing.T) {
	c, out := newTestCLI(t, researchLoop)
	require.NoError(t, c.run(context.Background(), "estimate", nil))

	var est schema.WorkflowEstimation
	require.NoError(t, json.Unmarshal(out.Bytes(), &est))
	assert.Equal(t, schema.GraphTypeCyclic, est.GraphType)
	assert.Len(t, est.DetectedCycles, 1)
	assert.Greater(t, est.TotalCost, 0.0)
}

func TestRunEstimateQuery(t *testing.T) {
	c, out := newTestCLI(t, researchLoop)
	require.NoError(t, c.run(context.Background(), "estimate", []string{"-query", ".graph_type"}))
	assert.Equal(t, `"CYCLIC"`, strings.TrimSpace(out.String()))
}

func TestRunEstimateFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "wf.json")
	require.NoError(t, os.WriteFile(path, []byte(researchLoop), 0o644))

	c, out := newTestCLI(t, "")
	require.NoError(t, c.run(context.Background(), "estimate", []string{"-f", path}))
	assert.Contains(t, out.String(), `"graph_type": "CYCLIC"`)
}

func TestRunEstimateErrors(t *testing.T) {
	c, _ := newTestCLI(t, `{nope`)
	err := c.run(context.Background(), "estimate", nil)
	assert.Equal(t, schema.ErrCodeValidation, schema.CodeOf(err))

	c, _ = newTestCLI(t, "")
	err = c.run(context.Background(), "estimate", []string{"-f", "/does/not/exist.json"})
	assert.Error(t, err)
}

func TestRunBatch(t *testing.T) {
	c, out := newTestCLI(t, `{"workflows": [{"id": "w1", "name": "loop",`+strings.TrimPrefix(researchLoop, "{")+`]}`)
	require.NoError(t, c.run(context.Background(), "estimate", []string{"-batch"}))

	var resp schema.BatchEstimateResponse
	require.NoError(t, json.Unmarshal(out.Bytes(), &resp))
	require.Len(t, resp.Results, 1)
	assert.Equal(t, "w1", resp.Results[0].ID)
}

func TestRunImport(t *testing.T) {
	lg := `{
	  "nodes": [{"id": "__start__"}, {"id": "agent", "model_provider": "OpenAI", "model_name": "GPT-4o"}, {"id": "__end__"}],
	  "edges": [{"source": "__start__", "target": "agent"}, {"source": "agent", "target": "__end__"}]
	}`
	c, out := newTestCLI(t, lg)
	require.NoError(t, c.run(context.Background(), "import", []string{"-source", "langgraph"}))

	var wf schema.ImportedWorkflow
	require.NoError(t, json.Unmarshal(out.Bytes(), &wf))
	assert.Len(t, wf.Nodes, 3)
	assert.Len(t, wf.Edges, 2)
}

func TestRunImportUnknownSource(t *testing.T) {
	c, _ := newTestCLI(t, `{}`)
	err := c.run(context.Background(), "import", []string{"-source", "zapier"})
	assert.Equal(t, schema.ErrCodeImport, schema.CodeOf(err))
}

func TestRunDiagram(t *testing.T) {
	c, out := newTestCLI(t, researchLoop)
	require.NoError(t, c.run(context.Background(), "diagram", []string{"-format", "ascii"}))
	assert.Contains(t, out.String(), "--- loops ---")

	path := filepath.Join(t.TempDir(), "wf.mmd")
	c, _ = newTestCLI(t, researchLoop)
	require.NoError(t, c.run(context.Background(), "diagram", []string{"-o", path}))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "graph TD"))
}

func TestRunDiagramBadFormat(t *testing.T) {
	c, _ := newTestCLI(t, researchLoop)
	err := c.run(context.Background(), "diagram", []string{"-format", "gif"})
	assert.Equal(t, schema.ErrCodeValidation, schema.CodeOf(err))
}

func TestRunVersionAndUnknown(t *testing.T) {
	c, out := newTestCLI(t, "")
	require.NoError(t, c.run(context.Background(), "version", nil))
	assert.Equal(t, "dev\n", out.String())

	assert.Error(t, c.run(context.Background(), "frobnicate", nil))
}

func TestSampleWorkflowsEstimate(t *testing.T) {
	files, err := filepath.Glob(filepath.Join("..", "..", "examples", "workflows", "*.json"))
	require.NoError(t, err)
	require.NotEmpty(t, files)

	for _, file := range files {
		t.Run(filepath.Base(file), func(t *testing.T) {
			c, out := newTestCLI(t, "")
			require.NoError(t, c.run(context.Background(), "estimate", []string{"-f", file}))

			var est schema.WorkflowEstimation
			require.NoError(t, json.Unmarshal(out.Bytes(), &est))
			assert.Greater(t, est.TotalTokens, 0)
			for _, g := range est.Guards {
				assert.Empty(t, g.Error, g.Name)
			}
		})
	}
}
