package importer

import (
	"testing"

	"github.com/rendis/flowcost/pkg/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func requireImportError(t *testing.T, err error) {
	t.Helper()
	require.Error(t, err)
	assert.Equal(t, schema.ErrCodeImport, schema.CodeOf(err))
}

func TestSources(t *testing.T) {
	assert.Equal(t, []string{"custom", "generic", "langgraph", "n8n"}, Sources())
}

func TestImport_UnknownSource(t *testing.T) {
	_, err := Import("zapier", []byte(`{}`))
	requireImportError(t, err)
	assert.Contains(t, err.Error(), "langgraph")
}

func TestImport_SourceIsCaseInsensitive(t *testing.T) {
	wf, err := Import(" LangGraph ", []byte(`{"nodes":["__start__"]}`))
	require.NoError(t, err)
	assert.Len(t, wf.Nodes, 1)
}

func TestImport_BadPayloads(t *testing.T) {
	for name, payload := range map[string]string{
		"empty":  "  ",
		"null":   "null",
		"array":  "[1, 2]",
		"string": `"workflow"`,
	} {
		t.Run(name, func(t *testing.T) {
			_, err := Import("generic", []byte(payload))
			requireImportError(t, err)
		})
	}
}

func TestImport_RepairsLooseJSON(t *testing.T) {
	payload := `{
		nodes: [
			{id: 'a', type: 'agentNode', model_provider: 'OpenAI', model_name: 'GPT-4o',},
			{id: 'b', type: 'finishNode'},
		],
		edges: [{source: 'a', target: 'b'}],
	}`

	wf, err := Import("generic", []byte(payload))
	require.NoError(t, err)
	require.Len(t, wf.Nodes, 2)
	assert.Equal(t, "GPT-4o", wf.Nodes[0].ModelName)
	require.Len(t, wf.Edges, 1)
	assert.Equal(t, true, wf.Metadata["repaired"])
}

func TestImport_StrictJSONNotMarkedRepaired(t *testing.T) {
	wf, err := Import("generic", []byte(`{"nodes":[],"edges":[]}`))
	require.NoError(t, err)
	assert.NotContains(t, wf.Metadata, "repaired")
}

func TestImportedWorkflow_RequestCarriesRecursionLimit(t *testing.T) {
	wf, err := Import("generic", []byte(`{"nodes":[{"id":"a","type":"agentNode"}],"recursion_limit":40}`))
	require.NoError(t, err)
	assert.Equal(t, 40, wf.Request().RecursionLimit)
}
