package catalog

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rendis/flowcost/pkg/schema"
)

func TestDefaultPricing(t *testing.T) {
	c, err := DefaultPricing()
	require.NoError(t, err)
	assert.NotEmpty(t, c.Version())

	m, ok := c.Lookup("OpenAI", "GPT-4o")
	require.True(t, ok)
	assert.Equal(t, 2.5, m.InputPerMillion)
	assert.Positive(t, m.TokensPerSec)

	_, ok = c.Lookup("OpenAI", "does-not-exist")
	assert.False(t, ok)

	expensive := 0
	for _, e := range c.Models("", "") {
		if e.InputPerMillion >= 10 {
			expensive++
		}
	}
	assert.Positive(t, expensive, "embedded catalog should carry premium models")
}

func TestDefaultPricing_Shared(t *testing.T) {
	a, err := DefaultPricing()
	require.NoError(t, err)
	b, err := DefaultPricing()
	require.NoError(t, err)
	assert.Same(t, a, b)
}

func TestPricingCatalog_Models_Filters(t *testing.T) {
	c, err := DefaultPricing()
	require.NoError(t, err)

	for _, e := range c.Models("Anthropic", "") {
		assert.Equal(t, "Anthropic", e.Provider)
	}
	for _, e := range c.Models("", "reasoning") {
		assert.Equal(t, "reasoning", e.Family)
	}
	assert.Empty(t, c.Models("nobody", ""))

	summaries := c.ProviderSummaries()
	require.Len(t, summaries, len(c.Providers()))
	p, ok := c.Provider(summaries[0].ID)
	require.True(t, ok)
	assert.Equal(t, len(p.Models), summaries[0].ModelCount)
}

func TestNewPricingCatalog_Rejects(t *testing.T) {
	tests := []struct {
		name string
		data PricingData
	}{
		{"empty provider id", PricingData{Providers: []Provider{{ID: ""}}}},
		{"duplicate provider", PricingData{Providers: []Provider{{ID: "a"}, {ID: "a"}}}},
		{"duplicate model", PricingData{Providers: []Provider{{ID: "a", Models: []ModelPricing{{ID: "m"}, {ID: "m"}}}}}},
		{"negative price", PricingData{Providers: []Provider{{ID: "a", Models: []ModelPricing{{ID: "m", InputPerMillion: -1}}}}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewPricingCatalog(tt.data)
			require.Error(t, err)
			assert.Equal(t, schema.ErrCodeCatalog, schema.CodeOf(err))
		})
	}
}

func TestDefaultTools(t *testing.T) {
	c, err := DefaultTools()
	require.NoError(t, err)

	tool, ok := c.Lookup("web_search")
	require.True(t, ok)
	assert.Equal(t, 800, tool.LatencyMs)

	for _, e := range c.Tools("database") {
		assert.Equal(t, "database", e.Category)
		assert.Equal(t, "Databases", e.CategoryName)
	}
	assert.Len(t, c.CategorySummaries(), len(c.Categories()))
}

func TestNewToolCatalog_RejectsDuplicates(t *testing.T) {
	_, err := NewToolCatalog(ToolData{ToolCategories: []ToolCategory{
		{ID: "a", Tools: []ToolDefinition{{ID: "t"}}},
		{ID: "b", Tools: []ToolDefinition{{ID: "t"}}},
	}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate tool id")
}

func TestLoadPricing_YAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pricing.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
version: test
providers:
  - id: Acme
    name: Acme AI
    models:
      - id: rocket
        display_name: Rocket
        family: flagship
        input_per_million: 12
        output_per_million: 36
        tokens_per_sec: 40
`), 0o644))

	c, err := LoadPricing(path)
	require.NoError(t, err)
	assert.Equal(t, "test", c.Version())
	m, ok := c.Lookup("Acme", "rocket")
	require.True(t, ok)
	assert.Equal(t, 12.0, m.InputPerMillion)
	assert.Equal(t, 40.0, m.TokensPerSec)
}

func TestLoadTools_JSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tools.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"version":"x","tool_categories":[{"id":"c","name":"C","tools":[{"id":"t1","display_name":"T1","description":"","schema_tokens":10,"avg_response_tokens":20,"latency_ms":30,"latency_type":"local"}]}]}`), 0o644))

	c, err := LoadTools(path)
	require.NoError(t, err)
	tool, ok := c.Lookup("t1")
	require.True(t, ok)
	assert.Equal(t, 30, tool.LatencyMs)
}

func TestLoad_Errors(t *testing.T) {
	_, err := LoadPricing(filepath.Join(t.TempDir(), "missing.json"))
	require.Error(t, err)
	assert.Equal(t, schema.ErrCodeCatalog, schema.CodeOf(err))

	path := filepath.Join(t.TempDir(), "tools.toml")
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))
	_, err = LoadTools(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported catalog file extension")

	_, err = ParsePricing([]byte("{not json"), ".json")
	require.Error(t, err)
}

func TestLoad_EmptyPathUsesEmbedded(t *testing.T) {
	c, err := LoadTools("")
	require.NoError(t, err)
	d, err := DefaultTools()
	require.NoError(t, err)
	assert.Same(t, c, d)
}
