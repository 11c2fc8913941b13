package catalog

import (
	"github.com/rendis/flowcost/pkg/schema"
)

// ToolDefinition is the estimation metadata of one tool.
type ToolDefinition struct {
	ID                string `json:"id" yaml:"id"`
	DisplayName       string `json:"display_name" yaml:"display_name"`
	Description       string `json:"description" yaml:"description"`
	SchemaTokens      int    `json:"schema_tokens" yaml:"schema_tokens"`
	AvgResponseTokens int    `json:"avg_response_tokens" yaml:"avg_response_tokens"`
	LatencyMs         int    `json:"latency_ms" yaml:"latency_ms"`
	LatencyType       string `json:"latency_type" yaml:"latency_type"` // local | hosted
}

// ToolCategory groups related tools.
type ToolCategory struct {
	ID    string           `json:"id" yaml:"id"`
	Name  string           `json:"name" yaml:"name"`
	Tools []ToolDefinition `json:"tools" yaml:"tools"`
}

// ToolData is the on-disk shape of a tool catalog.
type ToolData struct {
	Version        string         `json:"version" yaml:"version"`
	ToolCategories []ToolCategory `json:"tool_categories" yaml:"tool_categories"`
}

// CategorySummary is a category without its tool list.
type CategorySummary struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	ToolCount int    `json:"tool_count"`
}

// ToolEntry is a tool flattened together with its category.
type ToolEntry struct {
	Category     string `json:"category"`
	CategoryName string `json:"category_name"`
	ToolDefinition
}

// ToolCatalog answers tool ID lookups.
type ToolCatalog struct {
	data   ToolData
	lookup map[string]ToolDefinition
}

// NewToolCatalog validates data and indexes it for lookup.
func NewToolCatalog(data ToolData) (*ToolCatalog, error) {
	c := &ToolCatalog{
		data:   data,
		lookup: make(map[string]ToolDefinition),
	}

	for _, cat := range data.ToolCategories {
		if cat.ID == "" {
			return nil, schema.NewError(schema.ErrCodeCatalog, "tool category with empty id")
		}
		for _, tool := range cat.Tools {
			if tool.ID == "" {
				return nil, schema.NewErrorf(schema.ErrCodeCatalog, "category %s has a tool with empty id", cat.ID)
			}
			if tool.SchemaTokens < 0 || tool.AvgResponseTokens < 0 || tool.LatencyMs < 0 {
				return nil, schema.NewErrorf(schema.ErrCodeCatalog, "tool %s has a negative size or latency", tool.ID)
			}
			if _, exists := c.lookup[tool.ID]; exists {
				return nil, schema.NewErrorf(schema.ErrCodeCatalog, "duplicate tool id: %s", tool.ID)
			}
			c.lookup[tool.ID] = tool
		}
	}

	return c, nil
}

// Version returns the catalog's data version.
func (c *ToolCatalog) Version() string { return c.data.Version }

// Lookup returns the definition of a tool.
func (c *ToolCatalog) Lookup(toolID string) (ToolDefinition, bool) {
	t, ok := c.lookup[toolID]
	return t, ok
}

// Categories returns every category with its tools.
func (c *ToolCatalog) Categories() []ToolCategory {
	return c.data.ToolCategories
}

// CategorySummaries returns categories with tool counts.
func (c *ToolCatalog) CategorySummaries() []CategorySummary {
	out := make([]CategorySummary, 0, len(c.data.ToolCategories))
	for _, cat := range c.data.ToolCategories {
		out = append(out, CategorySummary{ID: cat.ID, Name: cat.Name, ToolCount: len(cat.Tools)})
	}
	return out
}

// Tools returns a flat tool list, optionally filtered by category.
func (c *ToolCatalog) Tools(category string) []ToolEntry {
	out := make([]ToolEntry, 0)
	for _, cat := range c.data.ToolCategories {
		if category != "" && cat.ID != category {
			continue
		}
		for _, tool := range cat.Tools {
			out = append(out, ToolEntry{Category: cat.ID, CategoryName: cat.Name, ToolDefinition: tool})
		}
	}
	return out
}
