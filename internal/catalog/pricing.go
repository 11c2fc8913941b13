// Package catalog holds the immutable reference data consulted by the
// estimator: model pricing and tool metadata. Catalogs are built once and
// never mutated, so they are safe to share across goroutines.
package catalog

import (
	"github.com/rendis/flowcost/pkg/schema"
)

// ModelPricing is the price and throughput of one model.
type ModelPricing struct {
	ID               string  `json:"id" yaml:"id"`
	DisplayName      string  `json:"display_name" yaml:"display_name"`
	Family           string  `json:"family" yaml:"family"`
	InputPerMillion  float64 `json:"input_per_million" yaml:"input_per_million"`
	OutputPerMillion float64 `json:"output_per_million" yaml:"output_per_million"`
	TokensPerSec     float64 `json:"tokens_per_sec" yaml:"tokens_per_sec"`
	ContextWindow    *int    `json:"context_window,omitempty" yaml:"context_window,omitempty"`
}

// Provider groups the models of one vendor.
type Provider struct {
	ID     string         `json:"id" yaml:"id"`
	Name   string         `json:"name" yaml:"name"`
	Models []ModelPricing `json:"models" yaml:"models"`
}

// PricingData is the on-disk shape of a pricing catalog.
type PricingData struct {
	Version   string     `json:"version" yaml:"version"`
	Providers []Provider `json:"providers" yaml:"providers"`
}

// ProviderSummary is a provider without its model list.
type ProviderSummary struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	ModelCount int    `json:"model_count"`
}

// ModelEntry is a model flattened together with its provider ID.
type ModelEntry struct {
	Provider string `json:"provider"`
	ModelPricing
}

type modelKey struct {
	provider string
	model    string
}

// PricingCatalog answers (provider, model) price lookups.
type PricingCatalog struct {
	data   PricingData
	lookup map[modelKey]ModelPricing
}

// NewPricingCatalog validates data and indexes it for lookup.
func NewPricingCatalog(data PricingData) (*PricingCatalog, error) {
	c := &PricingCatalog{
		data:   data,
		lookup: make(map[modelKey]ModelPricing),
	}

	seenProviders := make(map[string]bool, len(data.Providers))
	for _, p := range data.Providers {
		if p.ID == "" {
			return nil, schema.NewError(schema.ErrCodeCatalog, "provider with empty id")
		}
		if seenProviders[p.ID] {
			return nil, schema.NewErrorf(schema.ErrCodeCatalog, "duplicate provider id: %s", p.ID)
		}
		seenProviders[p.ID] = true

		for _, m := range p.Models {
			if m.ID == "" {
				return nil, schema.NewErrorf(schema.ErrCodeCatalog, "provider %s has a model with empty id", p.ID)
			}
			if m.InputPerMillion < 0 || m.OutputPerMillion < 0 || m.TokensPerSec < 0 {
				return nil, schema.NewErrorf(schema.ErrCodeCatalog, "model %s/%s has a negative price or throughput", p.ID, m.ID)
			}
			key := modelKey{p.ID, m.ID}
			if _, exists := c.lookup[key]; exists {
				return nil, schema.NewErrorf(schema.ErrCodeCatalog, "duplicate model %s/%s", p.ID, m.ID)
			}
			c.lookup[key] = m
		}
	}

	return c, nil
}

// Version returns the catalog's data version.
func (c *PricingCatalog) Version() string { return c.data.Version }

// Lookup returns the pricing for a (provider, model) pair.
func (c *PricingCatalog) Lookup(provider, model string) (ModelPricing, bool) {
	m, ok := c.lookup[modelKey{provider, model}]
	return m, ok
}

// Providers returns every provider with its models.
func (c *PricingCatalog) Providers() []Provider {
	return c.data.Providers
}

// ProviderSummaries returns providers with model counts.
func (c *PricingCatalog) ProviderSummaries() []ProviderSummary {
	out := make([]ProviderSummary, 0, len(c.data.Providers))
	for _, p := range c.data.Providers {
		out = append(out, ProviderSummary{ID: p.ID, Name: p.Name, ModelCount: len(p.Models)})
	}
	return out
}

// Provider returns one provider by ID.
func (c *PricingCatalog) Provider(id string) (Provider, bool) {
	for _, p := range c.data.Providers {
		if p.ID == id {
			return p, true
		}
	}
	return Provider{}, false
}

// Models returns a flat model list. Empty filters match everything.
func (c *PricingCatalog) Models(provider, family string) []ModelEntry {
	out := make([]ModelEntry, 0)
	for _, p := range c.data.Providers {
		if provider != "" && p.ID != provider {
			continue
		}
		for _, m := range p.Models {
			if family != "" && m.Family != family {
				continue
			}
			out = append(out, ModelEntry{Provider: p.ID, ModelPricing: m})
		}
	}
	return out
}
