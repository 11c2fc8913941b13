package validation

import (
	"github.com/rendis/flowcost/internal/catalog"
	"github.com/rendis/flowcost/pkg/schema"
)

// Validator rejects malformed estimation requests before they reach the
// estimator. The estimator itself assumes well-typed input.
type Validator interface {
	ValidateRequest(req *schema.EstimateRequest) error
	ValidateBatch(batch *schema.BatchEstimateRequest) error
}

// ModelLookup resolves (provider, model) pairs in the pricing catalog.
type ModelLookup interface {
	Lookup(provider, model string) (catalog.ModelPricing, bool)
}

// ToolLookup resolves tool IDs in the tool catalog.
type ToolLookup interface {
	Lookup(toolID string) (catalog.ToolDefinition, bool)
}

// Catalogs lets semantic checks warn about unresolvable references.
// Either field may be nil to skip the corresponding check.
type Catalogs struct {
	Pricing ModelLookup
	Tools   ToolLookup
}
