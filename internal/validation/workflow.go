package validation

import (
	"errors"
	"fmt"

	"github.com/rendis/flowcost/pkg/schema"
)

// RequestValidator orchestrates the three-stage validation pipeline:
// 1. Structural (JSON Schema)
// 2. Semantic (unique IDs, edge and catalog references)
// 3. Graph (loop caps, reachability)
type RequestValidator struct {
	jsonSchema *JSONSchemaValidator
	catalogs   Catalogs
}

// NewRequestValidator creates a RequestValidator. Catalog lookups may be
// nil to skip reference checks.
func NewRequestValidator(cats Catalogs) (*RequestValidator, error) {
	jsv, err := NewJSONSchemaValidator()
	if err != nil {
		return nil, err
	}
	return &RequestValidator{jsonSchema: jsv, catalogs: cats}, nil
}

// Validate runs the full pipeline on a single request. Structural errors
// short-circuit the later stages.
func (rv *RequestValidator) Validate(req *schema.EstimateRequest) *schema.ValidationResult {
	if req == nil {
		r := &schema.ValidationResult{}
		r.AddError("/", schema.ErrCodeValidation, "estimate request is nil")
		return r
	}

	result := structural(rv.jsonSchema.ValidateRequest(req))
	if !result.Valid() {
		return result
	}
	rv.stages(req, "", result)
	return result
}

// ValidateBatchResult runs the pipeline on every workflow of a batch.
func (rv *RequestValidator) ValidateBatchResult(batch *schema.BatchEstimateRequest) *schema.ValidationResult {
	if batch == nil {
		r := &schema.ValidationResult{}
		r.AddError("/", schema.ErrCodeValidation, "batch request is nil")
		return r
	}

	result := structural(rv.jsonSchema.ValidateBatch(batch))
	if !result.Valid() {
		return result
	}

	ids := make(map[string]int, len(batch.Workflows))
	for i := range batch.Workflows {
		item := &batch.Workflows[i]
		prefix := fmt.Sprintf("workflows[%d].", i)
		if first, dup := ids[item.ID]; dup {
			result.AddError(prefix+"id", schema.ErrCodeValidation,
				fmt.Sprintf("duplicate workflow id %q (first defined at workflows[%d])", item.ID, first))
		} else {
			ids[item.ID] = i
		}
		rv.stages(&item.EstimateRequest, prefix, result)
	}
	return result
}

func (rv *RequestValidator) stages(req *schema.EstimateRequest, prefix string, result *schema.ValidationResult) {
	semantic := validateSemantic(req, rv.catalogs, prefix)
	result.Merge(semantic)
	// Graph stage is skipped on semantic errors: duplicate IDs make it ambiguous.
	if semantic.Valid() {
		result.Merge(validateGraph(req, prefix))
	}
}

// ValidateRequest satisfies the Validator interface.
func (rv *RequestValidator) ValidateRequest(req *schema.EstimateRequest) error {
	return rv.Validate(req).ToError()
}

// ValidateBatch satisfies the Validator interface.
func (rv *RequestValidator) ValidateBatch(batch *schema.BatchEstimateRequest) error {
	if batch != nil && len(batch.Workflows) > schema.MaxBatchWorkflows {
		return rv.jsonSchema.ValidateBatch(batch)
	}
	return rv.ValidateBatchResult(batch).ToError()
}

// structural converts a JSON Schema error into a ValidationResult.
func structural(err error) *schema.ValidationResult {
	result := &schema.ValidationResult{}
	if err == nil {
		return result
	}

	var fe *schema.FlowcostError
	if !errors.As(err, &fe) {
		result.AddError("/", schema.ErrCodeValidation, err.Error())
		return result
	}

	if fe.Details != nil {
		if violations, ok := fe.Details["violations"].([]string); ok {
			for _, v := range violations {
				result.AddError("/", fe.Code, v)
			}
			return result
		}
	}
	result.AddError("/", fe.Code, fe.Message)
	return result
}

var (
	_ Validator = (*RequestValidator)(nil)
	_ Validator = (*JSONSchemaValidator)(nil)
)
