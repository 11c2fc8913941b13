package validation

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/rendis/flowcost/pkg/schema"
	jsonschema "github.com/santhosh-tekuri/jsonschema/v6"
)

const (
	requestSchemaURL = "https://flowcost.dev/schemas/estimate-request.json"
	batchSchemaURL   = "https://flowcost.dev/schemas/batch-request.json"
)

// requestSchemaJSON describes an estimation request. Embedded as a constant
// to avoid filesystem dependencies.
const requestSchemaJSON = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "$id": "https://flowcost.dev/schemas/estimate-request.json",
  "type": "object",
  "required": ["nodes"],
  "properties": {
    "nodes": {
      "type": ["array", "null"],
      "items": { "$ref": "#/$defs/node" }
    },
    "edges": {
      "type": ["array", "null"],
      "items": { "$ref": "#/$defs/edge" }
    },
    "recursion_limit": { "type": "integer", "minimum": 1, "maximum": 200 },
    "runs_per_day": { "type": "integer", "minimum": 1 },
    "loop_intensity": { "type": "number", "minimum": 0.1, "maximum": 5.0 },
    "guards": {
      "type": "array",
      "items": { "$ref": "#/$defs/guard" }
    }
  },
  "$defs": {
    "node": {
      "type": "object",
      "required": ["id", "type"],
      "properties": {
        "id": { "type": "string", "minLength": 1 },
        "type": {
          "type": "string",
          "enum": ["startNode", "agentNode", "toolNode", "finishNode"]
        },
        "label": { "type": "string" },
        "model_provider": { "type": "string" },
        "model_name": { "type": "string" },
        "context": { "type": "string", "maxLength": 500 },
        "task_type": {
          "type": "string",
          "enum": ["classification", "summarization", "code_generation", "rag_answer", "tool_orchestration", "routing"]
        },
        "expected_output_size": {
          "type": "string",
          "enum": ["short", "medium", "long", "very_long"]
        },
        "max_steps": { "type": "integer", "minimum": 1, "maximum": 100 },
        "expected_calls_per_run": { "type": "integer", "minimum": 1 },
        "tool_id": { "type": "string" },
        "tool_category": { "type": "string" }
      }
    },
    "edge": {
      "type": "object",
      "required": ["source", "target"],
      "properties": {
        "id": { "type": "string" },
        "source": { "type": "string", "minLength": 1 },
        "target": { "type": "string", "minLength": 1 }
      }
    },
    "guard": {
      "type": "object",
      "required": ["expression"],
      "properties": {
        "name": { "type": "string" },
        "engine": { "type": "string", "enum": ["cel", "expr"] },
        "expression": { "type": "string", "minLength": 1 }
      },
      "additionalProperties": false
    }
  }
}`

// batchSchemaJSON describes a batch request; each workflow reuses the
// single-request schema.
const batchSchemaJSON = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "$id": "https://flowcost.dev/schemas/batch-request.json",
  "type": "object",
  "required": ["workflows"],
  "properties": {
    "workflows": {
      "type": "array",
      "minItems": 1,
      "maxItems": 10,
      "items": {
        "allOf": [
          { "$ref": "estimate-request.json" },
          {
            "type": "object",
            "required": ["id"],
            "properties": {
              "id": { "type": "string", "minLength": 1 },
              "name": { "type": "string" }
            }
          }
        ]
      }
    }
  }
}`

// JSONSchemaValidator checks request shape and value ranges using JSON
// Schema Draft 2020-12. It is safe for concurrent use.
type JSONSchemaValidator struct {
	requestSchema *jsonschema.Schema
	batchSchema   *jsonschema.Schema
}

// NewJSONSchemaValidator compiles the request and batch schemas.
func NewJSONSchemaValidator() (*JSONSchemaValidator, error) {
	c := jsonschema.NewCompiler()
	c.AssertFormat()

	for url, raw := range map[string]string{requestSchemaURL: requestSchemaJSON, batchSchemaURL: batchSchemaJSON} {
		doc, err := jsonschema.UnmarshalJSON(strings.NewReader(raw))
		if err != nil {
			return nil, fmt.Errorf("unmarshal schema %s: %w", url, err)
		}
		if err := c.AddResource(url, doc); err != nil {
			return nil, fmt.Errorf("add schema resource %s: %w", url, err)
		}
	}

	reqSchema, err := c.Compile(requestSchemaURL)
	if err != nil {
		return nil, fmt.Errorf("compile request schema: %w", err)
	}
	batchSchema, err := c.Compile(batchSchemaURL)
	if err != nil {
		return nil, fmt.Errorf("compile batch schema: %w", err)
	}

	return &JSONSchemaValidator{requestSchema: reqSchema, batchSchema: batchSchema}, nil
}

// ValidateRequest validates an estimation request against the request schema.
func (v *JSONSchemaValidator) ValidateRequest(req *schema.EstimateRequest) error {
	if req == nil {
		return schema.NewError(schema.ErrCodeValidation, "estimate request is nil")
	}
	return v.validate(v.requestSchema, req)
}

// ValidateBatch validates a batch request against the batch schema.
func (v *JSONSchemaValidator) ValidateBatch(batch *schema.BatchEstimateRequest) error {
	if batch == nil {
		return schema.NewError(schema.ErrCodeValidation, "batch request is nil")
	}
	if len(batch.Workflows) > schema.MaxBatchWorkflows {
		return schema.NewErrorf(schema.ErrCodeBatchLimit, "batch contains %d workflows, the limit is %d", len(batch.Workflows), schema.MaxBatchWorkflows)
	}
	return v.validate(v.batchSchema, batch)
}

// ValidateRequestJSON validates a raw JSON request body. Unlike
// ValidateRequest it also sees fields that would be lost when decoding into
// Go types, such as wrong types or missing required keys.
func (v *JSONSchemaValidator) ValidateRequestJSON(raw []byte) error {
	doc, err := jsonschema.UnmarshalJSON(strings.NewReader(string(raw)))
	if err != nil {
		return schema.NewError(schema.ErrCodeValidation, "request body is not valid JSON").WithCause(err)
	}
	if err := v.requestSchema.Validate(doc); err != nil {
		return toFlowcostError(err)
	}
	return nil
}

func (v *JSONSchemaValidator) validate(s *jsonschema.Schema, value any) error {
	doc, err := toJSONValue(value)
	if err != nil {
		return schema.NewError(schema.ErrCodeValidation, "failed to serialize request").WithCause(err)
	}
	if err := s.Validate(doc); err != nil {
		return toFlowcostError(err)
	}
	return nil
}

// toJSONValue round-trips a Go value through JSON encoding/decoding so that
// numeric values become json.Number (required by the jsonschema library).
func toJSONValue(v any) (any, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return jsonschema.UnmarshalJSON(strings.NewReader(string(b)))
}

// toFlowcostError converts a jsonschema.ValidationError into a FlowcostError
// listing every leaf violation with its instance location.
func toFlowcostError(err error) *schema.FlowcostError {
	verr, ok := err.(*jsonschema.ValidationError)
	if !ok {
		return schema.NewError(schema.ErrCodeValidation, err.Error())
	}

	violations := collectViolations(verr)
	if len(violations) == 0 {
		return schema.NewError(schema.ErrCodeValidation, verr.Error())
	}

	if len(violations) == 1 {
		return schema.NewError(schema.ErrCodeValidation, violations[0]).
			WithDetails(map[string]any{"violations": violations})
	}

	msg := fmt.Sprintf("validation failed with %d errors", len(violations))
	return schema.NewError(schema.ErrCodeValidation, msg).
		WithDetails(map[string]any{"violations": violations})
}

// collectViolations walks a ValidationError tree and collects leaf messages.
func collectViolations(verr *jsonschema.ValidationError) []string {
	if len(verr.Causes) == 0 {
		loc := "/"
		if len(verr.InstanceLocation) > 0 {
			loc = "/" + strings.Join(verr.InstanceLocation, "/")
		}
		return []string{fmt.Sprintf("%s: %s", loc, verr.Error())}
	}

	var violations []string
	for _, cause := range verr.Causes {
		violations = append(violations, collectViolations(cause)...)
	}
	return violations
}
