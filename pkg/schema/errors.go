package schema

import (
	"errors"
	"fmt"
)

// Error codes for structured error reporting.
const (
	ErrCodeValidation = "VALIDATION_ERROR"
	ErrCodeNotFound   = "NOT_FOUND"
	ErrCodeImport     = "IMPORT_ERROR"
	ErrCodeCatalog    = "CATALOG_ERROR"
	ErrCodeExpression = "EXPRESSION_ERROR"
	ErrCodeRender     = "RENDER_ERROR"
	ErrCodeBatchLimit = "BATCH_LIMIT"
	ErrCodeInternal   = "INTERNAL_ERROR"
)

// FlowcostError is the structured error type for all estimation operations.
type FlowcostError struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
	NodeID  string         `json:"node_id,omitempty"`
	Cause   error          `json:"-"`
}

func (e *FlowcostError) Error() string {
	if e.NodeID != "" {
		return fmt.Sprintf("[%s] node %s: %s", e.Code, e.NodeID, e.Message)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *FlowcostError) Unwrap() error {
	return e.Cause
}

// NewError creates a new FlowcostError.
func NewError(code, message string) *FlowcostError {
	return &FlowcostError{Code: code, Message: message}
}

// NewErrorf creates a new FlowcostError with a formatted message.
func NewErrorf(code, format string, args ...any) *FlowcostError {
	return &FlowcostError{Code: code, Message: fmt.Sprintf(format, args...)}
}

// WithNode attaches a node ID to the error.
func (e *FlowcostError) WithNode(nodeID string) *FlowcostError {
	e.NodeID = nodeID
	return e
}

// WithCause attaches an underlying cause.
func (e *FlowcostError) WithCause(err error) *FlowcostError {
	e.Cause = err
	return e
}

// WithDetails attaches key-value details.
func (e *FlowcostError) WithDetails(details map[string]any) *FlowcostError {
	e.Details = details
	return e
}

// CodeOf returns the code of the first FlowcostError in err's chain,
// or ErrCodeInternal when there is none.
func CodeOf(err error) string {
	var fe *FlowcostError
	if errors.As(err, &fe) {
		return fe.Code
	}
	return ErrCodeInternal
}
