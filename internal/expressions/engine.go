// Package expressions evaluates user-supplied expressions against an
// estimation: boolean budget guards (CEL or Expr) and jq projections of
// the result document (gojq).
package expressions

import "context"

// Engine evaluates expressions against a flat variable map.
type Engine interface {
	Name() string
	Evaluate(ctx context.Context, expression string, data map[string]any) (any, error)
}
