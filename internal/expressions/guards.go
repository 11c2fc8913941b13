package expressions

import (
	"context"
	"fmt"
	"sync"

	"github.com/rendis/flowcost/pkg/schema"
)

type varKind int

const (
	varDouble varKind = iota
	varInt
	varString
	varRange
)

type guardVariable struct {
	name string
	kind varKind
}

// guardVariables are the names visible to guard expressions.
var guardVariables = []guardVariable{
	{"total_cost", varDouble},
	{"total_latency", varDouble},
	{"total_tokens", varInt},
	{"total_input_tokens", varInt},
	{"total_output_tokens", varInt},
	{"total_tool_latency", varDouble},
	{"critical_path_latency", varDouble},
	{"graph_type", varString},
	{"cycle_count", varInt},
	{"node_count", varInt},
	{"recursion_limit", varInt},
	{"health_score", varInt},
	{"grade", varString},
	{"monthly_cost", varDouble},
	{"cost_range", varRange},
	{"latency_range", varRange},
	{"token_range", varRange},
}

// GuardData flattens an estimation into the variables guards can reference.
// Integers are int64 and ranges are map[string]float64 with min/avg/max keys.
// monthly_cost is zero when no scaling projection was requested.
func GuardData(est *schema.WorkflowEstimation) map[string]any {
	rng := func(r schema.Range) map[string]float64 {
		return map[string]float64{"min": r.Min, "avg": r.Avg, "max": r.Max}
	}
	var monthly float64
	if est.ScalingProjection != nil {
		monthly = est.ScalingProjection.MonthlyCost
	}
	return map[string]any{
		"total_cost":            est.TotalCost,
		"total_latency":         est.TotalLatency,
		"total_tokens":          int64(est.TotalTokens),
		"total_input_tokens":    int64(est.TotalInputTokens),
		"total_output_tokens":   int64(est.TotalOutputTokens),
		"total_tool_latency":    est.TotalToolLatency,
		"critical_path_latency": est.CriticalPathLatency,
		"graph_type":            string(est.GraphType),
		"cycle_count":           int64(len(est.DetectedCycles)),
		"node_count":            int64(len(est.Breakdown)),
		"recursion_limit":       int64(est.RecursionLimit),
		"health_score":          int64(est.Health.Score),
		"grade":                 est.Health.Grade,
		"monthly_cost":          monthly,
		"cost_range":            rng(est.CostRange),
		"latency_range":         rng(est.LatencyRange),
		"token_range":           rng(est.TokenRange),
	}
}

// Evaluator runs budget guards and jq queries. It is safe for concurrent use.
type Evaluator struct {
	cel  *CELEngine
	expr *ExprEngine
	jq   *GoJQEngine
}

// NewEvaluator creates an Evaluator with fresh engine caches.
func NewEvaluator() (*Evaluator, error) {
	celEngine, err := NewCELEngine()
	if err != nil {
		return nil, err
	}
	return &Evaluator{cel: celEngine, expr: NewExprEngine(), jq: NewGoJQEngine()}, nil
}

type compiler interface {
	Engine
	Compile(expression string) error
}

func (ev *Evaluator) engineFor(name string) (compiler, error) {
	switch name {
	case "", "cel":
		return ev.cel, nil
	case "expr":
		return ev.expr, nil
	default:
		return nil, schema.NewErrorf(schema.ErrCodeExpression, "unsupported guard engine %q", name)
	}
}

// CheckGuards compiles every guard and returns the first failure, annotated
// with the guard's index.
func (ev *Evaluator) CheckGuards(guards []schema.Guard) error {
	for i, g := range guards {
		eng, err := ev.engineFor(g.Engine)
		if err == nil {
			err = eng.Compile(g.Expression)
		}
		if err != nil {
			return schema.NewErrorf(schema.ErrCodeExpression, "guards[%d]: %s", i, err.Error()).WithCause(err)
		}
	}
	return nil
}

// EvaluateGuards evaluates each guard against est. A guard that fails to
// compile or run is reported as not passed with its error; the remaining
// guards are still evaluated.
func (ev *Evaluator) EvaluateGuards(ctx context.Context, est *schema.WorkflowEstimation, guards []schema.Guard) []schema.GuardResult {
	if len(guards) == 0 {
		return nil
	}

	data := GuardData(est)
	results := make([]schema.GuardResult, 0, len(guards))
	for i, g := range guards {
		r := schema.GuardResult{
			Name:       g.Name,
			Engine:     g.Engine,
			Expression: g.Expression,
		}
		if r.Name == "" {
			r.Name = fmt.Sprintf("guard-%d", i)
		}
		if r.Engine == "" {
			r.Engine = "cel"
		}

		eng, err := ev.engineFor(g.Engine)
		if err != nil {
			r.Error = err.Error()
			results = append(results, r)
			continue
		}

		out, err := eng.Evaluate(ctx, g.Expression, data)
		switch {
		case err != nil:
			r.Error = err.Error()
		default:
			passed, ok := out.(bool)
			if !ok {
				r.Error = fmt.Sprintf("guard evaluated to %T, want bool", out)
			}
			r.Passed = passed
		}
		results = append(results, r)
	}
	return results
}

// Query projects the JSON form of est through a jq expression.
func (ev *Evaluator) Query(ctx context.Context, est *schema.WorkflowEstimation, query string) (any, error) {
	return ev.jq.EvaluateEstimation(ctx, query, est)
}

// CheckQuery reports whether query compiles.
func (ev *Evaluator) CheckQuery(query string) error {
	return ev.jq.Compile(query)
}

var defaultEvaluator = sync.OnceValues(NewEvaluator)

// EvaluateGuards evaluates guards with a process-wide Evaluator.
func EvaluateGuards(ctx context.Context, est *schema.WorkflowEstimation, guards []schema.Guard) ([]schema.GuardResult, error) {
	ev, err := defaultEvaluator()
	if err != nil {
		return nil, err
	}
	return ev.EvaluateGuards(ctx, est, guards), nil
}

// Query projects est with a process-wide Evaluator.
func Query(ctx context.Context, est *schema.WorkflowEstimation, query string) (any, error) {
	ev, err := defaultEvaluator()
	if err != nil {
		return nil, err
	}
	return ev.Query(ctx, est, query)
}
