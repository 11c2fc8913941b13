// Package service is the request pipeline shared by every transport:
// validate, estimate, evaluate guards, then record metrics and one log line.
package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/rendis/flowcost/internal/catalog"
	"github.com/rendis/flowcost/internal/estimator"
	"github.com/rendis/flowcost/internal/expressions"
	"github.com/rendis/flowcost/internal/importer"
	"github.com/rendis/flowcost/internal/logging"
	"github.com/rendis/flowcost/internal/observability"
	"github.com/rendis/flowcost/internal/tokenizer"
	"github.com/rendis/flowcost/internal/validation"
	"github.com/rendis/flowcost/pkg/schema"
)

// Deps holds the collaborators of a Service. Zero fields fall back to the
// embedded catalogs, the cl100k_base tokenizer, no-op telemetry and
// slog.Default(). The logger is wrapped in a logging.CorrelationHandler.
type Deps struct {
	Pricing *catalog.PricingCatalog
	Tools   *catalog.ToolCatalog
	Tokens  tokenizer.Counter
	Metrics observability.MetricsRecorder
	Spans   observability.SpanManager
	Logger  *slog.Logger
}

// Service runs estimations for the HTTP, MCP and CLI front ends.
type Service struct {
	deps      Deps
	engine    *estimator.Engine
	validator *validation.RequestValidator
	exprs     *expressions.Evaluator
}

// New builds a Service, filling unset dependencies with defaults.
func New(deps Deps) (*Service, error) {
	var err error
	if deps.Pricing == nil {
		if deps.Pricing, err = catalog.DefaultPricing(); err != nil {
			return nil, err
		}
	}
	if deps.Tools == nil {
		if deps.Tools, err = catalog.DefaultTools(); err != nil {
			return nil, err
		}
	}
	if deps.Tokens == nil {
		if deps.Tokens, err = tokenizer.NewBPE(tokenizer.DefaultEncoding); err != nil {
			return nil, err
		}
	}
	if deps.Metrics == nil {
		deps.Metrics = observability.NoopMetrics{}
	}
	if deps.Spans == nil {
		deps.Spans = observability.NoopSpanManager{}
	}
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	if _, ok := deps.Logger.Handler().(*logging.CorrelationHandler); !ok {
		deps.Logger = slog.New(logging.NewCorrelationHandler(deps.Logger.Handler()))
	}

	validator, err := validation.NewRequestValidator(validation.Catalogs{
		Pricing: deps.Pricing,
		Tools:   deps.Tools,
	})
	if err != nil {
		return nil, err
	}
	exprs, err := expressions.NewEvaluator()
	if err != nil {
		return nil, err
	}

	return &Service{
		deps:      deps,
		engine:    estimator.New(deps.Pricing, deps.Tools, deps.Tokens),
		validator: validator,
		exprs:     exprs,
	}, nil
}

// Pricing returns the pricing catalog the service estimates against.
func (s *Service) Pricing() *catalog.PricingCatalog { return s.deps.Pricing }

// Tools returns the tool catalog the service estimates against.
func (s *Service) Tools() *catalog.ToolCatalog { return s.deps.Tools }

// Estimate validates req, estimates it and evaluates its guards.
// Validation warnings are attached to the result.
func (s *Service) Estimate(ctx context.Context, req *schema.EstimateRequest) (est *schema.WorkflowEstimation, err error) {
	ctx, span := s.begin(ctx, "estimate")
	defer func() { s.end(ctx, span, "estimate", err) }()

	result := s.validator.Validate(req)
	if err := result.ToError(); err != nil {
		return nil, err
	}
	if err := s.exprs.CheckGuards(req.Guards); err != nil {
		return nil, err
	}
	s.deps.Spans.AddSpanEvent(ctx, "validated",
		attribute.Int("nodes", len(req.Nodes)),
		attribute.Int("warnings", len(result.Warnings)))

	start := time.Now()
	est = s.engine.Estimate(req)
	est.Guards = s.exprs.EvaluateGuards(ctx, est, req.Guards)
	est.Warnings = result.Warnings
	elapsed := time.Since(start)

	s.deps.Metrics.RecordEstimation(ctx, string(est.GraphType), len(req.Nodes), est.TotalCost, elapsed)
	s.deps.Logger.InfoContext(ctx, "workflow estimated",
		slog.Int("nodes", len(req.Nodes)),
		slog.Int("edges", len(req.Edges)),
		slog.String("graph_type", string(est.GraphType)),
		slog.Float64("total_cost", est.TotalCost),
		slog.Int("warnings", len(result.Warnings)),
		slog.Duration("duration", elapsed),
	)
	return est, nil
}

// EstimateBatch validates and estimates every workflow of batch
// concurrently. Guards on batch items are not evaluated.
func (s *Service) EstimateBatch(ctx context.Context, batch *schema.BatchEstimateRequest) (resp *schema.BatchEstimateResponse, err error) {
	ctx, span := s.begin(ctx, "batch")
	defer func() { s.end(ctx, span, "batch", err) }()

	if err := s.validator.ValidateBatch(batch); err != nil {
		return nil, err
	}

	start := time.Now()
	results, err := s.engine.EstimateBatch(ctx, batch.Workflows)
	if err != nil {
		return nil, err
	}
	elapsed := time.Since(start)

	s.deps.Metrics.RecordBatch(ctx, len(results), elapsed)
	s.deps.Logger.InfoContext(ctx, "batch estimated",
		slog.Int("workflows", len(results)),
		slog.Duration("duration", elapsed),
	)
	return &schema.BatchEstimateResponse{Results: results}, nil
}

// Query projects est through a jq expression.
func (s *Service) Query(ctx context.Context, est *schema.WorkflowEstimation, query string) (any, error) {
	return s.exprs.Query(ctx, est, query)
}

// CheckQuery reports whether a jq expression compiles, so transports can
// reject it before estimating.
func (s *Service) CheckQuery(query string) error {
	return s.exprs.CheckQuery(query)
}

// Import converts a third-party workflow export into an estimate request.
func (s *Service) Import(ctx context.Context, source string, payload []byte) (wf *schema.ImportedWorkflow, err error) {
	ctx, span := s.begin(ctx, "import")
	defer func() { s.end(ctx, span, "import", err) }()

	wf, err = importer.Import(source, payload)
	s.deps.Metrics.RecordImport(ctx, source, err)
	if err != nil {
		return nil, err
	}
	s.deps.Logger.InfoContext(ctx, "workflow imported",
		slog.String("source", source),
		slog.Int("nodes", len(wf.Nodes)),
		slog.Int("edges", len(wf.Edges)),
	)
	return wf, nil
}

// Model returns the pricing of one model or a NOT_FOUND error.
func (s *Service) Model(provider, model string) (catalog.ModelEntry, error) {
	m, ok := s.deps.Pricing.Lookup(provider, model)
	if !ok {
		return catalog.ModelEntry{}, schema.NewErrorf(schema.ErrCodeNotFound,
			"model %q not found for provider %q", model, provider)
	}
	return catalog.ModelEntry{Provider: provider, ModelPricing: m}, nil
}

// Tool returns the metadata of one tool or a NOT_FOUND error.
func (s *Service) Tool(toolID string) (catalog.ToolDefinition, error) {
	t, ok := s.deps.Tools.Lookup(toolID)
	if !ok {
		return catalog.ToolDefinition{}, schema.NewErrorf(schema.ErrCodeNotFound, "tool %q not found", toolID)
	}
	return t, nil
}

// begin assigns a request ID when the transport did not and opens a span.
func (s *Service) begin(ctx context.Context, operation string) (context.Context, trace.Span) {
	id := logging.RequestID(ctx)
	if id == "" {
		id = uuid.NewString()
		ctx = logging.WithRequestID(ctx, id)
	}
	return s.deps.Spans.StartOperationSpan(ctx, operation, id)
}

func (s *Service) end(ctx context.Context, span trace.Span, operation string, err error) {
	if err != nil {
		code := schema.CodeOf(err)
		s.deps.Metrics.RecordFailure(ctx, operation, code)
		s.deps.Logger.WarnContext(ctx, operation+" rejected",
			slog.String("code", code),
			slog.String("error", err.Error()),
		)
	}
	s.deps.Spans.EndSpanWithError(span, err)
}

// NewRequestID returns a fresh request ID.
func NewRequestID() string { return uuid.NewString() }
