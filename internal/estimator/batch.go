package estimator

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/rendis/flowcost/pkg/schema"
)

// EstimateBatch estimates up to schema.MaxBatchWorkflows independent
// workflows concurrently. Results keep the order of items.
func (e *Engine) EstimateBatch(ctx context.Context, items []schema.BatchWorkflowItem) ([]schema.BatchEstimateResult, error) {
	if len(items) == 0 {
		return nil, schema.NewError(schema.ErrCodeValidation, "batch contains no workflows")
	}
	if len(items) > schema.MaxBatchWorkflows {
		return nil, schema.NewErrorf(schema.ErrCodeBatchLimit, "batch contains %d workflows, the limit is %d", len(items), schema.MaxBatchWorkflows).
			WithDetails(map[string]any{"count": len(items), "limit": schema.MaxBatchWorkflows})
	}

	results := make([]schema.BatchEstimateResult, len(items))
	g, ctx := errgroup.WithContext(ctx)
	for i := range items {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			item := &items[i]
			results[i] = Summarize(item, e.Estimate(&item.EstimateRequest))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// Summarize condenses a full estimation into a batch result row.
func Summarize(item *schema.BatchWorkflowItem, est *schema.WorkflowEstimation) schema.BatchEstimateResult {
	return schema.BatchEstimateResult{
		ID:               item.ID,
		Name:             item.Name,
		GraphType:        est.GraphType,
		TotalTokens:      est.TotalTokens,
		TotalCost:        est.TotalCost,
		TotalLatency:     est.TotalLatency,
		TotalToolLatency: est.TotalToolLatency,
		NodeCount:        len(item.Nodes),
		EdgeCount:        len(item.Edges),
		TokenRange:       est.TokenRange,
		CostRange:        est.CostRange,
		LatencyRange:     est.LatencyRange,
		DetectedCycles:   len(est.DetectedCycles),
		HealthGrade:      est.Health.Grade,
	}
}
