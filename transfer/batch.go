package transfer

import (
	"context"
	"fmt"
	"strings"

	"github.com/kasuganosora/vaultctl/audit"
	"github.com/kasuganosora/vaultctl/inventory"
	"go.uber.org/zap"
)

// ItemFailure is why one item of a batch was skipped.
type ItemFailure struct {
	Item *inventory.Item
	Err  error
}

// BatchResult counts the outcome of a batch. Succeeded + Skipped equals the
// number of items attempted.
type BatchResult struct {
	RunID     string
	Succeeded int
	Skipped   int
	Failures  []ItemFailure
}

func (r *BatchResult) skip(it *inventory.Item, err error) {
	r.Skipped++
	r.Failures = append(r.Failures, ItemFailure{Item: it, Err: err})
}

// MoveBatch moves every item to destination independently. A failing item
// is counted as skipped and never stops the rest of the batch. Once ctx is
// done the remaining items are skipped without remote calls.
func (e *Executor) MoveBatch(ctx context.Context, items []*inventory.Item, destination string, idx *inventory.Index, opts Options) BatchResult {
	if opts.RunID == "" {
		opts.RunID = audit.NewRunID()
	}
	res := BatchResult{RunID: opts.RunID}

	for _, it := range items {
		if err := ctx.Err(); err != nil {
			res.skip(it, err)
			continue
		}
		plan := PlanMove(it, destination, idx, opts)
		if !plan.IsValid {
			e.logger.Debug("batch item skipped",
				zap.String("item", it.Name),
				zap.Strings("errors", plan.Errors))
			res.skip(it, fmt.Errorf("%w: %s", ErrInvalidPlan, strings.Join(plan.Errors, "; ")))
			continue
		}
		if opts.DryRun {
			res.Succeeded++
			continue
		}
		if err := e.Execute(ctx, plan, opts); err != nil {
			e.logger.Info("batch item failed", zap.String("item", it.Name), zap.Error(err))
			res.skip(it, err)
			continue
		}
		res.Succeeded++
	}

	e.logger.Info("batch finished",
		zap.String("run", res.RunID),
		zap.String("destination", destination),
		zap.Int("succeeded", res.Succeeded),
		zap.Int("skipped", res.Skipped))
	return res
}
