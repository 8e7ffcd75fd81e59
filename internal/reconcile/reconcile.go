// Package reconcile surfaces oversold stock for manual follow-up. The
// capture path accepts clamped decrements because payment has already been
// taken; this sweeper keeps the resulting debt visible until an operator
// runs the compensating flow.
package reconcile

import (
	"context"
	"time"

	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/rabbitstore/checkout/internal/domain/order"
)

// Store lists persisted oversells awaiting reconciliation.
type Store interface {
	ListOversells(ctx context.Context, limit int) ([]order.OversellRecord, error)
}

// Sweeper periodically logs outstanding oversells.
type Sweeper struct {
	store    Store
	interval time.Duration
	limit    int
}

// NewSweeper creates a Sweeper scanning at the given interval.
func NewSweeper(store Store, interval time.Duration) *Sweeper {
	return &Sweeper{
		store:    store,
		interval: interval,
		limit:    100,
	}
}

// Run scans until ctx is cancelled. It always returns nil on cancellation so
// it can run inside an errgroup next to the HTTP server.
func (s *Sweeper) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			s.sweep(ctx)
		}
	}
}

func (s *Sweeper) sweep(ctx context.Context) {
	lg := zctx.From(ctx)

	records, err := s.store.ListOversells(ctx, s.limit)
	if err != nil {
		lg.Error("oversell sweep failed", zap.Error(err))
		return
	}
	if len(records) == 0 {
		return
	}

	for _, rec := range records {
		lg.Warn("oversold stock awaiting reconciliation",
			zap.String("order_id", rec.OrderID),
			zap.String("product_id", rec.ProductID),
			zap.Int("shortfall", rec.Shortfall),
			zap.Time("applied_at", rec.AppliedAt),
		)
	}
	lg.Warn("oversell sweep summary", zap.Int("outstanding", len(records)))
}
