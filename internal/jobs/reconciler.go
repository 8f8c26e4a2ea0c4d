package jobs

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/hirosato/shop-ledger/backend/internal/domain/ledger"
)

// DefaultTimeout bounds one reconciliation pass over all shops
const DefaultTimeout = 5 * time.Minute

// ShopReconciler replays every counterparty of a shop
type ShopReconciler interface {
	ReconcileShop(ctx context.Context, shopID string) (*ledger.ReconcileReport, error)
}

// Reconciler repairs stale balance projections for a fixed set of shops
type Reconciler struct {
	engine  ShopReconciler
	shops   []string
	logger  *slog.Logger
	timeout time.Duration
	cron    *cron.Cron
}

// NewReconciler creates a reconciliation job for shops
func NewReconciler(engine ShopReconciler, shops []string, logger *slog.Logger) *Reconciler {
	return &Reconciler{
		engine:  engine,
		shops:   shops,
		logger:  logger,
		timeout: DefaultTimeout,
	}
}

// RunOnce reconciles each shop in turn. A failing shop is logged and skipped.
func (r *Reconciler) RunOnce(ctx context.Context) []ledger.ReconcileReport {
	reports := make([]ledger.ReconcileReport, 0, len(r.shops))
	for _, shopID := range r.shops {
		report, err := r.engine.ReconcileShop(ctx, shopID)
		if err != nil {
			r.logger.ErrorContext(ctx, "Reconciliation failed", "shopID", shopID, "error", err)
			continue
		}
		reports = append(reports, *report)
	}
	return reports
}

// Start schedules RunOnce on a cron spec in loc. Overlapping runs are skipped.
func (r *Reconciler) Start(spec string, loc *time.Location) error {
	if loc == nil {
		loc = time.UTC
	}
	c := cron.New(
		cron.WithLocation(loc),
		cron.WithChain(cron.Recover(cron.DefaultLogger), cron.SkipIfStillRunning(cron.DefaultLogger)),
	)
	_, err := c.AddFunc(spec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
		defer cancel()
		reports := r.RunOnce(ctx)
		r.logger.Info("Scheduled reconciliation finished", "shops", len(r.shops), "reconciled", len(reports))
	})
	if err != nil {
		return fmt.Errorf("unable to schedule reconciliation %q: %w", spec, err)
	}
	c.Start()
	r.cron = c
	r.logger.Info("Reconciliation scheduler started", "schedule", spec, "location", loc.String())
	return nil
}

// Stop halts the schedule and waits for a running pass to finish
func (r *Reconciler) Stop() {
	if r.cron == nil {
		return
	}
	<-r.cron.Stop().Done()
}
