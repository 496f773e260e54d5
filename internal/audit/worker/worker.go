// Package worker runs the periodic anchoring sweep. Each run closes out the
// previous UTC day: every tenant with events gets its day compressed into a
// signed anchor, so tampering windows stay bounded even on quiet chains.
package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"ledgerline/internal/audit"
	"ledgerline/pkg/domain"
)

// Anchorer computes anchors. Satisfied by the audit service.
type Anchorer interface {
	CreateAnchor(ctx context.Context, tenantID domain.TenantID, period string) (*audit.Anchor, error)
}

// TenantLister enumerates tenants with at least one event.
type TenantLister interface {
	TenantIDs(ctx context.Context) ([]domain.TenantID, error)
}

// Result summarizes one anchoring sweep.
type Result struct {
	Period   string
	Tenants  int
	Anchored int
	Empty    int
	Failed   int
}

// AnchorWorker periodically anchors the previous UTC day for all tenants.
type AnchorWorker struct {
	anchorer    Anchorer
	tenants     TenantLister
	interval    time.Duration
	concurrency int
	logger      *slog.Logger
	now         func() time.Time
}

// Option configures AnchorWorker.
type Option func(*AnchorWorker)

// WithInterval overrides the sweep interval when greater than zero.
func WithInterval(interval time.Duration) Option {
	return func(w *AnchorWorker) {
		if interval > 0 {
			w.interval = interval
		}
	}
}

// WithConcurrency bounds how many tenants are anchored in parallel.
func WithConcurrency(n int) Option {
	return func(w *AnchorWorker) {
		if n > 0 {
			w.concurrency = n
		}
	}
}

// WithLogger overrides the logger used for sweep errors.
func WithLogger(logger *slog.Logger) Option {
	return func(w *AnchorWorker) {
		if logger != nil {
			w.logger = logger
		}
	}
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(w *AnchorWorker) {
		if now != nil {
			w.now = now
		}
	}
}

// New constructs an AnchorWorker with required collaborators.
func New(anchorer Anchorer, tenants TenantLister, opts ...Option) (*AnchorWorker, error) {
	if anchorer == nil || tenants == nil {
		return nil, fmt.Errorf("anchorer and tenant lister are required")
	}
	w := &AnchorWorker{
		anchorer:    anchorer,
		tenants:     tenants,
		interval:    time.Hour,
		concurrency: 4,
		logger:      slog.Default(),
		now:         time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(w)
		}
	}
	return w, nil
}

// Start runs sweeps until ctx is cancelled. One sweep runs immediately so a
// restarted instance never waits a full interval to catch up.
func (w *AnchorWorker) Start(ctx context.Context) error {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	if _, err := w.RunOnce(ctx); err != nil {
		w.logger.ErrorContext(ctx, "anchor sweep failed", "error", err)
	}
	for {
		select {
		case <-ticker.C:
			if _, err := w.RunOnce(ctx); err != nil {
				w.logger.ErrorContext(ctx, "anchor sweep failed", "error", err)
			}
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// RunOnce anchors the previous UTC day for every tenant. Failures for one
// tenant never stop the sweep for the rest; they are aggregated and returned.
func (w *AnchorWorker) RunOnce(ctx context.Context) (Result, error) {
	period := w.now().UTC().AddDate(0, 0, -1).Format(audit.PeriodLayout)
	return w.RunPeriod(ctx, period)
}

// RunPeriod anchors a specific period for every tenant.
func (w *AnchorWorker) RunPeriod(ctx context.Context, period string) (Result, error) {
	tenantIDs, err := w.tenants.TenantIDs(ctx)
	if err != nil {
		return Result{Period: period}, fmt.Errorf("list tenants: %w", err)
	}

	res := Result{Period: period, Tenants: len(tenantIDs)}
	type outcome struct {
		tenantID domain.TenantID
		anchored bool
		err      error
	}
	outcomes := make([]outcome, len(tenantIDs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(w.concurrency)
	for i, tenantID := range tenantIDs {
		g.Go(func() error {
			anchor, err := w.anchorer.CreateAnchor(gctx, tenantID, period)
			outcomes[i] = outcome{tenantID: tenantID, anchored: anchor != nil, err: err}
			return nil // per-tenant failures are collected, not fatal
		})
	}
	if err := g.Wait(); err != nil {
		return res, err
	}

	var errs []error
	for _, o := range outcomes {
		switch {
		case o.err != nil:
			res.Failed++
			errs = append(errs, fmt.Errorf("anchor %s/%s: %w", o.tenantID, period, o.err))
		case o.anchored:
			res.Anchored++
		default:
			res.Empty++
		}
	}

	w.logger.InfoContext(ctx, "anchor sweep finished",
		"log_type", "audit",
		"period", period,
		"tenants", res.Tenants,
		"anchored", res.Anchored,
		"empty", res.Empty,
		"failed", res.Failed,
	)
	return res, errors.Join(errs...)
}
