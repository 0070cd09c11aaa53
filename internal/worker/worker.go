// Package worker runs the promotion loops that move items from intake queues
// into per-host backend queues.
package worker

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/user/url-frontier/internal/frontier"
	"github.com/user/url-frontier/pkg/metrics"
)

// DefaultIdleBackoff is how long a worker sleeps after an iteration that promoted nothing.
const DefaultIdleBackoff = 100 * time.Millisecond

// queueReportInterval bounds how often one worker refreshes the intake length gauge.
const queueReportInterval = time.Second

// Promoter is the part of the frontier a worker drives.
type Promoter interface {
	SelectTier() string
	PromoteOnce(ctx context.Context, tier string) (bool, error)
	// IntakeLen reads a tier's intake length and publishes it as a metric.
	IntakeLen(ctx context.Context, tier string) (int64, error)
}

// Config controls Worker behavior.
type Config struct {
	IdleBackoff time.Duration
	// MaxPromotionsPerSecond caps a single worker's store traffic. Zero means no cap.
	MaxPromotionsPerSecond float64
}

// Worker is one sequential promotion loop.
type Worker struct {
	id       string
	promoter Promoter
	cfg      Config
	limiter  *rate.Limiter
	logger   *zap.Logger
	metrics  *metrics.Metrics

	lastReport time.Time
}

// New constructs a Worker.
func New(p Promoter, cfg Config, logger *zap.Logger, m *metrics.Metrics) *Worker {
	if cfg.IdleBackoff <= 0 {
		cfg.IdleBackoff = DefaultIdleBackoff
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	id := uuid.NewString()
	w := &Worker{
		id:       id,
		promoter: p,
		cfg:      cfg,
		logger:   logger.With(zap.String("worker_id", id)),
		metrics:  m,
	}
	if cfg.MaxPromotionsPerSecond > 0 {
		w.limiter = rate.NewLimiter(rate.Limit(cfg.MaxPromotionsPerSecond), 1)
	}
	return w
}

// ID returns the worker's unique identifier.
func (w *Worker) ID() string {
	return w.id
}

// WorkOnce selects a tier and promotes at most one item from it. An empty tier
// is reported as idle; other tiers are not tried in the same iteration.
// A Worker is not safe for concurrent WorkOnce calls.
func (w *Worker) WorkOnce(ctx context.Context) (bool, error) {
	tier := w.promoter.SelectTier()
	promoted, err := w.promoter.PromoteOnce(ctx, tier)
	w.reportQueueLength(ctx, tier)
	return promoted, err
}

func (w *Worker) reportQueueLength(ctx context.Context, tier string) {
	now := time.Now()
	if now.Sub(w.lastReport) < queueReportInterval {
		return
	}
	w.lastReport = now
	if _, err := w.promoter.IntakeLen(ctx, tier); err != nil {
		w.logger.Debug("could not read intake length", zap.String("priority", tier), zap.Error(err))
	}
}

// Run loops until ctx is canceled. Cancellation is checked between iterations;
// store operations already started run to completion.
func (w *Worker) Run(ctx context.Context) {
	w.logger.Info("promotion worker started")
	defer w.logger.Info("promotion worker stopped")

	opCtx := context.WithoutCancel(ctx)
	for {
		if ctx.Err() != nil {
			return
		}
		if w.limiter != nil {
			if err := w.limiter.Wait(ctx); err != nil {
				return
			}
		}

		promoted, err := w.WorkOnce(opCtx)
		if err != nil {
			w.logger.Warn("promotion failed", zap.Error(err))
			w.metrics.IncWorkerError(errorType(err))
		}
		if promoted {
			continue
		}
		if !sleep(ctx, w.cfg.IdleBackoff) {
			return
		}
	}
}

func errorType(err error) string {
	switch {
	case errors.Is(err, frontier.ErrInvalidPriority):
		return "invalid_priority"
	case errors.Is(err, frontier.ErrInvariant):
		return "invariant"
	default:
		return "store"
	}
}

// sleep waits for d and reports false if ctx ended first.
func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
