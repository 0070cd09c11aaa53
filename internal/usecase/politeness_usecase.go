package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/user/url-frontier/internal/repository"
)

// DelaySetter applies a crawl delay to the shared frontier store.
type DelaySetter interface {
	SetHostnameCrawlDelay(ctx context.Context, host string, delay time.Duration) error
	ClearHostnameCrawlDelay(ctx context.Context, host string) error
}

// Politeness defines the interface for managing per-host crawl delays.
type Politeness interface {
	// SetDelay applies delay to the frontier and records it durably when a
	// repository is configured.
	SetDelay(ctx context.Context, host string, delay time.Duration) error
	// ClearDelay drops host's explicit delay from the frontier and the
	// repository, so the default delay applies again.
	ClearDelay(ctx context.Context, host string) error
	// Restore reapplies every recorded delay to the frontier and returns how
	// many were applied.
	Restore(ctx context.Context) (int, error)
}

type politenessUseCase struct {
	frontier DelaySetter
	repo     repository.CrawlDelayRepository
	logger   *zap.Logger
}

// NewPoliteness creates a Politeness use case. repo may be nil, in which case
// delays live only in the frontier store.
func NewPoliteness(frontier DelaySetter, repo repository.CrawlDelayRepository, logger *zap.Logger) Politeness {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &politenessUseCase{
		frontier: frontier,
		repo:     repo,
		logger:   logger,
	}
}

func (uc *politenessUseCase) SetDelay(ctx context.Context, host string, delay time.Duration) error {
	host = strings.ToLower(strings.TrimSpace(host))
	if err := uc.frontier.SetHostnameCrawlDelay(ctx, host, delay); err != nil {
		return err
	}
	if uc.repo == nil {
		return nil
	}
	if err := uc.repo.Upsert(ctx, host, delay.Milliseconds()); err != nil {
		// The store already has the delay; only durability is lost.
		uc.logger.Warn("crawl delay not persisted", zap.String("host", host), zap.Error(err))
		return fmt.Errorf("persist crawl delay: %w", err)
	}
	return nil
}

func (uc *politenessUseCase) ClearDelay(ctx context.Context, host string) error {
	host = strings.ToLower(strings.TrimSpace(host))
	if err := uc.frontier.ClearHostnameCrawlDelay(ctx, host); err != nil {
		return err
	}
	if uc.repo == nil {
		return nil
	}
	if err := uc.repo.Delete(ctx, host); err != nil {
		uc.logger.Warn("crawl delay not removed from repository", zap.String("host", host), zap.Error(err))
		return fmt.Errorf("remove persisted crawl delay: %w", err)
	}
	return nil
}

func (uc *politenessUseCase) Restore(ctx context.Context) (int, error) {
	if uc.repo == nil {
		return 0, nil
	}
	delays, err := uc.repo.List(ctx)
	if err != nil {
		return 0, err
	}
	applied := 0
	for _, d := range delays {
		if err := uc.frontier.SetHostnameCrawlDelay(ctx, d.Hostname, d.Delay()); err != nil {
			return applied, fmt.Errorf("restore crawl delay for %s: %w", d.Hostname, err)
		}
		applied++
	}
	uc.logger.Info("crawl delays restored", zap.Int("count", applied))
	return applied, nil
}
