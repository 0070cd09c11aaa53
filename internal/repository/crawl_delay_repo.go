package repository

import (
	"context"

	"github.com/user/url-frontier/internal/entity"
)

// CrawlDelayRepository defines durable storage for per-host politeness delays.
type CrawlDelayRepository interface {
	// Upsert stores or replaces the delay for a hostname.
	Upsert(ctx context.Context, hostname string, delayMS int64) error
	// List returns every stored delay.
	List(ctx context.Context) ([]entity.CrawlDelay, error)
	// Delete removes the stored delay for a hostname.
	Delete(ctx context.Context, hostname string) error
}
