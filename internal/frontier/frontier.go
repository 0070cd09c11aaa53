// Package frontier decides which URL a crawler fetches next. Items enter
// per-priority intake queues, promotion moves them into per-host backend
// queues, and Get claims the host whose politeness window has elapsed.
//
// All state lives in a repository.FrontierStore shared by every process.
package frontier

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/user/url-frontier/internal/entity"
	"github.com/user/url-frontier/internal/repository"
	"github.com/user/url-frontier/pkg/metrics"
	"github.com/user/url-frontier/pkg/utils"
)

// Clock supplies the current time.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// Option customizes a Frontier.
type Option func(*Frontier)

// WithClock replaces the wall clock, mainly for tests.
func WithClock(c Clock) Option {
	return func(f *Frontier) { f.clock = c }
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(f *Frontier) { f.logger = l }
}

// WithMetrics sets the metrics sink.
func WithMetrics(m *metrics.Metrics) Option {
	return func(f *Frontier) { f.metrics = m }
}

// Frontier is the facade used by producers, consumers and promotion workers.
// It holds no mutable state of its own and is safe for concurrent use.
type Frontier struct {
	cfg      Config
	keys     Keys
	store    repository.FrontierStore
	selector Selector
	clock    Clock
	logger   *zap.Logger
	metrics  *metrics.Metrics
}

// New validates cfg and returns a Frontier backed by store.
func New(cfg Config, store repository.FrontierStore, opts ...Option) (*Frontier, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if store == nil {
		return nil, fmt.Errorf("%w: store is required", ErrInvalidConfig)
	}
	f := &Frontier{
		cfg:      cfg,
		keys:     NewKeys(cfg.Name),
		store:    store,
		selector: cfg.Selector,
		clock:    systemClock{},
		logger:   zap.NewNop(),
	}
	if f.selector == nil {
		f.selector = NewWeightedRandom(cfg.Tiers, nil)
	}
	for _, opt := range opts {
		opt(f)
	}
	if f.logger == nil {
		f.logger = zap.NewNop()
	}
	return f, nil
}

// Config returns the frontier configuration.
func (f *Frontier) Config() Config {
	return f.cfg
}

// Keys returns the store key scheme.
func (f *Frontier) Keys() Keys {
	return f.keys
}

// Add appends an item to the intake queue of priority. Promotion happens later,
// in a worker. Nothing is written when priority, url or meta is rejected.
func (f *Frontier) Add(ctx context.Context, rawURL, priority string, meta json.RawMessage) error {
	if !f.cfg.HasTier(priority) {
		f.metrics.IncAdd("unknown", "invalid")
		return fmt.Errorf("%w: %q", ErrInvalidPriority, priority)
	}
	if _, err := utils.Hostname(rawURL); err != nil {
		f.metrics.IncAdd(priority, "invalid")
		return fmt.Errorf("%w: %q", ErrInvalidURL, rawURL)
	}
	if len(meta) > 0 && !json.Valid(meta) {
		f.metrics.IncAdd(priority, "invalid")
		return ErrInvalidMeta
	}

	payload, err := entity.Item{URL: rawURL, Meta: meta}.Encode()
	if err != nil {
		return fmt.Errorf("encode item: %w", err)
	}
	if err := f.store.PushIntake(ctx, f.keys.Intake(priority), payload); err != nil {
		f.metrics.IncAdd(priority, "error")
		return fmt.Errorf("push to %s intake: %w", priority, err)
	}
	f.metrics.IncAdd(priority, "ok")
	return nil
}

// DelayFromMillis converts a user supplied delay in milliseconds. Negative
// values and values that do not fit in a time.Duration are ErrInvalidDelay.
func DelayFromMillis(ms int64) (time.Duration, error) {
	if ms < 0 || ms > math.MaxInt64/int64(time.Millisecond) {
		return 0, fmt.Errorf("%w: %d", ErrInvalidDelay, ms)
	}
	return time.Duration(ms) * time.Millisecond, nil
}

// SetHostnameCrawlDelay sets an explicit politeness delay for host. A host
// already in the heap keeps its current score until its next release.
func (f *Frontier) SetHostnameCrawlDelay(ctx context.Context, host string, delay time.Duration) error {
	host = strings.ToLower(strings.TrimSpace(host))
	if host == "" {
		return fmt.Errorf("%w: empty hostname", ErrInvalidURL)
	}
	if delay < 0 {
		return ErrInvalidDelay
	}
	if err := f.store.SetCrawlDelay(ctx, f.keys.CrawlDelays(), host, delay.Milliseconds()); err != nil {
		return fmt.Errorf("set crawl delay for %s: %w", host, err)
	}
	f.logger.Debug("crawl delay set", zap.String("host", host), zap.Duration("delay", delay))
	return nil
}

// ClearHostnameCrawlDelay removes host's explicit delay. Its next release
// reschedules it by the default delay.
func (f *Frontier) ClearHostnameCrawlDelay(ctx context.Context, host string) error {
	host = strings.ToLower(strings.TrimSpace(host))
	if host == "" {
		return fmt.Errorf("%w: empty hostname", ErrInvalidURL)
	}
	if err := f.store.DeleteCrawlDelay(ctx, f.keys.CrawlDelays(), host); err != nil {
		return fmt.Errorf("clear crawl delay for %s: %w", host, err)
	}
	f.logger.Debug("crawl delay cleared", zap.String("host", host))
	return nil
}

// Get returns the next due item. ok is false, with a nil error, when no host is
// ready. It claims a host (postponing it by the default delay) and then
// releases it, rescheduling with the host's explicit delay if one exists.
func (f *Frontier) Get(ctx context.Context) (entity.Item, bool, error) {
	now := f.clock.Now().UnixMilli()
	fallback := now + f.cfg.DefaultCrawlDelay.Milliseconds()

	host, ok, err := f.store.FetchAndPostpone(ctx, f.keys.Heap(), now, fallback)
	if err != nil {
		f.metrics.IncGet("error")
		return entity.Item{}, false, fmt.Errorf("claim host: %w", err)
	}
	if !ok {
		f.metrics.IncGet("empty")
		return entity.Item{}, false, nil
	}

	payload, ok, err := f.store.PopAndReconcile(ctx, f.keys.Host(host), host, now)
	if err != nil {
		f.metrics.IncGet("error")
		return entity.Item{}, false, fmt.Errorf("release host %s: %w", host, err)
	}
	if !ok {
		// Another consumer drained the host after our lease expired.
		f.logger.Warn("claimed host had no queued items", zap.String("host", host))
		f.metrics.IncGet("empty")
		return entity.Item{}, false, nil
	}

	item, err := entity.DecodeItem(payload)
	if err != nil {
		f.metrics.IncGet("error")
		f.logger.Error("undecodable item in backend queue", zap.String("host", host), zap.Error(err))
		return entity.Item{}, false, fmt.Errorf("%w: decode item of %s: %v", ErrInvariant, host, err)
	}
	f.metrics.IncGet("hit")
	return item, true, nil
}

// SelectTier asks the configured Selector which tier to drain next.
func (f *Frontier) SelectTier() string {
	return f.selector.Select(f.cfg)
}

// PromoteOnce moves one item from the intake queue of tier into its host's
// backend queue. It returns false, with a nil error, when the intake queue is
// empty. If the store rejects the promotion the item goes back to its intake
// queue so it is not lost.
func (f *Frontier) PromoteOnce(ctx context.Context, tier string) (bool, error) {
	if !f.cfg.HasTier(tier) {
		return false, fmt.Errorf("%w: %q", ErrInvalidPriority, tier)
	}
	queue := f.keys.Intake(tier)

	payload, ok, err := f.store.PopIntake(ctx, queue)
	if err != nil {
		f.metrics.IncPromotion(tier, "error")
		return false, fmt.Errorf("pop %s intake: %w", tier, err)
	}
	if !ok {
		f.metrics.IncPromotion(tier, "idle")
		return false, nil
	}

	item, err := entity.DecodeItem(payload)
	if err != nil {
		f.metrics.IncPromotion(tier, "error")
		f.logger.Error("dropping undecodable intake item", zap.String("priority", tier), zap.Error(err))
		return false, fmt.Errorf("%w: decode intake item: %v", ErrInvariant, err)
	}
	host, err := utils.Hostname(item.URL)
	if err != nil {
		f.metrics.IncPromotion(tier, "error")
		f.logger.Error("dropping intake item without hostname", zap.String("url", item.URL), zap.Error(err))
		return false, fmt.Errorf("%w: %q: %v", ErrInvariant, item.URL, err)
	}

	now := f.clock.Now().UnixMilli()
	if err := f.store.Promote(ctx, f.keys.Host(host), host, payload, now); err != nil {
		f.metrics.IncPromotion(tier, "error")
		if rqErr := f.store.RequeueIntake(ctx, queue, payload); rqErr != nil {
			f.logger.Error("item lost after failed promotion",
				zap.String("url", item.URL), zap.Error(err), zap.NamedError("requeue_error", rqErr))
			return false, errors.Join(err, rqErr)
		}
		return false, err
	}
	f.metrics.IncPromotion(tier, "promoted")
	return true, nil
}

// Heap scans the readiness heap. Pass the returned cursor back to continue;
// a cursor of 0 means the scan is complete.
func (f *Frontier) Heap(ctx context.Context, cursor uint64, count int64) ([]entity.HeapEntry, uint64, error) {
	entries, next, err := f.store.ScanHeap(ctx, f.keys.Heap(), cursor, count)
	if err != nil {
		return nil, 0, fmt.Errorf("scan heap: %w", err)
	}
	return entries, next, nil
}

// Backend lists a window of host's backend queue, most recently promoted first.
func (f *Frontier) Backend(ctx context.Context, host string, start, stop int64) ([]entity.Item, error) {
	raw, err := f.store.RangeBackend(ctx, f.keys.Backend(strings.ToLower(host)), start, stop)
	if err != nil {
		return nil, fmt.Errorf("range backend of %s: %w", host, err)
	}
	items := make([]entity.Item, 0, len(raw))
	for _, payload := range raw {
		item, err := entity.DecodeItem(payload)
		if err != nil {
			return nil, fmt.Errorf("%w: decode item of %s: %v", ErrInvariant, host, err)
		}
		items = append(items, item)
	}
	return items, nil
}

// HostnameURLCount returns the number of items queued for host. ok is false
// when the host has no pending-count entry.
func (f *Frontier) HostnameURLCount(ctx context.Context, host string) (int64, bool, error) {
	n, ok, err := f.store.HostCount(ctx, f.keys.HostnameURLs(), strings.ToLower(host))
	if err != nil {
		return 0, false, fmt.Errorf("read count of %s: %w", host, err)
	}
	return n, ok, nil
}

// IntakeLen returns the number of items waiting in a tier's intake queue.
func (f *Frontier) IntakeLen(ctx context.Context, tier string) (int64, error) {
	if !f.cfg.HasTier(tier) {
		return 0, fmt.Errorf("%w: %q", ErrInvalidPriority, tier)
	}
	n, err := f.store.IntakeLen(ctx, f.keys.Intake(tier))
	if err != nil {
		return 0, fmt.Errorf("intake length of %s: %w", tier, err)
	}
	f.metrics.SetQueueLength(tier, n)
	return n, nil
}

// Ping checks the store connection.
func (f *Frontier) Ping(ctx context.Context) error {
	return f.store.Ping(ctx)
}
