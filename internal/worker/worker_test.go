package worker

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/user/url-frontier/internal/adapter/memory"
	"github.com/user/url-frontier/internal/frontier"
	"github.com/user/url-frontier/pkg/metrics"
)

type fakePromoter struct {
	mu      sync.Mutex
	tiers   []string
	calls   atomic.Int64
	lengths atomic.Int64
	err     error
	ok      bool
}

func (p *fakePromoter) SelectTier() string { return "normal" }

func (p *fakePromoter) PromoteOnce(_ context.Context, tier string) (bool, error) {
	p.calls.Add(1)
	p.mu.Lock()
	p.tiers = append(p.tiers, tier)
	p.mu.Unlock()
	return p.ok, p.err
}

func (p *fakePromoter) IntakeLen(context.Context, string) (int64, error) {
	p.lengths.Add(1)
	return 0, nil
}

func TestWorkOnceUsesSelectedTier(t *testing.T) {
	t.Parallel()

	p := &fakePromoter{ok: true}
	w := New(p, Config{}, zap.NewNop(), nil)
	require.NotEmpty(t, w.ID())

	ok, err := w.WorkOnce(context.Background())
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, []string{"normal"}, p.tiers)
}

func TestWorkOnceReportsIntakeLength(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	cfg := frontier.DefaultConfig()
	cfg.Selector = frontier.StrictPriority
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	f, err := frontier.New(cfg, memory.NewFrontierStore(), frontier.WithMetrics(m))
	require.NoError(t, err)
	for _, u := range []string{"https://a.com/1", "https://b.com/2", "https://c.com/3"} {
		require.NoError(t, f.Add(ctx, u, "high", nil))
	}

	w := New(f, Config{}, nil, m)
	ok, err := w.WorkOnce(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, float64(2), testutil.ToFloat64(m.URLsInQueue.WithLabelValues("high")))

	// Refreshes are throttled per worker.
	ok, err = w.WorkOnce(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, float64(2), testutil.ToFloat64(m.URLsInQueue.WithLabelValues("high")))

	p := &fakePromoter{}
	fw := New(p, Config{}, nil, nil)
	for i := 0; i < 5; i++ {
		_, _ = fw.WorkOnce(ctx)
	}
	require.Equal(t, int64(1), p.lengths.Load())
}

func TestRunStopsOnCancel(t *testing.T) {
	t.Parallel()

	p := &fakePromoter{}
	w := New(p, Config{IdleBackoff: time.Millisecond}, nil, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		w.Run(ctx)
	}()

	require.Eventually(t, func() bool { return p.calls.Load() >= 3 }, time.Second, time.Millisecond)
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("worker did not stop")
	}
}

func TestRunCountsErrorsAndKeepsGoing(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	p := &fakePromoter{err: errors.New("store down")}
	w := New(p, Config{IdleBackoff: time.Millisecond}, nil, m)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go w.Run(ctx)

	require.Eventually(t, func() bool {
		return testutil.ToFloat64(m.WorkerErrorsTotal.WithLabelValues("store")) >= 2
	}, time.Second, time.Millisecond)
}

func TestRunHonorsRateLimit(t *testing.T) {
	t.Parallel()

	p := &fakePromoter{ok: true}
	w := New(p, Config{MaxPromotionsPerSecond: 20}, nil, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()
	w.Run(ctx)

	// One burst token plus about four refills in 200ms.
	require.LessOrEqual(t, p.calls.Load(), int64(8))
}

func TestPoolPromotesIntoBackends(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	f, err := frontier.New(frontier.DefaultConfig(), memory.NewFrontierStore())
	require.NoError(t, err)
	for _, tier := range []string{"high", "normal", "low"} {
		require.NoError(t, f.Add(ctx, "https://"+tier+".com/", tier, nil))
	}

	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	pool := NewPool(f, Config{IdleBackoff: time.Millisecond}, zap.NewNop(), m)
	require.Equal(t, 2, pool.Resize(2))
	require.Equal(t, 2, pool.Size())
	require.Equal(t, float64(2), testutil.ToFloat64(m.ActiveWorkers))

	require.Eventually(t, func() bool {
		for _, tier := range []string{"high", "normal", "low"} {
			n, ok, err := f.HostnameURLCount(ctx, tier+".com")
			if err != nil || !ok || n != 1 {
				return false
			}
		}
		return true
	}, 2*time.Second, 5*time.Millisecond)

	require.Equal(t, 1, pool.Resize(1))
	require.Equal(t, float64(1), testutil.ToFloat64(m.ActiveWorkers))

	pool.Stop()
	require.Zero(t, pool.Size())
	require.Zero(t, testutil.ToFloat64(m.ActiveWorkers))
}

func TestPoolRunStopsWithContext(t *testing.T) {
	t.Parallel()

	pool := NewPool(&fakePromoter{}, Config{IdleBackoff: time.Millisecond}, nil, nil)
	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- pool.Run(ctx, 3) }()

	require.Eventually(t, func() bool { return pool.Size() == 3 }, time.Second, time.Millisecond)
	cancel()
	require.NoError(t, <-errCh)
	require.Zero(t, pool.Size())
}

func TestResizeNegativeStopsAll(t *testing.T) {
	t.Parallel()

	pool := NewPool(&fakePromoter{}, Config{IdleBackoff: time.Millisecond}, nil, nil)
	pool.Resize(2)
	require.Zero(t, pool.Resize(-1))
	require.Zero(t, pool.Size())
}
