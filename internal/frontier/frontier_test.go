package frontier_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/user/url-frontier/internal/adapter/memory"
	redisadapter "github.com/user/url-frontier/internal/adapter/redis"
	"github.com/user/url-frontier/internal/entity"
	"github.com/user/url-frontier/internal/frontier"
	"github.com/user/url-frontier/internal/repository"
)

const t0 = int64(1466424490000)

type fakeClock struct {
	mu sync.Mutex
	ms int64
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return time.UnixMilli(c.ms)
}

func (c *fakeClock) Set(ms int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ms = ms
}

// stores returns a fresh instance of every FrontierStore implementation.
func stores(t *testing.T) map[string]repository.FrontierStore {
	t.Helper()

	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return map[string]repository.FrontierStore{
		"memory": memory.NewFrontierStore(),
		"redis":  redisadapter.NewFrontierStore(client),
	}
}

func forEachStore(t *testing.T, fn func(t *testing.T, store repository.FrontierStore)) {
	t.Helper()
	for name, store := range stores(t) {
		t.Run(name, func(t *testing.T) {
			fn(t, store)
		})
	}
}

func newFrontier(t *testing.T, store repository.FrontierStore, clock frontier.Clock) *frontier.Frontier {
	t.Helper()
	f, err := frontier.New(frontier.DefaultConfig(), store, frontier.WithClock(clock))
	require.NoError(t, err)
	return f
}

func heapOf(t *testing.T, f *frontier.Frontier) []entity.HeapEntry {
	t.Helper()
	entries, _, err := f.Heap(context.Background(), 0, 100)
	require.NoError(t, err)
	return entries
}

func TestPolitenessScenario(t *testing.T) {
	forEachStore(t, func(t *testing.T, store repository.FrontierStore) {
		ctx := context.Background()
		clock := &fakeClock{ms: t0}
		f := newFrontier(t, store, clock)

		require.NoError(t, f.Add(ctx, "http://test.com/page", "normal", nil))
		require.NoError(t, f.Add(ctx, "http://test.com/page2", "normal", nil))
		require.NoError(t, f.SetHostnameCrawlDelay(ctx, "test.com", 500*time.Millisecond))

		for i := 0; i < 2; i++ {
			ok, err := f.PromoteOnce(ctx, "normal")
			require.NoError(t, err)
			require.True(t, ok)
		}

		assert.Equal(t, []entity.HeapEntry{{Host: "test.com", ReadyAt: t0}}, heapOf(t, f))
		backend, err := f.Backend(ctx, "test.com", 0, -1)
		require.NoError(t, err)
		assert.Len(t, backend, 2)
		n, ok, err := f.HostnameURLCount(ctx, "test.com")
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, int64(2), n)

		item, ok, err := f.Get(ctx)
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, "http://test.com/page", item.URL)

		n, _, err = f.HostnameURLCount(ctx, "test.com")
		require.NoError(t, err)
		assert.Equal(t, int64(1), n)
		assert.Equal(t, []entity.HeapEntry{{Host: "test.com", ReadyAt: t0 + 500}}, heapOf(t, f))

		_, ok, err = f.Get(ctx)
		require.NoError(t, err)
		assert.False(t, ok, "host must not be served before its delay elapses")

		clock.Set(t0 + 10)
		meta := json.RawMessage(`{"test":"hello"}`)
		require.NoError(t, f.Add(ctx, "https://sub.test2.com/this/is/a/page3", "normal", meta))
		ok, err = f.PromoteOnce(ctx, "normal")
		require.NoError(t, err)
		require.True(t, ok)

		item, ok, err = f.Get(ctx)
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, "https://sub.test2.com/this/is/a/page3", item.URL)
		assert.JSONEq(t, `{"test":"hello"}`, string(item.Meta))
		assert.Equal(t, []entity.HeapEntry{{Host: "test.com", ReadyAt: t0 + 500}}, heapOf(t, f))

		clock.Set(t0 + 499)
		_, ok, err = f.Get(ctx)
		require.NoError(t, err)
		assert.False(t, ok, "explicit delay must hold the host until T+500")

		clock.Set(t0 + 500)
		item, ok, err = f.Get(ctx)
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, "http://test.com/page2", item.URL)

		assert.Empty(t, heapOf(t, f))
		_, ok, err = f.HostnameURLCount(ctx, "test.com")
		require.NoError(t, err)
		assert.False(t, ok)
		backend, err = f.Backend(ctx, "test.com", 0, -1)
		require.NoError(t, err)
		assert.Empty(t, backend)
	})
}

func TestDefaultDelayAppliesWithoutExplicitDelay(t *testing.T) {
	forEachStore(t, func(t *testing.T, store repository.FrontierStore) {
		ctx := context.Background()
		clock := &fakeClock{ms: t0}
		f := newFrontier(t, store, clock)

		for _, u := range []string{"https://a.com/1", "https://a.com/2"} {
			require.NoError(t, f.Add(ctx, u, "high", nil))
			_, err := f.PromoteOnce(ctx, "high")
			require.NoError(t, err)
		}

		item, ok, err := f.Get(ctx)
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, "https://a.com/1", item.URL)
		assert.Equal(t, []entity.HeapEntry{{Host: "a.com", ReadyAt: t0 + 1000}}, heapOf(t, f))

		clock.Set(t0 + 999)
		_, ok, err = f.Get(ctx)
		require.NoError(t, err)
		assert.False(t, ok)

		clock.Set(t0 + 1000)
		item, ok, err = f.Get(ctx)
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, "https://a.com/2", item.URL)
	})
}

func TestHostsAreServedInReadinessOrder(t *testing.T) {
	forEachStore(t, func(t *testing.T, store repository.FrontierStore) {
		ctx := context.Background()
		clock := &fakeClock{ms: t0}
		f := newFrontier(t, store, clock)

		for i, host := range []string{"c.com", "a.com", "b.com"} {
			clock.Set(t0 + int64(i))
			require.NoError(t, f.Add(ctx, "https://"+host+"/", "low", nil))
			_, err := f.PromoteOnce(ctx, "low")
			require.NoError(t, err)
		}

		clock.Set(t0 + 10)
		var got []string
		for {
			item, ok, err := f.Get(ctx)
			require.NoError(t, err)
			if !ok {
				break
			}
			got = append(got, item.URL)
		}
		assert.Equal(t, []string{"https://c.com/", "https://a.com/", "https://b.com/"}, got)
	})
}

func TestAddRejectsInvalidInput(t *testing.T) {
	forEachStore(t, func(t *testing.T, store repository.FrontierStore) {
		ctx := context.Background()
		f := newFrontier(t, store, &fakeClock{ms: t0})

		err := f.Add(ctx, "https://a.com/", "urgent", nil)
		require.ErrorIs(t, err, frontier.ErrInvalidPriority)
		assert.Equal(t, `wrong priority specified: "urgent"`, err.Error())

		require.ErrorIs(t, f.Add(ctx, "/relative/only", "normal", nil), frontier.ErrInvalidURL)
		require.ErrorIs(t, f.Add(ctx, "https://a.com/", "normal", json.RawMessage(`{bad`)), frontier.ErrInvalidMeta)

		for _, tier := range f.Config().TierNames() {
			n, err := f.IntakeLen(ctx, tier)
			require.NoError(t, err)
			assert.Zero(t, n, tier)
		}
	})
}

func TestSetHostnameCrawlDelayValidation(t *testing.T) {
	forEachStore(t, func(t *testing.T, store repository.FrontierStore) {
		ctx := context.Background()
		f := newFrontier(t, store, &fakeClock{ms: t0})

		require.ErrorIs(t, f.SetHostnameCrawlDelay(ctx, "a.com", -time.Millisecond), frontier.ErrInvalidDelay)
		require.ErrorIs(t, f.SetHostnameCrawlDelay(ctx, " ", time.Second), frontier.ErrInvalidURL)
		require.NoError(t, f.SetHostnameCrawlDelay(ctx, "a.com", 0))
	})
}

func TestClearHostnameCrawlDelayFallsBackToDefault(t *testing.T) {
	forEachStore(t, func(t *testing.T, store repository.FrontierStore) {
		ctx := context.Background()
		clock := &fakeClock{ms: t0}
		f := newFrontier(t, store, clock)

		require.NoError(t, f.SetHostnameCrawlDelay(ctx, "a.com", 200*time.Millisecond))
		require.NoError(t, f.ClearHostnameCrawlDelay(ctx, "A.com"))
		require.ErrorIs(t, f.ClearHostnameCrawlDelay(ctx, ""), frontier.ErrInvalidURL)

		for _, u := range []string{"https://a.com/1", "https://a.com/2"} {
			require.NoError(t, f.Add(ctx, u, "low", nil))
			_, err := f.PromoteOnce(ctx, "low")
			require.NoError(t, err)
		}
		_, ok, err := f.Get(ctx)
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, []entity.HeapEntry{{Host: "a.com", ReadyAt: t0 + 1000}}, heapOf(t, f))
	})
}

func TestDelayFromMillis(t *testing.T) {
	t.Parallel()

	d, err := frontier.DelayFromMillis(500)
	require.NoError(t, err)
	assert.Equal(t, 500*time.Millisecond, d)

	d, err = frontier.DelayFromMillis(0)
	require.NoError(t, err)
	assert.Zero(t, d)

	for _, ms := range []int64{-1, math.MaxInt64 / 1000, math.MaxInt64} {
		_, err := frontier.DelayFromMillis(ms)
		require.ErrorIs(t, err, frontier.ErrInvalidDelay, ms)
	}
}

func TestPromoteOnce(t *testing.T) {
	forEachStore(t, func(t *testing.T, store repository.FrontierStore) {
		ctx := context.Background()
		f := newFrontier(t, store, &fakeClock{ms: t0})

		ok, err := f.PromoteOnce(ctx, "high")
		require.NoError(t, err)
		assert.False(t, ok)

		_, err = f.PromoteOnce(ctx, "urgent")
		require.ErrorIs(t, err, frontier.ErrInvalidPriority)

		require.NoError(t, f.Add(ctx, "https://A.com/x", "high", nil))
		ok, err = f.PromoteOnce(ctx, "high")
		require.NoError(t, err)
		assert.True(t, ok)

		n, ok, err := f.HostnameURLCount(ctx, "a.com")
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, int64(1), n)
	})
}

func TestPromoteOnceDropsUndecodableItem(t *testing.T) {
	forEachStore(t, func(t *testing.T, store repository.FrontierStore) {
		ctx := context.Background()
		f := newFrontier(t, store, &fakeClock{ms: t0})

		require.NoError(t, store.PushIntake(ctx, f.Keys().Intake("normal"), "not json"))
		_, err := f.PromoteOnce(ctx, "normal")
		require.ErrorIs(t, err, frontier.ErrInvariant)

		n, err := f.IntakeLen(ctx, "normal")
		require.NoError(t, err)
		assert.Zero(t, n)
	})
}

type failingPromote struct {
	*memory.FrontierStore
	err error
}

func (s failingPromote) Promote(context.Context, repository.HostKeys, string, string, int64) error {
	return s.err
}

func TestPromoteOnceRequeuesOnFailure(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	boom := errors.New("store unavailable")
	store := failingPromote{FrontierStore: memory.NewFrontierStore(), err: boom}
	f := newFrontier(t, store, &fakeClock{ms: t0})

	require.NoError(t, f.Add(ctx, "https://a.com/first", "normal", nil))
	require.NoError(t, f.Add(ctx, "https://a.com/second", "normal", nil))

	_, err := f.PromoteOnce(ctx, "normal")
	require.ErrorIs(t, err, boom)

	n, err := f.IntakeLen(ctx, "normal")
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	payload, ok, err := store.PopIntake(ctx, f.Keys().Intake("normal"))
	require.NoError(t, err)
	require.True(t, ok)
	item, err := entity.DecodeItem(payload)
	require.NoError(t, err)
	assert.Equal(t, "https://a.com/first", item.URL, "requeued item keeps its place at the head")
}

func TestConcurrentGetsDeliverEachItemOnce(t *testing.T) {
	forEachStore(t, func(t *testing.T, store repository.FrontierStore) {
		ctx := context.Background()
		clock := &fakeClock{ms: t0}
		f := newFrontier(t, store, clock)

		const hosts = 40
		for i := 0; i < hosts; i++ {
			require.NoError(t, f.Add(ctx, fmt.Sprintf("https://h%d.com/", i), "normal", nil))
			_, err := f.PromoteOnce(ctx, "normal")
			require.NoError(t, err)
		}

		var (
			mu   sync.Mutex
			seen = map[string]int{}
			wg   sync.WaitGroup
		)
		for w := 0; w < 8; w++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for {
					item, ok, err := f.Get(ctx)
					if err != nil || !ok {
						return
					}
					mu.Lock()
					seen[item.URL]++
					mu.Unlock()
				}
			}()
		}
		wg.Wait()

		require.Len(t, seen, hosts)
		for u, c := range seen {
			assert.Equal(t, 1, c, u)
		}
		assert.Empty(t, heapOf(t, f))
	})
}

func TestBackendListsNewestFirst(t *testing.T) {
	forEachStore(t, func(t *testing.T, store repository.FrontierStore) {
		ctx := context.Background()
		f := newFrontier(t, store, &fakeClock{ms: t0})

		for _, p := range []string{"1", "2", "3"} {
			require.NoError(t, f.Add(ctx, "https://a.com/"+p, "normal", nil))
			_, err := f.PromoteOnce(ctx, "normal")
			require.NoError(t, err)
		}

		items, err := f.Backend(ctx, "a.com", 0, 1)
		require.NoError(t, err)
		require.Len(t, items, 2)
		assert.Equal(t, "https://a.com/3", items[0].URL)
		assert.Equal(t, "https://a.com/2", items[1].URL)
	})
}

func TestNewValidatesConfig(t *testing.T) {
	t.Parallel()

	_, err := frontier.New(frontier.Config{Name: "x"}, memory.NewFrontierStore())
	require.ErrorIs(t, err, frontier.ErrInvalidConfig)

	_, err = frontier.New(frontier.DefaultConfig(), nil)
	require.ErrorIs(t, err, frontier.ErrInvalidConfig)
}
