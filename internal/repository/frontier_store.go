package repository

import (
	"context"

	"github.com/user/url-frontier/internal/entity"
)

// HostKeys names every structure touched when a host is promoted, claimed or released.
type HostKeys struct {
	Backend string // per-host FIFO
	Counts  string // hostname -> pending count
	Heap    string // hostname -> next fetch epoch ms
	Delays  string // hostname -> crawl delay ms
}

// FrontierStore defines the shared ordered store the frontier runs against.
// Promote, FetchAndPostpone and PopAndReconcile must each be atomic.
type FrontierStore interface {
	// PushIntake adds a payload to the producing end of an intake queue.
	PushIntake(ctx context.Context, queue, payload string) error
	// PopIntake removes the oldest payload from an intake queue.
	// ok is false when the queue is empty.
	PopIntake(ctx context.Context, queue string) (payload string, ok bool, err error)
	// RequeueIntake puts a payload back so that it is the next one popped.
	RequeueIntake(ctx context.Context, queue, payload string) error
	// IntakeLen returns the current number of items in an intake queue.
	IntakeLen(ctx context.Context, queue string) (int64, error)

	// Promote appends payload to the host's backend queue, increments its
	// pending count and inserts the host into the heap at now if it is absent.
	Promote(ctx context.Context, keys HostKeys, host, payload string, now int64) error
	// FetchAndPostpone finds the host with the lowest score <= now and
	// re-scores it to fallback. ok is false when no host is due.
	FetchAndPostpone(ctx context.Context, heap string, now, fallback int64) (host string, ok bool, err error)
	// PopAndReconcile pops the oldest payload of the host's backend queue and
	// restores the heap and count invariants. ok is false when the queue was empty.
	PopAndReconcile(ctx context.Context, keys HostKeys, host string, now int64) (payload string, ok bool, err error)

	// SetCrawlDelay upserts an explicit politeness delay for host.
	SetCrawlDelay(ctx context.Context, delays, host string, delayMS int64) error
	// DeleteCrawlDelay removes host's explicit delay so the default applies again.
	DeleteCrawlDelay(ctx context.Context, delays, host string) error
	// ScanHeap pages through the readiness heap. A returned cursor of 0 means the scan is complete.
	ScanHeap(ctx context.Context, heap string, cursor uint64, count int64) ([]entity.HeapEntry, uint64, error)
	// RangeBackend lists a window of a backend queue, most recently promoted first.
	RangeBackend(ctx context.Context, backend string, start, stop int64) ([]string, error)
	// HostCount reads a host's pending count. ok is false when the host has no entry.
	HostCount(ctx context.Context, counts, host string) (n int64, ok bool, err error)

	Ping(ctx context.Context) error
	Close() error
}
