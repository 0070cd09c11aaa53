package worker

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/user/url-frontier/pkg/metrics"
)

type running struct {
	worker *Worker
	cancel context.CancelFunc
	done   chan struct{}
}

// Pool manages a resizable set of promotion workers in this process.
type Pool struct {
	promoter Promoter
	cfg      Config
	logger   *zap.Logger
	metrics  *metrics.Metrics

	mu      sync.Mutex
	workers []running
}

// NewPool creates an empty pool. Call Resize or Run to start workers.
func NewPool(p Promoter, cfg Config, logger *zap.Logger, m *metrics.Metrics) *Pool {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Pool{
		promoter: p,
		cfg:      cfg,
		logger:   logger,
		metrics:  m,
	}
}

// Resize stops every running worker, waits for them to finish their current
// iteration, then starts n new ones. It returns the number of active workers.
func (p *Pool) Resize(n int) int {
	if n < 0 {
		n = 0
	}
	p.mu.Lock()
	defer p.mu.Unlock()

	p.stopLocked()
	for i := 0; i < n; i++ {
		w := New(p.promoter, p.cfg, p.logger, p.metrics)
		ctx, cancel := context.WithCancel(context.Background())
		r := running{worker: w, cancel: cancel, done: make(chan struct{})}
		go func() {
			defer close(r.done)
			w.Run(ctx)
		}()
		p.workers = append(p.workers, r)
	}
	p.metrics.AddActiveWorkers(float64(n))
	p.logger.Info("promotion workers resized", zap.Int("workers", n))
	return n
}

// Size returns the number of running workers.
func (p *Pool) Size() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.workers)
}

// Stop stops all workers and waits for them.
func (p *Pool) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.stopLocked()
}

// Run starts n workers and blocks until ctx is done, then stops them.
func (p *Pool) Run(ctx context.Context, n int) error {
	p.Resize(n)
	<-ctx.Done()
	p.Stop()
	return nil
}

func (p *Pool) stopLocked() {
	for _, r := range p.workers {
		r.cancel()
	}
	for _, r := range p.workers {
		<-r.done
	}
	p.metrics.AddActiveWorkers(-float64(len(p.workers)))
	p.workers = nil
}
