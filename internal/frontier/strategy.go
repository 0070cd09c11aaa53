package frontier

import (
	"math/rand/v2"
	"sort"
	"sync"
)

// Selector picks the intake tier a promotion worker drains next.
// Implementations receive the full frontier configuration.
type Selector interface {
	Select(cfg Config) string
}

// SelectorFunc adapts a plain function to Selector.
type SelectorFunc func(cfg Config) string

// Select calls f(cfg).
func (f SelectorFunc) Select(cfg Config) string {
	return f(cfg)
}

// WeightedRandom is the default Selector. Tiers are ordered by ascending weight
// and a uniform draw in [0,1) is compared against their normalized cumulative
// thresholds. It is safe for concurrent use.
type WeightedRandom struct {
	names      []string
	thresholds []float64

	mu  sync.Mutex
	rng *rand.Rand // nil uses the global source
}

// NewWeightedRandom precomputes thresholds for tiers. A nil src draws from the
// global, goroutine-safe source.
func NewWeightedRandom(tiers []Tier, src rand.Source) *WeightedRandom {
	ordered := make([]Tier, len(tiers))
	copy(ordered, tiers)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Probability < ordered[j].Probability
	})

	var total float64
	for _, t := range ordered {
		total += t.Probability
	}

	w := &WeightedRandom{
		names:      make([]string, len(ordered)),
		thresholds: make([]float64, len(ordered)),
	}
	var cumulative float64
	for i, t := range ordered {
		cumulative += t.Probability
		w.names[i] = t.Name
		if total > 0 {
			w.thresholds[i] = cumulative / total
		}
	}
	if src != nil {
		w.rng = rand.New(src)
	}
	return w
}

// Select returns the first tier whose threshold exceeds the draw, or the tier
// with the highest threshold when rounding leaves none.
func (w *WeightedRandom) Select(Config) string {
	if len(w.names) == 0 {
		return ""
	}
	draw := w.draw()
	for i, threshold := range w.thresholds {
		if draw < threshold {
			return w.names[i]
		}
	}
	return w.names[len(w.names)-1]
}

func (w *WeightedRandom) draw() float64 {
	if w.rng == nil {
		return rand.Float64()
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.rng.Float64()
}

// StrictPriority always drains the tier with the highest weight. Ties go to the
// tier listed first.
var StrictPriority = SelectorFunc(func(cfg Config) string {
	best := ""
	bestP := -1.0
	for _, t := range cfg.Tiers {
		if t.Probability > bestP {
			best, bestP = t.Name, t.Probability
		}
	}
	return best
})

// RoundRobin returns a Selector cycling through tiers in configuration order.
func RoundRobin() Selector {
	var (
		mu   sync.Mutex
		next int
	)
	return SelectorFunc(func(cfg Config) string {
		if len(cfg.Tiers) == 0 {
			return ""
		}
		mu.Lock()
		defer mu.Unlock()
		name := cfg.Tiers[next%len(cfg.Tiers)].Name
		next++
		return name
	})
}
