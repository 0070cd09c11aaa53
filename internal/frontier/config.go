package frontier

import (
	"fmt"
	"time"
)

// Tier is a named intake queue and its relative selection weight.
type Tier struct {
	Name        string  `mapstructure:"name" json:"name"`
	Probability float64 `mapstructure:"probability" json:"probability"`
}

// Config is fixed for the lifetime of a Frontier.
type Config struct {
	// Name prefixes every store key owned by the frontier.
	Name              string
	Tiers             []Tier
	DefaultCrawlDelay time.Duration
	// Selector overrides the weighted random tier choice when set.
	Selector Selector
}

// DefaultConfig returns three tiers (high, normal, low) and a one second default delay.
func DefaultConfig() Config {
	return Config{
		Name: "frontier",
		Tiers: []Tier{
			{Name: "high", Probability: 0.6},
			{Name: "normal", Probability: 0.3},
			{Name: "low", Probability: 0.1},
		},
		DefaultCrawlDelay: time.Second,
	}
}

// Validate enforces a usable namespace, unique tiers with weights in (0,1] and a
// non-negative default delay.
func (c Config) Validate() error {
	if c.Name == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidConfig)
	}
	if len(c.Tiers) == 0 {
		return fmt.Errorf("%w: at least one priority tier is required", ErrInvalidConfig)
	}
	seen := make(map[string]struct{}, len(c.Tiers))
	for _, t := range c.Tiers {
		if t.Name == "" {
			return fmt.Errorf("%w: tier name is required", ErrInvalidConfig)
		}
		if _, dup := seen[t.Name]; dup {
			return fmt.Errorf("%w: duplicate tier %q", ErrInvalidConfig, t.Name)
		}
		seen[t.Name] = struct{}{}
		if t.Probability <= 0 || t.Probability > 1 {
			return fmt.Errorf("%w: tier %q probability must be in (0,1]", ErrInvalidConfig, t.Name)
		}
	}
	if c.DefaultCrawlDelay < 0 {
		return fmt.Errorf("%w: default crawl delay must not be negative", ErrInvalidConfig)
	}
	return nil
}

// HasTier reports whether name is a configured tier.
func (c Config) HasTier(name string) bool {
	_, ok := c.Tier(name)
	return ok
}

// Tier looks up a tier by name.
func (c Config) Tier(name string) (Tier, bool) {
	for _, t := range c.Tiers {
		if t.Name == name {
			return t, true
		}
	}
	return Tier{}, false
}

// TierNames lists tier names in configuration order.
func (c Config) TierNames() []string {
	names := make([]string, len(c.Tiers))
	for i, t := range c.Tiers {
		names[i] = t.Name
	}
	return names
}
