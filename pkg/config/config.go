package config

import (
	"fmt"
	"math"
	"net"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
	"go.uber.org/zap/zapcore"
)

const (
	BackendRedis  = "redis"
	BackendMemory = "memory"

	StrategyWeighted   = "weighted"
	StrategyStrict     = "strict"
	StrategyRoundRobin = "round_robin"

	defaultRedisAddr = "localhost:6379"

	// maxMillis is the largest millisecond value a time.Duration can hold.
	maxMillis = math.MaxInt64 / int64(time.Millisecond)
)

// Config holds the application configuration.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Log      LogConfig      `mapstructure:"log"`
	Store    StoreConfig    `mapstructure:"store"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Postgres PostgresConfig `mapstructure:"postgres"`
	Frontier FrontierConfig `mapstructure:"frontier"`
	Workers  WorkersConfig  `mapstructure:"workers"`
}

type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
}

type LogConfig struct {
	Level       string `mapstructure:"level"`
	Development bool   `mapstructure:"development"`
}

type StoreConfig struct {
	Backend string `mapstructure:"backend"`
}

type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	URL      string `mapstructure:"url"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// PostgresConfig is optional. When URL is empty crawl delays are not persisted.
type PostgresConfig struct {
	URL string `mapstructure:"url"`
}

type FrontierConfig struct {
	Name                string             `mapstructure:"name"`
	DefaultCrawlDelayMS int64              `mapstructure:"default_crawl_delay_ms"`
	Priorities          map[string]float64 `mapstructure:"priorities"`
	Strategy            string             `mapstructure:"strategy"`
}

type WorkersConfig struct {
	Count                  int     `mapstructure:"count"`
	IdleBackoffMS          int64   `mapstructure:"idle_backoff_ms"`
	MaxPromotionsPerSecond float64 `mapstructure:"max_promotions_per_second"`
}

// PriorityName is a tier name with its selection probability.
type PriorityName struct {
	Name        string
	Probability float64
}

// Load reads configuration from an optional file and FRONTIER_* environment
// variables, applies defaults and validates the result.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("FRONTIER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}

	// Map defaults would be merged key by key with a file's map, so the
	// default tiers apply only when none are configured.
	if len(cfg.Frontier.Priorities) == 0 {
		cfg.Frontier.Priorities = DefaultPriorities()
	}
	if cfg.Redis.Addr == "" && cfg.Redis.URL == "" {
		cfg.Redis.Addr = defaultRedisAddr
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// DefaultPriorities returns the built-in tiers.
func DefaultPriorities() map[string]float64 {
	return map[string]float64{"high": 0.6, "normal": 0.3, "low": 0.1}
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "127.0.0.1")
	v.SetDefault("server.port", 8090)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.development", false)
	v.SetDefault("store.backend", BackendRedis)
	v.SetDefault("redis.addr", "")
	v.SetDefault("redis.url", "")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("postgres.url", "")
	v.SetDefault("frontier.name", "frontier")
	v.SetDefault("frontier.default_crawl_delay_ms", 1000)
	v.SetDefault("frontier.strategy", StrategyWeighted)
	v.SetDefault("workers.count", 1)
	v.SetDefault("workers.idle_backoff_ms", 100)
	v.SetDefault("workers.max_promotions_per_second", 0)
}

// Validate checks the configuration for values the frontier cannot run with.
func (c Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return ErrInvalidPort
	}
	if _, err := zapcore.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("%w: %q", ErrInvalidLogLevel, c.Log.Level)
	}
	switch c.Store.Backend {
	case BackendRedis:
		if c.Redis.Addr != "" && c.Redis.URL != "" {
			return ErrRedisConnection
		}
	case BackendMemory:
	default:
		return fmt.Errorf("%w: %q", ErrInvalidBackend, c.Store.Backend)
	}
	if c.Frontier.Name == "" {
		return ErrEmptyName
	}
	if len(c.Frontier.Priorities) == 0 {
		return ErrNoPriorities
	}
	for name, p := range c.Frontier.Priorities {
		if p <= 0 || p > 1 {
			return fmt.Errorf("%w: %s=%v", ErrInvalidProbability, name, p)
		}
	}
	if c.Frontier.DefaultCrawlDelayMS < 0 || c.Frontier.DefaultCrawlDelayMS > maxMillis {
		return ErrInvalidDelay
	}
	switch c.Frontier.Strategy {
	case StrategyWeighted, StrategyStrict, StrategyRoundRobin:
	default:
		return fmt.Errorf("%w: %q", ErrInvalidStrategy, c.Frontier.Strategy)
	}
	if c.Workers.Count < 0 || c.Workers.MaxPromotionsPerSecond < 0 ||
		c.Workers.IdleBackoffMS < 0 || c.Workers.IdleBackoffMS > maxMillis {
		return ErrInvalidWorkers
	}
	return nil
}

// SortedPriorities returns the configured tiers ordered by descending
// probability, then name.
func (c FrontierConfig) SortedPriorities() []PriorityName {
	out := make([]PriorityName, 0, len(c.Priorities))
	for name, p := range c.Priorities {
		out = append(out, PriorityName{Name: name, Probability: p})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Probability != out[j].Probability {
			return out[i].Probability > out[j].Probability
		}
		return out[i].Name < out[j].Name
	})
	return out
}

// DefaultCrawlDelay returns the default politeness delay.
func (c FrontierConfig) DefaultCrawlDelay() time.Duration {
	return time.Duration(c.DefaultCrawlDelayMS) * time.Millisecond
}

// IdleBackoff returns the worker sleep after an idle iteration.
func (c WorkersConfig) IdleBackoff() time.Duration {
	return time.Duration(c.IdleBackoffMS) * time.Millisecond
}

// Addr returns the HTTP listen address.
func (c ServerConfig) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}
