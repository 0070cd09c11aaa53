package config

import "errors"

var (
	// ErrInvalidPort is returned when server.port is outside 1..65535
	ErrInvalidPort = errors.New("server.port must be between 1 and 65535")
	// ErrInvalidLogLevel is returned when log.level is not a zap level
	ErrInvalidLogLevel = errors.New("log.level is not a valid level")
	// ErrInvalidBackend is returned when store.backend is neither redis nor memory
	ErrInvalidBackend = errors.New("store.backend must be redis or memory")
	// ErrRedisConnection is returned when both redis.addr and redis.url are set
	ErrRedisConnection = errors.New("at most one of redis.addr and redis.url may be set")
	// ErrEmptyName is returned when frontier.name is empty
	ErrEmptyName = errors.New("frontier.name cannot be empty")
	// ErrNoPriorities is returned when no priority tier is configured
	ErrNoPriorities = errors.New("frontier.priorities must name at least one tier")
	// ErrInvalidProbability is returned when a tier probability is outside (0,1]
	ErrInvalidProbability = errors.New("priority probability must be in (0,1]")
	// ErrInvalidDelay is returned when frontier.default_crawl_delay_ms is negative or too large
	ErrInvalidDelay = errors.New("frontier.default_crawl_delay_ms is out of range")
	// ErrInvalidStrategy is returned for an unknown frontier.strategy
	ErrInvalidStrategy = errors.New("frontier.strategy must be weighted, strict or round_robin")
	// ErrInvalidWorkers is returned when a workers.* value is negative or too large
	ErrInvalidWorkers = errors.New("workers settings are out of range")
)
