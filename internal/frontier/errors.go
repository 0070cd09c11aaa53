package frontier

import "errors"

var (
	// ErrInvalidPriority is returned when an item targets a tier the frontier does not define.
	ErrInvalidPriority = errors.New("wrong priority specified")
	// ErrInvalidURL is returned when no hostname can be derived from a URL.
	ErrInvalidURL = errors.New("url has no hostname")
	// ErrInvalidMeta is returned when item metadata is not valid JSON.
	ErrInvalidMeta = errors.New("meta is not valid JSON")
	// ErrInvalidDelay is returned for a negative crawl delay or one too large for a time.Duration.
	ErrInvalidDelay = errors.New("crawl delay out of range")
	// ErrInvalidConfig is returned when a frontier configuration fails validation.
	ErrInvalidConfig = errors.New("invalid frontier configuration")
	// ErrInvariant marks store contents the frontier never writes, such as an
	// undecodable queued item. It indicates a bug and must not be retried blindly.
	ErrInvariant = errors.New("frontier invariant violated")
)
