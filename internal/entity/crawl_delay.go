package entity

import "time"

// CrawlDelay mirrors the `crawl_delays` PostgreSQL table schema.
type CrawlDelay struct {
	Hostname  string
	DelayMS   int64
	UpdatedAt time.Time
}

// Delay returns the politeness delay as a duration.
func (d CrawlDelay) Delay() time.Duration {
	return time.Duration(d.DelayMS) * time.Millisecond
}
