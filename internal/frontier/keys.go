package frontier

import "github.com/user/url-frontier/internal/repository"

// Keys derives every store key from the frontier name, so several frontiers can share one store.
type Keys struct {
	name string
}

// NewKeys returns the key scheme for a frontier namespace.
func NewKeys(name string) Keys {
	return Keys{name: name}
}

// Intake is the intake queue of a priority tier.
func (k Keys) Intake(tier string) string {
	return k.name + ":priority:" + tier
}

// Backend is the per-host queue of promoted items.
func (k Keys) Backend(host string) string {
	return k.name + ":" + host
}

// Heap is the host readiness heap.
func (k Keys) Heap() string {
	return k.name + ":heap"
}

// HostnameURLs is the pending-count index.
func (k Keys) HostnameURLs() string {
	return k.name + ":hostnameUrls"
}

// CrawlDelays is the politeness table.
func (k Keys) CrawlDelays() string {
	return k.name + ":crawlDelays"
}

// Host bundles the keys touched by promotion and release of one host.
func (k Keys) Host(host string) repository.HostKeys {
	return repository.HostKeys{
		Backend: k.Backend(host),
		Counts:  k.HostnameURLs(),
		Heap:    k.Heap(),
		Delays:  k.CrawlDelays(),
	}
}
