package entity

// HeapEntry is one host in the readiness heap together with the epoch
// millisecond at which it may be fetched next.
type HeapEntry struct {
	Host    string `json:"host"`
	ReadyAt int64  `json:"ready_at"`
}
