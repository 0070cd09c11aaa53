package response

import "github.com/user/url-frontier/internal/entity"

const (
	StatusOK    = "OK"
	StatusError = "ERROR"
)

// Status is the envelope for responses that carry no data.
type Status struct {
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

// Get is returned by GET /frontier. Data is null when no host is ready.
type Get struct {
	Status string       `json:"status"`
	Data   *entity.Item `json:"data"`
}

// Heap is one page of a readiness heap scan. Cursor 0 means the scan is done.
type Heap struct {
	Status string             `json:"status"`
	Data   []entity.HeapEntry `json:"data"`
	Cursor uint64             `json:"cursor"`
}

// Backend lists items queued for a host, most recently promoted first.
type Backend struct {
	Status string        `json:"status"`
	Data   []entity.Item `json:"data"`
}

// Count is the pending-item count of a host; null when the host is unknown.
type Count struct {
	Status string `json:"status"`
	Count  *int64 `json:"count"`
}

// Workers reports the promotion worker pool size.
type Workers struct {
	Status        string `json:"status"`
	ActiveWorkers int    `json:"activeWorkers"`
}

// Intake is the number of items waiting in one priority's intake queue.
type Intake struct {
	Status   string `json:"status"`
	Priority string `json:"priority"`
	Length   int64  `json:"length"`
}
