package request

import "encoding/json"

// AddRequest is the body of POST /frontier.
type AddRequest struct {
	URL      string          `json:"url"`
	Priority string          `json:"priority"`
	Meta     json.RawMessage `json:"meta,omitempty"`
}

// DelayRequest is the body of PUT /frontier/hosts/{host}/delay. Delay is in
// milliseconds.
type DelayRequest struct {
	Delay *int64 `json:"delay"`
}

// WorkersRequest is the body of POST /frontend-workers.
type WorkersRequest struct {
	Workers *int `json:"workers"`
}
