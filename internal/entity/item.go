package entity

import "encoding/json"

// Item is a single frontier entry. It is stored as JSON in both intake and backend queues.
type Item struct {
	URL  string          `json:"url"`
	Meta json.RawMessage `json:"meta,omitempty"` // opaque, caller-defined
}

// Encode serializes the item to the wire format used by the store.
func (i Item) Encode() (string, error) {
	b, err := json.Marshal(i)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// DecodeItem parses a payload previously produced by Encode.
func DecodeItem(payload string) (Item, error) {
	var it Item
	if err := json.Unmarshal([]byte(payload), &it); err != nil {
		return Item{}, err
	}
	return it, nil
}
