package event

import (
	"encoding/json"
	"time"
)

// Envelope is the JSON form of an event on external sinks.
type Envelope struct {
	Kind   string    `json:"kind"`
	Source string    `json:"source,omitempty"`
	Time   time.Time `json:"time"`
	Data   Event     `json:"data"`
}

// Marshal wraps e in an Envelope and encodes it.
func Marshal(e Event, source string, at time.Time) ([]byte, error) {
	return json.Marshal(Envelope{Kind: e.Kind().String(), Source: source, Time: at.UTC(), Data: e})
}
