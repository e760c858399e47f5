// Package wsbridge exposes a read-only websocket feed of the live session
// state. Observers connect and receive a snapshot whenever the state changes;
// the feed is eventually consistent and never writes back into the run.
package wsbridge

import (
	"encoding/json"
	"fmt"
	"time"
)

// MessageType identifies an envelope's payload.
type MessageType string

const (
	// TypeHello is sent once when an observer connects.
	TypeHello MessageType = "hello"
	// TypeSnapshot carries the current session snapshot.
	TypeSnapshot MessageType = "snapshot"
)

// Envelope is the wire format for every observer message.
type Envelope struct {
	Type    MessageType     `json:"type"`
	SentAt  time.Time       `json:"sentAt"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// HelloPayload greets a newly connected observer.
type HelloPayload struct {
	SessionID string `json:"sessionId"`
	Version   string `json:"version"`
}

// encodeEnvelope marshals a payload into a ready-to-send envelope.
func encodeEnvelope(t MessageType, payload interface{}) ([]byte, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal %s payload: %w", t, err)
	}
	env := Envelope{
		Type:    t,
		SentAt:  time.Now(),
		Payload: raw,
	}
	return json.Marshal(env)
}
