package protocol

import (
	"encoding/json"
	"time"

	"github.com/HMasataka/scoreline/pkg/domain"
	"github.com/rs/xid"
)

// Envelope is the frame exchanged on the push channel
type Envelope struct {
	ID        string           `json:"id"`
	Event     domain.EventType `json:"event"`
	Timestamp time.Time        `json:"timestamp"`
	Data      json.RawMessage  `json:"data,omitempty"`
}

// NewEnvelope creates an envelope carrying payload as its data
func NewEnvelope(event domain.EventType, payload any) (*Envelope, error) {
	var data json.RawMessage
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return nil, err
		}
		data = b
	}

	return &Envelope{
		ID:        xid.New().String(),
		Event:     event,
		Timestamp: time.Now().UTC(),
		Data:      data,
	}, nil
}

// Codec defines the interface for envelope encoding/decoding
type Codec interface {
	// Encode encodes an envelope to bytes
	Encode(env *Envelope) ([]byte, error)

	// Decode decodes bytes to an envelope
	Decode(data []byte) (*Envelope, error)
}

// JSONCodec implements Codec using JSON
type JSONCodec struct{}

// NewJSONCodec creates a new JSON codec
func NewJSONCodec() *JSONCodec {
	return &JSONCodec{}
}

// Encode implements the Codec interface
func (c *JSONCodec) Encode(env *Envelope) ([]byte, error) {
	return json.Marshal(env)
}

// Decode implements the Codec interface. Frames without an event name are rejected.
func (c *JSONCodec) Decode(data []byte) (*Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, err
	}
	if env.Event == "" {
		return nil, domain.ErrInvalidMessage
	}
	return &env, nil
}
