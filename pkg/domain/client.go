package domain

import (
	"context"
)

// Client represents one physical push channel connection
type Client interface {
	// ID returns the unique identifier of the connection
	ID() string

	// Send queues a frame for writing
	Send(ctx context.Context, message []byte) error

	// Receive sets up a message handler for incoming frames
	Receive(handler MessageHandler) error

	// Close closes the connection
	Close() error

	// Context is cancelled once the connection is gone
	Context() context.Context
}

// MessageHandler is a function that handles incoming frames
type MessageHandler func(message []byte) error
