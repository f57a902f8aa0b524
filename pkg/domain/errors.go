package domain

import (
	"errors"
)

// Common domain errors
var (
	// ErrNotConnected is returned when emitting without a live connection
	ErrNotConnected = errors.New("not connected")

	// ErrManagerClosed is returned when using a connection manager after Close
	ErrManagerClosed = errors.New("connection manager closed")

	// ErrConnectionClosed is returned when trying to use a closed connection
	ErrConnectionClosed = errors.New("connection closed")

	// ErrEmptyMatchID is returned when a match id is required but absent
	ErrEmptyMatchID = errors.New("empty match id")

	// ErrUnknownCommand is returned for a command name outside the outbound set
	ErrUnknownCommand = errors.New("unknown command")

	// ErrInvalidMessage is returned when a frame cannot be decoded
	ErrInvalidMessage = errors.New("invalid message")
)
