package realtime

import (
	"time"

	"github.com/HMasataka/scoreline/internal/auth"
	"github.com/HMasataka/scoreline/internal/eventbus"
	"github.com/HMasataka/scoreline/internal/logging"
	"github.com/HMasataka/scoreline/pkg/errors"
	"github.com/HMasataka/scoreline/pkg/transport/protocol"
	"github.com/HMasataka/scoreline/pkg/transport/websocket"
)

// ReconnectPolicy controls automatic reconnection
type ReconnectPolicy struct {
	Enabled     bool
	BaseDelay   time.Duration
	MaxDelay    time.Duration
	MaxAttempts int // 0 means unlimited
}

// DefaultReconnectPolicy returns the default reconnection policy
func DefaultReconnectPolicy() ReconnectPolicy {
	return ReconnectPolicy{
		Enabled:   true,
		BaseDelay: time.Second,
		MaxDelay:  30 * time.Second,
	}
}

// Options represents connection manager options
type Options struct {
	Logger           *logging.Logger
	Tokens           auth.TokenProvider
	Reconnect        ReconnectPolicy
	HandshakeTimeout time.Duration
	Client           websocket.ClientOptions
	Codec            protocol.Codec
	Bus              eventbus.Bus
	ErrorHandler     errors.Handler
}

// Option is a function that configures Options
type Option func(*Options)

// WithLogger sets the logger for the manager
func WithLogger(logger *logging.Logger) Option {
	return func(o *Options) {
		o.Logger = logger
	}
}

// WithTokenProvider sets the credential source consulted before each dial
// when no token was set explicitly
func WithTokenProvider(tokens auth.TokenProvider) Option {
	return func(o *Options) {
		o.Tokens = tokens
	}
}

// WithReconnectPolicy sets the reconnection policy
func WithReconnectPolicy(policy ReconnectPolicy) Option {
	return func(o *Options) {
		o.Reconnect = policy
	}
}

// WithHandshakeTimeout sets the websocket handshake timeout
func WithHandshakeTimeout(d time.Duration) Option {
	return func(o *Options) {
		o.HandshakeTimeout = d
	}
}

// WithClientOptions sets the per-connection websocket options
func WithClientOptions(options websocket.ClientOptions) Option {
	return func(o *Options) {
		o.Client = options
	}
}

// WithErrorHandler sets the handler used to report connection failures
func WithErrorHandler(handler errors.Handler) Option {
	return func(o *Options) {
		o.ErrorHandler = handler
	}
}

// WithCodec sets the envelope codec
func WithCodec(codec protocol.Codec) Option {
	return func(o *Options) {
		o.Codec = codec
	}
}

// WithEventBus sets the bus that carries inbound events and status changes.
// The manager starts and stops it.
func WithEventBus(bus eventbus.Bus) Option {
	return func(o *Options) {
		o.Bus = bus
	}
}
