package realtime

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/HMasataka/scoreline/internal/eventbus"
	"github.com/HMasataka/scoreline/internal/logging"
	"github.com/HMasataka/scoreline/pkg/domain"
	"github.com/HMasataka/scoreline/pkg/errors"
	"github.com/HMasataka/scoreline/pkg/transport/protocol"
	"github.com/HMasataka/scoreline/pkg/transport/websocket"
)

// Status is the state of the push channel
type Status string

const (
	StatusDisconnected Status = "disconnected"
	StatusConnecting   Status = "connecting"
	StatusConnected    Status = "connected"
)

const busSource = "realtime"

// Manager owns the single physical push channel connection of a process.
// It dials lazily, redials on drops and fans inbound events out to listeners.
type Manager struct {
	url          string
	options      Options
	logger       *logging.Logger
	dialer       *websocket.Dialer
	codec        protocol.Codec
	bus          eventbus.Bus
	errorHandler errors.Handler

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
	kick   chan struct{}

	mu       sync.RWMutex
	status   Status
	running  bool
	closed   bool
	token    string
	tokenSet bool
	client   *websocket.Client
}

// NewManager creates a connection manager for url. Nothing is dialed until
// Connect is called.
func NewManager(url string, opts ...Option) *Manager {
	options := Options{
		Reconnect: DefaultReconnectPolicy(),
		Client:    websocket.DefaultClientOptions(),
	}
	for _, opt := range opts {
		opt(&options)
	}

	if options.Logger == nil {
		options.Logger = logging.Discard()
	}
	if options.Codec == nil {
		options.Codec = protocol.NewJSONCodec()
	}
	if options.Bus == nil {
		options.Bus = eventbus.NewInMemoryBus(64)
	}

	logger := options.Logger.WithFields(map[string]any{"component": "realtime", "url": url})
	if options.ErrorHandler == nil {
		options.ErrorHandler = errors.NewDefaultHandler(logger.Logger)
	}

	ctx, cancel := context.WithCancel(context.Background())

	m := &Manager{
		url:          url,
		options:      options,
		logger:       logger,
		dialer:       websocket.NewDialer(logger, options.HandshakeTimeout, options.Client),
		codec:        options.Codec,
		bus:          options.Bus,
		errorHandler: options.ErrorHandler,
		ctx:          ctx,
		cancel:       cancel,
		kick:         make(chan struct{}, 1),
		status:       StatusDisconnected,
	}

	m.bus.SubscribeAll(m.trace)
	m.bus.Start(ctx)

	return m
}

// Connect starts connecting in the background. It is safe to call any number
// of times: while a connection is live or being established it does nothing,
// and while the manager waits to redial it dials immediately instead.
func (m *Manager) Connect() {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return
	}
	if m.running {
		// the run loop reports disconnected only while it waits out a backoff
		waiting := m.status == StatusDisconnected
		m.mu.Unlock()
		if waiting {
			select {
			case m.kick <- struct{}{}:
			default:
			}
		}
		return
	}
	m.running = true
	m.wg.Add(1)
	m.mu.Unlock()

	go m.run()
}

// SetToken stores the credential presented on the next dial. An established
// connection keeps the credential it was opened with. An empty token falls
// back to the token provider.
func (m *Manager) SetToken(token string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.token = token
	m.tokenSet = token != ""
}

// Token returns the credential the next dial presents. It makes the manager a
// token provider for code that must agree with the connection's identity.
func (m *Manager) Token() (string, bool) {
	token := m.currentToken()
	return token, token != ""
}

// Status returns the current connection status
func (m *Manager) Status() Status {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.status
}

// IsConnected reports whether a connection is live
func (m *Manager) IsConnected() bool {
	return m.Status() == StatusConnected
}

// Emit sends a named event. It returns domain.ErrNotConnected when there is no
// live connection; nothing is queued for later.
func (m *Manager) Emit(event domain.EventType, data any) error {
	m.mu.RLock()
	client, closed := m.client, m.closed
	m.mu.RUnlock()

	if closed {
		return domain.ErrManagerClosed
	}
	if client == nil {
		return domain.ErrNotConnected
	}

	env, err := protocol.NewEnvelope(event, data)
	if err != nil {
		return errors.Wrap(err, errors.ErrorTypeProtocol, "ENCODE_ERROR", "failed to encode payload").
			WithDetails(string(event))
	}

	frame, err := m.codec.Encode(env)
	if err != nil {
		return errors.Wrap(err, errors.ErrorTypeProtocol, "ENCODE_ERROR", "failed to encode envelope").
			WithDetails(string(event))
	}

	return client.Send(m.ctx, frame)
}

// On registers handler for an inbound event and returns the listener id.
// Handlers run on the connection's read goroutine, one frame at a time.
func (m *Manager) On(event domain.EventType, handler func(data json.RawMessage)) string {
	return m.bus.Subscribe(eventbus.EventType(event), func(e *eventbus.Event) {
		if env, ok := e.Data.(*protocol.Envelope); ok {
			handler(env.Data)
		}
	})
}

// OnStatus registers handler for connection status changes
func (m *Manager) OnStatus(handler func(Status)) string {
	return m.bus.Subscribe(eventbus.EventConnectionStatus, func(e *eventbus.Event) {
		if status, ok := e.Data.(Status); ok {
			handler(status)
		}
	})
}

// Off removes a listener registered with On or OnStatus
func (m *Manager) Off(id string) {
	m.bus.Unsubscribe(id)
}

// Close stops reconnecting, closes the connection and waits for the manager's
// goroutines to exit.
func (m *Manager) Close() error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return nil
	}
	m.closed = true
	client := m.client
	m.mu.Unlock()

	m.cancel()

	var err error
	if client != nil {
		err = client.Close()
	}

	m.wg.Wait()
	m.bus.Stop()

	m.mu.Lock()
	m.status = StatusDisconnected
	m.mu.Unlock()

	m.logger.Info("connection manager closed")
	return err
}

func (m *Manager) run() {
	defer m.wg.Done()

	rc := newReconnector(m.options.Reconnect)

	for {
		client, err := m.dial()
		if err == nil {
			rc.reset()
			m.serve(client)
		} else if m.ctx.Err() == nil {
			m.errorHandler.Handle(m.ctx, err)
		}

		if m.ctx.Err() != nil {
			m.stopRunning()
			return
		}

		delay, ok := rc.next()
		if !ok {
			m.logger.Info("giving up reconnecting", "attempts", rc.attempts)
			m.stopRunning()
			return
		}

		// only kicks sent while waiting below may cut the backoff short
		select {
		case <-m.kick:
		default:
		}
		m.setStatus(StatusDisconnected)

		m.logger.Debug("reconnecting", "delay", delay, "attempt", rc.attempts)

		timer := time.NewTimer(delay)
		select {
		case <-m.ctx.Done():
			timer.Stop()
			m.stopRunning()
			return
		case <-m.kick:
			timer.Stop()
		case <-timer.C:
		}
	}
}

// stopRunning ends the run loop. Status and the running flag change together
// so a Connect that observes disconnected always starts a new loop.
func (m *Manager) stopRunning() {
	m.mu.Lock()
	m.running = false
	changed := m.status != StatusDisconnected
	m.status = StatusDisconnected
	m.mu.Unlock()

	if changed {
		m.publishStatus(StatusDisconnected)
	}
}

func (m *Manager) dial() (*websocket.Client, error) {
	m.setStatus(StatusConnecting)

	// a kick queued before this dial is already satisfied by it
	select {
	case <-m.kick:
	default:
	}

	token := m.currentToken()
	m.logger.Debug("dialing", "authenticated", token != "")

	return m.dialer.Dial(m.ctx, m.url, token)
}

func (m *Manager) currentToken() string {
	m.mu.RLock()
	token, tokenSet := m.token, m.tokenSet
	m.mu.RUnlock()

	if tokenSet || m.options.Tokens == nil {
		return token
	}

	token, _ = m.options.Tokens.Token()
	return token
}

// serve runs one physical connection until it drops or the manager closes
func (m *Manager) serve(client *websocket.Client) {
	client.Receive(m.frameHandler(client.ID()))

	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		client.Close()
		return
	}
	m.client = client
	m.mu.Unlock()

	client.Start()
	m.setStatus(StatusConnected)
	m.logger.Info("connected", "conn_id", client.ID())

	select {
	case <-client.Context().Done():
	case <-m.ctx.Done():
	}

	m.mu.Lock()
	m.client = nil
	m.mu.Unlock()

	client.Close()
	m.logger.Info("disconnected", "conn_id", client.ID())
}

func (m *Manager) frameHandler(connID string) func([]byte) error {
	return func(frame []byte) error {
		env, err := m.codec.Decode(frame)
		if err != nil {
			m.errorHandler.Handle(m.ctx, errors.Wrap(err, errors.ErrorTypeProtocol, "DECODE_ERROR", "dropping malformed frame").
				WithDetails(connID))
			return nil
		}

		event := eventbus.NewEvent(eventbus.EventType(env.Event), busSource, env).
			WithMetadata("envelope_id", env.ID).
			WithMetadata("conn_id", connID)
		m.bus.Publish(event)
		return nil
	}
}

func (m *Manager) trace(e *eventbus.Event) {
	m.logger.Debug("bus event", "type", e.Type, "event_id", e.ID, "metadata", e.Metadata)
}

func (m *Manager) setStatus(status Status) {
	m.mu.Lock()
	if m.status == status {
		m.mu.Unlock()
		return
	}
	m.status = status
	m.mu.Unlock()

	m.publishStatus(status)
}

func (m *Manager) publishStatus(status Status) {
	if !m.bus.PublishAsync(eventbus.NewEvent(eventbus.EventConnectionStatus, busSource, status)) {
		m.logger.Warn("status notification dropped", "status", status)
	}
}
