package websocket

import (
	"context"
	"net/http"
	"time"

	"github.com/HMasataka/scoreline/internal/logging"
	"github.com/HMasataka/scoreline/pkg/errors"
	"github.com/gorilla/websocket"
	"github.com/rs/xid"
)

// Dialer opens push channel connections
type Dialer struct {
	dialer  *websocket.Dialer
	logger  *logging.Logger
	options ClientOptions
}

// NewDialer creates a dialer. A zero handshakeTimeout uses the gorilla default.
func NewDialer(logger *logging.Logger, handshakeTimeout time.Duration, options ClientOptions) *Dialer {
	d := *websocket.DefaultDialer
	if handshakeTimeout > 0 {
		d.HandshakeTimeout = handshakeTimeout
	}

	return &Dialer{
		dialer:  &d,
		logger:  logger,
		options: options,
	}
}

// Dial connects to rawURL, authenticating with token when it is not empty.
// The returned client is not started.
func (d *Dialer) Dial(ctx context.Context, rawURL, token string) (*Client, error) {
	header := http.Header{}
	if token != "" {
		header.Set("Authorization", "Bearer "+token)
	}

	conn, resp, err := d.dialer.DialContext(ctx, rawURL, header)
	if err != nil {
		if resp != nil && (resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden) {
			return nil, errors.Wrap(err, errors.ErrorTypeUnauthorized, "HANDSHAKE_REJECTED", "server rejected credential").
				WithDetails(resp.Status)
		}
		return nil, errors.Wrap(err, errors.ErrorTypeTransport, "DIAL_ERROR", "failed to connect to server")
	}

	options := d.options
	id := options.ID
	if id == "" {
		id = xid.New().String()
	}

	return NewClient(id, conn, d.logger, options), nil
}
