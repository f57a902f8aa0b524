package websocket

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/HMasataka/scoreline/internal/logging"
	"github.com/HMasataka/scoreline/pkg/domain"
	"github.com/HMasataka/scoreline/pkg/errors"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func wsURL(httpURL string) string {
	return "ws" + strings.TrimPrefix(httpURL, "http")
}

func newEchoServer(t *testing.T, authHeader chan<- string) *httptest.Server {
	t.Helper()
	upgrader := websocket.Upgrader{}

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if authHeader != nil {
			authHeader <- r.Header.Get("Authorization")
		}
		if r.Header.Get("Authorization") == "Bearer denied" {
			http.Error(w, "no", http.StatusUnauthorized)
			return
		}

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		for {
			mt, msg, err := conn.ReadMessage()
			if err != nil || string(msg) == "bye" {
				return
			}
			if err := conn.WriteMessage(mt, msg); err != nil {
				return
			}
		}
	}))
	t.Cleanup(ts.Close)
	return ts
}

func TestDialSendsBearerToken(t *testing.T) {
	headers := make(chan string, 1)
	ts := newEchoServer(t, headers)

	d := NewDialer(logging.Discard(), time.Second, DefaultClientOptions())
	client, err := d.Dial(context.Background(), wsURL(ts.URL), "tok-1")
	require.NoError(t, err)
	defer client.Close()

	assert.Equal(t, "Bearer tok-1", <-headers)
	assert.NotEmpty(t, client.ID())
}

func TestClientEcho(t *testing.T) {
	ts := newEchoServer(t, nil)

	d := NewDialer(logging.Discard(), time.Second, DefaultClientOptions())
	client, err := d.Dial(context.Background(), wsURL(ts.URL), "")
	require.NoError(t, err)

	received := make(chan string, 1)
	require.NoError(t, client.Receive(func(message []byte) error {
		received <- string(message)
		return nil
	}))
	client.Start()

	require.NoError(t, client.Send(context.Background(), []byte("hello")))

	select {
	case msg := <-received:
		assert.Equal(t, "hello", msg)
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for echo")
	}

	require.NoError(t, client.Close())
	assert.ErrorIs(t, client.Send(context.Background(), []byte("late")), domain.ErrConnectionClosed)

	select {
	case <-client.Context().Done():
	default:
		t.Fatal("context should be cancelled after close")
	}
}

func TestClientContextDoneWhenServerGoesAway(t *testing.T) {
	ts := newEchoServer(t, nil)

	d := NewDialer(logging.Discard(), time.Second, DefaultClientOptions())
	client, err := d.Dial(context.Background(), wsURL(ts.URL), "")
	require.NoError(t, err)
	client.Start()
	defer client.Close()

	require.NoError(t, client.Send(context.Background(), []byte("bye")))

	select {
	case <-client.Context().Done():
	case <-time.After(2 * time.Second):
		t.Fatal("expected connection context to end")
	}
}

func TestDialUnauthorized(t *testing.T) {
	ts := newEchoServer(t, nil)

	d := NewDialer(logging.Discard(), time.Second, DefaultClientOptions())
	_, err := d.Dial(context.Background(), wsURL(ts.URL), "denied")
	require.Error(t, err)

	var e *errors.Error
	require.ErrorAs(t, err, &e)
	assert.Equal(t, errors.ErrorTypeUnauthorized, e.Type)
}

func TestDialUnreachable(t *testing.T) {
	d := NewDialer(logging.Discard(), 200*time.Millisecond, DefaultClientOptions())
	_, err := d.Dial(context.Background(), "ws://127.0.0.1:1/ws", "")
	require.Error(t, err)

	var e *errors.Error
	require.ErrorAs(t, err, &e)
	assert.Equal(t, errors.ErrorTypeTransport, e.Type)
}
