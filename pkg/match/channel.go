package match

import (
	"context"
	"encoding/json"
	stderrors "errors"

	"github.com/HMasataka/scoreline/internal/logging"
	"github.com/HMasataka/scoreline/pkg/domain"
	"github.com/HMasataka/scoreline/pkg/errors"
	"github.com/HMasataka/scoreline/pkg/realtime"
)

// Channel is the part of the connection manager a match consumer uses.
// Consumers only emit and listen; the connection itself is owned elsewhere.
type Channel interface {
	Emit(event domain.EventType, data any) error
	On(event domain.EventType, handler func(data json.RawMessage)) string
	Off(id string)
	IsConnected() bool
	OnStatus(handler func(realtime.Status)) string
}

var _ Channel = (*realtime.Manager)(nil)

// emitter sends fire-and-forget events. A nil channel makes it inert.
type emitter struct {
	ch           Channel
	logger       *logging.Logger
	errorHandler errors.Handler
}

func newEmitter(ch Channel, logger *logging.Logger) emitter {
	if logger == nil {
		logger = logging.Discard()
	}
	return emitter{
		ch:           ch,
		logger:       logger,
		errorHandler: errors.NewDefaultHandler(logger.Logger),
	}
}

// emit sends one event and reports whether it was handed to the channel
func (e emitter) emit(event domain.EventType, payload any) bool {
	if e.ch == nil {
		return false
	}

	err := e.ch.Emit(event, payload)
	switch {
	case err == nil:
		return true
	case stderrors.Is(err, domain.ErrNotConnected), stderrors.Is(err, domain.ErrManagerClosed):
		e.logger.Debug("dropping event without a live connection", "event", event)
	default:
		e.errorHandler.Handle(context.Background(),
			errors.Wrap(err, errors.ErrorTypeCommand, "EMIT_FAILED", "failed to emit event").WithDetails(string(event)))
	}
	return false
}
