package match

import (
	"encoding/json"
	"sync"

	"github.com/HMasataka/scoreline/internal/logging"
	"github.com/HMasataka/scoreline/pkg/domain"
	"github.com/HMasataka/scoreline/pkg/realtime"
)

var stateEvents = []domain.EventType{
	domain.EventSnapshot,
	domain.EventUpdate,
	domain.EventIncrementalScore,
}

// session is one activation of an observer for a single match id
type session struct {
	id         domain.MatchID
	reconciler *Reconciler
	commands   *Commands
	listeners  []string

	mu    sync.Mutex
	alive bool
}

// Observer binds the live state of at most one match to a consumer. Changing
// the observed id leaves the old room before joining the new one, and events
// that arrive late for the old id are discarded.
type Observer struct {
	ch      Channel
	room    *Room
	referee RefereeSource
	logger  *logging.Logger

	mu       sync.Mutex
	session  *session
	statusID string

	pubMu   sync.Mutex
	updates chan domain.View
}

// NewObserver creates an idle observer. The active room is re-joined every
// time the channel reconnects, since a new connection starts in no rooms.
func NewObserver(ch Channel, referee RefereeSource, logger *logging.Logger) *Observer {
	if logger == nil {
		logger = logging.Discard()
	}
	logger = logger.WithFields(map[string]any{"component": "observer"})

	o := &Observer{
		ch:      ch,
		room:    NewRoom(ch, logger),
		referee: referee,
		logger:  logger,
		updates: make(chan domain.View, 1),
	}

	if ch != nil {
		o.statusID = ch.OnStatus(func(status realtime.Status) {
			if status == realtime.StatusConnected {
				o.rejoin()
			}
		})
	}

	return o
}

// Observe switches to id. Observing the current id does nothing and an empty
// id stops observing.
func (o *Observer) Observe(id domain.MatchID) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.session != nil && o.session.id == id {
		return
	}

	o.deactivate()

	if id.Valid() {
		o.activate(id)
	}
}

// Stop leaves the active room and clears the view
func (o *Observer) Stop() {
	o.Observe("")
}

// Close stops observing and detaches from connection status changes
func (o *Observer) Close() {
	o.Stop()
	if o.ch != nil && o.statusID != "" {
		o.ch.Off(o.statusID)
	}
}

// MatchID returns the observed match id, empty when idle
func (o *Observer) MatchID() domain.MatchID {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.session == nil {
		return ""
	}
	return o.session.id
}

// View returns the reconciled state. An idle observer is neither loading nor
// holding data.
func (o *Observer) View() domain.View {
	o.mu.Lock()
	s := o.session
	o.mu.Unlock()

	if s == nil {
		return domain.View{}
	}
	return s.reconciler.View()
}

// Updates delivers the latest view after every change, including switches and
// stops. Intermediate views may be skipped by a slow reader.
func (o *Observer) Updates() <-chan domain.View {
	return o.updates
}

// Commands returns the command set of the observed match. It is nil when idle;
// a nil Commands drops every operation.
func (o *Observer) Commands() *Commands {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.session == nil {
		return nil
	}
	return o.session.commands
}

func (o *Observer) activate(id domain.MatchID) {
	logger := o.logger.WithFields(map[string]any{"match_id": id})

	s := &session{
		id:         id,
		reconciler: NewReconciler(logger),
		commands:   NewCommands(o.ch, id, o.referee, logger),
		alive:      true,
	}

	if o.ch != nil {
		for _, event := range stateEvents {
			s.listeners = append(s.listeners, o.ch.On(event, o.handler(s, event)))
		}
	}

	o.session = s
	o.publish(s.reconciler.View())
	o.room.Join(id)

	logger.Info("observing match")
}

// deactivate detaches listeners before leaving, so nothing for the old id is
// applied once leave has been emitted. Callers hold o.mu.
func (o *Observer) deactivate() {
	s := o.session
	if s == nil {
		return
	}

	if o.ch != nil {
		for _, id := range s.listeners {
			o.ch.Off(id)
		}
	}

	// waits for a handler already running for this session
	s.mu.Lock()
	s.alive = false
	s.mu.Unlock()

	o.room.Leave(s.id)
	o.session = nil
	o.publish(domain.View{})

	o.logger.Info("stopped observing match", "match_id", s.id)
}

func (o *Observer) handler(s *session, event domain.EventType) func(json.RawMessage) {
	return func(data json.RawMessage) {
		in, ok := InboundFor(event, data)
		if !ok {
			return
		}

		s.mu.Lock()
		defer s.mu.Unlock()

		if !s.alive {
			return
		}
		if s.reconciler.Apply(in) {
			o.publish(s.reconciler.View())
		}
	}
}

func (o *Observer) rejoin() {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.session == nil {
		return
	}

	o.logger.Info("rejoining match after reconnect", "match_id", o.session.id)
	o.room.Join(o.session.id)
}

func (o *Observer) publish(view domain.View) {
	o.pubMu.Lock()
	defer o.pubMu.Unlock()

	select {
	case <-o.updates:
	default:
	}
	o.updates <- view
}
