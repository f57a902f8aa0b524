package match

import (
	"encoding/json"
	"sync"

	"github.com/HMasataka/scoreline/internal/logging"
	"github.com/HMasataka/scoreline/pkg/domain"
)

// Kind classifies an inbound state event by how it is merged
type Kind int

const (
	// KindSnapshot is an authoritative full resync, applied unconditionally
	KindSnapshot Kind = iota
	// KindVersionedUpdate is applied only when its version is not older than
	// the last versioned state
	KindVersionedUpdate
	// KindFastUpdate is the low-latency score path, applied unconditionally
	// without touching the version gate
	KindFastUpdate
)

func (k Kind) String() string {
	switch k {
	case KindSnapshot:
		return "snapshot"
	case KindVersionedUpdate:
		return "versioned_update"
	case KindFastUpdate:
		return "fast_update"
	default:
		return "unknown"
	}
}

// Inbound is one state event received from the push channel
type Inbound struct {
	Kind    Kind
	Payload json.RawMessage
}

// Snapshot is a full state that bypasses the version gate
func Snapshot(payload json.RawMessage) Inbound {
	return Inbound{Kind: KindSnapshot, Payload: payload}
}

// VersionedUpdate accepts both a full document and a {"data": document}
// wrapper.
func VersionedUpdate(event json.RawMessage) Inbound {
	return Inbound{Kind: KindVersionedUpdate, Payload: domain.UnwrapUpdate(event)}
}

// FastUpdate replaces the displayed state without a version check
func FastUpdate(payload json.RawMessage) Inbound {
	return Inbound{Kind: KindFastUpdate, Payload: payload}
}

// InboundFor maps a channel event to its merge kind
func InboundFor(event domain.EventType, data json.RawMessage) (Inbound, bool) {
	switch event {
	case domain.EventSnapshot:
		return Snapshot(data), true
	case domain.EventUpdate:
		return VersionedUpdate(data), true
	case domain.EventIncrementalScore:
		return FastUpdate(data), true
	default:
		return Inbound{}, false
	}
}

// Reconciler merges inbound events into the current state of one match.
//
// The version gate compares against the last versioned state, i.e. the last
// snapshot or accepted update. Fast updates replace the displayed state but do
// not move the gate, so an update older than a preceding fast update is still
// accepted when it is not older than the last versioned state.
type Reconciler struct {
	logger *logging.Logger

	mu          sync.Mutex
	state       *domain.MatchState
	baseline    int64
	hasBaseline bool
	updates     chan domain.View
}

// NewReconciler returns a reconciler in the loading state
func NewReconciler(logger *logging.Logger) *Reconciler {
	if logger == nil {
		logger = logging.Discard()
	}
	return &Reconciler{
		logger:  logger,
		updates: make(chan domain.View, 1),
	}
}

// Apply merges in and reports whether the state was replaced
func (r *Reconciler) Apply(in Inbound) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	next := domain.NewMatchState(in.Payload)

	switch in.Kind {
	case KindSnapshot:
		r.baseline, r.hasBaseline = next.Version, true

	case KindVersionedUpdate:
		if r.hasBaseline && next.Version < r.baseline {
			r.logger.Debug("dropping stale update", "version", next.Version, "current", r.baseline)
			return false
		}
		r.baseline, r.hasBaseline = next.Version, true

	case KindFastUpdate:

	default:
		return false
	}

	r.state = &next
	r.notify()
	return true
}

// View returns the current state. It is loading until the first event lands.
func (r *Reconciler) View() domain.View {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.view()
}

// Updates delivers the latest view after every change. Intermediate views may
// be skipped by a slow reader.
func (r *Reconciler) Updates() <-chan domain.View {
	return r.updates
}

// Reset drops the current state and returns to loading
func (r *Reconciler) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.state = nil
	r.baseline, r.hasBaseline = 0, false
	r.notify()
}

func (r *Reconciler) view() domain.View {
	if r.state == nil {
		return domain.View{Loading: true}
	}
	state := *r.state
	return domain.View{Data: &state}
}

// notify replaces any unread view with the current one. Callers hold r.mu.
func (r *Reconciler) notify() {
	select {
	case <-r.updates:
	default:
	}
	r.updates <- r.view()
}
