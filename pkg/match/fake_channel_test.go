package match

import (
	"encoding/json"
	"strconv"
	"sync"

	"github.com/HMasataka/scoreline/pkg/domain"
	"github.com/HMasataka/scoreline/pkg/realtime"
)

type emission struct {
	Event   domain.EventType
	Payload json.RawMessage
}

type listener struct {
	event   domain.EventType
	handler func(json.RawMessage)
}

// fakeChannel records emissions and lets tests push inbound events
type fakeChannel struct {
	mu        sync.Mutex
	connected bool
	emitted   []emission
	listeners map[string]listener
	statuses  map[string]func(realtime.Status)
	next      int
}

func newFakeChannel(connected bool) *fakeChannel {
	return &fakeChannel{
		connected: connected,
		listeners: make(map[string]listener),
		statuses:  make(map[string]func(realtime.Status)),
	}
}

func (c *fakeChannel) Emit(event domain.EventType, data any) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.connected {
		return domain.ErrNotConnected
	}

	payload, err := json.Marshal(data)
	if err != nil {
		return err
	}
	c.emitted = append(c.emitted, emission{Event: event, Payload: payload})
	return nil
}

func (c *fakeChannel) On(event domain.EventType, handler func(json.RawMessage)) string {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.next++
	id := "l" + strconv.Itoa(c.next)
	c.listeners[id] = listener{event: event, handler: handler}
	return id
}

func (c *fakeChannel) Off(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.listeners, id)
	delete(c.statuses, id)
}

func (c *fakeChannel) IsConnected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.connected
}

func (c *fakeChannel) OnStatus(handler func(realtime.Status)) string {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.next++
	id := "s" + strconv.Itoa(c.next)
	c.statuses[id] = handler
	return id
}

// handlers returns the handlers currently registered for event
func (c *fakeChannel) handlers(event domain.EventType) []func(json.RawMessage) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var hs []func(json.RawMessage)
	for _, l := range c.listeners {
		if l.event == event {
			hs = append(hs, l.handler)
		}
	}
	return hs
}

func (c *fakeChannel) deliver(event domain.EventType, data string) {
	for _, h := range c.handlers(event) {
		h(json.RawMessage(data))
	}
}

func (c *fakeChannel) setStatus(status realtime.Status) {
	c.mu.Lock()
	c.connected = status == realtime.StatusConnected
	hs := make([]func(realtime.Status), 0, len(c.statuses))
	for _, h := range c.statuses {
		hs = append(hs, h)
	}
	c.mu.Unlock()

	for _, h := range hs {
		h(status)
	}
}

func (c *fakeChannel) listenerCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.listeners)
}

func (c *fakeChannel) emissions() []emission {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]emission(nil), c.emitted...)
}

func (c *fakeChannel) events() []domain.EventType {
	var out []domain.EventType
	for _, e := range c.emissions() {
		out = append(out, e.Event)
	}
	return out
}

func (c *fakeChannel) reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.emitted = nil
}

type staticReferee string

func (r staticReferee) RefereeID() string { return string(r) }
