package eventbus

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPublishDeliversByType(t *testing.T) {
	bus := NewInMemoryBus(8)

	var snapshots, all int
	bus.Subscribe("snapshot", func(*Event) { snapshots++ })
	bus.SubscribeAll(func(*Event) { all++ })

	bus.Publish(NewEvent("snapshot", "test", nil))
	bus.Publish(NewEvent("update", "test", nil))

	assert.Equal(t, 1, snapshots)
	assert.Equal(t, 2, all)
}

func TestUnsubscribe(t *testing.T) {
	bus := NewInMemoryBus(8)

	var calls int
	id := bus.Subscribe("update", func(*Event) { calls++ })
	allID := bus.SubscribeAll(func(*Event) { calls++ })

	bus.Unsubscribe(id)
	bus.Unsubscribe(allID)
	bus.Publish(NewEvent("update", "test", nil))

	assert.Zero(t, calls)
}

func TestHandlerMayUnsubscribeDuringPublish(t *testing.T) {
	bus := NewInMemoryBus(8)

	var id string
	var calls int
	id = bus.Subscribe("update", func(*Event) {
		calls++
		bus.Unsubscribe(id)
	})

	bus.Publish(NewEvent("update", "test", nil))
	bus.Publish(NewEvent("update", "test", nil))

	assert.Equal(t, 1, calls)
}

func TestPublishAsync(t *testing.T) {
	bus := NewInMemoryBus(8)
	bus.Start(context.Background())
	defer bus.Stop()

	got := make(chan *Event, 1)
	bus.Subscribe(EventConnectionStatus, func(e *Event) { got <- e })

	require.True(t, bus.PublishAsync(NewEvent(EventConnectionStatus, "test", "conn-1")))

	select {
	case e := <-got:
		assert.Equal(t, "conn-1", e.Data)
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for async event")
	}
}

func TestPublishAsyncDropsWhenFull(t *testing.T) {
	bus := NewInMemoryBus(1)

	assert.True(t, bus.PublishAsync(NewEvent("a", "test", nil)))
	assert.False(t, bus.PublishAsync(NewEvent("b", "test", nil)))
	assert.Equal(t, int64(1), bus.Dropped())
}

func TestStopHaltsWorker(t *testing.T) {
	bus := NewInMemoryBus(4)
	bus.Start(context.Background())

	var calls atomic.Int32
	bus.SubscribeAll(func(*Event) { calls.Add(1) })
	bus.Stop()

	bus.PublishAsync(NewEvent("late", "test", nil))
	time.Sleep(50 * time.Millisecond)
	assert.Zero(t, calls.Load())
}

func TestEventMetadata(t *testing.T) {
	e := NewEvent("snapshot", "test", nil).WithMetadata("match_id", "m1")
	assert.Equal(t, "m1", e.Metadata["match_id"])
	assert.NotEmpty(t, e.ID)
}
