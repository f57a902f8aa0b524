package match

import (
	"testing"
	"time"

	"github.com/HMasataka/scoreline/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCommandPayloads(t *testing.T) {
	at := time.Date(2026, 3, 14, 18, 30, 0, 0, time.FixedZone("JST", 9*60*60))

	tests := []struct {
		name  string
		run   func(c *Commands) bool
		event domain.EventType
		want  string
	}{
		{"start", func(c *Commands) bool { return c.Start() }, domain.EventStart, `{"matchId":"m1","refereeId":"ref-7"}`},
		{"point default step", func(c *Commands) bool { return c.PointFor("A") }, domain.EventPoint, `{"matchId":"m1","team":"A","step":1}`},
		{"point decrement", func(c *Commands) bool { return c.PointFor("B", -1) }, domain.EventPoint, `{"matchId":"m1","team":"B","step":-1}`},
		{"undo", func(c *Commands) bool { return c.Undo() }, domain.EventUndo, `{"matchId":"m1"}`},
		{"finish", func(c *Commands) bool { return c.Finish("A") }, domain.EventFinish, `{"matchId":"m1","winner":"A"}`},
		{"forfeit default reason", func(c *Commands) bool { return c.Forfeit("B", "") }, domain.EventForfeit, `{"matchId":"m1","winner":"B","reason":"forfeit"}`},
		{"forfeit reason", func(c *Commands) bool { return c.Forfeit("B", "injury") }, domain.EventForfeit, `{"matchId":"m1","winner":"B","reason":"injury"}`},
		{"rules", func(c *Commands) bool { return c.SetRules(map[string]int{"sets": 3}) }, domain.EventRulesChange, `{"matchId":"m1","rules":{"sets":3}}`},
		{"court", func(c *Commands) bool { return c.AssignCourt("c2") }, domain.EventCourtAssign, `{"matchId":"m1","courtId":"c2"}`},
		{"schedule", func(c *Commands) bool { return c.ScheduleAt(at) }, domain.EventSchedule, `{"matchId":"m1","scheduledAt":"2026-03-14T09:30:00Z"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ch := newFakeChannel(true)
			c := NewCommands(ch, "m1", staticReferee("ref-7"), nil)

			assert.True(t, tt.run(c))

			got := ch.emissions()
			require.Len(t, got, 1)
			assert.Equal(t, tt.event, got[0].Event)
			assert.JSONEq(t, tt.want, string(got[0].Payload))
		})
	}
}

func TestPointForLeavesStateUntouched(t *testing.T) {
	ch := newFakeChannel(true)
	o := NewObserver(ch, nil, nil)
	o.Observe("m1")
	ch.deliver(domain.EventSnapshot, `{"version":5,"score":{"A":3,"B":2}}`)
	before := o.View()
	ch.reset()

	o.Commands().PointFor("A", 1)

	got := ch.emissions()
	require.Len(t, got, 1)
	assert.Equal(t, domain.EventPoint, got[0].Event)
	assert.JSONEq(t, `{"matchId":"m1","team":"A","step":1}`, string(got[0].Payload))
	assert.Equal(t, before, o.View())
}

func TestCommandsWhileDisconnected(t *testing.T) {
	ch := newFakeChannel(false)
	o := NewObserver(ch, nil, nil)
	o.Observe("m1")
	ch.deliver(domain.EventSnapshot, `{"version":5}`)
	before := o.View()

	c := o.Commands()
	assert.NotPanics(t, func() {
		assert.False(t, c.Start())
		assert.False(t, c.PointFor("A"))
		assert.False(t, c.Undo())
		assert.False(t, c.Finish("A"))
		assert.False(t, c.Forfeit("A", ""))
		assert.False(t, c.SetRules(nil))
		assert.False(t, c.AssignCourt("c1"))
		assert.False(t, c.ScheduleAt(time.Now()))
	})

	assert.Empty(t, ch.emissions())
	assert.Equal(t, before, o.View())
}

func TestCommandsWithoutChannelOrMatch(t *testing.T) {
	var nilCommands *Commands
	assert.NotPanics(t, func() {
		assert.False(t, nilCommands.PointFor("A"))
		assert.False(t, nilCommands.Start())
		assert.Empty(t, nilCommands.MatchID())
	})

	noChannel := NewCommands(nil, "m1", nil, nil)
	assert.False(t, noChannel.Undo())

	ch := newFakeChannel(true)
	noMatch := NewCommands(ch, "", nil, nil)
	assert.False(t, noMatch.Finish("A"))
	assert.Empty(t, ch.emissions())
}

func TestStartWithoutRefereeSource(t *testing.T) {
	ch := newFakeChannel(true)
	c := NewCommands(ch, "m1", nil, nil)

	require.True(t, c.Start())
	assert.JSONEq(t, `{"matchId":"m1","refereeId":""}`, string(ch.emissions()[0].Payload))
}
