package match

import (
	"time"

	"github.com/HMasataka/scoreline/internal/logging"
	"github.com/HMasataka/scoreline/pkg/domain"
)

// RefereeSource names the operator issuing commands
type RefereeSource interface {
	RefereeID() string
}

// Commands sends operator intents for one match. Every operation emits at most
// one event and returns immediately; the resulting state arrives through the
// push channel. Operations are dropped when there is no live connection or no
// match id.
type Commands struct {
	emitter
	matchID domain.MatchID
	referee RefereeSource
}

// NewCommands binds command emission to matchID. A nil referee sends start
// without a referee id.
func NewCommands(ch Channel, matchID domain.MatchID, referee RefereeSource, logger *logging.Logger) *Commands {
	return &Commands{
		emitter: newEmitter(ch, logger),
		matchID: matchID,
		referee: referee,
	}
}

// MatchID returns the match the commands target
func (c *Commands) MatchID() domain.MatchID {
	if c == nil {
		return ""
	}
	return c.matchID
}

// Start begins the match, naming the referee when one is known
func (c *Commands) Start() bool {
	var refereeID string
	if c != nil && c.referee != nil {
		refereeID = c.referee.RefereeID()
	}
	return c.send(domain.EventStart, domain.StartCommand{MatchID: c.MatchID().String(), RefereeID: refereeID})
}

// PointFor adds step points to team; step defaults to 1 and may be negative
// to take points away.
func (c *Commands) PointFor(team string, step ...int) bool {
	n := 1
	if len(step) > 0 {
		n = step[0]
	}
	return c.send(domain.EventPoint, domain.PointCommand{MatchID: c.MatchID().String(), Team: team, Step: n})
}

// Undo reverts the last scoring action
func (c *Commands) Undo() bool {
	return c.send(domain.EventUndo, domain.RoomRequest{MatchID: c.MatchID().String()})
}

// Finish ends the match with winner
func (c *Commands) Finish(winner string) bool {
	return c.send(domain.EventFinish, domain.FinishCommand{MatchID: c.MatchID().String(), Winner: winner})
}

// Forfeit ends the match in favour of winner. An empty reason is sent as
// domain.DefaultForfeitReason.
func (c *Commands) Forfeit(winner, reason string) bool {
	if reason == "" {
		reason = domain.DefaultForfeitReason
	}
	return c.send(domain.EventForfeit, domain.ForfeitCommand{MatchID: c.MatchID().String(), Winner: winner, Reason: reason})
}

// SetRules replaces the match rules. rules is sent as given.
func (c *Commands) SetRules(rules any) bool {
	return c.send(domain.EventRulesChange, domain.RulesCommand{MatchID: c.MatchID().String(), Rules: rules})
}

// AssignCourt moves the match to courtID
func (c *Commands) AssignCourt(courtID string) bool {
	return c.send(domain.EventCourtAssign, domain.CourtCommand{MatchID: c.MatchID().String(), CourtID: courtID})
}

// ScheduleAt schedules the match. The time is sent as RFC 3339 in UTC.
func (c *Commands) ScheduleAt(at time.Time) bool {
	return c.send(domain.EventSchedule, domain.ScheduleCommand{
		MatchID:     c.MatchID().String(),
		ScheduledAt: at.UTC().Format(time.RFC3339),
	})
}

func (c *Commands) send(event domain.EventType, payload any) bool {
	if c == nil || !c.matchID.Valid() || c.ch == nil || !c.ch.IsConnected() {
		return false
	}
	return c.emit(event, payload)
}
