package domain

// EventType is the name of an event carried on the push channel
type EventType string

// Inbound events, scoped to a joined match room
const (
	EventSnapshot         EventType = "snapshot"
	EventUpdate           EventType = "update"
	EventIncrementalScore EventType = "incremental-score"
)

// Outbound events
const (
	EventJoin            EventType = "join"
	EventLeave           EventType = "leave"
	EventSnapshotRequest EventType = "snapshot-request"
	EventStart           EventType = "start"
	EventPoint           EventType = "point"
	EventUndo            EventType = "undo"
	EventFinish          EventType = "finish"
	EventForfeit         EventType = "forfeit"
	EventRulesChange     EventType = "rules-change"
	EventCourtAssign     EventType = "court-assign"
	EventSchedule        EventType = "schedule"
)

// DefaultForfeitReason is sent when a forfeit carries no reason
const DefaultForfeitReason = "forfeit"

// RoomRequest is the payload of join, leave, snapshot-request and undo
type RoomRequest struct {
	MatchID string `json:"matchId"`
}

type StartCommand struct {
	MatchID   string `json:"matchId"`
	RefereeID string `json:"refereeId"`
}

type PointCommand struct {
	MatchID string `json:"matchId"`
	Team    string `json:"team"`
	Step    int    `json:"step"`
}

type FinishCommand struct {
	MatchID string `json:"matchId"`
	Winner  string `json:"winner"`
}

type ForfeitCommand struct {
	MatchID string `json:"matchId"`
	Winner  string `json:"winner"`
	Reason  string `json:"reason"`
}

type RulesCommand struct {
	MatchID string `json:"matchId"`
	Rules   any    `json:"rules"`
}

type CourtCommand struct {
	MatchID string `json:"matchId"`
	CourtID string `json:"courtId"`
}

// ScheduleCommand carries an ISO-8601 timestamp in UTC
type ScheduleCommand struct {
	MatchID     string `json:"matchId"`
	ScheduledAt string `json:"scheduledAt"`
}
