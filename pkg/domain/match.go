package domain

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// MatchID identifies a match. The zero value means no active subscription.
type MatchID string

// Valid reports whether the id can be joined.
func (id MatchID) Valid() bool {
	return id != ""
}

func (id MatchID) String() string {
	return string(id)
}

// ParseMatchID trims s and rejects an id that is empty afterwards
func ParseMatchID(s string) (MatchID, error) {
	id := MatchID(strings.TrimSpace(s))
	if !id.Valid() {
		return "", ErrEmptyMatchID
	}
	return id, nil
}

// MatchState is the authoritative view of one match. Payload is the full match
// document as sent by the server and is never interpreted beyond its version.
type MatchState struct {
	Version int64           `json:"version"`
	Payload json.RawMessage `json:"payload"`
}

// NewMatchState builds a state from a raw match document.
func NewMatchState(payload json.RawMessage) MatchState {
	return MatchState{
		Version: VersionOf(payload),
		Payload: bytes.Clone(payload),
	}
}

// View is the tuple handed to presentation code.
type View struct {
	Loading bool        `json:"loading"`
	Data    *MatchState `json:"data"`
}

// VersionOf extracts the "version" field of a match document. Missing, null,
// negative or unparseable versions count as 0.
func VersionOf(payload json.RawMessage) int64 {
	var probe struct {
		Version json.RawMessage `json:"version"`
	}
	if err := json.Unmarshal(payload, &probe); err != nil {
		return 0
	}

	raw := bytes.TrimSpace(probe.Version)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return 0
	}

	// some servers quote numeric fields
	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return 0
		}
		raw = []byte(s)
	}

	if v, err := strconv.ParseInt(string(raw), 10, 64); err == nil {
		return max(v, 0)
	}

	f, err := strconv.ParseFloat(string(raw), 64)
	if err != nil || math.IsNaN(f) || f < 0 {
		return 0
	}
	if f > math.MaxInt64 {
		return math.MaxInt64
	}
	return int64(f)
}

// UnwrapUpdate returns the inner "data" document of a delta wrapper, or the
// event itself when no such field is present.
func UnwrapUpdate(event json.RawMessage) json.RawMessage {
	var wrapper map[string]json.RawMessage
	if err := json.Unmarshal(event, &wrapper); err != nil {
		return event
	}

	inner, ok := wrapper["data"]
	if !ok {
		return event
	}

	inner = bytes.TrimSpace(inner)
	if len(inner) == 0 || bytes.Equal(inner, []byte("null")) {
		return event
	}

	return inner
}
