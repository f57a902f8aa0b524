package match

import (
	"github.com/HMasataka/scoreline/internal/logging"
	"github.com/HMasataka/scoreline/pkg/domain"
)

// Room joins and leaves the server-side room of a match. It keeps no join
// count; joining the same match twice is safe.
type Room struct {
	emitter
}

// NewRoom returns a Room that emits on ch
func NewRoom(ch Channel, logger *logging.Logger) *Room {
	return &Room{emitter: newEmitter(ch, logger)}
}

// Join enters the room of id and asks for a full snapshot. An empty id is
// skipped.
func (r *Room) Join(id domain.MatchID) {
	if !id.Valid() {
		return
	}

	req := domain.RoomRequest{MatchID: id.String()}
	r.emit(domain.EventJoin, req)
	r.emit(domain.EventSnapshotRequest, req)
	r.logger.Debug("joined match room", "match_id", id)
}

// Leave exits the room of id. An empty id is skipped.
func (r *Room) Leave(id domain.MatchID) {
	if !id.Valid() {
		return
	}

	r.emit(domain.EventLeave, domain.RoomRequest{MatchID: id.String()})
	r.logger.Debug("left match room", "match_id", id)
}
