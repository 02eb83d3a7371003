package core

import (
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/codestreamer/backend/internal/domain"
)

// JoinStatus tags the outcome of Registry.JoinRoom.
type JoinStatus int

const (
	JoinOK JoinStatus = iota
	JoinNotFound
	JoinAlreadyMember
	JoinFull
	JoinInAnotherRoom
)

// JoinResult carries the room snapshot on JoinOK and JoinAlreadyMember so
// the caller can notify without a second lookup.
type JoinResult struct {
	Status JoinStatus
	Room   domain.Room
	Role   domain.Role
}

// LeaveResult reports who left which room and who is still there.
type LeaveResult struct {
	SessionID string
	Removed   domain.Participant
	Remaining []domain.Participant
}

// RoomInfo is a read-only view for APIs (no participant handles).
type RoomInfo struct {
	SessionID    string `json:"sessionId"`
	Participants int    `json:"participants"`
}

const sessionIDLen = 8

// Registry owns every live room. All mutation goes through it under a
// single lock, so join's capacity check and leave's empty-room deletion
// are each one critical section. A reverse index keeps disconnect lookup
// O(1) instead of scanning rooms.
type Registry struct {
	mu     sync.RWMutex
	rooms  map[string]*domain.Room
	byConn map[domain.ConnID]string
}

func NewRegistry() *Registry {
	return &Registry{
		rooms:  make(map[string]*domain.Room),
		byConn: make(map[domain.ConnID]string),
	}
}

// newSessionIDLocked draws a short token from a fresh UUID, retrying on
// collision with a live session. Caller must hold mu.
func (r *Registry) newSessionIDLocked() string {
	for {
		id := uuid.NewString()[:sessionIDLen]
		if _, taken := r.rooms[id]; !taken {
			return id
		}
		log.Warn().Str("module", "core.registry").Str("session", id).Msg("session id collision, retrying")
	}
}

// CreateRoom inserts a room holding only the creator as interviewer.
// It cannot fail. The creator must not be a member of any room; the
// coordinator runs the leave path first when it is.
func (r *Registry) CreateRoom(creator domain.ConnID) domain.Room {
	r.mu.Lock()
	defer r.mu.Unlock()

	id := r.newSessionIDLocked()
	room := &domain.Room{
		ID:           id,
		Participants: []domain.Participant{{ID: creator, Role: domain.RoleInterviewer}},
	}
	r.rooms[id] = room
	r.byConn[creator] = id
	log.Info().Str("module", "core.registry").Str("session", id).Str("conn", string(creator)).Int("total_rooms", len(r.rooms)).Msg("room created")
	return room.Clone()
}

// JoinRoom admits the joiner into the interviewee slot. A room never
// gains a second interviewer.
func (r *Registry) JoinRoom(sessionID string, joiner domain.ConnID) JoinResult {
	r.mu.Lock()
	defer r.mu.Unlock()

	room, ok := r.rooms[sessionID]
	if !ok {
		return JoinResult{Status: JoinNotFound}
	}
	if room.HasParticipant(joiner) {
		log.Info().Str("module", "core.registry").Str("session", sessionID).Str("conn", string(joiner)).Msg("already in session")
		return JoinResult{Status: JoinAlreadyMember, Room: room.Clone()}
	}
	if _, busy := r.byConn[joiner]; busy {
		return JoinResult{Status: JoinInAnotherRoom}
	}
	// Two independent checks so the rule survives a capacity change.
	if len(room.Participants) >= domain.Capacity || room.IntervieweeTaken() {
		return JoinResult{Status: JoinFull}
	}

	room.Participants = append(room.Participants, domain.Participant{ID: joiner, Role: domain.RoleInterviewee})
	r.byConn[joiner] = sessionID
	log.Info().Str("module", "core.registry").Str("session", sessionID).Str("conn", string(joiner)).Int("participants", len(room.Participants)).Msg("joined as interviewee")
	return JoinResult{Status: JoinOK, Room: room.Clone(), Role: domain.RoleInterviewee}
}

// LeaveRoom removes the participant owning conn from its room, deleting
// the room in the same critical section when it empties. Reports false
// when the handle is in no room.
func (r *Registry) LeaveRoom(conn domain.ConnID) (LeaveResult, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	sessionID, ok := r.byConn[conn]
	if !ok {
		return LeaveResult{}, false
	}
	room := r.rooms[sessionID]
	delete(r.byConn, conn)

	var removed domain.Participant
	kept := room.Participants[:0]
	for _, p := range room.Participants {
		if p.ID == conn {
			removed = p
			continue
		}
		kept = append(kept, p)
	}
	room.Participants = kept

	log.Info().Str("module", "core.registry").Str("session", sessionID).Str("conn", string(conn)).Str("role", string(removed.Role)).Int("remaining", len(kept)).Msg("participant removed")
	if len(room.Participants) == 0 {
		delete(r.rooms, sessionID)
		log.Info().Str("module", "core.registry").Str("session", sessionID).Int("total_rooms", len(r.rooms)).Msg("room empty, deleted")
	}

	remaining := make([]domain.Participant, len(room.Participants))
	copy(remaining, room.Participants)
	return LeaveResult{SessionID: sessionID, Removed: removed, Remaining: remaining}, true
}

// RoomByID is a pure snapshot lookup.
func (r *Registry) RoomByID(sessionID string) (domain.Room, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	room, ok := r.rooms[sessionID]
	if !ok {
		return domain.Room{}, false
	}
	return room.Clone(), true
}

// Rooms lists live rooms for debugging or admin purposes.
func (r *Registry) Rooms() []RoomInfo {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]RoomInfo, 0, len(r.rooms))
	for id, room := range r.rooms {
		out = append(out, RoomInfo{SessionID: id, Participants: len(room.Participants)})
	}
	return out
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.rooms)
}
