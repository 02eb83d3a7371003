package app

import (
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/codestreamer/backend/internal/core"
	"github.com/codestreamer/backend/internal/domain"
)

// User-facing failure messages for join outcomes.
const (
	msgSessionNotFound  = "Session not found."
	msgSessionFull      = "Session is full or interviewee slot taken."
	msgAlreadyMember    = "You are already in this session."
	msgAlreadyElsewhere = "You are already in another session."
)

// Coordinator translates connection events into registry calls and
// registry results into notifications. It keeps no authoritative state:
// after each call it reflects the result outward and forgets it.
type Coordinator struct {
	Registry *core.Registry
	Hub      *Hub
}

func NewCoordinator(registry *core.Registry, hub *Hub) *Coordinator {
	return &Coordinator{Registry: registry, Hub: hub}
}

// Connect hands the live connection to the hub so later results can be
// addressed to it.
func (c *Coordinator) Connect(id domain.ConnID, conn core.SignalConnection) {
	c.Hub.Register(id, conn)
}

// CreateSession opens a fresh room with the requester as interviewer.
// A connection holds at most one membership, so creating while in a room
// runs the normal leave path first, old-room notifications included.
func (c *Coordinator) CreateSession(id domain.ConnID) {
	c.leaveCurrent(id)
	room := c.Registry.CreateRoom(id)
	c.Hub.Subscribe(id, room.ID)
	c.Hub.SendTo(id, SessionEvent{
		Type:      EventSessionCreated,
		SessionID: room.ID,
		Role:      domain.RoleInterviewer,
		RoomID:    room.ID,
	})
	log.Info().Str("module", "app.coordinator").Str("session", room.ID).Str("conn", string(id)).Msg("session created")
}

// JoinSession admits the requester as interviewee or reports why not.
func (c *Coordinator) JoinSession(id domain.ConnID, sessionID string) {
	res := c.Registry.JoinRoom(sessionID, id)
	switch res.Status {
	case core.JoinOK:
		c.Hub.Subscribe(id, res.Room.ID)
		c.Hub.SendTo(id, SessionEvent{
			Type:      EventSessionJoined,
			SessionID: res.Room.ID,
			Role:      res.Role,
			RoomID:    res.Room.ID,
		})
		if interviewer, ok := res.Room.Interviewer(); ok && interviewer.ID != id {
			c.Hub.SendTo(interviewer.ID, ParticipantEvent{
				Type:          EventParticipantJoined,
				ParticipantID: id,
				Role:          res.Role,
			})
		}
		log.Info().Str("module", "app.coordinator").Str("session", res.Room.ID).Str("conn", string(id)).Msg("session joined")
	case core.JoinNotFound:
		c.Hub.SendTo(id, NewSessionError(msgSessionNotFound))
	case core.JoinFull:
		c.Hub.SendTo(id, NewSessionError(msgSessionFull))
	case core.JoinAlreadyMember:
		// Benign duplicate: no mutation happened, so no participant-joined.
		c.Hub.SendTo(id, NewSessionError(msgAlreadyMember))
	case core.JoinInAnotherRoom:
		c.Hub.SendTo(id, NewSessionError(msgAlreadyElsewhere))
	}
}

// Disconnect reconciles registry state with the vanished connection.
func (c *Coordinator) Disconnect(id domain.ConnID) {
	c.leaveCurrent(id)
	c.Hub.Unregister(id)
}

func (c *Coordinator) leaveCurrent(id domain.ConnID) {
	res, ok := c.Registry.LeaveRoom(id)
	if !ok {
		return
	}
	c.Hub.Unsubscribe(id, res.SessionID)
	if len(res.Remaining) > 0 {
		c.Hub.Broadcast(res.SessionID, ParticipantEvent{
			Type:          EventParticipantLeft,
			ParticipantID: id,
			Role:          res.Removed.Role,
		})
	}
	log.Info().Str("module", "app.coordinator").Str("session", res.SessionID).Str("conn", string(id)).Int("remaining", len(res.Remaining)).Msg("participant left")
}

// Relay fans a room-scoped message out to the sender's scope, or echoes
// a notice back when the sender has no room.
func (c *Coordinator) Relay(id domain.ConnID, message, roomID string) {
	scope := roomID
	if scope == "" {
		scope, _ = c.Hub.ScopeOf(id)
	}
	ts := time.Now().UTC().Format(time.RFC3339)
	if scope == "" {
		c.Hub.SendTo(id, ServerMessage{
			Type:      EventServerMessage,
			Message:   fmt.Sprintf("Server received your message: %q, but no target room found.", message),
			Timestamp: ts,
		})
		return
	}
	c.Hub.Broadcast(scope, ServerMessage{
		Type:      EventServerMessage,
		SenderID:  id,
		Message:   message,
		Timestamp: ts,
	})
}
