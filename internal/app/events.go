package app

import "github.com/codestreamer/backend/internal/domain"

// Outbound event types. The Type field doubles as the wire event name.
const (
	EventSessionCreated    = "session-created"
	EventSessionJoined     = "session-joined"
	EventSessionError      = "session-error"
	EventParticipantJoined = "participant-joined"
	EventParticipantLeft   = "participant-left"
	EventServerMessage     = "server-message"
)

type SessionEvent struct {
	Type      string      `json:"type"`
	SessionID string      `json:"sessionId"`
	Role      domain.Role `json:"role"`
	RoomID    string      `json:"roomId"`
}

type SessionError struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

func NewSessionError(message string) SessionError {
	return SessionError{Type: EventSessionError, Message: message}
}

type ParticipantEvent struct {
	Type          string        `json:"type"`
	ParticipantID domain.ConnID `json:"participantId"`
	Role          domain.Role   `json:"role"`
}

// ServerMessage relays a room-scoped message. SenderID is empty in the
// no-target echo variant.
type ServerMessage struct {
	Type      string        `json:"type"`
	SenderID  domain.ConnID `json:"senderId,omitempty"`
	Message   string        `json:"message"`
	Timestamp string        `json:"timestamp"`
}
