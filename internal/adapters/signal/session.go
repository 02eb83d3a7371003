package signal

import (
	"encoding/json"

	"github.com/rs/zerolog/log"

	"github.com/codestreamer/backend/internal/domain"
)

const msgTooManyRequests = "Too many session requests, slow down."

func (ctl *Controller) handleCreateSession(id domain.ConnID, token string, c *wsConn) {
	if !ctl.limiter.Allow(token) {
		ctl.sendError(c, msgTooManyRequests)
		return
	}
	log.Info().Str("module", "signal").Str("conn", string(id)).Msg("create-session")
	ctl.Coord.CreateSession(id)
}

func (ctl *Controller) handleJoinSession(id domain.ConnID, token string, c *wsConn, data []byte) {
	type joinPayload struct {
		Type      string `json:"type"`
		SessionID string `json:"sessionId" validate:"required,len=8"`
	}
	var p joinPayload
	if err := json.Unmarshal(data, &p); err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("bad join payload")
		ctl.sendError(c, "Session not found.")
		return
	}
	// A missing or malformed id can never name a session.
	if err := ctl.validate.Struct(p); err != nil {
		log.Warn().Err(err).Str("module", "signal").Str("conn", string(id)).Msg("invalid join payload")
		ctl.sendError(c, "Session not found.")
		return
	}
	if !ctl.limiter.Allow(token) {
		ctl.sendError(c, msgTooManyRequests)
		return
	}
	log.Info().Str("module", "signal").Str("conn", string(id)).Str("session", p.SessionID).Msg("join-session")
	ctl.Coord.JoinSession(id, p.SessionID)
}

func (ctl *Controller) handleClientMessage(id domain.ConnID, c *wsConn, data []byte) {
	type messagePayload struct {
		Type    string `json:"type"`
		Message string `json:"message" validate:"required"`
		RoomID  string `json:"roomId"`
	}
	var p messagePayload
	if err := json.Unmarshal(data, &p); err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("bad message payload")
		ctl.sendError(c, "Invalid message payload.")
		return
	}
	if err := ctl.validate.Struct(p); err != nil {
		ctl.sendError(c, "Invalid message payload.")
		return
	}
	ctl.Coord.Relay(id, p.Message, p.RoomID)
}

func (ctl *Controller) handlePing(c *wsConn) {
	ctl.sendJSON(c, map[string]string{"type": "pong"})
}
