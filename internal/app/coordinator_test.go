package app

import (
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codestreamer/backend/internal/core"
	"github.com/codestreamer/backend/internal/domain"
)

// fakeConn records every frame instead of writing to a socket.
type fakeConn struct {
	mu     sync.Mutex
	frames []core.Frame
}

func (f *fakeConn) TrySend(fr core.Frame) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.frames = append(f.frames, fr)
	return nil
}

func (f *fakeConn) Close() {}

func (f *fakeConn) events(t *testing.T) []map[string]any {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]map[string]any, 0, len(f.frames))
	for _, fr := range f.frames {
		var m map[string]any
		require.NoError(t, json.Unmarshal(fr, &m))
		out = append(out, m)
	}
	return out
}

func (f *fakeConn) last(t *testing.T) map[string]any {
	t.Helper()
	evs := f.events(t)
	require.NotEmpty(t, evs)
	return evs[len(evs)-1]
}

func (f *fakeConn) countType(t *testing.T, eventType string) int {
	t.Helper()
	n := 0
	for _, ev := range f.events(t) {
		if ev["type"] == eventType {
			n++
		}
	}
	return n
}

func newTestCoordinator() *Coordinator {
	return NewCoordinator(core.NewRegistry(), NewHub())
}

// connect wires a fake connection and returns it.
func connect(c *Coordinator, id domain.ConnID) *fakeConn {
	conn := &fakeConn{}
	c.Connect(id, conn)
	return conn
}

func TestCreateSession(t *testing.T) {
	coord := newTestCoordinator()
	c1 := connect(coord, "c1")

	coord.CreateSession("c1")

	ev := c1.last(t)
	assert.Equal(t, EventSessionCreated, ev["type"])
	assert.Equal(t, string(domain.RoleInterviewer), ev["role"])
	sid, _ := ev["sessionId"].(string)
	require.Len(t, sid, 8)
	assert.Equal(t, sid, ev["roomId"])

	scope, ok := coord.Hub.ScopeOf("c1")
	require.True(t, ok)
	assert.Equal(t, sid, scope)
}

func TestJoinSessionNotifiesBothSides(t *testing.T) {
	coord := newTestCoordinator()
	c1 := connect(coord, "c1")
	c2 := connect(coord, "c2")

	coord.CreateSession("c1")
	sid := c1.last(t)["sessionId"].(string)

	coord.JoinSession("c2", sid)

	joined := c2.last(t)
	assert.Equal(t, EventSessionJoined, joined["type"])
	assert.Equal(t, string(domain.RoleInterviewee), joined["role"])
	assert.Equal(t, sid, joined["sessionId"])

	notified := c1.last(t)
	assert.Equal(t, EventParticipantJoined, notified["type"])
	assert.Equal(t, "c2", notified["participantId"])
	assert.Equal(t, string(domain.RoleInterviewee), notified["role"])
}

func TestJoinSessionNotFound(t *testing.T) {
	coord := newTestCoordinator()
	c2 := connect(coord, "c2")

	coord.JoinSession("c2", "deadbeef")

	ev := c2.last(t)
	assert.Equal(t, EventSessionError, ev["type"])
	assert.Equal(t, msgSessionNotFound, ev["message"])
}

func TestJoinSessionFull(t *testing.T) {
	coord := newTestCoordinator()
	c1 := connect(coord, "c1")
	connect(coord, "c2")
	c3 := connect(coord, "c3")

	coord.CreateSession("c1")
	sid := c1.last(t)["sessionId"].(string)
	coord.JoinSession("c2", sid)

	coord.JoinSession("c3", sid)

	ev := c3.last(t)
	assert.Equal(t, EventSessionError, ev["type"])
	assert.Equal(t, msgSessionFull, ev["message"])
}

func TestJoinSessionDuplicateDoesNotRenotify(t *testing.T) {
	coord := newTestCoordinator()
	c1 := connect(coord, "c1")
	c2 := connect(coord, "c2")

	coord.CreateSession("c1")
	sid := c1.last(t)["sessionId"].(string)
	coord.JoinSession("c2", sid)
	coord.JoinSession("c2", sid)

	ev := c2.last(t)
	assert.Equal(t, EventSessionError, ev["type"])
	assert.Equal(t, msgAlreadyMember, ev["message"])
	assert.Equal(t, 1, c1.countType(t, EventParticipantJoined))
}

func TestJoinSessionWhileInAnotherRoom(t *testing.T) {
	coord := newTestCoordinator()
	c1 := connect(coord, "c1")
	c2 := connect(coord, "c2")
	c3 := connect(coord, "c3")

	coord.CreateSession("c1")
	coord.CreateSession("c2")
	sidA := c1.last(t)["sessionId"].(string)
	sidB := c2.last(t)["sessionId"].(string)
	coord.JoinSession("c3", sidA)

	coord.JoinSession("c3", sidB)

	ev := c3.last(t)
	assert.Equal(t, EventSessionError, ev["type"])
	assert.Equal(t, msgAlreadyElsewhere, ev["message"])
}

func TestDisconnectNotifiesRemaining(t *testing.T) {
	coord := newTestCoordinator()
	c1 := connect(coord, "c1")
	c2 := connect(coord, "c2")

	coord.CreateSession("c1")
	sid := c1.last(t)["sessionId"].(string)
	coord.JoinSession("c2", sid)

	coord.Disconnect("c2")

	ev := c1.last(t)
	assert.Equal(t, EventParticipantLeft, ev["type"])
	assert.Equal(t, "c2", ev["participantId"])
	assert.Equal(t, string(domain.RoleInterviewee), ev["role"])

	// The interviewee got nothing about its own departure.
	assert.Equal(t, 0, c2.countType(t, EventParticipantLeft))

	_, ok := coord.Registry.RoomByID(sid)
	assert.True(t, ok)
}

func TestDisconnectLastParticipantDeletesRoom(t *testing.T) {
	coord := newTestCoordinator()
	c1 := connect(coord, "c1")
	c4 := connect(coord, "c4")

	coord.CreateSession("c1")
	sid := c1.last(t)["sessionId"].(string)

	coord.Disconnect("c1")

	_, ok := coord.Registry.RoomByID(sid)
	assert.False(t, ok)

	coord.JoinSession("c4", sid)
	assert.Equal(t, msgSessionNotFound, c4.last(t)["message"])
}

func TestDisconnectWithoutRoomIsNoop(t *testing.T) {
	coord := newTestCoordinator()
	connect(coord, "c1")
	coord.Disconnect("c1")
	assert.Equal(t, 0, coord.Registry.Len())
}

func TestCreateSessionWhileInRoomLeavesFirst(t *testing.T) {
	coord := newTestCoordinator()
	c1 := connect(coord, "c1")
	c2 := connect(coord, "c2")

	coord.CreateSession("c1")
	oldSid := c1.last(t)["sessionId"].(string)
	coord.JoinSession("c2", oldSid)

	coord.CreateSession("c2")

	// The interviewer hears the departure, then the creator gets its room.
	left := c1.last(t)
	assert.Equal(t, EventParticipantLeft, left["type"])
	assert.Equal(t, "c2", left["participantId"])

	created := c2.last(t)
	require.Equal(t, EventSessionCreated, created["type"])
	newSid := created["sessionId"].(string)
	assert.NotEqual(t, oldSid, newSid)

	room, ok := coord.Registry.RoomByID(newSid)
	require.True(t, ok)
	assert.Equal(t, domain.RoleInterviewer, room.Participants[0].Role)
}

func TestRelayReachesWholeScope(t *testing.T) {
	coord := newTestCoordinator()
	c1 := connect(coord, "c1")
	c2 := connect(coord, "c2")

	coord.CreateSession("c1")
	sid := c1.last(t)["sessionId"].(string)
	coord.JoinSession("c2", sid)

	coord.Relay("c2", "hello there", "")

	for _, conn := range []*fakeConn{c1, c2} {
		ev := conn.last(t)
		require.Equal(t, EventServerMessage, ev["type"])
		assert.Equal(t, "c2", ev["senderId"])
		assert.Equal(t, "hello there", ev["message"])
		ts, _ := ev["timestamp"].(string)
		_, err := time.Parse(time.RFC3339, ts)
		assert.NoError(t, err)
	}
}

func TestRelayWithoutRoomEchoesNotice(t *testing.T) {
	coord := newTestCoordinator()
	c1 := connect(coord, "c1")

	coord.Relay("c1", "anyone?", "")

	ev := c1.last(t)
	require.Equal(t, EventServerMessage, ev["type"])
	_, hasSender := ev["senderId"]
	assert.False(t, hasSender)
	assert.Contains(t, ev["message"], "no target room found")
}

func TestRelayExplicitRoomWins(t *testing.T) {
	coord := newTestCoordinator()
	c1 := connect(coord, "c1")
	connect(coord, "c2")

	coord.CreateSession("c1")
	sid := c1.last(t)["sessionId"].(string)
	coord.JoinSession("c2", sid)

	coord.Relay("c2", "ping", sid)

	assert.Equal(t, 1, c1.countType(t, EventServerMessage))
}
