// Package domain contains entity without logic, just meta-data
package domain

// ConnID is the opaque handle of one live transport connection. It is
// supplied by the adapter, stable for the connection's lifetime, and
// never reused while the connection is live.
type ConnID string

type Role string

const (
	RoleInterviewer Role = "interviewer"
	RoleInterviewee Role = "interviewee"
)

// Capacity is the participant limit of a room.
const Capacity = 2

type Participant struct {
	ID   ConnID `json:"id"`
	Role Role   `json:"role"`
}

// Room is a two-party session. Participants keep join order; the creator
// is always the interviewer and stays for the room's whole life.
type Room struct {
	ID           string        `json:"id"`
	Participants []Participant `json:"participants"`
}

func (r Room) HasParticipant(id ConnID) bool {
	for _, p := range r.Participants {
		if p.ID == id {
			return true
		}
	}
	return false
}

func (r Room) Interviewer() (Participant, bool) {
	for _, p := range r.Participants {
		if p.Role == RoleInterviewer {
			return p, true
		}
	}
	return Participant{}, false
}

func (r Room) IntervieweeTaken() bool {
	for _, p := range r.Participants {
		if p.Role == RoleInterviewee {
			return true
		}
	}
	return false
}

// Clone returns a copy with its own participant slice, safe to hand out.
func (r Room) Clone() Room {
	out := Room{ID: r.ID}
	if len(r.Participants) > 0 {
		out.Participants = make([]Participant, len(r.Participants))
		copy(out.Participants, r.Participants)
	}
	return out
}
