package domain

import (
	"strings"
	"time"
)

const DefaultCode = "// Start coding here\n"

// Session is the shared state of one room. It is owned by the registry and
// only mutated inside the room's critical section.
type Session struct {
	ID           string
	RoomID       string
	Code         string
	Language     string
	Participants []Participant
	CreatedAt    time.Time
}

func NewSession(id, roomID, code, language string, now time.Time) *Session {
	return &Session{
		ID:           id,
		RoomID:       roomID,
		Code:         code,
		Language:     language,
		Participants: make([]Participant, 0, 4),
		CreatedAt:    now,
	}
}

// AddParticipant appends p in join order. A connection that is already present
// keeps its position and only has its display name refreshed; the return value
// reports whether a new entry was appended.
func (s *Session) AddParticipant(p Participant) bool {
	for i := range s.Participants {
		if s.Participants[i].ConnectionID == p.ConnectionID {
			s.Participants[i].DisplayName = p.DisplayName
			return false
		}
	}
	s.Participants = append(s.Participants, p)
	return true
}

// RemoveParticipant drops the participant with the given connection id.
func (s *Session) RemoveParticipant(connID string) (Participant, bool) {
	for i, p := range s.Participants {
		if p.ConnectionID == connID {
			s.Participants = append(s.Participants[:i], s.Participants[i+1:]...)
			return p, true
		}
	}
	return Participant{}, false
}

func (s *Session) IsEmpty() bool { return len(s.Participants) == 0 }

// ConnectionIDs returns the roster's connection ids, optionally skipping one.
func (s *Session) ConnectionIDs(except string) []string {
	ids := make([]string, 0, len(s.Participants))
	for _, p := range s.Participants {
		if except != "" && p.ConnectionID == except {
			continue
		}
		ids = append(ids, p.ConnectionID)
	}
	return ids
}

// Snapshot returns a copy that shares no memory with s.
func (s *Session) Snapshot() Session {
	cp := *s
	cp.Participants = make([]Participant, len(s.Participants))
	copy(cp.Participants, s.Participants)
	return cp
}

// NormalizeRoomID accepts ids typed in lower case or with stray spaces.
func NormalizeRoomID(id string) string {
	return strings.ToUpper(strings.TrimSpace(id))
}
