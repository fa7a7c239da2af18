package event

import (
	"encoding/json"
	"time"

	"github.com/cwrk-planet/coderoom/internal/domain"
)

// Message is what the server writes to a connection.
type Message struct {
	Type    string `json:"type"`
	Payload any    `json:"payload"`
}

type ParticipantView struct {
	UserID      string    `json:"userId"`
	DisplayName string    `json:"displayName"`
	JoinedAt    time.Time `json:"joinedAt"`
}

type SessionStatePayload struct {
	RoomID       string            `json:"roomId"`
	Code         string            `json:"code"`
	Language     string            `json:"language"`
	Participants []ParticipantView `json:"participants"`
}

// MembershipPayload is shared by user-joined and user-left.
type MembershipPayload struct {
	UserID       string            `json:"userId"`
	DisplayName  string            `json:"displayName"`
	Participants []ParticipantView `json:"participants"`
}

type CodeUpdatePayload struct {
	Code     string          `json:"code"`
	SenderID string          `json:"senderId"`
	Cursor   json.RawMessage `json:"cursor,omitempty"`
}

type LanguageChangePayload struct {
	Language string `json:"language"`
}

type CodeExecutedPayload struct {
	SenderID   string    `json:"senderId"`
	ExecutedBy string    `json:"executedBy"`
	Output     string    `json:"output"`
	Error      bool      `json:"error"`
	Language   string    `json:"language"`
	Timestamp  time.Time `json:"timestamp"`
}

type ChatMessagePayload struct {
	SenderID    string    `json:"senderId"`
	DisplayName string    `json:"displayName"`
	Text        string    `json:"text"`
	Timestamp   time.Time `json:"timestamp"`
}

type RoomClosedPayload struct {
	RoomID string `json:"roomId"`
}

type ErrorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func Participants(ps []domain.Participant) []ParticipantView {
	out := make([]ParticipantView, 0, len(ps))
	for _, p := range ps {
		out = append(out, ParticipantView{
			UserID:      p.ConnectionID,
			DisplayName: p.DisplayName,
			JoinedAt:    p.JoinedAt,
		})
	}
	return out
}

func SessionState(s *domain.Session) Message {
	return Message{
		Type: TypeSessionState,
		Payload: SessionStatePayload{
			RoomID:       s.RoomID,
			Code:         s.Code,
			Language:     s.Language,
			Participants: Participants(s.Participants),
		},
	}
}

func UserJoined(p domain.Participant, roster []domain.Participant) Message {
	return Message{
		Type: TypeUserJoined,
		Payload: MembershipPayload{
			UserID:       p.ConnectionID,
			DisplayName:  p.DisplayName,
			Participants: Participants(roster),
		},
	}
}

func UserLeft(p domain.Participant, roster []domain.Participant) Message {
	return Message{
		Type: TypeUserLeft,
		Payload: MembershipPayload{
			UserID:       p.ConnectionID,
			DisplayName:  p.DisplayName,
			Participants: Participants(roster),
		},
	}
}

func CodeUpdated(code, senderID string, cursor json.RawMessage) Message {
	return Message{
		Type:    TypeCodeUpdate,
		Payload: CodeUpdatePayload{Code: code, SenderID: senderID, Cursor: cursor},
	}
}

func LanguageChanged(language string) Message {
	return Message{Type: TypeLanguageChange, Payload: LanguageChangePayload{Language: language}}
}

func Executed(senderID string, r domain.ExecutionResult) Message {
	return Message{
		Type: TypeCodeExecuted,
		Payload: CodeExecutedPayload{
			SenderID:   senderID,
			ExecutedBy: r.ExecutedBy,
			Output:     r.Output,
			Error:      r.Error,
			Language:   r.Language,
			Timestamp:  r.Timestamp,
		},
	}
}

func Chat(m domain.ChatMessage) Message {
	return Message{
		Type: TypeChatMessage,
		Payload: ChatMessagePayload{
			SenderID:    m.SenderID,
			DisplayName: m.DisplayName,
			Text:        m.Text,
			Timestamp:   m.SentAt,
		},
	}
}

func RoomClosed(roomID string) Message {
	return Message{Type: TypeRoomClosed, Payload: RoomClosedPayload{RoomID: roomID}}
}

func Error(code, msg string) Message {
	return Message{Type: TypeError, Payload: ErrorPayload{Code: code, Message: msg}}
}
