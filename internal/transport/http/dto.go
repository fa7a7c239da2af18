package http

import (
	"time"

	"github.com/cwrk-planet/coderoom/internal/event"
)

type CreateRoomResponse struct {
	RoomID             string    `json:"roomId"`
	SessionID          string    `json:"sessionId"`
	ShareLink          string    `json:"shareLink"`
	HostToken          string    `json:"hostToken"`
	HostTokenExpiresAt time.Time `json:"hostTokenExpiresAt"`
}

type SessionResponse struct {
	RoomID       string                  `json:"roomId"`
	Code         string                  `json:"code"`
	Language     string                  `json:"language"`
	Participants []event.ParticipantView `json:"participants"`
	CreatedAt    time.Time               `json:"createdAt"`
}

type ChatMessageItem struct {
	ID          string    `json:"id"`
	SenderID    string    `json:"senderId"`
	DisplayName string    `json:"displayName"`
	Text        string    `json:"text"`
	Timestamp   time.Time `json:"timestamp"`
}

type ChatHistoryResponse struct {
	Items      []ChatMessageItem `json:"items"`
	NextCursor string            `json:"nextCursor,omitempty"`
}

type LanguagesResponse struct {
	Languages []string `json:"languages"`
}
