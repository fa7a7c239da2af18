package domain

import "time"

// ChatMessage is a relayed chat line. ID is set once the message is archived.
type ChatMessage struct {
	ID          string
	RoomID      string
	SenderID    string
	DisplayName string
	Text        string
	SentAt      time.Time
}

// ExecutionResult is produced by a client-side executor; the server only relays it.
type ExecutionResult struct {
	Output     string
	Error      bool
	Language   string
	ExecutedBy string
	Timestamp  time.Time
}
