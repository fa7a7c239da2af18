package domain

import "errors"

var (
	ErrRoomNotFound        = errors.New("room not found")
	ErrNotInRoom           = errors.New("connection not in the room")
	ErrUnsupportedLanguage = errors.New("unsupported language")
	ErrEmptyMessage        = errors.New("empty message")
	ErrMessageTooLong      = errors.New("message too long")
	ErrRoomIDExhausted     = errors.New("could not allocate a free room id")
)
