package event

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/cwrk-planet/coderoom/internal/domain"
)

var (
	ErrMalformed   = errors.New("malformed event")
	ErrUnknownType = errors.New("unknown event type")
)

// Inbound is the closed set of events a client may send.
type Inbound interface {
	Type() string
}

type JoinRoom struct {
	RoomID      string `json:"roomId"`
	DisplayName string `json:"displayName"`
}

type LeaveRoom struct{}

type CodeUpdate struct {
	RoomID string          `json:"roomId"`
	Code   string          `json:"code"`
	Cursor json.RawMessage `json:"cursor,omitempty"`
}

type LanguageChange struct {
	RoomID   string `json:"roomId"`
	Language string `json:"language"`
}

type CodeExecuted struct {
	RoomID     string `json:"roomId"`
	Output     string `json:"output"`
	Error      bool   `json:"error"`
	Language   string `json:"language"`
	ExecutedBy string `json:"executedBy"`
}

type ChatMessage struct {
	RoomID      string `json:"roomId"`
	Text        string `json:"text"`
	DisplayName string `json:"displayName"`
}

func (JoinRoom) Type() string       { return TypeJoinRoom }
func (LeaveRoom) Type() string      { return TypeLeaveRoom }
func (CodeUpdate) Type() string     { return TypeCodeUpdate }
func (LanguageChange) Type() string { return TypeLanguageChange }
func (CodeExecuted) Type() string   { return TypeCodeExecuted }
func (ChatMessage) Type() string    { return TypeChatMessage }

type envelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// Decode parses one client frame into its concrete Inbound type.
func Decode(data []byte) (Inbound, error) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	switch env.Type {
	case TypeJoinRoom:
		var ev JoinRoom
		if err := decodePayload(env.Payload, &ev); err != nil {
			return nil, err
		}
		if err := requireRoom(ev.RoomID); err != nil {
			return nil, err
		}
		ev.RoomID = domain.NormalizeRoomID(ev.RoomID)
		return ev, nil
	case TypeLeaveRoom:
		return LeaveRoom{}, nil
	case TypeCodeUpdate:
		var ev CodeUpdate
		if err := decodePayload(env.Payload, &ev); err != nil {
			return nil, err
		}
		if err := requireRoom(ev.RoomID); err != nil {
			return nil, err
		}
		if err := requireField(env.Payload, "code"); err != nil {
			return nil, err
		}
		ev.RoomID = domain.NormalizeRoomID(ev.RoomID)
		return ev, nil
	case TypeLanguageChange:
		var ev LanguageChange
		if err := decodePayload(env.Payload, &ev); err != nil {
			return nil, err
		}
		if err := requireRoom(ev.RoomID); err != nil {
			return nil, err
		}
		if strings.TrimSpace(ev.Language) == "" {
			return nil, fmt.Errorf("%w: language is required", ErrMalformed)
		}
		ev.RoomID = domain.NormalizeRoomID(ev.RoomID)
		ev.Language = strings.ToLower(strings.TrimSpace(ev.Language))
		return ev, nil
	case TypeCodeExecuted:
		var ev CodeExecuted
		if err := decodePayload(env.Payload, &ev); err != nil {
			return nil, err
		}
		if err := requireRoom(ev.RoomID); err != nil {
			return nil, err
		}
		if err := requireField(env.Payload, "output"); err != nil {
			return nil, err
		}
		ev.RoomID = domain.NormalizeRoomID(ev.RoomID)
		return ev, nil
	case TypeChatMessage:
		var ev ChatMessage
		if err := decodePayload(env.Payload, &ev); err != nil {
			return nil, err
		}
		if err := requireRoom(ev.RoomID); err != nil {
			return nil, err
		}
		ev.RoomID = domain.NormalizeRoomID(ev.RoomID)
		return ev, nil
	case "":
		return nil, fmt.Errorf("%w: missing type", ErrMalformed)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownType, env.Type)
	}
}

func decodePayload(raw json.RawMessage, dst any) error {
	if len(raw) == 0 || string(raw) == "null" {
		return fmt.Errorf("%w: missing payload", ErrMalformed)
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return nil
}

func requireRoom(id string) error {
	if strings.TrimSpace(id) == "" {
		return fmt.Errorf("%w: roomId is required", ErrMalformed)
	}
	return nil
}

// requireField rejects a payload that lacks key or sets it to null. An empty
// string is a valid value, so the decoded struct alone cannot tell them apart.
func requireField(raw json.RawMessage, key string) error {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if v, ok := fields[key]; !ok || string(v) == "null" {
		return fmt.Errorf("%w: %s is required", ErrMalformed, key)
	}
	return nil
}
