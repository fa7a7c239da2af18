package event

// Event types carried in the envelope's "type" field.
const (
	// inbound
	TypeJoinRoom       = "join-room"
	TypeLeaveRoom      = "leave-room"
	TypeCodeUpdate     = "code-update"
	TypeLanguageChange = "language-change"
	TypeCodeExecuted   = "code-executed"
	TypeChatMessage    = "chat-message"

	// outbound only
	TypeSessionState = "session-state"
	TypeUserJoined   = "user-joined"
	TypeUserLeft     = "user-left"
	TypeRoomClosed   = "room-closed"
	TypeError        = "error"
)

// Error codes sent in ErrorPayload.Code.
const (
	CodeRoomNotFound = "room_not_found"
	CodeBadRequest   = "bad_request"
)
