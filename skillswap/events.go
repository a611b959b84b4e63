package skillswap

import "encoding/json"

const (
	// Client -> server events.
	emitHello       = "hello"
	emitJoinMatch   = "join_match"
	emitLeaveMatch  = "leave_match"
	emitSendMessage = "send_message"
	emitTypingStart = "typing_start"
	emitTypingStop  = "typing_stop"
	emitUserActive  = "user_active"

	// Server -> client events.
	eventNewMessage      = "new_message"
	eventUserTyping      = "user_typing"
	eventNewNotification = "new_notification"
	eventMatchStatus     = "match_status_changed"
	eventError           = "error"
)

// Inbound is the envelope from client to server.
type Inbound struct {
	Event string `json:"event"`
	Data  any    `json:"data,omitempty"`
}

// Outbound is the envelope server -> client.
type Outbound struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
	Error *ProtocolError  `json:"error,omitempty"`
}

// HelloPayload authenticates the session right after the dial.
type HelloPayload struct {
	Token string `json:"token"`
	User  string `json:"user,omitempty"`
}

// RoomPayload targets a single conversation room.
type RoomPayload struct {
	MatchID string `json:"matchId"`
}

// SendMessagePayload publishes a message to a conversation room.
type SendMessagePayload struct {
	MatchID string `json:"matchId"`
	Content string `json:"content"`
	Type    string `json:"type"`
}

// ProtocolError describes an error reported by the server.
type ProtocolError struct {
	Code string `json:"code"`
	Msg  string `json:"msg"`
}

func (e *ProtocolError) Error() string {
	if e == nil {
		return ""
	}
	return e.Code + ": " + e.Msg
}

// UnmarshalData decodes an event payload into target.
func UnmarshalData(data json.RawMessage, v any) error {
	return json.Unmarshal(data, v)
}
