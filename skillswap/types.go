package skillswap

import "time"

// MessageStatus is the client-side lifecycle tag of a message.
type MessageStatus int

const (
	// StatusOptimistic marks a locally created message not yet
	// acknowledged by the server.
	StatusOptimistic MessageStatus = iota

	// StatusConfirmed marks a message acknowledged by the server. It
	// carries a server-assigned id.
	StatusConfirmed

	// StatusFailed marks an optimistic message whose confirmation never
	// arrived within the watchdog window.
	StatusFailed
)

// String returns the string representation of a MessageStatus.
func (s MessageStatus) String() string {
	switch s {
	case StatusOptimistic:
		return "optimistic"
	case StatusConfirmed:
		return "confirmed"
	case StatusFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// User identifies one of the two participants of a conversation.
type User struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Message belongs to exactly one conversation. Status is client-side
// bookkeeping and never crosses the wire.
type Message struct {
	ID        string    `json:"id"`
	MatchID   string    `json:"matchId"`
	Sender    User      `json:"sender"`
	Content   string    `json:"content"`
	Type      string    `json:"type"`
	CreatedAt time.Time `json:"createdAt"`

	Status MessageStatus `json:"-"`
}

// Conversation is a confirmed match between two users. Created
// server-side; read-only here.
type Conversation struct {
	ID        string `json:"id"`
	Requester User   `json:"requester"`
	Receiver  User   `json:"receiver"`
}

// Other returns the participant that is not userID.
func (c Conversation) Other(userID string) User {
	if c.Requester.ID == userID {
		return c.Receiver
	}
	return c.Requester
}

// MessageEvent is emitted by the server when a message lands in a room.
type MessageEvent struct {
	MatchID string  `json:"matchId"`
	Message Message `json:"message"`
}

// TypingEvent is emitted when a participant starts or stops typing.
type TypingEvent struct {
	MatchID  string `json:"matchId"`
	UserID   string `json:"userId"`
	UserName string `json:"userName"`
	IsTyping bool   `json:"isTyping"`
}

// NotificationEvent is an out-of-band notification. The SDK forwards it
// untouched; acting on it is the subscriber's job.
type NotificationEvent struct {
	ID      string `json:"id"`
	Kind    string `json:"kind"`
	Title   string `json:"title"`
	Body    string `json:"body"`
	MatchID string `json:"matchId,omitempty"`
}

// MatchStatusEvent reports a server-side match lifecycle change.
type MatchStatusEvent struct {
	MatchID string `json:"matchId"`
	Status  string `json:"status"`
}
