package skillswap

import "time"

// Config controls how the SDK connects and how the messaging core
// times out. Zero durations disable the corresponding timeout.
type Config struct {
	// SocketURL is the websocket endpoint of the messaging server.
	SocketURL string

	// APIURL is the base URL of the REST API.
	APIURL string

	// LocalUser authors optimistic messages and filters self-typing.
	LocalUser User

	HandshakeTimeout time.Duration
	ReadTimeout      time.Duration
	WriteTimeout     time.Duration

	// SendWatchdog bounds how long an optimistic message may stay
	// unconfirmed before it is marked failed.
	SendWatchdog time.Duration

	// JoinWait bounds how long a room join waits for the transport to
	// become connected before the join is skipped.
	JoinWait time.Duration

	// TypingExpiry clears the remote typing flag after this much
	// silence.
	TypingExpiry time.Duration

	// TypingDebounce is the pause after the last local keystroke that
	// triggers a typing_stop emission.
	TypingDebounce time.Duration

	// ActiveInterval is the period of the user_active liveness ping.
	ActiveInterval time.Duration
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		HandshakeTimeout: 10 * time.Second,
		ReadTimeout:      60 * time.Second,
		WriteTimeout:     10 * time.Second,
		SendWatchdog:     10 * time.Second,
		JoinWait:         5 * time.Second,
		TypingExpiry:     3 * time.Second,
		TypingDebounce:   time.Second,
		ActiveInterval:   30 * time.Second,
	}
}
