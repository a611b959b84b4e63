package skillswap

import (
	"context"
	"errors"
	"io"
	"net/url"
	"sync"
	"time"

	"github.com/skillswap/skillswap-sdk-go/skillswap/internal"

	"github.com/coder/websocket"
)

// Transport is the slice of the Client that the room tracker and the
// reconciliation engine consume. Both guard on State or WaitConnected
// before assuming delivery; nothing is queued across a disconnect.
type Transport interface {
	State() ConnectionState
	WaitConnected(ctx context.Context) error
	Emit(ctx context.Context, event string, data any) error
}

// Client owns the single live transport session to the messaging
// server. It is the only component permitted to open or close the
// socket; construct one per process and inject it where needed.
type Client struct {
	cfg        Config
	logger     Logger
	dispatcher Dispatcher

	mu      sync.Mutex
	state   ConnectionState
	conn    *internal.Conn
	writeCh chan Inbound
	cancel  context.CancelFunc
	ready   *gate
}

// NewClient constructs a client with the provided config. Use
// DefaultConfig() as a starting point and modify as needed.
func NewClient(cfg Config) *Client {
	return &Client{
		cfg:    cfg,
		logger: noopLogger{},
		state:  StateDisconnected,
		ready:  newGate(),
	}
}

// SetLogger overrides the logger (optional).
func (c *Client) SetLogger(l Logger) {
	if l == nil {
		return
	}
	c.logger = l
}

// OnMessage registers a callback for message events.
func (c *Client) OnMessage(fn func(MessageEvent)) { c.dispatcher.OnMessage(fn) }

// OnTyping registers a callback for typing events.
func (c *Client) OnTyping(fn func(TypingEvent)) { c.dispatcher.OnTyping(fn) }

// OnNotification registers a callback for out-of-band notifications.
func (c *Client) OnNotification(fn func(NotificationEvent)) { c.dispatcher.OnNotification(fn) }

// OnMatchStatus registers a callback for match lifecycle changes.
func (c *Client) OnMatchStatus(fn func(MatchStatusEvent)) { c.dispatcher.OnMatchStatus(fn) }

// OnError registers a callback for transport and protocol errors.
func (c *Client) OnError(fn func(error)) { c.dispatcher.OnError(fn) }

// State reports the current connection state.
func (c *Client) State() ConnectionState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// WaitConnected blocks until the client is connected or ctx expires.
// It returns immediately when already connected.
func (c *Client) WaitConnected(ctx context.Context) error {
	return c.ready.wait(ctx)
}

// Connect establishes an authenticated session and starts the internal
// loops. Calling it while a session exists tears the old one down first,
// so a fresh token after re-login always wins. Registered callbacks
// survive across reconnects.
func (c *Client) Connect(ctx context.Context, token string) error {
	c.mu.Lock()
	if c.state != StateDisconnected {
		c.teardownLocked()
	}
	c.state = StateConnecting
	c.mu.Unlock()

	if c.cfg.SocketURL == "" {
		c.fail()
		return NewError(ErrorInvalidConfig, "empty socket URL")
	}
	u, err := url.Parse(c.cfg.SocketURL)
	if err != nil {
		c.fail()
		return WrapError(ErrorInvalidConfig, "invalid socket URL", err)
	}

	dialCtx := ctx
	if c.cfg.HandshakeTimeout > 0 {
		var cancel context.CancelFunc
		dialCtx, cancel = context.WithTimeout(ctx, c.cfg.HandshakeTimeout)
		defer cancel()
	}

	ws, _, err := websocket.Dial(dialCtx, u.String(), nil)
	if err != nil {
		c.fail()
		return WrapError(ErrorConnectionLost, "dial failed", err)
	}

	conn := internal.NewConn(ws, c.cfg.ReadTimeout, c.cfg.WriteTimeout)

	hello := Inbound{
		Event: emitHello,
		Data:  HelloPayload{Token: token, User: c.cfg.LocalUser.ID},
	}
	if err := conn.Write(ctx, hello); err != nil {
		_ = conn.Close(websocket.StatusInternalError, "handshake error")
		c.fail()
		return WrapError(ErrorConnectionLost, "handshake failed", err)
	}

	runCtx, cancel := context.WithCancel(context.Background())

	c.mu.Lock()
	c.conn = conn
	c.writeCh = make(chan Inbound, 16)
	c.cancel = cancel
	c.state = StateConnected
	c.mu.Unlock()
	c.ready.set(true)

	go c.readLoop(runCtx, conn)
	go c.writeLoop(runCtx, conn, c.writeCh)
	if c.cfg.ActiveInterval > 0 {
		go c.activeLoop(runCtx)
	}
	c.logger.Info("connected", map[string]any{"url": c.cfg.SocketURL})
	return nil
}

// Disconnect tears down the session. Idempotent and safe to call even
// if Connect never succeeded. Pending writes are dropped; registered
// callbacks are kept for reuse after a reconnect.
func (c *Client) Disconnect() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.teardownLocked()
	return nil
}

// Emit sends a named event over the live session. It fails fast with
// ErrorConnectionLost when no session is connected.
func (c *Client) Emit(ctx context.Context, event string, data any) error {
	c.mu.Lock()
	connected := c.state == StateConnected
	ch := c.writeCh
	c.mu.Unlock()
	if !connected {
		return NewError(ErrorConnectionLost, "not connected")
	}

	select {
	case ch <- Inbound{Event: event, Data: data}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// fail resets state after an unsuccessful connect attempt.
func (c *Client) fail() {
	c.mu.Lock()
	c.state = StateDisconnected
	c.mu.Unlock()
	c.ready.set(false)
}

func (c *Client) teardownLocked() {
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
	if c.conn != nil {
		_ = c.conn.Close(websocket.StatusNormalClosure, "client close")
		c.conn = nil
	}
	c.state = StateDisconnected
	c.ready.set(false)
}

// markDisconnected records a session lost from the transport side.
func (c *Client) markDisconnected(err error) {
	c.mu.Lock()
	already := c.state == StateDisconnected
	if !already {
		c.teardownLocked()
	}
	c.mu.Unlock()
	if already {
		return
	}
	c.logger.Warn("session lost", map[string]any{"error": err.Error()})
	c.dispatcher.fireError(WrapError(ErrorConnectionLost, "session lost", err))
}

func (c *Client) readLoop(ctx context.Context, conn *internal.Conn) {
	for {
		var out Outbound
		if err := conn.Read(ctx, &out); err != nil {
			if isExpectedDisconnect(ctx, err) {
				return
			}
			c.markDisconnected(err)
			return
		}
		c.dispatcher.Dispatch(out)
	}
}

func (c *Client) writeLoop(ctx context.Context, conn *internal.Conn, ch chan Inbound) {
	for {
		select {
		case in := <-ch:
			if err := conn.Write(ctx, in); err != nil {
				if isExpectedDisconnect(ctx, err) {
					return
				}
				c.markDisconnected(err)
				return
			}
		case <-ctx.Done():
			return
		}
	}
}

// activeLoop emits the user_active liveness ping while connected.
func (c *Client) activeLoop(ctx context.Context) {
	ticker := time.NewTicker(c.cfg.ActiveInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			if err := c.Emit(ctx, emitUserActive, nil); err != nil {
				return
			}
		case <-ctx.Done():
			return
		}
	}
}

func isExpectedDisconnect(ctx context.Context, err error) bool {
	if err == nil {
		return false
	}
	if ctx != nil && ctx.Err() != nil {
		return true
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, io.EOF) {
		return true
	}
	switch websocket.CloseStatus(err) {
	case websocket.StatusNormalClosure, websocket.StatusGoingAway:
		return true
	default:
		return false
	}
}
