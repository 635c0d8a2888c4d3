// Package wsconn provides a WebSocket client with automatic reconnection.
package wsconn

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/coder/websocket"

	"github.com/fd1az/rangebet/internal/apperror"
)

// State represents the connection state.
type State string

const (
	StateDisconnected State = "disconnected"
	StateConnecting   State = "connecting"
	StateConnected    State = "connected"
	StateReconnecting State = "reconnecting"
	StateClosed       State = "closed"
)

// Config holds WebSocket client configuration.
type Config struct {
	URL            string
	Name           string
	Header         http.Header
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
	MaxReconnects  int // 0 = infinite
	PingInterval   time.Duration
	PongTimeout    time.Duration
	WriteTimeout   time.Duration
	MaxMessageSize int64
}

// DefaultConfig returns sensible defaults.
func DefaultConfig(url, name string) Config {
	return Config{
		URL:            url,
		Name:           name,
		InitialBackoff: 1 * time.Second,
		MaxBackoff:     30 * time.Second,
		MaxReconnects:  0,
		PingInterval:   30 * time.Second,
		PongTimeout:    10 * time.Second,
		WriteTimeout:   5 * time.Second,
		MaxMessageSize: 1 << 20,
	}
}

// MessageHandler receives every inbound message.
type MessageHandler func(ctx context.Context, msg []byte)

// StateHandler observes state transitions. err is the cause of a disconnect, if any.
type StateHandler func(state State, err error)

// ConnectHandler runs after every successful (re)connect, before messages are read.
type ConnectHandler func(ctx context.Context) error

// Client is a WebSocket client that reconnects with exponential backoff after the
// first successful Connect.
type Client struct {
	config Config

	mu    sync.RWMutex
	state State
	conn  *websocket.Conn

	handlersMu sync.RWMutex
	onMessage  MessageHandler
	onState    StateHandler
	onConnect  ConnectHandler

	ctx    context.Context
	cancel context.CancelFunc

	closed      atomic.Bool
	closeOnce   sync.Once
	reconnects  atomic.Int64
	lastMessage atomic.Int64
}

// New creates a new WebSocket client.
func New(config Config) (*Client, error) {
	if config.URL == "" {
		return nil, apperror.New(apperror.CodeWebSocketConnectionError,
			apperror.WithContext("url is required"))
	}
	if config.InitialBackoff <= 0 {
		config.InitialBackoff = time.Second
	}
	if config.MaxBackoff < config.InitialBackoff {
		config.MaxBackoff = config.InitialBackoff
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Client{
		config: config,
		state:  StateDisconnected,
		ctx:    ctx,
		cancel: cancel,
	}, nil
}

// OnMessage sets the inbound message handler.
func (c *Client) OnMessage(h MessageHandler) {
	c.handlersMu.Lock()
	c.onMessage = h
	c.handlersMu.Unlock()
}

// OnStateChange sets the state transition handler.
func (c *Client) OnStateChange(h StateHandler) {
	c.handlersMu.Lock()
	c.onState = h
	c.handlersMu.Unlock()
}

// OnConnect sets a hook run after every connect, typically to (re)subscribe.
func (c *Client) OnConnect(h ConnectHandler) {
	c.handlersMu.Lock()
	c.onConnect = h
	c.handlersMu.Unlock()
}

// Connect establishes the WebSocket connection. A failed first connect leaves the
// client disconnected; drops after that are retried in the background.
func (c *Client) Connect(ctx context.Context) error {
	if c.closed.Load() {
		return apperror.New(apperror.CodeWebSocketClosed, apperror.WithContext(c.config.Name))
	}

	c.setState(StateConnecting, nil)

	conn, err := c.dial(ctx)
	if err != nil {
		c.setState(StateDisconnected, err)
		return err
	}

	return c.install(conn)
}

func (c *Client) dial(ctx context.Context) (*websocket.Conn, error) {
	conn, _, err := websocket.Dial(ctx, c.config.URL, &websocket.DialOptions{
		HTTPHeader: c.config.Header,
	})
	if err != nil {
		return nil, apperror.New(apperror.CodeWebSocketConnectionError,
			apperror.WithContext(c.config.Name), apperror.WithCause(err))
	}
	if c.config.MaxMessageSize > 0 {
		conn.SetReadLimit(c.config.MaxMessageSize)
	}
	return conn, nil
}

func (c *Client) install(conn *websocket.Conn) error {
	c.mu.Lock()
	if c.closed.Load() {
		c.mu.Unlock()
		conn.CloseNow()
		return apperror.New(apperror.CodeWebSocketClosed, apperror.WithContext(c.config.Name))
	}
	c.conn = conn
	c.mu.Unlock()

	c.setState(StateConnected, nil)

	go c.readLoop(conn)
	if c.config.PingInterval > 0 {
		go c.pingLoop(conn)
	}

	c.handlersMu.RLock()
	hook := c.onConnect
	c.handlersMu.RUnlock()
	if hook != nil {
		if err := hook(c.ctx); err != nil {
			c.dropped(conn, err)
			return err
		}
	}
	return nil
}

func (c *Client) readLoop(conn *websocket.Conn) {
	for {
		_, data, err := conn.Read(c.ctx)
		if err != nil {
			c.dropped(conn, err)
			return
		}
		c.lastMessage.Store(time.Now().UnixNano())

		c.handlersMu.RLock()
		h := c.onMessage
		c.handlersMu.RUnlock()
		if h != nil {
			h(c.ctx, data)
		}
	}
}

func (c *Client) pingLoop(conn *websocket.Conn) {
	ticker := time.NewTicker(c.config.PingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-c.ctx.Done():
			return
		case <-ticker.C:
			if !c.isCurrent(conn) {
				return
			}
			ctx, cancel := context.WithTimeout(c.ctx, c.config.PongTimeout)
			err := conn.Ping(ctx)
			cancel()
			if err != nil {
				c.dropped(conn, err)
				return
			}
		}
	}
}

func (c *Client) isCurrent(conn *websocket.Conn) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.conn == conn
}

// dropped retires conn and starts a reconnect loop, once per connection.
func (c *Client) dropped(conn *websocket.Conn, cause error) {
	c.mu.Lock()
	if c.conn != conn {
		c.mu.Unlock()
		return
	}
	c.conn = nil
	c.mu.Unlock()

	conn.CloseNow()

	if c.closed.Load() {
		return
	}
	go c.reconnect(cause)
}

func (c *Client) reconnect(cause error) {
	backoff := c.config.InitialBackoff
	for attempt := 1; ; attempt++ {
		if c.config.MaxReconnects > 0 && attempt > c.config.MaxReconnects {
			c.setState(StateDisconnected, cause)
			return
		}
		c.setState(StateReconnecting, cause)

		select {
		case <-c.ctx.Done():
			return
		case <-time.After(backoff):
		}

		conn, err := c.dial(c.ctx)
		if err == nil {
			c.reconnects.Add(1)
			// a failing connect hook retires conn and starts a fresh loop
			_ = c.install(conn)
			return
		}

		cause = err
		backoff *= 2
		if backoff > c.config.MaxBackoff {
			backoff = c.config.MaxBackoff
		}
	}
}

// Send writes a text message. Safe for concurrent use.
func (c *Client) Send(ctx context.Context, msg []byte) error {
	c.mu.RLock()
	conn := c.conn
	c.mu.RUnlock()

	if conn == nil {
		return apperror.New(apperror.CodeWebSocketSendError,
			apperror.WithContextf("%s: not connected", c.config.Name))
	}

	if c.config.WriteTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.config.WriteTimeout)
		defer cancel()
	}

	if err := conn.Write(ctx, websocket.MessageText, msg); err != nil {
		return apperror.New(apperror.CodeWebSocketSendError,
			apperror.WithContext(c.config.Name), apperror.WithCause(err))
	}
	return nil
}

// SendJSON marshals v and sends it as a text message.
func (c *Client) SendJSON(ctx context.Context, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return apperror.New(apperror.CodeWebSocketSendError,
			apperror.WithContext(c.config.Name), apperror.WithCause(err))
	}
	return c.Send(ctx, data)
}

// State returns the current connection state.
func (c *Client) State() State {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state
}

// IsConnected reports whether the client holds a live connection.
func (c *Client) IsConnected() bool {
	return c.State() == StateConnected
}

// Reconnects returns how many times the connection has been re-established.
func (c *Client) Reconnects() int64 {
	return c.reconnects.Load()
}

// LastMessageAt returns when the last message arrived, or the zero time.
func (c *Client) LastMessageAt() time.Time {
	ns := c.lastMessage.Load()
	if ns == 0 {
		return time.Time{}
	}
	return time.Unix(0, ns)
}

// Close gracefully closes the connection and stops reconnecting. It is idempotent.
func (c *Client) Close() error {
	c.closeOnce.Do(func() {
		c.closed.Store(true)

		c.mu.Lock()
		conn := c.conn
		c.conn = nil
		c.mu.Unlock()

		if conn != nil {
			_ = conn.Close(websocket.StatusNormalClosure, "client closing")
		}
		c.cancel()
		c.setState(StateClosed, nil)
	})
	return nil
}

func (c *Client) setState(state State, err error) {
	c.mu.Lock()
	if c.state == StateClosed {
		c.mu.Unlock()
		return
	}
	c.state = state
	c.mu.Unlock()

	c.handlersMu.RLock()
	h := c.onState
	c.handlersMu.RUnlock()
	if h != nil {
		h(state, err)
	}
}
