// Package wsconn provides a WebSocket client with automatic reconnection.
package wsconn

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"github.com/fd1az/blockterm/internal/apperror"
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
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
	MaxReconnects  int // 0 = infinite, negative disables reconnection
	PingInterval   time.Duration
	PongTimeout    time.Duration
	MaxMessageSize int64
}

// DefaultConfig returns defaults suited to a JSON-RPC node endpoint.
func DefaultConfig(url, name string) Config {
	return Config{
		URL:            url,
		Name:           name,
		InitialBackoff: 1 * time.Second,
		MaxBackoff:     30 * time.Second,
		PingInterval:   30 * time.Second,
		PongTimeout:    10 * time.Second,
		MaxMessageSize: 1 << 20,
	}
}

// MessageHandler receives every data frame.
type MessageHandler func(ctx context.Context, msg []byte)

// StateHandler observes state transitions; err is the cause when there is one.
type StateHandler func(state State, err error)

// ConnectHandler runs after each successful dial, before messages are read.
// Subscriptions are (re)issued here.
type ConnectHandler func(ctx context.Context) error

// Client is a WebSocket client that redials with exponential backoff.
type Client struct {
	config Config

	mu        sync.RWMutex
	conn      *websocket.Conn
	state     State
	onMessage MessageHandler
	onState   StateHandler
	onConnect ConnectHandler

	ctx        context.Context
	cancel     context.CancelFunc
	wg         sync.WaitGroup
	closing    atomic.Bool
	closeOnce  sync.Once
	reconnects atomic.Int32
}

// New creates a new WebSocket client.
func New(config Config) (*Client, error) {
	if config.URL == "" {
		return nil, apperror.Validation(apperror.CodeConfigurationError, "websocket url is required")
	}
	if config.InitialBackoff <= 0 {
		config.InitialBackoff = time.Second
	}
	if config.MaxBackoff < config.InitialBackoff {
		config.MaxBackoff = config.InitialBackoff
	}
	if config.PongTimeout <= 0 {
		config.PongTimeout = 10 * time.Second
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Client{
		config: config,
		state:  StateDisconnected,
		ctx:    ctx,
		cancel: cancel,
	}, nil
}

// OnMessage registers the data frame handler.
func (c *Client) OnMessage(h MessageHandler) {
	c.mu.Lock()
	c.onMessage = h
	c.mu.Unlock()
}

// OnStateChange registers the state transition handler.
func (c *Client) OnStateChange(h StateHandler) {
	c.mu.Lock()
	c.onState = h
	c.mu.Unlock()
}

// OnConnect registers the post-dial hook.
func (c *Client) OnConnect(h ConnectHandler) {
	c.mu.Lock()
	c.onConnect = h
	c.mu.Unlock()
}

// Connect dials the endpoint and starts the read loop.
func (c *Client) Connect(ctx context.Context) error {
	if c.closing.Load() {
		return apperror.New(apperror.CodeWebSocketClosed, apperror.WithContext(c.config.Name))
	}

	c.setState(StateConnecting, nil)

	conn, err := c.dial(ctx)
	if err != nil {
		c.setState(StateDisconnected, err)
		return apperror.External(apperror.CodeWebSocketConnectionError, c.config.Name, err)
	}

	if err := c.attach(conn); err != nil {
		c.setState(StateDisconnected, err)
		return err
	}

	c.wg.Add(1)
	go c.readLoop(conn)

	if c.config.PingInterval > 0 {
		c.wg.Add(1)
		go c.pingLoop()
	}

	return nil
}

// Send writes a text frame.
func (c *Client) Send(ctx context.Context, msg []byte) error {
	conn := c.current()
	if conn == nil {
		return apperror.New(apperror.CodeWebSocketSendError, apperror.WithContext("not connected"))
	}
	if err := conn.Write(ctx, websocket.MessageText, msg); err != nil {
		return apperror.External(apperror.CodeWebSocketSendError, c.config.Name, err)
	}
	return nil
}

// SendJSON writes v as a JSON text frame.
func (c *Client) SendJSON(ctx context.Context, v any) error {
	conn := c.current()
	if conn == nil {
		return apperror.New(apperror.CodeWebSocketSendError, apperror.WithContext("not connected"))
	}
	if err := wsjson.Write(ctx, conn, v); err != nil {
		return apperror.External(apperror.CodeWebSocketSendError, c.config.Name, err)
	}
	return nil
}

// State returns the current connection state.
func (c *Client) State() State {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state
}

// IsConnected reports whether the client currently holds a live connection.
func (c *Client) IsConnected() bool {
	return c.State() == StateConnected
}

// Reconnects returns how many times the client redialed successfully.
func (c *Client) Reconnects() int {
	return int(c.reconnects.Load())
}

// Close sends a normal closure and stops all goroutines. Safe to call twice.
func (c *Client) Close() error {
	c.closeOnce.Do(func() {
		c.closing.Store(true)

		c.mu.Lock()
		conn := c.conn
		c.conn = nil
		c.mu.Unlock()

		if conn != nil {
			// The peer may already be gone; the close handshake result is not actionable.
			_ = conn.Close(websocket.StatusNormalClosure, "client closing")
		}

		c.cancel()
		c.wg.Wait()
		c.setState(StateClosed, nil)
	})
	return nil
}

func (c *Client) dial(ctx context.Context) (*websocket.Conn, error) {
	conn, _, err := websocket.Dial(ctx, c.config.URL, nil)
	if err != nil {
		return nil, err
	}
	if c.config.MaxMessageSize > 0 {
		conn.SetReadLimit(c.config.MaxMessageSize)
	}
	return conn, nil
}

func (c *Client) attach(conn *websocket.Conn) error {
	c.mu.Lock()
	c.conn = conn
	hook := c.onConnect
	c.mu.Unlock()

	c.setState(StateConnected, nil)

	if hook != nil {
		if err := hook(c.ctx); err != nil {
			c.mu.Lock()
			c.conn = nil
			c.mu.Unlock()
			conn.CloseNow()
			return apperror.Wrap(err, apperror.CodeWebSocketConnectionError, c.config.Name)
		}
	}
	return nil
}

func (c *Client) current() *websocket.Conn {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.conn
}

func (c *Client) readLoop(conn *websocket.Conn) {
	defer c.wg.Done()

	for {
		_, data, err := conn.Read(c.ctx)
		if err != nil {
			if c.closing.Load() {
				return
			}
			conn.CloseNow()
			conn = c.reconnect(err)
			if conn == nil {
				return
			}
			continue
		}

		c.mu.RLock()
		h := c.onMessage
		c.mu.RUnlock()
		if h != nil {
			h(c.ctx, data)
		}
	}
}

// reconnect redials until it succeeds, the budget runs out or the client closes.
func (c *Client) reconnect(cause error) *websocket.Conn {
	c.mu.Lock()
	c.conn = nil
	c.mu.Unlock()

	if c.config.MaxReconnects < 0 {
		c.setState(StateDisconnected, cause)
		return nil
	}

	c.setState(StateReconnecting, cause)
	backoff := c.config.InitialBackoff

	for attempt := 1; ; attempt++ {
		if c.config.MaxReconnects > 0 && attempt > c.config.MaxReconnects {
			c.setState(StateDisconnected, cause)
			return nil
		}

		timer := time.NewTimer(backoff)
		select {
		case <-c.ctx.Done():
			timer.Stop()
			return nil
		case <-timer.C:
		}

		conn, err := c.dial(c.ctx)
		if err == nil {
			if err = c.attach(conn); err == nil {
				c.reconnects.Add(1)
				return conn
			}
			c.setState(StateReconnecting, err)
		}
		if c.closing.Load() {
			return nil
		}

		cause = err
		backoff = min(backoff*2, c.config.MaxBackoff)
	}
}

func (c *Client) pingLoop() {
	defer c.wg.Done()

	ticker := time.NewTicker(c.config.PingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-c.ctx.Done():
			return
		case <-ticker.C:
			conn := c.current()
			if conn == nil {
				continue
			}
			ctx, cancel := context.WithTimeout(c.ctx, c.config.PongTimeout)
			err := conn.Ping(ctx)
			cancel()
			if err != nil && !errors.Is(err, context.Canceled) {
				// Force the read loop into its reconnect path.
				conn.CloseNow()
			}
		}
	}
}

func (c *Client) setState(state State, err error) {
	c.mu.Lock()
	if c.state == StateClosed {
		c.mu.Unlock()
		return
	}
	c.state = state
	h := c.onState
	c.mu.Unlock()

	if h != nil {
		h(state, err)
	}
}
