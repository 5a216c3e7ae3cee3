// Package live implements the session-scoped websocket channel of a meeting.
package live

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/zhouzirui/z-meeting/internal/model/transcript"
)

// State of a channel. Closed is terminal.
type State int32

const (
	StateConnecting State = iota
	StateOpen
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateOpen:
		return "open"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// ErrNotOpen is returned by Send when the channel is not Open. Nothing was transmitted.
var ErrNotOpen = errors.New("live channel is not open")

const (
	defaultHandshakeTimeout = 15 * time.Second
	defaultWriteTimeout     = 10 * time.Second
	closeGracePeriod        = 2 * time.Second
)

// Channel is one live connection to a session. It has no queue, no retry and no reconnect:
// what is sent while Open is delivered in order, what is sent otherwise is rejected with ErrNotOpen.
type Channel struct {
	url          string
	header       http.Header
	dialer       *websocket.Dialer
	handler      Handler
	logger       zerolog.Logger
	pingInterval time.Duration
	writeTimeout time.Duration
	now          func() time.Time
	newID        func() string

	state atomic.Int32

	// dispatchMu orders the local echo of a send before any inbound frame read after it.
	dispatchMu sync.Mutex
	// writeMu guards conn and serializes writes; gorilla allows a single concurrent writer.
	writeMu sync.Mutex
	conn    *websocket.Conn

	closeOnce sync.Once
	cancel    context.CancelFunc
	done      chan struct{}
}

// Option customizes a Channel.
type Option func(*Channel)

// WithLogger sets the channel logger.
func WithLogger(l zerolog.Logger) Option {
	return func(c *Channel) { c.logger = l }
}

// WithPingInterval sets the keepalive interval. Zero disables keepalive pings.
func WithPingInterval(d time.Duration) Option {
	return func(c *Channel) { c.pingInterval = d }
}

// WithHeader adds handshake headers.
func WithHeader(h http.Header) Option {
	return func(c *Channel) { c.header = h.Clone() }
}

// WithDialer replaces the websocket dialer.
func WithDialer(d *websocket.Dialer) Option {
	return func(c *Channel) { c.dialer = d }
}

// WithClock overrides the timestamp source of local turns.
func WithClock(now func() time.Time) Option {
	return func(c *Channel) { c.now = now }
}

// WithIDGenerator overrides the correlation id generator of outbound messages.
func WithIDGenerator(gen func() string) Option {
	return func(c *Channel) { c.newID = gen }
}

// Dial starts connecting to url and returns immediately with the channel in Connecting.
// The handshake runs in the background; the handler observes OnOpen or OnClose.
func Dial(ctx context.Context, url string, handler Handler, opts ...Option) *Channel {
	if handler == nil {
		handler = NopHandler{}
	}

	c := &Channel{
		url:          url,
		dialer:       &websocket.Dialer{HandshakeTimeout: defaultHandshakeTimeout, Proxy: http.ProxyFromEnvironment},
		handler:      handler,
		logger:       zerolog.Nop(),
		writeTimeout: defaultWriteTimeout,
		now:          time.Now,
		newID:        uuid.NewString,
		done:         make(chan struct{}),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.state.Store(int32(StateConnecting))

	runCtx, cancel := context.WithCancel(ctx)
	c.cancel = cancel

	go c.run(runCtx)
	return c
}

// State returns the current state.
func (c *Channel) State() State {
	return State(c.state.Load())
}

// Connected reports whether the channel is Open.
func (c *Channel) Connected() bool {
	return c.State() == StateOpen
}

// Done is closed once the receive goroutine has exited.
func (c *Channel) Done() <-chan struct{} {
	return c.done
}

// URL 返回连接地址。
func (c *Channel) URL() string { return c.url }

// Send transmits a user message and reports the local turn through Handler.OnSent.
// While the channel is not Open it returns ErrNotOpen without transmitting.
func (c *Channel) Send(content, speaker string) (transcript.Turn, error) {
	c.dispatchMu.Lock()
	defer c.dispatchMu.Unlock()

	env := Envelope{Type: TypeMessage, ID: c.newID(), Content: content, Speaker: speaker}
	if err := c.write(env); err != nil {
		if !errors.Is(err, ErrNotOpen) {
			c.logger.Error().Err(err).Msg("send failed")
			c.shutdown(err, false)
		}
		return transcript.Turn{}, err
	}

	turn := transcript.Turn{
		Role:          transcript.RoleUser,
		Speaker:       speaker,
		Content:       content,
		Timestamp:     c.now(),
		CorrelationID: env.ID,
	}
	c.handler.OnSent(turn)
	return turn, nil
}

// Close terminates the connection with a normal closure. Calling Close again has no effect.
func (c *Channel) Close() error {
	c.shutdown(nil, true)
	return nil
}

func (c *Channel) write(env Envelope) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	if c.State() != StateOpen || c.conn == nil {
		return ErrNotOpen
	}
	if err := c.conn.SetWriteDeadline(time.Now().Add(c.writeTimeout)); err != nil {
		return fmt.Errorf("set write deadline: %w", err)
	}
	if err := c.conn.WriteJSON(env); err != nil {
		return fmt.Errorf("write %s envelope: %w", env.Type, err)
	}
	return nil
}

func (c *Channel) run(ctx context.Context) {
	defer close(c.done)

	conn, resp, err := c.dialer.DialContext(ctx, c.url, c.header)
	if err != nil {
		if resp != nil {
			err = fmt.Errorf("websocket dial failed (status %d): %w", resp.StatusCode, err)
		} else {
			err = fmt.Errorf("websocket dial failed: %w", err)
		}
		if c.State() != StateClosed {
			c.logger.Error().Err(err).Str("url", c.url).Msg("live channel error")
		}
		c.shutdown(err, false)
		return
	}

	c.writeMu.Lock()
	if !c.state.CompareAndSwap(int32(StateConnecting), int32(StateOpen)) {
		// Close won the race during the handshake.
		c.writeMu.Unlock()
		_ = conn.Close()
		return
	}
	c.conn = conn
	c.writeMu.Unlock()

	c.logger.Info().Str("url", c.url).Msg("live channel open")
	c.handler.OnOpen()

	if c.pingInterval > 0 {
		c.extendReadDeadline(conn)
		go c.pingLoop(ctx)
	}

	c.readLoop(conn)
}

func (c *Channel) readLoop(conn *websocket.Conn) {
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			c.handleReadError(err)
			return
		}
		if c.pingInterval > 0 {
			c.extendReadDeadline(conn)
		}
		c.dispatch(data)
	}
}

func (c *Channel) handleReadError(err error) {
	if c.State() == StateClosed {
		return
	}
	if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
		c.logger.Info().Msg("live channel closed by backend")
		c.shutdown(nil, false)
		return
	}
	c.logger.Error().Err(err).Msg("live channel error")
	c.shutdown(err, false)
}

// dispatch routes one inbound frame to the handler method of its type.
func (c *Channel) dispatch(data []byte) {
	frame, err := decodeInbound(data)
	if err != nil {
		c.logger.Warn().Err(err).Int("bytes", len(data)).Msg("dropping inbound envelope")
		return
	}

	c.dispatchMu.Lock()
	defer c.dispatchMu.Unlock()

	switch frame.Type {
	case TypeAIResponse:
		c.handler.OnAIResponse(frame.aiResponse())
	case TypeConnected:
		c.handler.OnConnected(Connected{Message: frame.Message, SessionID: frame.SessionID})
	case TypeError:
		c.logger.Warn().Str("message", frame.Message).Msg("backend reported error")
		c.handler.OnServerError(ServerError{Message: frame.Message})
	case TypePong:
	default:
		c.logger.Debug().Str("type", frame.Type).Msg("ignoring envelope")
	}
}

// pingLoop 定期发送 ping 消息
func (c *Channel) pingLoop(ctx context.Context) {
	ticker := time.NewTicker(c.pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := c.write(Envelope{Type: TypePing}); err != nil {
				if !errors.Is(err, ErrNotOpen) {
					c.logger.Error().Err(err).Msg("keepalive failed")
					c.shutdown(err, false)
				}
				return
			}
		}
	}
}

// extendReadDeadline allows two missed keepalive rounds before the read fails.
func (c *Channel) extendReadDeadline(conn *websocket.Conn) {
	_ = conn.SetReadDeadline(time.Now().Add(2*c.pingInterval + c.writeTimeout))
}

// shutdown moves the channel to Closed once and notifies the handler.
func (c *Channel) shutdown(cause error, graceful bool) {
	first := false
	c.closeOnce.Do(func() { first = true })
	if !first {
		return
	}

	c.state.Store(int32(StateClosed))
	c.cancel()

	c.writeMu.Lock()
	if c.conn != nil {
		if graceful {
			msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "meeting ended")
			_ = c.conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(closeGracePeriod))
		}
		_ = c.conn.Close()
	}
	c.writeMu.Unlock()

	c.handler.OnClose(cause)
}
