// internal/notify/channel.go
package notify

import (
	"context"
	"fmt"
	"net/url"
	"sync"
	"time"

	wstypes "ebeauty-client/internal/domain/websocket"
	xerrors "ebeauty-client/internal/pkg/errors"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512 * 1024 // 512KB

	defaultReconnectMin = 500 * time.Millisecond
	defaultReconnectMax = 30 * time.Second
)

// Handler receives server-pushed events. Handlers run on the read loop and
// must not call Disconnect synchronously.
type Handler func(msg *wstypes.WSMessage)

// TokenSource supplies the bearer token used when dialing
type TokenSource func() string

type Config struct {
	URL              string
	HandshakeTimeout time.Duration
	// ReconnectMin and ReconnectMax bound the backoff between redials
	// after the server or network drops the connection
	ReconnectMin     time.Duration
	ReconnectMax     time.Duration
}

// link is one Connect..Disconnect span for a user. It survives dropped
// connections; its goroutines stop when ctx is cancelled.
type link struct {
	userID string
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// Channel is the realtime connection for the signed-in user. There is at
// most one live connection; it joins the room named by the user id and
// redials on its own when dropped.
type Channel struct {
	url          string
	dialer       *websocket.Dialer
	logger       *zap.Logger
	reconnectMin time.Duration
	reconnectMax time.Duration

	tokenMu sync.RWMutex
	token   TokenSource

	mu   sync.Mutex
	link *link
	conn *websocket.Conn

	writeMu sync.Mutex

	subMu   sync.RWMutex
	subs    map[wstypes.EventType]map[uint64]Handler
	nextSub uint64
}

func NewChannel(cfg Config, logger *zap.Logger) *Channel {
	if logger == nil {
		logger = zap.NewNop()
	}
	timeout := cfg.HandshakeTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	minWait, maxWait := cfg.ReconnectMin, cfg.ReconnectMax
	if minWait <= 0 {
		minWait = defaultReconnectMin
	}
	if maxWait < minWait {
		maxWait = max(defaultReconnectMax, minWait)
	}
	return &Channel{
		url:          cfg.URL,
		dialer:       &websocket.Dialer{HandshakeTimeout: timeout},
		logger:       logger,
		reconnectMin: minWait,
		reconnectMax: maxWait,
		subs:         make(map[wstypes.EventType]map[uint64]Handler),
	}
}

// SetTokenSource sets where Connect reads the session token from
func (c *Channel) SetTokenSource(fn TokenSource) {
	c.tokenMu.Lock()
	c.token = fn
	c.tokenMu.Unlock()
}

// Connect opens the connection for userID and joins its room. Calling it
// again for the same user is a no-op, also while a dropped connection is
// being redialed; a different user replaces the current connection.
func (c *Channel) Connect(ctx context.Context, userID string) error {
	if userID == "" {
		return fmt.Errorf("%w: empty user id", xerrors.ErrInvalidInput)
	}

	c.mu.Lock()
	var previous string
	if c.link != nil {
		previous = c.link.userID
	}
	c.mu.Unlock()

	if previous == userID {
		return nil
	}
	if previous != "" {
		c.logger.Warn("notification channel switching user",
			zap.String("from_user_id", previous),
			zap.String("to_user_id", userID),
		)
		c.Disconnect()
	}

	conn, err := c.dial(ctx)
	if err != nil {
		return err
	}

	linkCtx, cancel := context.WithCancel(context.Background())
	l := &link{userID: userID, ctx: linkCtx, cancel: cancel}

	c.mu.Lock()
	if c.link != nil {
		// lost a race with another Connect
		c.mu.Unlock()
		cancel()
		conn.Close()
		return nil
	}
	c.link = l
	c.attachLocked(l, conn)
	c.mu.Unlock()

	if err := c.join(conn, userID); err != nil {
		c.Disconnect()
		return fmt.Errorf("failed to join room: %w", err)
	}

	c.logger.Info("notification channel connected", zap.String("user_id", userID))
	return nil
}

// Disconnect closes the connection, stops any redial in progress, waits
// for the background loops to exit and drops every subscription. Safe to
// call when not connected.
func (c *Channel) Disconnect() {
	c.mu.Lock()
	l, conn := c.link, c.conn
	c.link, c.conn = nil, nil
	c.mu.Unlock()

	if l != nil {
		l.cancel()
		if conn != nil {
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, "logout"),
				time.Now().Add(writeWait))
			conn.Close()
		}
		l.wg.Wait()
		c.logger.Info("notification channel disconnected", zap.String("user_id", l.userID))
	}

	c.subMu.Lock()
	c.subs = make(map[wstypes.EventType]map[uint64]Handler)
	c.subMu.Unlock()
}

// Subscribe registers handler for event. The returned func removes it and
// may be called more than once.
func (c *Channel) Subscribe(event wstypes.EventType, handler Handler) (unsubscribe func()) {
	c.subMu.Lock()
	id := c.nextSub
	c.nextSub++
	if c.subs[event] == nil {
		c.subs[event] = make(map[uint64]Handler)
	}
	c.subs[event][id] = handler
	c.subMu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			c.subMu.Lock()
			delete(c.subs[event], id)
			c.subMu.Unlock()
		})
	}
}

// Send writes a message on the open connection
func (c *Channel) Send(msg *wstypes.WSMessage) error {
	c.mu.Lock()
	conn := c.conn
	c.mu.Unlock()

	if conn == nil {
		return xerrors.ErrNotConnected
	}
	return c.write(conn, msg)
}

// Connected reports the user the channel belongs to and whether a
// connection is currently open. While a dropped connection is being
// redialed it returns the user and false.
func (c *Channel) Connected() (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.link == nil {
		return "", false
	}
	return c.link.userID, c.conn != nil
}

// ========== Loops ==========

// attachLocked makes conn the live connection of l and starts its loops.
// c.mu must be held.
func (c *Channel) attachLocked(l *link, conn *websocket.Conn) {
	c.conn = conn
	done := make(chan struct{})
	l.wg.Add(2)
	go c.readLoop(l, conn, done)
	go c.pingLoop(l, conn, done)
}

func (c *Channel) readLoop(l *link, conn *websocket.Conn, done chan struct{}) {
	defer l.wg.Done()
	defer close(done)

	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if l.ctx.Err() == nil {
				c.dropped(l, conn, err)
			}
			return
		}

		msg, err := wstypes.ParseMessage(data)
		if err != nil {
			c.logger.Warn("discarding malformed notification", zap.Error(err))
			continue
		}
		c.dispatch(msg)
	}
}

func (c *Channel) pingLoop(l *link, conn *websocket.Conn, done chan struct{}) {
	defer l.wg.Done()
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-l.ctx.Done():
			return
		case <-done:
			return
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				return
			}
		}
	}
}

func (c *Channel) dispatch(msg *wstypes.WSMessage) {
	c.subMu.RLock()
	handlers := make([]Handler, 0, len(c.subs[msg.Type]))
	for _, h := range c.subs[msg.Type] {
		handlers = append(handlers, h)
	}
	c.subMu.RUnlock()

	if msg.Type == wstypes.EventTypeError {
		var data wstypes.ErrorData
		if err := msg.Bind(&data); err == nil {
			c.logger.Warn("notification server error", zap.String("code", data.Code), zap.String("message", data.Message))
		}
	}

	for _, h := range handlers {
		h(msg)
	}
}

// dropped handles a connection the server or network closed underneath
// us and starts redialing for the same user. Runs on the read loop.
func (c *Channel) dropped(l *link, conn *websocket.Conn, err error) {
	c.mu.Lock()
	current := c.link == l
	if current && c.conn == conn {
		c.conn = nil
	}
	if current {
		l.wg.Add(1)
	}
	c.mu.Unlock()

	conn.Close()
	if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
		c.logger.Warn("notification channel lost", zap.String("user_id", l.userID), zap.Error(err))
	} else {
		c.logger.Info("notification channel closed by server", zap.String("user_id", l.userID))
	}

	if current {
		go c.reconnect(l)
	}
}

// reconnect redials with exponential backoff until a connection is back
// or the link is cancelled. Subscriptions are kept across the gap.
func (c *Channel) reconnect(l *link) {
	defer l.wg.Done()

	wait := c.reconnectMin
	for attempt := 1; ; attempt++ {
		timer := time.NewTimer(wait)
		select {
		case <-l.ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
		}

		conn, err := c.dial(l.ctx)
		if err != nil {
			if l.ctx.Err() != nil {
				return
			}
			c.logger.Debug("notification channel redial failed",
				zap.String("user_id", l.userID),
				zap.Int("attempt", attempt),
				zap.Duration("next_wait", min(wait*2, c.reconnectMax)),
				zap.Error(err),
			)
			wait = min(wait*2, c.reconnectMax)
			continue
		}

		c.mu.Lock()
		if c.link != l || l.ctx.Err() != nil {
			c.mu.Unlock()
			conn.Close()
			return
		}
		c.attachLocked(l, conn)
		c.mu.Unlock()

		// a failed join closes conn; the read loop then starts over
		if err := c.join(conn, l.userID); err != nil {
			c.logger.Warn("failed to rejoin room", zap.String("user_id", l.userID), zap.Error(err))
			conn.Close()
			return
		}
		c.logger.Info("notification channel reconnected",
			zap.String("user_id", l.userID),
			zap.Int("attempts", attempt),
		)
		return
	}
}

func (c *Channel) dial(ctx context.Context) (*websocket.Conn, error) {
	endpoint, err := c.endpoint()
	if err != nil {
		return nil, err
	}
	conn, _, err := c.dialer.DialContext(ctx, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: dial notification channel: %w", xerrors.ErrUnreachable, err)
	}
	conn.SetReadLimit(maxMessageSize)
	return conn, nil
}

func (c *Channel) join(conn *websocket.Conn, userID string) error {
	return c.write(conn, wstypes.NewMessage(wstypes.EventTypeJoinRoom, wstypes.JoinRoomRequest{UserID: userID}))
}

func (c *Channel) write(conn *websocket.Conn, msg *wstypes.WSMessage) error {
	data, err := msg.ToJSON()
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	conn.SetWriteDeadline(time.Now().Add(writeWait))
	return conn.WriteMessage(websocket.TextMessage, data)
}

func (c *Channel) endpoint() (string, error) {
	u, err := url.Parse(c.url)
	if err != nil {
		return "", fmt.Errorf("invalid socket url %q: %w", c.url, err)
	}

	c.tokenMu.RLock()
	source := c.token
	c.tokenMu.RUnlock()

	if source != nil {
		if token := source(); token != "" {
			q := u.Query()
			q.Set("token", token)
			u.RawQuery = q.Encode()
		}
	}
	return u.String(), nil
}
