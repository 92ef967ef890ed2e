// internal/websocket/client.go
package websocket

import (
	"context"
	"sync"
	"time"

	wstypes "ebeauty-client/internal/domain/websocket"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512 * 1024 // 512KB
	sendBuffer     = 256
)

// ClientAuth is the identity proven by the connection's token
type ClientAuth struct {
	UserID string
	Role   string
	Email  string
	JTI    string
}

// Client is one socket connection on the hub
type Client struct {
	hub    *Hub
	conn   *websocket.Conn
	send   chan []byte
	auth   ClientAuth
	logger *zap.Logger

	rooms   map[string]bool
	roomsMu sync.RWMutex

	ctx       context.Context
	cancel    context.CancelFunc
	closeOnce sync.Once
}

func NewClient(hub *Hub, conn *websocket.Conn, auth ClientAuth) *Client {
	ctx, cancel := context.WithCancel(context.Background())

	return &Client{
		hub:    hub,
		conn:   conn,
		send:   make(chan []byte, sendBuffer),
		auth:   auth,
		logger: hub.logger.With(zap.String("user_id", auth.UserID)),
		rooms:  make(map[string]bool),
		ctx:    ctx,
		cancel: cancel,
	}
}

func (c *Client) UserID() string { return c.auth.UserID }
func (c *Client) Role() string   { return c.auth.Role }

// Join adds the client to room. Clients may only join their own user room.
func (c *Client) Join(room string) error {
	if room != c.auth.UserID {
		return ErrRoomDenied
	}
	c.roomsMu.Lock()
	c.rooms[room] = true
	c.roomsMu.Unlock()
	return nil
}

func (c *Client) Leave(room string) {
	c.roomsMu.Lock()
	delete(c.rooms, room)
	c.roomsMu.Unlock()
}

func (c *Client) InRoom(room string) bool {
	c.roomsMu.RLock()
	defer c.roomsMu.RUnlock()
	return c.rooms[room]
}

// ReadPump handles incoming messages from client
func (c *Client) ReadPump() {
	defer func() {
		select {
		case c.hub.unregister <- c:
		case <-c.hub.done:
		}
		c.conn.Close()
	}()

	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				c.logger.Warn("websocket read error", zap.Error(err))
			}
			return
		}
		c.handleMessage(message)
	}
}

// WritePump handles outgoing messages to client
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case <-c.ctx.Done():
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return

		case message := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (c *Client) handleMessage(data []byte) {
	msg, err := wstypes.ParseMessage(data)
	if err != nil {
		c.SendError("invalid_message", "Failed to parse message", err.Error())
		return
	}

	handled, err := c.hub.handlers.Dispatch(c.ctx, c, msg)
	if err != nil {
		c.SendError("handler_error", "Failed to process message", err.Error())
		return
	}
	if handled {
		return
	}

	switch msg.Type {
	case wstypes.EventTypePing:
		c.SendMessage(wstypes.NewMessage(wstypes.EventTypePong, nil))

	case wstypes.EventTypeJoinRoom:
		var req wstypes.JoinRoomRequest
		if err := msg.Bind(&req); err != nil || req.UserID == "" {
			c.SendError("invalid_join", "Invalid room join request", "")
			return
		}
		if err := c.Join(req.UserID); err != nil {
			c.SendError("room_denied", "Cannot join this room", err.Error())
			return
		}
		c.logger.Debug("joined room", zap.String("room", req.UserID))
		c.SendMessage(wstypes.NewMessage(wstypes.EventTypeRoomJoined, req))

	case wstypes.EventTypeLeaveRoom:
		var req wstypes.JoinRoomRequest
		if err := msg.Bind(&req); err == nil {
			c.Leave(req.UserID)
		}

	default:
		c.SendError("unsupported_event", "Unsupported event", string(msg.Type))
	}
}

// SendMessage queues msg for the write pump. A client whose buffer is full
// is dropped.
func (c *Client) SendMessage(msg *wstypes.WSMessage) {
	data, err := msg.ToJSON()
	if err != nil {
		c.logger.Error("failed to marshal message", zap.Error(err))
		return
	}

	select {
	case c.send <- data:
	case <-c.ctx.Done():
	default:
		c.logger.Warn("send buffer full, dropping client")
		c.Close()
	}
}

// SendError sends an error message to the client
func (c *Client) SendError(code, message, details string) {
	c.SendMessage(wstypes.NewMessage(wstypes.EventTypeError, wstypes.ErrorData{
		Code:    code,
		Message: message,
		Details: details,
	}))
}

// Close stops the write pump, which closes the socket
func (c *Client) Close() {
	c.closeOnce.Do(c.cancel)
}
