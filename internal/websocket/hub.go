// internal/websocket/hub.go
package websocket

import (
	"context"
	"fmt"
	"sync"

	wstypes "ebeauty-client/internal/domain/websocket"
	"ebeauty-client/internal/pkg/jwt"

	"go.uber.org/zap"
)

// Hub tracks connected clients by user id and delivers messages to the
// user rooms they joined.
type Hub struct {
	clients map[string]map[*Client]bool
	mu      sync.RWMutex

	Register   chan *Client
	unregister chan *Client
	broadcast  chan *RoomMessage
	done       chan struct{}

	handlers *HandlerRegistry
	verifier TokenVerifier
	logger   *zap.Logger
}

// TokenVerifier validates the token a socket connects with
type TokenVerifier interface {
	Verify(token string) (*jwt.Claims, error)
}

// RoomMessage is delivered to every client that joined Room
type RoomMessage struct {
	Room    string
	Message *wstypes.WSMessage
}

func NewHub(verifier TokenVerifier, logger *zap.Logger) *Hub {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Hub{
		clients:    make(map[string]map[*Client]bool),
		Register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan *RoomMessage, 256),
		done:       make(chan struct{}),
		handlers:   NewHandlerRegistry(),
		verifier:   verifier,
		logger:     logger,
	}
}

// AuthenticateClient validates the JWT a socket presented
func (h *Hub) AuthenticateClient(token string) (ClientAuth, error) {
	claims, err := h.verifier.Verify(token)
	if err != nil {
		return ClientAuth{}, fmt.Errorf("%w: %w", ErrUnauthorized, err)
	}
	return ClientAuth{
		UserID: claims.UserID(),
		Role:   claims.Role,
		Email:  claims.Email,
		JTI:    claims.ID,
	}, nil
}

// RegisterHandler registers a message handler
func (h *Hub) RegisterHandler(handler MessageHandler) {
	h.handlers.Register(handler)
}

func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)

	for {
		select {
		case <-ctx.Done():
			h.shutdown()
			return

		case client := <-h.Register:
			h.registerClient(client)

		case client := <-h.unregister:
			h.unregisterClient(client)

		case msg := <-h.broadcast:
			h.deliver(msg)
		}
	}
}

func (h *Hub) registerClient(client *Client) {
	h.mu.Lock()
	if h.clients[client.UserID()] == nil {
		h.clients[client.UserID()] = make(map[*Client]bool)
	}
	h.clients[client.UserID()][client] = true
	total := h.totalClients()
	h.mu.Unlock()

	h.logger.Info("websocket client connected",
		zap.String("user_id", client.UserID()),
		zap.String("role", client.Role()),
		zap.Int("total", total),
	)

	client.SendMessage(wstypes.NewMessage(wstypes.EventTypeConnected, map[string]interface{}{
		"user_id": client.UserID(),
		"role":    client.Role(),
	}))
}

func (h *Hub) unregisterClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	clients, ok := h.clients[client.UserID()]
	if !ok || !clients[client] {
		return
	}
	delete(clients, client)
	client.Close()
	if len(clients) == 0 {
		delete(h.clients, client.UserID())
	}

	h.logger.Info("websocket client disconnected",
		zap.String("user_id", client.UserID()),
		zap.Int("total", h.totalClients()),
	)
}

func (h *Hub) deliver(msg *RoomMessage) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	delivered := 0
	for client := range h.clients[msg.Room] {
		if client.InRoom(msg.Room) {
			client.SendMessage(msg.Message)
			delivered++
		}
	}
	h.logger.Debug("room message",
		zap.String("room", msg.Room),
		zap.String("type", string(msg.Message.Type)),
		zap.Int("delivered", delivered),
	)
}

// SendToUser queues msg for the user's room
func (h *Hub) SendToUser(userID string, eventType wstypes.EventType, data interface{}) {
	msg := &RoomMessage{Room: userID, Message: wstypes.NewMessage(eventType, data)}
	select {
	case h.broadcast <- msg:
	case <-h.done:
	}
}

// ForceLogout tells every connection of the user to end its session
func (h *Hub) ForceLogout(userID, reason string) {
	h.SendToUser(userID, wstypes.EventTypeForceLogout, wstypes.SessionEventData{
		Reason:  reason,
		Message: "You have been logged out",
	})
}

func (h *Hub) ConnectedClients(userID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[userID])
}

// RoomMembers counts the connections that joined room
func (h *Hub) RoomMembers(room string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	n := 0
	for client := range h.clients[room] {
		if client.InRoom(room) {
			n++
		}
	}
	return n
}

func (h *Hub) TotalClients() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.totalClients()
}

func (h *Hub) totalClients() int {
	total := 0
	for _, clients := range h.clients {
		total += len(clients)
	}
	return total
}

func (h *Hub) shutdown() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for _, clients := range h.clients {
		for client := range clients {
			client.Close()
		}
	}
	h.clients = make(map[string]map[*Client]bool)
}

// Attach registers client with the running hub. It fails once the hub has
// shut down.
func (h *Hub) Attach(client *Client) error {
	select {
	case h.Register <- client:
		return nil
	case <-h.done:
		return fmt.Errorf("websocket hub stopped")
	}
}
