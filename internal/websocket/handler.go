// internal/websocket/handler.go
package websocket

import (
	"context"
	"sync"

	wstypes "ebeauty-client/internal/domain/websocket"
)

// MessageHandler handles client-originated events for one domain
type MessageHandler interface {
	HandleMessage(ctx context.Context, client *Client, msg *wstypes.WSMessage) error
	SupportedEvents() []wstypes.EventType
}

// HandlerRegistry routes an event type to the handler that claimed it.
// A later registration for the same event replaces the earlier one.
type HandlerRegistry struct {
	mu       sync.RWMutex
	handlers map[wstypes.EventType]MessageHandler
}

func NewHandlerRegistry() *HandlerRegistry {
	return &HandlerRegistry{handlers: make(map[wstypes.EventType]MessageHandler)}
}

func (r *HandlerRegistry) Register(handler MessageHandler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, event := range handler.SupportedEvents() {
		r.handlers[event] = handler
	}
}

// Dispatch runs the handler for msg.Type. handled is false when no handler
// claimed the event, leaving it to the client's built-ins.
func (r *HandlerRegistry) Dispatch(ctx context.Context, client *Client, msg *wstypes.WSMessage) (handled bool, err error) {
	r.mu.RLock()
	handler, ok := r.handlers[msg.Type]
	r.mu.RUnlock()

	if !ok {
		return false, nil
	}
	return true, handler.HandleMessage(ctx, client, msg)
}
