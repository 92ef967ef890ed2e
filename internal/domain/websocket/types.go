// internal/domain/websocket/types.go
package websocket

import (
	"encoding/json"
	"time"

	"github.com/oklog/ulid/v2"
)

// EventType represents different real-time event types
type EventType string

const (
	// Connection events
	EventTypePing         EventType = "ping"
	EventTypePong         EventType = "pong"
	EventTypeConnected    EventType = "connected"
	EventTypeDisconnected EventType = "disconnected"
	EventTypeError        EventType = "error"

	// Room events (client -> server, server acks with joined/left)
	EventTypeJoinRoom   EventType = "room:join"
	EventTypeRoomJoined EventType = "room:joined"
	EventTypeLeaveRoom  EventType = "room:leave"

	// Booking events
	EventTypeNewBookingRequest EventType = "booking:new_request" // server -> artist
	EventTypeBookingRespond    EventType = "booking:respond"     // artist -> server
	EventTypeBookingStatus     EventType = "booking:status"      // server -> client

	// Generic notification (server -> client)
	EventTypeNotification EventType = "notification"

	// Session events
	EventTypeForceLogout EventType = "session:force_logout"
)

// WSMessage is the universal message format
type WSMessage struct {
	Type      EventType              `json:"type"`
	Data      interface{}            `json:"data,omitempty"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
	ID        string                 `json:"id,omitempty"`
}

// JoinRoomRequest asks the server to route a user's events to this connection
type JoinRoomRequest struct {
	UserID string `json:"user_id"`
}

// ErrorData for error events
type ErrorData struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}

// BookingRequestData is pushed to an artist when a client books them
type BookingRequestData struct {
	BookingID   string    `json:"booking_id"`
	ClientID    string    `json:"client_id"`
	ClientName  string    `json:"client_name"`
	ServiceID   string    `json:"service_id"`
	ServiceName string    `json:"service_name"`
	Address     string    `json:"address"`
	BookingTime time.Time `json:"booking_time"`
	TotalAmount int64     `json:"total_amount"`
}

// BookingStatusData is pushed to a client when the artist answers
type BookingStatusData struct {
	BookingID string `json:"booking_id"`
	Status    string `json:"status"`
}

// NotificationData for notification events
type NotificationData struct {
	Title     string                 `json:"title"`
	Message   string                 `json:"message"`
	Type      string                 `json:"type"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	CreatedAt time.Time              `json:"created_at"`
}

// SessionEventData for session events
type SessionEventData struct {
	Reason  string `json:"reason"`
	Message string `json:"message"`
}

// NewMessage stamps a message with the current time and a fresh ULID
func NewMessage(eventType EventType, data interface{}) *WSMessage {
	return &WSMessage{
		Type:      eventType,
		Data:      data,
		Timestamp: time.Now(),
		ID:        ulid.Make().String(),
	}
}

func (m *WSMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// Bind decodes the generic Data payload into target
func (m *WSMessage) Bind(target interface{}) error {
	raw, err := json.Marshal(m.Data)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, target)
}

func ParseMessage(data []byte) (*WSMessage, error) {
	var msg WSMessage
	err := json.Unmarshal(data, &msg)
	return &msg, err
}
