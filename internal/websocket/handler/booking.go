// internal/websocket/handler/booking.go
package handler

import (
	"context"
	"fmt"

	"ebeauty-client/internal/domain/auth"
	"ebeauty-client/internal/domain/catalog"
	wstypes "ebeauty-client/internal/domain/websocket"
	xerrors "ebeauty-client/internal/pkg/errors"
	ws "ebeauty-client/internal/websocket"

	"go.uber.org/zap"
)

// BookingResponder is the booking use case an artist answers through
type BookingResponder interface {
	Respond(ctx context.Context, artistID string, req catalog.RespondBookingRequest) (*catalog.Booking, error)
}

type BookingHandler struct {
	bookings BookingResponder
	logger   *zap.Logger
}

func NewBookingHandler(bookings BookingResponder, logger *zap.Logger) *BookingHandler {
	return &BookingHandler{bookings: bookings, logger: logger}
}

// SupportedEvents returns events this handler supports
func (h *BookingHandler) SupportedEvents() []wstypes.EventType {
	return []wstypes.EventType{wstypes.EventTypeBookingRespond}
}

// HandleMessage accepts or declines a pending booking on the artist's behalf
func (h *BookingHandler) HandleMessage(ctx context.Context, client *ws.Client, msg *wstypes.WSMessage) error {
	if msg.Type != wstypes.EventTypeBookingRespond {
		return fmt.Errorf("unsupported event type: %s", msg.Type)
	}
	if client.Role() != string(auth.RoleArtist) {
		client.SendError("forbidden", "Only artists can respond to bookings", "")
		return nil
	}

	var req catalog.RespondBookingRequest
	if err := msg.Bind(&req); err != nil || req.BookingID == "" {
		client.SendError("invalid_request", "Invalid booking response", "")
		return nil
	}

	booking, err := h.bookings.Respond(ctx, client.UserID(), req)
	if err != nil {
		h.logger.Warn("booking response rejected",
			zap.String("artist_id", client.UserID()),
			zap.String("booking_id", req.BookingID),
			zap.Error(err),
		)
		client.SendError("booking_respond_failed", xerrors.DisplayMessage(err), "")
		return nil
	}

	client.SendMessage(wstypes.NewMessage(wstypes.EventTypeBookingStatus, wstypes.BookingStatusData{
		BookingID: booking.ID,
		Status:    string(booking.Status),
	}))
	return nil
}
