// internal/service/booking/booking.go
package booking

import (
	"context"
	"fmt"
	"strings"
	"time"

	"ebeauty-client/internal/domain/auth"
	"ebeauty-client/internal/domain/catalog"
	wstypes "ebeauty-client/internal/domain/websocket"
	xerrors "ebeauty-client/internal/pkg/errors"

	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"
)

// Notifier pushes realtime events into a user's room
type Notifier interface {
	SendToUser(userID string, eventType wstypes.EventType, data interface{})
}

type BookingService struct {
	artists  catalog.ArtistRepository
	bookings catalog.BookingRepository
	users    auth.Repository
	notifier Notifier
	logger   *zap.Logger
	now      func() time.Time
}

func NewBookingService(
	artists catalog.ArtistRepository,
	bookings catalog.BookingRepository,
	users auth.Repository,
	notifier Notifier,
	logger *zap.Logger,
) *BookingService {
	return &BookingService{
		artists:  artists,
		bookings: bookings,
		users:    users,
		notifier: notifier,
		logger:   logger,
		now:      time.Now,
	}
}

// Create books a service for a client and alerts the artist
func (s *BookingService) Create(ctx context.Context, clientID string, req *catalog.CreateBookingRequest) (*catalog.Booking, error) {
	if strings.TrimSpace(req.Address) == "" {
		return nil, xerrors.Display("Address is required", xerrors.ErrInvalidInput)
	}
	if !req.BookingTime.After(s.now()) {
		return nil, xerrors.Display("Booking time must be in the future", xerrors.ErrInvalidInput)
	}

	service, err := s.artists.FindService(ctx, req.ServiceID)
	if err != nil {
		return nil, xerrors.Display("Service not found", err)
	}
	if service.Artist != req.ArtistID {
		return nil, xerrors.Display("Service is not offered by this artist", xerrors.ErrInvalidInput)
	}

	client, err := s.users.FindByID(ctx, clientID)
	if err != nil {
		return nil, fmt.Errorf("failed to load client: %w", err)
	}

	b := &catalog.Booking{
		ID:          ulid.Make().String(),
		ClientID:    clientID,
		ArtistID:    req.ArtistID,
		ServiceID:   service.ID,
		Location:    catalog.Location{Address: strings.TrimSpace(req.Address)},
		BookingTime: req.BookingTime.UTC(),
		Status:      catalog.BookingPending,
		TotalAmount: service.Price,
		CreatedAt:   s.now().UTC(),
	}
	if err := s.bookings.CreateBooking(ctx, b); err != nil {
		return nil, fmt.Errorf("failed to create booking: %w", err)
	}

	s.notifier.SendToUser(b.ArtistID, wstypes.EventTypeNewBookingRequest, wstypes.BookingRequestData{
		BookingID:   b.ID,
		ClientID:    clientID,
		ClientName:  client.FullName(),
		ServiceID:   service.ID,
		ServiceName: service.Name,
		Address:     b.Location.Address,
		BookingTime: b.BookingTime,
		TotalAmount: b.TotalAmount,
	})

	s.logger.Info("booking created",
		zap.String("booking_id", b.ID),
		zap.String("client_id", clientID),
		zap.String("artist_id", b.ArtistID),
	)
	return b, nil
}

// Respond confirms or cancels a pending booking and tells the client
func (s *BookingService) Respond(ctx context.Context, artistID string, req catalog.RespondBookingRequest) (*catalog.Booking, error) {
	b, err := s.bookings.FindBooking(ctx, req.BookingID)
	if err != nil {
		return nil, xerrors.Display("Booking not found", err)
	}
	if b.ArtistID != artistID {
		return nil, xerrors.Display("Booking belongs to another artist", xerrors.ErrForbidden)
	}
	if b.Status != catalog.BookingPending {
		return nil, xerrors.Display(fmt.Sprintf("Booking is already %s", strings.ToLower(string(b.Status))), xerrors.ErrInvalidInput)
	}

	status := catalog.BookingCancelled
	if req.Accept {
		status = catalog.BookingConfirmed
	}
	if err := s.bookings.UpdateBookingStatus(ctx, b.ID, status); err != nil {
		return nil, fmt.Errorf("failed to update booking: %w", err)
	}
	b.Status = status

	s.notifier.SendToUser(b.ClientID, wstypes.EventTypeBookingStatus, wstypes.BookingStatusData{
		BookingID: b.ID,
		Status:    string(status),
	})
	return b, nil
}
