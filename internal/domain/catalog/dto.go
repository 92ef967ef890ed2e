// internal/domain/catalog/dto.go
package catalog

import "time"

// CreateBookingRequest is sent by a client from the booking form
type CreateBookingRequest struct {
	ArtistID    string    `json:"artistId" binding:"required"`
	ServiceID   string    `json:"serviceId" binding:"required"`
	Address     string    `json:"address" binding:"required"`
	BookingTime time.Time `json:"bookingTime" binding:"required"`
}

// RespondBookingRequest is sent by an artist over the realtime channel
type RespondBookingRequest struct {
	BookingID string `json:"booking_id"`
	Accept    bool   `json:"accept"`
}
