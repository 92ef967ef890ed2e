// internal/domain/catalog/repository.go
package catalog

import "context"

type ArtistRepository interface {
	// ListArtists returns every artist, or only those offering category when set
	ListArtists(ctx context.Context, category string) ([]ArtistProfile, error)
	FindService(ctx context.Context, serviceID string) (*Service, error)
}

type BookingRepository interface {
	CreateBooking(ctx context.Context, b *Booking) error
	FindBooking(ctx context.Context, id string) (*Booking, error)
	UpdateBookingStatus(ctx context.Context, id string, status BookingStatus) error
}
