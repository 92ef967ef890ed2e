// internal/repository/postgres/booking_repo.go
package postgres

import (
	"context"
	"errors"
	"fmt"

	"ebeauty-client/internal/domain/catalog"
	xerrors "ebeauty-client/internal/pkg/errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type BookingRepository struct {
	db *pgxpool.Pool
}

func NewBookingRepository(db *pgxpool.Pool) *BookingRepository {
	return &BookingRepository{db: db}
}

func (r *BookingRepository) CreateBooking(ctx context.Context, b *catalog.Booking) error {
	query := `
		INSERT INTO bookings (id, client_id, artist_id, service_id, address, booking_time, status, total_amount, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	_, err := r.db.Exec(ctx, query,
		b.ID, b.ClientID, b.ArtistID, b.ServiceID, b.Location.Address,
		b.BookingTime, string(b.Status), b.TotalAmount, b.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create booking: %w", err)
	}
	return nil
}

func (r *BookingRepository) FindBooking(ctx context.Context, id string) (*catalog.Booking, error) {
	query := `
		SELECT id, client_id, artist_id, service_id, address, booking_time, status, total_amount, created_at
		FROM bookings WHERE id = $1
	`
	var (
		b      catalog.Booking
		status string
	)
	err := r.db.QueryRow(ctx, query, id).Scan(
		&b.ID, &b.ClientID, &b.ArtistID, &b.ServiceID, &b.Location.Address,
		&b.BookingTime, &status, &b.TotalAmount, &b.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, xerrors.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find booking: %w", err)
	}
	b.Status = catalog.BookingStatus(status)
	return &b, nil
}

func (r *BookingRepository) UpdateBookingStatus(ctx context.Context, id string, status catalog.BookingStatus) error {
	tag, err := r.db.Exec(ctx, `UPDATE bookings SET status = $1 WHERE id = $2`, string(status), id)
	if err != nil {
		return fmt.Errorf("failed to update booking status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return xerrors.ErrNotFound
	}
	return nil
}
