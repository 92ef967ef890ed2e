// internal/repository/postgres/catalog_repo.go
package postgres

import (
	"context"
	"errors"
	"fmt"

	"ebeauty-client/internal/domain/catalog"
	xerrors "ebeauty-client/internal/pkg/errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/lib/pq"
)

type CatalogRepository struct {
	db *pgxpool.Pool
}

func NewCatalogRepository(db *pgxpool.Pool) *CatalogRepository {
	return &CatalogRepository{db: db}
}

// ListArtists returns artists with their services. A non-empty category
// matches either the profile's categories or any service category.
func (r *CatalogRepository) ListArtists(ctx context.Context, category string) ([]catalog.ArtistProfile, error) {
	query := `
		SELECT u.id, u.first_name, u.last_name, p.profile_image, p.bio,
		       p.experience_years, p.average_rating, p.review_count, p.categories
		FROM artist_profiles p
		JOIN users u ON u.id = p.user_id
		WHERE u.status = 'active'
		  AND ($1 = '' OR $1 ILIKE ANY(p.categories)
		       OR EXISTS (SELECT 1 FROM services s WHERE s.artist_id = p.user_id AND s.category ILIKE $1))
		ORDER BY p.average_rating DESC, u.id
	`

	rows, err := r.db.Query(ctx, query, category)
	if err != nil {
		return nil, fmt.Errorf("failed to list artists: %w", err)
	}
	defer rows.Close()

	var (
		artists []catalog.ArtistProfile
		ids     []string
	)
	for rows.Next() {
		var (
			p          catalog.ArtistProfile
			categories []string
		)
		if err := rows.Scan(
			&p.ID, &p.FirstName, &p.LastName, &p.ProfileImage, &p.Bio,
			&p.ExperienceYears, &p.AverageRating, &p.ReviewCount, pq.Array(&categories),
		); err != nil {
			return nil, fmt.Errorf("failed to scan artist: %w", err)
		}
		p.Categories = categories
		artists = append(artists, p)
		ids = append(ids, p.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate artists: %w", err)
	}
	if len(artists) == 0 {
		return artists, nil
	}

	services, err := r.servicesFor(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i := range artists {
		artists[i].Services = services[artists[i].ID]
	}
	return artists, nil
}

// FindService retrieves a single service by id
func (r *CatalogRepository) FindService(ctx context.Context, serviceID string) (*catalog.Service, error) {
	query := `
		SELECT id, artist_id, category, name, description, price, duration
		FROM services WHERE id = $1
	`
	var s catalog.Service
	err := r.db.QueryRow(ctx, query, serviceID).Scan(
		&s.ID, &s.Artist, &s.Category, &s.Name, &s.Description, &s.Price, &s.Duration,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, xerrors.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find service: %w", err)
	}
	return &s, nil
}

// UpsertArtist stores the profile and replaces its services
func (r *CatalogRepository) UpsertArtist(ctx context.Context, p *catalog.ArtistProfile) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, `
		INSERT INTO artist_profiles (user_id, profile_image, bio, experience_years, average_rating, review_count, categories)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (user_id) DO UPDATE SET
			profile_image = EXCLUDED.profile_image, bio = EXCLUDED.bio,
			experience_years = EXCLUDED.experience_years, average_rating = EXCLUDED.average_rating,
			review_count = EXCLUDED.review_count, categories = EXCLUDED.categories
	`, p.ID, p.ProfileImage, p.Bio, p.ExperienceYears, p.AverageRating, p.ReviewCount, pq.Array(p.Categories))
	if err != nil {
		return fmt.Errorf("failed to upsert artist profile: %w", err)
	}

	if _, err := tx.Exec(ctx, `DELETE FROM services WHERE artist_id = $1`, p.ID); err != nil {
		return fmt.Errorf("failed to clear services: %w", err)
	}

	batch := &pgx.Batch{}
	for _, s := range p.Services {
		batch.Queue(`
			INSERT INTO services (id, artist_id, category, name, description, price, duration)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
		`, s.ID, p.ID, s.Category, s.Name, s.Description, s.Price, s.Duration)
	}
	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("failed to insert services: %w", err)
	}

	return tx.Commit(ctx)
}

func (r *CatalogRepository) servicesFor(ctx context.Context, artistIDs []string) (map[string][]catalog.Service, error) {
	query := `
		SELECT id, artist_id, category, name, description, price, duration
		FROM services
		WHERE artist_id = ANY($1)
		ORDER BY artist_id, name
	`
	rows, err := r.db.Query(ctx, query, pq.Array(artistIDs))
	if err != nil {
		return nil, fmt.Errorf("failed to list services: %w", err)
	}
	defer rows.Close()

	out := make(map[string][]catalog.Service)
	for rows.Next() {
		var s catalog.Service
		if err := rows.Scan(&s.ID, &s.Artist, &s.Category, &s.Name, &s.Description, &s.Price, &s.Duration); err != nil {
			return nil, fmt.Errorf("failed to scan service: %w", err)
		}
		out[s.Artist] = append(out[s.Artist], s)
	}
	return out, rows.Err()
}
