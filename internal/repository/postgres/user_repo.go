// internal/repository/postgres/user_repo.go
package postgres

import (
	"context"
	"errors"
	"fmt"

	"ebeauty-client/internal/domain/auth"
	xerrors "ebeauty-client/internal/pkg/errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type UserRepository struct {
	db *pgxpool.Pool
}

func NewUserRepository(db *pgxpool.Pool) *UserRepository {
	return &UserRepository{db: db}
}

const selectAccount = `
	SELECT id, email, role, first_name, last_name, password_hash, status, created_at
	FROM users
`

// FindByEmail retrieves an account by email, case-insensitively
func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*auth.Account, error) {
	return r.findOne(ctx, selectAccount+`WHERE LOWER(email) = LOWER($1)`, email)
}

// FindByID retrieves an account by id
func (r *UserRepository) FindByID(ctx context.Context, id string) (*auth.Account, error) {
	return r.findOne(ctx, selectAccount+`WHERE id = $1`, id)
}

// Upsert creates or replaces an account
func (r *UserRepository) Upsert(ctx context.Context, a *auth.Account) error {
	query := `
		INSERT INTO users (id, email, role, first_name, last_name, password_hash, status)
		VALUES ($1, LOWER($2), $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO UPDATE SET
			email = EXCLUDED.email, role = EXCLUDED.role,
			first_name = EXCLUDED.first_name, last_name = EXCLUDED.last_name,
			password_hash = EXCLUDED.password_hash, status = EXCLUDED.status
	`
	_, err := r.db.Exec(ctx, query,
		a.ID, a.Email, string(a.Role), a.FirstName, a.LastName, a.PasswordHash, a.Status,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert user: %w", err)
	}
	return nil
}

func (r *UserRepository) findOne(ctx context.Context, query string, arg string) (*auth.Account, error) {
	var (
		a    auth.Account
		role string
	)
	err := r.db.QueryRow(ctx, query, arg).Scan(
		&a.ID, &a.Email, &role, &a.FirstName, &a.LastName, &a.PasswordHash, &a.Status, &a.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, xerrors.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	a.Role = auth.Role(role)
	return &a, nil
}
