// internal/service/auth/auth.go
package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"ebeauty-client/internal/domain/auth"
	xerrors "ebeauty-client/internal/pkg/errors"
	"ebeauty-client/internal/pkg/jwt"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// LoginLimiter throttles failed logins per email
type LoginLimiter interface {
	Allow(ctx context.Context, email string) (bool, error)
	Reset(ctx context.Context, email string) error
	Window() time.Duration
}

type AuthService struct {
	repo        auth.Repository
	generator   *jwt.Generator
	rateLimiter LoginLimiter
	logger      *zap.Logger
}

// NewAuthService wires the sandbox login. rateLimiter may be nil.
func NewAuthService(repo auth.Repository, generator *jwt.Generator, rateLimiter LoginLimiter, logger *zap.Logger) *AuthService {
	return &AuthService{
		repo:        repo,
		generator:   generator,
		rateLimiter: rateLimiter,
		logger:      logger,
	}
}

// ========== Login ==========

// Login checks the password and issues an access token
func (s *AuthService) Login(ctx context.Context, req *auth.LoginRequest) (*auth.LoginResponse, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if email == "" || req.Password == "" {
		return nil, xerrors.Display("Email and password are required", xerrors.ErrInvalidInput)
	}

	if s.rateLimiter != nil {
		allowed, err := s.rateLimiter.Allow(ctx, email)
		if err != nil {
			s.logger.Warn("rate limiter unavailable", zap.Error(err))
		} else if !allowed {
			return nil, xerrors.Display(
				fmt.Sprintf("Too many login attempts, please try again in %d minutes", int(s.rateLimiter.Window().Minutes())),
				xerrors.ErrRateLimited,
			)
		}
	}

	account, err := s.repo.FindByEmail(ctx, email)
	if errors.Is(err, xerrors.ErrNotFound) {
		return nil, xerrors.Display("Invalid credentials", xerrors.ErrUnauthorized)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find account: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(req.Password)); err != nil {
		return nil, xerrors.Display("Invalid credentials", xerrors.ErrUnauthorized)
	}

	switch account.Status {
	case "suspended":
		return nil, xerrors.Display("Account is suspended", xerrors.ErrForbidden)
	case "pending":
		return nil, xerrors.Display("Account is awaiting approval", xerrors.ErrForbidden)
	}

	if s.rateLimiter != nil {
		if err := s.rateLimiter.Reset(ctx, email); err != nil {
			s.logger.Warn("failed to reset login attempts", zap.Error(err))
		}
	}

	token, jti, err := s.generator.GenerateAccessToken(account.UserRecord)
	if err != nil {
		return nil, fmt.Errorf("failed to generate access token: %w", err)
	}

	s.logger.Info("user logged in",
		zap.String("user_id", account.ID),
		zap.String("role", string(account.Role)),
		zap.String("jti", jti),
	)

	return &auth.LoginResponse{Token: token, User: account.UserRecord}, nil
}

// Me returns the record of the authenticated user
func (s *AuthService) Me(ctx context.Context, userID string) (*auth.UserRecord, error) {
	account, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &account.UserRecord, nil
}

// HashPassword hashes a plaintext password for storage
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hash), nil
}
