// internal/pkg/credential/store.go
package credential

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"ebeauty-client/internal/domain/auth"

	"go.uber.org/zap"
)

// Fixed storage keys; changing them logs every existing install out.
const (
	TokenKey = "userToken"
	UserKey  = "userData"
)

// Store keeps the session token and the serialised user record in a KV.
// It is a synchronisation target only: the session manager owns the live
// session.
type Store struct {
	kv     KV
	logger *zap.Logger
}

func NewStore(kv KV, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{kv: kv, logger: logger}
}

// Read returns the persisted token and user. Any failure (missing entry,
// storage error, corrupt blob, unknown role) is reported as ok=false.
func (s *Store) Read(ctx context.Context) (string, *auth.UserRecord, bool) {
	token, err := s.kv.Get(ctx, TokenKey)
	if err != nil {
		if !errors.Is(err, ErrKeyNotFound) {
			s.logger.Warn("failed to read stored token", zap.Error(err))
		}
		return "", nil, false
	}

	blob, err := s.kv.Get(ctx, UserKey)
	if err != nil {
		if !errors.Is(err, ErrKeyNotFound) {
			s.logger.Warn("failed to read stored user", zap.Error(err))
		}
		return "", nil, false
	}

	if token == "" || blob == "" {
		return "", nil, false
	}

	user, err := decodeUser(blob)
	if err != nil {
		s.logger.Warn("discarding unreadable stored user", zap.Error(err))
		return "", nil, false
	}

	return token, user, true
}

// Write persists token and user in one write.
func (s *Store) Write(ctx context.Context, token string, user auth.UserRecord) error {
	blob, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("failed to encode user: %w", err)
	}
	return s.kv.SetMany(ctx, map[string]string{
		UserKey:  string(blob),
		TokenKey: token,
	})
}

// Clear removes both entries.
func (s *Store) Clear(ctx context.Context) error {
	return s.kv.Delete(ctx, TokenKey, UserKey)
}

func decodeUser(blob string) (*auth.UserRecord, error) {
	var user auth.UserRecord
	if err := json.Unmarshal([]byte(blob), &user); err != nil {
		return nil, err
	}
	if user.ID == "" {
		return nil, fmt.Errorf("stored user has no id")
	}
	if !user.Role.Valid() {
		return nil, fmt.Errorf("stored user has unknown role %q", user.Role)
	}
	return &user, nil
}
