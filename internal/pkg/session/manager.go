// internal/pkg/session/manager.go
package session

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"sync"
	"time"

	"ebeauty-client/internal/domain/auth"
	xerrors "ebeauty-client/internal/pkg/errors"
	"ebeauty-client/internal/pkg/jwt"

	"go.uber.org/zap"
)

// CredentialStore persists the session between launches
type CredentialStore interface {
	Read(ctx context.Context) (string, *auth.UserRecord, bool)
	Write(ctx context.Context, token string, user auth.UserRecord) error
	Clear(ctx context.Context) error
}

// Authenticator verifies credentials against the remote API
type Authenticator interface {
	Login(ctx context.Context, email, password string) (*auth.LoginResponse, error)
}

// NotificationChannel is the realtime connection tied to the session
type NotificationChannel interface {
	Connect(ctx context.Context, userID string) error
	Disconnect()
}

// LoginLimiter throttles repeated login attempts for one email
type LoginLimiter interface {
	Allow(ctx context.Context, email string) (bool, error)
	Reset(ctx context.Context, email string) error
	Window() time.Duration
}

// attemptCounter is implemented by limiters that can report how many
// attempts are left in the current window
type attemptCounter interface {
	Remaining(ctx context.Context, email string) (int64, error)
}

// warnAttemptsLeft is the point from which a failed login mentions the
// attempts left before throttling
const warnAttemptsLeft = 2

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// Manager is the single owner of the session. Restore, Login and Logout
// run one at a time; Login and Logout wait for Restore to finish first.
type Manager struct {
	creds   CredentialStore
	api     Authenticator
	channel NotificationChannel
	limiter LoginLimiter
	logger  *zap.Logger

	// opMu serialises Restore/Login/Logout
	opMu sync.Mutex

	mu    sync.RWMutex
	state state

	restoreOnce sync.Once
	ready       chan struct{}

	watchMu   sync.Mutex
	watchers  map[uint64]func(View)
	nextWatch uint64
}

// NewManager creates a manager in the Loading state. limiter may be nil.
func NewManager(creds CredentialStore, api Authenticator, channel NotificationChannel, limiter LoginLimiter, logger *zap.Logger) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{
		creds:    creds,
		api:      api,
		channel:  channel,
		limiter:  limiter,
		logger:   logger,
		state:    state{loadState: Loading},
		ready:    make(chan struct{}),
		watchers: make(map[uint64]func(View)),
	}
}

// View returns a snapshot of the current session
func (m *Manager) View() View {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state.view()
}

// Ready is closed once Restore has completed
func (m *Manager) Ready() <-chan struct{} {
	return m.ready
}

// Watch registers fn to be called with the new view after every session
// transition. fn runs on the goroutine performing the operation and must
// not call Restore, Login or Logout itself.
func (m *Manager) Watch(fn func(View)) (cancel func()) {
	m.watchMu.Lock()
	id := m.nextWatch
	m.nextWatch++
	m.watchers[id] = fn
	m.watchMu.Unlock()

	return func() {
		m.watchMu.Lock()
		delete(m.watchers, id)
		m.watchMu.Unlock()
	}
}

// ========== Restore ==========

// Restore loads the persisted session. Only the first call does anything;
// it always ends in Ready, logged out if storage held nothing usable.
func (m *Manager) Restore(ctx context.Context) {
	m.restoreOnce.Do(func() {
		m.opMu.Lock()
		defer m.opMu.Unlock()
		defer close(m.ready)

		m.restore(ctx)
	})
}

func (m *Manager) restore(ctx context.Context) {
	token, user, ok := m.creds.Read(ctx)
	if ok && jwt.Expired(token, time.Now()) {
		m.logger.Info("stored session token expired", zap.String("user_id", user.ID))
		if err := m.creds.Clear(ctx); err != nil {
			m.logger.Warn("failed to clear expired session", zap.Error(err))
		}
		ok = false
	}

	if !ok {
		m.set(state{loadState: Ready})
		m.logger.Info("session restored", zap.Bool("authenticated", false))
		return
	}

	m.set(state{token: token, user: user, loadState: Ready})
	m.logger.Info("session restored",
		zap.Bool("authenticated", true),
		zap.String("user_id", user.ID),
		zap.String("role", string(user.Role)),
	)
	m.connect(ctx, user.ID)
}

// ========== Login ==========

// Login authenticates against the API. On failure the session is left as it
// was and the returned error carries a message suitable for display
// (see xerrors.DisplayMessage).
func (m *Manager) Login(ctx context.Context, email, password string) (auth.UserRecord, error) {
	email = strings.TrimSpace(email)
	if err := validateCredentials(email, password); err != nil {
		return auth.UserRecord{}, err
	}

	if err := m.waitRestored(ctx); err != nil {
		return auth.UserRecord{}, err
	}

	m.opMu.Lock()
	defer m.opMu.Unlock()

	if m.limiter != nil {
		allowed, err := m.limiter.Allow(ctx, email)
		if err != nil {
			m.logger.Warn("login limiter unavailable", zap.Error(err))
		} else if !allowed {
			return auth.UserRecord{}, xerrors.Display(
				fmt.Sprintf("Too many login attempts. Please try again in %d minutes.", int(m.limiter.Window().Minutes())),
				xerrors.ErrRateLimited,
			)
		}
	}

	resp, err := m.api.Login(ctx, email, password)
	if err != nil {
		m.logger.Warn("login failed", zap.String("email", email), zap.Error(err))
		if xerrors.DisplayMessage(err) == "" {
			err = xerrors.Display("Login failed.", err)
		}
		if errors.Is(err, xerrors.ErrUnauthorized) {
			err = m.withAttemptsLeft(ctx, email, err)
		}
		return auth.UserRecord{}, err
	}
	if resp == nil || resp.Token == "" || resp.User.ID == "" {
		m.logger.Error("login response missing token or user", zap.String("email", email))
		return auth.UserRecord{}, xerrors.Display("Login failed.", xerrors.ErrUnauthorized)
	}

	user := resp.User
	if !user.Role.Valid() {
		// kept as-is: the navigation gate refuses to pick a graph for it
		m.logger.Error("login returned unknown role",
			zap.String("user_id", user.ID),
			zap.String("role", string(user.Role)),
		)
	}

	if m.limiter != nil {
		if err := m.limiter.Reset(ctx, email); err != nil {
			m.logger.Warn("failed to reset login attempts", zap.Error(err))
		}
	}

	if err := m.creds.Write(ctx, resp.Token, user); err != nil {
		// the next cold start may come up logged out or stale
		m.logger.Warn("failed to persist session", zap.String("user_id", user.ID), zap.Error(err))
	}

	m.set(state{token: resp.Token, user: &user, loadState: Ready})
	m.logger.Info("user logged in", zap.String("user_id", user.ID), zap.String("role", string(user.Role)))
	m.connect(ctx, user.ID)

	return user, nil
}

// ========== Logout ==========

// Logout drops the realtime connection, clears storage and the session.
// It is safe to call while logged out. A Logout issued during an in-flight
// Login waits for it and then reverses it.
func (m *Manager) Logout(ctx context.Context) error {
	if err := m.waitRestored(ctx); err != nil {
		return err
	}

	m.opMu.Lock()
	defer m.opMu.Unlock()

	previous := m.View()

	// before the transition: nothing may reach the outgoing user's screens
	m.channel.Disconnect()

	if err := m.creds.Clear(ctx); err != nil {
		m.logger.Warn("failed to clear stored session", zap.Error(err))
	}

	m.set(state{loadState: Ready})
	if previous.User != nil {
		m.logger.Info("user logged out", zap.String("user_id", previous.User.ID))
	}
	return nil
}

// ========== Helpers ==========

func (m *Manager) waitRestored(ctx context.Context) error {
	select {
	case <-m.ready:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("%w: %w", xerrors.ErrNotRestored, ctx.Err())
	}
}

func (m *Manager) set(s state) {
	if (s.token == "") != (s.user == nil) {
		panic("session: token and user must be set together")
	}

	m.mu.Lock()
	m.state = s
	v := m.state.view()
	m.mu.Unlock()

	m.watchMu.Lock()
	fns := make([]func(View), 0, len(m.watchers))
	for _, fn := range m.watchers {
		fns = append(fns, fn)
	}
	m.watchMu.Unlock()

	for _, fn := range fns {
		fn(v)
	}
}

func (m *Manager) connect(ctx context.Context, userID string) {
	if err := m.channel.Connect(ctx, userID); err != nil {
		m.logger.Warn("notification channel connect failed",
			zap.String("user_id", userID),
			zap.Error(err),
		)
	}
}

func validateCredentials(email, password string) error {
	if email == "" || password == "" {
		return xerrors.Display("Please enter both email and password.", xerrors.ErrInvalidInput)
	}
	if !emailPattern.MatchString(email) {
		return xerrors.Display("Please enter a valid email address.", xerrors.ErrInvalidInput)
	}
	return nil
}

func (m *Manager) withAttemptsLeft(ctx context.Context, email string, err error) error {
	counter, ok := m.limiter.(attemptCounter)
	if !ok {
		return err
	}
	left, cerr := counter.Remaining(ctx, email)
	if cerr != nil || left > warnAttemptsLeft {
		return err
	}

	note := fmt.Sprintf("%d attempts left.", left)
	switch left {
	case 0:
		note = fmt.Sprintf("No attempts left. Please try again in %d minutes.", int(m.limiter.Window().Minutes()))
	case 1:
		note = "1 attempt left."
	}
	return xerrors.Display(xerrors.DisplayMessage(err)+" "+note, err)
}

// IsInputError reports whether err came from local validation rather than
// the API
func IsInputError(err error) bool {
	return errors.Is(err, xerrors.ErrInvalidInput)
}
