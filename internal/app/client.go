// internal/app/client.go
package app

import (
	"context"
	"fmt"
	"sync"
	"time"

	"ebeauty-client/internal/api"
	"ebeauty-client/internal/config"
	"ebeauty-client/internal/db"
	"ebeauty-client/internal/domain/auth"
	wstypes "ebeauty-client/internal/domain/websocket"
	"ebeauty-client/internal/navigation"
	"ebeauty-client/internal/notify"
	"ebeauty-client/internal/pkg/credential"
	"ebeauty-client/internal/pkg/session"

	"go.uber.org/zap"
)

// Client is the assembled client core: session, realtime channel and
// navigation, plus the API collaborator screens use for data.
type Client struct {
	API       *api.Client
	Channel   *notify.Channel
	Session   *session.Manager
	Navigator *navigation.Navigator

	logger  *zap.Logger
	closers []func()

	armMu  sync.Mutex
	disarm func()
}

// NewClient builds the core from cfg. Nothing is restored yet; call Start.
func NewClient(ctx context.Context, cfg config.AppConfig, logger *zap.Logger) (*Client, error) {
	c := &Client{logger: logger}

	// ----- Redis (credential backend and/or login throttle) -----
	needRedis := cfg.CredentialBackend == "redis" || cfg.LoginThrottle
	redisCfg := db.RedisConfig{
		ClusterMode: cfg.RedisCluster,
		Addresses:   []string{cfg.RedisAddr},
		Password:    cfg.RedisPass,
		PoolSize:    2,
	}

	// ----- Credential Store -----
	var kv credential.KV
	var limiter session.LoginLimiter
	if needRedis {
		rc, err := db.NewRedisClient(ctx, redisCfg)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to Redis: %w", err)
		}
		c.closers = append(c.closers, func() { rc.Close() })

		if cfg.LoginThrottle {
			limiter = session.NewRateLimiter(rc, cfg.LoginMaxAttempts, cfg.LoginWindow)
		}
		if cfg.CredentialBackend == "redis" {
			kv = credential.NewRedisKV(rc, cfg.DeviceID)
		}
	}

	switch cfg.CredentialBackend {
	case "redis":
	case "memory":
		kv = credential.NewMemoryKV()
	case "file", "":
		kv = credential.NewFileKV(cfg.CredentialFile)
	default:
		c.Close()
		return nil, fmt.Errorf("unknown credential backend %q", cfg.CredentialBackend)
	}
	store := credential.NewStore(kv, logger)

	// ----- Collaborators -----
	c.API = api.NewClient(api.Config{
		BaseURL:  cfg.APIBaseURL,
		Timeout:  cfg.APITimeout,
		RetryMax: cfg.APIRetryMax,
	}, logger)
	c.Channel = notify.NewChannel(notify.Config{
		URL:              cfg.SocketURL,
		HandshakeTimeout: cfg.APITimeout,
		ReconnectMax:     cfg.SocketRetryMax,
	}, logger)

	// ----- Session & Navigation -----
	c.Session = session.NewManager(store, c.API, c.Channel, limiter, logger)
	c.Channel.SetTokenSource(func() string { return c.Session.View().Token })
	c.Navigator = navigation.NewNavigator(c.Session, c.Channel, logger)

	return c, nil
}

// Start restores the persisted session. The navigator leaves splash once it
// returns.
func (c *Client) Start(ctx context.Context) {
	c.Session.Restore(ctx)
	c.armForceLogout()
}

// Login signs in through the session manager
func (c *Client) Login(ctx context.Context, email, password string) (auth.UserRecord, error) {
	user, err := c.Session.Login(ctx, email, password)
	if err != nil {
		return user, err
	}
	c.armForceLogout()
	return user, nil
}

func (c *Client) Logout(ctx context.Context) error {
	return c.Session.Logout(ctx)
}

// Close drops the realtime connection and releases stores. The persisted
// session is kept for the next launch.
func (c *Client) Close() {
	if c.Navigator != nil {
		c.Navigator.Close()
	}
	if c.Channel != nil {
		c.Channel.Disconnect()
	}
	for i := len(c.closers) - 1; i >= 0; i-- {
		c.closers[i]()
	}
}

// armForceLogout subscribes to server-initiated logouts on the current
// connection. The channel drops subscriptions whenever it disconnects or
// switches user, so this runs after every sign-in.
func (c *Client) armForceLogout() {
	c.armMu.Lock()
	defer c.armMu.Unlock()

	if c.disarm != nil {
		c.disarm()
		c.disarm = nil
	}
	if _, ok := c.Channel.Connected(); !ok {
		return
	}
	c.disarm = c.Channel.Subscribe(wstypes.EventTypeForceLogout, c.onForceLogout)
}

// Logout runs off the channel's read loop, which Disconnect waits for
func (c *Client) onForceLogout(msg *wstypes.WSMessage) {
	c.logger.Warn("server ended the session", zap.Any("data", msg.Data))
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := c.Session.Logout(ctx); err != nil {
			c.logger.Error("forced logout failed", zap.Error(err))
		}
	}()
}
