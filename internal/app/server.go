// internal/app/server.go
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"ebeauty-client/internal/config"
	"ebeauty-client/internal/db"
	"ebeauty-client/internal/domain/auth"
	"ebeauty-client/internal/domain/catalog"
	authHandler "ebeauty-client/internal/handlers/auth"
	bookingHandler "ebeauty-client/internal/handlers/booking"
	catalogHandler "ebeauty-client/internal/handlers/catalog"
	wsHandler "ebeauty-client/internal/handlers/websocket"
	"ebeauty-client/internal/middleware"
	"ebeauty-client/internal/pkg/jwt"
	"ebeauty-client/internal/pkg/session"
	"ebeauty-client/internal/repository/memory"
	"ebeauty-client/internal/repository/postgres"
	authUsecase "ebeauty-client/internal/service/auth"
	bookingUsecase "ebeauty-client/internal/service/booking"
	catalogUsecase "ebeauty-client/internal/service/catalog"
	"ebeauty-client/internal/websocket"
	wsHandlers "ebeauty-client/internal/websocket/handler"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Server is the sandbox backend the client core talks to in development
type Server struct {
	cfg    config.AppConfig
	engine *gin.Engine
	logger *zap.Logger
	http   *http.Server

	Hub *websocket.Hub
	JWT *jwt.Manager

	cancel  context.CancelFunc
	closers []func()
}

type repositories struct {
	users    auth.Repository
	artists  catalog.ArtistRepository
	bookings catalog.BookingRepository
}

func NewServer(cfg config.AppConfig, logger *zap.Logger) *Server {
	gin.SetMode(gin.ReleaseMode)
	return &Server{cfg: cfg, engine: gin.New(), logger: logger}
}

// Build wires repositories, services and routes. It must be called once
// before Start or Handler.
func (s *Server) Build(ctx context.Context) error {
	// ----- JWT Manager -----
	jwtManager, err := jwt.LoadAndBuild(s.cfg.JWT)
	if err != nil {
		return fmt.Errorf("failed to load JWT manager: %w", err)
	}
	if s.cfg.JWT.PrivPath == "" {
		s.logger.Warn("no JWT key configured, using an ephemeral key")
	}
	s.JWT = jwtManager

	// ----- Repositories -----
	repos, err := s.repositories(ctx)
	if err != nil {
		return err
	}

	// ----- Rate Limiter -----
	var limiter authUsecase.LoginLimiter
	if s.cfg.LoginThrottle {
		redisClient, err := db.NewRedisClient(ctx, db.RedisConfig{
			ClusterMode: s.cfg.RedisCluster,
			Addresses:   []string{s.cfg.RedisAddr},
			Password:    s.cfg.RedisPass,
			PoolSize:    10,
		})
		if err != nil {
			return fmt.Errorf("failed to connect to Redis: %w", err)
		}
		s.closers = append(s.closers, func() { redisClient.Close() })
		limiter = session.NewRateLimiter(redisClient, s.cfg.LoginMaxAttempts, s.cfg.LoginWindow)
		s.logger.Info("login throttling enabled", zap.String("redis", s.cfg.RedisAddr))
	}

	// ----- WebSocket Hub -----
	hubCtx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.Hub = websocket.NewHub(jwtManager.Verifier, s.logger)

	// ----- Services (Usecases) -----
	authService := authUsecase.NewAuthService(repos.users, jwtManager.Generator, limiter, s.logger)
	catalogService := catalogUsecase.NewCatalogService(repos.artists, s.logger)
	bookingService := bookingUsecase.NewBookingService(repos.artists, repos.bookings, repos.users, s.Hub, s.logger)

	s.Hub.RegisterHandler(wsHandlers.NewBookingHandler(bookingService, s.logger))
	go s.Hub.Run(hubCtx)

	// ----- Middlewares -----
	s.engine.Use(
		middleware.RecoveryMiddleware(s.logger),
		middleware.LoggingMiddleware(s.logger),
		middleware.CORSMiddleware(s.cfg.AllowedOrigins...),
	)

	// ----- Router -----
	SetupRouter(s.engine, &Handlers{
		AuthHandler:    authHandler.NewAuthHandler(authService, s.logger),
		ArtistHandler:  catalogHandler.NewArtistHandler(catalogService, s.logger),
		BookingHandler: bookingHandler.NewBookingHandler(bookingService, s.logger),
		WSHandler:      wsHandler.NewWebSocketHandler(s.Hub, s.cfg.AllowedOrigins, s.logger),
		AuthMiddleware: middleware.NewAuthMiddleware(jwtManager.Verifier),
	})

	return nil
}

// Handler exposes the router, for tests
func (s *Server) Handler() http.Handler {
	return s.engine
}

func (s *Server) Start() error {
	s.http = &http.Server{
		Addr:              s.cfg.HTTPAddr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	s.logger.Info("sandbox server running", zap.String("addr", s.cfg.HTTPAddr))
	if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops accepting requests, closes sockets and releases stores
func (s *Server) Shutdown(ctx context.Context) error {
	var err error
	if s.http != nil {
		err = s.http.Shutdown(ctx)
	}
	if s.cancel != nil {
		s.cancel()
	}
	for i := len(s.closers) - 1; i >= 0; i-- {
		s.closers[i]()
	}
	return err
}

func (s *Server) repositories(ctx context.Context) (*repositories, error) {
	if s.cfg.DatabaseURL == "" {
		store := memory.NewStore()
		if err := memory.Seed(store); err != nil {
			return nil, err
		}
		s.logger.Info("using in-memory sandbox data")
		return &repositories{users: store, artists: store, bookings: store}, nil
	}

	// ----- PostgreSQL -----
	pool, err := db.ConnectDB(ctx, s.cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to PostgreSQL: %w", err)
	}
	s.closers = append(s.closers, pool.Close)

	if err := postgres.NewDB(pool).EnsureSchema(ctx); err != nil {
		return nil, err
	}

	users := postgres.NewUserRepository(pool)
	artists := postgres.NewCatalogRepository(pool)
	if err := seedPostgres(ctx, users, artists); err != nil {
		return nil, err
	}
	s.logger.Info("using PostgreSQL sandbox data")

	return &repositories{users: users, artists: artists, bookings: postgres.NewBookingRepository(pool)}, nil
}

func seedPostgres(ctx context.Context, users *postgres.UserRepository, artists *postgres.CatalogRepository) error {
	accounts, profiles, err := memory.Fixtures()
	if err != nil {
		return err
	}
	for i := range accounts {
		if err := users.Upsert(ctx, &accounts[i]); err != nil {
			return err
		}
	}
	for i := range profiles {
		if err := artists.UpsertArtist(ctx, &profiles[i]); err != nil {
			return err
		}
	}
	return nil
}
