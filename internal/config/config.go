package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"ebeauty-client/internal/pkg/jwt"
)

type AppConfig struct {
	// Client
	APIBaseURL        string
	SocketURL         string
	SocketRetryMax    time.Duration
	APITimeout        time.Duration
	APIRetryMax       int
	DeviceID          string
	CredentialBackend string // redis, file or memory
	CredentialFile    string

	// Login throttle (needs Redis)
	LoginThrottle    bool
	LoginMaxAttempts int64
	LoginWindow      time.Duration

	// Redis
	RedisAddr    string
	RedisPass    string
	RedisCluster bool

	// Sandbox server
	HTTPAddr       string
	DatabaseURL    string
	AllowedOrigins []string

	// JWT
	JWT jwt.Config
}

// Load loads environment variables into AppConfig.
func Load() AppConfig {
	return AppConfig{
		APIBaseURL:        getEnv("API_BASE_URL", "http://localhost:8888/api"),
		SocketURL:         getEnv("SOCKET_URL", "ws://localhost:8888/ws"),
		SocketRetryMax:    getEnvDuration("SOCKET_RECONNECT_MAX", 30*time.Second),
		APITimeout:        getEnvDuration("API_TIMEOUT", 15*time.Second),
		APIRetryMax:       getEnvInt("API_RETRY_MAX", 2),
		DeviceID:          getEnv("DEVICE_ID", hostname()),
		CredentialBackend: strings.ToLower(getEnv("CREDENTIAL_BACKEND", "file")),
		CredentialFile:    getEnv("CREDENTIAL_FILE", ".ebeauty/credentials.json"),

		LoginThrottle:    strings.ToLower(getEnv("LOGIN_THROTTLE", "false")) == "true",
		LoginMaxAttempts: int64(getEnvInt("LOGIN_MAX_ATTEMPTS", 5)),
		LoginWindow:      getEnvDuration("LOGIN_WINDOW", 15*time.Minute),

		RedisAddr:    getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPass:    getEnv("REDIS_PASS", ""),
		RedisCluster: strings.ToLower(getEnv("REDIS_CLUSTER", "false")) == "true",

		HTTPAddr:       getEnv("HTTP_ADDR", ":8888"),
		DatabaseURL:    getEnv("DATABASE_URL", ""),
		AllowedOrigins: getEnvSlice("ALLOWED_ORIGINS", []string{"*"}),

		JWT: jwt.Config{
			PrivPath: getEnv("JWT_PRIVATE_KEY_PATH", ""),
			PubPath:  getEnv("JWT_PUBLIC_KEY_PATH", ""),
			Issuer:   getEnv("JWT_ISSUER", "ebeauty-sandbox"),
			Audience: getEnv("JWT_AUDIENCE", "ebeauty-app"),
			TTL:      getEnvDuration("JWT_TTL", 720*time.Hour),
			KID:      getEnv("JWT_KID", "ebeauty-key"),
		},
	}
}

// --- Helper functions ---

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvSlice(key string, defaultValue []string) []string {
	if value := os.Getenv(key); value != "" {
		return strings.Split(value, ",")
	}
	return defaultValue
}

func getEnvInt(key string, fallback int) int {
	if v, err := strconv.Atoi(os.Getenv(key)); err == nil {
		return v
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if v, err := time.ParseDuration(os.Getenv(key)); err == nil {
		return v
	}
	return fallback
}

func hostname() string {
	if h, err := os.Hostname(); err == nil && h != "" {
		return h
	}
	return "default"
}
