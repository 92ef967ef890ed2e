// internal/api/client.go
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"ebeauty-client/internal/domain/auth"
	"ebeauty-client/internal/domain/catalog"
	xerrors "ebeauty-client/internal/pkg/errors"
	"ebeauty-client/internal/pkg/response"

	"github.com/hashicorp/go-retryablehttp"
	"go.uber.org/zap"
)

const maxBodySize = 1 << 20

type Config struct {
	BaseURL  string
	Timeout  time.Duration
	RetryMax int
}

// Client talks to the beauty-booking REST API
type Client struct {
	baseURL string
	http    *retryablehttp.Client
	logger  *zap.Logger
}

func NewClient(cfg Config, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}

	rc := retryablehttp.NewClient()
	rc.RetryMax = max(cfg.RetryMax, 0)
	rc.RetryWaitMin = 200 * time.Millisecond
	rc.RetryWaitMax = 2 * time.Second
	rc.HTTPClient.Timeout = timeout
	rc.Logger = leveledLogger{logger.Sugar()}
	rc.CheckRetry = idempotentRetryPolicy
	// hand the final response back so the server's message can be shown
	rc.ErrorHandler = retryablehttp.PassthroughErrorHandler

	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		http:    rc,
		logger:  logger,
	}
}

// Login exchanges credentials for a token and the user record
func (c *Client) Login(ctx context.Context, email, password string) (*auth.LoginResponse, error) {
	payload, err := json.Marshal(auth.LoginRequest{Email: email, Password: password})
	if err != nil {
		return nil, fmt.Errorf("failed to encode login request: %w", err)
	}

	var out auth.LoginResponse
	if err := c.do(ctx, http.MethodPost, "/auth/login", "", payload, &out, "Login failed."); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetArtists lists artists, filtered by service category when one is given
func (c *Client) GetArtists(ctx context.Context, category string) ([]catalog.ArtistProfile, error) {
	path := "/artists"
	if category != "" {
		path += "?" + url.Values{"category": {category}}.Encode()
	}

	var artists []catalog.ArtistProfile
	if err := c.do(ctx, http.MethodGet, path, "", nil, &artists, "Could not fetch artists."); err != nil {
		return nil, err
	}
	return artists, nil
}

// GetCategories returns the distinct service categories across all artists
// in first-seen order, or the default list when none are advertised.
func (c *Client) GetCategories(ctx context.Context) ([]string, error) {
	artists, err := c.GetArtists(ctx, "")
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool)
	var categories []string
	for _, artist := range artists {
		for _, svc := range artist.Services {
			if svc.Category == "" || seen[svc.Category] {
				continue
			}
			seen[svc.Category] = true
			categories = append(categories, svc.Category)
		}
	}

	if len(categories) == 0 {
		return append([]string(nil), catalog.DefaultCategories...), nil
	}
	return categories, nil
}

// CreateBooking submits a booking request on behalf of the signed-in client
func (c *Client) CreateBooking(ctx context.Context, token string, req catalog.CreateBookingRequest) (*catalog.Booking, error) {
	payload, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to encode booking request: %w", err)
	}

	var booking catalog.Booking
	if err := c.do(ctx, http.MethodPost, "/bookings", token, payload, &booking, "Could not create booking."); err != nil {
		return nil, err
	}
	return &booking, nil
}

// ========== Transport ==========

type retryKey struct{}

// idempotentRetryPolicy only retries requests that are safe to repeat.
// POST /bookings and /auth/login are sent exactly once.
func idempotentRetryPolicy(ctx context.Context, resp *http.Response, err error) (bool, error) {
	if allowed, _ := ctx.Value(retryKey{}).(bool); !allowed {
		if ctx.Err() != nil {
			return false, ctx.Err()
		}
		return false, nil
	}
	return retryablehttp.DefaultRetryPolicy(ctx, resp, err)
}

func idempotent(method string) bool {
	return method == http.MethodGet || method == http.MethodHead
}

func (c *Client) do(ctx context.Context, method, path, token string, body []byte, target interface{}, fallback string) error {
	var reqBody interface{}
	if body != nil {
		reqBody = body
	}

	ctx = context.WithValue(ctx, retryKey{}, idempotent(method))
	req, err := retryablehttp.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Warn("api request failed", zap.String("method", method), zap.String("path", path), zap.Error(err))
		return xerrors.Display("Could not reach the server. Please try again.",
			fmt.Errorf("%w: %s %s: %w", xerrors.ErrUnreachable, method, path, err))
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return xerrors.Display(fallback, fmt.Errorf("failed to read response: %w", err))
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		message := fallback
		var env response.Envelope
		if json.Unmarshal(raw, &env) == nil && env.Message != "" {
			message = env.Message
		}
		return xerrors.Display(message, fmt.Errorf("%w: status %d", statusError(resp.StatusCode), resp.StatusCode))
	}

	if _, err := response.Decode(raw, target); err != nil {
		return xerrors.Display(fallback, err)
	}
	return nil
}

func statusError(code int) error {
	switch code {
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		return xerrors.ErrInvalidInput
	case http.StatusUnauthorized:
		return xerrors.ErrUnauthorized
	case http.StatusForbidden:
		return xerrors.ErrForbidden
	case http.StatusNotFound:
		return xerrors.ErrNotFound
	case http.StatusTooManyRequests:
		return xerrors.ErrRateLimited
	}
	return xerrors.ErrInternal
}

// leveledLogger routes retryablehttp's logging through zap
type leveledLogger struct {
	l *zap.SugaredLogger
}

func (z leveledLogger) Error(msg string, kv ...interface{}) { z.l.Errorw(msg, kv...) }
func (z leveledLogger) Warn(msg string, kv ...interface{})  { z.l.Warnw(msg, kv...) }
func (z leveledLogger) Info(msg string, kv ...interface{})  { z.l.Debugw(msg, kv...) }
func (z leveledLogger) Debug(msg string, kv ...interface{}) { z.l.Debugw(msg, kv...) }
