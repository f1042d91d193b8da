package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"staybook/internal/auth"
	"staybook/internal/config"
	"staybook/internal/domain"
	"staybook/internal/metrics"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

const maxResponseBody = 4 << 20

var (
	_ domain.BookingAPI = (*Client)(nil)
	_ domain.HotelAPI   = (*Client)(nil)
	_ domain.AuthAPI    = (*Client)(nil)
	_ domain.PaymentAPI = (*Client)(nil)
)

// Client talks to the hotel booking REST API. One request per call, nothing is retried.
type Client struct {
	baseURL    string
	httpClient *http.Client
	tokens     domain.TokenStore
	limiter    *rate.Limiter
	logger     *zerolog.Logger
	now        func() time.Time

	redis    *redis.Client
	cacheTTL time.Duration
}

// NewClient constructs a client from config. tokens may be nil for anonymous use.
func NewClient(cfg config.APIConfig, tokens domain.TokenStore, logger *zerolog.Logger) *Client {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	c := &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		tokens:     tokens,
		logger:     logger,
		now:        time.Now,
	}

	if cfg.RateLimit.RPS > 0 {
		burst := cfg.RateLimit.Burst
		if burst <= 0 {
			burst = 5
		}
		c.limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit.RPS), burst)
	}
	return c
}

// UseRedisCache configures optional Redis caching for hotel lookups.
func (c *Client) UseRedisCache(redisClient *redis.Client, ttl time.Duration) {
	c.redis = redisClient
	c.cacheTTL = ttl
}

// envelope is the common response wrapper. Some endpoints answer with the bare payload.
type envelope struct {
	Success    *bool           `json:"success"`
	Message    string          `json:"message"`
	Error      string          `json:"error"`
	TokenError bool            `json:"tokenError"`
	Data       json.RawMessage `json:"data"`
}

func (e envelope) text() string {
	if e.Message != "" {
		return e.Message
	}
	return e.Error
}

func (c *Client) doGet(ctx context.Context, op, path string, out any) error {
	return c.do(ctx, op, http.MethodGet, path, nil, out)
}

func (c *Client) doPost(ctx context.Context, op, path string, body, out any) error {
	return c.do(ctx, op, http.MethodPost, path, body, out)
}

func (c *Client) doPut(ctx context.Context, op, path string, body, out any) error {
	return c.do(ctx, op, http.MethodPut, path, body, out)
}

func (c *Client) do(ctx context.Context, op, method, path string, body, out any) error {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return &domain.APIError{Op: op, Err: err}
		}
	}

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("%s: encode request: %w", op, err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("%s: build request: %w", op, err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	requestID := uuid.NewString()
	req.Header.Set("X-Request-ID", requestID)
	if token := c.bearer(ctx); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		metrics.IncAPIRequest(op, "0")
		c.logger.Warn().Err(err).Str("op", op).Str("request_id", requestID).Msg("API request failed")
		return &domain.APIError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	metrics.IncAPIRequest(op, strconv.Itoa(resp.StatusCode))
	c.logger.Debug().
		Str("op", op).
		Str("method", method).
		Str("path", path).
		Int("status", resp.StatusCode).
		Dur("dur", time.Since(start)).
		Str("request_id", requestID).
		Msg("API request")
	if err != nil {
		return &domain.APIError{Op: op, Status: resp.StatusCode, Err: err}
	}

	var env envelope
	_ = json.Unmarshal(raw, &env)

	if resp.StatusCode >= 300 {
		apiErr := &domain.APIError{
			Op:         op,
			Status:     resp.StatusCode,
			Message:    env.text(),
			TokenError: resp.StatusCode == http.StatusUnauthorized && env.TokenError,
		}
		if apiErr.TokenError {
			c.evict(ctx, "rejected")
		}
		return apiErr
	}
	if env.Success != nil && !*env.Success {
		return &domain.APIError{Op: op, Status: resp.StatusCode, Message: env.text()}
	}

	if out == nil {
		return nil
	}
	payload := raw
	if len(env.Data) > 0 && string(env.Data) != "null" {
		payload = env.Data
	}
	if err := json.Unmarshal(payload, out); err != nil {
		return fmt.Errorf("%s: decode response: %w", op, err)
	}
	return nil
}

// bearer returns the stored token if it may be attached. Malformed or expired
// tokens are removed from the store and the request goes out anonymously.
func (c *Client) bearer(ctx context.Context) string {
	if c.tokens == nil {
		return ""
	}
	token, err := c.tokens.GetToken(ctx)
	if err != nil || token == "" {
		return ""
	}
	if !auth.IsWellFormed(token) {
		c.evict(ctx, "malformed")
		return ""
	}
	if auth.IsExpired(token, c.now()) {
		c.evict(ctx, "expired")
		return ""
	}
	return token
}

func (c *Client) evict(ctx context.Context, reason string) {
	if c.tokens == nil {
		return
	}
	metrics.IncTokenEviction()
	if err := c.tokens.ClearToken(ctx); err != nil {
		c.logger.Error().Err(err).Str("reason", reason).Msg("Failed to clear token")
		return
	}
	c.logger.Info().Str("reason", reason).Msg("Bearer token evicted")
}

func (c *Client) readCache(ctx context.Context, key string, out any) bool {
	if c.redis == nil || c.cacheTTL <= 0 {
		return false
	}
	val, err := c.redis.Get(ctx, key).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.logger.Debug().Err(err).Str("key", key).Msg("cache read failed")
		}
		return false
	}
	if err := json.Unmarshal([]byte(val), out); err != nil {
		return false
	}
	return true
}

func (c *Client) writeCache(ctx context.Context, key string, val any) {
	if c.redis == nil || c.cacheTTL <= 0 {
		return
	}
	data, err := json.Marshal(val)
	if err != nil {
		return
	}
	_ = c.redis.Set(ctx, key, data, c.cacheTTL).Err()
}
