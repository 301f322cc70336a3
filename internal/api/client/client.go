package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"selfcinema/internal/auth"
	"selfcinema/internal/domain"
	"selfcinema/internal/metrics"
)

// TokenSource supplies the bearer credential attached to backend calls.
// A missing token silently produces an unauthenticated request.
type TokenSource interface {
	Token() (string, bool)
}

// APIError is a non-2xx backend response. Callers map it to a user-visible
// message; the client never retries.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("backend returned %d: %s", e.StatusCode, e.Body)
}

// IsAuthError reports whether err is a 401/403 backend rejection.
func IsAuthError(err error) bool {
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		return false
	}
	return apiErr.StatusCode == http.StatusUnauthorized || apiErr.StatusCode == http.StatusForbidden
}

// Client is a stateless typed wrapper over the series/episode backend.
type Client struct {
	baseURL string
	httpc   *http.Client
	tokens  TokenSource
	logger  *slog.Logger
}

type Option func(*Client)

func WithHTTPClient(httpc *http.Client) Option {
	return func(c *Client) { c.httpc = httpc }
}

func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) { c.logger = logger }
}

func New(baseURL string, tokens TokenSource, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		tokens:  tokens,
		httpc: &http.Client{
			Timeout:   30 * time.Second,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.logger == nil {
		c.logger = slog.Default()
	}
	return c
}

func (c *Client) Login(ctx context.Context, req domain.LoginRequest) (domain.LoginResponse, error) {
	var resp domain.LoginResponse
	err := c.do(ctx, "login", http.MethodPost, "/auth/login", req, &resp)
	return resp, err
}

func (c *Client) ListSeries(ctx context.Context) ([]domain.Series, error) {
	var series []domain.Series
	err := c.do(ctx, "list_series", http.MethodGet, "/series", nil, &series)
	return series, err
}

func (c *Client) CreateSeries(ctx context.Context, req domain.CreateSeriesRequest) (domain.Series, error) {
	var series domain.Series
	err := c.do(ctx, "create_series", http.MethodPost, "/series", req, &series)
	return series, err
}

func (c *Client) UpdateSeries(ctx context.Context, id domain.SeriesID, req domain.CreateSeriesRequest) (domain.Series, error) {
	var series domain.Series
	err := c.do(ctx, "update_series", http.MethodPut, "/series/"+string(id), req, &series)
	return series, err
}

func (c *Client) DeleteSeries(ctx context.Context, id domain.SeriesID) error {
	return c.do(ctx, "delete_series", http.MethodDelete, "/series/"+string(id), nil, nil)
}

func (c *Client) ListEpisodes(ctx context.Context, seriesID domain.SeriesID) ([]domain.Episode, error) {
	var episodes []domain.Episode
	err := c.do(ctx, "list_episodes", http.MethodGet, "/series/"+string(seriesID)+"/episodes", nil, &episodes)
	return episodes, err
}

func (c *Client) CreateEpisode(ctx context.Context, req domain.CreateEpisodeRequest) (domain.Episode, error) {
	var episode domain.Episode
	err := c.do(ctx, "create_episode", http.MethodPost, "/episodes", req, &episode)
	return episode, err
}

func (c *Client) UpdateEpisode(ctx context.Context, id domain.EpisodeID, req domain.CreateEpisodeRequest) (domain.Episode, error) {
	var episode domain.Episode
	err := c.do(ctx, "update_episode", http.MethodPut, "/episodes/"+string(id), req, &episode)
	return episode, err
}

func (c *Client) DeleteEpisode(ctx context.Context, id domain.EpisodeID) error {
	return c.do(ctx, "delete_episode", http.MethodDelete, "/episodes/"+string(id), nil, nil)
}

func (c *Client) ShareLink(ctx context.Context, seriesID domain.SeriesID) (domain.ShareLink, error) {
	var link domain.ShareLink
	err := c.do(ctx, "share_link", http.MethodGet, "/series/"+string(seriesID)+"/share", nil, &link)
	return link, err
}

func (c *Client) do(ctx context.Context, op, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token, ok := c.tokens.Token(); ok {
		// A credential we can already see is expired gets rejected locally
		// instead of bouncing off the backend; login mints a fresh one.
		if path != "/auth/login" && auth.Expired(token, time.Now()) {
			metrics.BackendRequestsTotal.WithLabelValues(op, "auth_expired").Inc()
			return &APIError{StatusCode: http.StatusUnauthorized, Body: "stored credential has expired"}
		}
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpc.Do(req)
	if err != nil {
		metrics.BackendRequestsTotal.WithLabelValues(op, "transport_error").Inc()
		return fmt.Errorf("%s: %w", op, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
		metrics.BackendRequestsTotal.WithLabelValues(op, "http_error").Inc()
		c.logger.Debug("backend call rejected",
			slog.String("operation", op),
			slog.Int("status", resp.StatusCode),
		)
		return &APIError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(raw))}
	}

	metrics.BackendRequestsTotal.WithLabelValues(op, "ok").Inc()
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%s: decode response: %w", op, err)
	}
	return nil
}
