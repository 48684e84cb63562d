// Package anilist talks to the AniList GraphQL API: the viewer's profile,
// their anime and manga lists, title search and list entry updates.
package anilist

import (
	"bytes"
	"context"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/starford/fubuki/internal/apperr"
	"golang.org/x/time/rate"
)

const (
	// DefaultEndpoint is the public AniList GraphQL endpoint.
	DefaultEndpoint = "https://graphql.anilist.co"

	defaultHTTPTimeout = 15 * time.Second
	defaultRetryAfter  = 60 * time.Second
	defaultMaxRetries  = 5
	// AniList allows 90 requests per minute.
	defaultRequestsPerMinute = 90
)

//go:embed queries/*.graphql
var queryFS embed.FS

// TokenSource supplies the bearer token for each request. An empty token
// fails the request with apperr.ErrNoToken before anything is sent.
type TokenSource interface {
	Token() string
}

// Config captures the client's tunables. Zero values select defaults.
type Config struct {
	Endpoint          string
	MaxRetries        int
	DefaultRetryAfter time.Duration
	RequestsPerMinute int
	Timeout           time.Duration
}

// Client is an AniList API client. It is safe for concurrent use.
type Client struct {
	endpoint   string
	tokens     TokenSource
	httpClient *http.Client
	limiter    *rate.Limiter
	logger     *slog.Logger

	maxRetries        int
	defaultRetryAfter time.Duration
	sleep             func(context.Context, time.Duration) error
}

// Option customizes the client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithLogger sets the logger used for retry diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithSleeper overrides how rate-limit waits are performed (useful for tests).
func WithSleeper(sleep func(context.Context, time.Duration) error) Option {
	return func(c *Client) {
		if sleep != nil {
			c.sleep = sleep
		}
	}
}

// New constructs a Client.
func New(cfg Config, tokens TokenSource, opts ...Option) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultHTTPTimeout
	}
	rpm := cfg.RequestsPerMinute
	if rpm <= 0 {
		rpm = defaultRequestsPerMinute
	}
	c := &Client{
		endpoint:          strings.TrimSpace(cfg.Endpoint),
		tokens:            tokens,
		httpClient:        &http.Client{Timeout: timeout},
		limiter:           rate.NewLimiter(rate.Limit(float64(rpm)/60), 1),
		logger:            slog.New(slog.DiscardHandler),
		maxRetries:        cfg.MaxRetries,
		defaultRetryAfter: cfg.DefaultRetryAfter,
		sleep:             sleepContext,
	}
	if c.endpoint == "" {
		c.endpoint = DefaultEndpoint
	}
	if c.maxRetries <= 0 {
		c.maxRetries = defaultMaxRetries
	}
	if c.defaultRetryAfter <= 0 {
		c.defaultRetryAfter = defaultRetryAfter
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type graphQLRequest struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables,omitempty"`
}

type graphQLError struct {
	Message string `json:"message"`
	Status  int    `json:"status"`
}

type graphQLResponse struct {
	Data   json.RawMessage `json:"data"`
	Errors []graphQLError  `json:"errors"`
}

// query loads an embedded query and appends the shared fragment when the
// query spreads it.
func query(name string) (string, error) {
	body, err := queryFS.ReadFile("queries/" + name + ".graphql")
	if err != nil {
		return "", fmt.Errorf("anilist: load query %s: %w", name, err)
	}
	q := string(body)
	if strings.Contains(q, "...mediaFields") {
		fragment, err := queryFS.ReadFile("queries/media_fields.graphql")
		if err != nil {
			return "", fmt.Errorf("anilist: load fragment: %w", err)
		}
		q += "\n" + string(fragment)
	}
	return q, nil
}

// do runs the named query and decodes its data into out. Rate-limited
// responses are retried after the server's Retry-After delay.
func (c *Client) do(ctx context.Context, name string, variables map[string]any, out any) error {
	token := ""
	if c.tokens != nil {
		token = strings.TrimSpace(c.tokens.Token())
	}
	if token == "" {
		return apperr.ErrNoToken
	}
	q, err := query(name)
	if err != nil {
		return err
	}
	payload, err := json.Marshal(graphQLRequest{Query: q, Variables: variables})
	if err != nil {
		return fmt.Errorf("anilist: encode %s: %w", name, err)
	}

	for attempt := 1; attempt <= c.maxRetries; attempt++ {
		if err := c.limiter.Wait(ctx); err != nil {
			return err
		}
		retryAfter, err := c.send(ctx, token, payload, out)
		if err == nil {
			return nil
		}
		if !errors.Is(err, apperr.ErrRateLimited) {
			return fmt.Errorf("anilist: %s: %w", name, err)
		}
		if attempt == c.maxRetries {
			break
		}
		c.logger.Warn("anilist: rate limited",
			slog.String("query", name),
			slog.Int("attempt", attempt),
			slog.Duration("retry_after", retryAfter))
		if err := c.sleep(ctx, retryAfter); err != nil {
			return err
		}
	}
	return fmt.Errorf("anilist: %s: gave up after %d attempts: %w", name, c.maxRetries, apperr.ErrRateLimited)
}

func (c *Client) send(ctx context.Context, token string, payload []byte, out any) (time.Duration, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(payload))
	if err != nil {
		return 0, fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("http error: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		_, _ = io.Copy(io.Discard, resp.Body)
		return c.retryAfter(resp.Header.Get("Retry-After")), apperr.ErrRateLimited
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, fmt.Errorf("read body: %w", err)
	}
	var decoded graphQLResponse
	if err := json.Unmarshal(body, &decoded); err != nil {
		if resp.StatusCode >= http.StatusMultipleChoices {
			return 0, fmt.Errorf("%w: http %d: %s", apperr.ErrRemote, resp.StatusCode, strings.TrimSpace(string(body)))
		}
		return 0, fmt.Errorf("decode response: %w", err)
	}
	if len(decoded.Errors) > 0 {
		msgs := make([]string, 0, len(decoded.Errors))
		for _, e := range decoded.Errors {
			msgs = append(msgs, e.Message)
		}
		return 0, fmt.Errorf("%w: %s", apperr.ErrRemote, strings.Join(msgs, "; "))
	}
	if resp.StatusCode >= http.StatusMultipleChoices {
		return 0, fmt.Errorf("%w: http %d", apperr.ErrRemote, resp.StatusCode)
	}
	if out == nil || len(decoded.Data) == 0 {
		return 0, nil
	}
	if err := json.Unmarshal(decoded.Data, out); err != nil {
		return 0, fmt.Errorf("decode data: %w", err)
	}
	return 0, nil
}

func (c *Client) retryAfter(header string) time.Duration {
	secs, err := strconv.Atoi(strings.TrimSpace(header))
	if err != nil || secs < 0 {
		return c.defaultRetryAfter
	}
	return time.Duration(secs) * time.Second
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
