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
	"net/url"
	"strconv"
	"strings"
	"time"

	"stockpile/internal/domain/models"
	"stockpile/internal/lib/jwt"
	"stockpile/internal/lib/logger/sl"
	"stockpile/internal/metrics"
	"stockpile/internal/services/tokenstore"

	"golang.org/x/sync/singleflight"
)

const refreshKey = "refresh"

// Client is the single call-path to the backend. It owns the cross-cutting
// authentication concerns: proactive refresh of expiring tokens, the
// Authorization header, single-flight refresh deduplication, a one-time
// replay after a successful refresh, and error-message normalization.
type Client struct {
	log   *slog.Logger
	base  string
	http  *http.Client
	store *tokenstore.Store
	skew  time.Duration

	flight singleflight.Group
}

func New(log *slog.Logger, baseURL string, timeout, skew time.Duration, store *tokenstore.Store) *Client {
	if skew <= 0 {
		skew = jwt.DefaultSkew
	}

	return &Client{
		log:   log,
		base:  strings.TrimRight(baseURL, "/"),
		http:  &http.Client{Timeout: timeout},
		store: store,
		skew:  skew,
	}
}

// Store exposes the token store the client mutates, for session-level
// consumers.
func (c *Client) Store() *tokenstore.Store {
	return c.store
}

// do issues one API call. out, when non-nil, receives the decoded JSON
// body of a successful response.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	const op = "client.do"

	pair := c.store.Tokens()

	if pair.AccessToken != "" && jwt.IsExpired(pair.AccessToken, c.skew) {
		if err := c.refresh(ctx); err != nil {
			return c.expireSession(op, err)
		}
	}

	status, respBody, err := c.send(ctx, method, path, query, body)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	// one replay after a successful refresh; a 401 on an unauthenticated
	// call has nothing to refresh and surfaces as-is
	if status == http.StatusUnauthorized && c.store.IsAuthenticated() {
		if err := c.refresh(ctx); err != nil {
			return c.expireSession(op, err)
		}

		status, respBody, err = c.send(ctx, method, path, query, body)
		if err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}
	}

	if status < 200 || status > 299 {
		return &APIError{Status: status, Message: extractErrorMessage(respBody, status)}
	}

	if out == nil {
		return nil
	}

	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("%s: decode response: %w", op, err)
	}

	return nil
}

func (c *Client) send(ctx context.Context, method, path string, query url.Values, body any) (int, []byte, error) {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return 0, nil, fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	target := c.base + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return 0, nil, err
	}

	req.Header.Set("Content-Type", "application/json")

	if pair := c.store.Tokens(); pair.AccessToken != "" {
		tokenType := pair.TokenType
		if tokenType == "" {
			tokenType = models.DefaultTokenType
		}
		req.Header.Set("Authorization", tokenType+" "+pair.AccessToken)
	}

	start := time.Now()

	resp, err := c.http.Do(req)

	label := metricPath(path)
	if err != nil {
		metrics.APIRequestsTotal.WithLabelValues(method, label, "error").Inc()
		return 0, nil, err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, fmt.Errorf("read response: %w", err)
	}

	metrics.APIRequestsTotal.WithLabelValues(method, label, strconv.Itoa(resp.StatusCode)).Inc()
	metrics.APIRequestDuration.WithLabelValues(method, label).Observe(time.Since(start).Seconds())

	return resp.StatusCode, respBody, nil
}

// refresh exchanges the refresh token for a new pair. Concurrent callers
// collapse into one network call and all observe the same outcome; the
// flight is always cleared on completion so a later call starts fresh.
func (c *Client) refresh(ctx context.Context) error {
	const op = "client.refresh"

	_, err, _ := c.flight.Do(refreshKey, func() (any, error) {
		// pair and generation must come from one atomic read: with two
		// separate reads a logout can land in between, and the refresh
		// would compare against the post-logout generation and win
		pair, gen := c.store.Snapshot()
		if pair.RefreshToken == "" {
			metrics.TokenRefreshTotal.WithLabelValues("no_token").Inc()
			return nil, ErrNoRefreshToken
		}

		newPair, err := c.callRefresh(ctx, pair.RefreshToken)
		if err != nil {
			metrics.TokenRefreshTotal.WithLabelValues("failure").Inc()
			c.log.Warn("token refresh failed", slog.String("op", op), sl.Err(err))

			return nil, err
		}

		// a logout that settled while the refresh was in flight wins;
		// the stale pair is dropped and the refresh reported as failed
		if !c.store.CompareAndSetTokens(gen, newPair.AccessToken, newPair.RefreshToken, newPair.TokenType) {
			metrics.TokenRefreshTotal.WithLabelValues("stale").Inc()
			c.log.Debug("discarding refresh result after concurrent mutation", slog.String("op", op))

			return nil, ErrAuthExpired
		}

		metrics.TokenRefreshTotal.WithLabelValues("success").Inc()
		c.log.Debug("token pair refreshed", slog.String("op", op))

		return nil, nil
	})

	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

// callRefresh talks to the refresh endpoint directly, outside do, so a
// refresh can never trigger another refresh.
func (c *Client) callRefresh(ctx context.Context, refreshToken string) (models.TokenPair, error) {
	payload, err := json.Marshal(map[string]string{"refresh_token": refreshToken})
	if err != nil {
		return models.TokenPair{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.base+"/auth/refresh", bytes.NewReader(payload))
	if err != nil {
		return models.TokenPair{}, err
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", models.DefaultTokenType+" "+refreshToken)

	resp, err := c.http.Do(req)
	if err != nil {
		return models.TokenPair{}, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return models.TokenPair{}, err
	}

	if resp.StatusCode != http.StatusOK {
		return models.TokenPair{}, &APIError{Status: resp.StatusCode, Message: extractErrorMessage(body, resp.StatusCode)}
	}

	var pair models.TokenPair
	if err := json.Unmarshal(body, &pair); err != nil {
		return models.TokenPair{}, fmt.Errorf("decode refresh response: %w", err)
	}

	if pair.AccessToken == "" {
		return models.TokenPair{}, errors.New("refresh response without access token")
	}

	return pair, nil
}

// expireSession clears the store and converts a refresh failure into the
// single classification callers handle.
func (c *Client) expireSession(op string, cause error) error {
	c.store.Clear()
	c.log.Info("session expired, forcing logout", slog.String("op", op), sl.Err(cause))

	return fmt.Errorf("%s: %w", op, ErrAuthExpired)
}

// metricPath strips per-entity suffixes so label cardinality stays bounded.
func metricPath(path string) string {
	parts := strings.Split(strings.TrimPrefix(path, "/"), "/")
	if len(parts) > 2 {
		parts = parts[:2]
	}

	return "/" + strings.Join(parts, "/")
}
