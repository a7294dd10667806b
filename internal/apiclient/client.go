// Package apiclient is the typed boundary to the vocabulary backend. It holds
// no view logic: every method is one HTTP round trip, never retried.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"vocabtalk/internal/domain"
)

const (
	defaultBaseURL   = "http://localhost:6001"
	maxResponseBytes = 32 << 20
	maxDetailLength  = 256
)

// TokenSource supplies the bearer token attached to authenticated calls.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

// CallObserver records the outcome of each backend call.
type CallObserver interface {
	ObserveBackendCall(op string, err error, elapsed time.Duration)
}

// Config is the per-process client configuration.
type Config struct {
	BaseURL    string
	HTTPClient *http.Client
	// Timeout applies only when HTTPClient is nil. Zero means no timeout.
	Timeout  time.Duration
	Tokens   TokenSource
	Logger   *zap.Logger
	Observer CallObserver
}

// Client calls the backend endpoints.
type Client struct {
	baseURL  string
	http     *http.Client
	tokens   TokenSource
	logger   *zap.Logger
	observer CallObserver
}

func New(cfg Config) *Client {
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		baseURL:  baseURL,
		http:     httpClient,
		tokens:   cfg.Tokens,
		logger:   logger,
		observer: cfg.Observer,
	}
}

// WithTokens returns a client sharing this client's transport that attaches
// bearer tokens from tokens.
func (c *Client) WithTokens(tokens TokenSource) *Client {
	clone := *c
	clone.tokens = tokens
	return &clone
}

// BaseURL reports the backend root the client talks to.
func (c *Client) BaseURL() string {
	return c.baseURL
}

type request struct {
	op            string
	method        string
	path          string
	body          []byte
	contentType   string
	authenticated bool
}

func jsonRequest(op string, path string, payload any) (request, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return request{}, &domain.NetworkError{Op: op, Err: fmt.Errorf("encode request: %w", err)}
	}
	return request{
		op:            op,
		method:        http.MethodPost,
		path:          path,
		body:          body,
		contentType:   "application/json",
		authenticated: true,
	}, nil
}

func getRequest(op string, path string) request {
	return request{op: op, method: http.MethodGet, path: path, authenticated: true}
}

func (c *Client) send(ctx context.Context, req request, out any) error {
	start := time.Now()
	status, err := c.roundTrip(ctx, req, out)
	elapsed := time.Since(start)

	if c.observer != nil {
		c.observer.ObserveBackendCall(req.op, err, elapsed)
	}
	if err != nil {
		c.logger.Warn("backend call failed",
			zap.String("op", req.op),
			zap.Int("status", status),
			zap.Duration("duration", elapsed),
			zap.Error(err),
		)
		return err
	}
	c.logger.Debug("backend call",
		zap.String("op", req.op),
		zap.Int("status", status),
		zap.Duration("duration", elapsed),
	)
	return nil
}

func (c *Client) roundTrip(ctx context.Context, req request, out any) (int, error) {
	var body io.Reader
	if req.body != nil {
		body = bytes.NewReader(req.body)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.method, c.baseURL+req.path, body)
	if err != nil {
		return 0, &domain.NetworkError{Op: req.op, Err: err}
	}
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("X-Request-ID", uuid.NewString())
	if req.contentType != "" {
		httpReq.Header.Set("Content-Type", req.contentType)
	}

	if req.authenticated && c.tokens != nil {
		token, err := c.tokens.Token(ctx)
		if err != nil {
			return 0, fmt.Errorf("%s: acquire token: %w", req.op, err)
		}
		httpReq.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return 0, &domain.NetworkError{Op: req.op, Err: err}
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return resp.StatusCode, &domain.NetworkError{Op: req.op, StatusCode: resp.StatusCode, Err: fmt.Errorf("read response: %w", err)}
	}

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return resp.StatusCode, &domain.NetworkError{Op: req.op, StatusCode: resp.StatusCode, Detail: errorDetail(payload)}
	}

	if out == nil {
		return resp.StatusCode, nil
	}
	if err := json.Unmarshal(payload, out); err != nil {
		return resp.StatusCode, &domain.NetworkError{Op: req.op, StatusCode: resp.StatusCode, Err: fmt.Errorf("decode response: %w", err)}
	}
	return resp.StatusCode, nil
}

// errorDetail extracts the backend's {"detail": ...} message, falling back to
// the raw body.
func errorDetail(payload []byte) string {
	var envelope struct {
		Detail json.RawMessage `json:"detail"`
	}
	if err := json.Unmarshal(payload, &envelope); err == nil && len(envelope.Detail) > 0 {
		var text string
		if err := json.Unmarshal(envelope.Detail, &text); err == nil {
			return truncate(text)
		}
		return truncate(string(envelope.Detail))
	}
	return truncate(strings.TrimSpace(string(payload)))
}

func truncate(text string) string {
	runes := []rune(text)
	if len(runes) <= maxDetailLength {
		return text
	}
	return string(runes[:maxDetailLength]) + "..."
}

func emptyResponse(op string, detail string) error {
	return &domain.NetworkError{Op: op, StatusCode: http.StatusOK, Err: errors.New(detail)}
}
