// Package apiclient is the single HTTP client used to reach the
// presentation backend. It injects the session bearer token, applies one
// fixed timeout and handles 401 responses centrally.
package apiclient

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
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/example/plateforme-admin/internal/logging"
)

// DefaultTimeout applies when Config.Timeout is zero.
const DefaultTimeout = 10 * time.Second

const maxErrorBody = 64 << 10

// SessionHandle is the part of the session manager the client needs.
type SessionHandle interface {
	Token(ctx context.Context) string
	Invalidate(ctx context.Context) error
}

// Config configures New.
type Config struct {
	BaseURL string
	Timeout time.Duration
	// HTTPClient overrides the underlying client; its Timeout is replaced by
	// Config.Timeout.
	HTTPClient *http.Client
	// OnUnauthorized runs after the session is invalidated on a 401.
	OnUnauthorized func(ctx context.Context)
	RequestID      func() string
	Logger         *slog.Logger
}

// Client sends requests relative to one base address.
type Client struct {
	baseURL        *url.URL
	http           *http.Client
	session        SessionHandle
	onUnauthorized func(ctx context.Context)
	requestID      func() string
	logger         *slog.Logger
}

// Request describes one backend call. Body is JSON encoded unless Form is set.
type Request struct {
	Method string
	Path   string
	Query  url.Values
	Body   any
	Form   *Multipart
}

// New constructs a Client. session may be nil for unauthenticated use.
func New(cfg Config, session SessionHandle) (*Client, error) {
	base, err := url.Parse(strings.TrimRight(cfg.BaseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("invalid base URL: %w", err)
	}
	if base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("invalid base URL %q: scheme and host are required", cfg.BaseURL)
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	httpClient := &http.Client{}
	if cfg.HTTPClient != nil {
		copied := *cfg.HTTPClient
		httpClient = &copied
	}
	httpClient.Timeout = timeout

	requestID := cfg.RequestID
	if requestID == nil {
		requestID = func() string { return uuid.NewString() }
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Client{
		baseURL:        base,
		http:           httpClient,
		session:        session,
		onUnauthorized: cfg.OnUnauthorized,
		requestID:      requestID,
		logger:         logger,
	}, nil
}

// Get decodes the response of GET path into out.
func (c *Client) Get(ctx context.Context, path string, query url.Values, out any) error {
	return c.Do(ctx, Request{Method: http.MethodGet, Path: path, Query: query}, out)
}

// Post sends body as JSON and decodes the response into out.
func (c *Client) Post(ctx context.Context, path string, query url.Values, body, out any) error {
	return c.Do(ctx, Request{Method: http.MethodPost, Path: path, Query: query, Body: body}, out)
}

// Put sends body as JSON and decodes the response into out.
func (c *Client) Put(ctx context.Context, path string, query url.Values, body, out any) error {
	return c.Do(ctx, Request{Method: http.MethodPut, Path: path, Query: query, Body: body}, out)
}

// Delete issues DELETE path.
func (c *Client) Delete(ctx context.Context, path string) error {
	return c.Do(ctx, Request{Method: http.MethodDelete, Path: path}, nil)
}

// Do sends req and decodes a successful response body into out when out is
// non-nil.
func (c *Client) Do(ctx context.Context, req Request, out any) (err error) {
	requestID := c.requestID()
	logger := logging.FromContext(ctx)
	if logger == nil {
		logger = c.logger
	}
	logger = logger.With("component", "apiclient", "request_id", requestID, "method", req.Method, "path", req.Path)

	start := time.Now()
	status := 0
	defer func() {
		attrs := []any{"status", status, "duration", time.Since(start)}
		if err != nil {
			logger.WarnContext(ctx, "backend call failed", append(attrs, "error", err)...)
			return
		}
		logger.DebugContext(ctx, "backend call completed", attrs...)
	}()

	httpReq, err := c.newRequest(ctx, req, requestID)
	if err != nil {
		return err
	}

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return &NetworkError{Method: req.Method, Path: req.Path, Err: err}
	}
	defer resp.Body.Close()
	status = resp.StatusCode

	if resp.StatusCode == http.StatusUnauthorized {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxErrorBody))
		c.handleUnauthorized(ctx, logger)
		return ErrUnauthorized
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeAPIError(resp)
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	return decodeBody(resp.Body, out)
}

func (c *Client) newRequest(ctx context.Context, req Request, requestID string) (*http.Request, error) {
	target := *c.baseURL
	target.Path = c.baseURL.Path + "/" + strings.TrimLeft(req.Path, "/")
	if len(req.Query) > 0 {
		target.RawQuery = req.Query.Encode()
	}

	var (
		body        io.Reader
		contentType = "application/json"
	)
	switch {
	case req.Form != nil:
		encoded, formType, err := req.Form.encode()
		if err != nil {
			return nil, err
		}
		body, contentType = encoded, formType
	case req.Body != nil:
		payload, err := json.Marshal(req.Body)
		if err != nil {
			return nil, fmt.Errorf("failed to encode request body: %w", err)
		}
		body = bytes.NewReader(payload)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, target.String(), body)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", contentType)
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("X-Request-ID", requestID)
	if c.session != nil {
		if token := c.session.Token(ctx); token != "" {
			httpReq.Header.Set("Authorization", "Bearer "+token)
		}
	}
	return httpReq, nil
}

func (c *Client) handleUnauthorized(ctx context.Context, logger *slog.Logger) {
	if c.session != nil {
		if err := c.session.Invalidate(ctx); err != nil {
			logger.ErrorContext(ctx, "failed to invalidate session after 401", "error", err)
		}
	}
	logger.InfoContext(ctx, "backend rejected credentials; session cleared")
	if c.onUnauthorized != nil {
		c.onUnauthorized(ctx)
	}
}

func decodeAPIError(resp *http.Response) error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	apiErr := &APIError{StatusCode: resp.StatusCode, Body: raw}

	var parsed errorBody
	if len(bytes.TrimSpace(raw)) > 0 {
		if err := json.Unmarshal(raw, &parsed); err == nil {
			apiErr.Message = parsed.message()
			apiErr.Fields = parsed.fields()
		} else if !bytes.HasPrefix(bytes.TrimSpace(raw), []byte("<")) {
			apiErr.Message = strings.TrimSpace(string(raw))
		}
	}
	return apiErr
}

func decodeBody(r io.Reader, out any) error {
	raw, err := io.ReadAll(r)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}
	if text, ok := out.(*string); ok && !json.Valid(raw) {
		*text = string(raw)
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("failed to decode response body: %w", errors.Join(ErrDecode, err))
	}
	return nil
}
