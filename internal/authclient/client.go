// Package authclient talks to the authentication gateway.
//
// The client knows endpoints and request shapes only. It returns the raw
// status code and body of every call and leaves interpretation to the
// session store. A non-nil error means the request never produced a
// response (base URL could not be resolved, transport failure).
package authclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/felixgeelhaar/notebookctl/internal/errors"
	"github.com/felixgeelhaar/notebookctl/internal/log"
	"github.com/felixgeelhaar/notebookctl/internal/metrics"
	"github.com/felixgeelhaar/notebookctl/internal/telemetry"
)

// Gateway endpoint paths, relative to the resolved base URL.
const (
	PathHealth         = "/api/auth/health"
	PathLogin          = "/api/auth/login"
	PathRegister       = "/api/auth/register"
	PathMe             = "/api/auth/me"
	PathForgotPassword = "/api/auth/forgot-password"
	PathResetPassword  = "/api/auth/reset-password"
	PathVerifyEmail    = "/api/auth/verify-email"
)

// HeaderRequestID carries a per-request correlation ID.
const HeaderRequestID = "X-Request-ID"

// BaseURLResolver returns the auth service base URL. It is called on every
// request so the service can be relocated without restarting the client.
type BaseURLResolver func(ctx context.Context) (string, error)

// StaticBaseURL always resolves to u.
func StaticBaseURL(u string) BaseURLResolver {
	return func(context.Context) (string, error) {
		return u, nil
	}
}

// EnvBaseURL reads key from the environment at call time, using fallback
// when it is unset or empty.
func EnvBaseURL(key, fallback string) BaseURLResolver {
	return func(context.Context) (string, error) {
		if v := os.Getenv(key); v != "" {
			return v, nil
		}
		if fallback == "" {
			return "", fmt.Errorf("%s is not set", key)
		}
		return fallback, nil
	}
}

// Client is the auth gateway API client
type Client struct {
	resolve    BaseURLResolver
	httpClient *http.Client
	userAgent  string
	logger     *log.Logger
	metrics    *metrics.Metrics
	requestID  func() string
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithCookieJar sets the jar used for cookie-based session continuity.
func WithCookieJar(jar http.CookieJar) Option {
	return func(c *Client) {
		c.httpClient.Jar = jar
	}
}

// WithLogger sets the logger for request diagnostics.
func WithLogger(l *log.Logger) Option {
	return func(c *Client) {
		c.logger = l
	}
}

// WithMetrics records per-endpoint request counts and latency.
func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Client) {
		c.metrics = m
	}
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(c *Client) {
		c.userAgent = ua
	}
}

// New creates a new gateway client
func New(resolve BaseURLResolver, opts ...Option) *Client {
	c := &Client{
		resolve: resolve,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		userAgent: "notebookctl",
		logger:    log.DefaultLogger(),
		requestID: func() string { return uuid.NewString() },
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL resolves the current base URL without a trailing slash.
func (c *Client) BaseURL(ctx context.Context) (string, error) {
	base, err := c.resolve(ctx)
	if err != nil {
		return "", err
	}
	return strings.TrimRight(base, "/"), nil
}

// Response is the raw outcome of a gateway call.
type Response struct {
	StatusCode int
	Body       []byte
}

// OK reports whether the status is 2xx.
func (r *Response) OK() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// errorEnvelope is the error body every endpoint may return.
type errorEnvelope struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// ErrorMessage returns the body's "error" field, falling back to
// "message". It returns "" when neither is present or the body is not JSON.
func (r *Response) ErrorMessage() string {
	var env errorEnvelope
	if err := json.Unmarshal(r.Body, &env); err != nil {
		return ""
	}
	if env.Error != "" {
		return env.Error
	}
	return env.Message
}

// Health probes the gateway.
func (c *Client) Health(ctx context.Context) (*Response, error) {
	return c.do(ctx, http.MethodGet, PathHealth, nil)
}

// Login posts credentials.
func (c *Client) Login(ctx context.Context, email, password string) (*Response, error) {
	return c.do(ctx, http.MethodPost, PathLogin, map[string]string{
		"email":    email,
		"password": password,
	})
}

// Register creates an account. Success does not log the user in.
func (c *Client) Register(ctx context.Context, name, email, password string) (*Response, error) {
	return c.do(ctx, http.MethodPost, PathRegister, map[string]string{
		"name":     name,
		"email":    email,
		"password": password,
	})
}

// Me returns the identity bound to the current session cookie.
func (c *Client) Me(ctx context.Context) (*Response, error) {
	return c.do(ctx, http.MethodGet, PathMe, nil)
}

// ForgotPassword requests a reset link.
func (c *Client) ForgotPassword(ctx context.Context, email string) (*Response, error) {
	return c.do(ctx, http.MethodPost, PathForgotPassword, map[string]string{
		"email": email,
	})
}

// ResetPassword sets a new password using a reset token.
func (c *Client) ResetPassword(ctx context.Context, token, newPassword string) (*Response, error) {
	return c.do(ctx, http.MethodPost, PathResetPassword, map[string]string{
		"token":       token,
		"newPassword": newPassword,
	})
}

// VerifyEmail confirms an email verification token.
func (c *Client) VerifyEmail(ctx context.Context, token string) (*Response, error) {
	return c.do(ctx, http.MethodPost, PathVerifyEmail, map[string]string{
		"token": token,
	})
}

func (c *Client) do(ctx context.Context, method, path string, body interface{}) (*Response, error) {
	ctx, span := telemetry.StartGatewaySpan(ctx, method, path)
	defer span.End()

	start := time.Now()
	resp, err := c.send(ctx, method, path, body)
	if err != nil {
		telemetry.RecordError(span, err)
		c.metrics.ObserveGateway(path, 0, err, time.Since(start))
		return nil, err
	}
	telemetry.RecordStatus(span, resp.StatusCode)
	c.metrics.ObserveGateway(path, resp.StatusCode, nil, time.Since(start))
	return resp, nil
}

func (c *Client) send(ctx context.Context, method, path string, body interface{}) (*Response, error) {
	base, err := c.BaseURL(ctx)
	if err != nil {
		return nil, errors.NewAuthUnreachableError("<unresolved>", err)
	}

	var reqBody io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request body: %w", err)
		}
		reqBody = bytes.NewReader(jsonBody)
	}

	req, err := http.NewRequestWithContext(ctx, method, base+path, reqBody)
	if err != nil {
		return nil, errors.NewAuthUnreachableError(base, err)
	}

	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if path == PathHealth {
		req.Header.Set("Cache-Control", "no-store")
	}
	req.Header.Set("User-Agent", c.userAgent)
	requestID := c.requestID()
	req.Header.Set(HeaderRequestID, requestID)
	telemetry.Inject(ctx, req.Header)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Debug("auth gateway request failed",
			"method", method, "path", path, "request_id", requestID, "error", err.Error())
		return nil, errors.NewAuthUnreachableError(base, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.NewAuthUnreachableError(base, fmt.Errorf("failed to read response: %w", err))
	}

	c.logger.Debug("auth gateway request",
		"method", method,
		"path", path,
		"status", resp.StatusCode,
		"request_id", requestID,
		"duration", time.Since(start).String(),
	)

	return &Response{StatusCode: resp.StatusCode, Body: data}, nil
}
