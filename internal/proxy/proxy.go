// Package proxy forwards dashboard API calls to the backend services.
//
// Requests under /api/auth/ go to the auth service and every other /api/
// request goes to the primary API. Both base URLs are read from the
// environment on each request so a running process follows
// configuration changes without a restart.
package proxy

import (
	"encoding/json"
	"net/http"
	"net/http/httputil"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/felixgeelhaar/notebookctl/internal/errors"
	"github.com/felixgeelhaar/notebookctl/internal/log"
	"github.com/felixgeelhaar/notebookctl/internal/metrics"
	"github.com/felixgeelhaar/notebookctl/internal/telemetry"
)

// Environment keys and their defaults.
const (
	EnvAPIURL     = "INTERNAL_API_URL"
	EnvAuthAPIURL = "INTERNAL_AUTH_API_URL"

	DefaultAPIURL     = "http://localhost:15055"
	DefaultAuthAPIURL = "http://auth-api:4000"
)

// HomePath is where "/" redirects.
const HomePath = "/notebooks"

const (
	apiPrefix  = "/api/"
	authPrefix = "/api/auth/"
)

// Upstream names used as metric labels and span names.
const (
	UpstreamAuth = "auth"
	UpstreamAPI  = "api"
)

// Handler routes /api/* to the configured upstreams.
type Handler struct {
	getenv    func(string) string
	transport http.RoundTripper
	logger    *log.Logger
	metrics   *metrics.Metrics
}

// Option configures a Handler.
type Option func(*Handler)

// WithGetenv replaces os.Getenv.
func WithGetenv(getenv func(string) string) Option {
	return func(h *Handler) {
		h.getenv = getenv
	}
}

// WithTransport sets the upstream transport.
func WithTransport(rt http.RoundTripper) Option {
	return func(h *Handler) {
		h.transport = rt
	}
}

// WithLogger sets the logger.
func WithLogger(l *log.Logger) Option {
	return func(h *Handler) {
		h.logger = l
	}
}

// WithMetrics records request counts and latency per upstream.
func WithMetrics(m *metrics.Metrics) Option {
	return func(h *Handler) {
		h.metrics = m
	}
}

// New creates a proxy handler.
func New(opts ...Option) *Handler {
	h := &Handler{
		getenv:    os.Getenv,
		transport: http.DefaultTransport,
		logger:    log.Discard(),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Upstream returns the base URL a request path is forwarded to, and false
// for paths the proxy does not handle.
func (h *Handler) Upstream(path string) (string, bool) {
	_, base, ok := h.route(path)
	return base, ok
}

func (h *Handler) route(path string) (name, base string, ok bool) {
	switch {
	case strings.HasPrefix(path, authPrefix):
		return UpstreamAuth, h.lookup(EnvAuthAPIURL, DefaultAuthAPIURL), true
	case strings.HasPrefix(path, apiPrefix):
		return UpstreamAPI, h.lookup(EnvAPIURL, DefaultAPIURL), true
	default:
		return "", "", false
	}
}

func (h *Handler) lookup(key, fallback string) string {
	v := h.getenv(key)
	if v == "" {
		v = fallback
	}
	return strings.TrimRight(v, "/")
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path == "/" {
		http.Redirect(w, r, HomePath, http.StatusTemporaryRedirect)
		return
	}

	name, base, ok := h.route(r.URL.Path)
	if !ok {
		http.NotFound(w, r)
		return
	}

	ctx, span := telemetry.StartProxySpan(r, name)
	defer span.End()
	r = r.WithContext(ctx)

	sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
	start := time.Now()
	defer func() {
		telemetry.RecordStatus(span, sw.status)
		h.metrics.ObserveProxy(name, sw.status, time.Since(start))
	}()

	target, err := url.Parse(base)
	if err != nil || target.Scheme == "" || target.Host == "" {
		perr := errors.New(errors.ErrCodeProxyBadUpstream, "invalid upstream URL: "+base)
		h.logger.WithError(perr).Error("cannot proxy request", "path", r.URL.Path)
		h.metrics.RecordError(perr)
		writeError(sw, http.StatusBadGateway, perr.Message)
		return
	}

	h.logger.Debug("proxying request", "path", r.URL.Path, "target", base+r.URL.Path)

	rp := &httputil.ReverseProxy{
		Rewrite: func(pr *httputil.ProxyRequest) {
			pr.SetURL(target)
			pr.SetXForwarded()
			telemetry.Inject(pr.Out.Context(), pr.Out.Header)
		},
		Transport: h.transport,
		ErrorHandler: func(w http.ResponseWriter, r *http.Request, err error) {
			h.logger.Warn("upstream request failed", "path", r.URL.Path, "target", base, "error", err)
			telemetry.RecordError(span, err)
			writeError(w, http.StatusBadGateway, "upstream unavailable")
		},
	}
	rp.ServeHTTP(sw, r)
}

type statusWriter struct {
	http.ResponseWriter
	status      int
	wroteHeader bool
}

func (w *statusWriter) WriteHeader(code int) {
	if !w.wroteHeader {
		w.status = code
		w.wroteHeader = true
	}
	w.ResponseWriter.WriteHeader(code)
}

func (w *statusWriter) Flush() {
	if f, ok := w.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func (w *statusWriter) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}

// writeError writes the same {"error": ...} envelope the backends use.
func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
