package server

import (
	"context"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/felixgeelhaar/notebookctl/internal/health"
	"github.com/felixgeelhaar/notebookctl/internal/metrics"
	"github.com/felixgeelhaar/notebookctl/internal/proxy"
)

func newTestServer(checks ...health.Checker) (*Server, *health.Probes) {
	probes := health.NewProbes("1.0.0")
	probes.Add(checks...)
	app := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, "app:"+r.URL.Path)
	})
	return New(probes, app, Config{Address: "127.0.0.1:0"}, nil), probes
}

func get(t *testing.T, h http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func TestConfigDefaults(t *testing.T) {
	s, _ := newTestServer()
	assert.Equal(t, 30*time.Second, s.cfg.ShutdownTimeout)
	assert.Equal(t, 10*time.Second, s.httpServer.ReadTimeout)
	assert.Equal(t, 60*time.Second, s.httpServer.IdleTimeout)
}

func TestProbeEndpoints(t *testing.T) {
	unhealthy := health.CheckerFunc{CheckName: "auth-gateway", Fn: func(context.Context) *health.Result {
		return health.Unhealthy("down")
	}}
	s, probes := newTestServer(unhealthy)
	h := s.Handler()

	assert.Equal(t, http.StatusOK, get(t, h, "/health/live").Code)
	assert.Equal(t, http.StatusServiceUnavailable, get(t, h, "/health/startup").Code)

	probes.MarkInitialized()
	assert.Equal(t, http.StatusOK, get(t, h, "/health/startup").Code)

	rec := get(t, h, "/health/ready")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	var report health.Report
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &report))
	assert.Equal(t, health.StatusUnhealthy, report.Status)
	assert.Contains(t, report.Checks, "auth-gateway")

	assert.Equal(t, http.StatusServiceUnavailable, get(t, h, "/healthz").Code)
}

func TestMetricsEndpoint(t *testing.T) {
	s, _ := newTestServer()
	assert.Equal(t, "app:/metrics", get(t, s.Handler(), "/metrics").Body.String())

	reg, m := metrics.NewRegistry()
	m.ObserveProxy(proxy.UpstreamAPI, http.StatusOK, time.Millisecond)
	s = New(health.NewProbes("1.0.0"), http.NotFoundHandler(),
		Config{Address: "127.0.0.1:0", Metrics: metrics.Handler(reg)}, nil)

	rec := get(t, s.Handler(), "/metrics")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `notebookctl_proxy_requests_total{code="200",upstream="api"} 1`)
}

func TestProbeMethodNotAllowed(t *testing.T) {
	s, _ := newTestServer()
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/health/live", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestAppReceivesOtherPaths(t *testing.T) {
	s, _ := newTestServer()
	rec := get(t, s.Handler(), "/api/notebooks")
	assert.Equal(t, "app:/api/notebooks", rec.Body.String())
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
}

func TestRequestIDPropagated(t *testing.T) {
	s, _ := newTestServer()
	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set("X-Request-ID", "abc")
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	assert.Equal(t, "abc", rec.Header().Get("X-Request-ID"))
}

func TestMountsProxy(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, "backend "+r.URL.Path)
	}))
	defer upstream.Close()

	probes := health.NewProbes("1.0.0")
	p := proxy.New(proxy.WithGetenv(func(string) string { return upstream.URL }))
	s := New(probes, p, Config{}, nil)

	assert.Equal(t, "backend /api/auth/health", get(t, s.Handler(), "/api/auth/health").Body.String())
	assert.Equal(t, http.StatusTemporaryRedirect, get(t, s.Handler(), "/").Code)
}

func TestServeGracefulShutdown(t *testing.T) {
	s, probes := newTestServer()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Serve(ctx, ln) }()

	url := "http://" + ln.Addr().String() + "/health/startup"
	require.Eventually(t, func() bool {
		resp, err := http.Get(url)
		if err != nil {
			return false
		}
		resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 2*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
	assert.True(t, s.IsShuttingDown())
	assert.True(t, probes.ShuttingDown())
}
