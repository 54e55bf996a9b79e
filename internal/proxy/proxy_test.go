package proxy

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/felixgeelhaar/notebookctl/internal/metrics"
	"github.com/felixgeelhaar/notebookctl/internal/telemetry"
)

type seen struct {
	path  string
	query string
	fwd   string
}

func upstream(t *testing.T, name string, got *seen) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got.path = r.URL.Path
		got.query = r.URL.RawQuery
		got.fwd = r.Header.Get("X-Forwarded-Host")
		_, _ = io.WriteString(w, name)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestHandler_RoutesByPrefix(t *testing.T) {
	var apiSeen, authSeen seen
	api := upstream(t, "api", &apiSeen)
	auth := upstream(t, "auth", &authSeen)
	t.Setenv(EnvAPIURL, api.URL+"/")
	t.Setenv(EnvAuthAPIURL, auth.URL)

	front := httptest.NewServer(New())
	defer front.Close()

	resp, err := http.Get(front.URL + "/api/notebooks?limit=5")
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.Equal(t, "api", string(body))
	assert.Equal(t, "/api/notebooks", apiSeen.path)
	assert.Equal(t, "limit=5", apiSeen.query)
	assert.NotEmpty(t, apiSeen.fwd)

	resp, err = http.Get(front.URL + "/api/auth/me")
	require.NoError(t, err)
	body, _ = io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.Equal(t, "auth", string(body))
	assert.Equal(t, "/api/auth/me", authSeen.path)
}

func TestHandler_ReadsEnvironmentPerRequest(t *testing.T) {
	var firstSeen, secondSeen seen
	first := upstream(t, "first", &firstSeen)
	second := upstream(t, "second", &secondSeen)

	env := map[string]string{EnvAPIURL: first.URL}
	h := New(WithGetenv(func(k string) string { return env[k] }))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/sources", nil))
	assert.Equal(t, "first", rec.Body.String())

	env[EnvAPIURL] = second.URL
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/sources", nil))
	assert.Equal(t, "second", rec.Body.String())
}

func TestHandler_Upstream(t *testing.T) {
	h := New(WithGetenv(func(string) string { return "" }))

	tests := []struct {
		path string
		want string
		ok   bool
	}{
		{"/api/auth/login", DefaultAuthAPIURL, true},
		{"/api/notebooks/1", DefaultAPIURL, true},
		{"/api/auth", DefaultAPIURL, true},
		{"/notebooks", "", false},
		{"/apix", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			got, ok := h.Upstream(tt.path)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestHandler_RootRedirect(t *testing.T) {
	rec := httptest.NewRecorder()
	New().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusTemporaryRedirect, rec.Code)
	assert.Equal(t, HomePath, rec.Header().Get("Location"))
}

func TestHandler_NonAPIPathNotFound(t *testing.T) {
	rec := httptest.NewRecorder()
	New().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/notebooks", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandler_BadUpstream(t *testing.T) {
	h := New(WithGetenv(func(string) string { return "not a url" }))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/x", nil))

	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.JSONEq(t, `{"error":"invalid upstream URL: not a url"}`, rec.Body.String())
}

func TestHandler_UpstreamDown(t *testing.T) {
	down := httptest.NewServer(http.NotFoundHandler())
	addr := down.URL
	down.Close()

	h := New(WithGetenv(func(string) string { return addr }))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/auth/health", nil))

	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.JSONEq(t, `{"error":"upstream unavailable"}`, rec.Body.String())
}

func TestHandler_RecordsMetrics(t *testing.T) {
	var apiSeen seen
	api := upstream(t, "api", &apiSeen)
	down := httptest.NewServer(http.NotFoundHandler())
	downURL := down.URL
	down.Close()

	m := metrics.NewMetrics(prometheus.NewRegistry())
	h := New(WithMetrics(m), WithGetenv(func(key string) string {
		if key == EnvAuthAPIURL {
			return downURL
		}
		return api.URL
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/notebooks", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/auth/me", nil))
	require.Equal(t, http.StatusBadGateway, rec.Code)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.ProxyRequests.WithLabelValues(UpstreamAPI, "200")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ProxyRequests.WithLabelValues(UpstreamAuth, "502")))
}

func TestHandler_PropagatesTraceContext(t *testing.T) {
	var traceparent string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		traceparent = r.Header.Get("traceparent")
	}))
	defer srv.Close()

	_, err := telemetry.InitProvider(context.Background(), telemetry.DefaultConfig())
	require.NoError(t, err)

	h := New(WithGetenv(func(string) string { return srv.URL }))
	req := httptest.NewRequest(http.MethodGet, "/api/notebooks", nil)
	req.Header.Set("traceparent", "00-4bf92f3577b34da6a3ce929d0e0e4736-00f067aa0ba902b7-01")

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, traceparent, "4bf92f3577b34da6a3ce929d0e0e4736")
}
