// Package server runs the `serve` HTTP front: the API proxy plus health
// probes, with graceful shutdown.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/felixgeelhaar/notebookctl/internal/health"
	"github.com/felixgeelhaar/notebookctl/internal/log"
)

// Config holds listener and timeout settings. Zero values get defaults.
type Config struct {
	Address         string
	ShutdownTimeout time.Duration
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	// Metrics is mounted at /metrics when set.
	Metrics http.Handler
}

func (c *Config) applyDefaults() {
	if c.Address == "" {
		c.Address = ":3000"
	}
	if c.ShutdownTimeout == 0 {
		c.ShutdownTimeout = 30 * time.Second
	}
	if c.ReadTimeout == 0 {
		c.ReadTimeout = 10 * time.Second
	}
	if c.WriteTimeout == 0 {
		c.WriteTimeout = 60 * time.Second
	}
	if c.IdleTimeout == 0 {
		c.IdleTimeout = 60 * time.Second
	}
}

// Server serves app behind the health endpoints.
type Server struct {
	probes     *health.Probes
	httpServer *http.Server
	cfg        Config
	logger     *log.Logger
	stopping   atomic.Bool
}

// New builds a server. app receives every path not claimed by a probe.
func New(probes *health.Probes, app http.Handler, cfg Config, logger *log.Logger) *Server {
	cfg.applyDefaults()
	if logger == nil {
		logger = log.Discard()
	}
	s := &Server{probes: probes, cfg: cfg, logger: logger}

	mux := http.NewServeMux()
	mux.HandleFunc("/health/live", s.probe(probes.Live, http.StatusOK))
	mux.HandleFunc("/health/ready", s.probe(probes.Ready, http.StatusServiceUnavailable))
	mux.HandleFunc("/health/startup", s.probe(probes.Startup, http.StatusServiceUnavailable))
	mux.HandleFunc("/healthz", s.probe(probes.Ready, http.StatusServiceUnavailable))
	if cfg.Metrics != nil {
		mux.Handle("/metrics", cfg.Metrics)
	}
	mux.Handle("/", app)

	s.httpServer = &http.Server{
		Addr:         cfg.Address,
		Handler:      s.requestLog(mux),
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}
	return s
}

// Handler exposes the full handler chain.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Run listens until ctx is cancelled, then drains connections for at most
// ShutdownTimeout. A clean shutdown returns nil.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.Address)
	if err != nil {
		return err
	}
	return s.Serve(ctx, ln)
}

// Serve is Run on an existing listener.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	errCh := make(chan error, 1)
	go func() {
		s.probes.MarkInitialized()
		s.logger.Info("listening", "addr", ln.Addr().String())
		errCh <- s.httpServer.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	s.logger.Info("shutting down", "timeout", s.cfg.ShutdownTimeout.String())
	if err := s.Shutdown(context.Background()); err != nil {
		return err
	}
	if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown fails readiness and drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	s.stopping.Store(true)
	s.probes.MarkShutdown()
	s.httpServer.SetKeepAlivesEnabled(false)

	ctx, cancel := context.WithTimeout(ctx, s.cfg.ShutdownTimeout)
	defer cancel()
	return s.httpServer.Shutdown(ctx)
}

// IsShuttingDown reports whether Shutdown has started.
func (s *Server) IsShuttingDown() bool {
	return s.stopping.Load()
}

func (s *Server) probe(check func(context.Context) *health.Report, failStatus int) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		report := check(r.Context())
		w.Header().Set("Content-Type", "application/json")
		if report.Status == health.StatusUnhealthy {
			w.WriteHeader(failStatus)
		} else {
			w.WriteHeader(http.StatusOK)
		}
		if err := json.NewEncoder(w).Encode(report); err != nil {
			s.logger.Warn("failed to encode probe response", "error", err)
		}
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// requestLog tags each request with an X-Request-ID and logs it at debug.
func (s *Server) requestLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-ID")
		if id == "" {
			id = uuid.NewString()
			r.Header.Set("X-Request-ID", id)
		}
		w.Header().Set("X-Request-ID", id)

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()
		next.ServeHTTP(rec, r)
		s.logger.DebugContext(r.Context(), "request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration", time.Since(start).String(),
			"request_id", id,
		)
	})
}
