package cmd

import (
	"context"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/notebookctl/internal/authclient"
	"github.com/felixgeelhaar/notebookctl/internal/health"
	"github.com/felixgeelhaar/notebookctl/internal/metrics"
	"github.com/felixgeelhaar/notebookctl/internal/proxy"
	"github.com/felixgeelhaar/notebookctl/internal/server"
	"github.com/felixgeelhaar/notebookctl/internal/version"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the dashboard API proxy with health endpoints",
	Long: `Run the dashboard's server-side API proxy.

  /api/auth/*     forwarded to $INTERNAL_AUTH_API_URL (default http://auth-api:4000)
  /api/*          forwarded to $INTERNAL_API_URL (default http://localhost:15055)
  /               redirects to /notebooks

Upstream URLs are read on every request. Health endpoints:
  /health/live    - Liveness probe
  /health/ready   - Readiness probe (auth gateway and primary API)
  /health/startup - Startup probe
  /healthz        - Readiness alias
  /metrics        - Prometheus metrics

SIGTERM or SIGINT fails readiness and drains connections before exiting.

Example:
  notebookctl serve --address :3000 --shutdown-timeout 60s`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().String("address", "", "address to listen on (default serve.address)")
	serveCmd.Flags().Duration("shutdown-timeout", 0, "maximum time to drain connections (default serve.shutdown_timeout)")

	rootCmd.AddCommand(serveCmd)
}

// newServeServer wires the proxy and probes. getenv is consulted per
// request and per health check.
func newServeServer(a *app, cfg server.Config, getenv func(string) string) *server.Server {
	resolve := func(key, fallback string) func(context.Context) (string, error) {
		return func(context.Context) (string, error) {
			if v := getenv(key); v != "" {
				return strings.TrimRight(v, "/"), nil
			}
			return fallback, nil
		}
	}

	reg, m := metrics.NewRegistry()
	cfg.Metrics = metrics.Handler(reg)

	gateway := authclient.New(
		resolve(proxy.EnvAuthAPIURL, proxy.DefaultAuthAPIURL),
		authclient.WithLogger(a.logger),
		authclient.WithUserAgent(version.GetInfo().UserAgent()),
		authclient.WithMetrics(m),
	)

	probes := health.NewProbes(version.Version)
	probes.OnResult(func(name string, status health.Status) {
		m.ObserveHealth(name, string(status))
	})
	probes.Add(
		health.NewGatewayChecker(gateway),
		health.NewHTTPChecker("primary-api", resolve(proxy.EnvAPIURL, proxy.DefaultAPIURL),
			&http.Client{Timeout: health.DefaultTimeout}),
	)

	app := proxy.New(
		proxy.WithGetenv(getenv),
		proxy.WithLogger(a.logger.With("component", "proxy")),
		proxy.WithMetrics(m),
	)
	return server.New(probes, app, cfg, a.logger.With("component", "server"))
}

func runServe(cmd *cobra.Command, args []string) error {
	a, err := loadApp(cmd)
	if err != nil {
		return err
	}

	cfg := server.Config{
		Address:         a.cfg.Serve.Address,
		ShutdownTimeout: a.cfg.Serve.ShutdownTimeout,
	}
	if v, _ := cmd.Flags().GetString("address"); v != "" {
		cfg.Address = v
	}
	if v, _ := cmd.Flags().GetDuration("shutdown-timeout"); v > 0 {
		cfg.ShutdownTimeout = v
	}

	if err := a.startTracing(cmd.Context()); err != nil {
		return err
	}
	defer a.close()

	srv := newServeServer(a, cfg, os.Getenv)

	if !a.printer.Structured() {
		st := a.printer.Styles()
		a.printer.Printf("%s\n", st.Panel("notebookctl "+version.Version, st.KeyValues(
			pairOf("listening", cfg.Address),
			pairOf("auth api", envOr(proxy.EnvAuthAPIURL, proxy.DefaultAuthAPIURL)),
			pairOf("api", envOr(proxy.EnvAPIURL, proxy.DefaultAPIURL)),
			pairOf("probes", "/health/live /health/ready /health/startup"),
			pairOf("metrics", "/metrics"),
		)))
	}

	start := time.Now()
	if err := srv.Run(cmd.Context()); err != nil {
		return err
	}
	a.logger.Info("server stopped", "uptime", time.Since(start).Round(time.Second).String())
	return nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
