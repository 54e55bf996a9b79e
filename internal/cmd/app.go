package cmd

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"os"
	"path/filepath"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/notebookctl/internal/auth"
	"github.com/felixgeelhaar/notebookctl/internal/authclient"
	"github.com/felixgeelhaar/notebookctl/internal/config"
	"github.com/felixgeelhaar/notebookctl/internal/errors"
	"github.com/felixgeelhaar/notebookctl/internal/log"
	"github.com/felixgeelhaar/notebookctl/internal/session"
	"github.com/felixgeelhaar/notebookctl/internal/telemetry"
	"github.com/felixgeelhaar/notebookctl/internal/ux"
	"github.com/felixgeelhaar/notebookctl/internal/version"
)

// Files kept under the state directory.
const (
	sessionFile  = "auth-storage.json"
	cookieFile   = "cookies.json"
	redirectFile = "redirect"
)

// app is the per-invocation wiring: config, logger and output, plus the
// session stack once a command asks for it.
type app struct {
	cfg     *config.Config
	cfgPath string
	logger  *log.Logger
	out     io.Writer
	printer *ux.Printer

	stateDir  string
	client    *authclient.Client
	jar       http.CookieJar
	fileJar   *authclient.FileJar
	persister session.Persister
	store     *session.Store
	orch      *auth.Orchestrator
	hints     auth.RedirectHints
	closers   []func() error
}

// loadApp reads flags and configuration. It does not touch the network.
func loadApp(cmd *cobra.Command) (*app, error) {
	cc, err := NewCommandContext(cmd)
	if err != nil {
		return nil, fmt.Errorf("failed to create command context: %w", err)
	}

	path := cc.ConfigPath
	if path == "" {
		if path, err = config.DefaultPath(); err != nil {
			return nil, err
		}
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	if err := cfg.ApplyEnv(os.Getenv); err != nil {
		return nil, err
	}
	if cc.Format != "" {
		cfg.Output.Format = cc.Format
	}
	if cc.NoColor {
		cfg.Output.NoColor = true
	}
	if cc.LogLevel != "" {
		cfg.Logging.Level = cc.LogLevel
	}

	logger := log.New(log.Config{
		Level:          log.ParseLevel(cfg.Logging.Level),
		Format:         log.ParseFormat(cfg.Logging.Format),
		Output:         cmd.ErrOrStderr(),
		ServiceName:    "notebookctl",
		ServiceVersion: version.Version,
	})
	log.SetDefaultLogger(logger)

	printer, err := ux.NewPrinter(cmd.OutOrStdout(), cfg.Output.Format, cfg.Output.NoColor)
	if err != nil {
		return nil, errors.NewConfigInvalidError(err.Error())
	}

	return &app{
		cfg:     cfg,
		cfgPath: path,
		logger:  logger,
		out:     cmd.OutOrStdout(),
		printer: printer,
	}, nil
}

// openSession builds the auth client, session store and orchestrator and
// hydrates the store.
func (a *app) openSession(ctx context.Context) error {
	if err := a.cfg.Validate(); err != nil {
		return err
	}
	dir, err := a.cfg.ResolveStateDir()
	if err != nil {
		return err
	}
	a.stateDir = dir

	if err := a.openStorage(); err != nil {
		return err
	}
	if err := a.startTracing(ctx); err != nil {
		return err
	}

	a.client = authclient.New(
		authclient.EnvBaseURL("NOTEBOOKCTL_AUTH_API_URL", a.cfg.AuthAPIURL),
		authclient.WithCookieJar(a.jar),
		authclient.WithLogger(a.logger),
		authclient.WithUserAgent(version.GetInfo().UserAgent()),
	)
	a.store = session.New(a.client,
		session.WithPersister(a.persister),
		session.WithLogger(a.logger.With("component", "session")),
	)
	a.orch = auth.New(a.store, a.navigator(),
		auth.WithRedirectHints(a.hints),
		auth.WithLogger(a.logger.With("component", "auth")),
		auth.WithAuthURL(a.client.BaseURL),
	)

	if err := a.store.Hydrate(ctx); err != nil {
		a.logger.WithError(err).Warn("starting from an empty session")
	}
	return nil
}

func (a *app) openStorage() error {
	switch a.cfg.Storage.Backend {
	case config.BackendMemory:
		jar, err := cookiejar.New(nil)
		if err != nil {
			return err
		}
		a.jar = jar
		a.persister = session.NewMemoryPersister(nil)
		a.hints = auth.NewMemoryHints()
		return nil

	case config.BackendRedis:
		rc := a.cfg.Storage.Redis
		client := redis.NewClient(&redis.Options{Addr: rc.Addr, Password: rc.Password, DB: rc.DB})
		a.closers = append(a.closers, client.Close)
		a.persister = session.NewRedisPersister(client, rc.Prefix)

	default:
		a.persister = session.NewFilePersister(filepath.Join(a.stateDir, sessionFile))
	}

	jar, err := authclient.OpenFileJar(filepath.Join(a.stateDir, cookieFile))
	if err != nil {
		return errors.Wrap(errors.ErrCodeStoreReadFailed, "failed to load cookies", err).
			WithSuggestion("Run 'notebookctl auth logout' to reset local session state")
	}
	a.fileJar = jar
	a.jar = jar
	a.hints = auth.NewFileHints(filepath.Join(a.stateDir, redirectFile))
	return nil
}

// navigator prints the dashboard URL the web app would have opened.
func (a *app) navigator() auth.Navigator {
	return auth.NavigatorFunc(func(path string) {
		if a.printer.Structured() {
			return
		}
		fmt.Fprintln(a.out, a.printer.Styles().Muted.Render("→ "+a.cfg.WebPath(path)))
	})
}

// initialCheck runs the orchestrator's startup check and waits for it.
func (a *app) initialCheck(ctx context.Context) error {
	a.orch.Start(ctx)
	return a.orch.Wait(ctx)
}

// requireLogin fails with AUTH-006 unless the initial check left the
// session authenticated.
func (a *app) requireLogin(ctx context.Context) (*session.User, error) {
	if err := a.initialCheck(ctx); err != nil {
		return nil, err
	}
	if err := a.orch.ConnectionError(); err != nil {
		return nil, err
	}
	v := a.orch.View()
	if !v.IsAuthenticated {
		return nil, errors.NewNotLoggedInError()
	}
	return v.User, nil
}

// startTracing installs the tracer provider from the telemetry config.
// The provider is flushed when the app closes.
func (a *app) startTracing(ctx context.Context) error {
	tc := telemetry.DefaultConfig()
	tc.ServiceVersion = version.Version
	tc.Enabled = a.cfg.Telemetry.Enabled
	tc.Endpoint = a.cfg.Telemetry.Endpoint
	tc.Environment = a.cfg.Telemetry.Environment
	tc.SampleRate = a.cfg.Telemetry.SampleRate

	shutdown, err := telemetry.InitProvider(ctx, tc)
	if err != nil {
		return errors.NewConfigInvalidError(err.Error())
	}
	a.closers = append(a.closers, func() error {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return shutdown(ctx)
	})
	return nil
}

// cookieError reports a failed write of the persistent cookie jar.
func (a *app) cookieError() error {
	if a.fileJar == nil {
		return nil
	}
	if err := a.fileJar.Err(); err != nil {
		return errors.NewCookieWriteError(a.fileJar.Path(), err)
	}
	return nil
}

func (a *app) close() {
	if a.orch != nil {
		a.orch.Close()
	}
	for _, c := range a.closers {
		if err := c(); err != nil {
			a.logger.Debug("close failed", "error", err)
		}
	}
}

// storeError turns the store's user-facing message into a coded error.
func storeError(msg string) error {
	if msg == session.ConnectivityMessage {
		return errors.New(errors.ErrCodeAuthUnreachable, msg).
			WithSuggestion("Run 'notebookctl doctor' to see connection diagnostics")
	}
	return errors.NewAuthRejectedError(msg)
}
