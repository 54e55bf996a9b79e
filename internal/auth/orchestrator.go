// Package auth sequences the session store's startup checks and turns
// login and logout outcomes into navigation.
//
// An Orchestrator runs the initial "is auth required / am I logged in"
// check once per process, after the store has hydrated. Front ends read
// a View instead of the raw store state because View.IsLoading stays
// true until every prerequisite has settled.
package auth

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/felixgeelhaar/notebookctl/internal/log"
	"github.com/felixgeelhaar/notebookctl/internal/session"
)

// Paths the orchestrator navigates to.
const (
	LandingPath = "/notebooks"
	LoginPath   = "/login"
)

// SessionStore is what the orchestrator needs from session.Store.
type SessionStore interface {
	Hydrated() <-chan struct{}
	Snapshot() session.State
	CheckAuthRequired(ctx context.Context) (bool, error)
	CheckAuth(ctx context.Context) bool
	Login(ctx context.Context, email, password string) bool
	Register(ctx context.Context, name, email, password string) bool
	Logout()
}

// Navigator moves the front end to a path.
type Navigator interface {
	Navigate(path string)
}

// NavigatorFunc adapts a function to Navigator.
type NavigatorFunc func(path string)

// Navigate calls f(path).
func (f NavigatorFunc) Navigate(path string) {
	f(path)
}

// View is the consumer-facing session state.
type View struct {
	User            *session.User
	IsAuthenticated bool
	// IsLoading is true while any store request is in flight, before
	// hydration, and until the initial check has completed.
	IsLoading bool
	Error     string
}

// Orchestrator coordinates a SessionStore with navigation.
type Orchestrator struct {
	store   SessionStore
	nav     Navigator
	hints   RedirectHints
	logger  *log.Logger
	authURL func(ctx context.Context) (string, error)

	startOnce sync.Once
	started   atomic.Bool
	finished  chan struct{}
	cancelled atomic.Bool

	mu          sync.Mutex
	initialDone bool
	connErr     error
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithRedirectHints sets where the post-login destination is read from.
func WithRedirectHints(h RedirectHints) Option {
	return func(o *Orchestrator) {
		o.hints = h
	}
}

// WithLogger sets the logger.
func WithLogger(l *log.Logger) Option {
	return func(o *Orchestrator) {
		o.logger = l
	}
}

// WithAuthURL sets how Diagnostics resolves the auth API address.
func WithAuthURL(resolve func(ctx context.Context) (string, error)) Option {
	return func(o *Orchestrator) {
		o.authURL = resolve
	}
}

// New creates an orchestrator. The initial check does not run until Start.
func New(store SessionStore, nav Navigator, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		store:    store,
		nav:      nav,
		hints:    NewMemoryHints(),
		logger:   log.Discard(),
		finished: make(chan struct{}),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Start launches the initial check in the background. Later calls are no-ops.
func (o *Orchestrator) Start(ctx context.Context) {
	o.startOnce.Do(func() {
		o.started.Store(true)
		go o.runInitialCheck(ctx)
	})
}

func (o *Orchestrator) runInitialCheck(ctx context.Context) {
	defer close(o.finished)

	select {
	case <-o.store.Hydrated():
	case <-ctx.Done():
		return
	}

	defer func() {
		if o.cancelled.Load() {
			return
		}
		o.mu.Lock()
		o.initialDone = true
		o.mu.Unlock()
	}()

	required := o.store.Snapshot().AuthRequired
	if required == session.RequirementUnknown {
		if _, err := o.store.CheckAuthRequired(ctx); err != nil {
			o.logger.WithError(err).Warn("failed to check auth")
			o.mu.Lock()
			o.connErr = err
			o.mu.Unlock()
			return
		}
		required = o.store.Snapshot().AuthRequired
	}

	if required == session.RequirementRequired && !o.cancelled.Load() {
		o.store.CheckAuth(ctx)
	}
}

// Close tears the orchestrator down. An initial check still in flight is
// not aborted, but its completion is no longer recorded.
func (o *Orchestrator) Close() {
	o.cancelled.Store(true)
}

// Wait blocks until the background check has returned or ctx is done.
// It returns immediately if Start was never called.
func (o *Orchestrator) Wait(ctx context.Context) error {
	if !o.started.Load() {
		return nil
	}
	select {
	case <-o.finished:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// InitialCheckDone reports whether the initial check completed while the
// orchestrator was live.
func (o *Orchestrator) InitialCheckDone() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.initialDone
}

// ConnectionError is the failure from the auth requirement probe, if any.
// Non-nil means the requirement was assumed, not confirmed.
func (o *Orchestrator) ConnectionError() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.connErr
}

// IsLoading is the composite loading flag.
func (o *Orchestrator) IsLoading() bool {
	st := o.store.Snapshot()
	return st.IsLoading || st.IsCheckingAuth || !st.HasHydrated || !o.InitialCheckDone()
}

// View returns the consumer-facing state.
func (o *Orchestrator) View() View {
	st := o.store.Snapshot()
	return View{
		User:            st.User,
		IsAuthenticated: st.IsAuthenticated,
		IsLoading:       st.IsLoading || st.IsCheckingAuth || !st.HasHydrated || !o.InitialCheckDone(),
		Error:           st.Error,
	}
}

// Login authenticates and, on success, navigates to the pending redirect
// hint or the landing page.
func (o *Orchestrator) Login(ctx context.Context, email, password string) bool {
	if !o.store.Login(ctx, email, password) {
		return false
	}
	dest := LandingPath
	if path, ok := o.hints.Take(); ok {
		dest = path
	}
	o.logger.Debug("login navigation", "path", dest)
	o.nav.Navigate(dest)
	return true
}

// Logout clears the session and navigates to the login page.
func (o *Orchestrator) Logout() {
	o.store.Logout()
	o.nav.Navigate(LoginPath)
}

// Register creates an account. No navigation happens.
func (o *Orchestrator) Register(ctx context.Context, name, email, password string) bool {
	return o.store.Register(ctx, name, email, password)
}
