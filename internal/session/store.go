package session

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/felixgeelhaar/notebookctl/internal/authclient"
	"github.com/felixgeelhaar/notebookctl/internal/errors"
	"github.com/felixgeelhaar/notebookctl/internal/log"
)

// FreshnessWindow is how long a successful validation is trusted without
// asking the gateway again.
const FreshnessWindow = 30 * time.Second

// ConnectivityMessage is shown when the auth service cannot be reached.
const ConnectivityMessage = "Unable to connect to auth service. Please check if the API is running."

// Gateway is the subset of the auth client the store talks to.
type Gateway interface {
	Health(ctx context.Context) (*authclient.Response, error)
	Login(ctx context.Context, email, password string) (*authclient.Response, error)
	Register(ctx context.Context, name, email, password string) (*authclient.Response, error)
	Me(ctx context.Context) (*authclient.Response, error)
	ForgotPassword(ctx context.Context, email string) (*authclient.Response, error)
	ResetPassword(ctx context.Context, token, newPassword string) (*authclient.Response, error)
	VerifyEmail(ctx context.Context, token string) (*authclient.Response, error)
}

// Store owns the session state.
type Store struct {
	gateway   Gateway
	persister Persister
	logger    *log.Logger
	now       func() time.Time

	mu    sync.Mutex
	state State

	saveMu      sync.Mutex
	hydrateOnce sync.Once
	hydrated    chan struct{}
}

// Option configures a Store.
type Option func(*Store)

// WithPersister sets where {isAuthenticated, user} survive restarts.
// Without one, nothing is persisted.
func WithPersister(p Persister) Option {
	return func(s *Store) {
		s.persister = p
	}
}

// WithLogger sets the store logger.
func WithLogger(l *log.Logger) Option {
	return func(s *Store) {
		s.logger = l
	}
}

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		s.now = now
	}
}

// New creates a store with default (logged out, not hydrated) state.
func New(gateway Gateway, opts ...Option) *Store {
	s := &Store{
		gateway:  gateway,
		logger:   log.Discard(),
		now:      time.Now,
		hydrated: make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Snapshot returns a copy of the current state.
func (s *Store) Snapshot() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.clone()
}

// Hydrated is closed once Hydrate has finished, successfully or not.
func (s *Store) Hydrated() <-chan struct{} {
	return s.hydrated
}

// Hydrate overlays the persisted record onto the in-memory state and marks
// the store hydrated. Only the first call does any work. A record that
// cannot be read, fails its checksum or comes from a newer schema is
// ignored and its error returned; the store is marked hydrated either way.
func (s *Store) Hydrate(ctx context.Context) error {
	var err error
	s.hydrateOnce.Do(func() {
		err = s.load(ctx)
		s.mu.Lock()
		s.state.HasHydrated = true
		s.mu.Unlock()
		close(s.hydrated)
	})
	return err
}

func (s *Store) load(ctx context.Context) error {
	if s.persister == nil {
		return nil
	}
	data, err := s.persister.Load(ctx)
	if err != nil {
		s.logger.WithError(err).Warn("failed to load persisted session")
		return err
	}
	if data == nil {
		return nil
	}
	p, err := DecodeRecord(data)
	if err != nil {
		s.logger.WithError(err).Warn("discarding persisted session")
		return err
	}

	s.mu.Lock()
	s.state.IsAuthenticated = p.IsAuthenticated
	s.state.User = p.User
	s.mu.Unlock()
	s.logger.Debug("session hydrated", "authenticated", p.IsAuthenticated, "has_user", p.User != nil)
	return nil
}

// CheckAuthRequired probes the gateway health endpoint. Any failure leaves
// authRequired set (fail closed), records ConnectivityMessage and returns
// an AUTH-003 error so callers can tell "confirmed" from "assumed".
func (s *Store) CheckAuthRequired(ctx context.Context) (bool, error) {
	resp, err := s.gateway.Health(ctx)
	switch {
	case err != nil:
		err = errors.NewAuthServiceUnavailableError(0, err)
	case !resp.OK():
		err = errors.NewAuthServiceUnavailableError(resp.StatusCode, nil)
	}

	if err != nil {
		s.logger.WithError(err).Warn("failed to check auth status")
		s.update(ctx, func(st *State) {
			st.AuthRequired = RequirementRequired
			st.Error = ConnectivityMessage
		})
		return false, err
	}

	s.update(ctx, func(st *State) {
		st.AuthRequired = RequirementRequired
	})
	return true, nil
}

// Login authenticates with email and password. It reports success and
// leaves a user-facing message in State.Error on failure.
func (s *Store) Login(ctx context.Context, email, password string) bool {
	s.update(ctx, func(st *State) {
		st.IsLoading = true
		st.Error = ""
	})
	defer s.update(ctx, func(st *State) {
		st.IsLoading = false
	})

	resp, err := s.gateway.Login(ctx, email, password)
	if err != nil {
		s.logger.WithError(err).Warn("login request failed")
		s.update(ctx, func(st *State) {
			st.IsAuthenticated = false
			st.Error = ConnectivityMessage
		})
		return false
	}
	if !resp.OK() {
		msg := loginFailureMessage(resp.StatusCode)
		s.logger.Info("login rejected", "status", resp.StatusCode)
		s.update(ctx, func(st *State) {
			st.IsAuthenticated = false
			st.Error = msg
		})
		return false
	}

	user := decodeUser(resp.Body)
	if user == nil {
		s.logger.Warn("login succeeded without a user payload")
	}
	now := s.now()
	s.update(ctx, func(st *State) {
		st.IsAuthenticated = true
		st.User = user
		st.LastAuthCheck = now
		st.Error = ""
	})
	return true
}

func loginFailureMessage(status int) string {
	switch {
	case status == 401:
		return "Invalid credentials. Please try again."
	case status == 403:
		return "Access denied. Please check your credentials."
	case status >= 500:
		return "Server error. Please try again later."
	default:
		return fmt.Sprintf("Authentication failed (%d)", status)
	}
}

// Register creates an account. Success does not log the user in; the
// account has to be verified first.
func (s *Store) Register(ctx context.Context, name, email, password string) bool {
	s.update(ctx, func(st *State) {
		st.IsLoading = true
		st.Error = ""
	})
	defer s.update(ctx, func(st *State) {
		st.IsLoading = false
	})

	resp, err := s.gateway.Register(ctx, name, email, password)
	if err != nil {
		s.logger.WithError(err).Warn("register request failed")
		s.update(ctx, func(st *State) {
			st.Error = ConnectivityMessage
		})
		return false
	}
	if resp.OK() {
		return true
	}

	msg := registerFailureMessage(resp.StatusCode, resp.ErrorMessage())
	s.logger.Info("registration rejected", "status", resp.StatusCode)
	s.update(ctx, func(st *State) {
		st.Error = msg
	})
	return false
}

func registerFailureMessage(status int, backend string) string {
	if backend != "" {
		return backend
	}
	switch {
	case status == 409:
		return "Email already registered. Please sign in."
	case status == 400:
		return "Please check the form fields and try again."
	case status >= 500:
		return "Server error. Please try again later."
	default:
		return fmt.Sprintf("Registration failed (%d)", status)
	}
}

// Logout forgets the session locally. It does not call the gateway.
func (s *Store) Logout() {
	s.update(context.Background(), func(st *State) {
		st.IsAuthenticated = false
		st.User = nil
		st.LastAuthCheck = time.Time{}
		st.Error = ""
	})
}

// CheckAuth validates the session against /me.
//
// While a check is in flight, further calls return the current
// IsAuthenticated without a request. A successful check younger than
// FreshnessWindow is trusted; a failed one never is.
func (s *Store) CheckAuth(ctx context.Context) bool {
	now := s.now()

	s.mu.Lock()
	if s.state.IsCheckingAuth {
		authed := s.state.IsAuthenticated
		s.mu.Unlock()
		return authed
	}
	if s.state.IsAuthenticated && !s.state.LastAuthCheck.IsZero() && now.Sub(s.state.LastAuthCheck) < FreshnessWindow {
		s.mu.Unlock()
		return true
	}
	s.state.IsCheckingAuth = true
	s.mu.Unlock()

	resp, err := s.gateway.Me(ctx)
	if err != nil || !resp.OK() {
		if err != nil {
			s.logger.WithError(err).Warn("session check failed")
		} else {
			s.logger.Debug("session not valid", "status", resp.StatusCode)
		}
		s.update(ctx, func(st *State) {
			st.IsAuthenticated = false
			st.LastAuthCheck = time.Time{}
			st.IsCheckingAuth = false
		})
		return false
	}

	user := decodeUser(resp.Body)
	s.update(ctx, func(st *State) {
		st.IsAuthenticated = true
		st.User = user
		st.LastAuthCheck = now
		st.IsCheckingAuth = false
	})
	return true
}

// UpdateUser merges up into the current user. No-op when logged out.
func (s *Store) UpdateUser(up UserUpdate) {
	s.update(context.Background(), func(st *State) {
		if st.User == nil {
			return
		}
		u := st.User.Clone()
		u.apply(up)
		st.User = u
	})
}

// update applies fn under the lock and persists when the persisted
// subset changed.
func (s *Store) update(ctx context.Context, fn func(*State)) {
	s.mu.Lock()
	before := persistedOf(s.state)
	fn(&s.state)
	after := persistedOf(s.state)
	s.mu.Unlock()

	if s.persister != nil && !samePersisted(before, after) {
		s.persist(ctx)
	}
}

// persist writes the latest persisted subset. Serialized by saveMu so the
// last write always reflects the newest state.
func (s *Store) persist(ctx context.Context) {
	s.saveMu.Lock()
	defer s.saveMu.Unlock()

	s.mu.Lock()
	p := persistedOf(s.state)
	s.mu.Unlock()

	data, err := EncodeRecord(p)
	if err == nil {
		err = s.persister.Save(ctx, data)
	}
	if err != nil {
		s.logger.WithError(err).Warn("failed to persist session")
	}
}

func persistedOf(st State) Persisted {
	return Persisted{IsAuthenticated: st.IsAuthenticated, User: st.User}
}

func samePersisted(a, b Persisted) bool {
	ab, errA := json.Marshal(a)
	bb, errB := json.Marshal(b)
	if errA != nil || errB != nil {
		return false
	}
	return bytes.Equal(ab, bb)
}
