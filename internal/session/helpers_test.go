package session

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/felixgeelhaar/notebookctl/internal/authclient"
)

type reply struct {
	status int
	body   string
	err    error
}

func (r reply) result() (*authclient.Response, error) {
	if r.err != nil {
		return nil, r.err
	}
	return &authclient.Response{StatusCode: r.status, Body: []byte(r.body)}, nil
}

// fakeGateway answers each endpoint with a canned reply and counts calls.
type fakeGateway struct {
	mu      sync.Mutex
	replies map[string]reply
	calls   map[string]int

	// meGate, when set, blocks Me until it is closed.
	meGate    chan struct{}
	meStarted chan struct{}
	meCount   atomic.Int32

	lastLogin  [2]string
	lastReset  [2]string
	lastVerify string
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{
		replies: map[string]reply{},
		calls:   map[string]int{},
	}
}

func (f *fakeGateway) on(endpoint string, r reply) *fakeGateway {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.replies[endpoint] = r
	return f
}

func (f *fakeGateway) count(endpoint string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[endpoint]
}

func (f *fakeGateway) answer(endpoint string) (*authclient.Response, error) {
	f.mu.Lock()
	f.calls[endpoint]++
	r, ok := f.replies[endpoint]
	f.mu.Unlock()
	if !ok {
		r = reply{status: 200, body: "{}"}
	}
	return r.result()
}

func (f *fakeGateway) Health(context.Context) (*authclient.Response, error) {
	return f.answer("health")
}

func (f *fakeGateway) Login(_ context.Context, email, password string) (*authclient.Response, error) {
	f.mu.Lock()
	f.lastLogin = [2]string{email, password}
	f.mu.Unlock()
	return f.answer("login")
}

func (f *fakeGateway) Register(context.Context, string, string, string) (*authclient.Response, error) {
	return f.answer("register")
}

func (f *fakeGateway) Me(context.Context) (*authclient.Response, error) {
	f.meCount.Add(1)
	if f.meGate != nil {
		if f.meStarted != nil {
			close(f.meStarted)
		}
		<-f.meGate
	}
	return f.answer("me")
}

func (f *fakeGateway) ForgotPassword(context.Context, string) (*authclient.Response, error) {
	return f.answer("forgot")
}

func (f *fakeGateway) ResetPassword(_ context.Context, token, pw string) (*authclient.Response, error) {
	f.mu.Lock()
	f.lastReset = [2]string{token, pw}
	f.mu.Unlock()
	return f.answer("reset")
}

func (f *fakeGateway) VerifyEmail(_ context.Context, token string) (*authclient.Response, error) {
	f.mu.Lock()
	f.lastVerify = token
	f.mu.Unlock()
	return f.answer("verify")
}

// clock is a settable time source.
type clock struct {
	mu sync.Mutex
	t  time.Time
}

func newClock() *clock {
	return &clock{t: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}
