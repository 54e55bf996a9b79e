package health

import (
	"context"

	"github.com/felixgeelhaar/notebookctl/internal/session"
)

// SessionChecker verifies the persisted session record can be read.
type SessionChecker struct {
	persister session.Persister
	backend   string
}

// NewSessionChecker checks p; backend is reported in the details.
func NewSessionChecker(p session.Persister, backend string) *SessionChecker {
	return &SessionChecker{persister: p, backend: backend}
}

func (c *SessionChecker) Name() string {
	return "session-store"
}

func (c *SessionChecker) Check(ctx context.Context) *Result {
	data, err := c.persister.Load(ctx)
	if err != nil {
		return c.describe(Unhealthy("session storage unreadable")).
			WithDetail("error", err.Error())
	}
	if data == nil {
		return c.describe(Healthy("no saved session"))
	}
	rec, err := session.DecodeRecord(data)
	if err != nil {
		return c.describe(Degraded("saved session will be discarded")).
			WithDetail("error", err.Error())
	}
	return c.describe(Healthy("saved session readable")).
		WithDetail("authenticated", rec.IsAuthenticated)
}

// describe adds the backend and, where it has one, the record location.
func (c *SessionChecker) describe(r *Result) *Result {
	r.WithDetail("backend", c.backend)
	switch p := c.persister.(type) {
	case *session.FilePersister:
		r.WithDetail("location", p.Path())
	case *session.RedisPersister:
		r.WithDetail("location", p.Key())
	}
	return r
}
