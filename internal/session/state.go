package session

import "time"

// Requirement says whether the backend requires authentication at all.
type Requirement int

const (
	// RequirementUnknown means the gateway has not been probed yet.
	RequirementUnknown Requirement = iota
	// RequirementRequired is also the fail-closed answer when the probe fails.
	RequirementRequired
	// RequirementNotRequired is reserved for deployments without auth.
	RequirementNotRequired
)

func (r Requirement) String() string {
	switch r {
	case RequirementRequired:
		return "required"
	case RequirementNotRequired:
		return "not-required"
	default:
		return "unknown"
	}
}

// State is a point-in-time copy of the session.
type State struct {
	User            *User
	IsAuthenticated bool
	IsLoading       bool
	IsCheckingAuth  bool
	// Error is the last user-facing failure message; empty means none.
	Error string
	// LastAuthCheck is the time of the last successful validation; zero means none.
	LastAuthCheck time.Time
	HasHydrated   bool
	AuthRequired  Requirement
}

func (s State) clone() State {
	s.User = s.User.Clone()
	return s
}
