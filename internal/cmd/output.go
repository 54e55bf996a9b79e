package cmd

import (
	"encoding/json"
	"sort"
	"time"

	"github.com/felixgeelhaar/notebookctl/internal/auth"
	"github.com/felixgeelhaar/notebookctl/internal/session"
	"github.com/felixgeelhaar/notebookctl/internal/ux"
)

// userMap flattens a user into the same keys the gateway sends.
func userMap(u *session.User) map[string]interface{} {
	if u == nil {
		return nil
	}
	data, err := json.Marshal(u)
	if err != nil {
		return nil
	}
	var m map[string]interface{}
	if err := json.Unmarshal(data, &m); err != nil {
		return nil
	}
	return m
}

// sessionStatus is printed by auth status and after login.
type sessionStatus struct {
	Authenticated bool                   `json:"authenticated" yaml:"authenticated"`
	AuthRequired  string                 `json:"auth_required" yaml:"auth_required"`
	User          map[string]interface{} `json:"user,omitempty" yaml:"user,omitempty"`
	LastAuthCheck *time.Time             `json:"last_auth_check,omitempty" yaml:"last_auth_check,omitempty"`
	Error         string                 `json:"error,omitempty" yaml:"error,omitempty"`

	display string
}

func newSessionStatus(st session.State, v auth.View) sessionStatus {
	s := sessionStatus{
		Authenticated: v.IsAuthenticated,
		AuthRequired:  st.AuthRequired.String(),
		User:          userMap(v.User),
		Error:         v.Error,
	}
	if v.User != nil {
		s.display = v.User.DisplayName()
	}
	if !st.LastAuthCheck.IsZero() {
		t := st.LastAuthCheck
		s.LastAuthCheck = &t
	}
	return s
}

func (s sessionStatus) RenderText(st *ux.Styles) string {
	if !s.Authenticated {
		out := st.Warn("Not logged in")
		if s.Error != "" {
			out += "\n" + st.Muted.Render(s.Error)
		}
		return out
	}
	pairs := []ux.Pair{{Key: "user", Value: s.display}}
	if email, ok := s.User["email"].(string); ok && email != "" {
		pairs = append(pairs, ux.Pair{Key: "email", Value: email})
	}
	pairs = append(pairs, ux.Pair{Key: "auth required", Value: s.AuthRequired})
	if s.LastAuthCheck != nil {
		pairs = append(pairs, ux.Pair{Key: "validated", Value: s.LastAuthCheck.Local().Format(time.RFC3339)})
	}
	return st.Ok("Logged in") + "\n" + st.KeyValues(pairs...)
}

// profileView renders every user field.
type profileView map[string]interface{}

func (p profileView) RenderText(st *ux.Styles) string {
	keys := make([]string, 0, len(p))
	for k := range p {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	pairs := make([]ux.Pair, 0, len(keys))
	for _, k := range keys {
		pairs = append(pairs, ux.Pair{Key: k, Value: stringify(p[k])})
	}
	return st.Panel("Profile", st.KeyValues(pairs...))
}

func stringify(v interface{}) string {
	if s, ok := v.(string); ok {
		return s
	}
	data, err := json.Marshal(v)
	if err != nil {
		return ""
	}
	return string(data)
}

// message is a one-line result with a structured form.
type message struct {
	OK      bool   `json:"ok" yaml:"ok"`
	Message string `json:"message" yaml:"message"`
}

func (m message) RenderText(st *ux.Styles) string {
	if m.OK {
		return st.Ok(m.Message)
	}
	return st.Fail(m.Message)
}

func pairOf(key, value string) ux.Pair {
	return ux.Pair{Key: key, Value: value}
}
