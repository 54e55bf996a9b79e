package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// gateway is a minimal auth service: one account, cookie sessions.
type gateway struct {
	mu       sync.Mutex
	sessions map[string]bool
	requests map[string]int
	// beforeLogin runs before a successful login response is written.
	beforeLogin func()
}

const (
	testEmail    = "ada@example.com"
	testPassword = "secret123"
	testCookie   = "sid"
)

func newGateway(t *testing.T) (*gateway, *httptest.Server) {
	t.Helper()
	g := &gateway{sessions: map[string]bool{}, requests: map[string]int{}}
	srv := httptest.NewServer(http.HandlerFunc(g.serve))
	t.Cleanup(srv.Close)
	return g, srv
}

func (g *gateway) count(path string) int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.requests[path]
}

func (g *gateway) serve(w http.ResponseWriter, r *http.Request) {
	g.mu.Lock()
	g.requests[r.URL.Path]++
	g.mu.Unlock()

	var body map[string]string
	if r.Body != nil {
		_ = json.NewDecoder(r.Body).Decode(&body)
	}

	switch r.URL.Path {
	case "/api/auth/health":
		reply(w, http.StatusOK, map[string]string{"status": "ok"})

	case "/api/auth/login":
		if body["email"] != testEmail || body["password"] != testPassword {
			reply(w, http.StatusUnauthorized, map[string]string{"error": "bad credentials"})
			return
		}
		g.mu.Lock()
		g.sessions["s-1"] = true
		hook := g.beforeLogin
		g.mu.Unlock()
		if hook != nil {
			hook()
		}
		http.SetCookie(w, &http.Cookie{Name: testCookie, Value: "s-1", Path: "/", HttpOnly: true})
		reply(w, http.StatusOK, map[string]interface{}{"user": testUser()})

	case "/api/auth/me":
		c, err := r.Cookie(testCookie)
		g.mu.Lock()
		ok := err == nil && g.sessions[c.Value]
		g.mu.Unlock()
		if !ok {
			reply(w, http.StatusUnauthorized, map[string]string{"error": "no session"})
			return
		}
		reply(w, http.StatusOK, testUser())

	case "/api/auth/register":
		if body["email"] == testEmail {
			reply(w, http.StatusConflict, map[string]string{})
			return
		}
		reply(w, http.StatusCreated, map[string]string{"message": "created"})

	case "/api/auth/forgot-password":
		reply(w, http.StatusOK, map[string]string{})

	case "/api/auth/reset-password":
		if body["token"] != "reset-ok" {
			reply(w, http.StatusBadRequest, map[string]string{"message": "Reset link expired"})
			return
		}
		reply(w, http.StatusOK, map[string]string{})

	case "/api/auth/verify-email":
		if body["token"] != "verify-ok" {
			reply(w, http.StatusBadRequest, map[string]string{"message": "Invalid token"})
			return
		}
		reply(w, http.StatusOK, map[string]string{})

	default:
		http.NotFound(w, r)
	}
}

func testUser() map[string]interface{} {
	return map[string]interface{}{"id": "u-1", "email": testEmail, "name": "Ada"}
}

func reply(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// setupCLI points the CLI at authURL with a throwaway home directory.
func setupCLI(t *testing.T, authURL string) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("NOTEBOOKCTL_HOME", home)
	t.Setenv("NOTEBOOKCTL_AUTH_API_URL", authURL)
	t.Setenv("NOTEBOOKCTL_STORAGE", "")
	t.Setenv("CI", "true")
	return home
}

// runCLI executes the root command and returns stdout.
func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	resetFlags(rootCmd)

	var out, errOut bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&errOut)
	rootCmd.SetArgs(args)
	err := rootCmd.ExecuteContext(context.Background())
	return out.String(), err
}

// resetFlags restores every flag to its default; cobra keeps values
// between Execute calls.
func resetFlags(c *cobra.Command) {
	reset := func(f *pflag.Flag) {
		if sv, ok := f.Value.(pflag.SliceValue); ok {
			_ = sv.Replace(nil)
		} else {
			_ = f.Value.Set(f.DefValue)
		}
		f.Changed = false
	}
	c.Flags().VisitAll(reset)
	c.PersistentFlags().VisitAll(reset)
	for _, sub := range c.Commands() {
		resetFlags(sub)
	}
}
