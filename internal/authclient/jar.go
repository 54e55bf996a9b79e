package authclient

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// storedCookie is the on-disk form of a cookie set by the gateway.
type storedCookie struct {
	URL      string    `json:"url"`
	Name     string    `json:"name"`
	Value    string    `json:"value"`
	Path     string    `json:"path,omitempty"`
	Domain   string    `json:"domain,omitempty"`
	Expires  time.Time `json:"expires,omitempty"`
	Secure   bool      `json:"secure,omitempty"`
	HTTPOnly bool      `json:"http_only,omitempty"`
}

func (s storedCookie) key() string {
	return s.URL + "|" + s.Domain + "|" + s.Path + "|" + s.Name
}

func (s storedCookie) expired(now time.Time) bool {
	return !s.Expires.IsZero() && !s.Expires.After(now)
}

func (s storedCookie) cookie() *http.Cookie {
	return &http.Cookie{
		Name:     s.Name,
		Value:    s.Value,
		Path:     s.Path,
		Domain:   s.Domain,
		Expires:  s.Expires,
		Secure:   s.Secure,
		HttpOnly: s.HTTPOnly,
	}
}

// FileJar is an http.CookieJar whose cookies survive process restarts.
// Cookies set by responses are written to a JSON file (mode 0600) and
// replayed into a fresh in-memory jar on open.
type FileJar struct {
	mu      sync.Mutex
	path    string
	jar     *cookiejar.Jar
	entries map[string]storedCookie
	now     func() time.Time
	saveErr error
}

// OpenFileJar loads path if it exists. A missing file yields an empty jar.
func OpenFileJar(path string) (*FileJar, error) {
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, err
	}

	j := &FileJar{
		path:    path,
		jar:     jar,
		entries: make(map[string]storedCookie),
		now:     time.Now,
	}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return j, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read cookie jar: %w", err)
	}

	var stored []storedCookie
	if err := json.Unmarshal(data, &stored); err != nil {
		return nil, fmt.Errorf("failed to parse cookie jar %s: %w", path, err)
	}

	now := j.now()
	for _, s := range stored {
		if s.expired(now) {
			continue
		}
		u, err := url.Parse(s.URL)
		if err != nil {
			continue
		}
		j.jar.SetCookies(u, []*http.Cookie{s.cookie()})
		j.entries[s.key()] = s
	}

	return j, nil
}

// SetCookies implements http.CookieJar.
func (j *FileJar) SetCookies(u *url.URL, cookies []*http.Cookie) {
	j.mu.Lock()
	defer j.mu.Unlock()

	j.jar.SetCookies(u, cookies)

	origin := (&url.URL{Scheme: u.Scheme, Host: u.Host}).String()
	now := j.now()
	for _, c := range cookies {
		s := storedCookie{
			URL:      origin,
			Name:     c.Name,
			Value:    c.Value,
			Path:     c.Path,
			Domain:   c.Domain,
			Expires:  c.Expires,
			Secure:   c.Secure,
			HTTPOnly: c.HttpOnly,
		}
		switch {
		case c.MaxAge < 0:
			delete(j.entries, s.key())
			continue
		case c.MaxAge > 0:
			s.Expires = now.Add(time.Duration(c.MaxAge) * time.Second)
		}
		if s.expired(now) {
			delete(j.entries, s.key())
			continue
		}
		j.entries[s.key()] = s
	}

	j.saveErr = j.save()
}

// Cookies implements http.CookieJar.
func (j *FileJar) Cookies(u *url.URL) []*http.Cookie {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.jar.Cookies(u)
}

// Path is the file cookies are written to.
func (j *FileJar) Path() string {
	return j.path
}

// Err returns the error from the most recent write, if any.
func (j *FileJar) Err() error {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.saveErr
}

// Len returns the number of persisted cookies.
func (j *FileJar) Len() int {
	j.mu.Lock()
	defer j.mu.Unlock()
	return len(j.entries)
}

// Clear drops every cookie and removes the file.
func (j *FileJar) Clear() error {
	j.mu.Lock()
	defer j.mu.Unlock()

	jar, err := cookiejar.New(nil)
	if err != nil {
		return err
	}
	j.jar = jar
	j.entries = make(map[string]storedCookie)

	if err := os.Remove(j.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove cookie jar: %w", err)
	}
	return nil
}

// save must be called with j.mu held.
func (j *FileJar) save() error {
	stored := make([]storedCookie, 0, len(j.entries))
	for _, s := range j.entries {
		stored = append(stored, s)
	}

	data, err := json.MarshalIndent(stored, "", "  ")
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(j.path), 0o700); err != nil {
		return err
	}
	return os.WriteFile(j.path, data, 0o600)
}
