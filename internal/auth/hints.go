package auth

import (
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// RedirectHints holds a one-shot "go here after login" path.
type RedirectHints interface {
	// Set records path, replacing any pending hint.
	Set(path string) error
	// Take returns the pending hint and clears it.
	Take() (string, bool)
}

// MemoryHints keeps the hint in memory.
type MemoryHints struct {
	mu   sync.Mutex
	path string
}

// NewMemoryHints returns an empty hint holder.
func NewMemoryHints() *MemoryHints {
	return &MemoryHints{}
}

func (m *MemoryHints) Set(path string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.path = path
	return nil
}

func (m *MemoryHints) Take() (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p := m.path
	m.path = ""
	return p, p != ""
}

// FileHints keeps the hint in a small file so it survives between CLI
// invocations, e.g. a command that needed a login records where it was.
type FileHints struct {
	mu   sync.Mutex
	path string
}

// NewFileHints stores the hint at path.
func NewFileHints(path string) *FileHints {
	return &FileHints{path: path}
}

func (f *FileHints) Set(hint string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := os.MkdirAll(filepath.Dir(f.path), 0o700); err != nil {
		return err
	}
	return os.WriteFile(f.path, []byte(hint), 0o600)
}

func (f *FileHints) Take() (string, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	data, err := os.ReadFile(f.path)
	if err != nil {
		return "", false
	}
	_ = os.Remove(f.path)
	hint := strings.TrimSpace(string(data))
	return hint, hint != ""
}
