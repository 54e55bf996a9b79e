package exitcode

import (
	"errors"
	"fmt"
	"testing"

	nberrors "github.com/felixgeelhaar/notebookctl/internal/errors"
)

func TestExitCodes(t *testing.T) {
	tests := []struct {
		name     string
		code     int
		expected int
	}{
		{"Success", Success, 0},
		{"GeneralError", GeneralError, 1},
		{"UsageError", UsageError, 2},
		{"StorageError", StorageError, 3},
		{"AuthError", AuthError, 5},
		{"NetworkError", NetworkError, 6},
		{"Interrupted", Interrupted, 130},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.code != tt.expected {
				t.Errorf("Exit code %s = %d, want %d", tt.name, tt.code, tt.expected)
			}
		})
	}
}

func TestDetermineExitCode(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected int
	}{
		{
			name:     "nil error returns success",
			err:      nil,
			expected: Success,
		},
		{
			name:     "coded unreachable error",
			err:      nberrors.NewAuthUnreachableError("http://auth", errors.New("refused")),
			expected: NetworkError,
		},
		{
			name:     "wrapped coded error",
			err:      fmt.Errorf("login: %w", nberrors.NewAuthRejectedError("Invalid credentials. Please try again.")),
			expected: AuthError,
		},
		{
			name:     "validation error",
			err:      nberrors.NewAuthValidationError("Password must be at least 8 characters"),
			expected: UsageError,
		},
		{
			name:     "store error",
			err:      nberrors.NewStoreCorruptError("checksum mismatch", nil),
			expected: StorageError,
		},
		{
			name:     "config error",
			err:      nberrors.NewConfigInvalidError("storage.backend"),
			expected: StorageError,
		},
		{
			name:     "proxy error falls to general",
			err:      nberrors.New(nberrors.ErrCodeProxyBadUpstream, "bad"),
			expected: GeneralError,
		},
		{
			name:     "plain authentication error",
			err:      errors.New("authentication failed"),
			expected: AuthError,
		},
		{
			name:     "plain connection error",
			err:      errors.New("connection refused"),
			expected: NetworkError,
		},
		{
			name:     "plain usage error",
			err:      errors.New("--email is required"),
			expected: UsageError,
		},
		{
			name:     "unknown command",
			err:      errors.New(`unknown command "foo" for "notebookctl"`),
			expected: UsageError,
		},
		{
			name:     "generic error",
			err:      errors.New("something went wrong"),
			expected: GeneralError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DetermineExitCode(tt.err); got != tt.expected {
				t.Errorf("DetermineExitCode() = %d, want %d", got, tt.expected)
			}
		})
	}
}

func TestGetExitCodeDescription(t *testing.T) {
	tests := []struct {
		code     int
		expected string
	}{
		{Success, "Success"},
		{GeneralError, "General error"},
		{UsageError, "Usage error (invalid flags or arguments)"},
		{StorageError, "Local state error"},
		{AuthError, "Authentication error"},
		{NetworkError, "Network error"},
		{Interrupted, "Interrupted"},
		{99, "Unknown error"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			if got := GetExitCodeDescription(tt.code); got != tt.expected {
				t.Errorf("GetExitCodeDescription(%d) = %q, want %q", tt.code, got, tt.expected)
			}
		})
	}
}
