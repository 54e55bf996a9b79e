package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
)

// ErrorCode represents a unique error identifier
type ErrorCode string

// Error categories
const (
	// Auth gateway errors (AUTH-001 to AUTH-099)
	ErrCodeAuthUnreachable        ErrorCode = "AUTH-001"
	ErrCodeAuthInvalidCredentials ErrorCode = "AUTH-002"
	ErrCodeAuthServiceUnavailable ErrorCode = "AUTH-003"
	ErrCodeAuthRejected           ErrorCode = "AUTH-004"
	ErrCodeAuthValidation         ErrorCode = "AUTH-005"
	ErrCodeAuthNotLoggedIn        ErrorCode = "AUTH-006"

	// Session storage errors (STORE-001 to STORE-099)
	ErrCodeStoreReadFailed     ErrorCode = "STORE-001"
	ErrCodeStoreWriteFailed    ErrorCode = "STORE-002"
	ErrCodeStoreCorrupt        ErrorCode = "STORE-003"
	ErrCodeStoreVersionTooNew  ErrorCode = "STORE-004"
	ErrCodeStoreBackendUnknown ErrorCode = "STORE-005"

	// Configuration errors (CONFIG-001 to CONFIG-099)
	ErrCodeConfigReadFailed  ErrorCode = "CONFIG-001"
	ErrCodeConfigInvalid     ErrorCode = "CONFIG-002"
	ErrCodeConfigUnknownKey  ErrorCode = "CONFIG-003"
	ErrCodeConfigWriteFailed ErrorCode = "CONFIG-004"

	// Proxy errors (PROXY-001 to PROXY-099)
	ErrCodeProxyBadUpstream ErrorCode = "PROXY-001"
)

// Error is a coded error with optional suggestions and documentation link.
type Error struct {
	Code        ErrorCode
	Message     string
	Suggestions []string
	DocsURL     string
	Cause       error
}

// Error implements the error interface
func (e *Error) Error() string {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("[%s] %s", e.Code, e.Message))

	if e.Cause != nil {
		b.WriteString(fmt.Sprintf(": %v", e.Cause))
	}

	if len(e.Suggestions) > 0 {
		b.WriteString("\n\nSuggestions:")
		for _, suggestion := range e.Suggestions {
			b.WriteString(fmt.Sprintf("\n  • %s", suggestion))
		}
	}

	if e.DocsURL != "" {
		b.WriteString(fmt.Sprintf("\n\nDocumentation: %s", e.DocsURL))
	}

	return b.String()
}

// Unwrap implements error unwrapping for errors.Is and errors.As
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target carries the same code.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Code == e.Code && t.Message == ""
}

// New creates a new Error
func New(code ErrorCode, message string) *Error {
	return &Error{
		Code:    code,
		Message: message,
	}
}

// Wrap creates a new Error wrapping an existing error
func Wrap(code ErrorCode, message string, cause error) *Error {
	return &Error{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// WithSuggestion adds a suggestion to the error
func (e *Error) WithSuggestion(suggestion string) *Error {
	e.Suggestions = append(e.Suggestions, suggestion)
	return e
}

// WithSuggestions adds multiple suggestions to the error
func (e *Error) WithSuggestions(suggestions ...string) *Error {
	e.Suggestions = append(e.Suggestions, suggestions...)
	return e
}

// WithDocs adds a documentation URL to the error
func (e *Error) WithDocs(url string) *Error {
	e.DocsURL = url
	return e
}

// Code returns the code of the first *Error in err's chain, or "" if none.
func Code(err error) ErrorCode {
	var e *Error
	if stderrors.As(err, &e) {
		return e.Code
	}
	return ""
}

// HasCode reports whether err's chain contains an *Error with the given code.
func HasCode(err error, code ErrorCode) bool {
	return stderrors.Is(err, &Error{Code: code})
}

// Common error constructors

// NewAuthUnreachableError creates a transport-level failure talking to the auth service.
func NewAuthUnreachableError(url string, cause error) *Error {
	return Wrap(ErrCodeAuthUnreachable, fmt.Sprintf("unable to reach auth service at %s", url), cause).
		WithSuggestion("Check that the auth API is running").
		WithSuggestion("Verify auth_api_url with 'notebookctl config get auth_api_url'")
}

// NewAuthServiceUnavailableError is returned when the auth requirement probe fails.
func NewAuthServiceUnavailableError(status int, cause error) *Error {
	msg := "auth service unavailable"
	if status > 0 {
		msg = fmt.Sprintf("auth service unavailable: %d", status)
	}
	return Wrap(ErrCodeAuthServiceUnavailable, msg, cause).
		WithSuggestion("Run 'notebookctl doctor' to see connection diagnostics")
}

// NewAuthRejectedError carries a user-facing message from a rejected auth request.
func NewAuthRejectedError(message string) *Error {
	return New(ErrCodeAuthRejected, message)
}

// NewAuthValidationError is a client-side input validation failure.
func NewAuthValidationError(message string) *Error {
	return New(ErrCodeAuthValidation, message)
}

// NewNotLoggedInError is returned by commands that require a session.
func NewNotLoggedInError() *Error {
	return New(ErrCodeAuthNotLoggedIn, "not logged in").
		WithSuggestion("Run 'notebookctl auth login' first")
}

// NewStoreCorruptError creates a persisted-record parse or integrity error.
func NewStoreCorruptError(detail string, cause error) *Error {
	return Wrap(ErrCodeStoreCorrupt, fmt.Sprintf("persisted session is corrupt: %s", detail), cause).
		WithSuggestion("Run 'notebookctl auth logout' to reset local session state")
}

// NewStoreVersionTooNewError is returned for records written by a newer client.
func NewStoreVersionTooNewError(stored, current int) *Error {
	return New(ErrCodeStoreVersionTooNew,
		fmt.Sprintf("persisted session version %d is newer than supported version %d", stored, current)).
		WithSuggestion("Upgrade notebookctl")
}

// NewCookieWriteError is returned when the session cookie could not be saved.
func NewCookieWriteError(path string, cause error) *Error {
	return Wrap(ErrCodeStoreWriteFailed, fmt.Sprintf("session cookie was not saved to %s", path), cause).
		WithSuggestion("Check that the state directory is writable ('notebookctl config get state_dir')").
		WithSuggestion("Run 'notebookctl auth login' again once it is")
}

// NewConfigUnknownKeyError creates an unknown configuration key error.
func NewConfigUnknownKeyError(key string) *Error {
	return New(ErrCodeConfigUnknownKey, fmt.Sprintf("unknown configuration key: %s", key)).
		WithSuggestion("Run 'notebookctl config view' to list available keys")
}

// NewConfigInvalidError creates a configuration validation error.
func NewConfigInvalidError(details string) *Error {
	return New(ErrCodeConfigInvalid, fmt.Sprintf("invalid configuration: %s", details)).
		WithSuggestion("Run 'notebookctl config path' and fix the file")
}

// NewFileUnmarshalError creates an unmarshal error
func NewFileUnmarshalError(path string, format string, cause error) *Error {
	return Wrap(ErrCodeConfigReadFailed, fmt.Sprintf("failed to parse %s file: %s", format, path), cause).
		WithSuggestion("Check the file syntax and format").
		WithSuggestion(fmt.Sprintf("Ensure the file is valid %s", format))
}
