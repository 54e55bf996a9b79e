// Package health checks the services notebookctl depends on.
//
// A Checker verifies one dependency (the auth gateway, the primary API,
// the session store). A Manager runs checkers in parallel with a per-check
// timeout; Probes layers the live/ready/startup view used by `serve` on
// top of it, and `doctor` prints the same results.
package health

import (
	"context"
	"time"
)

// Checker verifies one dependency.
type Checker interface {
	// Name is a lowercase, hyphenated identifier such as "auth-gateway".
	Name() string
	// Check must honour ctx.
	Check(ctx context.Context) *Result
}

// Status of a check.
type Status string

const (
	StatusHealthy   Status = "healthy"
	StatusDegraded  Status = "degraded"
	StatusUnhealthy Status = "unhealthy"
)

func (s Status) String() string {
	return string(s)
}

// Result of a single check.
type Result struct {
	Status  Status                 `json:"status"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
	Latency time.Duration          `json:"latency_ns"`
}

func newResult(status Status, message string) *Result {
	return &Result{Status: status, Message: message, Details: map[string]interface{}{}}
}

// Healthy returns a healthy result.
func Healthy(message string) *Result {
	return newResult(StatusHealthy, message)
}

// Degraded returns a degraded result: usable, with reduced function.
func Degraded(message string) *Result {
	return newResult(StatusDegraded, message)
}

// Unhealthy returns an unhealthy result.
func Unhealthy(message string) *Result {
	return newResult(StatusUnhealthy, message)
}

// WithDetail sets a detail and returns r.
func (r *Result) WithDetail(key string, value interface{}) *Result {
	r.Details[key] = value
	return r
}

// CheckerFunc adapts a function to Checker.
type CheckerFunc struct {
	CheckName string
	Fn        func(ctx context.Context) *Result
}

func (c CheckerFunc) Name() string {
	return c.CheckName
}

func (c CheckerFunc) Check(ctx context.Context) *Result {
	return c.Fn(ctx)
}
