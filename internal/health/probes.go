package health

import (
	"context"
	"sync/atomic"
	"time"
)

// Report is the JSON body of a probe endpoint.
type Report struct {
	Status    Status             `json:"status"`
	Version   string             `json:"version,omitempty"`
	Uptime    string             `json:"uptime,omitempty"`
	Checks    map[string]*Result `json:"checks,omitempty"`
	Timestamp time.Time          `json:"timestamp"`
}

// Probes tracks process lifecycle for live, ready and startup probes.
type Probes struct {
	*Manager

	version     string
	started     time.Time
	initialized atomic.Bool
	stopping    atomic.Bool
}

// NewProbes creates probes reporting version.
func NewProbes(version string) *Probes {
	return &Probes{Manager: NewManager(), version: version, started: time.Now()}
}

// MarkInitialized lets the startup probe pass.
func (p *Probes) MarkInitialized() {
	p.initialized.Store(true)
}

// MarkShutdown makes readiness fail while connections drain.
func (p *Probes) MarkShutdown() {
	p.stopping.Store(true)
}

// ShuttingDown reports whether MarkShutdown was called.
func (p *Probes) ShuttingDown() bool {
	return p.stopping.Load()
}

func (p *Probes) report(status Status, checks map[string]*Result) *Report {
	return &Report{
		Status:    status,
		Version:   p.version,
		Uptime:    time.Since(p.started).Round(time.Second).String(),
		Checks:    checks,
		Timestamp: time.Now(),
	}
}

// Live never runs dependency checks. It is degraded while shutting down.
func (p *Probes) Live(context.Context) *Report {
	if p.stopping.Load() {
		return p.report(StatusDegraded, nil)
	}
	return p.report(StatusHealthy, nil)
}

// Ready runs every checker unless the process is shutting down.
func (p *Probes) Ready(ctx context.Context) *Report {
	if p.stopping.Load() {
		return p.report(StatusUnhealthy, nil)
	}
	checks := p.Check(ctx)
	return p.report(Overall(checks), checks)
}

// Startup passes once MarkInitialized has been called.
func (p *Probes) Startup(context.Context) *Report {
	if p.initialized.Load() {
		return p.report(StatusHealthy, nil)
	}
	return p.report(StatusUnhealthy, nil)
}
