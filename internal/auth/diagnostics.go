package auth

import (
	"context"

	"github.com/felixgeelhaar/notebookctl/internal/version"
)

// Diagnostics is what the connection error screen shows an operator.
type Diagnostics struct {
	Version         string `json:"version" yaml:"version"`
	Commit          string `json:"commit" yaml:"commit"`
	BuildTime       string `json:"build_time" yaml:"build_time"`
	AuthAPIURL      string `json:"auth_api_url" yaml:"auth_api_url"`
	AuthRequired    string `json:"auth_required" yaml:"auth_required"`
	ConnectionError string `json:"connection_error,omitempty" yaml:"connection_error,omitempty"`
}

// Unreachable reports whether the auth requirement could not be confirmed.
func (d Diagnostics) Unreachable() bool {
	return d.ConnectionError != ""
}

// Diagnostics collects build info, the resolved auth API address and the
// connection error from the initial check.
func (o *Orchestrator) Diagnostics(ctx context.Context) Diagnostics {
	info := version.GetInfo()
	d := Diagnostics{
		Version:      info.Version,
		Commit:       info.ShortCommit(),
		BuildTime:    info.Date,
		AuthRequired: o.store.Snapshot().AuthRequired.String(),
	}
	if o.authURL != nil {
		if u, err := o.authURL(ctx); err == nil {
			d.AuthAPIURL = u
		} else {
			d.AuthAPIURL = "unresolved: " + err.Error()
		}
	}
	if err := o.ConnectionError(); err != nil {
		d.ConnectionError = err.Error()
	}
	return d
}
