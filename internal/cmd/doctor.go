package cmd

import (
	"context"
	"fmt"
	"net/http"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/notebookctl/internal/auth"
	"github.com/felixgeelhaar/notebookctl/internal/health"
	"github.com/felixgeelhaar/notebookctl/internal/ux"
)

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Diagnose the connection to the auth service",
	Long: `Run the startup auth check and report what it found, together with build
information, the resolved auth API URL and dependency health.

Checks include:
  • auth-gateway   the auth service health endpoint
  • primary-api    the notebook API
  • session-store  the saved session record

Examples:
  notebookctl doctor
  notebookctl doctor --format json
`,
	RunE: runDoctor,
}

func init() {
	rootCmd.AddCommand(doctorCmd)
}

// DoctorReport is the full doctor output.
type DoctorReport struct {
	Diagnostics auth.Diagnostics          `json:"diagnostics" yaml:"diagnostics"`
	Checks      map[string]*health.Result `json:"checks" yaml:"checks"`
	Status      health.Status             `json:"status" yaml:"status"`
}

func (r DoctorReport) RenderText(st *ux.Styles) string {
	var b strings.Builder

	d := r.Diagnostics
	pairs := []ux.Pair{
		pairOf("version", d.Version),
		pairOf("commit", d.Commit),
		pairOf("built", d.BuildTime),
		pairOf("auth api", d.AuthAPIURL),
		pairOf("auth required", d.AuthRequired),
	}
	b.WriteString(st.Panel("Diagnostics", st.KeyValues(pairs...)))
	b.WriteString("\n")

	if d.Unreachable() {
		b.WriteString(st.Fail("Connection error"))
		b.WriteString("\n")
		b.WriteString(st.Muted.Render(d.ConnectionError))
		b.WriteString("\n")
	}

	names := make([]string, 0, len(r.Checks))
	for name := range r.Checks {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		res := r.Checks[name]
		line := fmt.Sprintf("%s: %s", name, res.Message)
		if loc, ok := res.Details["location"].(string); ok {
			line += " (" + loc + ")"
		}
		switch res.Status {
		case health.StatusHealthy:
			b.WriteString(st.Ok(line))
		case health.StatusDegraded:
			b.WriteString(st.Warn(line))
		default:
			b.WriteString(st.Fail(line))
		}
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

func runDoctor(cmd *cobra.Command, args []string) error {
	a, err := loadApp(cmd)
	if err != nil {
		return err
	}
	defer a.close()
	ctx := cmd.Context()
	if err := a.openSession(ctx); err != nil {
		return err
	}

	checks := health.NewManager()
	checks.Add(
		health.NewGatewayChecker(a.client),
		health.NewHTTPChecker("primary-api", func(context.Context) (string, error) {
			return a.cfg.APIURL, nil
		}, &http.Client{Timeout: health.DefaultTimeout}),
		health.NewSessionChecker(a.persister, a.cfg.Storage.Backend),
	)

	if err := a.initialCheck(ctx); err != nil {
		return err
	}
	results := checks.Check(ctx)
	report := DoctorReport{
		Diagnostics: a.orch.Diagnostics(ctx),
		Checks:      results,
		Status:      health.Overall(results),
	}
	if err := a.printer.Print(report); err != nil {
		return err
	}

	if err := a.orch.ConnectionError(); err != nil {
		return err
	}
	if report.Status == health.StatusUnhealthy {
		return fmt.Errorf("diagnostics found unhealthy dependencies")
	}
	return nil
}
