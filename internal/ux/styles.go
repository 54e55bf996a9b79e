package ux

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Styles groups the lipgloss styles used for text output.
type Styles struct {
	Title   lipgloss.Style
	Label   lipgloss.Style
	Value   lipgloss.Style
	Muted   lipgloss.Style
	Success lipgloss.Style
	Warning lipgloss.Style
	Error   lipgloss.Style
	Box     lipgloss.Style
}

// NewStyles returns the default palette, or plain styles when noColor.
func NewStyles(noColor bool) *Styles {
	if noColor {
		plain := lipgloss.NewStyle()
		return &Styles{
			Title: plain.Bold(true), Label: plain, Value: plain, Muted: plain,
			Success: plain, Warning: plain, Error: plain,
			Box: plain.Border(lipgloss.NormalBorder()).Padding(0, 1),
		}
	}
	return &Styles{
		Title:   lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("99")),
		Label:   lipgloss.NewStyle().Foreground(lipgloss.Color("245")),
		Value:   lipgloss.NewStyle().Foreground(lipgloss.Color("252")),
		Muted:   lipgloss.NewStyle().Foreground(lipgloss.Color("241")),
		Success: lipgloss.NewStyle().Foreground(lipgloss.Color("42")),
		Warning: lipgloss.NewStyle().Foreground(lipgloss.Color("214")),
		Error:   lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("196")),
		Box: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("240")).
			Padding(0, 1),
	}
}

// Pair is one labelled line in a KeyValues block.
type Pair struct {
	Key   string
	Value string
}

// KeyValues renders aligned "key  value" lines.
func (s *Styles) KeyValues(pairs ...Pair) string {
	width := 0
	for _, p := range pairs {
		if len(p.Key) > width {
			width = len(p.Key)
		}
	}
	lines := make([]string, 0, len(pairs))
	for _, p := range pairs {
		pad := strings.Repeat(" ", width-len(p.Key)+2)
		lines = append(lines, s.Label.Render(p.Key)+pad+s.Value.Render(p.Value))
	}
	return strings.Join(lines, "\n")
}

// Ok renders a success line.
func (s *Styles) Ok(msg string) string {
	return s.Success.Render("✓ " + msg)
}

// Warn renders a warning line.
func (s *Styles) Warn(msg string) string {
	return s.Warning.Render("! " + msg)
}

// Fail renders an error line.
func (s *Styles) Fail(msg string) string {
	return s.Error.Render("✗ " + msg)
}

// Panel renders a titled box.
func (s *Styles) Panel(title, body string) string {
	return s.Box.Render(s.Title.Render(title) + "\n" + body)
}
