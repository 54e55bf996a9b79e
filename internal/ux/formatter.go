// Package ux renders command output: structured (json, yaml) for scripts
// and styled text for people.
package ux

import (
	"encoding/json"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"
)

// Output formats accepted by --format.
const (
	FormatText = "text"
	FormatJSON = "json"
	FormatYAML = "yaml"
)

// TextRenderer is implemented by values with a human-readable form.
type TextRenderer interface {
	RenderText(s *Styles) string
}

// Printer writes values in one output format.
type Printer struct {
	w      io.Writer
	format string
	styles *Styles
}

// NewPrinter validates format and returns a printer writing to w.
func NewPrinter(w io.Writer, format string, noColor bool) (*Printer, error) {
	switch format {
	case "":
		format = FormatText
	case FormatText, FormatJSON, FormatYAML:
	default:
		return nil, fmt.Errorf("unknown format: %s (supported: text, json, yaml)", format)
	}
	return &Printer{w: w, format: format, styles: NewStyles(noColor)}, nil
}

// Styles returns the text styles in use.
func (p *Printer) Styles() *Styles {
	return p.styles
}

// Structured reports whether output is meant for machines.
func (p *Printer) Structured() bool {
	return p.format != FormatText
}

// Print writes v. In text mode v must be a string, a TextRenderer or a
// fmt.Stringer.
func (p *Printer) Print(v interface{}) error {
	switch p.format {
	case FormatJSON:
		enc := json.NewEncoder(p.w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case FormatYAML:
		enc := yaml.NewEncoder(p.w)
		enc.SetIndent(2)
		defer enc.Close()
		return enc.Encode(v)
	}

	switch t := v.(type) {
	case string:
		_, err := fmt.Fprintln(p.w, t)
		return err
	case TextRenderer:
		_, err := fmt.Fprintln(p.w, t.RenderText(p.styles))
		return err
	case fmt.Stringer:
		_, err := fmt.Fprintln(p.w, t.String())
		return err
	default:
		return fmt.Errorf("no text form for %T; use --format json or yaml", v)
	}
}

// Printf writes formatted text regardless of format. Use it only for
// messages that have no structured form.
func (p *Printer) Printf(format string, args ...interface{}) {
	fmt.Fprintf(p.w, format, args...)
}
