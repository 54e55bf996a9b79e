// Package tui holds the interactive prompts used when a command is run
// from a terminal without all of its flags.
package tui

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/huh"
)

// ErrAborted is returned when the user cancels a prompt.
var ErrAborted = errors.New("prompt cancelled")

// Prompt configures a single-line input.
type Prompt struct {
	Message     string
	Default     string
	Placeholder string
	Required    bool
	Secret      bool
}

func run(form *huh.Form) error {
	if err := form.Run(); err != nil {
		if errors.Is(err, huh.ErrUserAborted) {
			return ErrAborted
		}
		return fmt.Errorf("prompt failed: %w", err)
	}
	return nil
}

func required(label string) func(string) error {
	return func(s string) error {
		if strings.TrimSpace(s) == "" {
			return fmt.Errorf("%s is required", label)
		}
		return nil
	}
}

func (p Prompt) field(value *string) *huh.Input {
	*value = p.Default
	input := huh.NewInput().
		Title(p.Message).
		Placeholder(p.Placeholder).
		Value(value)
	if p.Secret {
		input = input.EchoMode(huh.EchoModePassword)
	}
	if p.Required {
		input = input.Validate(required(p.Message))
	}
	return input
}

// PromptForString asks for one value.
func PromptForString(p Prompt) (string, error) {
	var value string
	if err := run(huh.NewForm(huh.NewGroup(p.field(&value)))); err != nil {
		return "", err
	}
	return value, nil
}

// PromptForConfirmation asks a yes/no question.
func PromptForConfirmation(message string, defaultValue bool) (bool, error) {
	confirmed := defaultValue
	form := huh.NewForm(huh.NewGroup(
		huh.NewConfirm().Title(message).Value(&confirmed),
	))
	if err := run(form); err != nil {
		return false, err
	}
	return confirmed, nil
}

// Fields is an ordered set of prompts shown as one form. Values are
// written back into the matching pointers.
type Fields struct {
	prompts []Prompt
	targets []*string
}

// Add queues a prompt whose answer is stored in target. A non-empty
// *target skips the prompt.
func (f *Fields) Add(p Prompt, target *string) *Fields {
	if *target != "" {
		return f
	}
	f.prompts = append(f.prompts, p)
	f.targets = append(f.targets, target)
	return f
}

// Len is the number of prompts still to ask.
func (f *Fields) Len() int {
	return len(f.prompts)
}

// Run shows every queued prompt. It is a no-op when nothing is queued.
func (f *Fields) Run() error {
	if len(f.prompts) == 0 {
		return nil
	}
	inputs := make([]huh.Field, len(f.prompts))
	for i, p := range f.prompts {
		inputs[i] = p.field(f.targets[i])
	}
	return run(huh.NewForm(huh.NewGroup(inputs...)))
}

// IsInteractive reports whether stdin is a terminal.
func IsInteractive() bool {
	info, err := os.Stdin.Stat()
	if err != nil {
		return false
	}
	return info.Mode()&os.ModeCharDevice != 0
}

var ciEnvVars = []string{"CI", "GITHUB_ACTIONS", "GITLAB_CI", "JENKINS_URL", "BUILDKITE"}

// ShouldPrompt is false in CI and when stdin is not a terminal.
func ShouldPrompt() bool {
	for _, key := range ciEnvVars {
		if os.Getenv(key) != "" {
			return false
		}
	}
	return IsInteractive()
}
