package cmd

import (
	"github.com/spf13/cobra"
)

// CommandContext holds the persistent flags every command shares.
type CommandContext struct {
	ConfigPath string
	LogLevel   string
	Format     string
	NoColor    bool
}

// NewCommandContext reads the persistent flags from cmd.
func NewCommandContext(cmd *cobra.Command) (*CommandContext, error) {
	configPath, err := cmd.Flags().GetString("config")
	if err != nil {
		return nil, err
	}
	logLevel, err := cmd.Flags().GetString("log-level")
	if err != nil {
		return nil, err
	}
	format, err := cmd.Flags().GetString("format")
	if err != nil {
		return nil, err
	}
	noColor, err := cmd.Flags().GetBool("no-color")
	if err != nil {
		return nil, err
	}
	return &CommandContext{
		ConfigPath: configPath,
		LogLevel:   logLevel,
		Format:     format,
		NoColor:    noColor,
	}, nil
}
