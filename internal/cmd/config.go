package cmd

import (
	"fmt"
	"os"
	"os/exec"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/felixgeelhaar/notebookctl/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "View or edit notebookctl configuration",
	Long: `Manage configuration stored at ~/.notebookctl/config.yaml
(or $NOTEBOOKCTL_HOME/config.yaml).

Keys use dot notation, for example auth_api_url or storage.redis.addr.
NOTEBOOKCTL_* environment variables override the file at run time but are
never written back.

Examples:
  notebookctl config view
  notebookctl config get auth_api_url
  notebookctl config set storage.backend redis
  notebookctl config path
`,
}

var configViewCmd = &cobra.Command{
	Use:   "view",
	Short: "Display current configuration",
	RunE:  runConfigView,
}

var configEditCmd = &cobra.Command{
	Use:   "edit",
	Short: "Edit configuration in $EDITOR",
	RunE:  runConfigEdit,
}

var configGetCmd = &cobra.Command{
	Use:   "get <key>",
	Short: "Get a configuration value",
	Args:  cobra.ExactArgs(1),
	RunE:  runConfigGet,
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a configuration value",
	Args:  cobra.ExactArgs(2),
	RunE:  runConfigSet,
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Show configuration file path",
	RunE:  runConfigPath,
}

func init() {
	configCmd.AddCommand(configViewCmd, configEditCmd, configGetCmd, configSetCmd, configPathCmd)
	rootCmd.AddCommand(configCmd)
}

// configValues is the flat key/value form of a config for structured output.
func configValues(cfg *config.Config) map[string]string {
	values := make(map[string]string)
	for _, k := range config.Keys() {
		if v, err := cfg.Get(k); err == nil {
			values[k] = v
		}
	}
	return values
}

func runConfigView(cmd *cobra.Command, args []string) error {
	a, err := loadApp(cmd)
	if err != nil {
		return err
	}
	if a.printer.Structured() {
		return a.printer.Print(configValues(a.cfg))
	}

	data, err := yaml.Marshal(a.cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	a.printer.Printf("%s\n\n", a.printer.Styles().Muted.Render("Configuration file: "+a.cfgPath))
	a.printer.Printf("%s", data)
	return nil
}

func runConfigEdit(cmd *cobra.Command, args []string) error {
	a, err := loadApp(cmd)
	if err != nil {
		return err
	}
	if _, err := os.Stat(a.cfgPath); os.IsNotExist(err) {
		if err := config.Save(config.Default(), a.cfgPath); err != nil {
			return err
		}
	}

	editor := os.Getenv("EDITOR")
	if editor == "" {
		editor = "vi"
	}
	editorCmd := exec.CommandContext(cmd.Context(), editor, a.cfgPath)
	editorCmd.Stdin = os.Stdin
	editorCmd.Stdout = os.Stdout
	editorCmd.Stderr = os.Stderr
	if err := editorCmd.Run(); err != nil {
		return fmt.Errorf("failed to run editor: %w", err)
	}

	cfg, err := config.Load(a.cfgPath)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	return a.printer.Print(message{OK: true, Message: "Configuration updated"})
}

func runConfigGet(cmd *cobra.Command, args []string) error {
	a, err := loadApp(cmd)
	if err != nil {
		return err
	}
	value, err := a.cfg.Get(args[0])
	if err != nil {
		return err
	}
	if a.printer.Structured() {
		return a.printer.Print(map[string]string{args[0]: value})
	}
	return a.printer.Print(value)
}

func runConfigSet(cmd *cobra.Command, args []string) error {
	a, err := loadApp(cmd)
	if err != nil {
		return err
	}

	// Reload without environment overrides so they are not persisted.
	cfg, err := config.Load(a.cfgPath)
	if err != nil {
		return err
	}
	if err := cfg.Set(args[0], args[1]); err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	if err := config.Save(cfg, a.cfgPath); err != nil {
		return err
	}
	return a.printer.Print(message{OK: true, Message: fmt.Sprintf("Set %s = %s", args[0], args[1])})
}

func runConfigPath(cmd *cobra.Command, args []string) error {
	a, err := loadApp(cmd)
	if err != nil {
		return err
	}
	return a.printer.Print(a.cfgPath)
}
