package cmd

import (
	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/notebookctl/internal/ux"
	"github.com/felixgeelhaar/notebookctl/internal/version"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Long: `Print version information including version number, git commit,
build date, Go version, and platform.`,
	RunE: runVersion,
}

func init() {
	versionCmd.Flags().BoolP("verbose", "v", false, "show detailed version information")
	versionCmd.Flags().Bool("json", false, "output version information as JSON")

	rootCmd.AddCommand(versionCmd)
}

func runVersion(cmd *cobra.Command, args []string) error {
	verbose, _ := cmd.Flags().GetBool("verbose")
	asJSON, _ := cmd.Flags().GetBool("json")
	noColor, _ := cmd.Flags().GetBool("no-color")
	format, _ := cmd.Flags().GetString("format")
	if asJSON {
		format = ux.FormatJSON
	}

	p, err := ux.NewPrinter(cmd.OutOrStdout(), format, noColor)
	if err != nil {
		return err
	}
	info := version.GetInfo()
	if p.Structured() {
		return p.Print(info)
	}
	if verbose {
		return p.Print(info.String())
	}
	return p.Print("notebookctl " + info.Version)
}
