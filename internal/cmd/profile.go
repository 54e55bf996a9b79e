package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/notebookctl/internal/session"
)

// ProfilePath is the dashboard page the profile commands stand in for.
const ProfilePath = "/profile"

var profileCmd = &cobra.Command{
	Use:   "profile",
	Short: "Show or edit the signed-in user",
	RunE: func(cmd *cobra.Command, args []string) error {
		return cmd.Help()
	},
}

var profileShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the signed-in user",
	RunE:  runProfileShow,
}

var profileUpdateCmd = &cobra.Command{
	Use:   "update",
	Short: "Edit the locally cached user record",
	Long: `Edit the locally cached user record. Only the fields you pass change;
--set adds or replaces any field; --set email=x is the same as --email x.

Examples:
  notebookctl profile update --name "Ada Lovelace"
  notebookctl profile update --set theme=dark --set locale=en-GB`,
	RunE: runProfileUpdate,
}

// openProfile returns an app with an authenticated session. When the
// session is not authenticated the profile page is remembered for the
// next login.
func openProfile(cmd *cobra.Command) (*app, *session.User, error) {
	a, err := loadApp(cmd)
	if err != nil {
		return nil, nil, err
	}
	if err := a.openSession(cmd.Context()); err != nil {
		a.close()
		return nil, nil, err
	}
	user, err := a.requireLogin(cmd.Context())
	if err != nil {
		if a.orch.ConnectionError() == nil {
			if herr := a.hints.Set(ProfilePath); herr != nil {
				a.logger.Debug("could not store redirect", "error", herr)
			}
		}
		a.close()
		return nil, nil, err
	}
	return a, user, nil
}

func runProfileShow(cmd *cobra.Command, args []string) error {
	a, user, err := openProfile(cmd)
	if err != nil {
		return err
	}
	defer a.close()
	return a.printer.Print(profileView(userMap(user)))
}

func runProfileUpdate(cmd *cobra.Command, args []string) error {
	up, err := parseUserUpdate(cmd)
	if err != nil {
		return err
	}

	a, _, err := openProfile(cmd)
	if err != nil {
		return err
	}
	defer a.close()

	a.store.UpdateUser(up)
	return a.printer.Print(profileView(userMap(a.store.Snapshot().User)))
}

func parseUserUpdate(cmd *cobra.Command) (session.UserUpdate, error) {
	var up session.UserUpdate
	flags := cmd.Flags()
	if flags.Changed("name") {
		v, _ := flags.GetString("name")
		up.Name = &v
	}
	if flags.Changed("email") {
		v, _ := flags.GetString("email")
		up.Email = &v
	}
	if flags.Changed("picture") {
		v, _ := flags.GetString("picture")
		up.Picture = &v
	}
	sets, _ := flags.GetStringArray("set")
	for _, kv := range sets {
		k, v, ok := strings.Cut(kv, "=")
		if !ok || k == "" {
			return up, fmt.Errorf("invalid --set %q: expected key=value", kv)
		}
		if up.Extra == nil {
			up.Extra = make(map[string]interface{})
		}
		up.Extra[k] = v
	}
	if up.Name == nil && up.Email == nil && up.Picture == nil && up.Extra == nil {
		return up, fmt.Errorf("nothing to update: pass --name, --email, --picture or --set")
	}
	return up, nil
}

func init() {
	profileUpdateCmd.Flags().String("name", "", "display name")
	profileUpdateCmd.Flags().String("email", "", "email address")
	profileUpdateCmd.Flags().String("picture", "", "avatar URL")
	profileUpdateCmd.Flags().StringArray("set", nil, "other field as key=value (repeatable)")

	profileCmd.AddCommand(profileShowCmd, profileUpdateCmd)
	rootCmd.AddCommand(profileCmd)
}
