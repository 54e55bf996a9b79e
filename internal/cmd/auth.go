package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/notebookctl/internal/errors"
	"github.com/felixgeelhaar/notebookctl/internal/tui"
)

var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Manage the dashboard session",
	Long: `Manage the session with the notebook dashboard's auth service.

The session cookie and the cached user record are kept in the state
directory (storage.backend selects file, redis or memory).

Examples:
  notebookctl auth login --email user@example.com
  notebookctl auth status
  notebookctl auth logout`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return cmd.Help()
	},
}

var authLoginCmd = &cobra.Command{
	Use:   "login",
	Short: "Log in with email and password",
	Long: `Log in to the auth service. Missing credentials are prompted for when
running in a terminal.

After a successful login the dashboard page you were sent away from is
shown, or /notebooks when there is none.`,
	RunE: runAuthLogin,
}

var authRegisterCmd = &cobra.Command{
	Use:   "register",
	Short: "Create an account",
	Long: `Create an account. Registration does not log you in; check your inbox
for the verification link, then run 'notebookctl auth verify-email'.`,
	RunE: runAuthRegister,
}

var authLogoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Forget the local session",
	RunE:  runAuthLogout,
}

var authStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show whether you are logged in",
	Long: `Show whether you are logged in. The session is revalidated against the
auth service unless it was validated in the last 30 seconds.`,
	RunE: runAuthStatus,
}

var authForgotCmd = &cobra.Command{
	Use:   "forgot-password",
	Short: "Request a password reset link",
	RunE:  runAuthForgot,
}

var authResetCmd = &cobra.Command{
	Use:   "reset-password",
	Short: "Set a new password with a reset token",
	RunE:  runAuthReset,
}

var authVerifyCmd = &cobra.Command{
	Use:   "verify-email TOKEN",
	Short: "Confirm an email address",
	Args:  cobra.ExactArgs(1),
	RunE:  runAuthVerify,
}

func runAuthLogin(cmd *cobra.Command, args []string) error {
	email, _ := cmd.Flags().GetString("email")
	password, _ := cmd.Flags().GetString("password")
	redirect, _ := cmd.Flags().GetString("redirect")

	if err := promptMissing(
		credential{"Email", &email, false, "--email"},
		credential{"Password", &password, true, "--password"},
	); err != nil {
		return err
	}

	a, err := loadApp(cmd)
	if err != nil {
		return err
	}
	defer a.close()
	ctx := cmd.Context()
	if err := a.openSession(ctx); err != nil {
		return err
	}
	if redirect != "" {
		if err := a.hints.Set(redirect); err != nil {
			a.logger.Debug("could not store redirect", "error", err)
		}
	}

	if !a.orch.Login(ctx, email, password) {
		return storeError(a.store.Snapshot().Error)
	}
	if err := a.cookieError(); err != nil {
		a.logger.WithError(err).Warn("login succeeded but the session will not survive this process")
		return err
	}
	st := a.store.Snapshot()
	if a.printer.Structured() {
		return a.printer.Print(newSessionStatus(st, a.orch.View()))
	}
	return a.printer.Print(message{OK: true, Message: fmt.Sprintf("Logged in as %s", st.User.DisplayName())})
}

func runAuthRegister(cmd *cobra.Command, args []string) error {
	name, _ := cmd.Flags().GetString("name")
	email, _ := cmd.Flags().GetString("email")
	password, _ := cmd.Flags().GetString("password")

	if err := promptMissing(
		credential{"Name", &name, false, "--name"},
		credential{"Email", &email, false, "--email"},
		credential{"Password", &password, true, "--password"},
	); err != nil {
		return err
	}

	a, err := loadApp(cmd)
	if err != nil {
		return err
	}
	defer a.close()
	ctx := cmd.Context()
	if err := a.openSession(ctx); err != nil {
		return err
	}

	if !a.orch.Register(ctx, name, email, password) {
		return storeError(a.store.Snapshot().Error)
	}
	return a.printer.Print(message{OK: true, Message: "Account created. Check your email to verify your address."})
}

func runAuthLogout(cmd *cobra.Command, args []string) error {
	a, err := loadApp(cmd)
	if err != nil {
		return err
	}
	defer a.close()
	if err := a.openSession(cmd.Context()); err != nil {
		return err
	}

	a.orch.Logout()
	if a.fileJar != nil {
		if err := a.fileJar.Clear(); err != nil {
			return errors.Wrap(errors.ErrCodeStoreWriteFailed, "failed to remove cookies", err)
		}
	}
	return a.printer.Print(message{OK: true, Message: "Logged out"})
}

func runAuthStatus(cmd *cobra.Command, args []string) error {
	a, err := loadApp(cmd)
	if err != nil {
		return err
	}
	defer a.close()
	ctx := cmd.Context()
	if err := a.openSession(ctx); err != nil {
		return err
	}
	if err := a.initialCheck(ctx); err != nil {
		return err
	}
	if err := a.orch.ConnectionError(); err != nil {
		return err
	}
	return a.printer.Print(newSessionStatus(a.store.Snapshot(), a.orch.View()))
}

func runAuthForgot(cmd *cobra.Command, args []string) error {
	email, _ := cmd.Flags().GetString("email")
	if err := promptMissing(credential{"Email", &email, false, "--email"}); err != nil {
		return err
	}

	a, err := loadApp(cmd)
	if err != nil {
		return err
	}
	defer a.close()
	ctx := cmd.Context()
	if err := a.openSession(ctx); err != nil {
		return err
	}
	if err := a.store.ForgotPassword(ctx, email); err != nil {
		return err
	}
	return a.printer.Print(message{OK: true, Message: "If that address has an account, a reset link is on its way."})
}

func runAuthReset(cmd *cobra.Command, args []string) error {
	token, _ := cmd.Flags().GetString("token")
	password, _ := cmd.Flags().GetString("password")
	confirm, _ := cmd.Flags().GetString("confirm")

	if strings.TrimSpace(token) == "" {
		return errors.NewAuthValidationError("Reset token is missing.").
			WithSuggestion("Pass --token with the token from the reset email")
	}
	if err := promptMissing(
		credential{"New password", &password, true, "--password"},
		credential{"Confirm password", &confirm, true, "--confirm"},
	); err != nil {
		return err
	}

	a, err := loadApp(cmd)
	if err != nil {
		return err
	}
	defer a.close()
	ctx := cmd.Context()
	if err := a.openSession(ctx); err != nil {
		return err
	}
	if err := a.store.ResetPassword(ctx, token, password, confirm); err != nil {
		return err
	}
	return a.printer.Print(message{OK: true, Message: "Password updated. You can now log in."})
}

func runAuthVerify(cmd *cobra.Command, args []string) error {
	a, err := loadApp(cmd)
	if err != nil {
		return err
	}
	defer a.close()
	ctx := cmd.Context()
	if err := a.openSession(ctx); err != nil {
		return err
	}
	if err := a.store.VerifyEmail(ctx, args[0]); err != nil {
		return err
	}
	return a.printer.Print(message{OK: true, Message: "Email verified. You can now log in."})
}

type credential struct {
	label  string
	target *string
	secret bool
	flag   string
}

// promptMissing asks for empty values in a terminal, or reports the first
// missing flag when prompting is not possible.
func promptMissing(creds ...credential) error {
	if !tui.ShouldPrompt() {
		for _, c := range creds {
			if *c.target == "" {
				return fmt.Errorf("%s is required", c.flag)
			}
		}
		return nil
	}
	var fields tui.Fields
	for _, c := range creds {
		fields.Add(tui.Prompt{Message: c.label, Required: true, Secret: c.secret}, c.target)
	}
	return fields.Run()
}

func init() {
	authLoginCmd.Flags().String("email", "", "account email")
	authLoginCmd.Flags().String("password", "", "account password")
	authLoginCmd.Flags().String("redirect", "", "dashboard path to open after login")

	authRegisterCmd.Flags().String("name", "", "display name")
	authRegisterCmd.Flags().String("email", "", "account email")
	authRegisterCmd.Flags().String("password", "", "account password")

	authForgotCmd.Flags().String("email", "", "account email")

	authResetCmd.Flags().String("token", "", "reset token from the email link")
	authResetCmd.Flags().String("password", "", "new password")
	authResetCmd.Flags().String("confirm", "", "new password again")

	authCmd.AddCommand(authLoginCmd, authRegisterCmd, authLogoutCmd, authStatusCmd,
		authForgotCmd, authResetCmd, authVerifyCmd)
	rootCmd.AddCommand(authCmd)
}
