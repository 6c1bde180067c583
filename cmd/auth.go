package cmd

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/iksnae/dialog-search/internal"
	"github.com/spf13/cobra"
)

var (
	loginForce    bool
	registerEmail string
	registerList  bool
)

var loginCmd = &cobra.Command{
	Use:   "login <username>",
	Short: "Sign in with your username",
	Long: `Sign in against the service's login endpoint and store the session locally.

If a session already exists it is kept; pass --force to sign in as someone else.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		username := strings.TrimSpace(strings.Join(args, " "))
		if username == "" {
			return fmt.Errorf("username must not be empty")
		}

		app, err := openApp()
		if err != nil {
			return err
		}
		defer closeApp(app)

		out := cmd.OutOrStdout()
		if current := app.Session.Current(); current != nil && !loginForce {
			internal.PrintInfo(out, fmt.Sprintf("Already logged in as %s (@%s)", current.FullName, current.Username))
			return nil
		}

		ctx := cmd.Context()
		if app.Config.LoginTimeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, app.Config.LoginTimeout)
			defer cancel()
		}

		var user *internal.User
		err = internal.ShowProgress(ctx, "Signing in...", func() error {
			var loginErr error
			user, loginErr = app.Session.Login(ctx, username)
			return loginErr
		})
		if err != nil {
			if app.Session.Busy() {
				internal.PrintWarning(cmd.ErrOrStderr(), "Gave up waiting while the sign-in request was still in flight")
			}
			if errors.Is(err, internal.ErrAuthenticationFailed) {
				return fmt.Errorf("login failed for %q: %w", username, err)
			}
			return err
		}

		internal.PrintSuccess(out, fmt.Sprintf("Logged in as %s (@%s, %s)", user.FullName, user.Username, user.Role))
		return nil
	},
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Sign out and forget the local session",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := openApp()
		if err != nil {
			return err
		}
		defer closeApp(app)

		wasLoggedIn := app.Session.Current() != nil
		if err := app.Session.Logout(); err != nil {
			return fmt.Errorf("failed to log out: %w", err)
		}
		if wasLoggedIn {
			internal.PrintSuccess(cmd.OutOrStdout(), "Logged out")
		} else {
			internal.PrintInfo(cmd.OutOrStdout(), "No active session")
		}
		return nil
	},
}

var registerCmd = &cobra.Command{
	Use:   "register <full name>",
	Short: "Record a registration request locally",
	Long: `Record a registration request on this machine.

Registration does not create an account on the service and does not sign you
in. Use --list to see the recorded requests.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := openApp()
		if err != nil {
			return err
		}
		defer closeApp(app)

		out := cmd.OutOrStdout()
		if registerList {
			users, err := app.Session.RegisteredUsers()
			if err != nil {
				return fmt.Errorf("failed to load registrations: %w", err)
			}
			if len(users) == 0 {
				fmt.Fprintln(out, headerStyle.Render("📋 No registrations"))
				return nil
			}
			for _, u := range users {
				fmt.Fprintf(out, "%s  %s  %s\n", idStyle.Render(u.ID), u.FullName, dateStyle.Render(u.Email))
			}
			return nil
		}

		fullName := strings.TrimSpace(strings.Join(args, " "))
		if fullName == "" {
			return fmt.Errorf("full name must not be empty")
		}
		if strings.TrimSpace(registerEmail) == "" {
			return fmt.Errorf("--email is required")
		}

		if _, err := app.Session.Register(fullName, strings.TrimSpace(registerEmail)); err != nil {
			return fmt.Errorf("registration failed: %w", err)
		}
		internal.PrintSuccess(out, fmt.Sprintf("Registration recorded for %s. Sign in with `dialog-search login`.", fullName))
		return nil
	},
}

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the signed-in user",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := openApp()
		if err != nil {
			return err
		}
		defer closeApp(app)

		user, err := requireSession(app)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintln(out, titleStyle.Render(user.FullName))
		fmt.Fprintf(out, "  Username: %s\n", user.Username)
		if user.Email != "" {
			fmt.Fprintf(out, "  Email:    %s\n", user.Email)
		}
		fmt.Fprintf(out, "  Role:     %s\n", user.Role)
		fmt.Fprintf(out, "  ID:       %s\n", idStyle.Render(user.ID))
		return nil
	},
}

var roleCmd = &cobra.Command{
	Use:       "role <manager|employee>",
	Short:     "Change the role of the local session",
	Args:      cobra.ExactArgs(1),
	ValidArgs: []string{string(internal.RoleManager), string(internal.RoleEmployee)},
	RunE: func(cmd *cobra.Command, args []string) error {
		role, err := internal.ParseRole(args[0])
		if err != nil {
			return err
		}

		app, err := openApp()
		if err != nil {
			return err
		}
		defer closeApp(app)

		if _, err := requireSession(app); err != nil {
			return err
		}
		if err := app.Session.UpdateRole(role); err != nil {
			return fmt.Errorf("failed to update role: %w", err)
		}
		internal.PrintSuccess(cmd.OutOrStdout(), fmt.Sprintf("Role set to %s", role))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(loginCmd, logoutCmd, registerCmd, whoamiCmd, roleCmd)
	loginCmd.Flags().BoolVar(&loginForce, "force", false, "Replace an existing session")
	registerCmd.Flags().StringVar(&registerEmail, "email", "", "Email address")
	registerCmd.Flags().BoolVar(&registerList, "list", false, "List recorded registrations")
}
