package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/iksnae/dialog-search/internal"
	"github.com/spf13/cobra"
)

var healthcheckDetails bool

var (
	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("42")).
			Bold(true)

	warningStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214")).
			Bold(true)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")).
			Bold(true)

	infoStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("39"))

	sectionStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("62")).
			Bold(true).
			Underline(true)
)

const pingTimeout = 5 * time.Second

// healthcheckCmd represents the healthcheck command
var healthcheckCmd = &cobra.Command{
	Use:   "healthcheck",
	Short: "Check local storage and the connection to the search service",
	Long: `Check the health of dialog-search by verifying:
  • Data directory and configuration
  • Storage access and stored record counts
  • Local session
  • Search service reachability`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		fmt.Fprintln(out, sectionStyle.Render("🔍 Dialog Search Health Check"))
		fmt.Fprintln(out)

		fmt.Fprintln(out, infoStyle.Render("Step 1: Resolving configuration..."))
		cfg, paths, err := loadConfig()
		if err != nil {
			fmt.Fprintln(out, errorStyle.Render("❌ Failed to load configuration:"), err)
			return err
		}
		fmt.Fprintln(out, successStyle.Render("✅ Configuration loaded"))
		if healthcheckDetails {
			fmt.Fprintf(out, "   Data directory: %s\n", paths.Dir)
			fmt.Fprintf(out, "   Config file:    %s\n", paths.ConfigPath)
			fmt.Fprintf(out, "   API URL:        %s\n", cfg.APIURL)
		}
		fmt.Fprintln(out)

		fmt.Fprintln(out, infoStyle.Render("Step 2: Opening storage..."))
		app, err := internal.NewApp(cfg, nil)
		if err != nil {
			fmt.Fprintln(out, errorStyle.Render("❌ Failed to open storage:"), err)
			return fmt.Errorf("health check failed: %w", err)
		}
		defer closeApp(app)
		fmt.Fprintln(out, successStyle.Render("✅ Storage opened"))
		if healthcheckDetails {
			fmt.Fprintf(out, "   Location: %s\n", describeStore(app.Store))
		}
		if lister, ok := app.Store.(internal.KeyLister); ok {
			for _, prefix := range []string{"dialogs:", "messages:"} {
				keys, err := lister.Keys(prefix)
				if err != nil {
					fmt.Fprintln(out, warningStyle.Render("⚠️  Failed to count records:"), err)
					break
				}
				fmt.Fprintf(out, "   %s %d record(s)\n", prefix, len(keys))
			}
		}
		fmt.Fprintln(out)

		fmt.Fprintln(out, infoStyle.Render("Step 3: Checking session..."))
		if user := app.Session.Current(); user != nil {
			fmt.Fprintln(out, successStyle.Render(fmt.Sprintf("✅ Logged in as @%s (%s)", user.Username, user.Role)))
			fmt.Fprintf(out, "   Dialogs: %d\n", len(app.Dialogs.Dialogs()))
		} else {
			fmt.Fprintln(out, warningStyle.Render("⚠️  Not logged in"))
		}
		fmt.Fprintln(out)

		fmt.Fprintln(out, infoStyle.Render("Step 4: Contacting search service..."))
		ctx, cancel := context.WithTimeout(cmd.Context(), pingTimeout)
		defer cancel()
		pingErr := app.Client.Ping(ctx)
		if pingErr != nil {
			fmt.Fprintln(out, errorStyle.Render("❌ Search service unreachable:"), pingErr)
		} else {
			fmt.Fprintln(out, successStyle.Render("✅ Search service reachable at "+app.Client.BaseURL()))
		}
		fmt.Fprintln(out)

		fmt.Fprintln(out, sectionStyle.Render("📊 Summary"))
		fmt.Fprintln(out)
		if pingErr != nil {
			fmt.Fprintln(out, errorStyle.Render("❌ Health check failed"))
			return fmt.Errorf("health check failed: %w", pingErr)
		}
		fmt.Fprintln(out, successStyle.Render("✅ Health check passed!"))
		return nil
	},
}

func describeStore(store internal.KVStore) string {
	switch s := store.(type) {
	case *internal.SQLiteStore:
		return "sqlite " + s.Path()
	case *internal.RedisStore:
		return "redis " + s.Addr()
	case *internal.MemoryStore:
		return "memory"
	default:
		return fmt.Sprintf("%T", store)
	}
}

func init() {
	rootCmd.AddCommand(healthcheckCmd)
	healthcheckCmd.Flags().BoolVar(&healthcheckDetails, "details", false, "Show detailed diagnostic information")
}
