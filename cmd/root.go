package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/iksnae/dialog-search/internal"
	"github.com/spf13/cobra"
)

var (
	verbose     bool
	storagePath string
	apiURL      string
	configPath  string
	dataDir     string
	version     string = "dev"
	commit      string = "unknown"
	date        string = "unknown"
)

var errNotLoggedIn = errors.New("not logged in (run `dialog-search login <username>` first)")

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "dialog-search",
	Short: "Chat with the search service from your terminal",
	Long: `A terminal client for the dialog search service.

Ask questions in natural language and keep every conversation as a dialog you
can resume, rename, export or delete. Sessions and history are stored locally
(SQLite by default, or a shared Redis).

Quick Start:
  dialog-search login alice                # Sign in
  dialog-search ask "orders shipped today"  # One question, one answer
  dialog-search chat                        # Interactive conversation
  dialog-search list                        # Your dialogs`,
	Version:       fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		internal.SetVerbose(verbose)
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		stop()
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().StringVar(&storagePath, "storage", "", "Storage location: SQLite file path, redis:// URL or \"memory\"")
	rootCmd.PersistentFlags().StringVar(&apiURL, "api-url", "", "Base URL of the query service (default "+internal.DefaultAPIURL+")")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to config.yaml")
	rootCmd.PersistentFlags().StringVar(&dataDir, "data-dir", "", "Directory for local state and config")

	rootCmd.SetVersionTemplate(`{{printf "%s\n" .Version}}`)
}

// loadConfig resolves the configuration, letting flags override file and environment
func loadConfig() (*internal.Config, internal.DataPaths, error) {
	paths, err := internal.DetectDataPaths(dataDir)
	if err != nil {
		return nil, paths, fmt.Errorf("failed to detect data directory: %w", err)
	}

	cfg, err := internal.LoadConfig(paths, configPath)
	if err != nil {
		return nil, paths, fmt.Errorf("failed to load config: %w", err)
	}
	if storagePath != "" {
		cfg.Storage = storagePath
	}
	if apiURL != "" {
		cfg.APIURL = apiURL
	}
	return cfg, paths, nil
}

// openApp builds the application components from the resolved configuration
func openApp() (*internal.App, error) {
	cfg, _, err := loadConfig()
	if err != nil {
		return nil, err
	}
	app, err := internal.NewApp(cfg, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}
	return app, nil
}

func closeApp(app *internal.App) {
	if err := app.Close(); err != nil {
		internal.LogWarn("Failed to close storage: %v", err)
	}
}

// requireSession returns the session user or errNotLoggedIn
func requireSession(app *internal.App) (*internal.User, error) {
	user := app.Session.Current()
	if user == nil {
		return nil, errNotLoggedIn
	}
	return user, nil
}
