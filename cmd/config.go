package cmd

import (
	"fmt"

	"github.com/iksnae/dialog-search/internal"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var configSave bool

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Print the effective configuration",
	Long: `Print the configuration after applying the config file, environment
variables (including .env) and command-line flags.

With --save the effective configuration is written to the config file.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, paths, err := loadConfig()
		if err != nil {
			return err
		}

		if configSave {
			path := paths.ConfigPath
			if configPath != "" {
				path = configPath
			}
			if err := cfg.Save(path); err != nil {
				return fmt.Errorf("failed to save config: %w", err)
			}
			internal.PrintSuccess(cmd.OutOrStdout(), "Saved configuration to "+path)
			return nil
		}

		data, err := yaml.Marshal(cfg)
		if err != nil {
			return fmt.Errorf("failed to marshal config: %w", err)
		}
		fmt.Fprint(cmd.OutOrStdout(), string(data))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.Flags().BoolVar(&configSave, "save", false, "Write the effective configuration to the config file")
}
