package cmd

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/iksnae/dialog-search/internal"
	"github.com/iksnae/dialog-search/internal/export"
	"github.com/spf13/cobra"
)

var (
	format    string
	output    string
	outputDir string
	exportAll bool
)

// exportCmd represents the export command
var exportCmd = &cobra.Command{
	Use:   "export [dialog-id]",
	Short: "Export dialogs to file",
	Long: `Export dialogs to various formats (jsonl, md, yaml, json).

Export one dialog to stdout or --output, or every dialog with --all into
--output-dir. Use 'dialog-search list' to see available dialog IDs.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if exportAll == (len(args) == 1) {
			return fmt.Errorf("specify either a dialog id or --all")
		}

		exporter, err := export.NewExporter(format)
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

		if exportAll {
			return exportAllDialogs(cmd, app, exporter)
		}

		dialogID, err := resolveDialogID(app, args[0])
		if err != nil {
			return err
		}
		dialog, ok, err := app.Dialogs.GetDialogWithMessages(dialogID)
		if err != nil {
			return fmt.Errorf("failed to load dialog: %w", err)
		}
		if !ok {
			return fmt.Errorf("%w: %s", internal.ErrDialogNotFound, dialogID)
		}

		if output == "" || output == "-" {
			return exporter.Export(dialog, cmd.OutOrStdout())
		}
		if err := exportToFile(exporter, dialog, output); err != nil {
			return err
		}
		internal.PrintSuccess(cmd.ErrOrStderr(), fmt.Sprintf("Exported dialog %s to %s", shortID(dialog.ID), output))
		return nil
	},
}

func exportAllDialogs(cmd *cobra.Command, app *internal.App, exporter export.Exporter) error {
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	dialogs := app.Dialogs.Dialogs()
	exported := 0
	err := internal.ShowProgress(cmd.Context(), fmt.Sprintf("Exporting %d dialog(s) to %s", len(dialogs), outputDir), func() error {
		for _, d := range dialogs {
			dialog, ok, err := app.Dialogs.GetDialogWithMessages(d.ID)
			if err != nil {
				internal.LogError("Failed to load dialog %s: %v", d.ID, err)
				continue
			}
			if !ok {
				continue
			}
			path := filepath.Join(outputDir, fmt.Sprintf("dialog_%s.%s", d.ID, exporter.Extension()))
			if err := exportToFile(exporter, dialog, path); err != nil {
				internal.LogError("%v", err)
				continue
			}
			exported++
		}
		return nil
	})
	if err != nil {
		return err
	}

	internal.PrintSuccess(cmd.OutOrStdout(), fmt.Sprintf("Export complete: %d dialog(s) exported to %s", exported, outputDir))
	return nil
}

func exportToFile(exporter export.Exporter, dialog *internal.DialogWithMessages, path string) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create file %s: %w", path, err)
	}
	if err := exporter.Export(dialog, file); err != nil {
		_ = file.Close()
		return fmt.Errorf("failed to export dialog %s: %w", dialog.ID, err)
	}
	return closeFile(file, path)
}

func closeFile(c io.Closer, path string) error {
	if err := c.Close(); err != nil {
		return fmt.Errorf("failed to close file %s: %w", path, err)
	}
	return nil
}

func init() {
	rootCmd.AddCommand(exportCmd)
	exportCmd.Flags().StringVarP(&format, "format", "f", "md", "Export format ("+strings.Join(export.Formats(), ", ")+")")
	exportCmd.Flags().StringVarP(&output, "output", "o", "", "Output file for a single dialog (default stdout)")
	exportCmd.Flags().StringVar(&outputDir, "output-dir", "./exports", "Output directory for --all")
	exportCmd.Flags().BoolVar(&exportAll, "all", false, "Export every dialog")
}
