package cmd

import (
	"bytes"
	"fmt"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"github.com/iksnae/dialog-search/internal"
	"github.com/iksnae/dialog-search/internal/export"
	"github.com/spf13/cobra"
)

var (
	limit      int
	showRender bool
)

// showCmd represents the show command
var showCmd = &cobra.Command{
	Use:   "show <dialog-id>",
	Short: "Show the messages of a dialog",
	Long: `Display the transcript of one of your dialogs.

The id may be shortened to any unique prefix, as printed by 'dialog-search list'.`,
	Args: cobra.ExactArgs(1),
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

		out := cmd.OutOrStdout()
		if showRender {
			var buf bytes.Buffer
			if err := (&export.MarkdownExporter{}).Export(dialog, &buf); err != nil {
				return fmt.Errorf("failed to render dialog: %w", err)
			}
			rendered, err := glamour.Render(buf.String(), "dark")
			if err != nil {
				return fmt.Errorf("failed to render markdown: %w", err)
			}
			fmt.Fprint(out, rendered)
			return nil
		}

		displayDialogHeader(out, dialog)

		messages := dialog.Messages
		total := len(messages)
		if limit > 0 && limit < total {
			messages = messages[total-limit:]
			fmt.Fprintln(out, lipgloss.NewStyle().
				Foreground(lipgloss.Color("243")).
				Italic(true).
				Render(fmt.Sprintf("... (%d earlier message(s))", total-limit)))
			fmt.Fprintln(out)
		}

		for i := range messages {
			displayMessage(out, &messages[i], user)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(showCmd)
	showCmd.Flags().IntVarP(&limit, "limit", "n", 0, "Show only the last N messages")
	showCmd.Flags().BoolVar(&showRender, "render", false, "Render the transcript as styled markdown")
}
