package cmd

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/iksnae/dialog-search/internal"
	"github.com/spf13/cobra"
)

var deleteYes bool

var renameCmd = &cobra.Command{
	Use:   "rename <dialog-id> <title>",
	Short: "Rename a dialog",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		title := strings.TrimSpace(strings.Join(args[1:], " "))
		if title == "" {
			return fmt.Errorf("title must not be empty")
		}

		app, err := openApp()
		if err != nil {
			return err
		}
		defer closeApp(app)

		if _, err := requireSession(app); err != nil {
			return err
		}
		dialogID, err := resolveDialogID(app, args[0])
		if err != nil {
			return err
		}

		if err := app.Dialogs.UpdateDialog(dialogID, internal.DialogUpdate{Title: &title}); err != nil {
			return fmt.Errorf("failed to rename dialog: %w", err)
		}
		internal.PrintSuccess(cmd.OutOrStdout(), fmt.Sprintf("Renamed %s to %q", shortID(dialogID), title))
		return nil
	},
}

var deleteCmd = &cobra.Command{
	Use:   "delete <dialog-id>",
	Short: "Delete a dialog and its messages",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := openApp()
		if err != nil {
			return err
		}
		defer closeApp(app)

		if _, err := requireSession(app); err != nil {
			return err
		}
		dialogID, err := resolveDialogID(app, args[0])
		if err != nil {
			return err
		}

		if !deleteYes {
			title := dialogID
			for _, d := range app.Dialogs.Dialogs() {
				if d.ID == dialogID {
					title = d.Title
				}
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Delete %q? [y/N] ", title)
			answer, _ := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
			answer = strings.ToLower(strings.TrimSpace(answer))
			if answer != "y" && answer != "yes" {
				internal.PrintInfo(cmd.OutOrStdout(), "Cancelled")
				return nil
			}
		}

		if err := app.Dialogs.DeleteDialog(dialogID); err != nil {
			return fmt.Errorf("failed to delete dialog: %w", err)
		}
		internal.PrintSuccess(cmd.OutOrStdout(), fmt.Sprintf("Deleted dialog %s", shortID(dialogID)))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(renameCmd, deleteCmd)
	deleteCmd.Flags().BoolVarP(&deleteYes, "yes", "y", false, "Do not ask for confirmation")
}
