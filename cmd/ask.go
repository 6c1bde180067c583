package cmd

import (
	"fmt"
	"strings"
	"sync"

	"github.com/iksnae/dialog-search/internal"
	"github.com/spf13/cobra"
)

var askDialog string

var askCmd = &cobra.Command{
	Use:   "ask <question>",
	Short: "Ask one question and print the answer",
	Long: `Send a natural-language question to the search service and print the answer.

Without --dialog a new dialog is started, titled after the question. With
--dialog the question is appended to that dialog.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		question := strings.TrimSpace(strings.Join(args, " "))
		if question == "" {
			return internal.ErrEmptyInput
		}

		app, err := openApp()
		if err != nil {
			return err
		}
		defer closeApp(app)

		user, err := requireSession(app)
		if err != nil {
			return err
		}

		dialogID := ""
		if askDialog != "" {
			if dialogID, err = resolveDialogID(app, askDialog); err != nil {
				return err
			}
		}

		var (
			mu       sync.Mutex
			reply    *internal.Message
			replyErr error
		)
		orch := app.NewOrchestrator(dialogID)
		orch.OnReply = func(msg *internal.Message, err error) {
			mu.Lock()
			defer mu.Unlock()
			if reply == nil && replyErr == nil {
				reply, replyErr = msg, err
			}
		}

		result, err := orch.Submit(cmd.Context(), question)
		if err != nil {
			return fmt.Errorf("failed to send question: %w", err)
		}

		out := cmd.OutOrStdout()
		if result.CreatedNewDialog {
			internal.PrintInfo(out, fmt.Sprintf("Started dialog %s", idStyle.Render(result.DialogID)))
			fmt.Fprintln(out)
		}

		// Requests are not cancellable, so the answer is always awaited.
		_ = internal.ShowProgress(cmd.Context(), "Waiting for answer...", func() error {
			orch.Wait()
			return nil
		})
		orch.Wait()

		displayMessage(out, result.Message, user)
		mu.Lock()
		defer mu.Unlock()
		if replyErr != nil {
			return fmt.Errorf("failed to store answer: %w", replyErr)
		}
		if reply != nil {
			displayMessage(out, reply, user)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(askCmd)
	askCmd.Flags().StringVarP(&askDialog, "dialog", "d", "", "Append to an existing dialog")
}
