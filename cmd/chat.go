package cmd

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/iksnae/dialog-search/internal"
	"github.com/spf13/cobra"
)

var chatDialog string

const chatHelp = `Commands:
  /new            start a new dialog
  /open <id>      switch to a dialog
  /list           list your dialogs
  /rename <title> rename the current dialog
  /delete         delete the current dialog
  /help           show this help
  /quit, /exit    leave`

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Start an interactive conversation",
	Long: `Start an interactive conversation with the search service.

Type a question and press enter. Lines starting with / are commands; type /help
to list them.`,
	Args: cobra.NoArgs,
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

		dialogID := ""
		if chatDialog != "" {
			if dialogID, err = resolveDialogID(app, chatDialog); err != nil {
				return err
			}
		}

		s := &chatSession{
			app:     app,
			user:    user,
			out:     cmd.OutOrStdout(),
			replies: make(chan chatReply, 16),
		}
		s.orch = app.NewOrchestrator(dialogID)
		s.orch.OnReply = func(msg *internal.Message, err error) {
			s.replies <- chatReply{msg: msg, err: err}
		}
		defer s.orch.Wait()

		fmt.Fprintln(s.out, headerStyle.Render(fmt.Sprintf("💬 Chatting as %s", user.FullName)))
		fmt.Fprintln(s.out, idStyle.Render("Type /help for commands, /quit to leave"))
		fmt.Fprintln(s.out)
		if dialogID != "" {
			s.open(cmd.Context(), dialogID)
		}

		return s.run(cmd.Context(), cmd.InOrStdin())
	},
}

type chatReply struct {
	msg *internal.Message
	err error
}

type chatSession struct {
	app     *internal.App
	user    *internal.User
	orch    *internal.Orchestrator
	out     io.Writer
	replies chan chatReply
}

func (s *chatSession) run(ctx context.Context, in io.Reader) error {
	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprint(s.out, "> ")
		if !scanner.Scan() {
			fmt.Fprintln(s.out)
			return scanner.Err()
		}
		if ctx.Err() != nil {
			return nil
		}

		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if strings.HasPrefix(line, "/") {
			if quit := s.command(ctx, line); quit {
				return nil
			}
			continue
		}
		s.submit(ctx, line)
	}
}

// command runs a slash command and reports whether the loop should end
func (s *chatSession) command(ctx context.Context, line string) bool {
	name, arg, _ := strings.Cut(line, " ")
	arg = strings.TrimSpace(arg)

	switch name {
	case "/quit", "/exit":
		return true
	case "/help":
		fmt.Fprintln(s.out, chatHelp)
	case "/new":
		s.orch.SetActiveDialog(ctx, "")
		internal.PrintInfo(s.out, "New dialog: your next question starts it")
	case "/open":
		id, err := resolveDialogID(s.app, arg)
		if err != nil {
			internal.PrintError(s.out, err.Error())
			return false
		}
		s.open(ctx, id)
	case "/list":
		dialogs := s.app.Dialogs.Dialogs()
		counts := make(map[string]int, len(dialogs))
		for _, d := range dialogs {
			if full, ok, err := s.app.Dialogs.GetDialogWithMessages(d.ID); err == nil && ok {
				counts[d.ID] = len(full.Messages)
			}
		}
		displayDialogs(s.out, dialogs, counts)
	case "/rename":
		id := s.orch.ActiveDialog()
		if id == "" || arg == "" {
			internal.PrintError(s.out, "usage: /rename <title> (with a dialog open)")
			return false
		}
		if err := s.app.Dialogs.UpdateDialog(id, internal.DialogUpdate{Title: &arg}); err != nil {
			internal.PrintError(s.out, err.Error())
			return false
		}
		internal.PrintSuccess(s.out, fmt.Sprintf("Renamed to %q", arg))
	case "/delete":
		id := s.orch.ActiveDialog()
		if id == "" {
			internal.PrintError(s.out, "no dialog open")
			return false
		}
		if err := s.app.Dialogs.DeleteDialog(id); err != nil {
			internal.PrintError(s.out, err.Error())
			return false
		}
		s.orch.SetActiveDialog(ctx, "")
		internal.PrintSuccess(s.out, fmt.Sprintf("Deleted dialog %s", shortID(id)))
	default:
		internal.PrintError(s.out, fmt.Sprintf("unknown command %s (try /help)", name))
	}
	return false
}

func (s *chatSession) open(ctx context.Context, id string) {
	dialog, ok, err := s.app.Dialogs.GetDialogWithMessages(id)
	if err != nil {
		internal.PrintError(s.out, err.Error())
		return
	}
	if !ok {
		internal.PrintError(s.out, fmt.Sprintf("%v: %s", internal.ErrDialogNotFound, id))
		return
	}

	displayDialogHeader(s.out, dialog)
	for i := range dialog.Messages {
		displayMessage(s.out, &dialog.Messages[i], s.user)
	}

	// Opening a dialog with an unanswered question dispatches it.
	s.orch.SetActiveDialog(ctx, id)
	s.await(ctx)
}

func (s *chatSession) submit(ctx context.Context, text string) {
	result, err := s.orch.Submit(ctx, text)
	if err != nil {
		internal.PrintError(s.out, err.Error())
		return
	}
	if result.CreatedNewDialog {
		internal.PrintInfo(s.out, fmt.Sprintf("Started dialog %s", idStyle.Render(shortID(result.DialogID))))
	}
	s.await(ctx)
}

// await blocks until no request is in flight, then prints the replies that
// arrived for the active dialog.
func (s *chatSession) await(ctx context.Context) {
	if s.orch.State() == internal.StateAwaitingResponse {
		_ = internal.ShowProgress(ctx, "Waiting for answer...", func() error {
			s.orch.Wait()
			return nil
		})
	}
	s.orch.Wait()

	active := s.orch.ActiveDialog()
	for {
		select {
		case r := <-s.replies:
			switch {
			case r.err != nil:
				internal.PrintError(s.out, fmt.Sprintf("failed to store answer: %v", r.err))
			case r.msg.DialogID != active:
				internal.PrintInfo(s.out, fmt.Sprintf("Answer stored in dialog %s", shortID(r.msg.DialogID)))
			default:
				displayMessage(s.out, r.msg, s.user)
			}
		default:
			return
		}
	}
}

func init() {
	rootCmd.AddCommand(chatCmd)
	chatCmd.Flags().StringVarP(&chatDialog, "dialog", "d", "", "Resume an existing dialog")
}
