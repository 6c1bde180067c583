package cmd

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/charmbracelet/lipgloss"
	"github.com/iksnae/dialog-search/internal"
	"github.com/spf13/cobra"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List your dialogs",
	Long:  `List the dialogs of the signed-in user, most recent first.`,
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := openApp()
		if err != nil {
			return err
		}
		defer closeApp(app)

		if _, err := requireSession(app); err != nil {
			return err
		}

		dialogs := app.Dialogs.Dialogs()
		counts := make(map[string]int, len(dialogs))
		for _, d := range dialogs {
			full, ok, err := app.Dialogs.GetDialogWithMessages(d.ID)
			if err != nil {
				internal.LogWarn("Failed to load messages for %s: %v", d.ID, err)
				continue
			}
			if ok {
				counts[d.ID] = len(full.Messages)
			}
		}

		displayDialogs(cmd.OutOrStdout(), dialogs, counts)
		return nil
	},
}

func displayDialogs(out io.Writer, dialogs []internal.Dialog, counts map[string]int) {
	if len(dialogs) == 0 {
		fmt.Fprintln(out, headerStyle.Render("📋 No dialogs yet"))
		fmt.Fprintln(out, idStyle.Render("💡 Tip: start one with `dialog-search ask <question>`"))
		return
	}

	fmt.Fprintln(out, headerStyle.Render(fmt.Sprintf("📋 %d dialog(s)", len(dialogs))))
	fmt.Fprintln(out)

	w := tabwriter.NewWriter(out, 0, 0, 3, ' ', 0)
	_, _ = fmt.Fprintln(w, titleStyle.Render("ID")+"\t"+titleStyle.Render("Title")+"\t"+titleStyle.Render("Messages")+"\t"+titleStyle.Render("Updated")+"\t")
	_, _ = fmt.Fprintln(w, strings.Repeat("─", 90))

	for _, d := range dialogs {
		title := d.Title
		if title == "" {
			title = "Untitled"
		}
		updated := dateStyle.Render("—")
		if !d.UpdatedAt.IsZero() {
			updated = dateStyle.Render(formatWhen(d.UpdatedAt))
		}
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\t\n",
			idStyle.Render(shortID(d.ID)),
			title,
			countStyle.Render(strconv.Itoa(counts[d.ID])),
			updated)
	}
	_ = w.Flush()

	fmt.Fprintln(out)
	fmt.Fprintln(out, idStyle.Render("💡 Tip: use an ID (or its first characters, e.g. ")+
		lipgloss.NewStyle().Foreground(lipgloss.Color("62")).Render(shortID(dialogs[0].ID))+
		idStyle.Render(") with `dialog-search show <id>`"))
}

// resolveDialogID accepts a full dialog id or a unique prefix of one
func resolveDialogID(app *internal.App, arg string) (string, error) {
	arg = strings.TrimSpace(arg)
	if arg == "" {
		return "", fmt.Errorf("dialog id must not be empty")
	}

	var matches []string
	for _, d := range app.Dialogs.Dialogs() {
		if d.ID == arg {
			return d.ID, nil
		}
		if strings.HasPrefix(d.ID, arg) {
			matches = append(matches, d.ID)
		}
	}

	switch len(matches) {
	case 0:
		return "", fmt.Errorf("%w: %s", internal.ErrDialogNotFound, arg)
	case 1:
		return matches[0], nil
	default:
		return "", fmt.Errorf("dialog id %q is ambiguous (%d matches)", arg, len(matches))
	}
}

func init() {
	rootCmd.AddCommand(listCmd)
}
