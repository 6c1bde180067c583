package cmd

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/iksnae/dialog-search/internal"
)

var (
	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("62")).
			Padding(0, 1)

	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("212"))

	idStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("240")).
		Italic(true)

	countStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("42")).
			Bold(true)

	dateStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("243"))

	dialogHeaderStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("212")).
				Padding(0, 1).
				MarginBottom(1)

	dialogMetaStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("243")).
			MarginBottom(1)

	userMessageStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("39")).
				Bold(true).
				Padding(0, 1)

	assistantMessageStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("135")).
				Bold(true).
				Padding(0, 1)

	messageContentStyle = lipgloss.NewStyle().
				Padding(0, 2).
				MarginBottom(1)

	timestampStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")).
			Italic(true)
)

func displayDialogHeader(w io.Writer, dialog *internal.DialogWithMessages) {
	title := dialog.Title
	if title == "" {
		title = "Untitled"
	}
	fmt.Fprintln(w, dialogHeaderStyle.Render(fmt.Sprintf("💬 %s", title)))

	metaParts := []string{
		fmt.Sprintf("ID: %s", dialog.ID),
		fmt.Sprintf("Messages: %d", len(dialog.Messages)),
	}
	if !dialog.CreatedAt.IsZero() {
		metaParts = append(metaParts, fmt.Sprintf("Created: %s", formatWhen(dialog.CreatedAt)))
	}
	fmt.Fprintln(w, dialogMetaStyle.Render(strings.Join(metaParts, " • ")))
	fmt.Fprintln(w)
}

// displayMessage prints one transcript entry. user may be nil.
func displayMessage(w io.Writer, msg *internal.Message, user *internal.User) {
	var header string
	switch msg.Role {
	case internal.MessageRoleUser:
		label := "👤 You"
		if user != nil && user.FullName != "" {
			label = "👤 " + user.FullName
		}
		header = userMessageStyle.Render(label)
	default:
		header = assistantMessageStyle.Render("🤖 Assistant")
	}
	if !msg.Timestamp.IsZero() {
		header += " " + timestampStyle.Render(msg.Timestamp.Local().Format("15:04"))
	}
	fmt.Fprintln(w, header)

	content := strings.TrimSpace(msg.Content)
	if content == "" {
		fmt.Fprintln(w, messageContentStyle.Foreground(lipgloss.Color("240")).Render("(empty message)"))
		return
	}
	fmt.Fprintln(w, messageContentStyle.Render(wrapText(content, 100)))
}

// formatWhen renders a timestamp relative to now, coarser as it gets older
func formatWhen(t time.Time) string {
	t = t.Local()
	diff := time.Since(t)
	switch {
	case diff < 24*time.Hour:
		return t.Format("Today 15:04")
	case diff < 7*24*time.Hour:
		return t.Format("Mon 15:04")
	case diff < 365*24*time.Hour:
		return t.Format("Jan 02 15:04")
	default:
		return t.Format("2006-01-02")
	}
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func wrapText(text string, width int) string {
	lines := strings.Split(text, "\n")
	var wrapped []string

	for _, line := range lines {
		if len(line) <= width {
			wrapped = append(wrapped, line)
			continue
		}

		words := strings.Fields(line)
		currentLine := ""
		for _, word := range words {
			if len(currentLine)+len(word)+1 > width {
				if currentLine != "" {
					wrapped = append(wrapped, currentLine)
				}
				currentLine = word
			} else if currentLine == "" {
				currentLine = word
			} else {
				currentLine += " " + word
			}
		}
		if currentLine != "" {
			wrapped = append(wrapped, currentLine)
		}
	}

	return strings.Join(wrapped, "\n")
}
