package export

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/iksnae/dialog-search/internal"
)

// MarkdownExporter exports a dialog as a Markdown transcript
type MarkdownExporter struct{}

// Export exports a dialog to Markdown format
func (e *MarkdownExporter) Export(dialog *internal.DialogWithMessages, w io.Writer) error {
	title := dialog.Title
	if title == "" {
		title = "Untitled"
	}
	_, _ = fmt.Fprintf(w, "# %s\n\n", escapeMarkdown(title))

	_, _ = fmt.Fprintf(w, "**Dialog:** %s  \n", dialog.ID)
	if !dialog.CreatedAt.IsZero() {
		_, _ = fmt.Fprintf(w, "**Created:** %s  \n", dialog.CreatedAt.Format(time.RFC3339))
	}
	_, _ = fmt.Fprintf(w, "**Messages:** %d\n\n", len(dialog.Messages))

	_, _ = fmt.Fprintf(w, "---\n\n")

	for i, msg := range dialog.Messages {
		timestamp := ""
		if !msg.Timestamp.IsZero() {
			timestamp = fmt.Sprintf(" (%s)", msg.Timestamp.Format(time.RFC3339))
		}

		content := escapeMarkdown(msg.Content)
		// Assistant rows are raw JSON lines; keep them verbatim.
		if msg.Role == internal.MessageRoleAssistant && looksLikeJSONRows(msg.Content) {
			content = "```json\n" + msg.Content + "\n```"
		}

		_, _ = fmt.Fprintf(w, "**%s:**%s\n\n%s\n\n", msg.Role, timestamp, content)

		if i < len(dialog.Messages)-1 {
			_, _ = fmt.Fprintf(w, "---\n\n")
		}
	}

	return nil
}

func looksLikeJSONRows(text string) bool {
	trimmed := strings.TrimSpace(text)
	return strings.HasPrefix(trimmed, "{") || strings.HasPrefix(trimmed, "[")
}

// escapeMarkdown escapes markdown special characters
func escapeMarkdown(text string) string {
	lines := strings.Split(text, "\n")
	var result []string
	inCodeBlock := false

	for _, line := range lines {
		if strings.HasPrefix(line, "```") {
			inCodeBlock = !inCodeBlock
			result = append(result, line)
		} else if inCodeBlock {
			result = append(result, line)
		} else {
			line = strings.ReplaceAll(line, "**", "\\*\\*")
			line = strings.ReplaceAll(line, "__", "\\_\\_")
			result = append(result, line)
		}
	}

	return strings.Join(result, "\n")
}

// Extension returns the file extension for this format
func (e *MarkdownExporter) Extension() string {
	return "md"
}
