package export

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/iksnae/dialog-search/internal"
)

func TestMarkdownExporter_Export(t *testing.T) {
	tests := []struct {
		name    string
		dialog  *internal.DialogWithMessages
		want    []string
		notWant []string
	}{
		{
			name:   "basic dialog",
			dialog: internal.CreateTestDialog("d1"),
			want: []string{
				"# Test Conversation",
				"**Dialog:** d1",
				"**Created:** 2024-01-01T10:00:00Z",
				"**Messages:** 2",
				"**user:** (2024-01-01T10:00:00Z)",
				"How many orders shipped today?",
				"**assistant:** (2024-01-01T10:00:01Z)",
				"```json\n{\"count\":42}\n```",
			},
		},
		{
			name: "untitled dialog without timestamps",
			dialog: &internal.DialogWithMessages{
				Dialog:   internal.Dialog{ID: "d2"},
				Messages: []internal.Message{{Role: internal.MessageRoleUser, Content: "hi"}},
			},
			want:    []string{"# Untitled", "**user:**\n\nhi"},
			notWant: []string{"**Created:**", "(0001"},
		},
		{
			name: "plain assistant text is not fenced",
			dialog: internal.CreateTestDialogWithMessages("d3", []internal.Message{
				{Role: internal.MessageRoleAssistant, Content: "Error: no data", Timestamp: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)},
			}),
			want:    []string{"Error: no data"},
			notWant: []string{"```json"},
		},
		{
			name: "markdown in user text is escaped",
			dialog: internal.CreateTestDialogWithMessages("d4", []internal.Message{
				{Role: internal.MessageRoleUser, Content: "show **all** __rows__"},
			}),
			want: []string{`show \*\*all\*\* \_\_rows\_\_`},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			if err := (&MarkdownExporter{}).Export(tt.dialog, &buf); err != nil {
				t.Fatalf("Export() error = %v", err)
			}
			output := buf.String()
			for _, want := range tt.want {
				if !strings.Contains(output, want) {
					t.Errorf("output missing %q\n%s", want, output)
				}
			}
			for _, notWant := range tt.notWant {
				if strings.Contains(output, notWant) {
					t.Errorf("output should not contain %q\n%s", notWant, output)
				}
			}
		})
	}
}

func TestEscapeMarkdown(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "bold", input: "**bold**", want: `\*\*bold\*\*`},
		{name: "underline", input: "__u__", want: `\_\_u\_\_`},
		{name: "code block untouched", input: "```\n**x**\n```", want: "```\n**x**\n```"},
		{name: "plain", input: "plain text", want: "plain text"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := escapeMarkdown(tt.input); got != tt.want {
				t.Errorf("escapeMarkdown() = %q, want %q", got, tt.want)
			}
		})
	}
}
