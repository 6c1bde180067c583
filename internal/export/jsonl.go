package export

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/iksnae/dialog-search/internal"
)

// JSONLExporter exports one message per line
type JSONLExporter struct{}

type jsonlLine struct {
	DialogID  string               `json:"dialog_id"`
	Role      internal.MessageRole `json:"role"`
	Content   string               `json:"content"`
	Timestamp string               `json:"timestamp,omitempty"`
}

// Export exports a dialog to JSONL format
func (e *JSONLExporter) Export(dialog *internal.DialogWithMessages, w io.Writer) error {
	enc := json.NewEncoder(w)

	for _, msg := range dialog.Messages {
		line := jsonlLine{
			DialogID: dialog.ID,
			Role:     msg.Role,
			Content:  msg.Content,
		}
		if !msg.Timestamp.IsZero() {
			line.Timestamp = msg.Timestamp.Format(time.RFC3339)
		}

		if err := enc.Encode(line); err != nil {
			return fmt.Errorf("failed to encode message: %w", err)
		}
	}

	return nil
}

// Extension returns the file extension for this format
func (e *JSONLExporter) Extension() string {
	return "jsonl"
}
