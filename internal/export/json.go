package export

import (
	"encoding/json"
	"io"

	"github.com/iksnae/dialog-search/internal"
)

// JSONExporter exports a dialog and its transcript as pretty-printed JSON
type JSONExporter struct{}

// Export exports a dialog to JSON format
func (e *JSONExporter) Export(dialog *internal.DialogWithMessages, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")

	return enc.Encode(dialog)
}

// Extension returns the file extension for this format
func (e *JSONExporter) Extension() string {
	return "json"
}
