package export

import (
	"io"

	"github.com/iksnae/dialog-search/internal"
	"gopkg.in/yaml.v3"
)

// YAMLExporter exports a dialog in YAML format
type YAMLExporter struct{}

// Export exports a dialog to YAML format
func (e *YAMLExporter) Export(dialog *internal.DialogWithMessages, w io.Writer) error {
	enc := yaml.NewEncoder(w)
	defer func() { _ = enc.Close() }()

	return enc.Encode(dialog)
}

// Extension returns the file extension for this format
func (e *YAMLExporter) Extension() string {
	return "yaml"
}
