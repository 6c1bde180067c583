package export

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/iksnae/dialog-search/internal"
)

// Exporter writes one dialog and its transcript in a single format
type Exporter interface {
	Export(dialog *internal.DialogWithMessages, w io.Writer) error
	Extension() string
}

var exporters = map[string]func() Exporter{
	"json":     func() Exporter { return &JSONExporter{} },
	"jsonl":    func() Exporter { return &JSONLExporter{} },
	"md":       func() Exporter { return &MarkdownExporter{} },
	"markdown": func() Exporter { return &MarkdownExporter{} },
	"yaml":     func() Exporter { return &YAMLExporter{} },
}

// Formats lists the accepted format names, aliases included
func Formats() []string {
	names := make([]string, 0, len(exporters))
	for name := range exporters {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// NewExporter returns the exporter for format (case-insensitive)
func NewExporter(format string) (Exporter, error) {
	newFn, ok := exporters[strings.ToLower(format)]
	if !ok {
		return nil, fmt.Errorf("unsupported format: %s (supported: %s)", format, strings.Join(Formats(), ", "))
	}
	return newFn(), nil
}
