package export

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/iksnae/dialog-search/internal"
)

func TestJSONExporter_Export(t *testing.T) {
	dialog := internal.CreateTestDialog("d1")

	var buf bytes.Buffer
	if err := (&JSONExporter{}).Export(dialog, &buf); err != nil {
		t.Fatalf("Export() error = %v", err)
	}

	var decoded internal.DialogWithMessages
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}
	if decoded.ID != "d1" || decoded.Title != "Test Conversation" || len(decoded.Messages) != 2 {
		t.Errorf("decoded = %+v", decoded)
	}
	if !decoded.CreatedAt.Equal(dialog.CreatedAt) || decoded.Messages[1].Content != `{"count":42}` {
		t.Errorf("decoded = %+v", decoded)
	}

	// embedded dialog fields are flattened
	var raw map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &raw); err != nil {
		t.Fatal(err)
	}
	if _, ok := raw["title"]; !ok {
		t.Errorf("title should be a top-level field: %v", raw)
	}
	if !bytes.Contains(buf.Bytes(), []byte("\n  \"id\"")) {
		t.Error("output should be indented")
	}
}
