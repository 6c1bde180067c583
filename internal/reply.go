package internal

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/tidwall/gjson"
)

// RenderReply turns a query outcome into the assistant message text. It never
// fails: transport and server errors become readable text.
func RenderReply(env *QueryEnvelope, err error) string {
	if err != nil {
		return fmt.Sprintf("Failed to connect to server: %v", err)
	}
	if env == nil {
		return "Failed to connect to server: empty response"
	}
	if !env.Success {
		msg := env.Error
		if msg == "" {
			msg = "unknown error"
		}
		return "Error: " + msg
	}
	return RenderResult(env.Result)
}

// RenderResult formats a raw JSON result for display. Arrays print one compact
// JSON row per line, objects print as compact JSON, scalars print as text.
func RenderResult(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}

	r := gjson.ParseBytes(raw)
	switch {
	case r.IsArray():
		var rows []string
		r.ForEach(func(_, row gjson.Result) bool {
			rows = append(rows, compactJSON(row.Raw))
			return true
		})
		return strings.Join(rows, "\n")
	case r.IsObject():
		return compactJSON(r.Raw)
	case r.Type == gjson.String:
		return r.Str
	default:
		return strings.TrimSpace(r.Raw)
	}
}

func compactJSON(raw string) string {
	var buf bytes.Buffer
	if err := json.Compact(&buf, []byte(raw)); err != nil {
		return strings.TrimSpace(raw)
	}
	return buf.String()
}
