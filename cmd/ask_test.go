package cmd

import (
	"net/http"
	"strings"
	"testing"
)

func TestAsk_StartsDialog(t *testing.T) {
	env := newCLIEnv(t)
	env.backend.SetQueryResponse(http.StatusOK, `{"success":true,"result":"hi there"}`)
	env.mustRun(t, "login", "alice")

	out := env.mustRun(t, "ask", "hello")
	for _, want := range []string{"Started dialog", "hello", "hi there"} {
		if !strings.Contains(out, want) {
			t.Errorf("ask output missing %q: %q", want, out)
		}
	}

	queries := env.backend.Queries()
	if len(queries) != 1 || queries[0].Query != "hello" || queries[0].Username != "alice" {
		t.Errorf("unexpected queries: %+v", queries)
	}

	dialogs := env.dialogs(t)
	if len(dialogs) != 1 || dialogs[0].Title != "hello" {
		t.Fatalf("unexpected dialogs: %+v", dialogs)
	}

	out = env.mustRun(t, "list")
	if !strings.Contains(out, "1 dialog(s)") || !strings.Contains(out, "hello") {
		t.Errorf("unexpected list output: %q", out)
	}
}

func TestAsk_AppendsToDialog(t *testing.T) {
	env := newCLIEnv(t)
	env.backend.SetQueryResponse(http.StatusOK, `{"success":true,"result":[{"n":1},{"n":2}]}`)
	env.mustRun(t, "login", "alice")
	env.mustRun(t, "ask", "first")

	id := env.dialogs(t)[0].ID
	out := env.mustRun(t, "ask", "--dialog", id[:6], "second")
	if strings.Contains(out, "Started dialog") {
		t.Errorf("should not start a new dialog: %q", out)
	}
	if !strings.Contains(out, `{"n":1}`) {
		t.Errorf("rows not rendered: %q", out)
	}
	if got := len(env.dialogs(t)); got != 1 {
		t.Errorf("got %d dialogs, want 1", got)
	}
}

func TestAsk_ServerError(t *testing.T) {
	env := newCLIEnv(t)
	env.backend.SetQueryResponse(http.StatusOK, `{"success":false,"error":"no data"}`)
	env.mustRun(t, "login", "alice")

	out := env.mustRun(t, "ask", "hello")
	if !strings.Contains(out, "Error: no data") {
		t.Errorf("expected server error text, got %q", out)
	}
}

func TestAsk_UnknownDialog(t *testing.T) {
	env := newCLIEnv(t)
	env.mustRun(t, "login", "alice")

	if _, err := env.run(t, "", "ask", "--dialog", "missing", "hello"); err == nil {
		t.Error("expected error for unknown dialog")
	}
	if got := len(env.backend.Queries()); got != 0 {
		t.Errorf("backend saw %d queries, want 0", got)
	}
}
