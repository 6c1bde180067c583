package internal

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/iksnae/dialog-search/testutil"
)

func TestClient_Login(t *testing.T) {
	backend := testutil.NewFakeBackend(t)
	backend.AddUser("alice", `{"id":7,"username":"alice","first_name":"Alice","last_name":"Smith","email":"a@example.com","is_manager":true}`)
	backend.AddUser("noid", `{"username":"noid"}`)
	backend.AddUser("garbage", `not json`)
	client := NewClient(backend.URL()+"/", nil)

	profile, err := client.Login(context.Background(), "alice")
	if err != nil {
		t.Fatalf("Login() error = %v", err)
	}
	want := LoginProfile{ID: "7", Username: "alice", FirstName: "Alice", LastName: "Smith", Email: "a@example.com", IsManager: true}
	if *profile != want {
		t.Errorf("Login() = %+v, want %+v", *profile, want)
	}

	_, err = client.Login(context.Background(), "mallory")
	var reqErr *RequestError
	if !errors.As(err, &reqErr) || reqErr.Status != http.StatusNotFound {
		t.Errorf("Login(unknown) error = %v, want 404 RequestError", err)
	}

	for _, name := range []string{"noid", "garbage"} {
		_, err := client.Login(context.Background(), name)
		var parseErr *ParseError
		if !errors.As(err, &parseErr) {
			t.Errorf("Login(%s) error = %v, want ParseError", name, err)
		}
	}

	if got := backend.Logins(); len(got) != 4 || got[0] != "alice" {
		t.Errorf("Logins() = %v", got)
	}
}

func TestClient_Query(t *testing.T) {
	tests := []struct {
		name        string
		status      int
		body        string
		wantSuccess bool
		wantResult  string
		wantError   string
	}{
		{
			name:        "array result",
			status:      http.StatusOK,
			body:        `{"success":true,"result":[{"a":1}]}`,
			wantSuccess: true,
			wantResult:  `[{"a":1}]`,
		},
		{
			name:      "server error",
			status:    http.StatusOK,
			body:      `{"success":false,"error":"no data"}`,
			wantError: "no data",
		},
		{
			name:      "http error detail",
			status:    http.StatusInternalServerError,
			body:      `{"detail":"boom"}`,
			wantError: "boom",
		},
		{
			name:      "structured detail",
			status:    http.StatusUnprocessableEntity,
			body:      `{"detail":[{"msg":"field required"}]}`,
			wantError: `[{"msg":"field required"}]`,
		},
		{
			name:        "missing result",
			status:      http.StatusOK,
			body:        `{"success":true}`,
			wantSuccess: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			backend := testutil.NewFakeBackend(t)
			backend.SetQueryResponse(tt.status, tt.body)
			client := NewClient(backend.URL(), nil)

			env, err := client.Query(context.Background(), "how many", "alice")
			if err != nil {
				t.Fatalf("Query() error = %v", err)
			}
			if env.Success != tt.wantSuccess || string(env.Result) != tt.wantResult || env.Error != tt.wantError {
				t.Errorf("Query() = %+v (result %s)", env, env.Result)
			}
			if (env.Err() == nil) != tt.wantSuccess {
				t.Errorf("Err() = %v for success=%v", env.Err(), env.Success)
			}

			calls := backend.Queries()
			if len(calls) != 1 || calls[0].Query != "how many" || calls[0].Username != "alice" {
				t.Errorf("backend received %+v", calls)
			}
		})
	}
}

func TestClient_QueryTransportErrors(t *testing.T) {
	t.Run("invalid body", func(t *testing.T) {
		backend := testutil.NewFakeBackend(t)
		backend.SetQueryResponse(http.StatusBadGateway, `<html>bad gateway</html>`)
		_, err := NewClient(backend.URL(), nil).Query(context.Background(), "q", "")
		if !errors.Is(err, ErrQueryTransport) {
			t.Errorf("error = %v, want ErrQueryTransport", err)
		}
	})

	t.Run("server down", func(t *testing.T) {
		backend := testutil.NewFakeBackend(t)
		url := backend.URL()
		backend.Server.Close()
		_, err := NewClient(url, nil).Query(context.Background(), "q", "")
		if !errors.Is(err, ErrQueryTransport) {
			t.Errorf("error = %v, want ErrQueryTransport", err)
		}
	})

	t.Run("timeout", func(t *testing.T) {
		backend := testutil.NewFakeBackend(t)
		release := backend.Hold()
		defer release()
		ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
		defer cancel()
		_, err := NewClient(backend.URL(), nil).Query(ctx, "q", "")
		if !errors.Is(err, ErrQueryTransport) || !errors.Is(err, context.DeadlineExceeded) {
			t.Errorf("error = %v, want transport deadline error", err)
		}
	})
}

func TestClient_Ping(t *testing.T) {
	backend := testutil.NewFakeBackend(t)
	client := NewClient(backend.URL(), nil)
	if err := client.Ping(context.Background()); err != nil {
		t.Errorf("Ping() error = %v", err)
	}
	backend.Server.Close()
	if err := client.Ping(context.Background()); err == nil {
		t.Error("Ping() should fail once the server is gone")
	}
}

func TestQueryEnvelope_Err(t *testing.T) {
	var nilEnv *QueryEnvelope
	if !errors.Is(nilEnv.Err(), ErrQueryServer) {
		t.Error("nil envelope should report ErrQueryServer")
	}
	err := (&QueryEnvelope{Error: "no data"}).Err()
	if !errors.Is(err, ErrQueryServer) || err.Error() != "query server error: no data" {
		t.Errorf("Err() = %v", err)
	}
}
