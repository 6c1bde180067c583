package testutil

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
)

// QueryCall records one request received by the fake query endpoint
type QueryCall struct {
	Query    string `json:"query"`
	Username string `json:"username"`
}

// FakeBackend is an httptest server standing in for the query-answering service
type FakeBackend struct {
	Server *httptest.Server

	mu       sync.Mutex
	users    map[string]string
	handler  func(call QueryCall) (int, string)
	queries  []QueryCall
	logins   []string
	gate     chan struct{}
	received chan QueryCall
}

// NewFakeBackend starts a fake backend that is closed with the test
func NewFakeBackend(t *testing.T) *FakeBackend {
	t.Helper()
	b := &FakeBackend{
		users:    make(map[string]string),
		received: make(chan QueryCall, 64),
		handler: func(QueryCall) (int, string) {
			return http.StatusOK, `{"success":true,"result":"ok"}`
		},
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/auth/login", b.handleLogin)
	mux.HandleFunc("/query", b.handleQuery)
	b.Server = httptest.NewServer(mux)
	t.Cleanup(func() {
		b.release()
		b.Server.Close()
	})
	return b
}

// URL returns the base URL of the server
func (b *FakeBackend) URL() string {
	return b.Server.URL
}

// AddUser registers the raw JSON body returned for username
func (b *FakeBackend) AddUser(username, body string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.users[username] = body
}

// SetQueryResponse makes every query return status and body
func (b *FakeBackend) SetQueryResponse(status int, body string) {
	b.SetQueryHandler(func(QueryCall) (int, string) { return status, body })
}

// SetQueryHandler installs a custom query handler
func (b *FakeBackend) SetQueryHandler(fn func(call QueryCall) (int, string)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handler = fn
}

// Hold blocks query responses until the returned release func is called
func (b *FakeBackend) Hold() func() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.gate = make(chan struct{})
	return b.release
}

// Received delivers each query as soon as it arrives, before any Hold gate
func (b *FakeBackend) Received() <-chan QueryCall {
	return b.received
}

// Queries returns the queries received so far
func (b *FakeBackend) Queries() []QueryCall {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]QueryCall(nil), b.queries...)
}

// Logins returns the usernames that attempted to log in
func (b *FakeBackend) Logins() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]string(nil), b.logins...)
}

func (b *FakeBackend) release() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.gate != nil {
		select {
		case <-b.gate:
		default:
			close(b.gate)
		}
	}
}

func (b *FakeBackend) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username string `json:"username"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"detail":"bad request"}`, http.StatusBadRequest)
		return
	}

	b.mu.Lock()
	b.logins = append(b.logins, req.Username)
	body, ok := b.users[req.Username]
	b.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	if !ok {
		w.WriteHeader(http.StatusNotFound)
		_, _ = fmt.Fprint(w, `{"detail":"User not found"}`)
		return
	}
	_, _ = fmt.Fprint(w, body)
}

func (b *FakeBackend) handleQuery(w http.ResponseWriter, r *http.Request) {
	var call QueryCall
	if err := json.NewDecoder(r.Body).Decode(&call); err != nil {
		http.Error(w, `{"detail":"bad request"}`, http.StatusUnprocessableEntity)
		return
	}

	b.mu.Lock()
	b.queries = append(b.queries, call)
	handler := b.handler
	gate := b.gate
	b.mu.Unlock()

	select {
	case b.received <- call:
	default:
	}

	if gate != nil {
		<-gate
	}

	status, body := handler(call)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = fmt.Fprint(w, body)
}
