package internal

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/tidwall/gjson"
)

const (
	loginEndpoint = "/auth/login"
	queryEndpoint = "/query"

	maxResponseBytes = 32 << 20
)

// LoginProfile is the user record returned by the login endpoint
type LoginProfile struct {
	ID        string
	Username  string
	FirstName string
	LastName  string
	Email     string
	IsManager bool
}

// QueryEnvelope is the decoded body of a query response
type QueryEnvelope struct {
	Success bool
	// Result is the raw JSON result, nil when the server sent none.
	Result json.RawMessage
	Error  string
}

// Err returns nil for a successful envelope, otherwise the server's error
// wrapped in ErrQueryServer.
func (e *QueryEnvelope) Err() error {
	if e == nil {
		return ErrQueryServer
	}
	if e.Success {
		return nil
	}
	if e.Error == "" {
		return ErrQueryServer
	}
	return fmt.Errorf("%w: %s", ErrQueryServer, e.Error)
}

// Authenticator resolves a username into a user profile
type Authenticator interface {
	Login(ctx context.Context, username string) (*LoginProfile, error)
}

// Querier forwards a natural-language query to the answering service
type Querier interface {
	Query(ctx context.Context, query, username string) (*QueryEnvelope, error)
}

// Client talks to the query-answering backend over HTTP
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a backend client. A nil httpClient uses http.DefaultClient.
func NewClient(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
	}
}

// BaseURL returns the configured backend URL
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Ping checks that the backend answers HTTP at all. Any status counts.
func (c *Client) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/", nil)
	if err != nil {
		return &RequestError{Endpoint: "/", Err: err}
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &RequestError{Endpoint: "/", Err: err}
	}
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
	return resp.Body.Close()
}

type loginRequest struct {
	Username string `json:"username"`
}

type queryRequest struct {
	Query    string `json:"query"`
	Username string `json:"username,omitempty"`
}

// Login posts the username to the login endpoint. Any non-2xx status means the
// user is unknown.
func (c *Client) Login(ctx context.Context, username string) (*LoginProfile, error) {
	status, body, err := c.post(ctx, loginEndpoint, loginRequest{Username: username})
	if err != nil {
		return nil, err
	}
	if status < 200 || status > 299 {
		return nil, &RequestError{Endpoint: loginEndpoint, Status: status, Err: errors.New("user not found")}
	}

	if !gjson.ValidBytes(body) {
		return nil, &ParseError{Source: "login", Key: loginEndpoint, Err: errors.New("invalid JSON body")}
	}
	r := gjson.ParseBytes(body)
	id := r.Get("id")
	if !id.Exists() || id.String() == "" {
		return nil, &ParseError{Source: "login", Key: loginEndpoint, Err: errors.New("missing user id")}
	}

	return &LoginProfile{
		ID:        id.String(),
		Username:  r.Get("username").String(),
		FirstName: r.Get("first_name").String(),
		LastName:  r.Get("last_name").String(),
		Email:     r.Get("email").String(),
		IsManager: r.Get("is_manager").Bool(),
	}, nil
}

// Query posts a query. Transport failures and undecodable bodies wrap
// ErrQueryTransport; a decoded envelope is returned whatever its success flag.
func (c *Client) Query(ctx context.Context, query, username string) (*QueryEnvelope, error) {
	status, body, err := c.post(ctx, queryEndpoint, queryRequest{Query: query, Username: username})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrQueryTransport, err)
	}

	if !gjson.ValidBytes(body) {
		return nil, fmt.Errorf("%w: %w", ErrQueryTransport, &RequestError{
			Endpoint: queryEndpoint,
			Status:   status,
			Err:      &ParseError{Source: "query", Key: queryEndpoint, Err: errors.New("invalid JSON body")},
		})
	}

	r := gjson.ParseBytes(body)
	env := &QueryEnvelope{
		Success: r.Get("success").Bool(),
		Error:   r.Get("error").String(),
	}
	if result := r.Get("result"); result.Exists() {
		env.Result = json.RawMessage(result.Raw)
	}
	// HTTP errors raised by the server come back as {"detail": ...}.
	if !env.Success && env.Error == "" {
		if detail := r.Get("detail"); detail.Exists() {
			if detail.Type == gjson.String {
				env.Error = detail.Str
			} else {
				env.Error = detail.Raw
			}
		}
	}
	LogDebug("Query response status=%d success=%t", status, env.Success)
	return env, nil
}

func (c *Client) post(ctx context.Context, endpoint string, payload interface{}) (int, []byte, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return 0, nil, &RequestError{Endpoint: endpoint, Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+endpoint, bytes.NewReader(data))
	if err != nil {
		return 0, nil, &RequestError{Endpoint: endpoint, Err: err}
	}
	req.Header.Set("Content-Type", "application/json")

	LogDebug("POST %s%s", c.baseURL, endpoint)
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, nil, &RequestError{Endpoint: endpoint, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return resp.StatusCode, nil, &RequestError{Endpoint: endpoint, Status: resp.StatusCode, Err: err}
	}
	return resp.StatusCode, body, nil
}
