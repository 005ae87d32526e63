package store

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

const requestTimeout = 10 * time.Second

// Client is the contract the rest of the service has with the hosted
// Auth/Storage backend. Auth operations hit the account endpoints,
// table operations hit the REST row endpoints. Every method returns the
// raw JSON payload on success so callers decide how much of it to
// decode; errors carry the backend's own message verbatim.
type Client interface {
	SignUp(ctx context.Context, email, password string, metadata map[string]any) (json.RawMessage, error)
	SignInWithPassword(ctx context.Context, email, password string) (json.RawMessage, error)
	SendPasswordReset(ctx context.Context, email, redirectTo string) (json.RawMessage, error)
	AuthUser(ctx context.Context, accessToken string) (json.RawMessage, error)

	Insert(ctx context.Context, table string, rows any) (json.RawMessage, error)
	Select(ctx context.Context, table, query string) (json.RawMessage, error)
	Update(ctx context.Context, table string, id int64, fields map[string]any) (json.RawMessage, error)
	Delete(ctx context.Context, table string, id int64) (json.RawMessage, error)
}

// HTTPClient talks to the hosted backend over its REST surface. Safe
// for concurrent use; one long-lived instance is shared by the whole
// process.
type HTTPClient struct {
	baseURL    string
	serviceKey string
	client     *http.Client
}

// NewHTTPClient creates a store client authenticated with the
// service-role key.
func NewHTTPClient(baseURL, serviceKey string) *HTTPClient {
	return &HTTPClient{
		baseURL:    baseURL,
		serviceKey: serviceKey,
		client:     &http.Client{Timeout: requestTimeout},
	}
}

// APIError is a failure reported by the backend. The message is passed
// through to HTTP callers verbatim, so it must never contain anything
// the backend itself would not show a client.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return e.Message
}

// errorBody covers the shapes the backend uses for failures: the auth
// endpoints use error/error_description or msg, the row endpoints use
// message.
type errorBody struct {
	ErrorDescription string `json:"error_description"`
	Msg              string `json:"msg"`
	Message          string `json:"message"`
	ErrorField       string `json:"error"`
}

func (c *HTTPClient) do(ctx context.Context, method, path string, headers map[string]string, body any) (json.RawMessage, error) {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to encode request body: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("apikey", c.serviceKey)
	req.Header.Set("Authorization", "Bearer "+c.serviceKey)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("store request failed: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read store response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &APIError{StatusCode: resp.StatusCode, Message: errorMessage(resp.StatusCode, data)}
	}

	return json.RawMessage(data), nil
}

// errorMessage picks the first populated message field out of a failure
// payload, falling back to the HTTP status text.
func errorMessage(status int, data []byte) string {
	var body errorBody
	if err := json.Unmarshal(data, &body); err == nil {
		for _, msg := range []string{body.ErrorDescription, body.Msg, body.Message, body.ErrorField} {
			if msg != "" {
				return msg
			}
		}
	}
	return http.StatusText(status)
}

// SignUp registers a new account. Optional metadata (e.g. a display
// name) is attached to the account record.
func (c *HTTPClient) SignUp(ctx context.Context, email, password string, metadata map[string]any) (json.RawMessage, error) {
	body := map[string]any{"email": email, "password": password}
	if len(metadata) > 0 {
		body["data"] = metadata
	}
	return c.do(ctx, http.MethodPost, "/auth/v1/signup", nil, body)
}

// SignInWithPassword exchanges credentials for a session payload. The
// backend decides the failure reason (bad credentials, unverified
// account); it is surfaced as an opaque error string.
func (c *HTTPClient) SignInWithPassword(ctx context.Context, email, password string) (json.RawMessage, error) {
	body := map[string]any{"email": email, "password": password}
	return c.do(ctx, http.MethodPost, "/auth/v1/token?grant_type=password", nil, body)
}

// SendPasswordReset asks the backend to email a recovery link.
func (c *HTTPClient) SendPasswordReset(ctx context.Context, email, redirectTo string) (json.RawMessage, error) {
	path := "/auth/v1/recover"
	if redirectTo != "" {
		path += "?redirect_to=" + url.QueryEscape(redirectTo)
	}
	return c.do(ctx, http.MethodPost, path, nil, map[string]any{"email": email})
}

// AuthUser verifies an access token and returns the account it belongs
// to.
func (c *HTTPClient) AuthUser(ctx context.Context, accessToken string) (json.RawMessage, error) {
	headers := map[string]string{"Authorization": "Bearer " + accessToken}
	return c.do(ctx, http.MethodGet, "/auth/v1/user", headers, nil)
}

// Insert creates rows in a table and returns the created
// representations, ids included.
func (c *HTTPClient) Insert(ctx context.Context, table string, rows any) (json.RawMessage, error) {
	headers := map[string]string{"Prefer": "return=representation"}
	return c.do(ctx, http.MethodPost, "/rest/v1/"+table, headers, rows)
}

// Select reads rows from a table. The query is a raw filter string in
// the backend's own syntax, e.g. "select=*,family_members(*)&user_id=eq.u1".
func (c *HTTPClient) Select(ctx context.Context, table, query string) (json.RawMessage, error) {
	path := "/rest/v1/" + table
	if query != "" {
		path += "?" + query
	}
	return c.do(ctx, http.MethodGet, path, nil, nil)
}

// Update applies a partial update to the row with the given id and
// returns the updated representation.
func (c *HTTPClient) Update(ctx context.Context, table string, id int64, fields map[string]any) (json.RawMessage, error) {
	headers := map[string]string{"Prefer": "return=representation"}
	path := fmt.Sprintf("/rest/v1/%s?id=eq.%d", table, id)
	return c.do(ctx, http.MethodPatch, path, headers, fields)
}

// Delete removes the row with the given id and returns the deleted
// representation.
func (c *HTTPClient) Delete(ctx context.Context, table string, id int64) (json.RawMessage, error) {
	headers := map[string]string{"Prefer": "return=representation"}
	path := fmt.Sprintf("/rest/v1/%s?id=eq.%d", table, id)
	return c.do(ctx, http.MethodDelete, path, headers, nil)
}
