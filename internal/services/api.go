// Gateway for every request made to the CineAI API
package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"

	"github.com/charmbracelet/log"
	"golang.org/x/oauth2"

	"github.com/desertthunder/cineai/internal/shared"
)

// DefaultBaseURL is used when no base URL is configured.
const DefaultBaseURL = "http://localhost:8000"

// TokenStore persists the bearer token between runs.
type TokenStore interface {
	GetToken() string
	SetToken(token string)
	RemoveToken()
}

// APIService is the single owner of the HTTP client used to talk to the CineAI API.
//
// Every request gets "Authorization: Bearer <token>" when a token is stored. A 401 answer clears the token,
// runs the OnUnauthorized hook and surfaces as an error wrapping [shared.ErrAuthRequired].
// Nothing is retried.
type APIService struct {
	baseURL    string
	httpClient *http.Client
	tokens     TokenStore
	logger     *log.Logger

	mu             sync.RWMutex
	onUnauthorized func()
}

// NewAPIService creates the gateway. A nil client uses [http.DefaultTransport]; a nil token store keeps the token in memory.
func NewAPIService(baseURL string, client *http.Client, tokens TokenStore) *APIService {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if client == nil {
		client = &http.Client{}
	}
	if tokens == nil {
		tokens = &memoryTokens{}
	}

	authed := *client
	authed.Transport = &bearerTransport{base: client.Transport, tokens: tokens}

	return &APIService{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &authed,
		tokens:     tokens,
		logger:     log.Default(),
	}
}

// BaseURL returns the API root all paths are resolved against.
func (a *APIService) BaseURL() string { return a.baseURL }

// SetLogger replaces the logger used for soft failures.
func (a *APIService) SetLogger(l *log.Logger) {
	if l != nil {
		a.logger = l
	}
}

// Logger returns the logger used for soft failures.
func (a *APIService) Logger() *log.Logger { return a.logger }

// OnUnauthorized registers fn to run after a 401 has cleared the token.
func (a *APIService) OnUnauthorized(fn func()) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.onUnauthorized = fn
}

// SetToken stores the bearer token sent with later requests.
func (a *APIService) SetToken(token string) { a.tokens.SetToken(token) }

// ClearToken forgets the bearer token.
func (a *APIService) ClearToken() { a.tokens.RemoveToken() }

// Token returns the current bearer token, or "".
func (a *APIService) Token() string { return a.tokens.GetToken() }

func (a *APIService) unauthorized() {
	a.tokens.RemoveToken()

	a.mu.RLock()
	fn := a.onUnauthorized
	a.mu.RUnlock()
	if fn != nil {
		fn()
	}
}

// APIResponse represents a raw API response with status and body.
type APIResponse struct {
	StatusCode int
	Headers    http.Header
	Body       []byte
	IsJSON     bool
	JSONData   any
}

// OK reports a 2xx status.
func (r *APIResponse) OK() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// Get performs a GET request to the specified path and returns the raw response.
func (a *APIService) Get(ctx context.Context, path string) (*APIResponse, error) {
	return a.do(ctx, http.MethodGet, path, nil, "")
}

// Post performs a POST request with the given JSON data and returns the raw response.
func (a *APIService) Post(ctx context.Context, path string, data []byte) (*APIResponse, error) {
	return a.do(ctx, http.MethodPost, path, bytes.NewReader(data), "application/json")
}

// PostForm performs a form-encoded POST request.
func (a *APIService) PostForm(ctx context.Context, path string, form url.Values) (*APIResponse, error) {
	return a.do(ctx, http.MethodPost, path, strings.NewReader(form.Encode()), "application/x-www-form-urlencoded")
}

// Put performs a PUT request with the given JSON data.
func (a *APIService) Put(ctx context.Context, path string, data []byte) (*APIResponse, error) {
	return a.do(ctx, http.MethodPut, path, bytes.NewReader(data), "application/json")
}

// Delete performs a DELETE request.
func (a *APIService) Delete(ctx context.Context, path string) (*APIResponse, error) {
	return a.do(ctx, http.MethodDelete, path, nil, "")
}

// do sends the request. The response is returned as-is, except that a 401 also yields an [*APIError].
func (a *APIService) do(ctx context.Context, method, path string, body io.Reader, contentType string) (*APIResponse, error) {
	req, err := http.NewRequestWithContext(ctx, method, a.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := a.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("%w: %v", shared.ErrCancelled, err)
		}
		return nil, fmt.Errorf("%w: %s %s: %v", shared.ErrServiceUnavailable, method, path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	apiResp := &APIResponse{
		StatusCode: resp.StatusCode,
		Headers:    resp.Header,
		Body:       data,
	}

	var jsonData any
	if err := json.Unmarshal(data, &jsonData); err == nil {
		apiResp.IsJSON = true
		apiResp.JSONData = jsonData
	}

	if resp.StatusCode == http.StatusUnauthorized {
		a.unauthorized()
		return apiResp, newAPIError(method, path, apiResp)
	}
	return apiResp, nil
}

// call sends in as JSON (when non-nil), maps non-2xx answers to [*APIError] and decodes the body into out (when non-nil).
func (a *APIService) call(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	contentType := ""
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		body, contentType = bytes.NewReader(data), "application/json"
	}

	resp, err := a.do(ctx, method, path, body, contentType)
	if err != nil {
		return err
	}
	return decode(method, path, resp, out)
}

func (a *APIService) callForm(ctx context.Context, path string, form url.Values, out any) error {
	resp, err := a.PostForm(ctx, path, form)
	if err != nil {
		return err
	}
	return decode(http.MethodPost, path, resp, out)
}

func decode(method, path string, resp *APIResponse, out any) error {
	if !resp.OK() {
		return newAPIError(method, path, resp)
	}
	if out == nil || len(bytes.TrimSpace(resp.Body)) == 0 {
		return nil
	}
	if err := json.Unmarshal(resp.Body, out); err != nil {
		return fmt.Errorf("%w: failed to decode %s %s: %v", shared.ErrAPIRequest, method, path, err)
	}
	return nil
}

// APIError is a non-2xx answer from the API.
type APIError struct {
	StatusCode int
	Method     string
	Path       string
	Message    string // server-provided reason, if any
}

func newAPIError(method, path string, resp *APIResponse) *APIError {
	return &APIError{StatusCode: resp.StatusCode, Method: method, Path: path, Message: serverMessage(resp)}
}

func (e *APIError) Error() string {
	msg := fmt.Sprintf("%s %s returned %d", e.Method, e.Path, e.StatusCode)
	if e.Message != "" {
		msg += ": " + e.Message
	}
	return msg
}

// Unwrap maps the status onto the shared error taxonomy.
func (e *APIError) Unwrap() error {
	switch {
	case e.StatusCode == http.StatusUnauthorized:
		return shared.ErrAuthRequired
	case e.StatusCode == http.StatusNotFound:
		return shared.ErrNotFound
	case e.StatusCode >= 500:
		return shared.ErrServiceUnavailable
	default:
		return shared.ErrAPIRequest
	}
}

// StatusCode returns the HTTP status carried by err, or 0.
func StatusCode(err error) int {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode
	}
	return 0
}

// ErrorMessage returns the server-provided reason carried by err, or fallback.
func ErrorMessage(err error, fallback string) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	return fallback
}

// serverMessage pulls a human readable reason out of an error body.
// FastAPI answers {"detail": "..."}; other handlers use error, message or msg.
func serverMessage(resp *APIResponse) string {
	obj, ok := resp.JSONData.(map[string]any)
	if !ok {
		return ""
	}
	for _, key := range []string{"detail", "error", "message", "msg"} {
		if s, ok := obj[key].(string); ok && s != "" {
			return s
		}
	}
	return ""
}

// bearerTransport attaches the stored token to each outgoing request.
type bearerTransport struct {
	base   http.RoundTripper
	tokens TokenStore
}

func (t *bearerTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	base := t.base
	if base == nil {
		base = http.DefaultTransport
	}

	token := t.tokens.GetToken()
	if token == "" || req.Header.Get("Authorization") != "" {
		return base.RoundTrip(req)
	}

	authed := req.Clone(req.Context())
	(&oauth2.Token{AccessToken: token, TokenType: "Bearer"}).SetAuthHeader(authed)
	return base.RoundTrip(authed)
}

type memoryTokens struct {
	mu    sync.RWMutex
	token string
}

func (m *memoryTokens) GetToken() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.token
}

func (m *memoryTokens) SetToken(token string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.token = token
}

func (m *memoryTokens) RemoveToken() { m.SetToken("") }
