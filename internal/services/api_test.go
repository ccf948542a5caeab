package services

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/desertthunder/cineai/internal/shared"
	tu "github.com/desertthunder/cineai/internal/testing"
)

func TestAPIService(t *testing.T) {
	t.Run("New", func(t *testing.T) {
		t.Run("With Empty BaseURL", func(t *testing.T) {
			srv := NewAPIService("", nil, nil)
			if srv.BaseURL() != DefaultBaseURL {
				t.Errorf("expected default baseURL %s, got %s", DefaultBaseURL, srv.BaseURL())
			}
		})

		t.Run("Trims Trailing Slash", func(t *testing.T) {
			srv := NewAPIService("http://example.com/", nil, nil)
			if srv.BaseURL() != "http://example.com" {
				t.Errorf("unexpected baseURL %s", srv.BaseURL())
			}
		})

		t.Run("Does Not Mutate Caller Client", func(t *testing.T) {
			client := &http.Client{}
			NewAPIService("http://example.com", client, nil)
			if client.Transport != nil {
				t.Error("caller's client transport should be untouched")
			}
		})

		t.Run("Memory Tokens By Default", func(t *testing.T) {
			srv := NewAPIService("", nil, nil)
			srv.SetToken("abc")
			if srv.Token() != "abc" {
				t.Errorf("expected abc, got %q", srv.Token())
			}
			srv.ClearToken()
			if srv.Token() != "" {
				t.Error("expected token to be cleared")
			}
		})
	})

	t.Run("Bearer Header", func(t *testing.T) {
		t.Run("Attached When Token Present", func(t *testing.T) {
			var got string
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				got = r.Header.Get("Authorization")
				tu.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
			}))
			defer server.Close()

			srv := NewAPIService(server.URL, nil, tu.NewTokens("tok-1"))
			if _, err := srv.Get(context.Background(), "/"); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != "Bearer tok-1" {
				t.Errorf("expected bearer header, got %q", got)
			}
		})

		t.Run("Absent Without Token", func(t *testing.T) {
			var got string
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				got = r.Header.Get("Authorization")
				w.WriteHeader(http.StatusOK)
			}))
			defer server.Close()

			srv := NewAPIService(server.URL, nil, nil)
			if _, err := srv.Get(context.Background(), "/"); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != "" {
				t.Errorf("expected no Authorization header, got %q", got)
			}
		})

		t.Run("Reads Token Per Request", func(t *testing.T) {
			var seen []string
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				seen = append(seen, r.Header.Get("Authorization"))
				w.WriteHeader(http.StatusOK)
			}))
			defer server.Close()

			tokens := tu.NewTokens("")
			srv := NewAPIService(server.URL, nil, tokens)
			srv.Get(context.Background(), "/")
			srv.SetToken("later")
			srv.Get(context.Background(), "/")

			if len(seen) != 2 || seen[0] != "" || seen[1] != "Bearer later" {
				t.Errorf("unexpected headers %v", seen)
			}
		})
	})

	t.Run("Unauthorized", func(t *testing.T) {
		server := httptest.NewServer(tu.JSONHandler(http.StatusUnauthorized, map[string]string{"detail": "Could not validate credentials"}))
		defer server.Close()

		tokens := tu.NewTokens("stale")
		srv := NewAPIService(server.URL, nil, tokens)

		called := 0
		srv.OnUnauthorized(func() { called++ })

		resp, err := srv.Get(context.Background(), "/me")
		if !errors.Is(err, shared.ErrAuthRequired) {
			t.Fatalf("expected ErrAuthRequired, got %v", err)
		}
		if resp == nil || resp.StatusCode != http.StatusUnauthorized {
			t.Error("raw response should still be returned on 401")
		}
		if tokens.GetToken() != "" {
			t.Error("token should be cleared on 401")
		}
		if called != 1 {
			t.Errorf("expected hook to run once, ran %d times", called)
		}
		if ErrorMessage(err, "") != "Could not validate credentials" {
			t.Errorf("unexpected message %q", ErrorMessage(err, ""))
		}
	})

	t.Run("Raw Methods", func(t *testing.T) {
		type seen struct {
			method, contentType, body string
		}
		var got seen
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			b, _ := io.ReadAll(r.Body)
			got = seen{r.Method, r.Header.Get("Content-Type"), string(b)}
			w.Write([]byte("plain text"))
		}))
		defer server.Close()

		srv := NewAPIService(server.URL, nil, nil)
		ctx := context.Background()

		resp, err := srv.Post(ctx, "/x", []byte(`{"a":1}`))
		if err != nil {
			t.Fatalf("Post failed: %v", err)
		}
		if got.method != http.MethodPost || got.contentType != "application/json" || got.body != `{"a":1}` {
			t.Errorf("unexpected POST %+v", got)
		}
		if resp.IsJSON {
			t.Error("plain text should not be marked JSON")
		}

		srv.PostForm(ctx, "/x", url.Values{"username": {"alice"}})
		if got.contentType != "application/x-www-form-urlencoded" || got.body != "username=alice" {
			t.Errorf("unexpected form POST %+v", got)
		}

		srv.Put(ctx, "/x", []byte(`{}`))
		if got.method != http.MethodPut {
			t.Errorf("expected PUT, got %s", got.method)
		}

		srv.Delete(ctx, "/x")
		if got.method != http.MethodDelete {
			t.Errorf("expected DELETE, got %s", got.method)
		}
	})

	t.Run("Transport Failure", func(t *testing.T) {
		client := &http.Client{Transport: tu.NewMockRoundTripper(nil, errors.New("connection refused"))}
		srv := NewAPIService("http://example.com", client, nil)

		_, err := srv.Get(context.Background(), "/blends")
		if !errors.Is(err, shared.ErrServiceUnavailable) {
			t.Errorf("expected ErrServiceUnavailable, got %v", err)
		}
	})

	t.Run("Cancelled Context", func(t *testing.T) {
		server := httptest.NewServer(tu.JSONHandler(http.StatusOK, nil))
		defer server.Close()

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, err := NewAPIService(server.URL, nil, nil).Get(ctx, "/")
		if !errors.Is(err, shared.ErrCancelled) {
			t.Errorf("expected ErrCancelled, got %v", err)
		}
	})

	t.Run("Body Read Failure", func(t *testing.T) {
		resp := &http.Response{StatusCode: http.StatusOK, Body: &tu.FCloser{}, Header: http.Header{}}
		client := &http.Client{Transport: tu.NewMockRoundTripper(resp, nil)}

		_, err := NewAPIService("http://example.com", client, nil).Get(context.Background(), "/")
		if err == nil || !strings.Contains(err.Error(), "failed to read response") {
			t.Errorf("expected read error, got %v", err)
		}
	})
}

func TestAPIError(t *testing.T) {
	tt := []struct {
		status int
		want   error
	}{
		{http.StatusUnauthorized, shared.ErrAuthRequired},
		{http.StatusNotFound, shared.ErrNotFound},
		{http.StatusBadGateway, shared.ErrServiceUnavailable},
		{http.StatusBadRequest, shared.ErrAPIRequest},
	}

	for _, tc := range tt {
		t.Run(http.StatusText(tc.status), func(t *testing.T) {
			err := error(&APIError{StatusCode: tc.status, Method: "GET", Path: "/x"})
			if !errors.Is(err, tc.want) {
				t.Errorf("status %d should unwrap to %v", tc.status, tc.want)
			}
			if StatusCode(err) != tc.status {
				t.Errorf("StatusCode() = %d", StatusCode(err))
			}
		})
	}

	t.Run("Message Fallback", func(t *testing.T) {
		if got := ErrorMessage(errors.New("boom"), "Failed to create blend"); got != "Failed to create blend" {
			t.Errorf("unexpected fallback %q", got)
		}
		if got := ErrorMessage(&APIError{Message: "Name taken"}, "x"); got != "Name taken" {
			t.Errorf("unexpected message %q", got)
		}
	})

	t.Run("Server Message Keys", func(t *testing.T) {
		for _, key := range []string{"detail", "error", "message", "msg"} {
			resp := &APIResponse{StatusCode: 400, JSONData: map[string]any{key: "nope"}}
			if got := serverMessage(resp); got != "nope" {
				t.Errorf("key %s: got %q", key, got)
			}
		}
		if got := serverMessage(&APIResponse{JSONData: map[string]any{"detail": []any{"x"}}}); got != "" {
			t.Errorf("non-string detail should be ignored, got %q", got)
		}
	})
}
