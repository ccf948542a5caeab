package services

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/desertthunder/cineai/internal/models"
	"github.com/desertthunder/cineai/internal/shared"
	tu "github.com/desertthunder/cineai/internal/testing"
)

type recorded struct {
	Method string
	Path   string
	Body   map[string]any
	Form   string
}

// fakeAPI routes requests to handlers and records what it received.
type fakeAPI struct {
	mu       sync.Mutex
	requests []recorded
	mux      *http.ServeMux
}

func newFakeAPI(t *testing.T) (*fakeAPI, *Clients, *tu.Tokens) {
	t.Helper()
	f := &fakeAPI{mux: http.NewServeMux()}
	server := httptest.NewServer(http.HandlerFunc(f.serve))
	t.Cleanup(server.Close)

	tokens := tu.NewTokens("tok")
	return f, NewClients(shared.APIConfig{BaseURL: server.URL}, nil, tokens), tokens
}

func (f *fakeAPI) serve(w http.ResponseWriter, r *http.Request) {
	raw, _ := io.ReadAll(r.Body)
	rec := recorded{Method: r.Method, Path: r.URL.Path}
	if strings.HasPrefix(r.Header.Get("Content-Type"), "application/json") {
		json.Unmarshal(raw, &rec.Body)
	} else {
		rec.Form = string(raw)
	}

	f.mu.Lock()
	f.requests = append(f.requests, rec)
	f.mu.Unlock()

	f.mux.ServeHTTP(w, r)
}

func (f *fakeAPI) handle(pattern string, status int, body any) {
	f.mux.Handle(pattern, tu.JSONHandler(status, body))
}

func (f *fakeAPI) last() recorded {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.requests) == 0 {
		return recorded{}
	}
	return f.requests[len(f.requests)-1]
}

func (f *fakeAPI) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.requests)
}

func TestAuthClient(t *testing.T) {
	ctx := context.Background()

	t.Run("Signup Stores Token", func(t *testing.T) {
		api, c, tokens := newFakeAPI(t)
		api.handle("POST /signup", http.StatusOK, map[string]any{
			"message": "ok", "access_token": "new-token", "user": map[string]any{"id": 1, "username": "alice"},
		})

		resp, err := c.Auth.Signup(ctx, models.Credentials{Username: "alice", Password: "pw"})
		if err != nil {
			t.Fatalf("Signup failed: %v", err)
		}
		if resp.User == nil || resp.User.ID != "1" {
			t.Errorf("unexpected user %+v", resp.User)
		}
		if tokens.GetToken() != "new-token" {
			t.Errorf("expected token to be stored, got %q", tokens.GetToken())
		}
		if api.last().Body["username"] != "alice" {
			t.Errorf("expected JSON body, got %+v", api.last())
		}
	})

	t.Run("Signup Server Error", func(t *testing.T) {
		api, c, _ := newFakeAPI(t)
		api.handle("POST /signup", http.StatusBadRequest, map[string]string{"error": "Username already exists"})

		_, err := c.Auth.Signup(ctx, models.Credentials{Username: "alice", Password: "pw"})
		if ErrorMessage(err, "") != "Username already exists" {
			t.Errorf("expected server message, got %v", err)
		}
	})

	t.Run("Login Is Form Encoded", func(t *testing.T) {
		api, c, tokens := newFakeAPI(t)
		api.handle("POST /login", http.StatusOK, map[string]any{"access_token": "login-token", "token_type": "bearer"})

		if _, err := c.Auth.Login(ctx, models.Credentials{Username: "alice", Password: "p w"}); err != nil {
			t.Fatalf("Login failed: %v", err)
		}
		if got := api.last().Form; got != "password=p+w&username=alice" {
			t.Errorf("unexpected form body %q", got)
		}
		if tokens.GetToken() != "login-token" {
			t.Error("expected login token to be stored")
		}
	})

	t.Run("Login Fallback Message", func(t *testing.T) {
		api, c, _ := newFakeAPI(t)
		api.handle("POST /login", http.StatusBadRequest, map[string]any{})

		_, err := c.Auth.Login(ctx, models.Credentials{Username: "alice", Password: "pw"})
		if err == nil || !strings.HasPrefix(err.Error(), "Login failed") {
			t.Errorf("expected generic login failure, got %v", err)
		}
	})

	t.Run("Login Validation", func(t *testing.T) {
		api, c, _ := newFakeAPI(t)
		_, err := c.Auth.Login(ctx, models.Credentials{Username: "alice"})
		if !errors.Is(err, shared.ErrValidation) {
			t.Errorf("expected ErrValidation, got %v", err)
		}
		if api.count() != 0 {
			t.Error("validation failure should not hit the network")
		}
	})

	t.Run("Missing Access Token", func(t *testing.T) {
		api, c, _ := newFakeAPI(t)
		api.handle("POST /login", http.StatusOK, map[string]any{"message": "ok"})

		if _, err := c.Auth.Login(ctx, models.Credentials{Username: "a", Password: "b"}); !errors.Is(err, shared.ErrAPIRequest) {
			t.Errorf("expected ErrAPIRequest, got %v", err)
		}
	})

	t.Run("CurrentUser Shapes", func(t *testing.T) {
		for name, body := range map[string]any{
			"wrapped": map[string]any{"user": map[string]any{"id": 3, "username": "carol"}},
			"bare":    map[string]any{"id": 3, "username": "carol"},
		} {
			t.Run(name, func(t *testing.T) {
				api, c, _ := newFakeAPI(t)
				api.handle("GET /me", http.StatusOK, body)

				user, err := c.Auth.CurrentUser(ctx)
				if err != nil {
					t.Fatalf("CurrentUser failed: %v", err)
				}
				if user.Username != "carol" || user.ID != "3" {
					t.Errorf("unexpected user %+v", user)
				}
			})
		}
	})

	t.Run("CurrentUser Without Token", func(t *testing.T) {
		api, c, tokens := newFakeAPI(t)
		tokens.RemoveToken()

		if _, err := c.Auth.CurrentUser(ctx); !errors.Is(err, shared.ErrAuthRequired) {
			t.Errorf("expected ErrAuthRequired, got %v", err)
		}
		if api.count() != 0 {
			t.Error("no request should be made without a token")
		}
	})

	t.Run("Logout And Health", func(t *testing.T) {
		api, c, tokens := newFakeAPI(t)
		api.handle("GET /{$}", http.StatusOK, map[string]string{"status": "ok"})

		if err := c.Auth.CheckHealth(ctx); err != nil {
			t.Errorf("CheckHealth failed: %v", err)
		}
		c.Auth.Logout()
		if tokens.GetToken() != "" {
			t.Error("Logout should clear the token")
		}
	})

	t.Run("Health Failure", func(t *testing.T) {
		api, c, _ := newFakeAPI(t)
		api.handle("GET /{$}", http.StatusServiceUnavailable, nil)

		if err := c.Auth.CheckHealth(ctx); !errors.Is(err, shared.ErrServiceUnavailable) {
			t.Errorf("expected ErrServiceUnavailable, got %v", err)
		}
	})
}

func TestBlendClient(t *testing.T) {
	ctx := context.Background()
	session := map[string]any{
		"blend_code": "AB12", "name": "Movie Night", "users": []string{"alice"},
		"user_tags": map[string]string{}, "recommendations": []any{}, "overall_match_score": "0%",
	}

	t.Run("CreateBlend", func(t *testing.T) {
		api, c, _ := newFakeAPI(t)
		api.handle("POST /blend/create", http.StatusOK, session)

		got, err := c.Blends.CreateBlend(ctx, "  Movie Night ")
		if err != nil {
			t.Fatalf("CreateBlend failed: %v", err)
		}
		if got.Code != "AB12" || len(got.Users) != 1 {
			t.Errorf("unexpected session %+v", got)
		}
		if api.last().Body["name"] != "Movie Night" {
			t.Errorf("name should be trimmed, got %v", api.last().Body["name"])
		}
	})

	t.Run("JoinBlend NotFound", func(t *testing.T) {
		api, c, _ := newFakeAPI(t)
		api.handle("POST /blend/join", http.StatusNotFound, map[string]string{"detail": "Blend not found"})

		_, err := c.Blends.JoinBlend(ctx, " zzzz ")
		if !errors.Is(err, shared.ErrNotFound) || StatusCode(err) != http.StatusNotFound {
			t.Errorf("expected 404 NotFound, got %v", err)
		}
		if api.last().Body["code"] != "zzzz" {
			t.Errorf("code should be trimmed, got %v", api.last().Body["code"])
		}
	})

	t.Run("InviteToBlend", func(t *testing.T) {
		api, c, _ := newFakeAPI(t)
		api.handle("POST /blend/invite", http.StatusOK, map[string]string{"msg": "invited"})

		resp, err := c.Blends.InviteToBlend(ctx, "AB12", "bob")
		if err != nil {
			t.Fatalf("InviteToBlend failed: %v", err)
		}
		if resp.Text() != "invited" {
			t.Errorf("unexpected message %q", resp.Text())
		}
		body := api.last().Body
		if body["blend_code"] != "AB12" || body["user_id"] != "bob" {
			t.Errorf("unexpected body %v", body)
		}
	})

	t.Run("ListBlends", func(t *testing.T) {
		api, c, _ := newFakeAPI(t)
		api.handle("GET /blends", http.StatusOK, []map[string]string{{"code": "AB12", "name": "Movie Night"}})

		list, err := c.Blends.ListBlends(ctx)
		if err != nil || len(list) != 1 || list[0].Code != "AB12" {
			t.Errorf("unexpected list %v err=%v", list, err)
		}
	})

	t.Run("ListBlends Null Body", func(t *testing.T) {
		api, c, _ := newFakeAPI(t)
		api.handle("GET /blends", http.StatusOK, nil)

		list, err := c.Blends.ListBlends(ctx)
		if err != nil || list == nil || len(list) != 0 {
			t.Errorf("expected empty list, got %v err=%v", list, err)
		}
	})

	t.Run("GetBlend And Delete", func(t *testing.T) {
		api, c, _ := newFakeAPI(t)
		api.handle("GET /blend/{code}", http.StatusOK, session)
		api.mux.HandleFunc("DELETE /blend/{code}", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNoContent)
		})

		got, err := c.Blends.GetBlend(ctx, "AB12")
		if err != nil || got.Name != "Movie Night" {
			t.Fatalf("GetBlend: %+v err=%v", got, err)
		}
		if api.last().Path != "/blend/AB12" {
			t.Errorf("unexpected path %s", api.last().Path)
		}

		if err := c.Blends.DeleteBlend(ctx, "AB12"); err != nil {
			t.Errorf("DeleteBlend failed: %v", err)
		}
		if api.last().Method != http.MethodDelete {
			t.Errorf("expected DELETE, got %s", api.last().Method)
		}
	})
}

func TestHistoryClient(t *testing.T) {
	ctx := context.Background()

	t.Run("AddToHistory Generates ID", func(t *testing.T) {
		api, c, _ := newFakeAPI(t)
		api.handle("POST /history/add", http.StatusOK, map[string]string{"message": "ok"})

		if err := c.History.AddToHistory(ctx, models.HistoryEntry{MovieName: " Heat "}); err != nil {
			t.Fatalf("AddToHistory failed: %v", err)
		}
		body := api.last().Body
		if body["movie_name"] != "Heat" {
			t.Errorf("expected trimmed name, got %v", body["movie_name"])
		}
		if id, _ := body["movie_id"].(string); !strings.HasPrefix(id, "manual_") {
			t.Errorf("expected manual id, got %v", body["movie_id"])
		}
	})

	t.Run("AddToHistory Failure", func(t *testing.T) {
		api, c, _ := newFakeAPI(t)
		api.handle("POST /history/add", http.StatusInternalServerError, nil)

		err := c.History.AddToHistory(ctx, models.HistoryEntry{MovieID: "1", MovieName: "Heat"})
		if !errors.Is(err, shared.ErrHistoryAdd) {
			t.Errorf("expected ErrHistoryAdd, got %v", err)
		}
	})

	t.Run("GetHistory Soft Fails", func(t *testing.T) {
		api, c, _ := newFakeAPI(t)
		api.handle("GET /history", http.StatusInternalServerError, nil)

		items := c.History.GetHistory(ctx)
		if items == nil || len(items) != 0 {
			t.Errorf("expected empty history, got %#v", items)
		}
		if _, err := c.History.FetchHistory(ctx); err == nil {
			t.Error("FetchHistory should report the error")
		}
	})

	t.Run("GetHistory", func(t *testing.T) {
		api, c, _ := newFakeAPI(t)
		api.handle("GET /history", http.StatusOK, []map[string]any{{"movie_id": 5, "movie_name": "Up", "watched_at": "2024-01-01T10:00:00"}})

		items := c.History.GetHistory(ctx)
		if len(items) != 1 || items[0].MovieID != "5" {
			t.Errorf("unexpected history %+v", items)
		}
	})
}

func TestRecommendationClient(t *testing.T) {
	ctx := context.Background()

	t.Run("Mood Body", func(t *testing.T) {
		api, c, _ := newFakeAPI(t)
		api.handle("POST /recommend", http.StatusOK, map[string]any{
			"recommendations": []map[string]any{{"id": 1, "title": "Up", "score": 0.7}},
		})

		recs := c.Recommendations.GetMoodRecommendations(ctx, "happy", 0, []string{"Heat"})
		if len(recs) != 1 || recs[0].Title != "Up" {
			t.Fatalf("unexpected recommendations %+v", recs)
		}
		body := api.last().Body
		if body["mood"] != "happy" || body["top_n"] != float64(DefaultTopN) {
			t.Errorf("unexpected body %v", body)
		}
		if hist, _ := body["user_history"].([]any); len(hist) != 1 {
			t.Errorf("expected user_history, got %v", body["user_history"])
		}
	})

	t.Run("Mood Omits Empty History", func(t *testing.T) {
		api, c, _ := newFakeAPI(t)
		api.handle("POST /recommend", http.StatusOK, map[string]any{"recommendations": []any{}})

		c.Recommendations.GetMoodRecommendations(ctx, "sad", 5, nil)
		if _, ok := api.last().Body["user_history"]; ok {
			t.Error("user_history should be omitted when empty")
		}
	})

	t.Run("Mood Soft Fails", func(t *testing.T) {
		api, c, _ := newFakeAPI(t)
		api.handle("POST /recommend", http.StatusInternalServerError, nil)

		if recs := c.Recommendations.GetMoodRecommendations(ctx, "happy", 5, nil); recs == nil || len(recs) != 0 {
			t.Errorf("expected empty slice, got %#v", recs)
		}
	})

	t.Run("History Based", func(t *testing.T) {
		api, c, _ := newFakeAPI(t)
		api.handle("POST /recommend/history", http.StatusOK, map[string]any{
			"recommendations": []map[string]any{{"title": "Alien", "match_score": 0.9}}, "overall_match_score": "90%",
		})

		got := c.Recommendations.GetHistoryRecommendations(ctx, 10)
		if got.OverallMatchScore != "90%" || len(got.Recommendations) != 1 || got.Recommendations[0].Score != 0.9 {
			t.Errorf("unexpected result %+v", got)
		}
		if api.last().Body["top_n"] != float64(10) {
			t.Errorf("unexpected body %v", api.last().Body)
		}
	})

	t.Run("History Based Soft Fails", func(t *testing.T) {
		api, c, _ := newFakeAPI(t)
		api.handle("POST /recommend/history", http.StatusBadGateway, nil)

		got := c.Recommendations.GetHistoryRecommendations(ctx, 10)
		if got.OverallMatchScore != "0%" || got.Recommendations == nil || len(got.Recommendations) != 0 {
			t.Errorf("expected {[], 0%%}, got %+v", got)
		}
	})
}

func TestWatchlistClient(t *testing.T) {
	ctx := context.Background()

	t.Run("Create And List", func(t *testing.T) {
		api, c, _ := newFakeAPI(t)
		api.handle("POST /watchlists", http.StatusOK, map[string]any{"id": 9, "name": "Weekend"})
		api.handle("GET /watchlists", http.StatusOK, []map[string]any{{"id": 9, "name": "Weekend"}})

		wl, err := c.Watchlists.CreateWatchlist(ctx, "Weekend")
		if err != nil || wl.ID != "9" {
			t.Fatalf("CreateWatchlist: %+v err=%v", wl, err)
		}
		if lists := c.Watchlists.GetWatchlists(ctx); len(lists) != 1 {
			t.Errorf("unexpected lists %+v", lists)
		}
	})

	t.Run("Create Requires Name", func(t *testing.T) {
		_, c, _ := newFakeAPI(t)
		if _, err := c.Watchlists.CreateWatchlist(ctx, "  "); !errors.Is(err, shared.ErrValidation) {
			t.Errorf("expected ErrValidation, got %v", err)
		}
	})

	t.Run("Soft Failing Reads", func(t *testing.T) {
		api, c, _ := newFakeAPI(t)
		api.handle("GET /watchlists", http.StatusInternalServerError, nil)
		api.handle("GET /watchlists/{id}", http.StatusNotFound, nil)

		if lists := c.Watchlists.GetWatchlists(ctx); lists == nil || len(lists) != 0 {
			t.Errorf("expected empty lists, got %#v", lists)
		}
		if wl := c.Watchlists.GetWatchlist(ctx, "1"); wl != nil {
			t.Errorf("expected nil watchlist, got %+v", wl)
		}
	})

	t.Run("Movies", func(t *testing.T) {
		api, c, _ := newFakeAPI(t)
		api.handle("POST /watchlists/{id}/movies", http.StatusOK, nil)
		api.handle("DELETE /watchlists/{id}/movies/{movie}", http.StatusOK, nil)
		api.handle("DELETE /watchlists/{id}", http.StatusOK, nil)

		if err := c.Watchlists.AddMovieToWatchlist(ctx, "9", models.WatchlistMovieRequest{MovieName: "Heat"}); err != nil {
			t.Fatalf("AddMovieToWatchlist failed: %v", err)
		}
		if api.last().Path != "/watchlists/9/movies" {
			t.Errorf("unexpected path %s", api.last().Path)
		}

		if err := c.Watchlists.RemoveMovieFromWatchlist(ctx, "9", "42"); err != nil {
			t.Fatalf("RemoveMovieFromWatchlist failed: %v", err)
		}
		if api.last().Path != "/watchlists/9/movies/42" {
			t.Errorf("unexpected path %s", api.last().Path)
		}

		if err := c.Watchlists.DeleteWatchlist(ctx, "9"); err != nil {
			t.Fatalf("DeleteWatchlist failed: %v", err)
		}
	})

	t.Run("MarkMovieAsWatched", func(t *testing.T) {
		api, c, _ := newFakeAPI(t)
		api.handle("POST /history/add", http.StatusOK, nil)
		api.handle("DELETE /watchlists/{id}/movies/{movie}", http.StatusOK, nil)

		err := c.Watchlists.MarkMovieAsWatched(ctx, models.HistoryEntry{MovieID: "42", MovieName: "Heat"}, "9")
		if err != nil {
			t.Fatalf("MarkMovieAsWatched failed: %v", err)
		}
		if api.count() != 2 || api.last().Path != "/watchlists/9/movies/42" {
			t.Errorf("expected history add then removal, last=%+v count=%d", api.last(), api.count())
		}
	})

	t.Run("MarkMovieAsWatched Stops On History Failure", func(t *testing.T) {
		api, c, _ := newFakeAPI(t)
		api.handle("POST /history/add", http.StatusInternalServerError, nil)

		err := c.Watchlists.MarkMovieAsWatched(ctx, models.HistoryEntry{MovieID: "42", MovieName: "Heat"}, "9")
		if !errors.Is(err, shared.ErrHistoryAdd) {
			t.Errorf("expected ErrHistoryAdd, got %v", err)
		}
		if api.count() != 1 {
			t.Errorf("watchlist removal should not run, saw %d requests", api.count())
		}
	})
}
