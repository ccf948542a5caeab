package server

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/charmbracelet/log"

	"github.com/desertthunder/cineai/internal/models"
	"github.com/desertthunder/cineai/internal/services"
	"github.com/desertthunder/cineai/internal/shared"
	th "github.com/desertthunder/cineai/internal/testing"
)

type fixture struct {
	stub *Stub
	srv  *httptest.Server
}

func newFixture(t *testing.T, opts ...StubOption) *fixture {
	t.Helper()
	codes := []string{"AB12CD", "EF34GH", "IJ56KL", "MN78OP"}
	var mu sync.Mutex
	next := func() string {
		mu.Lock()
		defer mu.Unlock()
		c := codes[0]
		codes = append(codes[1:], c+"X")
		return c
	}

	opts = append([]StubOption{WithLogger(log.New(&strings.Builder{})), WithCodes(next)}, opts...)
	stub := NewStub(opts...)
	srv := httptest.NewServer(stub)
	t.Cleanup(srv.Close)
	return &fixture{stub: stub, srv: srv}
}

// client signs up username and returns clients holding its token.
func (f *fixture) client(t *testing.T, username string) *services.Clients {
	t.Helper()
	c := services.NewClients(shared.APIConfig{BaseURL: f.srv.URL}, f.srv.Client(), th.NewTokens(""))
	if _, err := c.Auth.Signup(context.Background(), models.Credentials{Username: username, Password: "pw-" + username}); err != nil {
		t.Fatalf("signup %s: %v", username, err)
	}
	return c
}

func (f *fixture) anonymous() *services.Clients {
	return services.NewClients(shared.APIConfig{BaseURL: f.srv.URL}, f.srv.Client(), th.NewTokens(""))
}

func TestAuthEndpoints(t *testing.T) {
	ctx := context.Background()

	t.Run("Health", func(t *testing.T) {
		f := newFixture(t)
		if err := f.anonymous().Auth.CheckHealth(ctx); err != nil {
			t.Errorf("health check failed: %v", err)
		}
	})

	t.Run("Signup And Me", func(t *testing.T) {
		f := newFixture(t)
		c := f.client(t, "alice")

		user, err := c.Auth.CurrentUser(ctx)
		if err != nil {
			t.Fatalf("CurrentUser failed: %v", err)
		}
		if user.Username != "alice" || user.ID != "1" {
			t.Errorf("unexpected user %+v", user)
		}
	})

	t.Run("Duplicate Signup", func(t *testing.T) {
		f := newFixture(t)
		f.client(t, "alice")

		_, err := f.anonymous().Auth.Signup(ctx, models.Credentials{Username: "alice", Password: "x"})
		if services.ErrorMessage(err, "") != "Username already registered" {
			t.Errorf("unexpected error %v", err)
		}
	})

	t.Run("Login", func(t *testing.T) {
		f := newFixture(t)
		f.client(t, "alice")
		c := f.anonymous()

		if _, err := c.Auth.Login(ctx, models.Credentials{Username: "alice", Password: "wrong"}); services.ErrorMessage(err, "") != "Incorrect username or password" {
			t.Errorf("expected bad credentials, got %v", err)
		}
		resp, err := c.Auth.Login(ctx, models.Credentials{Username: "alice", Password: "pw-alice"})
		if err != nil || resp.AccessToken == "" || c.API.Token() != resp.AccessToken {
			t.Fatalf("login failed: %v", err)
		}
	})

	t.Run("Missing Token", func(t *testing.T) {
		f := newFixture(t)

		resp, err := http.Get(f.srv.URL + "/blends")
		if err != nil {
			t.Fatalf("request failed: %v", err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusUnauthorized {
			t.Errorf("expected 401, got %d", resp.StatusCode)
		}
	})

	t.Run("Expired Token", func(t *testing.T) {
		now := time.Now()
		var mu sync.Mutex
		clock := func() time.Time { mu.Lock(); defer mu.Unlock(); return now }
		f := newFixture(t, WithClock(clock), WithTokenTTL(time.Minute))
		c := f.client(t, "alice")

		mu.Lock()
		now = now.Add(2 * time.Minute)
		mu.Unlock()

		_, err := c.Blends.ListBlends(ctx)
		if !errors.Is(err, shared.ErrAuthRequired) {
			t.Errorf("expected ErrAuthRequired, got %v", err)
		}
		if c.API.Token() != "" {
			t.Error("client should drop the rejected token")
		}
	})

	t.Run("Forged Token", func(t *testing.T) {
		f := newFixture(t)
		f.client(t, "alice")
		other := NewStub(WithLogger(log.New(&strings.Builder{})))
		other.Register("alice", "pw")
		forged, _ := other.Token("alice")

		c := f.anonymous()
		c.API.SetToken(forged)
		if _, err := c.Auth.CurrentUser(ctx); services.StatusCode(err) != http.StatusUnauthorized {
			t.Errorf("expected 401, got %v", err)
		}
	})

	t.Run("Register Seeds Account", func(t *testing.T) {
		f := newFixture(t)
		token, err := f.stub.Register("seed", "pw")
		if err != nil {
			t.Fatalf("Register failed: %v", err)
		}
		if _, err := f.stub.Register("seed", "pw"); err == nil {
			t.Error("duplicate Register should fail")
		}

		c := f.anonymous()
		c.API.SetToken(token)
		if user, err := c.Auth.CurrentUser(ctx); err != nil || user.Username != "seed" {
			t.Errorf("unexpected %+v %v", user, err)
		}
		if _, err := f.stub.Token("nobody"); !errors.Is(err, shared.ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})
}

func TestBlendEndpoints(t *testing.T) {
	ctx := context.Background()

	t.Run("Lifecycle", func(t *testing.T) {
		f := newFixture(t)
		alice := f.client(t, "alice")
		bob := f.client(t, "bob")

		created, err := alice.Blends.CreateBlend(ctx, "Movie Night")
		if err != nil {
			t.Fatalf("CreateBlend failed: %v", err)
		}
		if created.Code != "AB12CD" || created.Name != "Movie Night" || len(created.Users) != 1 {
			t.Fatalf("unexpected session %+v", created)
		}
		if created.OverallMatchScore != "0%" || len(created.Recommendations) != 0 {
			t.Errorf("single member blend should have no recommendations, got %+v", created)
		}

		for _, title := range []string{"Inception", "The Matrix"} {
			alice.History.AddToHistory(ctx, models.HistoryEntry{MovieName: title})
		}
		bob.History.AddToHistory(ctx, models.HistoryEntry{MovieName: "Interstellar"})

		joined, err := bob.Blends.JoinBlend(ctx, "ab12cd")
		if err != nil {
			t.Fatalf("JoinBlend failed: %v", err)
		}
		if len(joined.Users) != 2 || joined.Users[1] != "bob" {
			t.Errorf("unexpected members %v", joined.Users)
		}

		session, err := alice.Blends.GetBlend(ctx, "AB12CD")
		if err != nil {
			t.Fatalf("GetBlend failed: %v", err)
		}
		if len(session.Recommendations) == 0 {
			t.Fatal("two member blend should have recommendations")
		}
		for _, r := range session.Recommendations {
			if r.Title == "Inception" || r.Title == "Interstellar" {
				t.Errorf("watched title %q recommended", r.Title)
			}
		}
		if session.UserTags["alice"] == "" || session.OverallMatchScore == "0%" {
			t.Errorf("expected tags and a match score, got %+v", session)
		}

		again, _ := alice.Blends.GetBlend(ctx, "AB12CD")
		if again.Recommendations[0].Title != session.Recommendations[0].Title || again.Recommendations[0].MatchScore != session.Recommendations[0].MatchScore {
			t.Error("recommendations should be deterministic")
		}

		list, err := bob.Blends.ListBlends(ctx)
		if err != nil || len(list) != 1 || list[0] != (models.BlendSummary{Code: "AB12CD", Name: "Movie Night"}) {
			t.Errorf("unexpected list %v (%v)", list, err)
		}

		if err := alice.Blends.DeleteBlend(ctx, "AB12CD"); err != nil {
			t.Fatalf("DeleteBlend failed: %v", err)
		}
		if _, err := bob.Blends.GetBlend(ctx, "AB12CD"); !errors.Is(err, shared.ErrNotFound) {
			t.Errorf("expected ErrNotFound after delete, got %v", err)
		}
	})

	t.Run("Join Unknown Code", func(t *testing.T) {
		f := newFixture(t)
		c := f.client(t, "alice")

		_, err := c.Blends.JoinBlend(ctx, "ZZZZ")
		if services.StatusCode(err) != http.StatusNotFound {
			t.Errorf("expected 404, got %v", err)
		}
	})

	t.Run("Join Is Idempotent", func(t *testing.T) {
		f := newFixture(t)
		alice := f.client(t, "alice")
		alice.Blends.CreateBlend(ctx, "Solo")

		session, err := alice.Blends.JoinBlend(ctx, "AB12CD")
		if err != nil || len(session.Users) != 1 {
			t.Errorf("rejoining should not duplicate, got %+v %v", session, err)
		}
	})

	t.Run("Non Member", func(t *testing.T) {
		f := newFixture(t)
		alice := f.client(t, "alice")
		eve := f.client(t, "eve")
		alice.Blends.CreateBlend(ctx, "Private")

		if _, err := eve.Blends.GetBlend(ctx, "AB12CD"); services.StatusCode(err) != http.StatusForbidden {
			t.Errorf("expected 403, got %v", err)
		}
		if err := eve.Blends.DeleteBlend(ctx, "AB12CD"); services.StatusCode(err) != http.StatusForbidden {
			t.Errorf("expected 403, got %v", err)
		}
	})

	t.Run("Invite", func(t *testing.T) {
		f := newFixture(t)
		alice := f.client(t, "alice")
		carol := f.client(t, "carol")
		alice.Blends.CreateBlend(ctx, "Friends")

		resp, err := alice.Blends.InviteToBlend(ctx, "AB12CD", "carol")
		if err != nil || resp.Text() != "Invited carol to blend AB12CD" {
			t.Fatalf("unexpected invite result %+v %v", resp, err)
		}
		if list, _ := carol.Blends.ListBlends(ctx); len(list) != 1 {
			t.Errorf("invitee should see the blend, got %v", list)
		}

		if _, err := alice.Blends.InviteToBlend(ctx, "AB12CD", "nobody"); services.ErrorMessage(err, "") != "User not found" {
			t.Errorf("expected user not found, got %v", err)
		}
		if _, err := alice.Blends.InviteToBlend(ctx, "AB12CD", "2"); err != nil {
			t.Errorf("numeric ids should resolve, got %v", err)
		}
	})

	t.Run("Code Collision Retries", func(t *testing.T) {
		f := newFixture(t, WithCodes(func() string { return "SAME01" }))
		c := f.client(t, "alice")

		if _, err := c.Blends.CreateBlend(ctx, "first"); err != nil {
			t.Fatalf("first create failed: %v", err)
		}
		_, err := c.Blends.CreateBlend(ctx, "second")
		if services.StatusCode(err) != http.StatusServiceUnavailable {
			t.Errorf("expected 503 when codes run out, got %v", err)
		}
	})

	t.Run("Create Requires Name", func(t *testing.T) {
		f := newFixture(t)
		c := f.client(t, "alice")

		if _, err := c.Blends.CreateBlend(ctx, "  "); services.StatusCode(err) != http.StatusBadRequest {
			t.Errorf("expected 400, got %v", err)
		}
	})
}

func TestHistoryAndRecommendationEndpoints(t *testing.T) {
	ctx := context.Background()

	t.Run("History Newest First", func(t *testing.T) {
		f := newFixture(t)
		c := f.client(t, "alice")
		c.History.AddToHistory(ctx, models.HistoryEntry{MovieName: "Heat"})
		c.History.AddToHistory(ctx, models.HistoryEntry{MovieID: "348", MovieName: "Alien"})

		items, err := c.History.FetchHistory(ctx)
		if err != nil || len(items) != 2 {
			t.Fatalf("unexpected history %v (%v)", items, err)
		}
		if items[0].MovieID != "348" || !strings.HasPrefix(items[1].MovieID, "manual_") {
			t.Errorf("unexpected order or ids %+v", items)
		}
		if items[0].WatchedAt.IsZero() {
			t.Error("expected a watched_at timestamp")
		}
	})

	t.Run("Mood", func(t *testing.T) {
		f := newFixture(t)
		c := f.client(t, "alice")

		recs, err := c.Recommendations.FetchMoodRecommendations(ctx, "comedy", 3, []string{"superbad"})
		if err != nil {
			t.Fatalf("FetchMoodRecommendations failed: %v", err)
		}
		if len(recs) != 3 {
			t.Fatalf("expected top 3, got %d", len(recs))
		}
		if recs[0].Title != "The Hangover" || recs[0].Score != 1 {
			t.Errorf("expected the only remaining pure comedy first, got %+v", recs[0])
		}
		for _, r := range recs {
			if r.Title == "Superbad" {
				t.Error("watched title recommended")
			}
		}
	})

	t.Run("Unknown Mood", func(t *testing.T) {
		f := newFixture(t)
		c := f.client(t, "alice")

		if _, err := c.Recommendations.FetchMoodRecommendations(ctx, "bored", 0, nil); services.StatusCode(err) != http.StatusBadRequest {
			t.Errorf("expected 400, got %v", err)
		}
		if recs := c.Recommendations.GetMoodRecommendations(ctx, "bored", 0, nil); len(recs) != 0 {
			t.Errorf("soft variant should be empty, got %v", recs)
		}
	})

	t.Run("From History", func(t *testing.T) {
		f := newFixture(t)
		c := f.client(t, "alice")

		empty, err := c.Recommendations.FetchHistoryRecommendations(ctx, 5)
		if err != nil || len(empty.Recommendations) != 0 || empty.OverallMatchScore != "0%" {
			t.Errorf("empty history should give {[], 0%%}, got %+v %v", empty, err)
		}

		c.History.AddToHistory(ctx, models.HistoryEntry{MovieName: "Se7en"})
		got, err := c.Recommendations.FetchHistoryRecommendations(ctx, 5)
		if err != nil || len(got.Recommendations) == 0 || got.OverallMatchScore == "0%" {
			t.Errorf("unexpected %+v %v", got, err)
		}
	})
}

func TestWatchlistEndpoints(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	c := f.client(t, "alice")

	wl, err := c.Watchlists.CreateWatchlist(ctx, "Weekend")
	if err != nil {
		t.Fatalf("CreateWatchlist failed: %v", err)
	}

	if err := c.Watchlists.AddMovieToWatchlist(ctx, wl.ID, models.WatchlistMovieRequest{MovieID: "14160", MovieName: "Up"}); err != nil {
		t.Fatalf("AddMovieToWatchlist failed: %v", err)
	}
	got := c.Watchlists.GetWatchlist(ctx, wl.ID)
	if got == nil || len(got.Movies) != 1 || got.Movies[0].MovieName != "Up" {
		t.Fatalf("unexpected watchlist %+v", got)
	}

	if err := c.Watchlists.MarkMovieAsWatched(ctx, models.HistoryEntry{MovieID: "14160", MovieName: "Up"}, wl.ID); err != nil {
		t.Fatalf("MarkMovieAsWatched failed: %v", err)
	}
	if got := c.Watchlists.GetWatchlist(ctx, wl.ID); len(got.Movies) != 0 {
		t.Errorf("watched movie should leave the watchlist, got %+v", got.Movies)
	}
	if items := c.History.GetHistory(ctx); len(items) != 1 || items[0].MovieName != "Up" {
		t.Errorf("watched movie should be in history, got %+v", items)
	}

	other := f.client(t, "bob")
	if seen := other.Watchlists.GetWatchlist(ctx, wl.ID); seen != nil {
		t.Error("watchlists are private to their owner")
	}

	if err := c.Watchlists.DeleteWatchlist(ctx, wl.ID); err != nil {
		t.Fatalf("DeleteWatchlist failed: %v", err)
	}
	if lists := c.Watchlists.GetWatchlists(ctx); len(lists) != 0 {
		t.Errorf("expected no watchlists, got %v", lists)
	}
}

func TestRouter(t *testing.T) {
	t.Run("Middleware Order", func(t *testing.T) {
		var order []string
		mark := func(name string) Middleware {
			return func(next http.Handler) http.Handler {
				return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
					order = append(order, name)
					next.ServeHTTP(w, r)
				})
			}
		}

		r := NewBasicRouter()
		r.Use(mark("outer"), mark("inner"))
		r.Handle(http.MethodGet, "/x", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			order = append(order, "handler")
		}), mark("route"))

		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/x", nil))

		want := "outer,inner,route,handler"
		if got := strings.Join(order, ","); got != want {
			t.Errorf("expected %s, got %s", want, got)
		}
	})

	t.Run("Method Not Allowed", func(t *testing.T) {
		r := NewBasicRouter()
		r.Handle(http.MethodGet, "/x", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/x", nil))
		if rec.Code != http.StatusMethodNotAllowed {
			t.Errorf("expected 405, got %d", rec.Code)
		}
	})

	t.Run("Recoverer", func(t *testing.T) {
		r := NewBasicRouter()
		r.Use(Recoverer(log.New(&strings.Builder{})))
		r.Handle(http.MethodGet, "/boom", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { panic("boom") }))

		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/boom", nil))
		if rec.Code != http.StatusInternalServerError {
			t.Errorf("expected 500, got %d", rec.Code)
		}
	})
}

func TestCatalog(t *testing.T) {
	t.Run("Similarity", func(t *testing.T) {
		same := map[string]int{"Drama": 1}
		if got := similarity([]map[string]int{same, same}); got != 100 {
			t.Errorf("identical tastes should be 100, got %d", got)
		}
		if got := similarity([]map[string]int{{"Drama": 1}, {"Comedy": 2}}); got != 0 {
			t.Errorf("disjoint tastes should be 0, got %d", got)
		}
		if got := similarity([]map[string]int{{}, {}}); got != 0 {
			t.Errorf("empty tastes should be 0, got %d", got)
		}
	})

	t.Run("Waiting Blend", func(t *testing.T) {
		recs, score := blendRecommendations([][]string{{"Inception"}}, 10)
		if len(recs) != 0 || score != "0%" {
			t.Errorf("expected no recommendations, got %v %s", recs, score)
		}
	})

	t.Run("User Tag", func(t *testing.T) {
		if got := userTag([]string{"Superbad", "The Hangover"}); got != "Comedy Enthusiast" {
			t.Errorf("unexpected tag %q", got)
		}
		if got := userTag([]string{"Unknown Film"}); got != "" {
			t.Errorf("unknown titles should give no tag, got %q", got)
		}
	})
}
