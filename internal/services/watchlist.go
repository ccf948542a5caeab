package services

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/desertthunder/cineai/internal/models"
	"github.com/desertthunder/cineai/internal/shared"
)

// WatchlistClient wraps the /watchlists endpoints.
type WatchlistClient struct {
	api     *APIService
	history *HistoryClient
}

// NewWatchlistClient creates a WatchlistClient on api.
func NewWatchlistClient(api *APIService) *WatchlistClient {
	return &WatchlistClient{api: api, history: NewHistoryClient(api)}
}

func watchlistPath(id string, rest ...string) string {
	parts := []string{"/watchlists", url.PathEscape(strings.TrimSpace(id))}
	for _, r := range rest {
		parts = append(parts, url.PathEscape(r))
	}
	return strings.Join(parts, "/")
}

// CreateWatchlist creates an empty watchlist.
func (c *WatchlistClient) CreateWatchlist(ctx context.Context, name string) (*models.Watchlist, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, &shared.ValidationError{Field: "Name", Message: "Please enter a watchlist name."}
	}

	var wl models.Watchlist
	if err := c.api.call(ctx, http.MethodPost, "/watchlists", map[string]string{"name": name}, &wl); err != nil {
		return nil, err
	}
	return &wl, nil
}

// FetchWatchlists lists the caller's watchlists.
func (c *WatchlistClient) FetchWatchlists(ctx context.Context) ([]models.Watchlist, error) {
	var lists []models.Watchlist
	if err := c.api.call(ctx, http.MethodGet, "/watchlists", nil, &lists); err != nil {
		return nil, err
	}
	if lists == nil {
		lists = []models.Watchlist{}
	}
	return lists, nil
}

// GetWatchlists is [WatchlistClient.FetchWatchlists] with failures logged and read as no watchlists.
func (c *WatchlistClient) GetWatchlists(ctx context.Context) []models.Watchlist {
	lists, err := c.FetchWatchlists(ctx)
	if err != nil {
		c.api.logger.Warn("failed to fetch watchlists", "error", err)
		return []models.Watchlist{}
	}
	return lists
}

// FetchWatchlist returns one watchlist with its movies.
func (c *WatchlistClient) FetchWatchlist(ctx context.Context, id string) (*models.Watchlist, error) {
	var wl models.Watchlist
	if err := c.api.call(ctx, http.MethodGet, watchlistPath(id), nil, &wl); err != nil {
		return nil, err
	}
	return &wl, nil
}

// GetWatchlist is [WatchlistClient.FetchWatchlist] with failures logged and read as nil.
func (c *WatchlistClient) GetWatchlist(ctx context.Context, id string) *models.Watchlist {
	wl, err := c.FetchWatchlist(ctx, id)
	if err != nil {
		c.api.logger.Warn("failed to fetch watchlist", "id", id, "error", err)
		return nil
	}
	return wl
}

// AddMovieToWatchlist saves a movie on a watchlist. Movies without an id get a manual one.
func (c *WatchlistClient) AddMovieToWatchlist(ctx context.Context, id string, movie models.WatchlistMovieRequest) error {
	movie.MovieName = strings.TrimSpace(movie.MovieName)
	if err := shared.ValidateStruct(movie); err != nil {
		return err
	}
	if movie.MovieID == "" {
		movie.MovieID = shared.ManualMovieID()
	}
	return c.api.call(ctx, http.MethodPost, watchlistPath(id, "movies"), movie, nil)
}

// RemoveMovieFromWatchlist drops a movie from a watchlist.
func (c *WatchlistClient) RemoveMovieFromWatchlist(ctx context.Context, id, movieID string) error {
	return c.api.call(ctx, http.MethodDelete, watchlistPath(id, "movies", movieID), nil, nil)
}

// DeleteWatchlist removes a watchlist.
func (c *WatchlistClient) DeleteWatchlist(ctx context.Context, id string) error {
	return c.api.call(ctx, http.MethodDelete, watchlistPath(id), nil, nil)
}

// MarkMovieAsWatched records the movie in the watch history, then removes it from watchlistID when one is given.
func (c *WatchlistClient) MarkMovieAsWatched(ctx context.Context, movie models.HistoryEntry, watchlistID string) error {
	if movie.MovieID == "" {
		movie.MovieID = shared.ManualMovieID()
	}
	if err := c.history.AddToHistory(ctx, movie); err != nil {
		return err
	}
	if watchlistID == "" {
		return nil
	}
	if err := c.RemoveMovieFromWatchlist(ctx, watchlistID, movie.MovieID); err != nil {
		return fmt.Errorf("added to history but could not remove from watchlist: %w", err)
	}
	return nil
}
