package services

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/desertthunder/cineai/internal/models"
	"github.com/desertthunder/cineai/internal/shared"
)

// HistoryClient wraps the watch history endpoints.
type HistoryClient struct {
	api *APIService
}

// NewHistoryClient creates a HistoryClient on api.
func NewHistoryClient(api *APIService) *HistoryClient {
	return &HistoryClient{api: api}
}

// AddToHistory records a watched movie. Every failure wraps [shared.ErrHistoryAdd].
func (c *HistoryClient) AddToHistory(ctx context.Context, entry models.HistoryEntry) error {
	entry.MovieName = strings.TrimSpace(entry.MovieName)
	if entry.MovieID == "" {
		entry.MovieID = shared.ManualMovieID()
	}

	if err := c.api.call(ctx, http.MethodPost, "/history/add", entry, nil); err != nil {
		return fmt.Errorf("%w: %w", shared.ErrHistoryAdd, err)
	}
	return nil
}

// FetchHistory returns the caller's watch history or the error that prevented it.
func (c *HistoryClient) FetchHistory(ctx context.Context) ([]models.WatchHistoryItem, error) {
	var items []models.WatchHistoryItem
	if err := c.api.call(ctx, http.MethodGet, "/history", nil, &items); err != nil {
		return nil, err
	}
	if items == nil {
		items = []models.WatchHistoryItem{}
	}
	return items, nil
}

// GetHistory is [HistoryClient.FetchHistory] with failures logged and read as an empty history.
func (c *HistoryClient) GetHistory(ctx context.Context) []models.WatchHistoryItem {
	items, err := c.FetchHistory(ctx)
	if err != nil {
		c.api.logger.Warn("failed to fetch watch history", "error", err)
		return []models.WatchHistoryItem{}
	}
	return items
}
