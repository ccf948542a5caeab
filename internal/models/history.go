package models

import (
	"encoding/json"
	"time"
)

// WatchHistoryItem is a movie the server recorded as watched.
type WatchHistoryItem struct {
	MovieID   string    `json:"movie_id"`
	MovieName string    `json:"movie_name"`
	WatchedAt time.Time `json:"watched_at"`
}

// UnmarshalJSON tolerates numeric movie ids and timestamps without a zone.
func (w *WatchHistoryItem) UnmarshalJSON(data []byte) error {
	var raw struct {
		MovieID   json.RawMessage `json:"movie_id"`
		MovieName string          `json:"movie_name"`
		WatchedAt string          `json:"watched_at"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	w.MovieID = rawID(raw.MovieID)
	w.MovieName = raw.MovieName
	w.WatchedAt = parseTimestamp(raw.WatchedAt)
	return nil
}

var timestampLayouts = []string{time.RFC3339Nano, "2006-01-02T15:04:05.999999", "2006-01-02 15:04:05"}

func parseTimestamp(s string) time.Time {
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}

// HistoryEntry is the body of POST /history/add.
type HistoryEntry struct {
	MovieID   string `json:"movie_id"`
	MovieName string `json:"movie_name" validate:"required" msg:"Please enter a movie title."`
}

// RecentMovie is an entry in the local recently-watched cache.
type RecentMovie struct {
	MovieID   string    `json:"movie_id"`
	MovieName string    `json:"movie_name"`
	AddedAt   time.Time `json:"added_at"`
}
