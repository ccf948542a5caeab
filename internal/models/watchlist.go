package models

import "encoding/json"

// Watchlist is a named list of movies to watch.
type Watchlist struct {
	ID     string           `json:"id"`
	Name   string           `json:"name"`
	Movies []WatchlistMovie `json:"movies,omitempty"`
}

func (w *Watchlist) UnmarshalJSON(data []byte) error {
	type plain Watchlist
	var raw struct {
		plain
		ID json.RawMessage `json:"id"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*w = Watchlist(raw.plain)
	w.ID = rawID(raw.ID)
	return nil
}

// WatchlistMovie is a movie saved on a watchlist.
type WatchlistMovie struct {
	ID         string `json:"id"`
	MovieID    string `json:"movie_id"`
	MovieName  string `json:"movie_name"`
	PosterPath string `json:"poster_path,omitempty"`
}

func (m *WatchlistMovie) UnmarshalJSON(data []byte) error {
	var raw struct {
		ID         json.RawMessage `json:"id"`
		MovieID    json.RawMessage `json:"movie_id"`
		MovieName  string          `json:"movie_name"`
		PosterPath string          `json:"poster_path"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	m.ID, m.MovieID = rawID(raw.ID), rawID(raw.MovieID)
	m.MovieName, m.PosterPath = raw.MovieName, raw.PosterPath
	return nil
}

// WatchlistMovieRequest is the body of POST /watchlists/{id}/movies.
type WatchlistMovieRequest struct {
	MovieID   string `json:"movie_id"`
	MovieName string `json:"movie_name" validate:"required" msg:"Please enter a movie title."`
}
