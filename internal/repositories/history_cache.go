package repositories

import (
	"time"

	"github.com/desertthunder/cineai/internal/models"
	"github.com/desertthunder/cineai/internal/shared"
)

// DefaultRecentLimit caps the recently watched list.
const DefaultRecentLimit = 20

// RecentlyWatched is a local most-recent-first list of titles the user entered, de-duplicated by title.
type RecentlyWatched struct {
	store *KVStore
	limit int
	now   func() time.Time
}

// NewRecentlyWatched creates the cache. A limit <= 0 uses [DefaultRecentLimit].
func NewRecentlyWatched(store *KVStore, limit int) *RecentlyWatched {
	if limit <= 0 {
		limit = DefaultRecentLimit
	}
	return &RecentlyWatched{store: store, limit: limit, now: time.Now}
}

// Add puts movie at the front, dropping any entry with the same title and evicting the oldest past the limit.
func (r *RecentlyWatched) Add(movie models.RecentMovie) error {
	if movie.AddedAt.IsZero() {
		movie.AddedAt = r.now()
	}
	key := shared.NormalizeTitle(movie.MovieName)

	return r.store.Update(RecentlyWatchedKey, func(current string, ok bool) (string, bool, error) {
		items := decodeList[models.RecentMovie](current, ok)
		next := make([]models.RecentMovie, 0, min(len(items)+1, r.limit))
		next = append(next, movie)
		for _, item := range items {
			if len(next) == r.limit {
				break
			}
			if shared.NormalizeTitle(item.MovieName) != key {
				next = append(next, item)
			}
		}
		value, err := encodeList(next)
		return value, true, err
	})
}

// List returns the cached movies, most recent first.
func (r *RecentlyWatched) List() []models.RecentMovie {
	value, ok, err := r.store.Get(RecentlyWatchedKey)
	if err != nil {
		return []models.RecentMovie{}
	}
	return decodeList[models.RecentMovie](value, ok)
}

// Titles returns the cached movie names, most recent first.
func (r *RecentlyWatched) Titles() []string {
	items := r.List()
	titles := make([]string, 0, len(items))
	for _, item := range items {
		titles = append(titles, item.MovieName)
	}
	return titles
}

// Clear empties the cache.
func (r *RecentlyWatched) Clear() error {
	return r.store.Delete(RecentlyWatchedKey)
}
