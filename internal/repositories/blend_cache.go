package repositories

import (
	"github.com/desertthunder/cineai/internal/models"
)

// BlendCache keeps {code, name} summaries of blends created or joined locally, most recent first.
type BlendCache struct {
	store *KVStore
}

// NewBlendCache creates a BlendCache on store.
func NewBlendCache(store *KVStore) *BlendCache {
	return &BlendCache{store: store}
}

// ReadAll returns the cached summaries. Missing or corrupt data reads as an empty list.
func (c *BlendCache) ReadAll() []models.BlendSummary {
	value, ok, err := c.store.Get(BlendCacheKey)
	if err != nil {
		return []models.BlendSummary{}
	}
	return decodeList[models.BlendSummary](value, ok)
}

// Upsert replaces any entry with the same code and puts summary first.
func (c *BlendCache) Upsert(summary models.BlendSummary) error {
	return c.store.Update(BlendCacheKey, func(current string, ok bool) (string, bool, error) {
		items := decodeList[models.BlendSummary](current, ok)
		next := make([]models.BlendSummary, 0, len(items)+1)
		next = append(next, summary)
		for _, item := range items {
			if item.Code != summary.Code {
				next = append(next, item)
			}
		}
		value, err := encodeList(next)
		return value, true, err
	})
}

// Remove drops the entry for code.
func (c *BlendCache) Remove(code string) error {
	return c.RemoveAll([]string{code})
}

// RemoveAll drops every entry whose code is listed.
func (c *BlendCache) RemoveAll(codes []string) error {
	if len(codes) == 0 {
		return nil
	}
	drop := make(map[string]struct{}, len(codes))
	for _, code := range codes {
		drop[code] = struct{}{}
	}

	return c.store.Update(BlendCacheKey, func(current string, ok bool) (string, bool, error) {
		items := decodeList[models.BlendSummary](current, ok)
		next := items[:0]
		for _, item := range items {
			if _, gone := drop[item.Code]; !gone {
				next = append(next, item)
			}
		}
		value, err := encodeList(next)
		return value, true, err
	})
}
