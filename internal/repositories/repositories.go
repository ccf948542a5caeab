package repositories

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
)

// Keys used in the kv_store table.
const (
	TokenKey           = "token"
	BlendCacheKey      = "user_blends"
	RecentlyWatchedKey = "recently_watched"
)

// KVStore is a string key/value store backed by the kv_store table.
type KVStore struct {
	db *sql.DB
	mu sync.Mutex
}

// NewKVStore creates a KVStore on db. A nil db yields an inert store.
func NewKVStore(db *sql.DB) *KVStore {
	return &KVStore{db: db}
}

// Available reports whether values are actually persisted.
func (s *KVStore) Available() bool {
	return s != nil && s.db != nil
}

// Get returns the value stored under key and whether it exists.
func (s *KVStore) Get(key string) (string, bool, error) {
	if !s.Available() {
		return "", false, nil
	}

	var value string
	err := s.db.QueryRow("SELECT value FROM kv_store WHERE key = ?", key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to read %s: %w", key, err)
	}
	return value, true, nil
}

// Set stores value under key, replacing any previous value.
func (s *KVStore) Set(key, value string) error {
	if !s.Available() {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return set(s.db, key, value)
}

// Delete removes key. Deleting a missing key is not an error.
func (s *KVStore) Delete(key string) error {
	if !s.Available() {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.db.Exec("DELETE FROM kv_store WHERE key = ?", key); err != nil {
		return fmt.Errorf("failed to delete %s: %w", key, err)
	}
	return nil
}

// Update runs a read-modify-write of key inside one transaction.
//
// fn receives the current value (and whether it existed) and returns the value to store.
// Returning keep=false deletes the key instead.
func (s *KVStore) Update(key string, fn func(current string, ok bool) (next string, keep bool, err error)) error {
	if !s.Available() {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var current string
	ok := true
	err = tx.QueryRow("SELECT value FROM kv_store WHERE key = ?", key).Scan(&current)
	if errors.Is(err, sql.ErrNoRows) {
		ok = false
	} else if err != nil {
		return fmt.Errorf("failed to read %s: %w", key, err)
	}

	next, keep, err := fn(current, ok)
	if err != nil {
		return err
	}

	if keep {
		err = set(tx, key, next)
	} else {
		_, err = tx.Exec("DELETE FROM kv_store WHERE key = ?", key)
	}
	if err != nil {
		return fmt.Errorf("failed to write %s: %w", key, err)
	}

	return tx.Commit()
}

type execer interface {
	Exec(query string, args ...any) (sql.Result, error)
}

func set(db execer, key, value string) error {
	_, err := db.Exec(`
		INSERT INTO kv_store (key, value, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = CURRENT_TIMESTAMP
	`, key, value)
	if err != nil {
		return fmt.Errorf("failed to write %s: %w", key, err)
	}
	return nil
}

// decodeList parses a stored JSON array. Missing or corrupt values decode to an empty list.
func decodeList[T any](value string, ok bool) []T {
	if !ok || value == "" {
		return []T{}
	}
	var items []T
	if err := json.Unmarshal([]byte(value), &items); err != nil || items == nil {
		return []T{}
	}
	return items
}

func encodeList[T any](items []T) (string, error) {
	if items == nil {
		items = []T{}
	}
	data, err := json.Marshal(items)
	if err != nil {
		return "", fmt.Errorf("failed to encode list: %w", err)
	}
	return string(data), nil
}
