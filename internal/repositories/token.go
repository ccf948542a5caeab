package repositories

import (
	"time"

	"github.com/charmbracelet/log"
	"github.com/golang-jwt/jwt/v5"
)

// TokenRepository stores the bearer token. Its methods never fail: storage errors are logged and reads fall back to "".
type TokenRepository struct {
	store  *KVStore
	logger *log.Logger
}

// NewTokenRepository creates a TokenRepository. A nil logger uses [log.Default].
func NewTokenRepository(store *KVStore, logger *log.Logger) *TokenRepository {
	if logger == nil {
		logger = log.Default()
	}
	return &TokenRepository{store: store, logger: logger}
}

// GetToken returns the stored token, or "" when none is stored.
func (r *TokenRepository) GetToken() string {
	value, _, err := r.store.Get(TokenKey)
	if err != nil {
		r.logger.Warn("failed to read token", "error", err)
		return ""
	}
	return value
}

// SetToken stores token.
func (r *TokenRepository) SetToken(token string) {
	if err := r.store.Set(TokenKey, token); err != nil {
		r.logger.Warn("failed to store token", "error", err)
	}
}

// RemoveToken deletes the stored token.
func (r *TokenRepository) RemoveToken() {
	if err := r.store.Delete(TokenKey); err != nil {
		r.logger.Warn("failed to remove token", "error", err)
	}
}

// Expired reports whether the stored token is missing or expired.
func (r *TokenRepository) Expired(now time.Time) bool {
	return TokenExpired(r.GetToken(), now)
}

// TokenExpired decodes token without verifying its signature and compares its exp claim against now.
//
// Malformed tokens and tokens without exp are reported as expired. The result is advisory only:
// the server's 401 is authoritative.
func TokenExpired(token string, now time.Time) bool {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return true
	}

	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return true
	}
	return exp.Unix() < now.Unix()
}

// TokenExpiry returns the exp claim of token, if it can be read.
func TokenExpiry(token string) (time.Time, bool) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return time.Time{}, false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}, false
	}
	return exp.Time, true
}
