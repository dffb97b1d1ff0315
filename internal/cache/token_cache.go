package cache

import (
	"fmt"
	"time"

	"github.com/vmihailenco/msgpack/v5"
)

// TokenTTL bounds staleness independently of explicit invalidation.
const TokenTTL = 24 * time.Hour

// TokenCache is a cache-aside store of a user's device tokens. An empty
// token list is cached as a real entry, so users with no devices do not
// cause a system-of-record lookup on every send. The cache is never mutated
// in place: any token change invalidates the whole entry and the next read
// repopulates it.
type TokenCache struct {
	redis *RedisCache
}

// NewTokenCache creates a new token cache
func NewTokenCache(redis *RedisCache) *TokenCache {
	return &TokenCache{redis: redis}
}

func tokenKey(userID uint) string {
	return fmt.Sprintf("tokens:%d", userID)
}

// GetTokens retrieves cached tokens for a user. The second return value is
// false only on a true cache miss; a cached empty list returns (empty, true).
func (tc *TokenCache) GetTokens(userID uint) ([]string, bool) {
	if tc == nil || tc.redis == nil {
		return nil, false
	}
	data, err := tc.redis.Get(tokenKey(userID))
	if err != nil || data == nil {
		return nil, false
	}

	var tokens []string
	if err := msgpack.Unmarshal(data, &tokens); err != nil {
		return nil, false
	}
	if tokens == nil {
		tokens = []string{}
	}

	return tokens, true
}

// SetTokens caches a user's tokens, including the known-empty case.
func (tc *TokenCache) SetTokens(userID uint, tokens []string) error {
	if tc == nil || tc.redis == nil {
		return nil
	}
	if tokens == nil {
		tokens = []string{}
	}
	data, err := msgpack.Marshal(tokens)
	if err != nil {
		return err
	}

	return tc.redis.Set(tokenKey(userID), data, TokenTTL)
}

// Invalidate removes a user's cached tokens entirely.
func (tc *TokenCache) Invalidate(userID uint) error {
	if tc == nil || tc.redis == nil {
		return nil
	}
	return tc.redis.Delete(tokenKey(userID))
}
