// Package kv is the small local key-value store used for reminder
// bookkeeping, revoked tokens and bot chat sessions.
package kv

import (
	"context"
	"errors"
	"time"

	"github.com/vladimiradmaev/eyecare-tracker/internal/config"
)

// ErrNotFound is returned by Get for a missing or expired key
var ErrNotFound = errors.New("key not found")

// Store is a string key-value store with optional per-key expiry
type Store interface {
	Get(ctx context.Context, key string) (string, error)
	// Set stores value under key. A zero ttl means no expiry.
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	// Scan returns every live key starting with prefix, in no particular order
	Scan(ctx context.Context, prefix string) ([]string, error)
	Close() error
}

// Open returns a Redis store when one is configured and a memory store otherwise
func Open(cfg config.RedisConfig) (Store, error) {
	if !cfg.Enabled() {
		return NewMemoryStore(), nil
	}
	return NewRedisStore(cfg)
}
