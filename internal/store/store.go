// Package store provides a small key-value abstraction with per-key
// TTLs. It replaces the ad hoc process-wide maps earlier iterations
// used for OTP codes and match suggestions: components receive a
// Store and never touch module-level state. Two implementations
// exist, Redis-backed for deployments and in-memory for development
// and tests.
package store

import (
	"context"
	"time"
)

// Store is a key-value cache with optional expiry. A ttl of zero
// means the entry does not expire. Get returns found=false for both
// missing and expired keys. Writers for the same key race and the
// last write wins; no implementation provides transactions.
type Store interface {
	Get(ctx context.Context, key string) (value []byte, found bool, err error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}
