package domain

import (
	"context"
	"time"
)

// TokenCache is the key/value storage behind the token manager.
// Values are opaque bytes; every entry carries an absolute expiry and is
// invisible to readers once it has passed.
//
// Implementations must be safe for concurrent use.
type TokenCache interface {
	// Get returns the stored value and true, or (nil, false) when the key is
	// missing, expired, or the backend could not be reached. Backend failures
	// are logged by the implementation and never surfaced to the caller.
	Get(ctx context.Context, key string) ([]byte, bool)

	// Put stores value under key until now+ttl, replacing any prior entry.
	Put(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
}

// RefreshLocker coordinates token acquisition across processes that share a
// TokenCache. It is optional; a nil locker means in-process coordination only.
type RefreshLocker interface {
	// AcquireLock sets key to owner if the key is free. It reports whether
	// this caller now holds the lock.
	AcquireLock(ctx context.Context, key, owner string, ttl time.Duration) (bool, error)

	// ReleaseLock deletes key only if it is still held by owner.
	ReleaseLock(ctx context.Context, key, owner string) (bool, error)
}
