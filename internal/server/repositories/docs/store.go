// Package docs implements the key-value document store underneath the
// persistence gateway. Every collection (sessions root, catalog, access
// list, user stats, audit log) is persisted as one whole JSON document;
// backends only need atomic load-current / replace semantics.
//
// Backends: PostgreSQL (pgx), SQLite (modernc), a flat-file directory, and
// an in-memory store for tests. The Retrying wrapper adds bounded
// backoff-retries at this boundary.
package docs

import (
	"context"
	"errors"
)

// Document keys, one per persisted collection.
const (
	KeySessions = "sessions"
	KeyCatalog  = "catalog"
	KeyAccess   = "access"
	KeyStats    = "user_stats"
	KeyAudit    = "audit"
)

// ErrNotFound is returned by Load when no document exists under the key.
// It is a normal first-run condition, not a storage failure, and is never
// retried.
var ErrNotFound = errors.New("document not found")

// Store is a whole-document key-value store.
type Store interface {
	// Load returns the current document stored under key, or ErrNotFound.
	Load(ctx context.Context, key string) ([]byte, error)

	// Save atomically replaces the document stored under key.
	Save(ctx context.Context, key string, data []byte) error

	// Close releases backend resources.
	Close() error
}
