// Package metadata is a small string key/value store backed by the local
// SQLite database. The CLI keeps its persisted session here.
package metadata

import (
	"context"
)

type Repository interface {
	// Get returns ("", false, nil) when the key is absent.
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, keys ...string) error
}

// Store is a Repository that can group several writes into one transaction.
type Store interface {
	Repository
	Update(ctx context.Context, fn func(ctx context.Context, r Repository) error) error
}
