package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/desertthunder/allezgo/internal/shared"
)

// ErrNotFound is returned by [Store.Get] when no value exists for the key.
var ErrNotFound = errors.New("key not found")

// Store is a string key/value storage adapter.
type Store interface {
	// Get returns the value for key, or [ErrNotFound].
	Get(ctx context.Context, key string) (string, error)

	// Set writes value under key, replacing any prior value.
	Set(ctx context.Context, key, value string) error

	// Remove deletes key. Removing a missing key is not an error.
	Remove(ctx context.Context, key string) error
}

var (
	_ Store = (*MemoryStore)(nil)
	_ Store = (*KVRepository)(nil)
)

// NewStore builds the [Store] selected by cfg.Driver.
//
// The returned database is nil for the memory driver; callers close it when set.
func NewStore(cfg shared.StorageConfig) (Store, *sql.DB, error) {
	switch cfg.Driver {
	case "memory":
		return NewMemoryStore(), nil, nil
	case "sqlite", "":
		db, err := shared.OpenStorageDatabase(cfg)
		if err != nil {
			return nil, nil, fmt.Errorf("%w: %v", shared.ErrStorage, err)
		}
		return NewKVRepository(db), db, nil
	default:
		return nil, nil, fmt.Errorf("%w: unknown storage driver %q", shared.ErrInvalidConfig, cfg.Driver)
	}
}
