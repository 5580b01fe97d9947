package ports

import (
	"context"
	"errors"

	"github.com/shelfmate/core/internal/domain/entities"
)

// ErrKeyNotFound is returned by SnapshotStorage.Get when the key is absent
var ErrKeyNotFound = errors.New("snapshot key not found")

// SnapshotStorage is a durable key/value store holding serialized snapshots.
// It plays the role browser local storage plays for a single-page app: one
// key, one opaque value, overwritten wholesale.
type SnapshotStorage interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Remove(ctx context.Context, key string) error
	Ping(ctx context.Context) error
	Close() error
}

// BookFilter holds the query criteria applied to the record store.
// Nil Genre or Status means "all".
type BookFilter struct {
	Genre    *entities.Genre
	Status   *entities.Status
	Search   string
	Page     int
	PageSize int
}
