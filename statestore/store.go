package statestore

import (
	"context"
	"os"

	"github.com/hupe1980/quantgo/record"
)

// ErrNotFound is returned when a snapshot does not exist.
//
// Implementations should return an error that satisfies
// `errors.Is(err, ErrNotFound)`. The default maps to `os.ErrNotExist`.
var ErrNotFound = os.ErrNotExist

// Store is an abstraction for persisting named record snapshots.
type Store interface {
	// Save writes the record under the given snapshot name, replacing any
	// previous snapshot of that name.
	Save(ctx context.Context, name string, rec *record.Record) error

	// Load reads the named snapshot. It returns ErrNotFound when the
	// snapshot does not exist.
	Load(ctx context.Context, name string) (*record.Record, error)

	// Delete removes the named snapshot. Deleting a missing snapshot is not
	// an error.
	Delete(ctx context.Context, name string) error

	// List returns all snapshot names matching the prefix, sorted.
	List(ctx context.Context, prefix string) ([]string, error)
}
