// Package store persists project records. Two backends exist: a GORM-based
// relational store (sqlite for development, postgres/mysql for production)
// and a MongoDB store.
package store

import (
	"context"

	"github.com/paperpilot/paperpilot/types"
)

// ProjectStore is the persistence contract for project records. The
// supervisor is the only writer after creation; handlers read.
type ProjectStore interface {
	// Create inserts a new project record.
	Create(ctx context.Context, project *types.Project) error

	// Get returns the project with the given id, or a NOT_FOUND error.
	Get(ctx context.Context, id string) (*types.Project, error)

	// Update overwrites the stored record with the given one.
	Update(ctx context.Context, project *types.Project) error

	// Delete removes the record. Deleting an unknown id is a NOT_FOUND
	// error.
	Delete(ctx context.Context, id string) error

	// List returns all projects, newest first.
	List(ctx context.Context) ([]*types.Project, error)

	// Close releases the underlying connections.
	Close() error
}

func notFound(id string) error {
	return types.NewErrorf(types.ErrNotFound, "project %q not found", id)
}
