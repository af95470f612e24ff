package retention

import (
	"context"
	"errors"

	"flowpulse/pkg/contracts/domain"
)

// ErrNotFound is returned for unknown ids and for datasets owned by someone else
var ErrNotFound = errors.New("dataset not found")

// Backend persists datasets. Implementations must apply Commit atomically:
// either every victim is removed and the dataset inserted, or nothing changes.
type Backend interface {
	// Commit deletes the victims with their equipment, inserts ds and returns its new id
	Commit(ctx context.Context, victims []domain.DatasetID, ds *domain.Dataset) (domain.DatasetID, error)

	// List returns the owner's datasets, most recent first (created desc, id desc)
	List(ctx context.Context, ownerID string) ([]domain.DatasetInfo, error)

	// Get returns a complete dataset or ErrNotFound
	Get(ctx context.Context, id domain.DatasetID) (*domain.Dataset, error)

	// Delete removes a dataset with its equipment or returns ErrNotFound
	Delete(ctx context.Context, id domain.DatasetID) error

	Close() error
}
