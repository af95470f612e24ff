package retention

import (
	"context"
	"sync"

	"flowpulse/pkg/contracts/domain"
)

// MemoryBackend is an in-process arena keyed by dataset id
type MemoryBackend struct {
	mu       sync.RWMutex
	nextID   domain.DatasetID
	datasets map[domain.DatasetID]*domain.Dataset
}

// NewMemoryBackend creates an empty in-memory backend
func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{
		datasets: make(map[domain.DatasetID]*domain.Dataset),
	}
}

// Commit removes the victims and inserts ds under a single write lock
func (b *MemoryBackend) Commit(ctx context.Context, victims []domain.DatasetID, ds *domain.Dataset) (domain.DatasetID, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for _, id := range victims {
		delete(b.datasets, id)
	}

	b.nextID++
	stored := ds.Clone()
	stored.ID = b.nextID
	b.datasets[stored.ID] = stored
	return stored.ID, nil
}

// List returns the owner's datasets, most recent first
func (b *MemoryBackend) List(ctx context.Context, ownerID string) ([]domain.DatasetInfo, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	result := make([]domain.DatasetInfo, 0)
	for _, ds := range b.datasets {
		if ds.OwnerID == ownerID {
			result = append(result, ds.Info())
		}
	}
	sortRecentFirst(result)
	return result, nil
}

// Get returns a copy of the dataset
func (b *MemoryBackend) Get(ctx context.Context, id domain.DatasetID) (*domain.Dataset, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	ds, ok := b.datasets[id]
	if !ok {
		return nil, ErrNotFound
	}
	return ds.Clone(), nil
}

// Delete removes a dataset
func (b *MemoryBackend) Delete(ctx context.Context, id domain.DatasetID) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, ok := b.datasets[id]; !ok {
		return ErrNotFound
	}
	delete(b.datasets, id)
	return nil
}

// Close is a no-op for the memory backend
func (b *MemoryBackend) Close() error {
	return nil
}

// Len returns the number of stored datasets across all owners
func (b *MemoryBackend) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.datasets)
}
