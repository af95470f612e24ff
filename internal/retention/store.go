package retention

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"flowpulse/internal/config"
	"flowpulse/pkg/contracts/domain"
)

// EvictionHook is told about every dataset the store removes, whether evicted or deleted
type EvictionHook func(ctx context.Context, ownerID string, id domain.DatasetID, evicted bool)

// Options configures a Store
type Options struct {
	Capacity int
	Logger   *slog.Logger
	OnRemove EvictionHook
	Now      func() time.Time
}

// Store enforces the per-owner retention cap on top of a Backend
type Store struct {
	backend  Backend
	capacity int
	locks    *ownerLocks
	logger   *slog.Logger
	onRemove EvictionHook
	now      func() time.Time
}

// NewStore wraps a backend. A non-positive capacity selects the default of 5.
func NewStore(backend Backend, opts Options) *Store {
	if opts.Capacity <= 0 {
		opts.Capacity = config.DefaultRetentionCapacity
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Store{
		backend:  backend,
		capacity: opts.Capacity,
		locks:    newOwnerLocks(),
		logger:   opts.Logger.With(slog.String("component", "retention_store")),
		onRemove: opts.OnRemove,
		now:      opts.Now,
	}
}

// Capacity returns the maximum number of datasets kept per owner
func (s *Store) Capacity() int {
	return s.capacity
}

// SetRemoveHook replaces the removal hook. It must be called before the store is shared.
func (s *Store) SetRemoveHook(hook EvictionHook) {
	s.onRemove = hook
}

// Put stores a new dataset for the owner, evicting the oldest ones first
// when the owner is already at capacity. It returns the new dataset id.
func (s *Store) Put(ctx context.Context, ownerID, name string, records []domain.Equipment) (domain.DatasetID, error) {
	unlock := s.locks.lock(ownerID)
	defer unlock()

	existing, err := s.backend.List(ctx, ownerID)
	if err != nil {
		return 0, fmt.Errorf("failed to list datasets for eviction: %w", err)
	}

	victims := oldest(existing, len(existing)-s.capacity+1)

	ds := &domain.Dataset{
		OwnerID:   ownerID,
		Name:      name,
		CreatedAt: s.now().UTC(),
		Equipment: append([]domain.Equipment(nil), records...),
	}

	id, err := s.backend.Commit(ctx, victims, ds)
	if err != nil {
		return 0, fmt.Errorf("failed to commit dataset: %w", err)
	}

	for _, v := range victims {
		s.logger.Info("Dataset evicted",
			slog.String("owner_id", ownerID),
			slog.Int64("dataset_id", int64(v)))
		if s.onRemove != nil {
			s.onRemove(ctx, ownerID, v, true)
		}
	}

	s.logger.Debug("Dataset stored",
		slog.String("owner_id", ownerID),
		slog.Int64("dataset_id", int64(id)),
		slog.Int("rows", len(records)))
	return id, nil
}

// List returns the owner's datasets, most recent first
func (s *Store) List(ctx context.Context, ownerID string) ([]domain.DatasetInfo, error) {
	infos, err := s.backend.List(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list datasets: %w", err)
	}
	sortRecentFirst(infos)
	return infos, nil
}

// Get returns a copy of the dataset if it exists and belongs to the owner
func (s *Store) Get(ctx context.Context, id domain.DatasetID, ownerID string) (*domain.Dataset, error) {
	ds, err := s.backend.Get(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to load dataset %d: %w", id, err)
	}
	if ds.OwnerID != ownerID {
		return nil, ErrNotFound
	}
	return ds.Clone(), nil
}

// Delete removes one of the owner's datasets
func (s *Store) Delete(ctx context.Context, id domain.DatasetID, ownerID string) error {
	unlock := s.locks.lock(ownerID)
	defer unlock()

	if _, err := s.Get(ctx, id, ownerID); err != nil {
		return err
	}
	if err := s.backend.Delete(ctx, id); err != nil {
		if errors.Is(err, ErrNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("failed to delete dataset %d: %w", id, err)
	}

	s.logger.Info("Dataset deleted",
		slog.String("owner_id", ownerID),
		slog.Int64("dataset_id", int64(id)))
	if s.onRemove != nil {
		s.onRemove(ctx, ownerID, id, false)
	}
	return nil
}

// pinger is implemented by backends that hold a connection
type pinger interface {
	Ping(ctx context.Context) error
}

// Ping reports whether the backend is reachable
func (s *Store) Ping(ctx context.Context) error {
	if p, ok := s.backend.(pinger); ok {
		return p.Ping(ctx)
	}
	return nil
}

// Close releases the backend
func (s *Store) Close() error {
	return s.backend.Close()
}

// oldest picks the n oldest datasets: creation time ascending, lowest id first on ties
func oldest(infos []domain.DatasetInfo, n int) []domain.DatasetID {
	if n <= 0 {
		return nil
	}
	sorted := append([]domain.DatasetInfo(nil), infos...)
	sort.Slice(sorted, func(i, j int) bool {
		if !sorted[i].CreatedAt.Equal(sorted[j].CreatedAt) {
			return sorted[i].CreatedAt.Before(sorted[j].CreatedAt)
		}
		return sorted[i].ID < sorted[j].ID
	})
	if n > len(sorted) {
		n = len(sorted)
	}
	ids := make([]domain.DatasetID, 0, n)
	for _, info := range sorted[:n] {
		ids = append(ids, info.ID)
	}
	return ids
}

func sortRecentFirst(infos []domain.DatasetInfo) {
	sort.SliceStable(infos, func(i, j int) bool {
		if !infos[i].CreatedAt.Equal(infos[j].CreatedAt) {
			return infos[i].CreatedAt.After(infos[j].CreatedAt)
		}
		return infos[i].ID > infos[j].ID
	})
}
