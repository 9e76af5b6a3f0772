package catalog

import (
	"context"
	"sync"
	"time"

	"github.com/bits-and-blooms/bloom/v3"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"
)

const (
	bloomCapacity = 1_000_000
	bloomFPR      = 0.001
)

var _ Repository = (*Store)(nil)

// Store wraps a Repository with a bloom filter over known product ids, so
// lookups for ids that definitely do not exist skip the database entirely.
// The filter admits false positives only, so a positive test still goes to
// the repository.
type Store struct {
	repo Repository

	mu     sync.RWMutex
	filter *bloom.BloomFilter
}

// NewStore creates a Store over repo. Call Warm before serving traffic.
func NewStore(repo Repository) *Store {
	return &Store{
		repo:   repo,
		filter: bloom.NewWithEstimates(bloomCapacity, bloomFPR),
	}
}

// Warm rebuilds the filter from the ids currently in the repository.
func (s *Store) Warm(ctx context.Context) error {
	products, err := s.repo.List(ctx)
	if err != nil {
		return err
	}

	filter := bloom.NewWithEstimates(bloomCapacity, bloomFPR)
	for _, p := range products {
		filter.AddString(p.ID)
	}

	s.mu.Lock()
	s.filter = filter
	s.mu.Unlock()

	zctx.From(ctx).Info("Product id filter warmed", zap.Int("products", len(products)))
	return nil
}

// RunRefresh rebuilds the filter at the given interval until ctx is
// cancelled. A failed refresh keeps the previous filter.
func (s *Store) RunRefresh(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := s.Warm(ctx); err != nil {
				zctx.From(ctx).Warn("Product id filter refresh failed", zap.Error(err))
			}
		}
	}
}

func (s *Store) mightContain(id string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.filter.TestString(id)
}

func (s *Store) List(ctx context.Context) ([]Product, error) {
	return s.repo.List(ctx)
}

// GetByID short-circuits ids the filter rules out.
func (s *Store) GetByID(ctx context.Context, id string) (*Product, error) {
	if !s.mightContain(id) {
		return nil, ErrNotFound
	}
	return s.repo.GetByID(ctx, id)
}

// GetByIDs queries only the ids the filter does not rule out.
func (s *Store) GetByIDs(ctx context.Context, ids []string) ([]Product, error) {
	candidates := make([]string, 0, len(ids))
	for _, id := range ids {
		if s.mightContain(id) {
			candidates = append(candidates, id)
		}
	}
	if len(candidates) == 0 {
		return nil, nil
	}
	return s.repo.GetByIDs(ctx, candidates)
}

// Upsert writes through to the repository and admits the new ids.
func (s *Store) Upsert(ctx context.Context, products []Product) error {
	if err := s.repo.Upsert(ctx, products); err != nil {
		return err
	}

	s.mu.Lock()
	for _, p := range products {
		s.filter.AddString(p.ID)
	}
	s.mu.Unlock()
	return nil
}
