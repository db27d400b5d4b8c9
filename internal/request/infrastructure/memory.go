package infrastructure

import (
	"context"
	"sort"
	"sync"

	"github.com/siren-bd/platform/internal/request/domain"
	apperrors "github.com/siren-bd/platform/internal/shared/errors"
	"github.com/siren-bd/platform/internal/shared/types"
)

// MemoryRepository is an in-memory request store for tests and local runs
type MemoryRepository struct {
	mu       sync.RWMutex
	requests map[types.ID]*domain.Request
}

// NewMemoryRepository creates an in-memory request repository
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{requests: make(map[types.ID]*domain.Request)}
}

func (r *MemoryRepository) Save(ctx context.Context, req *domain.Request) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	copied := *req
	r.requests[req.ID] = &copied
	return nil
}

func (r *MemoryRepository) FindByID(ctx context.Context, id types.ID) (*domain.Request, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	req, ok := r.requests[id]
	if !ok {
		return nil, apperrors.NotFound("request", id.String())
	}
	copied := *req
	return &copied, nil
}

func (r *MemoryRepository) Update(ctx context.Context, req *domain.Request) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.requests[req.ID]
	if !ok {
		return apperrors.NotFound("request", req.ID.String())
	}
	if stored.Version != req.Version {
		return apperrors.Conflict("request was modified concurrently")
	}
	copied := *req
	copied.Version++
	r.requests[req.ID] = &copied
	req.Version++
	return nil
}

func (r *MemoryRepository) List(ctx context.Context, filter domain.ListFilter) ([]*domain.Request, int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var matched []*domain.Request
	for _, req := range r.requests {
		if filter.Matches(req) {
			copied := *req
			matched = append(matched, &copied)
		}
	}
	sort.Slice(matched, func(i, j int) bool {
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})

	total := len(matched)
	if filter.Offset > 0 {
		if filter.Offset >= len(matched) {
			matched = nil
		} else {
			matched = matched[filter.Offset:]
		}
	}
	if filter.Limit > 0 && filter.Limit < len(matched) {
		matched = matched[:filter.Limit]
	}
	return matched, total, nil
}

func (r *MemoryRepository) FindByVictim(ctx context.Context, victimID types.ID) ([]*domain.Request, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var matched []*domain.Request
	for _, req := range r.requests {
		if req.VictimID == victimID {
			copied := *req
			matched = append(matched, &copied)
		}
	}
	sort.Slice(matched, func(i, j int) bool {
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})
	return matched, nil
}
