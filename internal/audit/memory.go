package audit

import (
	"context"
	"sync"
)

// MemoryRepository is an in-memory audit store for tests and local runs
type MemoryRepository struct {
	mu      sync.RWMutex
	entries []*Entry
}

// NewMemoryRepository creates an in-memory audit repository
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{}
}

func (r *MemoryRepository) Append(ctx context.Context, e *Entry) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	e.Sequence = int64(len(r.entries) + 1)
	copied := *e
	r.entries = append(r.entries, &copied)
	return nil
}

func (r *MemoryRepository) LatestHash(ctx context.Context) (string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if len(r.entries) == 0 {
		return "genesis", nil
	}
	return r.entries[len(r.entries)-1].Hash, nil
}

func (r *MemoryRepository) List(ctx context.Context, filter ListFilter) ([]*Entry, int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var matched []*Entry
	for _, e := range r.entries {
		if filter.EventType != "" && e.EventType != filter.EventType {
			continue
		}
		if filter.SubjectType != "" && e.SubjectType != filter.SubjectType {
			continue
		}
		if filter.SubjectID != "" && e.SubjectID != filter.SubjectID {
			continue
		}
		if filter.ActorID != nil && (e.ActorID == nil || *e.ActorID != *filter.ActorID) {
			continue
		}
		if filter.Since != nil && e.RecordedAt.Before(*filter.Since) {
			continue
		}
		if filter.Until != nil && e.RecordedAt.After(*filter.Until) {
			continue
		}
		copied := *e
		matched = append(matched, &copied)
	}

	// Newest first
	for i, j := 0, len(matched)-1; i < j; i, j = i+1, j-1 {
		matched[i], matched[j] = matched[j], matched[i]
	}

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

func (r *MemoryRepository) ListChain(ctx context.Context) ([]*Entry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	chain := make([]*Entry, len(r.entries))
	for i, e := range r.entries {
		copied := *e
		chain[i] = &copied
	}
	return chain, nil
}
