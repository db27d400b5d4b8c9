package donation

import (
	"context"
	"sort"
	"sync"

	"github.com/siren-bd/platform/internal/shared/types"
)

// MemoryRepository implements Repository in memory for testing
type MemoryRepository struct {
	mu        sync.RWMutex
	donations []*Donation
}

// NewMemoryRepository creates a new in-memory donation repository
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{}
}

func (r *MemoryRepository) Save(ctx context.Context, d *Donation) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	copied := *d
	r.donations = append(r.donations, &copied)
	return nil
}

func (r *MemoryRepository) ListByDonor(ctx context.Context, donorID types.ID) ([]*Donation, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var result []*Donation
	for _, d := range r.donations {
		if d.DonorID != nil && *d.DonorID == donorID {
			copied := *d
			result = append(result, &copied)
		}
	}
	sortNewestFirst(result)
	return result, nil
}

func (r *MemoryRepository) ListRecent(ctx context.Context, limit int) ([]*Donation, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]*Donation, 0, len(r.donations))
	for _, d := range r.donations {
		copied := *d
		result = append(result, &copied)
	}
	sortNewestFirst(result)
	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

func (r *MemoryRepository) Summarize(ctx context.Context) (*Summary, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	summary := &Summary{ByPurpose: make(map[Purpose]float64)}
	for _, d := range r.donations {
		summary.ByPurpose[d.Purpose] += d.Amount
		summary.TotalAmount += d.Amount
		summary.Count++
	}
	return summary, nil
}

func sortNewestFirst(donations []*Donation) {
	sort.Slice(donations, func(i, j int) bool {
		return donations[i].CreatedAt.After(donations[j].CreatedAt)
	})
}
