package task

import (
	"context"
	"sort"
	"sync"

	apperrors "github.com/siren-bd/platform/internal/shared/errors"
	"github.com/siren-bd/platform/internal/shared/types"
)

// MemoryRepository is an in-memory task store for tests and local runs
type MemoryRepository struct {
	mu    sync.RWMutex
	tasks map[types.ID]*Task
}

// NewMemoryRepository creates an in-memory task repository
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{tasks: make(map[types.ID]*Task)}
}

func (r *MemoryRepository) Save(ctx context.Context, t *Task) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.tasks {
		if existing.RequestID == t.RequestID && existing.IsActive() {
			return apperrors.AlreadyAssigned(t.RequestID.String())
		}
	}
	copied := *t
	r.tasks[t.ID] = &copied
	return nil
}

func (r *MemoryRepository) FindByID(ctx context.Context, id types.ID) (*Task, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	t, ok := r.tasks[id]
	if !ok {
		return nil, apperrors.NotFound("task", id.String())
	}
	copied := *t
	return &copied, nil
}

func (r *MemoryRepository) Update(ctx context.Context, t *Task) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.tasks[t.ID]; !ok {
		return apperrors.NotFound("task", t.ID.String())
	}
	copied := *t
	r.tasks[t.ID] = &copied
	return nil
}

func (r *MemoryRepository) FindActiveByRequest(ctx context.Context, requestID types.ID) (*Task, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, t := range r.tasks {
		if t.RequestID == requestID && t.IsActive() {
			copied := *t
			return &copied, nil
		}
	}
	return nil, apperrors.NotFound("task", "")
}

func (r *MemoryRepository) ListByVolunteer(ctx context.Context, volunteerID types.ID) ([]*Task, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var tasks []*Task
	for _, t := range r.tasks {
		if t.VolunteerID == volunteerID {
			copied := *t
			tasks = append(tasks, &copied)
		}
	}
	sort.Slice(tasks, func(i, j int) bool {
		return tasks[i].AssignedAt.After(tasks[j].AssignedAt)
	})
	return tasks, nil
}

func (r *MemoryRepository) CountByStatus(ctx context.Context) (map[Status]int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	counts := make(map[Status]int)
	for _, t := range r.tasks {
		counts[t.Status]++
	}
	return counts, nil
}

func (r *MemoryRepository) CompletedCountByVolunteer(ctx context.Context) (map[types.ID]int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	counts := make(map[types.ID]int)
	for _, t := range r.tasks {
		if t.Status == StatusCompleted {
			counts[t.VolunteerID]++
		}
	}
	return counts, nil
}
