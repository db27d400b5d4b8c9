package identity

import (
	"context"
	"sort"
	"sync"

	"github.com/siren-bd/platform/internal/auth"
	apperrors "github.com/siren-bd/platform/internal/shared/errors"
	"github.com/siren-bd/platform/internal/shared/types"
)

// MemoryRepository is an in-memory actor store for tests and local runs
type MemoryRepository struct {
	mu      sync.RWMutex
	actors  map[types.ID]*Actor
	byEmail map[string]types.ID
}

// NewMemoryRepository creates an in-memory actor repository
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		actors:  make(map[types.ID]*Actor),
		byEmail: make(map[string]types.ID),
	}
}

func (r *MemoryRepository) Create(ctx context.Context, actor *Actor) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byEmail[actor.Email]; exists {
		return apperrors.Conflict("email already registered")
	}
	copied := *actor
	r.actors[actor.ID] = &copied
	r.byEmail[actor.Email] = actor.ID
	return nil
}

func (r *MemoryRepository) GetByID(ctx context.Context, id types.ID) (*Actor, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	actor, ok := r.actors[id]
	if !ok {
		return nil, apperrors.NotFound("actor", id.String())
	}
	copied := *actor
	return &copied, nil
}

func (r *MemoryRepository) GetByEmail(ctx context.Context, email string) (*Actor, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.byEmail[email]
	if !ok {
		return nil, apperrors.NotFound("actor", email)
	}
	copied := *r.actors[id]
	return &copied, nil
}

func (r *MemoryRepository) Update(ctx context.Context, actor *Actor) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.actors[actor.ID]; !ok {
		return apperrors.NotFound("actor", actor.ID.String())
	}
	copied := *actor
	r.actors[actor.ID] = &copied
	return nil
}

func (r *MemoryRepository) ListByRole(ctx context.Context, role auth.Role) ([]*Actor, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var actors []*Actor
	for _, actor := range r.actors {
		if actor.Role == role {
			copied := *actor
			actors = append(actors, &copied)
		}
	}
	sort.Slice(actors, func(i, j int) bool {
		return actors[i].CreatedAt.After(actors[j].CreatedAt)
	})
	return actors, nil
}
