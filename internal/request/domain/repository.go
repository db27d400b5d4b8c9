package domain

import (
	"context"
	"strings"

	"github.com/siren-bd/platform/internal/shared/types"
)

// ListFilter narrows request listings. Nil fields match everything.
type ListFilter struct {
	Status        *Status
	Severity      *Severity
	EmergencyType *EmergencyType
	// Search is a case-insensitive substring match against victim name,
	// address, emergency type and description; any field hit matches.
	Search string
	Limit  int
	Offset int
}

// Matches reports whether a request satisfies the filter
func (f ListFilter) Matches(r *Request) bool {
	if f.Status != nil && r.Status != *f.Status {
		return false
	}
	if f.Severity != nil && r.Severity != *f.Severity {
		return false
	}
	if f.EmergencyType != nil && r.EmergencyType != *f.EmergencyType {
		return false
	}
	if f.Search != "" && !matchesSearch(r, f.Search) {
		return false
	}
	return true
}

func matchesSearch(r *Request, term string) bool {
	term = strings.ToLower(term)
	for _, field := range []string{r.VictimName, r.Address, string(r.EmergencyType), r.Description} {
		if strings.Contains(strings.ToLower(field), term) {
			return true
		}
	}
	return false
}

// Repository defines request persistence operations
type Repository interface {
	Save(ctx context.Context, r *Request) error
	FindByID(ctx context.Context, id types.ID) (*Request, error)
	// Update persists the request, failing with a conflict when the
	// stored version no longer matches the loaded one.
	Update(ctx context.Context, r *Request) error
	List(ctx context.Context, filter ListFilter) ([]*Request, int, error)
	FindByVictim(ctx context.Context, victimID types.ID) ([]*Request, error)
}
