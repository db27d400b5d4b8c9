// Package identity manages registered actors and their credentials.
package identity

import (
	"regexp"
	"strings"
	"time"

	"github.com/siren-bd/platform/internal/auth"
	apperrors "github.com/siren-bd/platform/internal/shared/errors"
	"github.com/siren-bd/platform/internal/shared/types"
)

// Actor is a registered participant: victim, volunteer, official or donor.
type Actor struct {
	ID           types.ID  `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	Phone        string    `json:"phone"`
	PasswordHash string    `json:"-"`
	Role         auth.Role `json:"role"`
	// Available marks a volunteer as ready for assignment. Ignored for
	// other roles.
	Available bool      `json:"available"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

var (
	// Bangladeshi mobile numbers: 01 followed by nine digits
	phonePattern = regexp.MustCompile(`^01\d{9}$`)
	emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
)

// Registration carries the fields needed to create an actor.
type Registration struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

// Validate checks all registration fields and collects every violation.
// Self-service registration only covers victims, volunteers and
// officials; donor accounts go through the dedicated donor endpoint.
func (r Registration) Validate() error {
	details := r.fieldViolations()

	switch auth.Role(r.Role) {
	case auth.RoleVictim, auth.RoleVolunteer, auth.RoleOfficial:
	default:
		details["role"] = "role must be one of victim, volunteer, official"
	}

	if len(details) > 0 {
		return apperrors.Validation("registration failed validation", details)
	}
	return nil
}

func (r Registration) fieldViolations() map[string]string {
	details := make(map[string]string)

	if len(strings.TrimSpace(r.Name)) < 3 {
		details["name"] = "name must be at least 3 characters"
	}
	if !emailPattern.MatchString(r.Email) {
		details["email"] = "invalid email address"
	}
	if !phonePattern.MatchString(r.Phone) {
		details["phone"] = "phone must be a valid 11-digit number starting with 01"
	}
	if len(r.Password) < 6 {
		details["password"] = "password must be at least 6 characters"
	}

	return details
}

// NewActor builds an actor from a validated registration. The password
// hash is supplied by the caller; the model never sees plaintext.
func NewActor(reg Registration, passwordHash string) *Actor {
	now := time.Now().UTC()
	return &Actor{
		ID:           types.NewID(),
		Name:         strings.TrimSpace(reg.Name),
		Email:        strings.ToLower(strings.TrimSpace(reg.Email)),
		Phone:        reg.Phone,
		PasswordHash: passwordHash,
		Role:         auth.Role(reg.Role),
		Available:    auth.Role(reg.Role) == auth.RoleVolunteer,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}
