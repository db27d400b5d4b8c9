package identity

import (
	"context"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/siren-bd/platform/internal/auth"
	sharedauth "github.com/siren-bd/platform/internal/shared/auth"
	"github.com/siren-bd/platform/internal/shared/config"
	apperrors "github.com/siren-bd/platform/internal/shared/errors"
	"github.com/siren-bd/platform/internal/shared/events"
	"github.com/siren-bd/platform/internal/shared/metrics"
	"github.com/siren-bd/platform/internal/shared/types"
)

// Service provides registration, authentication and actor management
type Service struct {
	repo Repository
	bus  events.EventBus
	cfg  config.AuthConfig
}

// NewService creates a new identity service
func NewService(repo Repository, bus events.EventBus, cfg config.AuthConfig) *Service {
	return &Service{repo: repo, bus: bus, cfg: cfg}
}

// Register creates a new actor account and returns it without credentials
func (s *Service) Register(ctx context.Context, reg Registration) (*Actor, error) {
	if err := reg.Validate(); err != nil {
		return nil, err
	}
	return s.create(ctx, reg)
}

// RegisterDonor creates a donor account. Donors sign up through the
// donation portal rather than the general registration form, so the
// role is fixed here and never read from the payload.
func (s *Service) RegisterDonor(ctx context.Context, reg Registration) (*Actor, error) {
	reg.Role = string(auth.RoleDonor)
	if details := reg.fieldViolations(); len(details) > 0 {
		return nil, apperrors.Validation("registration failed validation", details)
	}
	return s.create(ctx, reg)
}

func (s *Service) create(ctx context.Context, reg Registration) (*Actor, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(reg.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, apperrors.Internal(err)
	}

	actor := NewActor(reg, string(hash))
	if err := s.repo.Create(ctx, actor); err != nil {
		return nil, err
	}

	s.publish(ctx, events.NewEvent("actor.registered", "identity", map[string]string{
		"actorId": actor.ID.String(),
		"role":    string(actor.Role),
	}).WithActor(actor.ID, string(actor.Role)))

	return actor, nil
}

// Authenticate verifies credentials and the claimed role, then issues a
// session token. A wrong password and an unknown email produce the same
// error; a correct password under the wrong role is reported distinctly
// so the client can point the user at the right portal.
func (s *Service) Authenticate(ctx context.Context, email, password, claimedRole string) (*auth.Session, error) {
	if !auth.ValidRole(claimedRole) {
		return nil, apperrors.BadRequest("unknown role")
	}

	actor, err := s.repo.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		metrics.RecordLoginAttempt(claimedRole, false)
		if apperrors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.InvalidCredentials()
		}
		return nil, err
	}

	if bcrypt.CompareHashAndPassword([]byte(actor.PasswordHash), []byte(password)) != nil {
		metrics.RecordLoginAttempt(claimedRole, false)
		return nil, apperrors.InvalidCredentials()
	}

	// Credentials check first: role feedback is only given to callers
	// who hold the password.
	if string(actor.Role) != claimedRole {
		metrics.RecordLoginAttempt(claimedRole, false)
		return nil, apperrors.RoleMismatch(claimedRole)
	}

	session, err := s.issueSession(actor)
	if err != nil {
		return nil, err
	}

	metrics.RecordLoginAttempt(claimedRole, true)
	s.publish(ctx, events.NewEvent("session.started", "identity", map[string]string{
		"actorId": actor.ID.String(),
	}).WithActor(actor.ID, string(actor.Role)))

	return session, nil
}

// EndSession records a logout. Tokens are stateless, so this is
// idempotent: ending an already-ended or unknown session succeeds.
func (s *Service) EndSession(ctx context.Context, actorID types.ID, role string) error {
	s.publish(ctx, events.NewEvent("session.ended", "identity", map[string]string{
		"actorId": actorID.String(),
	}).WithActor(actorID, role))
	return nil
}

// Get retrieves an actor by ID
func (s *Service) Get(ctx context.Context, id types.ID) (*Actor, error) {
	return s.repo.GetByID(ctx, id)
}

// ListVolunteers returns all volunteers, optionally only available ones
func (s *Service) ListVolunteers(ctx context.Context, availableOnly bool) ([]*Actor, error) {
	volunteers, err := s.repo.ListByRole(ctx, auth.RoleVolunteer)
	if err != nil {
		return nil, err
	}
	if !availableOnly {
		return volunteers, nil
	}
	filtered := volunteers[:0]
	for _, v := range volunteers {
		if v.Available {
			filtered = append(filtered, v)
		}
	}
	return filtered, nil
}

// SetAvailability toggles a volunteer's readiness for assignment
func (s *Service) SetAvailability(ctx context.Context, id types.ID, available bool) (*Actor, error) {
	actor, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if actor.Role != auth.RoleVolunteer {
		return nil, apperrors.BadRequest("only volunteers have availability")
	}

	actor.Available = available
	actor.UpdatedAt = time.Now().UTC()
	if err := s.repo.Update(ctx, actor); err != nil {
		return nil, err
	}

	s.publish(ctx, events.NewEvent("volunteer.availability_changed", "identity", map[string]any{
		"actorId":   actor.ID.String(),
		"available": available,
	}).WithActor(actor.ID, string(actor.Role)))

	return actor, nil
}

// issueSession signs a JWT for the actor
func (s *Service) issueSession(actor *Actor) (*auth.Session, error) {
	now := time.Now().UTC()
	expires := now.Add(time.Duration(s.cfg.TokenTTLHours) * time.Hour)

	claims := sharedauth.Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   actor.ID.String(),
			Issuer:    "siren",
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expires),
		},
		Name:  actor.Name,
		Email: actor.Email,
		Role:  string(actor.Role),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(s.cfg.JWTSecret))
	if err != nil {
		return nil, apperrors.Internal(err)
	}

	return &auth.Session{
		Token:     signed,
		ActorID:   actor.ID.String(),
		Name:      actor.Name,
		Email:     actor.Email,
		Role:      actor.Role,
		IssuedAt:  now,
		ExpiresAt: expires,
	}, nil
}

func (s *Service) publish(ctx context.Context, event events.Event) {
	if s.bus == nil {
		return
	}
	// Event delivery is best effort; the write already committed
	_ = s.bus.Publish(ctx, event)
}
