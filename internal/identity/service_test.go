package identity

import (
	"context"
	"testing"

	"github.com/siren-bd/platform/internal/auth"
	"github.com/siren-bd/platform/internal/shared/config"
	apperrors "github.com/siren-bd/platform/internal/shared/errors"
	"github.com/siren-bd/platform/internal/shared/events"
)

func newTestService() *Service {
	return NewService(NewMemoryRepository(), events.NewMemoryBus(), config.AuthConfig{
		JWTSecret:     "test-secret",
		TokenTTLHours: 1,
	})
}

func validRegistration() Registration {
	return Registration{
		Name:     "Rahim Uddin",
		Email:    "rahim@example.com",
		Phone:    "01712345678",
		Password: "secret1",
		Role:     "victim",
	}
}

func TestRegisterValidation(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	tests := []struct {
		name   string
		mutate func(*Registration)
		field  string
	}{
		{"short name", func(r *Registration) { r.Name = "Ra" }, "name"},
		{"bad email", func(r *Registration) { r.Email = "not-an-email" }, "email"},
		{"short phone", func(r *Registration) { r.Phone = "0171234567" }, "phone"},
		{"phone wrong prefix", func(r *Registration) { r.Phone = "02712345678" }, "phone"},
		{"phone with letters", func(r *Registration) { r.Phone = "0171234567a" }, "phone"},
		{"short password", func(r *Registration) { r.Password = "12345" }, "password"},
		{"unknown role", func(r *Registration) { r.Role = "admin" }, "role"},
		{"donor not self-registrable", func(r *Registration) { r.Role = "donor" }, "role"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reg := validRegistration()
			tt.mutate(&reg)

			_, err := svc.Register(ctx, reg)
			if err == nil {
				t.Fatal("expected validation error, got nil")
			}
			appErr, ok := err.(*apperrors.AppError)
			if !ok {
				t.Fatalf("expected AppError, got %T", err)
			}
			if appErr.Code != "VALIDATION_ERROR" {
				t.Errorf("code = %s, want VALIDATION_ERROR", appErr.Code)
			}
			if _, present := appErr.Details[tt.field]; !present {
				t.Errorf("expected detail for field %s, got %v", tt.field, appErr.Details)
			}
		})
	}
}

func TestRegisterDonor(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	reg := validRegistration()
	reg.Email = "donor@example.com"
	reg.Role = "official" // ignored: the donor endpoint fixes the role
	donor, err := svc.RegisterDonor(ctx, reg)
	if err != nil {
		t.Fatalf("RegisterDonor: %v", err)
	}
	if donor.Role != auth.RoleDonor {
		t.Errorf("role = %s, want donor", donor.Role)
	}

	session, err := svc.Authenticate(ctx, "donor@example.com", "secret1", "donor")
	if err != nil {
		t.Fatalf("Authenticate as donor: %v", err)
	}
	if session.Role != auth.RoleDonor {
		t.Errorf("session role = %s, want donor", session.Role)
	}
}

func TestRegisterDonorFieldValidation(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	reg := validRegistration()
	reg.Name = "Ra"
	reg.Phone = "123"

	_, err := svc.RegisterDonor(ctx, reg)
	appErr, ok := err.(*apperrors.AppError)
	if !ok || appErr.Code != "VALIDATION_ERROR" {
		t.Fatalf("expected VALIDATION_ERROR, got %v", err)
	}
	for _, field := range []string{"name", "phone"} {
		if _, present := appErr.Details[field]; !present {
			t.Errorf("expected detail for field %s, got %v", field, appErr.Details)
		}
	}
}

func TestRegisterAndAuthenticate(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	actor, err := svc.Register(ctx, validRegistration())
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if actor.PasswordHash == "secret1" {
		t.Error("password stored in plaintext")
	}
	if actor.Role != auth.RoleVictim {
		t.Errorf("role = %s, want victim", actor.Role)
	}

	session, err := svc.Authenticate(ctx, "rahim@example.com", "secret1", "victim")
	if err != nil {
		t.Fatalf("Authenticate: %v", err)
	}
	if session.Token == "" {
		t.Error("expected signed token")
	}
	if session.Role != auth.RoleVictim {
		t.Errorf("session role = %s, want victim", session.Role)
	}
}

func TestAuthenticateEmailIsCaseInsensitive(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	if _, err := svc.Register(ctx, validRegistration()); err != nil {
		t.Fatalf("Register: %v", err)
	}

	if _, err := svc.Authenticate(ctx, "Rahim@Example.com", "secret1", "victim"); err != nil {
		t.Fatalf("Authenticate with mixed-case email: %v", err)
	}
}

func TestAuthenticateWrongPassword(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	if _, err := svc.Register(ctx, validRegistration()); err != nil {
		t.Fatalf("Register: %v", err)
	}

	_, err := svc.Authenticate(ctx, "rahim@example.com", "wrong", "victim")
	if !apperrors.Is(err, apperrors.ErrInvalidCredentials) {
		t.Fatalf("expected invalid credentials, got %v", err)
	}
}

func TestAuthenticateUnknownEmailMatchesWrongPassword(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	if _, err := svc.Register(ctx, validRegistration()); err != nil {
		t.Fatalf("Register: %v", err)
	}

	_, unknownErr := svc.Authenticate(ctx, "nobody@example.com", "secret1", "victim")
	_, wrongErr := svc.Authenticate(ctx, "rahim@example.com", "bad", "victim")

	// Both failures must be indistinguishable to the caller
	uErr, ok1 := unknownErr.(*apperrors.AppError)
	wErr, ok2 := wrongErr.(*apperrors.AppError)
	if !ok1 || !ok2 {
		t.Fatalf("expected AppErrors, got %T and %T", unknownErr, wrongErr)
	}
	if uErr.Code != wErr.Code || uErr.Message != wErr.Message {
		t.Errorf("unknown email and wrong password errors differ: %v vs %v", uErr, wErr)
	}
}

func TestAuthenticateRoleMismatch(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	if _, err := svc.Register(ctx, validRegistration()); err != nil {
		t.Fatalf("Register: %v", err)
	}

	_, err := svc.Authenticate(ctx, "rahim@example.com", "secret1", "volunteer")
	if !apperrors.Is(err, apperrors.ErrRoleMismatch) {
		t.Fatalf("expected role mismatch, got %v", err)
	}

	appErr := err.(*apperrors.AppError)
	if appErr.Code != "ROLE_MISMATCH" {
		t.Errorf("code = %s, want ROLE_MISMATCH", appErr.Code)
	}
	if appErr.Details["claimedRole"] != "volunteer" {
		t.Errorf("claimedRole detail = %s, want volunteer", appErr.Details["claimedRole"])
	}
}

func TestAuthenticateRoleMismatchRequiresValidPassword(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	if _, err := svc.Register(ctx, validRegistration()); err != nil {
		t.Fatalf("Register: %v", err)
	}

	// Wrong password plus wrong role must not reveal the role mismatch
	_, err := svc.Authenticate(ctx, "rahim@example.com", "wrong", "volunteer")
	if !apperrors.Is(err, apperrors.ErrInvalidCredentials) {
		t.Fatalf("expected invalid credentials, got %v", err)
	}
}

func TestRegisterDuplicateEmail(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	if _, err := svc.Register(ctx, validRegistration()); err != nil {
		t.Fatalf("first Register: %v", err)
	}

	_, err := svc.Register(ctx, validRegistration())
	if !apperrors.Is(err, apperrors.ErrConflict) {
		t.Fatalf("expected conflict, got %v", err)
	}
}

func TestEndSessionIsIdempotent(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	actor, err := svc.Register(ctx, validRegistration())
	if err != nil {
		t.Fatalf("Register: %v", err)
	}

	for i := 0; i < 3; i++ {
		if err := svc.EndSession(ctx, actor.ID, string(actor.Role)); err != nil {
			t.Fatalf("EndSession call %d: %v", i+1, err)
		}
	}
}

func TestSetAvailability(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	reg := validRegistration()
	reg.Email = "vol@example.com"
	reg.Role = "volunteer"
	vol, err := svc.Register(ctx, reg)
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if !vol.Available {
		t.Error("new volunteer should start available")
	}

	updated, err := svc.SetAvailability(ctx, vol.ID, false)
	if err != nil {
		t.Fatalf("SetAvailability: %v", err)
	}
	if updated.Available {
		t.Error("expected availability off")
	}

	victim, err := svc.Register(ctx, validRegistration())
	if err != nil {
		t.Fatalf("Register victim: %v", err)
	}
	if _, err := svc.SetAvailability(ctx, victim.ID, true); err == nil {
		t.Error("expected error setting availability on non-volunteer")
	}
}

func TestListVolunteers(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	for i, email := range []string{"a@example.com", "b@example.com"} {
		reg := validRegistration()
		reg.Email = email
		reg.Role = "volunteer"
		vol, err := svc.Register(ctx, reg)
		if err != nil {
			t.Fatalf("Register: %v", err)
		}
		if i == 0 {
			if _, err := svc.SetAvailability(ctx, vol.ID, false); err != nil {
				t.Fatalf("SetAvailability: %v", err)
			}
		}
	}

	all, err := svc.ListVolunteers(ctx, false)
	if err != nil {
		t.Fatalf("ListVolunteers: %v", err)
	}
	if len(all) != 2 {
		t.Errorf("len(all) = %d, want 2", len(all))
	}

	available, err := svc.ListVolunteers(ctx, true)
	if err != nil {
		t.Fatalf("ListVolunteers available: %v", err)
	}
	if len(available) != 1 {
		t.Errorf("len(available) = %d, want 1", len(available))
	}
}
