package domain

import (
	"strings"
	"testing"

	apperrors "github.com/siren-bd/platform/internal/shared/errors"
	"github.com/siren-bd/platform/internal/shared/types"
)

func validSubmission() Submission {
	return Submission{
		VictimName:    "Karim Ahmed",
		Phone:         "01712345678",
		Address:       "12 Green Road, Dhanmondi, Dhaka",
		EmergencyType: EmergencyFlood,
		Description:   "Water entered the ground floor and we are stranded upstairs",
		Severity:      SeverityHigh,
	}
}

func TestNewRequest(t *testing.T) {
	victimID := types.NewID()
	r, err := NewRequest(victimID, validSubmission())
	if err != nil {
		t.Fatalf("NewRequest: %v", err)
	}

	if r.Status != StatusPending {
		t.Errorf("status = %s, want pending", r.Status)
	}
	if r.VictimID != victimID {
		t.Errorf("victimID = %s, want %s", r.VictimID, victimID)
	}
	if r.AssignedVolunteer != nil {
		t.Error("new request should have no assigned volunteer")
	}
	if r.CreatedAt.After(r.UpdatedAt) {
		t.Error("createdAt must not be after updatedAt")
	}

	evts := r.GetDomainEvents()
	if len(evts) != 1 || evts[0].Type != "created" {
		t.Errorf("expected single created event, got %v", evts)
	}
}

func TestSubmissionValidation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Submission)
		field  string
	}{
		{"short name", func(s *Submission) { s.VictimName = "Ka" }, "name"},
		{"ten digit phone", func(s *Submission) { s.Phone = "017123456" }, "phone"},
		{"wrong prefix phone", func(s *Submission) { s.Phone = "09712345678" }, "phone"},
		{"short address", func(s *Submission) { s.Address = "Dhaka" }, "address"},
		{"unknown type", func(s *Submission) { s.EmergencyType = "Earthquake" }, "emergencyType"},
		{"short description", func(s *Submission) { s.Description = "need help fast" }, "description"},
		{"unknown severity", func(s *Submission) { s.Severity = "urgent" }, "severity"},
		{"latitude out of range", func(s *Submission) {
			s.Coordinates = &types.Coordinates{Lat: 91, Lng: 90}
		}, "coordinates"},
		{"longitude out of range", func(s *Submission) {
			s.Coordinates = &types.Coordinates{Lat: 23.8, Lng: 181}
		}, "coordinates"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sub := validSubmission()
			tt.mutate(&sub)

			_, err := NewRequest(types.NewID(), sub)
			if err == nil {
				t.Fatal("expected validation error, got nil")
			}
			appErr, ok := err.(*apperrors.AppError)
			if !ok {
				t.Fatalf("expected AppError, got %T", err)
			}
			if _, present := appErr.Details[tt.field]; !present {
				t.Errorf("expected detail for %s, got %v", tt.field, appErr.Details)
			}
		})
	}
}

func TestValidationCollectsAllViolations(t *testing.T) {
	sub := Submission{
		VictimName:    "X",
		Phone:         "123",
		Address:       "here",
		EmergencyType: "Nothing",
		Description:   "short",
		Severity:      "panic",
	}

	_, err := NewRequest(types.NewID(), sub)
	appErr, ok := err.(*apperrors.AppError)
	if !ok {
		t.Fatalf("expected AppError, got %T", err)
	}
	if len(appErr.Details) != 6 {
		t.Errorf("expected 6 field violations, got %d: %v", len(appErr.Details), appErr.Details)
	}
}

func TestDescriptionLengthBoundary(t *testing.T) {
	sub := validSubmission()
	sub.Description = strings.Repeat("a", 19)
	if _, err := NewRequest(types.NewID(), sub); err == nil {
		t.Error("19-character description should fail")
	}

	sub.Description = strings.Repeat("a", 20)
	if _, err := NewRequest(types.NewID(), sub); err != nil {
		t.Errorf("20-character description should pass, got %v", err)
	}
}

func TestLifecycleHappyPath(t *testing.T) {
	r, err := NewRequest(types.NewID(), validSubmission())
	if err != nil {
		t.Fatalf("NewRequest: %v", err)
	}
	volunteerID := types.NewID()
	official := types.NewID()

	if err := r.Assign(volunteerID, official); err != nil {
		t.Fatalf("Assign: %v", err)
	}
	if r.Status != StatusAssigned {
		t.Errorf("status = %s, want assigned", r.Status)
	}
	if r.AssignedVolunteer == nil || *r.AssignedVolunteer != volunteerID {
		t.Error("assigned volunteer not set")
	}

	if err := r.Start(volunteerID); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if err := r.Complete(volunteerID); err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if r.Status != StatusCompleted {
		t.Errorf("status = %s, want completed", r.Status)
	}
}

func TestIllegalTransitions(t *testing.T) {
	volunteerID := types.NewID()
	actor := types.NewID()

	t.Run("start before assign", func(t *testing.T) {
		r, _ := NewRequest(types.NewID(), validSubmission())
		if err := r.Start(actor); !apperrors.Is(err, apperrors.ErrInvalidTransition) {
			t.Errorf("expected invalid transition, got %v", err)
		}
	})

	t.Run("complete before start", func(t *testing.T) {
		r, _ := NewRequest(types.NewID(), validSubmission())
		r.Assign(volunteerID, actor)
		if err := r.Complete(actor); !apperrors.Is(err, apperrors.ErrInvalidTransition) {
			t.Errorf("expected invalid transition, got %v", err)
		}
	})

	t.Run("double assign", func(t *testing.T) {
		r, _ := NewRequest(types.NewID(), validSubmission())
		r.Assign(volunteerID, actor)
		if err := r.Assign(types.NewID(), actor); !apperrors.Is(err, apperrors.ErrInvalidTransition) {
			t.Errorf("expected invalid transition, got %v", err)
		}
	})

	t.Run("no regression after completion", func(t *testing.T) {
		r, _ := NewRequest(types.NewID(), validSubmission())
		r.Assign(volunteerID, actor)
		r.Start(actor)
		r.Complete(actor)
		if err := r.Start(actor); !apperrors.Is(err, apperrors.ErrInvalidTransition) {
			t.Errorf("expected invalid transition, got %v", err)
		}
		if err := r.Cancel(actor); !apperrors.Is(err, apperrors.ErrInvalidTransition) {
			t.Errorf("expected invalid transition on cancel, got %v", err)
		}
	})
}

func TestCancellation(t *testing.T) {
	volunteerID := types.NewID()
	actor := types.NewID()

	t.Run("from pending", func(t *testing.T) {
		r, _ := NewRequest(types.NewID(), validSubmission())
		if err := r.Cancel(actor); err != nil {
			t.Fatalf("Cancel: %v", err)
		}
		if r.Status != StatusCancelled {
			t.Errorf("status = %s, want cancelled", r.Status)
		}
	})

	t.Run("from assigned", func(t *testing.T) {
		r, _ := NewRequest(types.NewID(), validSubmission())
		r.Assign(volunteerID, actor)
		if err := r.Cancel(actor); err != nil {
			t.Fatalf("Cancel: %v", err)
		}
	})

	t.Run("not from in_progress", func(t *testing.T) {
		r, _ := NewRequest(types.NewID(), validSubmission())
		r.Assign(volunteerID, actor)
		r.Start(actor)
		if err := r.Cancel(actor); !apperrors.Is(err, apperrors.ErrInvalidTransition) {
			t.Errorf("expected invalid transition, got %v", err)
		}
	})
}

func TestCanBeCancelledBy(t *testing.T) {
	victimID := types.NewID()
	r, _ := NewRequest(victimID, validSubmission())

	if !r.CanBeCancelledBy(victimID, "victim") {
		t.Error("requester should be able to cancel")
	}
	if !r.CanBeCancelledBy(types.NewID(), "official") {
		t.Error("official should be able to cancel")
	}
	if r.CanBeCancelledBy(types.NewID(), "volunteer") {
		t.Error("unrelated volunteer should not be able to cancel")
	}
}

func TestListFilterMatches(t *testing.T) {
	r, _ := NewRequest(types.NewID(), validSubmission())

	pending := StatusPending
	high := SeverityHigh
	flood := EmergencyFlood
	medical := EmergencyMedical

	tests := []struct {
		name   string
		filter ListFilter
		want   bool
	}{
		{"empty filter", ListFilter{}, true},
		{"status match", ListFilter{Status: &pending}, true},
		{"severity match", ListFilter{Severity: &high}, true},
		{"type match", ListFilter{EmergencyType: &flood}, true},
		{"type mismatch", ListFilter{EmergencyType: &medical}, false},
		{"search in name", ListFilter{Search: "karim"}, true},
		{"search in address", ListFilter{Search: "DHANMONDI"}, true},
		{"search in type", ListFilter{Search: "flood"}, true},
		{"search in description", ListFilter{Search: "stranded"}, true},
		{"search miss", ListFilter{Search: "cyclone"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.filter.Matches(r); got != tt.want {
				t.Errorf("Matches = %v, want %v", got, tt.want)
			}
		})
	}
}
