package task

import (
	"testing"

	apperrors "github.com/siren-bd/platform/internal/shared/errors"
	"github.com/siren-bd/platform/internal/shared/types"
)

func newTestTask(volunteerID types.ID) *Task {
	return NewTask(types.NewID(), volunteerID, "Flood", "water rising", "Dhanmondi, Dhaka", PriorityHigh)
}

func TestNewTask(t *testing.T) {
	volunteerID := types.NewID()
	task := newTestTask(volunteerID)

	if task.Status != StatusPending {
		t.Errorf("status = %s, want pending", task.Status)
	}
	if task.AcceptedAt != nil || task.CompletedAt != nil {
		t.Error("new task must have nil acceptedAt and completedAt")
	}
	if task.AssignedAt.IsZero() {
		t.Error("assignedAt must be set at creation")
	}
}

func TestAccept(t *testing.T) {
	volunteerID := types.NewID()

	t.Run("assigned volunteer accepts", func(t *testing.T) {
		task := newTestTask(volunteerID)
		if err := task.Accept(volunteerID); err != nil {
			t.Fatalf("Accept: %v", err)
		}
		if task.Status != StatusAccepted {
			t.Errorf("status = %s, want accepted", task.Status)
		}
		if task.AcceptedAt == nil {
			t.Error("acceptedAt must be set on accept")
		}
	})

	t.Run("other volunteer forbidden", func(t *testing.T) {
		task := newTestTask(volunteerID)
		err := task.Accept(types.NewID())
		if !apperrors.Is(err, apperrors.ErrForbidden) {
			t.Errorf("expected forbidden, got %v", err)
		}
		if task.Status != StatusPending {
			t.Error("status must not change on forbidden accept")
		}
	})

	t.Run("double accept", func(t *testing.T) {
		task := newTestTask(volunteerID)
		task.Accept(volunteerID)
		if err := task.Accept(volunteerID); !apperrors.Is(err, apperrors.ErrInvalidTransition) {
			t.Errorf("expected invalid transition, got %v", err)
		}
	})
}

func TestAdvance(t *testing.T) {
	volunteerID := types.NewID()

	t.Run("full progression", func(t *testing.T) {
		task := newTestTask(volunteerID)
		task.Accept(volunteerID)

		if err := task.Advance(volunteerID, StatusInProgress, "on the way"); err != nil {
			t.Fatalf("Advance to in_progress: %v", err)
		}
		if task.Notes != "on the way" {
			t.Errorf("notes = %q, want replaced", task.Notes)
		}

		if err := task.Advance(volunteerID, StatusCompleted, "done"); err != nil {
			t.Fatalf("Advance to completed: %v", err)
		}
		if task.Notes != "done" {
			t.Error("notes must be replaced, not appended")
		}
		if task.CompletedAt == nil {
			t.Error("completedAt must be set on completion")
		}
		if task.AcceptedAt == nil {
			t.Error("acceptedAt must survive completion")
		}
	})

	t.Run("no skipping", func(t *testing.T) {
		task := newTestTask(volunteerID)
		// pending -> in_progress skips accepted
		if err := task.Advance(volunteerID, StatusInProgress, ""); !apperrors.Is(err, apperrors.ErrInvalidTransition) {
			t.Errorf("expected invalid transition, got %v", err)
		}

		task.Accept(volunteerID)
		// accepted -> completed skips in_progress
		if err := task.Advance(volunteerID, StatusCompleted, ""); !apperrors.Is(err, apperrors.ErrInvalidTransition) {
			t.Errorf("expected invalid transition, got %v", err)
		}
	})

	t.Run("terminal state locked", func(t *testing.T) {
		task := newTestTask(volunteerID)
		task.Accept(volunteerID)
		task.Advance(volunteerID, StatusInProgress, "")
		task.Advance(volunteerID, StatusCompleted, "")

		for _, next := range []Status{StatusPending, StatusAccepted, StatusInProgress, StatusCompleted} {
			if err := task.Advance(volunteerID, next, ""); !apperrors.Is(err, apperrors.ErrInvalidTransition) {
				t.Errorf("completed -> %s: expected invalid transition, got %v", next, err)
			}
		}
	})

	t.Run("forbidden regardless of status", func(t *testing.T) {
		task := newTestTask(volunteerID)
		task.Accept(volunteerID)
		err := task.Advance(types.NewID(), StatusInProgress, "")
		if !apperrors.Is(err, apperrors.ErrForbidden) {
			t.Errorf("expected forbidden, got %v", err)
		}
	})

	t.Run("unknown status rejected", func(t *testing.T) {
		task := newTestTask(volunteerID)
		if err := task.Advance(volunteerID, Status("paused"), ""); err == nil {
			t.Error("expected error for unknown status")
		}
	})
}

func TestTimestampInvariant(t *testing.T) {
	volunteerID := types.NewID()
	task := newTestTask(volunteerID)

	check := func(wantAccepted, wantCompleted bool) {
		t.Helper()
		if (task.AcceptedAt != nil) != wantAccepted {
			t.Errorf("status %s: acceptedAt set = %v, want %v", task.Status, task.AcceptedAt != nil, wantAccepted)
		}
		if (task.CompletedAt != nil) != wantCompleted {
			t.Errorf("status %s: completedAt set = %v, want %v", task.Status, task.CompletedAt != nil, wantCompleted)
		}
	}

	check(false, false)
	task.Accept(volunteerID)
	check(true, false)
	task.Advance(volunteerID, StatusInProgress, "")
	check(true, false)
	task.Advance(volunteerID, StatusCompleted, "")
	check(true, true)
}
