// Package task manages volunteer work items derived from help requests.
package task

import (
	"time"

	apperrors "github.com/siren-bd/platform/internal/shared/errors"
	"github.com/siren-bd/platform/internal/shared/types"
)

// Priority represents task urgency
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

// Status represents the task lifecycle state
type Status string

const (
	StatusPending    Status = "pending"
	StatusAccepted   Status = "accepted"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
)

// ValidStatus reports whether s names a known task status
func ValidStatus(s Status) bool {
	switch s {
	case StatusPending, StatusAccepted, StatusInProgress, StatusCompleted:
		return true
	}
	return false
}

// Task is a unit of work bound to exactly one request and one volunteer.
//
// Status moves pending -> accepted -> in_progress -> completed, one step
// at a time. Only the assigned volunteer may move it. acceptedAt is set
// exactly when the task first reaches accepted; completedAt exactly when
// it completes.
type Task struct {
	ID          types.ID   `json:"id"`
	RequestID   types.ID   `json:"requestId"`
	VolunteerID types.ID   `json:"volunteerId"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Location    string     `json:"location"`
	Priority    Priority   `json:"priority"`
	Status      Status     `json:"status"`
	Notes       string     `json:"notes,omitempty"`
	AssignedAt  time.Time  `json:"assignedAt"`
	AcceptedAt  *time.Time `json:"acceptedAt,omitempty"`
	CompletedAt *time.Time `json:"completedAt,omitempty"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

// NewTask creates a pending task for a request and volunteer
func NewTask(requestID, volunteerID types.ID, title, description, location string, priority Priority) *Task {
	now := time.Now().UTC()
	return &Task{
		ID:          types.NewID(),
		RequestID:   requestID,
		VolunteerID: volunteerID,
		Title:       title,
		Description: description,
		Location:    location,
		Priority:    priority,
		Status:      StatusPending,
		AssignedAt:  now,
		UpdatedAt:   now,
	}
}

// IsActive reports whether the task still occupies its request's
// assignment slot.
func (t *Task) IsActive() bool {
	return t.Status != StatusCompleted
}

// Accept moves the task from pending to accepted. Only the assigned
// volunteer may accept.
func (t *Task) Accept(actorID types.ID) error {
	if actorID != t.VolunteerID {
		return apperrors.Forbidden("only the assigned volunteer may accept this task")
	}
	if t.Status != StatusPending {
		return apperrors.InvalidTransition(string(t.Status), string(StatusAccepted))
	}

	now := time.Now().UTC()
	t.Status = StatusAccepted
	t.AcceptedAt = &now
	t.UpdatedAt = now
	return nil
}

// Advance moves the task to newStatus, which must be the single legal
// next state. Notes replace the stored notes on every advance.
func (t *Task) Advance(actorID types.ID, newStatus Status, notes string) error {
	if actorID != t.VolunteerID {
		return apperrors.Forbidden("only the assigned volunteer may update this task")
	}
	if !ValidStatus(newStatus) {
		return apperrors.BadRequest("unknown task status")
	}
	if nextStatus(t.Status) != newStatus {
		return apperrors.InvalidTransition(string(t.Status), string(newStatus))
	}

	now := time.Now().UTC()
	t.Status = newStatus
	t.Notes = notes
	t.UpdatedAt = now

	switch newStatus {
	case StatusAccepted:
		t.AcceptedAt = &now
	case StatusCompleted:
		t.CompletedAt = &now
	}
	return nil
}

// nextStatus returns the single legal successor, or "" for terminal states
func nextStatus(s Status) Status {
	switch s {
	case StatusPending:
		return StatusAccepted
	case StatusAccepted:
		return StatusInProgress
	case StatusInProgress:
		return StatusCompleted
	}
	return ""
}
