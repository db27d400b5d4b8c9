// Package domain contains the help request aggregate and its state machine.
package domain

import (
	"regexp"
	"strings"
	"time"

	apperrors "github.com/siren-bd/platform/internal/shared/errors"
	"github.com/siren-bd/platform/internal/shared/types"
)

// Bangladeshi mobile numbers: 01 followed by nine digits
var phonePattern = regexp.MustCompile(`^01\d{9}$`)

// EmergencyType classifies a help request
type EmergencyType string

const (
	EmergencyFlood   EmergencyType = "Flood"
	EmergencyMedical EmergencyType = "Medical Emergency"
	EmergencyFood    EmergencyType = "Food/Water Shortage"
	EmergencyShelter EmergencyType = "Shelter Needed"
	EmergencyRescue  EmergencyType = "Rescue Operation"
	EmergencyOther   EmergencyType = "Other"
)

// ValidEmergencyType reports whether t is a known emergency type
func ValidEmergencyType(t EmergencyType) bool {
	switch t {
	case EmergencyFlood, EmergencyMedical, EmergencyFood,
		EmergencyShelter, EmergencyRescue, EmergencyOther:
		return true
	}
	return false
}

// Severity represents request urgency
type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// ValidSeverity reports whether s is a known severity
func ValidSeverity(s Severity) bool {
	switch s {
	case SeverityLow, SeverityMedium, SeverityHigh, SeverityCritical:
		return true
	}
	return false
}

// Status represents the request lifecycle state
type Status string

const (
	StatusPending    Status = "pending"
	StatusAssigned   Status = "assigned"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
	StatusCancelled  Status = "cancelled"
)

// Request is an emergency help request raised by a victim.
//
// Status moves pending -> assigned -> in_progress -> completed, with
// cancellation allowed from pending or assigned only. Status never
// moves backward.
type Request struct {
	ID                types.ID           `json:"id"`
	VictimID          types.ID           `json:"victimId"`
	VictimName        string             `json:"victimName"`
	Phone             string             `json:"phone"`
	Address           string             `json:"address"`
	EmergencyType     EmergencyType      `json:"emergencyType"`
	Description       string             `json:"description"`
	Severity          Severity           `json:"severity"`
	Status            Status             `json:"status"`
	AssignedVolunteer *types.ID          `json:"assignedVolunteer,omitempty"`
	Coordinates       *types.Coordinates `json:"coordinates,omitempty"`
	PhotoURL          string             `json:"photoUrl,omitempty"`
	Version           int64              `json:"-"`
	CreatedAt         time.Time          `json:"createdAt"`
	UpdatedAt         time.Time          `json:"updatedAt"`

	domainEvents []Event
}

// Event records a state change for downstream consumers
type Event struct {
	Type       string    `json:"type"`
	RequestID  types.ID  `json:"requestId"`
	ActorID    types.ID  `json:"actorId,omitempty"`
	FromStatus Status    `json:"fromStatus,omitempty"`
	ToStatus   Status    `json:"toStatus,omitempty"`
	OccurredAt time.Time `json:"occurredAt"`
}

// Submission carries the fields needed to create a request
type Submission struct {
	VictimName    string             `json:"victimName"`
	Phone         string             `json:"phone"`
	Address       string             `json:"address"`
	EmergencyType EmergencyType      `json:"emergencyType"`
	Description   string             `json:"description"`
	Severity      Severity           `json:"severity"`
	Coordinates   *types.Coordinates `json:"coordinates,omitempty"`
	PhotoURL      string             `json:"photoUrl,omitempty"`
}

// Validate checks every submission field and collects all violations
func (s Submission) Validate() error {
	details := make(map[string]string)

	if len(strings.TrimSpace(s.VictimName)) < 3 {
		details["name"] = "name must be at least 3 characters"
	}
	if !phonePattern.MatchString(s.Phone) {
		details["phone"] = "phone must be a valid 11-digit number starting with 01"
	}
	if len(strings.TrimSpace(s.Address)) < 10 {
		details["address"] = "address must be at least 10 characters"
	}
	if !ValidEmergencyType(s.EmergencyType) {
		details["emergencyType"] = "unknown emergency type"
	}
	if len(strings.TrimSpace(s.Description)) < 20 {
		details["description"] = "description must be at least 20 characters"
	}
	if !ValidSeverity(s.Severity) {
		details["severity"] = "severity must be one of low, medium, high, critical"
	}
	if s.Coordinates != nil {
		if err := s.Coordinates.Validate(); err != nil {
			details["coordinates"] = err.Error()
		}
	}

	if len(details) > 0 {
		return apperrors.Validation("request failed validation", details)
	}
	return nil
}

// NewRequest creates a pending request from a validated submission
func NewRequest(victimID types.ID, sub Submission) (*Request, error) {
	if err := sub.Validate(); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	r := &Request{
		ID:            types.NewID(),
		VictimID:      victimID,
		VictimName:    strings.TrimSpace(sub.VictimName),
		Phone:         sub.Phone,
		Address:       strings.TrimSpace(sub.Address),
		EmergencyType: sub.EmergencyType,
		Description:   strings.TrimSpace(sub.Description),
		Severity:      sub.Severity,
		Status:        StatusPending,
		Coordinates:   sub.Coordinates,
		PhotoURL:      sub.PhotoURL,
		Version:       1,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	r.recordEvent("created", victimID, "", StatusPending)
	return r, nil
}

// Assign binds a volunteer and moves the request to assigned
func (r *Request) Assign(volunteerID, actorID types.ID) error {
	if r.Status != StatusPending {
		return apperrors.InvalidTransition(string(r.Status), string(StatusAssigned))
	}

	from := r.Status
	r.Status = StatusAssigned
	r.AssignedVolunteer = &volunteerID
	r.touch()

	r.recordEvent("assigned", actorID, from, r.Status)
	return nil
}

// Start marks the request in progress; triggered by its task starting
func (r *Request) Start(actorID types.ID) error {
	if r.Status != StatusAssigned {
		return apperrors.InvalidTransition(string(r.Status), string(StatusInProgress))
	}

	from := r.Status
	r.Status = StatusInProgress
	r.touch()

	r.recordEvent("started", actorID, from, r.Status)
	return nil
}

// Complete marks the request completed; triggered by its task completing
func (r *Request) Complete(actorID types.ID) error {
	if r.Status != StatusInProgress {
		return apperrors.InvalidTransition(string(r.Status), string(StatusCompleted))
	}

	from := r.Status
	r.Status = StatusCompleted
	r.touch()

	r.recordEvent("completed", actorID, from, r.Status)
	return nil
}

// Cancel withdraws the request. Legal only from pending or assigned.
func (r *Request) Cancel(actorID types.ID) error {
	if r.Status != StatusPending && r.Status != StatusAssigned {
		return apperrors.InvalidTransition(string(r.Status), string(StatusCancelled))
	}

	from := r.Status
	r.Status = StatusCancelled
	r.touch()

	r.recordEvent("cancelled", actorID, from, r.Status)
	return nil
}

// HasActiveAssignment reports whether the request currently holds a live
// task slot.
func (r *Request) HasActiveAssignment() bool {
	return r.Status == StatusAssigned || r.Status == StatusInProgress
}

// CanBeCancelledBy reports whether the actor may cancel this request.
// Only the original requester or an official may cancel.
func (r *Request) CanBeCancelledBy(actorID types.ID, role string) bool {
	return actorID == r.VictimID || role == "official"
}

func (r *Request) touch() {
	r.UpdatedAt = time.Now().UTC()
}

func (r *Request) recordEvent(eventType string, actorID types.ID, from, to Status) {
	r.domainEvents = append(r.domainEvents, Event{
		Type:       eventType,
		RequestID:  r.ID,
		ActorID:    actorID,
		FromStatus: from,
		ToStatus:   to,
		OccurredAt: time.Now().UTC(),
	})
}

// GetDomainEvents returns and clears the accumulated events
func (r *Request) GetDomainEvents() []Event {
	evts := r.domainEvents
	r.domainEvents = nil
	return evts
}
