package task

import (
	"context"

	rolespkg "github.com/siren-bd/platform/internal/auth"
	"github.com/siren-bd/platform/internal/identity"
	"github.com/siren-bd/platform/internal/request/domain"
	apperrors "github.com/siren-bd/platform/internal/shared/errors"
	"github.com/siren-bd/platform/internal/shared/events"
	"github.com/siren-bd/platform/internal/shared/metrics"
	"github.com/siren-bd/platform/internal/shared/types"
)

// Service coordinates task assignment and progression together with the
// owning request's lifecycle.
type Service struct {
	tasks    Repository
	requests domain.Repository
	actors   identity.Repository
	bus      events.EventBus
}

// NewService creates a new task service
func NewService(tasks Repository, requests domain.Repository, actors identity.Repository, bus events.EventBus) *Service {
	return &Service{tasks: tasks, requests: requests, actors: actors, bus: bus}
}

// AssignVolunteer creates a pending task binding a volunteer to a
// request and flips the request to assigned. A request holds at most
// one live task; a second assignment fails with AlreadyAssigned.
func (s *Service) AssignVolunteer(ctx context.Context, officialID types.ID, requestID, volunteerID types.ID) (*Task, error) {
	volunteer, err := s.actors.GetByID(ctx, volunteerID)
	if err != nil {
		return nil, err
	}
	if volunteer.Role != rolespkg.RoleVolunteer {
		return nil, apperrors.BadRequest("assignee is not a volunteer")
	}

	req, err := s.requests.FindByID(ctx, requestID)
	if err != nil {
		return nil, err
	}

	if _, err := s.tasks.FindActiveByRequest(ctx, requestID); err == nil {
		return nil, apperrors.AlreadyAssigned(requestID.String())
	} else if !apperrors.Is(err, apperrors.ErrNotFound) {
		return nil, err
	}

	if err := req.Assign(volunteerID, officialID); err != nil {
		return nil, err
	}

	// The version check makes concurrent assigners race on the request
	// row; the loser surfaces as AlreadyAssigned.
	if err := s.requests.Update(ctx, req); err != nil {
		if apperrors.Is(err, apperrors.ErrConflict) {
			return nil, apperrors.AlreadyAssigned(requestID.String())
		}
		return nil, err
	}

	t := NewTask(
		requestID, volunteerID,
		string(req.EmergencyType), req.Description, req.Address,
		priorityFromSeverity(string(req.Severity)),
	)
	if err := s.tasks.Save(ctx, t); err != nil {
		return nil, err
	}

	metrics.RecordTaskAssigned()
	metrics.RecordHelpRequestStatusChange(string(domain.StatusPending), string(req.Status))
	s.publish(ctx, "task.assigned", officialID, string(rolespkg.RoleOfficial), t)
	s.publishRequestEvents(ctx, req, officialID, string(rolespkg.RoleOfficial))

	return t, nil
}

// AcceptTask moves a pending task to accepted. Only the assigned
// volunteer may accept.
func (s *Service) AcceptTask(ctx context.Context, actorID, taskID types.ID) (*Task, error) {
	t, err := s.tasks.FindByID(ctx, taskID)
	if err != nil {
		return nil, err
	}

	if err := t.Accept(actorID); err != nil {
		return nil, err
	}
	if err := s.tasks.Update(ctx, t); err != nil {
		return nil, err
	}

	metrics.RecordTaskStatusChange(string(StatusPending), string(StatusAccepted))
	s.publish(ctx, "task.accepted", actorID, string(rolespkg.RoleVolunteer), t)

	return t, nil
}

// UpdateStatus advances a task to the single legal next status. Moving
// into in_progress or completed advances the owning request in the same
// call, keeping the two lifecycles aligned: both transitions are checked
// before either side is persisted, so a request that cannot advance (a
// cancelled one, say) rejects the whole update and the task stays put.
func (s *Service) UpdateStatus(ctx context.Context, actorID, taskID types.ID, newStatus Status, notes string) (*Task, error) {
	t, err := s.tasks.FindByID(ctx, taskID)
	if err != nil {
		return nil, err
	}

	from := t.Status
	if err := t.Advance(actorID, newStatus, notes); err != nil {
		return nil, err
	}

	var req *domain.Request
	var reqFrom domain.Status
	if newStatus == StatusInProgress || newStatus == StatusCompleted {
		req, err = s.requests.FindByID(ctx, t.RequestID)
		if err != nil {
			return nil, err
		}
		reqFrom = req.Status
		switch newStatus {
		case StatusInProgress:
			err = req.Start(actorID)
		case StatusCompleted:
			err = req.Complete(actorID)
		}
		if err != nil {
			return nil, err
		}
	}

	if err := s.tasks.Update(ctx, t); err != nil {
		return nil, err
	}
	if req != nil {
		if err := s.requests.Update(ctx, req); err != nil {
			return nil, err
		}
		metrics.RecordHelpRequestStatusChange(string(reqFrom), string(req.Status))
		s.publishRequestEvents(ctx, req, actorID, string(rolespkg.RoleVolunteer))
	}

	metrics.RecordTaskStatusChange(string(from), string(newStatus))
	s.publish(ctx, "task."+string(newStatus), actorID, string(rolespkg.RoleVolunteer), t)

	return t, nil
}

// ListForVolunteer returns all of a volunteer's tasks, most recently
// assigned first.
func (s *Service) ListForVolunteer(ctx context.Context, volunteerID types.ID) ([]*Task, error) {
	return s.tasks.ListByVolunteer(ctx, volunteerID)
}

// Get retrieves a task by ID
func (s *Service) Get(ctx context.Context, id types.ID) (*Task, error) {
	return s.tasks.FindByID(ctx, id)
}

func (s *Service) publish(ctx context.Context, eventType string, actorID types.ID, role string, t *Task) {
	if s.bus == nil {
		return
	}
	event := events.NewEvent(eventType, "task", map[string]any{
		"taskId":      t.ID.String(),
		"requestId":   t.RequestID.String(),
		"volunteerId": t.VolunteerID.String(),
		"status":      string(t.Status),
	}).WithActor(actorID, role)
	_ = s.bus.Publish(ctx, event)
}

func (s *Service) publishRequestEvents(ctx context.Context, req *domain.Request, actorID types.ID, role string) {
	if s.bus == nil {
		return
	}
	for _, e := range req.GetDomainEvents() {
		event := events.NewEvent("request."+e.Type, "request", map[string]any{
			"requestId": req.ID.String(),
			"event":     e,
		}).WithActor(actorID, role)
		_ = s.bus.Publish(ctx, event)
	}
}
