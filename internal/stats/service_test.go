package stats

import (
	"context"
	"testing"

	"github.com/siren-bd/platform/internal/auth"
	"github.com/siren-bd/platform/internal/donation"
	"github.com/siren-bd/platform/internal/identity"
	"github.com/siren-bd/platform/internal/request/domain"
	"github.com/siren-bd/platform/internal/request/infrastructure"
	"github.com/siren-bd/platform/internal/shared/types"
	"github.com/siren-bd/platform/internal/task"
)

type fixture struct {
	svc      *Service
	requests *infrastructure.MemoryRepository
	tasks    *task.MemoryRepository
	actors   *identity.MemoryRepository
	dons     *donation.MemoryRepository
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		requests: infrastructure.NewMemoryRepository(),
		tasks:    task.NewMemoryRepository(),
		actors:   identity.NewMemoryRepository(),
		dons:     donation.NewMemoryRepository(),
	}
	f.svc = NewService(f.requests, f.tasks, f.actors, f.dons)
	return f
}

func (f *fixture) addVolunteer(t *testing.T, name string, available bool) *identity.Actor {
	t.Helper()
	actor := identity.NewActor(identity.Registration{
		Name:  name,
		Email: name + "@example.org",
		Phone: "01712345678",
		Role:  string(auth.RoleVolunteer),
	}, "hash")
	actor.Available = available
	if err := f.actors.Create(context.Background(), actor); err != nil {
		t.Fatalf("create actor: %v", err)
	}
	return actor
}

func (f *fixture) addRequest(t *testing.T, severity domain.Severity, status domain.Status) *domain.Request {
	t.Helper()
	req, err := domain.NewRequest(types.NewID(), domain.Submission{
		VictimName:    "Test Victim",
		Phone:         "01712345678",
		Address:       "12 Green Road, Dhanmondi, Dhaka",
		EmergencyType: domain.EmergencyFlood,
		Description:   "a sufficiently long description of the emergency",
		Severity:      severity,
	})
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	actor := types.NewID()
	switch status {
	case domain.StatusAssigned:
		req.Assign(types.NewID(), actor)
	case domain.StatusInProgress:
		req.Assign(types.NewID(), actor)
		req.Start(actor)
	case domain.StatusCompleted:
		req.Assign(types.NewID(), actor)
		req.Start(actor)
		req.Complete(actor)
	case domain.StatusCancelled:
		req.Cancel(actor)
	}
	if err := f.requests.Save(context.Background(), req); err != nil {
		t.Fatalf("save request: %v", err)
	}
	return req
}

func (f *fixture) addCompletedTask(t *testing.T, volunteerID types.ID) {
	t.Helper()
	tk := task.NewTask(types.NewID(), volunteerID, "Flood", "desc", "Dhaka", task.PriorityHigh)
	if err := tk.Accept(volunteerID); err != nil {
		t.Fatalf("accept: %v", err)
	}
	if err := tk.Advance(volunteerID, task.StatusInProgress, ""); err != nil {
		t.Fatalf("advance: %v", err)
	}
	if err := tk.Advance(volunteerID, task.StatusCompleted, "done"); err != nil {
		t.Fatalf("complete: %v", err)
	}
	if err := f.tasks.Save(context.Background(), tk); err != nil {
		t.Fatalf("save task: %v", err)
	}
}

func TestGetDashboard(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	active := f.addVolunteer(t, "active-vol", true)
	f.addVolunteer(t, "idle-vol", false)

	f.addRequest(t, domain.SeverityLow, domain.StatusPending)
	f.addRequest(t, domain.SeverityCritical, domain.StatusAssigned)
	f.addRequest(t, domain.SeverityCritical, domain.StatusCompleted)
	f.addRequest(t, domain.SeverityHigh, domain.StatusCancelled)

	f.addCompletedTask(t, active.ID)

	d, err := f.svc.GetDashboard(ctx)
	if err != nil {
		t.Fatalf("GetDashboard: %v", err)
	}

	if d.TotalRequests != 4 {
		t.Errorf("totalRequests = %d, want 4", d.TotalRequests)
	}
	if d.PendingRequests != 1 {
		t.Errorf("pendingRequests = %d, want 1", d.PendingRequests)
	}
	// Completed critical request no longer counts as critical
	if d.CriticalRequests != 1 {
		t.Errorf("criticalRequests = %d, want 1", d.CriticalRequests)
	}
	if d.ActiveVolunteers != 1 {
		t.Errorf("activeVolunteers = %d, want 1", d.ActiveVolunteers)
	}
	if d.CompletedTasks != 1 {
		t.Errorf("completedTasks = %d, want 1", d.CompletedTasks)
	}
	// 2 of 4 requests progressed past pending (assigned + completed)
	if d.ResponseRate != 50 {
		t.Errorf("responseRate = %v, want 50", d.ResponseRate)
	}
}

func TestGetDashboardEmpty(t *testing.T) {
	f := newFixture(t)

	d, err := f.svc.GetDashboard(context.Background())
	if err != nil {
		t.Fatalf("GetDashboard: %v", err)
	}
	if d.TotalRequests != 0 || d.ResponseRate != 0 {
		t.Errorf("expected zeroed dashboard, got %+v", d)
	}
}

func TestGetAnalytics(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	busy := f.addVolunteer(t, "busy-vol", true)
	quiet := f.addVolunteer(t, "quiet-vol", true)

	f.addRequest(t, domain.SeverityCritical, domain.StatusPending)
	f.addRequest(t, domain.SeverityHigh, domain.StatusPending)

	f.addCompletedTask(t, busy.ID)
	f.addCompletedTask(t, busy.ID)
	f.addCompletedTask(t, quiet.ID)

	a, err := f.svc.GetAnalytics(ctx, "7d")
	if err != nil {
		t.Fatalf("GetAnalytics: %v", err)
	}

	if a.Period != "7d" {
		t.Errorf("period = %s, want 7d", a.Period)
	}
	if len(a.RequestsByDay) != 7 {
		t.Errorf("requestsByDay = %d days, want 7", len(a.RequestsByDay))
	}
	today := a.RequestsByDay[len(a.RequestsByDay)-1]
	if today.Count != 2 {
		t.Errorf("today's count = %d, want 2", today.Count)
	}
	if a.RequestsByType["Flood"] != 2 {
		t.Errorf("flood count = %d, want 2", a.RequestsByType["Flood"])
	}
	if a.RequestsBySeverity["critical"] != 1 {
		t.Errorf("critical count = %d, want 1", a.RequestsBySeverity["critical"])
	}

	if len(a.Volunteers) != 2 {
		t.Fatalf("volunteers = %d, want 2", len(a.Volunteers))
	}
	if a.Volunteers[0].Name != "busy-vol" || a.Volunteers[0].Completed != 2 {
		t.Errorf("top performer = %+v, want busy-vol with 2", a.Volunteers[0])
	}
}

func TestGetAnalyticsDefaultsPeriod(t *testing.T) {
	f := newFixture(t)

	a, err := f.svc.GetAnalytics(context.Background(), "90d")
	if err != nil {
		t.Fatalf("GetAnalytics: %v", err)
	}
	if a.Period != "7d" {
		t.Errorf("period = %s, want fallback to 7d", a.Period)
	}
	if len(a.RequestsByDay) != 7 {
		t.Errorf("requestsByDay = %d days, want 7", len(a.RequestsByDay))
	}
}
