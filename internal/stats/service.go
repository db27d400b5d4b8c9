// Package stats aggregates operational figures for the coordination dashboard.
package stats

import (
	"context"
	"math"
	"sort"
	"time"

	"github.com/siren-bd/platform/internal/auth"
	"github.com/siren-bd/platform/internal/donation"
	"github.com/siren-bd/platform/internal/identity"
	"github.com/siren-bd/platform/internal/request/domain"
	"github.com/siren-bd/platform/internal/task"
)

// Dashboard is the headline summary shown to officials
type Dashboard struct {
	TotalRequests    int     `json:"totalRequests"`
	PendingRequests  int     `json:"pendingRequests"`
	ActiveVolunteers int     `json:"activeVolunteers"`
	CompletedTasks   int     `json:"completedTasks"`
	CriticalRequests int     `json:"criticalRequests"`
	ResponseRate     float64 `json:"responseRate"`
}

// DayCount is one day's request volume
type DayCount struct {
	Date  string `json:"date"`
	Count int    `json:"count"`
}

// VolunteerPerformance reports a volunteer's completed workload
type VolunteerPerformance struct {
	VolunteerID string `json:"volunteerId"`
	Name        string `json:"name"`
	Completed   int    `json:"completed"`
}

// Analytics is the time-windowed breakdown behind the dashboard charts
type Analytics struct {
	Period             string                 `json:"period"`
	RequestsByDay      []DayCount             `json:"requestsByDay"`
	RequestsByType     map[string]int         `json:"requestsByType"`
	RequestsBySeverity map[string]int         `json:"requestsBySeverity"`
	Volunteers         []VolunteerPerformance `json:"volunteerPerformance"`
}

// Service computes dashboard figures from the operational repositories
type Service struct {
	requests domain.Repository
	tasks    task.Repository
	actors   identity.Repository
	dons     donation.Repository
}

// NewService creates a new stats service
func NewService(requests domain.Repository, tasks task.Repository, actors identity.Repository, dons donation.Repository) *Service {
	return &Service{requests: requests, tasks: tasks, actors: actors, dons: dons}
}

// GetDashboard computes the headline summary
func (s *Service) GetDashboard(ctx context.Context) (*Dashboard, error) {
	requests, total, err := s.requests.List(ctx, domain.ListFilter{})
	if err != nil {
		return nil, err
	}

	d := &Dashboard{TotalRequests: total}
	resolved := 0
	for _, r := range requests {
		if r.Status == domain.StatusPending {
			d.PendingRequests++
		}
		if r.Severity == domain.SeverityCritical &&
			r.Status != domain.StatusCompleted && r.Status != domain.StatusCancelled {
			d.CriticalRequests++
		}
		if r.Status != domain.StatusPending && r.Status != domain.StatusCancelled {
			resolved++
		}
	}
	if total > 0 {
		d.ResponseRate = math.Round(float64(resolved)/float64(total)*1000) / 10
	}

	taskCounts, err := s.tasks.CountByStatus(ctx)
	if err != nil {
		return nil, err
	}
	d.CompletedTasks = taskCounts[task.StatusCompleted]

	volunteers, err := s.actors.ListByRole(ctx, auth.RoleVolunteer)
	if err != nil {
		return nil, err
	}
	for _, v := range volunteers {
		if v.Available {
			d.ActiveVolunteers++
		}
	}

	return d, nil
}

// GetAnalytics computes the breakdown for the given period (7d or 30d)
func (s *Service) GetAnalytics(ctx context.Context, period string) (*Analytics, error) {
	days := 7
	if period == "30d" {
		days = 30
	} else {
		period = "7d"
	}

	requests, _, err := s.requests.List(ctx, domain.ListFilter{})
	if err != nil {
		return nil, err
	}

	a := &Analytics{
		Period:             period,
		RequestsByType:     make(map[string]int),
		RequestsBySeverity: make(map[string]int),
	}

	cutoff := time.Now().UTC().AddDate(0, 0, -days)
	byDay := make(map[string]int)
	for _, r := range requests {
		if r.CreatedAt.Before(cutoff) {
			continue
		}
		byDay[r.CreatedAt.UTC().Format("2006-01-02")]++
		a.RequestsByType[string(r.EmergencyType)]++
		a.RequestsBySeverity[string(r.Severity)]++
	}

	// Every day of the window appears, zero-filled, oldest first
	for i := days - 1; i >= 0; i-- {
		date := time.Now().UTC().AddDate(0, 0, -i).Format("2006-01-02")
		a.RequestsByDay = append(a.RequestsByDay, DayCount{Date: date, Count: byDay[date]})
	}

	completed, err := s.tasks.CompletedCountByVolunteer(ctx)
	if err != nil {
		return nil, err
	}
	volunteers, err := s.actors.ListByRole(ctx, auth.RoleVolunteer)
	if err != nil {
		return nil, err
	}
	for _, v := range volunteers {
		if n := completed[v.ID]; n > 0 {
			a.Volunteers = append(a.Volunteers, VolunteerPerformance{
				VolunteerID: v.ID.String(),
				Name:        v.Name,
				Completed:   n,
			})
		}
	}
	sortByCompleted(a.Volunteers)

	return a, nil
}

// GetDonationSummary exposes the relief fund totals alongside the dashboard
func (s *Service) GetDonationSummary(ctx context.Context) (*donation.Summary, error) {
	return s.dons.Summarize(ctx)
}

func sortByCompleted(perf []VolunteerPerformance) {
	sort.Slice(perf, func(i, j int) bool {
		return perf[i].Completed > perf[j].Completed
	})
}
