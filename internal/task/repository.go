package task

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	apperrors "github.com/siren-bd/platform/internal/shared/errors"
	"github.com/siren-bd/platform/internal/shared/types"
)

// Repository defines task persistence operations
type Repository interface {
	Save(ctx context.Context, t *Task) error
	FindByID(ctx context.Context, id types.ID) (*Task, error)
	Update(ctx context.Context, t *Task) error
	// FindActiveByRequest returns the non-completed task bound to a
	// request, or NotFound when the slot is free.
	FindActiveByRequest(ctx context.Context, requestID types.ID) (*Task, error)
	// ListByVolunteer returns all tasks for a volunteer, most recently
	// assigned first.
	ListByVolunteer(ctx context.Context, volunteerID types.ID) ([]*Task, error)
	CountByStatus(ctx context.Context) (map[Status]int, error)
	// CompletedCountByVolunteer returns completed-task counts keyed by
	// volunteer ID, for performance reporting.
	CompletedCountByVolunteer(ctx context.Context) (map[types.ID]int, error)
}

// PostgresRepository implements Repository using PostgreSQL
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository creates a new PostgreSQL task repository
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

// Display fields (title, description, location, priority) are not
// authoritative on the task; they are derived from the owning request
// at read time.
const taskColumns = `t.id, t.request_id, t.volunteer_id, r.emergency_type, r.description,
	r.address, r.severity, t.status, t.notes, t.assigned_at, t.accepted_at,
	t.completed_at, t.updated_at`

// Save inserts a new task. The partial unique index on live tasks makes
// a second concurrent assignment fail here rather than silently coexist.
func (p *PostgresRepository) Save(ctx context.Context, t *Task) error {
	_, err := p.pool.Exec(ctx, `
		INSERT INTO requests.tasks
			(id, request_id, volunteer_id, status, notes, assigned_at,
			 accepted_at, completed_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		t.ID, t.RequestID, t.VolunteerID, string(t.Status),
		nullIfEmpty(t.Notes), t.AssignedAt, t.AcceptedAt, t.CompletedAt, t.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperrors.AlreadyAssigned(t.RequestID.String())
		}
		return apperrors.Storage(err, "save task")
	}
	return nil
}

// FindByID retrieves a task by ID with display fields joined from its request
func (p *PostgresRepository) FindByID(ctx context.Context, id types.ID) (*Task, error) {
	row := p.pool.QueryRow(ctx, `
		SELECT `+taskColumns+`
		FROM requests.tasks t
		JOIN requests.requests r ON r.id = t.request_id
		WHERE t.id = $1`, id)
	return scanTask(row)
}

// Update persists task changes
func (p *PostgresRepository) Update(ctx context.Context, t *Task) error {
	tag, err := p.pool.Exec(ctx, `
		UPDATE requests.tasks
		SET status = $2, notes = $3, accepted_at = $4, completed_at = $5, updated_at = $6
		WHERE id = $1`,
		t.ID, string(t.Status), nullIfEmpty(t.Notes), t.AcceptedAt, t.CompletedAt, t.UpdatedAt,
	)
	if err != nil {
		return apperrors.Storage(err, "update task")
	}
	if tag.RowsAffected() == 0 {
		return apperrors.NotFound("task", t.ID.String())
	}
	return nil
}

// FindActiveByRequest retrieves the live task for a request
func (p *PostgresRepository) FindActiveByRequest(ctx context.Context, requestID types.ID) (*Task, error) {
	row := p.pool.QueryRow(ctx, `
		SELECT `+taskColumns+`
		FROM requests.tasks t
		JOIN requests.requests r ON r.id = t.request_id
		WHERE t.request_id = $1 AND t.status IN ('pending', 'accepted', 'in_progress')`,
		requestID)
	return scanTask(row)
}

// ListByVolunteer retrieves a volunteer's tasks, most recently assigned first
func (p *PostgresRepository) ListByVolunteer(ctx context.Context, volunteerID types.ID) ([]*Task, error) {
	rows, err := p.pool.Query(ctx, `
		SELECT `+taskColumns+`
		FROM requests.tasks t
		JOIN requests.requests r ON r.id = t.request_id
		WHERE t.volunteer_id = $1
		ORDER BY t.assigned_at DESC`, volunteerID)
	if err != nil {
		return nil, apperrors.Storage(err, "list tasks")
	}
	defer rows.Close()

	var tasks []*Task
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, t)
	}
	return tasks, rows.Err()
}

// CountByStatus aggregates task counts per status
func (p *PostgresRepository) CountByStatus(ctx context.Context) (map[Status]int, error) {
	rows, err := p.pool.Query(ctx, `
		SELECT status, COUNT(*) FROM requests.tasks GROUP BY status`)
	if err != nil {
		return nil, apperrors.Storage(err, "count tasks by status")
	}
	defer rows.Close()

	counts := make(map[Status]int)
	for rows.Next() {
		var status string
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return nil, apperrors.Storage(err, "scan task counts")
		}
		counts[Status(status)] = n
	}
	return counts, rows.Err()
}

// CompletedCountByVolunteer aggregates completed tasks per volunteer
func (p *PostgresRepository) CompletedCountByVolunteer(ctx context.Context) (map[types.ID]int, error) {
	rows, err := p.pool.Query(ctx, `
		SELECT volunteer_id, COUNT(*)
		FROM requests.tasks
		WHERE status = 'completed'
		GROUP BY volunteer_id`)
	if err != nil {
		return nil, apperrors.Storage(err, "count completed tasks")
	}
	defer rows.Close()

	counts := make(map[types.ID]int)
	for rows.Next() {
		var id types.ID
		var n int
		if err := rows.Scan(&id, &n); err != nil {
			return nil, apperrors.Storage(err, "scan completed counts")
		}
		counts[id] = n
	}
	return counts, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTask(row rowScanner) (*Task, error) {
	var t Task
	var status, severity string
	var notes *string

	err := row.Scan(
		&t.ID, &t.RequestID, &t.VolunteerID, &t.Title, &t.Description,
		&t.Location, &severity, &status, &notes, &t.AssignedAt,
		&t.AcceptedAt, &t.CompletedAt, &t.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFound("task", "")
		}
		return nil, apperrors.Storage(err, "scan task")
	}

	t.Status = Status(status)
	t.Priority = priorityFromSeverity(severity)
	if notes != nil {
		t.Notes = *notes
	}
	return &t, nil
}

// priorityFromSeverity maps request severity onto task priority
func priorityFromSeverity(severity string) Priority {
	switch severity {
	case "critical", "high":
		return PriorityHigh
	case "medium":
		return PriorityMedium
	default:
		return PriorityLow
	}
}

func isUniqueViolation(err error) bool {
	type sqlState interface{ SQLState() string }
	var pgErr sqlState
	return errors.As(err, &pgErr) && pgErr.SQLState() == "23505"
}

func nullIfEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
