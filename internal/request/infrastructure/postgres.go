// Package infrastructure provides request persistence implementations.
package infrastructure

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/siren-bd/platform/internal/request/domain"
	apperrors "github.com/siren-bd/platform/internal/shared/errors"
	"github.com/siren-bd/platform/internal/shared/types"
)

// PostgresRepository implements domain.Repository using PostgreSQL
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository creates a new PostgreSQL request repository
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

const requestColumns = `id, victim_id, victim_name, phone, address, emergency_type,
	description, severity, status, assigned_volunteer, lat, lng, photo_url,
	version, created_at, updated_at`

// Save inserts a new request
func (r *PostgresRepository) Save(ctx context.Context, req *domain.Request) error {
	var lat, lng *float64
	if req.Coordinates != nil {
		lat, lng = &req.Coordinates.Lat, &req.Coordinates.Lng
	}

	_, err := r.pool.Exec(ctx, `
		INSERT INTO requests.requests
			(id, victim_id, victim_name, phone, address, emergency_type,
			 description, severity, status, assigned_volunteer, lat, lng,
			 photo_url, version, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)`,
		req.ID, req.VictimID, req.VictimName, req.Phone, req.Address,
		string(req.EmergencyType), req.Description, string(req.Severity),
		string(req.Status), req.AssignedVolunteer, lat, lng,
		nullIfEmpty(req.PhotoURL), req.Version, req.CreatedAt, req.UpdatedAt,
	)
	if err != nil {
		return apperrors.Storage(err, "save request")
	}
	return nil
}

// FindByID retrieves a request by ID
func (r *PostgresRepository) FindByID(ctx context.Context, id types.ID) (*domain.Request, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+requestColumns+`
		FROM requests.requests WHERE id = $1`, id)
	return scanRequest(row)
}

// Update persists request changes using an optimistic version check.
// Concurrent writers race on the version column; the loser gets a
// conflict instead of overwriting.
func (r *PostgresRepository) Update(ctx context.Context, req *domain.Request) error {
	var lat, lng *float64
	if req.Coordinates != nil {
		lat, lng = &req.Coordinates.Lat, &req.Coordinates.Lng
	}

	tag, err := r.pool.Exec(ctx, `
		UPDATE requests.requests
		SET status = $2, assigned_volunteer = $3, lat = $4, lng = $5,
		    photo_url = $6, version = version + 1, updated_at = $7
		WHERE id = $1 AND version = $8`,
		req.ID, string(req.Status), req.AssignedVolunteer, lat, lng,
		nullIfEmpty(req.PhotoURL), req.UpdatedAt, req.Version,
	)
	if err != nil {
		return apperrors.Storage(err, "update request")
	}
	if tag.RowsAffected() == 0 {
		// Either missing or modified since load
		if _, findErr := r.FindByID(ctx, req.ID); findErr != nil {
			return findErr
		}
		return apperrors.Conflict("request was modified concurrently")
	}
	req.Version++
	return nil
}

// List retrieves requests matching the filter, newest first, with total count
func (r *PostgresRepository) List(ctx context.Context, filter domain.ListFilter) ([]*domain.Request, int, error) {
	where := []string{"1=1"}
	args := []any{}
	arg := 1

	if filter.Status != nil {
		where = append(where, fmt.Sprintf("status = $%d", arg))
		args = append(args, string(*filter.Status))
		arg++
	}
	if filter.Severity != nil {
		where = append(where, fmt.Sprintf("severity = $%d", arg))
		args = append(args, string(*filter.Severity))
		arg++
	}
	if filter.EmergencyType != nil {
		where = append(where, fmt.Sprintf("emergency_type = $%d", arg))
		args = append(args, string(*filter.EmergencyType))
		arg++
	}
	if filter.Search != "" {
		where = append(where, fmt.Sprintf(
			"(victim_name ILIKE $%d OR address ILIKE $%d OR emergency_type ILIKE $%d OR description ILIKE $%d)",
			arg, arg, arg, arg))
		args = append(args, "%"+filter.Search+"%")
		arg++
	}

	whereClause := strings.Join(where, " AND ")

	var total int
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM requests.requests WHERE `+whereClause, args...,
	).Scan(&total)
	if err != nil {
		return nil, 0, apperrors.Storage(err, "count requests")
	}

	query := `SELECT ` + requestColumns + ` FROM requests.requests WHERE ` + whereClause +
		` ORDER BY created_at DESC`
	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d OFFSET $%d", arg, arg+1)
		args = append(args, filter.Limit, filter.Offset)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, apperrors.Storage(err, "list requests")
	}
	defer rows.Close()

	requests, err := scanRequests(rows)
	if err != nil {
		return nil, 0, err
	}
	return requests, total, nil
}

// FindByVictim retrieves all requests submitted by a victim, newest first
func (r *PostgresRepository) FindByVictim(ctx context.Context, victimID types.ID) ([]*domain.Request, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+requestColumns+`
		FROM requests.requests WHERE victim_id = $1
		ORDER BY created_at DESC`, victimID)
	if err != nil {
		return nil, apperrors.Storage(err, "list requests by victim")
	}
	defer rows.Close()

	return scanRequests(rows)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRequest(row rowScanner) (*domain.Request, error) {
	var req domain.Request
	var emergencyType, severity, status string
	var assigned *types.ID
	var lat, lng *float64
	var photoURL *string

	err := row.Scan(
		&req.ID, &req.VictimID, &req.VictimName, &req.Phone, &req.Address,
		&emergencyType, &req.Description, &severity, &status, &assigned,
		&lat, &lng, &photoURL, &req.Version, &req.CreatedAt, &req.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFound("request", "")
		}
		return nil, apperrors.Storage(err, "scan request")
	}

	req.EmergencyType = domain.EmergencyType(emergencyType)
	req.Severity = domain.Severity(severity)
	req.Status = domain.Status(status)
	req.AssignedVolunteer = assigned
	if lat != nil && lng != nil {
		req.Coordinates = &types.Coordinates{Lat: *lat, Lng: *lng}
	}
	if photoURL != nil {
		req.PhotoURL = *photoURL
	}
	return &req, nil
}

func scanRequests(rows pgx.Rows) ([]*domain.Request, error) {
	var requests []*domain.Request
	for rows.Next() {
		req, err := scanRequest(rows)
		if err != nil {
			return nil, err
		}
		requests = append(requests, req)
	}
	return requests, rows.Err()
}

func nullIfEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
