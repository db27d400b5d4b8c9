package audit

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	apperrors "github.com/siren-bd/platform/internal/shared/errors"
)

// Repository defines audit log persistence operations
type Repository interface {
	// Append stores a new entry and assigns its sequence number.
	Append(ctx context.Context, e *Entry) error
	// LatestHash returns the hash of the newest entry, or "genesis"
	// when the log is empty.
	LatestHash(ctx context.Context) (string, error)
	List(ctx context.Context, filter ListFilter) ([]*Entry, int, error)
	// ListChain returns every entry in sequence order for verification.
	ListChain(ctx context.Context) ([]*Entry, error)
}

// PostgresRepository implements Repository using PostgreSQL
type PostgresRepository struct {
	pool *pgxpool.Pool
	// Serializes appends so the prev-hash link never races
	mu sync.Mutex
}

// NewPostgresRepository creates a new PostgreSQL audit repository
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

// Append stores a new entry
func (r *PostgresRepository) Append(ctx context.Context, e *Entry) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	err := r.pool.QueryRow(ctx, `
		INSERT INTO audit.entries
			(id, event_type, actor_id, subject_type, subject_id, payload, prev_hash, hash, recorded_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING sequence`,
		e.ID, e.EventType, e.ActorID, e.SubjectType, e.SubjectID,
		e.Payload, e.PrevHash, e.Hash, e.RecordedAt,
	).Scan(&e.Sequence)
	if err != nil {
		return apperrors.Storage(err, "append audit entry")
	}
	return nil
}

// LatestHash returns the newest entry's hash
func (r *PostgresRepository) LatestHash(ctx context.Context) (string, error) {
	var hash string
	err := r.pool.QueryRow(ctx, `
		SELECT hash FROM audit.entries ORDER BY sequence DESC LIMIT 1`,
	).Scan(&hash)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "genesis", nil
		}
		return "", apperrors.Storage(err, "latest audit hash")
	}
	return hash, nil
}

const entryColumns = `id, sequence, event_type, actor_id, subject_type, subject_id,
	payload, prev_hash, hash, recorded_at`

// List retrieves entries matching the filter, newest first, with total count
func (r *PostgresRepository) List(ctx context.Context, filter ListFilter) ([]*Entry, int, error) {
	where := []string{"1=1"}
	args := []any{}
	arg := 1

	add := func(clause string, value any) {
		where = append(where, fmt.Sprintf(clause, arg))
		args = append(args, value)
		arg++
	}

	if filter.EventType != "" {
		add("event_type = $%d", filter.EventType)
	}
	if filter.SubjectType != "" {
		add("subject_type = $%d", filter.SubjectType)
	}
	if filter.SubjectID != "" {
		add("subject_id = $%d", filter.SubjectID)
	}
	if filter.ActorID != nil {
		add("actor_id = $%d", *filter.ActorID)
	}
	if filter.Since != nil {
		add("recorded_at >= $%d", *filter.Since)
	}
	if filter.Until != nil {
		add("recorded_at <= $%d", *filter.Until)
	}

	whereClause := strings.Join(where, " AND ")

	var total int
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM audit.entries WHERE `+whereClause, args...,
	).Scan(&total)
	if err != nil {
		return nil, 0, apperrors.Storage(err, "count audit entries")
	}

	query := `SELECT ` + entryColumns + ` FROM audit.entries WHERE ` + whereClause +
		` ORDER BY sequence DESC`
	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d OFFSET $%d", arg, arg+1)
		args = append(args, filter.Limit, filter.Offset)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, apperrors.Storage(err, "list audit entries")
	}
	defer rows.Close()

	entries, err := scanEntries(rows)
	if err != nil {
		return nil, 0, err
	}
	return entries, total, nil
}

// ListChain returns all entries in sequence order
func (r *PostgresRepository) ListChain(ctx context.Context) ([]*Entry, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+entryColumns+` FROM audit.entries ORDER BY sequence ASC`)
	if err != nil {
		return nil, apperrors.Storage(err, "list audit chain")
	}
	defer rows.Close()

	return scanEntries(rows)
}

func scanEntries(rows pgx.Rows) ([]*Entry, error) {
	var entries []*Entry
	for rows.Next() {
		var e Entry
		err := rows.Scan(
			&e.ID, &e.Sequence, &e.EventType, &e.ActorID, &e.SubjectType,
			&e.SubjectID, &e.Payload, &e.PrevHash, &e.Hash, &e.RecordedAt,
		)
		if err != nil {
			return nil, apperrors.Storage(err, "scan audit entry")
		}
		entries = append(entries, &e)
	}
	return entries, rows.Err()
}
