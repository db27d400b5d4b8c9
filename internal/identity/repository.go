package identity

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/siren-bd/platform/internal/auth"
	apperrors "github.com/siren-bd/platform/internal/shared/errors"
	"github.com/siren-bd/platform/internal/shared/types"
)

// Repository defines actor persistence operations
type Repository interface {
	Create(ctx context.Context, actor *Actor) error
	GetByID(ctx context.Context, id types.ID) (*Actor, error)
	GetByEmail(ctx context.Context, email string) (*Actor, error)
	Update(ctx context.Context, actor *Actor) error
	ListByRole(ctx context.Context, role auth.Role) ([]*Actor, error)
}

// PostgresRepository implements Repository using PostgreSQL
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository creates a new PostgreSQL actor repository
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

const actorColumns = `id, name, email, phone, password_hash, role, available, created_at, updated_at`

// Create inserts a new actor
func (r *PostgresRepository) Create(ctx context.Context, actor *Actor) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO identity.actors (id, name, email, phone, password_hash, role, available, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		actor.ID, actor.Name, actor.Email, actor.Phone, actor.PasswordHash,
		string(actor.Role), actor.Available, actor.CreatedAt, actor.UpdatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return apperrors.Conflict("email already registered")
		}
		return apperrors.Storage(err, "create actor")
	}
	return nil
}

// GetByID retrieves an actor by ID
func (r *PostgresRepository) GetByID(ctx context.Context, id types.ID) (*Actor, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+actorColumns+`
		FROM identity.actors WHERE id = $1`, id)
	return scanActor(row)
}

// GetByEmail retrieves an actor by email
func (r *PostgresRepository) GetByEmail(ctx context.Context, email string) (*Actor, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+actorColumns+`
		FROM identity.actors WHERE email = $1`, email)
	return scanActor(row)
}

// Update persists actor changes
func (r *PostgresRepository) Update(ctx context.Context, actor *Actor) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE identity.actors
		SET name = $2, phone = $3, password_hash = $4, available = $5, updated_at = $6
		WHERE id = $1`,
		actor.ID, actor.Name, actor.Phone, actor.PasswordHash, actor.Available, actor.UpdatedAt,
	)
	if err != nil {
		return apperrors.Storage(err, "update actor")
	}
	if tag.RowsAffected() == 0 {
		return apperrors.NotFound("actor", actor.ID.String())
	}
	return nil
}

// ListByRole retrieves all actors with a role, newest first
func (r *PostgresRepository) ListByRole(ctx context.Context, role auth.Role) ([]*Actor, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+actorColumns+`
		FROM identity.actors WHERE role = $1
		ORDER BY created_at DESC`, string(role))
	if err != nil {
		return nil, apperrors.Storage(err, "list actors")
	}
	defer rows.Close()

	var actors []*Actor
	for rows.Next() {
		actor, err := scanActor(rows)
		if err != nil {
			return nil, err
		}
		actors = append(actors, actor)
	}
	return actors, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanActor(row rowScanner) (*Actor, error) {
	var actor Actor
	var role string
	err := row.Scan(
		&actor.ID, &actor.Name, &actor.Email, &actor.Phone, &actor.PasswordHash,
		&role, &actor.Available, &actor.CreatedAt, &actor.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFound("actor", "")
		}
		return nil, apperrors.Storage(err, "scan actor")
	}
	actor.Role = auth.Role(role)
	return &actor, nil
}
