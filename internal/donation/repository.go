package donation

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	apperrors "github.com/siren-bd/platform/internal/shared/errors"
	"github.com/siren-bd/platform/internal/shared/types"
)

// Repository defines donation persistence operations
type Repository interface {
	Save(ctx context.Context, d *Donation) error
	ListByDonor(ctx context.Context, donorID types.ID) ([]*Donation, error)
	ListRecent(ctx context.Context, limit int) ([]*Donation, error)
	Summarize(ctx context.Context) (*Summary, error)
}

// PostgresRepository implements Repository using PostgreSQL
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository creates a new PostgreSQL donation repository
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

// Save inserts a new donation
func (r *PostgresRepository) Save(ctx context.Context, d *Donation) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO donations.donations
			(id, donor_id, donor_name, amount, currency, purpose, message, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		d.ID, d.DonorID, d.DonorName, d.Amount, d.Currency,
		string(d.Purpose), nullIfEmpty(d.Message), d.CreatedAt,
	)
	if err != nil {
		return apperrors.Storage(err, "save donation")
	}
	return nil
}

const donationColumns = `id, donor_id, donor_name, amount, currency, purpose, message, created_at`

// ListByDonor retrieves a donor's donations, newest first
func (r *PostgresRepository) ListByDonor(ctx context.Context, donorID types.ID) ([]*Donation, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+donationColumns+`
		FROM donations.donations WHERE donor_id = $1
		ORDER BY created_at DESC`, donorID)
	if err != nil {
		return nil, apperrors.Storage(err, "list donations by donor")
	}
	defer rows.Close()
	return scanDonations(rows)
}

// ListRecent retrieves the most recent donations
func (r *PostgresRepository) ListRecent(ctx context.Context, limit int) ([]*Donation, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+donationColumns+`
		FROM donations.donations
		ORDER BY created_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, apperrors.Storage(err, "list recent donations")
	}
	defer rows.Close()
	return scanDonations(rows)
}

// Summarize aggregates total and per-purpose amounts
func (r *PostgresRepository) Summarize(ctx context.Context) (*Summary, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT purpose, COUNT(*), COALESCE(SUM(amount), 0)
		FROM donations.donations
		GROUP BY purpose`)
	if err != nil {
		return nil, apperrors.Storage(err, "summarize donations")
	}
	defer rows.Close()

	summary := &Summary{ByPurpose: make(map[Purpose]float64)}
	for rows.Next() {
		var purpose string
		var count int
		var amount float64
		if err := rows.Scan(&purpose, &count, &amount); err != nil {
			return nil, apperrors.Storage(err, "scan donation summary")
		}
		summary.ByPurpose[Purpose(purpose)] = amount
		summary.TotalAmount += amount
		summary.Count += count
	}
	return summary, rows.Err()
}

func scanDonations(rows interface {
	Next() bool
	Err() error
	Scan(dest ...any) error
}) ([]*Donation, error) {
	var donations []*Donation
	for rows.Next() {
		var d Donation
		var purpose string
		var message *string
		err := rows.Scan(
			&d.ID, &d.DonorID, &d.DonorName, &d.Amount, &d.Currency,
			&purpose, &message, &d.CreatedAt,
		)
		if err != nil {
			return nil, apperrors.Storage(err, "scan donation")
		}
		d.Purpose = Purpose(purpose)
		if message != nil {
			d.Message = *message
		}
		donations = append(donations, &d)
	}
	return donations, rows.Err()
}

func nullIfEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
