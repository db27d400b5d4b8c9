package database

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"log"
	"sort"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"

	apperrors "github.com/siren-bd/platform/internal/shared/errors"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Each schema owns its tables; the ledger of applied migrations sits
// outside all of them so it survives a schema drop during development.
const migrationsTable = "siren_schema_migrations"

// Migrate applies every pending migration in filename order. Each file
// runs in its own transaction together with its ledger row.
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	_, err := pool.Exec(ctx, fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			version VARCHAR(255) PRIMARY KEY,
			applied_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)
	`, migrationsTable))
	if err != nil {
		return apperrors.Storage(err, "create migrations ledger")
	}

	applied, err := appliedVersions(ctx, pool)
	if err != nil {
		return err
	}

	files, err := migrationFiles()
	if err != nil {
		return err
	}

	for _, file := range files {
		version := strings.TrimSuffix(file, ".sql")
		if applied[version] {
			continue
		}
		if err := applyMigration(ctx, pool, file, version); err != nil {
			return err
		}
		log.Printf("applied migration %s", version)
	}

	return nil
}

func appliedVersions(ctx context.Context, pool *pgxpool.Pool) (map[string]bool, error) {
	rows, err := pool.Query(ctx, fmt.Sprintf(`SELECT version FROM %s`, migrationsTable))
	if err != nil {
		return nil, apperrors.Storage(err, "read migrations ledger")
	}
	defer rows.Close()

	applied := make(map[string]bool)
	for rows.Next() {
		var version string
		if err := rows.Scan(&version); err != nil {
			return nil, apperrors.Storage(err, "scan migration version")
		}
		applied[version] = true
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.Storage(err, "read migrations ledger")
	}
	return applied, nil
}

func migrationFiles() ([]string, error) {
	entries, err := fs.ReadDir(migrationsFS, "migrations")
	if err != nil {
		return nil, apperrors.Storage(err, "list migrations")
	}

	var files []string
	for _, entry := range entries {
		if !entry.IsDir() && strings.HasSuffix(entry.Name(), ".sql") {
			files = append(files, entry.Name())
		}
	}
	sort.Strings(files)
	return files, nil
}

func applyMigration(ctx context.Context, pool *pgxpool.Pool, file, version string) error {
	content, err := fs.ReadFile(migrationsFS, "migrations/"+file)
	if err != nil {
		return apperrors.Storage(err, "read migration "+version)
	}

	tx, err := pool.Begin(ctx)
	if err != nil {
		return apperrors.Storage(err, "begin migration "+version)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, string(content)); err != nil {
		return apperrors.Storage(err, "apply migration "+version)
	}
	if _, err := tx.Exec(ctx, fmt.Sprintf(`INSERT INTO %s (version) VALUES ($1)`, migrationsTable), version); err != nil {
		return apperrors.Storage(err, "record migration "+version)
	}
	if err := tx.Commit(ctx); err != nil {
		return apperrors.Storage(err, "commit migration "+version)
	}
	return nil
}
