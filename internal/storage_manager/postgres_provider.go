package storage_manager //nolint:revive // var-naming: using underscores for domain clarity

import (
	"context"
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
)

//go:embed migrations/*.sql
var migrationFS embed.FS

// PostgresFileProvider implements FileProvider on a single blob table. Paths
// map to rows; writes are upserts.
type PostgresFileProvider struct {
	pool *pgxpool.Pool
}

// NewPostgresFileProvider creates a provider over the given pool and applies
// any pending schema migrations.
func NewPostgresFileProvider(pool *pgxpool.Pool) (*PostgresFileProvider, error) {
	if pool == nil {
		return nil, fmt.Errorf("pgx pool is required")
	}
	if err := runMigrations(pool); err != nil {
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return &PostgresFileProvider{pool: pool}, nil
}

func runMigrations(pool *pgxpool.Pool) error {
	db := stdlib.OpenDBFromPool(pool)
	defer func() { _ = db.Close() }()

	sourceDriver, err := iofs.New(migrationFS, "migrations")
	if err != nil {
		return fmt.Errorf("create embedded migration source: %w", err)
	}

	driver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		return fmt.Errorf("create postgres driver: %w", err)
	}

	migrator, err := migrate.NewWithInstance("iofs", sourceDriver, "postgres", driver)
	if err != nil {
		return fmt.Errorf("create migrator: %w", err)
	}

	if err := migrator.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("apply migrations: %w", err)
	}
	return nil
}

// Read reads a blob by path.
func (p *PostgresFileProvider) Read(ctx context.Context, path string) ([]byte, error) {
	var data []byte
	err := p.pool.QueryRow(ctx, `SELECT data FROM blobs WHERE path = $1`, path).Scan(&data)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to read blob %s: %w", path, err)
	}
	return data, nil
}

// Write upserts a blob by path.
func (p *PostgresFileProvider) Write(ctx context.Context, path string, data []byte) error {
	_, err := p.pool.Exec(ctx, `
		INSERT INTO blobs (path, data, updated_at)
		VALUES ($1, $2, now())
		ON CONFLICT (path) DO UPDATE SET data = EXCLUDED.data, updated_at = now()`,
		path, data)
	if err != nil {
		return fmt.Errorf("failed to write blob %s: %w", path, err)
	}
	return nil
}

// Exists checks whether a blob is stored at the given path.
func (p *PostgresFileProvider) Exists(ctx context.Context, path string) (bool, error) {
	var exists bool
	err := p.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM blobs WHERE path = $1)`, path).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check blob %s: %w", path, err)
	}
	return exists, nil
}

// Delete removes a blob. Deleting a missing blob is not an error.
func (p *PostgresFileProvider) Delete(ctx context.Context, path string) error {
	_, err := p.pool.Exec(ctx, `DELETE FROM blobs WHERE path = $1`, path)
	if err != nil {
		return fmt.Errorf("failed to delete blob %s: %w", path, err)
	}
	return nil
}

// List returns blob paths with the given prefix.
func (p *PostgresFileProvider) List(ctx context.Context, prefix string) ([]string, error) {
	rows, err := p.pool.Query(ctx, `SELECT path FROM blobs WHERE path LIKE $1 || '%' ORDER BY path`, prefix)
	if err != nil {
		return nil, fmt.Errorf("failed to list blobs with prefix %s: %w", prefix, err)
	}
	defer rows.Close()

	result := []string{}
	for rows.Next() {
		var path string
		if err := rows.Scan(&path); err != nil {
			return nil, fmt.Errorf("failed to scan blob path: %w", err)
		}
		result = append(result, path)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate blob paths: %w", err)
	}
	return result, nil
}
