package database

import (
	"context"
	"database/sql"
	"fmt"
	"io/fs"

	"github.com/pressly/goose/v3"
)

// MigrationStatus is one line of migration state for reporting.
type MigrationStatus struct {
	Version int64
	Path    string
	Applied bool
}

func newMigrationProvider(db *sql.DB, migrations fs.FS) (*goose.Provider, error) {
	provider, err := goose.NewProvider(goose.DialectPostgres, db, migrations)
	if err != nil {
		return nil, fmt.Errorf("goose new provider: %w", err)
	}
	return provider, nil
}

// MigrateUp applies all pending migrations and returns the paths it ran.
func MigrateUp(ctx context.Context, db *sql.DB, migrations fs.FS) ([]string, error) {
	provider, err := newMigrationProvider(db, migrations)
	if err != nil {
		return nil, err
	}

	results, err := provider.Up(ctx)
	if err != nil {
		return nil, fmt.Errorf("goose up: %w", err)
	}

	applied := make([]string, 0, len(results))
	for _, r := range results {
		applied = append(applied, r.Source.Path)
	}
	return applied, nil
}

// MigrateDown rolls back the most recent migration.
func MigrateDown(ctx context.Context, db *sql.DB, migrations fs.FS) (string, error) {
	provider, err := newMigrationProvider(db, migrations)
	if err != nil {
		return "", err
	}

	result, err := provider.Down(ctx)
	if err != nil {
		return "", fmt.Errorf("goose down: %w", err)
	}
	return result.Source.Path, nil
}

// MigrationsStatus lists every known migration and whether it is applied.
func MigrationsStatus(ctx context.Context, db *sql.DB, migrations fs.FS) ([]MigrationStatus, error) {
	provider, err := newMigrationProvider(db, migrations)
	if err != nil {
		return nil, err
	}

	statuses, err := provider.Status(ctx)
	if err != nil {
		return nil, fmt.Errorf("goose status: %w", err)
	}

	out := make([]MigrationStatus, 0, len(statuses))
	for _, s := range statuses {
		out = append(out, MigrationStatus{
			Version: s.Source.Version,
			Path:    s.Source.Path,
			Applied: s.State == goose.StateApplied,
		})
	}
	return out, nil
}
