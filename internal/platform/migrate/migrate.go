// Package migrate applies the embedded schema migrations with goose.
// PostgreSQL and SQLite each have their own migration set with the same
// version numbers, so both backends always share one logical schema.
package migrate

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"

	"github.com/pressly/goose/v3"
)

//go:embed sql/postgres/*.sql sql/sqlite/*.sql
var migrationFS embed.FS

// Supported database drivers, matching config database.driver.
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// ErrUnknownCommand is returned by Run for commands other than up, down,
// status and version.
var ErrUnknownCommand = errors.New("unknown migration command")

// Migrator runs migrations for one database.
type Migrator struct {
	provider *goose.Provider
	logger   *slog.Logger
}

// New creates a Migrator for db using the migration set of driver.
func New(db *sql.DB, driver string, logger *slog.Logger) (*Migrator, error) {
	var (
		dialect goose.Dialect
		dir     string
	)
	switch driver {
	case DriverPostgres:
		dialect, dir = goose.DialectPostgres, "sql/postgres"
	case DriverSQLite:
		dialect, dir = goose.DialectSQLite3, "sql/sqlite"
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}

	fsys, err := fs.Sub(migrationFS, dir)
	if err != nil {
		return nil, fmt.Errorf("failed to open embedded migrations: %w", err)
	}

	provider, err := goose.NewProvider(dialect, db, fsys)
	if err != nil {
		return nil, fmt.Errorf("failed to create migration provider: %w", err)
	}

	if logger == nil {
		logger = slog.Default()
	}
	return &Migrator{
		provider: provider,
		logger:   logger.With("component", "migrator", "driver", driver),
	}, nil
}

// Up applies all pending migrations.
func (m *Migrator) Up(ctx context.Context) error {
	results, err := m.provider.Up(ctx)
	for _, r := range results {
		m.logResult(r)
	}
	if err != nil {
		return fmt.Errorf("failed to apply migrations: %w", err)
	}
	m.logger.Info("migrations applied", "count", len(results))
	return nil
}

// Down rolls back the most recent migration.
func (m *Migrator) Down(ctx context.Context) error {
	result, err := m.provider.Down(ctx)
	if result != nil {
		m.logResult(result)
	}
	if err != nil {
		return fmt.Errorf("failed to roll back migration: %w", err)
	}
	return nil
}

// Status logs the state of every known migration.
func (m *Migrator) Status(ctx context.Context) error {
	statuses, err := m.provider.Status(ctx)
	if err != nil {
		return fmt.Errorf("failed to read migration status: %w", err)
	}
	for _, s := range statuses {
		m.logger.Info("migration",
			"version", s.Source.Version,
			"path", s.Source.Path,
			"state", string(s.State),
			"applied_at", s.AppliedAt)
	}
	return nil
}

// Version returns the current schema version.
func (m *Migrator) Version(ctx context.Context) (int64, error) {
	v, err := m.provider.GetDBVersion(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to read schema version: %w", err)
	}
	return v, nil
}

// Run executes a migration command by name.
func (m *Migrator) Run(ctx context.Context, command string) error {
	switch command {
	case "up":
		return m.Up(ctx)
	case "down":
		return m.Down(ctx)
	case "status":
		return m.Status(ctx)
	case "version":
		v, err := m.Version(ctx)
		if err != nil {
			return err
		}
		m.logger.Info("current schema version", "version", v)
		return nil
	default:
		return fmt.Errorf("%w: %s (expected up, down, status or version)", ErrUnknownCommand, command)
	}
}

func (m *Migrator) logResult(r *goose.MigrationResult) {
	attrs := []any{
		"version", r.Source.Version,
		"path", r.Source.Path,
		"direction", r.Direction,
		"duration", r.Duration,
	}
	if r.Error != nil {
		m.logger.Error("migration failed", append(attrs, "error", r.Error)...)
		return
	}
	m.logger.Info("migration applied", attrs...)
}
