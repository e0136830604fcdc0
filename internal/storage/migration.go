package storage

import (
	"context"
	"embed"
	"fmt"
	"sync"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// migrationLock ensures only one migration can run at a time
var migrationLock sync.Mutex

// Migrate applies all pending database migrations.
func (s *SQLiteStorage) Migrate() error {
	migrationLock.Lock()
	defer migrationLock.Unlock()

	sourceInstance, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("failed to create migration source: %w", err)
	}

	driver, err := sqlite3.WithInstance(s.db, &sqlite3.Config{})
	if err != nil {
		return fmt.Errorf("failed to create migration driver: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", sourceInstance, "sqlite3", driver)
	if err != nil {
		return fmt.Errorf("failed to create migrate instance: %w", err)
	}

	err = m.Up()
	if err != nil && err != migrate.ErrNoChange {
		return fmt.Errorf("failed to apply migrations: %w", err)
	}

	return nil
}

// MigrationStatus represents the status of an applied migration.
type MigrationStatus struct {
	Version int64
	Dirty   bool
}

// GetMigrationStatus returns the current schema version.
func (s *SQLiteStorage) GetMigrationStatus(ctx context.Context) (MigrationStatus, error) {
	var status MigrationStatus
	err := s.db.QueryRowContext(ctx,
		"SELECT version, dirty FROM schema_migrations LIMIT 1").
		Scan(&status.Version, &status.Dirty)
	if err != nil {
		return MigrationStatus{}, fmt.Errorf("failed to query migrations: %w", err)
	}
	return status, nil
}
