package sqlstore

import (
	"database/sql"
	"errors"
	"fmt"
	"io/fs"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database"
	migratemysql "github.com/golang-migrate/migrate/v4/database/mysql"
	migratepgx "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	migratesqlite "github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"

	"github.com/custodia-labs/ghminer/internal/adapters/driven/storage/sqlstore/migrations"
	"github.com/custodia-labs/ghminer/internal/core/domain"
	"github.com/custodia-labs/ghminer/internal/logger"
)

// migrateUp applies every pending migration of the dialect. The migrate
// driver owns db and closes it.
func migrateUp(db *sql.DB, d *dialect) error {
	var (
		driver database.Driver
		err    error
	)
	switch d.name {
	case domain.EngineSQLite:
		driver, err = migratesqlite.WithInstance(db, &migratesqlite.Config{})
	case domain.EnginePostgres:
		driver, err = migratepgx.WithInstance(db, &migratepgx.Config{})
	case domain.EngineMySQL:
		driver, err = migratemysql.WithInstance(db, &migratemysql.Config{})
	default:
		err = fmt.Errorf("%w: %s", domain.ErrUnsupportedEngine, d.name)
	}
	if err != nil {
		_ = db.Close()
		return fmt.Errorf("creating %s migrate driver: %w", d.name, err)
	}

	dir, err := fs.Sub(migrations.FS, d.name)
	if err != nil {
		_ = driver.Close()
		return fmt.Errorf("accessing migrations directory: %w", err)
	}
	source, err := iofs.New(dir, ".")
	if err != nil {
		_ = driver.Close()
		return fmt.Errorf("creating migration source: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", source, d.name, driver)
	if err != nil {
		_ = source.Close()
		_ = driver.Close()
		return fmt.Errorf("creating migrate instance: %w", err)
	}
	defer func() {
		_, _ = m.Close()
	}()

	version, dirty, err := m.Version()
	if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
		return fmt.Errorf("reading schema version: %w", err)
	}
	if dirty {
		return fmt.Errorf("database schema is dirty at version %d", version)
	}

	if err := m.Up(); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			return nil
		}
		return fmt.Errorf("migrating schema: %w", err)
	}
	next, _, _ := m.Version()
	logger.Debug("Migrated %s schema from version %d to %d", d.name, version, next)
	return nil
}
