package storage

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database"
	migratepgx "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

//go:embed migrations/sqlite/*.sql migrations/postgres/*.sql
var migrationsFS embed.FS

// MigrateSQLite brings the database file at path to the latest schema.
func MigrateSQLite(path string) error {
	// Separate connection: the migrate driver closes it when done.
	db, err := sql.Open(SQLite.Driver, sqliteDSN(path))
	if err != nil {
		return fmt.Errorf("open migration database: %w", err)
	}
	driver, err := sqlite.WithInstance(db, &sqlite.Config{})
	if err != nil {
		db.Close()
		return fmt.Errorf("create sqlite driver: %w", err)
	}
	return runMigrations(driver, SQLite)
}

// MigratePostgres brings the database described by dsn to the latest schema.
func MigratePostgres(dsn string) error {
	db, err := openPgx(dsn)
	if err != nil {
		return err
	}
	driver, err := migratepgx.WithInstance(db, &migratepgx.Config{})
	if err != nil {
		db.Close()
		return fmt.Errorf("create postgres driver: %w", err)
	}
	return runMigrations(driver, Postgres)
}

func runMigrations(driver database.Driver, d Dialect) error {
	src, err := iofs.New(migrationsFS, "migrations/"+d.Name)
	if err != nil {
		driver.Close()
		return fmt.Errorf("create iofs source: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", src, d.Name, driver)
	if err != nil {
		driver.Close()
		return fmt.Errorf("create migrate instance: %w", err)
	}
	defer m.Close()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("run migrations: %w", err)
	}
	return nil
}
