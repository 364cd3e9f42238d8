// Package migrations applies tidy's embedded SQLite schema with golang-migrate.
package migrations

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

//go:embed files/*.sql
var migrationFiles embed.FS

// ErrNoVersion means the database has never been migrated.
var ErrNoVersion = errors.New("database has no schema version (needs migration)")

// Status reports the schema version of db and the newest version embedded in
// the binary.
func Status(db *sql.DB) (current, latest uint, dirty bool, err error) {
	m, err := newMigrate(db)
	if err != nil {
		return 0, 0, false, err
	}
	// m is not closed: that would close db, which the caller owns.

	latest, err = Latest()
	if err != nil {
		return 0, 0, false, err
	}

	current, dirty, err = m.Version()
	if err != nil {
		if errors.Is(err, migrate.ErrNilVersion) {
			return 0, latest, false, ErrNoVersion
		}
		return 0, latest, false, fmt.Errorf("failed to get database version: %w", err)
	}
	return current, latest, dirty, nil
}

// Check returns nil if db is at the latest version and clean.
func Check(db *sql.DB) error {
	current, latest, dirty, err := Status(db)
	if err != nil {
		return err
	}
	switch {
	case dirty:
		return fmt.Errorf("database is in dirty state at version %d (migration failed previously)", current)
	case current < latest:
		return fmt.Errorf("database is at version %d but latest is %d", current, latest)
	case current > latest:
		return fmt.Errorf("database version %d is ahead of binary version %d (binary needs update)", current, latest)
	}
	return nil
}

// Up applies all pending migrations. An up-to-date database is not an error.
func Up(db *sql.DB) error {
	m, err := newMigrate(db)
	if err != nil {
		return err
	}
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migration failed: %w", err)
	}
	return nil
}

// Latest returns the highest migration version embedded in the binary.
func Latest() (uint, error) {
	src, err := iofs.New(migrationFiles, "files")
	if err != nil {
		return 0, fmt.Errorf("failed to read migration files: %w", err)
	}
	defer src.Close()
	return lastVersion(src)
}

func newMigrate(db *sql.DB) (*migrate.Migrate, error) {
	src, err := iofs.New(migrationFiles, "files")
	if err != nil {
		return nil, fmt.Errorf("failed to create source driver: %w", err)
	}

	driver, err := sqlite3.WithInstance(db, &sqlite3.Config{})
	if err != nil {
		src.Close()
		return nil, fmt.Errorf("failed to create database driver: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", src, "sqlite3", driver)
	if err != nil {
		src.Close()
		return nil, fmt.Errorf("failed to create migrate instance: %w", err)
	}
	return m, nil
}

func lastVersion(src source.Driver) (uint, error) {
	v, err := src.First()
	if err != nil {
		return 0, err
	}
	for {
		next, err := src.Next(v)
		if err != nil {
			// os.ErrNotExist at the end of the list
			return v, nil
		}
		v = next
	}
}
