package db

import (
	"database/sql"
	"errors"
	"fmt"

	"storefront-be/migrations"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

var ErrUnknownMigrationMode = errors.New("unknown migration mode")

// Migrate applies ("up") or reverts ("down") the embedded schema migrations.
func Migrate(database *sql.DB, mode string) error {
	if mode != "up" && mode != "down" {
		return fmt.Errorf("%w: %q", ErrUnknownMigrationMode, mode)
	}

	m, err := newMigrator(database)
	if err != nil {
		return err
	}

	if mode == "up" {
		err = m.Up()
	} else {
		err = m.Down()
	}

	if err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migrate %s: %w", mode, err)
	}
	return nil
}

func newMigrator(database *sql.DB) (*migrate.Migrate, error) {
	src, err := iofs.New(migrations.FS, ".")
	if err != nil {
		return nil, fmt.Errorf("open migration source: %w", err)
	}

	driver, err := postgres.WithInstance(database, &postgres.Config{})
	if err != nil {
		return nil, fmt.Errorf("open migration driver: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", src, "postgres", driver)
	if err != nil {
		return nil, fmt.Errorf("create migrator: %w", err)
	}
	return m, nil
}
