package database

import (
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
)

type migrator interface {
	Up() error
	Close() (error, error)
}

type Migrator struct {
	m migrator
}

var newMigrate = func(sourceURL, dsn string) (migrator, error) {
	return migrate.New(sourceURL, dsn)
}

// NewMigrator builds a file-sourced migrator for the postgres DSN.
func NewMigrator(dsn, dir string) (*Migrator, error) {
	m, err := newMigrate("file://"+dir, dsn)
	if err != nil {
		return nil, fmt.Errorf("creating migrate instance: %w", err)
	}
	return &Migrator{m: m}, nil
}

// Up applies pending migrations. An already-current schema is not an error.
func (m *Migrator) Up() error {
	if err := m.m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("applying migrations: %w", err)
	}
	return nil
}

func (m *Migrator) Close() error {
	srcErr, dbErr := m.m.Close()
	if srcErr != nil {
		return fmt.Errorf("closing migration source: %w", srcErr)
	}
	if dbErr != nil {
		return fmt.Errorf("closing migration database: %w", dbErr)
	}
	return nil
}
