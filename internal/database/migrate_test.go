package database

import (
	"errors"
	"strings"
	"testing"

	"github.com/golang-migrate/migrate/v4"
)

type fakeMigrate struct {
	upErr    error
	srcErr   error
	dbErr    error
	upCalled bool
}

func (f *fakeMigrate) Up() error {
	f.upCalled = true
	return f.upErr
}

func (f *fakeMigrate) Close() (error, error) {
	return f.srcErr, f.dbErr
}

func stubMigrate(t *testing.T, fake *fakeMigrate, newErr error) *string {
	t.Helper()
	orig := newMigrate
	t.Cleanup(func() { newMigrate = orig })
	var gotSource string
	newMigrate = func(sourceURL, dsn string) (migrator, error) {
		gotSource = sourceURL
		if newErr != nil {
			return nil, newErr
		}
		return fake, nil
	}
	return &gotSource
}

func TestNewMigrator_UsesFileSource(t *testing.T) {
	source := stubMigrate(t, &fakeMigrate{}, nil)

	if _, err := NewMigrator("postgres://x", "migrations"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if *source != "file://migrations" {
		t.Fatalf("expected file source, got %q", *source)
	}
}

func TestNewMigrator_Error(t *testing.T) {
	newErr := errors.New("bad source")
	stubMigrate(t, &fakeMigrate{}, newErr)

	_, err := NewMigrator("postgres://x", "migrations")
	if !errors.Is(err, newErr) {
		t.Fatalf("expected wrapped error, got %v", err)
	}
}

func TestMigrator_UpNoChangeIsNil(t *testing.T) {
	fake := &fakeMigrate{upErr: migrate.ErrNoChange}
	stubMigrate(t, fake, nil)

	m, err := NewMigrator("postgres://x", "migrations")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := m.Up(); err != nil {
		t.Fatalf("expected ErrNoChange to be ignored, got %v", err)
	}
	if !fake.upCalled {
		t.Fatal("expected Up to be called")
	}
}

func TestMigrator_UpAndCloseErrors(t *testing.T) {
	upErr := errors.New("dirty")
	fake := &fakeMigrate{upErr: upErr, dbErr: errors.New("db close")}
	stubMigrate(t, fake, nil)

	m, _ := NewMigrator("postgres://x", "migrations")
	if err := m.Up(); !errors.Is(err, upErr) {
		t.Fatalf("expected up error, got %v", err)
	}
	if err := m.Close(); err == nil || !strings.Contains(err.Error(), "closing migration database") {
		t.Fatalf("expected db close error, got %v", err)
	}
}
