package services

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5"
)

type fakePgxRow struct {
	err error
}

func (f fakePgxRow) Scan(dest ...any) error {
	return f.err
}

type fakePgxPool struct {
	row     pgx.Row
	gotSQL  string
	gotArgs []any
}

func (f *fakePgxPool) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	f.gotSQL = sql
	f.gotArgs = args
	return f.row
}

func TestPoolAdapter_DelegatesQueryRow(t *testing.T) {
	scanErr := errors.New("scan failed")
	pool := &fakePgxPool{row: fakePgxRow{err: scanErr}}
	adapter := &PoolAdapter{pool: pool}

	if err := adapter.QueryRow(context.Background(), "SELECT $1", 1).Scan(); !errors.Is(err, scanErr) {
		t.Fatalf("expected scan error from pool row, got %v", err)
	}
	if pool.gotSQL != "SELECT $1" || len(pool.gotArgs) != 1 {
		t.Fatalf("expected query forwarded, got %q %v", pool.gotSQL, pool.gotArgs)
	}
}

func TestNewPoolAdapter_CanBeConstructed(t *testing.T) {
	if NewPoolAdapter(nil) == nil {
		t.Fatal("expected adapter")
	}
}
