package services

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Row abstracts pgx.Row for testability.
type Row interface {
	Scan(dest ...any) error
}

// DBConn provides the minimum query surface for services.
type DBConn interface {
	QueryRow(ctx context.Context, sql string, args ...any) Row
}

type pgxPoolLike interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PoolAdapter wraps *pgxpool.Pool to satisfy DBConn.
type PoolAdapter struct {
	pool pgxPoolLike
}

func NewPoolAdapter(pool *pgxpool.Pool) *PoolAdapter {
	return &PoolAdapter{pool: pool}
}

func (p *PoolAdapter) QueryRow(ctx context.Context, sql string, args ...any) Row {
	return p.pool.QueryRow(ctx, sql, args...)
}
