package database

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// applicationName tags this service's connections in pg_stat_activity and
// Redis CLIENT LIST.
const applicationName = "birthdaysurprise"

// PoolOptions sizes the Postgres pool. Zero values keep the pgx defaults.
type PoolOptions struct {
	MaxConns int32
	MinConns int32
}

// PostgresDB holds the pool backing the letters table.
type PostgresDB struct {
	Pool *pgxpool.Pool
}

var (
	parsePoolConfig = pgxpool.ParseConfig
	openPool        = pgxpool.NewWithConfig
	pingPool        = func(ctx context.Context, pool *pgxpool.Pool) error {
		return pool.Ping(ctx)
	}
	closePool = func(pool *pgxpool.Pool) {
		pool.Close()
	}
)

func NewPostgresDB(dsn string, opts PoolOptions) (*PostgresDB, error) {
	poolCfg, err := parsePoolConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parsing database config: %w", err)
	}

	if opts.MaxConns > 0 {
		poolCfg.MaxConns = opts.MaxConns
	}
	if opts.MinConns > 0 {
		poolCfg.MinConns = opts.MinConns
	}
	poolCfg.MaxConnIdleTime = 5 * time.Minute
	if poolCfg.ConnConfig != nil {
		if poolCfg.ConnConfig.RuntimeParams == nil {
			poolCfg.ConnConfig.RuntimeParams = map[string]string{}
		}
		poolCfg.ConnConfig.RuntimeParams["application_name"] = applicationName
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := openPool(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("creating connection pool: %w", err)
	}
	if err := pingPool(ctx, pool); err != nil {
		closePool(pool)
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	return &PostgresDB{Pool: pool}, nil
}

func (db *PostgresDB) Close() {
	if db.Pool != nil {
		closePool(db.Pool)
	}
}

// Health backs /ready.
func (db *PostgresDB) Health(ctx context.Context) error {
	return pingPool(ctx, db.Pool)
}
