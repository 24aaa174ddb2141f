package database

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisOptions locates the Redis used for visitor flags and rate limits.
type RedisOptions struct {
	Addr     string
	Password string
	DB       int
	PoolSize int // zero keeps the go-redis default
}

type RedisDB struct {
	Client *redis.Client
}

var (
	newRedisClient = redis.NewClient
	pingRedis      = func(ctx context.Context, client *redis.Client) error {
		return client.Ping(ctx).Err()
	}
	closeRedis = func(client *redis.Client) error {
		return client.Close()
	}
)

func NewRedisDB(opts RedisOptions) (*RedisDB, error) {
	client := newRedisClient(&redis.Options{
		Addr:        opts.Addr,
		Password:    opts.Password,
		DB:          opts.DB,
		PoolSize:    opts.PoolSize,
		ClientName:  applicationName,
		DialTimeout: 5 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := pingRedis(ctx, client); err != nil {
		_ = closeRedis(client)
		return nil, fmt.Errorf("pinging redis at %s: %w", opts.Addr, err)
	}

	return &RedisDB{Client: client}, nil
}

func (r *RedisDB) Close() error {
	if r.Client == nil {
		return nil
	}
	return closeRedis(r.Client)
}

func (r *RedisDB) Health(ctx context.Context) error {
	return pingRedis(ctx, r.Client)
}
