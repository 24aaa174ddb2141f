package database

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
)

func stubRedis(t *testing.T, ping func(context.Context, *redis.Client) error) (*redis.Options, *int) {
	t.Helper()
	origNew, origPing, origClose := newRedisClient, pingRedis, closeRedis
	t.Cleanup(func() {
		newRedisClient, pingRedis, closeRedis = origNew, origPing, origClose
	})

	var opts redis.Options
	closes := 0
	newRedisClient = func(o *redis.Options) *redis.Client {
		opts = *o
		return &redis.Client{}
	}
	pingRedis = ping
	closeRedis = func(*redis.Client) error {
		closes++
		return nil
	}
	return &opts, &closes
}

func TestNewRedisDB_PingErrorClosesClient(t *testing.T) {
	pingErr := errors.New("connection refused")
	_, closes := stubRedis(t, func(context.Context, *redis.Client) error { return pingErr })

	_, err := NewRedisDB(RedisOptions{Addr: "cache:6379"})
	if !errors.Is(err, pingErr) {
		t.Fatalf("expected %v, got %v", pingErr, err)
	}
	if !strings.Contains(err.Error(), "pinging redis at cache:6379") {
		t.Fatalf("expected address in error, got %q", err.Error())
	}
	if *closes != 1 {
		t.Fatalf("expected client to be closed once, got %d", *closes)
	}
}

func TestNewRedisDB_PassesOptions(t *testing.T) {
	got, _ := stubRedis(t, func(context.Context, *redis.Client) error { return nil })

	db, err := NewRedisDB(RedisOptions{Addr: "cache:6380", Password: "pass", DB: 2, PoolSize: 4})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if db.Client == nil {
		t.Fatal("expected client")
	}
	if got.Addr != "cache:6380" || got.Password != "pass" || got.DB != 2 {
		t.Fatalf("unexpected connection options: %+v", *got)
	}
	if got.PoolSize != 4 {
		t.Fatalf("PoolSize = %d, want 4", got.PoolSize)
	}
	if got.ClientName != applicationName {
		t.Fatalf("ClientName = %q", got.ClientName)
	}
	if got.DialTimeout != 5*time.Second {
		t.Fatalf("DialTimeout = %v", got.DialTimeout)
	}
}

func TestRedisDB_Health(t *testing.T) {
	healthErr := errors.New("loading dataset")
	stubRedis(t, func(context.Context, *redis.Client) error { return healthErr })

	db := &RedisDB{Client: &redis.Client{}}
	if err := db.Health(context.Background()); !errors.Is(err, healthErr) {
		t.Fatalf("expected %v, got %v", healthErr, err)
	}
}

func TestRedisDB_Close(t *testing.T) {
	_, closes := stubRedis(t, nil)

	if err := (&RedisDB{}).Close(); err != nil || *closes != 0 {
		t.Fatalf("closing without a client should be a no-op, got %v (%d closes)", err, *closes)
	}
	if err := (&RedisDB{Client: &redis.Client{}}).Close(); err != nil || *closes != 1 {
		t.Fatalf("expected one close, got %v (%d closes)", err, *closes)
	}
}
