package cache

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/oklog/ulid/v2"
	goredis "github.com/redis/go-redis/v9"
)

func requireRedis(t *testing.T) *Redis {
	t.Helper()
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		t.Skip("REDIS_ADDR not set")
	}
	rdb := goredis.NewClient(&goredis.Options{Addr: addr})
	t.Cleanup(func() { _ = rdb.Close() })
	if err := rdb.Ping(context.Background()).Err(); err != nil {
		t.Skipf("redis unavailable: %v", err)
	}
	return NewRedis(rdb, "conceptgraph-test:"+ulid.Make().String()+":")
}

func TestRedisRoundTrip(t *testing.T) {
	ctx := context.Background()
	r := requireRedis(t)

	if _, ok, err := r.Get(ctx, "missing"); err != nil || ok {
		t.Fatalf("missing key: ok=%v err=%v", ok, err)
	}
	if err := r.Set(ctx, "k", []byte("v"), time.Minute); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if v, ok, err := r.Get(ctx, "k"); err != nil || !ok || string(v) != "v" {
		t.Fatalf("Get = %q, %v, %v", v, ok, err)
	}
	if n, err := r.Counter(ctx, "gen"); err != nil || n != 0 {
		t.Fatalf("fresh counter = %d, %v", n, err)
	}
	if n, err := r.Incr(ctx, "gen"); err != nil || n != 1 {
		t.Fatalf("Incr = %d, %v", n, err)
	}
	if err := r.Delete(ctx, "k", "gen"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, ok, _ := r.Get(ctx, "k"); ok {
		t.Fatalf("deleted key still present")
	}
}
