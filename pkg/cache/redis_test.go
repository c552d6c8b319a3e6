package cache

import (
	"context"
	"errors"
	"net"
	"os"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
)

func TestClassify(t *testing.T) {
	if classify(nil) != nil {
		t.Error("classify(nil) should be nil")
	}
	if !errors.Is(classify(redis.Nil), ErrCacheMiss) {
		t.Error("redis.Nil should map to ErrCacheMiss")
	}

	netErr := classify(&net.OpError{Op: "dial", Net: "tcp", Err: errors.New("connection refused")})
	if !IsRetryable(netErr) {
		t.Error("network errors should be retryable")
	}
	if !errors.Is(netErr, ErrNetwork) {
		t.Error("network errors should wrap ErrNetwork")
	}

	other := errors.New("WRONGTYPE")
	if classify(other) != other {
		t.Error("other errors should pass through")
	}
}

// TestRedisCache runs against a live server when IMAGECOMBINER_TEST_REDIS is set.
func TestRedisCache(t *testing.T) {
	addr := os.Getenv("IMAGECOMBINER_TEST_REDIS")
	if addr == "" {
		t.Skip("IMAGECOMBINER_TEST_REDIS not set")
	}

	ctx := context.Background()
	c, err := NewRedisCache(ctx, RedisOptions{Addr: addr, Prefix: "imagecombiner-test:"})
	if err != nil {
		t.Fatalf("NewRedisCache: %v", err)
	}
	defer c.Close()

	key := "k-" + time.Now().Format(time.RFC3339Nano)
	if _, hit, err := c.Get(ctx, key); err != nil || hit {
		t.Fatalf("Get on missing key = %v, %v", hit, err)
	}
	if err := c.Set(ctx, key, []byte("value"), time.Minute); err != nil {
		t.Fatalf("Set: %v", err)
	}
	data, hit, err := c.Get(ctx, key)
	if err != nil || !hit || string(data) != "value" {
		t.Errorf("Get = %q, %v, %v", data, hit, err)
	}
	if err := c.Delete(ctx, key); err != nil {
		t.Errorf("Delete: %v", err)
	}
}
