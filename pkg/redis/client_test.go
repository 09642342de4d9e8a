package redis

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/reportello/reportello-backend/pkg/config"
)

type fakeCmdable struct {
	counts  map[string]int64
	expired map[string]time.Duration
}

func newFakeCmdable() *fakeCmdable {
	return &fakeCmdable{counts: map[string]int64{}, expired: map[string]time.Duration{}}
}

func (f *fakeCmdable) Ping(ctx context.Context) *redis.StatusCmd {
	return redis.NewStatusResult("PONG", nil)
}

func (f *fakeCmdable) Set(ctx context.Context, key string, value any, ttl time.Duration) *redis.StatusCmd {
	return redis.NewStatusResult("OK", nil)
}

func (f *fakeCmdable) Get(ctx context.Context, key string) *redis.StringCmd {
	return redis.NewStringResult("", redis.Nil)
}

func (f *fakeCmdable) Incr(ctx context.Context, key string) *redis.IntCmd {
	f.counts[key]++
	return redis.NewIntResult(f.counts[key], nil)
}

func (f *fakeCmdable) Expire(ctx context.Context, key string, ttl time.Duration) *redis.BoolCmd {
	f.expired[key] = ttl
	return redis.NewBoolResult(true, nil)
}

func (f *fakeCmdable) Del(ctx context.Context, keys ...string) *redis.IntCmd {
	return redis.NewIntResult(int64(len(keys)), nil)
}

func TestIncrWithTTLSetsExpiryOnFirstHit(t *testing.T) {
	fake := newFakeCmdable()
	client := &Client{store: fake}

	count, err := client.IncrWithTTL(context.Background(), "k", time.Minute)
	if err != nil {
		t.Fatalf("incr: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected count 1, got %d", count)
	}
	if fake.expired["k"] != time.Minute {
		t.Fatal("expected TTL applied on first increment")
	}

	count, err = client.IncrWithTTL(context.Background(), "k", time.Minute)
	if err != nil {
		t.Fatalf("incr: %v", err)
	}
	if count != 2 {
		t.Fatalf("expected count 2, got %d", count)
	}
	if len(fake.expired) != 1 {
		t.Fatal("TTL should only be set once")
	}
}

func TestKeyNamespacing(t *testing.T) {
	client := &Client{}
	if got := client.AccessSessionKey("abc"); got != "rpt:session:access:abc" {
		t.Fatalf("unexpected session key %q", got)
	}
	if got := client.RateLimitKey("login"); got != "rpt:rate_limit:login" {
		t.Fatalf("unexpected rate limit key %q", got)
	}
}

func TestOptionsFromConfigRequiresTarget(t *testing.T) {
	if _, err := optionsFromConfig(config.RedisConfig{}); err == nil {
		t.Fatal("expected error when neither url nor address set")
	}
}
