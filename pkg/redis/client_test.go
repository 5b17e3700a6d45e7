package redis

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
)

type fakeCmdable struct {
	values  map[string]string
	counts  map[string]int64
	expires map[string]time.Duration
}

func newFakeCmdable() *fakeCmdable {
	return &fakeCmdable{
		values:  map[string]string{},
		counts:  map[string]int64{},
		expires: map[string]time.Duration{},
	}
}

func (f *fakeCmdable) Ping(ctx context.Context) *redis.StatusCmd {
	cmd := redis.NewStatusCmd(ctx)
	cmd.SetVal("PONG")
	return cmd
}

func (f *fakeCmdable) Set(ctx context.Context, key string, value any, ttl time.Duration) *redis.StatusCmd {
	f.values[key] = toString(value)
	cmd := redis.NewStatusCmd(ctx)
	cmd.SetVal("OK")
	return cmd
}

func (f *fakeCmdable) Get(ctx context.Context, key string) *redis.StringCmd {
	cmd := redis.NewStringCmd(ctx)
	if val, ok := f.values[key]; ok {
		cmd.SetVal(val)
	} else {
		cmd.SetErr(redis.Nil)
	}
	return cmd
}

func (f *fakeCmdable) SetNX(ctx context.Context, key string, value any, ttl time.Duration) *redis.BoolCmd {
	cmd := redis.NewBoolCmd(ctx)
	if _, exists := f.values[key]; exists {
		cmd.SetVal(false)
		return cmd
	}
	f.values[key] = toString(value)
	cmd.SetVal(true)
	return cmd
}

func (f *fakeCmdable) Incr(ctx context.Context, key string) *redis.IntCmd {
	f.counts[key]++
	cmd := redis.NewIntCmd(ctx)
	cmd.SetVal(f.counts[key])
	return cmd
}

func (f *fakeCmdable) Expire(ctx context.Context, key string, ttl time.Duration) *redis.BoolCmd {
	f.expires[key] = ttl
	cmd := redis.NewBoolCmd(ctx)
	cmd.SetVal(true)
	return cmd
}

func (f *fakeCmdable) Del(ctx context.Context, keys ...string) *redis.IntCmd {
	var removed int64
	for _, key := range keys {
		if _, ok := f.values[key]; ok {
			delete(f.values, key)
			removed++
		}
	}
	cmd := redis.NewIntCmd(ctx)
	cmd.SetVal(removed)
	return cmd
}

func toString(value any) string {
	if s, ok := value.(string); ok {
		return s
	}
	return ""
}

func TestSetNXOnlyFirstWinner(t *testing.T) {
	client := &Client{store: newFakeCmdable()}
	ctx := context.Background()

	ok, err := client.SetNX(ctx, "k", "a", time.Minute)
	if err != nil || !ok {
		t.Fatalf("expected first SetNX to win, got ok=%v err=%v", ok, err)
	}
	ok, err = client.SetNX(ctx, "k", "b", time.Minute)
	if err != nil || ok {
		t.Fatalf("expected second SetNX to lose, got ok=%v err=%v", ok, err)
	}
}

func TestFixedWindowAllow(t *testing.T) {
	fake := newFakeCmdable()
	client := &Client{store: fake}
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		allowed, _, err := client.FixedWindowAllow(ctx, "otp:9876543210", 3, time.Minute)
		if err != nil {
			t.Fatalf("allow %d: %v", i, err)
		}
		if !allowed {
			t.Fatalf("expected request %d to be allowed", i)
		}
	}
	allowed, count, err := client.FixedWindowAllow(ctx, "otp:9876543210", 3, time.Minute)
	if err != nil {
		t.Fatalf("allow: %v", err)
	}
	if allowed || count != 4 {
		t.Fatalf("expected 4th request denied, got allowed=%v count=%d", allowed, count)
	}
}

func TestKeyNamespacing(t *testing.T) {
	client := &Client{}
	if got := client.SessionKey("abc"); got != "sf:session:abc" {
		t.Fatalf("unexpected session key %q", got)
	}
	if got := client.IdempotencyKey("checkout", "key1"); got != "sf:idempotency:checkout:key1" {
		t.Fatalf("unexpected idempotency key %q", got)
	}
	if got := client.LockKey("cron-worker"); got != "sf:lock:cron-worker" {
		t.Fatalf("unexpected lock key %q", got)
	}
}
