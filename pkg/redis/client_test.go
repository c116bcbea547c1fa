package redis

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/landlordheaven/heaven-backend/pkg/config"
)

func TestCountHit(t *testing.T) {
	ctx := context.Background()
	fake := newFakeStore()
	client := &Client{store: fake}

	for want := int64(1); want <= 3; want++ {
		got, err := client.CountHit(ctx, "user:admin:u1", time.Minute)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got != want {
			t.Fatalf("expected count %d got %d", want, got)
		}
	}
	key := "heaven:rate_limit:user:admin:u1"
	if fake.ttl[key] != time.Minute {
		t.Fatalf("window should be set on first hit, got %v", fake.ttl[key])
	}
	if fake.expires != 1 {
		t.Fatalf("expiry should be set once, got %d", fake.expires)
	}
}

func TestAcquireLock(t *testing.T) {
	ctx := context.Background()
	client := &Client{store: newFakeStore()}

	release, err := client.Acquire(ctx, "analyze", "case-1", time.Minute)
	if err != nil {
		t.Fatalf("acquire failed: %v", err)
	}
	if _, err := client.Acquire(ctx, "analyze", "case-1", time.Minute); !errors.Is(err, ErrLockHeld) {
		t.Fatalf("expected ErrLockHeld, got %v", err)
	}
	if _, err := client.Acquire(ctx, "analyze", "case-2", time.Minute); err != nil {
		t.Fatalf("other ids should not contend: %v", err)
	}
	if err := release(ctx); err != nil {
		t.Fatalf("release failed: %v", err)
	}
	if _, err := client.Get(ctx, client.LockKey("analyze", "case-1")); !errors.Is(err, redis.Nil) {
		t.Fatalf("expected redis.Nil after release, got %v", err)
	}
}

func TestReleaseKeepsForeignLock(t *testing.T) {
	ctx := context.Background()
	fake := newFakeStore()
	client := &Client{store: fake}

	release, err := client.Acquire(ctx, "analyze", "case-1", time.Minute)
	if err != nil {
		t.Fatalf("acquire failed: %v", err)
	}
	// lock expired and was taken by someone else
	fake.data[client.LockKey("analyze", "case-1")] = "other-holder"
	if err := release(ctx); err != nil {
		t.Fatalf("release failed: %v", err)
	}
	if got, _ := client.Get(ctx, client.LockKey("analyze", "case-1")); got != "other-holder" {
		t.Fatalf("release must not delete a foreign lock, got %q", got)
	}
}

func TestMarkProcessed(t *testing.T) {
	ctx := context.Background()
	client := &Client{store: newFakeStore()}

	first, err := client.MarkProcessed(ctx, "stripe", "evt_1", time.Hour)
	if err != nil || !first {
		t.Fatalf("expected first delivery to be new, got %v %v", first, err)
	}
	again, err := client.MarkProcessed(ctx, "stripe", "evt_1", time.Hour)
	if err != nil || again {
		t.Fatalf("expected duplicate delivery to be rejected, got %v %v", again, err)
	}
}

func TestUninitializedClient(t *testing.T) {
	var c *Client
	if err := c.Ping(context.Background()); !errors.Is(err, errNotInitialized) {
		t.Fatalf("expected not initialized, got %v", err)
	}
	if _, err := (&Client{}).CountHit(context.Background(), "k", time.Second); !errors.Is(err, errNotInitialized) {
		t.Fatalf("expected not initialized, got %v", err)
	}
	if err := c.Close(); err != nil {
		t.Fatalf("close on nil client: %v", err)
	}
}

func TestKeyBuilders(t *testing.T) {
	client := &Client{}
	if got := client.IdempotencyKey("scope", "id"); got != "heaven:idempotency:scope:id" {
		t.Fatalf("unexpected idempotency key %s", got)
	}
	if got := client.RateLimitKey("ip:admin:203.0.113.9"); got != "heaven:rate_limit:ip:admin:203.0.113.9" {
		t.Fatalf("unexpected rate limit key %s", got)
	}
	if got := client.LockKey("analyze", " case "); got != "heaven:lock:analyze:case" {
		t.Fatalf("unexpected lock key %s", got)
	}
	if got := client.WebhookEventKey("stripe", ""); got != "heaven:webhook:stripe" {
		t.Fatalf("empty parts should be skipped, got %s", got)
	}
}

func TestOptionsFromConfig(t *testing.T) {
	opts, err := optionsFromConfig(config.RedisConfig{
		URL:         "redis://:secret@cache.internal:6380/2",
		DB:          5,
		PoolSize:    20,
		DialTimeout: 3 * time.Second,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if opts.Addr != "cache.internal:6380" || opts.Password != "secret" {
		t.Fatalf("unexpected address/password %s %s", opts.Addr, opts.Password)
	}
	if opts.DB != 2 {
		t.Fatalf("url db should win, got %d", opts.DB)
	}
	if opts.PoolSize != 20 || opts.DialTimeout != 3*time.Second {
		t.Fatalf("config should fill unset values, got pool=%d dial=%v", opts.PoolSize, opts.DialTimeout)
	}

	opts, err = optionsFromConfig(config.RedisConfig{Address: "localhost:6379", DB: 1})
	if err != nil || opts.Addr != "localhost:6379" || opts.DB != 1 {
		t.Fatalf("unexpected address options %+v %v", opts, err)
	}

	if _, err := optionsFromConfig(config.RedisConfig{}); err == nil {
		t.Fatalf("expected error without url or address")
	}
}

// fakeStore keeps strings in memory and runs the package's scripts natively.
type fakeStore struct {
	data    map[string]string
	counts  map[string]int64
	ttl     map[string]time.Duration
	expires int
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		data:   make(map[string]string),
		counts: make(map[string]int64),
		ttl:    make(map[string]time.Duration),
	}
}

func (f *fakeStore) Ping(context.Context) *redis.StatusCmd {
	return redis.NewStatusResult("PONG", nil)
}

func (f *fakeStore) Get(_ context.Context, key string) *redis.StringCmd {
	v, ok := f.data[key]
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	return redis.NewStringResult(v, nil)
}

func (f *fakeStore) SetNX(_ context.Context, key string, value any, _ time.Duration) *redis.BoolCmd {
	if _, exists := f.data[key]; exists {
		return redis.NewBoolResult(false, nil)
	}
	f.data[key] = fmt.Sprint(value)
	return redis.NewBoolResult(true, nil)
}

func (f *fakeStore) Del(_ context.Context, keys ...string) *redis.IntCmd {
	var n int64
	for _, key := range keys {
		if _, ok := f.data[key]; ok {
			delete(f.data, key)
			n++
		}
	}
	return redis.NewIntResult(n, nil)
}

func (f *fakeStore) EvalSha(ctx context.Context, sha string, keys []string, args ...any) *redis.Cmd {
	switch sha {
	case hitScript.Hash():
		f.counts[keys[0]]++
		if f.counts[keys[0]] == 1 {
			f.ttl[keys[0]] = time.Duration(args[0].(int64)) * time.Millisecond
			f.expires++
		}
		return redis.NewCmdResult(f.counts[keys[0]], nil)
	case releaseScript.Hash():
		if f.data[keys[0]] != fmt.Sprint(args[0]) {
			return redis.NewCmdResult(int64(0), nil)
		}
		return redis.NewCmdResult(f.Del(ctx, keys[0]).Val(), nil)
	}
	return redis.NewCmdResult(nil, errors.New("NOSCRIPT unknown script"))
}

func (f *fakeStore) Eval(context.Context, string, []string, ...any) *redis.Cmd {
	return redis.NewCmdResult(nil, errors.New("eval not supported"))
}

func (f *fakeStore) EvalRO(ctx context.Context, script string, keys []string, args ...any) *redis.Cmd {
	return f.Eval(ctx, script, keys, args...)
}

func (f *fakeStore) EvalShaRO(ctx context.Context, sha string, keys []string, args ...any) *redis.Cmd {
	return f.EvalSha(ctx, sha, keys, args...)
}

func (f *fakeStore) ScriptExists(_ context.Context, hashes ...string) *redis.BoolSliceCmd {
	return redis.NewBoolSliceResult(make([]bool, len(hashes)), nil)
}

func (f *fakeStore) ScriptLoad(context.Context, string) *redis.StringCmd {
	return redis.NewStringResult("", nil)
}
