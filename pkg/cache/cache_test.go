package cache

import (
	"context"
	"errors"
	"net"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
)

func TestNullCache(t *testing.T) {
	ctx := context.Background()
	c := NewNullCache()
	defer c.Close()

	if err := c.Set(ctx, "key", []byte("value"), time.Hour); err != nil {
		t.Errorf("Set error: %v", err)
	}
	data, hit, err := c.Get(ctx, "key")
	if err != nil || hit || data != nil {
		t.Errorf("Get = %q, %v, %v; want a miss", data, hit, err)
	}
	if err := c.Delete(ctx, "key"); err != nil {
		t.Errorf("Delete error: %v", err)
	}
}

func TestHash(t *testing.T) {
	h1 := Hash([]byte("hello"))
	if h1 != Hash([]byte("hello")) {
		t.Error("Hash should be deterministic")
	}
	if h1 == Hash([]byte("world")) {
		t.Error("Different inputs should produce different hashes")
	}
	if len(h1) != 64 {
		t.Errorf("Hash length should be 64, got %d", len(h1))
	}
}

func TestHashJSON(t *testing.T) {
	type opts struct {
		Words []string
		Seed  uint64
	}
	a, err := HashJSON(opts{Words: []string{"a", "b"}, Seed: 1})
	if err != nil {
		t.Fatalf("HashJSON error: %v", err)
	}
	b, _ := HashJSON(opts{Words: []string{"a", "b"}, Seed: 1})
	c, _ := HashJSON(opts{Words: []string{"b", "a"}, Seed: 1})
	if a != b {
		t.Error("equal values should hash equally")
	}
	if a == c {
		t.Error("word order should change the hash")
	}
	if _, err := HashJSON(make(chan int)); err == nil {
		t.Error("unencodable value should fail")
	}
}

func TestDefaultKeyer(t *testing.T) {
	k := NewDefaultKeyer()

	if got := k.SceneKey("abc"); got != "scene:abc" {
		t.Errorf("SceneKey = %q", got)
	}

	svg := k.ArtifactKey("abc", ArtifactKeyOpts{Format: "svg"})
	png := k.ArtifactKey("abc", ArtifactKeyOpts{Format: "png"})
	png2 := k.ArtifactKey("abc", ArtifactKeyOpts{Format: "png", Scale: 2})
	other := k.ArtifactKey("def", ArtifactKeyOpts{Format: "svg"})
	if svg == png || png == png2 || svg == other {
		t.Error("different artifact inputs should produce different keys")
	}
	if !strings.HasPrefix(svg, "artifact:") {
		t.Errorf("ArtifactKey = %q, want artifact: prefix", svg)
	}
}

func TestScopedKeyer(t *testing.T) {
	scoped := NewScopedKeyer(NewDefaultKeyer(), "tenant:")
	if got := scoped.SceneKey("abc"); got != "tenant:scene:abc" {
		t.Errorf("SceneKey = %q", got)
	}
	if got := scoped.ArtifactKey("abc", ArtifactKeyOpts{Format: "svg"}); !strings.HasPrefix(got, "tenant:artifact:") {
		t.Errorf("ArtifactKey = %q", got)
	}

	nilInner := NewScopedKeyer(nil, "p:")
	if got := nilInner.SceneKey("x"); got != "p:scene:x" {
		t.Errorf("nil inner SceneKey = %q", got)
	}
}

func TestFileCache(t *testing.T) {
	ctx := context.Background()
	c, err := NewFileCache(filepath.Join(t.TempDir(), "cache"))
	if err != nil {
		t.Fatalf("NewFileCache error: %v", err)
	}

	if _, hit, _ := c.Get(ctx, "missing"); hit {
		t.Error("empty cache should miss")
	}
	if err := c.Set(ctx, "k", []byte("v"), 0); err != nil {
		t.Fatalf("Set error: %v", err)
	}
	data, hit, err := c.Get(ctx, "k")
	if err != nil || !hit || string(data) != "v" {
		t.Errorf("Get = %q, %v, %v; want v", data, hit, err)
	}

	if err := c.Delete(ctx, "k"); err != nil {
		t.Errorf("Delete error: %v", err)
	}
	if _, hit, _ := c.Get(ctx, "k"); hit {
		t.Error("deleted key should miss")
	}
	if err := c.Delete(ctx, "k"); err != nil {
		t.Errorf("deleting a missing key should not fail: %v", err)
	}
}

func TestFileCacheExpiry(t *testing.T) {
	ctx := context.Background()
	c, _ := NewFileCache(t.TempDir())

	if err := c.Set(ctx, "k", []byte("v"), time.Nanosecond); err != nil {
		t.Fatalf("Set error: %v", err)
	}
	time.Sleep(time.Millisecond)
	if _, hit, _ := c.Get(ctx, "k"); hit {
		t.Error("expired entry should miss")
	}
	if _, err := os.Stat(c.path("k")); !os.IsNotExist(err) {
		t.Error("expired entry should be removed")
	}
}

func TestFileCacheCorrupt(t *testing.T) {
	ctx := context.Background()
	c, _ := NewFileCache(t.TempDir())
	_ = c.Set(ctx, "k", []byte("v"), 0)

	if err := os.WriteFile(c.path("k"), []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, hit, err := c.Get(ctx, "k"); hit || err != nil {
		t.Errorf("corrupt entry: hit=%v err=%v, want a clean miss", hit, err)
	}
}

func TestFileCacheClear(t *testing.T) {
	ctx := context.Background()
	c, _ := NewFileCache(t.TempDir())
	for _, k := range []string{"a", "b", "c"} {
		_ = c.Set(ctx, k, []byte(k), 0)
	}

	n, err := c.Clear()
	if err != nil || n != 3 {
		t.Errorf("Clear = %d, %v; want 3", n, err)
	}
	if _, hit, _ := c.Get(ctx, "a"); hit {
		t.Error("cleared entry should miss")
	}
}

func TestDefaultDir(t *testing.T) {
	t.Setenv("XDG_CACHE_HOME", "/tmp/xdg")
	dir, err := DefaultDir()
	if err != nil || dir != filepath.Join("/tmp/xdg", "shapecloud") {
		t.Errorf("DefaultDir = %q, %v", dir, err)
	}
}

func TestBackoff(t *testing.T) {
	ctx := context.Background()
	b := Backoff{Attempts: 3, Delay: time.Millisecond}
	transient := Retryable(ErrUnavailable)

	calls := 0
	err := b.Do(ctx, func() error {
		calls++
		if calls < 2 {
			return transient
		}
		return nil
	})
	if err != nil || calls != 2 {
		t.Errorf("retry then succeed: err=%v calls=%d", err, calls)
	}

	calls = 0
	permanent := errors.New("permanent")
	if err := b.Do(ctx, func() error { calls++; return permanent }); err != permanent || calls != 1 {
		t.Errorf("non-retryable: err=%v calls=%d", err, calls)
	}

	calls = 0
	err = b.Do(ctx, func() error { calls++; return transient })
	if !errors.Is(err, ErrUnavailable) || calls != 3 {
		t.Errorf("exhausted: err=%v calls=%d", err, calls)
	}
}

func TestBackoffContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := Backoff{Attempts: 3, Delay: time.Hour}.Do(ctx, func() error {
		return Retryable(ErrUnavailable)
	})
	if err != context.Canceled {
		t.Errorf("Should return context error: %v", err)
	}
}

func TestRetryable(t *testing.T) {
	if Retryable(nil) != nil {
		t.Error("Retryable(nil) should return nil")
	}
	err := Retryable(ErrUnavailable)
	if !IsRetryable(err) || err.Error() != ErrUnavailable.Error() {
		t.Errorf("Retryable wrap lost information: %v", err)
	}
	if IsRetryable(ErrUnavailable) {
		t.Error("unwrapped error should not be retryable")
	}
}

// fakeRedis is an in-memory redisClient. failures makes the next n calls
// fail with a network error.
type fakeRedis struct {
	data     map[string]string
	failures int
	calls    int
}

func newFakeRedis() *fakeRedis { return &fakeRedis{data: map[string]string{}} }

func (f *fakeRedis) fail() error {
	f.calls++
	if f.failures > 0 {
		f.failures--
		return &net.OpError{Op: "dial", Net: "tcp", Err: errors.New("connection refused")}
	}
	return nil
}

func (f *fakeRedis) Get(ctx context.Context, key string) *redis.StringCmd {
	if err := f.fail(); err != nil {
		return redis.NewStringResult("", err)
	}
	v, ok := f.data[key]
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	return redis.NewStringResult(v, nil)
}

func (f *fakeRedis) Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd {
	if err := f.fail(); err != nil {
		return redis.NewStatusResult("", err)
	}
	f.data[key] = string(value.([]byte))
	return redis.NewStatusResult("OK", nil)
}

func (f *fakeRedis) Del(ctx context.Context, keys ...string) *redis.IntCmd {
	if err := f.fail(); err != nil {
		return redis.NewIntResult(0, err)
	}
	for _, k := range keys {
		delete(f.data, k)
	}
	return redis.NewIntResult(int64(len(keys)), nil)
}

func (f *fakeRedis) Close() error { return nil }

func TestRedisCache(t *testing.T) {
	ctx := context.Background()
	fake := newFakeRedis()
	c := &RedisCache{client: fake, backoff: Backoff{Attempts: 3, Delay: time.Millisecond}}

	if _, hit, err := c.Get(ctx, "k"); hit || err != nil {
		t.Errorf("missing key: hit=%v err=%v", hit, err)
	}
	if err := c.Set(ctx, "k", []byte("v"), time.Minute); err != nil {
		t.Fatalf("Set error: %v", err)
	}
	data, hit, err := c.Get(ctx, "k")
	if err != nil || !hit || string(data) != "v" {
		t.Errorf("Get = %q, %v, %v", data, hit, err)
	}
	if err := c.Delete(ctx, "k"); err != nil {
		t.Errorf("Delete error: %v", err)
	}
	if _, hit, _ := c.Get(ctx, "k"); hit {
		t.Error("deleted key should miss")
	}
}

func TestRedisCacheRetries(t *testing.T) {
	ctx := context.Background()
	fake := newFakeRedis()
	fake.data["k"] = "v"
	c := &RedisCache{client: fake, backoff: Backoff{Attempts: 3, Delay: time.Millisecond}}

	fake.failures = 2
	data, hit, err := c.Get(ctx, "k")
	if err != nil || !hit || string(data) != "v" {
		t.Errorf("Get after transient failures = %q, %v, %v", data, hit, err)
	}
	if fake.calls != 3 {
		t.Errorf("calls = %d, want 3", fake.calls)
	}

	fake.failures = 5
	if _, _, err := c.Get(ctx, "k"); !errors.Is(err, ErrUnavailable) {
		t.Errorf("Get with redis down error = %v, want ErrUnavailable", err)
	}
}

func TestNewRedisCacheBadURL(t *testing.T) {
	if _, err := NewRedisCache("not-a-url"); err == nil {
		t.Error("invalid redis url should fail")
	}
}
