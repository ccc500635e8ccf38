package cache

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/matzehuels/archmap/pkg/observability"
)

func TestNullCache(t *testing.T) {
	ctx := context.Background()
	c := NewNullCache()
	defer c.Close()

	if err := c.Set(ctx, "key", []byte("value"), time.Hour); err != nil {
		t.Fatalf("Set error: %v", err)
	}
	data, hit, err := c.Get(ctx, "key")
	if err != nil {
		t.Fatalf("Get error: %v", err)
	}
	if hit || data != nil {
		t.Error("NullCache should not store data")
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

func TestDefaultKeyer(t *testing.T) {
	k := NewDefaultKeyer()

	if got := k.AnalysisKey("abc"); got != "analysis:abc" {
		t.Errorf("AnalysisKey = %q", got)
	}
	if got := k.LastAnalysisKey("cli"); got != "last:cli" {
		t.Errorf("LastAnalysisKey = %q", got)
	}

	e1 := k.ElementsKey("h1", ElementsKeyOpts{})
	e2 := k.ElementsKey("h1", ElementsKeyOpts{Palette: "custom"})
	e3 := k.ElementsKey("h2", ElementsKeyOpts{})
	if e1 == e2 || e1 == e3 {
		t.Error("ElementsKey should vary with hash and options")
	}
	if e1 != k.ElementsKey("h1", ElementsKeyOpts{}) {
		t.Error("ElementsKey should be deterministic")
	}
	if !strings.HasPrefix(e1, "elements:") {
		t.Errorf("ElementsKey prefix: %q", e1)
	}
}

func TestScopedKeyer(t *testing.T) {
	inner := NewDefaultKeyer()
	k := NewScopedKeyer(inner, "staging:")

	if got := k.AnalysisKey("abc"); got != "staging:analysis:abc" {
		t.Errorf("AnalysisKey = %q", got)
	}
	if got := k.LastAnalysisKey("c1"); got != "staging:last:c1" {
		t.Errorf("LastAnalysisKey = %q", got)
	}
	want := "staging:" + inner.ElementsKey("h", ElementsKeyOpts{})
	if got := k.ElementsKey("h", ElementsKeyOpts{}); got != want {
		t.Errorf("ElementsKey = %q, want %q", got, want)
	}

	if NewScopedKeyer(nil, "x:").AnalysisKey("a") != "x:analysis:a" {
		t.Error("nil inner keyer should fall back to the default keyer")
	}
}

func TestKeyType(t *testing.T) {
	tests := map[string]string{
		"analysis:abc":         "analysis",
		"last:cli":             "last",
		"elements:ff00":        "elements",
		"nocolon":              "other",
		":leading":             "other",
		"staging:analysis:abc": "staging",
	}
	for key, want := range tests {
		if got := KeyType(key); got != want {
			t.Errorf("KeyType(%q) = %q, want %q", key, got, want)
		}
	}
}

func TestFileCache(t *testing.T) {
	ctx := context.Background()
	c, err := NewFileCache(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileCache: %v", err)
	}

	if _, hit, _ := c.Get(ctx, "k"); hit {
		t.Fatal("empty cache should miss")
	}
	if err := c.Set(ctx, "k", []byte("v"), 0); err != nil {
		t.Fatalf("Set: %v", err)
	}
	data, hit, err := c.Get(ctx, "k")
	if err != nil || !hit || string(data) != "v" {
		t.Fatalf("Get = %q, %v, %v", data, hit, err)
	}
	if n, _ := c.Entries(); n != 1 {
		t.Errorf("Entries = %d, want 1", n)
	}

	if err := c.Delete(ctx, "k"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if err := c.Delete(ctx, "k"); err != nil {
		t.Errorf("Delete of missing key: %v", err)
	}
	if _, hit, _ := c.Get(ctx, "k"); hit {
		t.Error("deleted key should miss")
	}
}

func TestFileCacheExpiry(t *testing.T) {
	ctx := context.Background()
	c, _ := NewFileCache(t.TempDir())

	if err := c.Set(ctx, "k", []byte("v"), time.Nanosecond); err != nil {
		t.Fatal(err)
	}
	time.Sleep(5 * time.Millisecond)
	if _, hit, _ := c.Get(ctx, "k"); hit {
		t.Error("expired entry should miss")
	}
	if n, _ := c.Entries(); n != 0 {
		t.Errorf("expired entry should be removed, %d left", n)
	}
}

func TestFileCacheCorruptEntry(t *testing.T) {
	ctx := context.Background()
	c, _ := NewFileCache(t.TempDir())

	_ = c.Set(ctx, "k", []byte("v"), 0)
	if err := os.WriteFile(c.path("k"), []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, hit, err := c.Get(ctx, "k"); hit || err != nil {
		t.Errorf("corrupt entry: hit=%v err=%v", hit, err)
	}
	if _, err := os.Stat(c.path("k")); !os.IsNotExist(err) {
		t.Error("corrupt entry should be removed")
	}
}

func TestFileCacheClear(t *testing.T) {
	ctx := context.Background()
	dir := filepath.Join(t.TempDir(), "cache")
	c, _ := NewFileCache(dir)

	for _, k := range []string{"a", "b", "c"} {
		_ = c.Set(ctx, k, []byte(k), 0)
	}
	if err := c.Clear(ctx); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	if n, _ := c.Entries(); n != 0 {
		t.Errorf("Entries after Clear = %d", n)
	}
	if _, err := os.Stat(dir); err != nil {
		t.Errorf("directory should survive Clear: %v", err)
	}
}

func TestMemoryCache(t *testing.T) {
	ctx := context.Background()
	c, err := NewMemoryCache(2)
	if err != nil {
		t.Fatal(err)
	}

	_ = c.Set(ctx, "a", []byte("1"), 0)
	_ = c.Set(ctx, "b", []byte("2"), 0)
	_, _, _ = c.Get(ctx, "a")
	_ = c.Set(ctx, "c", []byte("3"), 0)

	if _, hit, _ := c.Get(ctx, "b"); hit {
		t.Error("least recently used entry should be evicted")
	}
	if data, hit, _ := c.Get(ctx, "a"); !hit || string(data) != "1" {
		t.Errorf("a = %q, %v", data, hit)
	}
	if c.Len() != 2 {
		t.Errorf("Len = %d, want 2", c.Len())
	}

	if err := c.Clear(ctx); err != nil || c.Len() != 0 {
		t.Errorf("Clear: err=%v len=%d", err, c.Len())
	}
}

func TestMemoryCacheCopiesValues(t *testing.T) {
	ctx := context.Background()
	c, _ := NewMemoryCache(0)

	buf := []byte("abc")
	_ = c.Set(ctx, "k", buf, 0)
	buf[0] = 'x'

	data, _, _ := c.Get(ctx, "k")
	if string(data) != "abc" {
		t.Errorf("stored value changed with caller buffer: %q", data)
	}
	data[1] = 'y'
	again, _, _ := c.Get(ctx, "k")
	if string(again) != "abc" {
		t.Errorf("stored value changed with returned buffer: %q", again)
	}
}

func TestMemoryCacheExpiry(t *testing.T) {
	ctx := context.Background()
	c, _ := NewMemoryCache(4)
	now := time.Unix(1000, 0)
	c.now = func() time.Time { return now }

	_ = c.Set(ctx, "k", []byte("v"), time.Minute)
	if _, hit, _ := c.Get(ctx, "k"); !hit {
		t.Fatal("fresh entry should hit")
	}
	now = now.Add(2 * time.Minute)
	if _, hit, _ := c.Get(ctx, "k"); hit {
		t.Error("expired entry should miss")
	}
	if c.Len() != 0 {
		t.Error("expired entry should be removed")
	}
}

type point struct {
	X, Y int
}

func TestJSONHelpers(t *testing.T) {
	ctx := context.Background()
	c, _ := NewMemoryCache(4)

	if err := SetJSON(ctx, c, "p", point{1, 2}, 0); err != nil {
		t.Fatal(err)
	}
	var p point
	ok, err := GetJSON(ctx, c, "p", &p)
	if err != nil || !ok || p != (point{1, 2}) {
		t.Fatalf("GetJSON = %+v, %v, %v", p, ok, err)
	}

	ok, err = GetJSON(ctx, c, "missing", &p)
	if ok || err != nil {
		t.Errorf("missing key: ok=%v err=%v", ok, err)
	}

	_ = c.Set(ctx, "bad", []byte("{"), 0)
	if ok, err := GetJSON(ctx, c, "bad", &p); ok || err != nil {
		t.Errorf("undecodable entry: ok=%v err=%v", ok, err)
	}
	if _, hit, _ := c.Get(ctx, "bad"); hit {
		t.Error("undecodable entry should be deleted")
	}
}

type countingHooks struct {
	observability.NoopCacheHooks
	hits, misses, sets atomic.Int32
	lastType           atomic.Value
}

func (h *countingHooks) OnCacheHit(_ context.Context, keyType string) {
	h.hits.Add(1)
	h.lastType.Store(keyType)
}

func (h *countingHooks) OnCacheMiss(_ context.Context, keyType string) {
	h.misses.Add(1)
	h.lastType.Store(keyType)
}

func (h *countingHooks) OnCacheSet(_ context.Context, keyType string, _ int) {
	h.sets.Add(1)
	h.lastType.Store(keyType)
}

func TestInstrumented(t *testing.T) {
	hooks := &countingHooks{}
	observability.SetCacheHooks(hooks)
	defer observability.Reset()

	ctx := context.Background()
	mem, _ := NewMemoryCache(4)
	c := Instrument(mem)
	if Instrument(c) != c {
		t.Error("Instrument should not double wrap")
	}

	_, _, _ = c.Get(ctx, "analysis:a")
	_ = c.Set(ctx, "analysis:a", []byte("x"), 0)
	_, _, _ = c.Get(ctx, "analysis:a")

	if hooks.hits.Load() != 1 || hooks.misses.Load() != 1 || hooks.sets.Load() != 1 {
		t.Errorf("hits=%d misses=%d sets=%d", hooks.hits.Load(), hooks.misses.Load(), hooks.sets.Load())
	}
	if got := hooks.lastType.Load(); got != "analysis" {
		t.Errorf("key type = %v", got)
	}

	if err := c.(Clearer).Clear(ctx); err != nil || mem.Len() != 0 {
		t.Errorf("Clear through wrapper: err=%v len=%d", err, mem.Len())
	}
}

func TestNewRedisCacheErrors(t *testing.T) {
	ctx := context.Background()

	if _, err := NewRedisCache(ctx, RedisOptions{URL: "http://nope"}); err == nil {
		t.Error("expected error for non-redis URL")
	}

	_, err := NewRedisCache(ctx, RedisOptions{
		URL:             "redis://127.0.0.1:1/0",
		ConnectAttempts: 1,
		RetryDelay:      time.Millisecond,
	})
	if !errors.Is(err, ErrUnavailable) {
		t.Errorf("unreachable server: got %v, want ErrUnavailable", err)
	}
}

func TestRetryable(t *testing.T) {
	if Retryable(nil) != nil {
		t.Error("Retryable(nil) should be nil")
	}
	base := errors.New("boom")
	err := Retryable(base)
	if !IsRetryable(err) || !errors.Is(err, base) {
		t.Error("Retryable should wrap and be detectable")
	}
	if IsRetryable(base) {
		t.Error("plain error is not retryable")
	}
}

func TestRetryWithBackoff(t *testing.T) {
	ctx := context.Background()

	t.Run("success after retries", func(t *testing.T) {
		calls := 0
		err := RetryWithBackoff(ctx, 3, time.Millisecond, func() error {
			calls++
			if calls < 3 {
				return Retryable(errors.New("temporary"))
			}
			return nil
		})
		if err != nil || calls != 3 {
			t.Errorf("err=%v calls=%d", err, calls)
		}
	})

	t.Run("non-retryable stops", func(t *testing.T) {
		calls := 0
		err := RetryWithBackoff(ctx, 3, time.Millisecond, func() error {
			calls++
			return errors.New("permanent")
		})
		if err == nil || calls != 1 {
			t.Errorf("err=%v calls=%d", err, calls)
		}
	})

	t.Run("attempts exhausted", func(t *testing.T) {
		calls := 0
		err := RetryWithBackoff(ctx, 2, time.Millisecond, func() error {
			calls++
			return Retryable(errors.New("temporary"))
		})
		if !IsRetryable(err) || calls != 2 {
			t.Errorf("err=%v calls=%d", err, calls)
		}
	})

	t.Run("context cancelled", func(t *testing.T) {
		cctx, cancel := context.WithCancel(ctx)
		cancel()
		err := RetryWithBackoff(cctx, 3, time.Hour, func() error {
			return Retryable(errors.New("temporary"))
		})
		if !errors.Is(err, context.Canceled) {
			t.Errorf("err=%v, want context.Canceled", err)
		}
	})
}
