package cache

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

// fakeClock lets tests advance time without sleeping.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Unix(1700000000, 0)}
}

func (f *fakeClock) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.now = f.now.Add(time.Microsecond) // every observation ticks forward
	return f.now
}

func (f *fakeClock) Advance(d time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.now = f.now.Add(d)
}

func TestCache_SetAndGet(t *testing.T) {
	c := New[int](DefaultConfig("test"))

	c.Set("a", 1)

	got, ok := c.Get("a")
	if !ok {
		t.Fatal("expected a hit")
	}
	if got != 1 {
		t.Errorf("expected 1, got %d", got)
	}
}

func TestCache_MissOnAbsentKey(t *testing.T) {
	c := New[string](DefaultConfig("test"))

	if _, ok := c.Get("nope"); ok {
		t.Error("expected a miss")
	}

	stats := c.Stats()
	if stats.Misses != 1 {
		t.Errorf("expected 1 miss, got %d", stats.Misses)
	}
}

func TestCache_ExpiredEntryIsMissAndRemoved(t *testing.T) {
	clock := newFakeClock()
	c := New[int](Config{Name: "test", MaxSize: 10, DefaultTTL: time.Minute})
	c.now = clock.Now

	c.Set("a", 1)
	clock.Advance(2 * time.Minute)

	if _, ok := c.Get("a"); ok {
		t.Error("expected expired entry to miss")
	}
	if c.Len() != 0 {
		t.Errorf("expected expired entry removed, len=%d", c.Len())
	}

	stats := c.Stats()
	if stats.Expired != 1 {
		t.Errorf("expected 1 expired, got %d", stats.Expired)
	}
	if stats.Misses != 1 {
		t.Errorf("expected 1 miss, got %d", stats.Misses)
	}
}

func TestCache_ZeroTTLNeverExpires(t *testing.T) {
	clock := newFakeClock()
	c := New[int](Config{Name: "test", MaxSize: 10})
	c.now = clock.Now

	c.SetTTL("forever", 1, 0)
	clock.Advance(1000 * time.Hour)

	if _, ok := c.Get("forever"); !ok {
		t.Error("entry with ttl<=0 must never expire")
	}
}

func TestCache_LRUEvictionOnInsert(t *testing.T) {
	c := New[int](Config{Name: "test", MaxSize: 2, DefaultTTL: time.Hour})

	c.Set("a", 1)
	c.Set("b", 2)
	c.Get("a") // refresh a's recency

	c.Set("c", 3) // evicts b, the least recently accessed

	if _, ok := c.Get("b"); ok {
		t.Error("expected b to be evicted")
	}
	if _, ok := c.Get("a"); !ok {
		t.Error("expected a to survive")
	}
	if _, ok := c.Get("c"); !ok {
		t.Error("expected c to be present")
	}

	stats := c.Stats()
	if stats.Evictions != 1 {
		t.Errorf("expected 1 eviction, got %d", stats.Evictions)
	}
}

func TestCache_NeverExpiringEntryStillEvictable(t *testing.T) {
	c := New[int](Config{Name: "test", MaxSize: 2})

	c.SetTTL("a", 1, 0)
	c.SetTTL("b", 2, 0)
	c.Get("b") // a is now least recently accessed

	c.SetTTL("c", 3, 0)

	if _, ok := c.Get("a"); ok {
		t.Error("expected a evicted by recency regardless of ttl")
	}
	if _, ok := c.Get("b"); !ok {
		t.Error("expected b to survive")
	}
}

func TestCache_SetExistingKeyRefreshes(t *testing.T) {
	clock := newFakeClock()
	c := New[int](Config{Name: "test", MaxSize: 2, DefaultTTL: time.Minute})
	c.now = clock.Now

	c.Set("a", 1)
	clock.Advance(50 * time.Second)
	c.Set("a", 2) // refresh resets createdAt

	clock.Advance(30 * time.Second)

	got, ok := c.Get("a")
	if !ok {
		t.Fatal("expected refreshed entry to still be live")
	}
	if got != 2 {
		t.Errorf("expected refreshed value 2, got %d", got)
	}
}

func TestCache_SetDoesNotEvictWhenKeyExists(t *testing.T) {
	c := New[int](Config{Name: "test", MaxSize: 2})

	c.Set("a", 1)
	c.Set("b", 2)
	c.Set("a", 10) // existing key: no eviction needed

	if c.Len() != 2 {
		t.Errorf("expected 2 entries, got %d", c.Len())
	}
	if _, ok := c.Get("b"); !ok {
		t.Error("expected b untouched")
	}
}

func TestCache_SetSweepsExpiredFirst(t *testing.T) {
	clock := newFakeClock()
	c := New[int](Config{Name: "test", MaxSize: 2, DefaultTTL: time.Minute})
	c.now = clock.Now

	c.Set("a", 1)
	c.Set("b", 2)
	clock.Advance(2 * time.Minute) // both expired

	c.Set("c", 3)

	stats := c.Stats()
	if stats.Expired != 2 {
		t.Errorf("expected 2 expired via sweep, got %d", stats.Expired)
	}
	if stats.Evictions != 0 {
		t.Errorf("expected no LRU eviction when sweep made room, got %d", stats.Evictions)
	}
	if c.Len() != 1 {
		t.Errorf("expected only c, len=%d", c.Len())
	}
}

func TestCache_Delete(t *testing.T) {
	c := New[int](DefaultConfig("test"))

	c.Set("a", 1)

	if !c.Delete("a") {
		t.Error("expected delete to report presence")
	}
	if c.Delete("a") {
		t.Error("expected second delete to report absence")
	}
	if _, ok := c.Get("a"); ok {
		t.Error("expected a gone")
	}
}

func TestCache_Cleanup(t *testing.T) {
	clock := newFakeClock()
	c := New[int](Config{Name: "test", MaxSize: 10, DefaultTTL: time.Minute})
	c.now = clock.Now

	c.Set("a", 1)
	c.Set("b", 2)
	c.SetTTL("keep", 3, 0)
	clock.Advance(2 * time.Minute)

	dropped := c.Cleanup()
	if dropped != 2 {
		t.Errorf("expected 2 dropped, got %d", dropped)
	}
	if c.Len() != 1 {
		t.Errorf("expected only the never-expiring entry, len=%d", c.Len())
	}
}

func TestCache_GetOrLoad(t *testing.T) {
	c := New[string](DefaultConfig("test"))

	loads := 0
	loader := func(ctx context.Context) (string, error) {
		loads++
		return "loaded", nil
	}

	v, err := c.GetOrLoad(context.Background(), "k", loader)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if v != "loaded" {
		t.Errorf("expected loaded, got %q", v)
	}

	// Second call hits the cache
	_, _ = c.GetOrLoad(context.Background(), "k", loader)
	if loads != 1 {
		t.Errorf("expected loader called once, got %d", loads)
	}
}

func TestCache_GetOrLoad_ErrorNotCached(t *testing.T) {
	c := New[string](DefaultConfig("test"))

	loadErr := errors.New("remote down")
	_, err := c.GetOrLoad(context.Background(), "k", func(ctx context.Context) (string, error) {
		return "", loadErr
	})
	if !errors.Is(err, loadErr) {
		t.Errorf("expected loader error, got %v", err)
	}
	if _, ok := c.Get("k"); ok {
		t.Error("failed loads must not populate the cache")
	}
}

func TestCache_StatsCounters(t *testing.T) {
	c := New[int](DefaultConfig("api"))

	c.Set("a", 1)
	c.Get("a")
	c.Get("a")
	c.Get("missing")

	stats := c.Stats()
	if stats.Name != "api" {
		t.Errorf("expected name api, got %s", stats.Name)
	}
	if stats.Hits != 2 {
		t.Errorf("expected 2 hits, got %d", stats.Hits)
	}
	if stats.Misses != 1 {
		t.Errorf("expected 1 miss, got %d", stats.Misses)
	}
}

func TestCache_OnEvictHook(t *testing.T) {
	var evicted []string

	c := New[int](Config{
		Name:    "test",
		MaxSize: 1,
		OnEvict: func(name, key string) {
			evicted = append(evicted, key)
		},
	})

	c.Set("a", 1)
	c.Set("b", 2)

	if len(evicted) != 1 || evicted[0] != "a" {
		t.Errorf("expected [a] evicted, got %v", evicted)
	}
}

func TestCache_ConcurrentAccess(t *testing.T) {
	c := New[int](Config{Name: "test", MaxSize: 32, DefaultTTL: time.Minute})

	var wg sync.WaitGroup
	keys := []string{"a", "b", "c", "d", "e"}

	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				key := keys[(n+j)%len(keys)]
				c.Set(key, j)
				c.Get(key)
				if j%10 == 0 {
					c.Delete(key)
				}
			}
		}(i)
	}

	wg.Wait()

	if c.Len() > 32 {
		t.Errorf("size bound violated: %d", c.Len())
	}
}

func TestCache_Janitor(t *testing.T) {
	c := New[int](Config{Name: "test", MaxSize: 10, DefaultTTL: 10 * time.Millisecond})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	c.StartJanitor(ctx, 20*time.Millisecond)

	c.Set("a", 1)
	time.Sleep(50 * time.Millisecond)

	if c.Len() != 0 {
		t.Errorf("expected janitor to sweep expired entry, len=%d", c.Len())
	}
}
