package pricing

import (
	"sync"
	"testing"
	"time"
)

// fakeClock is a settable clock for cache and limiter tests.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func TestMemoryCacheRoundTrip(t *testing.T) {
	clock := newFakeClock()
	cache := NewMemoryCache(24*time.Hour, clock.Now)

	key := CacheKey(Lookup{Name: "Lightning Bolt", SetCode: "M10"})
	want := Quote{USD: 1.25, Priced: true, Source: "scryfall", FetchedAt: clock.Now()}
	cache.Put(key, want)

	got, ok := cache.Get(key)
	if !ok {
		t.Fatalf("expected hit")
	}
	if got != want {
		t.Errorf("got %+v, want %+v", got, want)
	}

	// Case-folded key variants hit the same entry.
	got, ok = cache.Get(CacheKey(Lookup{Name: "lightning bolt", SetCode: "m10"}))
	if !ok || got != want {
		t.Errorf("case-folded key missed: %+v ok=%v", got, ok)
	}
}

func TestMemoryCacheTTLExpiry(t *testing.T) {
	clock := newFakeClock()
	cache := NewMemoryCache(24*time.Hour, clock.Now)

	key := Key{Name: "sol ring", SetCode: "c21"}
	cache.Put(key, Quote{USD: 2, Priced: true, Source: "scryfall"})

	clock.Advance(24*time.Hour - time.Second)
	if _, ok := cache.Get(key); !ok {
		t.Fatalf("entry expired early")
	}

	clock.Advance(2 * time.Second)
	if _, ok := cache.Get(key); ok {
		t.Fatalf("entry should have expired")
	}
}

func TestMemoryCachePurgeExpired(t *testing.T) {
	clock := newFakeClock()
	cache := NewMemoryCache(time.Hour, clock.Now)

	cache.Put(Key{Name: "a"}, Quote{Priced: true})
	clock.Advance(30 * time.Minute)
	cache.Put(Key{Name: "b"}, Quote{Priced: true})
	clock.Advance(45 * time.Minute)

	if n := cache.PurgeExpired(); n != 1 {
		t.Errorf("purged %d, want 1", n)
	}
	if cache.Len() != 1 {
		t.Errorf("len = %d, want 1", cache.Len())
	}
	if _, ok := cache.Get(Key{Name: "b"}); !ok {
		t.Errorf("live entry should survive the purge")
	}
}

func TestMemoryCacheConcurrentReadersSeeWholeEntries(t *testing.T) {
	clock := newFakeClock()
	cache := NewMemoryCache(time.Hour, clock.Now)
	key := Key{Name: "x"}

	// Writers alternate between two internally-consistent quotes;
	// readers must only ever observe one of them.
	a := Quote{USD: 1, Priced: true, Source: "scryfall"}
	b := Quote{USD: 2, Priced: true, Source: "tcgplayer"}
	cache.Put(key, a)

	var wg sync.WaitGroup
	stop := make(chan struct{})
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; ; i++ {
			select {
			case <-stop:
				return
			default:
			}
			if i%2 == 0 {
				cache.Put(key, a)
			} else {
				cache.Put(key, b)
			}
		}
	}()

	for i := 0; i < 5000; i++ {
		got, ok := cache.Get(key)
		if !ok {
			t.Errorf("entry vanished")
			break
		}
		if got != a && got != b {
			t.Errorf("torn read: %+v", got)
			break
		}
	}
	close(stop)
	wg.Wait()
}

func TestLimiterEnforcesInterval(t *testing.T) {
	clock := newFakeClock()
	var slept []time.Duration
	sleep := func(d time.Duration) {
		slept = append(slept, d)
		clock.Advance(d)
	}

	limiter := NewLimiter(100*time.Millisecond, clock.Now, sleep)

	limiter.Wait() // first event never sleeps
	if len(slept) != 0 {
		t.Fatalf("first wait slept %v", slept)
	}

	clock.Advance(40 * time.Millisecond)
	limiter.Wait()
	if len(slept) != 1 || slept[0] != 60*time.Millisecond {
		t.Errorf("slept %v, want [60ms]", slept)
	}

	clock.Advance(250 * time.Millisecond)
	limiter.Wait()
	if len(slept) != 1 {
		t.Errorf("interval already elapsed, should not sleep again: %v", slept)
	}
}
