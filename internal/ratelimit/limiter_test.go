package ratelimit

import (
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

// clientKeyGenerator generates IPv4-looking client keys.
func clientKeyGenerator() *rapid.Generator[string] {
	return rapid.StringMatching(`10\.[0-9]{1,3}\.[0-9]{1,3}\.[0-9]{1,3}`)
}

type manualClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *manualClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *manualClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newTestLimiter(config Config) (*RateLimiter, *manualClock) {
	clock := &manualClock{now: time.Unix(1700000000, 0)}
	rl := NewRateLimiter(config)
	rl.now = clock.Now
	return rl, clock
}

func testRateLimiter_BurstThenBlocked(t *rapid.T) {
	burst := rapid.IntRange(1, 50).Draw(t, "burst")
	rl, _ := newTestLimiter(Config{RPS: 1, Burst: burst, CleanupInterval: time.Hour})
	defer rl.Stop()

	key := clientKeyGenerator().Draw(t, "key")
	for i := 0; i < burst; i++ {
		if !rl.Allow(key) {
			t.Fatalf("attempt %d of burst %d should have been allowed", i+1, burst)
		}
	}
	// The clock is frozen, so nothing refills.
	if rl.Allow(key) {
		t.Fatalf("attempt beyond burst %d should have been blocked", burst)
	}
}

func TestRateLimiter_BurstThenBlocked(t *testing.T) {
	rapid.Check(t, testRateLimiter_BurstThenBlocked)
}

func FuzzRateLimiter_BurstThenBlocked(f *testing.F) {
	f.Add([]byte{0x00})
	f.Fuzz(rapid.MakeFuzz(testRateLimiter_BurstThenBlocked))
}

func testRateLimiter_KeyIndependence(t *rapid.T) {
	rl, _ := newTestLimiter(Config{RPS: 1, Burst: 3, CleanupInterval: time.Hour})
	defer rl.Stop()

	a := clientKeyGenerator().Draw(t, "a")
	b := clientKeyGenerator().Filter(func(s string) bool { return s != a }).Draw(t, "b")

	for i := 0; i < 3; i++ {
		rl.Allow(a)
	}
	if rl.Allow(a) {
		t.Fatalf("key %s should be exhausted", a)
	}
	if !rl.Allow(b) {
		t.Fatalf("key %s should be unaffected by %s", b, a)
	}
}

func TestRateLimiter_KeyIndependence(t *testing.T) {
	rapid.Check(t, testRateLimiter_KeyIndependence)
}

func TestRateLimiter_Refill(t *testing.T) {
	t.Parallel()
	rl, clock := newTestLimiter(Config{RPS: 2, Burst: 1, CleanupInterval: time.Hour})
	defer rl.Stop()

	require.True(t, rl.Allow("10.0.0.1"))
	require.False(t, rl.Allow("10.0.0.1"))
	clock.Advance(500 * time.Millisecond)
	require.True(t, rl.Allow("10.0.0.1"))
}

func TestRateLimiter_Cleanup(t *testing.T) {
	t.Parallel()
	rl, clock := newTestLimiter(Config{RPS: 1, Burst: 1, CleanupInterval: time.Minute})
	defer rl.Stop()

	rl.Allow("idle")
	clock.Advance(45 * time.Second)
	rl.Allow("active")
	clock.Advance(30 * time.Second)

	require.Equal(t, 1, rl.Cleanup())
	require.Equal(t, 1, rl.Len())
	require.Same(t, rl.GetLimiter("active"), rl.GetLimiter("active"))
}

func TestRateLimiter_ConcurrentAccess(t *testing.T) {
	t.Parallel()
	rl, _ := newTestLimiter(Config{RPS: 1, Burst: 100, CleanupInterval: time.Hour})
	defer rl.Stop()

	var allowed atomic.Int64
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 10; j++ {
				if rl.Allow("shared") {
					allowed.Add(1)
				}
			}
		}()
	}
	wg.Wait()
	require.EqualValues(t, 100, allowed.Load())
	require.Equal(t, 1, rl.Len())
}

func TestRateLimiter_StopTwice(t *testing.T) {
	t.Parallel()
	rl := NewRateLimiter(DefaultConfig)
	rl.Stop()
	rl.Stop()
}

func TestMiddleware_Returns429(t *testing.T) {
	t.Parallel()
	rl, _ := newTestLimiter(Config{RPS: 1, Burst: 2, CleanupInterval: time.Hour})
	defer rl.Stop()

	h := Middleware(rl, ClientAddress)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	send := func(remote string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/", nil)
		req.RemoteAddr = remote
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec
	}

	require.Equal(t, http.StatusNoContent, send("10.0.0.1:1111").Code)
	require.Equal(t, http.StatusNoContent, send("10.0.0.1:2222").Code)
	rec := send("10.0.0.1:3333")
	require.Equal(t, http.StatusTooManyRequests, rec.Code)
	require.Equal(t, "1", rec.Header().Get("Retry-After"))

	require.Equal(t, http.StatusNoContent, send("10.0.0.2:1111").Code)
}

func TestClientAddress(t *testing.T) {
	t.Parallel()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "192.0.2.7:5555"
	require.Equal(t, "192.0.2.7", ClientAddress(req))
	req.RemoteAddr = "no-port"
	require.Equal(t, "no-port", ClientAddress(req))
}
