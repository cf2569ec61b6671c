package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
)

func limitedRouter(rl *RateLimiter) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/ping", rl.Middleware(), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
	return r
}

func ping(r *gin.Engine, ip string) int {
	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.RemoteAddr = ip + ":4000"
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w.Code
}

func TestRateLimiterExhaustsBucket(t *testing.T) {
	rl := NewRateLimiter(3, time.Hour)
	r := limitedRouter(rl)

	for i := 0; i < 3; i++ {
		if code := ping(r, "10.0.0.1"); code != http.StatusOK {
			t.Fatalf("request %d: status %d, want 200", i+1, code)
		}
	}
	if code := ping(r, "10.0.0.1"); code != http.StatusTooManyRequests {
		t.Fatalf("request over budget: status %d, want 429", code)
	}
}

func TestRateLimiterBucketsPerIP(t *testing.T) {
	rl := NewRateLimiter(1, time.Hour)
	r := limitedRouter(rl)

	if code := ping(r, "10.0.0.1"); code != http.StatusOK {
		t.Fatalf("first IP: status %d, want 200", code)
	}
	if code := ping(r, "10.0.0.1"); code != http.StatusTooManyRequests {
		t.Fatalf("first IP over budget: status %d, want 429", code)
	}
	// A second client is unaffected by the first one's exhaustion.
	if code := ping(r, "10.0.0.2"); code != http.StatusOK {
		t.Fatalf("second IP: status %d, want 200", code)
	}
}

func TestRateLimiterRefillsAfterInterval(t *testing.T) {
	rl := NewRateLimiter(2, time.Minute)
	r := limitedRouter(rl)

	ping(r, "10.0.0.1")
	ping(r, "10.0.0.1")
	if code := ping(r, "10.0.0.1"); code != http.StatusTooManyRequests {
		t.Fatalf("exhausted bucket: status %d, want 429", code)
	}

	// Backdate the bucket one full interval so the next request refills it.
	rl.mu.Lock()
	rl.buckets["10.0.0.1"].lastSeen = time.Now().Add(-time.Minute)
	rl.mu.Unlock()

	if code := ping(r, "10.0.0.1"); code != http.StatusOK {
		t.Fatalf("after refill: status %d, want 200", code)
	}
}

func TestRateLimiterRefillCapsAtRate(t *testing.T) {
	rl := NewRateLimiter(2, time.Minute)
	r := limitedRouter(rl)

	// Many elapsed intervals must not bank more than one bucket's worth.
	ping(r, "10.0.0.1")
	rl.mu.Lock()
	rl.buckets["10.0.0.1"].lastSeen = time.Now().Add(-time.Hour)
	rl.mu.Unlock()

	for i := 0; i < 2; i++ {
		if code := ping(r, "10.0.0.1"); code != http.StatusOK {
			t.Fatalf("request %d after long idle: status %d, want 200", i+1, code)
		}
	}
	if code := ping(r, "10.0.0.1"); code != http.StatusTooManyRequests {
		t.Fatalf("request over capped budget: status %d, want 429", code)
	}
}

func TestRateLimiterCleanupDropsStaleBuckets(t *testing.T) {
	rl := NewRateLimiter(1, time.Minute)
	r := limitedRouter(rl)

	ping(r, "10.0.0.1")
	rl.mu.Lock()
	rl.buckets["10.0.0.1"].lastSeen = time.Now().Add(-10 * time.Minute)
	rl.mu.Unlock()

	rl.cleanup()

	rl.mu.Lock()
	_, exists := rl.buckets["10.0.0.1"]
	rl.mu.Unlock()
	if exists {
		t.Fatal("stale bucket survived cleanup")
	}
}
