package middleware

import (
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
)

// TestRateLimiterConcurrentAccess verifies the rate limiter is safe under concurrent access.
// Run with: go test -race -count=1 ./internal/middleware/ -run TestRateLimiterConcurrentAccess
func TestRateLimiterConcurrentAccess(t *testing.T) {
	limiter := NewRateLimiter(100, 100, "test-concurrent")
	defer limiter.Stop()

	var wg sync.WaitGroup
	// 50 goroutines each making 20 requests with varying IPs
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(goroutineID int) {
			defer wg.Done()
			for j := 0; j < 20; j++ {
				// Mix of same IP and different IPs to stress both paths
				ip := "192.168.1.1"
				if j%3 == 0 {
					ip = "10.0.0." + string(rune('0'+goroutineID%10))
				}
				allowed, wait := limiter.reserve(ip)
				_ = allowed
				_ = wait
			}
		}(i)
	}
	wg.Wait()
}

func TestRateLimiterBurstThenReject(t *testing.T) {
	limiter := NewRateLimiter(0.001, 3, "test-burst")
	defer limiter.Stop()

	for i := 0; i < 3; i++ {
		if ok, _ := limiter.reserve("1.2.3.4"); !ok {
			t.Fatalf("request %d rejected inside burst", i+1)
		}
	}

	ok, wait := limiter.reserve("1.2.3.4")
	if ok {
		t.Fatal("request beyond burst was allowed")
	}
	if wait <= 0 {
		t.Errorf("wait = %v, want > 0", wait)
	}

	if ok, _ := limiter.reserve("5.6.7.8"); !ok {
		t.Error("a different client must have its own bucket")
	}
}

func TestRateLimitMiddlewareReturnsProblem(t *testing.T) {
	gin.SetMode(gin.TestMode)

	limiter := NewRateLimiter(0.001, 1, "test-middleware")
	defer limiter.Stop()

	r := gin.New()
	r.Use(RequestID(), limiter.Middleware())
	r.GET("/ping", func(c *gin.Context) { c.Status(http.StatusOK) })

	first := httptest.NewRecorder()
	r.ServeHTTP(first, httptest.NewRequest(http.MethodGet, "/ping", nil))
	if first.Code != http.StatusOK {
		t.Fatalf("first request status = %d, want 200", first.Code)
	}

	second := httptest.NewRecorder()
	r.ServeHTTP(second, httptest.NewRequest(http.MethodGet, "/ping", nil))
	if second.Code != http.StatusTooManyRequests {
		t.Fatalf("second request status = %d, want 429", second.Code)
	}
	if second.Header().Get("Retry-After") == "" {
		t.Error("expected Retry-After header")
	}
	if ct := second.Header().Get("Content-Type"); ct != "application/problem+json" {
		t.Errorf("Content-Type = %q, want application/problem+json", ct)
	}
	if second.Header().Get("X-RateLimit-Limit") != "1" {
		t.Errorf("X-RateLimit-Limit = %q, want 1", second.Header().Get("X-RateLimit-Limit"))
	}
}

func TestRateLimiterStopEndsCleanup(t *testing.T) {
	limiter := NewAnalysisRateLimiter()

	stopped := make(chan struct{})
	go func() {
		limiter.Stop()
		limiter.Stop()
		close(stopped)
	}()

	select {
	case <-stopped:
	case <-time.After(2 * time.Second):
		t.Fatal("Stop did not return")
	}

	select {
	case <-limiter.done:
	default:
		t.Fatal("cleanup goroutine still running after Stop")
	}

	// limiting keeps working after the janitor is gone
	if ok, _ := limiter.reserve("9.9.9.9"); !ok {
		t.Error("first request after Stop should be allowed")
	}
}

func TestRateLimiterConcurrentStop(t *testing.T) {
	limiter := NewRateLimiter(10, 10, "test-stop")

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			limiter.Stop()
		}()
	}
	wg.Wait()
}
