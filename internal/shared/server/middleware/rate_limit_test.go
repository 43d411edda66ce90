package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
)

func TestRateLimitAllowsBurstThenRejects(t *testing.T) {
	gin.SetMode(gin.TestMode)
	now := time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC)
	limiter := NewRateLimiter(func() time.Time { return now })

	r := gin.New()
	r.Use(RateLimit(limiter, "analyze", RateLimitRule{Rate: 1, Burst: 2}))
	r.POST("/api/v1/documents/:id/analyze", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})

	for i := 0; i < 2; i++ {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/documents/doc-1/analyze", nil)
		resp := httptest.NewRecorder()
		r.ServeHTTP(resp, req)
		if resp.Code != http.StatusOK {
			t.Fatalf("request %d expected 200, got %d", i+1, resp.Code)
		}
	}

	req := httptest.NewRequest(http.MethodPost, "/api/v1/documents/doc-1/analyze", nil)
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)
	if resp.Code != http.StatusTooManyRequests {
		t.Fatalf("request 3 expected 429, got %d", resp.Code)
	}
	if resp.Header().Get("Retry-After") == "" {
		t.Fatal("expected Retry-After header on 429")
	}
}

func TestRateLimitRefillsOverTime(t *testing.T) {
	gin.SetMode(gin.TestMode)
	now := time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC)
	limiter := NewRateLimiter(func() time.Time { return now })

	rule := RateLimitRule{Rate: 1, Burst: 1}
	if allowed, _ := limiter.Allow("client|analyze", rule); !allowed {
		t.Fatal("expected first request allowed")
	}
	if allowed, retryAfter := limiter.Allow("client|analyze", rule); allowed || retryAfter <= 0 {
		t.Fatalf("expected rejection with positive retry-after, got allowed=%v retry=%s", allowed, retryAfter)
	}

	now = now.Add(1100 * time.Millisecond)
	if allowed, _ := limiter.Allow("client|analyze", rule); !allowed {
		t.Fatal("expected request allowed after refill")
	}
}

func TestRateLimitKeysSeparateGroups(t *testing.T) {
	gin.SetMode(gin.TestMode)
	now := time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC)
	limiter := NewRateLimiter(func() time.Time { return now })

	rule := RateLimitRule{Rate: 1, Burst: 1}
	if allowed, _ := limiter.Allow("client|analyze", rule); !allowed {
		t.Fatal("expected analyze request allowed")
	}
	if allowed, _ := limiter.Allow("client|reads", rule); !allowed {
		t.Fatal("expected reads bucket unaffected by analyze bucket")
	}
}
