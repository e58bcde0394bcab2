package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/kanban-collab/kanban-backend/internal/auth"
	"github.com/kanban-collab/kanban-backend/internal/logging"
)

func TestRateLimiter_Allow(t *testing.T) {
	l := NewRateLimiter(1, 2)
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return now }

	assert.True(t, l.Allow("a"))
	assert.True(t, l.Allow("a"))
	assert.False(t, l.Allow("a"), "burst exhausted")
	assert.True(t, l.Allow("b"), "buckets are per key")

	now = now.Add(time.Second)
	assert.True(t, l.Allow("a"), "one token refilled")
}

func TestRateLimiter_KeepsNewBucket(t *testing.T) {
	l := NewRateLimiter(0.001, 1)

	allowed := 0
	for i := 0; i < 5; i++ {
		if l.Allow("u1") {
			allowed++
		}
	}
	assert.Equal(t, 1, allowed)

	l.mu.Lock()
	defer l.mu.Unlock()
	require.Contains(t, l.limiters, "u1")
	assert.False(t, l.limiters["u1"].lastSeen.IsZero())
}

func TestRateLimiter_SweepsIdleBuckets(t *testing.T) {
	l := NewRateLimiter(1, 1)
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return now }

	l.Allow("old")
	now = now.Add(limiterIdleTTL + time.Minute)
	l.Allow("new")

	l.mu.Lock()
	defer l.mu.Unlock()
	_, ok := l.limiters["old"]
	assert.False(t, ok)
	assert.Len(t, l.limiters, 1)
}

func TestRateLimiter_Middleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	l := NewRateLimiter(0.001, 1)

	r := gin.New()
	r.Use(func(c *gin.Context) {
		if uid := c.GetHeader("X-User-Id"); uid != "" {
			c.Set(auth.CtxUserID, uid)
		}
		c.Next()
	})
	r.Use(l.Middleware())
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	send := func(user string) int {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		if user != "" {
			req.Header.Set("X-User-Id", user)
		}
		rr := httptest.NewRecorder()
		r.ServeHTTP(rr, req)
		return rr.Code
	}

	assert.Equal(t, http.StatusNoContent, send("u1"))
	assert.Equal(t, http.StatusTooManyRequests, send("u1"))
	assert.Equal(t, http.StatusNoContent, send("u2"))
	assert.Equal(t, http.StatusNoContent, send(""))
	assert.Equal(t, http.StatusTooManyRequests, send(""))
}

func TestRequestIDMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	core, logs := observer.New(zap.InfoLevel)

	var seen string
	r := gin.New()
	r.Use(RequestIDMiddleware(zap.New(core)))
	r.GET("/ping", func(c *gin.Context) {
		seen = logging.RequestID(c.Request.Context())
		c.Status(http.StatusOK)
	})

	t.Run("echoes incoming id", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/ping", nil)
		req.Header.Set("X-Request-Id", "req-123")
		rr := httptest.NewRecorder()
		r.ServeHTTP(rr, req)

		assert.Equal(t, "req-123", rr.Header().Get("X-Request-Id"))
		assert.Equal(t, "req-123", seen)
	})

	t.Run("generates id when absent", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/ping", nil)
		rr := httptest.NewRecorder()
		r.ServeHTTP(rr, req)

		rid := rr.Header().Get("X-Request-Id")
		assert.Len(t, rid, 32)
		assert.Equal(t, rid, seen)
	})

	entries := logs.FilterMessage("request").All()
	require.Len(t, entries, 2)
	fields := entries[0].ContextMap()
	assert.Equal(t, "req-123", fields["request_id"])
	assert.Equal(t, "/ping", fields["path"])
	assert.EqualValues(t, http.StatusOK, fields["status"])
}
