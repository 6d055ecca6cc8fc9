// SPDX-FileCopyrightText: 2025 Designø Group ltd.
//
// SPDX-License-Identifier: Apache-2.0

package ratelimit

import (
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/designo-group/secret-santa/pkg/metrics"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestDefaultConfigs(t *testing.T) {
	ip := DefaultIPConfig()
	assert.Equal(t, 0.5, ip.Rate)
	assert.Equal(t, 5, ip.Burst)

	rcpt := DefaultRecipientConfig()
	assert.Equal(t, 3, rcpt.Burst)
	assert.Less(t, rcpt.Rate, ip.Rate, "recipients are limited harder than IPs")
	assert.Greater(t, rcpt.MaxAge, ip.MaxAge)
}

func TestNewSetsDefaults(t *testing.T) {
	rl := New(Config{Rate: 10, Burst: 20})
	defer rl.Stop()

	assert.Equal(t, time.Minute, rl.Config().CleanupInterval)
	assert.Equal(t, 5*time.Minute, rl.Config().MaxAge)
}

func TestAllow(t *testing.T) {
	t.Run("blocks requests exceeding burst limit", func(t *testing.T) {
		rl := New(Config{Rate: 1, Burst: 3, CleanupInterval: time.Hour, MaxAge: time.Hour})
		defer rl.Stop()

		for i := 0; i < 3; i++ {
			assert.True(t, rl.Allow("192.168.1.1"), "request %d should be allowed", i)
		}
		assert.False(t, rl.Allow("192.168.1.1"))
	})

	t.Run("different keys have separate limits", func(t *testing.T) {
		rl := New(Config{Rate: 1, Burst: 2, CleanupInterval: time.Hour, MaxAge: time.Hour})
		defer rl.Stop()

		rl.Allow("192.168.1.1")
		rl.Allow("192.168.1.1")
		assert.False(t, rl.Allow("192.168.1.1"))
		assert.True(t, rl.Allow("192.168.1.2"))
		assert.Equal(t, 2, rl.Len())
	})

	t.Run("tokens refill over time", func(t *testing.T) {
		rl := New(Config{Rate: 10, Burst: 1, CleanupInterval: time.Hour, MaxAge: time.Hour})
		defer rl.Stop()

		assert.True(t, rl.Allow("192.168.1.1"))
		assert.False(t, rl.Allow("192.168.1.1"))
		time.Sleep(150 * time.Millisecond)
		assert.True(t, rl.Allow("192.168.1.1"))
	})
}

func TestAllowRecipientIgnoresCase(t *testing.T) {
	rl := New(Config{Rate: 1, Burst: 1, CleanupInterval: time.Hour, MaxAge: time.Hour})
	defer rl.Stop()

	assert.True(t, rl.AllowRecipient("Ada@Example.com"))
	assert.False(t, rl.AllowRecipient("ada@example.com"))
	assert.Equal(t, 1, rl.Len())
}

func TestMiddleware(t *testing.T) {
	newRouter := func(rl *Limiter) *gin.Engine {
		router := gin.New()
		require.NoError(t, router.SetTrustedProxies([]string{"0.0.0.0/0", "::/0"}))
		router.Use(rl.Middleware("test"))
		router.GET("/test", func(c *gin.Context) {
			c.String(http.StatusOK, "OK")
		})
		return router
	}
	do := func(router *gin.Engine, forwardedFor string) *httptest.ResponseRecorder {
		w := httptest.NewRecorder()
		req, _ := http.NewRequest(http.MethodGet, "/test", nil)
		req.RemoteAddr = "10.0.0.1:12345"
		if forwardedFor != "" {
			req.Header.Set("X-Forwarded-For", forwardedFor)
		}
		router.ServeHTTP(w, req)
		return w
	}

	t.Run("returns 429 when rate limited", func(t *testing.T) {
		rl := New(Config{Rate: 1, Burst: 2, CleanupInterval: time.Hour, MaxAge: time.Hour})
		defer rl.Stop()
		router := newRouter(rl)
		before := testutil.ToFloat64(metrics.HTTPRateLimited.WithLabelValues("test"))

		assert.Equal(t, http.StatusOK, do(router, "").Code)
		assert.Equal(t, http.StatusOK, do(router, "").Code)

		w := do(router, "")
		assert.Equal(t, http.StatusTooManyRequests, w.Code)
		assert.Contains(t, w.Body.String(), "Rate limit exceeded")
		assert.Equal(t, before+1, testutil.ToFloat64(metrics.HTTPRateLimited.WithLabelValues("test")))
	})

	t.Run("keys on the forwarded client IP", func(t *testing.T) {
		rl := New(Config{Rate: 1, Burst: 1, CleanupInterval: time.Hour, MaxAge: time.Hour})
		defer rl.Stop()
		router := newRouter(rl)

		assert.Equal(t, http.StatusOK, do(router, "192.168.1.1").Code)
		assert.Equal(t, http.StatusTooManyRequests, do(router, "192.168.1.1").Code)
		assert.Equal(t, http.StatusOK, do(router, "192.168.1.2").Code)
	})
}

func TestCleanup(t *testing.T) {
	t.Run("removes stale entries", func(t *testing.T) {
		rl := New(Config{Rate: 10, Burst: 10, CleanupInterval: 50 * time.Millisecond, MaxAge: 100 * time.Millisecond})
		defer rl.Stop()

		rl.Allow("a")
		rl.Allow("b")
		assert.Equal(t, 2, rl.Len())

		assert.Eventually(t, func() bool { return rl.Len() == 0 }, 2*time.Second, 20*time.Millisecond)
	})

	t.Run("keeps recently accessed entries", func(t *testing.T) {
		rl := New(Config{Rate: 10, Burst: 10, CleanupInterval: 50 * time.Millisecond, MaxAge: 500 * time.Millisecond})
		defer rl.Stop()

		rl.Allow("a")
		for i := 0; i < 5; i++ {
			time.Sleep(50 * time.Millisecond)
			rl.Allow("a")
		}
		assert.Equal(t, 1, rl.Len())
	})

	t.Run("Stop is idempotent", func(t *testing.T) {
		rl := New(Config{Rate: 10, Burst: 10})
		rl.Stop()
		assert.NotPanics(t, rl.Stop)
	})
}

func TestConcurrency(t *testing.T) {
	rl := New(Config{Rate: 1000, Burst: 1000, CleanupInterval: time.Hour, MaxAge: time.Hour})
	defer rl.Stop()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			key := "192.168.1." + string(rune('0'+id%10))
			for j := 0; j < 50; j++ {
				rl.Allow(key)
			}
		}(i)
	}
	wg.Wait()
	assert.Equal(t, 10, rl.Len())
}
