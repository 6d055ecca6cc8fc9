// SPDX-FileCopyrightText: 2025 Designø Group ltd.
//
// SPDX-License-Identifier: Apache-2.0

package ratelimit

import (
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/designo-group/secret-santa/pkg/metrics"
)

// Config holds rate limiter configuration
type Config struct {
	// Rate is the number of events allowed per second
	Rate float64
	// Burst is the maximum number of events allowed in a burst
	Burst int
	// CleanupInterval is how often stale keys are dropped
	CleanupInterval time.Duration
	// MaxAge is how long a key is kept after its last access
	MaxAge time.Duration
}

// DefaultIPConfig limits the messaging endpoints per client IP:
// one request every two seconds, bursts of 5.
func DefaultIPConfig() Config {
	return Config{
		Rate:            0.5,
		Burst:           5,
		CleanupInterval: time.Minute,
		MaxAge:          5 * time.Minute,
	}
}

// DefaultRecipientConfig limits how often a code can be mailed to the same
// address: one per minute, bursts of 3.
func DefaultRecipientConfig() Config {
	return Config{
		Rate:            1.0 / 60,
		Burst:           3,
		CleanupInterval: time.Minute,
		MaxAge:          30 * time.Minute,
	}
}

type entry struct {
	limiter    *rate.Limiter
	lastAccess time.Time
}

// Limiter is a token bucket per key (client IP, recipient address) with
// periodic cleanup of stale keys.
type Limiter struct {
	mu       sync.RWMutex
	entries  map[string]*entry
	config   Config
	done     chan struct{}
	stopOnce sync.Once
}

// New creates a limiter and starts its cleanup goroutine. Call Stop to end it.
func New(cfg Config) *Limiter {
	if cfg.CleanupInterval == 0 {
		cfg.CleanupInterval = time.Minute
	}
	if cfg.MaxAge == 0 {
		cfg.MaxAge = 5 * time.Minute
	}

	rl := &Limiter{
		entries: make(map[string]*entry),
		config:  cfg,
		done:    make(chan struct{}),
	}
	go rl.cleanup()
	return rl
}

// Allow reports whether one more event for key is allowed now.
func (rl *Limiter) Allow(key string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	e, exists := rl.entries[key]
	if !exists {
		e = &entry{
			limiter: rate.NewLimiter(rate.Limit(rl.config.Rate), rl.config.Burst),
		}
		rl.entries[key] = e
	}
	e.lastAccess = time.Now()

	return e.limiter.Allow()
}

// AllowRecipient is Allow with the address lower-cased, so case variants of
// one mailbox share a bucket.
func (rl *Limiter) AllowRecipient(addr string) bool {
	return rl.Allow(strings.ToLower(addr))
}

// Middleware limits per client IP. route labels the rejection counter.
func (rl *Limiter) Middleware(route string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !rl.Allow(c.ClientIP()) {
			metrics.HTTPRateLimited.WithLabelValues(route).Inc()
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error": "Rate limit exceeded, please try again later",
			})
			return
		}
		c.Next()
	}
}

// Stop ends the cleanup goroutine. It is safe to call more than once.
func (rl *Limiter) Stop() {
	rl.stopOnce.Do(func() { close(rl.done) })
}

func (rl *Limiter) cleanup() {
	ticker := time.NewTicker(rl.config.CleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-rl.done:
			return
		case <-ticker.C:
			rl.cleanupStaleEntries()
		}
	}
}

func (rl *Limiter) cleanupStaleEntries() {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	for key, e := range rl.entries {
		if now.Sub(e.lastAccess) > rl.config.MaxAge {
			delete(rl.entries, key)
		}
	}
}

// Len returns the number of tracked keys.
func (rl *Limiter) Len() int {
	rl.mu.RLock()
	defer rl.mu.RUnlock()
	return len(rl.entries)
}

func (rl *Limiter) Config() Config {
	return rl.config
}
