package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/bildin8/postergram-juice-sub001/internal/apierror"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

// rateEntry tracks request counts per key within a fixed window.
type rateEntry struct {
	count     int
	windowEnd time.Time
	mu        sync.Mutex
}

// windowLimiter counts requests per client IP. Each limiter owns its map so
// the general API budget and the sync trigger budget never share counts.
type windowLimiter struct {
	name    string
	limit   int
	window  time.Duration
	message string

	mu      sync.Mutex
	entries map[string]*rateEntry
}

var (
	limiters   []*windowLimiter
	limitersMu sync.Mutex
	purgeOnce  sync.Once
)

func newWindowLimiter(name string, limit int, window time.Duration, message string) *windowLimiter {
	l := &windowLimiter{name: name, limit: limit, window: window, message: message, entries: map[string]*rateEntry{}}
	limitersMu.Lock()
	limiters = append(limiters, l)
	limitersMu.Unlock()
	purgeOnce.Do(func() { go purgeExpiredEntries() })
	return l
}

func (l *windowLimiter) handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		ip := c.ClientIP()

		l.mu.Lock()
		entry, exists := l.entries[ip]
		if !exists {
			entry = &rateEntry{}
			l.entries[ip] = entry
		}
		l.mu.Unlock()

		entry.mu.Lock()
		now := time.Now()
		if now.After(entry.windowEnd) {
			entry.count = 0
			entry.windowEnd = now.Add(l.window)
		}
		entry.count++
		over := entry.count > l.limit
		retryAt := entry.windowEnd
		entry.mu.Unlock()

		if over {
			c.Header("Retry-After", retryAt.UTC().Format(http.TimeFormat))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, apierror.New(l.message))
			return
		}
		c.Next()
	}
}

// RateLimiter is the general API limiter, limit requests per window per IP.
func RateLimiter(limit int, window time.Duration) gin.HandlerFunc {
	return newWindowLimiter("api", limit, window, "too many requests, try again shortly").handler()
}

// SyncRateLimiter guards the manual sync triggers, which call the POS API.
// 10 per minute per IP.
func SyncRateLimiter() gin.HandlerFunc {
	return newWindowLimiter("sync", 10, time.Minute, "too many sync requests, try again in a minute").handler()
}

// ── Purge goroutine ───────────────────────────────────────────────────────────
// Drops expired entries so IPs that never return do not accumulate.

const purgeInterval = 5 * time.Minute

func purgeExpiredEntries() {
	ticker := time.NewTicker(purgeInterval)
	defer ticker.Stop()

	for range ticker.C {
		limitersMu.Lock()
		current := append([]*windowLimiter(nil), limiters...)
		limitersMu.Unlock()

		for _, l := range current {
			if purged, remaining := l.purge(time.Now()); purged > 0 {
				log.Debug().
					Str("limiter", l.name).
					Int("entries_purged", purged).
					Int("entries_remaining", remaining).
					Msg("rate limiter map purged")
			}
		}
	}
}

func (l *windowLimiter) purge(now time.Time) (purged, remaining int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for ip, entry := range l.entries {
		entry.mu.Lock()
		if now.After(entry.windowEnd) {
			delete(l.entries, ip)
			purged++
		}
		entry.mu.Unlock()
	}
	return purged, len(l.entries)
}
