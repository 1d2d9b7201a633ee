package middleware

import (
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/turtacn/additive-lens/pkg/errors"
)

// RateLimiter defines the interface for rate limiting implementations.
type RateLimiter interface {
	// Allow checks if a request with the given key is allowed.
	// Returns whether the request is allowed and current rate limit info.
	Allow(key string) (bool, RateLimitInfo)
}

// RateLimitInfo contains current rate limit state for a given key.
type RateLimitInfo struct {
	// Limit is the maximum number of requests allowed per window.
	Limit int
	// Remaining is the number of requests remaining in the current window.
	Remaining int
	// ResetAt is the time when the rate limit window resets.
	ResetAt time.Time
}

// RateLimitConfig holds configuration for the rate limit middleware.
type RateLimitConfig struct {
	// RequestsPerSecond is the sustained request rate.
	RequestsPerSecond float64
	// BurstSize is the maximum burst size above the sustained rate.
	BurstSize int
	// KeyFunc extracts the rate limit key; nil means the client IP.
	KeyFunc func(c *gin.Context) string
	// SkipPaths are paths that bypass rate limiting.
	SkipPaths []string
	// CleanupInterval is how often expired entries are cleaned up.
	CleanupInterval time.Duration
}

// DefaultRateLimitConfig returns a sensible default rate limit configuration.
func DefaultRateLimitConfig() RateLimitConfig {
	return RateLimitConfig{
		RequestsPerSecond: 10,
		BurstSize:         20,
		KeyFunc:           defaultKeyFunc,
		SkipPaths:         []string{"/healthz", "/readyz", "/metrics"},
		CleanupInterval:   5 * time.Minute,
	}
}

// defaultKeyFunc keys on the client IP as resolved by gin's trusted proxy
// settings.
func defaultKeyFunc(c *gin.Context) string {
	return c.ClientIP()
}

// --- Token Bucket Limiter ---

type bucket struct {
	tokens float64
	seen   time.Time
}

// TokenBucketLimiter keeps one in-memory bucket per key. Buckets refill at
// rate tokens per second up to burst; idle full buckets are evicted every
// cleanupInterval.
type TokenBucketLimiter struct {
	rate  float64
	burst int

	mu      sync.Mutex
	buckets map[string]*bucket

	cleanupInterval time.Duration
	stop            chan struct{}
	stopOnce        sync.Once
}

// NewTokenBucketLimiter starts the eviction loop when cleanupInterval > 0;
// call Stop to end it.
func NewTokenBucketLimiter(rate float64, burstSize int, cleanupInterval time.Duration) *TokenBucketLimiter {
	l := &TokenBucketLimiter{
		rate:            rate,
		burst:           burstSize,
		buckets:         make(map[string]*bucket),
		cleanupInterval: cleanupInterval,
		stop:            make(chan struct{}),
	}
	if cleanupInterval > 0 {
		go l.cleanupLoop()
	}
	return l
}

// refill brings b up to date at now and returns its token count.
func (l *TokenBucketLimiter) refill(b *bucket, now time.Time) float64 {
	b.tokens = math.Min(float64(l.burst), b.tokens+now.Sub(b.seen).Seconds()*l.rate)
	b.seen = now
	return b.tokens
}

// Allow takes one token from key's bucket if one is available.
func (l *TokenBucketLimiter) Allow(key string) (bool, RateLimitInfo) {
	now := time.Now()

	l.mu.Lock()
	defer l.mu.Unlock()

	b, ok := l.buckets[key]
	if !ok {
		b = &bucket{tokens: float64(l.burst), seen: now}
		l.buckets[key] = b
	}
	tokens := l.refill(b, now)

	info := RateLimitInfo{Limit: l.burst}
	if tokens < 1 {
		// Time until the next whole token.
		wait := time.Duration((1 - tokens) / l.rate * float64(time.Second))
		info.ResetAt = now.Add(wait)
		return false, info
	}
	b.tokens--
	info.Remaining = int(b.tokens)
	info.ResetAt = now.Add(time.Duration(float64(time.Second) / l.rate))
	return true, info
}

func (l *TokenBucketLimiter) cleanupLoop() {
	ticker := time.NewTicker(l.cleanupInterval)
	defer ticker.Stop()
	for {
		select {
		case now := <-ticker.C:
			l.evictIdle(now)
		case <-l.stop:
			return
		}
	}
}

// evictIdle drops buckets that are full again and untouched for a whole
// interval; a fresh bucket for the same key would be identical.
func (l *TokenBucketLimiter) evictIdle(now time.Time) {
	cutoff := now.Add(-l.cleanupInterval)

	l.mu.Lock()
	defer l.mu.Unlock()
	for key, b := range l.buckets {
		if b.seen.Before(cutoff) && l.refill(b, now) >= float64(l.burst) {
			delete(l.buckets, key)
		}
	}
}

// Stop ends the eviction loop. It is safe to call more than once.
func (l *TokenBucketLimiter) Stop() {
	l.stopOnce.Do(func() { close(l.stop) })
}

// BucketCount reports how many keys are tracked.
func (l *TokenBucketLimiter) BucketCount() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.buckets)
}

// --- Middleware ---

// RateLimit rejects requests over the limit with 429 and sets the
// X-RateLimit-* headers on every response.
func RateLimit(limiter RateLimiter, config RateLimitConfig) gin.HandlerFunc {
	skipSet := make(map[string]bool, len(config.SkipPaths))
	for _, p := range config.SkipPaths {
		skipSet[p] = true
	}
	keyFunc := config.KeyFunc
	if keyFunc == nil {
		keyFunc = defaultKeyFunc
	}

	return func(c *gin.Context) {
		if skipSet[c.Request.URL.Path] {
			c.Next()
			return
		}

		allowed, info := limiter.Allow(keyFunc(c))
		c.Header("X-RateLimit-Limit", strconv.Itoa(info.Limit))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(info.Remaining))
		c.Header("X-RateLimit-Reset", strconv.FormatInt(info.ResetAt.Unix(), 10))

		if !allowed {
			retryAfter := time.Until(info.ResetAt).Seconds()
			if retryAfter < 1 {
				retryAfter = 1
			}
			c.Header("Retry-After", strconv.Itoa(int(retryAfter)))
			AbortWithError(c, http.StatusTooManyRequests, string(errors.CodeRateLimited), "rate limit exceeded, please retry later")
			return
		}
		c.Next()
	}
}
