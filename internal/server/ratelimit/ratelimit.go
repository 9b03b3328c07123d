// Package ratelimit implements per-client token-bucket rate limiting for the
// HTTP surface. Buckets are keyed on client+route and refill continuously.
package ratelimit

import (
	"sync"
	"time"
)

// bucket is a continuously-refilling token bucket. capacity bounds the burst;
// rate is tokens per second.
type bucket struct {
	capacity float64
	rate     float64
	tokens   float64
	refilled time.Time
}

func newBucket(capacity int, rate float64) *bucket {
	return &bucket{
		capacity: float64(capacity),
		rate:     rate,
		tokens:   float64(capacity),
		refilled: time.Now(),
	}
}

// take refills the bucket for the elapsed time, consumes one token when
// available, and reports the remaining tokens and the instant the bucket is
// full again. Callers hold the limiter lock.
func (b *bucket) take() (allowed bool, remaining int, reset time.Time) {
	now := time.Now()
	b.tokens += now.Sub(b.refilled).Seconds() * b.rate
	if b.tokens > b.capacity {
		b.tokens = b.capacity
	}
	b.refilled = now

	if b.tokens >= 1.0 {
		b.tokens -= 1.0
		allowed = true
	}

	reset = now
	if b.tokens < b.capacity {
		reset = now.Add(time.Duration((b.capacity - b.tokens) / b.rate * float64(time.Second)))
	}
	return allowed, int(b.tokens), reset
}

// Info describes the rate-limit state returned with every decision. Limit is
// zero for requests that bypass limiting (disabled, allowlisted, unlimited
// route).
type Info struct {
	Allowed    bool
	Limit      int
	Remaining  int
	ResetTime  time.Time
	RetryAfter time.Duration
}

type clientBucket struct {
	bucket   *bucket
	lastSeen time.Time
}

// Limiter tracks one bucket per client and route. Idle buckets are dropped by
// a background sweep so long-running processes do not accumulate state for
// every client that ever connected.
type Limiter struct {
	mu      sync.Mutex
	buckets map[string]*clientBucket
	config  *Config

	sweepTicker *time.Ticker
	sweepStop   chan struct{}
}

// Config holds limiter settings. Routes lists per-endpoint overrides; traffic
// that matches none of them falls back to DefaultLimit per DefaultWindow.
type Config struct {
	Enabled         bool
	DefaultLimit    int
	DefaultWindow   time.Duration
	CleanupInterval time.Duration
	Whitelist       map[string]bool
	Blacklist       map[string]bool
	EndpointConfigs []EndpointConfig
}

// NewLimiter builds a limiter. A nil config enables limiting with a
// 1000-per-minute default and a five minute sweep.
func NewLimiter(config *Config) *Limiter {
	if config == nil {
		config = &Config{
			Enabled:         true,
			DefaultLimit:    1000,
			DefaultWindow:   time.Minute,
			CleanupInterval: 5 * time.Minute,
			Whitelist:       make(map[string]bool),
			Blacklist:       make(map[string]bool),
		}
	}

	l := &Limiter{
		buckets: make(map[string]*clientBucket),
		config:  config,
	}
	if config.Enabled && config.CleanupInterval > 0 {
		l.sweepTicker = time.NewTicker(config.CleanupInterval)
		l.sweepStop = make(chan struct{})
		go l.sweep()
	}
	return l
}

// Allow decides whether the client may hit the route now. Denied requests get
// a RetryAfter hint derived from the bucket's refill rate.
func (l *Limiter) Allow(clientID, endpoint, method string) (bool, Info) {
	if !l.config.Enabled || l.config.Whitelist[clientID] {
		return true, Info{Allowed: true}
	}
	if l.config.Blacklist[clientID] {
		return false, Info{}
	}

	route := matchEndpoint(endpoint, method, l.config.EndpointConfigs)
	if route == nil {
		route = &EndpointConfig{
			Limit:  l.config.DefaultLimit,
			Window: l.config.DefaultWindow,
			Burst:  l.config.DefaultLimit,
		}
	}
	if route.Limit <= 0 {
		return true, Info{Allowed: true}
	}

	key := clientID + ":" + endpoint + ":" + method

	l.mu.Lock()
	cb, ok := l.buckets[key]
	if !ok {
		burst := route.Burst
		if burst <= 0 {
			burst = route.Limit
		}
		cb = &clientBucket{bucket: newBucket(burst, float64(route.Limit)/route.Window.Seconds())}
		l.buckets[key] = cb
	}
	cb.lastSeen = time.Now()
	allowed, remaining, reset := cb.bucket.take()
	l.mu.Unlock()

	info := Info{
		Allowed:   allowed,
		Limit:     route.Limit,
		Remaining: remaining,
		ResetTime: reset,
	}
	if !allowed {
		if info.RetryAfter = time.Until(reset); info.RetryAfter < 0 {
			info.RetryAfter = 0
		}
	}
	return allowed, info
}

func (l *Limiter) sweep() {
	for {
		select {
		case <-l.sweepTicker.C:
			l.dropIdle(time.Now().Add(-1 * time.Hour))
		case <-l.sweepStop:
			return
		}
	}
}

func (l *Limiter) dropIdle(cutoff time.Time) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for key, cb := range l.buckets {
		if cb.lastSeen.Before(cutoff) {
			delete(l.buckets, key)
		}
	}
}

// Stop terminates the sweep goroutine.
func (l *Limiter) Stop() {
	if l.sweepTicker != nil {
		l.sweepTicker.Stop()
	}
	if l.sweepStop != nil {
		close(l.sweepStop)
	}
}
