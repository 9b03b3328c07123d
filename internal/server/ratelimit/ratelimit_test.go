package ratelimit

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBucket_BurstThenDeny(t *testing.T) {
	b := newBucket(10, 1.0)

	for i := 0; i < 10; i++ {
		allowed, _, _ := b.take()
		assert.True(t, allowed, "request %d should pass within the burst", i+1)
	}

	allowed, remaining, reset := b.take()
	assert.False(t, allowed)
	assert.Zero(t, remaining)
	assert.True(t, reset.After(time.Now()))
}

func TestBucket_Refills(t *testing.T) {
	b := newBucket(2, 10.0)
	for i := 0; i < 2; i++ {
		b.take()
	}
	allowed, _, _ := b.take()
	require.False(t, allowed)

	time.Sleep(150 * time.Millisecond)

	allowed, _, _ = b.take()
	assert.True(t, allowed, "one token should have refilled")
}

func TestLimiter_DefaultLimit(t *testing.T) {
	limiter := NewLimiter(&Config{
		Enabled:       true,
		DefaultLimit:  10,
		DefaultWindow: time.Minute,
	})
	defer limiter.Stop()

	for i := 0; i < 10; i++ {
		allowed, info := limiter.Allow("10.0.0.1", "/technicians", "GET")
		require.True(t, allowed, "request %d", i+1)
		assert.Equal(t, 10, info.Limit)
		assert.Equal(t, 9-i, info.Remaining)
	}

	allowed, info := limiter.Allow("10.0.0.1", "/technicians", "GET")
	assert.False(t, allowed)
	assert.Zero(t, info.Remaining)
	assert.Greater(t, info.RetryAfter, time.Duration(0))
}

func TestLimiter_ClientsAreIndependent(t *testing.T) {
	limiter := NewLimiter(&Config{
		Enabled:       true,
		DefaultLimit:  1,
		DefaultWindow: time.Minute,
	})
	defer limiter.Stop()

	allowed, _ := limiter.Allow("10.0.0.1", "/notes", "GET")
	require.True(t, allowed)
	allowed, _ = limiter.Allow("10.0.0.1", "/notes", "GET")
	require.False(t, allowed)

	allowed, _ = limiter.Allow("10.0.0.2", "/notes", "GET")
	assert.True(t, allowed, "a different client has its own bucket")
}

func TestLimiter_WhitelistAndBlacklist(t *testing.T) {
	limiter := NewLimiter(&Config{
		Enabled:       true,
		DefaultLimit:  1,
		DefaultWindow: time.Minute,
		Whitelist:     map[string]bool{"10.0.0.1": true},
		Blacklist:     map[string]bool{"10.6.6.6": true},
	})
	defer limiter.Stop()

	for i := 0; i < 20; i++ {
		allowed, info := limiter.Allow("10.0.0.1", "/generate", "POST")
		require.True(t, allowed)
		assert.Zero(t, info.Limit)
	}

	allowed, _ := limiter.Allow("10.6.6.6", "/health", "POST")
	assert.False(t, allowed)
}

func TestLimiter_Disabled(t *testing.T) {
	limiter := NewLimiter(&Config{Enabled: false})
	defer limiter.Stop()

	for i := 0; i < 50; i++ {
		allowed, info := limiter.Allow("10.0.0.1", "/generate", "POST")
		require.True(t, allowed)
		assert.Zero(t, info.Limit)
	}
}

func TestLimiter_RouteOverride(t *testing.T) {
	limiter := NewLimiter(&Config{
		Enabled:       true,
		DefaultLimit:  1000,
		DefaultWindow: time.Minute,
		EndpointConfigs: []EndpointConfig{
			{Path: "/generate", Method: "POST", Limit: 5, Window: time.Hour, Burst: 5},
		},
	})
	defer limiter.Stop()

	for i := 0; i < 5; i++ {
		allowed, info := limiter.Allow("10.0.0.1", "/generate", "POST")
		require.True(t, allowed)
		assert.Equal(t, 5, info.Limit)
	}
	allowed, _ := limiter.Allow("10.0.0.1", "/generate", "POST")
	assert.False(t, allowed)

	// Unmatched routes fall back to the default limit.
	allowed, info := limiter.Allow("10.0.0.1", "/templates", "GET")
	require.True(t, allowed)
	assert.Equal(t, 1000, info.Limit)
}

func TestLimiter_BurstBelowLimit(t *testing.T) {
	limiter := NewLimiter(&Config{
		Enabled:       true,
		DefaultLimit:  10,
		DefaultWindow: time.Minute,
		EndpointConfigs: []EndpointConfig{
			{Path: "/generate", Method: "POST", Limit: 60, Window: time.Hour, Burst: 3},
		},
	})
	defer limiter.Stop()

	for i := 0; i < 3; i++ {
		allowed, _ := limiter.Allow("10.0.0.1", "/generate", "POST")
		require.True(t, allowed)
	}
	allowed, _ := limiter.Allow("10.0.0.1", "/generate", "POST")
	assert.False(t, allowed, "burst capacity caps immediate requests below the hourly limit")
}

func TestLimiter_HealthIsUnlimited(t *testing.T) {
	limiter := NewLimiter(&Config{
		Enabled:       true,
		DefaultLimit:  1,
		DefaultWindow: time.Minute,
	})
	defer limiter.Stop()

	for i := 0; i < 20; i++ {
		allowed, _ := limiter.Allow("10.0.0.1", "/health", "GET")
		require.True(t, allowed)
	}
}

func TestLimiter_Concurrent(t *testing.T) {
	limiter := NewLimiter(&Config{
		Enabled:       true,
		DefaultLimit:  100,
		DefaultWindow: time.Minute,
	})
	defer limiter.Stop()

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		allowed int
	)
	for i := 0; i < 200; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if ok, _ := limiter.Allow("10.0.0.1", "/notes", "GET"); ok {
				mu.Lock()
				allowed++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 100, allowed)
}

func TestLimiter_DropIdle(t *testing.T) {
	limiter := NewLimiter(&Config{
		Enabled:       true,
		DefaultLimit:  10,
		DefaultWindow: time.Minute,
	})
	defer limiter.Stop()

	for i := 0; i < 5; i++ {
		limiter.Allow(fmt.Sprintf("10.0.0.%d", i+1), "/notes", "GET")
	}
	require.Len(t, limiter.buckets, 5)

	// A cutoff in the future drops everything seen before it.
	limiter.dropIdle(time.Now().Add(time.Second))
	assert.Empty(t, limiter.buckets)
}

func TestNewLimiter_NilConfig(t *testing.T) {
	limiter := NewLimiter(nil)
	defer limiter.Stop()

	allowed, info := limiter.Allow("10.0.0.1", "/templates", "GET")
	assert.True(t, allowed)
	assert.Equal(t, 1000, info.Limit)
}

func TestDefaultEndpointConfigs(t *testing.T) {
	configs := DefaultEndpointConfigs()

	route := matchEndpoint("/generate", "POST", configs)
	require.NotNil(t, route)
	assert.Equal(t, 60, route.Limit)
	assert.Equal(t, 5, route.Burst)

	assert.Nil(t, matchEndpoint("/generate", "GET", configs))
	assert.Nil(t, matchEndpoint("/templates", "GET", configs))

	health := matchEndpoint("/health", "GET", configs)
	require.NotNil(t, health)
	assert.Zero(t, health.Limit)
}
