package ratelimit

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTokenBucketStartsFull(t *testing.T) {
	tb := NewTokenBucket(5, 0)

	for i := 0; i < 5; i++ {
		assert.True(t, tb.Allow(), "request %d should be allowed", i)
	}

	assert.False(t, tb.Allow())
}

func TestTokenBucketAllowN(t *testing.T) {
	tb := NewTokenBucket(10, 0)

	assert.True(t, tb.AllowN(7))
	assert.False(t, tb.AllowN(5))
	assert.True(t, tb.AllowN(3))
}

func TestTokenBucketRefills(t *testing.T) {
	// 1000 tokens/second refills the bucket almost instantly
	tb := NewTokenBucket(2, 1000)

	assert.True(t, tb.Allow())
	assert.True(t, tb.Allow())

	time.Sleep(10 * time.Millisecond)

	assert.True(t, tb.Allow())
}

func TestTokenBucketCapsAtMax(t *testing.T) {
	tb := NewTokenBucket(3, 1000)

	time.Sleep(10 * time.Millisecond)

	assert.LessOrEqual(t, tb.Available(), 3.0)
}

func TestIPRateLimiterTracksIPsIndependently(t *testing.T) {
	limiter := NewIPRateLimiter(1, 0)
	defer limiter.Stop()

	assert.True(t, limiter.Allow("192.0.2.1"))
	assert.False(t, limiter.Allow("192.0.2.1"))

	// A different client gets its own bucket
	assert.True(t, limiter.Allow("192.0.2.2"))
}
