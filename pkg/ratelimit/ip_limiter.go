package ratelimit

import (
	"sync"
	"time"
)

// IPRateLimiter rate limits requests per client IP address
type IPRateLimiter struct {
	mu         sync.Mutex
	limiters   map[string]*ipEntry
	maxTokens  float64
	refillRate float64
	cleanup    *time.Ticker
	stopChan   chan struct{}
}

type ipEntry struct {
	bucket   *TokenBucket
	lastSeen time.Time
}

// NewIPRateLimiter creates a new IPRateLimiter
func NewIPRateLimiter(maxTokens, refillRate float64) *IPRateLimiter {
	limiter := &IPRateLimiter{
		limiters:   make(map[string]*ipEntry),
		maxTokens:  maxTokens,
		refillRate: refillRate,
		cleanup:    time.NewTicker(10 * time.Minute),
		stopChan:   make(chan struct{}),
	}

	go limiter.cleanupLoop()

	return limiter
}

// Allow checks if a request from the given IP can proceed
func (ipl *IPRateLimiter) Allow(ip string) bool {
	ipl.mu.Lock()

	entry, exists := ipl.limiters[ip]
	if !exists {
		entry = &ipEntry{bucket: NewTokenBucket(ipl.maxTokens, ipl.refillRate)}
		ipl.limiters[ip] = entry
	}
	entry.lastSeen = time.Now()

	ipl.mu.Unlock()

	return entry.bucket.Allow()
}

// cleanupLoop periodically drops buckets for IPs not seen recently
func (ipl *IPRateLimiter) cleanupLoop() {
	for {
		select {
		case <-ipl.cleanup.C:
			cutoff := time.Now().Add(-30 * time.Minute)

			ipl.mu.Lock()
			for ip, entry := range ipl.limiters {
				if entry.lastSeen.Before(cutoff) {
					delete(ipl.limiters, ip)
				}
			}
			ipl.mu.Unlock()
		case <-ipl.stopChan:
			ipl.cleanup.Stop()
			return
		}
	}
}

// Stop stops the IP rate limiter
func (ipl *IPRateLimiter) Stop() {
	close(ipl.stopChan)
}
