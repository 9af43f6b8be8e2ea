package ratelimit

import (
	"sync"
	"time"
)

// IPRateLimiter rate limits per client IP, one token bucket per address
type IPRateLimiter struct {
	limiters   map[string]*ipBucket
	mu         sync.Mutex
	maxTokens  float64
	refillRate float64
	cleanup    *time.Ticker
	stopChan   chan struct{}
}

type ipBucket struct {
	bucket   *TokenBucket
	lastSeen time.Time
}

// NewIPRateLimiter creates a new IPRateLimiter
func NewIPRateLimiter(maxTokens, refillRate float64) *IPRateLimiter {
	limiter := &IPRateLimiter{
		limiters:   make(map[string]*ipBucket),
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
	return ipl.getLimiter(ip).Allow()
}

func (ipl *IPRateLimiter) getLimiter(ip string) *TokenBucket {
	ipl.mu.Lock()
	defer ipl.mu.Unlock()

	entry, exists := ipl.limiters[ip]

	if !exists {
		entry = &ipBucket{bucket: NewTokenBucket(ipl.maxTokens, ipl.refillRate)}
		ipl.limiters[ip] = entry
	}

	entry.lastSeen = time.Now()
	return entry.bucket
}

// cleanupLoop drops buckets for addresses idle longer than the cleanup period
func (ipl *IPRateLimiter) cleanupLoop() {
	for {
		select {
		case <-ipl.cleanup.C:
			cutoff := time.Now().Add(-10 * time.Minute)

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
