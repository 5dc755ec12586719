package ratelimit

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

const ActionSendMessage = "send_message"

// Policy describes the bucket handed to every user for one action.
type Policy struct {
	Rate  rate.Limit
	Burst int
}

type bucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter keeps one token bucket per user:action.
type RateLimiter struct {
	policies      map[string]Policy
	defaultPolicy Policy
	buckets       map[string]*bucket
	mutex         sync.Mutex
	now           func() time.Time
}

func NewRateLimiter(defaultPolicy Policy) *RateLimiter {
	return &RateLimiter{
		policies:      make(map[string]Policy),
		defaultPolicy: defaultPolicy,
		buckets:       make(map[string]*bucket),
		now:           time.Now,
	}
}

// WithPolicy overrides the bucket used for action.
func (rl *RateLimiter) WithPolicy(action string, policy Policy) *RateLimiter {
	rl.mutex.Lock()
	defer rl.mutex.Unlock()
	rl.policies[action] = policy
	return rl
}

// Allow consumes a token for the user's action. When none is available it reports how long
// until the next one.
func (rl *RateLimiter) Allow(userID, action string) (bool, time.Duration) {
	key := userID + ":" + action
	now := rl.now()

	rl.mutex.Lock()
	b, exists := rl.buckets[key]
	if !exists {
		policy, ok := rl.policies[action]
		if !ok {
			policy = rl.defaultPolicy
		}
		b = &bucket{limiter: rate.NewLimiter(policy.Rate, policy.Burst)}
		rl.buckets[key] = b
	}
	b.lastSeen = now
	rl.mutex.Unlock()

	reservation := b.limiter.ReserveN(now, 1)
	if !reservation.OK() {
		return false, 0
	}
	if delay := reservation.DelayFrom(now); delay > 0 {
		reservation.CancelAt(now)
		return false, delay
	}
	return true, 0
}

// Len reports the number of live buckets.
func (rl *RateLimiter) Len() int {
	rl.mutex.Lock()
	defer rl.mutex.Unlock()
	return len(rl.buckets)
}

// Cleanup removes buckets idle for longer than maxIdle.
func (rl *RateLimiter) Cleanup(maxIdle time.Duration) {
	rl.mutex.Lock()
	defer rl.mutex.Unlock()

	now := rl.now()
	for key, b := range rl.buckets {
		if now.Sub(b.lastSeen) > maxIdle {
			delete(rl.buckets, key)
		}
	}
}

// StartCleanupRoutine runs Cleanup every interval until ctx is done.
func (rl *RateLimiter) StartCleanupRoutine(ctx context.Context, interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				rl.Cleanup(time.Hour)
			}
		}
	}()
}
