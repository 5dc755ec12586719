package ratelimit

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"golang.org/x/time/rate"
)

func TestAllowExhaustsBurstPerUser(t *testing.T) {
	t0 := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	rl := NewRateLimiter(Policy{Rate: rate.Limit(1), Burst: 2})
	rl.now = func() time.Time { return t0 }

	ok, _ := rl.Allow("u1", ActionSendMessage)
	assert.True(t, ok)
	ok, _ = rl.Allow("u1", ActionSendMessage)
	assert.True(t, ok)

	ok, wait := rl.Allow("u1", ActionSendMessage)
	assert.False(t, ok)
	assert.Greater(t, wait, time.Duration(0))

	ok, _ = rl.Allow("u2", ActionSendMessage)
	assert.True(t, ok, "buckets are per user")

	rl.now = func() time.Time { return t0.Add(2 * time.Second) }
	ok, _ = rl.Allow("u1", ActionSendMessage)
	assert.True(t, ok, "tokens refill over time")
}

func TestWithPolicyOverridesDefault(t *testing.T) {
	t0 := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	rl := NewRateLimiter(Policy{Rate: rate.Limit(1), Burst: 5}).
		WithPolicy(ActionSendMessage, Policy{Rate: rate.Limit(1), Burst: 1})
	rl.now = func() time.Time { return t0 }

	ok, _ := rl.Allow("u1", ActionSendMessage)
	assert.True(t, ok)
	ok, _ = rl.Allow("u1", ActionSendMessage)
	assert.False(t, ok)

	for i := 0; i < 5; i++ {
		ok, _ = rl.Allow("u1", "other")
		assert.True(t, ok)
	}
}

func TestCleanupDropsIdleBuckets(t *testing.T) {
	t0 := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	rl := NewRateLimiter(Policy{Rate: rate.Limit(1), Burst: 1})
	rl.now = func() time.Time { return t0 }

	rl.Allow("u1", ActionSendMessage)
	rl.Allow("u2", ActionSendMessage)
	assert.Equal(t, 2, rl.Len())

	rl.now = func() time.Time { return t0.Add(30 * time.Minute) }
	rl.Allow("u2", ActionSendMessage)

	rl.now = func() time.Time { return t0.Add(70 * time.Minute) }
	rl.Cleanup(time.Hour)
	assert.Equal(t, 1, rl.Len())
}
