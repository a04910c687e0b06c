package ratelimit

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestAllowRequestPerKey(t *testing.T) {
	rl := NewRateLimiter(2, 10, true)
	now := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return now }

	assert.True(t, rl.AllowRequest("1.1.1.1"))
	assert.True(t, rl.AllowRequest("1.1.1.1"))
	assert.False(t, rl.AllowRequest("1.1.1.1"))
	assert.True(t, rl.AllowRequest("2.2.2.2"))

	now = now.Add(61 * time.Second)
	assert.True(t, rl.AllowRequest("1.1.1.1"))

	stats := rl.GetStats("1.1.1.1")
	assert.Equal(t, 1, stats.RequestsLastMinute)
	assert.Equal(t, 3, stats.RequestsLastHour)
	assert.Equal(t, 2, stats.TrackedClients)
}

func TestHourlyLimit(t *testing.T) {
	rl := NewRateLimiter(0, 3, true)
	now := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return now }

	for i := 0; i < 3; i++ {
		assert.True(t, rl.AllowRequest("k"))
		now = now.Add(5 * time.Minute)
	}
	assert.False(t, rl.AllowRequest("k"))

	now = now.Add(time.Hour)
	assert.True(t, rl.AllowRequest("k"))
}

func TestDisabledAndPrune(t *testing.T) {
	off := NewRateLimiter(1, 1, false)
	for i := 0; i < 5; i++ {
		assert.True(t, off.AllowRequest("k"))
	}
	assert.False(t, off.GetStats("k").Enabled)

	rl := NewRateLimiter(5, 5, true)
	now := time.Now()
	rl.now = func() time.Time { return now }
	rl.AllowRequest("a")
	now = now.Add(2 * time.Hour)
	rl.AllowRequest("b")
	assert.Equal(t, 1, rl.Prune())

	rl.Reset()
	assert.Equal(t, 0, rl.GetStats("b").TrackedClients)
}
