package ratelimit

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAllowEnforcesMinuteQuota(t *testing.T) {
	l := NewLimiter(2, 0, true)

	assert.True(t, l.Allow())
	assert.True(t, l.Allow())
	assert.False(t, l.Allow())
}

func TestAllowEnforcesHourQuota(t *testing.T) {
	l := NewLimiter(0, 3, true)

	for i := 0; i < 3; i++ {
		assert.True(t, l.Allow())
	}
	assert.False(t, l.Allow())
}

func TestDisabledLimiterAlwaysAllows(t *testing.T) {
	l := NewLimiter(1, 1, false)

	for i := 0; i < 10; i++ {
		assert.True(t, l.Allow())
	}
	assert.False(t, l.Usage().Enabled)
}

func TestNilLimiterAlwaysAllows(t *testing.T) {
	var l *Limiter
	assert.True(t, l.Allow())
	assert.False(t, l.Usage().Enabled)
}

func TestUsageSnapshot(t *testing.T) {
	l := NewLimiter(5, 100, true)
	l.Allow()
	l.Allow()

	usage := l.Usage()
	assert.True(t, usage.Enabled)
	assert.Equal(t, 2, usage.UsedLastMinute)
	assert.Equal(t, 2, usage.UsedLastHour)
	assert.Equal(t, 3, usage.RemainingMinute)
	assert.Equal(t, 98, usage.RemainingHour)
}

func TestUsageUnlimitedWindowReportsNegativeRemaining(t *testing.T) {
	l := NewLimiter(0, 0, true)
	l.Allow()

	usage := l.Usage()
	assert.Equal(t, -1, usage.RemainingMinute)
	assert.Equal(t, -1, usage.RemainingHour)
}

func TestResetClearsWindows(t *testing.T) {
	l := NewLimiter(1, 0, true)
	assert.True(t, l.Allow())
	assert.False(t, l.Allow())

	l.Reset()
	assert.True(t, l.Allow())
}
