package ratelimit

import (
	"sync"
	"time"
)

// Limiter enforces the external provider's request quota. The provider
// bills per request, so every sub-request (each listing scope counts
// separately) must pass through Allow before going out.
type Limiter struct {
	perMinute int
	perHour   int
	enabled   bool

	mu           sync.Mutex
	minuteWindow []time.Time
	hourWindow   []time.Time
}

// NewLimiter creates a limiter with the given quotas. A quota of 0
// means unlimited for that window.
func NewLimiter(perMinute, perHour int, enabled bool) *Limiter {
	return &Limiter{
		perMinute:    perMinute,
		perHour:      perHour,
		enabled:      enabled,
		minuteWindow: make([]time.Time, 0),
		hourWindow:   make([]time.Time, 0),
	}
}

// Allow reports whether another provider request fits inside the quota
// and records it if so.
func (l *Limiter) Allow() bool {
	if l == nil || !l.enabled {
		return true
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()
	l.expire(now)

	if l.perMinute > 0 && len(l.minuteWindow) >= l.perMinute {
		return false
	}
	if l.perHour > 0 && len(l.hourWindow) >= l.perHour {
		return false
	}

	l.minuteWindow = append(l.minuteWindow, now)
	l.hourWindow = append(l.hourWindow, now)
	return true
}

func (l *Limiter) expire(now time.Time) {
	l.minuteWindow = trimBefore(l.minuteWindow, now.Add(-time.Minute))
	l.hourWindow = trimBefore(l.hourWindow, now.Add(-time.Hour))
}

func trimBefore(times []time.Time, cutoff time.Time) []time.Time {
	kept := times[:0]
	for _, t := range times {
		if t.After(cutoff) {
			kept = append(kept, t)
		}
	}
	return kept
}

// Snapshot describes the current quota usage.
type Snapshot struct {
	Enabled         bool `json:"enabled"`
	UsedLastMinute  int  `json:"used_last_minute"`
	UsedLastHour    int  `json:"used_last_hour"`
	LimitPerMinute  int  `json:"limit_per_minute"`
	LimitPerHour    int  `json:"limit_per_hour"`
	RemainingMinute int  `json:"remaining_minute"`
	RemainingHour   int  `json:"remaining_hour"`
}

// Usage returns the current quota usage.
func (l *Limiter) Usage() Snapshot {
	if l == nil || !l.enabled {
		return Snapshot{Enabled: false}
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	l.expire(time.Now())

	return Snapshot{
		Enabled:         true,
		UsedLastMinute:  len(l.minuteWindow),
		UsedLastHour:    len(l.hourWindow),
		LimitPerMinute:  l.perMinute,
		LimitPerHour:    l.perHour,
		RemainingMinute: remaining(l.perMinute, len(l.minuteWindow)),
		RemainingHour:   remaining(l.perHour, len(l.hourWindow)),
	}
}

// Reset clears all tracked requests.
func (l *Limiter) Reset() {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.minuteWindow = l.minuteWindow[:0]
	l.hourWindow = l.hourWindow[:0]
}

func remaining(limit, used int) int {
	if limit <= 0 {
		return -1
	}
	if used >= limit {
		return 0
	}
	return limit - used
}
