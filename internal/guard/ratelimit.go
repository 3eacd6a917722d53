package guard

import (
	"math"
	"sync"
	"time"
)

// RateConfig holds the fixed-window limiter settings for submission routes.
type RateConfig struct {
	Window      time.Duration
	MaxRequests int
}

// DefaultRateConfig returns the production limiter settings.
func DefaultRateConfig() RateConfig {
	return RateConfig{Window: 15 * time.Minute, MaxRequests: 10}
}

type rateWindow struct {
	count int
	start time.Time
}

// RateLimiter caps legitimate submission volume per identity with a fixed
// window. It tracks a different signal than the IPTracker (volume, not
// abuse) and the two must stay independent.
type RateLimiter struct {
	mu      sync.Mutex
	cfg     RateConfig
	windows map[string]*rateWindow
	now     func() time.Time
}

// NewRateLimiter builds a limiter from config.
func NewRateLimiter(cfg RateConfig) *RateLimiter {
	return &RateLimiter{
		cfg:     cfg,
		windows: make(map[string]*rateWindow),
		now:     time.Now,
	}
}

// Allow counts one request for the identity. When the window cap is
// exceeded it returns false with a coarse retry-after equal to the whole
// window length in seconds, matching the fixed-window policy.
func (l *RateLimiter) Allow(identity string) (bool, int) {
	identity = normalizeIdentity(identity)
	now := l.now()

	l.mu.Lock()
	defer l.mu.Unlock()

	w, ok := l.windows[identity]
	if !ok || now.Sub(w.start) >= l.cfg.Window {
		l.windows[identity] = &rateWindow{count: 1, start: now}
		return true, 0
	}

	if w.count >= l.cfg.MaxRequests {
		return false, int(math.Round(l.cfg.Window.Seconds()))
	}

	w.count++
	return true, 0
}

// Sweep drops windows that have fully elapsed. Returns the number removed.
func (l *RateLimiter) Sweep() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	removed := 0
	for identity, w := range l.windows {
		if now.Sub(w.start) >= l.cfg.Window {
			delete(l.windows, identity)
			removed++
		}
	}
	return removed
}
