package domain

import (
	"context"
	"time"
)

// RateLimiter counts requests per key within a fixed window. Implementations
// decide where the counters live; callers only see the decision.
type RateLimiter interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (RateLimitDecision, error)
}

type RateLimitDecision struct {
	Allowed   bool
	Limit     int
	Remaining int
	ResetAt   time.Time
	// RetryAfter is the time left in the window on denial, measured by the
	// limiter's own clock so header math never mixes clocks.
	RetryAfter time.Duration
}

// RateLimitPreset names a bucket configuration. Preset names map
// deterministically to the same parameters for the process lifetime.
type RateLimitPreset struct {
	Name     string
	Requests int
	Window   time.Duration
}

const DefaultRateLimitPreset = "api"

var rateLimitPresets = map[string]RateLimitPreset{
	"api":    {Name: "api", Requests: 100, Window: time.Minute},
	"auth":   {Name: "auth", Requests: 20, Window: time.Minute},
	"read":   {Name: "read", Requests: 300, Window: time.Minute},
	"upload": {Name: "upload", Requests: 30, Window: time.Minute},
	"admin":  {Name: "admin", Requests: 60, Window: time.Minute},
	"debug":  {Name: "debug", Requests: 5, Window: time.Minute},
}

// PresetByName returns the named preset, falling back to the conservative
// "api" preset for unknown names rather than failing the request.
func PresetByName(name string) RateLimitPreset {
	if preset, ok := rateLimitPresets[name]; ok {
		return preset
	}
	return rateLimitPresets[DefaultRateLimitPreset]
}
