package config

import "time"

// Bucket is one token bucket: Capacity requests in a burst, refilled by
// Refill tokens every Interval.  Keys idle for TTL are forgotten.
type Bucket struct {
    Capacity int
    Refill   int
    Interval time.Duration
    TTL      time.Duration
}

// Normalize clamps b to values both limiter backends can run with.
func (b Bucket) Normalize() Bucket {
    if b.Capacity < 1 {
        b.Capacity = 1
    }
    if b.Refill < 1 {
        b.Refill = 1
    }
    if b.Interval <= 0 {
        b.Interval = time.Second
    }
    // a key must outlive the time it takes to refill from empty
    if floor := 5 * b.Interval; b.TTL < floor {
        b.TTL = floor
    }
    return b
}

// RateLimitConfig configures request throttling.  API applies to every
// /v1 request, keyed by client address and user.  Reserve is a tighter
// bucket in front of seat reservation, keyed by user alone.
type RateLimitConfig struct {
    Enabled       bool
    Prefix        string
    LocalFallback bool // in-process limiter when Redis is unavailable
    API           Bucket
    Reserve       Bucket
}

// LoadRateLimitConfig reads RATE_LIMIT_* for the API bucket and
// RESERVE_LIMIT_* for the reservation bucket.  Each bucket takes
// _CAPACITY, _REFILL_TOKENS, _REFILL_INTERVAL and _TTL.
func LoadRateLimitConfig() RateLimitConfig {
    return RateLimitConfig{
        Enabled:       envBool("RATE_LIMIT_ENABLED", true),
        Prefix:        envStr("RATE_LIMIT_PREFIX", "stadium:rl"),
        LocalFallback: envBool("RATE_LIMIT_LOCAL_FALLBACK", true),
        API: loadBucket("RATE_LIMIT", Bucket{
            Capacity: 60, Refill: 1, Interval: time.Second, TTL: 10 * time.Minute,
        }),
        Reserve: loadBucket("RESERVE_LIMIT", Bucket{
            Capacity: 5, Refill: 1, Interval: 12 * time.Second, TTL: 10 * time.Minute,
        }),
    }
}

func loadBucket(prefix string, def Bucket) Bucket {
    return Bucket{
        Capacity: envInt(prefix+"_CAPACITY", def.Capacity),
        Refill:   envInt(prefix+"_REFILL_TOKENS", def.Refill),
        Interval: envDur(prefix+"_REFILL_INTERVAL", def.Interval),
        TTL:      envDur(prefix+"_TTL", def.TTL),
    }.Normalize()
}
