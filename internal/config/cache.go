package config

import "time"

// CacheConfig configures the Redis cache in front of the public stadium
// and seat listings.  Bodies larger than MaxBodyBytes are not stored.
type CacheConfig struct {
    Enabled      bool
    TTL          time.Duration
    Prefix       string
    MaxBodyBytes int
}

// LoadCacheConfig reads CACHE_ENABLED, CACHE_TTL, CACHE_PREFIX and
// CACHE_MAX_BODY_BYTES.
func LoadCacheConfig() CacheConfig {
    return CacheConfig{
        Enabled:      envBool("CACHE_ENABLED", true),
        TTL:          envDur("CACHE_TTL", 30*time.Second),
        Prefix:       envStr("CACHE_PREFIX", "stadium:cache"),
        MaxBodyBytes: envInt("CACHE_MAX_BODY_BYTES", 1<<20),
    }
}
