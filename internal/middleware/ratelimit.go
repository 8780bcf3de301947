package middleware

import (
    "math"
    "net/http"
    "strconv"
    "sync"
    "time"

    "github.com/labstack/echo/v4"
    "github.com/redis/go-redis/v9"
    "golang.org/x/time/rate"

    "github.com/iliyamo/stadium-seat-reservation/internal/config"
    "github.com/iliyamo/stadium-seat-reservation/internal/monitoring"
)

// tokenBucketScript refills and takes one token atomically.  It returns
// {allowed, remaining, retry_after_ms}.
var tokenBucketScript = redis.NewScript(`
    local key = KEYS[1]
    local now_ms = tonumber(ARGV[1])
    local capacity = tonumber(ARGV[2])
    local refill = tonumber(ARGV[3])
    local interval_ms = tonumber(ARGV[4])
    local ttl = tonumber(ARGV[5])

    local state = redis.call('HMGET', key, 'tokens', 'refilled_at')
    local tokens = tonumber(state[1]) or capacity
    local refilled_at = tonumber(state[2]) or now_ms

    local steps = math.floor(math.max(0, now_ms - refilled_at) / interval_ms)
    if steps > 0 then
        tokens = math.min(capacity, tokens + steps * refill)
        refilled_at = refilled_at + steps * interval_ms
    end

    local allowed, retry_ms = 0, 0
    if tokens > 0 then
        allowed = 1
        tokens = tokens - 1
    else
        retry_ms = math.max(0, interval_ms - (now_ms - refilled_at))
    end

    redis.call('HSET', key, 'tokens', tokens, 'refilled_at', refilled_at)
    redis.call('EXPIRE', key, ttl)
    return { allowed, tokens, retry_ms }
`)

// keyFunc names the client a request is counted against.
type keyFunc func(c echo.Context) string

// clientKey counts requests per address and user.
func clientKey(c echo.Context) string {
    ip := c.RealIP()
    if ip == "" {
        ip = "unknown"
    }
    return "ip:" + ip + ":user:" + userID(c)
}

// userKey counts requests per user.  It is only used on routes that
// require authentication.
func userKey(c echo.Context) string { return "user:" + userID(c) }

// RateLimiter builds token bucket middleware.  Buckets live in Redis
// when a client is available.  Without Redis, or when a Redis call
// fails, each bucket falls back to an in-process limiter when
// LocalFallback is set and lets the request through otherwise.
type RateLimiter struct {
    cfg config.RateLimitConfig
    rdb *redis.Client
    now func() time.Time
}

// NewRateLimiter returns a RateLimiter for cfg.  rdb may be nil.
func NewRateLimiter(cfg config.RateLimitConfig, rdb *redis.Client) *RateLimiter {
    return &RateLimiter{cfg: cfg, rdb: rdb, now: time.Now}
}

// API limits every request per client address and user.
func (l *RateLimiter) API() echo.MiddlewareFunc {
    return l.bucket("api", l.cfg.API, clientKey)
}

// Reserve limits seat reservations per user.  It must run after
// Authenticate.
func (l *RateLimiter) Reserve() echo.MiddlewareFunc {
    return l.bucket("reserve", l.cfg.Reserve, userKey)
}

func (l *RateLimiter) bucket(name string, b config.Bucket, keyOf keyFunc) echo.MiddlewareFunc {
    if !l.cfg.Enabled {
        return func(next echo.HandlerFunc) echo.HandlerFunc { return next }
    }
    b = b.Normalize()
    var local *localLimiter
    if l.cfg.LocalFallback {
        local = newLocalLimiter(b)
    }
    limit := strconv.Itoa(b.Capacity)

    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            key := l.cfg.Prefix + ":" + name + ":" + keyOf(c)
            now := l.now()
            c.Response().Header().Set("X-RateLimit-Limit", limit)

            if l.rdb == nil {
                return local.allow(c, next, key, now)
            }
            args := []interface{}{
                now.UnixMilli(),
                b.Capacity,
                b.Refill,
                b.Interval.Milliseconds(),
                int64(b.TTL / time.Second),
            }
            res, err := tokenBucketScript.Run(c.Request().Context(), l.rdb, []string{key}, args...).Int64Slice()
            if err != nil || len(res) != 3 {
                c.Logger().Warnf("ratelimit: %s: redis unavailable, using local limiter: %v", key, err)
                return local.allow(c, next, key, now)
            }

            c.Response().Header().Set("X-RateLimit-Remaining", strconv.FormatInt(res[1], 10))
            if res[0] != 1 {
                monitoring.TrackRateLimited("redis")
                return tooManyRequests(c, time.Duration(res[2])*time.Millisecond)
            }
            return next(c)
        }
    }
}

func tooManyRequests(c echo.Context, retry time.Duration) error {
    secs := int(math.Ceil(retry.Seconds()))
    if secs < 0 {
        secs = 0
    }
    c.Response().Header().Set("Retry-After", strconv.Itoa(secs))
    return c.JSON(http.StatusTooManyRequests, echo.Map{
        "detail":      "Request was throttled.",
        "retry_after": secs,
    })
}

// localLimiter keeps one x/time/rate limiter per key.  Entries idle for
// longer than ttl are dropped on the next sweep.
type localLimiter struct {
    mu      sync.Mutex
    every   rate.Limit
    burst   int
    ttl     time.Duration
    entries map[string]*localEntry
    sweepAt time.Time
}

type localEntry struct {
    lim      *rate.Limiter
    lastSeen time.Time
}

func newLocalLimiter(b config.Bucket) *localLimiter {
    refill, interval := b.Refill, b.Interval
    if refill < 1 {
        refill = 1
    }
    if interval <= 0 {
        interval = time.Second
    }
    burst := b.Capacity
    if burst < 1 {
        burst = 1
    }
    ttl := b.TTL
    if ttl < interval {
        ttl = interval
    }
    return &localLimiter{
        every:   rate.Every(interval / time.Duration(refill)),
        burst:   burst,
        ttl:     ttl,
        entries: map[string]*localEntry{},
    }
}

// allow runs next when key has a token.  A nil localLimiter lets every
// request through.
func (l *localLimiter) allow(c echo.Context, next echo.HandlerFunc, key string, now time.Time) error {
    if l == nil {
        return next(c)
    }
    r := l.reserve(key, now)
    if delay := r.DelayFrom(now); delay > 0 {
        r.CancelAt(now)
        monitoring.TrackRateLimited("local")
        return tooManyRequests(c, delay)
    }
    return next(c)
}

func (l *localLimiter) reserve(key string, now time.Time) *rate.Reservation {
    l.mu.Lock()
    defer l.mu.Unlock()
    if now.After(l.sweepAt) {
        for k, e := range l.entries {
            if now.Sub(e.lastSeen) > l.ttl {
                delete(l.entries, k)
            }
        }
        l.sweepAt = now.Add(l.ttl)
    }
    e, ok := l.entries[key]
    if !ok {
        e = &localEntry{lim: rate.NewLimiter(l.every, l.burst)}
        l.entries[key] = e
    }
    e.lastSeen = now
    return e.lim.ReserveN(now, 1)
}
