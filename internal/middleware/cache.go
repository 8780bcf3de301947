package middleware

import (
    "bytes"
    "context"
    "errors"
    "net/http"
    "strconv"
    "time"

    "github.com/labstack/echo/v4"
    "github.com/labstack/gommon/log"
    "github.com/redis/go-redis/v9"

    "github.com/iliyamo/stadium-seat-reservation/internal/config"
    "github.com/iliyamo/stadium-seat-reservation/internal/monitoring"
)

// ListingCache keeps the JSON bodies of the public stadium and seat
// listings in Redis.  Every listing has its own key and the venue
// catalog drops the key of a listing when a write changes it, so
// creating a seat in one stadium leaves the other listings cached.
//
// A nil *ListingCache serves every request uncached and ignores
// invalidation.
type ListingCache struct {
    rdb     *redis.Client
    prefix  string
    ttl     time.Duration
    maxBody int
    logger  *log.Logger
}

// NewListingCache returns nil when caching is disabled or rdb is nil.
func NewListingCache(cfg config.CacheConfig, rdb *redis.Client, logger *log.Logger) *ListingCache {
    if !cfg.Enabled || rdb == nil {
        return nil
    }
    if logger == nil {
        logger = log.New("cache")
    }
    return &ListingCache{
        rdb:     rdb,
        prefix:  cfg.Prefix,
        ttl:     cfg.TTL,
        maxBody: cfg.MaxBodyBytes,
        logger:  logger,
    }
}

// StadiumsKey is the key of the stadium listing.
func (lc *ListingCache) StadiumsKey() string { return lc.prefix + ":stadiums" }

// SeatsKey is the key of the seat listing of one stadium.
func (lc *ListingCache) SeatsKey(stadiumID uint64) string {
    return lc.prefix + ":stadiums:" + strconv.FormatUint(stadiumID, 10) + ":seats"
}

// Stadiums caches GET /stadiums.
func (lc *ListingCache) Stadiums() echo.MiddlewareFunc {
    if lc == nil {
        return func(next echo.HandlerFunc) echo.HandlerFunc { return next }
    }
    return lc.serve(func(echo.Context) (string, bool) { return lc.StadiumsKey(), true })
}

// Seats caches GET /stadiums/:id/seats.  Ids that don't parse are
// left to the handler uncached.
func (lc *ListingCache) Seats() echo.MiddlewareFunc {
    if lc == nil {
        return func(next echo.HandlerFunc) echo.HandlerFunc { return next }
    }
    return lc.serve(func(c echo.Context) (string, bool) {
        id, err := strconv.ParseUint(c.Param("id"), 10, 64)
        if err != nil || id == 0 {
            return "", false
        }
        return lc.SeatsKey(id), true
    })
}

// StadiumsChanged drops the cached stadium listing.
func (lc *ListingCache) StadiumsChanged(ctx context.Context) {
    if lc != nil {
        lc.drop(ctx, lc.StadiumsKey())
    }
}

// SeatsChanged drops the cached seat listing of a stadium.
func (lc *ListingCache) SeatsChanged(ctx context.Context, stadiumID uint64) {
    if lc != nil {
        lc.drop(ctx, lc.SeatsKey(stadiumID))
    }
}

func (lc *ListingCache) drop(ctx context.Context, key string) {
    if err := lc.rdb.Del(ctx, key).Err(); err != nil {
        lc.logger.Warnf("cache: drop %s: %v", key, err)
    }
}

func (lc *ListingCache) serve(keyOf func(echo.Context) (string, bool)) echo.MiddlewareFunc {
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            key, ok := keyOf(c)
            if !ok {
                return next(c)
            }
            ctx := c.Request().Context()
            body, err := lc.rdb.Get(ctx, key).Bytes()
            if err == nil {
                monitoring.TrackCache("HIT")
                c.Response().Header().Set("X-Cache", "HIT")
                return c.JSONBlob(http.StatusOK, body)
            }
            if !errors.Is(err, redis.Nil) {
                c.Logger().Warnf("cache: get %s: %v", key, err)
            }
            monitoring.TrackCache("MISS")
            c.Response().Header().Set("X-Cache", "MISS")

            res := c.Response()
            rec := &bodyRecorder{ResponseWriter: res.Writer, limit: lc.maxBody}
            res.Writer = rec
            defer func() { res.Writer = rec.ResponseWriter }()
            if err := next(c); err != nil {
                return err
            }
            if res.Status != http.StatusOK || rec.overflow {
                return nil
            }
            if err := lc.rdb.Set(ctx, key, rec.buf.Bytes(), lc.ttl).Err(); err != nil {
                c.Logger().Warnf("cache: store %s: %v", key, err)
            }
            return nil
        }
    }
}

// bodyRecorder copies what the handler writes, up to limit bytes.
type bodyRecorder struct {
    http.ResponseWriter
    buf      bytes.Buffer
    limit    int
    overflow bool
}

func (r *bodyRecorder) Write(p []byte) (int, error) {
    if !r.overflow {
        if r.limit > 0 && r.buf.Len()+len(p) > r.limit {
            r.overflow = true
            r.buf.Reset()
        } else {
            r.buf.Write(p)
        }
    }
    return r.ResponseWriter.Write(p)
}
