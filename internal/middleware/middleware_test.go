package middleware

import (
    "context"
    "errors"
    "net/http"
    "net/http/httptest"
    "testing"
    "time"

    "github.com/go-redis/redismock/v9"
    "github.com/labstack/echo/v4"
    "github.com/redis/go-redis/v9"
    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"

    "github.com/iliyamo/stadium-seat-reservation/internal/config"
    "github.com/iliyamo/stadium-seat-reservation/internal/model"
    "github.com/iliyamo/stadium-seat-reservation/internal/repository"
    "github.com/iliyamo/stadium-seat-reservation/internal/service"
    "github.com/iliyamo/stadium-seat-reservation/internal/utils"
)

const testSecret = "test-secret"

func bearer(t *testing.T, userID uint64, role string) string {
    t.Helper()
    tok, err := utils.NewAccessToken(testSecret, userID, role, time.Minute)
    require.NoError(t, err)
    return "Bearer " + tok.Token
}

func serve(e *echo.Echo, method, path, auth string) *httptest.ResponseRecorder {
    req := httptest.NewRequest(method, path, nil)
    if auth != "" {
        req.Header.Set(echo.HeaderAuthorization, auth)
    }
    rec := httptest.NewRecorder()
    e.ServeHTTP(rec, req)
    return rec
}

// userTable is a UserRepo over a fixed set of accounts.
type userTable struct {
    repository.UserRepo
    users map[uint64]model.User
    err   error
}

func (u userTable) GetByID(_ context.Context, id uint64) (*model.User, error) {
    if u.err != nil {
        return nil, u.err
    }
    user, ok := u.users[id]
    if !ok {
        return nil, repository.ErrNotFound
    }
    return &user, nil
}

func accounts() userTable {
    return userTable{users: map[uint64]model.User{
        1: {ID: 1, Email: "admin@example.com", IsStaff: true, IsActive: true},
        7: {ID: 7, Email: "fan@example.com", IsActive: true},
        8: {ID: 8, Email: "gone@example.com", IsActive: false},
        9: {ID: 9, Email: "demoted@example.com", IsStaff: false, IsActive: true},
    }}
}

func TestAuthenticate(t *testing.T) {
    e := echo.New()
    var got service.Actor
    e.GET("/whoami", func(c echo.Context) error {
        got = ActorFrom(c)
        return c.NoContent(http.StatusOK)
    }, Authenticate(testSecret, accounts()))

    rec := serve(e, http.MethodGet, "/whoami", "")
    assert.Equal(t, http.StatusOK, rec.Code)
    assert.True(t, got.IsAnonymous())

    rec = serve(e, http.MethodGet, "/whoami", bearer(t, 7, model.RoleUser))
    assert.Equal(t, http.StatusOK, rec.Code)
    assert.Equal(t, service.Actor{UserID: 7, Capability: service.Authenticated}, got)

    rec = serve(e, http.MethodGet, "/whoami", bearer(t, 1, model.RoleAdmin))
    assert.Equal(t, http.StatusOK, rec.Code)
    assert.Equal(t, service.Admin, got.Capability)

    rec = serve(e, http.MethodGet, "/whoami", "Bearer not-a-token")
    assert.Equal(t, http.StatusUnauthorized, rec.Code)

    rec = serve(e, http.MethodGet, "/whoami", "Basic Zm9vOmJhcg==")
    assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuthenticateReloadsUser(t *testing.T) {
    e := echo.New()
    ok := func(c echo.Context) error { return c.NoContent(http.StatusNoContent) }
    e.POST("/admin", ok, Authenticate(testSecret, accounts()), RequireCapability(service.Admin))

    // token outlives the account
    rec := serve(e, http.MethodPost, "/admin", bearer(t, 42, model.RoleAdmin))
    assert.Equal(t, http.StatusUnauthorized, rec.Code)
    assert.JSONEq(t, `{"detail":"User not found","code":"user_not_found"}`, rec.Body.String())

    rec = serve(e, http.MethodPost, "/admin", bearer(t, 8, model.RoleUser))
    assert.Equal(t, http.StatusUnauthorized, rec.Code)
    assert.JSONEq(t, `{"detail":"User is inactive","code":"user_inactive"}`, rec.Body.String())

    // admin claim issued before the staff flag was cleared
    rec = serve(e, http.MethodPost, "/admin", bearer(t, 9, model.RoleAdmin))
    assert.Equal(t, http.StatusForbidden, rec.Code)

    assert.Equal(t, http.StatusNoContent, serve(e, http.MethodPost, "/admin", bearer(t, 1, model.RoleAdmin)).Code)

    broken := echo.New()
    broken.POST("/admin", ok, Authenticate(testSecret, userTable{err: errors.New("connection refused")}))
    assert.Equal(t, http.StatusInternalServerError, serve(broken, http.MethodPost, "/admin", bearer(t, 1, model.RoleAdmin)).Code)
}

func TestRequireCapability(t *testing.T) {
    e := echo.New()
    ok := func(c echo.Context) error { return c.NoContent(http.StatusNoContent) }
    e.POST("/admin", ok, Authenticate(testSecret, accounts()), RequireCapability(service.Admin))
    e.POST("/register", ok, Authenticate(testSecret, accounts()), RequireAnonymous())

    assert.Equal(t, http.StatusUnauthorized, serve(e, http.MethodPost, "/admin", "").Code)
    assert.Equal(t, http.StatusForbidden, serve(e, http.MethodPost, "/admin", bearer(t, 7, model.RoleUser)).Code)
    assert.Equal(t, http.StatusNoContent, serve(e, http.MethodPost, "/admin", bearer(t, 1, model.RoleAdmin)).Code)

    assert.Equal(t, http.StatusNoContent, serve(e, http.MethodPost, "/register", "").Code)
    assert.Equal(t, http.StatusForbidden, serve(e, http.MethodPost, "/register", bearer(t, 7, model.RoleUser)).Code)
}

func limiter(cfg config.RateLimitConfig, rdb *redis.Client, now time.Time) *RateLimiter {
    l := NewRateLimiter(cfg, rdb)
    l.now = func() time.Time { return now }
    return l
}

func TestTokenBucketRedisDenies(t *testing.T) {
    db, mock := redismock.NewClientMock()
    cfg := config.RateLimitConfig{
        Enabled: true, Prefix: "rl",
        API: config.Bucket{Capacity: 5, Refill: 1, Interval: time.Second, TTL: time.Minute},
    }
    now := time.UnixMilli(1_700_000_000_000)
    args := []interface{}{now.UnixMilli(), 5, 1, int64(1000), int64(60)}
    mock.ExpectEvalSha(tokenBucketScript.Hash(), []string{"rl:api:ip:192.0.2.1:user:anon"}, args...).
        SetVal([]interface{}{int64(0), int64(0), int64(1500)})

    e := echo.New()
    e.GET("/v1/teams", func(c echo.Context) error { return c.NoContent(http.StatusOK) },
        limiter(cfg, db, now).API())

    rec := serve(e, http.MethodGet, "/v1/teams", "")
    assert.Equal(t, http.StatusTooManyRequests, rec.Code)
    assert.Equal(t, "2", rec.Header().Get("Retry-After"))
    assert.Equal(t, "0", rec.Header().Get("X-RateLimit-Remaining"))
    assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTokenBucketRedisAllows(t *testing.T) {
    db, mock := redismock.NewClientMock()
    cfg := config.RateLimitConfig{
        Enabled: true, Prefix: "rl",
        API: config.Bucket{Capacity: 5, Refill: 1, Interval: time.Second, TTL: time.Minute},
    }
    now := time.UnixMilli(1_700_000_000_000)
    args := []interface{}{now.UnixMilli(), 5, 1, int64(1000), int64(60)}
    mock.ExpectEvalSha(tokenBucketScript.Hash(), []string{"rl:api:ip:192.0.2.1:user:anon"}, args...).
        SetVal([]interface{}{int64(1), int64(4), int64(0)})

    e := echo.New()
    e.GET("/v1/teams", func(c echo.Context) error { return c.NoContent(http.StatusOK) },
        limiter(cfg, db, now).API())

    rec := serve(e, http.MethodGet, "/v1/teams", "")
    assert.Equal(t, http.StatusOK, rec.Code)
    assert.Equal(t, "4", rec.Header().Get("X-RateLimit-Remaining"))
    assert.Equal(t, "5", rec.Header().Get("X-RateLimit-Limit"))
    assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReserveBucketKeysOnUser(t *testing.T) {
    db, mock := redismock.NewClientMock()
    cfg := config.RateLimitConfig{
        Enabled: true, Prefix: "rl",
        Reserve: config.Bucket{Capacity: 2, Refill: 1, Interval: 10 * time.Second, TTL: time.Minute},
    }
    now := time.UnixMilli(1_700_000_000_000)
    args := []interface{}{now.UnixMilli(), 2, 1, int64(10000), int64(60)}
    mock.ExpectEvalSha(tokenBucketScript.Hash(), []string{"rl:reserve:user:7"}, args...).
        SetVal([]interface{}{int64(0), int64(0), int64(4000)})

    e := echo.New()
    e.PUT("/v1/matches/:id/reservations", func(c echo.Context) error { return c.NoContent(http.StatusOK) },
        Authenticate(testSecret, accounts()), limiter(cfg, db, now).Reserve())

    rec := serve(e, http.MethodPut, "/v1/matches/3/reservations", bearer(t, 7, model.RoleUser))
    assert.Equal(t, http.StatusTooManyRequests, rec.Code)
    assert.Equal(t, "4", rec.Header().Get("Retry-After"))
    assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTokenBucketLocalFallback(t *testing.T) {
    cfg := config.RateLimitConfig{
        Enabled: true, Prefix: "rl", LocalFallback: true,
        API: config.Bucket{Capacity: 2, Refill: 1, Interval: time.Minute, TTL: 5 * time.Minute},
    }
    e := echo.New()
    e.GET("/v1/teams", func(c echo.Context) error { return c.NoContent(http.StatusOK) },
        limiter(cfg, nil, time.Now()).API())

    assert.Equal(t, http.StatusOK, serve(e, http.MethodGet, "/v1/teams", "").Code)
    assert.Equal(t, http.StatusOK, serve(e, http.MethodGet, "/v1/teams", "").Code)
    rec := serve(e, http.MethodGet, "/v1/teams", "")
    assert.Equal(t, http.StatusTooManyRequests, rec.Code)
    assert.Equal(t, "60", rec.Header().Get("Retry-After"))
}

func TestTokenBucketDisabledWithoutFallback(t *testing.T) {
    cfg := config.RateLimitConfig{Enabled: true, API: config.Bucket{Capacity: 1, Refill: 1, Interval: time.Minute}}
    e := echo.New()
    e.GET("/", func(c echo.Context) error { return c.NoContent(http.StatusOK) }, NewRateLimiter(cfg, nil).API())
    for i := 0; i < 3; i++ {
        assert.Equal(t, http.StatusOK, serve(e, http.MethodGet, "/", "").Code)
    }
}

func TestLocalLimiterSurvivesZeroBucket(t *testing.T) {
    var l *localLimiter
    require.NotPanics(t, func() { l = newLocalLimiter(config.Bucket{}) })
    now := time.Now()
    assert.Equal(t, time.Duration(0), l.reserve("k", now).DelayFrom(now))
    assert.Equal(t, time.Second, l.reserve("k", now).DelayFrom(now))

    require.NotPanics(t, func() { newLocalLimiter(config.Bucket{Capacity: 3, Refill: -2, Interval: -time.Second}) })
}

func listingCache(rdb *redis.Client) *ListingCache {
    return NewListingCache(config.CacheConfig{Enabled: true, TTL: time.Minute, Prefix: "c", MaxBodyBytes: 1 << 10}, rdb, nil)
}

func TestListingCacheHit(t *testing.T) {
    db, mock := redismock.NewClientMock()
    lc := listingCache(db)
    mock.ExpectGet("c:stadiums").SetVal(`{"items":["Azadi"]}`)

    e := echo.New()
    called := false
    e.GET("/v1/stadiums", func(c echo.Context) error {
        called = true
        return c.JSONBlob(http.StatusOK, []byte(`{"items":[]}`))
    }, lc.Stadiums())

    rec := serve(e, http.MethodGet, "/v1/stadiums", "")
    assert.Equal(t, http.StatusOK, rec.Code)
    assert.Equal(t, "HIT", rec.Header().Get("X-Cache"))
    assert.JSONEq(t, `{"items":["Azadi"]}`, rec.Body.String())
    assert.False(t, called)
    assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListingCacheMissStoresPerStadium(t *testing.T) {
    db, mock := redismock.NewClientMock()
    lc := listingCache(db)
    body := `{"items":[{"id":4,"code":"n256"}]}`
    mock.ExpectGet("c:stadiums:3:seats").RedisNil()
    mock.ExpectSet("c:stadiums:3:seats", []byte(body), time.Minute).SetVal("OK")

    e := echo.New()
    e.GET("/v1/stadiums/:id/seats", func(c echo.Context) error {
        return c.JSONBlob(http.StatusOK, []byte(body))
    }, lc.Seats())
    e.GET("/v1/stadiums/:id/missing", func(c echo.Context) error {
        return c.JSON(http.StatusNotFound, echo.Map{"detail": "Not found."})
    }, lc.Seats())

    rec := serve(e, http.MethodGet, "/v1/stadiums/3/seats", "")
    assert.Equal(t, http.StatusOK, rec.Code)
    assert.Equal(t, "MISS", rec.Header().Get("X-Cache"))
    assert.JSONEq(t, body, rec.Body.String())

    // unparsable ids bypass the cache
    rec = serve(e, http.MethodGet, "/v1/stadiums/abc/missing", "")
    assert.Equal(t, http.StatusNotFound, rec.Code)
    assert.Empty(t, rec.Header().Get("X-Cache"))
    assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListingCacheSkipsErrorsAndLargeBodies(t *testing.T) {
    db, mock := redismock.NewClientMock()
    lc := NewListingCache(config.CacheConfig{Enabled: true, TTL: time.Minute, Prefix: "c", MaxBodyBytes: 8}, db, nil)
    mock.ExpectGet("c:stadiums").RedisNil()
    mock.ExpectGet("c:stadiums:5:seats").RedisNil()

    e := echo.New()
    e.GET("/v1/stadiums", func(c echo.Context) error {
        return c.JSONBlob(http.StatusOK, []byte(`{"items":["a long stadium name"]}`))
    }, lc.Stadiums())
    e.GET("/v1/stadiums/:id/seats", func(c echo.Context) error {
        return c.JSON(http.StatusNotFound, echo.Map{"detail": "Not found."})
    }, lc.Seats())

    assert.Equal(t, http.StatusOK, serve(e, http.MethodGet, "/v1/stadiums", "").Code)
    assert.Equal(t, http.StatusNotFound, serve(e, http.MethodGet, "/v1/stadiums/5/seats", "").Code)
    assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListingCacheInvalidation(t *testing.T) {
    db, mock := redismock.NewClientMock()
    lc := listingCache(db)
    mock.ExpectDel("c:stadiums").SetVal(1)
    mock.ExpectDel("c:stadiums:3:seats").SetVal(0)

    lc.StadiumsChanged(context.Background())
    lc.SeatsChanged(context.Background(), 3)
    assert.NoError(t, mock.ExpectationsWereMet())
}

func TestNilListingCache(t *testing.T) {
    lc := NewListingCache(config.CacheConfig{Enabled: false}, nil, nil)
    assert.Nil(t, lc)
    lc.StadiumsChanged(context.Background())
    lc.SeatsChanged(context.Background(), 1)

    e := echo.New()
    e.GET("/v1/stadiums", func(c echo.Context) error { return c.NoContent(http.StatusOK) }, lc.Stadiums())
    rec := serve(e, http.MethodGet, "/v1/stadiums", "")
    assert.Equal(t, http.StatusOK, rec.Code)
    assert.Empty(t, rec.Header().Get("X-Cache"))
}
