package middleware

import (
    "net/http"
    "net/http/httptest"
    "strings"
    "testing"
    "time"

    "github.com/labstack/echo/v4"
    "github.com/sirupsen/logrus"
    logtest "github.com/sirupsen/logrus/hooks/test"
    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"

    "github.com/iliyamo/cinema-showtime-scheduler/internal/config"
    "github.com/iliyamo/cinema-showtime-scheduler/internal/utils"
)

func guarded(secret string) *echo.Echo {
    e := echo.New()
    e.DELETE("/v1/showtimes/:id", func(c echo.Context) error {
        return c.String(http.StatusOK, userID(c))
    }, JWTAuth(secret), RequireRole(utils.RoleAdmin))
    return e
}

func call(e *echo.Echo, token string) *httptest.ResponseRecorder {
    req := httptest.NewRequest(http.MethodDelete, "/v1/showtimes/1", nil)
    if token != "" {
        req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
    }
    rec := httptest.NewRecorder()
    e.ServeHTTP(rec, req)
    return rec
}

func TestJWTAuthAndRole(t *testing.T) {
    e := guarded("s3cret")

    admin, err := utils.NewAccessToken("s3cret", "ops", utils.RoleAdmin, time.Minute)
    require.NoError(t, err)
    rec := call(e, admin.Token)
    assert.Equal(t, http.StatusOK, rec.Code)
    assert.Equal(t, "ops", rec.Body.String())

    viewer, err := utils.NewAccessToken("s3cret", "someone", "VIEWER", time.Minute)
    require.NoError(t, err)
    assert.Equal(t, http.StatusForbidden, call(e, viewer.Token).Code)

    forged, err := utils.NewAccessToken("other", "ops", utils.RoleAdmin, time.Minute)
    require.NoError(t, err)
    assert.Equal(t, http.StatusUnauthorized, call(e, forged.Token).Code)

    assert.Equal(t, http.StatusUnauthorized, call(e, "").Code)
}

func TestCacheKeyUsesConcretePath(t *testing.T) {
    cfg := config.CacheConfig{Prefix: "cache:showtimes", KeyStrategy: "route_query"}
    e := echo.New()
    key := func(target string) string {
        c := e.NewContext(httptest.NewRequest(http.MethodGet, target, nil), httptest.NewRecorder())
        c.SetPath("/v1/showtimes/:id")
        return cacheKeyFrom(cfg, c)
    }
    assert.NotEqual(t, key("/v1/showtimes/1"), key("/v1/showtimes/2"))
    assert.Equal(t, key("/v1/showtimes/1"), key("/v1/showtimes/1"))
    assert.True(t, strings.HasPrefix(key("/v1/showtimes/1"), "cache:showtimes:"))
}

func TestPayloadRoundTrip(t *testing.T) {
    hdr := http.Header{"Content-Type": {"application/json"}}
    bs, err := encodePayload(http.StatusOK, hdr, []byte(`{"success":true}`))
    require.NoError(t, err)

    status, gotHdr, body, ok := decodePayload(bs)
    require.True(t, ok)
    assert.Equal(t, http.StatusOK, status)
    assert.Equal(t, "application/json", gotHdr.Get("Content-Type"))
    assert.Equal(t, `{"success":true}`, string(body))

    _, _, _, ok = decodePayload(bs[:5])
    assert.False(t, ok)
}

func TestCaptureWriterTruncates(t *testing.T) {
    rec := httptest.NewRecorder()
    cw := &captureWriter{ResponseWriter: rec, status: http.StatusOK, limit: 4}
    _, _ = cw.Write([]byte("abc"))
    _, _ = cw.Write([]byte("defg"))

    assert.Equal(t, "abcdefg", rec.Body.String())
    assert.Equal(t, "abcd", cw.buf.String())
    assert.Equal(t, int64(7), cw.size)
}

func TestDisabledMiddlewaresPassThrough(t *testing.T) {
    log, _ := logtest.NewNullLogger()
    e := echo.New()
    e.Use(NewRedisCache(config.CacheConfig{Enabled: true}, nil, log))
    e.Use(NewTokenBucket(config.RateLimitConfig{Enabled: true}, nil, log))
    e.GET("/v1/showtimes", func(c echo.Context) error { return c.String(http.StatusOK, "ok") })

    rec := httptest.NewRecorder()
    e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/showtimes", nil))
    assert.Equal(t, http.StatusOK, rec.Code)
    assert.Empty(t, rec.Header().Get("X-Cache"))
}

func TestRateKeySeparatesReadsAndWrites(t *testing.T) {
    cfg := config.RateLimitConfig{Prefix: "rl", KeyStrategy: "ip_route", Capacity: 10, WriteCapacity: 2}
    e := echo.New()
    key := func(method string) string {
        req := httptest.NewRequest(method, "/v1/showtimes", nil)
        req.Header.Set(echo.HeaderXRealIP, "10.0.0.1")
        c := e.NewContext(req, httptest.NewRecorder())
        c.SetPath("/v1/showtimes")
        return buildRateKey(cfg, c)
    }
    assert.Equal(t, "rl:ip:10.0.0.1:route:r:/v1/showtimes", key(http.MethodGet))
    assert.Equal(t, "rl:ip:10.0.0.1:route:w:/v1/showtimes", key(http.MethodPost))
}

func TestRequestLogger(t *testing.T) {
    log, hook := logtest.NewNullLogger()
    e := echo.New()
    e.Use(RequestLogger(log))
    e.GET("/boom", func(c echo.Context) error { return echo.NewHTTPError(http.StatusBadGateway, "nope") })

    rec := httptest.NewRecorder()
    e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/boom", nil))
    assert.Equal(t, http.StatusBadGateway, rec.Code)

    entry := hook.LastEntry()
    require.NotNil(t, entry)
    assert.Equal(t, logrus.ErrorLevel, entry.Level)
    assert.Equal(t, http.StatusBadGateway, entry.Data["status"])
    assert.Equal(t, "guest", entry.Data["user"])
}
