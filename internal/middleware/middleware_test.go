package middleware

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/venue-reservation/internal/config"
	"github.com/iliyamo/venue-reservation/internal/observability"
	"github.com/iliyamo/venue-reservation/internal/utils"
)

const testSecret = "test-secret"

func protected(roles ...string) *echo.Echo {
	e := echo.New()
	g := e.Group("/v1", JWTAuth(testSecret), RequireRole(roles...))
	g.GET("/whoami", func(c echo.Context) error {
		return c.String(http.StatusOK, OperatorID(c))
	})
	return e
}

func call(t *testing.T, e *echo.Echo, token string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/v1/whoami", nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestJWTAuthAndRoles(t *testing.T) {
	e := protected(RoleApprover, RoleAdmin)

	admin, err := utils.NewAccessToken(testSecret, "op-1", RoleAdmin, time.Hour)
	require.NoError(t, err)
	finance, err := utils.NewAccessToken(testSecret, "op-2", RoleFinance, time.Hour)
	require.NoError(t, err)
	forged, err := utils.NewAccessToken("other-secret", "op-3", RoleAdmin, time.Hour)
	require.NoError(t, err)
	expired, err := utils.NewAccessToken(testSecret, "op-4", RoleAdmin, -time.Minute)
	require.NoError(t, err)

	tests := []struct {
		name   string
		token  string
		status int
		body   string
	}{
		{"allowed role", admin.Token, http.StatusOK, "op-1"},
		{"wrong role", finance.Token, http.StatusForbidden, "forbidden"},
		{"no token", "", http.StatusUnauthorized, "missing bearer token"},
		{"bad signature", forged.Token, http.StatusUnauthorized, "invalid token"},
		{"expired", expired.Token, http.StatusUnauthorized, "invalid token"},
		{"garbage", "not-a-jwt", http.StatusUnauthorized, "invalid token"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := call(t, e, tt.token)
			assert.Equal(t, tt.status, rec.Code)
			assert.Contains(t, rec.Body.String(), tt.body)
		})
	}
}

func TestOperatorIDDefaultsToAnonymous(t *testing.T) {
	e := echo.New()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), httptest.NewRecorder())
	assert.Equal(t, "anonymous", OperatorID(c))
	c.Set(OperatorIDKey, "op-9")
	assert.Equal(t, "op-9", OperatorID(c))
}

func TestRequestIDAndLogger(t *testing.T) {
	var buf bytes.Buffer
	e := echo.New()
	e.Use(RequestID(), RequestLogger(observability.NewLoggerTo(&buf, "info")))
	e.GET("/ping", func(c echo.Context) error { return c.String(http.StatusOK, "pong") })
	e.GET("/boom", func(c echo.Context) error { return echo.NewHTTPError(http.StatusBadGateway, "upstream") })

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ping", nil))
	id := rec.Header().Get("X-Request-ID")
	assert.Len(t, id, 36)
	assert.Contains(t, buf.String(), id)
	assert.Contains(t, buf.String(), `"path":"/ping"`)

	buf.Reset()
	req := httptest.NewRequest(http.MethodGet, "/boom", nil)
	req.Header.Set("X-Request-ID", "client-id")
	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Equal(t, "client-id", rec.Header().Get("X-Request-ID"))
	assert.Contains(t, buf.String(), `"status":502`)
	assert.Contains(t, buf.String(), `"level":"error"`)
}

func TestRedisMiddlewaresPassThroughWithoutClient(t *testing.T) {
	e := echo.New()
	e.GET("/x", func(c echo.Context) error { return c.String(http.StatusOK, "fresh") },
		NewRedisCache(config.CacheConfig{Enabled: true, Methods: map[string]bool{"GET": true}}, nil),
		NewTokenBucket(config.RateLimitConfig{Enabled: true, Capacity: 1}, nil))

	for i := 0; i < 3; i++ {
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/x", nil))
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "fresh", rec.Body.String())
		assert.Empty(t, rec.Header().Get("X-Cache"))
	}
}

func TestCacheKeyStrategies(t *testing.T) {
	e := echo.New()
	newCtx := func(target string) echo.Context {
		c := e.NewContext(httptest.NewRequest(http.MethodGet, target, nil), httptest.NewRecorder())
		c.SetPath("/v1/venue/availability")
		return c
	}
	cfg := config.CacheConfig{Prefix: "venue-cache", KeyStrategy: "route_query"}
	a := cacheKeyFrom(cfg, newCtx("/v1/venue/availability?area_id=1"))
	b := cacheKeyFrom(cfg, newCtx("/v1/venue/availability?area_id=2"))
	assert.NotEqual(t, a, b)
	assert.True(t, strings.HasPrefix(a, "venue-cache:"))

	cfg.KeyStrategy = "route"
	assert.Equal(t, cacheKeyFrom(cfg, newCtx("/v1/venue/availability?area_id=1")),
		cacheKeyFrom(cfg, newCtx("/v1/venue/availability?area_id=2")))
}

func TestPayloadRoundTripRejectsShortInput(t *testing.T) {
	hdr := http.Header{"Content-Type": []string{"application/json"}}
	bs, err := encodePayload(http.StatusOK, hdr, []byte(`{"ok":true}`))
	require.NoError(t, err)
	status, got, body, ok := decodePayload(bs)
	require.True(t, ok)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "application/json", got.Get("Content-Type"))
	assert.Equal(t, `{"ok":true}`, string(body))

	_, _, _, ok = decodePayload([]byte{1, 2, 3})
	assert.False(t, ok)
}

func TestRateKeyUsesOperator(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/v1/venue/reservations", nil)
	req.Header.Set("X-Real-IP", "10.0.0.1")
	c := e.NewContext(req, httptest.NewRecorder())
	c.SetPath("/v1/venue/reservations")
	c.Set(OperatorIDKey, "op-1")

	cfg := config.RateLimitConfig{Prefix: "venue-rl"}
	assert.Equal(t, "venue-rl:ip:10.0.0.1:user:op-1:route:POST /v1/venue/reservations", buildRateKey(cfg, c))
	cfg.KeyStrategy = "user"
	assert.Equal(t, "venue-rl:user:op-1", buildRateKey(cfg, c))
}
