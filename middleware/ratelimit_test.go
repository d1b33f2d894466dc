package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
)

func newRateLimitedRouter(rl gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(rl)
	r.POST("/v1/auth/token", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "success"})
	})
	return r
}

func hitLogin(r *gin.Engine) *httptest.ResponseRecorder {
	return hitPath(r, "/v1/auth/token")
}

func TestRateLimiter_WithoutRedis(t *testing.T) {
	r := newRateLimitedRouter(RateLimiter(nil, RateLimitConfig{Limit: 5, Window: 15 * time.Minute}, nil))

	for i := 0; i < 10; i++ {
		if w := hitLogin(r); w.Code != http.StatusOK {
			t.Errorf("Request %d: expected status 200, got %d", i+1, w.Code)
		}
	}
}

func TestRateLimiter_BlocksOverLimit(t *testing.T) {
	rdb, mock := redismock.NewClientMock()
	key := "ratelimit:/v1/auth/token:192.168.1.1"
	window := time.Minute

	mock.ExpectIncr(key).SetVal(2)
	mock.ExpectExpire(key, window).SetVal(true)
	mock.ExpectIncr(key).SetVal(3)
	mock.ExpectExpire(key, window).SetVal(true)

	r := newRateLimitedRouter(RateLimiter(rdb, RateLimitConfig{Limit: 2, Window: window}, nil))

	assert.Equal(t, http.StatusOK, hitLogin(r).Code)
	w := hitLogin(r)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "60", w.Header().Get("Retry-After"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRateLimiter_RedisErrorAllows(t *testing.T) {
	rdb, mock := redismock.NewClientMock()
	key := "ratelimit:/v1/auth/token:192.168.1.1"

	mock.ExpectIncr(key).SetErr(errors.New("connection refused"))
	mock.ExpectExpire(key, defaultRateWindow).SetVal(true)

	r := newRateLimitedRouter(RateLimiter(rdb, RateLimitConfig{}, nil))
	assert.Equal(t, http.StatusOK, hitLogin(r).Code)
}

func TestRateLimiter_SharedScope(t *testing.T) {
	rdb, mock := redismock.NewClientMock()
	key := "ratelimit:login:192.168.1.1"
	window := time.Minute

	mock.ExpectIncr(key).SetVal(1)
	mock.ExpectExpire(key, window).SetVal(true)
	mock.ExpectIncr(key).SetVal(2)
	mock.ExpectExpire(key, window).SetVal(true)

	gin.SetMode(gin.TestMode)
	r := gin.New()
	limit := RateLimiter(rdb, RateLimitConfig{Limit: 1, Window: window, Scope: LoginRateScope}, nil)
	ok := func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"message": "success"}) }
	r.POST("/v1/auth/token", limit, ok)
	r.POST("/v1/auth/login", limit, ok)

	assert.Equal(t, http.StatusOK, hitPath(r, "/v1/auth/token").Code)
	assert.Equal(t, http.StatusTooManyRequests, hitPath(r, "/v1/auth/login").Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func hitPath(r *gin.Engine, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, path, nil)
	req.RemoteAddr = "192.168.1.1:1234"
	r.ServeHTTP(w, req)
	return w
}

func TestResetRateLimit(t *testing.T) {
	assert.NoError(t, ResetRateLimit(context.Background(), nil, "192.168.1.1", LoginRateScope))

	rdb, mock := redismock.NewClientMock()
	mock.ExpectDel("ratelimit:login:192.168.1.1").SetVal(1)
	assert.NoError(t, ResetRateLimit(context.Background(), rdb, "192.168.1.1", LoginRateScope))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestResetRateLimit_RedisError(t *testing.T) {
	rdb, mock := redismock.NewClientMock()
	mock.ExpectDel("ratelimit:login:192.168.1.1").SetErr(errors.New("connection refused"))
	assert.Error(t, ResetRateLimit(context.Background(), rdb, "192.168.1.1", LoginRateScope))
}
