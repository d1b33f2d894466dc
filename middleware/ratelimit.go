package middleware

import (
	"context"
	"fmt"
	"time"

	"github.com/caresync/caresync-api/util"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

const (
	defaultRateLimit  = 5
	defaultRateWindow = 15 * time.Minute
)

// LoginRateScope is the counter shared by every login route.
const LoginRateScope = "login"

// RateLimitConfig holds configuration for rate limiting
type RateLimitConfig struct {
	Limit  int
	Window time.Duration
	// Scope names the counter. Routes with the same scope share one budget
	// per client IP. Empty means the request path.
	Scope string
}

// RateLimiter counts requests per scope and client IP in Redis. A nil
// client or a Redis failure lets every request through.
func RateLimiter(rdb *redis.Client, cfg RateLimitConfig, security *util.SecurityLogger) gin.HandlerFunc {
	if cfg.Limit <= 0 {
		cfg.Limit = defaultRateLimit
	}
	if cfg.Window <= 0 {
		cfg.Window = defaultRateWindow
	}

	return func(c *gin.Context) {
		clientIP := c.ClientIP()
		endpoint := c.Request.URL.Path
		scope := cfg.Scope
		if scope == "" {
			scope = endpoint
		}

		allowed, err := checkRateLimit(c.Request.Context(), rdb, rateLimitKey(scope, clientIP), cfg)
		if err != nil {
			security.Log(util.SecurityEvent{
				EventType: util.EventSuspiciousActivity,
				IP:        clientIP,
				Message:   fmt.Sprintf("Rate limit check failed: %v", err),
			})
			c.Next()
			return
		}

		if !allowed {
			security.RateLimitExceeded(clientIP, endpoint)
			c.Header("Retry-After", fmt.Sprintf("%d", int(cfg.Window.Seconds())))
			util.CallTooManyRequests(c, util.APIErrorParams{
				Msg: "Too many requests. Please try again later.",
				Err: fmt.Errorf("rate limit exceeded"),
			})
			c.Abort()
			return
		}

		c.Next()
	}
}

func rateLimitKey(scope, clientIP string) string {
	return fmt.Sprintf("ratelimit:%s:%s", scope, clientIP)
}

// checkRateLimit increments the counter for key and reports whether it is
// still within the limit. Every hit pushes the window's expiry forward.
func checkRateLimit(ctx context.Context, rdb *redis.Client, key string, cfg RateLimitConfig) (bool, error) {
	if rdb == nil {
		return true, nil
	}

	pipe := rdb.Pipeline()
	incr := pipe.Incr(ctx, key)
	pipe.Expire(ctx, key, cfg.Window)
	if _, err := pipe.Exec(ctx); err != nil {
		return false, fmt.Errorf("failed to check rate limit: %w", err)
	}
	return incr.Val() <= int64(cfg.Limit), nil
}

// ResetRateLimit clears the counter for clientIP in scope. It is a no-op
// without a Redis client.
func ResetRateLimit(ctx context.Context, rdb *redis.Client, clientIP, scope string) error {
	if rdb == nil {
		return nil
	}
	if err := rdb.Del(ctx, rateLimitKey(scope, clientIP)).Err(); err != nil {
		return fmt.Errorf("failed to reset rate limit: %w", err)
	}
	return nil
}
