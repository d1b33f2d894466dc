package util

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
)

const (
	AccessTokenCookie        = "access_token"
	RefreshTokenCookie       = "refresh_token"
	AccessTokenExpiresCookie = "access_token_expires"
)

// CookieConfig controls the attributes of the auth cookies.
type CookieConfig struct {
	Secure bool
	Domain string
}

// SetAccessCookies writes the access token and its expiry timestamp.
func SetAccessCookies(c *gin.Context, cfg CookieConfig, token string, expiresAt time.Time) {
	maxAge := int(time.Until(expiresAt).Seconds())
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(AccessTokenCookie, token, maxAge, "/", cfg.Domain, cfg.Secure, true)
	c.SetCookie(AccessTokenExpiresCookie, strconv.FormatInt(expiresAt.Unix(), 10), maxAge, "/", cfg.Domain, cfg.Secure, true)
}

// SetRefreshCookie writes the refresh token.
func SetRefreshCookie(c *gin.Context, cfg CookieConfig, token string, expiresAt time.Time) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(RefreshTokenCookie, token, int(time.Until(expiresAt).Seconds()), "/", cfg.Domain, cfg.Secure, true)
}

// ClearAuthCookies expires every auth cookie.
func ClearAuthCookies(c *gin.Context, cfg CookieConfig) {
	c.SetSameSite(http.SameSiteLaxMode)
	for _, name := range []string{AccessTokenCookie, AccessTokenExpiresCookie, RefreshTokenCookie} {
		c.SetCookie(name, "", -1, "/", cfg.Domain, cfg.Secure, true)
	}
}
