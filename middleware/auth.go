package middleware

import (
	"errors"
	"fmt"
	"strings"

	"github.com/caresync/caresync-api/model"
	"github.com/caresync/caresync-api/util"
	"github.com/gin-gonic/gin"
)

const (
	userKey   = "current_user"
	claimsKey = "token_claims"
)

// Authenticator resolves the caller from an access token.
type Authenticator struct {
	tokens   *util.TokenManager
	security *util.SecurityLogger
}

// NewAuthenticator returns an Authenticator. security may be nil.
func NewAuthenticator(tokens *util.TokenManager, security *util.SecurityLogger) *Authenticator {
	return &Authenticator{tokens: tokens, security: security}
}

// BearerToken extracts the access token from the Authorization header,
// falling back to the access_token cookie.
func BearerToken(c *gin.Context) string {
	if h := c.GetHeader("Authorization"); h != "" {
		scheme, token, found := strings.Cut(h, " ")
		if found && strings.EqualFold(scheme, "Bearer") {
			return strings.TrimSpace(token)
		}
		return ""
	}
	token, err := c.Cookie(util.AccessTokenCookie)
	if err != nil {
		return ""
	}
	return token
}

// RequireAuth rejects the request with 401 unless it carries a valid access
// token for an existing user. The user is stored on the context.
func (a *Authenticator) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := BearerToken(c)
		if raw == "" {
			a.reject(c, "", errors.New("missing access token"))
			return
		}

		claims, err := a.tokens.ParseToken(raw, util.AccessToken)
		if err != nil {
			a.reject(c, "", err)
			return
		}

		store := GetStorage(c)
		if store == nil {
			util.CallServerError(c, util.APIErrorParams{
				Msg: "Database connection not available",
				Err: fmt.Errorf("storage is nil"),
			})
			c.Abort()
			return
		}
		user, err := store.FindUserByEmail(claims.Subject)
		if err != nil {
			a.reject(c, claims.Subject, fmt.Errorf("unknown subject: %w", err))
			return
		}

		c.Set(userKey, user)
		c.Set(claimsKey, claims)
		c.Next()
	}
}

func (a *Authenticator) reject(c *gin.Context, email string, err error) {
	a.security.UnauthorizedAccess("", email, c.ClientIP(), c.Request.URL.Path, err.Error())
	util.CallUserNotAuthorized(c, util.APIErrorParams{
		Msg: "Could not validate credentials",
		Err: err,
	})
	c.Abort()
}

// RequireRole rejects authenticated users whose role differs from role with
// 403. It must run after RequireAuth.
func RequireRole(role model.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := CurrentUser(c)
		if !ok {
			util.CallUserNotAuthorized(c, util.APIErrorParams{
				Msg: "Could not validate credentials",
				Err: errors.New("no authenticated user"),
			})
			c.Abort()
			return
		}
		if user.Role != role {
			util.CallForbidden(c, util.APIErrorParams{
				Msg: fmt.Sprintf("Only %s accounts can access this resource", role),
				Err: fmt.Errorf("role %q not permitted", user.Role),
			})
			c.Abort()
			return
		}
		c.Next()
	}
}

// CurrentUser returns the user set by RequireAuth.
func CurrentUser(c *gin.Context) (model.User, bool) {
	v, ok := c.Get(userKey)
	if !ok {
		return model.User{}, false
	}
	user, ok := v.(model.User)
	return user, ok
}

// CurrentClaims returns the token claims set by RequireAuth.
func CurrentClaims(c *gin.Context) (*util.Claims, bool) {
	v, ok := c.Get(claimsKey)
	if !ok {
		return nil, false
	}
	claims, ok := v.(*util.Claims)
	return claims, ok
}
