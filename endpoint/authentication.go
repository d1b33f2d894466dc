package endpoint

import (
	"errors"
	"fmt"
	"io"

	"github.com/caresync/caresync-api/middleware"
	"github.com/caresync/caresync-api/model"
	"github.com/caresync/caresync-api/schema"
	"github.com/caresync/caresync-api/storage"
	"github.com/caresync/caresync-api/util"
	"github.com/gin-gonic/gin"
)

var errBadCredentials = errors.New("incorrect username or password")

// Login godoc
// @Summary      User login
// @Description  Authenticate with username (or email) and password, sent as an OAuth2 password form or JSON.
// @Description  Sets access_token, refresh_token and access_token_expires cookies.
// @Tags         Authentication
// @Accept       x-www-form-urlencoded,json
// @Produce      json
// @Param        request body schema.LoginRequest true "Login credentials"
// @Success      200 {object} util.APIResponse{data=schema.TokenResponse} "Login successful"
// @Failure      400 {object} util.APIResponse "Invalid request payload"
// @Failure      401 {object} util.APIResponse "Incorrect username or password"
// @Failure      429 {object} util.APIResponse "Too many requests"
// @Failure      500 {object} util.APIResponse "Server error"
// @Router       /v1/auth/token [post]
func (h *Handler) Login(c *gin.Context) {
	var req schema.LoginRequest
	if err := c.ShouldBind(&req); err != nil {
		util.CallUserError(c, util.APIErrorParams{Msg: schema.ValidationMessage(err), Err: err})
		return
	}
	identifier := req.Identifier()
	if identifier == "" {
		util.CallUserError(c, util.APIErrorParams{Msg: "username is required", Err: errors.New("missing username")})
		return
	}

	store, ok := getStorageOrRespond(c)
	if !ok {
		return
	}
	ci := clientInfoOf(c)

	user, ok := h.authenticateOrRespond(c, store, identifier, req.Password, ci)
	if !ok {
		return
	}

	access, accessExp, err := h.tokens.IssueAccessToken(user.Email, string(user.Role))
	if err != nil {
		h.security.LoginFailure(identifier, ci.IP, ci.Agent, "token generation failed")
		util.CallServerError(c, util.APIErrorParams{Msg: "Could not generate token", Err: err})
		return
	}
	refresh, refreshExp, err := h.tokens.IssueRefreshToken(user.Email, string(user.Role))
	if err != nil {
		h.security.LoginFailure(identifier, ci.IP, ci.Agent, "token generation failed")
		util.CallServerError(c, util.APIErrorParams{Msg: "Could not generate token", Err: err})
		return
	}

	util.SetAccessCookies(c, h.cookies, access, accessExp)
	util.SetRefreshCookie(c, h.cookies, refresh, refreshExp)
	h.security.LoginSuccess(user.ID, user.Email, ci.IP, ci.Agent)
	if err := middleware.ResetRateLimit(c.Request.Context(), h.redis, ci.IP, middleware.LoginRateScope); err != nil {
		h.security.Log(util.SecurityEvent{
			EventType: util.EventSuspiciousActivity,
			UserID:    user.ID,
			Email:     user.Email,
			IP:        ci.IP,
			Message:   fmt.Sprintf("Rate limit reset failed: %v", err),
		})
	}

	util.CallSuccessOK(c, util.APISuccessParams{
		Msg: "Login successful",
		Data: schema.TokenResponse{
			AccessToken:  access,
			RefreshToken: refresh,
			TokenType:    "bearer",
			Role:         string(user.Role),
			ExpiresAt:    accessExp.Unix(),
		},
	})
}

func (h *Handler) authenticateOrRespond(c *gin.Context, store *storage.Storage, identifier, password string, ci clientInfo) (model.User, bool) {
	user, err := store.FindUserByEmail(identifier)
	if err != nil && !storage.IsNotFound(err) {
		h.security.LoginFailure(identifier, ci.IP, ci.Agent, "database error")
		util.CallServerError(c, util.APIErrorParams{Msg: "Database error", Err: err})
		return model.User{}, false
	}
	if err != nil {
		h.security.LoginFailure(identifier, ci.IP, ci.Agent, "user not found")
		util.CallUserNotAuthorized(c, util.APIErrorParams{Msg: "Incorrect username or password", Err: errBadCredentials})
		return model.User{}, false
	}
	if !util.VerifyPassword(password, user.PasswordHash) {
		h.security.LoginFailure(identifier, ci.IP, ci.Agent, "invalid password")
		util.CallUserNotAuthorized(c, util.APIErrorParams{Msg: "Incorrect username or password", Err: errBadCredentials})
		return model.User{}, false
	}
	return user, true
}

// Refresh godoc
// @Summary      Refresh access token
// @Description  Exchange a refresh token (refresh_token cookie or JSON body) for a new access token.
// @Tags         Authentication
// @Accept       json
// @Produce      json
// @Param        request body schema.RefreshRequest false "Refresh token when not sent as a cookie"
// @Success      200 {object} util.APIResponse{data=schema.TokenResponse} "Token refreshed"
// @Failure      401 {object} util.APIResponse "Invalid or expired refresh token"
// @Router       /v1/auth/refresh [post]
func (h *Handler) Refresh(c *gin.Context) {
	raw, _ := c.Cookie(util.RefreshTokenCookie)
	if raw == "" {
		var req schema.RefreshRequest
		if err := c.ShouldBind(&req); err != nil && !errors.Is(err, io.EOF) {
			util.CallUserError(c, util.APIErrorParams{Msg: schema.ValidationMessage(err), Err: err})
			return
		}
		raw = req.RefreshToken
	}
	if raw == "" {
		util.CallUserNotAuthorized(c, util.APIErrorParams{Msg: "Refresh token required", Err: errors.New("missing refresh token")})
		return
	}

	claims, err := h.tokens.ParseToken(raw, util.RefreshToken)
	if err != nil {
		h.security.UnauthorizedAccess("", "", c.ClientIP(), c.Request.URL.Path, err.Error())
		util.CallUserNotAuthorized(c, util.APIErrorParams{Msg: "Invalid or expired refresh token", Err: err})
		return
	}

	store, ok := getStorageOrRespond(c)
	if !ok {
		return
	}
	user, err := store.FindUserByEmail(claims.Subject)
	if err != nil {
		if storage.IsNotFound(err) {
			util.CallUserNotAuthorized(c, util.APIErrorParams{Msg: "Invalid or expired refresh token", Err: err})
			return
		}
		util.CallServerError(c, util.APIErrorParams{Msg: "Database error", Err: err})
		return
	}

	access, accessExp, err := h.tokens.IssueAccessToken(user.Email, string(user.Role))
	if err != nil {
		util.CallServerError(c, util.APIErrorParams{Msg: "Could not generate token", Err: err})
		return
	}
	util.SetAccessCookies(c, h.cookies, access, accessExp)
	h.security.Log(util.SecurityEvent{
		EventType: util.EventTokenRefreshed,
		UserID:    user.ID,
		Email:     user.Email,
		IP:        c.ClientIP(),
		UserAgent: c.Request.UserAgent(),
		Message:   "Access token refreshed",
	})

	util.CallSuccessOK(c, util.APISuccessParams{
		Msg: "Token refreshed",
		Data: schema.TokenResponse{
			AccessToken: access,
			TokenType:   "bearer",
			Role:        string(user.Role),
			ExpiresAt:   accessExp.Unix(),
		},
	})
}

// Logout godoc
// @Summary      User logout
// @Description  Clear the auth cookies.
// @Tags         Authentication
// @Produce      json
// @Success      200 {object} util.APIResponse "Logged out successfully"
// @Router       /v1/auth/logout [post]
func (h *Handler) Logout(c *gin.Context) {
	email := ""
	if raw := middleware.BearerToken(c); raw != "" {
		if claims, err := h.tokens.ParseToken(raw, util.AccessToken); err == nil {
			email = claims.Subject
		}
	}
	util.ClearAuthCookies(c, h.cookies)
	h.security.Logout(email, c.ClientIP(), c.Request.UserAgent())

	util.CallSuccessOK(c, util.APISuccessParams{
		Msg:  "Logged out successfully",
		Data: map[string]interface{}{},
	})
}

// Me godoc
// @Summary      Current user
// @Tags         Authentication
// @Produce      json
// @Security     BearerAuth
// @Success      200 {object} util.APIResponse{data=schema.UserResponse}
// @Failure      401 {object} util.APIResponse "Unauthorized"
// @Router       /v1/auth/me [get]
func (h *Handler) Me(c *gin.Context) {
	user, ok := currentUserOrRespond(c)
	if !ok {
		return
	}
	util.CallSuccessOK(c, util.APISuccessParams{
		Msg:  fmt.Sprintf("Hello %s", user.FullName()),
		Data: schema.NewUserResponse(user),
	})
}
