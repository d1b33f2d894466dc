// Package endpoint holds the HTTP handlers for the auth, patient and doctor
// route groups.
package endpoint

import (
	"fmt"

	"github.com/caresync/caresync-api/util"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

// Handler carries the dependencies shared by every route. The request scoped
// storage session comes from middleware.DatabaseMiddleware.
type Handler struct {
	appName  string
	tokens   *util.TokenManager
	cookies  util.CookieConfig
	security *util.SecurityLogger
	redis    *redis.Client
}

// Options configures NewHandler. Redis and Security may be nil.
type Options struct {
	AppName  string
	Tokens   *util.TokenManager
	Cookies  util.CookieConfig
	Security *util.SecurityLogger
	Redis    *redis.Client
}

func NewHandler(opts Options) *Handler {
	return &Handler{
		appName:  opts.AppName,
		tokens:   opts.Tokens,
		cookies:  opts.Cookies,
		security: opts.Security,
		redis:    opts.Redis,
	}
}

// Welcome godoc
// @Summary      Welcome message
// @Tags         General
// @Produce      json
// @Success      200 {object} util.APIResponse
// @Router       / [get]
func (h *Handler) Welcome(c *gin.Context) {
	util.CallSuccessOK(c, util.APISuccessParams{
		Msg:  fmt.Sprintf("Welcome to %s API", h.appName),
		Data: map[string]interface{}{},
	})
}
