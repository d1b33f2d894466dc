package endpoint

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/caresync/caresync-api/middleware"
	"github.com/caresync/caresync-api/model"
	"github.com/caresync/caresync-api/schema"
	"github.com/caresync/caresync-api/storage"
	"github.com/caresync/caresync-api/util"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type clientInfo struct {
	IP    string
	Agent string
}

func clientInfoOf(c *gin.Context) clientInfo {
	return clientInfo{IP: c.ClientIP(), Agent: c.Request.UserAgent()}
}

func bindJSONOrRespond(c *gin.Context, dst interface{}) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		util.CallUserError(c, util.APIErrorParams{Msg: schema.ValidationMessage(err), Err: err})
		return false
	}
	return true
}

func getStorageOrRespond(c *gin.Context) (*storage.Storage, bool) {
	store := middleware.GetStorage(c)
	if store == nil {
		util.CallServerError(c, util.APIErrorParams{Msg: "Database connection not available", Err: fmt.Errorf("storage is nil")})
		return nil, false
	}
	return store, true
}

func currentUserOrRespond(c *gin.Context) (model.User, bool) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		util.CallUserNotAuthorized(c, util.APIErrorParams{Msg: "Could not validate credentials", Err: errors.New("no authenticated user")})
		return model.User{}, false
	}
	return user, true
}

// respondStorageError maps a storage error to the matching status code.
func respondStorageError(c *gin.Context, err error, notFoundMsg string) {
	switch {
	case storage.IsNotFound(err):
		util.CallErrorNotFound(c, util.APIErrorParams{Msg: notFoundMsg, Err: err})
	case storage.IsDuplicate(err):
		util.CallConflict(c, util.APIErrorParams{Msg: "A record with the same phone or email already exists", Err: err})
	case errors.Is(err, util.ErrInvalidImage):
		util.CallUserError(c, util.APIErrorParams{Msg: "Invalid image payload", Err: err})
	default:
		util.CallServerError(c, util.APIErrorParams{Msg: "Database error", Err: err})
	}
}

type listQuery struct {
	Limit   int
	Offset  int
	Keyword string
}

func parseListQuery(c *gin.Context) listQuery {
	return listQuery{
		Limit:   parsePositiveInt(c.Query("limit"), 0, 100),
		Offset:  parsePositiveInt(c.Query("offset"), 0, 0),
		Keyword: strings.TrimSpace(c.Query("keyword")),
	}
}

// parsePositiveInt parses a positive integer from a query value returning a default
// when the value is missing or invalid. If max > 0 it caps the returned value.
func parsePositiveInt(q string, defaultVal, max int) int {
	if q == "" {
		return defaultVal
	}
	v, err := strconv.Atoi(q)
	if err != nil || v <= 0 {
		return defaultVal
	}
	if max > 0 && v > max {
		return max
	}
	return v
}

// applyKeyword filters a query joined with users on name or email.
func applyKeyword(query *gorm.DB, keyword string) *gorm.DB {
	if keyword == "" {
		return query
	}
	kw := "%" + strings.ToLower(keyword) + "%"
	return query.Where("(LOWER(users.first_name) LIKE ? OR LOWER(users.last_name) LIKE ? OR LOWER(users.email) LIKE ?)", kw, kw, kw)
}

func applyPaging(query *gorm.DB, q listQuery) *gorm.DB {
	if q.Limit > 0 {
		query = query.Limit(q.Limit)
	}
	if q.Offset > 0 {
		query = query.Offset(q.Offset)
	}
	return query
}
