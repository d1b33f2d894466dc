package middleware

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/caresync/caresync-api/model"
	"github.com/caresync/caresync-api/storage"
	"github.com/caresync/caresync-api/util"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// newTestStore creates an in-memory sqlite DB with every model migrated.
func newTestStore(t *testing.T) *storage.Storage {
	t.Helper()
	dsn := fmt.Sprintf("file:testdb_middleware_%d?mode=memory&cache=shared&_foreign_keys=on", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	require.NoError(t, model.Migrate(db))
	return storage.New(db, zerolog.Nop())
}

func newTestTokens(t *testing.T) *util.TokenManager {
	t.Helper()
	tokens, err := util.NewTokenManager(util.TokenConfig{
		Secret:     "test-secret-123",
		Algorithm:  "HS256",
		AccessTTL:  time.Minute,
		RefreshTTL: time.Hour,
	})
	require.NoError(t, err)
	return tokens
}

var phoneSeq int

func seedUser(t *testing.T, store *storage.Storage, email string, role model.Role) model.User {
	t.Helper()
	phoneSeq++
	user := model.User{
		FirstName:    "Test",
		LastName:     "User",
		Email:        email,
		Phone:        fmt.Sprintf("080%08d", phoneSeq),
		PasswordHash: "hash",
		Role:         role,
	}
	require.NoError(t, store.Add(&user))
	return user
}

// newAuthRouter mounts a handler that echoes the resolved user id.
func newAuthRouter(store *storage.Storage, tokens *util.TokenManager, guards ...gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(DatabaseMiddleware(store))
	auth := NewAuthenticator(tokens, nil)
	handlers := append([]gin.HandlerFunc{auth.RequireAuth()}, guards...)
	handlers = append(handlers, func(c *gin.Context) {
		user, _ := CurrentUser(c)
		claims, _ := CurrentClaims(c)
		c.JSON(http.StatusOK, gin.H{"id": user.ID, "role": claims.Role})
	})
	r.GET("/test", handlers...)
	return r
}

func doAuthRequest(r *gin.Engine, setup func(req *http.Request)) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	if setup != nil {
		setup(req)
	}
	r.ServeHTTP(w, req)
	return w
}

func TestRequireAuth_BearerHeader(t *testing.T) {
	store := newTestStore(t)
	tokens := newTestTokens(t)
	user := seedUser(t, store, "bearer@example.com", model.RolePatient)

	token, _, err := tokens.IssueAccessToken(user.Email, string(user.Role))
	require.NoError(t, err)

	w := doAuthRequest(newAuthRouter(store, tokens), func(req *http.Request) {
		req.Header.Set("Authorization", "Bearer "+token)
	})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), user.ID)
}

func TestRequireAuth_Cookie(t *testing.T) {
	store := newTestStore(t)
	tokens := newTestTokens(t)
	user := seedUser(t, store, "cookie@example.com", model.RoleDoctor)

	token, _, err := tokens.IssueAccessToken(user.Email, string(user.Role))
	require.NoError(t, err)

	w := doAuthRequest(newAuthRouter(store, tokens), func(req *http.Request) {
		req.AddCookie(&http.Cookie{Name: util.AccessTokenCookie, Value: token})
	})
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRequireAuth_Rejects(t *testing.T) {
	store := newTestStore(t)
	tokens := newTestTokens(t)
	seedUser(t, store, "known@example.com", model.RolePatient)

	refresh, _, err := tokens.IssueRefreshToken("known@example.com", "patient")
	require.NoError(t, err)
	ghost, _, err := tokens.IssueAccessToken("ghost@example.com", "patient")
	require.NoError(t, err)

	tests := []struct {
		name  string
		setup func(req *http.Request)
	}{
		{"no token", nil},
		{"garbage token", func(req *http.Request) { req.Header.Set("Authorization", "Bearer nope") }},
		{"wrong scheme", func(req *http.Request) { req.Header.Set("Authorization", "Basic abc") }},
		{"refresh token", func(req *http.Request) { req.Header.Set("Authorization", "Bearer "+refresh) }},
		{"unknown user", func(req *http.Request) { req.Header.Set("Authorization", "Bearer "+ghost) }},
	}
	r := newAuthRouter(store, tokens)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doAuthRequest(r, tt.setup)
			assert.Equal(t, http.StatusUnauthorized, w.Code)
			assert.Equal(t, "Bearer", w.Header().Get("WWW-Authenticate"))
		})
	}
}

func TestRequireRole(t *testing.T) {
	store := newTestStore(t)
	tokens := newTestTokens(t)
	patient := seedUser(t, store, "patient@example.com", model.RolePatient)
	doctor := seedUser(t, store, "doctor@example.com", model.RoleDoctor)

	r := newAuthRouter(store, tokens, RequireRole(model.RoleDoctor))

	doctorToken, _, err := tokens.IssueAccessToken(doctor.Email, string(doctor.Role))
	require.NoError(t, err)
	w := doAuthRequest(r, func(req *http.Request) { req.Header.Set("Authorization", "Bearer "+doctorToken) })
	assert.Equal(t, http.StatusOK, w.Code)

	patientToken, _, err := tokens.IssueAccessToken(patient.Email, string(patient.Role))
	require.NoError(t, err)
	w = doAuthRequest(r, func(req *http.Request) { req.Header.Set("Authorization", "Bearer "+patientToken) })
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestRequireRole_WithoutAuth(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/test", RequireRole(model.RolePatient), func(c *gin.Context) { c.Status(http.StatusOK) })

	w := doAuthRequest(r, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestGetStorage_NotInstalled(t *testing.T) {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	assert.Nil(t, GetStorage(c))
}

func TestRequestLogger_AuthenticatedRequest(t *testing.T) {
	store := newTestStore(t)
	tokens := newTestTokens(t)
	user := seedUser(t, store, "logged@example.com", model.RoleDoctor)

	token, _, err := tokens.IssueAccessToken(user.Email, string(user.Role))
	require.NoError(t, err)

	gin.SetMode(gin.TestMode)
	buf := &bytes.Buffer{}
	r := gin.New()
	r.Use(RequestLogger(zerolog.New(buf)), DatabaseMiddleware(store))
	r.GET("/test", NewAuthenticator(tokens, nil).RequireAuth(), func(c *gin.Context) { c.Status(http.StatusOK) })

	w := doAuthRequest(r, func(req *http.Request) {
		req.Header.Set("Authorization", "Bearer "+token)
	})
	require.Equal(t, http.StatusOK, w.Code)

	var line map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, user.ID, line["user_id"])
	assert.Equal(t, "doctor", line["role"])
	assert.Equal(t, "access", line["token_type"])
}
