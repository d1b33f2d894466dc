package middleware

import (
	"time"

	"github.com/caresync/caresync-api/storage"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

const storageKey = "storage"

// CORSMiddleware allows the configured origins to call the API with credentials.
func CORSMiddleware(origins []string) gin.HandlerFunc {
	return cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     []string{"GET", "POST", "PATCH", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "X-Requested-With"},
		AllowCredentials: true,
		MaxAge:           24 * time.Hour,
	})
}

// DatabaseMiddleware hands every request its own storage session bound to the
// request context.
func DatabaseMiddleware(store *storage.Storage) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(storageKey, store.WithContext(c.Request.Context()))
		c.Next()
	}
}

// GetStorage returns the request's storage session, or nil when
// DatabaseMiddleware is not installed.
func GetStorage(c *gin.Context) *storage.Storage {
	if v, ok := c.Get(storageKey); ok {
		if s, ok := v.(*storage.Storage); ok {
			return s
		}
	}
	return nil
}
