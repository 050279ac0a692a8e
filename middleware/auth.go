package middleware

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/wome-online/server/cache"
	"github.com/wome-online/server/config"
)

const AccountIDKey = "account_id"

// SessionKeyPrefix namespaces session tokens in the cache. A token is
// only accepted while its session entry exists, so logout revokes it.
const SessionKeyPrefix = "session:"

// Auth guards a route group: the request needs a Bearer token that
// both parses and still has a live session entry in the cache. The
// account ID from the claims is stored on the context for handlers.
func Auth(sec config.SecurityConfig, c cache.Cache) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		tokenStr, ok := bearerToken(ctx)
		if !ok {
			abortUnauthorized(ctx, "missing token")
			return
		}

		claims, err := ParseToken(tokenStr, sec.JWTSecret)
		if err != nil {
			abortUnauthorized(ctx, "invalid token")
			return
		}

		if !sessionAlive(ctx, c, tokenStr) {
			abortUnauthorized(ctx, "session expired")
			return
		}

		ctx.Set(AccountIDKey, claims.AccountID)
		ctx.Next()
	}
}

func bearerToken(ctx *gin.Context) (string, bool) {
	const prefix = "Bearer "
	header := ctx.GetHeader("Authorization")
	if !strings.HasPrefix(header, prefix) {
		return "", false
	}
	return strings.TrimPrefix(header, prefix), true
}

func sessionAlive(ctx *gin.Context, c cache.Cache, tokenStr string) bool {
	cacheCtx, cancel := context.WithTimeout(ctx.Request.Context(), 2*time.Second)
	defer cancel()
	alive, err := c.Exists(cacheCtx, SessionKeyPrefix+tokenStr)
	return err == nil && alive
}

func abortUnauthorized(ctx *gin.Context, msg string) {
	ctx.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": msg})
}

// GetAccountID retrieves the authenticated account ID from the Gin context.
func GetAccountID(c *gin.Context) int64 {
	if v, exists := c.Get(AccountIDKey); exists {
		return v.(int64)
	}
	return 0
}
