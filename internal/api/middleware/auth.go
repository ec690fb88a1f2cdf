package middleware

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"faderbank/internal/identity"
	"faderbank/internal/repositories/postgres"
)

// Context keys set for downstream handlers.
const (
	CtxUserID      = "user_id"
	CtxDisplayName = "display_name"
)

// AuthMiddleware resolves the identity gateway's session cookie into a
// user. The service has no credential store of its own; sessions are
// minted elsewhere and only verified here.
type AuthMiddleware struct {
	resolver      identity.Resolver
	users         *postgres.UserRepository
	sessionCookie string
}

func NewAuthMiddleware(resolver identity.Resolver, users *postgres.UserRepository, sessionCookie string) *AuthMiddleware {
	return &AuthMiddleware{
		resolver:      resolver,
		users:         users,
		sessionCookie: sessionCookie,
	}
}

// sessionFrom pulls the session token from the configured cookie, falling
// back to a bearer header for non-browser clients.
func (am *AuthMiddleware) sessionFrom(c *gin.Context) string {
	if cookie, err := c.Cookie(am.sessionCookie); err == nil && cookie != "" {
		return cookie
	}
	authHeader := c.GetHeader("Authorization")
	if strings.HasPrefix(authHeader, "Bearer ") {
		return strings.TrimPrefix(authHeader, "Bearer ")
	}
	return ""
}

func (am *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		session := am.sessionFrom(c)
		if session == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "session cookie is required"})
			c.Abort()
			return
		}

		ident, err := am.resolver.Resolve(c.Request.Context(), session)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid session"})
			c.Abort()
			return
		}

		// Keep the local mirror of the directory fresh. A write failure
		// must not block the request.
		if err := am.users.Upsert(ident); err != nil {
			slog.Error("User mirror upsert failed", "userId", ident.UserID, "error", err)
		}

		c.Set(CtxUserID, ident.UserID)
		c.Set(CtxDisplayName, ident.DisplayName)
		c.Next()
	}
}
