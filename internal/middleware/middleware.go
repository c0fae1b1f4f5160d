package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"personnel/internal/auth"
)

const (
	// ContextSessionKey stores the authenticated session on the Gin context.
	ContextSessionKey = "personnel/session"
)

// RequireSession validates that a session token is present and valid.
func RequireSession(manager *auth.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := c.GetHeader("Authorization")
		if token != "" {
			token = strings.TrimPrefix(token, "Bearer ")
		} else {
			cookie, err := c.Request.Cookie("personnel.session")
			if err != nil || cookie == nil {
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing_session"})
				return
			}
			token = cookie.Value
		}

		session, ok := manager.Validate(token)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid_session"})
			return
		}
		c.Set(ContextSessionKey, session)
		c.Next()
	}
}

// SessionFrom extracts the session placed on the context by RequireSession.
func SessionFrom(c *gin.Context) *auth.Session {
	if value, ok := c.Get(ContextSessionKey); ok {
		if session, ok := value.(*auth.Session); ok {
			return session
		}
	}
	return nil
}

// CORS adds permissive CORS headers to all responses to support requests
// served from a different origin. It mirrors the Origin header to support
// credentialed requests and terminates preflight checks early.
func CORS() gin.HandlerFunc {
	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")
		if origin != "" {
			c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
		} else {
			c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		}
		c.Writer.Header().Set("Vary", "Origin")
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Authorization, Content-Type, Accept, Origin, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")

		if c.Request.Method == http.MethodOptions {
			c.Status(http.StatusNoContent)
			c.Abort()
			return
		}

		c.Next()
	}
}
