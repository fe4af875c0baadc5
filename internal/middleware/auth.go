package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/study-assistant/internal/session"
	"github.com/study-assistant/pkg/response"
)

// ContextKeySession is the key for the resolved session in gin context
const ContextKeySession = "session"

// SessionMiddleware resolves the session token when one is present and
// attaches the session to the context. Requests without a valid token pass
// through anonymous; handlers that need a session create one on demand.
func SessionMiddleware(sessions *session.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		if token := extractToken(c); token != "" {
			if sess, err := sessions.Resolve(c.Request.Context(), token); err == nil {
				c.Set(ContextKeySession, sess)
			}
		}
		c.Next()
	}
}

// AuthMiddleware requires a session in the authenticated state.
func AuthMiddleware(sessions *session.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := extractToken(c)
		if token == "" {
			response.Unauthorized(c, "missing authorization header")
			c.Abort()
			return
		}

		sess, err := sessions.Resolve(c.Request.Context(), token)
		if err != nil {
			response.Unauthorized(c, "invalid or expired session")
			c.Abort()
			return
		}

		if sess.State != session.StateAuthenticated {
			response.Unauthorized(c, "login required")
			c.Abort()
			return
		}

		c.Set(ContextKeySession, sess)
		c.Next()
	}
}

// extractToken reads the session token from the Authorization header, or
// from the token query parameter for websocket clients that cannot set
// headers. A header that does not parse as "Bearer <token>" falls through
// to the query parameter.
func extractToken(c *gin.Context) string {
	if authHeader := c.GetHeader("Authorization"); authHeader != "" {
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) == 2 && strings.ToLower(parts[0]) == "bearer" {
			return parts[1]
		}
	}
	return c.Query("token")
}

// GetSession gets the resolved session from the gin context
func GetSession(c *gin.Context) *session.Session {
	v, exists := c.Get(ContextKeySession)
	if !exists {
		return nil
	}
	return v.(*session.Session)
}
