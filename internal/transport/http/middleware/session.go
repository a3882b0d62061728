package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"lecture-qa/internal/pkg/jwtutil"
	"lecture-qa/internal/transport/http/response"
)

const ContextSessionIDKey = "session_id"

// RequireSession rejects requests without a valid session bearer token.
func RequireSession(secret string) gin.HandlerFunc {
	return sessionToken(secret, true)
}

// OptionalSession attaches the session when a token is sent and ignores its absence.
func OptionalSession(secret string) gin.HandlerFunc {
	return sessionToken(secret, false)
}

func sessionToken(secret string, required bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := strings.TrimSpace(c.GetHeader("Authorization"))
		if authHeader == "" {
			if required {
				response.Abort(c, http.StatusUnauthorized, response.CodeUnauthorized, "missing authorization header")
				return
			}
			c.Next()
			return
		}

		const prefix = "Bearer "
		if !strings.HasPrefix(authHeader, prefix) {
			response.Abort(c, http.StatusUnauthorized, response.CodeUnauthorized, "invalid authorization scheme")
			return
		}

		claims, err := jwtutil.ParseToken(secret, strings.TrimPrefix(authHeader, prefix))
		if err != nil {
			response.Abort(c, http.StatusUnauthorized, response.CodeUnauthorized, "invalid or expired session token")
			return
		}

		c.Set(ContextSessionIDKey, claims.SessionID)
		c.Next()
	}
}

// SessionID returns the session attached by the session middleware, if any.
func SessionID(c *gin.Context) string {
	return c.GetString(ContextSessionIDKey)
}
