package api

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/sereneleaf/backend/internal/domain/auth"
	"github.com/sereneleaf/backend/internal/domain/user"
)

const (
	claimsKey = "auth_claims"

	bearerPrefix = "Bearer "
)

// Authenticate returns a gin middleware that requires a valid Bearer token
// and stores its claims in the request context.
func Authenticate(tokens *auth.TokenIssuer) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if !strings.HasPrefix(header, bearerPrefix) {
			failWith(c, http.StatusUnauthorized, "missing bearer token")
			return
		}

		claims, err := tokens.Verify(strings.TrimPrefix(header, bearerPrefix))
		if err != nil {
			failWith(c, http.StatusUnauthorized, "invalid token")
			return
		}

		c.Set(claimsKey, claims)
		c.Next()
	}
}

// RequireAdmin rejects requests whose token does not carry the admin role.
// Must run after Authenticate.
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		if currentClaims(c).Role != user.RoleAdmin {
			failWith(c, http.StatusForbidden, "admin access required")
			return
		}
		c.Next()
	}
}

// currentClaims returns the verified claims set by Authenticate. Calling it
// on an unauthenticated route is a programming error and panics.
func currentClaims(c *gin.Context) *auth.Claims {
	return c.MustGet(claimsKey).(*auth.Claims)
}

// currentUserID returns the authenticated user's ID.
func currentUserID(c *gin.Context) string {
	return currentClaims(c).Subject
}
