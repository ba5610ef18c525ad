package auth

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

const identityKey = "auth.identity"

// Header names set by the gateway after it has validated the JWT.
const (
	HeaderUserID   = "X-User-Id"
	HeaderUsername = "X-User-Name"
	HeaderRoles    = "X-User-Roles"
)

// Middleware builds an Identity from the gateway-injected headers and
// rejects requests that carry no user id.
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.GetHeader(HeaderUserID)
		if userID == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing identity"})
			return
		}

		roles := make(map[string]bool)
		for _, r := range strings.Split(c.GetHeader(HeaderRoles), ",") {
			if r = strings.TrimSpace(r); r != "" {
				roles[r] = true
			}
		}

		token := strings.TrimPrefix(c.GetHeader("Authorization"), "Bearer ")

		c.Set(identityKey, Identity{
			UserID:   userID,
			Username: c.GetHeader(HeaderUsername),
			Roles:    roles,
			Token:    token,
		})
		c.Next()
	}
}

// RequireRole aborts with 403 unless the caller holds the given role.
func RequireRole(role string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !FromContext(c).HasRole(role) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "forbidden", "type": "access-denied"})
			return
		}
		c.Next()
	}
}

// FromContext returns the Identity stored by Middleware. The zero Identity
// is returned when the middleware did not run.
func FromContext(c *gin.Context) Identity {
	if v, ok := c.Get(identityKey); ok {
		if id, ok := v.(Identity); ok {
			return id
		}
	}
	return Identity{}
}
