package middlewares

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// RoleAllowed is the single permission check: does the caller's role
// satisfy one of the required roles.
func RoleAllowed(role string, required ...string) bool {
	for _, r := range required {
		if role == r {
			return true
		}
	}
	return false
}

// RequireRoles gates a route on the caller's role claim. Must run after
// AuthMiddleware.
func RequireRoles(required ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		role := c.GetString("role")
		if role == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"message": "Not authorized"})
			c.Abort()
			return
		}
		if !RoleAllowed(role, required...) {
			c.JSON(http.StatusForbidden, gin.H{"message": "Insufficient privileges"})
			c.Abort()
			return
		}
		c.Next()
	}
}

// RequireAdmin allows admin and superadmin callers.
func RequireAdmin() gin.HandlerFunc {
	return RequireRoles("admin", "superadmin")
}

// RequireSuperAdmin allows superadmin callers only.
func RequireSuperAdmin() gin.HandlerFunc {
	return RequireRoles("superadmin")
}
