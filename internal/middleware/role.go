package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"clinicbook/internal/pkg/jwt"
	"clinicbook/internal/pkg/response"
)

// RequireRole admits requests whose token carries the given role.
func RequireRole(requiredRole string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !checkRole(c, requiredRole) {
			return
		}
		c.Next()
	}
}

// RequireStaff admits staff tokens bound to a tenant.
func RequireStaff() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !checkRole(c, jwt.RoleStaff) {
			return
		}
		if c.GetInt64(CtxTenantID) == 0 {
			response.CustomError(c, http.StatusForbidden, "FORBIDDEN", "Staff token has no tenant")
			return
		}
		c.Next()
	}
}

// checkRole aborts the request and reports false on a missing or different role.
func checkRole(c *gin.Context, requiredRole string) bool {
	role := c.GetString(CtxRole)
	if role == "" {
		response.CustomError(c, http.StatusUnauthorized, "UNAUTHORIZED", "Role not found in token")
		return false
	}
	if role != requiredRole {
		response.CustomError(c, http.StatusForbidden, "FORBIDDEN", "Access denied: insufficient permissions")
		return false
	}
	return true
}
