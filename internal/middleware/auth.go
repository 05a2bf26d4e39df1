package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"clinicbook/internal/pkg/jwt"
	"clinicbook/internal/pkg/response"
)

// Context keys set by the auth middleware.
const (
	CtxUserID   = "user_id"
	CtxTenantID = "tenant_id"
	CtxRole     = "role"
)

// JWTAuth requires a valid bearer token.
func JWTAuth(jwtService *jwt.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			response.CustomError(c, http.StatusUnauthorized, "AUTH_HEADER_MISSING", "Authorization header is required")
			return
		}

		token, ok := bearerToken(authHeader)
		if !ok {
			response.CustomError(c, http.StatusUnauthorized, "INVALID_AUTH_FORMAT", "Authorization header must be 'Bearer <token>'")
			return
		}

		claims, err := jwtService.ValidateToken(token)
		if err != nil {
			response.CustomError(c, http.StatusUnauthorized, "INVALID_TOKEN", "Invalid or expired token")
			return
		}

		setClaims(c, claims)
		c.Next()
	}
}

// OptionalAuth reads a bearer token when one is sent. Requests without a
// header pass through anonymously; a header with a bad token is rejected.
func OptionalAuth(jwtService *jwt.Service) gin.HandlerFunc {
	strict := JWTAuth(jwtService)
	return func(c *gin.Context) {
		if c.GetHeader("Authorization") == "" {
			c.Next()
			return
		}
		strict(c)
	}
}

// IsStaff reports whether the request carries a staff token.
func IsStaff(c *gin.Context) bool {
	return c.GetString(CtxRole) == jwt.RoleStaff && c.GetInt64(CtxTenantID) > 0
}

func setClaims(c *gin.Context, claims *jwt.Claims) {
	c.Set(CtxUserID, claims.UserID)
	c.Set(CtxTenantID, claims.TenantID)
	c.Set(CtxRole, claims.Role)
}

func bearerToken(header string) (string, bool) {
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" || strings.TrimSpace(parts[1]) == "" {
		return "", false
	}
	return strings.TrimSpace(parts[1]), true
}
