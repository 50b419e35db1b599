package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"admissions-advisor/internal/pkg/jwtutil"
	"admissions-advisor/internal/transport/http/response"
)

const (
	ContextStaffIDKey   = "staff_id"
	ContextUsernameKey  = "username"
	ContextStaffRoleKey = "staff_role"
)

// StaffChecker answers whether a staff account is still enabled. Tokens
// outlive deactivation, so the gate re-checks the store on every request.
type StaffChecker interface {
	IsActive(id uint) (bool, error)
}

func AuthJWT(secret string, staff StaffChecker) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := strings.TrimSpace(c.GetHeader("Authorization"))
		if authHeader == "" {
			response.Error(c, 401, response.CodeUnauthorized, "missing authorization header")
			c.Abort()
			return
		}

		const prefix = "Bearer "
		if !strings.HasPrefix(authHeader, prefix) {
			response.Error(c, 401, response.CodeUnauthorized, "invalid authorization scheme")
			c.Abort()
			return
		}

		token := strings.TrimSpace(strings.TrimPrefix(authHeader, prefix))
		claims, err := jwtutil.ParseToken(secret, token)
		if err != nil {
			response.Error(c, 401, response.CodeUnauthorized, "invalid or expired token")
			c.Abort()
			return
		}

		if staff != nil {
			active, err := staff.IsActive(claims.StaffID)
			if err != nil {
				response.Error(c, 500, response.CodeInternalServer, "verify staff account failed")
				c.Abort()
				return
			}
			if !active {
				response.Error(c, 403, response.CodeForbidden, "staff account is deactivated")
				c.Abort()
				return
			}
		}

		c.Set(ContextStaffIDKey, claims.StaffID)
		c.Set(ContextUsernameKey, claims.Username)
		c.Set(ContextStaffRoleKey, claims.Role)
		c.Next()
	}
}

// StaffID returns the authenticated staff id placed by AuthJWT.
func StaffID(c *gin.Context) (uint, bool) {
	raw, exists := c.Get(ContextStaffIDKey)
	if !exists {
		return 0, false
	}
	id, ok := raw.(uint)
	return id, ok && id != 0
}
