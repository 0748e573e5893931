// Package middleware holds the gin middleware shared by all routes.
package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/servicelink/service-booking/pkg/auth"
	"github.com/servicelink/service-booking/pkg/response"
)

const (
	ctxUserID = "user_id"
	ctxRole   = "user_role"
)

// AuthMiddleware rejects requests without a valid bearer token and stores the
// caller's id and role on the context.
func AuthMiddleware(jwtManager *auth.JWTManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !authenticate(c, jwtManager) {
			response.Unauthorized(c)
			return
		}
		c.Next()
	}
}

// OptionalAuthMiddleware resolves the caller when a valid token is present and
// lets anonymous requests through otherwise.
func OptionalAuthMiddleware(jwtManager *auth.JWTManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		authenticate(c, jwtManager)
		c.Next()
	}
}

// RequireRole rejects callers whose role is not in roles.
func RequireRole(roles ...string) gin.HandlerFunc {
	allowed := make(map[string]bool, len(roles))
	for _, r := range roles {
		allowed[r] = true
	}
	return func(c *gin.Context) {
		role, ok := GetUserRole(c)
		if !ok || !allowed[role] {
			response.Forbidden(c, "insufficient role")
			return
		}
		c.Next()
	}
}

// GetUserID returns the authenticated caller's id.
func GetUserID(c *gin.Context) (int64, bool) {
	v, ok := c.Get(ctxUserID)
	if !ok {
		return 0, false
	}
	id, ok := v.(int64)
	return id, ok
}

// GetUserRole returns the authenticated caller's role.
func GetUserRole(c *gin.Context) (string, bool) {
	v, ok := c.Get(ctxRole)
	if !ok {
		return "", false
	}
	role, ok := v.(string)
	return role, ok
}

func authenticate(c *gin.Context, jwtManager *auth.JWTManager) bool {
	header := c.GetHeader("Authorization")
	if !strings.HasPrefix(header, "Bearer ") {
		return false
	}
	claims, err := jwtManager.ValidateToken(strings.TrimPrefix(header, "Bearer "))
	if err != nil {
		return false
	}
	id, _ := claims.UserID()
	c.Set(ctxUserID, id)
	c.Set(ctxRole, claims.Role)
	return true
}
