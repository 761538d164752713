package middlewares

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/mmdatafocus/membership_backend/models"
	"github.com/mmdatafocus/membership_backend/utils"
)

// IdentityMiddleware reads the caller's identity from the X-User-Id and
// X-User-Role headers set by the gateway and stashes it on the request
// context. Requests without an identity still pass; role enforcement is
// RequireRoles' job per route.
func IdentityMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()

		if rawId := c.Request.Header.Get("X-User-Id"); rawId != "" {
			if userId, err := strconv.Atoi(rawId); err == nil {
				ctx = utils.SetUserIdInContext(ctx, userId)
			}
		}
		if role := c.Request.Header.Get("X-User-Role"); role != "" {
			ctx = utils.SetUserRoleInContext(ctx, role)
		}

		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

// RequireRoles rejects the request before any handler work happens, so an
// unauthorized upload is refused without parsing the file. 401 when no
// identity arrived at all, 403 when the role is known but insufficient.
func RequireRoles(roles ...models.UserRole) gin.HandlerFunc {
	allowed := map[models.UserRole]bool{}
	for _, role := range roles {
		allowed[role] = true
	}

	return func(c *gin.Context) {
		role, ok := utils.GetUserRoleFromContext(c.Request.Context())
		if !ok || role == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			c.Abort()
			return
		}
		if !allowed[models.UserRole(role)] {
			c.JSON(http.StatusForbidden, gin.H{"error": "insufficient permissions"})
			c.Abort()
			return
		}
		c.Next()
	}
}
