package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/hackmate/hackathon-console/internal/model"
	"github.com/hackmate/hackathon-console/internal/response"
)

// RequirePermission checks that the organizer JWT contains the required permission code.
func RequirePermission(permissionCode model.Permission) gin.HandlerFunc {
	return RequireAnyPermission(permissionCode)
}

// RequireAnyPermission checks that the organizer JWT contains at least one of the specified permissions.
func RequireAnyPermission(codes ...model.Permission) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims := GetClaims(c)
		if claims == nil {
			response.AbortFail(c, http.StatusUnauthorized, response.ErrTokenRequired)
			return
		}

		for _, code := range codes {
			if claims.HasPermission(code) {
				c.Next()
				return
			}
		}

		response.AbortFail(c, http.StatusForbidden, response.ErrPermissionDenied)
	}
}
