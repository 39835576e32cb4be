package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/studytrackhq/studytrack-api/internal/service"
	appErrors "github.com/studytrackhq/studytrack-api/pkg/errors"
	"github.com/studytrackhq/studytrack-api/pkg/response"
)

// ContextUserKey is the gin context key storing the resolved identity.
const ContextUserKey = "currentUser"

// JWT is the authentication gate: it requires a valid bearer token and
// resolves it to a live user record before the request proceeds.
func JWT(authService *service.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			response.Error(c, appErrors.ErrUnauthorized)
			c.Abort()
			return
		}

		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			response.Error(c, appErrors.Clone(appErrors.ErrUnauthorized, "invalid authorization header"))
			c.Abort()
			return
		}

		claims, err := authService.ValidateToken(parts[1])
		if err != nil {
			response.Error(c, err)
			c.Abort()
			return
		}

		user, err := authService.ResolveUser(c.Request.Context(), claims)
		if err != nil {
			response.Error(c, err)
			c.Abort()
			return
		}

		c.Set(ContextUserKey, user)
		c.Next()
	}
}
