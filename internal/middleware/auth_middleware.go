package middleware

import (
	"errors"
	"net/http"
	"strings"

	"fintechbank_backend/internal/models"
	"fintechbank_backend/internal/services"
	"fintechbank_backend/pkg/utils"

	"github.com/gin-gonic/gin"
)

// CurrentUserKey is the gin context key holding the authenticated *models.User.
const CurrentUserKey = "currentUser"

// AuthMiddleware creates a Gin middleware for JWT authentication. Requests
// without a valid token for an active user never reach the handler.
func AuthMiddleware(authService services.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusUnauthorized, utils.ErrCodeUnauthorized, "Not authenticated.", "Authorization header required"))
			return
		}

		parts := strings.Fields(authHeader)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusUnauthorized, utils.ErrCodeUnauthorized, "Not authenticated.", "Invalid authorization header format. Use Bearer <token>"))
			return
		}

		user, err := authService.AuthenticateToken(c.Request.Context(), parts[1])
		if err != nil {
			switch {
			case errors.Is(err, services.ErrInactiveUser):
				utils.RespondWithError(c, utils.NewAPIError(http.StatusUnauthorized, utils.ErrCodeUnauthorized, "Inactive user.", ""))
			case errors.Is(err, services.ErrNotAuthenticated):
				utils.LogDebug("Rejected bearer token", map[string]interface{}{"reason": err.Error()})
				utils.RespondWithError(c, utils.NewAPIError(http.StatusUnauthorized, utils.ErrCodeUnauthorized, "Could not validate credentials.", ""))
			default:
				utils.LogError(err, "AuthMiddleware: failed to resolve user")
				utils.RespondInternalError(c, "Failed to authenticate request.")
			}
			return
		}

		c.Set(CurrentUserKey, user)
		c.Next()
	}
}

// CurrentUser returns the user stored by AuthMiddleware.
func CurrentUser(c *gin.Context) (*models.User, bool) {
	v, exists := c.Get(CurrentUserKey)
	if !exists {
		return nil, false
	}
	user, ok := v.(*models.User)
	return user, ok
}
