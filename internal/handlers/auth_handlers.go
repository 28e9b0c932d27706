package handlers

import (
	"errors"
	"net/http"

	"fintechbank_backend/internal/middleware"
	"fintechbank_backend/internal/models"
	"fintechbank_backend/internal/services"
	"fintechbank_backend/pkg/utils" // For APIError and error codes

	"github.com/gin-gonic/gin"
)

// AuthHandler holds the authentication service.
type AuthHandler struct {
	authService services.AuthService
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(as services.AuthService) *AuthHandler {
	return &AuthHandler{authService: as}
}

// LoginUser exchanges username and password for a bearer token. The body may
// be JSON or an OAuth2 password-grant form.
func (h *AuthHandler) LoginUser(c *gin.Context) {
	var creds models.Credentials
	if err := c.ShouldBind(&creds); err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid request payload.", err.Error()))
		return
	}

	token, err := h.authService.LoginUser(c.Request.Context(), creds)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrInvalidCredentials):
			utils.RespondWithError(c, utils.NewAPIError(http.StatusUnauthorized, utils.ErrCodeUnauthorized, "Incorrect username or password.", ""))
		case errors.Is(err, services.ErrInactiveUser):
			utils.RespondWithError(c, utils.NewAPIError(http.StatusUnauthorized, utils.ErrCodeUnauthorized, "Inactive user.", ""))
		default:
			utils.LogError(err, "LoginUser: Error from authService.LoginUser")
			utils.RespondInternalError(c, "Failed to login.")
		}
		return
	}
	utils.LogInfo("User logged in", map[string]interface{}{"username": creds.Username})
	c.JSON(http.StatusOK, token)
}

// GetCurrentUser returns the stored profile of the authenticated user.
func (h *AuthHandler) GetCurrentUser(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusUnauthorized, utils.ErrCodeUnauthorized, "Not authenticated.", ""))
		return
	}

	profile, err := h.authService.GetUserProfile(c.Request.Context(), user.ID)
	if err != nil {
		if errors.Is(err, services.ErrUserNotFound) {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusUnauthorized, utils.ErrCodeUnauthorized, "Not authenticated.", "User no longer exists"))
			return
		}
		utils.LogError(err, "GetCurrentUser: Error from authService.GetUserProfile", map[string]interface{}{"user_id": user.ID})
		utils.RespondInternalError(c, "Failed to load user profile.")
		return
	}
	c.JSON(http.StatusOK, profile)
}
