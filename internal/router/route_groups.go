package router

import (
	"fintechbank_backend/internal/handlers"

	"github.com/gin-gonic/gin"
)

// SetupPublicAuthRoutes sets up the authentication routes that need no token.
func SetupPublicAuthRoutes(group *gin.RouterGroup, authHandler *handlers.AuthHandler) {
	group.POST("/login", authHandler.LoginUser)
}

// SetupAuthenticatedAuthRoutes sets up the auth routes behind AuthMiddleware.
func SetupAuthenticatedAuthRoutes(group *gin.RouterGroup, authHandler *handlers.AuthHandler) {
	group.GET("/me", authHandler.GetCurrentUser)
}

// SetupClientRoutes sets up the client routes.
// The lookup routes are static segments, so they never collide with /:id.
func SetupClientRoutes(authenticatedGroup *gin.RouterGroup, clientHandler *handlers.ClientHandler) {
	clientRoutes := authenticatedGroup.Group("/clientes")
	{
		clientRoutes.POST("", clientHandler.CreateClient)
		clientRoutes.POST("/", clientHandler.CreateClient)
		clientRoutes.GET("", clientHandler.GetClients)
		clientRoutes.GET("/", clientHandler.GetClients)
		clientRoutes.GET("/buscar/email/:email", clientHandler.GetClientByEmail)
		clientRoutes.GET("/buscar/cuenta/:numero", clientHandler.GetClientByAccountNumber)
		clientRoutes.GET("/:id", clientHandler.GetClientByID)
		clientRoutes.PUT("/:id", clientHandler.UpdateClient)
		clientRoutes.DELETE("/:id", clientHandler.DeleteClient)
	}
}
