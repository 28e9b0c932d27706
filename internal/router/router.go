package router

import (
	"net/http"

	"fintechbank_backend/internal/config"
	"fintechbank_backend/internal/handlers"
	"fintechbank_backend/internal/metrics"
	"fintechbank_backend/internal/middleware"
	"fintechbank_backend/internal/services"
	"fintechbank_backend/pkg/utils"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// Version is reported by the root route.
const Version = "1.0.0"

// Dependencies are the wired services the routes are built on.
type Dependencies struct {
	Config        config.Config
	ClientService services.ClientService
	AuthService   services.AuthService
	Metrics       *metrics.Metrics
}

// Setup initializes the routing for the application.
func Setup(engine *gin.Engine, deps Dependencies) {
	engine.Use(middleware.RequestID())
	engine.Use(utils.GinLogger())
	engine.Use(deps.Metrics.Middleware())
	engine.Use(cors.New(corsConfig(deps.Config.AllowedOrigins())))

	authHandler := handlers.NewAuthHandler(deps.AuthService)
	clientHandler := handlers.NewClientHandler(deps.ClientService, deps.Metrics)

	engine.GET("/", handlers.ServiceInfo(deps.Config.ProjectName, Version))
	engine.GET("/health", handlers.Health)
	engine.GET("/metrics", gin.WrapH(deps.Metrics.Handler()))

	apiV1 := engine.Group(deps.Config.APIV1Str)

	SetupPublicAuthRoutes(apiV1.Group("/auth"), authHandler)

	authenticated := apiV1.Group("")
	authenticated.Use(middleware.AuthMiddleware(deps.AuthService))
	{
		SetupAuthenticatedAuthRoutes(authenticated.Group("/auth"), authHandler)
		SetupClientRoutes(authenticated, clientHandler)
	}
}

// corsConfig allows credentials only for an explicit origin list; browsers
// refuse credentialed responses for a wildcard origin.
func corsConfig(origins []string) cors.Config {
	cfg := cors.DefaultConfig()
	cfg.AllowMethods = []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions}
	cfg.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization", middleware.RequestIDHeader}
	cfg.ExposeHeaders = []string{middleware.RequestIDHeader}

	if len(origins) == 0 || (len(origins) == 1 && origins[0] == "*") {
		cfg.AllowAllOrigins = true
		return cfg
	}
	cfg.AllowOrigins = origins
	cfg.AllowCredentials = true
	return cfg
}
