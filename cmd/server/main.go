package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"fintechbank_backend/internal/bootstrap"
	"fintechbank_backend/internal/config"
	"fintechbank_backend/internal/metrics"
	"fintechbank_backend/internal/router"
	"fintechbank_backend/internal/services"
	"fintechbank_backend/pkg/utils"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg, err := config.LoadConfig(".")
	if err != nil {
		utils.InitLogger("info", "console")
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	// Initialize Logger
	utils.InitLogger(cfg.LogLevel, cfg.LogFormat)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	storage, err := bootstrap.OpenStorage(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize storage")
	}
	defer storage.Close()
	utils.LogInfo("Storage initialized", map[string]interface{}{"driver": cfg.StorageDriver, "auto_migrate": cfg.AutoMigrate})

	tokens, err := utils.NewTokenManager(cfg.SecretKey, cfg.Algorithm, cfg.AccessTokenTTL())
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid token settings")
	}

	gin.SetMode(cfg.GinMode)
	engine := gin.New()
	engine.Use(gin.Recovery())

	router.Setup(engine, router.Dependencies{
		Config:        cfg,
		ClientService: services.NewClientService(storage.Clients),
		AuthService:   services.NewAuthService(storage.Users, tokens),
		Metrics:       metrics.New(),
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		utils.LogInfo("Server starting", map[string]interface{}{"port": cfg.Port, "api_prefix": cfg.APIV1Str})
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			utils.LogError(err, "Failed to start server")
			stop()
		}
	}()

	<-ctx.Done()
	utils.LogInfo("Shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		utils.LogError(err, "Server forced to shutdown")
	}
}
