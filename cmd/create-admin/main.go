package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"fintechbank_backend/internal/bootstrap"
	"fintechbank_backend/internal/config"
	"fintechbank_backend/internal/services"
	"fintechbank_backend/pkg/utils"

	"github.com/rs/zerolog/log"
)

func main() {
	cfg, err := config.LoadConfig(".")
	if err != nil {
		utils.InitLogger("info", "console")
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}
	utils.InitLogger(cfg.LogLevel, cfg.LogFormat)

	if cfg.StorageDriver != config.StorageDriverPostgres {
		log.Fatal().Str("driver", cfg.StorageDriver).Msg("create-admin needs the postgres storage driver")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	storage, err := bootstrap.OpenStorage(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open storage")
	}
	defer storage.Close()

	tokens, err := utils.NewTokenManager(cfg.SecretKey, cfg.Algorithm, cfg.AccessTokenTTL())
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid token settings")
	}
	authService := services.NewAuthService(storage.Users, tokens)

	if _, err := bootstrap.CreateAdmin(ctx, bootstrap.NewAdminPrompt(os.Stdin, os.Stdout), authService); err != nil {
		if errors.Is(err, services.ErrUserExists) {
			log.Error().Msg("A user with this username or email already exists")
		} else {
			log.Error().Err(err).Msg("Failed to create administrator")
		}
		storage.Close()
		os.Exit(1)
	}
}
