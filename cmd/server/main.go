package main

import (
	"context"
	"net/http"
	"os"

	_ "elearn/docs" // swagger docs

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"

	"elearn/internal/assets"
	"elearn/internal/auth"
	"elearn/internal/cache"
	"elearn/internal/config"
	"elearn/internal/db"
	"elearn/internal/handler"
	"elearn/internal/mailer"
	"elearn/internal/model"
	"elearn/internal/repository"
	"elearn/internal/router"
	"elearn/internal/service"
)

// @title ELearning Identity API
// @version 1.0
// @description Identity and session backend with activation-based registration and revocable JWT sessions.
// @host localhost:8080
// @BasePath /api/v1
// @schemes http
func main() {
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	cfg := config.Load()

	e := echo.New()
	e.HideBanner = true
	e.Use(echomw.RequestID())

	gormDB, err := db.NewMySQL(cfg.MySQLDSN)
	if err != nil {
		logger.Fatal().Err(err).Msg("database init")
	}

	if err := gormDB.AutoMigrate(&model.User{}); err != nil {
		logger.Fatal().Err(err).Msg("auto-migrate")
	}

	cacheClient := cache.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)
	if err := cacheClient.Ping(context.Background()); err != nil {
		logger.Fatal().Err(err).Msg("redis init")
	}

	// Auth components
	jwtService := auth.NewJWTService(auth.Secrets{
		Activation: cfg.ActivationTokenSecret,
		Access:     cfg.AccessTokenSecret,
		Refresh:    cfg.RefreshTokenSecret,
	}, cfg.AccessTokenTTL(), cfg.RefreshTokenTTL())
	sessions := auth.NewSessionStore(cacheClient, cfg.RefreshTokenTTL())

	// Collaborators
	mail, err := mailer.New(logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("mailer init")
	}
	assetStore, err := assets.NewS3Store(context.Background(), assets.Config{
		Region:    cfg.S3Region,
		Bucket:    cfg.S3Bucket,
		Endpoint:  cfg.S3Endpoint,
		AccessKey: cfg.S3AccessKey,
		SecretKey: cfg.S3SecretKey,
	}, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("asset store init")
	}

	// Repositories and services
	userRepo := repository.NewUserRepository(gormDB)
	authService := service.NewAuthService(userRepo, jwtService, sessions, mail)
	userService := service.NewUserService(userRepo, sessions, assetStore, logger)

	// Handlers and routes
	authHandler := handler.NewAuthHandler(authService, jwtService, cfg)
	userHandler := handler.NewUserHandler(userService)
	router.Register(e, cfg, jwtService, sessions, authHandler, userHandler)

	addr := ":" + cfg.ServerPort
	logger.Info().Str("addr", addr).Bool("production", cfg.Production).Msg("starting server")
	if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
		logger.Fatal().Err(err).Msg("server start")
	}
}
