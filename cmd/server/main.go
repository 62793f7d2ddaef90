package main

import (
	"context"
	"net/http"

	_ "acquisitions/docs" // swagger docs

	"acquisitions/internal/auth"
	"acquisitions/internal/cache"
	"acquisitions/internal/config"
	"acquisitions/internal/db"
	"acquisitions/internal/handler"
	"acquisitions/internal/middleware"
	"acquisitions/internal/model"
	"acquisitions/internal/repository"
	"acquisitions/internal/router"
	"acquisitions/internal/service"
	"acquisitions/pkg/logger"
)

// @title Acquisitions API
// @version 1.0
// @description User account management with cookie-based JWT authentication and role-based access control.
// @host localhost:3000
// @BasePath /api
// @schemes http
func main() {
	ctx := context.Background()

	cfg, err := config.Load(ctx)
	if err != nil {
		fallback := logger.New("info", false)
		fallback.Fatal().Err(err).Msg("load configuration")
	}

	log := logger.New(cfg.LogLevel, !cfg.IsProduction())

	gormDB, err := db.NewPostgres(cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("database init")
	}
	if err := gormDB.AutoMigrate(&model.User{}); err != nil {
		log.Fatal().Err(err).Msg("auto-migrate")
	}

	cacheClient := cache.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)

	jwtService := auth.NewJWTService(cfg.JWTSecret)
	sessions := auth.NewSessionStore(cacheClient)
	cookies := auth.NewCookieManager(cfg.IsProduction())

	userRepo := repository.NewUserRepository(gormDB)

	authService := service.NewAuthService(userRepo, jwtService, sessions)
	userService := service.NewUserService(userRepo)

	authHandler := handler.NewAuthHandler(authService, jwtService, cookies, log)
	userHandler := handler.NewUserHandler(userService, sessions, cookies, log)

	mw := middleware.New(cfg.JWTSecret, sessions, log)

	e := router.New(cfg, log, mw, authHandler, userHandler)

	addr := ":" + cfg.Port
	log.Info().Str("addr", addr).Str("env", cfg.Env).Msg("starting server")
	if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
		log.Fatal().Err(err).Msg("server start")
	}
}
