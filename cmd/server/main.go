package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"session-service/internal/audit"
	auditrepo "session-service/internal/audit/repository"
	"session-service/internal/auth/handler"
	"session-service/internal/auth/service"
	"session-service/internal/config"
	"session-service/internal/db"
	"session-service/internal/obs"
	"session-service/internal/revocation"
	revrepo "session-service/internal/revocation/repository"
	"session-service/internal/security"
	"session-service/internal/server"
	"session-service/internal/token"
	userrepo "session-service/internal/user/repository"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger, err := obs.NewLogger(obs.LogConfig{Level: cfg.LogLevel, Env: cfg.Env, App: "session-service"})
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	if cfg.DatabaseURL == "" {
		logger.Fatal("DATABASE_URL is not set; create a .env from .env.example or set DATABASE_URL")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	pool, err := db.Open(ctx, cfg.DatabaseURL, 5*time.Second)
	cancel()
	if err != nil {
		logger.Fatal("db connect", zap.Error(err))
	}
	defer pool.Pool.Close()

	users := userrepo.NewPostgresRepository(pool)
	revocations := revrepo.NewPostgresRepository(pool)
	audits := auditrepo.NewPostgresRepository(pool)

	hasher := security.NewHasher(cfg.BcryptCost)
	tokens := token.NewProvider([]byte(cfg.JWTSecret), cfg.DefaultTTL(), cfg.RememberMeTTL(), users, revocations)
	auditLog := audit.NewLogger(audits, logger)
	authSvc := service.NewAuthService(users, revocations, hasher, tokens, auditLog, logger)

	sweeper := revocation.NewSweeper(revocations, logger)
	sweeper.Start(cfg.SweepEvery())
	defer sweeper.Stop()

	srv := server.New(cfg.HTTPAddr, server.Deps{
		Auth:   handler.NewAuthHandler(authSvc, logger),
		Tokens: tokens,
		Users:  users,
		DB:     pool,
		Log:    logger,
	})

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Start() }()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil {
			logger.Fatal("server", zap.Error(err))
		}
	case sig := <-quit:
		logger.Info("shutting down", zap.String("signal", sig.String()))
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("shutdown", zap.Error(err))
		}
	}
	logger.Info("server stopped")
}
