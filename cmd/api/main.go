package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jaekwang-park/task-sync/internal/auth"
	"github.com/jaekwang-park/task-sync/internal/config"
	taskhttp "github.com/jaekwang-park/task-sync/internal/http"
	"github.com/jaekwang-park/task-sync/internal/middleware"
	"github.com/jaekwang-park/task-sync/internal/repository"
	"github.com/jaekwang-park/task-sync/internal/service"
)

func main() {
	// Initial logger at info level; reconfigured after config load
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	if err := run(context.Background()); err != nil {
		logger.Error("application failed", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.ParseLogLevel(),
	}))
	slog.SetDefault(logger)

	logger.Info("config loaded",
		"env", cfg.AppEnv,
		"port", cfg.ServerPort,
		"auth_dev_mode", cfg.AuthDevMode,
		"log_level", cfg.LogLevel,
	)

	// Database connection
	db, err := repository.NewDB(cfg.DB.DSN())
	if err != nil {
		return err
	}
	defer db.Close()
	logger.Info("database connected")

	// Change feed: a dedicated NOTIFY connection that survives restarts
	feed, err := repository.NewTaskListener(cfg.DB.DSN(), cfg.DB.ListenMinReconnect, cfg.DB.ListenMaxReconnect, logger)
	if err != nil {
		return err
	}
	defer feed.Close()
	logger.Info("change feed listening")

	// Repositories
	taskRepo := repository.NewPostgresTask(db)
	userRepo := repository.NewPostgresUser(db)

	// Auth service client
	authClient, err := auth.NewCognitoClient(
		ctx,
		cfg.Cognito.Region,
		cfg.Cognito.AppClientID,
		cfg.Cognito.AppClientSecret,
	)
	if err != nil {
		return err
	}
	logger.Info("auth client initialized", "region", cfg.Cognito.Region)

	// Services
	sessions := service.NewSessionProvider(authClient, userRepo, logger)
	store := service.NewTaskStore(taskRepo, feed, logger)
	profiles := service.NewProfileService(userRepo)

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Dispatch change-feed events for as long as the process runs
	go store.Run(ctx)

	// Auth middleware
	authCfg := middleware.AuthConfig{
		DevMode: cfg.AuthDevMode,
	}
	if !cfg.AuthDevMode {
		jwksURL := middleware.CognitoJWKSURL(cfg.Cognito.Region, cfg.Cognito.UserPoolID)
		authCfg.JWKSClient = middleware.NewJWKSClient(jwksURL)
		authCfg.Issuer = middleware.CognitoIssuer(cfg.Cognito.Region, cfg.Cognito.UserPoolID)
		authCfg.AppClientID = cfg.Cognito.AppClientID
	}
	authMw, err := middleware.NewAuth(authCfg)
	if err != nil {
		return fmt.Errorf("failed to create auth middleware: %w", err)
	}

	// HTTP Server
	srv := taskhttp.NewServer(cfg.ServerPort, logger, authMw, sessions, store, profiles)

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server failed", "error", err)
			stop()
		}
	}()

	logger.Info("server starting", "port", cfg.ServerPort)

	<-ctx.Done()
	logger.Info("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}

	logger.Info("server stopped gracefully")
	return nil
}
