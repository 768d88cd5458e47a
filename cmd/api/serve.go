package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/assetstore/backend/internal/config"
	"github.com/assetstore/backend/internal/handlers"
	"github.com/assetstore/backend/internal/middleware"
	"github.com/assetstore/backend/internal/models"
	"github.com/assetstore/backend/internal/pkg/logger"
	"github.com/assetstore/backend/internal/server"
	"github.com/assetstore/backend/internal/services"
	"github.com/assetstore/backend/pkg/jwt"
	"github.com/spf13/cobra"
)

var skipMigrate bool

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe(cmd.Context())
	},
}

func init() {
	serveCmd.Flags().BoolVar(&skipMigrate, "skip-migrate", false, "Do not run migrations on start")
}

func runServe(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	cfg, lg, err := bootstrap()
	if err != nil {
		return err
	}
	defer lg.Sync()

	// Initialize database
	db, err := models.InitDB(cfg, lg)
	if err != nil {
		return err
	}
	if !skipMigrate {
		if err := models.Migrate(db); err != nil {
			return fmt.Errorf("run migrations: %w", err)
		}
	}

	// Initialize Redis
	redisClient := models.InitRedis(cfg, lg)
	defer redisClient.Close()

	validator, err := jwt.NewValidator(jwt.Options{
		Secret:       cfg.JWTSecret,
		PublicKeyPEM: cfg.JWTPublicKey,
		Issuer:       cfg.JWTIssuer,
		Audience:     cfg.JWTAudience,
	})
	if err != nil {
		return fmt.Errorf("init token validator: %w", err)
	}

	// Initialize services
	store, err := newObjectStore(ctx, cfg, lg)
	if err != nil {
		return err
	}
	limits := services.UploadLimits{MaxPictureSize: cfg.UploadMaxPictureSize, MaxFileSize: cfg.UploadMaxFileSize}
	assetService := services.NewAssetService(db, store, services.AssetOptions{
		URLs:    cfg.ObjectURLs(),
		Limits:  limits,
		MaxTake: cfg.PageMaxTake,
	}, lg)
	userService := services.NewUserService(db, store, limits, lg)
	if cfg.IdPDomain != "" {
		userService.SetIdentityManager(services.NewManagementClient(ctx, services.ManagementOptions{
			Domain:       cfg.IdPDomain,
			ClientID:     cfg.IdPClientID,
			ClientSecret: cfg.IdPClientSecret,
			Audience:     cfg.IdPManagementAudience,
		}, lg))
	} else {
		lg.Warn("IDP_DOMAIN not set, user blocking and roles are disabled")
	}

	router := server.NewRouter(server.RouterConfig{
		Config:       cfg,
		Logger:       lg,
		DB:           db,
		Validator:    validator,
		Counter:      middleware.NewRedisCounter(redisClient),
		AssetHandler: handlers.NewAssetHandler(assetService, lg),
		UserHandler:  handlers.NewUserHandler(userService, lg),
	})

	// Start server
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  120 * time.Second, // large file uploads
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		lg.Info("Starting server", "port", cfg.Port, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-errCh:
		return fmt.Errorf("start server: %w", err)
	case <-quit:
	}

	lg.Info("Shutting down server...")

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	lg.Info("Server exited")
	return nil
}

func newObjectStore(ctx context.Context, cfg *config.Config, lg *logger.Logger) (services.ObjectStore, error) {
	switch cfg.StorageBackend {
	case "local":
		lg.Warn("Using local object storage", "path", cfg.LocalStoragePath)
		return services.NewLocalStore(cfg.LocalStoragePath, cfg.ObjectURLs(), lg)
	case "s3", "":
		s3Service, err := services.NewS3Service(ctx, cfg)
		if err != nil {
			return nil, fmt.Errorf("init s3 service: %w", err)
		}
		return s3Service, nil
	default:
		return nil, fmt.Errorf("unknown STORAGE_BACKEND %q", cfg.StorageBackend)
	}
}
