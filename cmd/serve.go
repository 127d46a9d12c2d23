package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echoMiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/spf13/cobra"
	"github.com/umar-io/lease-agreement-generator/internal/caching"
	"github.com/umar-io/lease-agreement-generator/internal/config"
	"github.com/umar-io/lease-agreement-generator/internal/handlers"
	"github.com/umar-io/lease-agreement-generator/internal/jobs/background"
	"github.com/umar-io/lease-agreement-generator/internal/middleware"
	"github.com/umar-io/lease-agreement-generator/internal/repositories"
	"github.com/umar-io/lease-agreement-generator/internal/services"
	"github.com/umar-io/lease-agreement-generator/pkg/database"
	"go.uber.org/zap"
)

const (
	shutdownTimeout   = 20 * time.Second
	startupTimeout    = 30 * time.Second
	emailTimeout      = 30 * time.Second
	generateWindow    = time.Hour
	requestBodyLimit  = "1M"
	serverReadTimeout = 30 * time.Second
	// Generation, upload and delivery can run back to back inside one request.
	serverWriteTimeout = 2 * time.Minute
)

func newServeCommand(opts *rootOptions) *cobra.Command {
	var skipMigrate bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := loadRuntime(opts)
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return runServe(ctx, cfg, !skipMigrate, logger)
		},
	}

	cmd.Flags().BoolVar(&skipMigrate, "skip-migrate", false, "do not apply the schema on startup")
	return cmd
}

func runServe(ctx context.Context, cfg config.Config, migrate bool, logger *zap.Logger) error {
	startCtx, cancel := context.WithTimeout(ctx, startupTimeout)
	defer cancel()

	// Database
	pool, err := database.NewPool(startCtx, cfg.DatabaseURL, cfg.DBMaxConns, logger)
	if err != nil {
		return err
	}
	defer pool.Close()
	if migrate {
		if err := database.Migrate(startCtx, pool); err != nil {
			return err
		}
	}

	// Object store
	minioClient, err := services.NewMinioClient(cfg.Minio.Endpoint, cfg.Minio.AccessKey, cfg.Minio.SecretKey, cfg.Minio.Region, cfg.Minio.UseSSL)
	if err != nil {
		return fmt.Errorf("minio client: %w", err)
	}
	store, err := services.NewArtifactStore(minioClient, services.ArtifactStoreConfig{
		Bucket:       cfg.Minio.Bucket,
		PublicURL:    cfg.Minio.ObjectBaseURL(),
		SignedURLTTL: cfg.Minio.SignedURLTTL,
	}, logger)
	if err != nil {
		return err
	}
	if err := store.EnsureBucket(startCtx); err != nil {
		return err
	}

	// Cache
	redisClient, err := caching.NewRedisClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		return err
	}
	defer redisClient.Close()
	limiter := caching.NewRedisRateLimiter(redisClient, logger)
	if err := limiter.Ping(startCtx); err != nil {
		logger.Warn("redis unavailable at startup; generation is not rate limited until it recovers", zap.Error(err))
	}

	// Repositories and services
	leaseRepo := repositories.NewLeaseRepo(pool)
	profileRepo := repositories.NewProfileRepo(pool)

	var generator services.ContentGenerator
	if cfg.Generation.APIKey != "" {
		generator = services.NewRemoteContentGenerator(services.RemoteGeneratorConfig{
			BaseURL: cfg.Generation.BaseURL,
			APIKey:  cfg.Generation.APIKey,
			Model:   cfg.Generation.Model,
			Timeout: cfg.Generation.Timeout,
		}, logger)
	} else {
		logger.Warn("no generation api key configured; every lease uses the local template")
	}
	if cfg.Email.APIKey == "" {
		logger.Warn("no email api key configured; delivery requests will be rejected")
	}

	sender := services.NewResendEmailSender(services.ResendConfig{
		BaseURL: cfg.Email.BaseURL,
		APIKey:  cfg.Email.APIKey,
		Timeout: emailTimeout,
	}, logger)
	delivery := services.NewDeliveryService(sender, store, leaseRepo, services.DeliveryConfig{
		From: cfg.Email.From,
	}, logger)
	defer delivery.Wait()

	leaseSvc := services.NewLeaseService(
		leaseRepo,
		generator,
		services.NewDocumentRenderer(logger),
		store,
		delivery,
		services.LeaseServiceConfig{GenerationTimeout: cfg.Generation.Timeout},
		logger,
	)
	profileSvc := services.NewProfileService(profileRepo, logger)

	// Auth
	auth, err := middleware.NewAuthenticator(middleware.AuthConfig{
		JWTSecret: cfg.Auth.JWTSecret,
		JWKSURL:   cfg.Auth.JWKSURL,
	}, logger)
	if err != nil {
		return err
	}
	defer auth.Close()

	// Background jobs
	scheduler, err := background.NewJobScheduler(leaseRepo, cfg.ExpirySweepInterval, logger)
	if err != nil {
		return err
	}
	scheduler.Start()
	defer func() {
		if err := scheduler.Stop(); err != nil {
			logger.Warn("scheduler shutdown", zap.Error(err))
		}
	}()

	// HTTP
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Server.ReadTimeout = serverReadTimeout
	e.Server.WriteTimeout = serverWriteTimeout

	e.Use(echoMiddleware.Recover())
	e.Use(echoMiddleware.RequestID())
	e.Use(middleware.RequestLogger(logger))
	e.Use(echoMiddleware.CORS())
	e.Use(echoMiddleware.RemoveTrailingSlash())
	e.Use(echoMiddleware.BodyLimit(requestBodyLimit))

	handlers.NewHealthHandlers(pool, limiter, store, version).
		WithJobs(scheduler).
		RegisterRoutes(e)

	v1 := e.Group("/v1", auth.Middleware(), middleware.ProfileMiddleware(profileSvc, logger))
	handlers.NewLeaseHandlers(leaseSvc, profileSvc, limiter, handlers.RateLimit{
		Limit:  cfg.GenerateRateLimit,
		Window: generateWindow,
	}, logger).RegisterRoutes(v1)
	handlers.NewProfileHandlers(profileSvc, logger).RegisterRoutes(v1)

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server starting", zap.String("port", cfg.Port), zap.String("version", version))
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancelShutdown()
	if err := e.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http shutdown: %w", err)
	}
	return nil
}
