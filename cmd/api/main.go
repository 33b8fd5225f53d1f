package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"kudos-cafe/internal/cache"
	"kudos-cafe/internal/config"
	"kudos-cafe/internal/database"
	"kudos-cafe/internal/events"
	"kudos-cafe/internal/handler"
	"kudos-cafe/internal/realtime"
	"kudos-cafe/internal/refund"
	"kudos-cafe/internal/repository"
	"kudos-cafe/internal/router"
	"kudos-cafe/internal/service"
	"kudos-cafe/internal/storage"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// A .env file is optional; real deployments set the environment directly.
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to read .env file: %w", err)
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	logger := config.NewLogger(cfg.Logger, cfg.Server.ServiceName)
	logger.Info().Msg("starting kudos-cafe API server")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Database
	pool, err := database.NewPool(ctx, cfg.Database, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer pool.Close()

	if cfg.Database.AutoMigrate {
		if err := database.Migrate(pool, logger); err != nil {
			return fmt.Errorf("failed to migrate database: %w", err)
		}
	}

	orderRepo := repository.NewOrderRepository(pool, logger)
	messageRepo := repository.NewMessageRepository(pool, logger)
	menuRepo := repository.NewMenuRepository(pool, logger)
	reviewRepo := repository.NewReviewRepository(pool, logger)
	profileRepo := repository.NewProfileRepository(pool, logger)
	galleryRepo := repository.NewGalleryRepository(pool, logger)
	analyticsRepo := repository.NewAnalyticsRepository(pool, logger)

	store, err := newObjectStore(ctx, cfg.Storage, logger)
	if err != nil {
		return err
	}

	// Idempotency keys and the analytics cache
	var (
		idempotency cache.IdempotencyStore
		analytics   cache.AnalyticsCache
	)
	if cfg.Redis.Enabled {
		rdb, err := cache.NewRedisClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			return fmt.Errorf("failed to connect to redis: %w", err)
		}
		defer rdb.Close()

		redisStore := cache.NewRedisStore(rdb, cfg.Redis.IdempotencyTTL, cfg.Redis.AnalyticsTTL, logger)
		idempotency, analytics = redisStore, redisStore
	} else {
		logger.Info().Msg("redis disabled, keeping idempotency keys in memory")
		memStore := cache.NewMemoryStore(cfg.Redis.IdempotencyTTL, cfg.Redis.AnalyticsTTL)
		idempotency, analytics = memStore, memStore
	}

	// Realtime fan-out, bridged across instances when NATS is configured
	hub := realtime.NewHub(64, logger)
	defer hub.Close()

	var notifier realtime.Notifier = hub
	if cfg.NATS.Enabled {
		bridge, err := realtime.NewNATSBridge(cfg.NATS.URL, cfg.NATS.SubjectPrefix, hub, logger)
		if err != nil {
			return fmt.Errorf("failed to connect to nats: %w", err)
		}
		defer func() {
			if err := bridge.Close(); err != nil {
				logger.Error().Err(err).Msg("failed to close nats bridge")
			}
		}()

		if err := bridge.Listen(); err != nil {
			return fmt.Errorf("failed to listen for change events: %w", err)
		}
		notifier = bridge
	}

	// Domain event log
	publisher := events.NewNopPublisher()
	if cfg.Kafka.Enabled {
		producer := events.NewKafkaProducer(cfg.Kafka.Brokers, cfg.Kafka.Topic, 256, logger)
		producer.Start()
		publisher = producer
	}
	defer func() {
		if err := publisher.Close(); err != nil {
			logger.Error().Err(err).Msg("failed to close event publisher")
		}
	}()

	out := service.Notifications{
		Realtime: notifier,
		Events:   publisher,
		Producer: cfg.Server.ServiceName,
	}
	policy := refund.Policy{
		ThresholdMinutes: cfg.Policy.RefundThresholdMinutes,
		PartialFraction:  cfg.Policy.PartialRefundFraction,
		Currency:         cfg.Policy.Currency,
	}

	orderService := service.NewOrderService(orderRepo, menuRepo, analytics, out, time.Now, logger)
	messageService := service.NewMessageService(orderRepo, messageRepo, policy, idempotency, out, time.Now, logger)
	menuService := service.NewMenuService(menuRepo, logger)
	reviewService := service.NewReviewService(reviewRepo, orderRepo, analytics, logger)
	galleryService := service.NewGalleryService(galleryRepo, store, cfg.Storage.PublicBaseURL, cfg.Storage.MaxUploadSize, logger)
	adminService := service.NewAdminService(profileRepo, analyticsRepo, analytics, logger)

	mux := router.New(router.Handlers{
		Order:   handler.NewOrderHandler(orderService, logger),
		Message: handler.NewMessageHandler(messageService, logger),
		Stream:  handler.NewStreamHandler(messageService, hub, 0, logger),
		Menu:    handler.NewMenuHandler(menuService, logger),
		Review:  handler.NewReviewHandler(reviewService, logger),
		Gallery: handler.NewGalleryHandler(galleryService, cfg.Storage.MaxUploadSize, logger),
		Admin:   handler.NewAdminHandler(adminService, logger),
	}, cfg.Auth.APIKey, logger)

	// No WriteTimeout: the message stream is long lived. Other routes are
	// bounded by the router's timeout middleware.
	server := &http.Server{
		Addr:              cfg.Server.Address(),
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	serverErrors := make(chan error, 1)

	go func() {
		logger.Info().
			Str("address", cfg.Server.Address()).
			Msg("HTTP server started")
		serverErrors <- server.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		return fmt.Errorf("server error: %w", err)

	case sig := <-shutdown:
		logger.Info().
			Str("signal", sig.String()).
			Msg("shutdown signal received, starting graceful shutdown")

		// Ends open message streams so Shutdown does not wait on them.
		hub.Close()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error().Err(err).Msg("failed to shutdown server gracefully")
			if closeErr := server.Close(); closeErr != nil {
				logger.Error().Err(closeErr).Msg("failed to close server")
			}
			return fmt.Errorf("server shutdown failed: %w", err)
		}

		logger.Info().Msg("server shutdown completed")
	}

	return nil
}

// newObjectStore returns the media store. With the s3 backend the local
// directory still serves reads for objects uploaded before the switch.
func newObjectStore(ctx context.Context, cfg config.StorageConfig, logger zerolog.Logger) (storage.ObjectStore, error) {
	local, err := storage.NewLocalStore(cfg.LocalDir, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize local media store: %w", err)
	}

	if cfg.Backend != "s3" {
		logger.Info().Str("dir", cfg.LocalDir).Msg("using local file system for media")
		return local, nil
	}

	s3Store, err := storage.NewS3Store(ctx, cfg.Bucket, cfg.Region, cfg.Prefix, logger)
	if err != nil {
		logger.Warn().
			Err(err).
			Msg("failed to initialise S3 store, falling back to local file system only")
		return local, nil
	}

	return storage.NewFallbackStore(s3Store, local, logger), nil
}
