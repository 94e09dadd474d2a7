package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/herdpool/herdpool/internal/adapter/gateway/paystack"
	httpAdapter "github.com/herdpool/herdpool/internal/adapter/http"
	"github.com/herdpool/herdpool/internal/adapter/http/handler"
	postgresRepo "github.com/herdpool/herdpool/internal/adapter/repository/postgres"
	redisRepo "github.com/herdpool/herdpool/internal/adapter/repository/redis"
	"github.com/herdpool/herdpool/internal/infrastructure/auth"
	"github.com/herdpool/herdpool/internal/infrastructure/config"
	"github.com/herdpool/herdpool/internal/infrastructure/eventpublisher"
	"github.com/herdpool/herdpool/internal/infrastructure/logger"
	"github.com/herdpool/herdpool/internal/infrastructure/metrics"
	"github.com/herdpool/herdpool/internal/infrastructure/postgres"
	"github.com/herdpool/herdpool/internal/infrastructure/redis"
	"github.com/herdpool/herdpool/internal/usecase"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(logger.Config{Level: cfg.LogLevel, Format: cfg.LogFormat})

	ctx := context.Background()

	// Connect to PostgreSQL
	pool, err := postgres.NewPool(ctx, cfg.DatabaseURL, cfg.DatabaseMaxConns, cfg.DatabaseMinConns)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to postgres")
	}
	defer pool.Close()
	log.Info().Msg("connected to postgres")

	if err := postgres.RunMigrations(cfg.DatabaseURL, cfg.MigrationsPath); err != nil {
		log.Fatal().Err(err).Msg("failed to run migrations")
	}
	log.Info().Msg("migrations applied")

	// Connect to Redis
	redisClient, err := redis.NewClient(ctx, cfg.RedisURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to redis")
	}
	defer redisClient.Close()
	log.Info().Msg("connected to redis")

	m := metrics.New()

	// Repositories
	txManager := postgresRepo.NewTxManager(pool)
	walletRepo := postgresRepo.NewWalletRepository(pool)
	entryRepo := postgresRepo.NewEntryRepository(pool)
	groupRepo := postgresRepo.NewGroupRepository(pool)
	participationRepo := postgresRepo.NewParticipationRepository(pool)
	intentRepo := postgresRepo.NewIntentRepository(pool)
	outboxRepo := postgresRepo.NewOutboxRepository(pool)
	auditRepo := postgresRepo.NewAuditRepository(pool)
	listingRepo := postgresRepo.NewListingRepository(pool)
	idGen := postgresRepo.NewULIDGenerator()
	retrier := postgresRepo.NewRetrier()

	idempotencyStore := redisRepo.NewIdempotencyStore(redisClient)
	cache := redisRepo.NewCache(redisClient)

	gateway := paystack.NewClient(cfg.PaystackSecretKey,
		paystack.WithBaseURL(cfg.PaystackBaseURL),
		paystack.WithMetrics(m),
	)

	// Use cases
	walletUC := usecase.NewWalletUseCase(txManager, walletRepo, entryRepo, outboxRepo, auditRepo, idGen, retrier, m)
	paymentUC := usecase.NewPaymentUseCase(intentRepo, gateway, idGen, m)
	groupUC := usecase.NewGroupUseCase(txManager, groupRepo, participationRepo, outboxRepo, auditRepo,
		walletUC, paymentUC, listingRepo, cache, idGen, retrier, m)

	// Handlers
	walletHandler := handler.NewWalletHandler(walletUC)
	groupHandler := handler.NewGroupHandler(groupUC, cfg.PaymentCallback)
	paymentHandler := handler.NewPaymentHandler(paymentUC, groupUC)
	healthHandler := handler.NewHealthHandler(pool, redisClient)

	var jwtManager *auth.JWTManager
	if cfg.AuthEnabled && cfg.JWTSecret != "" {
		jwtManager = auth.NewJWTManager(cfg.JWTSecret, cfg.JWTExpiration)
		log.Info().Msg("authentication enabled")
	}

	router := httpAdapter.NewRouter(httpAdapter.RouterConfig{
		WalletHandler:    walletHandler,
		GroupHandler:     groupHandler,
		PaymentHandler:   paymentHandler,
		HealthHandler:    healthHandler,
		IdempotencyStore: idempotencyStore,
		JWTManager:       jwtManager,
		Logger:           log,
		Metrics:          m,
		RateLimit:        100,
		RateBurst:        200,
	})

	// Outbox publisher drains committed events in the background.
	publisherCtx, stopPublisher := context.WithCancel(ctx)
	defer stopPublisher()

	publisher := eventpublisher.NewEventPublisher(eventpublisher.Config{
		OutboxRepo: outboxRepo,
		Publisher:  eventpublisher.NewLogPublisher(&log),
		Logger:     log,
	})
	go func() {
		if err := publisher.Start(publisherCtx); err != nil && publisherCtx.Err() == nil {
			log.Error().Err(err).Msg("event publisher stopped")
		}
	}()

	server := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.HTTPPort),
		Handler:      router,
		ReadTimeout:  cfg.HTTPReadTimeout,
		WriteTimeout: cfg.HTTPWriteTimeout,
		IdleTimeout:  cfg.HTTPIdleTimeout,
	}

	go func() {
		log.Info().Str("port", cfg.HTTPPort).Msg("starting server")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server...")
	stopPublisher()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTPShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatal().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("server stopped")
}
