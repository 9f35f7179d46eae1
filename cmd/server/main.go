package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	// Adapters
	"github.com/Abdurahmanit/GroupProject/listing-wizard/internal/adapter/collaborator"
	"github.com/Abdurahmanit/GroupProject/listing-wizard/internal/adapter/geocoding"
	"github.com/Abdurahmanit/GroupProject/listing-wizard/internal/adapter/http/handler"
	"github.com/Abdurahmanit/GroupProject/listing-wizard/internal/adapter/http/middleware"
	"github.com/Abdurahmanit/GroupProject/listing-wizard/internal/adapter/http/router"
	"github.com/Abdurahmanit/GroupProject/listing-wizard/internal/adapter/mailer"
	natsAdapter "github.com/Abdurahmanit/GroupProject/listing-wizard/internal/adapter/messaging/nats"
	"github.com/Abdurahmanit/GroupProject/listing-wizard/internal/adapter/repository/memory"
	mongoRepo "github.com/Abdurahmanit/GroupProject/listing-wizard/internal/adapter/repository/mongodb"
	redisRepo "github.com/Abdurahmanit/GroupProject/listing-wizard/internal/adapter/repository/redis"
	"github.com/Abdurahmanit/GroupProject/listing-wizard/internal/adapter/storage/s3"

	"github.com/Abdurahmanit/GroupProject/listing-wizard/internal/config"
	"github.com/Abdurahmanit/GroupProject/listing-wizard/internal/wizard/domain"
	"github.com/Abdurahmanit/GroupProject/listing-wizard/internal/wizard/usecase"

	// Platform
	"github.com/Abdurahmanit/GroupProject/listing-wizard/internal/platform/logger"
	"github.com/Abdurahmanit/GroupProject/listing-wizard/internal/platform/metrics"
	"github.com/Abdurahmanit/GroupProject/listing-wizard/internal/platform/tracer"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func main() {
	if err := godotenv.Load(); err != nil {
		fmt.Printf("INFO: .env file not found or error loading: %v. Relying on OS environment variables.\n", err)
	}

	// 1. Logger and configuration
	appLogger := logger.NewLogger()
	defer func() { _ = appLogger.Sync() }()

	cfg, err := config.LoadConfig(appLogger)
	if err != nil {
		appLogger.Fatal("Failed to load configuration", zap.Error(err))
	}
	appLogger.Info("Application starting...", zap.String("service_name", cfg.ServiceName))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// 2. Tracing and metrics
	tp := tracer.InitTracer(cfg.ServiceName, cfg.OTExporterOTLPEndpoint, appLogger)
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tp.Shutdown(shutdownCtx); err != nil {
			appLogger.Error("Failed to shutdown tracer provider", zap.Error(err))
		}
	}()

	metricsManager := metrics.NewMetricsManager("listing_wizard")
	go func() {
		if err := metrics.StartMetricsServer(cfg.PrometheusMetricsPort, appLogger, metricsManager.Registry); err != nil && !errors.Is(err, http.ErrServerClosed) {
			appLogger.Error("Prometheus metrics server failed", zap.Error(err))
		}
	}()

	// 3. Draft storage
	persistence, closeStore := openDraftStore(ctx, cfg, appLogger)
	defer closeStore()

	// 4. Collaborators
	collaboratorClient := collaborator.NewClient(cfg.CollaboratorBaseURL, cfg.CollaboratorTimeout, appLogger)
	geocoder := geocoding.NewClient(cfg.GeocodingBaseURL, cfg.GeocodingAPIKey, appLogger)
	if cfg.GeocodingAPIKey == "" {
		appLogger.Warn("GEOCODING_API_KEY is not set; location detection will fail with request_denied")
	}

	notifier := usecase.NewAuthNotifier()
	var opts []usecase.Option

	if cfg.NATSURL != "" {
		conn, err := natsAdapter.Connect(cfg.NATSURL, appLogger, cfg.ServiceName)
		if err != nil {
			appLogger.Fatal("Failed to connect to NATS", zap.Error(err))
		}
		defer natsAdapter.Close(conn, appLogger)
		opts = append(opts, usecase.WithEventPublisher(natsAdapter.NewPublisher(conn, appLogger)))

		authSubscriber := natsAdapter.NewAuthSubscriber(conn, notifier, appLogger)
		if err := authSubscriber.Start(); err != nil {
			appLogger.Fatal("Failed to subscribe to auth events", zap.Error(err))
		}
		defer authSubscriber.Stop()
	} else {
		appLogger.Info("NATS_URL not set: listing events are not published and auth events are not received.")
	}

	if cfg.MinIOEndpoint != "" {
		archive, err := s3.NewPhotoArchive(ctx, cfg.MinIOEndpoint, cfg.MinIOAccessKey, cfg.MinIOSecretKey, cfg.MinIOBucket, cfg.MinIOUseSSL, appLogger)
		if err != nil {
			appLogger.Fatal("Failed to initialize photo archive", zap.Error(err))
		}
		opts = append(opts, usecase.WithPhotoArchive(archive))
	}

	if cfg.SMTPHost != "" {
		opts = append(opts, usecase.WithListingNotifier(
			mailer.NewSMTPMailer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUsername, cfg.SMTPPassword, cfg.SMTPSender, appLogger),
		))
	}

	// 5. Usecases
	wizard := usecase.NewWizard(
		usecase.NewProgressStore(persistence, metricsManager, appLogger),
		usecase.NewCatalogFetcher(collaboratorClient, metricsManager, appLogger),
		usecase.NewRenderer(nil),
		usecase.NewLocator(geocoder, usecase.DefaultLocatorConfig(), metricsManager, appLogger),
		collaboratorClient,
		metricsManager,
		appLogger,
		opts...,
	)
	registry := usecase.NewSessionRegistry(cfg.SessionIdleTTL, notifier, metricsManager, appLogger)
	go registry.Run(ctx)

	// 6. HTTP server
	mux := chi.NewRouter()
	mux.Use(chimw.RequestID)
	mux.Use(chimw.Recoverer)
	mux.Use(middleware.Tracing())
	mux.Use(middleware.JWTAuth(cfg.JWTSecret, appLogger))
	mux.Use(middleware.Logger(appLogger))
	mux.Use(middleware.Metrics(metricsManager))

	router.SetupWizardRoutes(mux,
		handler.NewWizardHandler(wizard, appLogger),
		middleware.Session(registry, wizard, middleware.CookieOptions{TTL: cfg.DraftTTL, Secure: cfg.SessionCookieSecure}, appLogger),
	)

	srv := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	go func() {
		appLogger.Info("Starting HTTP server", zap.String("port", cfg.HTTPPort))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			appLogger.Fatal("HTTP server failed", zap.Error(err))
		}
	}()

	// 7. Graceful shutdown
	<-ctx.Done()
	appLogger.Info("Received shutdown signal, shutting down HTTP server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		appLogger.Error("HTTP server shutdown failed", zap.Error(err))
	}
	appLogger.Info("Application shutting down...")
}

// openDraftStore connects the configured draft backend and returns it with
// its cleanup function.
func openDraftStore(ctx context.Context, cfg *config.Config, appLogger *logger.Logger) (domain.ProgressPersistence, func()) {
	switch cfg.DraftStore {
	case config.DraftStoreRedis:
		client, err := redisRepo.NewClient(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			appLogger.Fatal("Failed to connect to Redis", zap.Error(err))
		}
		appLogger.Info("Using Redis draft store", zap.String("addr", cfg.RedisAddr))
		return redisRepo.NewDraftRepository(client, cfg.DraftTTL, appLogger), func() {
			if err := client.Close(); err != nil {
				appLogger.Error("Error closing Redis client", zap.Error(err))
			}
		}

	case config.DraftStoreMongo:
		client, err := mongoRepo.NewClient(ctx, cfg.MongoURI)
		if err != nil {
			appLogger.Fatal("Failed to connect to MongoDB", zap.Error(err))
		}
		repo, err := mongoRepo.NewDraftRepository(client.Database(cfg.MongoDatabase), cfg.DraftTTL, appLogger)
		if err != nil {
			appLogger.Fatal("Failed to initialize Mongo draft repository", zap.Error(err))
		}
		appLogger.Info("Using MongoDB draft store", zap.String("database", cfg.MongoDatabase))
		return repo, func() {
			disconnectCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := client.Disconnect(disconnectCtx); err != nil {
				appLogger.Error("Error disconnecting from MongoDB", zap.Error(err))
			}
		}

	default:
		appLogger.Warn("Using in-memory draft store; drafts are lost on restart")
		return memory.NewDraftRepository(), func() {}
	}
}
