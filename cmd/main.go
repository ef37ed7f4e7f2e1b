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

	redisAdapter "github.com/Abdurahmanit/GroupProject/drink-service/internal/adapter/cache/redis"
	natsAdapter "github.com/Abdurahmanit/GroupProject/drink-service/internal/adapter/messaging/nats"
	"github.com/Abdurahmanit/GroupProject/drink-service/internal/adapter/repository/memory"
	mongoRepo "github.com/Abdurahmanit/GroupProject/drink-service/internal/adapter/repository/mongodb"
	s3Adapter "github.com/Abdurahmanit/GroupProject/drink-service/internal/adapter/storage/s3"
	"github.com/Abdurahmanit/GroupProject/drink-service/internal/auth"
	"github.com/Abdurahmanit/GroupProject/drink-service/internal/config"
	"github.com/Abdurahmanit/GroupProject/drink-service/internal/domain"
	"github.com/Abdurahmanit/GroupProject/drink-service/internal/handler"
	"github.com/Abdurahmanit/GroupProject/drink-service/internal/mailer"
	"github.com/Abdurahmanit/GroupProject/drink-service/internal/platform/logger"
	"github.com/Abdurahmanit/GroupProject/drink-service/internal/platform/metrics"
	"github.com/Abdurahmanit/GroupProject/drink-service/internal/platform/tracer"
	"github.com/Abdurahmanit/GroupProject/drink-service/internal/router"
	"github.com/Abdurahmanit/GroupProject/drink-service/internal/usecase"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

const shutdownTimeout = 10 * time.Second

func main() {
	if err := godotenv.Load(); err != nil {
		fmt.Printf("INFO: .env file not found or error loading: %v. Relying on OS environment variables.\n", err)
	}

	appLogger := logger.NewLogger()
	defer func() { _ = appLogger.Sync() }()

	cfg, err := config.LoadConfig(appLogger)
	if err != nil {
		appLogger.Fatal("Failed to load configuration", zap.Error(err))
	}
	appLogger.Info("Application starting...",
		zap.String("service_name", cfg.ServiceName),
		zap.String("http_port", cfg.HTTPPort),
		zap.String("store_driver", cfg.StoreDriver),
		zap.Bool("redis_enabled", cfg.RedisEnabled()),
		zap.Bool("nats_enabled", cfg.NATSEnabled()),
		zap.Bool("minio_enabled", cfg.MinioEnabled()),
		zap.Bool("smtp_enabled", cfg.SMTPEnabled()),
	)

	tp := tracer.InitTracer(cfg.ServiceName, cfg.OTExporterOTLPEndpoint, appLogger)
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tp.Shutdown(ctx); err != nil {
			appLogger.Error("Failed to shutdown tracer provider", zap.Error(err))
		}
	}()

	store, closeStore, err := openStore(cfg, appLogger)
	if err != nil {
		appLogger.Fatal("Failed to initialize document store", zap.Error(err))
	}
	defer closeStore()

	var sessions auth.SessionStore = auth.NewMemorySessions()
	if cfg.RedisEnabled() {
		redisClient, err := redisAdapter.NewRedisClient(cfg.RedisAddress, cfg.RedisPassword, cfg.RedisDB, appLogger)
		if err != nil {
			appLogger.Fatal("Failed to connect to Redis", zap.Error(err))
		}
		defer func() { _ = redisClient.Close() }()
		sessions = redisAdapter.NewSessionStore(redisClient, appLogger)
	} else {
		appLogger.Warn("REDIS_ADDRESS not set, sessions are kept in process memory")
	}

	metricsManager := metrics.NewMetricsManager(cfg.ServiceName)

	var publisher usecase.EventPublisher
	if cfg.NATSEnabled() {
		natsPublisher, err := natsAdapter.NewPublisher(cfg.NATSURL, appLogger, cfg.ServiceName)
		if err != nil {
			appLogger.Fatal("Failed to initialize NATS publisher", zap.Error(err))
		}
		defer natsPublisher.Close()
		publisher = natsPublisher
	} else {
		appLogger.Info("NATS_URL not set, domain events are only counted")
	}
	events := usecase.WithEventHook(publisher, metricsManager.ObserveEvent)

	var images handler.ImageStorage
	if cfg.MinioEnabled() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		storage, err := s3Adapter.NewStorage(ctx, cfg.MinioEndpoint, cfg.MinioAccessKey, cfg.MinioSecretKey, cfg.MinioBucket, cfg.MinioUseSSL, appLogger)
		cancel()
		if err != nil {
			appLogger.Fatal("Failed to initialize image storage", zap.Error(err))
		}
		images = storage
	}

	var welcome handler.WelcomeSender
	if cfg.SMTPEnabled() {
		sender, err := mailer.NewSMTPSender(mailer.Config{
			Host:        cfg.SMTPHost,
			Port:        cfg.SMTPPort,
			Username:    cfg.SMTPUsername,
			Password:    cfg.SMTPPassword,
			SenderEmail: cfg.SMTPSender,
		}, appLogger)
		if err != nil {
			appLogger.Fatal("Failed to initialize SMTP sender", zap.Error(err))
		}
		welcome = sender
	}

	integrity := usecase.NewIntegrityManager(store, appLogger)
	r := router.NewRouter(router.Deps{
		ServiceName: cfg.ServiceName,
		Users:       usecase.NewUserUsecase(store, integrity, appLogger),
		Drinks:      usecase.NewDrinkUsecase(store, integrity, events, appLogger),
		Reviews:     usecase.NewReviewUsecase(store, integrity, events, appLogger),
		Tokens:      auth.NewTokenManager(cfg.JWTSecret, cfg.JWTTTL, cfg.ServiceName),
		Sessions:    sessions,
		Images:      images,
		Mailer:      welcome,
		Metrics:     metricsManager,
		Logger:      appLogger,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      35 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	go func() {
		appLogger.Info("Starting HTTP server", zap.String("port", cfg.HTTPPort))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			appLogger.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	metricsSrv := metrics.NewMetricsServer(cfg.PrometheusMetricsPort, appLogger, metricsManager)
	if metricsSrv != nil {
		go func() {
			if err := metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				appLogger.Error("Prometheus metrics server failed", zap.Error(err))
			}
		}()
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	appLogger.Info("Received shutdown signal", zap.String("signal", sig.String()))

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		appLogger.Error("HTTP server shutdown failed", zap.Error(err))
	}
	if metricsSrv != nil {
		if err := metricsSrv.Shutdown(ctx); err != nil {
			appLogger.Error("Metrics server shutdown failed", zap.Error(err))
		}
	}
	appLogger.Info("Application shutting down...")
}

// openStore returns the configured document store and its cleanup.
func openStore(cfg *config.Config, appLogger *logger.Logger) (domain.DocumentStore, func(), error) {
	if cfg.StoreDriver == config.StoreDriverMemory {
		appLogger.Warn("Using the in-memory store, data is lost on restart")
		return memory.NewStore(appLogger), func() {}, nil
	}

	client, err := mongoRepo.Connect(context.Background(), cfg.MongoURI, cfg.MongoTimeout, appLogger)
	if err != nil {
		return nil, nil, err
	}
	closeFn := func() {
		appLogger.Info("Disconnecting from MongoDB...")
		if err := client.Disconnect(context.Background()); err != nil {
			appLogger.Error("Error disconnecting from MongoDB", zap.Error(err))
		}
	}
	store, err := mongoRepo.NewStore(client.Database(cfg.MongoDatabase), appLogger)
	if err != nil {
		closeFn()
		return nil, nil, err
	}
	return store, closeFn, nil
}
