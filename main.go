package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"

	"github.com/relaypay/billing-reconciler/billing"
	tracerConfig "github.com/relaypay/billing-reconciler/config"
	"github.com/relaypay/billing-reconciler/config/database"
	"github.com/relaypay/billing-reconciler/config/redis"
	"github.com/relaypay/billing-reconciler/models"
	"github.com/relaypay/billing-reconciler/processors"
	"github.com/relaypay/billing-reconciler/server"
	"github.com/relaypay/billing-reconciler/utils"
)

const (
	envEnv                      = "ENV"
	envSentryDsn                = "SENTRY_DSN"
	envOtelExporterOtlpEndpoint = "OTEL_EXPORTER_OTLP_ENDPOINT"
	envOtelInsecure             = "OTEL_INSECURE"
	envOtelServiceName          = "OTEL_SERVICE_NAME"

	envPort        = "PORT"
	envCorsOrigins = "CORS_ORIGINS"

	envDatabaseURL      = "DATABASE_URL"
	envDatabaseMaxConns = "DATABASE_MAX_CONNECTIONS"

	envRedisURL      = "REDIS_URL"
	envRedisPassword = "REDIS_PASSWORD"
	envRedisDB       = "REDIS_DB"
	envRedisTLS      = "REDIS_TLS"

	envStripeAPIKey        = "STRIPE_API_KEY"
	envStripeWebhookSecret = "STRIPE_WEBHOOK_SECRET"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil)).
		With("service", "billing_reconciler")
	slog.SetDefault(logger)

	setupGracefulShutdown(cancel, logger)

	otelEndpoint := os.Getenv(envOtelExporterOtlpEndpoint)
	if otelEndpoint != "" {
		telemetryCfg := tracerConfig.TracerConfig{
			ServiceName: utils.GetEnv(envOtelServiceName, "billing_reconciler"),
			EndpointURL: otelEndpoint,
			Insecure:    utils.GetEnvAsBool(envOtelInsecure, false),
		}
		shutdownTracer, err := tracerConfig.InitOTLPTracer(telemetryCfg)
		if err != nil {
			logger.Error("Error initializing the tracer", slog.String("error", err.Error()))
			panic(err.Error())
		}
		defer shutdownTracer(context.Background())
	}

	err := sentry.Init(sentry.ClientOptions{
		Dsn:              os.Getenv(envSentryDsn),
		Environment:      os.Getenv(envEnv),
		Debug:            false,
		AttachStacktrace: true,
	})
	if err != nil {
		fmt.Printf("Sentry initialization failed: %v\n", err)
	}
	defer sentry.Flush(2 * time.Second)

	maxConns, err := utils.GetEnvAsInt(envDatabaseMaxConns, 20)
	if err != nil {
		logger.Error("Error converting max connections into integer", slog.String("error", err.Error()))
		utils.CaptureError(err)
		panic(err.Error())
	}

	db, err := database.NewConnection(ctx, database.DBConfig{
		Url:      os.Getenv(envDatabaseURL),
		MaxConns: int32(maxConns),
	})
	if err != nil {
		logger.Error("Error connecting to the database", slog.String("error", err.Error()))
		utils.CaptureError(err)
		panic(err.Error())
	}
	defer db.Close()
	store := models.NewBillingStore(db)

	cache, err := initEntitlementCache(ctx, otelEndpoint != "")
	if err != nil {
		logger.Error("Error connecting to the entitlement cache", slog.String("error", err.Error()))
		utils.CaptureError(err)
		panic(err.Error())
	}
	defer cache.CacheStore.Close()

	stripeClient := billing.NewStripeClient(billing.StripeConfig{
		APIKey:        os.Getenv(envStripeAPIKey),
		WebhookSecret: os.Getenv(envStripeWebhookSecret),
	}, logger)

	reconciler := processors.NewWebhookReconciler(logger, stripeClient, store, cache)
	entitlements := processors.NewEntitlementService(logger, store, cache)
	signup := processors.NewSignupService(logger, store, stripeClient)

	port, err := utils.GetEnvAsInt(envPort, 8080)
	if err != nil {
		logger.Error("Error converting port into integer", slog.String("error", err.Error()))
		panic(err.Error())
	}

	srv := server.NewServer(
		server.Config{
			Port:        port,
			CORSOrigins: utils.ParseOriginsEnv(utils.GetEnv(envCorsOrigins, "http://localhost:3000")),
		},
		logger,
		server.NewWebhookHandler(logger, reconciler),
		server.NewAccountHandler(logger, signup, entitlements),
	)

	if err := srv.Run(ctx); err != nil {
		logger.Error("server exited with error", slog.String("error", err.Error()))
		utils.CaptureError(err)
		os.Exit(1)
	}
}

func initEntitlementCache(ctx context.Context, useTracer bool) (*models.EntitlementCache, error) {
	redisDB, err := utils.GetEnvAsInt(envRedisDB, 0)
	if err != nil {
		return nil, err
	}

	db, err := redis.NewRedisDB(ctx, redis.RedisConfig{
		Address:   os.Getenv(envRedisURL),
		Password:  os.Getenv(envRedisPassword),
		DB:        redisDB,
		UseTracer: useTracer,
		UseTLS:    utils.GetEnvAsBool(envRedisTLS, false),
	})
	if err != nil {
		return nil, err
	}

	cacheStore := models.NewCacheStore(ctx, db)
	var store models.Cacher = cacheStore
	return models.NewEntitlementCache(&store), nil
}

func setupGracefulShutdown(cancel context.CancelFunc, logger *slog.Logger) {
	signChan := make(chan os.Signal, 1)
	signal.Notify(signChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-signChan
		logger.Info("Received shutdown signal", slog.String("signal", sig.String()))
		cancel()
	}()
}
