package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	importapp "github.com/ChenZongYanLive/OrderManagementSystem/internal/application/import"
	orderapp "github.com/ChenZongYanLive/OrderManagementSystem/internal/application/order"
	"github.com/ChenZongYanLive/OrderManagementSystem/internal/infrastructure/cache"
	"github.com/ChenZongYanLive/OrderManagementSystem/internal/infrastructure/config"
	"github.com/ChenZongYanLive/OrderManagementSystem/internal/infrastructure/event"
	"github.com/ChenZongYanLive/OrderManagementSystem/internal/infrastructure/logger"
	"github.com/ChenZongYanLive/OrderManagementSystem/internal/infrastructure/persistence"
	"github.com/ChenZongYanLive/OrderManagementSystem/internal/infrastructure/storage"
	"github.com/ChenZongYanLive/OrderManagementSystem/internal/infrastructure/tabular"
	"github.com/ChenZongYanLive/OrderManagementSystem/internal/infrastructure/telemetry"
	"github.com/ChenZongYanLive/OrderManagementSystem/internal/interfaces/http/handler"
	"github.com/ChenZongYanLive/OrderManagementSystem/internal/interfaces/http/middleware"
	"github.com/ChenZongYanLive/OrderManagementSystem/internal/interfaces/http/router"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// version is set at build time with -ldflags "-X main.version=..."
var version = "dev"

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	log, err := logger.New(&logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		TimeFormat: "2006-01-02T15:04:05.000Z07:00",
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = log.Sync()
	}()

	ctx := context.Background()

	// Telemetry providers. Each is a no-op when telemetry is disabled.
	telemetryCfg := telemetry.ConfigFrom(cfg.Telemetry)
	tracerProvider, err := telemetry.NewTracerProvider(ctx, telemetryCfg, log)
	if err != nil {
		log.Fatal("Failed to initialize tracer provider", zap.Error(err))
	}
	meterProvider, err := telemetry.NewMeterProvider(ctx, telemetry.MetricsConfigFrom(telemetryCfg), log)
	if err != nil {
		log.Fatal("Failed to initialize meter provider", zap.Error(err))
	}
	loggerProvider, err := telemetry.NewLoggerProvider(ctx, telemetry.LogsConfigFrom(telemetryCfg), log)
	if err != nil {
		log.Fatal("Failed to initialize logger provider", zap.Error(err))
	}
	log = loggerProvider.Bridge(log, zapcore.InfoLevel)
	defer shutdownTelemetry(log, tracerProvider, meterProvider, loggerProvider)

	log.Info("Starting order service",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
		zap.String("version", version),
		zap.Bool("telemetry", cfg.Telemetry.Enabled),
	)

	gormLog := logger.NewGormLogger(log, logger.MapGormLogLevel(cfg.Log.Level),
		logger.WithSlowThreshold(cfg.Telemetry.DBSlowQueryThresh),
		logger.WithFullSQL(cfg.Telemetry.DBLogFullSQL))
	db, err := persistence.NewDatabaseWithCustomLogger(&cfg.Database, gormLog)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	if err := telemetry.NewDBTracingPlugin(telemetry.DBTracingConfigFrom(cfg.Telemetry), log).RegisterOtelGorm(db.DB); err != nil {
		log.Fatal("Failed to register database tracing", zap.Error(err))
	}
	sqlDB, err := db.DB.DB()
	if err != nil {
		log.Fatal("Failed to access database handle", zap.Error(err))
	}
	log.Info("Database connected successfully")

	// Repositories
	orderRepo := persistence.NewGormOrderRepository(db.DB)
	templateRepo := persistence.NewGormTemplateRepository(db.DB)
	importLogRepo := persistence.NewGormImportLogRepository(db.DB)

	templateCache, closeCache, err := cache.NewTemplateCacheFactory(cfg.Redis,
		cache.WithLogger(log),
		cache.WithInMemoryFallback(!cfg.App.IsProduction()),
	).CreateCache()
	if err != nil {
		log.Fatal("Failed to initialize template cache", zap.Error(err))
	}
	defer func() {
		if err := closeCache(); err != nil {
			log.Error("Error closing template cache", zap.Error(err))
		}
	}()

	// Domain events. Import events are forwarded to Kafka when enabled.
	eventBus := event.NewInMemoryEventBus(log)
	if cfg.Kafka.Enabled {
		producer, err := event.NewSyncProducer(cfg.Kafka)
		if err != nil {
			log.Fatal("Failed to connect to Kafka", zap.Error(err), zap.Strings("brokers", cfg.Kafka.Brokers))
		}
		forwarder := event.NewKafkaForwarder(producer, cfg.Kafka.Topic, log)
		eventBus.Subscribe(forwarder)
		defer func() {
			if err := forwarder.Close(); err != nil {
				log.Error("Error closing Kafka producer", zap.Error(err))
			}
		}()
		log.Info("Kafka event forwarding enabled", zap.String("topic", cfg.Kafka.Topic))
	}

	importMetrics, err := telemetry.NewImportMetrics(meterProvider.Meter("order-service/import"))
	if err != nil {
		log.Fatal("Failed to create import metrics", zap.Error(err))
	}

	importOpts := []importapp.ImportServiceOption{
		importapp.WithImportLogger(log),
		importapp.WithMetrics(importMetrics),
		importapp.WithMaxReportedErrors(cfg.Import.MaxReportedErrors),
	}
	var sources importapp.SourceLinker
	if cfg.Storage.Enabled {
		archiver, err := storage.NewS3Archiver(&cfg.Storage, storage.WithLogger(log))
		if err != nil {
			log.Fatal("Failed to initialize source archive", zap.Error(err))
		}
		if err := archiver.EnsureBucket(ctx); err != nil {
			log.Fatal("Failed to prepare archive bucket", zap.Error(err), zap.String("bucket", archiver.Bucket()))
		}
		importOpts = append(importOpts, importapp.WithArchiver(archiver))
		sources = archiver
		log.Info("Source file archiving enabled", zap.String("bucket", archiver.Bucket()))
	}

	if err := os.MkdirAll(cfg.Import.UploadDir, 0o750); err != nil {
		log.Fatal("Failed to create upload directory", zap.Error(err), zap.String("dir", cfg.Import.UploadDir))
	}

	// Application services
	decoder := tabular.NewDecoder()
	orderService := orderapp.NewOrderService(orderRepo, log)
	templateService := importapp.NewTemplateService(templateRepo, templateCache, log)
	importService := importapp.NewImportService(decoder, orderRepo, importLogRepo, eventBus, importOpts...)
	previewService := importapp.NewPreviewService(decoder, templateService, log)
	importLogService := importapp.NewImportLogService(importLogRepo, sources)

	if cfg.App.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	middleware.SetupValidator()

	engine := gin.New()
	if len(cfg.HTTP.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
			log.Warn("Failed to set trusted proxies", zap.Error(err))
		}
	}

	// RequestID runs first; tracing and logging read it.
	engine.Use(middleware.RequestID())
	engine.Use(middleware.TracingWithConfig(middleware.TracingConfig{
		ServiceName: cfg.Telemetry.ServiceName,
		Enabled:     cfg.Telemetry.Enabled,
	}))
	engine.Use(middleware.SpanEnricher())
	engine.Use(logger.Recovery(log))
	engine.Use(logger.GinMiddleware(log))
	engine.Use(middleware.HTTPMetrics(meterProvider))
	engine.Use(middleware.Secure(cfg.HTTP.HSTSMaxAge))

	corsConfig := middleware.DefaultCORSConfig()
	corsConfig.AllowOrigins = cfg.HTTP.CORSAllowOrigins
	if len(cfg.HTTP.CORSAllowMethods) > 0 {
		corsConfig.AllowMethods = cfg.HTTP.CORSAllowMethods
	}
	if len(cfg.HTTP.CORSAllowHeaders) > 0 {
		corsConfig.AllowHeaders = cfg.HTTP.CORSAllowHeaders
	}
	engine.Use(middleware.CORSWithConfig(corsConfig))
	engine.Use(middleware.BodyLimit(cfg.HTTP.MaxBodySize))

	r := router.NewRouter(engine, router.WithAPIVersion("v1"))
	r.RegisterAll(router.Handlers{
		System:       handler.NewSystemHandler(cfg.App.Name, version, sqlDB),
		Orders:       handler.NewOrderHandler(orderService),
		FieldMapping: handler.NewFieldMappingHandler(templateService),
		Import: handler.NewImportHandler(importService, previewService, templateService, importLogService, handler.UploadConfig{
			Dir:         cfg.Import.UploadDir,
			MaxFileSize: cfg.Import.MaxFileSize,
			PreviewRows: cfg.Import.PreviewRows,
		}),
	}).Setup()
	log.Info("Routes registered", zap.Int("count", len(r.Routes())))

	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	go func() {
		log.Info("HTTP server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}

	log.Info("Server exited gracefully")
}

type shutdowner interface {
	Shutdown(ctx context.Context) error
}

// shutdownTelemetry flushes pending spans, metrics and logs.
func shutdownTelemetry(log *zap.Logger, providers ...shutdowner) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	for _, p := range providers {
		if err := p.Shutdown(ctx); err != nil {
			log.Error("Error shutting down telemetry provider", zap.Error(err))
		}
	}
}
