package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/goccy/go-json"
	"github.com/gofiber/contrib/otelfiber"
	"github.com/gofiber/fiber/v2"
	_ "github.com/joho/godotenv/autoload"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"skinscan/internal/bootstrap"
	"skinscan/internal/classifier"
	"skinscan/internal/config"
	handlers "skinscan/internal/http/handler"
	"skinscan/internal/http/middleware"
	"skinscan/internal/identity"
	"skinscan/internal/logging"
	"skinscan/internal/metrics"
	"skinscan/internal/otel"
	"skinscan/internal/repository/kvstore"
	"skinscan/internal/service"
	"skinscan/internal/storage"
)

// @title Skin Scan API
// @version 1.0
// @BasePath /make-server-83197308
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	// Load configuration from environment variables (.env auto-loaded if present)
	cfg := config.Load()
	log := logging.New(os.Stdout, cfg.LogLevel, cfg.Location())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := otel.Init(ctx, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize tracing")
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = shutdownTracing(sctx)
	}()

	// Key-value backend selected by KV_BACKEND
	kvs, err := openStore(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Str("backend", cfg.KV.Backend).Msg("failed to open key-value store")
	}
	defer kvs.Close()

	objStore, err := storage.NewMinIO(cfg.MinIO)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize object storage")
	}
	fetcher := storage.NewHTTPFetcher(nil, cfg.MinIO.MaxUploadBytes, cfg.MinIO.FetchTimeout)

	idp, err := identity.NewClient(cfg.Identity, nil)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize identity provider client")
	}
	var authenticator identity.Authenticator = idp
	if cfg.Identity.JWTSecret != "" {
		authenticator = identity.NewJWTVerifier(cfg.Identity.JWTSecret)
	}

	if !cfg.Classifier.Enabled() {
		log.Warn().Msg("HUGGINGFACE_API_TOKEN not set; /analyze will answer 503")
	}
	cls := classifier.New(cfg.Classifier, nil, log)

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	pipelineMetrics, err := metrics.NewPipeline(reg)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to register pipeline metrics")
	}
	promMiddleware, err := middleware.NewPrometheusMiddleware(reg)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to register http metrics")
	}

	// Repositories and services
	profiles := kvstore.NewProfileStore(kvs.Store)
	scans := kvstore.NewScanStore(kvs.Store)

	userSvc := service.NewUserService(idp, profiles)
	imageSvc := service.NewImageService(objStore, service.ImageOptions{
		MaxBytes:     cfg.MinIO.MaxUploadBytes,
		SignedURLTTL: cfg.MinIO.SignedURLTTL,
		Timeout:      30 * time.Second,
	})
	analysisSvc := service.NewAnalysisService(fetcher, cls, service.AnalysisOptions{
		ClassifierEnabled: cfg.Classifier.Enabled(),
		ImageHosts:        cfg.MinIO.ImageHosts(),
	}, scans, pipelineMetrics, log)
	scanSvc := service.NewScanService(scans)

	bootstrap.Run(ctx, objStore, idp, profiles, cfg.Demo, log)

	app := fiber.New(fiber.Config{
		AppName:      "skinscan",
		ErrorHandler: handlers.ErrorHandler(),
		BodyLimit:    cfg.BodyLimit,
		JSONEncoder:  json.Marshal,
		JSONDecoder:  json.Unmarshal,
	})

	app.Use(otelfiber.Middleware())
	app.Use(middleware.RequestID())
	app.Use(middleware.Logger(log))
	app.Use(middleware.CORS())
	app.Use(promMiddleware.Handler())

	handlers.RegisterRoutes(app, handlers.Deps{
		Prefix:   cfg.APIPrefix,
		Auth:     authenticator,
		Users:    userSvc,
		Images:   imageSvc,
		Analysis: analysisSvc,
		Scans:    scanSvc,
		Ready:    kvs.Ping,
		Gatherer: reg,
		Log:      log,
	})

	go func() {
		<-ctx.Done()
		log.Info().Msg("shutting down")
		if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
			log.Error().Err(err).Msg("graceful shutdown failed")
		}
	}()

	addr := ":" + cfg.Port
	log.Info().Str("addr", addr).Str("prefix", cfg.APIPrefix).Str("kv_backend", cfg.KV.Backend).Msg("listening")
	if err := app.Listen(addr); err != nil {
		log.Fatal().Err(err).Msg("failed to start server")
	}
}
