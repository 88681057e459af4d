package main

import (
	"context"
	"errors"
	"net"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gofiber/contrib/otelfiber"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/swagger"
	_ "github.com/joho/godotenv/autoload"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"accreditdocs/docs"
	"accreditdocs/internal/auth"
	"accreditdocs/internal/cache"
	"accreditdocs/internal/config"
	"accreditdocs/internal/database"
	"accreditdocs/internal/database/migration"
	handlers "accreditdocs/internal/http/handler"
	"accreditdocs/internal/http/middleware"
	"accreditdocs/internal/logger"
	"accreditdocs/internal/otel"
	"accreditdocs/internal/repository/postgres"
	"accreditdocs/internal/service"
	"accreditdocs/internal/storage"
)

const shutdownTimeout = 10 * time.Second

// @title Accreditation Document API
// @version 1.0
// @description Document storage with owner-approved access requests.
// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and the JWT.
func main() {
	// Load configuration from environment variables (.env auto-loaded if present)
	cfg := config.Load()
	loc := cfg.Location()

	log, err := logger.New(cfg.LogLevel, loc)
	if err != nil {
		panic(err)
	}
	defer log.Sync()
	zap.ReplaceGlobals(log)

	if err := cfg.Validate(); err != nil {
		log.Fatal("invalid configuration", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := otel.Init(ctx, cfg.Tracing, log)
	if err != nil {
		log.Fatal("failed to initialize tracing", zap.Error(err))
	}

	db, err := database.NewPostgres(ctx, cfg.Database)
	if err != nil {
		log.Fatal("failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	if err := migration.EnsureMigrated(ctx, db, log, cfg.Database.Host); err != nil {
		log.Fatal("failed to migrate database", zap.Error(err))
	}

	objStore, err := storage.NewMinIO(ctx, cfg.MinIO)
	if err != nil {
		log.Fatal("failed to initialize object storage", zap.Error(err))
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	var statusCache *cache.StatusCache
	if rdb := cache.NewClient(ctx, cfg.Redis, log, reg); rdb != nil {
		defer rdb.Close()
		statusCache = cache.NewStatusCache(rdb, cfg.Redis.StatusTTL, log)
	}

	docRepo := postgres.NewDocumentPostgres(db)
	reqRepo := postgres.NewAccessRequestPostgres(db)

	ledger := service.NewLedgerService(docRepo, reqRepo, statusCache, service.LedgerOptions{
		MaxReasonLen:  cfg.Access.ReasonMaxLen,
		AdminOverride: cfg.Access.AdminOverride,
		Metrics:       service.NewLedgerMetrics(reg),
	})
	gate := service.NewGate(docRepo, ledger)
	docSvc := service.NewDocumentService(objStore, docRepo, gate, service.DocumentOptions{
		PresignExpiry: cfg.MinIO.PresignExpiry,
	})
	tokens := auth.NewTokens(cfg.Auth.JWTSecret, cfg.Auth.Issuer, cfg.Auth.TokenTTL)

	promMiddleware, err := middleware.NewPrometheusMiddleware(reg)
	if err != nil {
		log.Fatal("failed to register http metrics", zap.Error(err))
	}

	app := fiber.New(fiber.Config{
		ErrorHandler:          handlers.ErrorHandler(),
		DisableStartupMessage: true,
	})

	app.Use(otelfiber.Middleware(otelfiber.WithNext(func(c *fiber.Ctx) bool {
		return c.Path() == "/metrics" || c.Path() == "/healthz"
	})))
	app.Use(middleware.RequestID())
	app.Use(middleware.Logger(log))
	app.Use(promMiddleware.Handler())

	app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(reg, promhttp.HandlerOpts{})))

	handlers.RegisterRoutes(app, handlers.Deps{
		DB:        db,
		Documents: docSvc,
		Ledger:    ledger,
		Gate:      gate,
		Tokens:    tokens,
	})

	// Swagger UI with dynamic host and scheme
	app.Get("/swagger/*", func(c *fiber.Ctx) error {
		scheme := c.Protocol()
		if proto := c.Get("X-Forwarded-Proto"); proto != "" {
			scheme = strings.Split(proto, ",")[0]
		}

		docs.SwaggerInfo.Host = c.Get("Host")
		docs.SwaggerInfo.Schemes = []string{scheme}

		return swagger.HandlerDefault(c)
	})

	addr := net.JoinHostPort(cfg.AppHost, cfg.Port)
	errCh := make(chan error, 1)
	go func() {
		log.Info("server_started", zap.String("addr", addr))
		errCh <- app.Listen(addr)
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, net.ErrClosed) {
			log.Error("server stopped", zap.Error(err))
		}
	case <-ctx.Done():
		log.Info("shutdown_started")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error("http shutdown failed", zap.Error(err))
	}
	if err := shutdownTracing(shutdownCtx); err != nil {
		log.Error("tracing shutdown failed", zap.Error(err))
	}
	log.Info("shutdown_complete")
}
