package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	accessapp "github.com/quotedesk/backend/internal/application/access"
	documentapp "github.com/quotedesk/backend/internal/application/document"
	quoteapp "github.com/quotedesk/backend/internal/application/quote"
	"github.com/quotedesk/backend/internal/domain/access"
	"github.com/quotedesk/backend/internal/infrastructure/auth"
	"github.com/quotedesk/backend/internal/infrastructure/cache"
	"github.com/quotedesk/backend/internal/infrastructure/config"
	"github.com/quotedesk/backend/internal/infrastructure/logger"
	"github.com/quotedesk/backend/internal/infrastructure/persistence"
	"github.com/quotedesk/backend/internal/infrastructure/rendering"
	"github.com/quotedesk/backend/internal/interfaces/http/handler"
	"github.com/quotedesk/backend/internal/interfaces/http/middleware"
	"github.com/quotedesk/backend/internal/interfaces/http/router"
)

const version = "1.0.0"

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	// Initialize logger
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
		_ = logger.Sync(log)
	}()

	log.Info("Starting QuoteDesk backend",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

	// Create GORM logger backed by zap
	gormLog := logger.NewGormLogger(log, logger.MapGormLogLevel(cfg.Log.Level))

	// Initialize database connection
	db, err := persistence.NewDatabaseWithLogger(&cfg.Database, gormLog)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()

	if err := db.Migrate(); err != nil {
		log.Fatal("Failed to run migrations", zap.Error(err))
	}
	log.Info("Database connected and migrated")

	// Gateway backends: Redis when configured, in-memory otherwise
	backends := cache.NewGatewayBackends(cfg.Redis, log)
	defer func() {
		if err := backends.Close(); err != nil {
			log.Error("Error closing gateway backends", zap.Error(err))
		}
	}()

	// Initialize repositories
	quoteRepo := persistence.NewGormQuoteRepository(db.DB)
	clientRepo := persistence.NewGormClientRepository(db.DB)
	folioSequencer := persistence.NewGormFolioSequencer(db.DB)

	// Initialize application services
	quoteService := quoteapp.NewService(quoteRepo, folioSequencer, clientRepo)
	documentService := documentapp.NewService(
		quoteRepo,
		clientRepo,
		rendering.NewPDFRenderer(cfg.App.Name),
		cfg.Verification.BaseURL,
	)

	sessionService := auth.NewSessionService(cfg.Gateway.SessionSecret, cfg.App.Name, cfg.Gateway.SessionTTL)
	policy := access.NewDomainPolicy(
		append(append([]string{}, access.DefaultDeniedDomains...), cfg.Gateway.DeniedDomains...),
		cfg.Gateway.AllowedDomains,
	)
	gatewayService := accessapp.NewGatewayService(
		policy,
		clientRepo,
		backends.CredentialStore,
		backends.RateLimiter,
		sessionService,
		accessapp.Config{
			CredentialTTL:     cfg.Gateway.CredentialTTL,
			RateLimitAttempts: cfg.Gateway.RateLimitAttempts,
			RateLimitWindow:   cfg.Gateway.RateLimitWindow,
		},
	)

	// Set up the HTTP engine
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	middleware.SetupValidator()
	engine := gin.New()
	if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
		log.Fatal("Failed to set trusted proxies", zap.Error(err))
	}

	engine.Use(middleware.RequestID())
	engine.Use(logger.GinMiddleware(log))
	engine.Use(logger.Recovery(log))
	engine.Use(middleware.BodyLimit(cfg.HTTP.MaxBodySize))
	if cfg.HTTP.RateLimitEnabled {
		limiter := middleware.NewRateLimiter(cfg.HTTP.RateLimitRequests, cfg.HTTP.RateLimitWindow)
		engine.Use(middleware.RateLimit(limiter))
	}

	systemHandler := handler.NewSystemHandler(db, cfg.App.Name, version)
	engine.GET("/health", systemHandler.Health)
	engine.GET("/ready", systemHandler.Ready)

	cookieSecure := cfg.App.Env == "production"
	r := router.NewRouter(engine)
	r.RegisterAPI(handler.NewQuoteHandler(quoteService))
	r.RegisterPublic(handler.NewAccessHandler(gatewayService, cookieSecure))
	r.RegisterPublic(handler.NewVerificationHandler(quoteService))
	r.UsePortal(middleware.SessionAuth(gatewayService))
	r.RegisterPortal(handler.NewPortalHandler(quoteService, documentService))
	r.Setup()

	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("HTTP server error", zap.Error(err))
		}
	}()
	log.Info("HTTP server listening", zap.String("addr", srv.Addr))

	// Wait for shutdown signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error("Forced shutdown", zap.Error(err))
	}
	log.Info("Server stopped")
}
