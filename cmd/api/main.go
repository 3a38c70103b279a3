package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
	_ "time/tzdata"

	"github.com/dafibh/loandesk/loandesk-backend/internal/config"
	"github.com/dafibh/loandesk/loandesk-backend/internal/domain"
	"github.com/dafibh/loandesk/loandesk-backend/internal/handler"
	"github.com/dafibh/loandesk/loandesk-backend/internal/middleware"
	"github.com/dafibh/loandesk/loandesk-backend/internal/repository/postgres"
	"github.com/dafibh/loandesk/loandesk-backend/internal/service"
	"github.com/dafibh/loandesk/loandesk-backend/internal/upstream"
	"github.com/dafibh/loandesk/loandesk-backend/internal/websocket"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// @title Loandesk API
// @version 1.0
// @description Collections back office for the STL and LRA loan products
// @BasePath /api/v1
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	// Initialize zerolog
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	if os.Getenv("ENV") != "production" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	// Connect to database
	pool, err := pgxpool.New(context.Background(), cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer pool.Close()

	// Verify database connection
	if err := pool.Ping(context.Background()); err != nil {
		log.Fatal().Err(err).Msg("Failed to ping database")
	}
	log.Info().Msg("Connected to database")

	// Initialize repositories and the loan API client
	attemptRepo := postgres.NewCollectionAttemptRepository(pool)
	loanAPI := upstream.NewClient(cfg.Upstream.BaseURL,
		upstream.WithAPIToken(cfg.Upstream.APIToken),
		upstream.WithTimeout(cfg.Upstream.Timeout),
		upstream.WithLocation(cfg.Policy.Location),
	)

	clock := domain.SystemClock{}
	policy := service.PenaltyPolicy{
		DailyRate: cfg.Policy.PenaltyDailyRate,
		Location:  cfg.Policy.Location,
	}

	// WebSocket hub publishes collection events to connected staff
	hub := websocket.NewHub()

	// Initialize services
	accountStore := service.NewAccountStore(loanAPI, clock, cfg.Policy.AccountCacheTTL)
	calculatorService := service.NewCalculatorService(service.CalculatorConfig{
		PublicRatePercent: cfg.Policy.PublicCalculatorRate,
		FileChargeRate:    cfg.Policy.FileChargeRate,
		Location:          cfg.Policy.Location,
	}, clock)
	customerService := service.NewCustomerService(accountStore, clock, policy)
	overdueService := service.NewOverdueService(loanAPI, clock, policy)
	collector := service.NewPaymentCollector(loanAPI, attemptRepo, accountStore, clock, policy)
	collector.SetEventPublisher(hub)

	// Journal worker expires unconfirmed collections and purges old ones
	journalWorker := service.NewJournalWorker(attemptRepo, accountStore, clock, log.Logger, service.JournalWorkerConfig{
		Interval:   cfg.Journal.SweepInterval,
		StaleAfter: cfg.Journal.StaleAfter,
		Retention:  cfg.Journal.Retention,
	})
	journalWorker.SetEventPublisher(hub)

	workerCtx, cancelWorkers := context.WithCancel(context.Background())
	defer cancelWorkers()
	journalWorker.Start(workerCtx)

	// Initialize auth
	authMiddleware, err := middleware.NewAuthMiddleware(cfg.Auth0Domain, cfg.Auth0Audience)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create auth middleware")
	}
	wsValidator, err := websocket.NewAuth0JWTValidator(cfg.Auth0Domain, cfg.Auth0Audience)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create WebSocket token validator")
	}

	collectLimiter := middleware.NewRateLimiterWithConfig(cfg.CollectRatePerMinute, cfg.CollectBurst)
	defer collectLimiter.Stop()

	// Initialize handlers
	handlers := handler.Handlers{
		Calculator: handler.NewCalculatorHandler(calculatorService),
		Customer:   handler.NewCustomerHandler(customerService),
		Collection: handler.NewCollectionHandler(collector),
		Overdue:    handler.NewOverdueHandler(overdueService),
		WebSocket:  handler.NewWebSocketHandler(hub, wsValidator, cfg.CORSOrigins),
	}

	// Create Echo instance
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.JSONSerializer = handler.JSONSerializer{}

	// Request ID middleware
	e.Use(echomiddleware.RequestID())

	// CORS middleware
	e.Use(echomiddleware.CORSWithConfig(echomiddleware.CORSConfig{
		AllowOrigins:     cfg.CORSOrigins,
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowHeaders:     []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization, handler.IdempotencyKeyHeader},
		ExposeHeaders:    []string{handler.IdempotencyKeyHeader, echo.HeaderXRequestID},
		AllowCredentials: true,
		MaxAge:           86400,
	}))

	// Security headers middleware (helmet-like)
	e.Use(echomiddleware.SecureWithConfig(echomiddleware.SecureConfig{
		XSSProtection:         "1; mode=block",
		ContentTypeNosniff:    "nosniff",
		XFrameOptions:         "DENY",
		HSTSMaxAge:            31536000,
		ContentSecurityPolicy: "default-src 'self'",
		ReferrerPolicy:        "strict-origin-when-cross-origin",
	}))

	// Request logging middleware with zerolog
	e.Use(middleware.RequestLogger())

	// Recovery middleware
	e.Use(echomiddleware.Recover())

	// Health check endpoint
	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})

	// Register API routes
	handler.RegisterRoutes(e, authMiddleware, collectLimiter, handlers, handler.DefaultServers)

	// Start server in goroutine
	go func() {
		log.Info().Str("port", cfg.Port).Str("upstream", cfg.Upstream.BaseURL).Msg("Starting server")
		if err := e.Start(":" + cfg.Port); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server failed")
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	journalWorker.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := e.Shutdown(ctx); err != nil {
		log.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exited")
}
