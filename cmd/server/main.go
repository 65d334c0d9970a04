package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fixora/marketplace/application/port/inbound"
	"github.com/fixora/marketplace/application/port/outbound"
	"github.com/fixora/marketplace/application/usecase/auth"
	"github.com/fixora/marketplace/application/usecase/onboarding"
	"github.com/fixora/marketplace/infrastructure/adapter/postgres"
	"github.com/fixora/marketplace/infrastructure/config"
	httpserver "github.com/fixora/marketplace/infrastructure/http"
	"github.com/fixora/marketplace/infrastructure/http/handler"
	"github.com/fixora/marketplace/infrastructure/http/middleware"
	"github.com/fixora/marketplace/infrastructure/http/validator"
	"github.com/fixora/marketplace/infrastructure/service/audit"
	"github.com/fixora/marketplace/infrastructure/service/csrf"
	"github.com/fixora/marketplace/infrastructure/service/jwt"
	"github.com/fixora/marketplace/infrastructure/service/logger"
	"github.com/fixora/marketplace/infrastructure/service/metrics"
	"github.com/fixora/marketplace/infrastructure/service/password"
	"github.com/fixora/marketplace/infrastructure/service/ratelimit"
)

const (
	bcryptCost      = 10
	shutdownTimeout = 30 * time.Second
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	structuredLogger := logger.NewStructuredLogger(logger.LoggerConfig{
		Level:       cfg.LogLevel,
		Format:      cfg.LogFormat,
		ServiceName: "marketplace",
	})
	structuredLogger.Info(ctx, "Application starting", map[string]interface{}{
		"env": cfg.Environment,
	})

	db, err := postgres.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		structuredLogger.Error(ctx, "Failed to connect to database", err, nil)
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()
	structuredLogger.Info(ctx, "Database connection established", nil)

	m := metrics.New()
	rateLimiter, closeRateLimiter := newRateLimiter(ctx, cfg, structuredLogger)

	// Repositories and services
	userRepo := postgres.NewUserRepositoryAdapter(db)
	auditSink := audit.NewSink(postgres.NewAuditRepositoryAdapter(db), structuredLogger, m, audit.Options{
		BufferSize: cfg.AuditBufferSize,
		Workers:    cfg.AuditWorkers,
	})

	tokenService, err := jwt.NewJWTService(cfg.JWTSecret, cfg.AccessTokenTTL)
	if err != nil {
		log.Fatalf("Failed to initialize JWT service: %v", err)
	}
	passwordService := password.NewBcryptPasswordService(bcryptCost)
	csrfService := csrf.NewCsrfService(csrf.Config{
		CookieName: cfg.CSRFCookieName,
		HeaderName: cfg.CSRFHeaderName,
		Secure:     cfg.CSRFCookieSecure,
		TTL:        cfg.CSRFCookieTTL,
	})

	// Use cases
	loginUseCase := auth.NewLoginUseCase(userRepo, tokenService, passwordService, auditSink, structuredLogger)
	transitionUseCase := onboarding.NewTransitionUseCase(
		postgres.NewOnboardingStore(db),
		onboarding.NewSlugAllocator(0),
		auditSink,
		structuredLogger,
		onboarding.WithMaxConflictRetries(cfg.OnboardingMaxConflictRetries),
	)

	clientIP, err := middleware.NewClientIPResolver(cfg.TrustedProxies)
	if err != nil {
		log.Fatalf("Failed to parse trusted proxies: %v", err)
	}

	v := validator.New()
	router := httpserver.NewRouter(httpserver.RouterDeps{
		Logger:   structuredLogger,
		Metrics:  m,
		ClientIP: clientIP,
		Auth:     middleware.NewAuthMiddleware(tokenService, structuredLogger),
		Pipeline: middleware.NewPipeline(
			middleware.NewCSRFMiddleware(csrfService, m, structuredLogger),
			middleware.NewRateLimitMiddleware(rateLimiter, m, structuredLogger),
		),
		CsrfHandler:         handler.NewCsrfHandler(csrfService, structuredLogger),
		AuthHandler:         handler.NewAuthHandler(loginUseCase, v),
		OnboardingHandler:   handler.NewOnboardingHandler(transitionUseCase, v, m),
		LoginRateLimit:      cfg.LoginRateLimit,
		OnboardingRateLimit: cfg.OnboardingRateLimit,
	})

	var h http.Handler = router
	if cfg.CORSEnabled && len(cfg.CORSAllowedOrigins) > 0 {
		h = middleware.CORSMiddleware(h, cfg.CORSAllowedOrigins, cfg.CORSAllowCredentials, cfg.CSRFHeaderName)
	}

	server := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      h,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	structuredLogger.Info(ctx, "Starting server", map[string]interface{}{
		"addr": server.Addr,
	})
	serveErr := serve(ctx, server, shutdownTimeout, structuredLogger)

	drainCtx, drainCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer drainCancel()
	if err := auditSink.Close(drainCtx); err != nil {
		structuredLogger.Error(ctx, "Audit sink did not drain before shutdown", err, nil)
	}
	if err := closeRateLimiter(); err != nil {
		structuredLogger.Error(ctx, "Failed to close rate limit store", err, nil)
	}
	if serveErr != nil {
		structuredLogger.Error(ctx, "Server failed", serveErr, map[string]interface{}{
			"addr": server.Addr,
		})
		db.Close()
		os.Exit(1)
	}
	structuredLogger.Info(ctx, "Server exited", nil)
}

// serve runs srv until ctx is cancelled or ListenAndServe fails, then shuts it
// down. A nil return means a clean shutdown.
func serve(ctx context.Context, srv *http.Server, timeout time.Duration, log logger.Logger) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	var serveErr error
	select {
	case <-ctx.Done():
		log.Info(ctx, "Shutting down server...", nil)
	case serveErr = <-errCh:
		if errors.Is(serveErr, http.ErrServerClosed) {
			serveErr = nil
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error(ctx, "Server forced to shutdown", err, nil)
		if serveErr == nil {
			serveErr = err
		}
	}
	return serveErr
}

// newRateLimiter picks the bucket store from config. A Redis backend that
// cannot be reached falls back to the in-process store. The returned func
// releases the store's connections.
func newRateLimiter(ctx context.Context, cfg *config.Config, log logger.Logger) (inbound.RateLimiter, func() error) {
	noClose := func() error { return nil }
	if !cfg.RateLimitEnabled {
		log.Info(ctx, "Rate limiting disabled", nil)
		return ratelimit.NewNoopRateLimitService(), noClose
	}

	var store outbound.BucketStore
	closeStore := noClose
	if cfg.RateLimitBackend == config.RateLimitBackendRedis {
		client, err := ratelimit.OpenRedis(ctx, cfg.RedisURL)
		if err != nil {
			log.Error(ctx, "Failed to connect to Redis, using in-memory rate limit store", err, nil)
		} else {
			store = ratelimit.NewRedisStore(client, "")
			closeStore = client.Close
		}
	}
	if store == nil {
		mem := ratelimit.NewMemoryStore(ratelimit.WithMaxBuckets(cfg.RateLimitMaxBuckets))
		mem.StartJanitor(ctx, cfg.RateLimitSweepInterval)
		store = mem
	}

	log.Info(ctx, "Rate limiting service initialized", map[string]interface{}{
		"backend": cfg.RateLimitBackend,
	})
	return ratelimit.NewRateLimitService(store, log), closeStore
}
