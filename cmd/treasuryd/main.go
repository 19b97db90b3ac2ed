package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/nordvik/treasury-go/internal/config"
	"github.com/nordvik/treasury-go/internal/domain"
	"github.com/nordvik/treasury-go/internal/handler"
	"github.com/nordvik/treasury-go/internal/infra/cache"
	"github.com/nordvik/treasury-go/internal/infra/observability"
	"github.com/nordvik/treasury-go/internal/infra/resilience"
	"github.com/nordvik/treasury-go/internal/infra/supabase"
	"github.com/nordvik/treasury-go/internal/scheduler"
	"github.com/nordvik/treasury-go/internal/service"
)

func main() {
	// --- Load .env file (for local development) ---
	_ = config.LoadDotEnv(".env")

	// --- Config ---
	cfg := config.Load()

	// --- Logger ---
	logger := observability.NewLogger(cfg.LogLevel)
	defer logger.Sync()

	logger.Info("configuration loaded",
		zap.Int("port", cfg.Port),
		zap.String("log_level", cfg.LogLevel),
		zap.Duration("http_timeout", cfg.HTTPTimeout),
		zap.Duration("cache_ttl", cfg.CacheTTL),
		zap.Int("max_retries", cfg.MaxRetries),
		zap.Duration("initial_backoff", cfg.InitialBackoff),
		zap.String("generation_cron", cfg.GenerationCron),
		zap.Int("generation_months_ahead", cfg.GenerationMonthsAhead),
		zap.Duration("regenerate_throttle", cfg.RegenerateThrottle),
	)

	if cfg.SupabaseURL == "" {
		logger.Fatal("SUPABASE_URL is required")
	}

	// --- Tracing ---
	shutdown, err := observability.InitTracer(cfg.OTLPEndpoint, "treasury-go")
	if err != nil {
		logger.Fatal("failed to init tracer", zap.Error(err))
	}
	defer shutdown(context.Background())

	// --- Metrics ---
	metrics := observability.NewMetrics()

	// --- Caches & throttle ---
	dashboardCache := cache.New[*domain.Dashboard](cfg.CacheTTL)
	regenerateThrottle := cache.NewThrottle(cfg.RegenerateThrottle)

	// --- Resilience ---
	resilienceCfg := resilience.Config{
		MaxRetries:     cfg.MaxRetries,
		InitialBackoff: cfg.InitialBackoff,
		MaxConcurrency: cfg.MaxConcurrency,
	}
	cb := resilience.NewCircuitBreaker("supabase")

	// --- Store ---
	httpClient := &http.Client{Timeout: cfg.HTTPTimeout}
	store := supabase.NewClient(
		httpClient,
		cfg.SupabaseURL,
		cfg.SupabaseAnonKey,
		cfg.SupabaseServiceKey,
		cb,
		resilienceCfg,
		logger,
	)

	// --- Services ---
	clock := service.SystemClock{}
	generator := service.NewGenerator(store, store, clock, metrics, logger)
	recSvc := service.NewRecurrenceService(store, generator, regenerateThrottle, clock, logger)
	treasurySvc := service.NewTreasuryService(store, store, store, generator, logger)
	dashSvc := service.NewDashboardService(store, store, clock, dashboardCache, metrics, logger)
	authSvc := service.NewAuthService(store, clock, cfg.JWTSecret, cfg.JWTAccessTTL, cfg.JWTRefreshTTL, logger)

	// --- Scheduler ---
	sched := scheduler.New(generator, cfg.GenerationCron, cfg.GenerationMonthsAhead, logger)
	if err := sched.Start(); err != nil {
		logger.Fatal("failed to start scheduler", zap.Error(err))
	}
	defer sched.Stop()

	// --- Router ---
	router := handler.NewRouter(recSvc, treasurySvc, dashSvc, authSvc, metrics, logger)

	// --- Server ---
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// --- Graceful shutdown ---
	go func() {
		logger.Info("server starting", zap.Int("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("server shutting down...")
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Fatal("server forced shutdown", zap.Error(err))
	}

	logger.Info("server stopped")
}
