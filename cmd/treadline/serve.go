package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/DukeRupert/treadline/internal"
	"github.com/DukeRupert/treadline/internal/api"
	"github.com/DukeRupert/treadline/internal/api/mock"
	"github.com/DukeRupert/treadline/internal/authgate"
	"github.com/DukeRupert/treadline/internal/clock"
	"github.com/DukeRupert/treadline/internal/csrf"
	"github.com/DukeRupert/treadline/internal/handler"
	"github.com/DukeRupert/treadline/internal/live"
	"github.com/DukeRupert/treadline/internal/metrics"
	"github.com/DukeRupert/treadline/internal/middleware"
	"github.com/DukeRupert/treadline/internal/screens"
	"github.com/DukeRupert/treadline/internal/session"
	"github.com/DukeRupert/treadline/internal/worker"
	"github.com/DukeRupert/treadline/web"
)

// liveConnectsPerMinute caps websocket connects per client IP.
const liveConnectsPerMinute = 120

type serveOptions struct {
	templatesDir string
}

func serveCmd() *cobra.Command {
	var opts serveOptions

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the dashboard HTTP server",
		Long: `Run the dashboard HTTP server.

Configuration comes from the environment (and a .env file when present).
In development without API_BASE_URL an in-process demo backend is used;
sign in as ` + mock.DemoEmail + ` / ` + mock.DemoPassword + `.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(opts)
		},
	}

	cmd.Flags().StringVar(&opts.templatesDir, "templates-dir", "",
		"Read page templates from this directory and reload them on every request")

	return cmd
}

func runServe(opts serveOptions) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Load configuration
	cfg, err := internal.NewConfig()
	if err != nil {
		return fmt.Errorf("config initialization failed: %w", err)
	}

	// Configure logger
	logger := internal.NewLogger(os.Stdout, cfg.Env, cfg.LogLevel)
	slog.SetDefault(logger)

	reg, err := screens.Load(cfg.ScreensFile)
	if err != nil {
		return fmt.Errorf("screens initialization failed: %w", err)
	}
	logger.Info("Screens loaded", "count", len(reg.All()))

	backend, err := newBackend(cfg, logger)
	if err != nil {
		return err
	}

	// Session store, plus the sweep worker for server-side stores
	isSecure := !cfg.IsDevelopment()
	sessions, sweeper, closeStore, err := newSessionProvider(ctx, cfg, isSecure, logger)
	if err != nil {
		return err
	}
	defer closeStore()

	if sweeper != nil {
		w, err := worker.New(worker.DefaultConfig(), logger)
		if err != nil {
			return fmt.Errorf("worker initialization failed: %w", err)
		}
		if err := w.Register(sweeper, cfg.SessionSweepInterval); err != nil {
			return fmt.Errorf("worker registration failed: %w", err)
		}
		w.Start(ctx)
		defer w.Stop()
	}

	// Initialize template renderer
	renderer, err := handler.NewRenderer(handler.RendererConfig{
		FS:           web.Templates(),
		TemplatesDir: opts.templatesDir,
		Logger:       logger,
	})
	if err != nil {
		return fmt.Errorf("renderer initialization failed: %w", err)
	}
	logger.Info("Templates loaded", "count", len(renderer.ListTemplates()))

	// Initialize middleware
	gate := authgate.New(authgate.DefaultSignInPath, logger)
	protector := csrf.New(isSecure, logger)
	loginLimiter := middleware.NewLoginLimiter(cfg.LoginRateLimit, cfg.LoginRateWindow, clock.Real(), logger)
	metricsAuth := middleware.NewBasicAuth("treadline metrics", cfg.MetricsUsername, cfg.MetricsPassword)
	if !metricsAuth.Enabled() {
		logger.Warn("METRICS_USERNAME and METRICS_PASSWORD are not set; /metrics is unprotected")
	}

	// Every page needs a CSRF token in its context and the gate's session.
	pages := middleware.Stack(protector.Protect, gate.Middleware(sessions))

	// Initialize handlers
	authHandler := handler.NewAuthHandler(backend, renderer, loginLimiter, logger)
	dashboardHandler := handler.NewDashboardHandler(backend, reg, renderer, logger)
	listHandler := handler.NewListHandler(backend, reg, renderer, logger)
	liveHandler := live.NewHandler(live.Config{
		Backend:     backend,
		Screens:     reg,
		Sessions:    sessions,
		Gate:        gate,
		SearchDelay: cfg.SearchDebounce,
		Logger:      logger,
	})

	// ==========================================================================
	// Create router and register routes
	// ==========================================================================

	mux := http.NewServeMux()

	// Static files
	mux.Handle("GET /static/", http.StripPrefix("/static/", http.FileServerFS(web.Static())))

	// Health check
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})

	// Metrics
	mux.Handle("GET /metrics", metricsAuth.Handler(promhttp.Handler()))

	// Dashboard
	mux.Handle("GET /{$}", pages(http.HandlerFunc(dashboardHandler.Root)))
	mux.Handle("GET /dashboard", pages(http.HandlerFunc(dashboardHandler.Show)))

	// Sign-in and list screens
	authHandler.RegisterRoutes(mux, pages)
	listHandler.RegisterRoutes(mux, pages)

	// Live list sessions run the gate themselves on every message. Connects
	// are limited per client so a reconnect loop cannot hammer the backend.
	liveConnects := middleware.NewRateLimiter(liveConnectsPerMinute, time.Minute, clock.Real())
	mux.Handle("GET /live/{screen}", middleware.Stack(
		middleware.RateLimit(liveConnects, logger, nil),
		protector.Protect,
	)(liveHandler))

	// Fallback 404 for anything unmatched
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		handler.NotFoundResponse(w, r, logger)
	})

	root := middleware.Stack(
		middleware.NewRequestLoggingMiddleware(logger).Handler,
		metrics.Middleware,
		middleware.NewSecurityHeadersMiddleware(isSecure).Handler,
	)(mux)

	// ==========================================================================
	// Start server
	// ==========================================================================

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           root,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Server started", "address", server.Addr, "env", cfg.Env, "demo_backend", cfg.UseDemoBackend())
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}
	logger.Info("Shutdown signal received, initiating graceful shutdown...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server shutdown error", "error", err)
	}

	logger.Info("Graceful shutdown complete")
	return nil
}

// newBackend returns the REST client, or the seeded demo backend in
// development without API_BASE_URL.
func newBackend(cfg *internal.Config, logger *slog.Logger) (api.Backend, error) {
	if cfg.UseDemoBackend() {
		b := mock.New(logger)
		b.Latency = 150 * time.Millisecond
		mock.Seed(b, time.Now())
		logger.Warn("API_BASE_URL not set; using the in-process demo backend", "email", mock.DemoEmail)
		return b, nil
	}

	client, err := api.New(api.Config{BaseURL: cfg.APIBaseURL, Timeout: cfg.APITimeout}, logger)
	if err != nil {
		return nil, fmt.Errorf("api client initialization failed: %w", err)
	}
	return client, nil
}

// newSessionProvider builds the configured session store. Server-side
// stores also return the task that sweeps their expired slots.
func newSessionProvider(ctx context.Context, cfg *internal.Config, isSecure bool, logger *slog.Logger) (session.Provider, worker.Task, func(), error) {
	opts := session.Options{
		TokenTTL:   cfg.SessionTokenTTL,
		ProfileTTL: cfg.SessionProfileTTL,
		Secure:     isSecure,
		Logger:     logger,
	}
	noop := func() {}

	switch cfg.SessionStore {
	case internal.SessionStoreMemory:
		backend := session.NewMemoryBackend()
		logger.Info("Session store ready", "store", cfg.SessionStore)
		return session.NewKeyedProvider(backend, opts), session.NewSweepTask(backend, clock.Real(), logger), noop, nil

	case internal.SessionStorePostgres:
		db, err := sql.Open("pgx", cfg.DatabaseUrl)
		if err != nil {
			return nil, nil, noop, fmt.Errorf("database connection failed: %w", err)
		}
		if err := db.PingContext(ctx); err != nil {
			db.Close()
			return nil, nil, noop, fmt.Errorf("database ping failed: %w", err)
		}
		if err := internal.RunMigrations(ctx, db); err != nil {
			db.Close()
			return nil, nil, noop, fmt.Errorf("migration failed: %w", err)
		}
		backend := session.NewSQLBackend(db)
		logger.Info("Session store ready", "store", cfg.SessionStore)
		return session.NewKeyedProvider(backend, opts), session.NewSweepTask(backend, clock.Real(), logger), func() { db.Close() }, nil

	default:
		logger.Info("Session store ready", "store", cfg.SessionStore)
		return session.NewCookieProvider(opts), nil, noop, nil
	}
}
