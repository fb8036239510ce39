package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"time"

	"sales-dashboard/internal/config"
	"sales-dashboard/internal/dataset"
	"sales-dashboard/internal/middleware"
	"sales-dashboard/internal/observability"
	"sales-dashboard/internal/server"
	"sales-dashboard/internal/services"
	"sales-dashboard/internal/ui/templates"
)

const (
	renderTimeout = 10 * time.Second
	version       = "1.0.0"
)

// dashboardHandler renders the page with the sidebar options of the loaded
// dataset. The page still renders when no data is loaded; its panels then
// show the load error.
func dashboardHandler(analytics *services.Analytics, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), renderTimeout)
		defer cancel()

		options, err := analytics.Options(ctx)
		if err != nil {
			logger.Warn("dashboard rendered without filter options", "error", err)
		}

		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Header().Set("Cache-Control", "no-cache")
		if err := templates.Dashboard(templates.DashboardProps{Options: options}).Render(ctx, w); err != nil {
			logger.Error("render dashboard", "error", err)
			http.Error(w, "render error", http.StatusInternalServerError)
		}
	}
}

func newHandler(cfg *config.Config, analytics *services.Analytics, logger *slog.Logger) http.Handler {
	templateHandlers := &server.TemplateHandlers{
		Dashboard: dashboardHandler(analytics, logger),
	}
	srv := server.NewServer(analytics, logger, templateHandlers)

	rateLimiter := middleware.NewRateLimiter(cfg.Security)

	middlewareChain := middleware.Chain(
		middleware.Recovery(logger),
		middleware.RequestID(),
		middleware.Tracing(),
		middleware.Logger(logger),
		middleware.SecurityHeaders(),
		middleware.CORS(cfg.Security),
		middleware.TrustedProxy(cfg.Security),
		middleware.RateLimit(rateLimiter, logger),
	)
	return middlewareChain(srv)
}

func dataPaths(cfg config.DataConfig) dataset.Paths {
	return dataset.Paths{
		Transactions: cfg.TransactionsFile,
		Products:     cfg.ProductsFile,
		Customers:    cfg.CustomersFile,
	}
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg.Logger)
	slog.SetDefault(logger)

	logger.Info("starting application",
		"version", version,
		"addr", cfg.Address(),
		"transactions_file", cfg.Data.TransactionsFile,
		"products_file", cfg.Data.ProductsFile,
		"customers_file", cfg.Data.CustomersFile,
	)

	shutdownTracing, err := observability.InitTracing(context.Background(), cfg.Tracing, logger)
	if err != nil {
		logger.Error("failed to initialize tracing", "error", err)
		os.Exit(1)
	}

	analytics := services.NewAnalytics(
		services.WithLogger(logger),
		services.WithCacheDir(cfg.Data.CacheDir),
		services.WithTopN(cfg.Data.TopN),
	)

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Data.LoadTimeout)
	start := time.Now()
	err = analytics.Load(ctx, dataPaths(cfg.Data))
	cancel()
	if err != nil {
		logger.Error("failed to load sales data", "error", err)
		os.Exit(1)
	}
	logger.Info("sales data loaded", "duration", time.Since(start))

	httpServer := &http.Server{
		Addr:         cfg.Address(),
		Handler:      newHandler(cfg, analytics, logger),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	gracefulServer := server.NewGracefulServer(httpServer, logger, cfg)

	gracefulServer.RegisterShutdownHook("analytics", func(ctx context.Context) error {
		logger.Info("shutting down analytics service", "stats", analytics.Stats())
		return nil
	})
	gracefulServer.RegisterShutdownHook("tracing", shutdownTracing)

	if err := gracefulServer.ListenAndServe(); err != nil {
		logger.Error("server failed", "error", err)
		os.Exit(1)
	}

	logger.Info("application stopped gracefully")
}
