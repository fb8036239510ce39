package server

import (
	"log/slog"
	"net/http"

	"sales-dashboard/internal/handlers"
	"sales-dashboard/internal/services"
)

type Server struct {
	analytics   *services.Analytics
	mux         *http.ServeMux
	logger      *slog.Logger
	apiHandlers *handlers.APIHandlers
	sseHandlers *handlers.SSEHandlers
}

type TemplateHandlers struct {
	Dashboard http.HandlerFunc
}

func NewServer(analytics *services.Analytics, logger *slog.Logger, templateHandlers *TemplateHandlers) *Server {
	s := &Server{
		analytics:   analytics,
		mux:         http.NewServeMux(),
		logger:      logger,
		apiHandlers: handlers.NewAPIHandlers(analytics, logger),
		sseHandlers: handlers.NewSSEHandlers(analytics, logger),
	}
	s.setupRoutes(templateHandlers)
	return s
}

func (s *Server) setupRoutes(templateHandlers *TemplateHandlers) {
	// Dashboard and operations
	s.mux.HandleFunc("GET /{$}", templateHandlers.Dashboard)
	s.mux.HandleFunc("GET /health", s.apiHandlers.HandleHealth)
	s.mux.HandleFunc("GET /admin/stats", s.apiHandlers.HandleStats)
	s.mux.HandleFunc("POST /admin/reload", s.apiHandlers.HandleReload)

	// REST API, filtered by query parameters
	s.mux.HandleFunc("GET /api/filters", s.apiHandlers.HandleFilters)
	s.mux.HandleFunc("GET /api/report", s.apiHandlers.HandleReport)
	s.mux.HandleFunc("GET /api/summary", s.apiHandlers.HandleSummary)
	s.mux.HandleFunc("GET /api/monthly-sales", s.apiHandlers.HandleMonthlySales)
	s.mux.HandleFunc("GET /api/locations", s.apiHandlers.HandleLocations)
	s.mux.HandleFunc("GET /api/categories", s.apiHandlers.HandleCategories)
	s.mux.HandleFunc("GET /api/payment-methods", s.apiHandlers.HandlePaymentMethods)
	s.mux.HandleFunc("GET /api/segments", s.apiHandlers.HandleSegments)
	s.mux.HandleFunc("GET /api/top-products", s.apiHandlers.HandleTopProducts)
	s.mux.HandleFunc("GET /api/stock", s.apiHandlers.HandleStock)
	s.mux.HandleFunc("GET /api/price-quantity", s.apiHandlers.HandlePriceQuantity)
	s.mux.HandleFunc("GET /api/records", s.apiHandlers.HandleRecords)

	// Datastar SSE, filtered by page signals
	s.mux.HandleFunc("GET /sse/init", s.sseHandlers.HandleInit)
	s.mux.HandleFunc("GET /sse/refresh-all", s.sseHandlers.HandleRefreshAll)
	s.mux.HandleFunc("POST /sse/refresh-all", s.sseHandlers.HandleRefreshAll)
	s.mux.HandleFunc("GET /sse/locations", s.sseHandlers.HandleLocations)
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}
