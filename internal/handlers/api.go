package handlers

import (
	"log/slog"
	"net/http"
	"time"

	"sales-dashboard/internal/dataset"
	"sales-dashboard/internal/errors"
	"sales-dashboard/internal/models"
	"sales-dashboard/internal/observability"
	"sales-dashboard/internal/services"
)

const (
	cacheControl      = "private, max-age=60"
	defaultRecordPage = 100
	maxRecordPage     = 1000
)

type APIHandlers struct {
	analytics *services.Analytics
	logger    *slog.Logger
}

func NewAPIHandlers(analytics *services.Analytics, logger *slog.Logger) *APIHandlers {
	return &APIHandlers{
		analytics: analytics,
		logger:    logger,
	}
}

func (h *APIHandlers) fail(w http.ResponseWriter, r *http.Request, err error) {
	errors.WriteError(w, h.logger, toAppError(err), observability.GetRequestID(r.Context()))
}

func (h *APIHandlers) ok(w http.ResponseWriter, data any) {
	errors.WriteSuccessWithHeaders(w, data, map[string]string{
		"Cache-Control": cacheControl,
	})
}

// view resolves the request filter and returns the matching records.
func (h *APIHandlers) view(w http.ResponseWriter, r *http.Request) ([]models.JoinedRecord, bool) {
	p, err := requestFilter(r, h.analytics)
	if err != nil {
		h.fail(w, r, err)
		return nil, false
	}
	records, err := h.analytics.View(r.Context(), p)
	if err != nil {
		h.fail(w, r, err)
		return nil, false
	}
	return records, true
}

func (h *APIHandlers) HandleFilters(w http.ResponseWriter, r *http.Request) {
	options, err := h.analytics.Options(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.ok(w, options)
}

func (h *APIHandlers) HandleReport(w http.ResponseWriter, r *http.Request) {
	p, err := requestFilter(r, h.analytics)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	report, err := h.analytics.Report(r.Context(), p)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.ok(w, report)
}

func (h *APIHandlers) HandleSummary(w http.ResponseWriter, r *http.Request) {
	if records, ok := h.view(w, r); ok {
		h.ok(w, dataset.Summarize(records))
	}
}

func (h *APIHandlers) HandleMonthlySales(w http.ResponseWriter, r *http.Request) {
	if records, ok := h.view(w, r); ok {
		h.ok(w, dataset.MonthlySeries(records))
	}
}

func (h *APIHandlers) HandleLocations(w http.ResponseWriter, r *http.Request) {
	if records, ok := h.view(w, r); ok {
		h.ok(w, dataset.Locations(records))
	}
}

func (h *APIHandlers) HandleCategories(w http.ResponseWriter, r *http.Request) {
	if records, ok := h.view(w, r); ok {
		h.ok(w, dataset.CategoryTotals(records))
	}
}

func (h *APIHandlers) HandlePaymentMethods(w http.ResponseWriter, r *http.Request) {
	if records, ok := h.view(w, r); ok {
		h.ok(w, dataset.PaymentMethodTotals(records))
	}
}

func (h *APIHandlers) HandleSegments(w http.ResponseWriter, r *http.Request) {
	if records, ok := h.view(w, r); ok {
		h.ok(w, dataset.SegmentTotals(records))
	}
}

func (h *APIHandlers) HandleTopProducts(w http.ResponseWriter, r *http.Request) {
	limit, err := parseLimit(r.URL.Query(), "limit", h.analytics.TopN())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if records, ok := h.view(w, r); ok {
		h.ok(w, dataset.TopProducts(records, limit))
	}
}

func (h *APIHandlers) HandleStock(w http.ResponseWriter, r *http.Request) {
	if records, ok := h.view(w, r); ok {
		h.ok(w, dataset.StockByCategory(records))
	}
}

func (h *APIHandlers) HandlePriceQuantity(w http.ResponseWriter, r *http.Request) {
	if records, ok := h.view(w, r); ok {
		h.ok(w, dataset.PricePoints(records))
	}
}

type recordPage struct {
	Total   int                   `json:"total"`
	Offset  int                   `json:"offset"`
	Limit   int                   `json:"limit"`
	Records []models.JoinedRecord `json:"records"`
}

// HandleRecords pages through the filtered rows, newest first.
func (h *APIHandlers) HandleRecords(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit, err := parseLimit(q, "limit", defaultRecordPage)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	offset, err := parseLimit(q, "offset", 0)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if limit == 0 || limit > maxRecordPage {
		limit = maxRecordPage
	}

	records, ok := h.view(w, r)
	if !ok {
		return
	}
	rows := dataset.NewestFirst(records)

	start := min(offset, len(rows))
	end := min(start+limit, len(rows))
	h.ok(w, recordPage{
		Total:   len(rows),
		Offset:  offset,
		Limit:   limit,
		Records: rows[start:end],
	})
}

func (h *APIHandlers) HandleHealth(w http.ResponseWriter, r *http.Request) {
	status := "healthy"
	if _, err := h.analytics.Options(r.Context()); err != nil {
		status = "degraded"
	}

	errors.WriteSuccess(w, map[string]string{
		"status":    status,
		"timestamp": time.Now().Format(time.RFC3339),
		"version":   "1.0.0",
	})
}

func (h *APIHandlers) HandleStats(w http.ResponseWriter, r *http.Request) {
	errors.WriteSuccess(w, h.analytics.Stats())
}

// HandleReload drops the cached dataset and reads the input files again.
func (h *APIHandlers) HandleReload(w http.ResponseWriter, r *http.Request) {
	if err := h.analytics.Reload(r.Context()); err != nil {
		observability.RequestLogger(r.Context(), h.logger).Error("reload failed", "error", err)
		h.fail(w, r, err)
		return
	}
	observability.RequestLogger(r.Context(), h.logger).Info("dataset reloaded")
	errors.WriteSuccess(w, h.analytics.Stats())
}
