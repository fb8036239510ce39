package handlers

import (
	"encoding/json"
	"html/template"
	"log/slog"
	"net/http"
	"strings"

	"github.com/starfederation/datastar-go/datastar"

	"sales-dashboard/internal/dataset"
	"sales-dashboard/internal/models"
	"sales-dashboard/internal/observability"
	"sales-dashboard/internal/services"
)

const maxTableRows = 50

var templateFuncs = template.FuncMap{
	"money": func(v float64) string { return formatMoney(v) },
	"pct":   func(v float64) string { return formatFloat(v, 1) + "%" },
}

var locationTableTemplate = template.Must(template.New("locationTable").Funcs(templateFuncs).Parse(`
<div id="locations-content">
{{if not .Rows}}<p class="empty-state">No locations match the current filters.</p>{{else}}
<table class="modern-table">
<thead><tr><th>City</th><th>Customers</th><th>Sales</th><th>Transactions</th><th>Avg ticket</th><th>Main segment</th><th>Tier</th></tr></thead>
<tbody>
{{range .Rows}}<tr>
<td>{{.City}}</td>
<td>{{.Customers}}</td>
<td><strong>{{money .Sales}}</strong></td>
<td>{{.Transactions}}</td>
<td>{{money .AverageTicket}}</td>
<td><span class="segment-badge">{{.PrincipalSegment}}</span></td>
<td><span class="tier-badge tier-{{.Tier}}">{{.Tier}}</span></td>
</tr>{{end}}
</tbody>
</table>
{{if gt .Hidden 0}}<p class="table-note">{{.Hidden}} more locations not shown.</p>{{end}}
{{end}}
</div>`))

var kpiTemplate = template.Must(template.New("kpis").Funcs(templateFuncs).Parse(`
<div id="kpi-content" class="kpi-grid tier-{{.Tier}}">
<div class="kpi-card"><span class="kpi-label">Total sales</span><span class="kpi-value">{{money .TotalSales}}</span></div>
<div class="kpi-card"><span class="kpi-label">Avg monthly sales</span><span class="kpi-value">{{money .AverageMonthlySales}}</span></div>
<div class="kpi-card"><span class="kpi-label">Unique customers</span><span class="kpi-value">{{.UniqueCustomers}}</span></div>
<div class="kpi-card"><span class="kpi-label">Retention</span><span class="kpi-value">{{pct .RetentionRate}}</span></div>
<div class="kpi-card"><span class="kpi-label">Tier</span><span class="kpi-value tier-badge tier-{{.Tier}}">{{.Tier}}</span></div>
</div>`))

var errorTemplate = template.Must(template.New("error").Parse(
	`<div id="dashboard-error" class="error-banner">{{.}}</div>`))

const clearedError = `<div id="dashboard-error"></div>`

type SSEHandlers struct {
	analytics *services.Analytics
	logger    *slog.Logger
}

func NewSSEHandlers(analytics *services.Analytics, logger *slog.Logger) *SSEHandlers {
	return &SSEHandlers{
		analytics: analytics,
		logger:    logger,
	}
}

type locationTableData struct {
	Rows   []models.LocationRollup
	Hidden int
}

func renderLocationTable(rows []models.LocationRollup) (string, error) {
	data := locationTableData{Rows: rows}
	if len(rows) > maxTableRows {
		data.Rows = rows[:maxTableRows]
		data.Hidden = len(rows) - maxTableRows
	}

	var buf strings.Builder
	err := locationTableTemplate.Execute(&buf, data)
	return buf.String(), err
}

func renderKPIs(summary models.Summary) (string, error) {
	var buf strings.Builder
	err := kpiTemplate.Execute(&buf, summary)
	return buf.String(), err
}

// predicate reads the sidebar signals sent by the page.
func (h *SSEHandlers) predicate(r *http.Request) (dataset.Predicate, error) {
	base, err := h.analytics.DefaultPredicate(r.Context())
	if err != nil {
		return dataset.Predicate{}, err
	}

	var signals filterSignals
	if err := datastar.ReadSignals(r, &signals); err != nil {
		return dataset.Predicate{}, toAppError(err)
	}
	return signals.predicate(base)
}

func (h *SSEHandlers) patchError(sse *datastar.ServerSentEventGenerator, r *http.Request, err error) {
	appErr := toAppError(err)
	observability.RequestLogger(r.Context(), h.logger).Warn("dashboard refresh failed",
		"error_code", appErr.Code,
		"cause", err,
	)

	message := appErr.Message
	if appErr.Details != "" {
		message += ": " + appErr.Details
	}
	var buf strings.Builder
	if execErr := errorTemplate.Execute(&buf, message); execErr != nil {
		h.logger.Error("render error banner", "error", execErr)
		return
	}
	sse.PatchElements(buf.String())
}

func (h *SSEHandlers) patchReport(sse *datastar.ServerSentEventGenerator, report models.Report) error {
	kpis, err := renderKPIs(report.Summary)
	if err != nil {
		return err
	}
	table, err := renderLocationTable(report.Locations)
	if err != nil {
		return err
	}

	signals, err := json.Marshal(map[string]any{
		"summary":        report.Summary,
		"monthlyData":    report.Monthly,
		"locationsData":  report.Locations,
		"categoryData":   report.Categories,
		"paymentData":    report.PaymentMethods,
		"segmentData":    report.Segments,
		"productsData":   report.TopProducts,
		"stockData":      report.StockByCategory,
		"priceData":      report.PricePoints,
		"recordsMatched": report.Summary.Transactions,
	})
	if err != nil {
		return err
	}

	sse.PatchSignals(signals)
	sse.PatchElements(kpis)
	sse.PatchElements(table)
	sse.PatchElements(clearedError)
	return nil
}

// HandleInit seeds the sidebar with the full selection and the available
// options, then sends the unfiltered report.
func (h *SSEHandlers) HandleInit(w http.ResponseWriter, r *http.Request) {
	sse := datastar.NewSSE(w, r)

	options, err := h.analytics.Options(r.Context())
	if err != nil {
		h.patchError(sse, r, err)
		return
	}
	p, err := h.analytics.DefaultPredicate(r.Context())
	if err != nil {
		h.patchError(sse, r, err)
		return
	}

	state, err := json.Marshal(map[string]any{
		"filterOptions":  options,
		"from":           signalsFor(p).From,
		"to":             signalsFor(p).To,
		"categories":     options.Categories,
		"segments":       options.Segments,
		"paymentMethods": options.PaymentMethods,
	})
	if err != nil {
		h.logger.Error("marshal filter state", "error", err)
		return
	}
	sse.PatchSignals(state)

	report, err := h.analytics.Report(r.Context(), p)
	if err != nil {
		h.patchError(sse, r, err)
		return
	}
	if err := h.patchReport(sse, report); err != nil {
		h.logger.Error("patch report", "error", err)
	}
}

// HandleRefreshAll recomputes every panel for the filter held in the page
// signals.
func (h *SSEHandlers) HandleRefreshAll(w http.ResponseWriter, r *http.Request) {
	p, err := h.predicate(r)
	sse := datastar.NewSSE(w, r)
	if err != nil {
		h.patchError(sse, r, err)
		return
	}

	report, err := h.analytics.Report(r.Context(), p)
	if err != nil {
		h.patchError(sse, r, err)
		return
	}
	if err := h.patchReport(sse, report); err != nil {
		h.logger.Error("patch report", "error", err)
	}
}

func (h *SSEHandlers) HandleLocations(w http.ResponseWriter, r *http.Request) {
	p, err := h.predicate(r)
	sse := datastar.NewSSE(w, r)
	if err != nil {
		h.patchError(sse, r, err)
		return
	}

	records, err := h.analytics.View(r.Context(), p)
	if err != nil {
		h.patchError(sse, r, err)
		return
	}

	html, err := renderLocationTable(dataset.Locations(records))
	if err != nil {
		h.logger.Error("render location table", "error", err)
		return
	}
	sse.PatchElements(html)
}
