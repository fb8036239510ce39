package templates

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/a-h/templ"

	"sales-dashboard/internal/models"
)

type DashboardProps struct {
	Title   string
	Options models.FilterOptions
}

func pageTitle(title string) string {
	if title == "" {
		return "Sales Dashboard"
	}
	return title
}

// bindAttr binds a checkbox to the datastar signal holding its group's
// selection.
func bindAttr(signal string) templ.Attributes {
	return templ.Attributes{"data-bind-" + signal: true}
}

func panelAttrs(wide bool) templ.Attributes {
	if wide {
		return templ.Attributes{"class": "panel wide"}
	}
	return templ.Attributes{"class": "panel"}
}

// initialSignals selects every option so the first render shows the whole
// dataset.
func initialSignals(options models.FilterOptions) (string, error) {
	nonNil := func(v []string) []string {
		if v == nil {
			return []string{}
		}
		return v
	}
	b, err := json.Marshal(map[string]any{
		"from":           options.MinDate,
		"to":             options.MaxDate,
		"categories":     nonNil(options.Categories),
		"segments":       nonNil(options.Segments),
		"paymentMethods": nonNil(options.PaymentMethods),
		"recordsMatched": 0,
		"monthlyData":    []any{},
		"locationsData":  []any{},
		"categoryData":   []any{},
		"paymentData":    []any{},
		"segmentData":    []any{},
		"productsData":   []any{},
		"stockData":      []any{},
		"priceData":      []any{},
	})
	if err != nil {
		return "", fmt.Errorf("encode initial signals: %w", err)
	}
	return string(b), nil
}

var stylesheet = strings.Join([]string{
	`body{font-family:system-ui,sans-serif;margin:0;background:#f5f6fa;color:#1f2430}`,
	`.page-header{padding:1.5rem 2rem;background:#1f2a44;color:#fff}`,
	`.subtitle{margin:.25rem 0 0;opacity:.8}`,
	`.layout{display:grid;grid-template-columns:260px 1fr;gap:1.5rem;padding:1.5rem 2rem}`,
	`.sidebar{background:#fff;border-radius:8px;padding:1rem;align-self:start;position:sticky;top:1rem}`,
	`.sidebar label{display:block;margin:.5rem 0}.sidebar input[type=date]{width:100%}`,
	`fieldset{border:1px solid #e1e4ec;border-radius:6px;margin:.75rem 0;max-height:180px;overflow:auto}`,
	`.check{display:flex!important;gap:.4rem;align-items:center}`,
	`.apply{width:100%;padding:.6rem;border:0;border-radius:6px;background:#3856d6;color:#fff;cursor:pointer}`,
	`.panels{display:grid;grid-template-columns:repeat(2,1fr);gap:1.5rem}`,
	`.panel{background:#fff;border-radius:8px;padding:1rem}.panel.wide{grid-column:1/-1}`,
	`.kpi-grid{display:grid;grid-template-columns:repeat(5,1fr);gap:1rem}`,
	`.kpi-card{display:flex;flex-direction:column;padding:.75rem;border-radius:6px;background:#f0f2f8}`,
	`.kpi-label{font-size:.8rem;color:#5b6275}.kpi-value{font-size:1.4rem;font-weight:600}`,
	`.map{height:360px;border-radius:6px;margin-bottom:1rem}`,
	`.modern-table{width:100%;border-collapse:collapse}.modern-table th,.modern-table td{padding:.45rem;border-bottom:1px solid #eceef4;text-align:left}`,
	`.tier-badge{padding:.1rem .45rem;border-radius:4px;font-size:.8rem;text-transform:uppercase}`,
	`.tier-low{background:#e3f4e8;color:#1e7b3a}.tier-medium{background:#fff4d6;color:#8a6200}`,
	`.tier-high{background:#ffe4cc;color:#a34b00}.tier-critical{background:#fde0e0;color:#b3261e}`,
	`.error-banner{margin:1rem 2rem;padding:.75rem 1rem;border-radius:6px;background:#fde0e0;color:#b3261e}`,
	`.muted{color:#7a8194}.loading{color:#7a8194;font-style:italic}`,
}, "\n")

const chartsScript = `
window.salesCharts = (function () {
  const charts = {};
  let map, markers;
  const tierColors = {low: '#1e7b3a', medium: '#d19a00', high: '#e0701a', critical: '#b3261e'};

  function draw(id, config) {
    const el = document.getElementById(id);
    if (!el || !window.Chart) return;
    if (charts[id]) charts[id].destroy();
    charts[id] = new Chart(el, config);
  }

  function bar(id, rows, label, key, value, horizontal) {
    draw(id, {
      type: 'bar',
      data: {labels: rows.map(r => r[key]), datasets: [{label: label, data: rows.map(r => r[value]), backgroundColor: '#3856d6'}]},
      options: {indexAxis: horizontal ? 'y' : 'x', plugins: {legend: {display: false}}}
    });
  }

  function pie(id, rows) {
    draw(id, {
      type: 'doughnut',
      data: {labels: rows.map(r => r.label), datasets: [{data: rows.map(r => r.total)}]}
    });
  }

  function drawMap(locations) {
    if (!window.L) return;
    if (!map) {
      map = L.map('sales-map').setView([40.4, -3.7], 5);
      L.tileLayer('https://{s}.tile.openstreetmap.org/{z}/{x}/{y}.png', {attribution: '&copy; OpenStreetMap'}).addTo(map);
      markers = L.layerGroup().addTo(map);
    }
    markers.clearLayers();
    const max = Math.max(1, ...locations.map(l => l.sales));
    locations.forEach(l => {
      L.circleMarker([l.latitude, l.longitude], {
        radius: 6 + 20 * Math.sqrt(l.sales / max),
        color: tierColors[l.tier] || '#3856d6',
        fillOpacity: 0.6
      }).bindTooltip(l.city + ': ' + l.sales.toFixed(2) + ' (' + l.principal_segment + ')').addTo(markers);
    });
  }

  return {
    render(monthly, categories, payments, segments, products, stock, prices, locations) {
      draw('monthly-chart', {
        type: 'line',
        data: {labels: monthly.map(m => m.month), datasets: [{label: 'Sales', data: monthly.map(m => m.sales), borderColor: '#3856d6', tension: 0.25}]}
      });
      bar('category-chart', categories, 'Sales', 'label', 'total', false);
      pie('payment-chart', payments);
      pie('segment-chart', segments);
      bar('products-chart', products, 'Quantity', 'product_name', 'quantity', true);
      bar('stock-chart', stock, 'Average stock', 'category', 'average_stock', false);
      draw('price-chart', {
        type: 'scatter',
        data: {datasets: [{label: 'Unit price', data: prices.map(p => ({x: p.quantity, y: p.unit_price})), backgroundColor: '#3856d6'}]},
        options: {scales: {x: {title: {display: true, text: 'Quantity'}}, y: {title: {display: true, text: 'Unit price'}}}}
      });
      drawMap(locations);
    }
  };
})();
`
