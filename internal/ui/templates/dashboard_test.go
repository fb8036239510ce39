package templates

import (
	"context"
	"strings"
	"testing"

	"sales-dashboard/internal/models"
)

func render(t *testing.T, props DashboardProps) string {
	t.Helper()

	var buf strings.Builder
	if err := Dashboard(props).Render(context.Background(), &buf); err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	return buf.String()
}

func TestDashboard(t *testing.T) {
	body := render(t, DashboardProps{
		Options: models.FilterOptions{
			MinDate:        "2023-01-01",
			MaxDate:        "2023-12-31",
			Categories:     []string{"Electronics", "Furniture"},
			Segments:       []string{"Premium"},
			PaymentMethods: []string{"Cash"},
		},
	})

	for _, want := range []string{
		"<!doctype html>",
		"<title>Sales Dashboard</title>",
		`<section class="panel wide"><h2>Monthly Sales Trend</h2>`,
		`<section class="panel"><h2>Sales by Category</h2>`,
		`data-on-load="@get('/sse/init')"`,
		`data-bind-categories value="Furniture"`,
		`data-bind-paymentMethods value="Cash"`,
		`min="2023-01-01"`,
		`id="kpi-content"`,
		`id="locations-content"`,
		`id="monthly-chart"`,
		"Sales by Payment Method",
		"Average Stock by Category",
	} {
		if !strings.Contains(body, want) {
			t.Errorf("dashboard should contain %q", want)
		}
	}
}

func TestDashboard_EscapesValues(t *testing.T) {
	body := render(t, DashboardProps{
		Title: "Q1 <Review>",
		Options: models.FilterOptions{
			Categories: []string{`Toys "&" Games`},
		},
	})

	if strings.Contains(body, "<Review>") {
		t.Error("title must be escaped")
	}
	if !strings.Contains(body, "Q1 &lt;Review&gt;") {
		t.Error("escaped title missing")
	}
	if strings.Contains(body, `"Toys "&" Games"`) {
		t.Error("option values must be escaped")
	}
	if !strings.Contains(body, `data-bind-categories value="Toys &#34;&amp;&#34; Games"`) {
		t.Error("escaped option value missing")
	}
}

func TestDashboard_EmptyOptions(t *testing.T) {
	body := render(t, DashboardProps{})

	if !strings.Contains(body, "No values") {
		t.Error("empty option groups should say so")
	}
	if !strings.Contains(body, "&#34;categories&#34;:[]") {
		t.Error("initial signals should start with empty selections")
	}
}

func TestDashboard_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var buf strings.Builder
	if err := Dashboard(DashboardProps{}).Render(ctx, &buf); err == nil {
		t.Error("Render() should fail on a cancelled context")
	}
	if buf.Len() != 0 {
		t.Errorf("nothing should be written, got %d bytes", buf.Len())
	}
}
