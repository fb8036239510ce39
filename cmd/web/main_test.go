package main

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"sales-dashboard/internal/config"
	"sales-dashboard/internal/services"
)

const (
	transactionsCSV = `transaction_id,date,customer_id,product_id,quantity,total_amount,payment_method
T001,2023-01-15,C001,P001,1,999.99,Credit Card
T002,2023-02-10,C001,P002,2,59.98,cash
T003,2023-03-05,C002,P003,1,79.99,Cash`
	productsCSV = `product_id,name,category,stock_level
P001,Laptop,Electronics,50
P002,Mouse,electronics,100
P003,Keyboard,Electronics,75`
	customersCSV = `customer_id,name,surname,email,city,latitude,longitude,segment
C001,Ana,Diaz,ana@example.com,Madrid,40.41,-3.70,Premium
C002,Luis,Gil,luis@example.com,Sevilla,37.38,-5.98,Regular`
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	dir := t.TempDir()

	write := func(name, content string) string {
		path := filepath.Join(dir, name)
		if err := os.WriteFile(path, []byte(content), 0644); err != nil {
			t.Fatal(err)
		}
		return path
	}

	return &config.Config{
		Server: config.ServerConfig{Host: "localhost", Port: 8084},
		Data: config.DataConfig{
			TransactionsFile: write("transactions.csv", transactionsCSV),
			ProductsFile:     write("products.csv", productsCSV),
			CustomersFile:    write("customers.csv", customersCSV),
			CacheDir:         filepath.Join(dir, ".cache"),
			TopN:             10,
			LoadTimeout:      5 * time.Second,
		},
		Security: config.SecurityConfig{
			EnableRateLimit: true,
			RateLimitRPS:    1000,
			RateLimitBurst:  1000,
			AllowedOrigins:  []string{"http://localhost:8084"},
			TrustedProxies:  []string{"127.0.0.1"},
		},
	}
}

func newTestHandler(t *testing.T) (http.Handler, *services.Analytics) {
	t.Helper()
	cfg := testConfig(t)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	analytics := services.NewAnalytics(
		services.WithLogger(logger),
		services.WithCacheDir(cfg.Data.CacheDir),
		services.WithTopN(cfg.Data.TopN),
	)
	if err := analytics.Load(t.Context(), dataPaths(cfg.Data)); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	return newHandler(cfg, analytics, logger), analytics
}

// Integration tests for HTTP routes
func TestServer_Routes(t *testing.T) {
	handler, _ := newTestHandler(t)

	tests := []struct {
		path           string
		expectedStatus int
		contentType    string
	}{
		{"/", http.StatusOK, "text/html"},
		{"/health", http.StatusOK, "application/json"},
		{"/admin/stats", http.StatusOK, "application/json"},
		{"/api/filters", http.StatusOK, "application/json"},
		{"/api/report", http.StatusOK, "application/json"},
		{"/api/summary", http.StatusOK, "application/json"},
		{"/api/monthly-sales", http.StatusOK, "application/json"},
		{"/api/locations", http.StatusOK, "application/json"},
		{"/api/categories", http.StatusOK, "application/json"},
		{"/api/payment-methods", http.StatusOK, "application/json"},
		{"/api/segments", http.StatusOK, "application/json"},
		{"/api/top-products?limit=2", http.StatusOK, "application/json"},
		{"/api/stock", http.StatusOK, "application/json"},
		{"/api/price-quantity", http.StatusOK, "application/json"},
		{"/api/records", http.StatusOK, "application/json"},
		{"/api/summary?from=2024-01-01&to=2023-01-01", http.StatusBadRequest, "application/json"},
		{"/api/unknown", http.StatusNotFound, "text/plain"},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			w := httptest.NewRecorder()
			r := httptest.NewRequest(http.MethodGet, tt.path, nil)

			handler.ServeHTTP(w, r)

			if w.Code != tt.expectedStatus {
				t.Errorf("status = %d, want %d", w.Code, tt.expectedStatus)
			}

			ct := w.Header().Get("Content-Type")
			if !strings.Contains(ct, tt.contentType) {
				t.Errorf("content-type = %q, want %q", ct, tt.contentType)
			}

			if w.Header().Get("X-Request-ID") == "" {
				t.Error("response should carry a request id")
			}

			if tt.contentType == "application/json" {
				var result any
				if err := json.NewDecoder(w.Body).Decode(&result); err != nil {
					t.Errorf("invalid json: %v", err)
				}
			}
		})
	}
}

// Labels from the CSV are normalized before they reach the API.
func TestServer_NormalizedLabels(t *testing.T) {
	handler, _ := newTestHandler(t)

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/payment-methods", nil))

	var response struct {
		Success bool `json:"success"`
		Data    []struct {
			Label string  `json:"label"`
			Total float64 `json:"total"`
		} `json:"data"`
	}
	if err := json.NewDecoder(w.Body).Decode(&response); err != nil {
		t.Fatalf("failed to decode JSON: %v", err)
	}

	if !response.Success {
		t.Fatal("expected success=true in response")
	}
	if len(response.Data) != 2 {
		t.Fatalf("payment methods = %+v, want Cash and Credit Card", response.Data)
	}
	if response.Data[0].Label != "Credit Card" || response.Data[1].Label != "Cash" {
		t.Errorf("unexpected order: %+v", response.Data)
	}
}

func TestServer_SSERoutes(t *testing.T) {
	handler, _ := newTestHandler(t)

	for _, route := range []string{"/sse/init", "/sse/refresh-all", "/sse/locations"} {
		t.Run(route, func(t *testing.T) {
			w := httptest.NewRecorder()
			r := httptest.NewRequest(http.MethodGet, route, nil)

			handler.ServeHTTP(w, r)

			if w.Code != http.StatusOK {
				t.Errorf("status = %d, want %d", w.Code, http.StatusOK)
			}
			if ct := w.Header().Get("Content-Type"); !strings.Contains(ct, "text/event-stream") {
				t.Errorf("content-type = %q, should contain 'text/event-stream'", ct)
			}
			if cc := w.Header().Get("Cache-Control"); cc != "no-cache" {
				t.Errorf("cache-control = %q, want 'no-cache'", cc)
			}
		})
	}
}

func TestServer_Reload(t *testing.T) {
	handler, analytics := newTestHandler(t)

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/admin/reload", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}
	if loads := analytics.Stats()["loads"].(int64); loads != 2 {
		t.Errorf("loads = %d, want 2", loads)
	}
}

func TestServer_ErrorHandling(t *testing.T) {
	handler, _ := newTestHandler(t)

	tests := []struct {
		method string
		path   string
		status int
	}{
		{http.MethodPost, "/api/summary", http.StatusMethodNotAllowed},
		{http.MethodPut, "/", http.StatusMethodNotAllowed},
		{http.MethodDelete, "/health", http.StatusMethodNotAllowed},
		{http.MethodGet, "/admin/reload", http.StatusMethodNotAllowed},
		{http.MethodPatch, "/api/top-products", http.StatusMethodNotAllowed},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			w := httptest.NewRecorder()
			r := httptest.NewRequest(tt.method, tt.path, nil)

			handler.ServeHTTP(w, r)

			if w.Code != tt.status {
				t.Errorf("status = %d, want %d", w.Code, tt.status)
			}
		})
	}
}

func TestDashboardPage(t *testing.T) {
	handler, _ := newTestHandler(t)

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", w.Code, http.StatusOK)
	}

	body := w.Body.String()
	expected := []string{
		"Sales Dashboard",
		"Monthly Sales Trend",
		"Sales by Location",
		"Top Products by Quantity",
		`value="Credit Card"`,
		`min="2023-01-15"`,
	}
	for _, component := range expected {
		if !strings.Contains(body, component) {
			t.Errorf("dashboard should contain '%s'", component)
		}
	}

	if csp := w.Header().Get("Content-Security-Policy"); csp == "" {
		t.Error("dashboard should be served with a CSP")
	}
}
