package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Address() != "localhost:8084" {
		t.Errorf("Address() = %q, want localhost:8084", cfg.Address())
	}
	if cfg.Data.TransactionsFile != "df_transacciones.csv" {
		t.Errorf("TransactionsFile = %q", cfg.Data.TransactionsFile)
	}
	if cfg.Data.TopN != 10 {
		t.Errorf("TopN = %d, want 10", cfg.Data.TopN)
	}
	if cfg.Tracing.Enabled {
		t.Error("tracing should be disabled by default")
	}
}

func TestLoad_Environment(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("DATA_PRODUCTS_FILE", "/data/products.csv")
	t.Setenv("DATA_LOAD_TIMEOUT", "5s")
	t.Setenv("SECURITY_ALLOWED_ORIGINS", "http://a.test, http://b.test")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Server.Port != 9090 {
		t.Errorf("Port = %d, want 9090", cfg.Server.Port)
	}
	if cfg.Data.ProductsFile != "/data/products.csv" {
		t.Errorf("ProductsFile = %q", cfg.Data.ProductsFile)
	}
	if cfg.Data.LoadTimeout != 5*time.Second {
		t.Errorf("LoadTimeout = %v, want 5s", cfg.Data.LoadTimeout)
	}
	if len(cfg.Security.AllowedOrigins) != 2 || cfg.Security.AllowedOrigins[1] != "http://b.test" {
		t.Errorf("AllowedOrigins = %v", cfg.Security.AllowedOrigins)
	}
}

func TestLoad_DotEnv(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	if err := os.WriteFile(filepath.Join(dir, ".env"), []byte("DATA_CUSTOMERS_FILE=clients.csv\nLOG_FORMAT=text\n"), 0644); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		os.Unsetenv("DATA_CUSTOMERS_FILE")
		os.Unsetenv("LOG_FORMAT")
	})

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Data.CustomersFile != "clients.csv" {
		t.Errorf("CustomersFile = %q, want clients.csv", cfg.Data.CustomersFile)
	}
	if cfg.Logger.Format != "text" {
		t.Errorf("Format = %q, want text", cfg.Logger.Format)
	}
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		key   string
		value string
	}{
		{"SERVER_PORT", "70000"},
		{"LOG_LEVEL", "verbose"},
		{"LOG_FORMAT", "xml"},
		{"DATA_TOP_N", "0"},
		{"SECURITY_RATE_LIMIT_RPS", "-1"},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			t.Chdir(t.TempDir())
			t.Setenv(tt.key, tt.value)

			if _, err := Load(); err == nil {
				t.Errorf("Load() with %s=%s should fail", tt.key, tt.value)
			}
		})
	}
}
