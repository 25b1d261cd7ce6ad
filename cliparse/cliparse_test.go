// cliparse/cliparse_test.go
package cliparse

import (
	"testing"
	"time"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func setRequired(t *testing.T) {
	t.Setenv("DATABASE_URL", "file:test.db")
	t.Setenv("SESSION_SECRET", testSecret)
	t.Setenv("DOWNLOAD_URL_SALT", "test-download")
}

func TestParseFlags_EnvVars(t *testing.T) {
	setRequired(t)
	t.Setenv("PORT", "9000")
	t.Setenv("DASHBOARD_CACHE_TTL", "30m")

	cfg, err := ParseFlags([]string{})
	if err != nil {
		t.Fatal(err)
	}

	if cfg.Port != 9000 {
		t.Errorf("expected port 9000, got %d", cfg.Port)
	}
	if cfg.DashboardCacheTTL != 30*time.Minute {
		t.Errorf("expected 30m cache TTL, got %s", cfg.DashboardCacheTTL)
	}
}

func TestParseFlags_Defaults(t *testing.T) {
	setRequired(t)

	cfg, err := ParseFlags(nil)
	if err != nil {
		t.Fatal(err)
	}

	if cfg.Port != 3318 {
		t.Errorf("expected default port 3318, got %d", cfg.Port)
	}
	if cfg.DatabaseType != "sqlite" {
		t.Errorf("expected sqlite default, got %s", cfg.DatabaseType)
	}
	if cfg.MagicLinkTTL != 24*time.Hour || cfg.InviteTTL != 7*24*time.Hour {
		t.Errorf("unexpected token TTLs: %s / %s", cfg.MagicLinkTTL, cfg.InviteTTL)
	}
	if cfg.StorageBackend != "local" {
		t.Errorf("expected local storage default, got %s", cfg.StorageBackend)
	}
	if len(cfg.CORSOrigins) != 1 || cfg.CORSOrigins[0] != "http://localhost:3318" {
		t.Errorf("expected CORS origin from base URL, got %v", cfg.CORSOrigins)
	}
}

func TestParseFlags_CORSOrigins(t *testing.T) {
	setRequired(t)
	t.Setenv("CORS_ORIGINS", "https://app.aurora.gov.br/, https://painel.aurora.gov.br")

	cfg, err := ParseFlags(nil)
	if err != nil {
		t.Fatal(err)
	}

	want := []string{"https://app.aurora.gov.br", "https://painel.aurora.gov.br"}
	if len(cfg.CORSOrigins) != len(want) {
		t.Fatalf("expected %v, got %v", want, cfg.CORSOrigins)
	}
	for i := range want {
		if cfg.CORSOrigins[i] != want[i] {
			t.Errorf("origin %d: expected %s, got %s", i, want[i], cfg.CORSOrigins[i])
		}
	}
}

func TestParseFlags_CLIOverridesEnv(t *testing.T) {
	setRequired(t)
	t.Setenv("PORT", "9000")

	cfg, err := ParseFlags([]string{"-p", "8080", "-d", "postgres://x", "-t", "postgres"})
	if err != nil {
		t.Fatal(err)
	}

	// CLI should override env
	if cfg.Port != 8080 {
		t.Errorf("CLI should override env: expected 8080, got %d", cfg.Port)
	}
	if cfg.DatabaseType != "postgres" || cfg.DatabaseURL != "postgres://x" {
		t.Errorf("unexpected database settings: %s %s", cfg.DatabaseType, cfg.DatabaseURL)
	}
}

func TestParseFlags_Errors(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"missing database", map[string]string{"DATABASE_URL": ""}},
		{"short secret", map[string]string{"SESSION_SECRET": "short"}},
		{"missing download salt", map[string]string{"DOWNLOAD_URL_SALT": ""}},
		{"bad database type", map[string]string{"DATABASE_TYPE": "mysql"}},
		{"s3 without bucket", map[string]string{"STORAGE_BACKEND": "s3"}},
		{"unknown storage", map[string]string{"STORAGE_BACKEND": "ftp"}},
		{"bad duration", map[string]string{"SESSION_TTL": "forever"}},
		{"wildcard cors origin", map[string]string{"CORS_ORIGINS": "*"}},
		{"relative base url", map[string]string{"BASE_URL": "/aurora"}},
		{"bootstrap tenant without email", map[string]string{"BOOTSTRAP_TENANT": "Prefeitura de Aurora"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setRequired(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			if _, err := ParseFlags(nil); err == nil {
				t.Error("expected error")
			}
		})
	}
}
