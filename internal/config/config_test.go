package config

import (
	"testing"
)

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/transfa_admin")

	cfg, err := LoadConfig(t.TempDir())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.ServerPort != "8080" {
		t.Fatalf("expected default port 8080, got %q", cfg.ServerPort)
	}
	if cfg.AdminEventExchange != "admin_events" {
		t.Fatalf("expected default exchange, got %q", cfg.AdminEventExchange)
	}
	if cfg.BulkKYCRateLimitPerMinute != 10 {
		t.Fatalf("expected default bulk rate limit 10, got %d", cfg.BulkKYCRateLimitPerMinute)
	}
	if cfg.DirectoryRefreshMinutes != 5 {
		t.Fatalf("expected default refresh interval 5, got %d", cfg.DirectoryRefreshMinutes)
	}
	if cfg.RedisRateLimitPrefix != "transfa:admin_rate_limit" {
		t.Fatalf("expected default redis prefix, got %q", cfg.RedisRateLimitPrefix)
	}
}

func TestLoadConfigPortOverride(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/transfa_admin")
	t.Setenv("PORT", "9090")

	cfg, err := LoadConfig(t.TempDir())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.ServerPort != "9090" {
		t.Fatalf("PORT must override the server port, got %q", cfg.ServerPort)
	}
}

func TestAllowedOriginList(t *testing.T) {
	tests := []struct {
		name  string
		raw   string
		want  []string
	}{
		{name: "empty allows any", raw: "", want: []string{"*"}},
		{name: "single origin", raw: "https://admin.trytransfa.com", want: []string{"https://admin.trytransfa.com"}},
		{name: "multiple with spaces", raw: " https://a.com , https://b.com ", want: []string{"https://a.com", "https://b.com"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Config{AllowedOrigins: tt.raw}
			got := cfg.AllowedOriginList()
			if len(got) != len(tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, got)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Fatalf("expected %v, got %v", tt.want, got)
				}
			}
		})
	}
}
