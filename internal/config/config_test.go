package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadReadsYAML(t *testing.T) {
	path := writeConfig(t, `
port: "8080"
logLevel: debug
petApiBaseUrl: http://localhost:3000
allowedOrigin: http://localhost:5173
redisAddr: localhost:6379
loginRateLimitPerMinute: 3
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Port != "8080" || cfg.PetAPIBaseURL != "http://localhost:3000" {
		t.Fatalf("unexpected config %+v", cfg)
	}
	if cfg.LoginRateLimitPerMinute != 3 {
		t.Fatalf("loginRateLimitPerMinute = %d, want 3", cfg.LoginRateLimitPerMinute)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	path := writeConfig(t, `
port: "8080"
petApiBaseUrl: http://localhost:3000
redisAddr: localhost:6379
`)
	t.Setenv("WANPARADISE_PET_API_BASE_URL", "http://api.internal:3000")
	t.Setenv("WANPARADISE_COOKIE_SECURE", "true")
	t.Setenv("WANPARADISE_FAVORITE_RATE_LIMIT_PER_MINUTE", "7")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.PetAPIBaseURL != "http://api.internal:3000" {
		t.Fatalf("petApiBaseUrl = %q, want env override", cfg.PetAPIBaseURL)
	}
	if !cfg.CookieSecure {
		t.Fatalf("cookieSecure should be overridden to true")
	}
	if cfg.FavoriteRateLimitPerMinute != 7 {
		t.Fatalf("favoriteRateLimitPerMinute = %d, want 7", cfg.FavoriteRateLimitPerMinute)
	}
}

func TestLoadValidation(t *testing.T) {
	cases := []struct {
		name    string
		content string
	}{
		{"missing port", "petApiBaseUrl: http://localhost:3000\nredisAddr: localhost:6379\n"},
		{"missing pet api", "port: \"8080\"\nredisAddr: localhost:6379\n"},
		{"missing redis", "port: \"8080\"\npetApiBaseUrl: http://localhost:3000\n"},
		{"secret without issuer", "port: \"8080\"\npetApiBaseUrl: http://localhost:3000\nredisAddr: localhost:6379\nserviceTokenSecret: s3cret\n"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			path := writeConfig(t, tc.content)
			if _, err := Load(path); err == nil {
				t.Fatalf("expected validation error")
			}
		})
	}
}

func TestParseServiceTokenTTL(t *testing.T) {
	if d, err := ParseServiceTokenTTL(""); err != nil || d != 0 {
		t.Fatalf("empty ttl = (%v, %v), want (0, nil)", d, err)
	}
	if d, err := ParseServiceTokenTTL("90s"); err != nil || d != 90*time.Second {
		t.Fatalf("90s ttl = (%v, %v)", d, err)
	}
	if _, err := ParseServiceTokenTTL("ninety"); err == nil {
		t.Fatalf("expected duration parse error")
	}
}
