package config

import (
	"reflect"
	"testing"
	"time"
)

func TestGetEnvFallback(t *testing.T) {
	t.Setenv("CONFIG_TEST_SET", "value")

	if got := getEnv("CONFIG_TEST_SET", "fallback"); got != "value" {
		t.Errorf("set variable: got %q, want %q", got, "value")
	}
	if got := getEnv("CONFIG_TEST_UNSET", "fallback"); got != "fallback" {
		t.Errorf("unset variable: got %q, want %q", got, "fallback")
	}

	// Empty counts as unset, matching shell conventions.
	t.Setenv("CONFIG_TEST_EMPTY", "")
	if got := getEnv("CONFIG_TEST_EMPTY", "fallback"); got != "fallback" {
		t.Errorf("empty variable: got %q, want %q", got, "fallback")
	}
}

func TestGetEnvInt(t *testing.T) {
	t.Setenv("CONFIG_TEST_INT", "42")
	t.Setenv("CONFIG_TEST_NEGATIVE", "-5")
	t.Setenv("CONFIG_TEST_JUNK", "not-a-number")

	if got := getEnvInt("CONFIG_TEST_INT", 7); got != 42 {
		t.Errorf("valid int: got %d, want 42", got)
	}
	if got := getEnvInt("CONFIG_TEST_NEGATIVE", 7); got != -5 {
		t.Errorf("negative int: got %d, want -5", got)
	}
	if got := getEnvInt("CONFIG_TEST_JUNK", 7); got != 7 {
		t.Errorf("unparseable int: got %d, want fallback 7", got)
	}
	if got := getEnvInt("CONFIG_TEST_INT_UNSET", 7); got != 7 {
		t.Errorf("unset int: got %d, want fallback 7", got)
	}
}

func TestParseOrigins(t *testing.T) {
	cases := []struct {
		name string
		raw  string
		want []string
	}{
		{"empty means allow all", "", nil},
		{"single origin", "https://app.example.com", []string{"https://app.example.com"}},
		{"multiple with whitespace", " https://a.example.com , https://b.example.com ",
			[]string{"https://a.example.com", "https://b.example.com"}},
		{"blank entries dropped", "https://a.example.com,, ,", []string{"https://a.example.com"}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := parseOrigins(tc.raw)
			if !reflect.DeepEqual(got, tc.want) {
				t.Errorf("parseOrigins(%q) = %v, want %v", tc.raw, got, tc.want)
			}
		})
	}
}

func TestLoadReadsEnvironment(t *testing.T) {
	t.Setenv("SERVER_PORT", "9191")
	t.Setenv("JWT_EXPIRY_HOURS", "6")
	t.Setenv("GRANT_TTL_MINUTES", "15")
	t.Setenv("MAX_DB_CONNS", "32")
	t.Setenv("ALLOWED_ORIGINS", "https://app.example.com")

	cfg := Load()

	if cfg.ServerPort != "9191" {
		t.Errorf("ServerPort: got %q, want %q", cfg.ServerPort, "9191")
	}
	if cfg.JWTExpiry != 6*time.Hour {
		t.Errorf("JWTExpiry: got %v, want %v", cfg.JWTExpiry, 6*time.Hour)
	}
	if cfg.GrantTTL != 15*time.Minute {
		t.Errorf("GrantTTL: got %v, want %v", cfg.GrantTTL, 15*time.Minute)
	}
	if cfg.MaxDBConns != 32 {
		t.Errorf("MaxDBConns: got %d, want 32", cfg.MaxDBConns)
	}
	if !reflect.DeepEqual(cfg.AllowedOrigins, []string{"https://app.example.com"}) {
		t.Errorf("AllowedOrigins: got %v", cfg.AllowedOrigins)
	}
}
