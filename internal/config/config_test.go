package config

import (
	"strings"
	"testing"
	"time"
)

func validBaseConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port:           "8080",
			ReadTimeout:    15 * time.Second,
			WriteTimeout:   15 * time.Second,
			AllowedOrigins: []string{"https://evolution-ecosystem.web.app", "http://localhost:5000"},
		},
		Database: DatabaseConfig{
			Host:      "localhost",
			Port:      "8000",
			Namespace: "ecosystem",
			Database:  "bridge",
		},
		Auth: AuthConfig{
			PublicKeyPath: "./keys/identity.pem",
			Issuer:        "auth.evolution-ecosystem.web.app",
		},
		Engine: EngineConfig{
			URL:     "http://localhost:9000",
			Timeout: 30 * time.Second,
		},
	}
}

func TestDebugEnabled(t *testing.T) {
	t.Parallel()

	cases := []struct {
		value string
		want  bool
	}{
		{"true", true},
		{"True", true},
		{"TRUE", true},
		{"tRuE", true},
		{"false", false},
		{"False", false},
		{"", false},
		{"1", false},
		{"yes", false},
		{" true", false},
	}

	for _, tc := range cases {
		if got := debugEnabled(tc.value); got != tc.want {
			t.Errorf("debugEnabled(%q) = %v, want %v", tc.value, got, tc.want)
		}
	}
}

func TestLoad_DebugFromEnv(t *testing.T) {
	t.Setenv("FLASK_DEBUG", "TRUE")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !cfg.Server.Debug {
		t.Error("expected debug mode enabled for FLASK_DEBUG=TRUE")
	}
}

func TestLoad_DebugDisabledByDefault(t *testing.T) {
	t.Setenv("FLASK_DEBUG", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Debug {
		t.Error("expected debug mode disabled when FLASK_DEBUG is unset")
	}
}

func TestLoad_DefaultOrigins(t *testing.T) {
	t.Setenv("CORS_ALLOWED_ORIGINS", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	want := []string{"https://evolution-ecosystem.web.app", "http://localhost:5000"}
	if len(cfg.Server.AllowedOrigins) != len(want) {
		t.Fatalf("origins = %v, want %v", cfg.Server.AllowedOrigins, want)
	}
	for i, origin := range want {
		if cfg.Server.AllowedOrigins[i] != origin {
			t.Errorf("origins[%d] = %q, want %q", i, cfg.Server.AllowedOrigins[i], origin)
		}
	}
}

func TestLoad_OriginsFromEnv(t *testing.T) {
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example.com, https://b.example.com")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(cfg.Server.AllowedOrigins) != 2 {
		t.Fatalf("origins = %v, want 2 entries", cfg.Server.AllowedOrigins)
	}
	if cfg.Server.AllowedOrigins[1] != "https://b.example.com" {
		t.Errorf("origins[1] = %q, want trimmed value", cfg.Server.AllowedOrigins[1])
	}
}

func TestLoad_PortFromEnv(t *testing.T) {
	t.Setenv("PORT", "3001")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Port != "3001" {
		t.Errorf("port = %q, want 3001", cfg.Server.Port)
	}
}

func TestLoad_NoAuthKeyByDefault(t *testing.T) {
	t.Setenv("AUTH_PUBLIC_KEY_PATH", "")
	t.Setenv("FLASK_DEBUG", "true")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Auth.PublicKeyPath != "" {
		t.Errorf("public key path = %q, want empty when unset", cfg.Auth.PublicKeyPath)
	}
	// A bare debug-mode start must pass validation so the server can fall
	// back to an ephemeral verification key.
	if err := cfg.Validate(); err != nil {
		t.Errorf("expected valid debug config without a key, got: %v", err)
	}
}

func TestValidate_ValidConfig(t *testing.T) {
	t.Parallel()

	if err := validBaseConfig().Validate(); err != nil {
		t.Errorf("expected valid config, got: %v", err)
	}
}

func TestValidate_MissingPort(t *testing.T) {
	t.Parallel()

	cfg := validBaseConfig()
	cfg.Server.Port = ""

	err := cfg.Validate()
	if err == nil || !strings.Contains(err.Error(), "PORT") {
		t.Errorf("expected PORT error, got: %v", err)
	}
}

func TestValidate_EmptyOrigins(t *testing.T) {
	t.Parallel()

	cfg := validBaseConfig()
	cfg.Server.AllowedOrigins = nil

	err := cfg.Validate()
	if err == nil || !strings.Contains(err.Error(), "CORS_ALLOWED_ORIGINS") {
		t.Errorf("expected CORS_ALLOWED_ORIGINS error, got: %v", err)
	}
}

func TestValidate_OriginWithoutScheme(t *testing.T) {
	t.Parallel()

	cfg := validBaseConfig()
	cfg.Server.AllowedOrigins = []string{"evolution-ecosystem.web.app"}

	err := cfg.Validate()
	if err == nil || !strings.Contains(err.Error(), "scheme") {
		t.Errorf("expected scheme error, got: %v", err)
	}
}

func TestValidate_MissingEngineURL(t *testing.T) {
	t.Parallel()

	cfg := validBaseConfig()
	cfg.Engine.URL = ""

	err := cfg.Validate()
	if err == nil || !strings.Contains(err.Error(), "ENGINE_URL") {
		t.Errorf("expected ENGINE_URL error, got: %v", err)
	}
}

func TestValidate_MissingAuthKeyOutsideDebug(t *testing.T) {
	t.Parallel()

	cfg := validBaseConfig()
	cfg.Auth.PublicKeyPath = ""

	err := cfg.Validate()
	if err == nil || !strings.Contains(err.Error(), "AUTH_PUBLIC_KEY_PATH") {
		t.Errorf("expected AUTH_PUBLIC_KEY_PATH error, got: %v", err)
	}

	// Debug mode relaxes the requirement.
	cfg.Server.Debug = true
	if err := cfg.Validate(); err != nil {
		t.Errorf("expected valid config in debug mode, got: %v", err)
	}
}

func TestValidate_ReportsMultipleFailures(t *testing.T) {
	t.Parallel()

	cfg := validBaseConfig()
	cfg.Server.Port = ""
	cfg.Database.Host = ""
	cfg.Engine.URL = ""

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected error")
	}
	for _, want := range []string{"PORT", "DB_HOST", "ENGINE_URL"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("expected error to mention %s, got: %v", want, err)
		}
	}
}
