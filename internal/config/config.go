package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"
)

// Config holds all bridge configuration.
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Auth     AuthConfig
	Engine   EngineConfig
	Admin    AdminConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port           string
	Debug          bool
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	AllowedOrigins []string
}

// DatabaseConfig holds document database connection settings.
type DatabaseConfig struct {
	Host      string
	Port      string
	Namespace string
	Database  string
	User      string
	Password  string
}

// AuthConfig holds identity token verification settings.
type AuthConfig struct {
	PublicKeyPath string
	Issuer        string
}

// EngineConfig holds optimization engine client settings.
type EngineConfig struct {
	URL     string
	APIKey  string
	Timeout time.Duration
}

// AdminConfig holds operator and engine-callback credentials. Both values
// are bcrypt hashes of the actual keys; the plaintext keys never reach the
// environment.
type AdminConfig struct {
	APIKeyHash         string
	EngineCallbackHash string
}

// Default browser origins permitted to call /api/*: the hosted dashboard
// and a local development server.
var defaultAllowedOrigins = []string{
	"https://evolution-ecosystem.web.app",
	"http://localhost:5000",
}

// Load reads configuration from environment variables with sensible defaults.
func Load() (*Config, error) {
	return &Config{
		Server: ServerConfig{
			Port:           getEnv("PORT", "8080"),
			Debug:          debugEnabled(os.Getenv("FLASK_DEBUG")),
			ReadTimeout:    getDurationEnv("SERVER_READ_TIMEOUT", 15*time.Second),
			WriteTimeout:   getDurationEnv("SERVER_WRITE_TIMEOUT", 15*time.Second),
			AllowedOrigins: getSliceEnv("CORS_ALLOWED_ORIGINS", defaultAllowedOrigins),
		},
		Database: DatabaseConfig{
			Host:      getEnv("DB_HOST", "localhost"),
			Port:      getEnv("DB_PORT", "8000"),
			Namespace: getEnv("DB_NAMESPACE", "ecosystem"),
			Database:  getEnv("DB_DATABASE", "bridge"),
			User:      getEnv("DB_USER", "root"),
			Password:  getEnv("DB_PASSWORD", "root"),
		},
		Auth: AuthConfig{
			PublicKeyPath: getEnv("AUTH_PUBLIC_KEY_PATH", ""),
			Issuer:        getEnv("AUTH_ISSUER", "auth.evolution-ecosystem.web.app"),
		},
		Engine: EngineConfig{
			URL:     getEnv("ENGINE_URL", "http://localhost:9000"),
			APIKey:  getEnv("ENGINE_API_KEY", ""),
			Timeout: getDurationEnv("ENGINE_TIMEOUT", 30*time.Second),
		},
		Admin: AdminConfig{
			APIKeyHash:         getEnv("ADMIN_API_KEY_HASH", ""),
			EngineCallbackHash: getEnv("ENGINE_CALLBACK_KEY_HASH", ""),
		},
	}, nil
}

// debugEnabled implements the FLASK_DEBUG contract kept from the previous
// deployment: the string "true" in any letter case turns debug mode on,
// anything else (including unset) leaves it off.
func debugEnabled(value string) bool {
	return strings.EqualFold(value, "true")
}

// Validate checks that all required configuration values are present and
// valid. It returns an error describing all failures, or nil.
func (c *Config) Validate() error {
	var errs []error

	if c.Server.Port == "" {
		errs = append(errs, errors.New("PORT is required"))
	}
	if len(c.Server.AllowedOrigins) == 0 {
		errs = append(errs, errors.New("CORS_ALLOWED_ORIGINS must have at least one origin"))
	}
	for _, origin := range c.Server.AllowedOrigins {
		if origin != "*" && !strings.HasPrefix(origin, "http://") && !strings.HasPrefix(origin, "https://") {
			errs = append(errs, fmt.Errorf("allowed origin %q must include a scheme", origin))
		}
	}

	if c.Database.Host == "" {
		errs = append(errs, errors.New("DB_HOST is required"))
	}
	if c.Database.Port == "" {
		errs = append(errs, errors.New("DB_PORT is required"))
	}
	if c.Database.Namespace == "" {
		errs = append(errs, errors.New("DB_NAMESPACE is required"))
	}
	if c.Database.Database == "" {
		errs = append(errs, errors.New("DB_DATABASE is required"))
	}

	// Debug mode may run without a provider key (dev-token workflow);
	// anything else must be able to verify identity tokens.
	if !c.Server.Debug && c.Auth.PublicKeyPath == "" {
		errs = append(errs, errors.New("AUTH_PUBLIC_KEY_PATH is required outside debug mode"))
	}
	if c.Auth.Issuer == "" {
		errs = append(errs, errors.New("AUTH_ISSUER is required"))
	}

	if c.Engine.URL == "" {
		errs = append(errs, errors.New("ENGINE_URL is required"))
	} else if !strings.HasPrefix(c.Engine.URL, "http://") && !strings.HasPrefix(c.Engine.URL, "https://") {
		errs = append(errs, fmt.Errorf("ENGINE_URL %q must include a scheme", c.Engine.URL))
	}
	if c.Engine.Timeout <= 0 {
		errs = append(errs, errors.New("ENGINE_TIMEOUT must be positive"))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}

// Helper functions for reading environment variables.

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func getSliceEnv(key string, defaultValue []string) []string {
	if value := os.Getenv(key); value != "" {
		parts := strings.Split(value, ",")
		out := make([]string, 0, len(parts))
		for _, p := range parts {
			if trimmed := strings.TrimSpace(p); trimmed != "" {
				out = append(out, trimmed)
			}
		}
		if len(out) > 0 {
			return out
		}
	}
	return defaultValue
}
