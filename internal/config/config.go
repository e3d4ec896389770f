package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Credential modes understood by the HTTP client
const (
	CredentialModeBearer = "bearer"
	CredentialModeCookie = "cookie"
)

// Config holds all configuration for the web front end
type Config struct {
	Server  ServerConfig
	Backend BackendConfig
	GitHub  GitHubConfig
	Session SessionConfig
	Logging LoggingConfig
}

// ServerConfig holds HTTP listener configuration
type ServerConfig struct {
	Address     string   `env:"SERVER_ADDRESS" envDefault:":3000"`
	CORSOrigins []string `env:"CORS_ORIGINS" envDefault:"http://localhost:3000" envSeparator:","`
}

// BackendConfig describes how the external backend is reached
type BackendConfig struct {
	URL string `env:"BACKEND_URL" envDefault:"http://localhost:8000"`
	// APIPrefix is prepended to every backend call and is the proxied path prefix.
	APIPrefix      string        `env:"API_PREFIX" envDefault:"/api"`
	CredentialMode string        `env:"CREDENTIAL_MODE" envDefault:"bearer"`
	Timeout        time.Duration `env:"HTTP_TIMEOUT" envDefault:"30s"`
}

// GitHubConfig holds GitHub sign-in configuration.
// AuthURL wins over the client settings when both are present.
type GitHubConfig struct {
	AuthURL     string   `env:"GITHUB_AUTH_URL"`
	ClientID    string   `env:"GITHUB_CLIENT_ID"`
	RedirectURL string   `env:"GITHUB_REDIRECT_URL"`
	Scopes      []string `env:"GITHUB_SCOPES" envDefault:"read:user,user:email" envSeparator:","`
}

// SessionConfig holds cookie and navigation settings
type SessionConfig struct {
	CookieSecure  bool          `env:"COOKIE_SECURE" envDefault:"false"`
	TokenMaxAge   time.Duration `env:"TOKEN_MAX_AGE" envDefault:"168h"`
	RedirectDelay time.Duration `env:"REDIRECT_DELAY" envDefault:"2s"`
	CountdownFrom int           `env:"COUNTDOWN_FROM" envDefault:"5"`
}

// LoggingConfig holds logging-related configuration
type LoggingConfig struct {
	Level  string `env:"LOG_LEVEL" envDefault:"info"`
	Format string `env:"LOG_FORMAT" envDefault:"json"` // json, console
}

// Load loads configuration from .env files and environment variables
func Load() (*Config, error) {
	// Load .env files (fails silently if files don't exist)
	_ = godotenv.Load(".env")
	_ = godotenv.Load(".env.local")

	return Parse()
}

// Parse reads the current environment without touching .env files
func Parse() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate normalizes and checks the loaded values
func (c *Config) Validate() error {
	c.Backend.URL = strings.TrimRight(c.Backend.URL, "/")
	if c.Backend.URL == "" {
		return fmt.Errorf("BACKEND_URL must not be empty")
	}

	if c.Backend.APIPrefix != "" && !strings.HasPrefix(c.Backend.APIPrefix, "/") {
		c.Backend.APIPrefix = "/" + c.Backend.APIPrefix
	}
	c.Backend.APIPrefix = strings.TrimRight(c.Backend.APIPrefix, "/")

	mode := strings.ToLower(strings.TrimSpace(c.Backend.CredentialMode))
	switch mode {
	case CredentialModeBearer, CredentialModeCookie:
		c.Backend.CredentialMode = mode
	default:
		return fmt.Errorf("invalid CREDENTIAL_MODE %q, must be one of: bearer, cookie", c.Backend.CredentialMode)
	}

	if c.Session.CountdownFrom <= 0 {
		return fmt.Errorf("COUNTDOWN_FROM must be positive, got %d", c.Session.CountdownFrom)
	}

	if c.Session.RedirectDelay < 0 {
		return fmt.Errorf("REDIRECT_DELAY must not be negative")
	}

	return nil
}
