package internal

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Session store backends.
const (
	SessionStoreCookie   = "cookie"
	SessionStorePostgres = "postgres"
	SessionStoreMemory   = "memory"
)

type Config struct {
	Env      string
	Port     int
	LogLevel string

	// Remote REST API. Empty in development selects the in-process demo backend.
	APIBaseURL string
	APITimeout time.Duration

	// Session storage
	SessionStore         string // "cookie", "postgres" or "memory"
	DatabaseUrl          string // required when SessionStore is "postgres"
	SessionTokenTTL      time.Duration
	SessionProfileTTL    time.Duration
	SessionSweepInterval time.Duration

	// List screens
	SearchDebounce time.Duration
	ScreensFile    string // optional JSONC override of the embedded screens

	// Sign-in rate limiting
	LoginRateLimit  int
	LoginRateWindow time.Duration

	// Metrics endpoint authentication
	// If both are empty, the /metrics endpoint will be unprotected (not recommended)
	MetricsUsername string
	MetricsPassword string
}

func NewConfig() (*Config, error) {
	// Load .env file if it exists (ignored in production)
	_ = godotenv.Load()

	cfg := &Config{
		Env:      getEnv("ENV", "development"),
		Port:     getEnvInt("PORT", 8080),
		LogLevel: getEnv("LOG_LEVEL", "debug"),

		APIBaseURL: getEnv("API_BASE_URL", ""),
		APITimeout: getEnvDuration("API_TIMEOUT", 15*time.Second),

		SessionStore:         getEnv("SESSION_STORE", SessionStoreCookie),
		DatabaseUrl:          getEnv("DATABASE_URL", ""),
		SessionTokenTTL:      getEnvDuration("SESSION_TOKEN_TTL", 12*time.Hour),
		SessionProfileTTL:    getEnvDuration("SESSION_PROFILE_TTL", 720*time.Hour),
		SessionSweepInterval: getEnvDuration("SESSION_SWEEP_INTERVAL", 10*time.Minute),

		SearchDebounce: getEnvDuration("SEARCH_DEBOUNCE", 300*time.Millisecond),
		ScreensFile:    getEnv("SCREENS_FILE", ""),

		LoginRateLimit:  getEnvInt("LOGIN_RATE_LIMIT", 5),
		LoginRateWindow: getEnvDuration("LOGIN_RATE_WINDOW", 15*time.Minute),

		MetricsUsername: getEnv("METRICS_USERNAME", ""),
		MetricsPassword: getEnv("METRICS_PASSWORD", ""),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// IsDevelopment reports whether the server runs in development mode.
func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

// UseDemoBackend reports whether the in-process demo backend replaces the
// remote API.
func (c *Config) UseDemoBackend() bool {
	return c.APIBaseURL == "" && c.IsDevelopment()
}

// Validate checks the configuration for missing or inconsistent values.
func (c *Config) Validate() error {
	if c.APIBaseURL == "" {
		if !c.IsDevelopment() {
			return fmt.Errorf("API_BASE_URL is required when ENV is %q", c.Env)
		}
	} else {
		u, err := url.Parse(c.APIBaseURL)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return fmt.Errorf("API_BASE_URL must be an absolute http(s) URL, got: %s", c.APIBaseURL)
		}
	}
	if c.APITimeout <= 0 {
		return fmt.Errorf("API_TIMEOUT must be positive, got: %s", c.APITimeout)
	}

	switch c.SessionStore {
	case SessionStoreCookie, SessionStoreMemory:
	case SessionStorePostgres:
		if c.DatabaseUrl == "" {
			return fmt.Errorf("DATABASE_URL is required when SESSION_STORE is 'postgres'")
		}
		if c.SessionSweepInterval <= 0 {
			return fmt.Errorf("SESSION_SWEEP_INTERVAL must be positive, got: %s", c.SessionSweepInterval)
		}
	default:
		return fmt.Errorf("SESSION_STORE must be one of 'cookie', 'postgres' or 'memory', got: %s", c.SessionStore)
	}

	if c.SessionTokenTTL <= 0 || c.SessionProfileTTL <= 0 {
		return fmt.Errorf("SESSION_TOKEN_TTL and SESSION_PROFILE_TTL must be positive")
	}
	if c.SearchDebounce < 0 {
		return fmt.Errorf("SEARCH_DEBOUNCE must not be negative, got: %s", c.SearchDebounce)
	}
	if c.LoginRateLimit <= 0 || c.LoginRateWindow <= 0 {
		return fmt.Errorf("LOGIN_RATE_LIMIT and LOGIN_RATE_WINDOW must be positive")
	}
	return nil
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return fallback
}
