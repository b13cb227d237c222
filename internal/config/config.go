package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// DefaultSessionSecret is the signing secret used when SESSION_SECRET is
// unset. It is public and must not be relied on outside development.
const DefaultSessionSecret = "your-secret-key"

// Config holds application configuration values.
type Config struct {
	HTTPPort string

	DatabaseDriver string
	DatabaseDSN    string

	SessionSecret string
	SessionTTL    time.Duration

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	PublicDir        string
	LoginRedirectURL string
	AllowedOrigins   []string

	AdminUsername string
	AdminPassword string

	LogLevel  string
	LogFormat string

	// Warnings collects fallbacks applied while loading, to be logged once a
	// logger exists.
	Warnings []string
}

// WeakSecret reports whether the session secret is the built-in default.
func (c Config) WeakSecret() bool {
	return c.SessionSecret == DefaultSessionSecret
}

// Load reads configuration from environment variables with reasonable defaults.
func Load() Config {
	cfg := Config{
		HTTPPort:         getenv("PORT", getenv("HTTP_PORT", "3000")),
		DatabaseDriver:   getenv("DATABASE_DRIVER", "pgx"),
		SessionSecret:    getenv("SESSION_SECRET", DefaultSessionSecret),
		RedisAddr:        os.Getenv("REDIS_ADDR"),
		RedisPassword:    os.Getenv("REDIS_PASSWORD"),
		PublicDir:        getenv("PUBLIC_DIR", "public"),
		LoginRedirectURL: os.Getenv("LOGIN_REDIRECT_URL"),
		AdminUsername:    getenv("ADMIN_USERNAME", "admin"),
		AdminPassword:    getenv("ADMIN_PASSWORD", "admin"),
		LogLevel:         getenv("LOG_LEVEL", "info"),
		LogFormat:        getenv("LOG_FORMAT", "json"),
	}

	// Validate that port is numeric.
	if _, err := strconv.Atoi(cfg.HTTPPort); err != nil {
		cfg.Warnings = append(cfg.Warnings, fmt.Sprintf("invalid PORT value %q, defaulting to 3000", cfg.HTTPPort))
		cfg.HTTPPort = "3000"
	}

	switch cfg.DatabaseDriver {
	case "pgx", "sqlite":
	case "postgres", "postgresql":
		cfg.DatabaseDriver = "pgx"
	default:
		cfg.Warnings = append(cfg.Warnings, fmt.Sprintf("unknown DATABASE_DRIVER %q, defaulting to pgx", cfg.DatabaseDriver))
		cfg.DatabaseDriver = "pgx"
	}

	cfg.DatabaseDSN = os.Getenv("DATABASE_URL")
	if cfg.DatabaseDSN == "" {
		if cfg.DatabaseDriver == "sqlite" {
			cfg.DatabaseDSN = "file:bloodbank.db?_pragma=busy_timeout(5000)"
		} else {
			host := getenv("DB_HOST", "localhost")
			user := getenv("DB_USER", "postgres")
			dbPort := getenv("DB_PORT", "5432")
			name := getenv("DB_NAME", "bloodbank")
			password := os.Getenv("DB_PASSWORD")

			cfg.DatabaseDSN = fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable", user, password, host, dbPort, name)
		}
	}

	cfg.SessionTTL = 12 * time.Hour
	if raw := os.Getenv("SESSION_TTL"); raw != "" {
		ttl, err := time.ParseDuration(raw)
		if err != nil || ttl <= 0 {
			cfg.Warnings = append(cfg.Warnings, fmt.Sprintf("invalid SESSION_TTL value %q, defaulting to 12h", raw))
		} else {
			cfg.SessionTTL = ttl
		}
	}

	if raw := os.Getenv("REDIS_DB"); raw != "" {
		db, err := strconv.Atoi(raw)
		if err != nil || db < 0 {
			cfg.Warnings = append(cfg.Warnings, fmt.Sprintf("invalid REDIS_DB value %q, defaulting to 0", raw))
		} else {
			cfg.RedisDB = db
		}
	}

	for _, origin := range strings.Split(os.Getenv("CORS_ALLOWED_ORIGINS"), ",") {
		if origin = strings.TrimSpace(origin); origin != "" {
			cfg.AllowedOrigins = append(cfg.AllowedOrigins, origin)
		}
	}

	if cfg.WeakSecret() {
		cfg.Warnings = append(cfg.Warnings, "SESSION_SECRET is not set, using the built-in development secret")
	}

	return cfg
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
