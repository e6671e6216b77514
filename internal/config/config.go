package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/v2"
)

// Config holds application configuration loaded from the environment.
type Config struct {
	AppEnv             string
	Port               string
	DatabaseURL        string
	RedisURL           string
	CORSAllowedOrigins []string

	JWTSecret string
	TokenTTL  time.Duration
	JWTIssuer string

	AdminClientID         string
	AdminClientSecretHash string
	APIClientID           string
	APIClientSecretHash   string

	TariffCacheTTL time.Duration
	QuoteMaxItems  int

	QuoteRateWindow time.Duration
	QuoteRateMax    int
	TokenRateLimit  string

	AuditInterval time.Duration
	AuditLockTTL  time.Duration

	DBMaxOpenConns int
	DBMaxIdleConns int

	PprofEnabled bool
}

// Load reads configuration from environment variables and optional .env files.
func Load() (*Config, error) {
	_ = godotenv.Load()

	k := koanf.New(".")
	if err := k.Load(env.Provider("", ".", func(s string) string { return s }), nil); err != nil {
		return nil, fmt.Errorf("load env: %w", err)
	}

	cfg := &Config{
		AppEnv:             valueOrDefault(k.String("APP_ENV"), "development"),
		Port:               valueOrDefault(k.String("PORT"), "8080"),
		DatabaseURL:        k.String("DATABASE_URL"),
		RedisURL:           k.String("REDIS_URL"),
		CORSAllowedOrigins: splitAndTrim(k.String("CORS_ALLOWED_ORIGINS")),

		JWTSecret: k.String("JWT_SECRET"),
		TokenTTL:  parseDuration(k.String("TOKEN_TTL"), "15m"),
		JWTIssuer: valueOrDefault(k.String("JWT_ISSUER"), "backend-kargo"),

		AdminClientID:         valueOrDefault(k.String("ADMIN_CLIENT_ID"), "ops-console"),
		AdminClientSecretHash: k.String("ADMIN_CLIENT_SECRET_HASH"),
		APIClientID:           valueOrDefault(k.String("API_CLIENT_ID"), "storefront"),
		APIClientSecretHash:   k.String("API_CLIENT_SECRET_HASH"),

		TariffCacheTTL: parseDuration(k.String("TARIFF_CACHE_TTL"), "5m"),
		QuoteMaxItems:  parseInt(k.String("QUOTE_MAX_ITEMS"), 100),

		QuoteRateWindow: parseDuration(k.String("QUOTE_RATE_WINDOW"), "1m"),
		QuoteRateMax:    parseInt(k.String("QUOTE_RATE_MAX"), 120),
		TokenRateLimit:  valueOrDefault(k.String("TOKEN_RATE_LIMIT"), "10-M"),

		AuditInterval: parseDuration(k.String("AUDIT_INTERVAL"), "15m"),
		AuditLockTTL:  parseDuration(k.String("AUDIT_LOCK_TTL"), "1m"),

		DBMaxOpenConns: parseInt(k.String("DB_MAX_OPEN_CONNS"), 0),
		DBMaxIdleConns: parseInt(k.String("DB_MAX_IDLE_CONNS"), 0),

		PprofEnabled: parseBool(k.String("PPROF_ENABLED")),
	}

	if cfg.DatabaseURL == "" {
		return nil, errors.New("DATABASE_URL is required")
	}
	if cfg.RedisURL == "" {
		return nil, errors.New("REDIS_URL is required")
	}
	if cfg.JWTSecret == "" {
		return nil, errors.New("JWT_SECRET is required")
	}
	if cfg.AdminClientSecretHash == "" {
		return nil, errors.New("ADMIN_CLIENT_SECRET_HASH is required")
	}
	if cfg.APIClientSecretHash == "" {
		return nil, errors.New("API_CLIENT_SECRET_HASH is required")
	}

	return cfg, nil
}

// HTTPAddr returns the address the HTTP server should bind to.
func (c *Config) HTTPAddr() string {
	port := strings.TrimSpace(c.Port)
	if port == "" {
		port = "8080"
	}
	if strings.HasPrefix(port, ":") {
		return port
	}
	return ":" + port
}

func splitAndTrim(value string) []string {
	if value == "" {
		return nil
	}
	parts := strings.Split(value, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}

func valueOrDefault(value, fallback string) string {
	if strings.TrimSpace(value) != "" {
		return value
	}
	return fallback
}

func parseDuration(value, fallback string) time.Duration {
	base := strings.TrimSpace(value)
	if base == "" {
		base = fallback
	}
	d, err := time.ParseDuration(base)
	if err != nil {
		d, _ = time.ParseDuration(fallback)
	}
	return d
}

func parseInt(value string, fallback int) int {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return fallback
	}
	n, err := strconv.Atoi(trimmed)
	if err != nil {
		return fallback
	}
	return n
}

func parseBool(value string) bool {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "1", "true", "yes", "on":
		return true
	default:
		return false
	}
}

// MustLoad behaves like Load but panics on error. Useful for tests and command entrypoints.
func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		panic(err)
	}
	return cfg
}

// LoadForTests allows tests to override environment variables without touching the real environment.
func LoadForTests(env map[string]string) (*Config, error) {
	original := make(map[string]string, len(env))
	for key := range env {
		original[key] = os.Getenv(key)
		if err := setEnvVar(key, env[key]); err != nil {
			return nil, err
		}
	}
	cfg, err := Load()
	restoreErr := restoreEnv(original)
	if err != nil {
		return nil, err
	}
	return cfg, restoreErr
}

func setEnvVar(key, value string) error {
	if value == "" {
		return os.Unsetenv(key)
	}
	return os.Setenv(key, value)
}

func restoreEnv(values map[string]string) error {
	var errs []string
	for key, value := range values {
		if err := setEnvVar(key, value); err != nil {
			errs = append(errs, fmt.Sprintf("%s: %v", key, err))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("restore env: %s", strings.Join(errs, "; "))
	}
	return nil
}
