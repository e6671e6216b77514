package config_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/backend-kargo/internal/config"
)

func baseEnv() map[string]string {
	return map[string]string{
		"DATABASE_URL":             "postgres://localhost/kargo",
		"REDIS_URL":                "redis://localhost:6379/0",
		"JWT_SECRET":               "test-secret",
		"ADMIN_CLIENT_SECRET_HASH": "$argon2id$v=19$m=65536,t=1,p=2$x$y",
		"API_CLIENT_SECRET_HASH":   "$argon2id$v=19$m=65536,t=1,p=2$x$y",
	}
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := config.LoadForTests(baseEnv())
	require.NoError(t, err)

	require.Equal(t, ":8080", cfg.HTTPAddr())
	require.Equal(t, 15*time.Minute, cfg.TokenTTL)
	require.Equal(t, 5*time.Minute, cfg.TariffCacheTTL)
	require.Equal(t, 100, cfg.QuoteMaxItems)
	require.Equal(t, 120, cfg.QuoteRateMax)
	require.Equal(t, "ops-console", cfg.AdminClientID)
	require.Equal(t, "10-M", cfg.TokenRateLimit)
}

func TestLoadOverrides(t *testing.T) {
	env := baseEnv()
	env["PORT"] = "9090"
	env["QUOTE_MAX_ITEMS"] = "25"
	env["TARIFF_CACHE_TTL"] = "30s"
	env["CORS_ALLOWED_ORIGINS"] = "https://a.example, https://b.example"

	cfg, err := config.LoadForTests(env)
	require.NoError(t, err)

	require.Equal(t, ":9090", cfg.HTTPAddr())
	require.Equal(t, 25, cfg.QuoteMaxItems)
	require.Equal(t, 30*time.Second, cfg.TariffCacheTTL)
	require.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORSAllowedOrigins)
}

func TestLoadRequiredFields(t *testing.T) {
	for _, missing := range []string{
		"DATABASE_URL", "REDIS_URL", "JWT_SECRET",
		"ADMIN_CLIENT_SECRET_HASH", "API_CLIENT_SECRET_HASH",
	} {
		t.Run(missing, func(t *testing.T) {
			env := baseEnv()
			env[missing] = ""
			_, err := config.LoadForTests(env)
			require.Error(t, err)
		})
	}
}

func TestBadDurationFallsBack(t *testing.T) {
	env := baseEnv()
	env["TOKEN_TTL"] = "not-a-duration"
	cfg, err := config.LoadForTests(env)
	require.NoError(t, err)
	require.Equal(t, 15*time.Minute, cfg.TokenTTL)
}
