package app

import (
	"github.com/alexedwards/argon2id"
	migrate "github.com/golang-migrate/migrate/v4"
	redis "github.com/redis/go-redis/v9"
	limiter "github.com/ulule/limiter/v3"
	mhttp "github.com/ulule/limiter/v3/drivers/middleware/stdlib"
	limiterredis "github.com/ulule/limiter/v3/drivers/store/redis"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// HashSecret hashes a client secret for storage in configuration.
func HashSecret(secret string) (string, error) {
	return argon2id.CreateHash(secret, argon2id.DefaultParams)
}

// NewTokenRateLimiter builds the fixed-window limiter middleware guarding
// the credential exchange endpoint. The rate uses the formatted notation,
// e.g. "10-M" for ten requests per minute per source address.
func NewTokenRateLimiter(rdb *redis.Client, formatted string) (*mhttp.Middleware, error) {
	rate, err := limiter.NewRateFromFormatted(formatted)
	if err != nil {
		return nil, err
	}
	store, err := limiterredis.NewStoreWithOptions(rdb, limiter.StoreOptions{
		Prefix: "auth:token:rl",
	})
	if err != nil {
		return nil, err
	}
	return mhttp.NewMiddleware(limiter.New(store, rate)), nil
}

// RunMigrations applies pending migrations, treating an up-to-date schema
// as success.
func RunMigrations(m *migrate.Migrate) error {
	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		return err
	}
	return nil
}

// Tracer returns the default OpenTelemetry tracer for instrumentation hooks.
func Tracer(name string) trace.Tracer {
	return otel.Tracer(name)
}

// Meter returns the default OpenTelemetry meter for instrumentation hooks.
func Meter(name string) metric.Meter {
	return otel.Meter(name)
}
