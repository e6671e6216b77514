package audit_test

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	redis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/backend-kargo/internal/audit"
	"github.com/noah-isme/backend-kargo/internal/lock"
	"github.com/noah-isme/backend-kargo/internal/tariff"
)

type staticSource struct {
	tiers []tariff.Tier
}

func (s staticSource) ActiveSnapshot(context.Context) ([]tariff.Tier, error) {
	return s.tiers, nil
}

func dec(t *testing.T, s string) decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(s)
	require.NoError(t, err)
	return d
}

func newAuditor(t *testing.T, tiers []tariff.Tier, out *bytes.Buffer) audit.Auditor {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return audit.Auditor{
		Source:  staticSource{tiers: tiers},
		Locker:  lock.Locker{R: client, RetryBackoff: time.Millisecond},
		LockTTL: time.Second,
		Logger:  zerolog.New(out),
	}
}

func TestAuditorReportsGaps(t *testing.T) {
	tiers := []tariff.Tier{{
		ID:        uuid.New(),
		Category:  tariff.CategorySports,
		MinWeight: dec(t, "3"),
		MaxWeight: dec(t, "10"),
		Active:    true,
	}}
	var out bytes.Buffer
	auditor := newAuditor(t, tiers, &out)

	require.NoError(t, auditor.Run(context.Background()))

	logged := out.String()
	require.Contains(t, logged, "tariff coverage issue")
	require.Contains(t, logged, `"category":"sports"`)
	require.Contains(t, logged, `"kind":"gap"`)
	require.Contains(t, logged, "tariff coverage audit complete")
}

func TestAuditorCleanTable(t *testing.T) {
	tiers := []tariff.Tier{{
		ID:        uuid.New(),
		Category:  tariff.CategoryHome,
		MinWeight: dec(t, "0"),
		MaxWeight: dec(t, "100"),
		Active:    true,
	}}
	var out bytes.Buffer
	auditor := newAuditor(t, tiers, &out)

	require.NoError(t, auditor.Run(context.Background()))
	require.False(t, strings.Contains(out.String(), "tariff coverage issue"))
}
