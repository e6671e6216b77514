package audit

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"

	"github.com/noah-isme/backend-kargo/internal/lock"
	"github.com/noah-isme/backend-kargo/internal/obs"
	"github.com/noah-isme/backend-kargo/internal/tariff"
)

const lockKey = "audit:coverage:lock"

// SnapshotSource supplies the active tariff tiers to audit.
type SnapshotSource interface {
	ActiveSnapshot(ctx context.Context) ([]tariff.Tier, error)
}

// Auditor scans the active tariff table for coverage gaps and overlaps,
// logs each issue and keeps the per-category gauges current.
type Auditor struct {
	Source  SnapshotSource
	Locker  lock.Locker
	LockTTL time.Duration
	Logger  zerolog.Logger
}

// Run performs one coverage scan under the distributed lock. When another
// instance holds the lock the scan is skipped, not queued.
func (a Auditor) Run(ctx context.Context) error {
	if a.Source == nil {
		return errors.New("audit: snapshot source not configured")
	}
	ttl := a.LockTTL
	if ttl <= 0 {
		ttl = time.Minute
	}
	ran, err := a.Locker.TryLock(ctx, lockKey, ttl, a.scan)
	if err != nil {
		return err
	}
	if !ran {
		a.Logger.Debug().Msg("coverage audit already running elsewhere")
	}
	return nil
}

func (a Auditor) scan(ctx context.Context) error {
	tiers, err := a.Source.ActiveSnapshot(ctx)
	if err != nil {
		return fmt.Errorf("load active tiers: %w", err)
	}
	issues := tariff.ValidateCoverage(tiers)

	gaps := map[tariff.Category]int{}
	overlaps := map[tariff.Category]int{}
	for _, issue := range issues {
		switch issue.Kind {
		case tariff.IssueGap:
			gaps[issue.Category]++
		case tariff.IssueOverlap:
			overlaps[issue.Category]++
		}
		a.Logger.Warn().
			Str("category", string(issue.Category)).
			Str("kind", string(issue.Kind)).
			Str("from", issue.From.String()).
			Str("to", issue.To.String()).
			Int("tiers", len(issue.TierIDs)).
			Msg("tariff coverage issue")
	}
	for _, category := range tariff.Categories() {
		obs.SetCoverage(string(category), gaps[category], overlaps[category])
	}
	a.Logger.Info().
		Int("tiers", len(tiers)).
		Int("issues", len(issues)).
		Msg("tariff coverage audit complete")
	return nil
}

// HandleTask adapts the auditor to the asynq handler interface.
func (a Auditor) HandleTask(ctx context.Context, _ *asynq.Task) error {
	return a.Run(ctx)
}
