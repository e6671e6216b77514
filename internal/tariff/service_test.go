package tariff_test

import (
	"context"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/backend-kargo/internal/common"
	"github.com/noah-isme/backend-kargo/internal/events"
	"github.com/noah-isme/backend-kargo/internal/money"
	"github.com/noah-isme/backend-kargo/internal/tariff"
)

type fakeTierStore struct {
	mu    sync.Mutex
	tiers map[uuid.UUID]tariff.Tier
}

func newFakeTierStore() *fakeTierStore {
	return &fakeTierStore{tiers: make(map[uuid.UUID]tariff.Tier)}
}

func (f *fakeTierStore) List(_ context.Context, filter tariff.ListFilter) ([]tariff.Tier, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []tariff.Tier
	for _, tier := range f.tiers {
		if filter.Category != nil && tier.Category != *filter.Category {
			continue
		}
		if filter.ActiveOnly && !tier.Active {
			continue
		}
		out = append(out, tier)
	}
	return out, int64(len(out)), nil
}

func (f *fakeTierStore) Get(_ context.Context, id uuid.UUID) (tariff.Tier, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	tier, ok := f.tiers[id]
	if !ok {
		return tariff.Tier{}, tariff.ErrTierNotFound
	}
	return tier, nil
}

func (f *fakeTierStore) Create(_ context.Context, tier tariff.Tier) (tariff.Tier, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if tier.ID == uuid.Nil {
		tier.ID = uuid.New()
	}
	f.tiers[tier.ID] = tier
	return tier, nil
}

func (f *fakeTierStore) Update(_ context.Context, tier tariff.Tier) (tariff.Tier, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.tiers[tier.ID]; !ok {
		return tariff.Tier{}, tariff.ErrTierNotFound
	}
	f.tiers[tier.ID] = tier
	return tier, nil
}

func (f *fakeTierStore) Deactivate(_ context.Context, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	tier, ok := f.tiers[id]
	if !ok {
		return tariff.ErrTierNotFound
	}
	tier.Active = false
	f.tiers[id] = tier
	return nil
}

func (f *fakeTierStore) ActiveSnapshot(_ context.Context) ([]tariff.Tier, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []tariff.Tier
	for _, tier := range f.tiers {
		if tier.Active {
			out = append(out, tier)
		}
	}
	return out, nil
}

func value(t *testing.T, s string) money.Value {
	t.Helper()
	d, err := money.Parse(s)
	require.NoError(t, err)
	return money.NewValue(d)
}

func TestServiceCreatePublishesAndStores(t *testing.T) {
	store := newFakeTierStore()
	bus := events.NewBus(zerologNop())
	var published []string
	bus.Subscribe(events.TopicTariffUpdated, func(_ context.Context, ev events.Event) error {
		published = append(published, ev.Topic)
		return nil
	})

	svc, err := tariff.NewService(tariff.ServiceConfig{Store: store, Bus: bus})
	require.NoError(t, err)

	tier, err := svc.Create(context.Background(), tariff.TierInput{
		Category:   "home",
		MinWeight:  value(t, "0"),
		MaxWeight:  value(t, "5"),
		PricePerKg: value(t, "2,50"),
		BaseCharge: value(t, "1"),
	})
	require.NoError(t, err)
	require.NotEqual(t, uuid.Nil, tier.ID)
	require.True(t, tier.Active)
	require.Equal(t, "2.50", tier.PricePerKg.StringFixed(2))
	require.Equal(t, []string{events.TopicTariffUpdated}, published)

	snapshot, err := svc.ActiveSnapshot(context.Background())
	require.NoError(t, err)
	require.Len(t, snapshot, 1)
}

func TestServiceCreateRejectsInvalidInput(t *testing.T) {
	svc, err := tariff.NewService(tariff.ServiceConfig{Store: newFakeTierStore()})
	require.NoError(t, err)

	t.Run("unknown category", func(t *testing.T) {
		_, err := svc.Create(context.Background(), tariff.TierInput{
			Category:  "furniture",
			MinWeight: value(t, "0"),
			MaxWeight: value(t, "5"),
		})
		require.True(t, common.IsAppError(err))
	})

	t.Run("inverted bounds", func(t *testing.T) {
		_, err := svc.Create(context.Background(), tariff.TierInput{
			Category:  "home",
			MinWeight: value(t, "5"),
			MaxWeight: value(t, "2"),
		})
		require.True(t, common.IsAppError(err))
	})
}

func TestServiceUpdateNotFound(t *testing.T) {
	svc, err := tariff.NewService(tariff.ServiceConfig{Store: newFakeTierStore()})
	require.NoError(t, err)

	_, err = svc.Update(context.Background(), uuid.New(), tariff.TierInput{
		Category:  "home",
		MinWeight: value(t, "0"),
		MaxWeight: value(t, "5"),
	})
	var appErr *common.AppError
	require.ErrorAs(t, err, &appErr)
	require.Equal(t, common.CodeNotFound, appErr.Code)
}

func TestServiceCoverageReportsGaps(t *testing.T) {
	store := newFakeTierStore()
	svc, err := tariff.NewService(tariff.ServiceConfig{Store: store})
	require.NoError(t, err)

	_, err = svc.Create(context.Background(), tariff.TierInput{
		Category:  "home",
		MinWeight: value(t, "2"),
		MaxWeight: value(t, "5"),
	})
	require.NoError(t, err)

	issues, err := svc.Coverage(context.Background())
	require.NoError(t, err)
	require.Len(t, issues, 1)
	require.Equal(t, tariff.IssueGap, issues[0].Kind)
}
