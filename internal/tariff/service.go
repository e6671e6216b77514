package tariff

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	validator "github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/noah-isme/backend-kargo/internal/common"
	"github.com/noah-isme/backend-kargo/internal/events"
	"github.com/noah-isme/backend-kargo/internal/money"
	"github.com/noah-isme/backend-kargo/internal/obs"
)

// Publisher decouples the service from the event bus wiring.
type Publisher interface {
	Publish(ctx context.Context, topic string, payload any)
}

// Service orchestrates tariff administration and snapshot loading.
type Service struct {
	store    TierStore
	cache    *Cache
	bus      Publisher
	validate *validator.Validate
}

// ServiceConfig groups Service dependencies.
type ServiceConfig struct {
	Store    TierStore
	Cache    *Cache
	Bus      Publisher
	Validate *validator.Validate
}

// NewService constructs a tariff Service.
func NewService(cfg ServiceConfig) (*Service, error) {
	if cfg.Store == nil {
		return nil, errors.New("tariff: store is required")
	}
	v := cfg.Validate
	if v == nil {
		v = validator.New()
	}
	return &Service{store: cfg.Store, cache: cfg.Cache, bus: cfg.Bus, validate: v}, nil
}

// TierInput captures the payload for creating or updating a tier. Numeric
// fields accept JSON numbers or locale-formatted strings.
type TierInput struct {
	Category   string      `json:"category" validate:"required,oneof=electronics clothing home sports other"`
	MinWeight  money.Value `json:"minWeight"`
	MaxWeight  money.Value `json:"maxWeight"`
	PricePerKg money.Value `json:"pricePerKg"`
	BaseCharge money.Value `json:"baseCharge"`
	Active     *bool       `json:"active"`
}

// List returns tiers matching the filter.
func (s *Service) List(ctx context.Context, filter ListFilter) ([]Tier, int64, error) {
	return s.store.List(ctx, filter)
}

// Get fetches one tier.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (Tier, error) {
	tier, err := s.store.Get(ctx, id)
	if err != nil {
		return Tier{}, s.mapStoreError(err)
	}
	return tier, nil
}

// Create validates and persists a new tier, then invalidates the snapshot.
func (s *Service) Create(ctx context.Context, input TierInput) (Tier, error) {
	tier, err := s.tierFromInput(input)
	if err != nil {
		return Tier{}, err
	}
	created, err := s.store.Create(ctx, tier)
	if err != nil {
		return Tier{}, err
	}
	s.afterMutation(ctx, created.ID)
	return created, nil
}

// Update replaces a tier's fields and invalidates the snapshot.
func (s *Service) Update(ctx context.Context, id uuid.UUID, input TierInput) (Tier, error) {
	tier, err := s.tierFromInput(input)
	if err != nil {
		return Tier{}, err
	}
	tier.ID = id
	updated, err := s.store.Update(ctx, tier)
	if err != nil {
		return Tier{}, s.mapStoreError(err)
	}
	s.afterMutation(ctx, updated.ID)
	return updated, nil
}

// Deactivate retires a tier and invalidates the snapshot.
func (s *Service) Deactivate(ctx context.Context, id uuid.UUID) error {
	if err := s.store.Deactivate(ctx, id); err != nil {
		return s.mapStoreError(err)
	}
	s.afterMutation(ctx, id)
	return nil
}

// Coverage runs the gap/overlap diagnostic over the stored active tiers.
// It reads straight from the store so administrators always audit the
// authoritative data, never a cached snapshot.
func (s *Service) Coverage(ctx context.Context) ([]CoverageIssue, error) {
	tiers, err := s.store.ActiveSnapshot(ctx)
	if err != nil {
		return nil, err
	}
	return ValidateCoverage(tiers), nil
}

// ActiveSnapshot returns the active tiers, served from the redis cache when
// warm. Mutations invalidate the cache so quote callers never price against
// retired tariffs beyond the cache TTL.
func (s *Service) ActiveSnapshot(ctx context.Context) ([]Tier, error) {
	if cached, ok, err := s.cache.Get(ctx); err == nil && ok {
		obs.IncTariffCache("hit")
		return cached, nil
	} else if err != nil {
		obs.IncTariffCache("error")
	} else {
		obs.IncTariffCache("miss")
	}
	tiers, err := s.store.ActiveSnapshot(ctx)
	if err != nil {
		return nil, err
	}
	if tiers == nil {
		tiers = []Tier{}
	}
	_ = s.cache.Set(ctx, tiers)
	return tiers, nil
}

func (s *Service) tierFromInput(input TierInput) (Tier, error) {
	if err := s.validate.Struct(input); err != nil {
		return Tier{}, &common.AppError{
			Code:       common.CodeValidation,
			Message:    "invalid tariff payload",
			HTTPStatus: http.StatusBadRequest,
			Err:        err,
		}
	}
	active := true
	if input.Active != nil {
		active = *input.Active
	}
	tier := Tier{
		Category:   Category(input.Category),
		MinWeight:  money.Round2(input.MinWeight.Decimal),
		MaxWeight:  money.Round2(input.MaxWeight.Decimal),
		PricePerKg: money.Round2(input.PricePerKg.Decimal),
		BaseCharge: money.Round2(input.BaseCharge.Decimal),
		Active:     active,
	}
	if err := tier.Validate(); err != nil {
		return Tier{}, &common.AppError{
			Code:       common.CodeValidation,
			Message:    err.Error(),
			HTTPStatus: http.StatusBadRequest,
			Err:        err,
		}
	}
	return tier, nil
}

func (s *Service) afterMutation(ctx context.Context, id uuid.UUID) {
	_ = s.cache.Invalidate(ctx)
	if s.bus != nil {
		s.bus.Publish(ctx, events.TopicTariffUpdated, map[string]string{"tierId": id.String()})
	}
}

func (s *Service) mapStoreError(err error) error {
	if errors.Is(err, ErrTierNotFound) {
		return common.NotFound("tariff tier not found", err)
	}
	return fmt.Errorf("tariff store: %w", err)
}
