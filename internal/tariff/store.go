package tariff

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// ErrTierNotFound is returned when a tier id does not exist.
var ErrTierNotFound = errors.New("tariff tier not found")

// ListFilter narrows tier listings.
type ListFilter struct {
	Category   *Category
	ActiveOnly bool
	Page       int
	PerPage    int
}

// TierStore abstracts tier persistence so services and tests can swap the
// postgres implementation for fakes.
type TierStore interface {
	List(ctx context.Context, filter ListFilter) ([]Tier, int64, error)
	Get(ctx context.Context, id uuid.UUID) (Tier, error)
	Create(ctx context.Context, tier Tier) (Tier, error)
	Update(ctx context.Context, tier Tier) (Tier, error)
	Deactivate(ctx context.Context, id uuid.UUID) error
	ActiveSnapshot(ctx context.Context) ([]Tier, error)
}

// Store persists tariff tiers in postgres.
type Store struct {
	pool *pgxpool.Pool
}

// NewStore constructs the postgres-backed tier store.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

const tierColumns = `id, category, min_weight::text, max_weight::text, price_per_kg::text, base_charge::text, active, created_at, updated_at`

// List returns tiers matching the filter with pagination.
func (s *Store) List(ctx context.Context, filter ListFilter) ([]Tier, int64, error) {
	where := "WHERE ($1::text IS NULL OR category = $1) AND (NOT $2::bool OR active)"
	var categoryArg any
	if filter.Category != nil {
		categoryArg = string(*filter.Category)
	}

	var total int64
	if err := s.pool.QueryRow(ctx,
		"SELECT COUNT(*) FROM tariff_tiers "+where,
		categoryArg, filter.ActiveOnly,
	).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count tariff tiers: %w", err)
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	perPage := filter.PerPage
	if perPage < 1 {
		perPage = 50
	}
	rows, err := s.pool.Query(ctx,
		"SELECT "+tierColumns+" FROM tariff_tiers "+where+
			" ORDER BY category, min_weight LIMIT $3 OFFSET $4",
		categoryArg, filter.ActiveOnly, perPage, (page-1)*perPage,
	)
	if err != nil {
		return nil, 0, fmt.Errorf("list tariff tiers: %w", err)
	}
	defer rows.Close()

	tiers, err := scanTiers(rows)
	if err != nil {
		return nil, 0, err
	}
	return tiers, total, nil
}

// Get fetches a single tier by id.
func (s *Store) Get(ctx context.Context, id uuid.UUID) (Tier, error) {
	row := s.pool.QueryRow(ctx,
		"SELECT "+tierColumns+" FROM tariff_tiers WHERE id = $1", id)
	tier, err := scanTier(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Tier{}, ErrTierNotFound
		}
		return Tier{}, fmt.Errorf("get tariff tier: %w", err)
	}
	return tier, nil
}

// Create inserts a new tier and returns the stored row.
func (s *Store) Create(ctx context.Context, tier Tier) (Tier, error) {
	if tier.ID == uuid.Nil {
		tier.ID = uuid.New()
	}
	row := s.pool.QueryRow(ctx, `
		INSERT INTO tariff_tiers (id, category, min_weight, max_weight, price_per_kg, base_charge, active)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING `+tierColumns,
		tier.ID, string(tier.Category),
		tier.MinWeight.String(), tier.MaxWeight.String(),
		tier.PricePerKg.String(), tier.BaseCharge.String(),
		tier.Active,
	)
	created, err := scanTier(row)
	if err != nil {
		return Tier{}, fmt.Errorf("create tariff tier: %w", err)
	}
	return created, nil
}

// Update replaces the mutable fields of a tier.
func (s *Store) Update(ctx context.Context, tier Tier) (Tier, error) {
	row := s.pool.QueryRow(ctx, `
		UPDATE tariff_tiers
		SET category = $2, min_weight = $3, max_weight = $4,
		    price_per_kg = $5, base_charge = $6, active = $7, updated_at = now()
		WHERE id = $1
		RETURNING `+tierColumns,
		tier.ID, string(tier.Category),
		tier.MinWeight.String(), tier.MaxWeight.String(),
		tier.PricePerKg.String(), tier.BaseCharge.String(),
		tier.Active,
	)
	updated, err := scanTier(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Tier{}, ErrTierNotFound
		}
		return Tier{}, fmt.Errorf("update tariff tier: %w", err)
	}
	return updated, nil
}

// Deactivate retires a tier without deleting pricing history.
func (s *Store) Deactivate(ctx context.Context, id uuid.UUID) error {
	tag, err := s.pool.Exec(ctx,
		"UPDATE tariff_tiers SET active = false, updated_at = now() WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("deactivate tariff tier: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrTierNotFound
	}
	return nil
}

// ActiveSnapshot materialises every active tier, ordered for deterministic
// table construction.
func (s *Store) ActiveSnapshot(ctx context.Context) ([]Tier, error) {
	rows, err := s.pool.Query(ctx,
		"SELECT "+tierColumns+" FROM tariff_tiers WHERE active ORDER BY category, min_weight")
	if err != nil {
		return nil, fmt.Errorf("load tariff snapshot: %w", err)
	}
	defer rows.Close()
	return scanTiers(rows)
}

func scanTiers(rows pgx.Rows) ([]Tier, error) {
	var tiers []Tier
	for rows.Next() {
		tier, err := scanTier(rows)
		if err != nil {
			return nil, err
		}
		tiers = append(tiers, tier)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("scan tariff tiers: %w", err)
	}
	return tiers, nil
}

func scanTier(row pgx.Row) (Tier, error) {
	var (
		tier     Tier
		category string
		min      string
		max      string
		perKg    string
		base     string
	)
	if err := row.Scan(&tier.ID, &category, &min, &max, &perKg, &base, &tier.Active, &tier.CreatedAt, &tier.UpdatedAt); err != nil {
		return Tier{}, err
	}
	tier.Category = Category(category)
	var err error
	if tier.MinWeight, err = decimal.NewFromString(min); err != nil {
		return Tier{}, fmt.Errorf("parse min_weight: %w", err)
	}
	if tier.MaxWeight, err = decimal.NewFromString(max); err != nil {
		return Tier{}, fmt.Errorf("parse max_weight: %w", err)
	}
	if tier.PricePerKg, err = decimal.NewFromString(perKg); err != nil {
		return Tier{}, fmt.Errorf("parse price_per_kg: %w", err)
	}
	if tier.BaseCharge, err = decimal.NewFromString(base); err != nil {
		return Tier{}, fmt.Errorf("parse base_charge: %w", err)
	}
	return tier, nil
}
