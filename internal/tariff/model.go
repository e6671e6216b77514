package tariff

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Category identifies the product category a tariff tier prices.
type Category string

// Supported product categories.
const (
	CategoryElectronics Category = "electronics"
	CategoryClothing    Category = "clothing"
	CategoryHome        Category = "home"
	CategorySports      Category = "sports"
	CategoryOther       Category = "other"
)

// Categories returns the fixed category enumeration in display order.
func Categories() []Category {
	return []Category{CategoryElectronics, CategoryClothing, CategoryHome, CategorySports, CategoryOther}
}

// ParseCategory normalises and validates a raw category value.
func ParseCategory(raw string) (Category, error) {
	c := Category(strings.ToLower(strings.TrimSpace(raw)))
	if !c.Valid() {
		return "", fmt.Errorf("unknown category: %q", raw)
	}
	return c, nil
}

// Valid reports whether the category is part of the enumeration.
func (c Category) Valid() bool {
	switch c {
	case CategoryElectronics, CategoryClothing, CategoryHome, CategorySports, CategoryOther:
		return true
	default:
		return false
	}
}

// Tier is a priced weight bracket for a category. The bracket is half-open:
// a weight w is covered when MinWeight <= w < MaxWeight.
type Tier struct {
	ID         uuid.UUID       `json:"id"`
	Category   Category        `json:"category"`
	MinWeight  decimal.Decimal `json:"minWeight"`
	MaxWeight  decimal.Decimal `json:"maxWeight"`
	PricePerKg decimal.Decimal `json:"pricePerKg"`
	BaseCharge decimal.Decimal `json:"baseCharge"`
	Active     bool            `json:"active"`
	CreatedAt  time.Time       `json:"createdAt"`
	UpdatedAt  time.Time       `json:"updatedAt"`
}

// Covers reports whether the tier's bracket contains the given weight.
func (t Tier) Covers(weight decimal.Decimal) bool {
	return t.MinWeight.Cmp(weight) <= 0 && weight.Cmp(t.MaxWeight) < 0
}

// Validate checks the structural invariants of a tier.
func (t Tier) Validate() error {
	if !t.Category.Valid() {
		return fmt.Errorf("unknown category: %q", t.Category)
	}
	if t.MinWeight.IsNegative() {
		return fmt.Errorf("min weight must not be negative")
	}
	if t.MinWeight.Cmp(t.MaxWeight) >= 0 {
		return fmt.Errorf("min weight %s must be below max weight %s", t.MinWeight, t.MaxWeight)
	}
	if t.PricePerKg.IsNegative() {
		return fmt.Errorf("price per kg must not be negative")
	}
	if t.BaseCharge.IsNegative() {
		return fmt.Errorf("base charge must not be negative")
	}
	return nil
}
