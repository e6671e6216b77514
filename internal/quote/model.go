package quote

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/noah-isme/backend-kargo/internal/tariff"
)

// LineItem is one normalized product entry within a shipment being costed.
// Weights and declared values carry the canonical two-decimal scale.
type LineItem struct {
	Description   string
	Category      tariff.Category
	Weight        decimal.Decimal
	Quantity      int
	DeclaredValue decimal.Decimal
}

// Valid reports whether the item participates in aggregation. Items failing
// these checks are excluded from both the breakdown and the total, they are
// not zeroed.
func (li LineItem) Valid() bool {
	if !li.Category.Valid() {
		return false
	}
	if !li.Weight.IsPositive() {
		return false
	}
	if li.Quantity < 1 {
		return false
	}
	return true
}

// HasCategory reports whether the category field is present at all. A fully
// missing category is a caller contract breach rather than a data problem.
func (li LineItem) HasCategory() bool {
	return strings.TrimSpace(string(li.Category)) != ""
}

// BreakdownEntry is the per-item output of an aggregation pass. Tier is nil
// for items no active tier covered.
type BreakdownEntry struct {
	Item     LineItem
	Tier     *tariff.Tier
	ItemCost decimal.Decimal
}

// Result aggregates entries, the rounded total, and items left without
// tariff coverage. Entries keep the relative order of the valid input items
// so callers can reconcile entry N with input item N.
type Result struct {
	Entries    []BreakdownEntry
	TotalCost  decimal.Decimal
	Unresolved []LineItem
}
