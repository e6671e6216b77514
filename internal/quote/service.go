package quote

import (
	"context"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/noah-isme/backend-kargo/internal/money"
	"github.com/noah-isme/backend-kargo/internal/tariff"
)

// RawLineItem is a line item as submitted by clients: numeric fields may be
// JSON numbers or locale-formatted strings ("1.234,56", "12,5").
type RawLineItem struct {
	Description   string    `json:"description"`
	Category      string    `json:"category"`
	Weight        RawNumber `json:"weight"`
	Quantity      RawNumber `json:"quantity"`
	DeclaredValue RawNumber `json:"declaredValue"`
}

// RawNumber captures a numeric JSON field verbatim so normalization failures
// can be reported per field instead of aborting the whole decode.
type RawNumber struct {
	raw string
	set bool
}

// UnmarshalJSON stores the raw token for later normalization.
func (n *RawNumber) UnmarshalJSON(data []byte) error {
	s := strings.TrimSpace(string(data))
	if s == "" || s == "null" {
		return nil
	}
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		s = s[1 : len(s)-1]
	}
	n.raw = s
	n.set = true
	return nil
}

// String returns the captured token.
func (n RawNumber) String() string { return n.raw }

// IsSet reports whether the field was present and non-null.
func (n RawNumber) IsSet() bool { return n.set }

// FieldError pins a normalization failure to one field of one input item.
type FieldError struct {
	Index int    `json:"index"`
	Field string `json:"field"`
	Value string `json:"value"`
}

// InvalidItemsError reports every raw numeric field that failed
// normalization. It wraps money.ErrInvalidNumberFormat so callers can match
// with errors.Is.
type InvalidItemsError struct {
	Fields []FieldError
}

// Error implements the error interface.
func (e *InvalidItemsError) Error() string {
	return fmt.Sprintf("%d line item field(s) failed number normalization", len(e.Fields))
}

// Unwrap exposes the sentinel for errors.Is.
func (e *InvalidItemsError) Unwrap() error { return money.ErrInvalidNumberFormat }

// Service is the single engine entry point the surrounding platform calls.
// It is stateless and safe for concurrent use; tariffs are supplied per call
// so stale snapshots are never reused across requests.
type Service struct{}

// NewService constructs the costing service.
func NewService() *Service { return &Service{} }

// ComputeCost normalizes every numeric field of every raw item, builds a
// fresh tariff table from the snapshot, and aggregates. Field-level
// normalization failures are returned as *InvalidItemsError before any
// aggregation happens; a nil snapshot is a caller contract breach.
func (s *Service) ComputeCost(ctx context.Context, rawItems []RawLineItem, snapshot []tariff.Tier) (Result, error) {
	if snapshot == nil {
		return Result{}, fmt.Errorf("%w: tariff snapshot is nil", ErrPrecondition)
	}
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}
	items, fieldErrs := normalizeItems(rawItems)
	if len(fieldErrs) > 0 {
		return Result{}, &InvalidItemsError{Fields: fieldErrs}
	}
	return Aggregate(items, tariff.NewTable(snapshot))
}

// PreviewWeight is the sample weight used by the tariff administration
// screen to preview a tier's effect.
var PreviewWeight = decimal.NewFromInt(1)

// Preview computes the cost of a one kilogram sample item for the given
// category against the snapshot. The boolean is false when no active tier
// covers the sample weight.
func (s *Service) Preview(category tariff.Category, snapshot []tariff.Tier) (decimal.Decimal, *tariff.Tier, bool) {
	table := tariff.NewTable(snapshot)
	tier, ok := table.Resolve(category, PreviewWeight)
	if !ok {
		return decimal.Zero, nil, false
	}
	cost := money.Round2(tier.BaseCharge.Add(PreviewWeight.Mul(tier.PricePerKg)))
	return cost, &tier, true
}

func normalizeItems(rawItems []RawLineItem) ([]LineItem, []FieldError) {
	items := make([]LineItem, 0, len(rawItems))
	var fieldErrs []FieldError
	for i, raw := range rawItems {
		item := LineItem{
			Description: strings.TrimSpace(raw.Description),
			Category:    tariff.Category(strings.ToLower(strings.TrimSpace(raw.Category))),
		}
		weight, err := normalizeDecimal(raw.Weight)
		if err != nil {
			fieldErrs = append(fieldErrs, FieldError{Index: i, Field: "weight", Value: raw.Weight.String()})
		} else {
			item.Weight = money.Round2(weight)
		}
		qty, err := normalizeQuantity(raw.Quantity)
		if err != nil {
			fieldErrs = append(fieldErrs, FieldError{Index: i, Field: "quantity", Value: raw.Quantity.String()})
		} else {
			item.Quantity = qty
		}
		if raw.DeclaredValue.IsSet() {
			declared, err := normalizeDecimal(raw.DeclaredValue)
			if err != nil || declared.IsNegative() {
				fieldErrs = append(fieldErrs, FieldError{Index: i, Field: "declaredValue", Value: raw.DeclaredValue.String()})
			} else {
				item.DeclaredValue = money.Round2(declared)
			}
		}
		items = append(items, item)
	}
	return items, fieldErrs
}

func normalizeDecimal(n RawNumber) (decimal.Decimal, error) {
	if !n.IsSet() {
		return decimal.Decimal{}, fmt.Errorf("%w: missing value", money.ErrInvalidNumberFormat)
	}
	return money.Parse(n.String())
}

func normalizeQuantity(n RawNumber) (int, error) {
	d, err := normalizeDecimal(n)
	if err != nil {
		return 0, err
	}
	if !d.IsInteger() {
		return 0, fmt.Errorf("%w: quantity must be an integer", money.ErrInvalidNumberFormat)
	}
	return int(d.IntPart()), nil
}
