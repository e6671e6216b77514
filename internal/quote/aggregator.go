package quote

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/noah-isme/backend-kargo/internal/money"
	"github.com/noah-isme/backend-kargo/internal/tariff"
)

// ErrPrecondition signals a structural contract breach by the caller (nil
// tariff table, line item with no category field at all). It marks a
// programming error, callers should treat it as fatal rather than retry.
var ErrPrecondition = errors.New("precondition violation")

// QuantityScalesCost controls whether a line item's cost is multiplied by
// its quantity. The confirmed business rule prices per shipment weight
// bracket, so quantity stays informational in the breakdown. Flip only after
// sign-off from the pricing owners.
const QuantityScalesCost = false

// Aggregate computes a per-item cost and a rounded total for the given
// items against an immutable tariff table snapshot.
//
// Per item, in input order: invalid items (unknown category, weight <= 0,
// quantity < 1) are dropped entirely; items without a covering active tier
// land in Unresolved and contribute zero; the rest cost
// round(baseCharge + weight*pricePerKg, 2).
func Aggregate(items []LineItem, table *tariff.Table) (Result, error) {
	if table == nil {
		return Result{}, fmt.Errorf("%w: tariff table is nil", ErrPrecondition)
	}
	result := Result{
		Entries:    make([]BreakdownEntry, 0, len(items)),
		Unresolved: make([]LineItem, 0),
	}
	total := decimal.Zero
	for i, item := range items {
		if !item.HasCategory() {
			return Result{}, fmt.Errorf("%w: line item %d has no category", ErrPrecondition, i)
		}
		if !item.Valid() {
			continue
		}
		tier, ok := table.Resolve(item.Category, item.Weight)
		if !ok {
			// Coverage gaps are data, not errors: the item keeps its slot in
			// the breakdown with no tier and zero cost, and is flagged for
			// operator attention.
			result.Unresolved = append(result.Unresolved, item)
			result.Entries = append(result.Entries, BreakdownEntry{
				Item:     item,
				ItemCost: decimal.Zero,
			})
			continue
		}
		cost := itemCost(item, tier)
		result.Entries = append(result.Entries, BreakdownEntry{
			Item:     item,
			Tier:     &tier,
			ItemCost: cost,
		})
		total = total.Add(cost)
	}
	result.TotalCost = money.Round2(total)
	return result, nil
}

func itemCost(item LineItem, tier tariff.Tier) decimal.Decimal {
	cost := tier.BaseCharge.Add(item.Weight.Mul(tier.PricePerKg))
	if QuantityScalesCost {
		cost = cost.Mul(decimal.NewFromInt(int64(item.Quantity)))
	}
	return money.Round2(cost)
}
