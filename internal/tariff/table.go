package tariff

import (
	"sort"

	"github.com/shopspring/decimal"
)

// Table is an immutable snapshot of active tariff tiers grouped by category.
// Callers build a fresh table per aggregation pass so an in-flight
// computation never observes a partially updated tariff set.
type Table struct {
	byCategory map[Category][]Tier
}

// NewTable retains only active tiers and orders each category's tiers by
// ascending MinWeight. Inactive tiers are dropped at construction time.
func NewTable(tiers []Tier) *Table {
	byCategory := make(map[Category][]Tier)
	for _, tier := range tiers {
		if !tier.Active {
			continue
		}
		byCategory[tier.Category] = append(byCategory[tier.Category], tier)
	}
	for category := range byCategory {
		group := byCategory[category]
		sort.SliceStable(group, func(i, j int) bool {
			return group[i].MinWeight.Cmp(group[j].MinWeight) < 0
		})
	}
	return &Table{byCategory: byCategory}
}

// TiersFor returns the active tiers for a category sorted by MinWeight
// ascending. The returned slice must not be mutated.
func (t *Table) TiersFor(category Category) []Tier {
	if t == nil {
		return nil
	}
	return t.byCategory[category]
}

// Resolve finds the tier covering (category, weight) using the half-open
// convention MinWeight <= weight < MaxWeight. When misentered tiers overlap,
// the first match in ascending MinWeight order wins so results stay
// reproducible. The second return value is false when no tier covers the
// weight; callers surface that as an unresolved item, never as zero cost.
func (t *Table) Resolve(category Category, weight decimal.Decimal) (Tier, bool) {
	for _, tier := range t.TiersFor(category) {
		if tier.Covers(weight) {
			return tier, true
		}
	}
	return Tier{}, false
}

// Len returns the total number of active tiers in the snapshot.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	n := 0
	for _, group := range t.byCategory {
		n += len(group)
	}
	return n
}
