package quote_test

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/backend-kargo/internal/quote"
	"github.com/noah-isme/backend-kargo/internal/tariff"
)

func dec(t *testing.T, s string) decimal.Decimal {
	t.Helper()
	return decimal.RequireFromString(s)
}

func homeTier(t *testing.T, min, max, perKg, base string) tariff.Tier {
	t.Helper()
	return tariff.Tier{
		ID:         uuid.New(),
		Category:   tariff.CategoryHome,
		MinWeight:  dec(t, min),
		MaxWeight:  dec(t, max),
		PricePerKg: dec(t, perKg),
		BaseCharge: dec(t, base),
		Active:     true,
	}
}

func item(t *testing.T, category tariff.Category, weight string, qty int) quote.LineItem {
	t.Helper()
	return quote.LineItem{
		Description: "box",
		Category:    category,
		Weight:      dec(t, weight),
		Quantity:    qty,
	}
}

func TestAggregateTotals(t *testing.T) {
	table := tariff.NewTable([]tariff.Tier{homeTier(t, "0", "10", "2", "1")})
	items := []quote.LineItem{
		item(t, tariff.CategoryHome, "2", 1),
		item(t, tariff.CategoryHome, "3", 4),
	}

	result, err := quote.Aggregate(items, table)
	require.NoError(t, err)
	require.Len(t, result.Entries, 2)
	require.Equal(t, "5.00", result.Entries[0].ItemCost.StringFixed(2))
	require.Equal(t, "7.00", result.Entries[1].ItemCost.StringFixed(2))
	require.Equal(t, "12.00", result.TotalCost.StringFixed(2))
	require.Empty(t, result.Unresolved)
}

func TestAggregateQuantityDoesNotScaleCost(t *testing.T) {
	table := tariff.NewTable([]tariff.Tier{homeTier(t, "0", "10", "2", "1")})
	single, err := quote.Aggregate([]quote.LineItem{item(t, tariff.CategoryHome, "3", 1)}, table)
	require.NoError(t, err)
	many, err := quote.Aggregate([]quote.LineItem{item(t, tariff.CategoryHome, "3", 10)}, table)
	require.NoError(t, err)
	require.True(t, single.TotalCost.Equal(many.TotalCost))
}

func TestAggregateUnresolvedContributesZero(t *testing.T) {
	table := tariff.NewTable([]tariff.Tier{homeTier(t, "0", "5", "2", "1")})
	items := []quote.LineItem{
		item(t, tariff.CategoryHome, "2", 1),
		item(t, tariff.CategoryHome, "7", 1),
	}

	result, err := quote.Aggregate(items, table)
	require.NoError(t, err)
	require.Len(t, result.Entries, 2)
	require.Nil(t, result.Entries[1].Tier)
	require.True(t, result.Entries[1].ItemCost.IsZero())
	require.Len(t, result.Unresolved, 1)
	require.Equal(t, "7", result.Unresolved[0].Weight.String())
	require.Equal(t, "5.00", result.TotalCost.StringFixed(2))
}

func TestAggregateDropsInvalidItems(t *testing.T) {
	table := tariff.NewTable([]tariff.Tier{homeTier(t, "0", "10", "2", "1")})
	items := []quote.LineItem{
		item(t, tariff.CategoryHome, "0", 1),
		item(t, tariff.CategoryHome, "2", 0),
		{Description: "odd", Category: "furniture", Weight: dec(t, "2"), Quantity: 1},
		item(t, tariff.CategoryHome, "2", 1),
	}

	result, err := quote.Aggregate(items, table)
	require.NoError(t, err)
	require.Len(t, result.Entries, 1)
	require.Equal(t, "5.00", result.TotalCost.StringFixed(2))
	require.Empty(t, result.Unresolved)
}

func TestAggregatePreservesInputOrder(t *testing.T) {
	table := tariff.NewTable([]tariff.Tier{homeTier(t, "0", "10", "2", "1")})
	items := []quote.LineItem{
		item(t, tariff.CategoryHome, "1", 1),
		item(t, tariff.CategoryHome, "0", 1), // dropped
		item(t, tariff.CategoryHome, "2", 1),
		item(t, tariff.CategoryHome, "3", 1),
	}

	result, err := quote.Aggregate(items, table)
	require.NoError(t, err)
	require.Len(t, result.Entries, 3)
	require.Equal(t, "1", result.Entries[0].Item.Weight.String())
	require.Equal(t, "2", result.Entries[1].Item.Weight.String())
	require.Equal(t, "3", result.Entries[2].Item.Weight.String())
}

func TestAggregatePreconditions(t *testing.T) {
	t.Run("nil table", func(t *testing.T) {
		_, err := quote.Aggregate(nil, nil)
		require.ErrorIs(t, err, quote.ErrPrecondition)
	})

	t.Run("item without category field", func(t *testing.T) {
		table := tariff.NewTable(nil)
		_, err := quote.Aggregate([]quote.LineItem{{Description: "box", Weight: dec(t, "1"), Quantity: 1}}, table)
		require.ErrorIs(t, err, quote.ErrPrecondition)
	})
}

func TestAggregateRoundsItemCost(t *testing.T) {
	// 1.11 + 2.47*1.01 = 3.6047 -> 3.60
	table := tariff.NewTable([]tariff.Tier{homeTier(t, "0", "10", "1.01", "1.11")})
	result, err := quote.Aggregate([]quote.LineItem{item(t, tariff.CategoryHome, "2.47", 1)}, table)
	require.NoError(t, err)
	require.Equal(t, "3.60", result.Entries[0].ItemCost.StringFixed(2))
}
