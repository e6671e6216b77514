package quote_test

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/backend-kargo/internal/money"
	"github.com/noah-isme/backend-kargo/internal/quote"
	"github.com/noah-isme/backend-kargo/internal/tariff"
)

func rawItems(t *testing.T, payload string) []quote.RawLineItem {
	t.Helper()
	var items []quote.RawLineItem
	require.NoError(t, json.Unmarshal([]byte(payload), &items))
	return items
}

func TestComputeCostLocaleNormalization(t *testing.T) {
	svc := quote.NewService()
	snapshot := []tariff.Tier{homeTier(t, "0", "2000", "2", "1")}
	items := rawItems(t, `[
		{"description":"sofa","category":"home","weight":"1.234,56","quantity":"2","declaredValue":"99,90"}
	]`)

	result, err := svc.ComputeCost(context.Background(), items, snapshot)
	require.NoError(t, err)
	require.Len(t, result.Entries, 1)
	require.Equal(t, "1234.56", result.Entries[0].Item.Weight.String())
	require.Equal(t, 2, result.Entries[0].Item.Quantity)
	require.Equal(t, "99.9", result.Entries[0].Item.DeclaredValue.String())
	// 1 + 1234.56*2 = 2470.12
	require.Equal(t, "2470.12", result.TotalCost.StringFixed(2))
}

func TestComputeCostFieldErrors(t *testing.T) {
	svc := quote.NewService()
	snapshot := []tariff.Tier{homeTier(t, "0", "10", "2", "1")}
	items := rawItems(t, `[
		{"description":"ok","category":"home","weight":"2","quantity":1},
		{"description":"bad","category":"home","weight":"abc","quantity":"1,5"}
	]`)

	_, err := svc.ComputeCost(context.Background(), items, snapshot)
	require.ErrorIs(t, err, money.ErrInvalidNumberFormat)

	var invalid *quote.InvalidItemsError
	require.ErrorAs(t, err, &invalid)
	require.Len(t, invalid.Fields, 2)
	require.Equal(t, 1, invalid.Fields[0].Index)
	require.Equal(t, "weight", invalid.Fields[0].Field)
	require.Equal(t, "quantity", invalid.Fields[1].Field)
}

func TestComputeCostNilSnapshot(t *testing.T) {
	svc := quote.NewService()
	_, err := svc.ComputeCost(context.Background(), nil, nil)
	require.ErrorIs(t, err, quote.ErrPrecondition)
}

func TestComputeCostIdempotent(t *testing.T) {
	svc := quote.NewService()
	snapshot := []tariff.Tier{
		homeTier(t, "0", "5", "2", "1"),
		homeTier(t, "5", "10", "3", "2"),
	}
	items := rawItems(t, `[
		{"description":"a","category":"home","weight":"4,99","quantity":1},
		{"description":"b","category":"home","weight":5.0,"quantity":2}
	]`)

	first, err := svc.ComputeCost(context.Background(), items, snapshot)
	require.NoError(t, err)
	second, err := svc.ComputeCost(context.Background(), items, snapshot)
	require.NoError(t, err)

	require.True(t, first.TotalCost.Equal(second.TotalCost))
	require.Equal(t, len(first.Entries), len(second.Entries))
	for i := range first.Entries {
		require.True(t, first.Entries[i].ItemCost.Equal(second.Entries[i].ItemCost))
	}
}

func TestComputeCostBoundaryWeight(t *testing.T) {
	svc := quote.NewService()
	low := homeTier(t, "0", "5", "2", "1")
	high := homeTier(t, "5", "10", "3", "2")
	items := rawItems(t, `[{"description":"edge","category":"home","weight":"5,00","quantity":1}]`)

	result, err := svc.ComputeCost(context.Background(), items, []tariff.Tier{low, high})
	require.NoError(t, err)
	require.Len(t, result.Entries, 1)
	require.NotNil(t, result.Entries[0].Tier)
	require.Equal(t, high.ID, result.Entries[0].Tier.ID)
	// 2 + 5*3 = 17
	require.Equal(t, "17.00", result.TotalCost.StringFixed(2))
}

func TestPreview(t *testing.T) {
	svc := quote.NewService()
	snapshot := []tariff.Tier{homeTier(t, "0", "5", "2.50", "1.25")}

	cost, tier1kg, ok := svc.Preview(tariff.CategoryHome, snapshot)
	require.True(t, ok)
	require.NotNil(t, tier1kg)
	require.Equal(t, "3.75", cost.StringFixed(2))

	_, _, ok = svc.Preview(tariff.CategorySports, snapshot)
	require.False(t, ok)
}
