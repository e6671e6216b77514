package tariff_test

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/backend-kargo/internal/tariff"
)

func dec(t *testing.T, s string) decimal.Decimal {
	t.Helper()
	return decimal.RequireFromString(s)
}

func tier(t *testing.T, category tariff.Category, min, max, perKg, base string, active bool) tariff.Tier {
	t.Helper()
	return tariff.Tier{
		ID:         uuid.New(),
		Category:   category,
		MinWeight:  dec(t, min),
		MaxWeight:  dec(t, max),
		PricePerKg: dec(t, perKg),
		BaseCharge: dec(t, base),
		Active:     active,
	}
}

func TestNewTableFiltersAndSorts(t *testing.T) {
	high := tier(t, tariff.CategoryHome, "5", "10", "2", "1", true)
	low := tier(t, tariff.CategoryHome, "0", "5", "3", "1", true)
	inactive := tier(t, tariff.CategoryHome, "10", "20", "1", "1", false)

	table := tariff.NewTable([]tariff.Tier{high, inactive, low})
	group := table.TiersFor(tariff.CategoryHome)
	require.Len(t, group, 2)
	require.Equal(t, low.ID, group[0].ID)
	require.Equal(t, high.ID, group[1].ID)
	require.Equal(t, 2, table.Len())
}

func TestResolveBoundaryIsHalfOpen(t *testing.T) {
	first := tier(t, tariff.CategoryHome, "0", "5", "2", "1", true)
	second := tier(t, tariff.CategoryHome, "5", "10", "3", "2", true)
	table := tariff.NewTable([]tariff.Tier{first, second})

	t.Run("exact lower bound of second tier", func(t *testing.T) {
		resolved, ok := table.Resolve(tariff.CategoryHome, dec(t, "5.00"))
		require.True(t, ok)
		require.Equal(t, second.ID, resolved.ID)
	})

	t.Run("just below the boundary", func(t *testing.T) {
		resolved, ok := table.Resolve(tariff.CategoryHome, dec(t, "4.99"))
		require.True(t, ok)
		require.Equal(t, first.ID, resolved.ID)
	})

	t.Run("upper bound is exclusive", func(t *testing.T) {
		_, ok := table.Resolve(tariff.CategoryHome, dec(t, "10"))
		require.False(t, ok)
	})
}

func TestResolveCoverageGap(t *testing.T) {
	only := tier(t, tariff.CategoryHome, "0", "5", "2", "1", true)
	table := tariff.NewTable([]tariff.Tier{only})

	_, ok := table.Resolve(tariff.CategoryHome, dec(t, "7"))
	require.False(t, ok)

	_, ok = table.Resolve(tariff.CategoryElectronics, dec(t, "1"))
	require.False(t, ok)
}

func TestResolveOverlapFirstMatchWins(t *testing.T) {
	wide := tier(t, tariff.CategorySports, "0", "10", "2", "1", true)
	narrow := tier(t, tariff.CategorySports, "3", "6", "9", "9", true)
	table := tariff.NewTable([]tariff.Tier{narrow, wide})

	resolved, ok := table.Resolve(tariff.CategorySports, dec(t, "4"))
	require.True(t, ok)
	require.Equal(t, wide.ID, resolved.ID, "ascending MinWeight order decides ties")
}

func TestTierValidate(t *testing.T) {
	valid := tier(t, tariff.CategoryClothing, "0", "5", "2", "1", true)
	require.NoError(t, valid.Validate())

	inverted := valid
	inverted.MinWeight, inverted.MaxWeight = inverted.MaxWeight, inverted.MinWeight
	require.Error(t, inverted.Validate())

	badCategory := valid
	badCategory.Category = "furniture"
	require.Error(t, badCategory.Validate())

	negativePrice := valid
	negativePrice.PricePerKg = dec(t, "-1")
	require.Error(t, negativePrice.Validate())
}

func TestParseCategory(t *testing.T) {
	c, err := tariff.ParseCategory("  Home ")
	require.NoError(t, err)
	require.Equal(t, tariff.CategoryHome, c)

	_, err = tariff.ParseCategory("garden")
	require.Error(t, err)
}
