package tariff_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/backend-kargo/internal/tariff"
)

func TestValidateCoverageClean(t *testing.T) {
	tiers := []tariff.Tier{
		tier(t, tariff.CategoryHome, "0", "5", "2", "1", true),
		tier(t, tariff.CategoryHome, "5", "10", "3", "1", true),
		tier(t, tariff.CategoryHome, "10", "100", "4", "1", true),
	}
	require.Empty(t, tariff.ValidateCoverage(tiers))
}

func TestValidateCoverageLeadingGap(t *testing.T) {
	tiers := []tariff.Tier{
		tier(t, tariff.CategoryClothing, "2", "10", "2", "1", true),
	}
	issues := tariff.ValidateCoverage(tiers)
	require.Len(t, issues, 1)
	require.Equal(t, tariff.IssueGap, issues[0].Kind)
	require.Equal(t, tariff.CategoryClothing, issues[0].Category)
	require.Equal(t, "0", issues[0].From.String())
	require.Equal(t, "2", issues[0].To.String())
}

func TestValidateCoverageInteriorGapAndOverlap(t *testing.T) {
	a := tier(t, tariff.CategorySports, "0", "5", "2", "1", true)
	b := tier(t, tariff.CategorySports, "7", "12", "2", "1", true)
	c := tier(t, tariff.CategorySports, "10", "20", "2", "1", true)

	issues := tariff.ValidateCoverage([]tariff.Tier{a, b, c})
	require.Len(t, issues, 2)

	gap := issues[0]
	require.Equal(t, tariff.IssueGap, gap.Kind)
	require.Equal(t, "5", gap.From.String())
	require.Equal(t, "7", gap.To.String())

	overlap := issues[1]
	require.Equal(t, tariff.IssueOverlap, overlap.Kind)
	require.Equal(t, "10", overlap.From.String())
	require.Equal(t, "12", overlap.To.String())
}

func TestValidateCoverageIgnoresInactiveTiers(t *testing.T) {
	tiers := []tariff.Tier{
		tier(t, tariff.CategoryOther, "0", "5", "2", "1", true),
		tier(t, tariff.CategoryOther, "3", "8", "2", "1", false),
	}
	require.Empty(t, tariff.ValidateCoverage(tiers))
}

func TestValidateCoverageContainedTierReportsOverlap(t *testing.T) {
	outer := tier(t, tariff.CategoryElectronics, "0", "20", "2", "1", true)
	inner := tier(t, tariff.CategoryElectronics, "5", "10", "2", "1", true)

	issues := tariff.ValidateCoverage([]tariff.Tier{outer, inner})
	require.Len(t, issues, 1)
	require.Equal(t, tariff.IssueOverlap, issues[0].Kind)
	require.Equal(t, "5", issues[0].From.String())
	require.Equal(t, "10", issues[0].To.String())
}
