package tariff

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// IssueKind distinguishes coverage diagnostics.
type IssueKind string

// Coverage issue kinds.
const (
	IssueGap     IssueKind = "gap"
	IssueOverlap IssueKind = "overlap"
)

// CoverageIssue describes a weight interval where a category's active tiers
// either leave a hole or collide.
type CoverageIssue struct {
	Category Category        `json:"category"`
	Kind     IssueKind       `json:"kind"`
	From     decimal.Decimal `json:"from"`
	To       decimal.Decimal `json:"to"`
	TierIDs  []uuid.UUID     `json:"tierIds,omitempty"`
}

// ValidateCoverage inspects the active tiers of every category and reports
// gaps and overlaps on the weight axis starting at zero. The open upper end
// beyond the heaviest tier is not reported; an unbounded top bracket is a
// business decision, not a data error. This is a diagnostic for the
// administration surface and the audit worker, it is never consulted on the
// aggregation path.
func ValidateCoverage(tiers []Tier) []CoverageIssue {
	table := NewTable(tiers)
	var issues []CoverageIssue
	for _, category := range Categories() {
		group := table.TiersFor(category)
		if len(group) == 0 {
			continue
		}
		if group[0].MinWeight.IsPositive() {
			issues = append(issues, CoverageIssue{
				Category: category,
				Kind:     IssueGap,
				From:     decimal.Zero,
				To:       group[0].MinWeight,
				TierIDs:  []uuid.UUID{group[0].ID},
			})
		}
		// covered tracks the highest MaxWeight seen so far; a later tier
		// starting above it opens a gap, one starting below it overlaps.
		covered := group[0].MaxWeight
		for i := 1; i < len(group); i++ {
			current := group[i]
			switch {
			case current.MinWeight.Cmp(covered) > 0:
				issues = append(issues, CoverageIssue{
					Category: category,
					Kind:     IssueGap,
					From:     covered,
					To:       current.MinWeight,
					TierIDs:  []uuid.UUID{group[i-1].ID, current.ID},
				})
			case current.MinWeight.Cmp(covered) < 0:
				overlapTo := decimal.Min(covered, current.MaxWeight)
				issues = append(issues, CoverageIssue{
					Category: category,
					Kind:     IssueOverlap,
					From:     current.MinWeight,
					To:       overlapTo,
					TierIDs:  []uuid.UUID{group[i-1].ID, current.ID},
				})
			}
			if current.MaxWeight.Cmp(covered) > 0 {
				covered = current.MaxWeight
			}
		}
	}
	return issues
}
