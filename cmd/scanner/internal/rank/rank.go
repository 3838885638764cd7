// Package rank applies the eligibility rules and orders qualifying
// securities into priority tiers.
package rank

import (
	"sort"

	"github.com/seepananikhil/PennyWhales/pkg/models"
)

// Tier thresholds are fixed product rules, unlike the configurable
// eligibility minimum.
const (
	tierOneMin      = 4.0
	tierTwoMin      = 3.0
	premiumMin      = 5.0
	premiumMaxPrice = 1.0
)

// Criteria is the configurable eligibility surface, passed explicitly at
// call time. Percentages are on the 0-100 scale.
type Criteria struct {
	PriceCeiling   float64 // exclusive upper bound
	MinHolding     float64 // percentage points
	RequireAll     bool    // true = every tracked category must meet MinHolding
	UnderPriceMark float64 // summary sub-threshold, e.g. 1.00
}

// Eligible reports whether a snapshot passes the price ceiling and the
// minimum holding rules. A security with zero holdings in every tracked
// category always fails, regardless of mode.
func Eligible(s models.SecuritySnapshot, c Criteria) bool {
	if !s.HasPrice || s.Price >= c.PriceCeiling {
		return false
	}

	anyNonZero := false
	met := 0
	for _, cat := range models.TrackedCategories {
		pct := s.Percent(cat)
		if pct > 0 {
			anyNonZero = true
		}
		if pct >= c.MinHolding {
			met++
		}
	}
	if !anyNonZero {
		return false
	}
	if c.RequireAll {
		return met == len(models.TrackedCategories)
	}
	return met >= 1
}

// Classify assigns the priority tier. Evaluated in fixed order, first
// match wins:
//
//	Tier 1: both BlackRock and Vanguard >= 4.0
//	Tier 2: one category >= 3.0 and the other non-zero
//	Tier 3: everything else that passed eligibility
func Classify(s models.SecuritySnapshot) int {
	br := s.Percent(models.HolderBlackRock)
	vg := s.Percent(models.HolderVanguard)

	switch {
	case br >= tierOneMin && vg >= tierOneMin:
		return 1
	case (br >= tierTwoMin && vg > 0) || (vg >= tierTwoMin && br > 0):
		return 2
	default:
		return 3
	}
}

// premium is a presentation-only flag: Tier 1, both categories >= 5.0,
// price under a dollar. It never changes tier or order.
func premium(s models.SecuritySnapshot, tier int) bool {
	return tier == 1 &&
		s.Percent(models.HolderBlackRock) >= premiumMin &&
		s.Percent(models.HolderVanguard) >= premiumMin &&
		s.Price < premiumMaxPrice
}

// sortKey produces the within-tier ordering key. Tier 1 ranks by combined
// holdings descending, encoded as its negation so the unified order is
// "key ascending" everywhere; tiers 2 and 3 rank by price ascending.
func sortKey(s models.SecuritySnapshot, tier int) float64 {
	if tier == 1 {
		return -s.Combined()
	}
	return s.Price
}

// Rank annotates qualifying snapshots with tier, sort key and premium
// flag, and returns them in the total presentation order: tier ascending,
// then key ascending, ties broken by price then ticker so equal inputs
// always yield identical output.
func Rank(qualifying []models.SecuritySnapshot) []models.RankedSecurity {
	ranked := make([]models.RankedSecurity, 0, len(qualifying))
	for _, s := range qualifying {
		tier := Classify(s)
		ranked = append(ranked, models.RankedSecurity{
			SecuritySnapshot: s,
			Tier:             tier,
			SortKey:          sortKey(s, tier),
			Premium:          premium(s, tier),
		})
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		a, b := ranked[i], ranked[j]
		if a.Tier != b.Tier {
			return a.Tier < b.Tier
		}
		if a.SortKey != b.SortKey {
			return a.SortKey < b.SortKey
		}
		if a.Price != b.Price {
			return a.Price < b.Price
		}
		return a.Ticker < b.Ticker
	})
	return ranked
}

// Summarize computes the counters handed to presentation and persistence.
func Summarize(ranked []models.RankedSecurity, c Criteria) models.ScanSummary {
	sum := models.ScanSummary{QualifyingCount: len(ranked)}
	for _, r := range ranked {
		switch r.Tier {
		case 1:
			sum.HighTier++
		case 2:
			sum.MediumTier++
		default:
			sum.LowTier++
		}
		if r.Price < c.UnderPriceMark {
			sum.UnderDollar++
		}
		if r.Premium {
			sum.PremiumCount++
		}
	}
	return sum
}
