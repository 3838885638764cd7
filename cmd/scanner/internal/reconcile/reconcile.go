// Package reconcile merges normalized holder records from multiple
// providers into a single best-estimate figure per category, with a
// cross-source agreement signal.
package reconcile

import (
	"math"
	"sort"

	"github.com/seepananikhil/PennyWhales/pkg/models"
)

// Options tunes the quality scoring.
type Options struct {
	// DiscrepancyTolerance is the percentage-point spread above which
	// multi-source data is downgraded to medium quality.
	DiscrepancyTolerance float64
}

// DefaultOptions matches the production configuration defaults.
func DefaultOptions() Options {
	return Options{DiscrepancyTolerance: 1.0}
}

// Snapshot reconciles the per-source record sets for one ticker into an
// immutable SecuritySnapshot. For each category the reconciled percentage
// is the maximum any source reported: providers under-report due to filing
// lag, so the higher figure is the more complete one.
//
// The result is independent of source ordering: ties on percentage are
// broken by source ID so repeated runs produce identical snapshots.
func Snapshot(ticker string, price float64, hasPrice bool, sources [][]models.HolderRecord, opts Options) models.SecuritySnapshot {
	snap := models.SecuritySnapshot{
		Ticker:      ticker,
		Price:       price,
		HasPrice:    hasPrice,
		Figures:     make(map[models.HolderCategory]models.CategoryFigure),
		Discrepancy: make(map[models.HolderCategory]float64),
	}

	for _, cat := range models.TrackedCategories {
		// One value per source: a source reporting a category twice keeps
		// its own maximum (normalize already enforces this, but reconcile
		// must not depend on it).
		perSource := make(map[string]models.HolderRecord)
		for _, records := range sources {
			for _, rec := range records {
				if rec.Category != cat {
					continue
				}
				if cur, ok := perSource[rec.SourceID]; !ok || rec.Percent > cur.Percent {
					perSource[rec.SourceID] = rec
				}
			}
		}

		reported := make([]models.HolderRecord, 0, len(perSource))
		for _, rec := range perSource {
			reported = append(reported, rec)
		}
		sort.Slice(reported, func(i, j int) bool {
			if reported[i].Percent != reported[j].Percent {
				return reported[i].Percent > reported[j].Percent
			}
			return reported[i].SourceID < reported[j].SourceID
		})

		if len(reported) == 0 || reported[0].Percent == 0 {
			snap.Figures[cat] = models.CategoryFigure{}
			snap.Discrepancy[cat] = 0
			continue
		}

		top := reported[0]
		snap.Figures[cat] = models.CategoryFigure{
			Percent:  top.Percent,
			SourceID: top.SourceID,
			AsOfDate: top.AsOfDate,
		}

		// Discrepancy only applies when at least two sources report
		// non-zero for this category.
		var nonZero []float64
		for _, rec := range reported {
			if rec.Percent > 0 {
				nonZero = append(nonZero, rec.Percent)
			}
		}
		if len(nonZero) >= 2 {
			snap.Discrepancy[cat] = math.Abs(nonZero[0] - nonZero[1])
		} else {
			snap.Discrepancy[cat] = 0
		}
	}

	snap.Quality = grade(snap, opts)
	return snap
}

func grade(snap models.SecuritySnapshot, opts Options) models.DataQuality {
	anyNonZero := false
	for _, cat := range models.TrackedCategories {
		if snap.Figures[cat].Percent > 0 {
			anyNonZero = true
		}
		if snap.Discrepancy[cat] > opts.DiscrepancyTolerance {
			return models.QualityMedium
		}
	}
	if !anyNonZero {
		return models.QualityLow
	}
	return models.QualityHigh
}
