// Package scanstate computes the incremental-scan delta: which tickers a
// run should process given what earlier runs already covered.
package scanstate

import (
	"time"

	"github.com/seepananikhil/PennyWhales/pkg/models"
)

// Plan is the scan decision for one run.
type Plan struct {
	ToScan      []string
	Incremental bool // true when previously-processed tickers were skipped
}

// PlanScan decides what to scan. An empty previous state, or one sharing
// no tickers with the requested universe, triggers a full scan. Otherwise
// only unprocessed tickers are scanned and the run is flagged incremental
// so presentation can tell "no new matches" from "no matches at all".
//
// Universe order is preserved; duplicate requests are collapsed.
func PlanScan(prev models.ScanState, universe []string) Plan {
	processed := prev.Set()

	seen := make(map[string]bool, len(universe))
	var requested []string
	for _, t := range universe {
		if seen[t] {
			continue
		}
		seen[t] = true
		requested = append(requested, t)
	}

	overlap := 0
	for _, t := range requested {
		if processed[t] {
			overlap++
		}
	}

	if len(processed) == 0 || overlap == 0 {
		return Plan{ToScan: requested, Incremental: false}
	}

	var fresh []string
	for _, t := range requested {
		if !processed[t] {
			fresh = append(fresh, t)
		}
	}
	return Plan{ToScan: fresh, Incremental: true}
}

// Commit folds the tickers actually scanned this run into the previous
// state. A ticker that failed eligibility is still marked processed; only
// fully-processed tickers belong in scanned, so aborting mid-batch never
// records partial work. The result is always a superset of prev.
func Commit(prev models.ScanState, scanned []string, now time.Time) models.ScanState {
	union := prev.Set()
	for _, t := range scanned {
		union[t] = true
	}
	return models.NewScanState(union, now)
}
