// Package normalize converts raw provider holder tables into canonical
// per-category HolderRecords on the 0-100 percentage scale.
package normalize

import (
	"strconv"
	"strings"

	"github.com/seepananikhil/PennyWhales/pkg/models"
)

// RawRow is one holder entry as a provider reports it. Value is either a
// percentage ("7.1", "7.1%") or a share count ("1,663,558") depending on
// the table's SharesBased flag.
type RawRow struct {
	Holder string
	Value  string
	AsOf   string
}

// RawTable is one provider's holder table for one security.
type RawTable struct {
	SourceID    string
	SharesBased bool    // Value is a share count; percent is computed against TotalShares
	TotalShares string  // shares outstanding, only consulted when SharesBased
	TotalScale  float64 // multiplier for TotalShares (e.g. 1e6 when reported in millions); 0 means 1
	Rows        []RawRow
}

// Normalize classifies every row into BLACKROCK/VANGUARD/OTHER and emits
// at most one record per category, keeping the maximum percentage the
// source reported for that category. The second return value counts rows
// whose numeric field failed to parse; malformed rows are treated as zero
// and never abort the table.
func Normalize(t RawTable) ([]models.HolderRecord, int) {
	var dropped int

	total := 0.0
	if t.SharesBased {
		v, ok := parseNumber(t.TotalShares)
		if ok {
			scale := t.TotalScale
			if scale == 0 {
				scale = 1
			}
			total = v * scale
		}
	}

	best := make(map[models.HolderCategory]models.HolderRecord)
	for _, row := range t.Rows {
		value, ok := parseNumber(row.Value)
		if !ok {
			dropped++
			value = 0
		}

		pct := value
		if t.SharesBased {
			if total > 0 {
				pct = 100 * value / total
			} else {
				pct = 0
			}
		}

		cat := Classify(row.Holder)
		if cur, seen := best[cat]; !seen || pct > cur.Percent {
			best[cat] = models.HolderRecord{
				Category: cat,
				Percent:  pct,
				AsOfDate: row.AsOf,
				SourceID: t.SourceID,
			}
		}
	}

	// Fixed category order keeps output independent of map iteration.
	records := make([]models.HolderRecord, 0, len(best))
	for _, cat := range []models.HolderCategory{models.HolderBlackRock, models.HolderVanguard, models.HolderOther} {
		if rec, ok := best[cat]; ok {
			records = append(records, rec)
		}
	}
	return records, dropped
}

// Classify maps a free-text holder name to its category. The mapping is
// case-insensitive and total: every name gets exactly one category.
func Classify(holder string) models.HolderCategory {
	name := strings.ToUpper(holder)
	switch {
	case strings.Contains(name, "BLACKROCK") || strings.Contains(name, "BLACK ROCK"):
		return models.HolderBlackRock
	case strings.Contains(name, "VANGUARD"):
		return models.HolderVanguard
	default:
		return models.HolderOther
	}
}

// parseNumber handles the formats providers actually send: thousands
// separators, a trailing "%", surrounding whitespace.
func parseNumber(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, "%")
	s = strings.ReplaceAll(s, ",", "")
	if s == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}
