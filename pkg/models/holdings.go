package models

import (
	"sort"
	"time"
)

// HolderCategory identifies the institutional investor class a holder row
// was classified into.
type HolderCategory string

const (
	HolderBlackRock HolderCategory = "BLACKROCK"
	HolderVanguard  HolderCategory = "VANGUARD"
	HolderOther     HolderCategory = "OTHER"
)

// TrackedCategories are the categories that participate in eligibility and
// ranking. OTHER rows are kept for completeness but never ranked.
var TrackedCategories = []HolderCategory{HolderBlackRock, HolderVanguard}

// DataQuality is an advisory cross-source agreement signal. It never
// affects eligibility or tier.
type DataQuality string

const (
	QualityHigh   DataQuality = "high"
	QualityMedium DataQuality = "medium"
	QualityLow    DataQuality = "low"
)

// HolderRecord is one normalized data point from one provider.
// Percent is always on the 0-100 scale.
type HolderRecord struct {
	Category HolderCategory `json:"category"`
	Percent  float64        `json:"percent"`
	AsOfDate string         `json:"as_of_date,omitempty"` // ISO date when the provider reported one
	SourceID string         `json:"source_id"`
}

// CategoryFigure is the reconciled cross-source estimate for one category.
type CategoryFigure struct {
	Percent  float64 `json:"percent"`
	SourceID string  `json:"source_id,omitempty"`
	AsOfDate string  `json:"as_of_date,omitempty"`
}

// SecuritySnapshot is the per-ticker aggregate produced by reconciliation.
// It is built once per scan and never mutated afterwards.
type SecuritySnapshot struct {
	Ticker      string                            `json:"ticker"`
	Price       float64                           `json:"price"`
	HasPrice    bool                              `json:"has_price"`
	Figures     map[HolderCategory]CategoryFigure `json:"figures"`
	Quality     DataQuality                       `json:"data_quality"`
	Discrepancy map[HolderCategory]float64        `json:"discrepancy,omitempty"`
}

// Percent returns the reconciled percentage for a category, 0 when the
// category was never reported.
func (s SecuritySnapshot) Percent(c HolderCategory) float64 {
	return s.Figures[c].Percent
}

// Combined is the sum of the tracked categories' reconciled percentages.
func (s SecuritySnapshot) Combined() float64 {
	var total float64
	for _, c := range TrackedCategories {
		total += s.Figures[c].Percent
	}
	return total
}

// RankedSecurity is a qualifying snapshot annotated with its priority tier
// and composite sort key. Tier 1 is highest priority.
type RankedSecurity struct {
	SecuritySnapshot
	Tier    int     `json:"tier"`
	SortKey float64 `json:"sort_key"`
	Premium bool    `json:"premium"`
}

// ScanSummary carries the counters surfaced to presentation after a run.
type ScanSummary struct {
	TotalProcessed    int `json:"total_processed"`
	QualifyingCount   int `json:"qualifying_count"`
	HighTier          int `json:"high_tier"`
	MediumTier        int `json:"medium_tier"`
	LowTier           int `json:"low_tier"`
	UnderDollar       int `json:"under_dollar"`
	PremiumCount      int `json:"premium_count"`
	NoPrice           int `json:"no_price"`
	PriceFiltered     int `json:"price_filtered"`
	DroppedRows       int `json:"dropped_rows"`
	SourceUnavailable int `json:"source_unavailable"`
}

// ScanResults is the full output of one run.
type ScanResults struct {
	RunID       string           `json:"run_id"`
	Stocks      []RankedSecurity `json:"stocks"`
	Summary     ScanSummary      `json:"summary"`
	Timestamp   time.Time        `json:"timestamp"`
	Incremental bool             `json:"new_stocks_only"`
}

// ScanState is the cross-run record of tickers already processed.
// Set semantics: a ticker appears at most once.
type ScanState struct {
	Tickers     []string  `json:"stocks"`
	LastUpdated time.Time `json:"last_updated"`
}

// Set returns the processed tickers as a lookup set.
func (s ScanState) Set() map[string]bool {
	m := make(map[string]bool, len(s.Tickers))
	for _, t := range s.Tickers {
		m[t] = true
	}
	return m
}

// NewScanState builds a state value from a set, with tickers sorted so the
// persisted form is deterministic.
func NewScanState(set map[string]bool, updated time.Time) ScanState {
	tickers := make([]string, 0, len(set))
	for t := range set {
		tickers = append(tickers, t)
	}
	sort.Strings(tickers)
	return ScanState{Tickers: tickers, LastUpdated: updated}
}
