package scan_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/seepananikhil/PennyWhales/cmd/scanner/internal/normalize"
	"github.com/seepananikhil/PennyWhales/cmd/scanner/internal/scan"
	"github.com/seepananikhil/PennyWhales/cmd/scanner/internal/testutils"
	"github.com/seepananikhil/PennyWhales/pkg/config"
	"github.com/seepananikhil/PennyWhales/pkg/models"
)

func scanConfig() config.ScanConfig {
	return config.ScanConfig{
		PriceCeiling:         2.00,
		MinHolding:           4.0,
		RequireAll:           false,
		DiscrepancyTolerance: 1.0,
		UnderPriceMark:       1.00,
		RequestDelay:         500 * time.Millisecond,
	}
}

func table(sourceID string, rows map[string]string) normalize.RawTable {
	return testutils.PercentTable(sourceID, rows)
}

func TestRun_SingleSourceTierOne(t *testing.T) {
	prices := &testutils.MockPriceSource{Prices: map[string]float64{"AAA": 0.75}}
	nasdaq := &testutils.MockHolderSource{
		SourceID: "nasdaq",
		Tables: map[string]normalize.RawTable{
			"AAA": table("nasdaq", map[string]string{
				"BlackRock Inc.":     "4.5",
				"Vanguard Group Inc": "4.2",
			}),
		},
	}

	scanner := scan.NewScanner(scanConfig(), zap.NewNop(), prices,
		[]scan.HolderSource{nasdaq}, &testutils.MockClock{})

	results, state, err := scanner.Run(context.Background(), models.ScanState{}, []string{"AAA"})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if len(results.Stocks) != 1 {
		t.Fatalf("Expected 1 qualifying stock, got %d", len(results.Stocks))
	}
	got := results.Stocks[0]
	if got.Tier != 1 {
		t.Errorf("Tier = %d, want 1", got.Tier)
	}
	if got.Quality != models.QualityHigh {
		t.Errorf("Quality = %s, want high", got.Quality)
	}
	if got.Premium {
		t.Error("4.5/4.2 must not be premium (needs 5/5)")
	}
	if results.RunID == "" {
		t.Error("Run should carry a run ID")
	}
	if state.Set()["AAA"] != true {
		t.Error("Scanned ticker missing from committed state")
	}
}

func TestRun_DualSourceDisagreement(t *testing.T) {
	prices := &testutils.MockPriceSource{Prices: map[string]float64{"BBB": 1.50}}
	yahoo := &testutils.MockHolderSource{
		SourceID: "yahoo",
		Tables:   map[string]normalize.RawTable{"BBB": table("yahoo", map[string]string{"BlackRock Inc.": "3.2"})},
	}
	nasdaq := &testutils.MockHolderSource{
		SourceID: "nasdaq",
		Tables:   map[string]normalize.RawTable{"BBB": table("nasdaq", map[string]string{"BLACKROCK INC": "5.1"})},
	}

	scanner := scan.NewScanner(scanConfig(), zap.NewNop(), prices,
		[]scan.HolderSource{yahoo, nasdaq}, &testutils.MockClock{})

	results, _, err := scanner.Run(context.Background(), models.ScanState{}, []string{"BBB"})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if len(results.Stocks) != 1 {
		t.Fatalf("Expected 1 qualifying stock, got %d", len(results.Stocks))
	}

	got := results.Stocks[0]
	if got.Percent(models.HolderBlackRock) != 5.1 {
		t.Errorf("Reconciled BlackRock = %v, want max 5.1", got.Percent(models.HolderBlackRock))
	}
	if got.Quality != models.QualityMedium {
		t.Errorf("Quality = %s, want medium (1.9pp disagreement)", got.Quality)
	}
	// Vanguard absent: tier 2 needs the other category non-zero, so this
	// lands in tier 3 despite the strong BlackRock position.
	if got.Tier != 3 {
		t.Errorf("Tier = %d, want 3", got.Tier)
	}
}

func TestRun_SourceOutageIsNotATickerFailure(t *testing.T) {
	prices := &testutils.MockPriceSource{Prices: map[string]float64{"CCC": 0.40}}
	down := &testutils.MockHolderSource{SourceID: "yahoo", Down: true}
	nasdaq := &testutils.MockHolderSource{
		SourceID: "nasdaq",
		Tables: map[string]normalize.RawTable{
			"CCC": table("nasdaq", map[string]string{
				"BlackRock Inc.":     "6.0",
				"Vanguard Group Inc": "6.0",
			}),
		},
	}

	scanner := scan.NewScanner(scanConfig(), zap.NewNop(), prices,
		[]scan.HolderSource{down, nasdaq}, &testutils.MockClock{})

	results, _, err := scanner.Run(context.Background(), models.ScanState{}, []string{"CCC"})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if len(results.Stocks) != 1 {
		t.Fatalf("Healthy source should carry the ticker, got %d stocks", len(results.Stocks))
	}
	if !results.Stocks[0].Premium {
		t.Error("6/6 at $0.40 should be premium")
	}
	if results.Summary.SourceUnavailable != 1 {
		t.Errorf("SourceUnavailable = %d, want 1", results.Summary.SourceUnavailable)
	}
}

func TestRun_NoPriceExcludedButProcessed(t *testing.T) {
	prices := &testutils.MockPriceSource{Prices: map[string]float64{"GOOD": 0.80}}
	nasdaq := &testutils.MockHolderSource{
		SourceID: "nasdaq",
		Tables: map[string]normalize.RawTable{
			"GOOD": table("nasdaq", map[string]string{"Vanguard Group Inc": "4.4"}),
		},
	}

	scanner := scan.NewScanner(scanConfig(), zap.NewNop(), prices,
		[]scan.HolderSource{nasdaq}, &testutils.MockClock{})

	results, state, err := scanner.Run(context.Background(), models.ScanState{}, []string{"DEAD", "GOOD"})
	if err != nil {
		t.Fatalf("One ticker's failure must not abort the batch: %v", err)
	}

	if results.Summary.NoPrice != 1 {
		t.Errorf("NoPrice = %d, want 1", results.Summary.NoPrice)
	}
	if results.Summary.TotalProcessed != 2 {
		t.Errorf("TotalProcessed = %d, want 2", results.Summary.TotalProcessed)
	}
	if len(results.Stocks) != 1 || results.Stocks[0].Ticker != "GOOD" {
		t.Errorf("Expected only GOOD to qualify, got %+v", results.Stocks)
	}
	// Failed tickers are still marked processed and never rescanned.
	if !state.Set()["DEAD"] {
		t.Error("No-price ticker should still be committed as processed")
	}
}

func TestRun_PriceCeilingSkipsHolderFetch(t *testing.T) {
	prices := &testutils.MockPriceSource{Prices: map[string]float64{"EXP": 5.00}}
	nasdaq := &testutils.MockHolderSource{SourceID: "nasdaq", Down: true}

	scanner := scan.NewScanner(scanConfig(), zap.NewNop(), prices,
		[]scan.HolderSource{nasdaq}, &testutils.MockClock{})

	results, _, err := scanner.Run(context.Background(), models.ScanState{}, []string{"EXP"})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if results.Summary.PriceFiltered != 1 {
		t.Errorf("PriceFiltered = %d, want 1", results.Summary.PriceFiltered)
	}
	// Holder source was down; no call means no unavailable count.
	if results.Summary.SourceUnavailable != 0 {
		t.Errorf("Holder fetch should be skipped above the ceiling")
	}
}

func TestRun_IncrementalSkipsProcessed(t *testing.T) {
	prices := &testutils.MockPriceSource{Prices: map[string]float64{"OLD": 0.50, "NEW": 0.50}}
	nasdaq := &testutils.MockHolderSource{
		SourceID: "nasdaq",
		Tables: map[string]normalize.RawTable{
			"OLD": table("nasdaq", map[string]string{"Vanguard Group Inc": "9.0"}),
			"NEW": table("nasdaq", map[string]string{"Vanguard Group Inc": "9.0"}),
		},
	}

	prev := models.ScanState{Tickers: []string{"OLD"}}
	scanner := scan.NewScanner(scanConfig(), zap.NewNop(), prices,
		[]scan.HolderSource{nasdaq}, &testutils.MockClock{})

	results, state, err := scanner.Run(context.Background(), prev, []string{"OLD", "NEW"})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if !results.Incremental {
		t.Error("Run with prior overlap should be flagged incremental")
	}
	if len(results.Stocks) != 1 || results.Stocks[0].Ticker != "NEW" {
		t.Errorf("Only the new ticker should be scanned, got %+v", results.Stocks)
	}
	for _, called := range prices.Calls {
		if called == "OLD" {
			t.Error("Previously-processed ticker was refetched")
		}
	}
	// Post-run state is a superset of the pre-run state.
	if !state.Set()["OLD"] || !state.Set()["NEW"] {
		t.Errorf("State = %v, want both tickers", state.Tickers)
	}
}

func TestRun_DelaysBetweenFetches(t *testing.T) {
	prices := &testutils.MockPriceSource{Prices: map[string]float64{"AAA": 0.5, "BBB": 0.5, "CCC": 0.5}}
	clock := &testutils.MockClock{}

	scanner := scan.NewScanner(scanConfig(), zap.NewNop(), prices, nil, clock)

	_, _, err := scanner.Run(context.Background(), models.ScanState{}, []string{"AAA", "BBB", "CCC"})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	// Two gaps between three tickers.
	if clock.Slept != 1*time.Second {
		t.Errorf("Slept = %v, want 1s", clock.Slept)
	}
}

func TestRun_CancellationCommitsOnlyFinishedTickers(t *testing.T) {
	prices := &testutils.MockPriceSource{Prices: map[string]float64{"AAA": 0.5, "BBB": 0.5}}

	ctx, cancel := context.WithCancel(context.Background())
	cancel() // cancelled before the first ticker

	scanner := scan.NewScanner(scanConfig(), zap.NewNop(), prices, nil, &testutils.MockClock{})
	results, state, err := scanner.Run(ctx, models.ScanState{}, []string{"AAA", "BBB"})

	if !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context.Canceled, got %v", err)
	}
	if len(state.Tickers) != 0 {
		t.Errorf("Cancelled run committed tickers: %v", state.Tickers)
	}
	if results.Summary.TotalProcessed != 0 {
		t.Errorf("TotalProcessed = %d, want 0", results.Summary.TotalProcessed)
	}
}
