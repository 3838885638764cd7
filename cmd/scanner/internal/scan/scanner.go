// Package scan orchestrates one run: plan the ticker delta, fetch and
// reconcile each ticker, rank the survivors, and produce the updated
// scan state.
package scan

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/seepananikhil/PennyWhales/cmd/scanner/internal/normalize"
	"github.com/seepananikhil/PennyWhales/cmd/scanner/internal/rank"
	"github.com/seepananikhil/PennyWhales/cmd/scanner/internal/reconcile"
	"github.com/seepananikhil/PennyWhales/cmd/scanner/internal/scanstate"
	"github.com/seepananikhil/PennyWhales/pkg/config"
	"github.com/seepananikhil/PennyWhales/pkg/models"
)

const progressEvery = 20

type Scanner struct {
	cfg     config.ScanConfig
	logger  Logger
	prices  PriceSource
	holders []HolderSource
	clock   Clock
}

func NewScanner(cfg config.ScanConfig, logger Logger, prices PriceSource, holders []HolderSource, clock Clock) *Scanner {
	return &Scanner{
		cfg:     cfg,
		logger:  logger,
		prices:  prices,
		holders: holders,
		clock:   clock,
	}
}

func (s *Scanner) criteria() rank.Criteria {
	return rank.Criteria{
		PriceCeiling:   s.cfg.PriceCeiling,
		MinHolding:     s.cfg.MinHolding,
		RequireAll:     s.cfg.RequireAll,
		UnderPriceMark: s.cfg.UnderPriceMark,
	}
}

// Run executes one scan over the requested universe. Fetches are strictly
// serial with the configured delay between tickers; one ticker's failure
// never aborts the batch. On cancellation the returned state contains
// only fully-processed tickers, alongside ctx.Err().
func (s *Scanner) Run(ctx context.Context, prev models.ScanState, tickers []string) (*models.ScanResults, models.ScanState, error) {
	plan := scanstate.PlanScan(prev, tickers)
	runID := uuid.NewString()

	s.logger.Info("Scan started",
		zap.String("run_id", runID),
		zap.Int("universe", len(tickers)),
		zap.Int("to_scan", len(plan.ToScan)),
		zap.Bool("incremental", plan.Incremental))

	var (
		scanned    []string
		qualifying []models.SecuritySnapshot
		summary    models.ScanSummary
		runErr     error
	)

	for i, ticker := range plan.ToScan {
		if ctx.Err() != nil {
			runErr = ctx.Err()
			break
		}

		snap, ok := s.processTicker(ctx, ticker, &summary)

		// An in-flight ticker interrupted by cancellation is not recorded
		// as processed.
		if ctx.Err() != nil {
			runErr = ctx.Err()
			break
		}

		scanned = append(scanned, ticker)
		if ok {
			qualifying = append(qualifying, snap)
			s.logger.Info("Qualifying stock",
				zap.String("ticker", ticker),
				zap.Float64("price", snap.Price),
				zap.Float64("blackrock_pct", snap.Percent(models.HolderBlackRock)),
				zap.Float64("vanguard_pct", snap.Percent(models.HolderVanguard)),
				zap.String("quality", string(snap.Quality)))
		}

		if (i+1)%progressEvery == 0 {
			s.logger.Info("Progress",
				zap.Int("done", i+1),
				zap.Int("total", len(plan.ToScan)),
				zap.Int("matches", len(qualifying)))
		}

		// Providers rate-limit aggressively; stay serial and spaced.
		if i < len(plan.ToScan)-1 {
			s.clock.Sleep(s.cfg.RequestDelay)
		}
	}

	ranked := rank.Rank(qualifying)
	counts := rank.Summarize(ranked, s.criteria())
	counts.TotalProcessed = len(scanned)
	counts.NoPrice = summary.NoPrice
	counts.PriceFiltered = summary.PriceFiltered
	counts.DroppedRows = summary.DroppedRows
	counts.SourceUnavailable = summary.SourceUnavailable

	results := &models.ScanResults{
		RunID:       runID,
		Stocks:      ranked,
		Summary:     counts,
		Timestamp:   s.clock.Now(),
		Incremental: plan.Incremental,
	}
	next := scanstate.Commit(prev, scanned, s.clock.Now())

	s.logger.Info("Scan complete",
		zap.String("run_id", runID),
		zap.Int("processed", counts.TotalProcessed),
		zap.Int("qualifying", counts.QualifyingCount),
		zap.Int("premium", counts.PremiumCount))

	return results, next, runErr
}

// processTicker fetches, normalizes, and reconciles one ticker. The
// returned bool reports whether the snapshot passed eligibility.
func (s *Scanner) processTicker(ctx context.Context, ticker string, summary *models.ScanSummary) (models.SecuritySnapshot, bool) {
	price, err := s.prices.Price(ctx, ticker)
	if err != nil {
		summary.NoPrice++
		s.logger.Debug("No price data", zap.String("ticker", ticker), zap.Error(err))
		return models.SecuritySnapshot{}, false
	}
	if price >= s.cfg.PriceCeiling {
		// Above the ceiling there is no point burning holder-table calls.
		summary.PriceFiltered++
		s.logger.Debug("Price above ceiling", zap.String("ticker", ticker), zap.Float64("price", price))
		return models.SecuritySnapshot{}, false
	}

	var sources [][]models.HolderRecord
	for _, source := range s.holders {
		table, err := source.Holdings(ctx, ticker)
		if err != nil {
			// Unavailable source means zero records, never a ticker failure.
			summary.SourceUnavailable++
			s.logger.Debug("Holder source unavailable",
				zap.String("ticker", ticker),
				zap.String("source", source.ID()),
				zap.Error(err))
			continue
		}

		records, dropped := normalize.Normalize(table)
		if dropped > 0 {
			summary.DroppedRows += dropped
			s.logger.Warn("Dropped malformed holder rows",
				zap.String("ticker", ticker),
				zap.String("source", source.ID()),
				zap.Int("rows", dropped))
		}
		sources = append(sources, records)
	}

	snap := reconcile.Snapshot(ticker, price, true, sources,
		reconcile.Options{DiscrepancyTolerance: s.cfg.DiscrepancyTolerance})

	return snap, rank.Eligible(snap, s.criteria())
}
