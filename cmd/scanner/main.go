package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/redis/go-redis/v9"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/seepananikhil/PennyWhales/cmd/scanner/internal/fetch"
	"github.com/seepananikhil/PennyWhales/cmd/scanner/internal/publish"
	"github.com/seepananikhil/PennyWhales/cmd/scanner/internal/repository"
	"github.com/seepananikhil/PennyWhales/cmd/scanner/internal/scan"
	"github.com/seepananikhil/PennyWhales/cmd/scanner/internal/universe"
	"github.com/seepananikhil/PennyWhales/pkg/config"
	"github.com/seepananikhil/PennyWhales/pkg/models"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}

	logger, err := config.NewLogger(cfg.Logger)
	if err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}
	defer logger.Sync()

	tickers, err := universe.Load(cfg.Scan.TickerString, cfg.Scan.TickerFile)
	if err != nil {
		logger.Fatal("Failed to load ticker universe", zap.Error(err))
	}
	if len(tickers) == 0 {
		logger.Fatal("No tickers to process")
	}

	// Yahoo serves prices and a holder table; Nasdaq is the second
	// holder source for cross-validation.
	yahoo := fetch.NewYahooClient(cfg.Sources)
	nasdaq := fetch.NewNasdaqClient(cfg.Sources)
	holders := []scan.HolderSource{nasdaq, yahoo}

	fileStore := repository.NewFileStore(cfg.Output.StateFile, cfg.Output.ResultsFile)

	var stateStore repository.StateStore = fileStore
	var redisStore *repository.RedisStore
	if cfg.Redis.Enabled {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := rdb.Ping(context.Background()).Err(); err != nil {
			logger.Fatal("Failed to connect to Redis", zap.Error(err))
		}
		redisStore = repository.NewRedisStore(rdb)
		stateStore = redisStore
		defer redisStore.Close()
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	prev, err := stateStore.LoadState(ctx)
	if err != nil {
		logger.Fatal("Failed to load scan state", zap.Error(err))
	}
	logger.Info("Loaded scan state",
		zap.Int("previously_processed", len(prev.Tickers)),
		zap.Int("universe", len(tickers)))

	scanner := scan.NewScanner(cfg.Scan, logger, yahoo, holders, scan.RealClock{})
	results, next, runErr := scanner.Run(ctx, prev, tickers)
	if runErr != nil {
		// Cancellation mid-batch: keep what finished, record nothing else.
		logger.Warn("Scan interrupted", zap.Error(runErr))
	}

	if err := stateStore.SaveState(context.Background(), next); err != nil {
		logger.Error("Failed to save scan state", zap.Error(err))
	}
	if err := fileStore.SaveResults(context.Background(), results); err != nil {
		logger.Error("Failed to save results file", zap.Error(err))
	}
	if redisStore != nil {
		if err := redisStore.SaveResults(context.Background(), results); err != nil {
			logger.Error("Failed to save results to Redis", zap.Error(err))
		}
	}

	if cfg.Kafka.Enabled && runErr == nil {
		publish.EnsureTopic(context.Background(), logger,
			&publish.RealKafkaDialer{Dialer: kafka.DefaultDialer},
			cfg.Kafka.Brokers, cfg.Kafka.Topic)

		writer := publish.NewWriter(cfg.Kafka.Brokers, cfg.Kafka.Topic)
		pub := publish.NewPublisher(logger, writer)
		if err := pub.PublishResults(context.Background(), results); err != nil {
			logger.Error("Failed to publish results", zap.Error(err))
		}
		if err := writer.Close(); err != nil {
			logger.Error("Error closing Kafka writer", zap.Error(err))
		}
	}

	logSummary(logger, results)
}

func logSummary(logger *zap.Logger, results *models.ScanResults) {
	s := results.Summary
	logger.Info("Scan summary",
		zap.String("run_id", results.RunID),
		zap.Bool("incremental", results.Incremental),
		zap.Int("processed", s.TotalProcessed),
		zap.Int("qualifying", s.QualifyingCount),
		zap.Int("tier1", s.HighTier),
		zap.Int("tier2", s.MediumTier),
		zap.Int("tier3", s.LowTier),
		zap.Int("under_dollar", s.UnderDollar),
		zap.Int("premium", s.PremiumCount),
		zap.Int("no_price", s.NoPrice),
		zap.Int("dropped_rows", s.DroppedRows))

	for _, stock := range results.Stocks {
		logger.Info("Match",
			zap.String("ticker", stock.Ticker),
			zap.Int("tier", stock.Tier),
			zap.Float64("price", stock.Price),
			zap.Float64("blackrock_pct", stock.Percent(models.HolderBlackRock)),
			zap.Float64("vanguard_pct", stock.Percent(models.HolderVanguard)),
			zap.Bool("premium", stock.Premium),
			zap.String("quality", string(stock.Quality)))
	}
}
