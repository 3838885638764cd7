package config

import (
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all configuration for the scanner
type Config struct {
	App     AppConfig     `mapstructure:"app"`
	Scan    ScanConfig    `mapstructure:"scan"`
	Sources SourcesConfig `mapstructure:"sources"`
	Redis   RedisConfig   `mapstructure:"redis"`
	Kafka   KafkaConfig   `mapstructure:"kafka"`
	Output  OutputConfig  `mapstructure:"output"`
	Logger  LoggerConfig  `mapstructure:"logger"`
}

type AppConfig struct {
	Env string `mapstructure:"env"` // e.g., "local", "prod"
}

// ScanConfig is the engine's threshold surface. All percentages are on
// the 0-100 scale; callers holding decimal fractions convert before use.
type ScanConfig struct {
	PriceCeiling         float64       `mapstructure:"price_ceiling"`         // exclusive upper bound
	MinHolding           float64       `mapstructure:"min_holding"`           // percentage points
	RequireAll           bool          `mapstructure:"require_all"`           // true = both BR and VG must meet MinHolding
	DiscrepancyTolerance float64       `mapstructure:"discrepancy_tolerance"` // pp spread before quality drops to medium
	UnderPriceMark       float64       `mapstructure:"under_price_mark"`      // summary sub-threshold
	RequestDelay         time.Duration `mapstructure:"request_delay"`         // between per-ticker fetches
	TickerString         string        `mapstructure:"ticker_string"`         // inline comma-separated list, overrides file
	TickerFile           string        `mapstructure:"ticker_file"`
}

type SourcesConfig struct {
	NasdaqBaseURL string        `mapstructure:"nasdaq_base_url"`
	YahooBaseURL  string        `mapstructure:"yahoo_base_url"`
	Timeout       time.Duration `mapstructure:"timeout"`
	UserAgent     string        `mapstructure:"user_agent"`
}

type RedisConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type KafkaConfig struct {
	Enabled bool     `mapstructure:"enabled"`
	Brokers []string `mapstructure:"brokers"`
	Topic   string   `mapstructure:"topic"`
}

type OutputConfig struct {
	ResultsFile string `mapstructure:"results_file"`
	StateFile   string `mapstructure:"state_file"`
}

type LoggerConfig struct {
	Level string `mapstructure:"level"`
	Env   string `mapstructure:"env"`
}

// LoadConfig reads configuration from .env file, environment variables, and defaults.
func LoadConfig() (*Config, error) {
	v := viper.New()

	// Load .env into the real environment first so AutomaticEnv sees it
	if err := godotenv.Load(); err != nil {
		log.Println("Note: No .env file found, relying on System Env Vars")
	}

	v.SetDefault("app.env", "local")

	v.SetDefault("scan.price_ceiling", 2.00)
	v.SetDefault("scan.min_holding", 4.0)
	v.SetDefault("scan.require_all", false)
	v.SetDefault("scan.discrepancy_tolerance", 1.0)
	v.SetDefault("scan.under_price_mark", 1.00)
	v.SetDefault("scan.request_delay", 500*time.Millisecond)
	v.SetDefault("scan.ticker_string", "")
	v.SetDefault("scan.ticker_file", "tickers.txt")

	v.SetDefault("sources.nasdaq_base_url", "https://api.nasdaq.com")
	v.SetDefault("sources.yahoo_base_url", "https://query2.finance.yahoo.com")
	v.SetDefault("sources.timeout", 10*time.Second)
	v.SetDefault("sources.user_agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36")

	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)

	v.SetDefault("kafka.enabled", false)
	v.SetDefault("kafka.brokers", []string{"localhost:9092"})
	v.SetDefault("kafka.topic", "scanner_matches")

	v.SetDefault("output.results_file", "scan_results.json")
	v.SetDefault("output.state_file", "processed_stocks.json")

	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.env", "local")

	// Maps dot-notation to underscores (e.g., "scan.price_ceiling" -> "SCAN_PRICE_CEILING")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	bindEnv(v, "app.env")
	bindEnv(v, "scan.price_ceiling", "scan.min_holding", "scan.require_all",
		"scan.discrepancy_tolerance", "scan.under_price_mark", "scan.request_delay",
		"scan.ticker_string", "scan.ticker_file")
	bindEnv(v, "sources.nasdaq_base_url", "sources.yahoo_base_url", "sources.timeout", "sources.user_agent")
	bindEnv(v, "redis.enabled", "redis.addr", "redis.password", "redis.db")
	bindEnv(v, "kafka.enabled", "kafka.brokers", "kafka.topic")
	bindEnv(v, "output.results_file", "output.state_file")
	bindEnv(v, "logger.level", "logger.env")

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config into struct: %v", err)
	}

	if cfg.Scan.PriceCeiling <= 0 {
		return nil, fmt.Errorf("scan price ceiling must be positive, got %v", cfg.Scan.PriceCeiling)
	}
	if cfg.Scan.MinHolding < 0 || cfg.Scan.MinHolding > 100 {
		return nil, fmt.Errorf("scan min holding must be on the 0-100 scale, got %v", cfg.Scan.MinHolding)
	}
	if cfg.Kafka.Enabled && len(cfg.Kafka.Brokers) == 0 {
		return nil, fmt.Errorf("kafka brokers cannot be empty when kafka is enabled")
	}

	return &cfg, nil
}

// bindEnv is a helper to bind multiple keys at once
func bindEnv(v *viper.Viper, keys ...string) {
	for _, key := range keys {
		if err := v.BindEnv(key); err != nil {
			log.Printf("Could not bind env var for key %s: %v", key, err)
		}
	}
}
