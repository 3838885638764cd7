package scan

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/seepananikhil/PennyWhales/cmd/scanner/internal/normalize"
)

// Logger abstracts the logging library
type Logger interface {
	Info(msg string, fields ...zap.Field)
	Error(msg string, fields ...zap.Field)
	Debug(msg string, fields ...zap.Field)
	Warn(msg string, fields ...zap.Field)
}

// PriceSource abstracts the market price lookup
type PriceSource interface {
	Price(ctx context.Context, ticker string) (float64, error)
}

// HolderSource abstracts one institutional-holdings provider
type HolderSource interface {
	ID() string
	Holdings(ctx context.Context, ticker string) (normalize.RawTable, error)
}

// Clock exists for deterministic testing of the inter-request delay
type Clock interface {
	Now() time.Time
	Sleep(d time.Duration)
}

type RealClock struct{}

func (RealClock) Now() time.Time        { return time.Now() }
func (RealClock) Sleep(d time.Duration) { time.Sleep(d) }
