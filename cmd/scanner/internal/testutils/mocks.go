package testutils

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/seepananikhil/PennyWhales/cmd/scanner/internal/normalize"
)

// ErrDown simulates a provider outage.
var ErrDown = errors.New("provider down")

type MockPriceSource struct {
	Prices map[string]float64 // missing ticker = unavailable
	Calls  []string
	Mu     sync.Mutex
}

func (m *MockPriceSource) Price(ctx context.Context, ticker string) (float64, error) {
	m.Mu.Lock()
	defer m.Mu.Unlock()
	m.Calls = append(m.Calls, ticker)
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	price, ok := m.Prices[ticker]
	if !ok {
		return 0, ErrDown
	}
	return price, nil
}

type MockHolderSource struct {
	SourceID string
	Tables   map[string]normalize.RawTable // missing ticker = unavailable
	Down     bool
}

func (m *MockHolderSource) ID() string { return m.SourceID }

func (m *MockHolderSource) Holdings(ctx context.Context, ticker string) (normalize.RawTable, error) {
	if m.Down {
		return normalize.RawTable{}, ErrDown
	}
	table, ok := m.Tables[ticker]
	if !ok {
		return normalize.RawTable{}, ErrDown
	}
	return table, nil
}

type MockClock struct {
	CurrentTime time.Time
	Slept       time.Duration
}

func (m *MockClock) Now() time.Time { return m.CurrentTime }
func (m *MockClock) Sleep(d time.Duration) {
	m.Slept += d
	m.CurrentTime = m.CurrentTime.Add(d)
}

type MockKafkaWriter struct {
	Messages   []kafka.Message
	Mu         sync.Mutex
	ShouldFail bool
}

func (m *MockKafkaWriter) WriteMessages(ctx context.Context, msgs ...kafka.Message) error {
	m.Mu.Lock()
	defer m.Mu.Unlock()
	if m.ShouldFail {
		return errors.New("kafka error")
	}
	m.Messages = append(m.Messages, msgs...)
	return nil
}

func (m *MockKafkaWriter) Close() error { return nil }

// PercentTable is a shorthand for building a percent-based holder table.
func PercentTable(sourceID string, rows map[string]string) normalize.RawTable {
	table := normalize.RawTable{SourceID: sourceID}
	for holder, value := range rows {
		table.Rows = append(table.Rows, normalize.RawRow{Holder: holder, Value: value})
	}
	return table
}
