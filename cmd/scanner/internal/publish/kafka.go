// Package publish feeds qualifying securities to downstream consumers
// over Kafka.
package publish

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/seepananikhil/PennyWhales/pkg/models"
)

// KafkaWriter abstracts the output stream
type KafkaWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type Publisher struct {
	logger *zap.Logger
	writer KafkaWriter
}

func NewPublisher(logger *zap.Logger, writer KafkaWriter) *Publisher {
	return &Publisher{logger: logger, writer: writer}
}

// NewWriter builds the production Kafka writer with batch tuning suited
// to a burst of messages at scan end.
func NewWriter(brokers []string, topic string) *kafka.Writer {
	return &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.LeastBytes{},
		BatchSize:    100,
		RequiredAcks: kafka.RequireOne,
	}
}

// envelope is the wire format consumers see: each ranked security plus
// enough run context to correlate messages from one scan.
type envelope struct {
	RunID string                `json:"run_id"`
	Stock models.RankedSecurity `json:"stock"`
}

// PublishResults writes one message per ranked security, keyed by ticker
// so a topic partition preserves per-ticker ordering across runs.
func (p *Publisher) PublishResults(ctx context.Context, results *models.ScanResults) error {
	if len(results.Stocks) == 0 {
		p.logger.Info("No qualifying stocks to publish", zap.String("run_id", results.RunID))
		return nil
	}

	msgs := make([]kafka.Message, 0, len(results.Stocks))
	for _, stock := range results.Stocks {
		payload, err := json.Marshal(envelope{RunID: results.RunID, Stock: stock})
		if err != nil {
			return fmt.Errorf("encoding %s for publish: %w", stock.Ticker, err)
		}
		msgs = append(msgs, kafka.Message{
			Key:   []byte(stock.Ticker),
			Value: payload,
		})
	}

	if err := p.writer.WriteMessages(ctx, msgs...); err != nil {
		return fmt.Errorf("publishing scan results: %w", err)
	}

	p.logger.Info("Published scan results",
		zap.String("run_id", results.RunID),
		zap.Int("messages", len(msgs)))
	return nil
}
