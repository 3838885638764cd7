package publish

import (
	"context"
	"net"
	"strconv"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// KafkaDialer and KafkaConn mirror the slice of the kafka-go API the
// topic bootstrap needs, so tests can stand in for a broker.
type KafkaDialer interface {
	DialContext(ctx context.Context, network, address string) (KafkaConn, error)
}

type KafkaConn interface {
	Controller() (kafka.Broker, error)
	Close() error
	CreateTopics(topics ...kafka.TopicConfig) error
	ReadPartitions(topics ...string) ([]kafka.Partition, error)
}

// RealKafkaDialer adapts *kafka.Dialer to the KafkaDialer interface
type RealKafkaDialer struct{ *kafka.Dialer }

func (d *RealKafkaDialer) DialContext(ctx context.Context, network, address string) (KafkaConn, error) {
	conn, err := d.Dialer.DialContext(ctx, network, address)
	if err != nil {
		return nil, err
	}
	return conn, nil
}

// EnsureTopic creates the results topic if it does not exist and waits
// briefly for partition metadata to settle. Best effort: the scanner can
// run without Kafka, so failures are logged, not returned.
func EnsureTopic(ctx context.Context, logger *zap.Logger, dialer KafkaDialer, brokers []string, topic string) {
	var conn KafkaConn
	var err error
	for _, addr := range brokers {
		conn, err = dialer.DialContext(ctx, "tcp", addr)
		if err == nil {
			break
		}
	}
	if err != nil {
		logger.Warn("Failed to dial brokers for topic bootstrap", zap.Error(err))
		return
	}
	defer conn.Close()

	controller, err := conn.Controller()
	if err != nil {
		logger.Warn("Failed to get controller", zap.Error(err))
		return
	}

	controllerAddr := net.JoinHostPort(controller.Host, strconv.Itoa(controller.Port))
	controllerConn, err := dialer.DialContext(ctx, "tcp", controllerAddr)
	if err != nil {
		logger.Warn("Failed to dial controller", zap.Error(err))
		return
	}
	defer controllerConn.Close()

	err = controllerConn.CreateTopics(kafka.TopicConfig{
		Topic:             topic,
		NumPartitions:     1, // one scan at a time; ordering matters more than parallelism
		ReplicationFactor: 1,
	})
	if err != nil {
		logger.Info("Topic creation finished (might already exist)", zap.Error(err))
	}

	for i := 0; i < 5; i++ {
		partitions, err := conn.ReadPartitions(topic)
		if err == nil && len(partitions) > 0 {
			logger.Info("Topic ready", zap.String("topic", topic), zap.Int("partitions", len(partitions)))
			return
		}
		time.Sleep(200 * time.Millisecond)
	}
	logger.Warn("Timed out waiting for topic", zap.String("topic", topic))
}
