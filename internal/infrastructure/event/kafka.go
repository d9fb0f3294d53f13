package event

import (
	"context"
	"fmt"

	"github.com/ChenZongYanLive/OrderManagementSystem/internal/domain/shared"
	"github.com/ChenZongYanLive/OrderManagementSystem/internal/infrastructure/config"
	"github.com/ChenZongYanLive/OrderManagementSystem/internal/infrastructure/logger"
	"github.com/IBM/sarama"
	"go.uber.org/zap"
)

// Header keys set on every forwarded message.
const (
	HeaderEventType = "event_type"
	HeaderEventID   = "event_id"
)

// NewSyncProducer dials the configured brokers.
func NewSyncProducer(cfg config.KafkaConfig) (sarama.SyncProducer, error) {
	sc := sarama.NewConfig()
	sc.ClientID = cfg.ClientID
	sc.Producer.Return.Successes = true
	sc.Producer.RequiredAcks = sarama.WaitForAll
	sc.Producer.Retry.Max = 5
	sc.Producer.Partitioner = sarama.NewHashPartitioner

	producer, err := sarama.NewSyncProducer(cfg.Brokers, sc)
	if err != nil {
		return nil, fmt.Errorf("failed to start kafka producer: %w", err)
	}
	return producer, nil
}

// KafkaForwarder is a wildcard event handler that copies every domain event
// to a Kafka topic, keyed by the event's partition key so one batch's events
// stay ordered on a single partition.
type KafkaForwarder struct {
	producer sarama.SyncProducer
	topic    string
	logger   *zap.Logger
}

// NewKafkaForwarder creates a forwarder writing to topic.
func NewKafkaForwarder(producer sarama.SyncProducer, topic string, logger *zap.Logger) *KafkaForwarder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &KafkaForwarder{producer: producer, topic: topic, logger: logger}
}

// Handle sends ev to the topic and waits for the broker acknowledgement.
func (f *KafkaForwarder) Handle(ctx context.Context, ev shared.DomainEvent) error {
	env, err := NewEnvelope(ev)
	if err != nil {
		return err
	}
	data, err := env.Marshal()
	if err != nil {
		return fmt.Errorf("failed to encode event envelope: %w", err)
	}

	msg := &sarama.ProducerMessage{
		Topic: f.topic,
		Key:   sarama.StringEncoder(ev.PartitionKey()),
		Value: sarama.ByteEncoder(data),
		Headers: []sarama.RecordHeader{
			{Key: []byte(HeaderEventType), Value: []byte(ev.EventType())},
			{Key: []byte(HeaderEventID), Value: []byte(ev.EventID().String())},
		},
	}

	partition, offset, err := f.producer.SendMessage(msg)
	if err != nil {
		return fmt.Errorf("failed to write %s event to kafka: %w", ev.EventType(), err)
	}

	logger.WithLogger(ctx, f.logger).Debug("event forwarded",
		zap.String("event_type", ev.EventType()),
		zap.String("topic", f.topic),
		zap.Int32("partition", partition),
		zap.Int64("offset", offset),
	)
	return nil
}

// EventTypes is empty: the forwarder receives every event.
func (f *KafkaForwarder) EventTypes() []string {
	return nil
}

// Close closes the underlying producer.
func (f *KafkaForwarder) Close() error {
	return f.producer.Close()
}

var _ shared.EventHandler = (*KafkaForwarder)(nil)
