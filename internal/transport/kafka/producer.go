package kafka

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/IBM/sarama"

	"service-parcel-platform/internal/domain"
)

var newSyncProducer = sarama.NewSyncProducer

// Producer publishes notifications to a topic. Messages are keyed by tracking code
// so one parcel's notifications stay ordered within a partition.
type Producer struct {
	producer sarama.SyncProducer
	topic    string
}

// NewProducer connects a synchronous producer.
func NewProducer(brokers []string, topic string) (*Producer, error) {
	cfg := sarama.NewConfig()
	cfg.Producer.RequiredAcks = sarama.WaitForAll
	cfg.Producer.Return.Successes = true
	cfg.Producer.Retry.Max = 3

	p, err := newSyncProducer(brokers, cfg)
	if err != nil {
		return nil, fmt.Errorf("kafka producer: %w", err)
	}
	return NewProducerFrom(p, topic), nil
}

// NewProducerFrom wraps an existing producer.
func NewProducerFrom(p sarama.SyncProducer, topic string) *Producer {
	return &Producer{producer: p, topic: topic}
}

// Enqueue publishes n.
func (p *Producer) Enqueue(_ context.Context, n domain.Notification) error {
	b, err := json.Marshal(FromDomain(n))
	if err != nil {
		return fmt.Errorf("marshal notification: %w", err)
	}
	_, _, err = p.producer.SendMessage(&sarama.ProducerMessage{
		Topic: p.topic,
		Key:   sarama.StringEncoder(n.TrackingCode),
		Value: sarama.ByteEncoder(b),
	})
	if err != nil {
		return fmt.Errorf("publish notification %s: %w", n.ID, err)
	}
	return nil
}

// Close closes the producer.
func (p *Producer) Close() error {
	return p.producer.Close()
}
