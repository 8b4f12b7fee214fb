package repository

import (
	"context"
	"fmt"

	"github.com/Shillmaster/JJcbjee/internal/domain/models"
	domrepo "github.com/Shillmaster/JJcbjee/internal/domain/repository"
	pkgkafka "github.com/Shillmaster/JJcbjee/pkg/kafka"
)

// messageProducer is the slice of *kafka.Producer the publisher needs.
type messageProducer interface {
	Publish(ctx context.Context, topic string, key []byte, value interface{}) error
	Close() error
}

// KafkaSignalPublisher writes signal events to a topic keyed by symbol, so
// one symbol's events stay ordered within a partition.
type KafkaSignalPublisher struct {
	producer messageProducer
	topic    string
}

var _ domrepo.SignalPublisher = (*KafkaSignalPublisher)(nil)

func NewKafkaSignalPublisher(p *pkgkafka.Producer, topic string) *KafkaSignalPublisher {
	return newKafkaSignalPublisher(p, topic)
}

func newKafkaSignalPublisher(p messageProducer, topic string) *KafkaSignalPublisher {
	return &KafkaSignalPublisher{producer: p, topic: topic}
}

func (p *KafkaSignalPublisher) Publish(ctx context.Context, e *models.SignalEvent) error {
	if e == nil {
		return nil
	}
	if err := p.producer.Publish(ctx, p.topic, []byte(e.Symbol), e); err != nil {
		return fmt.Errorf("publish signal %s: %w", e.ID, err)
	}
	return nil
}

func (p *KafkaSignalPublisher) Close() error {
	return p.producer.Close()
}
