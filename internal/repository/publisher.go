package repository

import (
	"context"

	"github.com/javiersolana/crypto-swarm/internal/domain/models"
	"github.com/javiersolana/crypto-swarm/internal/domain/repository"
	pkgkafka "github.com/javiersolana/crypto-swarm/pkg/kafka"
)

// KafkaAlertPublisher delivers alerts to the configured topic, keyed by
// subject so per-subject ordering survives partitioning.
type KafkaAlertPublisher struct {
	producer *pkgkafka.Producer
}

func NewKafkaAlertPublisher(producer *pkgkafka.Producer) repository.Publisher {
	return &KafkaAlertPublisher{producer: producer}
}

func (p *KafkaAlertPublisher) Publish(ctx context.Context, alert models.AlertRecord) error {
	return p.producer.Publish(ctx, []byte(alert.Subject), &alert)
}

func (p *KafkaAlertPublisher) Close() error {
	return p.producer.Close()
}

// NopPublisher is used when Kafka delivery is disabled.
type NopPublisher struct{}

func (NopPublisher) Publish(ctx context.Context, alert models.AlertRecord) error { return nil }

func (NopPublisher) Close() error { return nil }
