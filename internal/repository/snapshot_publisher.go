package repository

import (
	"context"
	"fmt"

	"CryptoCompass/internal/domain/models"
	"CryptoCompass/internal/domain/repository"
)

// producer is the part of *kafka.Producer the publisher uses.
type producer interface {
	Publish(ctx context.Context, topic string, key []byte, value interface{}) error
	Close() error
}

// snapshotMessage is the wire form of a snapshot on the topic.
type snapshotMessage struct {
	Resource  string         `json:"resource"`
	Seq       uint64         `json:"seq"`
	FetchedAt int64          `json:"fetched_at"`
	Count     int            `json:"count"`
	Assets    []models.Asset `json:"assets"`
}

// KafkaPublisher implements SnapshotPublisher for Kafka. Messages are keyed
// by resource so that all snapshots of one board land on one partition.
type KafkaPublisher struct {
	producer producer
	topic    string
}

// NewKafkaPublisher creates Kafka publisher.
func NewKafkaPublisher(p producer, topic string) repository.SnapshotPublisher {
	return &KafkaPublisher{producer: p, topic: topic}
}

func (p *KafkaPublisher) Publish(ctx context.Context, s *models.MarketSnapshot) error {
	if s == nil {
		return fmt.Errorf("publish: nil snapshot")
	}
	return p.producer.Publish(ctx, p.topic, []byte(s.Resource), snapshotMessage{
		Resource:  s.Resource,
		Seq:       s.Seq,
		FetchedAt: s.FetchedAt.UTC().UnixMilli(),
		Count:     s.Len(),
		Assets:    s.Assets,
	})
}

func (p *KafkaPublisher) Close() error {
	if p.producer != nil {
		return p.producer.Close()
	}
	return nil
}

