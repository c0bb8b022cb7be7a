package repository

import (
	"context"

	"CryptoCompass/internal/domain/models"
)

// MarketData is the upstream market data source.
type MarketData interface {
	// ListMarkets returns the top limit assets ordered by market cap.
	ListMarkets(ctx context.Context, limit int) ([]models.Asset, error)
	// ListMarketsRaw returns the upstream listing body untouched, for the relay.
	ListMarketsRaw(ctx context.Context, limit int) ([]byte, error)
	// History returns chronological price samples over the last days.
	History(ctx context.Context, assetID string, days int) ([]models.PricePoint, error)
}

// SnapshotPublisher receives every applied snapshot.
type SnapshotPublisher interface {
	Publish(ctx context.Context, s *models.MarketSnapshot) error
	Close() error
}

type Metrics interface {
	RecordFetch(resource, outcome string)
	RecordStale(resource string)
	RecordError(kind string)
	RecordLastPrice(symbol string, price float64)
	RecordLatency(op string, seconds float64)
	RecordApplied(resource string, seq uint64)
	SetStreamClients(n int)
}
