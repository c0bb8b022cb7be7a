package usecase

import (
	"context"
	"sync"

	"CryptoCompass/internal/domain/models"
)

type fakeMarketData struct {
	mu       sync.Mutex
	assets   []models.Asset
	history  []models.PricePoint
	err      error
	calls    int
	limits   []int
	gate     chan struct{} // when set, History and ListMarkets wait on it
	lastDays int
	// stubborn makes History wait on gate even after cancellation.
	stubborn bool
}

func (f *fakeMarketData) ListMarkets(ctx context.Context, limit int) ([]models.Asset, error) {
	f.mu.Lock()
	f.calls++
	f.limits = append(f.limits, limit)
	gate, assets, err := f.gate, f.assets, f.err
	f.mu.Unlock()
	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return assets, err
}

func (f *fakeMarketData) ListMarketsRaw(ctx context.Context, limit int) ([]byte, error) {
	return []byte("[]"), f.err
}

func (f *fakeMarketData) History(ctx context.Context, id string, days int) ([]models.PricePoint, error) {
	f.mu.Lock()
	f.calls++
	f.lastDays = days
	gate, hist, err := f.gate, f.history, f.err
	stubborn := f.stubborn
	f.mu.Unlock()
	if gate != nil && stubborn {
		<-gate
		return hist, err
	}
	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return hist, err
}

type fakeMetrics struct {
	mu      sync.Mutex
	fetches map[string]int
	stale   map[string]int
	applied map[string]uint64
}

func newFakeMetrics() *fakeMetrics {
	return &fakeMetrics{fetches: map[string]int{}, stale: map[string]int{}, applied: map[string]uint64{}}
}

func (m *fakeMetrics) RecordFetch(resource, outcome string) {
	m.mu.Lock()
	m.fetches[resource+"/"+outcome]++
	m.mu.Unlock()
}

func (m *fakeMetrics) RecordStale(resource string) {
	m.mu.Lock()
	m.stale[resource]++
	m.mu.Unlock()
}

func (m *fakeMetrics) RecordApplied(resource string, seq uint64) {
	m.mu.Lock()
	m.applied[resource] = seq
	m.mu.Unlock()
}

func (m *fakeMetrics) RecordError(string) {}
func (m *fakeMetrics) RecordLastPrice(string, float64) {}
func (m *fakeMetrics) RecordLatency(string, float64) {}
func (m *fakeMetrics) SetStreamClients(int) {}

type recordingSink struct {
	mu    sync.Mutex
	snaps []*models.MarketSnapshot
}

func (s *recordingSink) Process(_ context.Context, snap *models.MarketSnapshot) error {
	s.mu.Lock()
	s.snaps = append(s.snaps, snap)
	s.mu.Unlock()
	return nil
}

func ptr(v float64) *float64 { return &v }

func sampleAssets() []models.Asset {
	return []models.Asset{
		{ID: "bitcoin", Symbol: "btc", Name: "Bitcoin", CurrentPrice: 50000, MarketCap: 1e12, Rank: 1, PriceChange24h: ptr(2.5), PriceChange7d: ptr(-1)},
		{ID: "ethereum", Symbol: "eth", Name: "Ethereum", CurrentPrice: 2500, MarketCap: 3e11, Rank: 2, PriceChange24h: ptr(-3.456)},
		{ID: "tether", Symbol: "usdt", Name: "Tether", CurrentPrice: 1, MarketCap: 9e10, Rank: 3},
	}
}
