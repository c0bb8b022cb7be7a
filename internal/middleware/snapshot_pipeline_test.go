package middleware

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"CryptoCompass/internal/domain/models"
	domrepo "CryptoCompass/internal/domain/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type flakySink struct {
	mu        sync.Mutex
	failTimes int
	got       []uint64
	closed    bool
}

func (s *flakySink) Publish(_ context.Context, snap *models.MarketSnapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failTimes > 0 {
		s.failTimes--
		return errors.New("sink unavailable")
	}
	s.got = append(s.got, snap.Seq)
	return nil
}

func (s *flakySink) Close() error {
	s.closed = true
	return nil
}

func (s *flakySink) seqs() []uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]uint64(nil), s.got...)
}

func snap(resource string, seq uint64) *models.MarketSnapshot {
	return &models.MarketSnapshot{Resource: resource, Seq: seq, Assets: []models.Asset{{ID: "bitcoin", CurrentPrice: 1}}}
}

func TestPipelineDeliversToAllSinks(t *testing.T) {
	a, b := &flakySink{}, &flakySink{}
	p := NewSnapshotPipeline(nil, []domrepo.SnapshotPublisher{a, nil, b}, WithMaxRPS(1000))

	require.NoError(t, p.Process(context.Background(), snap("markets", 1)))
	assert.Equal(t, []uint64{1}, a.seqs())
	assert.Equal(t, []uint64{1}, b.seqs())

	require.NoError(t, p.Stop())
	assert.True(t, a.closed)
	assert.True(t, b.closed)
}

func TestPipelineRetriesFailedDelivery(t *testing.T) {
	sink := &flakySink{failTimes: 1}
	p := NewSnapshotPipeline(nil, []domrepo.SnapshotPublisher{sink}, WithMaxRPS(1000))
	p.Start(context.Background())
	defer p.Stop()

	err := p.Process(context.Background(), snap("prices", 1))
	assert.Error(t, err)

	require.Eventually(t, func() bool { return len(sink.seqs()) == 1 }, 2*time.Second, 5*time.Millisecond)
}

func TestPipelineDropsSupersededRetry(t *testing.T) {
	sink := &flakySink{failTimes: 1}
	p := NewSnapshotPipeline(nil, []domrepo.SnapshotPublisher{sink}, WithMaxRPS(1000))

	assert.Error(t, p.Process(context.Background(), snap("markets", 1)))
	time.Sleep(5 * time.Millisecond)
	require.NoError(t, p.Process(context.Background(), snap("markets", 2)))

	p.Start(context.Background())
	defer p.Stop()
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, []uint64{2}, sink.seqs())
}

func TestPipelineValidatesAndThrottles(t *testing.T) {
	sink := &flakySink{}
	p := NewSnapshotPipeline(nil, []domrepo.SnapshotPublisher{sink}, WithMaxRPS(1))

	assert.Error(t, p.Process(context.Background(), nil))
	assert.Error(t, p.Process(context.Background(), &models.MarketSnapshot{Resource: "markets"}))

	require.NoError(t, p.Process(context.Background(), snap("markets", 1)))
	require.NoError(t, p.Process(context.Background(), snap("markets", 2)))
	require.NoError(t, p.Process(context.Background(), snap("prices", 1)))
	assert.Equal(t, []uint64{1, 1}, sink.seqs(), "markets 2 is held for the next window")

	require.Eventually(t, func() bool { return len(sink.seqs()) == 3 }, 3*time.Second, 10*time.Millisecond)
	assert.Equal(t, []uint64{1, 1, 2}, sink.seqs())
	require.NoError(t, p.Stop())
}

func TestPipelineThrottleDeliversNewest(t *testing.T) {
	sink := &flakySink{}
	p := NewSnapshotPipeline(nil, []domrepo.SnapshotPublisher{sink}, WithMaxRPS(5))
	defer p.Stop()

	for seq := uint64(1); seq <= 4; seq++ {
		require.NoError(t, p.Process(context.Background(), snap("markets", seq)))
	}
	assert.Equal(t, []uint64{1}, sink.seqs())

	require.Eventually(t, func() bool {
		got := sink.seqs()
		return len(got) > 0 && got[len(got)-1] == 4
	}, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, []uint64{1, 4}, sink.seqs(), "intermediate snapshots coalesce")
}

func TestPipelineStopFlushesHeldSnapshot(t *testing.T) {
	sink := &flakySink{}
	p := NewSnapshotPipeline(nil, []domrepo.SnapshotPublisher{sink}, WithMaxRPS(1))

	require.NoError(t, p.Process(context.Background(), snap("markets", 1)))
	require.NoError(t, p.Process(context.Background(), snap("markets", 2)))
	require.NoError(t, p.Stop())

	assert.Equal(t, []uint64{1, 2}, sink.seqs())
	assert.True(t, sink.closed)
}
