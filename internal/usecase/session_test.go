package usecase

import (
	"context"
	"sync"
	"testing"
	"time"

	"CryptoCompass/internal/domain/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSimulationSessionDeliversLatestOnly(t *testing.T) {
	catalog := models.DefaultCatalog()
	gate := make(chan struct{})
	src := &fakeMarketData{history: points(100, 150), gate: gate}
	sess := NewSimulationSession(NewSimulationService(&catalog, src, nil, nil))

	var mu sync.Mutex
	var got []SimulationOutcome
	deliver := func(o SimulationOutcome) {
		mu.Lock()
		got = append(got, o)
		mu.Unlock()
	}

	first := sess.Submit(context.Background(), SimulationQuery{Asset: "bitcoin", Days: 30, Amount: 1000}, deliver)
	second := sess.Submit(context.Background(), SimulationQuery{Asset: "ethereum", Days: 90, Amount: 500}, deliver)
	require.Equal(t, first+1, second)
	close(gate)

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(got) == 1
	}, time.Second, time.Millisecond)
	sess.Close()

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, got, 1)
	assert.Equal(t, second, got[0].Seq)
	require.NotNil(t, got[0].Report)
	assert.Equal(t, "ethereum", got[0].Report.Asset.ID)
	assert.Equal(t, 250.0, got[0].Report.Result.Profit)
}

func TestSimulationSessionReportsErrors(t *testing.T) {
	catalog := models.DefaultCatalog()
	sess := NewSimulationSession(NewSimulationService(&catalog, &fakeMarketData{history: points(100)}, nil, nil))
	defer sess.Close()

	done := make(chan SimulationOutcome, 1)
	sess.Submit(context.Background(), SimulationQuery{Asset: "bitcoin", Amount: 1000}, func(o SimulationOutcome) { done <- o })

	select {
	case o := <-done:
		assert.ErrorIs(t, o.Err, models.ErrInsufficientData)
		assert.NotEmpty(t, o.Error)
	case <-time.After(time.Second):
		t.Fatal("no outcome")
	}
}

func TestSimulationSessionClosed(t *testing.T) {
	catalog := models.DefaultCatalog()
	sess := NewSimulationSession(NewSimulationService(&catalog, &fakeMarketData{}, nil, nil))
	sess.Close()
	assert.Zero(t, sess.Submit(context.Background(), SimulationQuery{}, func(SimulationOutcome) { t.Fatal("delivered") }))
}

func TestSimulationSessionDropsResultAfterClose(t *testing.T) {
	catalog := models.DefaultCatalog()
	gate := make(chan struct{})
	src := &fakeMarketData{history: points(100, 150), gate: gate, stubborn: true}
	sess := NewSimulationSession(NewSimulationService(&catalog, src, nil, nil))

	delivered := make(chan SimulationOutcome, 1)
	seq := sess.Submit(context.Background(), SimulationQuery{Asset: "bitcoin", Days: 30, Amount: 1000}, func(o SimulationOutcome) {
		delivered <- o
	})
	require.NotZero(t, seq)
	require.Eventually(t, func() bool {
		src.mu.Lock()
		defer src.mu.Unlock()
		return src.calls == 1
	}, time.Second, time.Millisecond)

	closed := make(chan struct{})
	go func() {
		sess.Close()
		close(closed)
	}()
	// Close waits for the in-flight fetch, which only returns once released.
	time.Sleep(20 * time.Millisecond)
	close(gate)

	select {
	case <-closed:
	case <-time.After(time.Second):
		t.Fatal("close did not return")
	}
	select {
	case o := <-delivered:
		t.Fatalf("outcome %d delivered after close", o.Seq)
	default:
	}
}
