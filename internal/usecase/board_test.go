package usecase

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"CryptoCompass/internal/domain/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBoardAppliesLatestOnly(t *testing.T) {
	m := newFakeMetrics()
	sink := &recordingSink{}
	b := NewBoard("markets", WithBoardMetrics(m), WithSink(sink))
	ctx := context.Background()

	first := b.Begin()
	second := b.Begin()
	assert.True(t, b.State().Loading)

	require.True(t, b.Commit(ctx, second, sampleAssets()[:1], fixedNow))
	assert.False(t, b.Commit(ctx, first, sampleAssets(), fixedNow), "older response must not overwrite")
	assert.False(t, b.Fail(first, models.ErrFetchFailure))

	st := b.State()
	require.NotNil(t, st.Snapshot)
	assert.Equal(t, second, st.Snapshot.Seq)
	assert.Equal(t, 1, st.Snapshot.Len())
	assert.Empty(t, st.Error)
	assert.False(t, st.Loading)

	assert.Equal(t, 2, m.stale["markets"])
	assert.Equal(t, second, m.applied["markets"])
	assert.Len(t, sink.snaps, 1)
}

func TestBoardFailureKeepsLastGoodSnapshot(t *testing.T) {
	b := NewBoard("markets")
	ctx := context.Background()

	require.True(t, b.Commit(ctx, b.Begin(), sampleAssets(), fixedNow))
	seq := b.Begin()
	require.True(t, b.Fail(seq, fmt.Errorf("%w: status 500", models.ErrFetchFailure)))

	st := b.State()
	require.NotNil(t, st.Snapshot)
	assert.Equal(t, 3, st.Snapshot.Len())
	assert.Equal(t, FetchFailureMessage, st.Error)

	require.True(t, b.Commit(ctx, b.Begin(), sampleAssets(), fixedNow))
	assert.Empty(t, b.State().Error, "success clears the message")
}

func TestBoardClosedIgnoresLateResults(t *testing.T) {
	b := NewBoard("prices")
	seq := b.Begin()
	b.Close()

	assert.False(t, b.Commit(context.Background(), seq, sampleAssets(), fixedNow))
	assert.False(t, b.Fail(seq, errors.New("late")))
	assert.Zero(t, b.Begin())
	assert.Nil(t, b.State().Snapshot)
	assert.False(t, b.State().Loading)
}

func TestUserMessage(t *testing.T) {
	assert.Empty(t, UserMessage(nil))
	assert.Equal(t, FetchFailureMessage, UserMessage(fmt.Errorf("x: %w", models.ErrFetchFailure)))
	assert.Equal(t, FetchFailureMessage, UserMessage(context.DeadlineExceeded))
	assert.Contains(t, UserMessage(models.ErrInsufficientData), "Not enough")
}
