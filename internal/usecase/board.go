package usecase

import (
	"context"
	"errors"
	"sync"
	"time"

	"CryptoCompass/internal/domain/models"
	drepo "CryptoCompass/internal/domain/repository"
	applogger "CryptoCompass/pkg/logger"
)

// FetchFailureMessage is the single user-facing text for an upstream failure.
const FetchFailureMessage = "Failed to fetch cryptocurrency data. Please try again."

// SnapshotSink receives every snapshot a board applies.
type SnapshotSink interface {
	Process(ctx context.Context, s *models.MarketSnapshot) error
}

// BoardState is a consistent read of a board.
type BoardState struct {
	Resource string                 `json:"resource"`
	Snapshot *models.MarketSnapshot `json:"snapshot,omitempty"`
	// Error is set when the latest settled request failed. The previous
	// snapshot, if any, stays in Snapshot.
	Error   string `json:"error,omitempty"`
	Loading bool   `json:"loading"`
	Issued  uint64 `json:"issued"`
}

// Board holds the current snapshot of one resource. Each fetch takes a ticket
// from Begin; only the result for the latest ticket is applied, so a slow
// response can never overwrite a newer one. After Close every result is
// ignored.
type Board struct {
	resource string
	metrics  drepo.Metrics
	sink     SnapshotSink
	log      *applogger.Logger

	mu       sync.RWMutex
	issued   uint64
	settled  uint64
	snapshot *models.MarketSnapshot
	errMsg   string
	closed   bool
}

// BoardOption configures a Board.
type BoardOption func(*Board)

// WithSink forwards applied snapshots to sink.
func WithSink(sink SnapshotSink) BoardOption {
	return func(b *Board) { b.sink = sink }
}

// WithBoardMetrics records applied and stale results.
func WithBoardMetrics(m drepo.Metrics) BoardOption {
	return func(b *Board) { b.metrics = m }
}

// WithBoardLogger sets the logger.
func WithBoardLogger(l *applogger.Logger) BoardOption {
	return func(b *Board) {
		if l != nil {
			b.log = l
		}
	}
}

func NewBoard(resource string, opts ...BoardOption) *Board {
	b := &Board{resource: resource, log: applogger.Nop()}
	for _, opt := range opts {
		opt(b)
	}
	b.log = b.log.Component("board").With(applogger.String("resource", resource))
	return b
}

// Resource returns the board's resource name.
func (b *Board) Resource() string { return b.resource }

// Begin issues the next sequence number. It returns 0 once the board is closed.
func (b *Board) Begin() uint64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return 0
	}
	b.issued++
	return b.issued
}

// Commit applies assets under seq. It reports false when seq is stale or the
// board is closed.
func (b *Board) Commit(ctx context.Context, seq uint64, assets []models.Asset, fetchedAt time.Time) bool {
	b.mu.Lock()
	if !b.acceptLocked(seq) {
		b.mu.Unlock()
		b.discard(seq)
		return false
	}
	snap := &models.MarketSnapshot{
		Resource:  b.resource,
		Seq:       seq,
		FetchedAt: fetchedAt,
		Assets:    assets,
	}
	b.snapshot = snap
	b.errMsg = ""
	b.settled = seq
	b.mu.Unlock()

	if b.metrics != nil {
		b.metrics.RecordApplied(b.resource, seq)
		for _, a := range assets {
			b.metrics.RecordLastPrice(a.Symbol, a.CurrentPrice)
		}
	}
	b.log.Debug("snapshot applied", applogger.Uint64("seq", seq), applogger.Int("assets", len(assets)))

	if b.sink != nil {
		if err := b.sink.Process(ctx, snap); err != nil {
			b.log.Warn("snapshot fan-out failed", applogger.Uint64("seq", seq), applogger.Error(err))
		}
	}
	return true
}

// Fail records err under seq, keeping the previous snapshot. It reports false
// when seq is stale or the board is closed.
func (b *Board) Fail(seq uint64, err error) bool {
	b.mu.Lock()
	if !b.acceptLocked(seq) {
		b.mu.Unlock()
		b.discard(seq)
		return false
	}
	b.errMsg = UserMessage(err)
	b.settled = seq
	b.mu.Unlock()

	b.log.Warn("refresh failed", applogger.Uint64("seq", seq), applogger.Error(err))
	return true
}

func (b *Board) acceptLocked(seq uint64) bool {
	return !b.closed && seq != 0 && seq == b.issued
}

func (b *Board) discard(seq uint64) {
	if b.metrics != nil {
		b.metrics.RecordStale(b.resource)
	}
	b.log.Debug("stale result discarded", applogger.Uint64("seq", seq))
}

// State returns the current snapshot, error message and loading flag.
func (b *Board) State() BoardState {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return BoardState{
		Resource: b.resource,
		Snapshot: b.snapshot,
		Error:    b.errMsg,
		Loading:  !b.closed && b.issued > b.settled,
		Issued:   b.issued,
	}
}

// Close makes the board ignore every later result.
func (b *Board) Close() {
	b.mu.Lock()
	b.closed = true
	b.mu.Unlock()
}

// UserMessage maps an error to the text shown to dashboard users.
func UserMessage(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, models.ErrFetchFailure):
		return FetchFailureMessage
	case errors.Is(err, models.ErrInsufficientData):
		return "Not enough price history for this period."
	case errors.Is(err, models.ErrInvalidPrice):
		return "Price data for this period is invalid."
	case errors.Is(err, models.ErrInvalidAmount):
		return "Enter an amount greater than zero."
	case errors.Is(err, models.ErrUnknownAsset), errors.Is(err, models.ErrUnknownTemplate):
		return "Unknown selection."
	case errors.Is(err, models.ErrUnsupportedWindow), errors.Is(err, models.ErrUnsupportedListing):
		return "Unsupported option."
	default:
		return FetchFailureMessage
	}
}
