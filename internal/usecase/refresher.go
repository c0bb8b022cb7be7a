package usecase

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	drepo "CryptoCompass/internal/domain/repository"
	applogger "CryptoCompass/pkg/logger"
)

// Refresher pulls the ranked listing into a Board. It is shared by the timer
// and the manual refresh endpoint.
type Refresher struct {
	board   *Board
	source  drepo.MarketData
	metrics drepo.Metrics
	log     *applogger.Logger
	limit   atomic.Int64
	timeout time.Duration
	now     func() time.Time
}

func NewRefresher(board *Board, source drepo.MarketData, limit int, timeout time.Duration, metrics drepo.Metrics, l *applogger.Logger) *Refresher {
	if l == nil {
		l = applogger.Nop()
	}
	r := &Refresher{
		board:   board,
		source:  source,
		metrics: metrics,
		log:     l.Component("refresher").With(applogger.String("resource", board.Resource())),
		timeout: timeout,
		now:     time.Now,
	}
	r.limit.Store(int64(limit))
	return r
}

// Board returns the board this refresher feeds.
func (r *Refresher) Board() *Board { return r.board }

// Limit returns the current listing size.
func (r *Refresher) Limit() int { return int(r.limit.Load()) }

// SetLimit changes the listing size used by later refreshes.
func (r *Refresher) SetLimit(n int) { r.limit.Store(int64(n)) }

// Refresh fetches once and settles the result on the board. A nil error with
// applied=false means a newer request superseded this one.
func (r *Refresher) Refresh(ctx context.Context) (applied bool, err error) {
	seq := r.board.Begin()
	if seq == 0 {
		return false, nil
	}
	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	limit := r.Limit()
	start := r.now()
	assets, err := r.source.ListMarkets(ctx, limit)
	if r.metrics != nil {
		r.metrics.RecordLatency(r.board.Resource()+"_fetch", time.Since(start).Seconds())
	}
	if err != nil {
		r.record("error")
		return r.board.Fail(seq, err), fmt.Errorf("refresh %s: %w", r.board.Resource(), err)
	}
	r.record("ok")
	return r.board.Commit(ctx, seq, assets, r.now().UTC()), nil
}

// Name identifies the refresher as a scheduled job.
func (r *Refresher) Name() string { return "refresh_" + r.board.Resource() }

// Run is the scheduler entry point. The error is also settled on the board.
func (r *Refresher) Run(ctx context.Context) error {
	applied, err := r.Refresh(ctx)
	if err == nil && !applied {
		r.log.Debug("refresh superseded")
	}
	return err
}

func (r *Refresher) record(outcome string) {
	if r.metrics != nil {
		r.metrics.RecordFetch(r.board.Resource(), outcome)
	}
}
