package middleware

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"
	"time"

	"CryptoCompass/internal/domain/models"
	domrepo "CryptoCompass/internal/domain/repository"
	applogger "CryptoCompass/pkg/logger"
)

const (
	minBackoff = 50 * time.Millisecond
	maxBackoff = 2 * time.Second
)

// pending is a delivery that failed and waits for a retry.
type pending struct {
	sink int
	snap *models.MarketSnapshot
}

// SnapshotPipeline sits between the snapshot boards and the fan-out sinks
// (websocket hub, Kafka). It validates and throttles snapshots and buffers
// failed deliveries for retry so a slow sink never blocks a board.
//
// Throttling coalesces: a snapshot arriving inside the window is held and
// replaced by any newer one, and the newest is flushed when the window ends.
type SnapshotPipeline struct {
	sinks   []domrepo.SnapshotPublisher
	metrics domrepo.Metrics
	log     *applogger.Logger
	maxRPS  int
	bufSize int
	bufCh   chan pending
	stopCh  chan struct{}
	wg      sync.WaitGroup

	mu        sync.Mutex
	started   bool
	stopped   bool
	lastSeen  map[string]time.Time              // per-resource last accepted time
	held      map[string]*models.MarketSnapshot // newest throttled snapshot per resource
	timers    map[string]*time.Timer            // pending flush of held
	delivered []map[string]uint64               // per-sink, per-resource last delivered seq
}

type PipelineOption func(*SnapshotPipeline)

// WithMaxRPS caps accepted snapshots per second per resource.
func WithMaxRPS(n int) PipelineOption {
	return func(p *SnapshotPipeline) {
		if n > 0 {
			p.maxRPS = n
		}
	}
}

// WithBufferSize sets the retry buffer size.
func WithBufferSize(n int) PipelineOption {
	return func(p *SnapshotPipeline) {
		if n > 0 {
			p.bufSize = n
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *applogger.Logger) PipelineOption {
	return func(p *SnapshotPipeline) {
		if l != nil {
			p.log = l
		}
	}
}

// NewSnapshotPipeline creates a pipeline delivering to sinks. Nil sinks are skipped.
func NewSnapshotPipeline(metrics domrepo.Metrics, sinks []domrepo.SnapshotPublisher, opts ...PipelineOption) *SnapshotPipeline {
	p := &SnapshotPipeline{
		metrics:  metrics,
		log:      applogger.Nop(),
		maxRPS:   5,
		bufSize:  64,
		stopCh:   make(chan struct{}),
		lastSeen: make(map[string]time.Time),
		held:     make(map[string]*models.MarketSnapshot),
		timers:   make(map[string]*time.Timer),
	}
	for _, s := range sinks {
		if s != nil {
			p.sinks = append(p.sinks, s)
		}
	}
	for _, opt := range opts {
		opt(p)
	}
	p.bufCh = make(chan pending, p.bufSize)
	p.delivered = make([]map[string]uint64, len(p.sinks))
	for i := range p.delivered {
		p.delivered[i] = make(map[string]uint64)
	}
	p.log = p.log.Component("pipeline")
	return p
}

// Start launches background retries of buffered deliveries.
func (p *SnapshotPipeline) Start(ctx context.Context) {
	p.mu.Lock()
	if p.started {
		p.mu.Unlock()
		return
	}
	p.started = true
	p.mu.Unlock()

	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		backoff := minBackoff
		for {
			select {
			case <-p.stopCh:
				return
			case <-ctx.Done():
				return
			case item := <-p.bufCh:
				if p.superseded(item) {
					continue
				}
				if err := p.deliver(ctx, item.sink, item.snap); err != nil {
					if backoff < maxBackoff {
						backoff *= 2
					}
					p.record("pipeline_retry")
					select {
					case <-time.After(backoff):
					case <-p.stopCh:
						return
					case <-ctx.Done():
						return
					}
					p.enqueue(item)
				} else {
					backoff = minBackoff
				}
			}
		}
	}()
}

// Stop stops retries, flushes held snapshots once and closes every sink.
func (p *SnapshotPipeline) Stop() error {
	p.mu.Lock()
	if p.started {
		p.started = false
		close(p.stopCh)
	}
	p.stopped = true
	for res, t := range p.timers {
		if t.Stop() {
			p.wg.Done()
		}
		delete(p.timers, res)
	}
	held := make([]*models.MarketSnapshot, 0, len(p.held))
	for res, snap := range p.held {
		held = append(held, snap)
		delete(p.held, res)
	}
	p.mu.Unlock()
	p.wg.Wait()

	for _, snap := range held {
		for i := range p.sinks {
			if err := p.deliver(context.Background(), i, snap); err != nil {
				p.log.Warn("final flush failed", applogger.String("resource", snap.Resource), applogger.Error(err))
			}
		}
	}

	var errs []error
	for _, s := range p.sinks {
		if err := s.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Process validates, throttles and delivers s to every sink. Failed
// deliveries are buffered and the joined error is returned.
func (p *SnapshotPipeline) Process(ctx context.Context, s *models.MarketSnapshot) error {
	start := time.Now()
	if err := validateSnapshot(s); err != nil {
		p.record("pipeline_validate")
		return err
	}
	if !p.admit(s, start) {
		p.record("pipeline_throttle")
		p.log.Debug("snapshot held", applogger.String("resource", s.Resource), applogger.Uint64("seq", s.Seq))
		return nil
	}
	err := p.fanOut(ctx, s)
	if p.metrics != nil {
		p.metrics.RecordLatency("pipeline_process", time.Since(start).Seconds())
	}
	return err
}

func (p *SnapshotPipeline) fanOut(ctx context.Context, s *models.MarketSnapshot) error {
	var errs []error
	for i := range p.sinks {
		if err := p.deliver(ctx, i, s); err != nil {
			p.record("pipeline_process")
			p.enqueue(pending{sink: i, snap: s})
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("pipeline downstream: %w", errors.Join(errs...))
	}
	return nil
}

// admit reports whether s may go out now. Otherwise s is held as the newest
// snapshot of its resource and a flush is scheduled for the end of the window.
func (p *SnapshotPipeline) admit(s *models.MarketSnapshot, now time.Time) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.stopped {
		return false
	}
	window := time.Second / time.Duration(p.maxRPS)
	last := p.lastSeen[s.Resource]
	if last.IsZero() || now.Sub(last) >= window {
		p.lastSeen[s.Resource] = now
		if h := p.held[s.Resource]; h != nil && h.Seq <= s.Seq {
			delete(p.held, s.Resource)
		}
		return true
	}
	if h := p.held[s.Resource]; h == nil || s.Seq > h.Seq {
		p.held[s.Resource] = s
	}
	if p.timers[s.Resource] == nil {
		res := s.Resource
		p.wg.Add(1)
		p.timers[res] = time.AfterFunc(window-now.Sub(last), func() { p.flush(res) })
	}
	return false
}

// flush delivers the held snapshot of resource, if any.
func (p *SnapshotPipeline) flush(resource string) {
	defer p.wg.Done()
	p.mu.Lock()
	delete(p.timers, resource)
	s := p.held[resource]
	delete(p.held, resource)
	if p.stopped || s == nil {
		p.mu.Unlock()
		return
	}
	p.lastSeen[resource] = time.Now()
	p.mu.Unlock()

	if err := p.fanOut(context.Background(), s); err != nil {
		p.log.Warn("held snapshot delivery failed", applogger.String("resource", resource), applogger.Uint64("seq", s.Seq), applogger.Error(err))
	}
}

func (p *SnapshotPipeline) deliver(ctx context.Context, sink int, s *models.MarketSnapshot) error {
	if err := p.sinks[sink].Publish(ctx, s); err != nil {
		return err
	}
	p.mu.Lock()
	if s.Seq > p.delivered[sink][s.Resource] {
		p.delivered[sink][s.Resource] = s.Seq
	}
	p.mu.Unlock()
	return nil
}

// superseded reports whether a newer snapshot already reached the sink.
func (p *SnapshotPipeline) superseded(item pending) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.delivered[item.sink][item.snap.Resource] >= item.snap.Seq
}

func (p *SnapshotPipeline) enqueue(item pending) {
	select {
	case p.bufCh <- item:
	default:
		p.record("pipeline_buffer_full")
	}
}

func (p *SnapshotPipeline) record(kind string) {
	if p.metrics != nil {
		p.metrics.RecordError(kind)
	}
}

func validateSnapshot(s *models.MarketSnapshot) error {
	if s == nil {
		return fmt.Errorf("snapshot nil")
	}
	if s.Resource == "" {
		return fmt.Errorf("resource empty")
	}
	if s.Seq == 0 {
		return fmt.Errorf("sequence missing")
	}
	for _, a := range s.Assets {
		if a.CurrentPrice < 0 || math.IsNaN(a.CurrentPrice) || math.IsInf(a.CurrentPrice, 0) {
			return fmt.Errorf("invalid price for %s", a.ID)
		}
	}
	return nil
}
