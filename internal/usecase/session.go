package usecase

import (
	"context"
	"sync"
)

// SimulationQuery is one simulator selection.
type SimulationQuery struct {
	Asset  string  `json:"asset"`
	Days   int     `json:"days"`
	Amount float64 `json:"amount"`
}

// SimulationOutcome is delivered for the latest query only.
type SimulationOutcome struct {
	Seq    uint64            `json:"seq"`
	Report *SimulationReport `json:"report,omitempty"`
	Error  string            `json:"error,omitempty"`
	Err    error             `json:"-"`
}

// SimulationSession serializes the simulator for one client. Each Submit
// supersedes the previous query: its fetch is cancelled and its result, if it
// still arrives, is dropped.
type SimulationSession struct {
	svc *SimulationService

	mu     sync.Mutex
	issued uint64
	cancel context.CancelFunc
	closed bool
	wg     sync.WaitGroup
}

func NewSimulationSession(svc *SimulationService) *SimulationSession {
	return &SimulationSession{svc: svc}
}

// Submit starts q in the background and calls deliver with its outcome if q
// is still the latest query when it finishes. It returns the query's
// sequence number, or 0 when the session is closed.
func (s *SimulationSession) Submit(ctx context.Context, q SimulationQuery, deliver func(SimulationOutcome)) uint64 {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return 0
	}
	if s.cancel != nil {
		s.cancel()
	}
	s.issued++
	seq := s.issued
	runCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.wg.Add(1)
	s.mu.Unlock()

	go func() {
		defer s.wg.Done()
		defer cancel()

		report, err := s.svc.Run(runCtx, q.Asset, q.Days, q.Amount)
		out := SimulationOutcome{Seq: seq, Report: report, Err: err}
		if err != nil {
			out.Error = UserMessage(err)
		}

		s.mu.Lock()
		current := !s.closed && seq == s.issued
		s.mu.Unlock()
		if current {
			deliver(out)
		}
	}()
	return seq
}

// Close cancels the in-flight query and drops every later result.
func (s *SimulationSession) Close() {
	s.mu.Lock()
	s.closed = true
	if s.cancel != nil {
		s.cancel()
	}
	s.mu.Unlock()
	s.wg.Wait()
}
