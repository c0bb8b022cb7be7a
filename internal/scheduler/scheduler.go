package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	applogger "CryptoCompass/pkg/logger"

	"github.com/robfig/cron/v3"
)

// Job is a unit of scheduled work.
type Job interface {
	Run(ctx context.Context) error
	Name() string
}

// Scheduler runs jobs on cron schedules. Jobs receive a context that is
// cancelled by Stop.
type Scheduler struct {
	cron   *cron.Cron
	log    *applogger.Logger
	ctx    context.Context
	cancel context.CancelFunc

	mu   sync.Mutex
	jobs []Job
	wg   sync.WaitGroup
}

func New(l *applogger.Logger) *Scheduler {
	if l == nil {
		l = applogger.Nop()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		cron:   cron.New(cron.WithSeconds()),
		log:    l.Component("scheduler"),
		ctx:    ctx,
		cancel: cancel,
	}
}

// Every is shorthand for AddJob("@every <d>", job).
func (s *Scheduler) Every(d time.Duration, job Job) error {
	if d <= 0 {
		return fmt.Errorf("scheduler: interval for %s must be > 0", job.Name())
	}
	return s.AddJob("@every "+d.String(), job)
}

// AddJob registers job with a cron schedule (six fields, seconds first, or a
// descriptor such as "@every 30s").
func (s *Scheduler) AddJob(schedule string, job Job) error {
	_, err := s.cron.AddFunc(schedule, func() { s.run(job) })
	if err != nil {
		return fmt.Errorf("scheduler: add %s: %w", job.Name(), err)
	}

	s.mu.Lock()
	s.jobs = append(s.jobs, job)
	s.mu.Unlock()

	s.log.Info("job registered",
		applogger.String("job", job.Name()),
		applogger.String("schedule", schedule),
	)
	return nil
}

// Start starts the cron loop. With runNow every registered job also runs
// once immediately, in the background.
func (s *Scheduler) Start(runNow bool) {
	s.cron.Start()
	s.log.Info("scheduler started")
	if !runNow {
		return
	}
	s.mu.Lock()
	jobs := append([]Job(nil), s.jobs...)
	s.mu.Unlock()
	for _, j := range jobs {
		s.wg.Add(1)
		go func(j Job) {
			defer s.wg.Done()
			s.run(j)
		}(j)
	}
}

// Stop cancels running jobs and waits for them to return.
func (s *Scheduler) Stop() {
	s.cancel()
	<-s.cron.Stop().Done()
	s.wg.Wait()
	s.log.Info("scheduler stopped")
}

func (s *Scheduler) run(job Job) {
	if s.ctx.Err() != nil {
		return
	}
	start := time.Now()
	if err := job.Run(s.ctx); err != nil {
		s.log.Warn("job failed",
			applogger.String("job", job.Name()),
			applogger.Duration("duration_ms", time.Since(start)),
			applogger.Error(err),
		)
		return
	}
	s.log.Debug("job completed",
		applogger.String("job", job.Name()),
		applogger.Duration("duration_ms", time.Since(start)),
	)
}
