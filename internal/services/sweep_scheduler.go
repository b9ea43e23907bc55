package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"fluxo/internal/core"
	"fluxo/internal/log"
)

// Sweeper runs a catch-up sweep. RecurrenceMaterializer implements it.
type Sweeper interface {
	RunCatchUpSweep(ctx context.Context, scope core.Scope, now time.Time) (SweepResult, error)
}

type SweepSchedulerConfig struct {
	// Interval between server-side sweeps over every owner (default: 1h).
	Interval time.Duration
	// RunOnStart sweeps immediately instead of waiting for the first tick.
	RunOnStart bool
}

func DefaultSweepSchedulerConfig() SweepSchedulerConfig {
	return SweepSchedulerConfig{
		Interval:   time.Hour,
		RunOnStart: true,
	}
}

// SweepScheduler is the server-side trigger: it sweeps all owners on a fixed
// interval so rules advance even when no client is open.
type SweepScheduler struct {
	sweeper Sweeper
	config  SweepSchedulerConfig
	now     func() time.Time
	logger  *log.Logger

	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	doneCh  chan struct{}
}

func NewSweepScheduler(sweeper Sweeper, config SweepSchedulerConfig, logger *log.Logger) *SweepScheduler {
	if config.Interval <= 0 {
		config.Interval = DefaultSweepSchedulerConfig().Interval
	}
	if logger == nil {
		logger = log.Default(log.ComponentWorker)
	}
	return &SweepScheduler{
		sweeper: sweeper,
		config:  config,
		now:     time.Now,
		logger:  logger.WithComponent(log.ComponentWorker),
	}
}

// Start begins the sweep loop. Returns an error if already running.
func (s *SweepScheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return fmt.Errorf("sweep scheduler is already running")
	}
	s.running = true
	s.stopCh = make(chan struct{})
	s.doneCh = make(chan struct{})
	stopCh, doneCh := s.stopCh, s.doneCh
	s.mu.Unlock()

	go s.runLoop(ctx, stopCh, doneCh)

	s.logger.InfoContext(ctx, "Sweep scheduler started", "interval", s.config.Interval.String())
	return nil
}

// Stop signals the loop and waits for an in-progress sweep to finish. If ctx
// expires first the scheduler still counts as running and Stop may be called
// again to keep waiting.
func (s *SweepScheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return nil
	}
	stopCh, doneCh := s.stopCh, s.doneCh
	s.stopCh = nil
	s.mu.Unlock()

	if stopCh != nil {
		close(stopCh)
	}

	select {
	case <-doneCh:
		s.logger.InfoContext(ctx, "Sweep scheduler stopped gracefully")
	case <-ctx.Done():
		s.logger.WarnContext(ctx, "Sweep scheduler stop timed out")
		return ctx.Err()
	}

	s.mu.Lock()
	s.running = false
	s.mu.Unlock()
	return nil
}

func (s *SweepScheduler) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

func (s *SweepScheduler) runLoop(ctx context.Context, stopCh <-chan struct{}, doneCh chan<- struct{}) {
	defer close(doneCh)

	ticker := time.NewTicker(s.config.Interval)
	defer ticker.Stop()

	if s.config.RunOnStart {
		s.SweepOnce(ctx)
	}

	for {
		select {
		case <-stopCh:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.SweepOnce(ctx)
		}
	}
}

// SweepOnce runs one all-owner sweep and logs its outcome.
func (s *SweepScheduler) SweepOnce(ctx context.Context) SweepResult {
	res, err := s.sweeper.RunCatchUpSweep(ctx, core.AllOwners(), s.now())
	if err != nil {
		s.logger.ErrorContext(ctx, "Scheduled sweep failed", log.FieldError, err.Error())
		return res
	}
	if res.RulesFailed > 0 {
		s.logger.WarnContext(ctx, "Scheduled sweep finished with failures",
			log.FieldRulesFailed, res.RulesFailed,
			log.FieldEntriesCreated, res.EntriesCreated)
	}
	return res
}
