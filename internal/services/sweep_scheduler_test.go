package services

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"fluxo/internal/core"
)

type countingSweeper struct {
	calls atomic.Int32
	scope atomic.Value
}

func (s *countingSweeper) RunCatchUpSweep(_ context.Context, scope core.Scope, _ time.Time) (SweepResult, error) {
	s.calls.Add(1)
	s.scope.Store(scope)
	return SweepResult{RulesEvaluated: 1}, nil
}

func TestDefaultSweepSchedulerConfig(t *testing.T) {
	cfg := DefaultSweepSchedulerConfig()
	if cfg.Interval != time.Hour {
		t.Errorf("expected Interval 1h, got %v", cfg.Interval)
	}
	if !cfg.RunOnStart {
		t.Error("expected RunOnStart to default to true")
	}
}

func TestSweepSchedulerRunsOnStartAndStops(t *testing.T) {
	sweeper := &countingSweeper{}
	s := NewSweepScheduler(sweeper, SweepSchedulerConfig{Interval: time.Hour, RunOnStart: true}, nil)

	ctx := context.Background()
	if err := s.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if err := s.Start(ctx); err == nil {
		t.Error("expected error when starting a running scheduler")
	}

	deadline := time.Now().Add(2 * time.Second)
	for sweeper.calls.Load() == 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if got := sweeper.calls.Load(); got != 1 {
		t.Fatalf("expected 1 sweep on start, got %d", got)
	}
	if scope := sweeper.scope.Load().(core.Scope); !scope.All() {
		t.Errorf("expected an all-owners sweep, got %q", scope.Key())
	}

	stopCtx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()
	if err := s.Stop(stopCtx); err != nil {
		t.Fatalf("Stop: %v", err)
	}
	if s.IsRunning() {
		t.Error("scheduler should not be running after Stop")
	}
}

func TestSweepSchedulerTicks(t *testing.T) {
	sweeper := &countingSweeper{}
	s := NewSweepScheduler(sweeper, SweepSchedulerConfig{Interval: 10 * time.Millisecond}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := s.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for sweeper.calls.Load() < 2 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if got := sweeper.calls.Load(); got < 2 {
		t.Errorf("expected at least 2 ticks, got %d", got)
	}
	_ = s.Stop(context.Background())
}

func TestSweepSchedulerStopNotRunning(t *testing.T) {
	s := NewSweepScheduler(&countingSweeper{}, DefaultSweepSchedulerConfig(), nil)
	if err := s.Stop(context.Background()); err != nil {
		t.Errorf("Stop should not error when not running: %v", err)
	}
}

type blockingSweeper struct {
	started chan struct{}
	release chan struct{}
}

func (s *blockingSweeper) RunCatchUpSweep(_ context.Context, _ core.Scope, _ time.Time) (SweepResult, error) {
	close(s.started)
	<-s.release
	return SweepResult{}, nil
}

func TestSweepSchedulerStopAfterTimedOutStop(t *testing.T) {
	sweeper := &blockingSweeper{started: make(chan struct{}), release: make(chan struct{})}
	s := NewSweepScheduler(sweeper, SweepSchedulerConfig{Interval: time.Hour, RunOnStart: true}, nil)
	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	<-sweeper.started

	short, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	if err := s.Stop(short); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
	if !s.IsRunning() {
		t.Fatal("scheduler should still be running while the sweep is in progress")
	}

	errs := make(chan error, 2)
	for i := 0; i < 2; i++ {
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			errs <- s.Stop(ctx)
		}()
	}
	close(sweeper.release)
	for i := 0; i < 2; i++ {
		if err := <-errs; err != nil {
			t.Errorf("Stop: %v", err)
		}
	}
	if s.IsRunning() {
		t.Error("scheduler should not be running after Stop")
	}
}
