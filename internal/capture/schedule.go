package capture

import (
	"context"
	"fmt"
	"sync"

	"github.com/robfig/cron/v3"

	appLog "craftcal/internal/log"
	"craftcal/internal/metrics"
)

// CaptureFunc performs one capture. CalendarPNG is the production value.
type CaptureFunc func(ctx context.Context, opts Options) error

// Scheduler runs preview captures on a cron schedule. Runs never overlap:
// a tick that arrives while a capture is still going is skipped.
type Scheduler struct {
	cron    *cron.Cron
	opts    Options
	capture CaptureFunc

	mu      sync.Mutex
	running bool
}

// NewScheduler validates spec (standard 5-field cron syntax) and prepares
// a scheduler. It does not start it.
func NewScheduler(spec string, opts Options, fn CaptureFunc) (*Scheduler, error) {
	if fn == nil {
		fn = CalendarPNG
	}
	s := &Scheduler{
		cron:    cron.New(),
		opts:    opts,
		capture: fn,
	}
	if _, err := s.cron.AddFunc(spec, func() { s.RunOnce(context.Background()) }); err != nil {
		return nil, fmt.Errorf("capture: invalid schedule %q: %w", spec, err)
	}
	return s, nil
}

// Start begins running the schedule in the background.
func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop halts the schedule and waits for an in-progress capture to finish
// or ctx to expire.
func (s *Scheduler) Stop(ctx context.Context) {
	done := s.cron.Stop().Done()
	select {
	case <-done:
	case <-ctx.Done():
	}
}

// RunOnce performs a capture now unless one is already running. It
// reports whether a capture was attempted.
func (s *Scheduler) RunOnce(ctx context.Context) bool {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		appLog.Info("preview capture skipped; previous run still in progress")
		metrics.Snapshots.WithLabelValues("skipped").Inc()
		return false
	}
	s.running = true
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.running = false
		s.mu.Unlock()
	}()

	if err := s.capture(ctx, s.opts); err != nil {
		appLog.Error("preview capture failed", err, "url", s.opts.URL)
		metrics.Snapshots.WithLabelValues("error").Inc()
		return true
	}
	appLog.Info("preview captured", "path", s.opts.OutputPath)
	metrics.Snapshots.WithLabelValues("ok").Inc()
	return true
}
