// Package worker runs periodic maintenance for guest quota rows.
package worker

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

// Sweeper deletes rows whose window has elapsed.
type Sweeper interface {
	Sweep(ctx context.Context, now time.Time) (int, error)
}

// Janitor is any in-process cache that forgets idle entries.
type Janitor interface {
	Cleanup() int
	Len() int
}

type Worker struct {
	sweeper  Sweeper
	schedule string
	logger   *slog.Logger
	janitors []Janitor
	onSweep  func(tracked int)
	now      func() time.Time
}

type Option func(*Worker)

// WithJanitor runs j.Cleanup on every tick alongside the sweep.
func WithJanitor(j Janitor) Option {
	return func(w *Worker) {
		w.janitors = append(w.janitors, j)
	}
}

// WithTrackedObserver reports the janitors' combined size after each tick.
func WithTrackedObserver(fn func(tracked int)) Option {
	return func(w *Worker) {
		w.onSweep = fn
	}
}

func WithClock(now func() time.Time) Option {
	return func(w *Worker) {
		w.now = now
	}
}

// New builds a sweeper worker. schedule is a cron spec such as "@every 1h"
// or "0 * * * *".
func New(sweeper Sweeper, schedule string, logger *slog.Logger, opts ...Option) *Worker {
	w := &Worker{
		sweeper:  sweeper,
		schedule: schedule,
		logger:   logger,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Run schedules the sweep and blocks until ctx is cancelled, then waits for
// an in-flight sweep to finish.
func (w *Worker) Run(ctx context.Context) error {
	c := cron.New(cron.WithLocation(time.UTC))
	if _, err := c.AddFunc(w.schedule, func() { w.Tick(ctx) }); err != nil {
		return fmt.Errorf("schedule guest quota sweep %q: %w", w.schedule, err)
	}
	w.logger.InfoContext(ctx, "guest quota sweeper started", "schedule", w.schedule)
	c.Start()

	<-ctx.Done()
	<-c.Stop().Done()
	w.logger.InfoContext(context.Background(), "guest quota sweeper stopped")
	return nil
}

// Tick performs one sweep pass.
func (w *Worker) Tick(ctx context.Context) {
	removed, err := w.sweeper.Sweep(ctx, w.now())
	if err != nil {
		w.logger.ErrorContext(ctx, "guest quota sweep failed", "error", err)
	} else if removed > 0 {
		w.logger.InfoContext(ctx, "guest quota sweep", "removed", removed)
	}

	tracked := 0
	for _, j := range w.janitors {
		j.Cleanup()
		tracked += j.Len()
	}
	if w.onSweep != nil {
		w.onSweep(tracked)
	}
}

// ValidateSchedule reports whether spec parses with the default cron parser.
func ValidateSchedule(spec string) error {
	if _, err := cron.ParseStandard(spec); err != nil {
		return fmt.Errorf("invalid cron schedule %q: %w", spec, err)
	}
	return nil
}
