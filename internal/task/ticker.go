// Package task runs a function periodically without letting ticks overlap
// or stack: the next run starts one interval after the previous run ended,
// the non-stacking discipline the Sender, Getter, Cleaner, and Runner
// periodic tasks all require.
package task

import (
	"context"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

// Func is one periodic unit of work. Implementations should return
// promptly; a long-running Func simply delays the next tick.
type Func func(ctx context.Context)

// Runner drives a Func on a fixed interval until its context is canceled.
type Runner struct {
	name     string
	interval time.Duration
	fn       Func
	logger   *zap.Logger

	running atomic.Bool
}

// New builds a Runner. name is used only for log lines.
func New(name string, interval time.Duration, fn Func, logger *zap.Logger) *Runner {
	return &Runner{name: name, interval: interval, fn: fn, logger: logger}
}

// Run blocks, running fn one interval after each previous run ended, until
// ctx is done.
func (r *Runner) Run(ctx context.Context) {
	timer := time.NewTimer(r.interval)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
			r.tick(ctx)
			timer.Reset(r.interval)
		}
	}
}

func (r *Runner) tick(ctx context.Context) {
	if !r.running.CompareAndSwap(false, true) {
		r.logger.Debug("tick skipped, previous run still in flight", zap.String("task", r.name))
		return
	}
	defer r.running.Store(false)

	defer func() {
		if rec := recover(); rec != nil {
			r.logger.Error("task panicked", zap.String("task", r.name), zap.Any("panic", rec))
		}
	}()

	r.fn(ctx)
}
