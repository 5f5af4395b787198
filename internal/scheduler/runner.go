package scheduler

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"salon-notification-service/internal/logging"
	"salon-notification-service/internal/queue"
)

type queueProcessor interface {
	ProcessQueue(ctx context.Context, limit int) queue.Result
}

type reminderChecker interface {
	CheckAndSendReminders(ctx context.Context) error
}

// Runner drives the periodic work: the dispatch sweep and the reminder check.
// Sweeps are serialized with an in-flight guard so a slow batch is never
// overlapped by the next tick.
type Runner struct {
	queue      queueProcessor
	reminders  reminderChecker
	logger     *logging.Logger
	batchLimit int

	queueInterval    time.Duration
	reminderInterval time.Duration

	sweepInFlight atomic.Bool
}

func New(q queueProcessor, r reminderChecker, logger *logging.Logger, batchLimit int, queueInterval, reminderInterval time.Duration) *Runner {
	return &Runner{
		queue:            q,
		reminders:        r,
		logger:           logger,
		batchLimit:       batchLimit,
		queueInterval:    queueInterval,
		reminderInterval: reminderInterval,
	}
}

// Start launches the ticker loops. They stop when ctx is cancelled.
func (r *Runner) Start(ctx context.Context, wg *sync.WaitGroup) {
	wg.Add(2)

	go func() {
		defer wg.Done()
		ticker := time.NewTicker(r.queueInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				r.logger.Info("Queue sweep loop stopped")
				return
			case <-ticker.C:
				r.RunSweep(ctx)
			}
		}
	}()

	go func() {
		defer wg.Done()
		ticker := time.NewTicker(r.reminderInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				r.logger.Info("Reminder loop stopped")
				return
			case <-ticker.C:
				r.RunReminders(ctx)
			}
		}
	}()
}

// RunSweep runs one dispatch sweep unless one is already in flight.
func (r *Runner) RunSweep(ctx context.Context) queue.Result {
	if !r.sweepInFlight.CompareAndSwap(false, true) {
		r.logger.Warn("Previous sweep still running, skipping this tick")
		return queue.Result{}
	}
	defer r.sweepInFlight.Store(false)

	res := r.queue.ProcessQueue(ctx, r.batchLimit)
	if res.Processed > 0 || res.Errors > 0 {
		r.logger.Infof("Sweep finished: processed=%d errors=%d", res.Processed, res.Errors)
	}
	return res
}

// RunReminders runs one reminder check.
func (r *Runner) RunReminders(ctx context.Context) {
	if err := r.reminders.CheckAndSendReminders(ctx); err != nil {
		r.logger.Errorf("Reminder check failed: %v", err)
	}
}
