package worker

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Advancer moves bookings along by the clock.
type Advancer interface {
	AdvanceLifecycle(ctx context.Context, now time.Time) (activated, completed int64, err error)
}

type LifecycleWorker struct {
	bookings Advancer
	interval time.Duration
	lg       *zap.SugaredLogger
	now      func() time.Time
}

func NewLifecycleWorker(bookings Advancer, interval time.Duration, lg *zap.SugaredLogger) *LifecycleWorker {
	return &LifecycleWorker{bookings: bookings, interval: interval, lg: lg, now: time.Now}
}

// Start sweeps every interval until ctx is cancelled.
func (w *LifecycleWorker) Start(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	w.lg.Infow("booking lifecycle worker started", "interval", w.interval)
	for {
		select {
		case <-ctx.Done():
			w.lg.Infow("booking lifecycle worker stopped")
			return
		case <-ticker.C:
			w.sweep(ctx)
		}
	}
}

func (w *LifecycleWorker) sweep(ctx context.Context) {
	activated, completed, err := w.bookings.AdvanceLifecycle(ctx, w.now())
	if err != nil {
		w.lg.Errorw("booking lifecycle sweep failed", "error", err)
		return
	}
	if activated > 0 || completed > 0 {
		w.lg.Infow("booking lifecycle sweep", "activated", activated, "completed", completed)
	}
}
