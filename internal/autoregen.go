package internal

import (
	"context"
	"log/slog"
	"time"

	"github.com/prentissw/chartedroots/internal/exportservice"
)

// autoRegenerator rebuilds every exported timeline once event notes stop
// changing for the debounce interval.
type autoRegenerator struct {
	regenerate func(context.Context) ([]exportservice.Result, error)
	debounce   time.Duration
	logger     *slog.Logger
	trigger    chan struct{}
}

func newAutoRegenerator(fn func(context.Context) ([]exportservice.Result, error), debounce time.Duration, logger *slog.Logger) *autoRegenerator {
	return &autoRegenerator{
		regenerate: fn,
		debounce:   debounce,
		logger:     logger,
		trigger:    make(chan struct{}, 1),
	}
}

// Notify schedules a regeneration. It never blocks.
func (a *autoRegenerator) Notify() {
	select {
	case a.trigger <- struct{}{}:
	default:
	}
}

// Run processes notifications until ctx is cancelled.
func (a *autoRegenerator) Run(ctx context.Context) error {
	timer := time.NewTimer(a.debounce)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-a.trigger:
			timer.Reset(a.debounce)
		case <-timer.C:
			results, err := a.regenerate(ctx)
			if err != nil {
				a.logger.Warn("autoregen: failed", slog.String("error", err.Error()))
				continue
			}
			failed := 0
			for _, r := range results {
				if !r.Success {
					failed++
				}
			}
			a.logger.Info("autoregen: done",
				slog.Int("timelines", len(results)),
				slog.Int("failed", failed))
		}
	}
}
