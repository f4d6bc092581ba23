package batch

import (
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
)

// CronTrigger implements TickTrigger on a cron runner. The schedule chain
// skips a firing while the previous tick is still executing, which gives the
// engine its no-overlapping-ticks guarantee.
type CronTrigger struct {
	interval time.Duration
	logger   *slog.Logger

	mu     sync.Mutex
	runner *cron.Cron
}

// NewCronTrigger creates a trigger that fires every interval. Intervals
// below one second are rounded up by the cron runner.
func NewCronTrigger(interval time.Duration, logger *slog.Logger) *CronTrigger {
	return &CronTrigger{interval: interval, logger: logger}
}

// Arm schedules the tick. Re-arming while armed is a no-op; the running
// schedule already covers the job.
func (t *CronTrigger) Arm(tick func()) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.runner != nil {
		return nil
	}

	runner := cron.New(cron.WithChain(
		cron.Recover(&cronLogger{logger: t.logger}),
		cron.SkipIfStillRunning(&cronLogger{logger: t.logger}),
	))
	runner.Schedule(cron.Every(t.interval), cron.FuncJob(tick))
	runner.Start()
	t.runner = runner

	t.logger.Info("Tick trigger armed",
		slog.Duration("interval", t.interval),
	)

	return nil
}

// Disarm cancels all future invocations. A tick currently running finishes.
func (t *CronTrigger) Disarm() {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.runner == nil {
		return
	}
	t.runner.Stop()
	t.runner = nil

	t.logger.Info("Tick trigger disarmed")
}

// cronLogger adapts slog to the cron runner's logger interface.
type cronLogger struct {
	logger *slog.Logger
}

func (l *cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Debug(msg, keysAndValues...)
}

func (l *cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	args := append([]interface{}{"error", err.Error()}, keysAndValues...)
	l.logger.Error(msg, args...)
}
