package scheduler

import (
	"context"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

// Poller calls ExecutePendingJobs on a fixed interval. Ticks that fire while
// the previous batch is still running are skipped, so the scheduler only
// ever has one driver.
type Poller struct {
	sched    *Scheduler
	cron     *cron.Cron
	interval time.Duration
	logger   *slog.Logger

	ctx    context.Context
	cancel context.CancelFunc
}

// NewPoller creates a poller. Intervals are whole seconds; anything shorter
// runs every second.
func NewPoller(s *Scheduler, interval time.Duration, logger *slog.Logger) *Poller {
	if logger == nil {
		logger = slog.Default()
	}
	cronLog := cron.PrintfLogger(slog.NewLogLogger(logger.Handler(), slog.LevelWarn))

	ctx, cancel := context.WithCancel(context.Background())
	p := &Poller{
		sched:    s,
		interval: interval,
		logger:   logger,
		ctx:      ctx,
		cancel:   cancel,
		cron: cron.New(cron.WithChain(
			cron.Recover(cronLog),
			cron.SkipIfStillRunning(cronLog),
		)),
	}
	p.cron.Schedule(cron.Every(interval), cron.FuncJob(p.tick))
	return p
}

func (p *Poller) tick() {
	processed := p.sched.ExecutePendingJobs(p.ctx)
	if len(processed) > 0 {
		p.logger.Debug("poll processed jobs", slog.Int("count", len(processed)))
	}
}

func (p *Poller) Start() {
	p.cron.Start()
	p.logger.Info("job poller started", slog.Duration("interval", p.interval))
}

// Stop halts the schedule and waits for an in-flight batch, or for ctx.
// Jobs of that batch that have not started yet stay pending.
func (p *Poller) Stop(ctx context.Context) error {
	p.cancel()
	done := p.cron.Stop()
	select {
	case <-done.Done():
		p.logger.Info("job poller stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
