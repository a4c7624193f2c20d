package scheduler

import (
	"context"
	"time"

	"github.com/reugn/go-quartz/job"
	"github.com/reugn/go-quartz/quartz"
	"go.uber.org/zap"
)

// Scheduler fires periodic ticks. It wraps a quartz scheduler so actors
// only deal with plain callbacks.
type Scheduler struct {
	sched  quartz.Scheduler
	cancel context.CancelFunc
	logger *zap.Logger
}

func New(logger *zap.Logger) *Scheduler {
	return &Scheduler{
		sched:  quartz.NewStdScheduler(),
		logger: logger,
	}
}

func (s *Scheduler) Start() {
	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.sched.Start(ctx)
}

// Every runs tick each interval, first run one interval from now.
func (s *Scheduler) Every(name string, interval time.Duration, tick func()) error {
	tickJob := job.NewFunctionJob(func(_ context.Context) (bool, error) {
		s.logger.Debug("scheduler: tick", zap.String("job", name))
		tick()
		return true, nil
	})
	return s.sched.ScheduleJob(
		quartz.NewJobDetail(tickJob, quartz.NewJobKey(name)),
		quartz.NewSimpleTrigger(interval),
	)
}

func (s *Scheduler) Stop() {
	if s.sched.IsStarted() {
		s.sched.Stop()
	}
	if s.cancel != nil {
		s.cancel()
	}
}
