package jobs

import (
	"context"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"
)

type Scheduler interface {
	RegisterTasks() error
	Run()
	Shutdown()
}

type scheduler struct {
	asynqScheduler *asynq.Scheduler
	cron           string
	idleTimeout    time.Duration
	log            *slog.Logger
}

// NewScheduler enqueues the session cleanup task on the cron schedule.
func NewScheduler(redisOpt asynq.RedisConnOpt, cron string, idleTimeout time.Duration, log *slog.Logger) Scheduler {
	if log == nil {
		log = slog.Default()
	}

	return &scheduler{
		asynqScheduler: asynq.NewScheduler(redisOpt, &asynq.SchedulerOpts{
			Logger:   NewLogger(log),
			LogLevel: asynq.WarnLevel,
		}),
		cron:        cron,
		idleTimeout: idleTimeout,
		log:         log,
	}
}

func (s *scheduler) RegisterTasks() error {
	task, err := NewSessionCleanupTask(s.idleTimeout)
	if err != nil {
		return err
	}

	if _, err := s.asynqScheduler.Register(s.cron, task); err != nil {
		return err
	}

	s.log.InfoContext(context.Background(), "scheduler: registered session cleanup task",
		slog.String("cron", s.cron),
		slog.Duration("idle_timeout", s.idleTimeout),
	)

	return nil
}

func (s *scheduler) Run() {
	s.log.InfoContext(context.Background(), "scheduler: starting")

	go func() {
		if err := s.asynqScheduler.Run(); err != nil {
			s.log.ErrorContext(context.Background(), "scheduler: run failed", "error", err)
		}
	}()
}

func (s *scheduler) Shutdown() {
	s.log.InfoContext(context.Background(), "scheduler: shutting down")
	s.asynqScheduler.Shutdown()
}
