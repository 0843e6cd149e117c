package scheduler

import (
	"context"
	"time"

	"transferdesk_backend/internal/config"
	"transferdesk_backend/internal/pitches/counters"
	pitchservice "transferdesk_backend/internal/pitches/service"
	"transferdesk_backend/platform/logger"

	"github.com/hibiken/asynq"
)

// OutboxRedriver replays undelivered workflow fan-outs.
type OutboxRedriver interface {
	Redrive(ctx context.Context) (int, error)
}

// Worker runs the asynq server and the periodic scheduler in one process.
type Worker struct {
	server    *asynq.Server
	mux       *asynq.ServeMux
	scheduler *asynq.Scheduler
	log       *logger.Logger
}

// NewWorker builds the worker from the configured Redis connection.
func NewWorker(cfg *config.Config, pitchesSvc *pitchservice.Service, countersSvc *counters.Service, redriver OutboxRedriver, log *logger.Logger) (*Worker, error) {
	redisOpt, err := asynq.ParseRedisURI(cfg.RedisURL)
	if err != nil {
		return nil, err
	}

	server := asynq.NewServer(redisOpt, asynq.Config{
		Concurrency: cfg.AsynqConcurrency,
		Queues:      map[string]int{cfg.AsynqQueue: 1},
	})

	mux := asynq.NewServeMux()
	mux.HandleFunc(TypeExpirySweep, func(ctx context.Context, _ *asynq.Task) error {
		count, err := pitchesSvc.SweepExpired(ctx, time.Now())
		if err != nil {
			log.Error("expiry sweep failed", "error", err)
			return err
		}
		if count > 0 {
			log.Info("expiry sweep completed", "expired", count)
		}
		return nil
	})
	mux.HandleFunc(TypeCounterFlush, func(ctx context.Context, _ *asynq.Task) error {
		if err := countersSvc.Flush(ctx); err != nil {
			log.Error("counter flush failed", "error", err)
			return err
		}
		return nil
	})
	mux.HandleFunc(TypeOutboxRedrive, func(ctx context.Context, _ *asynq.Task) error {
		delivered, err := redriver.Redrive(ctx)
		if err != nil {
			log.Error("outbox redrive failed", "error", err)
			return err
		}
		if delivered > 0 {
			log.Info("outbox redrive delivered rows", "delivered", delivered)
		}
		return nil
	})

	scheduler := asynq.NewScheduler(redisOpt, &asynq.SchedulerOpts{})
	queueOpt := asynq.Queue(cfg.AsynqQueue)
	if _, err := scheduler.Register("@every "+cfg.ExpirySweepInterval.String(), NewExpirySweepTask(), queueOpt); err != nil {
		return nil, err
	}
	if _, err := scheduler.Register("@every "+cfg.CounterFlushInterval.String(), NewCounterFlushTask(), queueOpt); err != nil {
		return nil, err
	}
	if _, err := scheduler.Register("@every "+cfg.OutboxRedriveInterval.String(), NewOutboxRedriveTask(), queueOpt); err != nil {
		return nil, err
	}

	return &Worker{server: server, mux: mux, scheduler: scheduler, log: log}, nil
}

// Run starts the scheduler and blocks serving tasks until Shutdown.
func (w *Worker) Run() error {
	if err := w.scheduler.Start(); err != nil {
		return err
	}
	w.log.Info("scheduler worker running")
	return w.server.Run(w.mux)
}

// Shutdown stops the scheduler and drains in-flight tasks.
func (w *Worker) Shutdown() {
	w.scheduler.Shutdown()
	w.server.Shutdown()
}
