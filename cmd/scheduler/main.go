// The scheduler binary runs the periodic maintenance jobs (pitch expiry
// sweep, counter flush) against the same database and Redis as the API.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"transferdesk_backend/internal/config"
	"transferdesk_backend/internal/events"
	"transferdesk_backend/internal/messaging"
	"transferdesk_backend/internal/messaging/inapp"
	"transferdesk_backend/internal/messaging/outbox"
	msgrepo "transferdesk_backend/internal/messaging/repository"
	"transferdesk_backend/internal/pitches/counters"
	pitchrepo "transferdesk_backend/internal/pitches/repository"
	pitchservice "transferdesk_backend/internal/pitches/service"
	"transferdesk_backend/internal/profiles"
	"transferdesk_backend/internal/scheduler"
	"transferdesk_backend/platform/db"
	"transferdesk_backend/platform/logger"

	"github.com/redis/go-redis/v9"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}
	if cfg.RedisURL == "" {
		panic("REDIS_URL is required for the scheduler")
	}

	log := logger.New(cfg.Env)
	log.Info("starting scheduler", "env", cfg.Env)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := db.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Error("failed to connect to database", "error", err)
		panic("failed to connect to database: " + err.Error())
	}
	defer pool.Close()

	opt, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		panic("invalid REDIS_URL: " + err.Error())
	}
	rdb := redis.NewClient(opt)
	defer func() { _ = rdb.Close() }()

	eventBus := events.NewInMemoryBus(log)
	repo := pitchrepo.New(pool)
	countersSvc := counters.New(rdb, repo, log)
	profilesSvc := profiles.NewService(profiles.New(pool), log)
	pitchesSvc := pitchservice.New(repo, profilesSvc, countersSvc, eventBus, log)

	// The sweep publishes PitchExpired; the dispatcher turns it into team
	// notifications, so it must listen on this process's bus too. It also
	// owns the outbox redrive job.
	notificationsSvc := inapp.NewService(inapp.NewRepository(pool), log)
	dispatcher := messaging.NewDispatcher(msgrepo.New(pool), notificationsSvc, countersSvc, outbox.New(pool), log)
	dispatcher.Register(eventBus)

	worker, err := scheduler.NewWorker(cfg, pitchesSvc, countersSvc, dispatcher, log)
	if err != nil {
		log.Error("failed to initialize worker", "error", err)
		panic("failed to initialize worker: " + err.Error())
	}

	go func() {
		<-ctx.Done()
		log.Info("shutdown signal received, stopping worker")
		worker.Shutdown()
	}()

	if err := worker.Run(); err != nil {
		log.Error("worker stopped with error", "error", err)
		panic("worker stopped: " + err.Error())
	}
}
