package main

import (
	"context"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/hibiken/asynq"
	redis "github.com/redis/go-redis/v9"

	"github.com/sokoni/duka-api/internal/common"
	"github.com/sokoni/duka-api/internal/config"
	"github.com/sokoni/duka-api/internal/jobs"
	"github.com/sokoni/duka-api/internal/obs"
	"github.com/sokoni/duka-api/internal/persist"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logFormat := envOrDefault("OBS_LOG_FORMAT", "json")
	logLevel := envOrDefault("OBS_LOG_LEVEL", "info")
	logger := obs.NewLogger(logFormat, logLevel).With().Str("component", "worker").Logger()

	obs.MustRegisterDomainMetrics(nil)

	redisOpts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("parse redis url")
	}
	redisClient := redis.NewClient(redisOpts)
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Error().Err(err).Msg("close redis")
		}
	}()

	pingCtx, pingCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer pingCancel()
	if err := redisClient.Ping(pingCtx).Err(); err != nil {
		logger.Fatal().Err(err).Msg("ping redis")
	}

	slots := &persist.Slots{Client: redisClient, Prefix: "duka", TTL: cfg.CartTTL}

	redisConnOpt, err := asynq.ParseRedisURI(cfg.RedisURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("parse redis url for task queue")
	}
	taskClient := asynq.NewClient(redisConnOpt)
	defer func() {
		if err := taskClient.Close(); err != nil {
			logger.Error().Err(err).Msg("close task client")
		}
	}()

	var mail common.EmailSender = common.LogEmailSender{Logger: logger}
	if cfg.AppEnv == "test" {
		mail = common.NopEmailSender{}
	}

	emailHandler := jobs.EmailHandler{Mail: mail, Logger: logger}
	scanner := &jobs.Scanner{
		Slots:       slots,
		Emails:      &jobs.Client{Inner: taskClient},
		RemindAfter: cfg.CartRemindAfter,
		PruneAfter:  cfg.CartPruneAfter,
		Logger:      logger,
	}

	srv := asynq.NewServer(redisConnOpt, asynq.Config{
		Concurrency: cfg.WorkerConcurrency,
		Queues: map[string]int{
			"default":       3,
			jobs.QueueEmail: 6,
		},
	})

	scheduler := asynq.NewScheduler(redisConnOpt, &asynq.SchedulerOpts{})
	if _, err := scheduler.Register(cfg.InactivityCron, jobs.NewInactivityScanTask()); err != nil {
		logger.Fatal().Err(err).Msg("register inactivity scan")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		if err := scheduler.Run(); err != nil {
			logger.Fatal().Err(err).Msg("scheduler")
		}
	}()

	go func() {
		logger.Info().Int("concurrency", cfg.WorkerConcurrency).Msg("worker starting")
		if err := srv.Run(jobs.NewMux(emailHandler, scanner)); err != nil {
			logger.Fatal().Err(err).Msg("task server")
		}
	}()

	<-ctx.Done()
	scheduler.Shutdown()
	srv.Shutdown()
	logger.Info().Msg("worker shutdown complete")
}

func envOrDefault(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}
