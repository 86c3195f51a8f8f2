package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"

	"campus/internal/bootcamp"
	"campus/internal/config"
	"campus/internal/logger"
	"campus/internal/notify"
	"campus/internal/queue"
	"campus/internal/store"
)

// Worker delivers queued mail and runs the scheduled course repair.
func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("load config")
	}
	logger.Init(cfg.LogLevel, cfg.LogFormat)
	lg := logger.Get().With().Str("component", "worker").Logger()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		lg.Info().Msg("shutdown signal received")
		cancel()
	}()

	db, err := store.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		lg.Fatal().Err(err).Msg("db connect failed")
	}
	defer db.Close()

	var sender notify.Sender = notify.NewLogSender(lg)
	if cfg.SMTPConfigured() {
		sender = notify.NewSMTPSender(notify.SMTPConfig{
			Host:     cfg.SMTPHost,
			Port:     cfg.SMTPPort,
			Username: cfg.SMTPUsername,
			Password: cfg.SMTPPassword,
			From:     cfg.MailFrom,
		})
	} else {
		lg.Warn().Msg("SMTP not configured, queued mail will only be logged")
	}

	// Notifications raised by the scheduled job go out directly.
	enrollments := bootcamp.NewService(bootcamp.NewRepository(db.Client), notify.NewNotifier(sender, cfg.AdminEmail, lg), lg)

	sched := cron.New()
	if _, err := sched.AddFunc(cfg.FixCoursesCron, func() {
		updates, err := enrollments.FixCourses(ctx)
		if err != nil {
			lg.Error().Err(err).Msg("scheduled course repair failed")
			return
		}
		lg.Info().Int("updated", len(updates)).Msg("scheduled course repair done")
	}); err != nil {
		lg.Fatal().Err(err).Str("schedule", cfg.FixCoursesCron).Msg("invalid FIX_COURSES_CRON")
	}
	sched.Start()
	defer sched.Stop()

	if cfg.QueueBackend != "redis" {
		lg.Info().Msg("queue backend is in-process; worker only runs scheduled jobs")
		<-ctx.Done()
		lg.Info().Msg("worker stopped")
		return
	}

	rdb := store.NewRedis(cfg.RedisAddr)
	defer rdb.Close()
	mq := queue.NewRedisQueue(rdb.Client, queue.DefaultKey)
	if pending, err := mq.Len(ctx); err != nil {
		lg.Warn().Err(err).Str("addr", cfg.RedisAddr).Msg("redis not reachable yet, consumer will keep retrying")
	} else {
		lg.Info().Int64("pending", pending).Msg("mail queue connected")
	}

	messages, err := mq.Consume(ctx)
	if err != nil {
		lg.Fatal().Err(err).Msg("queue consume init failed")
	}

	lg.Info().Msg("worker started, waiting for mail jobs")
	notify.Deliver(ctx, messages, sender, lg)
	lg.Info().Msg("worker stopped")
}
