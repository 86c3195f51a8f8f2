package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"campus/internal/api"
	"campus/internal/attendance"
	"campus/internal/auth"
	"campus/internal/banner"
	"campus/internal/blog"
	"campus/internal/bootcamp"
	"campus/internal/config"
	"campus/internal/contact"
	"campus/internal/logger"
	"campus/internal/media"
	"campus/internal/notify"
	"campus/internal/queue"
	"campus/internal/sponsor"
	"campus/internal/store"
	"campus/internal/user"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("load config")
	}
	logger.Init(cfg.LogLevel, cfg.LogFormat)

	if cfg.Production() {
		gin.SetMode(gin.ReleaseMode)
	}

	if err := runHTTP(cfg, logger.Get()); err != nil {
		log.Fatal().Err(err).Msg("http server failed")
	}
}

func runHTTP(cfg config.App, lg zerolog.Logger) error {
	ctx := context.Background()

	db, err := store.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer db.Close()
	lg.Info().Str("dialect", string(db.Dialect)).Msg("database ready")

	var rdb *store.Redis
	if cfg.QueueBackend == "redis" || cfg.ContactLogBackend == "redis" {
		rdb = store.NewRedis(cfg.RedisAddr)
		defer rdb.Close()
	}

	sender := mailSender(cfg, rdb, lg)
	notifier := notify.NewNotifier(sender, cfg.AdminEmail, lg)

	var recent contact.Log
	if cfg.ContactLogBackend == "redis" {
		recent = contact.NewRedisLog(rdb.Client, "campus:contacts:recent", cfg.ContactLogCapacity)
	} else {
		recent = contact.NewRing(cfg.ContactLogCapacity)
	}

	uploader := imageUploader(cfg, lg)
	var documents media.DocumentStore
	if cfg.S3Configured() {
		s3, err := media.NewS3Storage(media.S3Config{
			Endpoint:      cfg.S3Endpoint,
			Region:        cfg.S3Region,
			Bucket:        cfg.S3Bucket,
			AccessKey:     cfg.S3AccessKey,
			SecretKey:     cfg.S3SecretKey,
			UseSSL:        cfg.S3UseSSL,
			PublicBaseURL: cfg.S3PublicBaseURL,
		})
		if err != nil {
			return err
		}
		documents = s3
		lg.Info().Str("bucket", cfg.S3Bucket).Msg("document storage configured")
	} else {
		lg.Warn().Msg("document storage not configured (S3_BUCKET / S3_ACCESS_KEY / S3_SECRET_KEY not set)")
	}

	signer := auth.Signer{
		Key:        cfg.JWTSigningKey,
		Issuer:     cfg.JWTIssuer,
		AccessTTL:  cfg.AccessTTL,
		RefreshTTL: cfg.RefreshTTL,
	}
	blogRepo := blog.NewRepository(db.Client)
	enrollments := bootcamp.NewService(bootcamp.NewRepository(db.Client), notifier, lg)

	router := api.NewRouter(api.Deps{
		Log:             lg,
		DB:              db,
		Redis:           rdb,
		Signer:          signer,
		Users:           user.NewService(user.NewRepository(db.Client), signer),
		Posts:           blog.NewPostService(blogRepo, lg),
		Likes:           blog.NewLikeService(blogRepo, lg),
		Comments:        blog.NewCommentService(blogRepo, notifier, lg),
		Contacts:        contact.NewService(contact.NewRepository(db.Client), recent, notifier, lg),
		Bootcamp:        enrollments,
		Attendance:      attendance.NewService(attendance.NewRepository(db.Client), enrollments, lg),
		Sponsors:        sponsor.NewService(sponsor.NewRepository(db.Client), documents, notifier, lg),
		Banners:         banner.NewService(banner.NewRepository(db.Client), uploader, lg),
		Uploader:        uploader,
		CORSOrigins:     cfg.CORSOrigins,
		RateLimitPerMin: cfg.RateLimitPerMin,
	})

	srv := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		lg.Info().Str("addr", srv.Addr).Msg("starting server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			lg.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	lg.Info().Msg("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		lg.Error().Err(err).Msg("server forced shutdown")
	}
	lg.Info().Msg("server exited")
	return nil
}

// mailSender picks direct SMTP, the worker queue, or the log fallback.
func mailSender(cfg config.App, rdb *store.Redis, lg zerolog.Logger) notify.Sender {
	if cfg.NotifyBackend == "queue" {
		var q queue.Queue
		if cfg.QueueBackend == "redis" {
			q = queue.NewRedisQueue(rdb.Client, queue.DefaultKey)
		} else {
			mem := queue.NewInMemory(256)
			msgs, err := mem.Consume(context.Background())
			if err == nil {
				go notify.Deliver(context.Background(), msgs, directSender(cfg, lg), lg)
			}
			q = mem
		}
		lg.Info().Str("queue", cfg.QueueBackend).Msg("mail goes through the queue")
		return notify.NewQueueSender(q)
	}
	return directSender(cfg, lg)
}

func directSender(cfg config.App, lg zerolog.Logger) notify.Sender {
	if !cfg.SMTPConfigured() {
		lg.Warn().Msg("SMTP not configured, mail will only be logged")
		return notify.NewLogSender(lg)
	}
	return notify.NewSMTPSender(notify.SMTPConfig{
		Host:     cfg.SMTPHost,
		Port:     cfg.SMTPPort,
		Username: cfg.SMTPUsername,
		Password: cfg.SMTPPassword,
		From:     cfg.MailFrom,
	})
}

func imageUploader(cfg config.App, lg zerolog.Logger) media.Uploader {
	if !cfg.CloudinaryConfigured() {
		lg.Warn().Msg("Cloudinary not configured (CLOUDINARY_URL or CLOUDINARY_CLOUD_NAME / API_KEY / API_SECRET not set)")
		return nil
	}
	if cfg.CloudinaryURL != "" {
		c, err := media.NewCloudinaryFromURL(cfg.CloudinaryURL, cfg.CloudinaryFolder)
		if err != nil {
			lg.Error().Err(err).Msg("invalid CLOUDINARY_URL, uploads disabled")
			return nil
		}
		lg.Info().Str("cloud", c.CloudName).Msg("Cloudinary configured")
		return c
	}
	lg.Info().Str("cloud", cfg.CloudinaryCloudName).Msg("Cloudinary configured")
	return media.NewCloudinary(cfg.CloudinaryCloudName, cfg.CloudinaryAPIKey, cfg.CloudinaryAPISecret, cfg.CloudinaryFolder)
}
