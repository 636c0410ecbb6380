package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"github.com/safecity/backend/internal/api"
	"github.com/safecity/backend/internal/auth"
	"github.com/safecity/backend/internal/chat"
	"github.com/safecity/backend/internal/config"
	"github.com/safecity/backend/internal/dashboard"
	"github.com/safecity/backend/internal/handlers"
	"github.com/safecity/backend/internal/logger"
	"github.com/safecity/backend/internal/middleware"
	"github.com/safecity/backend/internal/notify"
	"github.com/safecity/backend/internal/presence"
	"github.com/safecity/backend/internal/storage"
	mongostore "github.com/safecity/backend/internal/store/mongo"
	"github.com/safecity/backend/internal/ws"
)

func main() {
	_ = godotenv.Load()

	cfgPath := os.Getenv("CONFIG_PATH")
	if cfgPath == "" {
		cfgPath = "config.yaml"
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("config load: %v", err)
	}

	zlog, err := logger.New(logger.Config{Development: cfg.Development()})
	if err != nil {
		log.Fatalf("logger init: %v", err)
	}
	defer zlog.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := mongostore.Connect(ctx, cfg.Mongo.URI, cfg.Mongo.Database)
	if err != nil {
		zlog.Fatalw("mongo connect", "err", err)
	}
	messages := mongostore.NewMessageStore(db.Collection("messages"))
	reports := mongostore.NewReportStore(db.Collection("reports"))
	users := mongostore.NewUserStore(db.Collection("users"))
	notifications := mongostore.NewNotificationStore(db.Collection("notifications"))

	var rdb *redis.Client
	if cfg.Redis.Enabled {
		rdb = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := rdb.Ping(ctx).Err(); err != nil {
			zlog.Fatalw("redis connect", "err", err)
		}
	}

	var registry presence.Registry
	if rdb != nil {
		registry = presence.NewRedisRegistry(rdb, cfg.Redis.Prefix, 24*time.Hour, zlog)
	} else {
		registry = presence.NewMemoryRegistry()
	}

	var images chat.ImageStore
	if cfg.S3.Bucket != "" {
		s3store, err := storage.NewS3Store(ctx, cfg.S3.Region, cfg.S3.Bucket, cfg.S3.PublicRead, cfg.PresignTTL)
		if err != nil {
			zlog.Fatalw("s3 init", "err", err)
		}
		images = s3store
	}

	var notifier chat.Notifier
	if cfg.Kafka.Enabled {
		producer := notify.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.Topic)
		defer producer.Close()
		notifier = producer

		consumer := notify.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.Topic, cfg.Kafka.GroupID, notifications, zlog)
		go func() {
			if err := consumer.Run(ctx); err != nil && ctx.Err() == nil {
				zlog.Errorw("notification consumer stopped", "err", err)
			}
		}()
	}

	verifier := auth.NewVerifier(cfg.JWT.Secret)
	gateway := ws.NewGateway(registry, zlog)
	chatSvc := chat.NewService(messages, users, images, gateway, notifier, zlog)
	stats := dashboard.NewService(messages, reports)

	wsHandler := ws.NewHandler(gateway, verifier, ws.HandlerConfig{
		PingInterval:    cfg.PingInterval,
		WriteDeadline:   cfg.WriteDeadline,
		MaxMessageBytes: cfg.WS.MaxMessageBytes,
		EventsPerSecond: cfg.WS.EventsPerSecond,
		EventBurst:      cfg.WS.EventBurst,
	}, zlog)

	var limiter *middleware.RateLimiter
	if rdb != nil {
		limiter = middleware.NewRateLimiter(rdb, cfg.Redis.Prefix+":rl", cfg.RateLimit.Limit, cfg.RateWindow)
	}

	app := api.NewServer(cfg, api.Deps{
		Verifier:  verifier,
		Messages:  handlers.NewMessageHandler(chatSvc, zlog),
		Reports:   handlers.NewReportHandler(reports, images, zlog),
		Admin:     handlers.NewAdminHandler(stats, users, zlog),
		WS:        wsHandler,
		RateLimit: limiter,
	})

	errs := make(chan error, 1)
	go func() {
		addr := ":" + cfg.App.Port
		zlog.Infow("starting safecity backend", "addr", addr, "env", cfg.App.Env)
		errs <- app.Listen(addr)
	}()

	select {
	case err := <-errs:
		zlog.Fatalw("server error", "err", err)
	case <-ctx.Done():
		zlog.Infow("signal received, shutting down")
	}

	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		zlog.Warnw("fiber shutdown", "err", err)
	}
}
