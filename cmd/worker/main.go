package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"

	"github.com/teamhub/notification-service/internal/config"
	"github.com/teamhub/notification-service/internal/email"
	"github.com/teamhub/notification-service/internal/repository/postgres"
	"github.com/teamhub/notification-service/internal/scheduler"
	"github.com/teamhub/notification-service/internal/service/channel"
	"github.com/teamhub/notification-service/internal/service/digest"
	"github.com/teamhub/notification-service/internal/service/directory"
	"github.com/teamhub/notification-service/internal/service/presence"
	"github.com/teamhub/notification-service/internal/service/pushsub"
	"github.com/teamhub/notification-service/internal/worker"
	"github.com/teamhub/notification-service/pkg/logger"
	redisbroker "github.com/teamhub/notification-service/pkg/messaging/redis"
	"github.com/teamhub/notification-service/pkg/metrics"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	logg := logger.NewLogger(&logger.Config{
		Level:      logger.InfoLevel,
		TimeFormat: time.RFC3339,
		Output:     os.Stdout,
	})

	db, err := sqlx.Connect("postgres", cfg.Database.DSN())
	if err != nil {
		logg.Fatal(err, "failed to connect to database")
	}
	defer db.Close()

	broker, err := redisbroker.NewRedisBroker(redisbroker.Config{
		URL:          cfg.Redis.URL,
		MaxRetries:   cfg.Redis.MaxRetries,
		RetryBackoff: cfg.Redis.RetryBackoff,
		PoolSize:     cfg.Redis.PoolSize,
		MinIdleConns: cfg.Redis.MinIdleConns,
	}, &log.Logger)
	if err != nil {
		logg.Fatal(err, "failed to create redis broker")
	}
	defer broker.Close()

	base := postgres.NewBaseRepository(db)
	notificationRepo := postgres.NewNotificationRepository(base)
	deliveryRepo := postgres.NewDeliveryRepository(base)
	presenceRepo := postgres.NewPresenceRepository(base)
	subscriptionRepo := postgres.NewPushSubscriptionRepository(base)

	m := metrics.New("notifier")

	oracle := presence.NewOracle(presenceRepo, cfg.Presence.OfflineThreshold())

	dir := directory.NewClient(directory.Config{
		BaseURL:  cfg.Directory.BaseURL,
		Timeout:  cfg.Directory.Timeout,
		CacheTTL: cfg.Directory.CacheTTL,
	})

	mailer, err := email.NewSMTPMailer(email.Config{
		Host:       cfg.SMTP.Host,
		Port:       cfg.SMTP.Port,
		Username:   cfg.SMTP.Username,
		Password:   cfg.SMTP.Password,
		From:       cfg.SMTP.From,
		PoolSize:   cfg.SMTP.PoolSize,
		MaxPerConn: cfg.SMTP.MaxPerConn,
	})
	if err != nil {
		logg.Fatal(err, "failed to configure smtp transport")
	}
	defer mailer.Close()

	pusher, err := channel.NewVAPIDPusher(channel.VAPIDConfig{
		Subject:    cfg.Push.VAPIDSubject,
		PublicKey:  cfg.Push.VAPIDPublicKey,
		PrivateKey: cfg.Push.VAPIDPrivateKey,
	})
	if err != nil {
		logg.Fatal(err, "failed to configure web push")
	}

	registry := channel.NewRegistry(
		channel.NewInAppSender(broker),
		channel.NewEmailSender(oracle, dir, mailer, logg),
		channel.NewPushSender(oracle, subscriptionRepo, pusher, logg, m, channel.PushSenderConfig{
			TTL:         cfg.Push.TTL,
			FanoutLimit: cfg.Push.FanoutLimit,
		}),
		channel.NewSMSSender(),
	)

	processor := worker.NewProcessor(
		deliveryRepo,
		notificationRepo,
		registry,
		worker.NewBackoffPolicy(cfg.Processing.RetryDelays),
		worker.ProcessorConfig{
			BatchSize:    cfg.Processing.BatchSize,
			PollInterval: cfg.Processing.PollInterval,
		},
		logg,
		m,
	)

	aggregator := digest.NewAggregator(notificationRepo, dir, mailer, logg, m, digest.Config{
		MinNotifications: cfg.Digest.MinNotifications,
		SendInterval:     cfg.Digest.SendInterval,
	})
	subscriptions := pushsub.NewService(subscriptionRepo, cfg.Cleanup.SubscriptionMaxAge, logg)

	sched := scheduler.New(logg, 30*time.Second)
	if cfg.Digest.Enabled {
		sched.Register(digest.NewJob(aggregator, digest.PeriodDaily), scheduler.DailySchedule{Hour: cfg.Digest.DailyHour})
		sched.Register(digest.NewJob(aggregator, digest.PeriodWeekly), scheduler.WeeklySchedule{
			Weekday: cfg.Digest.WeeklyWeekday,
			Hour:    cfg.Digest.WeeklyHour,
		})
	}
	sched.Register(pushsub.NewCleanupJob(subscriptions), scheduler.DailySchedule{Hour: 3})

	setupHealthServer(cfg.Server.HealthPort, logg)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sched.Start(ctx)
	go processor.Start(ctx)

	logg.Info("notification worker started")

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	logg.Info("shutting down")
	cancel()
	sched.Stop()
}

func setupHealthServer(port int, logg *logger.Logger) {
	mux := http.NewServeMux()
	mux.HandleFunc("/health/live", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	mux.HandleFunc("/health/ready", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	mux.Handle("/metrics", promhttp.Handler())

	go func() {
		if err := http.ListenAndServe(fmt.Sprintf(":%d", port), mux); err != nil {
			logg.Error(err, "health server failed")
			os.Exit(1)
		}
	}()
}
