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
	"github.com/rs/zerolog/log"

	"github.com/teamhub/notification-service/internal/config"
	"github.com/teamhub/notification-service/internal/email"
	digesthandler "github.com/teamhub/notification-service/internal/handler/digest"
	notificationhandler "github.com/teamhub/notification-service/internal/handler/notification"
	presencehandler "github.com/teamhub/notification-service/internal/handler/presence"
	pushsubhandler "github.com/teamhub/notification-service/internal/handler/pushsub"
	"github.com/teamhub/notification-service/internal/middleware"
	"github.com/teamhub/notification-service/internal/repository/postgres"
	"github.com/teamhub/notification-service/internal/router"
	"github.com/teamhub/notification-service/internal/service/digest"
	"github.com/teamhub/notification-service/internal/service/directory"
	"github.com/teamhub/notification-service/internal/service/notification"
	"github.com/teamhub/notification-service/internal/service/presence"
	"github.com/teamhub/notification-service/internal/service/pushsub"
	"github.com/teamhub/notification-service/pkg/logger"
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

	base := postgres.NewBaseRepository(db)
	notificationRepo := postgres.NewNotificationRepository(base)
	deliveryRepo := postgres.NewDeliveryRepository(base)
	presenceRepo := postgres.NewPresenceRepository(base)
	subscriptionRepo := postgres.NewPushSubscriptionRepository(base)

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

	notificationSvc := notification.NewService(notificationRepo, deliveryRepo, notification.Config{
		DefaultMaxAttempts: cfg.Processing.DefaultMaxAttempts,
		UrgentMaxAttempts:  cfg.Processing.UrgentMaxAttempts,
	}, logg)
	subscriptionSvc := pushsub.NewService(subscriptionRepo, cfg.Cleanup.SubscriptionMaxAge, logg)
	aggregator := digest.NewAggregator(notificationRepo, dir, mailer, logg, nil, digest.Config{
		MinNotifications: cfg.Digest.MinNotifications,
		SendInterval:     cfg.Digest.SendInterval,
	})

	auth := middleware.NewAuthMiddleware(cfg.JWT.Secret)
	r := router.NewRouter(auth,
		notificationhandler.NewHandler(notificationSvc),
		pushsubhandler.NewHandler(subscriptionSvc),
		digesthandler.NewHandler(aggregator),
		presencehandler.NewHandler(oracle),
	)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      r.Engine(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		logg.Info("api server listening", "port", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logg.Fatal(err, "api server failed")
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	logg.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logg.Error(err, "graceful shutdown failed")
	}
}
