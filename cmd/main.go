package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"salon-notification-service/internal/api"
	"salon-notification-service/internal/config"
	"salon-notification-service/internal/db"
	"salon-notification-service/internal/kafka"
	"salon-notification-service/internal/logging"
	"salon-notification-service/internal/providers"
	"salon-notification-service/internal/queue"
	"salon-notification-service/internal/reminder"
	"salon-notification-service/internal/scheduler"
	"salon-notification-service/internal/settings"
)

func main() {
	// Load config
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Config load failed:", err)
	}

	// Initialize logger
	logger, err := logging.New(cfg.Logging.Dir, cfg.Logging.Level)
	if err != nil {
		log.Fatal("Logger init failed:", err)
	}

	// Connect to DB
	dbConn, err := db.New(cfg.DB.DSN)
	if err != nil {
		log.Fatal("DB connect failed:", err)
	}
	defer dbConn.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Services
	settingsCache := settings.NewCache(dbConn)
	emailSender := providers.NewEmail(cfg.Email)
	smsSender := providers.NewSMS(cfg.SMS)

	queueSvc := queue.New(dbConn, settingsCache, emailSender, smsSender, logger)
	reminderSvc := reminder.New(dbConn, queueSvc, settingsCache, logger)
	runner := scheduler.New(queueSvc, reminderSvc, logger, cfg.Queue.BatchLimit, cfg.Queue.Interval, cfg.Reminder.Interval)

	hub := api.NewHub(logger)
	queueSvc.SetEventSink(hub)

	var wg sync.WaitGroup
	runner.Start(ctx, &wg)

	// Start Kafka consumer for notify intents, if configured
	if cfg.Kafka.Broker != "" {
		consumer := kafka.NewConsumer(cfg.Kafka, queueSvc, logger)
		consumer.Start(ctx, &wg)
		defer consumer.Close()
	}

	// Shut the background loops down on SIGINT/SIGTERM
	go func() {
		sig := make(chan os.Signal, 1)
		signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
		<-sig
		logger.Info("Shutting down")
		cancel()
	}()

	// Start API server
	handler := api.NewHandler(dbConn, queueSvc, runner, settingsCache, logger)
	router := api.NewRouter(logger, cfg, handler, hub)
	logger.Infof("Starting API server on %s", cfg.API.Port)
	if err := router.Run(cfg.API.Port); err != nil {
		logger.Errorf("API server failed: %v", err)
	}

	cancel()
	wg.Wait()
}
