package main

import (
	"context"
	"errors"
	"flag"
	"os"
	"time"

	"scadenze/internal/amqp"
	"scadenze/internal/backend"
	"scadenze/internal/cli"
	applog "scadenze/internal/log"
	"scadenze/internal/recurrence"
	"scadenze/internal/services"
)

func main() {
	consume := flag.Bool("consume", false, "consume bill-due reminders and log them instead of publishing")
	flag.Parse()

	cli.LoadEnvFile()

	logger := cli.SetupLogger(os.Getenv("LOG_LEVEL"), applog.ComponentReminder)
	cfg := cli.LoadAndValidateConfig(logger)

	var amqpClient *amqp.Client
	if cfg.AMQPURL != "" {
		client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Warn("Failed to initialize AMQP client, reminders will only be logged", applog.FieldError, err)
		} else {
			amqpClient = client
			defer amqpClient.Close()
			logger.Info("AMQP client initialized", "exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)
		}
	} else {
		logger.Info("AMQP disabled - reminders will only be logged")
	}

	if *consume {
		runConsumer(logger, amqpClient)
		return
	}

	backendCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		logger.Error("Invalid backend configuration", applog.FieldError, err)
		os.Exit(1)
	}
	be, err := backend.NewFactory(logger.Logger).CreateBackend(context.Background(), backendCfg)
	if err != nil {
		logger.Error("Failed to initialize backend", applog.FieldError, err, "backend", cfg.DataBackend)
		os.Exit(1)
	}
	defer func() {
		if err := be.Cleanup(); err != nil {
			logger.Error("Backend cleanup failed", applog.FieldError, err)
		}
	}()

	engine := recurrence.NewEngine(be.Source,
		recurrence.WithOptions(cfg.Detection.Options()),
		recurrence.WithMemo(4, cfg.CacheTTL),
		recurrence.WithLogger(logger))

	var publisher services.Publisher = services.LogPublisher{Logger: logger}
	if amqpClient != nil {
		publisher = amqpClient
	}
	opts := []services.ReminderOption{services.WithReminderLogger(logger)}
	if be.SentLog != nil {
		opts = append(opts, services.WithSentLog(be.SentLog))
	}
	processor := services.NewReminderProcessor(engine, publisher, cfg.ReminderLookaheadDays, opts...)

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, nil)

	interval := cfg.ReminderInterval
	logger.Info("Reminder processor configured",
		"interval", interval,
		"lookahead_days", cfg.ReminderLookaheadDays,
		"backend", cfg.DataBackend)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	logger.Info("Running initial reminder pass...")
	if count, err := processor.ProcessDue(ctx, time.Now()); err != nil {
		logger.Error("Initial processing failed", applog.FieldError, err, "published", count)
	} else {
		logger.Info("Initial processing complete", "published", count)
	}

	for {
		select {
		case <-ctx.Done():
			<-done
			logger.Info("Reminder worker shutdown complete")
			return
		case now := <-ticker.C:
			if n := processor.CleanExpired(); n > 0 {
				logger.Debug("Dropped expired reminder keys", applog.FieldCount, n)
			}
			count, err := processor.ProcessDue(ctx, now)
			if err != nil {
				logger.Error("Periodic processing failed", applog.FieldError, err, "published", count)
				continue
			}
			logger.Info("Periodic processing complete",
				"published", count,
				"next_check", now.Add(interval).Format("15:04:05"))
		}
	}
}

func runConsumer(logger *applog.Logger, client *amqp.Client) {
	if client == nil {
		logger.Error("Consumer mode requires AMQP_URL")
		os.Exit(1)
	}
	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, nil)

	logger.Info("Consuming bill-due reminders")
	err := client.ConsumeBillDue(ctx, services.LogBillDue(logger))
	if err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Consumer stopped", applog.FieldError, err)
		os.Exit(1)
	}
	<-done
}
