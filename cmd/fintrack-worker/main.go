package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"fintrack/internal/amqp"
	"fintrack/internal/config"
	"fintrack/internal/log"
	"fintrack/internal/notify"

	"github.com/joho/godotenv"
)

// fintrack-worker drains the budget alert queue and delivers each alert
// over SMTP. Delivery is best-effort: failed sends are logged and acked,
// never requeued.
func main() {
	_ = godotenv.Load()

	logger := log.New(log.Config{Component: log.ComponentWorker})
	log.SetDefault(logger)

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("configuration validation failed", "error", err)
		os.Exit(1)
	}
	if cfg.AMQPURL == "" {
		logger.Error("AMQP_URL is required for the worker")
		os.Exit(1)
	}

	client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Error("failed to connect to broker", "error", err)
		os.Exit(1)
	}
	defer client.Close()

	mailer := notify.NewSMTPMailer(cfg.SMTPAddr, cfg.SMTPFrom)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.Info("worker started",
		"queue", cfg.AMQPQueue, "smtp", cfg.SMTPAddr, "from", cfg.SMTPFrom)

	err = client.ConsumeBudgetAlerts(ctx, notify.NewDeliverer(mailer).Handle)
	if err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("consumer stopped", "error", err)
		os.Exit(1)
	}
	logger.Info("worker stopped gracefully")
}
