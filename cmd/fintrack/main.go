package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"fintrack/internal/amqp"
	"fintrack/internal/budget"
	"fintrack/internal/cache"
	"fintrack/internal/config"
	"fintrack/internal/fallback"
	apphttp "fintrack/internal/http"
	"fintrack/internal/ledger"
	"fintrack/internal/log"
	"fintrack/internal/notify"
	"fintrack/internal/services"
	"fintrack/internal/storage"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"
)

func main() {
	// .env is for local development; absence is fine.
	_ = godotenv.Load()

	logger := log.New(log.Config{Component: log.ComponentApp})
	log.SetDefault(logger)

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("configuration validation failed", "error", err)
		os.Exit(1)
	}

	repo, err := storage.NewRepository(cfg.SQLiteDBPath)
	if err != nil {
		logger.Error("failed to open primary store", "error", err, "path", cfg.SQLiteDBPath)
		os.Exit(1)
	}
	defer repo.Close()

	files, err := fallback.NewStore(cfg.FallbackDir)
	if err != nil {
		logger.Error("failed to open fallback store", "error", err, "dir", cfg.FallbackDir)
		os.Exit(1)
	}

	// Without a broker the service still runs; alerts are logged and dropped.
	var publisher notify.Publisher
	if cfg.AMQPURL != "" {
		client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Warn("AMQP unavailable, budget alerts disabled", "error", err)
		} else {
			defer client.Close()
			publisher = client
			logger.Info("AMQP client initialized", "exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)
		}
	}

	led := ledger.New(repo, files)
	budgets := budget.NewService(repo, led)
	notifier := notify.New(repo, budgets, publisher)
	reports := services.NewReportService(repo, 256, 5*time.Minute)
	transactions := services.NewTransactionService(led, repo, notifier, reports)

	janitor := cache.NewJanitor(reports.Caches()...)
	janitor.Start(10 * time.Minute)
	defer janitor.Stop()

	srv := apphttp.NewServer(":"+cfg.Port, apphttp.Deps{
		Users:        repo,
		Categories:   repo,
		Transactions: transactions,
		Budgets:      budgets,
		Reports:      reports,
	}, cfg.RateLimitPerMinute)

	srv.ReadTimeout = 10 * time.Second
	srv.WriteTimeout = 10 * time.Second
	srv.IdleTimeout = 60 * time.Second
	srv.MaxHeaderBytes = 1 << 16

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("starting server", "port", cfg.Port, "db", cfg.SQLiteDBPath)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		logger.Info("shutdown signal received")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Error("server error", "error", err)
		os.Exit(1)
	}
	logger.Info("server stopped gracefully")
}
