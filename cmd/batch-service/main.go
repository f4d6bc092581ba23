package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/talentops/hrsync/internal/batch"
	"github.com/talentops/hrsync/internal/batch/storage"
	"github.com/talentops/hrsync/internal/config"
	"github.com/talentops/hrsync/shared/hrapi"
	"github.com/talentops/hrsync/shared/logger"
	"github.com/talentops/hrsync/shared/postgresql"
	"github.com/talentops/hrsync/shared/rabbitmq"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables or flags")
	}

	defaultConfigPath := os.Getenv("BATCH_SERVICE_CONFIG_PATH")
	if defaultConfigPath == "" {
		defaultConfigPath = "configs/batch-service/config.yaml"
	}
	configPath := flag.String("config", defaultConfigPath, "Path to configuration file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if err := cfg.ValidateBatchConfig(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	appLogger := logger.New(&logger.Config{
		Level:   cfg.Logging.Level,
		Format:  cfg.Logging.Format,
		Output:  cfg.Logging.Output,
		Service: cfg.App.Name,
	})

	appLogger.Info("Starting batch service",
		slog.String("version", cfg.App.Version),
		slog.String("environment", cfg.App.Environment),
		slog.Int("batch_size", cfg.Batch.BatchSize),
		slog.Int("max_calls_per_minute", cfg.Batch.MaxCallsPerMinute),
		slog.Duration("tick_interval", cfg.Batch.TickInterval),
	)

	dbClient, err := postgresql.NewClient(&postgresql.Config{
		Host:            cfg.Database.Host,
		Port:            cfg.Database.Port,
		User:            cfg.Database.User,
		Password:        cfg.Database.Password,
		Database:        cfg.Database.Database,
		SSLMode:         cfg.Database.SSLMode,
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
	}, appLogger)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer dbClient.Close()

	rabbitClient, err := rabbitmq.NewClient(&rabbitmq.Config{
		Host:          cfg.RabbitMQ.Host,
		Port:          cfg.RabbitMQ.Port,
		User:          cfg.RabbitMQ.User,
		Password:      cfg.RabbitMQ.Password,
		VHost:         cfg.RabbitMQ.VHost,
		Exchange:      cfg.RabbitMQ.Exchange,
		Queue:         cfg.RabbitMQ.Queue,
		RoutingKey:    cfg.RabbitMQ.RoutingKey,
		RetryAttempts: cfg.RabbitMQ.RetryAttempts,
		RetryInterval: cfg.RabbitMQ.RetryInterval,
		Heartbeat:     cfg.RabbitMQ.Heartbeat,
	}, appLogger)
	if err != nil {
		return fmt.Errorf("failed to initialize RabbitMQ: %w", err)
	}
	defer rabbitClient.Close()

	hrClient := hrapi.NewClient(&hrapi.Config{
		BaseURL: cfg.HR.BaseURL,
		Token:   os.Getenv("HR_API_TOKEN"),
		Timeout: cfg.HR.Timeout,
	}, appLogger)

	store := storage.NewStorage(dbClient.GetDB(), appLogger)
	trigger := batch.NewCronTrigger(cfg.Batch.TickInterval, appLogger)
	scheduler := batch.NewScheduler(store, store, hrClient, trigger, &batch.Config{
		BatchSize:         cfg.Batch.BatchSize,
		MaxCallsPerMinute: cfg.Batch.MaxCallsPerMinute,
		TickBudget:        cfg.Batch.TickBudget,
	}, appLogger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// A checkpoint left behind by a previous process means a job is mid
	// flight; pick it up before accepting new starts.
	resumed, err := scheduler.Resume(ctx)
	if err != nil {
		return fmt.Errorf("failed to resume job: %w", err)
	}
	if resumed {
		appLogger.Info("Resumed in-flight batch job")
	}

	listener := batch.NewListener(scheduler, rabbitClient, appLogger)

	errChan := make(chan error, 1)
	go func() {
		hostname, _ := os.Hostname()
		if err := listener.Run(ctx, "batch-service-"+hostname); err != nil {
			errChan <- err
		}
	}()

	appLogger.Info("Batch service started successfully")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-quit:
		appLogger.Info("Received signal, shutting down gracefully",
			slog.String("signal", sig.String()),
		)
	case err := <-errChan:
		appLogger.Error("Listener error",
			slog.Any("error", err),
		)
		return err
	}

	// Stop future ticks; the checkpoint keeps the job resumable on next
	// start.
	cancel()
	trigger.Disarm()

	appLogger.Info("Batch service shutdown complete")
	return nil
}
