package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/unclebandit/newsletter-backend/internal/config"
	"github.com/unclebandit/newsletter-backend/internal/queue"
	"github.com/unclebandit/newsletter-backend/internal/storage"
)

func main() {
	if err := run(); err != nil {
		slog.Error("worker failed", "error", err)
		os.Exit(1)
	}
}

func run() error {
	_ = godotenv.Load()

	cfg, err := config.Parse()
	if err != nil {
		return err
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.SlogLevel()})))

	if !cfg.UseAMQP() {
		return errors.New("AMQP_URL is required")
	}
	if cfg.StorageBackend != config.StorageS3 {
		return fmt.Errorf("worker needs the s3 storage backend, got %q", cfg.StorageBackend)
	}
	if err := cfg.ValidateStorage(); err != nil {
		return err
	}

	client, err := storage.NewS3Client(context.Background(), cfg.S3())
	if err != nil {
		return err
	}
	store := storage.NewS3Store(client, cfg.S3())

	q, err := queue.DialAMQP(cfg.AMQPURL)
	if err != nil {
		return err
	}
	defer q.Close()

	if err := queue.StartImageCleanupSubscriber(q, store); err != nil {
		return err
	}
	slog.Info("worker running, waiting for messages...", "topic", queue.TopicImageCleanup)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-quit:
		slog.Info("worker stopping")
		return nil
	case amqpErr := <-q.NotifyClose():
		return fmt.Errorf("rabbitmq connection closed: %v", amqpErr)
	}
}
