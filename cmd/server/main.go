// cmd/server/main.go
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/unclebandit/newsletter-backend/internal/config"
	"github.com/unclebandit/newsletter-backend/internal/controller"
	"github.com/unclebandit/newsletter-backend/internal/db"
	"github.com/unclebandit/newsletter-backend/internal/handler"
	"github.com/unclebandit/newsletter-backend/internal/queue"
	"github.com/unclebandit/newsletter-backend/internal/repository"
	"github.com/unclebandit/newsletter-backend/internal/server"
	"github.com/unclebandit/newsletter-backend/internal/service"
	"github.com/unclebandit/newsletter-backend/internal/storage"
)

func main() {
	if err := run(); err != nil {
		slog.Error("server failed", "error", err)
		os.Exit(1)
	}
}

func run() error {
	// Load .env
	if err := godotenv.Load(); err != nil {
		slog.Info("no .env file found, relying on OS environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	setupLogger(cfg)

	ctx := context.Background()

	conn, err := db.Open(ctx, cfg.DSN(), db.PoolConfig{
		MaxOpenConns:    cfg.DBMaxOpenConns,
		MaxIdleConns:    cfg.DBMaxIdleConns,
		ConnMaxLifetime: cfg.DBConnMaxLifetime,
	})
	if err != nil {
		return err
	}
	defer conn.Close()

	if cfg.DBAutoMigrate {
		if err := db.Migrate(ctx, conn); err != nil {
			return err
		}
	}

	store, err := newObjectStore(ctx, cfg)
	if err != nil {
		return err
	}

	q, closeQueue, err := newCleanupQueue(cfg, store)
	if err != nil {
		return err
	}
	defer closeQueue()

	templateRepo := &repository.TemplateRepository{DB: conn}
	newsletterRepo := &repository.NewsletterRepository{DB: conn}

	templateService := &service.TemplateService{
		TemplateRepo:   templateRepo,
		NewsletterRepo: newsletterRepo,
	}
	newsletterService := &service.NewsletterService{
		NewsletterRepo: newsletterRepo,
		Tx:             &repository.SQLTransactor{DB: conn},
		Store:          store,
		Queue:          q,
	}

	router := server.NewRouter(server.Deps{
		Templates:      &controller.TemplateController{TemplateService: templateService},
		Newsletters:    &controller.NewsletterController{NewsletterService: newsletterService},
		Images:         handler.NewNewsletterImageHandler(newsletterService, cfg.MaxUploadBytes),
		DB:             conn,
		AllowedOrigins: cfg.CORSAllowedOrigins,
	})

	srv := &http.Server{
		Addr:              cfg.ServerAddr(),
		Handler:           router,
		ReadTimeout:       30 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       60 * time.Second,
		MaxHeaderBytes:    1 << 20,
	}

	go func() {
		slog.Info("server running", "addr", cfg.ServerAddr(), "storage", cfg.StorageBackend, "amqp", cfg.UseAMQP())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server error", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}
	if mq, ok := q.(*queue.InMemoryQueue); ok {
		mq.Wait()
	}

	slog.Info("server stopped")
	return nil
}

func setupLogger(cfg *config.Config) {
	opts := &slog.HandlerOptions{Level: cfg.SlogLevel()}
	var h slog.Handler = slog.NewTextHandler(os.Stdout, opts)
	if cfg.LogFormat == "json" {
		h = slog.NewJSONHandler(os.Stdout, opts)
	}
	slog.SetDefault(slog.New(h))
}

func newObjectStore(ctx context.Context, cfg *config.Config) (storage.ObjectStore, error) {
	if cfg.StorageBackend == config.StorageMemory {
		slog.Warn("using in-memory image storage; images are lost on restart")
		return storage.NewMemoryStore(cfg.S3PublicURL), nil
	}
	client, err := storage.NewS3Client(ctx, cfg.S3())
	if err != nil {
		return nil, err
	}
	return storage.NewS3Store(client, cfg.S3()), nil
}

// newCleanupQueue returns RabbitMQ when AMQP_URL is set (consumed by
// cmd/worker), otherwise an in-process queue with its own subscriber.
func newCleanupQueue(cfg *config.Config, store storage.ObjectStore) (queue.Queue, func(), error) {
	if cfg.UseAMQP() {
		aq, err := queue.DialAMQP(cfg.AMQPURL)
		if err != nil {
			return nil, nil, err
		}
		return aq, func() { aq.Close() }, nil
	}
	mq := queue.NewInMemoryQueue()
	if err := queue.StartImageCleanupSubscriber(mq, store); err != nil {
		return nil, nil, err
	}
	return mq, func() {}, nil
}
