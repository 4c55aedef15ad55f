// cmd/seeder/main.go
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"

	"github.com/joho/godotenv"

	"github.com/unclebandit/newsletter-backend/internal/config"
	"github.com/unclebandit/newsletter-backend/internal/db"
	"github.com/unclebandit/newsletter-backend/internal/model"
	"github.com/unclebandit/newsletter-backend/internal/repository"
)

func main() {
	if err := run(); err != nil {
		slog.Error("seeding failed", "error", err)
		os.Exit(1)
	}
}

func run() error {
	_ = godotenv.Load()

	cfg, err := config.Parse()
	if err != nil {
		return err
	}
	if cfg.DSN() == "" {
		return errors.New("database not configured: set DATABASE_URL or DB_USER/DB_NAME")
	}

	ctx := context.Background()
	conn, err := db.Open(ctx, cfg.DSN(), db.PoolConfig{MaxOpenConns: 1})
	if err != nil {
		return err
	}
	defer conn.Close()

	if err := db.Migrate(ctx, conn); err != nil {
		return err
	}

	files, err := seedFiles(cfg.SeedDir)
	if err != nil {
		return err
	}
	if err := runSeedFiles(ctx, conn, files); err != nil {
		return err
	}

	if cfg.SeedAdminUsername != "" {
		if cfg.SeedAdminPassword == "" {
			return errors.New("SEED_ADMIN_PASSWORD is required with SEED_ADMIN_USERNAME")
		}
		users := &repository.UserRepository{DB: conn}
		created, err := users.EnsureUser(ctx, &model.User{Username: cfg.SeedAdminUsername, Role: "admin"}, cfg.SeedAdminPassword)
		if err != nil {
			return fmt.Errorf("creating admin user: %w", err)
		}
		slog.Info("admin user", "username", cfg.SeedAdminUsername, "created", created)
	}

	slog.Info("database seeding completed successfully")
	return nil
}

// seedFiles lists the .sql files of dir in lexical order.
func seedFiles(dir string) ([]string, error) {
	files, err := filepath.Glob(filepath.Join(dir, "*.sql"))
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no seed files in %s", dir)
	}
	sort.Strings(files)
	return files, nil
}

func runSeedFiles(ctx context.Context, exec repository.DBTX, files []string) error {
	for _, file := range files {
		content, err := os.ReadFile(file)
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", file, err)
		}
		if _, err := exec.ExecContext(ctx, string(content)); err != nil {
			return fmt.Errorf("failed to execute %s: %w", file, err)
		}
		slog.Info("seeded", "file", file)
	}
	return nil
}
