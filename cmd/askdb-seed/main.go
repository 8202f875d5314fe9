package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/askdb/askdb/internal/config"
	"github.com/askdb/askdb/internal/demo/seed"
	"github.com/askdb/askdb/internal/migrations"
	"github.com/askdb/askdb/internal/observability"
	"github.com/askdb/askdb/internal/query/sqldb"
)

func main() {
	vendors := flag.Int("vendors", 12, "number of vendors to create")
	customers := flag.Int("customers", 8, "number of customers to create")
	invoices := flag.Int("invoices", 250, "number of invoices to create")
	seedValue := flag.Int64("seed", 42, "random seed; the same seed yields the same data")
	since := flag.String("since", time.Now().UTC().AddDate(-1, 0, 0).Format("2006-01-02"), "first possible invoice date (YYYY-MM-DD)")
	migrate := flag.Bool("migrate", true, "apply schema migrations before inserting")
	flag.Parse()

	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		slog.Error("failed to load .env", slog.Any("error", err))
		os.Exit(1)
	}
	cfg, err := config.LoadFromEnv("askdb-seed")
	if err != nil {
		slog.Error("failed to load config", slog.Any("error", err))
		os.Exit(1)
	}
	logger := observability.NewLogger(cfg, os.Stdout)

	start, err := time.Parse("2006-01-02", *since)
	if err != nil {
		logger.Error("invalid -since", slog.Any("error", err))
		os.Exit(2)
	}
	if *vendors < 0 || *customers < 0 || *invoices < 0 {
		logger.Error("counts must not be negative")
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := sqldb.Open(ctx, sqldb.Config{
		DSN:            cfg.Database.URL,
		Driver:         cfg.Database.Driver,
		ConnectTimeout: cfg.Database.ConnectTimeout,
	})
	if err != nil {
		logger.Error("failed to open database", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() { _ = db.Close() }()

	if *migrate {
		applied, err := migrations.NewRunner().Up(ctx, db, 0)
		if err != nil {
			logger.Error("migration failed", slog.Any("error", err))
			os.Exit(1)
		}
		logger.Info("schema ready", slog.Int("applied_migrations", applied))
	}

	service, err := seed.NewService(db, logger)
	if err != nil {
		logger.Error("failed to initialize seeder", slog.Any("error", err))
		os.Exit(1)
	}
	data := seed.NewGenerator(*seedValue, start).Dataset(*vendors, *customers, *invoices)
	if _, err := service.Insert(ctx, data); err != nil {
		logger.Error("seed failed", slog.Any("error", err))
		os.Exit(1)
	}
}
