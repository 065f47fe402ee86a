package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"time"

	"github.com/joho/godotenv"

	"github.com/samirrijal/aptscout/internal/adapters/postgres"
	"github.com/samirrijal/aptscout/internal/pkg/config"
	"github.com/samirrijal/aptscout/internal/pkg/logging"
)

func main() {
	if len(os.Args) < 2 {
		log.Fatal("usage: migrate up")
	}

	_ = godotenv.Load()

	cfg, err := config.Load("aptscout-migrate")
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logging.Setup("aptscout-migrate", cfg.Log.Level, cfg.Log.Format)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	db, err := postgres.New(ctx, cfg.Database.DSN())
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	defer db.Close()

	switch os.Args[1] {
	case "up":
		applied, err := postgres.Migrate(ctx, db.Pool)
		if err != nil {
			log.Fatalf("migrate: %v", err)
		}
		for _, name := range applied {
			slog.Info("migration applied", "file", name)
		}
		slog.Info("schema up to date", "applied", len(applied))
	default:
		log.Fatalf("unknown command: %s", os.Args[1])
	}
}
