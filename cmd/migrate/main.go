// cmd/migrate/main.go
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"

	"ascend-intake/internal/common/config"
	"ascend-intake/internal/common/database"
	"ascend-intake/internal/common/logger"
	"ascend-intake/migrations"
)

func main() {
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s [up|down|status]\n", os.Args[0])
		flag.PrintDefaults()
	}
	timeout := flag.Duration("timeout", 2*time.Minute, "overall timeout")
	flag.Parse()

	command := "up"
	if flag.NArg() > 0 {
		command = flag.Arg(0)
	}

	if err := run(command, *timeout); err != nil {
		fmt.Fprintf(os.Stderr, "migrate: %v\n", err)
		os.Exit(1)
	}
}

func run(command string, timeout time.Duration) error {
	switch command {
	case "up", "down", "status":
	default:
		flag.Usage()
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("config load failed: %w", err)
	}

	log := logger.New(cfg.Logging.Level, "console", "stderr")
	defer log.Sync()

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	pg, err := database.NewPostgres(ctx, cfg.Database.Postgres)
	if err != nil {
		log.Error("postgres connection failed", zap.Error(err))
		return err
	}
	defer pg.Close()

	switch command {
	case "up":
		applied, err := database.MigrateUp(ctx, pg.DB, migrations.FS)
		if err != nil {
			log.Error("migrate up failed", zap.Error(err))
			return err
		}
		if len(applied) == 0 {
			log.Info("No pending migrations")
		}
		for _, path := range applied {
			log.Info("Applied migration", zap.String("path", path))
		}

	case "down":
		path, err := database.MigrateDown(ctx, pg.DB, migrations.FS)
		if err != nil {
			log.Error("migrate down failed", zap.Error(err))
			return err
		}
		log.Info("Rolled back migration", zap.String("path", path))

	case "status":
		statuses, err := database.MigrationsStatus(ctx, pg.DB, migrations.FS)
		if err != nil {
			log.Error("migrate status failed", zap.Error(err))
			return err
		}
		for _, s := range statuses {
			state := "pending"
			if s.Applied {
				state = "applied"
			}
			fmt.Printf("%05d  %-8s %s\n", s.Version, state, s.Path)
		}
	}
	return nil
}
