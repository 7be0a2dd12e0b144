// Command seed loads sample accounts and a starter catalog into the
// storefront database. With -destroy it empties every table instead.
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"time"

	"github.com/SudaisX/DB-Project/internal/auth"
	"github.com/SudaisX/DB-Project/internal/config"
	"github.com/SudaisX/DB-Project/internal/repository/postgres"
	"github.com/SudaisX/DB-Project/internal/seed"
	"github.com/SudaisX/DB-Project/migrations"
	"github.com/SudaisX/DB-Project/pkg/database"
	"github.com/SudaisX/DB-Project/pkg/logger"
)

func main() {
	destroy := flag.Bool("destroy", false, "delete all storefront data instead of seeding")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", slog.String("error", err.Error()))
		os.Exit(1)
	}
	log := logger.New("storefront-seed", cfg.LogLevel)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	pgCfg := cfg.Postgres()
	pool, err := database.NewPostgresPool(ctx, &pgCfg, log)
	if err != nil {
		log.Error("failed to connect to postgres", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer pool.Close()

	if err := database.RunMigrations(ctx, pool, migrations.FS, log); err != nil {
		log.Error("failed to run migrations", slog.String("error", err.Error()))
		os.Exit(1)
	}

	if *destroy {
		if err := seed.Destroy(ctx, pool); err != nil {
			log.Error("failed to destroy data", slog.String("error", err.Error()))
			os.Exit(1)
		}
		log.Info("data destroyed")
		return
	}

	s := seed.New(
		postgres.NewUserRepository(pool),
		postgres.NewProductRepository(pool),
		auth.NewBcryptHasher(cfg.BcryptCost),
		log,
	)
	res, err := s.Run(ctx, seed.DefaultAccounts, seed.DefaultCatalog)
	if err != nil {
		log.Error("seed failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
	log.Info("seed complete", slog.Int("users", res.Users), slog.Int("products", res.Products))
}
