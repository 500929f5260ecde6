// Command seed loads a demo pet catalog into the wishlist service's products
// projection. It applies migrations first so it can run against an empty
// database.
package main

import (
	"context"
	"flag"
	"log/slog"
	"math/rand"
	"os"
	"time"

	"github.com/pawmart/storefront/pkg/database"
	"github.com/pawmart/storefront/pkg/logger"
	"github.com/pawmart/storefront/services/wishlist/internal/config"
	"github.com/pawmart/storefront/services/wishlist/internal/repository/postgres"
	"github.com/pawmart/storefront/services/wishlist/internal/seed"
	"github.com/pawmart/storefront/services/wishlist/migrations"
)

func main() {
	extra := flag.Int("extra", 0, "number of generated products to add after the fixed catalog")
	randSeed := flag.Int64("seed", 42, "random seed for generated products")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", slog.String("error", err.Error()))
		os.Exit(1)
	}
	log := logger.New("wishlist-seed", cfg.LogLevel)

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

	products := seed.Products(*extra, rand.New(rand.NewSource(*randSeed)), time.Now().UTC())
	if err := seed.Run(ctx, postgres.NewProductRepository(pool), products, log); err != nil {
		log.Error("seed failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
