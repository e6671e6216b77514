package main

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"

	"github.com/noah-isme/backend-kargo/internal/tariff"
)

// Seeds a starter tariff table so a fresh environment can quote every
// category out of the box. Safe to re-run: it skips categories that
// already have active tiers.
func main() {
	_ = godotenv.Load()

	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		log.Fatal("DATABASE_URL is required")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		log.Fatalf("connect database: %v", err)
	}
	defer pool.Close()

	if err := pool.Ping(ctx); err != nil {
		log.Fatalf("ping database: %v", err)
	}

	store := tariff.NewStore(pool)
	seeded := 0
	for _, category := range tariff.Categories() {
		n, err := seedCategory(ctx, pool, store, category)
		if err != nil {
			log.Fatalf("seed %s tiers: %v", category, err)
		}
		if n == 0 {
			log.Printf("category %s already has active tiers, skipping", category)
			continue
		}
		log.Printf("seeded %d tiers for category %s", n, category)
		seeded += n
	}

	log.Printf("done, %d tiers inserted", seeded)
}

func seedCategory(ctx context.Context, pool *pgxpool.Pool, store *tariff.Store, category tariff.Category) (int, error) {
	var existing int64
	if err := pool.QueryRow(ctx,
		"SELECT COUNT(*) FROM tariff_tiers WHERE category = $1 AND active",
		string(category),
	).Scan(&existing); err != nil {
		return 0, err
	}
	if existing > 0 {
		return 0, nil
	}

	for _, t := range defaultTiers(category) {
		if _, err := store.Create(ctx, t); err != nil {
			return 0, err
		}
	}
	return len(defaultTiers(category)), nil
}

// defaultTiers covers each category from 0 to 1000 kg in three brackets.
func defaultTiers(category tariff.Category) []tariff.Tier {
	brackets := []struct {
		min, max, perKg, base string
	}{
		{"0", "5", "2.50", "1.00"},
		{"5", "30", "1.80", "3.50"},
		{"30", "1000", "1.20", "10.00"},
	}

	tiers := make([]tariff.Tier, 0, len(brackets))
	for _, b := range brackets {
		tiers = append(tiers, tariff.Tier{
			Category:   category,
			MinWeight:  decimal.RequireFromString(b.min),
			MaxWeight:  decimal.RequireFromString(b.max),
			PricePerKg: decimal.RequireFromString(b.perKg),
			BaseCharge: decimal.RequireFromString(b.base),
			Active:     true,
		})
	}
	return tiers
}
