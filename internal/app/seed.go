package app

import (
	"context"
	"database/sql"
	"fmt"
	"math/rand"
	"time"
)

// SeedDev populates both tiers with demo sales data so the server is usable
// out of the box in development. Idempotent — skips tiers that already hold
// rows. Recent rows land in the hot store, older rows in the cold store,
// split at the hot retention cutoff.
func SeedDev(ctx context.Context, hotDB, coldDB *sql.DB, hotWindowDays int) error {
	rng := rand.New(rand.NewSource(42))
	regions := []string{"emea", "amer", "apac"}
	products := []string{"widget", "gadget", "sprocket"}
	now := time.Now().UTC()

	var hotCount int64
	if err := hotDB.QueryRowContext(ctx, "SELECT COUNT(*) FROM sales").Scan(&hotCount); err != nil {
		return fmt.Errorf("check hot seed: %w", err)
	}
	if hotCount == 0 {
		for i := 0; i < 200; i++ {
			day := now.AddDate(0, 0, -rng.Intn(hotWindowDays))
			_, err := hotDB.ExecContext(ctx,
				"INSERT INTO sales (sale_date, region, product, quantity, amount) VALUES (?, ?, ?, ?, ?)",
				day.Format("2006-01-02"),
				regions[rng.Intn(len(regions))],
				products[rng.Intn(len(products))],
				1+rng.Intn(20),
				float64(rng.Intn(100000))/100,
			)
			if err != nil {
				return fmt.Errorf("seed hot sales: %w", err)
			}
		}
	}

	if _, err := coldDB.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS sales (
		id BIGINT,
		sale_date DATE,
		region VARCHAR,
		product VARCHAR,
		quantity INTEGER,
		amount DOUBLE
	)`); err != nil {
		return fmt.Errorf("create cold sales: %w", err)
	}

	var coldCount int64
	if err := coldDB.QueryRowContext(ctx, "SELECT COUNT(*) FROM sales").Scan(&coldCount); err != nil {
		return fmt.Errorf("check cold seed: %w", err)
	}
	if coldCount == 0 {
		for i := 0; i < 1000; i++ {
			day := now.AddDate(0, 0, -(hotWindowDays + 1 + rng.Intn(600)))
			_, err := coldDB.ExecContext(ctx,
				"INSERT INTO sales (id, sale_date, region, product, quantity, amount) VALUES (?, ?, ?, ?, ?, ?)",
				int64(i+1),
				day.Format("2006-01-02"),
				regions[rng.Intn(len(regions))],
				products[rng.Intn(len(products))],
				1+rng.Intn(20),
				float64(rng.Intn(100000))/100,
			)
			if err != nil {
				return fmt.Errorf("seed cold sales: %w", err)
			}
		}
	}

	return nil
}
