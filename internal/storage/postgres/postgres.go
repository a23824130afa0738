// Package postgres stores run summaries in PostgreSQL for shared
// environments where multiple hosts run the pipeline against the same data.
package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"retailetl/internal/storage"
)

func init() {
	storage.Register("postgres", func(ctx context.Context, cfg storage.Config) (storage.Repository, error) {
		return New(ctx, cfg)
	})
}

// Repo is a PostgreSQL-backed run-history repository.
type Repo struct {
	pool  *pgxpool.Pool
	table string
}

// New connects to cfg.DSN and ensures the run-history table exists.
func New(ctx context.Context, cfg storage.Config) (*Repo, error) {
	pool, err := pgxpool.New(ctx, cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("postgres connect: %w", err)
	}
	r := &Repo{pool: pool, table: cfg.Table}
	if err := r.ensureTable(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return r, nil
}

func (r *Repo) ensureTable(ctx context.Context) error {
	ddl := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
	id BIGSERIAL PRIMARY KEY,
	job TEXT NOT NULL,
	ran_at TIMESTAMPTZ NOT NULL,
	input_digest TEXT NOT NULL,
	customers_kept INTEGER NOT NULL,
	products_kept INTEGER NOT NULL,
	sales_kept INTEGER NOT NULL,
	inventory_rows INTEGER NOT NULL,
	total_revenue DOUBLE PRECISION NOT NULL,
	churn_rate DOUBLE PRECISION NOT NULL,
	products_at_risk INTEGER NOT NULL,
	insight_count INTEGER NOT NULL,
	bundle JSONB NOT NULL
)`, r.table)
	if _, err := r.pool.Exec(ctx, ddl); err != nil {
		return fmt.Errorf("postgres ensure table %s: %w", r.table, err)
	}
	return nil
}

// SaveRun inserts one run summary row.
func (r *Repo) SaveRun(ctx context.Context, run storage.RunRecord) error {
	q := fmt.Sprintf(`INSERT INTO %s
	(job, ran_at, input_digest, customers_kept, products_kept, sales_kept,
	 inventory_rows, total_revenue, churn_rate, products_at_risk, insight_count, bundle)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`, r.table)
	_, err := r.pool.Exec(ctx, q,
		run.Job,
		run.RanAt,
		run.InputDigest,
		run.CustomersKept,
		run.ProductsKept,
		run.SalesKept,
		run.InventoryRows,
		run.TotalRevenue,
		run.ChurnRate,
		run.ProductsAtRisk,
		run.InsightCount,
		run.Bundle,
	)
	if err != nil {
		return fmt.Errorf("postgres insert run: %w", err)
	}
	return nil
}

func (r *Repo) Close() error {
	r.pool.Close()
	return nil
}
