// Package sqlite stores run summaries in an embedded SQLite database. It is
// the default sink for local runs: no server, one file next to the output.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"

	"retailetl/internal/storage"
)

func init() {
	storage.Register("sqlite", func(ctx context.Context, cfg storage.Config) (storage.Repository, error) {
		return New(ctx, cfg)
	})
}

// Repo is a SQLite-backed run-history repository.
type Repo struct {
	db    *sql.DB
	table string
}

// New opens (creating if needed) the database at cfg.DSN and ensures the
// run-history table exists.
func New(ctx context.Context, cfg storage.Config) (*Repo, error) {
	db, err := sql.Open("sqlite", cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("sqlite open: %w", err)
	}
	r := &Repo{db: db, table: cfg.Table}
	if err := r.ensureTable(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return r, nil
}

func (r *Repo) ensureTable(ctx context.Context) error {
	ddl := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	job TEXT NOT NULL,
	ran_at TEXT NOT NULL,
	input_digest TEXT NOT NULL,
	customers_kept INTEGER NOT NULL,
	products_kept INTEGER NOT NULL,
	sales_kept INTEGER NOT NULL,
	inventory_rows INTEGER NOT NULL,
	total_revenue REAL NOT NULL,
	churn_rate REAL NOT NULL,
	products_at_risk INTEGER NOT NULL,
	insight_count INTEGER NOT NULL,
	bundle TEXT NOT NULL
)`, r.table)
	if _, err := r.db.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("sqlite ensure table %s: %w", r.table, err)
	}
	return nil
}

// SaveRun inserts one run summary row.
func (r *Repo) SaveRun(ctx context.Context, run storage.RunRecord) error {
	q := fmt.Sprintf(`INSERT INTO %s
	(job, ran_at, input_digest, customers_kept, products_kept, sales_kept,
	 inventory_rows, total_revenue, churn_rate, products_at_risk, insight_count, bundle)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`, r.table)
	_, err := r.db.ExecContext(ctx, q,
		run.Job,
		run.RanAt.UTC().Format("2006-01-02T15:04:05Z"),
		run.InputDigest,
		run.CustomersKept,
		run.ProductsKept,
		run.SalesKept,
		run.InventoryRows,
		run.TotalRevenue,
		run.ChurnRate,
		run.ProductsAtRisk,
		run.InsightCount,
		string(run.Bundle),
	)
	if err != nil {
		return fmt.Errorf("sqlite insert run: %w", err)
	}
	return nil
}

func (r *Repo) Close() error { return r.db.Close() }
