package sqlite

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"retailetl/internal/storage"
)

func TestSaveRunRoundTrip(t *testing.T) {
	ctx := context.Background()
	dsn := filepath.Join(t.TempDir(), "runs.db")

	repo, err := storage.New(ctx, storage.Config{Kind: "sqlite", DSN: dsn})
	if err != nil {
		t.Fatalf("storage.New() error = %v", err)
	}

	run := storage.RunRecord{
		Job:            "testjob",
		RanAt:          time.Date(2024, 6, 1, 12, 30, 0, 0, time.UTC),
		InputDigest:    "00000000deadbeef",
		CustomersKept:  10,
		ProductsKept:   5,
		SalesKept:      40,
		InventoryRows:  5,
		TotalRevenue:   1234.56,
		ChurnRate:      0.25,
		ProductsAtRisk: 2,
		InsightCount:   3,
		Bundle:         []byte(`{"revenue_by_region":[]}`),
	}
	if err := repo.SaveRun(ctx, run); err != nil {
		t.Fatalf("SaveRun() error = %v", err)
	}
	if err := repo.SaveRun(ctx, run); err != nil {
		t.Fatalf("second SaveRun() error = %v", err)
	}
	if err := repo.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer db.Close()

	var count int
	if err := db.QueryRowContext(ctx, "SELECT COUNT(*) FROM pipeline_runs").Scan(&count); err != nil {
		t.Fatalf("count rows: %v", err)
	}
	if count != 2 {
		t.Fatalf("row count = %d, want 2", count)
	}

	var (
		job, ranAt, digest, bundle string
		churn                      float64
	)
	err = db.QueryRowContext(ctx,
		"SELECT job, ran_at, input_digest, churn_rate, bundle FROM pipeline_runs LIMIT 1").
		Scan(&job, &ranAt, &digest, &churn, &bundle)
	if err != nil {
		t.Fatalf("read row: %v", err)
	}
	if job != "testjob" || digest != "00000000deadbeef" || churn != 0.25 {
		t.Errorf("row = %q %q %g", job, digest, churn)
	}
	if ranAt != "2024-06-01T12:30:00Z" {
		t.Errorf("ran_at = %q", ranAt)
	}
	if bundle != `{"revenue_by_region":[]}` {
		t.Errorf("bundle = %q", bundle)
	}
}

func TestSaveRunCustomTable(t *testing.T) {
	ctx := context.Background()
	dsn := filepath.Join(t.TempDir(), "runs.db")

	repo, err := New(ctx, storage.Config{Kind: "sqlite", DSN: dsn, Table: "history"})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer repo.Close()

	if err := repo.SaveRun(ctx, storage.RunRecord{Job: "j", RanAt: time.Now()}); err != nil {
		t.Fatalf("SaveRun() error = %v", err)
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer db.Close()

	var count int
	if err := db.QueryRowContext(ctx, "SELECT COUNT(*) FROM history").Scan(&count); err != nil {
		t.Fatalf("count rows: %v", err)
	}
	if count != 1 {
		t.Fatalf("row count = %d, want 1", count)
	}
}
