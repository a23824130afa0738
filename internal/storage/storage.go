// Package storage persists run summaries so successive pipeline runs can be
// compared. Concrete backends live in subpackages and register themselves by
// kind; importing storage/all links in every backend so the config alone
// decides which one is used.
package storage

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"
)

// Config selects and configures a run-history backend.
type Config struct {
	Kind  string // "sqlite" or "postgres"
	DSN   string // file path (sqlite) or connection URL (postgres)
	Table string // destination table; defaults to "pipeline_runs"
}

// RunRecord is one persisted pipeline run summary.
type RunRecord struct {
	Job            string
	RanAt          time.Time
	InputDigest    string // xxh3 hex of the raw input snapshot
	CustomersKept  int
	ProductsKept   int
	SalesKept      int
	InventoryRows  int
	TotalRevenue   float64
	ChurnRate      float64
	ProductsAtRisk int
	InsightCount   int
	Bundle         []byte // full metrics bundle as JSON
}

// Repository is the minimal interface of a run-history backend.
type Repository interface {
	SaveRun(ctx context.Context, run RunRecord) error
	Close() error
}

// Factory builds a Repository from a Config.
type Factory func(ctx context.Context, cfg Config) (Repository, error)

var (
	mu        sync.RWMutex
	factories = map[string]Factory{}
)

// Register installs a backend factory under kind. Called from backend
// package init functions.
func Register(kind string, f Factory) {
	mu.Lock()
	defer mu.Unlock()
	factories[kind] = f
}

// New constructs the backend selected by cfg.Kind.
func New(ctx context.Context, cfg Config) (Repository, error) {
	if cfg.Table == "" {
		cfg.Table = "pipeline_runs"
	}

	mu.RLock()
	f, ok := factories[cfg.Kind]
	mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("storage: unknown kind %q (registered: %v)", cfg.Kind, kinds())
	}
	return f(ctx, cfg)
}

func kinds() []string {
	out := make([]string, 0, len(factories))
	for k := range factories {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
