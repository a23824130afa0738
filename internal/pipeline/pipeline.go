// Package pipeline sequences the retail analytics stages: clean → aggregate
// → insights. It is the only package that owns the tables passed between
// stages; each stage receives read access to its inputs and hands back a
// freshly built output, so no stage ever observes another's private state.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/zeebo/xxh3"
	"go.uber.org/zap"

	"retailetl/internal/aggregate"
	"retailetl/internal/clean"
	"retailetl/internal/insight"
	"retailetl/internal/metrics"
	"retailetl/internal/model"
)

// Pipeline runs the full batch computation over one snapshot of the four
// input tables.
type Pipeline struct {
	// Job names the run in logs and metrics. Defaults to "retailetl".
	Job string

	// Logger receives structured progress events. Defaults to a nop logger.
	Logger *zap.Logger

	// Now supplies the run date used for churn classification and inventory
	// backfill. Defaults to time.Now.
	Now func() time.Time
}

// Result is the outcome of one pipeline run: the metrics bundle plus the
// run bookkeeping (clean report, cleaned row counts, input digest) used for
// logging and the run-history sink.
type Result struct {
	Bundle      *model.Bundle
	Report      clean.Report
	RanAt       time.Time
	InputDigest uint64

	CustomersKept int
	ProductsKept  int
	SalesKept     int
	InventoryRows int
}

// Run executes clean → aggregate → insights and returns the assembled
// result. The bundle is fully materialized before Run returns and is never
// mutated afterwards.
func (p *Pipeline) Run(ctx context.Context, raw model.RawTables) (*Result, error) {
	job := p.Job
	if job == "" {
		job = "retailetl"
	}
	logger := p.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	nowFn := p.Now
	if nowFn == nil {
		nowFn = time.Now
	}
	now := nowFn()

	digest := Digest(raw)
	logger.Info("pipeline start",
		zap.String("job", job),
		zap.Int("customers", len(raw.Customers)),
		zap.Int("products", len(raw.Products)),
		zap.Int("sales", len(raw.Sales)),
		zap.Int("inventory", len(raw.Inventory)),
		zap.String("input_digest", fmt.Sprintf("%016x", digest)),
	)

	cleaner := clean.Cleaner{Now: now}
	start := time.Now()
	tables, rep, err := cleaner.Clean(raw)
	metrics.RecordStage(job, "clean", err, time.Since(start))
	if err != nil {
		return nil, fmt.Errorf("pipeline: clean: %w", err)
	}
	logCleanReport(logger, rep)
	recordCleanRows(job, rep)

	start = time.Now()
	bundle, err := aggregate.Aggregate(ctx, tables, now)
	metrics.RecordStage(job, "aggregate", err, time.Since(start))
	if err != nil {
		return nil, fmt.Errorf("pipeline: aggregate: %w", err)
	}

	start = time.Now()
	insights, err := insight.Derive(bundle)
	metrics.RecordStage(job, "insights", err, time.Since(start))
	if err != nil {
		return nil, fmt.Errorf("pipeline: insights: %w", err)
	}
	bundle.BusinessInsights = insights
	metrics.RecordInsights(job, int64(len(insights)))

	var totalRevenue float64
	for _, r := range bundle.RevenueByRegion {
		totalRevenue += r.TotalRevenue
	}
	logger.Info("pipeline complete",
		zap.String("job", job),
		zap.Float64("total_revenue", totalRevenue),
		zap.Int("total_customers", bundle.CustomerSummary.TotalCustomers),
		zap.Int("products_at_risk", bundle.InventoryInsights.TotalProductsAtRisk),
		zap.Float64("churn_rate", bundle.CustomerSummary.ChurnRate),
		zap.Int("insights", len(insights)),
	)

	return &Result{
		Bundle:        bundle,
		Report:        rep,
		RanAt:         now,
		InputDigest:   digest,
		CustomersKept: len(tables.Customers),
		ProductsKept:  len(tables.Products),
		SalesKept:     len(tables.Sales),
		InventoryRows: len(tables.Inventory),
	}, nil
}

// Digest fingerprints the raw input snapshot so a run can be tied back to
// the exact data it processed. The hash covers every field of every row in
// table order.
func Digest(raw model.RawTables) uint64 {
	h := xxh3.New()
	for _, c := range raw.Customers {
		fmt.Fprintf(h, "c|%d|%s|%v|%s|%s\n", c.ID, c.Name, ptrInt(c.Age), c.Region, c.CreatedAt)
	}
	for _, p := range raw.Products {
		fmt.Fprintf(h, "p|%d|%s|%s|%g|%s|%s\n", p.ID, p.Name, p.Category, p.Price, p.Supplier, p.CreatedAt)
	}
	for _, s := range raw.Sales {
		fmt.Fprintf(h, "s|%d|%d|%d|%s|%v|%g|%g\n", s.ID, s.CustomerID, s.ProductID, s.Date, ptrInt(s.Quantity), s.UnitPrice, s.TotalAmount)
	}
	for _, i := range raw.Inventory {
		fmt.Fprintf(h, "i|%d|%d|%d|%d|%d|%v|%s\n", i.ID, i.ProductID, i.CurrentStock, i.ReorderLevel, i.MaxStock, ptrFloat(i.TurnoverRate), i.LastUpdated)
	}
	return h.Sum64()
}

func ptrInt(p *int) any {
	if p == nil {
		return nil
	}
	return *p
}

func ptrFloat(p *float64) any {
	if p == nil {
		return nil
	}
	return *p
}

func logCleanReport(logger *zap.Logger, rep clean.Report) {
	logger.Info("clean report",
		zap.Int("duplicate_customers", rep.DuplicateCustomers),
		zap.Int("customer_names_filled", rep.CustomerNamesFilled),
		zap.Int("customer_ages_filled", rep.CustomerAgesFilled),
		zap.Int("customer_regions_filled", rep.CustomerRegionsFilled),
		zap.Int("age_outliers", rep.AgeOutliers),
		zap.Int("duplicate_products", rep.DuplicateProducts),
		zap.Int("product_fields_filled", rep.ProductFieldsFilled),
		zap.Int("price_outliers", rep.PriceOutliers),
		zap.Int("duplicate_sales", rep.DuplicateSales),
		zap.Int("invalid_reference_sales", rep.InvalidReferenceSales),
		zap.Int("quantities_filled", rep.QuantitiesFilled),
		zap.Int("non_positive_sales", rep.NonPositiveSales),
		zap.Int("inventory_synthesized", rep.InventorySynthesized),
		zap.Int("stock_clamped", rep.StockClamped),
		zap.Int("turnover_defaulted", rep.TurnoverDefaulted),
	)
}

func recordCleanRows(job string, rep clean.Report) {
	metrics.RecordRows(job, "duplicates_removed",
		int64(rep.DuplicateCustomers+rep.DuplicateProducts+rep.DuplicateSales))
	metrics.RecordRows(job, "values_repaired",
		int64(rep.CustomerNamesFilled+rep.CustomerAgesFilled+rep.CustomerRegionsFilled+
			rep.ProductFieldsFilled+rep.QuantitiesFilled+rep.StockClamped+rep.TurnoverDefaulted))
	metrics.RecordRows(job, "rows_dropped",
		int64(rep.AgeOutliers+rep.PriceOutliers+rep.InvalidReferenceSales+rep.NonPositiveSales))
	metrics.RecordRows(job, "inventory_synthesized", int64(rep.InventorySynthesized))
}
