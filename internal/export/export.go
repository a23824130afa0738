// Package export writes the metrics bundle to JSON files: one combined
// metrics.json plus one file per top-level key for per-endpoint consumption.
package export

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"retailetl/internal/model"
)

// Write exports the bundle into dir, creating it if necessary.
func Write(dir string, b *model.Bundle) error {
	if b == nil {
		return fmt.Errorf("export: nil bundle: %w", model.ErrPrecondition)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("export: %w", err)
	}

	if err := writeJSON(filepath.Join(dir, "metrics.json"), b); err != nil {
		return err
	}

	// Per-endpoint files, named after the consumers of the original export.
	files := []struct {
		name string
		data any
	}{
		{"revenue_by_region.json", b.RevenueByRegion},
		{"top_products.json", b.TopProducts},
		{"category_performance.json", b.CategoryPerformance},
		{"customer_summary.json", b.CustomerSummary},
		{"age_groups.json", b.AgeGroupAnalysis},
		{"inventory_risks.json", b.InventoryInsights},
		{"monthly_trends.json", b.MonthlyTrends},
		{"business_insights.json", b.BusinessInsights},
	}
	for _, f := range files {
		if err := writeJSON(filepath.Join(dir, f.name), f.data); err != nil {
			return err
		}
	}
	return nil
}

func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("export %s: %w", path, err)
	}
	data = append(data, '\n')
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("export %s: %w", path, err)
	}
	return nil
}
