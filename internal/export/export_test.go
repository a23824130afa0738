package export

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"retailetl/internal/model"
)

func sampleBundle() *model.Bundle {
	return &model.Bundle{
		RevenueByRegion: []model.RegionRevenue{
			{Region: "North", TotalRevenue: 100, TotalSales: 2, AvgOrderValue: 50},
		},
		TopProducts: []model.ProductPerformance{
			{ProductID: 1, Name: "Lamp", Category: "Home", TotalQuantitySold: 3, TotalRevenue: 100, NumberOfSales: 2},
		},
		CategoryPerformance: []model.CategoryPerformance{
			{Category: "Home", TotalRevenue: 100, AvgOrderValue: 50, TotalQuantity: 3, NumberOfSales: 2},
		},
		CustomerSummary: model.CustomerSummary{TotalCustomers: 1, ActiveCustomers: 1},
		MonthlyTrends: []model.MonthlyTrend{
			{YearMonth: "2024-01", Revenue: 100, QuantitySold: 3, NumberOfSales: 2},
		},
		BusinessInsights: []model.Insight{
			{Title: "Category Dominance", Impact: model.ImpactHigh, Category: "Category Performance"},
		},
	}
}

func TestWriteNilBundle(t *testing.T) {
	if err := Write(t.TempDir(), nil); !errors.Is(err, model.ErrPrecondition) {
		t.Fatalf("Write(nil) error = %v, want ErrPrecondition", err)
	}
}

func TestWriteCreatesAllFiles(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "out") // must be created by Write
	if err := Write(dir, sampleBundle()); err != nil {
		t.Fatalf("Write() error = %v", err)
	}

	want := []string{
		"metrics.json",
		"revenue_by_region.json",
		"top_products.json",
		"category_performance.json",
		"customer_summary.json",
		"age_groups.json",
		"inventory_risks.json",
		"monthly_trends.json",
		"business_insights.json",
	}
	for _, name := range want {
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			t.Errorf("missing export file %s: %v", name, err)
		}
	}
}

func TestWriteCombinedBundleKeys(t *testing.T) {
	dir := t.TempDir()
	if err := Write(dir, sampleBundle()); err != nil {
		t.Fatalf("Write() error = %v", err)
	}

	data, err := os.ReadFile(filepath.Join(dir, "metrics.json"))
	if err != nil {
		t.Fatalf("read metrics.json: %v", err)
	}

	var doc map[string]json.RawMessage
	if err := json.Unmarshal(data, &doc); err != nil {
		t.Fatalf("metrics.json is not valid JSON: %v", err)
	}
	for _, key := range []string{
		"revenue_by_region", "top_products", "category_performance",
		"customer_metrics", "customer_metrics_summary", "age_group_analysis",
		"inventory_insights", "monthly_trends", "business_insights",
	} {
		if _, ok := doc[key]; !ok {
			t.Errorf("metrics.json missing key %q", key)
		}
	}
}

func TestWritePerEndpointContent(t *testing.T) {
	dir := t.TempDir()
	b := sampleBundle()
	if err := Write(dir, b); err != nil {
		t.Fatalf("Write() error = %v", err)
	}

	data, err := os.ReadFile(filepath.Join(dir, "revenue_by_region.json"))
	if err != nil {
		t.Fatalf("read revenue_by_region.json: %v", err)
	}

	var got []model.RegionRevenue
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !reflect.DeepEqual(got, b.RevenueByRegion) {
		t.Errorf("round-trip = %+v, want %+v", got, b.RevenueByRegion)
	}
	if data[len(data)-1] != '\n' {
		t.Error("export file does not end with a newline")
	}
}
