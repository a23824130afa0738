// Package clean repairs data-quality defects in the four raw retail datasets.
//
// Rules run per table, in dependency order (customers → products → sales →
// inventory) because sales validate their foreign keys against the already
// cleaned customer and product tables, and the inventory backfill runs over
// the cleaned product id set.
//
// The cleaner never logs. Every removed or repaired row is counted in a
// Report that the orchestrator turns into structured log fields and
// operational metrics.
package clean

import (
	"fmt"
	"math"
	"sort"
	"time"

	"retailetl/internal/model"
)

const (
	minAge   = 18
	maxAge   = 100
	maxPrice = 10000

	unknownName     = "Unknown Customer"
	unknownRegion   = "Unknown"
	unknownProduct  = "Unknown Product"
	unknownCategory = "Other"
	unknownSupplier = "Unknown Supplier"

	// Defaults for synthesized inventory rows.
	defaultReorderLevel = 10
	defaultMaxStock     = 100
	defaultTurnover     = 1.0

	dateLayout = "2006-01-02"
)

// saleDateLayouts are tried in order when parsing sale dates. A date that
// matches none of them is a fatal MalformedRecordError.
var saleDateLayouts = []string{dateLayout, "2006-01-02 15:04:05", time.RFC3339}

// Report counts removed and repaired rows per cleaning rule. The counts are
// observable side effects only; downstream logic never depends on them.
type Report struct {
	DuplicateCustomers    int
	CustomerNamesFilled   int
	CustomerAgesFilled    int
	CustomerRegionsFilled int
	AgeOutliers           int

	DuplicateProducts    int
	ProductFieldsFilled  int
	PriceOutliers        int

	DuplicateSales        int
	InvalidReferenceSales int
	QuantitiesFilled      int
	NonPositiveSales      int

	InventorySynthesized int
	StockClamped         int
	TurnoverDefaulted    int
}

// Cleaner applies the repair rules for one pipeline run.
type Cleaner struct {
	// Now is the run date used for synthesized inventory rows. The zero
	// value means "wall clock at Clean time".
	Now time.Time
}

// Clean validates and repairs the four raw tables. A nil input slice is a
// dataset the loader never produced and fails with ErrDataAbsent; defects
// with a repair policy are fixed and counted; unparseable sale dates fail
// with MalformedRecordError.
func (c Cleaner) Clean(raw model.RawTables) (model.Tables, Report, error) {
	var rep Report

	if err := checkPresent(raw); err != nil {
		return model.Tables{}, rep, err
	}

	now := c.Now
	if now.IsZero() {
		now = time.Now()
	}

	customers := cleanCustomers(raw.Customers, &rep)
	products := cleanProducts(raw.Products, &rep)

	sales, err := cleanSales(raw.Sales, customers, products, &rep)
	if err != nil {
		return model.Tables{}, rep, err
	}

	inventory := cleanInventory(raw.Inventory, products, now, &rep)

	return model.Tables{
		Customers: customers,
		Products:  products,
		Sales:     sales,
		Inventory: inventory,
	}, rep, nil
}

func checkPresent(raw model.RawTables) error {
	switch {
	case raw.Customers == nil:
		return fmt.Errorf("clean: customers: %w", model.ErrDataAbsent)
	case raw.Products == nil:
		return fmt.Errorf("clean: products: %w", model.ErrDataAbsent)
	case raw.Sales == nil:
		return fmt.Errorf("clean: sales: %w", model.ErrDataAbsent)
	case raw.Inventory == nil:
		return fmt.Errorf("clean: inventory: %w", model.ErrDataAbsent)
	}
	return nil
}

func cleanCustomers(in []model.RawCustomer, rep *Report) []model.Customer {
	kept := make([]model.RawCustomer, 0, len(in))
	seen := make(map[int]struct{}, len(in))
	for _, r := range in {
		if _, dup := seen[r.ID]; dup {
			rep.DuplicateCustomers++
			continue
		}
		seen[r.ID] = struct{}{}
		kept = append(kept, r)
	}

	// Median of the ages present after dedup, before outlier removal.
	median, haveMedian := medianAge(kept)

	out := make([]model.Customer, 0, len(kept))
	for _, r := range kept {
		name := NormalizeText(r.Name)
		if name == "" {
			name = unknownName
			rep.CustomerNamesFilled++
		}
		region := NormalizeText(r.Region)
		if region == "" {
			region = unknownRegion
			rep.CustomerRegionsFilled++
		}

		var age int
		switch {
		case r.Age != nil:
			age = *r.Age
		case haveMedian:
			age = median
			rep.CustomerAgesFilled++
		default:
			// No ages present anywhere: nothing to impute from, so the
			// row falls to the outlier filter below.
			rep.CustomerAgesFilled++
		}

		if age < minAge || age > maxAge {
			rep.AgeOutliers++
			continue
		}
		out = append(out, model.Customer{ID: r.ID, Name: name, Age: age, Region: region})
	}
	return out
}

// medianAge returns the median of the present ages, rounded half-up to an
// integer. ok is false when no row has an age.
func medianAge(in []model.RawCustomer) (median int, ok bool) {
	ages := make([]int, 0, len(in))
	for _, r := range in {
		if r.Age != nil {
			ages = append(ages, *r.Age)
		}
	}
	if len(ages) == 0 {
		return 0, false
	}
	sort.Ints(ages)
	mid := len(ages) / 2
	if len(ages)%2 == 1 {
		return ages[mid], true
	}
	return int(math.Round(float64(ages[mid-1]+ages[mid]) / 2)), true
}

func cleanProducts(in []model.RawProduct, rep *Report) []model.Product {
	out := make([]model.Product, 0, len(in))
	seen := make(map[int]struct{}, len(in))
	for _, r := range in {
		if _, dup := seen[r.ID]; dup {
			rep.DuplicateProducts++
			continue
		}
		seen[r.ID] = struct{}{}

		name := NormalizeText(r.Name)
		category := NormalizeText(r.Category)
		supplier := NormalizeText(r.Supplier)
		if name == "" {
			name = unknownProduct
			rep.ProductFieldsFilled++
		}
		if category == "" {
			category = unknownCategory
			rep.ProductFieldsFilled++
		}
		if supplier == "" {
			supplier = unknownSupplier
			rep.ProductFieldsFilled++
		}

		if r.Price <= 0 || r.Price > maxPrice {
			rep.PriceOutliers++
			continue
		}
		out = append(out, model.Product{
			ID:       r.ID,
			Name:     name,
			Category: category,
			Price:    r.Price,
			Supplier: supplier,
		})
	}
	return out
}

func cleanSales(in []model.RawSale, customers []model.Customer, products []model.Product, rep *Report) ([]model.Sale, error) {
	validCustomers := make(map[int]struct{}, len(customers))
	for _, c := range customers {
		validCustomers[c.ID] = struct{}{}
	}
	validProducts := make(map[int]struct{}, len(products))
	for _, p := range products {
		validProducts[p.ID] = struct{}{}
	}

	out := make([]model.Sale, 0, len(in))
	seen := make(map[int]struct{}, len(in))
	for _, r := range in {
		if _, dup := seen[r.ID]; dup {
			rep.DuplicateSales++
			continue
		}
		seen[r.ID] = struct{}{}

		if _, ok := validCustomers[r.CustomerID]; !ok {
			rep.InvalidReferenceSales++
			continue
		}
		if _, ok := validProducts[r.ProductID]; !ok {
			rep.InvalidReferenceSales++
			continue
		}

		qty := 1
		if r.Quantity != nil {
			qty = *r.Quantity
		} else {
			rep.QuantitiesFilled++
		}
		if qty <= 0 || r.TotalAmount <= 0 {
			rep.NonPositiveSales++
			continue
		}

		date, err := parseSaleDate(r.Date)
		if err != nil {
			return nil, &model.MalformedRecordError{
				Table: "sales", ID: r.ID, Field: "date", Value: r.Date, Err: err,
			}
		}

		out = append(out, model.Sale{
			ID:          r.ID,
			CustomerID:  r.CustomerID,
			ProductID:   r.ProductID,
			Date:        date,
			Quantity:    qty,
			UnitPrice:   r.UnitPrice,
			TotalAmount: r.TotalAmount,
		})
	}
	return out, nil
}

func parseSaleDate(s string) (time.Time, error) {
	var firstErr error
	for _, layout := range saleDateLayouts {
		t, err := time.Parse(layout, s)
		if err == nil {
			return t, nil
		}
		if firstErr == nil {
			firstErr = err
		}
	}
	return time.Time{}, firstErr
}

func cleanInventory(in []model.RawInventory, products []model.Product, now time.Time, rep *Report) []model.Inventory {
	covered := make(map[int]struct{}, len(in))
	out := make([]model.Inventory, 0, len(in))
	for _, r := range in {
		covered[r.ProductID] = struct{}{}

		stock := r.CurrentStock
		if stock < 0 {
			stock = 0
			rep.StockClamped++
		}
		turnover := defaultTurnover
		if r.TurnoverRate != nil {
			turnover = *r.TurnoverRate
		} else {
			rep.TurnoverDefaulted++
		}

		out = append(out, model.Inventory{
			ID:           r.ID,
			ProductID:    r.ProductID,
			CurrentStock: stock,
			ReorderLevel: r.ReorderLevel,
			MaxStock:     r.MaxStock,
			TurnoverRate: turnover,
			LastUpdated:  r.LastUpdated,
		})
	}

	// Backfill: build all synthesized rows first, then append them in one
	// batch instead of growing the table row by row.
	var synthesized []model.Inventory
	for _, p := range products {
		if _, ok := covered[p.ID]; ok {
			continue
		}
		synthesized = append(synthesized, model.Inventory{
			ID:           p.ID,
			ProductID:    p.ID,
			CurrentStock: 0,
			ReorderLevel: defaultReorderLevel,
			MaxStock:     defaultMaxStock,
			TurnoverRate: defaultTurnover,
			LastUpdated:  now.Format(dateLayout),
		})
	}
	rep.InventorySynthesized = len(synthesized)
	return append(out, synthesized...)
}
