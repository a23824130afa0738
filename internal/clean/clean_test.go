package clean

import (
	"errors"
	"reflect"
	"testing"
	"time"

	"retailetl/internal/model"
)

func intp(v int) *int { return &v }

var runDate = time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)

// minimal valid raw tables; tests override individual slices.
func validRaw() model.RawTables {
	return model.RawTables{
		Customers: []model.RawCustomer{},
		Products:  []model.RawProduct{},
		Sales:     []model.RawSale{},
		Inventory: []model.RawInventory{},
	}
}

func TestCleanMissingTable(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*model.RawTables)
	}{
		{"customers", func(r *model.RawTables) { r.Customers = nil }},
		{"products", func(r *model.RawTables) { r.Products = nil }},
		{"sales", func(r *model.RawTables) { r.Sales = nil }},
		{"inventory", func(r *model.RawTables) { r.Inventory = nil }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			raw := validRaw()
			tc.mutate(&raw)
			_, _, err := Cleaner{Now: runDate}.Clean(raw)
			if !errors.Is(err, model.ErrDataAbsent) {
				t.Fatalf("Clean() error = %v, want ErrDataAbsent", err)
			}
		})
	}
}

// Scenario: underage customer, negative-price product, and the sale
// referencing them are dropped; the surviving product gets a synthesized
// inventory row.
func TestCleanScenario(t *testing.T) {
	raw := model.RawTables{
		Customers: []model.RawCustomer{
			{ID: 1, Age: intp(17)},
			{ID: 2, Age: intp(30), Region: "North"},
		},
		Products: []model.RawProduct{
			{ID: 10, Price: -5},
			{ID: 11, Price: 20, Category: "Books"},
		},
		Sales: []model.RawSale{
			{ID: 100, CustomerID: 2, ProductID: 11, Quantity: intp(2), TotalAmount: 40, Date: "2024-01-10"},
			{ID: 101, CustomerID: 1, ProductID: 10, Quantity: intp(1), TotalAmount: 5, Date: "2024-01-11"},
		},
		Inventory: []model.RawInventory{},
	}

	tables, rep, err := Cleaner{Now: runDate}.Clean(raw)
	if err != nil {
		t.Fatalf("Clean() error = %v", err)
	}

	if len(tables.Customers) != 1 || tables.Customers[0].ID != 2 {
		t.Fatalf("customers = %+v, want only id=2", tables.Customers)
	}
	if got := tables.Customers[0].Name; got != "Unknown Customer" {
		t.Errorf("missing name filled with %q", got)
	}
	if len(tables.Products) != 1 || tables.Products[0].ID != 11 {
		t.Fatalf("products = %+v, want only id=11", tables.Products)
	}
	if len(tables.Sales) != 1 || tables.Sales[0].ID != 100 {
		t.Fatalf("sales = %+v, want only id=100", tables.Sales)
	}
	if got := tables.Sales[0].Date; !got.Equal(time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("sale date = %v", got)
	}

	wantInv := model.Inventory{
		ID: 11, ProductID: 11, CurrentStock: 0, ReorderLevel: 10,
		MaxStock: 100, TurnoverRate: 1.0, LastUpdated: "2024-06-01",
	}
	if len(tables.Inventory) != 1 || tables.Inventory[0] != wantInv {
		t.Fatalf("inventory = %+v, want [%+v]", tables.Inventory, wantInv)
	}

	if rep.AgeOutliers != 1 || rep.PriceOutliers != 1 || rep.InvalidReferenceSales != 1 {
		t.Errorf("report = %+v, want one age outlier, one price outlier, one invalid reference", rep)
	}
	if rep.InventorySynthesized != 1 {
		t.Errorf("InventorySynthesized = %d, want 1", rep.InventorySynthesized)
	}
}

func TestCleanCustomerDedupKeepsFirst(t *testing.T) {
	raw := validRaw()
	raw.Customers = []model.RawCustomer{
		{ID: 1, Name: "First", Age: intp(30), Region: "North"},
		{ID: 1, Name: "Second", Age: intp(40), Region: "South"},
	}
	tables, rep, err := Cleaner{Now: runDate}.Clean(raw)
	if err != nil {
		t.Fatalf("Clean() error = %v", err)
	}
	if len(tables.Customers) != 1 || tables.Customers[0].Name != "First" {
		t.Fatalf("customers = %+v, want first occurrence kept", tables.Customers)
	}
	if rep.DuplicateCustomers != 1 {
		t.Errorf("DuplicateCustomers = %d, want 1", rep.DuplicateCustomers)
	}
}

func TestCleanMedianAgeFill(t *testing.T) {
	cases := []struct {
		name string
		ages []*int
		want int // expected filled age for the nil entry
	}{
		{"odd", []*int{intp(20), intp(30), intp(60), nil}, 30},
		{"even rounds half up", []*int{intp(20), intp(31), intp(40), intp(60), nil}, 36},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			raw := validRaw()
			for i, age := range tc.ages {
				raw.Customers = append(raw.Customers, model.RawCustomer{ID: i + 1, Name: "C", Age: age, Region: "R"})
			}
			tables, rep, err := Cleaner{Now: runDate}.Clean(raw)
			if err != nil {
				t.Fatalf("Clean() error = %v", err)
			}
			filled := tables.Customers[len(tables.Customers)-1]
			if filled.Age != tc.want {
				t.Errorf("filled age = %d, want %d", filled.Age, tc.want)
			}
			if rep.CustomerAgesFilled != 1 {
				t.Errorf("CustomerAgesFilled = %d, want 1", rep.CustomerAgesFilled)
			}
		})
	}
}

func TestCleanNoAgesAnywhere(t *testing.T) {
	raw := validRaw()
	raw.Customers = []model.RawCustomer{{ID: 1, Name: "C", Region: "R"}}
	tables, _, err := Cleaner{Now: runDate}.Clean(raw)
	if err != nil {
		t.Fatalf("Clean() error = %v", err)
	}
	// Nothing to impute from: the row falls to the age filter.
	if len(tables.Customers) != 0 {
		t.Fatalf("customers = %+v, want empty", tables.Customers)
	}
}

func TestCleanSaleQuantityFill(t *testing.T) {
	raw := validRaw()
	raw.Customers = []model.RawCustomer{{ID: 1, Name: "C", Age: intp(30), Region: "R"}}
	raw.Products = []model.RawProduct{{ID: 1, Name: "P", Category: "X", Price: 10, Supplier: "S"}}
	raw.Sales = []model.RawSale{
		{ID: 1, CustomerID: 1, ProductID: 1, Date: "2024-02-01", TotalAmount: 10},
	}
	tables, rep, err := Cleaner{Now: runDate}.Clean(raw)
	if err != nil {
		t.Fatalf("Clean() error = %v", err)
	}
	if tables.Sales[0].Quantity != 1 {
		t.Errorf("quantity = %d, want 1", tables.Sales[0].Quantity)
	}
	if rep.QuantitiesFilled != 1 {
		t.Errorf("QuantitiesFilled = %d, want 1", rep.QuantitiesFilled)
	}
}

func TestCleanMalformedSaleDate(t *testing.T) {
	raw := validRaw()
	raw.Customers = []model.RawCustomer{{ID: 1, Name: "C", Age: intp(30), Region: "R"}}
	raw.Products = []model.RawProduct{{ID: 1, Name: "P", Category: "X", Price: 10, Supplier: "S"}}
	raw.Sales = []model.RawSale{
		{ID: 7, CustomerID: 1, ProductID: 1, Date: "not-a-date", Quantity: intp(1), TotalAmount: 10},
	}

	_, _, err := Cleaner{Now: runDate}.Clean(raw)
	var malformed *model.MalformedRecordError
	if !errors.As(err, &malformed) {
		t.Fatalf("Clean() error = %v, want MalformedRecordError", err)
	}
	if malformed.Table != "sales" || malformed.ID != 7 || malformed.Field != "date" {
		t.Errorf("malformed = %+v", malformed)
	}
}

func TestCleanInventoryRepairs(t *testing.T) {
	raw := validRaw()
	raw.Products = []model.RawProduct{{ID: 1, Name: "P", Category: "X", Price: 10, Supplier: "S"}}
	raw.Inventory = []model.RawInventory{
		{ID: 1, ProductID: 1, CurrentStock: -4, ReorderLevel: 5, MaxStock: 50, LastUpdated: "2024-05-01"},
	}
	tables, rep, err := Cleaner{Now: runDate}.Clean(raw)
	if err != nil {
		t.Fatalf("Clean() error = %v", err)
	}
	inv := tables.Inventory[0]
	if inv.CurrentStock != 0 {
		t.Errorf("clamped stock = %d, want 0", inv.CurrentStock)
	}
	if inv.TurnoverRate != 1.0 {
		t.Errorf("defaulted turnover = %g, want 1.0", inv.TurnoverRate)
	}
	if rep.StockClamped != 1 || rep.TurnoverDefaulted != 1 {
		t.Errorf("report = %+v", rep)
	}
}

// Re-running the cleaner over its own output must change nothing.
func TestCleanIdempotent(t *testing.T) {
	raw := model.RawTables{
		Customers: []model.RawCustomer{
			{ID: 1, Name: "Ana", Age: intp(30), Region: "North"},
			{ID: 1, Name: "Dup", Age: intp(44), Region: "South"},
			{ID: 2, Age: nil, Region: "South"},
			{ID: 3, Name: "Old", Age: intp(120), Region: "East"},
		},
		Products: []model.RawProduct{
			{ID: 1, Name: "Lamp", Category: "Home", Price: 25, Supplier: "S"},
			{ID: 2, Name: "Bad", Category: "Home", Price: -1, Supplier: "S"},
		},
		Sales: []model.RawSale{
			{ID: 1, CustomerID: 1, ProductID: 1, Date: "2024-03-04", Quantity: nil, TotalAmount: 25},
			{ID: 2, CustomerID: 3, ProductID: 1, Date: "2024-03-05", Quantity: intp(1), TotalAmount: 25},
		},
		Inventory: []model.RawInventory{
			{ID: 1, ProductID: 1, CurrentStock: -2, ReorderLevel: 3, MaxStock: 10, TurnoverRate: nil, LastUpdated: "2024-05-01"},
		},
	}

	c := Cleaner{Now: runDate}
	first, _, err := c.Clean(raw)
	if err != nil {
		t.Fatalf("first Clean() error = %v", err)
	}

	second, rep, err := c.Clean(rawFromClean(first))
	if err != nil {
		t.Fatalf("second Clean() error = %v", err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Errorf("second pass changed tables:\nfirst:  %+v\nsecond: %+v", first, second)
	}
	if rep != (Report{}) {
		t.Errorf("second pass report = %+v, want all zeros", rep)
	}
}

// rawFromClean converts cleaned tables back to the raw representation, the
// way a loader would read them if they were written out again.
func rawFromClean(t model.Tables) model.RawTables {
	raw := model.RawTables{
		Customers: make([]model.RawCustomer, 0, len(t.Customers)),
		Products:  make([]model.RawProduct, 0, len(t.Products)),
		Sales:     make([]model.RawSale, 0, len(t.Sales)),
		Inventory: make([]model.RawInventory, 0, len(t.Inventory)),
	}
	for _, c := range t.Customers {
		age := c.Age
		raw.Customers = append(raw.Customers, model.RawCustomer{
			ID: c.ID, Name: c.Name, Age: &age, Region: c.Region,
		})
	}
	for _, p := range t.Products {
		raw.Products = append(raw.Products, model.RawProduct{
			ID: p.ID, Name: p.Name, Category: p.Category, Price: p.Price, Supplier: p.Supplier,
		})
	}
	for _, s := range t.Sales {
		qty := s.Quantity
		raw.Sales = append(raw.Sales, model.RawSale{
			ID: s.ID, CustomerID: s.CustomerID, ProductID: s.ProductID,
			Date: s.Date.Format("2006-01-02"), Quantity: &qty,
			UnitPrice: s.UnitPrice, TotalAmount: s.TotalAmount,
		})
	}
	for _, i := range t.Inventory {
		turnover := i.TurnoverRate
		raw.Inventory = append(raw.Inventory, model.RawInventory{
			ID: i.ID, ProductID: i.ProductID, CurrentStock: i.CurrentStock,
			ReorderLevel: i.ReorderLevel, MaxStock: i.MaxStock,
			TurnoverRate: &turnover, LastUpdated: i.LastUpdated,
		})
	}
	return raw
}

func TestNormalizeText(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"", ""},
		{"  plain  ", "plain"},
		{"a b", "a b"},
		{"zero\u200bwidth", "zerowidth"},
		{"\ufeffbom", "bom"},
	}
	for _, tc := range cases {
		if got := NormalizeText(tc.in); got != tc.want {
			t.Errorf("NormalizeText(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
