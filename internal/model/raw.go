// Package model defines the typed record collections flowing through the
// retail analytics pipeline and the metrics bundle it produces.
//
// Two families of types exist:
//
//   - Raw* rows mirror the CSV column contracts as loaded. Fields that may be
//     absent in the source data are pointers (nil = missing), and date fields
//     stay as strings until the cleaner parses them.
//   - Cleaned rows (Customer, Product, Sale, Inventory) carry the post-clean
//     invariants: no missing values, valid foreign keys, parsed dates.
//
// The package is a leaf: it has no dependencies on other pipeline packages so
// that every stage can share these types without import cycles.
package model

// RawCustomer is a customer row as loaded, before cleaning.
type RawCustomer struct {
	ID        int
	Name      string
	Age       *int // nil when the source value is blank
	Region    string
	CreatedAt string
}

// RawProduct is a product row as loaded. A blank price parses to 0 and is
// removed by the cleaner's price-outlier rule.
type RawProduct struct {
	ID        int
	Name      string
	Category  string
	Price     float64
	Supplier  string
	CreatedAt string
}

// RawSale is a sale row as loaded. Date stays a string; parsing it is a
// cleaning rule with fatal-on-malformed semantics.
type RawSale struct {
	ID          int
	CustomerID  int
	ProductID   int
	Date        string
	Quantity    *int // nil when blank; the cleaner fills 1
	UnitPrice   float64
	TotalAmount float64
}

// RawInventory is an inventory row as loaded.
type RawInventory struct {
	ID           int
	ProductID    int
	CurrentStock int
	ReorderLevel int
	MaxStock     int
	TurnoverRate *float64 // nil when blank; the cleaner defaults 1.0
	LastUpdated  string
}

// RawTables bundles the four input datasets for a single pipeline run.
// A nil slice means the dataset was never loaded (distinct from loaded-but-empty).
type RawTables struct {
	Customers []RawCustomer
	Products  []RawProduct
	Sales     []RawSale
	Inventory []RawInventory
}
