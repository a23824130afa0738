package model

import "time"

// Customer is a cleaned customer row. Invariants: Name and Region are
// non-empty, 18 <= Age <= 100.
type Customer struct {
	ID     int
	Name   string
	Age    int
	Region string
}

// Product is a cleaned product row. Invariants: Name, Category and Supplier
// are non-empty, 0 < Price <= 10000.
type Product struct {
	ID       int
	Name     string
	Category string
	Price    float64
	Supplier string
}

// Sale is a cleaned sale row. Invariants: CustomerID and ProductID reference
// rows in the cleaned customer/product tables, Quantity > 0, TotalAmount > 0,
// Date is a parsed calendar date.
type Sale struct {
	ID          int
	CustomerID  int
	ProductID   int
	Date        time.Time
	Quantity    int
	UnitPrice   float64
	TotalAmount float64
}

// Inventory is a cleaned inventory row. Invariants: CurrentStock >= 0 and
// TurnoverRate > 0 (defaulted to 1.0 when the source value was blank).
// LastUpdated is passed through as the source string; synthesized rows carry
// the run date in YYYY-MM-DD form.
type Inventory struct {
	ID           int
	ProductID    int
	CurrentStock int
	ReorderLevel int
	MaxStock     int
	TurnoverRate float64
	LastUpdated  string
}

// Tables bundles the four cleaned datasets. The cleaner always returns
// non-nil slices; a nil slice signals a table that never went through
// cleaning and is rejected by the aggregator.
type Tables struct {
	Customers []Customer
	Products  []Product
	Sales     []Sale
	Inventory []Inventory
}
