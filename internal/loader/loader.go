// Package loader reads the four retail CSV datasets into raw in-memory
// tables. It is a thin I/O adapter: all repair logic lives in the cleaner,
// so the loader only maps columns by header name and coerces cell types.
//
// Blank cells become nil/zero values for the cleaner to repair; a non-blank
// cell that cannot be coerced to its column type is a fatal
// MalformedRecordError. A missing file is ErrDataAbsent.
package loader

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"retailetl/internal/model"
)

// Loader reads the datasets from a directory containing customers.csv,
// products.csv, sales.csv and inventory.csv.
type Loader struct {
	Dir string
}

// Load reads all four datasets.
func (l Loader) Load() (model.RawTables, error) {
	var raw model.RawTables

	customers, err := readTable(filepath.Join(l.Dir, "customers.csv"))
	if err != nil {
		return raw, fmt.Errorf("load customers: %w", err)
	}
	products, err := readTable(filepath.Join(l.Dir, "products.csv"))
	if err != nil {
		return raw, fmt.Errorf("load products: %w", err)
	}
	sales, err := readTable(filepath.Join(l.Dir, "sales.csv"))
	if err != nil {
		return raw, fmt.Errorf("load sales: %w", err)
	}
	inventory, err := readTable(filepath.Join(l.Dir, "inventory.csv"))
	if err != nil {
		return raw, fmt.Errorf("load inventory: %w", err)
	}

	if raw.Customers, err = parseCustomers(customers); err != nil {
		return model.RawTables{}, err
	}
	if raw.Products, err = parseProducts(products); err != nil {
		return model.RawTables{}, err
	}
	if raw.Sales, err = parseSales(sales); err != nil {
		return model.RawTables{}, err
	}
	if raw.Inventory, err = parseInventory(inventory); err != nil {
		return model.RawTables{}, err
	}
	return raw, nil
}

// table is a parsed CSV file: a header index plus the data rows.
type table struct {
	idx  map[string]int
	rows [][]string
}

// cell returns the trimmed value of the named column, or "" when the column
// is absent or the row is short.
func (t table) cell(row []string, name string) string {
	i, ok := t.idx[name]
	if !ok || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

func readTable(path string) (table, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return table{}, fmt.Errorf("%s: %w", path, model.ErrDataAbsent)
		}
		return table{}, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	r.LazyQuotes = true
	r.TrimLeadingSpace = true

	header, err := r.Read()
	if err == io.EOF {
		return table{}, fmt.Errorf("%s: empty file: %w", path, model.ErrDataAbsent)
	}
	if err != nil {
		return table{}, fmt.Errorf("%s: read header: %w", path, err)
	}

	idx := make(map[string]int, len(header))
	for i, name := range header {
		idx[strings.ToLower(strings.TrimSpace(name))] = i
	}

	var rows [][]string
	for {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return table{}, fmt.Errorf("%s: read row: %w", path, err)
		}
		row := make([]string, len(rec))
		copy(row, rec)
		rows = append(rows, row)
	}
	return table{idx: idx, rows: rows}, nil
}

func parseCustomers(t table) ([]model.RawCustomer, error) {
	out := make([]model.RawCustomer, 0, len(t.rows))
	for _, row := range t.rows {
		id, err := reqInt(t, row, "customers", "id")
		if err != nil {
			return nil, err
		}
		age, err := optInt(t, row, "customers", id, "age")
		if err != nil {
			return nil, err
		}
		out = append(out, model.RawCustomer{
			ID:        id,
			Name:      t.cell(row, "name"),
			Age:       age,
			Region:    t.cell(row, "region"),
			CreatedAt: t.cell(row, "created_at"),
		})
	}
	return out, nil
}

func parseProducts(t table) ([]model.RawProduct, error) {
	out := make([]model.RawProduct, 0, len(t.rows))
	for _, row := range t.rows {
		id, err := reqInt(t, row, "products", "id")
		if err != nil {
			return nil, err
		}
		price, err := optFloat(t, row, "products", id, "price")
		if err != nil {
			return nil, err
		}
		out = append(out, model.RawProduct{
			ID:        id,
			Name:      t.cell(row, "name"),
			Category:  t.cell(row, "category"),
			Price:     deref(price),
			Supplier:  t.cell(row, "supplier"),
			CreatedAt: t.cell(row, "created_at"),
		})
	}
	return out, nil
}

func parseSales(t table) ([]model.RawSale, error) {
	out := make([]model.RawSale, 0, len(t.rows))
	for _, row := range t.rows {
		id, err := reqInt(t, row, "sales", "id")
		if err != nil {
			return nil, err
		}
		customerID, err := reqIntField(t, row, "sales", id, "customer_id")
		if err != nil {
			return nil, err
		}
		productID, err := reqIntField(t, row, "sales", id, "product_id")
		if err != nil {
			return nil, err
		}
		qty, err := optInt(t, row, "sales", id, "quantity")
		if err != nil {
			return nil, err
		}
		unitPrice, err := optFloat(t, row, "sales", id, "unit_price")
		if err != nil {
			return nil, err
		}
		total, err := optFloat(t, row, "sales", id, "total_amount")
		if err != nil {
			return nil, err
		}
		out = append(out, model.RawSale{
			ID:          id,
			CustomerID:  customerID,
			ProductID:   productID,
			Date:        t.cell(row, "date"),
			Quantity:    qty,
			UnitPrice:   deref(unitPrice),
			TotalAmount: deref(total),
		})
	}
	return out, nil
}

func parseInventory(t table) ([]model.RawInventory, error) {
	out := make([]model.RawInventory, 0, len(t.rows))
	for _, row := range t.rows {
		id, err := reqInt(t, row, "inventory", "id")
		if err != nil {
			return nil, err
		}
		productID, err := reqIntField(t, row, "inventory", id, "product_id")
		if err != nil {
			return nil, err
		}
		stock, err := optInt(t, row, "inventory", id, "current_stock")
		if err != nil {
			return nil, err
		}
		reorder, err := optInt(t, row, "inventory", id, "reorder_level")
		if err != nil {
			return nil, err
		}
		maxStock, err := optInt(t, row, "inventory", id, "max_stock")
		if err != nil {
			return nil, err
		}
		turnover, err := optFloat(t, row, "inventory", id, "turnover_rate")
		if err != nil {
			return nil, err
		}
		out = append(out, model.RawInventory{
			ID:           id,
			ProductID:    productID,
			CurrentStock: derefInt(stock),
			ReorderLevel: derefInt(reorder),
			MaxStock:     derefInt(maxStock),
			TurnoverRate: turnover,
			LastUpdated:  t.cell(row, "last_updated"),
		})
	}
	return out, nil
}

// reqInt parses the row's id column, which must always be present.
func reqInt(t table, row []string, tbl, field string) (int, error) {
	s := t.cell(row, field)
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, &model.MalformedRecordError{Table: tbl, Field: field, Value: s, Err: err}
	}
	return n, nil
}

// reqIntField parses a required integer column on a row whose id is known.
func reqIntField(t table, row []string, tbl string, id int, field string) (int, error) {
	s := t.cell(row, field)
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, &model.MalformedRecordError{Table: tbl, ID: id, Field: field, Value: s, Err: err}
	}
	return n, nil
}

// optInt parses an optional integer column: blank is nil, garbage is fatal.
// Values written as floats ("34.0") are accepted and truncated, since
// numeric columns in exported CSVs frequently round-trip through floats.
func optInt(t table, row []string, tbl string, id int, field string) (*int, error) {
	s := t.cell(row, field)
	if s == "" {
		return nil, nil
	}
	if n, err := strconv.Atoi(s); err == nil {
		return &n, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil, &model.MalformedRecordError{Table: tbl, ID: id, Field: field, Value: s, Err: err}
	}
	n := int(f)
	return &n, nil
}

// optFloat parses an optional decimal column: blank is nil, garbage is fatal.
func optFloat(t table, row []string, tbl string, id int, field string) (*float64, error) {
	s := t.cell(row, field)
	if s == "" {
		return nil, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil, &model.MalformedRecordError{Table: tbl, ID: id, Field: field, Value: s, Err: err}
	}
	return &f, nil
}

func deref(p *float64) float64 {
	if p == nil {
		return 0
	}
	return *p
}

func derefInt(p *int) int {
	if p == nil {
		return 0
	}
	return *p
}
