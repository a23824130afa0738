// Command gendata writes synthetic retail CSV datasets (customers, products,
// sales, inventory) for exercising the pipeline. With -dirty it injects the
// defect classes the cleaner repairs: duplicate ids, missing values, age and
// price outliers, dangling foreign keys, and inventory gaps.
package main

import (
	"encoding/csv"
	"flag"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"strconv"
	"time"
)

var (
	regions    = []string{"North", "South", "East", "West", "Central"}
	categories = []string{"Electronics", "Fashion", "Home & Garden", "Sports", "Beauty", "Books", "Automotive"}
	suppliers  = []string{"TechCorp", "FashionPlus", "HomeBase", "SportZone", "BeautyWorld", "BookLand", "AutoParts"}

	// price ranges per category, aligned with the categories slice
	priceRanges = [][2]float64{
		{50, 2000}, {20, 500}, {15, 800}, {25, 600}, {10, 200}, {8, 50}, {30, 1500},
	}
)

func main() {
	var (
		outDir    string
		customers int
		products  int
		sales     int
		seed      int64
		dirty     bool
	)
	flag.StringVar(&outDir, "out", "data", "output directory")
	flag.IntVar(&customers, "customers", 1000, "number of customers")
	flag.IntVar(&products, "products", 200, "number of products")
	flag.IntVar(&sales, "sales", 5000, "number of sales")
	flag.Int64Var(&seed, "seed", 42, "random seed")
	flag.BoolVar(&dirty, "dirty", true, "inject data-quality defects")
	flag.Parse()

	if err := os.MkdirAll(outDir, 0o755); err != nil {
		fatalf("create output dir: %v", err)
	}

	rng := rand.New(rand.NewSource(seed))
	now := time.Now()

	custRows := genCustomers(rng, customers, now, dirty)
	prodRows := genProducts(rng, products, now, dirty)
	saleRows := genSales(rng, sales, customers, products, now, dirty)
	invRows := genInventory(rng, products, now, dirty)

	write(outDir, "customers.csv",
		[]string{"id", "name", "age", "region", "created_at"}, custRows)
	write(outDir, "products.csv",
		[]string{"id", "name", "category", "price", "supplier", "created_at"}, prodRows)
	write(outDir, "sales.csv",
		[]string{"id", "customer_id", "product_id", "date", "quantity", "unit_price", "total_amount"}, saleRows)
	write(outDir, "inventory.csv",
		[]string{"id", "product_id", "current_stock", "reorder_level", "max_stock", "turnover_rate", "last_updated"}, invRows)

	fmt.Printf("wrote %d customers, %d products, %d sales, %d inventory rows to %s\n",
		len(custRows), len(prodRows), len(saleRows), len(invRows), outDir)
}

func genCustomers(rng *rand.Rand, n int, now time.Time, dirty bool) [][]string {
	rows := make([][]string, 0, n+n/20)
	for i := 1; i <= n; i++ {
		age := int(rng.NormFloat64()*15 + 40)
		if age < 18 {
			age = 18
		}
		if age > 80 {
			age = 80
		}
		ageS := strconv.Itoa(age)
		name := fmt.Sprintf("Customer %d", i)
		region := regions[rng.Intn(len(regions))]

		if dirty {
			switch rng.Intn(25) {
			case 0:
				ageS = "" // missing age
			case 1:
				name = "" // missing name
			case 2:
				region = "" // missing region
			case 3:
				ageS = strconv.Itoa(101 + rng.Intn(20)) // outlier
			}
		}

		created := now.AddDate(0, 0, -rng.Intn(730)).Format("2006-01-02")
		row := []string{strconv.Itoa(i), name, ageS, region, created}
		rows = append(rows, row)
		if dirty && rng.Intn(50) == 0 {
			rows = append(rows, row) // duplicate id
		}
	}
	return rows
}

func genProducts(rng *rand.Rand, n int, now time.Time, dirty bool) [][]string {
	rows := make([][]string, 0, n+n/20)
	for i := 1; i <= n; i++ {
		ci := rng.Intn(len(categories))
		category := categories[ci]
		lo, hi := priceRanges[ci][0], priceRanges[ci][1]
		price := lo + rng.Float64()*(hi-lo)
		priceS := fmt.Sprintf("%.2f", price)
		supplier := suppliers[rng.Intn(len(suppliers))]

		if dirty {
			switch rng.Intn(30) {
			case 0:
				priceS = fmt.Sprintf("%.2f", -price) // negative price
			case 1:
				priceS = "99999.99" // absurd price
			case 2:
				category = "" // missing category
			}
		}

		created := now.AddDate(0, 0, -rng.Intn(365)).Format("2006-01-02")
		row := []string{
			strconv.Itoa(i),
			fmt.Sprintf("%s Product %d", category, i),
			category,
			priceS,
			supplier,
			created,
		}
		rows = append(rows, row)
		if dirty && rng.Intn(60) == 0 {
			rows = append(rows, row)
		}
	}
	return rows
}

func genSales(rng *rand.Rand, n, customers, products int, now time.Time, dirty bool) [][]string {
	// quantity distribution: mostly 1-2 items per sale
	qtyChoices := []int{1, 1, 1, 1, 1, 2, 2, 2, 3, 3, 4, 5}

	rows := make([][]string, 0, n)
	for i := 1; i <= n; i++ {
		customerID := 1 + rng.Intn(customers)
		productID := 1 + rng.Intn(products)
		qty := qtyChoices[rng.Intn(len(qtyChoices))]
		qtyS := strconv.Itoa(qty)
		unitPrice := 5 + rng.Float64()*500

		if dirty {
			switch rng.Intn(40) {
			case 0:
				customerID = customers + 1000 + rng.Intn(100) // dangling FK
			case 1:
				productID = products + 1000 + rng.Intn(100)
			case 2:
				qtyS = "" // missing quantity
			}
		}

		// exponential-ish recency bias: most sales in the last months
		daysAgo := int(rng.ExpFloat64() * 100)
		if daysAgo > 365 {
			daysAgo = 365
		}
		date := now.AddDate(0, 0, -daysAgo).Format("2006-01-02")

		total := unitPrice * float64(qty)
		rows = append(rows, []string{
			strconv.Itoa(i),
			strconv.Itoa(customerID),
			strconv.Itoa(productID),
			date,
			qtyS,
			fmt.Sprintf("%.2f", unitPrice),
			fmt.Sprintf("%.2f", total),
		})
	}
	return rows
}

func genInventory(rng *rand.Rand, products int, now time.Time, dirty bool) [][]string {
	rows := make([][]string, 0, products)
	for i := 1; i <= products; i++ {
		if dirty && rng.Intn(20) == 0 {
			continue // gap: cleaner synthesizes this product's row
		}
		maxStock := 10 + rng.Intn(490)
		current := rng.Intn(maxStock + 1)
		turnoverS := fmt.Sprintf("%.2f", 3+rng.Float64()*12)
		if dirty && rng.Intn(30) == 0 {
			turnoverS = "" // missing turnover
		}
		rows = append(rows, []string{
			strconv.Itoa(i),
			strconv.Itoa(i),
			strconv.Itoa(current),
			strconv.Itoa(maxStock / 5),
			strconv.Itoa(maxStock),
			turnoverS,
			now.AddDate(0, 0, -rng.Intn(30)).Format("2006-01-02"),
		})
	}
	return rows
}

func write(dir, name string, header []string, rows [][]string) {
	f, err := os.Create(filepath.Join(dir, name))
	if err != nil {
		fatalf("create %s: %v", name, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(header); err != nil {
		fatalf("write %s header: %v", name, err)
	}
	if err := w.WriteAll(rows); err != nil {
		fatalf("write %s rows: %v", name, err)
	}
	w.Flush()
	if err := w.Error(); err != nil {
		fatalf("flush %s: %v", name, err)
	}
}

func fatalf(format string, a ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", a...)
	os.Exit(1)
}
