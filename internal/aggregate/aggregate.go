// Package aggregate computes the consolidated business metrics over cleaned
// retail tables.
//
// Every computation is an inner join on the declared foreign keys followed by
// a group-by. Aggregate is a pure function of its inputs; the independent
// aggregations run concurrently because none of them reads another's output.
//
// Group iteration is made deterministic: groups are collected in first-seen
// input order, then sorted by the documented key or measure. Currency figures
// are rounded to 2 decimal places, rates keep full precision unless the
// original export rounded them.
package aggregate

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"retailetl/internal/model"
)

const (
	topProductsLimit = 20

	// churnDays is the fixed inactivity threshold: a customer whose last
	// purchase is more than this many days before the run date is churned.
	churnDays = 90
)

// ageBands are the fixed customer age bands, in output order. Bounds are
// inclusive on both ends (age 25 falls in 18-25, age 26 in 26-35), matching
// right-closed bucket semantics.
var ageBands = []struct {
	label    string
	min, max int
}{
	{"18-25", 18, 25},
	{"26-35", 26, 35},
	{"36-50", 36, 50},
	{"51-65", 51, 65},
	{"66-100", 66, 100},
}

// AgeBand returns the band label for a cleaned customer age.
func AgeBand(age int) string {
	for _, b := range ageBands {
		if age >= b.min && age <= b.max {
			return b.label
		}
	}
	return ""
}

// Aggregate computes the metrics bundle (sans business insights) for the
// given cleaned tables. now is the run date used for churn classification.
// A nil table slice means the cleaner never ran and fails with
// ErrPrecondition.
func Aggregate(ctx context.Context, t model.Tables, now time.Time) (*model.Bundle, error) {
	switch {
	case t.Customers == nil:
		return nil, fmt.Errorf("aggregate: customers not cleaned: %w", model.ErrPrecondition)
	case t.Products == nil:
		return nil, fmt.Errorf("aggregate: products not cleaned: %w", model.ErrPrecondition)
	case t.Sales == nil:
		return nil, fmt.Errorf("aggregate: sales not cleaned: %w", model.ErrPrecondition)
	case t.Inventory == nil:
		return nil, fmt.Errorf("aggregate: inventory not cleaned: %w", model.ErrPrecondition)
	}

	customersByID := make(map[int]model.Customer, len(t.Customers))
	for _, c := range t.Customers {
		customersByID[c.ID] = c
	}
	productsByID := make(map[int]model.Product, len(t.Products))
	for _, p := range t.Products {
		productsByID[p.ID] = p
	}

	var b model.Bundle

	g, _ := errgroup.WithContext(ctx)
	g.Go(func() error {
		b.RevenueByRegion = revenueByRegion(t.Sales, customersByID)
		return nil
	})
	g.Go(func() error {
		b.TopProducts = topProducts(t.Sales, productsByID)
		return nil
	})
	g.Go(func() error {
		b.CategoryPerformance = categoryPerformance(t.Sales, productsByID)
		return nil
	})
	g.Go(func() error {
		b.CustomerMetrics = customerMetrics(t.Sales, customersByID, now)
		b.CustomerSummary = customerSummary(b.CustomerMetrics)
		b.AgeGroupAnalysis = ageGroupAnalysis(b.CustomerMetrics)
		return nil
	})
	g.Go(func() error {
		b.InventoryInsights = inventoryInsights(t.Inventory, productsByID)
		return nil
	})
	g.Go(func() error {
		b.MonthlyTrends = monthlyTrends(t.Sales)
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return &b, nil
}

// Round2 rounds to 2 decimal places, the precision used for all currency
// figures in the bundle.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func revenueByRegion(sales []model.Sale, customers map[int]model.Customer) []model.RegionRevenue {
	type agg struct {
		sum   float64
		count int
	}
	groups := make(map[string]*agg)
	for _, s := range sales {
		c, ok := customers[s.CustomerID]
		if !ok {
			continue // no join partner: excluded from this metric
		}
		a := groups[c.Region]
		if a == nil {
			a = &agg{}
			groups[c.Region] = a
		}
		a.sum += s.TotalAmount
		a.count++
	}

	out := make([]model.RegionRevenue, 0, len(groups))
	for region, a := range groups {
		out = append(out, model.RegionRevenue{
			Region:        region,
			TotalRevenue:  Round2(a.sum),
			TotalSales:    a.count,
			AvgOrderValue: Round2(a.sum / float64(a.count)),
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Region < out[j].Region })
	return out
}

func topProducts(sales []model.Sale, products map[int]model.Product) []model.ProductPerformance {
	groups := make(map[int]*model.ProductPerformance)
	var order []int // first-seen order for stable tie-breaks
	for _, s := range sales {
		p, ok := products[s.ProductID]
		if !ok {
			continue
		}
		a := groups[s.ProductID]
		if a == nil {
			a = &model.ProductPerformance{ProductID: p.ID, Name: p.Name, Category: p.Category}
			groups[s.ProductID] = a
			order = append(order, s.ProductID)
		}
		a.TotalQuantitySold += s.Quantity
		a.TotalRevenue += s.TotalAmount
		a.NumberOfSales++
	}

	out := make([]model.ProductPerformance, 0, len(order))
	for _, id := range order {
		pp := *groups[id]
		pp.TotalRevenue = Round2(pp.TotalRevenue)
		out = append(out, pp)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].TotalRevenue > out[j].TotalRevenue })
	if len(out) > topProductsLimit {
		out = out[:topProductsLimit]
	}
	return out
}

func categoryPerformance(sales []model.Sale, products map[int]model.Product) []model.CategoryPerformance {
	type agg struct {
		sum   float64
		qty   int
		count int
	}
	groups := make(map[string]*agg)
	for _, s := range sales {
		p, ok := products[s.ProductID]
		if !ok {
			continue
		}
		a := groups[p.Category]
		if a == nil {
			a = &agg{}
			groups[p.Category] = a
		}
		a.sum += s.TotalAmount
		a.qty += s.Quantity
		a.count++
	}

	out := make([]model.CategoryPerformance, 0, len(groups))
	for category, a := range groups {
		out = append(out, model.CategoryPerformance{
			Category:      category,
			TotalRevenue:  Round2(a.sum),
			AvgOrderValue: Round2(a.sum / float64(a.count)),
			TotalQuantity: a.qty,
			NumberOfSales: a.count,
		})
	}
	// Category order first so that equal revenues tie-break alphabetically.
	sort.Slice(out, func(i, j int) bool { return out[i].Category < out[j].Category })
	sort.SliceStable(out, func(i, j int) bool { return out[i].TotalRevenue > out[j].TotalRevenue })
	return out
}

func customerMetrics(sales []model.Sale, customers map[int]model.Customer, now time.Time) []model.CustomerMetrics {
	type agg struct {
		sum         float64
		count       int
		first, last time.Time
	}
	groups := make(map[int]*agg)
	for _, s := range sales {
		a := groups[s.CustomerID]
		if a == nil {
			a = &agg{first: s.Date, last: s.Date}
			groups[s.CustomerID] = a
		}
		a.sum += s.TotalAmount
		a.count++
		if s.Date.Before(a.first) {
			a.first = s.Date
		}
		if s.Date.After(a.last) {
			a.last = s.Date
		}
	}

	out := make([]model.CustomerMetrics, 0, len(groups))
	for id, a := range groups {
		c, ok := customers[id]
		if !ok {
			continue
		}
		days := int(now.Sub(a.last).Hours() / 24)
		out = append(out, model.CustomerMetrics{
			CustomerID:            id,
			TotalSpent:            Round2(a.sum),
			AvgOrderValue:         Round2(a.sum / float64(a.count)),
			NumberOfOrders:        a.count,
			FirstPurchase:         a.first.Format("2006-01-02"),
			LastPurchase:          a.last.Format("2006-01-02"),
			Age:                   c.Age,
			Region:                c.Region,
			DaysSinceLastPurchase: days,
			Churned:               days > churnDays,
			AgeGroup:              AgeBand(c.Age),
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CustomerID < out[j].CustomerID })
	return out
}

func customerSummary(metrics []model.CustomerMetrics) model.CustomerSummary {
	s := model.CustomerSummary{TotalCustomers: len(metrics)}
	if len(metrics) == 0 {
		return s
	}
	var totalSpent, totalAvgOrder float64
	for _, m := range metrics {
		if m.Churned {
			s.ChurnedCustomers++
		} else {
			s.ActiveCustomers++
		}
		totalSpent += m.TotalSpent
		totalAvgOrder += m.AvgOrderValue
	}
	n := float64(len(metrics))
	s.ChurnRate = float64(s.ChurnedCustomers) / n
	s.AvgCustomerValue = totalSpent / n
	s.AvgOrderValue = totalAvgOrder / n
	return s
}

func ageGroupAnalysis(metrics []model.CustomerMetrics) []model.AgeGroupStats {
	type agg struct {
		spent   float64
		orders  int
		churned int
		count   int
	}
	groups := make(map[string]*agg)
	for _, m := range metrics {
		a := groups[m.AgeGroup]
		if a == nil {
			a = &agg{}
			groups[m.AgeGroup] = a
		}
		a.spent += m.TotalSpent
		a.orders += m.NumberOfOrders
		if m.Churned {
			a.churned++
		}
		a.count++
	}

	// Fixed band order; bands with no customers are omitted.
	out := make([]model.AgeGroupStats, 0, len(groups))
	for _, band := range ageBands {
		a, ok := groups[band.label]
		if !ok {
			continue
		}
		n := float64(a.count)
		out = append(out, model.AgeGroupStats{
			AgeGroup:   band.label,
			AvgSpent:   Round2(a.spent / n),
			TotalSpent: Round2(a.spent),
			AvgOrders:  Round2(float64(a.orders) / n),
			ChurnRate:  Round2(float64(a.churned) / n),
		})
	}
	return out
}

func inventoryInsights(inventory []model.Inventory, products map[int]model.Product) model.InventoryInsights {
	type agg struct {
		sum      float64
		min, max float64
		count    int
	}
	turnover := make(map[string]*agg)
	lowStock := make([]model.LowStockProduct, 0)

	for _, inv := range inventory {
		p, ok := products[inv.ProductID]
		if !ok {
			continue
		}

		if inv.CurrentStock <= inv.ReorderLevel {
			lowStock = append(lowStock, model.LowStockProduct{
				ProductID:    inv.ProductID,
				Name:         p.Name,
				Category:     p.Category,
				CurrentStock: inv.CurrentStock,
				ReorderLevel: inv.ReorderLevel,
				TurnoverRate: inv.TurnoverRate,
			})
		}

		a := turnover[p.Category]
		if a == nil {
			a = &agg{min: inv.TurnoverRate, max: inv.TurnoverRate}
			turnover[p.Category] = a
		}
		a.sum += inv.TurnoverRate
		if inv.TurnoverRate < a.min {
			a.min = inv.TurnoverRate
		}
		if inv.TurnoverRate > a.max {
			a.max = inv.TurnoverRate
		}
		a.count++
	}

	byCategory := make([]model.CategoryTurnover, 0, len(turnover))
	for category, a := range turnover {
		byCategory = append(byCategory, model.CategoryTurnover{
			Category:    category,
			AvgTurnover: Round2(a.sum / float64(a.count)),
			MinTurnover: Round2(a.min),
			MaxTurnover: Round2(a.max),
		})
	}
	sort.Slice(byCategory, func(i, j int) bool { return byCategory[i].Category < byCategory[j].Category })

	return model.InventoryInsights{
		LowStockProducts:    lowStock,
		TotalProductsAtRisk: len(lowStock),
		TurnoverByCategory:  byCategory,
	}
}

func monthlyTrends(sales []model.Sale) []model.MonthlyTrend {
	type agg struct {
		revenue float64
		qty     int
		count   int
	}
	groups := make(map[string]*agg)
	for _, s := range sales {
		key := s.Date.Format("2006-01")
		a := groups[key]
		if a == nil {
			a = &agg{}
			groups[key] = a
		}
		a.revenue += s.TotalAmount
		a.qty += s.Quantity
		a.count++
	}

	out := make([]model.MonthlyTrend, 0, len(groups))
	for month, a := range groups {
		out = append(out, model.MonthlyTrend{
			YearMonth:     month,
			Revenue:       Round2(a.revenue),
			QuantitySold:  a.qty,
			NumberOfSales: a.count,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].YearMonth < out[j].YearMonth })
	return out
}
