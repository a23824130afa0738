// Package insight derives ranked business insights from an aggregated
// metrics bundle.
//
// The rules run in a fixed order and each one is gated by its own threshold,
// so the output list is stable and reproducible for a given bundle. Absence
// of a condition simply omits that insight; the engine fails only when a
// required sub-aggregate is missing, which signals a contract violation in an
// earlier stage.
package insight

import (
	"fmt"

	"github.com/dustin/go-humanize"

	"retailetl/internal/model"
)

const (
	// regionLeadFactor gates the regional-leader rule: the top region must
	// strictly exceed this multiple of the mean region revenue.
	regionLeadFactor = 1.2

	// churnAlertRate gates the retention rule: overall churn must strictly
	// exceed this fraction.
	churnAlertRate = 0.3
)

// Derive applies the insight rules to the bundle. The returned slice is in
// rule order, not sorted by impact.
func Derive(b *model.Bundle) ([]model.Insight, error) {
	if b == nil {
		return nil, fmt.Errorf("insight: nil bundle: %w", model.ErrPrecondition)
	}
	if len(b.RevenueByRegion) == 0 {
		return nil, fmt.Errorf("insight: revenue_by_region empty: %w", model.ErrPrecondition)
	}
	if len(b.CategoryPerformance) == 0 {
		return nil, fmt.Errorf("insight: category_performance empty: %w", model.ErrPrecondition)
	}

	insights := make([]model.Insight, 0, 5)

	if ins, ok := regionalLeader(b.RevenueByRegion); ok {
		insights = append(insights, ins)
	}
	insights = append(insights, categoryDominance(b.CategoryPerformance))
	if ins, ok := highValueSegment(b.AgeGroupAnalysis); ok {
		insights = append(insights, ins)
	}
	if ins, ok := inventoryRisk(b.InventoryInsights); ok {
		insights = append(insights, ins)
	}
	if ins, ok := retentionConcern(b.CustomerSummary); ok {
		insights = append(insights, ins)
	}

	return insights, nil
}

// regionalLeader fires when the top region strictly exceeds 1.2x the mean
// region revenue. Ties for the top region resolve to the alphabetically
// first region because RevenueByRegion is sorted by region and the
// comparison is strict.
func regionalLeader(regions []model.RegionRevenue) (model.Insight, bool) {
	top := regions[0]
	var total float64
	for _, r := range regions {
		total += r.TotalRevenue
		if r.TotalRevenue > top.TotalRevenue {
			top = r
		}
	}
	mean := total / float64(len(regions))
	if mean <= 0 || top.TotalRevenue <= mean*regionLeadFactor {
		return model.Insight{}, false
	}

	return model.Insight{
		Title: "Regional Performance Leader",
		Description: fmt.Sprintf(
			"The %s region generates $%s in revenue, which is %.1f%% above the average region performance.",
			top.Region, money(top.TotalRevenue), (top.TotalRevenue/mean-1)*100,
		),
		Recommendation: fmt.Sprintf(
			"Consider expanding marketing efforts or inventory allocation in the %s region.",
			top.Region,
		),
		Impact:   model.ImpactHigh,
		Category: "Regional Analysis",
	}, true
}

// categoryDominance always fires for the top-revenue category.
// CategoryPerformance is sorted descending by revenue, so the top category is
// the first entry.
func categoryDominance(categories []model.CategoryPerformance) model.Insight {
	top := categories[0]
	var total float64
	for _, c := range categories {
		total += c.TotalRevenue
	}
	share := 0.0
	if total > 0 {
		share = top.TotalRevenue / total * 100
	}

	return model.Insight{
		Title: "Category Dominance",
		Description: fmt.Sprintf(
			"%s represents %.1f%% of total revenue ($%s).",
			top.Category, share, money(top.TotalRevenue),
		),
		Recommendation: fmt.Sprintf(
			"Maintain strong inventory levels for %s products and consider expanding this category.",
			top.Category,
		),
		Impact:   model.ImpactHigh,
		Category: "Category Performance",
	}
}

// highValueSegment fires when age-group data exists, naming the band with the
// highest average spend. Ties resolve to the earlier band in band order.
func highValueSegment(groups []model.AgeGroupStats) (model.Insight, bool) {
	if len(groups) == 0 {
		return model.Insight{}, false
	}
	top := groups[0]
	for _, g := range groups[1:] {
		if g.AvgSpent > top.AvgSpent {
			top = g
		}
	}

	return model.Insight{
		Title: "High-Value Customer Segment",
		Description: fmt.Sprintf(
			"Customers aged %s have the highest average spending at $%s per customer.",
			top.AgeGroup, money(top.AvgSpent),
		),
		Recommendation: fmt.Sprintf(
			"Develop targeted marketing campaigns for the %s age group to maximize revenue.",
			top.AgeGroup,
		),
		Impact:   model.ImpactMedium,
		Category: "Customer Segmentation",
	}, true
}

// inventoryRisk fires when any product sits at or below its reorder level.
// The most-affected category is the one with the highest at-risk count; ties
// break lexicographically.
func inventoryRisk(inv model.InventoryInsights) (model.Insight, bool) {
	if len(inv.LowStockProducts) == 0 {
		return model.Insight{}, false
	}

	counts := make(map[string]int)
	for _, p := range inv.LowStockProducts {
		counts[p.Category]++
	}
	var mostAffected string
	var best int
	for category, n := range counts {
		if n > best || (n == best && (mostAffected == "" || category < mostAffected)) {
			mostAffected = category
			best = n
		}
	}

	return model.Insight{
		Title: "Inventory Risk Alert",
		Description: fmt.Sprintf(
			"%d products are at or below reorder levels, with %s being the most affected category.",
			len(inv.LowStockProducts), mostAffected,
		),
		Recommendation: "Immediate reordering required for critical stock items to prevent stockouts.",
		Impact:         model.ImpactCritical,
		Category:       "Inventory Management",
	}, true
}

// retentionConcern fires when the overall churn rate strictly exceeds 30%.
func retentionConcern(summary model.CustomerSummary) (model.Insight, bool) {
	if summary.ChurnRate <= churnAlertRate {
		return model.Insight{}, false
	}

	return model.Insight{
		Title: "Customer Retention Concern",
		Description: fmt.Sprintf(
			"Customer churn rate is %.1f%%, indicating potential retention issues.",
			summary.ChurnRate*100,
		),
		Recommendation: "Implement customer retention programs and analyze reasons for customer inactivity.",
		Impact:         model.ImpactHigh,
		Category:       "Customer Retention",
	}, true
}

// money formats a currency amount with comma separators and two decimals,
// e.g. 1234567.8 -> "1,234,567.80".
func money(v float64) string {
	return humanize.FormatFloat("#,###.##", v)
}
