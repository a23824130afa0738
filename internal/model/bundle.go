package model

// Currency figures in the bundle are rounded to 2 decimal places; rates and
// ratios keep full precision unless noted otherwise.

// RegionRevenue is one row of the revenue-by-region aggregate.
type RegionRevenue struct {
	Region        string  `json:"region"`
	TotalRevenue  float64 `json:"total_revenue"`
	TotalSales    int     `json:"total_sales"`
	AvgOrderValue float64 `json:"avg_order_value"`
}

// ProductPerformance is one row of the top-products aggregate.
type ProductPerformance struct {
	ProductID         int     `json:"product_id"`
	Name              string  `json:"name"`
	Category          string  `json:"category"`
	TotalQuantitySold int     `json:"total_quantity_sold"`
	TotalRevenue      float64 `json:"total_revenue"`
	NumberOfSales     int     `json:"number_of_sales"`
}

// CategoryPerformance is one row of the per-category revenue aggregate,
// sorted descending by total revenue.
type CategoryPerformance struct {
	Category      string  `json:"category"`
	TotalRevenue  float64 `json:"total_revenue"`
	AvgOrderValue float64 `json:"avg_order_value"`
	TotalQuantity int     `json:"total_quantity"`
	NumberOfSales int     `json:"number_of_sales"`
}

// CustomerMetrics is the per-customer purchase profile. Only customers with
// at least one cleaned sale appear.
type CustomerMetrics struct {
	CustomerID            int     `json:"customer_id"`
	TotalSpent            float64 `json:"total_spent"`
	AvgOrderValue         float64 `json:"avg_order_value"`
	NumberOfOrders        int     `json:"number_of_orders"`
	FirstPurchase         string  `json:"first_purchase"` // YYYY-MM-DD
	LastPurchase          string  `json:"last_purchase"`  // YYYY-MM-DD
	Age                   int     `json:"age"`
	Region                string  `json:"region"`
	DaysSinceLastPurchase int     `json:"days_since_last_purchase"`
	Churned               bool    `json:"is_churned"`
	AgeGroup              string  `json:"age_group"`
}

// CustomerSummary condenses the per-customer metrics into the exported
// customer_metrics_summary block.
type CustomerSummary struct {
	TotalCustomers   int     `json:"total_customers"`
	ActiveCustomers  int     `json:"active_customers"`
	ChurnedCustomers int     `json:"churned_customers"`
	ChurnRate        float64 `json:"churn_rate"`
	AvgCustomerValue float64 `json:"avg_customer_value"`
	AvgOrderValue    float64 `json:"avg_order_value"`
}

// AgeGroupStats is one row of the age-band aggregate, in fixed band order.
type AgeGroupStats struct {
	AgeGroup   string  `json:"age_group"`
	AvgSpent   float64 `json:"avg_spent"`
	TotalSpent float64 `json:"total_spent"`
	AvgOrders  float64 `json:"avg_orders"`
	ChurnRate  float64 `json:"churn_rate"`
}

// LowStockProduct is an inventory row at or below its reorder level, joined
// with its product.
type LowStockProduct struct {
	ProductID    int     `json:"product_id"`
	Name         string  `json:"name"`
	Category     string  `json:"category"`
	CurrentStock int     `json:"current_stock"`
	ReorderLevel int     `json:"reorder_level"`
	TurnoverRate float64 `json:"turnover_rate"`
}

// CategoryTurnover summarizes turnover rates per category.
type CategoryTurnover struct {
	Category    string  `json:"category"`
	AvgTurnover float64 `json:"avg_turnover"`
	MinTurnover float64 `json:"min_turnover"`
	MaxTurnover float64 `json:"max_turnover"`
}

// InventoryInsights is the exported inventory_insights block.
type InventoryInsights struct {
	LowStockProducts    []LowStockProduct  `json:"low_stock_products"`
	TotalProductsAtRisk int                `json:"total_products_at_risk"`
	TurnoverByCategory  []CategoryTurnover `json:"turnover_by_category"`
}

// MonthlyTrend is one row of the chronological monthly series.
type MonthlyTrend struct {
	YearMonth     string  `json:"year_month"` // YYYY-MM
	Revenue       float64 `json:"revenue"`
	QuantitySold  int     `json:"quantity_sold"`
	NumberOfSales int     `json:"number_of_sales"`
}

// Impact levels for business insights.
const (
	ImpactCritical = "Critical"
	ImpactHigh     = "High"
	ImpactMedium   = "Medium"
	ImpactLow      = "Low"
)

// Insight is a threshold-triggered, human-readable recommendation.
type Insight struct {
	Title          string `json:"title"`
	Description    string `json:"description"`
	Recommendation string `json:"recommendation"`
	Impact         string `json:"impact"`
	Category       string `json:"category"`
}

// Bundle is the consolidated output of one pipeline run. It is assembled once
// by the orchestrator and never mutated afterwards.
type Bundle struct {
	RevenueByRegion     []RegionRevenue       `json:"revenue_by_region"`
	TopProducts         []ProductPerformance  `json:"top_products"`
	CategoryPerformance []CategoryPerformance `json:"category_performance"`
	CustomerMetrics     []CustomerMetrics     `json:"customer_metrics"`
	CustomerSummary     CustomerSummary       `json:"customer_metrics_summary"`
	AgeGroupAnalysis    []AgeGroupStats       `json:"age_group_analysis"`
	InventoryInsights   InventoryInsights     `json:"inventory_insights"`
	MonthlyTrends       []MonthlyTrend        `json:"monthly_trends"`
	BusinessInsights    []Insight             `json:"business_insights"`
}
