package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Granularity is the width of a report bucket
type Granularity string

const (
	GranularityDaily   Granularity = "daily"
	GranularityWeekly  Granularity = "weekly"
	GranularityMonthly Granularity = "monthly"
)

// Valid reports whether g is a known granularity
func (g Granularity) Valid() bool {
	switch g {
	case GranularityDaily, GranularityWeekly, GranularityMonthly:
		return true
	}
	return false
}

// SalesFigures are the aggregates shared by buckets and summaries
type SalesFigures struct {
	TotalSales    decimal.Decimal `json:"total_sales"`
	Transactions  int             `json:"transactions"`
	ItemsSold     int             `json:"items_sold"`
	AvgOrderValue decimal.Decimal `json:"avg_order_value"`
}

// Bucket is one time slice of a report. Start and End are inclusive.
type Bucket struct {
	Label string    `json:"label"`
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
	SalesFigures
}

// ProductRank is one row of the top products ranking
type ProductRank struct {
	ItemName string          `json:"item_name"`
	Quantity int             `json:"quantity"`
	Revenue  decimal.Decimal `json:"revenue"`
}

// ProductDetail is one sold line in a report
type ProductDetail struct {
	SaleID    uuid.UUID       `json:"sale_id"`
	ItemName  string          `json:"item_name"`
	ItemSKU   string          `json:"item_sku"`
	Date      time.Time       `json:"date"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Total     decimal.Decimal `json:"total"`
}

// Report is the read-side aggregation of completed sales over a date range
type Report struct {
	From        time.Time       `json:"from"`
	To          time.Time       `json:"to"`
	Granularity Granularity     `json:"granularity"`
	Summary     SalesFigures    `json:"summary"`
	Buckets     []Bucket        `json:"buckets"`
	TopProducts []ProductRank   `json:"top_products"`
	Products    []ProductDetail `json:"products"`
}

// Dashboard is the admin landing summary
type Dashboard struct {
	Today         SalesFigures   `json:"today"`
	ProductCount  int            `json:"product_count"`
	LowStockCount int            `json:"low_stock_count"`
	LowStock      []*CatalogItem `json:"low_stock"`
	CustomerCount int            `json:"customer_count"`
	RecentSales   []*Sale        `json:"recent_sales"`
	Last7Days     []Bucket       `json:"last_7_days"`
}
