package converter

import (
	"time"

	"github.com/shopspring/decimal"
)

// ProductRedisModel — товар в кэше. Деньги хранятся строкой, чтобы не терять точность.
type ProductRedisModel struct {
	ID           int64           `json:"id"`
	Name         string          `json:"name"`
	Brand        string          `json:"brand"`
	CostPrice    decimal.Decimal `json:"cost_price"`
	SellPrice    decimal.Decimal `json:"sell_price"`
	Quantity     int64           `json:"quantity"`
	CategoryID   *int64          `json:"category_id,omitempty"`
	CategoryName string          `json:"category_name,omitempty"`
	SupplierID   *int64          `json:"supplier_id,omitempty"`
	SupplierName string          `json:"supplier_name,omitempty"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    *time.Time      `json:"updated_at,omitempty"`
	IsArchived   bool            `json:"is_archived"`
}

type BestSellerRedisModel struct {
	ProductID int64  `json:"product_id"`
	Name      string `json:"name"`
	TotalSold int64  `json:"total_sold"`
}

type DailyTotalRedisModel struct {
	Date  string          `json:"date"`
	Total decimal.Decimal `json:"total"`
}

type DashboardRedisModel struct {
	SalesCount   int                    `json:"sales_count"`
	TotalSales   decimal.Decimal        `json:"total_sales"`
	TotalCost    decimal.Decimal        `json:"total_cost"`
	NetProfit    decimal.Decimal        `json:"net_profit"`
	ProfitMargin decimal.Decimal        `json:"profit_margin"`
	BestSellers  []BestSellerRedisModel `json:"best_selling_products"`
	SalesByDate  []DailyTotalRedisModel `json:"sales_by_date"`
}
