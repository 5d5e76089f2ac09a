package http

import (
	"time"

	"github.com/DRSN-tech/pos-backend/internal/domain"
	"github.com/DRSN-tech/pos-backend/internal/usecase"
	"github.com/shopspring/decimal"
)

// REQUESTS

type CategoryRequest struct {
	Name string `json:"name"`
}

type SupplierRequest struct {
	Name    string `json:"name"`
	Contact string `json:"contact"`
	Address string `json:"address"`
}

// ProductRequest — деньги принимаются строкой ("99.99") или числом.
type ProductRequest struct {
	Name       string          `json:"name"`
	Brand      string          `json:"brand"`
	CostPrice  decimal.Decimal `json:"cost_price" swaggertype:"string"`
	SellPrice  decimal.Decimal `json:"sell_price" swaggertype:"string"`
	Quantity   int64           `json:"quantity"`
	CategoryID *int64          `json:"category_id"`
	SupplierID *int64          `json:"supplier_id"`
}

type AdjustStockRequest struct {
	Delta int64 `json:"delta"`
}

type CustomerDTO struct {
	Name    string `json:"name"`
	Phone   string `json:"phone"`
	Address string `json:"address,omitempty"`
}

type SaleItemRequest struct {
	ProductID    int64            `json:"product_id"`
	QuantitySold int64            `json:"quantity_sold"`
	SellPrice    *decimal.Decimal `json:"sell_price,omitempty" swaggertype:"string"`
	UnitDiscount decimal.Decimal  `json:"unit_discount" swaggertype:"string"`
	NetPrice     *decimal.Decimal `json:"net_price,omitempty" swaggertype:"string"`
	TotalPrice   *decimal.Decimal `json:"total_price,omitempty" swaggertype:"string"`
}

type CommitSaleRequest struct {
	Items          []SaleItemRequest `json:"items"`
	Customer       CustomerDTO       `json:"customer"`
	IdempotencyKey string            `json:"idempotency_key,omitempty"`
	Subtotal       *decimal.Decimal  `json:"subtotal,omitempty" swaggertype:"string"`
	DiscountAmount *decimal.Decimal  `json:"discount_amount,omitempty" swaggertype:"string"`
	TotalAmount    *decimal.Decimal  `json:"total_amount,omitempty" swaggertype:"string"`
}

// RESPONSES

type CategoryResponse struct {
	ID        int64      `json:"id"`
	Name      string     `json:"name"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt *time.Time `json:"updated_at,omitempty"`
}

type SupplierResponse struct {
	ID        int64      `json:"id"`
	Name      string     `json:"name"`
	Contact   string     `json:"contact"`
	Address   string     `json:"address"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt *time.Time `json:"updated_at,omitempty"`
}

type ProductResponse struct {
	ID           int64      `json:"id"`
	Name         string     `json:"name"`
	Brand        string     `json:"brand"`
	CostPrice    string     `json:"cost_price"`
	SellPrice    string     `json:"sell_price"`
	Quantity     int64      `json:"quantity"`
	CategoryID   *int64     `json:"category_id"`
	CategoryName *string    `json:"category_name,omitempty"`
	SupplierID   *int64     `json:"supplier_id"`
	SupplierName *string    `json:"supplier_name,omitempty"`
	IsArchived   bool       `json:"is_archived"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    *time.Time `json:"updated_at,omitempty"`
}

type StockResponse struct {
	ProductID int64 `json:"product_id"`
	Quantity  int64 `json:"quantity"`
}

type SaleItemResponse struct {
	ID           int64   `json:"id"`
	ProductID    int64   `json:"product_id"`
	ProductName  string  `json:"product_name,omitempty"`
	SellPrice    string  `json:"sell_price"`
	UnitDiscount string  `json:"unit_discount"`
	NetPrice     string  `json:"net_price"`
	QuantitySold int64   `json:"quantity_sold"`
	TotalPrice   string  `json:"total_price"`
	CostPrice    *string `json:"cost_price_at_sale,omitempty"`
}

type SaleResponse struct {
	ID             int64              `json:"id"`
	Customer       CustomerDTO        `json:"customer"`
	Subtotal       string             `json:"subtotal"`
	DiscountAmount string             `json:"discount_amount"`
	TotalAmount    string             `json:"total_amount"`
	IdempotencyKey *string            `json:"idempotency_key,omitempty"`
	CommittedAt    time.Time          `json:"committed_at"`
	Items          []SaleItemResponse `json:"items"`
	Replayed       bool               `json:"replayed,omitempty"`
}

type ShareLinkResponse struct {
	Phone   string `json:"phone"`
	Message string `json:"message"`
	URL     string `json:"url"`
}

type BestSellerResponse struct {
	ProductID int64  `json:"product_id"`
	Name      string `json:"name"`
	TotalSold int64  `json:"total_sold"`
}

type DailyTotalResponse struct {
	Date  string `json:"date"`
	Total string `json:"total"`
}

type DashboardResponse struct {
	SalesCount          int                  `json:"sales_count"`
	TotalSales          string               `json:"total_sales"`
	TotalCost           string               `json:"total_cost"`
	NetProfit           string               `json:"net_profit"`
	ProfitMargin        string               `json:"profit_margin"`
	BestSellingProducts []BestSellerResponse `json:"best_selling_products"`
	SalesByDate         []DailyTotalResponse `json:"sales_by_date"`
	Degraded            bool                 `json:"degraded,omitempty"`
}

type StoredReportResponse struct {
	Key       string    `json:"key"`
	URL       string    `json:"url"`
	ExpiresAt time.Time `json:"expires_at"`
	Size      int64     `json:"size"`
}

// MAPPERS

func (r *ProductRequest) toUseCase() *usecase.ProductReq {
	return &usecase.ProductReq{
		Name:       r.Name,
		Brand:      r.Brand,
		CostPrice:  r.CostPrice,
		SellPrice:  r.SellPrice,
		Quantity:   r.Quantity,
		CategoryID: r.CategoryID,
		SupplierID: r.SupplierID,
	}
}

// toUseCase собирает запрос на проведение. Заголовок Idempotency-Key имеет приоритет над полем тела.
func (r *CommitSaleRequest) toUseCase(headerKey string) *usecase.CommitSaleReq {
	items := make([]usecase.CommitSaleItemReq, 0, len(r.Items))
	for _, it := range r.Items {
		items = append(items, usecase.CommitSaleItemReq{
			ProductID:    it.ProductID,
			QuantitySold: it.QuantitySold,
			SellPrice:    it.SellPrice,
			UnitDiscount: it.UnitDiscount,
			NetPrice:     it.NetPrice,
			TotalPrice:   it.TotalPrice,
		})
	}

	key := r.IdempotencyKey
	if headerKey != "" {
		key = headerKey
	}

	req := &usecase.CommitSaleReq{
		Items: items,
		Customer: domain.Customer{
			Name:    r.Customer.Name,
			Phone:   r.Customer.Phone,
			Address: r.Customer.Address,
		},
		IdempotencyKey: key,
	}
	if r.Subtotal != nil || r.DiscountAmount != nil || r.TotalAmount != nil {
		req.Totals = &usecase.ClientTotals{
			Subtotal:       r.Subtotal,
			DiscountAmount: r.DiscountAmount,
			TotalAmount:    r.TotalAmount,
		}
	}

	return req
}

func toCategoryResponse(c *domain.Category) CategoryResponse {
	return CategoryResponse{ID: c.ID, Name: c.Name, CreatedAt: c.CreatedAt, UpdatedAt: c.UpdatedAt}
}

func toSupplierResponse(s *domain.Supplier) SupplierResponse {
	return SupplierResponse{
		ID:        s.ID,
		Name:      s.Name,
		Contact:   s.Contact,
		Address:   s.Address,
		CreatedAt: s.CreatedAt,
		UpdatedAt: s.UpdatedAt,
	}
}

func toProductResponse(p *domain.Product) ProductResponse {
	res := ProductResponse{
		ID:         p.ID,
		Name:       p.Name,
		Brand:      p.Brand,
		CostPrice:  p.CostPrice.StringFixed(2),
		SellPrice:  p.SellPrice.StringFixed(2),
		Quantity:   p.Quantity,
		CategoryID: p.CategoryID,
		SupplierID: p.SupplierID,
		IsArchived: p.IsArchived,
		CreatedAt:  p.CreatedAt,
		UpdatedAt:  p.UpdatedAt,
	}
	if p.Category != nil {
		res.CategoryName = &p.Category.Name
	}
	if p.Supplier != nil {
		res.SupplierName = &p.Supplier.Name
	}

	return res
}

func toSaleResponse(s *domain.Sale) SaleResponse {
	items := make([]SaleItemResponse, 0, len(s.Items))
	for _, it := range s.Items {
		item := SaleItemResponse{
			ID:           it.ID,
			ProductID:    it.ProductID,
			SellPrice:    it.SellPrice.StringFixed(2),
			UnitDiscount: it.UnitDiscount.StringFixed(2),
			NetPrice:     it.NetPrice.StringFixed(2),
			QuantitySold: it.QuantitySold,
			TotalPrice:   it.TotalPrice.StringFixed(2),
		}
		if it.Product != nil {
			item.ProductName = it.Product.Name
		}
		if it.CostPriceAtSale != nil {
			cost := it.CostPriceAtSale.StringFixed(2)
			item.CostPrice = &cost
		}
		items = append(items, item)
	}

	return SaleResponse{
		ID: s.ID,
		Customer: CustomerDTO{
			Name:    s.Customer.Name,
			Phone:   s.Customer.Phone,
			Address: s.Customer.Address,
		},
		Subtotal:       s.Subtotal.StringFixed(2),
		DiscountAmount: s.DiscountAmount.StringFixed(2),
		TotalAmount:    s.TotalAmount.StringFixed(2),
		IdempotencyKey: s.IdempotencyKey,
		CommittedAt:    s.CommittedAt,
		Items:          items,
	}
}

func toDashboardResponse(d *usecase.DashboardRes) DashboardResponse {
	res := DashboardResponse{
		SalesCount:          d.SalesCount,
		TotalSales:          d.TotalSales.StringFixed(2),
		TotalCost:           d.TotalCost.StringFixed(2),
		NetProfit:           d.NetProfit.StringFixed(2),
		ProfitMargin:        d.ProfitMargin.StringFixed(2),
		BestSellingProducts: make([]BestSellerResponse, 0, len(d.BestSellingProducts)),
		SalesByDate:         make([]DailyTotalResponse, 0, len(d.SalesByDate)),
		Degraded:            d.Degraded,
	}
	for _, b := range d.BestSellingProducts {
		res.BestSellingProducts = append(res.BestSellingProducts, BestSellerResponse{ProductID: b.ProductID, Name: b.Name, TotalSold: b.TotalSold})
	}
	for _, s := range d.SalesByDate {
		res.SalesByDate = append(res.SalesByDate, DailyTotalResponse{Date: s.Date, Total: s.Total.StringFixed(2)})
	}

	return res
}

func mapSlice[T, R any](in []T, f func(*T) R) []R {
	out := make([]R, 0, len(in))
	for i := range in {
		out = append(out, f(&in[i]))
	}
	return out
}
