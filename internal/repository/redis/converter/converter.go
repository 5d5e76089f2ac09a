package converter

import (
	"github.com/DRSN-tech/pos-backend/internal/analytics"
	"github.com/DRSN-tech/pos-backend/internal/domain"
)

type ProductConverter struct{}

func (ProductConverter) ToRedisModel(p *domain.Product) *ProductRedisModel {
	m := &ProductRedisModel{
		ID:         p.ID,
		Name:       p.Name,
		Brand:      p.Brand,
		CostPrice:  p.CostPrice,
		SellPrice:  p.SellPrice,
		Quantity:   p.Quantity,
		CategoryID: p.CategoryID,
		SupplierID: p.SupplierID,
		CreatedAt:  p.CreatedAt,
		UpdatedAt:  p.UpdatedAt,
		IsArchived: p.IsArchived,
	}
	if p.Category != nil {
		m.CategoryName = p.Category.Name
	}
	if p.Supplier != nil {
		m.SupplierName = p.Supplier.Name
	}

	return m
}

func (ProductConverter) ToEntity(m *ProductRedisModel) *domain.Product {
	p := &domain.Product{
		ID:         m.ID,
		Name:       m.Name,
		Brand:      m.Brand,
		CostPrice:  m.CostPrice,
		SellPrice:  m.SellPrice,
		Quantity:   m.Quantity,
		CategoryID: m.CategoryID,
		SupplierID: m.SupplierID,
		CreatedAt:  m.CreatedAt,
		UpdatedAt:  m.UpdatedAt,
		IsArchived: m.IsArchived,
	}
	if m.CategoryID != nil && m.CategoryName != "" {
		p.Category = &domain.Category{ID: *m.CategoryID, Name: m.CategoryName}
	}
	if m.SupplierID != nil && m.SupplierName != "" {
		p.Supplier = &domain.Supplier{ID: *m.SupplierID, Name: m.SupplierName}
	}

	return p
}

func (c ProductConverter) ToArrRedisModel(products []domain.Product) []ProductRedisModel {
	models := make([]ProductRedisModel, 0, len(products))
	for i := range products {
		models = append(models, *c.ToRedisModel(&products[i]))
	}

	return models
}

type DashboardConverter struct{}

func (DashboardConverter) ToRedisModel(d *analytics.Dashboard) *DashboardRedisModel {
	m := &DashboardRedisModel{
		SalesCount:   d.SalesCount,
		TotalSales:   d.TotalSales,
		TotalCost:    d.TotalCost,
		NetProfit:    d.NetProfit,
		ProfitMargin: d.ProfitMargin,
		BestSellers:  make([]BestSellerRedisModel, 0, len(d.BestSellingProducts)),
		SalesByDate:  make([]DailyTotalRedisModel, 0, len(d.SalesByDate)),
	}
	for _, b := range d.BestSellingProducts {
		m.BestSellers = append(m.BestSellers, BestSellerRedisModel{ProductID: b.ProductID, Name: b.Name, TotalSold: b.TotalSold})
	}
	for _, s := range d.SalesByDate {
		m.SalesByDate = append(m.SalesByDate, DailyTotalRedisModel{Date: s.Date, Total: s.Total})
	}

	return m
}

func (DashboardConverter) ToEntity(m *DashboardRedisModel) *analytics.Dashboard {
	d := &analytics.Dashboard{
		SalesCount:          m.SalesCount,
		TotalSales:          m.TotalSales,
		TotalCost:           m.TotalCost,
		NetProfit:           m.NetProfit,
		ProfitMargin:        m.ProfitMargin,
		BestSellingProducts: make([]analytics.BestSeller, 0, len(m.BestSellers)),
		SalesByDate:         make([]analytics.DailyTotal, 0, len(m.SalesByDate)),
	}
	for _, b := range m.BestSellers {
		d.BestSellingProducts = append(d.BestSellingProducts, analytics.BestSeller{ProductID: b.ProductID, Name: b.Name, TotalSold: b.TotalSold})
	}
	for _, s := range m.SalesByDate {
		d.SalesByDate = append(d.SalesByDate, analytics.DailyTotal{Date: s.Date, Total: s.Total})
	}

	return d
}
