package usecase

import (
	"context"
	"io"

	"github.com/DRSN-tech/pos-backend/internal/domain"
)

type CatalogUC interface {
	CreateCategory(ctx context.Context, req *CategoryReq) (*domain.Category, error)
	ListCategories(ctx context.Context) ([]domain.Category, error)
	GetCategory(ctx context.Context, id int64) (*domain.Category, error)
	UpdateCategory(ctx context.Context, id int64, req *CategoryReq) (*domain.Category, error)
	DeleteCategory(ctx context.Context, id int64) error

	CreateSupplier(ctx context.Context, req *SupplierReq) (*domain.Supplier, error)
	ListSuppliers(ctx context.Context) ([]domain.Supplier, error)
	GetSupplier(ctx context.Context, id int64) (*domain.Supplier, error)
	UpdateSupplier(ctx context.Context, id int64, req *SupplierReq) (*domain.Supplier, error)
	DeleteSupplier(ctx context.Context, id int64) error

	CreateProduct(ctx context.Context, req *ProductReq) (*domain.Product, error)
	ListProducts(ctx context.Context) ([]domain.Product, error)
	GetProduct(ctx context.Context, id int64) (*domain.Product, error)
	UpdateProduct(ctx context.Context, id int64, req *ProductReq) (*domain.Product, error)
	DeleteProduct(ctx context.Context, id int64) error
}

type SaleUC interface {
	CommitSale(ctx context.Context, req *CommitSaleReq) (*CommitSaleRes, error)
	GetStock(ctx context.Context, productID int64) (int64, error)
	AdjustStock(ctx context.Context, productID, delta int64) (int64, error)
	ListSales(ctx context.Context) ([]domain.Sale, error)
	GetSale(ctx context.Context, id int64) (*domain.Sale, error)
	ShareLink(ctx context.Context, id int64) (*ShareLinkRes, error)
}

type AnalyticsUC interface {
	Dashboard(ctx context.Context) *DashboardRes
	WriteReport(ctx context.Context, w io.Writer) error
	StoreReport(ctx context.Context) (*StoredReport, error)
}

var (
	_ CatalogUC   = (*CatalogUseCase)(nil)
	_ SaleUC      = (*SaleUseCase)(nil)
	_ AnalyticsUC = (*AnalyticsUseCase)(nil)
)
