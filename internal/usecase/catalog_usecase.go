package usecase

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/DRSN-tech/pos-backend/internal/domain"
	"github.com/DRSN-tech/pos-backend/pkg/e"
	"github.com/DRSN-tech/pos-backend/pkg/logger"
)

// CatalogUseCase управляет товарами, категориями и поставщиками.
type CatalogUseCase struct {
	productRepo  ProductRepository
	categoryRepo CategoryRepository
	supplierRepo SupplierRepository
	cacheRepo    CacheRepository
	logger       logger.Logger
}

func NewCatalogUC(
	productRepo ProductRepository,
	categoryRepo CategoryRepository,
	supplierRepo SupplierRepository,
	cacheRepo CacheRepository,
	logger logger.Logger,
) *CatalogUseCase {
	return &CatalogUseCase{
		productRepo:  productRepo,
		categoryRepo: categoryRepo,
		supplierRepo: supplierRepo,
		cacheRepo:    cacheRepo,
		logger:       logger,
	}
}

// CATEGORIES

func (c *CatalogUseCase) CreateCategory(ctx context.Context, req *CategoryReq) (*domain.Category, error) {
	const op = "CatalogUseCase.CreateCategory"

	if err := validateRequired("name", req.Name); err != nil {
		return nil, e.Wrap(op, err)
	}

	category, err := c.categoryRepo.Create(ctx, domain.NewCategory(strings.TrimSpace(req.Name)))
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	return category, nil
}

func (c *CatalogUseCase) ListCategories(ctx context.Context) ([]domain.Category, error) {
	const op = "CatalogUseCase.ListCategories"

	categories, err := c.categoryRepo.List(ctx)
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	return categories, nil
}

func (c *CatalogUseCase) GetCategory(ctx context.Context, id int64) (*domain.Category, error) {
	const op = "CatalogUseCase.GetCategory"

	category, err := c.categoryRepo.GetByID(ctx, id)
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	return category, nil
}

func (c *CatalogUseCase) UpdateCategory(ctx context.Context, id int64, req *CategoryReq) (*domain.Category, error) {
	const op = "CatalogUseCase.UpdateCategory"

	if err := validateRequired("name", req.Name); err != nil {
		return nil, e.Wrap(op, err)
	}

	category := domain.NewCategory(strings.TrimSpace(req.Name))
	category.ID = id

	updated, err := c.categoryRepo.Update(ctx, category)
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	// В кэше товары лежат вместе с названием категории
	c.invalidateProducts(ctx, op, func() ([]int64, error) { return c.productRepo.IDsByCategory(ctx, id) })

	return updated, nil
}

func (c *CatalogUseCase) DeleteCategory(ctx context.Context, id int64) error {
	const op = "CatalogUseCase.DeleteCategory"

	ids, idsErr := c.productRepo.IDsByCategory(ctx, id)

	if err := c.categoryRepo.Delete(ctx, id); err != nil {
		return e.Wrap(op, err)
	}

	c.invalidateProducts(ctx, op, func() ([]int64, error) { return ids, idsErr })
	return nil
}

// SUPPLIERS

func (c *CatalogUseCase) CreateSupplier(ctx context.Context, req *SupplierReq) (*domain.Supplier, error) {
	const op = "CatalogUseCase.CreateSupplier"

	if err := validateRequired("name", req.Name); err != nil {
		return nil, e.Wrap(op, err)
	}

	supplier, err := c.supplierRepo.Create(ctx, newSupplier(req))
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	return supplier, nil
}

func (c *CatalogUseCase) ListSuppliers(ctx context.Context) ([]domain.Supplier, error) {
	const op = "CatalogUseCase.ListSuppliers"

	suppliers, err := c.supplierRepo.List(ctx)
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	return suppliers, nil
}

func (c *CatalogUseCase) GetSupplier(ctx context.Context, id int64) (*domain.Supplier, error) {
	const op = "CatalogUseCase.GetSupplier"

	supplier, err := c.supplierRepo.GetByID(ctx, id)
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	return supplier, nil
}

func (c *CatalogUseCase) UpdateSupplier(ctx context.Context, id int64, req *SupplierReq) (*domain.Supplier, error) {
	const op = "CatalogUseCase.UpdateSupplier"

	if err := validateRequired("name", req.Name); err != nil {
		return nil, e.Wrap(op, err)
	}

	supplier := newSupplier(req)
	supplier.ID = id

	updated, err := c.supplierRepo.Update(ctx, supplier)
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	c.invalidateProducts(ctx, op, func() ([]int64, error) { return c.productRepo.IDsBySupplier(ctx, id) })

	return updated, nil
}

func (c *CatalogUseCase) DeleteSupplier(ctx context.Context, id int64) error {
	const op = "CatalogUseCase.DeleteSupplier"

	ids, idsErr := c.productRepo.IDsBySupplier(ctx, id)

	if err := c.supplierRepo.Delete(ctx, id); err != nil {
		return e.Wrap(op, err)
	}

	c.invalidateProducts(ctx, op, func() ([]int64, error) { return ids, idsErr })
	return nil
}

// PRODUCTS

func (c *CatalogUseCase) CreateProduct(ctx context.Context, req *ProductReq) (*domain.Product, error) {
	const op = "CatalogUseCase.CreateProduct"

	if err := c.validateProductRefs(ctx, req); err != nil {
		return nil, e.Wrap(op, err)
	}

	product, err := c.productRepo.Create(ctx, newProduct(req))
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	return product, nil
}

func (c *CatalogUseCase) ListProducts(ctx context.Context) ([]domain.Product, error) {
	const op = "CatalogUseCase.ListProducts"

	products, err := c.productRepo.List(ctx)
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	return products, nil
}

// GetProduct читает товар через кэш (cache-aside). Ошибки Redis лишь логируются.
func (c *CatalogUseCase) GetProduct(ctx context.Context, id int64) (*domain.Product, error) {
	const op = "CatalogUseCase.GetProduct"

	cached, err := c.cacheRepo.GetProducts(ctx, []int64{id})
	if err != nil {
		c.logger.Warnf("Product cache lookup failed: %v", e.Wrap(op, err))
	} else if product, ok := cached[id]; ok {
		return &product, nil
	}

	product, err := c.productRepo.GetByID(ctx, id)
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	// Фоновое добавление товара в кэш
	toCache := *product
	go func() {
		bgCtx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
		defer cancel()

		if err := c.cacheRepo.SetProducts(bgCtx, []domain.Product{toCache}); err != nil {
			c.logger.Warnf("Failed to cache product in background: %v", e.Wrap(op, err))
		}
	}()

	return product, nil
}

func (c *CatalogUseCase) UpdateProduct(ctx context.Context, id int64, req *ProductReq) (*domain.Product, error) {
	const op = "CatalogUseCase.UpdateProduct"

	if err := c.validateProductRefs(ctx, req); err != nil {
		return nil, e.Wrap(op, err)
	}

	product := newProduct(req)
	product.ID = id

	updated, err := c.productRepo.Update(ctx, product)
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	c.invalidateProducts(ctx, op, func() ([]int64, error) { return []int64{id}, nil })
	return updated, nil
}

// DeleteProduct архивирует товар: строки прошлых продаж продолжают на него ссылаться.
func (c *CatalogUseCase) DeleteProduct(ctx context.Context, id int64) error {
	const op = "CatalogUseCase.DeleteProduct"

	if err := c.productRepo.Archive(ctx, id); err != nil {
		return e.Wrap(op, err)
	}

	c.invalidateProducts(ctx, op, func() ([]int64, error) { return []int64{id}, nil })
	return nil
}

// validateProductRefs проверяет поля товара и существование категории и поставщика.
func (c *CatalogUseCase) validateProductRefs(ctx context.Context, req *ProductReq) error {
	if err := validateProduct(req); err != nil {
		return err
	}

	if req.CategoryID != nil {
		if _, err := c.categoryRepo.GetByID(ctx, *req.CategoryID); err != nil {
			return refError("category_id", err)
		}
	}

	if req.SupplierID != nil {
		if _, err := c.supplierRepo.GetByID(ctx, *req.SupplierID); err != nil {
			return refError("supplier_id", err)
		}
	}

	return nil
}

// invalidateProducts удаляет товары из кэша. Ошибки не прерывают операцию.
func (c *CatalogUseCase) invalidateProducts(ctx context.Context, op string, ids func() ([]int64, error)) {
	productIDs, err := ids()
	if err != nil {
		c.logger.Warnf("Failed to resolve products for cache invalidation: %v", e.Wrap(op, err))
		return
	}
	if len(productIDs) == 0 {
		return
	}

	if err := c.cacheRepo.DeleteProducts(ctx, productIDs); err != nil {
		c.logger.Warnf("Failed to delete products from cache: %v", e.Wrap(op, err))
	}
}

func refError(field string, err error) error {
	if errors.Is(err, e.ErrNotFound) {
		return e.NewValidationError(field, "does not exist")
	}
	return err
}

func newSupplier(req *SupplierReq) *domain.Supplier {
	return domain.NewSupplier(
		strings.TrimSpace(req.Name),
		strings.TrimSpace(req.Contact),
		strings.TrimSpace(req.Address),
	)
}

func newProduct(req *ProductReq) *domain.Product {
	return domain.NewProduct(
		strings.TrimSpace(req.Name),
		strings.TrimSpace(req.Brand),
		req.CostPrice,
		req.SellPrice,
		req.Quantity,
		req.CategoryID,
		req.SupplierID,
	)
}
