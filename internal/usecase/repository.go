package usecase

import (
	"context"
	"time"

	"github.com/DRSN-tech/pos-backend/internal/domain"
)

type CategoryRepository interface {
	Create(ctx context.Context, category *domain.Category) (*domain.Category, error)
	List(ctx context.Context) ([]domain.Category, error)
	GetByID(ctx context.Context, id int64) (*domain.Category, error)
	Update(ctx context.Context, category *domain.Category) (*domain.Category, error)
	Delete(ctx context.Context, id int64) error
}

type SupplierRepository interface {
	Create(ctx context.Context, supplier *domain.Supplier) (*domain.Supplier, error)
	List(ctx context.Context) ([]domain.Supplier, error)
	GetByID(ctx context.Context, id int64) (*domain.Supplier, error)
	Update(ctx context.Context, supplier *domain.Supplier) (*domain.Supplier, error)
	Delete(ctx context.Context, id int64) error
}

type ProductRepository interface {
	Create(ctx context.Context, product *domain.Product) (*domain.Product, error)
	// List возвращает неархивные товары с категорией и поставщиком.
	List(ctx context.Context) ([]domain.Product, error)
	GetByID(ctx context.Context, id int64) (*domain.Product, error)
	Update(ctx context.Context, product *domain.Product) (*domain.Product, error)
	Archive(ctx context.Context, id int64) error
	IDsByCategory(ctx context.Context, categoryID int64) ([]int64, error)
	IDsBySupplier(ctx context.Context, supplierID int64) ([]int64, error)

	// LockForSale блокирует строки неархивных товаров до конца транзакции, по возрастанию id.
	LockForSale(ctx context.Context, ids []int64) ([]domain.Product, error)
	GetStock(ctx context.Context, id int64) (int64, error)
	// LockStock блокирует строку товара до конца транзакции и возвращает остаток.
	LockStock(ctx context.Context, id int64) (int64, error)
	// AdjustStock атомарно прибавляет delta, только если остаток не станет отрицательным.
	// applied = false, если условие не выполнилось или товара нет.
	AdjustStock(ctx context.Context, id int64, delta int64) (quantity int64, applied bool, err error)
}

type SaleRepository interface {
	// Create сохраняет заголовок и строки продажи, возвращает их с присвоенными id.
	Create(ctx context.Context, sale *domain.Sale) (*domain.Sale, error)
	GetByIdempotencyKey(ctx context.Context, key string) (*domain.Sale, bool, error)
	GetByID(ctx context.Context, id int64) (*domain.Sale, error)
	// ListWithItems возвращает все продажи со строками и товарами (включая архивные), id по убыванию.
	ListWithItems(ctx context.Context) ([]domain.Sale, error)
}

type OutboxRepository interface {
	Create(ctx context.Context, event *OutboxEvent) (*OutboxEvent, error)
	GetAndMarkAsProcessing(ctx context.Context, limit int) ([]*OutboxEvent, error)
	MarkAsProcessed(ctx context.Context, id int64) error
	ReleaseToPending(ctx context.Context, id int64) error
	// ResetStale возвращает в очередь события, зависшие в processing дольше olderThan.
	ResetStale(ctx context.Context, olderThan time.Duration) (int64, error)
}
