package pgdb

import (
	"context"

	"github.com/DRSN-tech/pos-backend/internal/domain"
	"github.com/DRSN-tech/pos-backend/internal/repository/pgdb/converter"
	"github.com/DRSN-tech/pos-backend/pkg/e"
	"github.com/DRSN-tech/pos-backend/pkg/tr"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jimlawless/whereami"
)

const (
	productColumns = `
		p.id, p.name, p.brand, p.cost_price, p.sell_price, p.quantity,
		p.category_id, p.supplier_id, p.is_archived, p.created_at, p.updated_at,
		c.name, s.name`
	productFrom = `
		FROM products p
		LEFT JOIN categories c ON c.id = p.category_id
		LEFT JOIN suppliers s ON s.id = p.supplier_id`
)

// ProductRepo реализует репозиторий товаров поверх PostgreSQL.
type ProductRepo struct {
	pool *pgxpool.Pool
	conv converter.ProductConverter
}

func NewProductRepo(pool *pgxpool.Pool, conv converter.ProductConverter) *ProductRepo {
	return &ProductRepo{
		pool: pool,
		conv: conv,
	}
}

func (p *ProductRepo) Create(ctx context.Context, product *domain.Product) (*domain.Product, error) {
	model := p.conv.ToModel(product)

	// VALUES ($1..$7) name, brand, cost_price, sell_price, quantity, category_id, supplier_id
	query := `
		INSERT INTO products (name, brand, cost_price, sell_price, quantity, category_id, supplier_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id`

	var id int64
	err := tr.Conn(ctx, p.pool).QueryRow(ctx, query,
		model.Name, model.Brand, model.CostPrice, model.SellPrice, model.Quantity, model.CategoryID, model.SupplierID,
	).Scan(&id)
	if err != nil {
		return nil, constraintErr(whereami.WhereAmI(), err, "")
	}

	return p.GetByID(ctx, id)
}

// List возвращает неархивные товары с категорией и поставщиком, новые первыми.
func (p *ProductRepo) List(ctx context.Context) ([]domain.Product, error) {
	query := `SELECT ` + productColumns + productFrom + `
		WHERE NOT p.is_archived
		ORDER BY p.id DESC`

	rows, err := tr.Conn(ctx, p.pool).Query(ctx, query)
	if err != nil {
		return nil, storeErr(whereami.WhereAmI(), err)
	}
	defer rows.Close()

	return p.collect(rows)
}

// GetByID возвращает неархивный товар.
func (p *ProductRepo) GetByID(ctx context.Context, id int64) (*domain.Product, error) {
	query := `SELECT ` + productColumns + productFrom + `
		WHERE p.id = $1 AND NOT p.is_archived`

	model, err := scanProduct(tr.Conn(ctx, p.pool).QueryRow(ctx, query, id))
	if err != nil {
		return nil, notFoundOr(whereami.WhereAmI(), err, "product", id)
	}

	return p.conv.ToEntity(model), nil
}

// Update полностью заменяет поля товара, включая количество (ручная корректировка).
func (p *ProductRepo) Update(ctx context.Context, product *domain.Product) (*domain.Product, error) {
	model := p.conv.ToModel(product)
	query := `
		UPDATE products SET
			name = $2, brand = $3, cost_price = $4, sell_price = $5, quantity = $6,
			category_id = $7, supplier_id = $8, updated_at = now()
		WHERE id = $1 AND NOT is_archived`

	tag, err := tr.Conn(ctx, p.pool).Exec(ctx, query,
		model.ID, model.Name, model.Brand, model.CostPrice, model.SellPrice, model.Quantity, model.CategoryID, model.SupplierID,
	)
	if err != nil {
		return nil, constraintErr(whereami.WhereAmI(), err, "")
	}
	if tag.RowsAffected() == 0 {
		return nil, e.Wrap(whereami.WhereAmI(), e.NewNotFoundError("product", product.ID))
	}

	return p.GetByID(ctx, product.ID)
}

// Archive помечает товар удалённым. Строки прошлых продаж продолжают на него ссылаться.
func (p *ProductRepo) Archive(ctx context.Context, id int64) error {
	query := `UPDATE products SET is_archived = true, updated_at = now() WHERE id = $1 AND NOT is_archived`

	tag, err := tr.Conn(ctx, p.pool).Exec(ctx, query, id)
	if err != nil {
		return storeErr(whereami.WhereAmI(), err)
	}
	if tag.RowsAffected() == 0 {
		return e.Wrap(whereami.WhereAmI(), e.NewNotFoundError("product", id))
	}

	return nil
}

func (p *ProductRepo) IDsByCategory(ctx context.Context, categoryID int64) ([]int64, error) {
	return p.ids(ctx, `SELECT id FROM products WHERE category_id = $1`, categoryID)
}

func (p *ProductRepo) IDsBySupplier(ctx context.Context, supplierID int64) ([]int64, error) {
	return p.ids(ctx, `SELECT id FROM products WHERE supplier_id = $1`, supplierID)
}

// LockForSale блокирует строки товаров до конца транзакции.
// Порядок блокировки по возрастанию id исключает взаимные блокировки между кассами.
func (p *ProductRepo) LockForSale(ctx context.Context, ids []int64) ([]domain.Product, error) {
	query := `
		SELECT p.id, p.name, p.brand, p.cost_price, p.sell_price, p.quantity,
		       p.category_id, p.supplier_id, p.is_archived, p.created_at, p.updated_at,
		       NULL::text, NULL::text
		FROM products p
		WHERE p.id = ANY($1) AND NOT p.is_archived
		ORDER BY p.id
		FOR UPDATE`

	rows, err := tr.Conn(ctx, p.pool).Query(ctx, query, ids)
	if err != nil {
		return nil, storeErr(whereami.WhereAmI(), err)
	}
	defer rows.Close()

	return p.collect(rows)
}

func (p *ProductRepo) GetStock(ctx context.Context, id int64) (int64, error) {
	var qty int64
	err := tr.Conn(ctx, p.pool).
		QueryRow(ctx, `SELECT quantity FROM products WHERE id = $1 AND NOT is_archived`, id).
		Scan(&qty)
	if err != nil {
		return 0, notFoundOr(whereami.WhereAmI(), err, "product", id)
	}

	return qty, nil
}

// LockStock берёт блокировку строки товара (FOR UPDATE) и возвращает остаток,
// который не изменится до конца транзакции.
func (p *ProductRepo) LockStock(ctx context.Context, id int64) (int64, error) {
	var qty int64
	err := tr.Conn(ctx, p.pool).
		QueryRow(ctx, `SELECT quantity FROM products WHERE id = $1 AND NOT is_archived FOR UPDATE`, id).
		Scan(&qty)
	if err != nil {
		return 0, notFoundOr(whereami.WhereAmI(), err, "product", id)
	}

	return qty, nil
}

// AdjustStock меняет остаток одним условным UPDATE, поэтому остаток не уходит в минус
// даже без предварительной блокировки строки.
func (p *ProductRepo) AdjustStock(ctx context.Context, id int64, delta int64) (int64, bool, error) {
	query := `
		UPDATE products SET quantity = quantity + $2, updated_at = now()
		WHERE id = $1 AND NOT is_archived AND quantity + $2 >= 0
		RETURNING quantity`

	var qty int64
	err := tr.Conn(ctx, p.pool).QueryRow(ctx, query, id, delta).Scan(&qty)
	if err != nil {
		if isNoRows(err) {
			return 0, false, nil
		}
		return 0, false, storeErr(whereami.WhereAmI(), err)
	}

	return qty, true, nil
}

func (p *ProductRepo) ids(ctx context.Context, query string, arg int64) ([]int64, error) {
	rows, err := tr.Conn(ctx, p.pool).Query(ctx, query, arg)
	if err != nil {
		return nil, storeErr(whereami.WhereAmI(), err)
	}

	ids, err := collectIDs(rows)
	if err != nil {
		return nil, storeErr(whereami.WhereAmI(), err)
	}

	return ids, nil
}

func (p *ProductRepo) collect(rows pgx.Rows) ([]domain.Product, error) {
	result := make([]domain.Product, 0)
	for rows.Next() {
		model, err := scanProduct(rows)
		if err != nil {
			return nil, storeErr(whereami.WhereAmI(), err)
		}
		result = append(result, *p.conv.ToEntity(model))
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr(whereami.WhereAmI(), err)
	}

	return result, nil
}

func scanProduct(row pgx.Row) (*converter.ProductModel, error) {
	var model converter.ProductModel
	err := row.Scan(
		&model.ID, &model.Name, &model.Brand, &model.CostPrice, &model.SellPrice, &model.Quantity,
		&model.CategoryID, &model.SupplierID, &model.IsArchived, &model.CreatedAt, &model.UpdatedAt,
		&model.CategoryName, &model.SupplierName,
	)
	if err != nil {
		return nil, err
	}
	return &model, nil
}
