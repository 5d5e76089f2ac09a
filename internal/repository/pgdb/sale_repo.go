package pgdb

import (
	"context"

	"github.com/DRSN-tech/pos-backend/internal/domain"
	"github.com/DRSN-tech/pos-backend/internal/repository/pgdb/converter"
	"github.com/DRSN-tech/pos-backend/pkg/e"
	"github.com/DRSN-tech/pos-backend/pkg/tr"
	trmpgx "github.com/avito-tech/go-transaction-manager/drivers/pgxv5/v2"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jimlawless/whereami"
)

const saleColumns = `
	id, customer_name, customer_phone, customer_address,
	subtotal, discount_amount, total_amount, idempotency_key, committed_at`

// SaleRepo реализует репозиторий продаж поверх PostgreSQL.
type SaleRepo struct {
	pool *pgxpool.Pool
	conv converter.SaleConverter
	prod converter.ProductConverter
}

func NewSaleRepo(pool *pgxpool.Pool, conv converter.SaleConverter, prod converter.ProductConverter) *SaleRepo {
	return &SaleRepo{
		pool: pool,
		conv: conv,
		prod: prod,
	}
}

// Create вставляет заголовок продажи и пакетом все её строки.
// Вызывается внутри транзакции проведения, поэтому частично записанной продажи не бывает.
func (s *SaleRepo) Create(ctx context.Context, sale *domain.Sale) (*domain.Sale, error) {
	conn := tr.Conn(ctx, s.pool)
	model := s.conv.ToModel(sale)

	query := `
		INSERT INTO sales (
			customer_name, customer_phone, customer_address,
			subtotal, discount_amount, total_amount, idempotency_key, committed_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, committed_at`

	err := conn.QueryRow(ctx, query,
		model.CustomerName, model.CustomerPhone, model.CustomerAddress,
		model.Subtotal, model.DiscountAmount, model.TotalAmount, model.IdempotencyKey, model.CommittedAt,
	).Scan(&model.ID, &model.CommittedAt)
	if err != nil {
		return nil, storeErr(whereami.WhereAmI(), err)
	}

	created := s.conv.ToEntity(model)
	created.Items = make([]domain.SaleItem, len(sale.Items))

	itemQuery := `
		INSERT INTO sale_items (
			sale_id, product_id, sell_price, unit_discount, net_price,
			quantity_sold, total_price, cost_price_at_sale
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id`

	batch := &pgx.Batch{}
	for i := range sale.Items {
		item := s.conv.ItemToModel(&sale.Items[i])
		batch.Queue(itemQuery,
			created.ID, item.ProductID, item.SellPrice, item.UnitDiscount, item.NetPrice,
			item.QuantitySold, item.TotalPrice, item.CostPriceAtSale,
		)
	}

	results := conn.SendBatch(ctx, batch)
	for i, item := range sale.Items {
		item.SaleID = created.ID
		if err := results.QueryRow().Scan(&item.ID); err != nil {
			_ = results.Close()
			return nil, storeErr(whereami.WhereAmI(), err)
		}
		created.Items[i] = item
	}
	if err := results.Close(); err != nil {
		return nil, storeErr(whereami.WhereAmI(), err)
	}

	return created, nil
}

func (s *SaleRepo) GetByIdempotencyKey(ctx context.Context, key string) (*domain.Sale, bool, error) {
	query := `SELECT ` + saleColumns + ` FROM sales WHERE idempotency_key = $1`

	sales, err := s.query(ctx, query, key)
	if err != nil {
		return nil, false, e.Wrap(whereami.WhereAmI(), err)
	}
	if len(sales) == 0 {
		return nil, false, nil
	}

	return &sales[0], true, nil
}

func (s *SaleRepo) GetByID(ctx context.Context, id int64) (*domain.Sale, error) {
	query := `SELECT ` + saleColumns + ` FROM sales WHERE id = $1`

	sales, err := s.query(ctx, query, id)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}
	if len(sales) == 0 {
		return nil, e.Wrap(whereami.WhereAmI(), e.NewNotFoundError("sale", id))
	}

	return &sales[0], nil
}

// ListWithItems возвращает всю историю продаж, новые первыми.
func (s *SaleRepo) ListWithItems(ctx context.Context) ([]domain.Sale, error) {
	query := `SELECT ` + saleColumns + ` FROM sales ORDER BY id DESC`

	sales, err := s.query(ctx, query)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	return sales, nil
}

// query читает заголовки продаж и одним запросом подгружает их строки.
func (s *SaleRepo) query(ctx context.Context, query string, args ...any) ([]domain.Sale, error) {
	conn := tr.Conn(ctx, s.pool)

	rows, err := conn.Query(ctx, query, args...)
	if err != nil {
		return nil, storeErr(whereami.WhereAmI(), err)
	}

	sales := make([]domain.Sale, 0)
	for rows.Next() {
		var m converter.SaleModel
		if err := rows.Scan(
			&m.ID, &m.CustomerName, &m.CustomerPhone, &m.CustomerAddress,
			&m.Subtotal, &m.DiscountAmount, &m.TotalAmount, &m.IdempotencyKey, &m.CommittedAt,
		); err != nil {
			rows.Close()
			return nil, storeErr(whereami.WhereAmI(), err)
		}
		sales = append(sales, *s.conv.ToEntity(&m))
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, storeErr(whereami.WhereAmI(), err)
	}

	if len(sales) == 0 {
		return sales, nil
	}

	if err := s.attachItems(ctx, conn, sales); err != nil {
		return nil, err
	}

	return sales, nil
}

// attachItems подгружает строки продаж с товарами, включая архивные.
func (s *SaleRepo) attachItems(ctx context.Context, conn trmpgx.Tr, sales []domain.Sale) error {
	ids := make([]int64, len(sales))
	index := make(map[int64]int, len(sales))
	for i, sale := range sales {
		ids[i] = sale.ID
		index[sale.ID] = i
	}

	query := `
		SELECT
			si.id, si.sale_id, si.product_id, si.sell_price, si.unit_discount, si.net_price,
			si.quantity_sold, si.total_price, si.cost_price_at_sale,
			` + productColumns + productFrom + `
		JOIN sale_items si ON si.product_id = p.id
		WHERE si.sale_id = ANY($1)
		ORDER BY si.sale_id, si.id`

	rows, err := conn.Query(ctx, query, ids)
	if err != nil {
		return storeErr(whereami.WhereAmI(), err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			item    converter.SaleItemModel
			product converter.ProductModel
		)
		err := rows.Scan(
			&item.ID, &item.SaleID, &item.ProductID, &item.SellPrice, &item.UnitDiscount, &item.NetPrice,
			&item.QuantitySold, &item.TotalPrice, &item.CostPriceAtSale,
			&product.ID, &product.Name, &product.Brand, &product.CostPrice, &product.SellPrice, &product.Quantity,
			&product.CategoryID, &product.SupplierID, &product.IsArchived, &product.CreatedAt, &product.UpdatedAt,
			&product.CategoryName, &product.SupplierName,
		)
		if err != nil {
			return storeErr(whereami.WhereAmI(), err)
		}

		entity := s.conv.ItemToEntity(&item)
		entity.Product = s.prod.ToEntity(&product)

		i := index[item.SaleID]
		sales[i].Items = append(sales[i].Items, *entity)
	}

	if err := rows.Err(); err != nil {
		return storeErr(whereami.WhereAmI(), err)
	}

	return nil
}
