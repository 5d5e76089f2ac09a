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

const supplierColumns = `id, name, contact, address, created_at, updated_at`

// SupplierRepo реализует репозиторий поставщиков поверх PostgreSQL.
type SupplierRepo struct {
	pool *pgxpool.Pool
	conv converter.SupplierConverter
}

func NewSupplierRepo(pool *pgxpool.Pool, conv converter.SupplierConverter) *SupplierRepo {
	return &SupplierRepo{pool: pool, conv: conv}
}

func (s *SupplierRepo) Create(ctx context.Context, supplier *domain.Supplier) (*domain.Supplier, error) {
	model := s.conv.ToModel(supplier)
	query := `
		INSERT INTO suppliers (name, contact, address) VALUES ($1, $2, $3)
		RETURNING ` + supplierColumns

	created, err := s.scan(tr.Conn(ctx, s.pool).QueryRow(ctx, query, model.Name, model.Contact, model.Address))
	if err != nil {
		return nil, constraintErr(whereami.WhereAmI(), err, "")
	}

	return s.conv.ToEntity(created), nil
}

func (s *SupplierRepo) List(ctx context.Context) ([]domain.Supplier, error) {
	query := `SELECT ` + supplierColumns + ` FROM suppliers ORDER BY id DESC`

	rows, err := tr.Conn(ctx, s.pool).Query(ctx, query)
	if err != nil {
		return nil, storeErr(whereami.WhereAmI(), err)
	}
	defer rows.Close()

	result := make([]domain.Supplier, 0)
	for rows.Next() {
		model, err := s.scan(rows)
		if err != nil {
			return nil, storeErr(whereami.WhereAmI(), err)
		}
		result = append(result, *s.conv.ToEntity(model))
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr(whereami.WhereAmI(), err)
	}

	return result, nil
}

func (s *SupplierRepo) GetByID(ctx context.Context, id int64) (*domain.Supplier, error) {
	query := `SELECT ` + supplierColumns + ` FROM suppliers WHERE id = $1`

	model, err := s.scan(tr.Conn(ctx, s.pool).QueryRow(ctx, query, id))
	if err != nil {
		return nil, notFoundOr(whereami.WhereAmI(), err, "supplier", id)
	}

	return s.conv.ToEntity(model), nil
}

func (s *SupplierRepo) Update(ctx context.Context, supplier *domain.Supplier) (*domain.Supplier, error) {
	model := s.conv.ToModel(supplier)
	query := `
		UPDATE suppliers SET name = $2, contact = $3, address = $4, updated_at = now()
		WHERE id = $1
		RETURNING ` + supplierColumns

	updated, err := s.scan(tr.Conn(ctx, s.pool).QueryRow(ctx, query, model.ID, model.Name, model.Contact, model.Address))
	if err != nil {
		return nil, notFoundOr(whereami.WhereAmI(), err, "supplier", supplier.ID)
	}

	return s.conv.ToEntity(updated), nil
}

// Delete удаляет поставщика; у товаров supplier_id становится NULL.
func (s *SupplierRepo) Delete(ctx context.Context, id int64) error {
	tag, err := tr.Conn(ctx, s.pool).Exec(ctx, `DELETE FROM suppliers WHERE id = $1`, id)
	if err != nil {
		return storeErr(whereami.WhereAmI(), err)
	}
	if tag.RowsAffected() == 0 {
		return e.Wrap(whereami.WhereAmI(), e.NewNotFoundError("supplier", id))
	}

	return nil
}

func (s *SupplierRepo) scan(row pgx.Row) (*converter.SupplierModel, error) {
	var model converter.SupplierModel
	if err := row.Scan(&model.ID, &model.Name, &model.Contact, &model.Address, &model.CreatedAt, &model.UpdatedAt); err != nil {
		return nil, err
	}
	return &model, nil
}
