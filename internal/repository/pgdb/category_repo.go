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

const categoryColumns = `id, name, created_at, updated_at`

// CategoryRepo реализует репозиторий категорий поверх PostgreSQL.
type CategoryRepo struct {
	pool *pgxpool.Pool
	conv converter.CategoryConverter
}

func NewCategoryRepo(pool *pgxpool.Pool, conv converter.CategoryConverter) *CategoryRepo {
	return &CategoryRepo{pool: pool, conv: conv}
}

// Create создаёт категорию. Имя уникально: дубликат возвращается как ошибка валидации.
func (c *CategoryRepo) Create(ctx context.Context, category *domain.Category) (*domain.Category, error) {
	query := `
		INSERT INTO categories (name) VALUES ($1)
		RETURNING ` + categoryColumns

	model, err := c.scan(tr.Conn(ctx, c.pool).QueryRow(ctx, query, category.Name))
	if err != nil {
		return nil, constraintErr(whereami.WhereAmI(), err, "name")
	}

	return c.conv.ToEntity(model), nil
}

func (c *CategoryRepo) List(ctx context.Context) ([]domain.Category, error) {
	query := `SELECT ` + categoryColumns + ` FROM categories ORDER BY id DESC`

	rows, err := tr.Conn(ctx, c.pool).Query(ctx, query)
	if err != nil {
		return nil, storeErr(whereami.WhereAmI(), err)
	}
	defer rows.Close()

	result := make([]domain.Category, 0)
	for rows.Next() {
		model, err := c.scan(rows)
		if err != nil {
			return nil, storeErr(whereami.WhereAmI(), err)
		}
		result = append(result, *c.conv.ToEntity(model))
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr(whereami.WhereAmI(), err)
	}

	return result, nil
}

func (c *CategoryRepo) GetByID(ctx context.Context, id int64) (*domain.Category, error) {
	query := `SELECT ` + categoryColumns + ` FROM categories WHERE id = $1`

	model, err := c.scan(tr.Conn(ctx, c.pool).QueryRow(ctx, query, id))
	if err != nil {
		return nil, notFoundOr(whereami.WhereAmI(), err, "category", id)
	}

	return c.conv.ToEntity(model), nil
}

func (c *CategoryRepo) Update(ctx context.Context, category *domain.Category) (*domain.Category, error) {
	query := `
		UPDATE categories SET name = $2, updated_at = now()
		WHERE id = $1
		RETURNING ` + categoryColumns

	model, err := c.scan(tr.Conn(ctx, c.pool).QueryRow(ctx, query, category.ID, category.Name))
	if err != nil {
		if isNoRows(err) {
			return nil, e.Wrap(whereami.WhereAmI(), e.NewNotFoundError("category", category.ID))
		}
		return nil, constraintErr(whereami.WhereAmI(), err, "name")
	}

	return c.conv.ToEntity(model), nil
}

// Delete удаляет категорию; у товаров category_id становится NULL.
func (c *CategoryRepo) Delete(ctx context.Context, id int64) error {
	tag, err := tr.Conn(ctx, c.pool).Exec(ctx, `DELETE FROM categories WHERE id = $1`, id)
	if err != nil {
		return storeErr(whereami.WhereAmI(), err)
	}
	if tag.RowsAffected() == 0 {
		return e.Wrap(whereami.WhereAmI(), e.NewNotFoundError("category", id))
	}

	return nil
}

func (c *CategoryRepo) scan(row pgx.Row) (*converter.CategoryModel, error) {
	var model converter.CategoryModel
	if err := row.Scan(&model.ID, &model.Name, &model.CreatedAt, &model.UpdatedAt); err != nil {
		return nil, err
	}
	return &model, nil
}
