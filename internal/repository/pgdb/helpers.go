package pgdb

import (
	"errors"
	"fmt"

	"github.com/DRSN-tech/pos-backend/pkg/e"
	"github.com/DRSN-tech/pos-backend/pkg/tr"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

const (
	codeForeignKeyViolation = "23503"
	codeCheckViolation      = "23514"
)

// storeErr помечает ошибку PostgreSQL: конфликты транзакций как ErrTxConflict, остальное как ErrStore.
func storeErr(where string, err error) error {
	if tr.IsConflict(err) {
		return fmt.Errorf("%s: %w: %w", where, e.ErrTxConflict, err)
	}
	return e.WrapStore(where, err)
}

// notFoundOr возвращает NotFoundError, если запрос не нашёл строку.
func notFoundOr(where string, err error, entity string, id int64) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return e.Wrap(where, e.NewNotFoundError(entity, id))
	}
	return storeErr(where, err)
}

// constraintErr превращает нарушения ограничений таблицы в ошибки валидации.
func constraintErr(where string, err error, uniqueField string) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case codeForeignKeyViolation:
			return e.Wrap(where, e.NewValidationError(pgErr.ConstraintName, "references a missing row"))
		case codeCheckViolation:
			return e.Wrap(where, e.NewValidationError(pgErr.ConstraintName, "violates a check constraint"))
		}
	}
	if uniqueField != "" && tr.IsUniqueViolation(err) {
		return e.Wrap(where, e.NewValidationError(uniqueField, "already exists"))
	}
	return storeErr(where, err)
}

// collectIDs читает столбец id из результата запроса.
func collectIDs(rows pgx.Rows) ([]int64, error) {
	return pgx.CollectRows(rows, pgx.RowTo[int64])
}

func isNoRows(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}
