package tr

import (
	"context"
	"errors"

	"github.com/DRSN-tech/pos-backend/pkg/e"

	trmpgx "github.com/avito-tech/go-transaction-manager/drivers/pgxv5/v2"
	"github.com/avito-tech/go-transaction-manager/trm/v2/manager"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Manager открывает транзакцию и кладёт её в контекст.
// Все вызовы репозиториев внутри fn работают в одной транзакции.
type Manager interface {
	Do(ctx context.Context, fn func(ctx context.Context) error) error
}

// NewManager создаёт менеджер транзакций поверх пула PostgreSQL (READ COMMITTED).
func NewManager(pool *pgxpool.Pool) *manager.Manager {
	return manager.Must(trmpgx.NewDefaultFactory(pool))
}

// Conn возвращает транзакцию из контекста, если она открыта, иначе сам пул.
func Conn(ctx context.Context, pool *pgxpool.Pool) trmpgx.Tr {
	return trmpgx.DefaultCtxGetter.DefaultTrOrDB(ctx, pool)
}

// Коды ошибок PostgreSQL, после которых транзакцию можно повторить целиком.
const (
	codeUniqueViolation      = "23505"
	codeSerializationFailure = "40001"
	codeDeadlockDetected     = "40P01"
)

// IsRetryable сообщает, стоит ли повторить транзакцию: конфликт сериализации, дедлок
// или нарушение уникальности (повтор увидит запись конкурента).
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, e.ErrTxConflict) || errors.Is(err, e.ErrAlreadyExists) {
		return true
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case codeUniqueViolation, codeSerializationFailure, codeDeadlockDetected:
			return true
		}
	}

	return false
}

// IsUniqueViolation — нарушение уникального индекса (23505).
func IsUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == codeUniqueViolation
}

// IsConflict — конфликт сериализации или дедлок.
func IsConflict(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && (pgErr.Code == codeSerializationFailure || pgErr.Code == codeDeadlockDetected)
}
