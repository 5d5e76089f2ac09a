package e

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

var (
	// Внутренние ошибки с транзакциями
	ErrTransactionNotFound = fmt.Errorf("transaction not found")

	// Ошибки предметной области
	ErrValidation         = fmt.Errorf("validation failed")
	ErrNotFound           = fmt.Errorf("not found")
	ErrInsufficientStock  = fmt.Errorf("insufficient stock")
	ErrInconsistentTotals = fmt.Errorf("inconsistent totals")
	ErrStore              = fmt.Errorf("store failure")
	ErrAlreadyExists      = fmt.Errorf("already exists")
	ErrTxConflict         = fmt.Errorf("transaction conflict")

	// 400 Bad Request
	ErrStatusBadRequest     = fmt.Errorf("bad request")
	ErrInvalidJSON          = fmt.Errorf("invalid json body")
	ErrInvalidID            = fmt.Errorf("invalid id")
	ErrInvalidPrice         = fmt.Errorf("invalid price")
	ErrPricePrecision       = fmt.Errorf("price must have at most 2 decimal places")
	ErrNoItems              = fmt.Errorf("no items provided")
	ErrUnsupportedMediaType = fmt.Errorf("unsupported media type")

	// 500
	ErrInternalServerError = fmt.Errorf("internal server error")

	// Конфигурация
	ErrIncorrectEnvVariable = fmt.Errorf("incorrect environment variable")
)

// Wrap оборачивает ошибку
func Wrap(msg string, err error) error {
	return fmt.Errorf("%s: %w", msg, err)
}

// WrapStore помечает ошибку хранилища как ErrStore, сохраняя исходную причину.
func WrapStore(msg string, err error) error {
	return fmt.Errorf("%s: %w: %w", msg, ErrStore, err)
}

// ValidationError описывает некорректное поле входных данных.
type ValidationError struct {
	Field  string
	Reason string
}

func NewValidationError(field, reason string) *ValidationError {
	return &ValidationError{Field: field, Reason: reason}
}

func (v *ValidationError) Error() string {
	if v.Field == "" {
		return fmt.Sprintf("%s: %s", ErrValidation, v.Reason)
	}
	return fmt.Sprintf("%s: %s: %s", ErrValidation, v.Field, v.Reason)
}

func (v *ValidationError) Unwrap() error { return ErrValidation }

// NotFoundError указывает, какая сущность не найдена.
type NotFoundError struct {
	Entity string
	ID     int64
}

func NewNotFoundError(entity string, id int64) *NotFoundError {
	return &NotFoundError{Entity: entity, ID: id}
}

func (n *NotFoundError) Error() string {
	return fmt.Sprintf("%s %d: %s", n.Entity, n.ID, ErrNotFound)
}

func (n *NotFoundError) Unwrap() error { return ErrNotFound }

// InsufficientStockError сообщает, какого товара не хватает и сколько его осталось.
type InsufficientStockError struct {
	ProductID   int64
	ProductName string
	Requested   int64
	Available   int64
}

func (i *InsufficientStockError) Error() string {
	return fmt.Sprintf("%s for product %d (%s): requested %d, available %d",
		ErrInsufficientStock, i.ProductID, i.ProductName, i.Requested, i.Available)
}

func (i *InsufficientStockError) Unwrap() error { return ErrInsufficientStock }

// InconsistentTotalsError — переданная клиентом сумма не сходится с пересчитанной сервером.
type InconsistentTotalsError struct {
	Field    string
	Expected decimal.Decimal
	Got      decimal.Decimal
}

func (i *InconsistentTotalsError) Error() string {
	return fmt.Sprintf("%s: %s expected %s, got %s",
		ErrInconsistentTotals, i.Field, i.Expected.StringFixed(2), i.Got.StringFixed(2))
}

func (i *InconsistentTotalsError) Unwrap() error { return ErrInconsistentTotals }

// CommitError — ошибка проведения продажи с указанием этапа, на котором она произошла.
type CommitError struct {
	Stage string
	Err   error
}

func (c *CommitError) Error() string {
	return fmt.Sprintf("commit sale failed at %s: %v", c.Stage, c.Err)
}

func (c *CommitError) Unwrap() error { return c.Err }

// AsValidation возвращает ValidationError из цепочки ошибок, если он там есть.
func AsValidation(err error) (*ValidationError, bool) {
	var v *ValidationError
	ok := errors.As(err, &v)
	return v, ok
}

// AsInsufficientStock возвращает InsufficientStockError из цепочки ошибок, если он там есть.
func AsInsufficientStock(err error) (*InsufficientStockError, bool) {
	var i *InsufficientStockError
	ok := errors.As(err, &i)
	return i, ok
}

// AsCommit возвращает CommitError из цепочки ошибок, если он там есть.
func AsCommit(err error) (*CommitError, bool) {
	var c *CommitError
	ok := errors.As(err, &c)
	return c, ok
}
