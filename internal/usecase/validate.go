package usecase

import (
	"fmt"
	"strings"

	"github.com/DRSN-tech/pos-backend/pkg/e"
	"github.com/shopspring/decimal"
)

const maxIdempotencyKeyLen = 128

// validateMoney проверяет, что сумма неотрицательна и имеет не больше двух знаков после запятой.
func validateMoney(field string, v decimal.Decimal) error {
	if v.IsNegative() {
		return e.NewValidationError(field, "must be >= 0")
	}
	if !v.Equal(v.Round(2)) {
		return e.NewValidationError(field, e.ErrPricePrecision.Error())
	}
	return nil
}

func validateRequired(field, value string) error {
	if strings.TrimSpace(value) == "" {
		return e.NewValidationError(field, "is required")
	}
	return nil
}

func validateProduct(req *ProductReq) error {
	if err := validateRequired("name", req.Name); err != nil {
		return err
	}
	if err := validateMoney("cost_price", req.CostPrice); err != nil {
		return err
	}
	if err := validateMoney("sell_price", req.SellPrice); err != nil {
		return err
	}
	if req.Quantity < 0 {
		return e.NewValidationError("quantity", "must be >= 0")
	}
	return nil
}

// validateCommit проверяет чек без обращения к хранилищу.
func validateCommit(req *CommitSaleReq) error {
	if len(req.Items) == 0 {
		return e.NewValidationError("items", e.ErrNoItems.Error())
	}

	for i, item := range req.Items {
		field := func(name string) string { return fmt.Sprintf("items[%d].%s", i, name) }

		if item.ProductID <= 0 {
			return e.NewValidationError(field("product_id"), "must be > 0")
		}
		if item.QuantitySold <= 0 {
			return e.NewValidationError(field("quantity_sold"), "must be > 0")
		}
		if err := validateMoney(field("unit_discount"), item.UnitDiscount); err != nil {
			return err
		}
		if item.SellPrice != nil {
			if err := validateMoney(field("sell_price"), *item.SellPrice); err != nil {
				return err
			}
			if item.UnitDiscount.GreaterThan(*item.SellPrice) {
				return e.NewValidationError(field("unit_discount"), "must not exceed sell_price")
			}
		}
	}

	if err := validateRequired("customer.name", req.Customer.Name); err != nil {
		return err
	}
	if err := validateRequired("customer.phone", req.Customer.Phone); err != nil {
		return err
	}
	if len(req.IdempotencyKey) > maxIdempotencyKeyLen {
		return e.NewValidationError("idempotency_key", fmt.Sprintf("must be at most %d characters", maxIdempotencyKeyLen))
	}

	return nil
}
