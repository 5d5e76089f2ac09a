package usecase

import (
	"fmt"

	"github.com/DRSN-tech/pos-backend/internal/domain"
	"github.com/DRSN-tech/pos-backend/pkg/e"
	"github.com/shopspring/decimal"
)

// totalsTolerance — допустимое расхождение итогов клиента с серверными.
var totalsTolerance = decimal.New(1, -2)

// priceSale собирает продажу из строк чека и заблокированных товаров.
// Все суммы считает сервер; переданные клиентом итоги только сверяются.
func priceSale(req *CommitSaleReq, products map[int64]domain.Product) (*domain.Sale, error) {
	var (
		items    = make([]domain.SaleItem, 0, len(req.Items))
		subtotal = decimal.Zero
		discount = decimal.Zero
	)

	for i, line := range req.Items {
		product := products[line.ProductID]

		unitPrice := product.SellPrice
		if line.SellPrice != nil {
			unitPrice = *line.SellPrice
		}
		if line.UnitDiscount.GreaterThan(unitPrice) {
			return nil, e.NewValidationError(fmt.Sprintf("items[%d].unit_discount", i), "must not exceed sell_price")
		}

		item := domain.NewSaleItem(line.ProductID, unitPrice, line.UnitDiscount, line.QuantitySold, product.CostPrice)

		if err := checkTotal(fmt.Sprintf("items[%d].net_price", i), item.NetPrice, line.NetPrice); err != nil {
			return nil, err
		}
		if err := checkTotal(fmt.Sprintf("items[%d].total_price", i), item.TotalPrice, line.TotalPrice); err != nil {
			return nil, err
		}

		qty := decimal.NewFromInt(line.QuantitySold)
		subtotal = subtotal.Add(unitPrice.Mul(qty))
		discount = discount.Add(line.UnitDiscount.Mul(qty))

		p := product
		item.Product = &p
		items = append(items, item)
	}

	subtotal = subtotal.Round(2)
	discount = discount.Round(2)
	total := subtotal.Sub(discount)

	if req.Totals != nil {
		if err := checkTotal("subtotal", subtotal, req.Totals.Subtotal); err != nil {
			return nil, err
		}
		if err := checkTotal("discount_amount", discount, req.Totals.DiscountAmount); err != nil {
			return nil, err
		}
		if err := checkTotal("total_amount", total, req.Totals.TotalAmount); err != nil {
			return nil, err
		}
	}

	return &domain.Sale{
		Customer:       req.Customer,
		Subtotal:       subtotal,
		DiscountAmount: discount,
		TotalAmount:    total,
		Items:          items,
	}, nil
}

func checkTotal(field string, expected decimal.Decimal, got *decimal.Decimal) error {
	if got == nil {
		return nil
	}
	if got.Sub(expected).Abs().GreaterThan(totalsTolerance) {
		return &e.InconsistentTotalsError{Field: field, Expected: expected, Got: *got}
	}
	return nil
}

// requestedQuantities суммирует количество по товару: повторяющиеся строки одного товара складываются.
func requestedQuantities(items []CommitSaleItemReq) (map[int64]int64, []int64) {
	requested := make(map[int64]int64, len(items))
	ids := make([]int64, 0, len(items))
	for _, item := range items {
		if _, ok := requested[item.ProductID]; !ok {
			ids = append(ids, item.ProductID)
		}
		requested[item.ProductID] += item.QuantitySold
	}
	return requested, ids
}
