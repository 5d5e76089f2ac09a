package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Customer — данные покупателя, указанные на кассе.
type Customer struct {
	Name    string
	Phone   string
	Address string
}

// Sale — заголовок продажи. Создаётся один раз при проведении чека и больше не меняется.
type Sale struct {
	ID             int64
	Customer       Customer
	Subtotal       decimal.Decimal
	DiscountAmount decimal.Decimal
	TotalAmount    decimal.Decimal
	IdempotencyKey *string
	// CommittedAt — единственная каноническая дата продажи, по ней строится аналитика.
	CommittedAt time.Time
	Items       []SaleItem
}

// SaleItem — строка чека. Принадлежит Sale и без неё не существует.
type SaleItem struct {
	ID           int64
	SaleID       int64
	ProductID    int64
	SellPrice    decimal.Decimal
	UnitDiscount decimal.Decimal
	NetPrice     decimal.Decimal
	QuantitySold int64
	TotalPrice   decimal.Decimal
	// CostPriceAtSale — себестоимость на момент продажи. nil у строк, созданных до появления снимка.
	CostPriceAtSale *decimal.Decimal

	// Product заполняется при чтении истории продаж (включая архивные товары)
	Product *Product
}

// NewSaleItem считает net_price = sell_price - unit_discount и total_price = net_price * quantity.
func NewSaleItem(productID int64, sellPrice, unitDiscount decimal.Decimal, quantity int64, costPrice decimal.Decimal) SaleItem {
	net := sellPrice.Sub(unitDiscount)
	cost := costPrice

	return SaleItem{
		ProductID:       productID,
		SellPrice:       sellPrice,
		UnitDiscount:    unitDiscount,
		NetPrice:        net,
		QuantitySold:    quantity,
		TotalPrice:      net.Mul(decimal.NewFromInt(quantity)).Round(2),
		CostPriceAtSale: &cost,
	}
}
