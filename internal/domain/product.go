package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product описывает товар каталога.
// Quantity меняется только при продаже и через корректировку остатков.
type Product struct {
	ID         int64
	Name       string
	Brand      string
	CostPrice  decimal.Decimal
	SellPrice  decimal.Decimal
	Quantity   int64
	CategoryID *int64
	SupplierID *int64
	CreatedAt  time.Time
	UpdatedAt  *time.Time
	IsArchived bool

	// Заполняются только при чтении с join
	Category *Category
	Supplier *Supplier
}

func NewProduct(name, brand string, costPrice, sellPrice decimal.Decimal, quantity int64, categoryID, supplierID *int64) *Product {
	return &Product{
		Name:       name,
		Brand:      brand,
		CostPrice:  costPrice,
		SellPrice:  sellPrice,
		Quantity:   quantity,
		CategoryID: categoryID,
		SupplierID: supplierID,
	}
}
