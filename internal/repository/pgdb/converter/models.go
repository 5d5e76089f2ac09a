package converter

import (
	"time"

	"github.com/shopspring/decimal"
)

// CategoryModel представляет запись таблицы categories в PostgreSQL.
type CategoryModel struct {
	ID        int64      `db:"id"`
	Name      string     `db:"name"`
	CreatedAt time.Time  `db:"created_at"`
	UpdatedAt *time.Time `db:"updated_at"`
}

// SupplierModel представляет запись таблицы suppliers в PostgreSQL.
type SupplierModel struct {
	ID        int64      `db:"id"`
	Name      string     `db:"name"`
	Contact   string     `db:"contact"`
	Address   string     `db:"address"`
	CreatedAt time.Time  `db:"created_at"`
	UpdatedAt *time.Time `db:"updated_at"`
}

// ProductModel представляет запись таблицы products вместе с именами категории и поставщика из join.
type ProductModel struct {
	ID           int64           `db:"id"`
	Name         string          `db:"name"`
	Brand        string          `db:"brand"`
	CostPrice    decimal.Decimal `db:"cost_price"`
	SellPrice    decimal.Decimal `db:"sell_price"`
	Quantity     int64           `db:"quantity"`
	CategoryID   *int64          `db:"category_id"`
	SupplierID   *int64          `db:"supplier_id"`
	IsArchived   bool            `db:"is_archived"`
	CreatedAt    time.Time       `db:"created_at"`
	UpdatedAt    *time.Time      `db:"updated_at"`
	CategoryName *string         `db:"category_name"`
	SupplierName *string         `db:"supplier_name"`
}

// SaleModel представляет запись таблицы sales.
type SaleModel struct {
	ID              int64           `db:"id"`
	CustomerName    string          `db:"customer_name"`
	CustomerPhone   string          `db:"customer_phone"`
	CustomerAddress string          `db:"customer_address"`
	Subtotal        decimal.Decimal `db:"subtotal"`
	DiscountAmount  decimal.Decimal `db:"discount_amount"`
	TotalAmount     decimal.Decimal `db:"total_amount"`
	IdempotencyKey  *string         `db:"idempotency_key"`
	CommittedAt     time.Time       `db:"committed_at"`
}

// SaleItemModel представляет запись таблицы sale_items.
type SaleItemModel struct {
	ID              int64               `db:"id"`
	SaleID          int64               `db:"sale_id"`
	ProductID       int64               `db:"product_id"`
	SellPrice       decimal.Decimal     `db:"sell_price"`
	UnitDiscount    decimal.Decimal     `db:"unit_discount"`
	NetPrice        decimal.Decimal     `db:"net_price"`
	QuantitySold    int64               `db:"quantity_sold"`
	TotalPrice      decimal.Decimal     `db:"total_price"`
	CostPriceAtSale decimal.NullDecimal `db:"cost_price_at_sale"`
}

// OutboxEventModel представляет запись таблицы outbox_events.
type OutboxEventModel struct {
	ID          int64      `db:"id"`
	EventID     string     `db:"event_id"`
	EventType   string     `db:"event_type"`
	SaleID      int64      `db:"sale_id"`
	Payload     []byte     `db:"payload"`
	Status      string     `db:"status"`
	CreatedAt   time.Time  `db:"created_at"`
	ProcessedAt *time.Time `db:"processed_at"`
}
