package usecase

import (
	"time"

	"github.com/DRSN-tech/pos-backend/internal/analytics"
	"github.com/DRSN-tech/pos-backend/internal/domain"
	"github.com/shopspring/decimal"
)

// CATALOG USECASE

// CategoryReq — данные для создания или обновления категории.
type CategoryReq struct {
	Name string
}

// SupplierReq — данные для создания или обновления поставщика.
type SupplierReq struct {
	Name    string
	Contact string
	Address string
}

// ProductReq — полный набор полей товара для создания или обновления.
type ProductReq struct {
	Name       string
	Brand      string
	CostPrice  decimal.Decimal
	SellPrice  decimal.Decimal
	Quantity   int64
	CategoryID *int64
	SupplierID *int64
}

// SALE USECASE

// CommitSaleReq — чек, который касса просит провести.
type CommitSaleReq struct {
	Items          []CommitSaleItemReq
	Customer       domain.Customer
	IdempotencyKey string
	// Totals — итоги, посчитанные клиентом. Сервер их не использует, только сверяет.
	Totals *ClientTotals
}

// CommitSaleItemReq — строка чека. Nil-поля клиент может не передавать.
type CommitSaleItemReq struct {
	ProductID    int64
	QuantitySold int64
	SellPrice    *decimal.Decimal // nil = цена из каталога
	UnitDiscount decimal.Decimal
	NetPrice     *decimal.Decimal
	TotalPrice   *decimal.Decimal
}

// ClientTotals — итоги чека с клиента для сверки.
type ClientTotals struct {
	Subtotal       *decimal.Decimal
	DiscountAmount *decimal.Decimal
	TotalAmount    *decimal.Decimal
}

// CommitSaleRes — результат проведения. Replayed = true, если продажа с этим ключом уже была.
type CommitSaleRes struct {
	Sale     *domain.Sale
	Replayed bool
}

// ShareLinkRes — ссылка для отправки чека покупателю в мессенджере.
type ShareLinkRes struct {
	Phone   string
	Message string
	URL     string
}

// ANALYTICS USECASE

// DashboardRes — показатели дашборда. Degraded = true, если историю продаж загрузить не удалось.
type DashboardRes struct {
	analytics.Dashboard
	Degraded bool
}

// StoredReport — отчёт, сохранённый в объектном хранилище.
type StoredReport struct {
	Key       string
	URL       string
	ExpiresAt time.Time
	Size      int64
}

// INFRASTRUCTURE

// OutboxStatus — статус события в outbox.
type OutboxStatus string

const (
	Pending    OutboxStatus = "pending"
	Processing OutboxStatus = "processing"
	Processed  OutboxStatus = "processed"
)

// OutboxEventType — тип события.
type OutboxEventType string

const SaleCommitted OutboxEventType = "sale.committed"

// OutboxEvent — событие, записанное в той же транзакции, что и продажа.
type OutboxEvent struct {
	ID          int64
	EventID     string
	EventType   OutboxEventType
	SaleID      int64
	Payload     []byte
	Status      OutboxStatus
	CreatedAt   time.Time
	ProcessedAt *time.Time
}

// SaleCommittedPayload — тело события sale.committed (JSON).
type SaleCommittedPayload struct {
	EventID     string                     `json:"event_id"`
	SaleID      int64                      `json:"sale_id"`
	CommittedAt time.Time                  `json:"committed_at"`
	TotalAmount decimal.Decimal            `json:"total_amount"`
	Items       []SaleCommittedItemPayload `json:"items"`
}

type SaleCommittedItemPayload struct {
	ProductID    int64           `json:"product_id"`
	QuantitySold int64           `json:"quantity_sold"`
	TotalPrice   decimal.Decimal `json:"total_price"`
}

// WriteRawMessageReq — готовое сообщение для брокера, ключ партиционирования — id продажи.
type WriteRawMessageReq struct {
	SaleID    int64
	EventID   string
	EventType OutboxEventType
	Payload   []byte
}

// MAPPERS

func NewOutboxEvent(eventID string, saleID int64, payload []byte, createdAt time.Time) *OutboxEvent {
	return &OutboxEvent{
		EventID:   eventID,
		EventType: SaleCommitted,
		SaleID:    saleID,
		Payload:   payload,
		Status:    Pending,
		CreatedAt: createdAt,
	}
}

func NewWriteRawMessageReq(event *OutboxEvent) *WriteRawMessageReq {
	return &WriteRawMessageReq{
		SaleID:    event.SaleID,
		EventID:   event.EventID,
		EventType: event.EventType,
		Payload:   event.Payload,
	}
}
