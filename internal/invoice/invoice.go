// Package invoice формирует текст чека и ссылку для отправки его покупателю в мессенджере.
package invoice

import (
	"fmt"
	"net/url"
	"strings"
	"time"
	"unicode"

	"github.com/DRSN-tech/pos-backend/internal/domain"
	"github.com/DRSN-tech/pos-backend/pkg/e"
	"github.com/shopspring/decimal"
)

const (
	shareBaseURL   = "https://wa.me/"
	localPhoneLen  = 10
	dateLayout     = "02.01.2006"
	defaultCountry = "91"
)

// Builder собирает сообщение с чеком. Безопасен для конкурентного использования.
type Builder struct {
	shopName    string
	countryCode string
	currency    string
	loc         *time.Location
}

// Link — готовая ссылка вместе с нормализованным номером и текстом сообщения.
type Link struct {
	Phone   string
	Message string
	URL     string
}

func NewBuilder(shopName, countryCode, currency string, loc *time.Location) *Builder {
	if countryCode == "" {
		countryCode = defaultCountry
	}
	if loc == nil {
		loc = time.UTC
	}

	return &Builder{
		shopName:    shopName,
		countryCode: countryCode,
		currency:    currency,
		loc:         loc,
	}
}

// Message возвращает текст чека.
func (b *Builder) Message(sale *domain.Sale) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "Dear %s,\n", sale.Customer.Name)
	if b.shopName != "" {
		fmt.Fprintf(&sb, "Thank you for shopping with %s.\n", b.shopName)
	} else {
		sb.WriteString("Thank you for shopping with us.\n")
	}
	fmt.Fprintf(&sb, "Date: %s\n\n", sale.CommittedAt.In(b.loc).Format(dateLayout))

	sb.WriteString("Items:\n")
	for i, item := range sale.Items {
		amount := item.SellPrice.Mul(decimal.NewFromInt(item.QuantitySold))
		fmt.Fprintf(&sb, "%d. %s x%d @ %s = %s\n",
			i+1, itemName(item), item.QuantitySold, b.money(item.SellPrice), b.money(amount))
	}

	fmt.Fprintf(&sb, "\nSubTotal: %s\n", b.money(sale.Subtotal))
	fmt.Fprintf(&sb, "Discount: %s\n", b.money(sale.DiscountAmount))
	fmt.Fprintf(&sb, "Total Amount: %s\n\n", b.money(sale.TotalAmount))

	sb.WriteString("Thank you for shopping with us!\n")
	sb.WriteString("For any queries, reply to this message.")

	return sb.String()
}

// ShareLink собирает ссылку вида https://wa.me/<phone>?text=<message>.
func (b *Builder) ShareLink(sale *domain.Sale) (*Link, error) {
	phone, err := NormalizePhone(sale.Customer.Phone, b.countryCode)
	if err != nil {
		return nil, err
	}

	message := b.Message(sale)
	text := strings.ReplaceAll(url.QueryEscape(message), "+", "%20")

	return &Link{
		Phone:   phone,
		Message: message,
		URL:     shareBaseURL + phone + "?text=" + text,
	}, nil
}

// NormalizePhone оставляет в номере только цифры и добавляет код страны к 10-значному номеру без него.
func NormalizePhone(raw, countryCode string) (string, error) {
	digits := strings.Map(func(r rune) rune {
		if unicode.IsDigit(r) {
			return r
		}
		return -1
	}, raw)

	if len(digits) < localPhoneLen {
		return "", e.NewValidationError("customer.phone", "invalid phone number format")
	}
	if len(digits) == localPhoneLen && !strings.HasPrefix(digits, countryCode) {
		digits = countryCode + digits
	}

	return digits, nil
}

func (b *Builder) money(v decimal.Decimal) string {
	return b.currency + v.StringFixed(2)
}

func itemName(item domain.SaleItem) string {
	if item.Product != nil && item.Product.Name != "" {
		return item.Product.Name
	}
	return fmt.Sprintf("Product #%d", item.ProductID)
}
