package domain

import "time"

// Supplier описывает поставщика товаров
type Supplier struct {
	ID        int64
	Name      string
	Contact   string
	Address   string
	CreatedAt time.Time
	UpdatedAt *time.Time
}

func NewSupplier(name, contact, address string) *Supplier {
	return &Supplier{
		Name:    name,
		Contact: contact,
		Address: address,
	}
}
