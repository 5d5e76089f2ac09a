package converter

import (
	"github.com/DRSN-tech/pos-backend/internal/domain"
	"github.com/DRSN-tech/pos-backend/internal/usecase"
	"github.com/shopspring/decimal"
)

// CategoryConverter преобразует Category между domain и моделью PostgreSQL.
type CategoryConverter struct{}

func (CategoryConverter) ToModel(entity *domain.Category) *CategoryModel {
	return &CategoryModel{
		ID:        entity.ID,
		Name:      entity.Name,
		CreatedAt: entity.CreatedAt,
		UpdatedAt: entity.UpdatedAt,
	}
}

func (CategoryConverter) ToEntity(model *CategoryModel) *domain.Category {
	return &domain.Category{
		ID:        model.ID,
		Name:      model.Name,
		CreatedAt: model.CreatedAt,
		UpdatedAt: model.UpdatedAt,
	}
}

// SupplierConverter преобразует Supplier между domain и моделью PostgreSQL.
type SupplierConverter struct{}

func (SupplierConverter) ToModel(entity *domain.Supplier) *SupplierModel {
	return &SupplierModel{
		ID:        entity.ID,
		Name:      entity.Name,
		Contact:   entity.Contact,
		Address:   entity.Address,
		CreatedAt: entity.CreatedAt,
		UpdatedAt: entity.UpdatedAt,
	}
}

func (SupplierConverter) ToEntity(model *SupplierModel) *domain.Supplier {
	return &domain.Supplier{
		ID:        model.ID,
		Name:      model.Name,
		Contact:   model.Contact,
		Address:   model.Address,
		CreatedAt: model.CreatedAt,
		UpdatedAt: model.UpdatedAt,
	}
}

// ProductConverter преобразует Product между domain и моделью PostgreSQL.
type ProductConverter struct{}

func (ProductConverter) ToModel(entity *domain.Product) *ProductModel {
	return &ProductModel{
		ID:         entity.ID,
		Name:       entity.Name,
		Brand:      entity.Brand,
		CostPrice:  entity.CostPrice,
		SellPrice:  entity.SellPrice,
		Quantity:   entity.Quantity,
		CategoryID: entity.CategoryID,
		SupplierID: entity.SupplierID,
		IsArchived: entity.IsArchived,
		CreatedAt:  entity.CreatedAt,
		UpdatedAt:  entity.UpdatedAt,
	}
}

// ToEntity заполняет Category и Supplier, если join их вернул.
func (ProductConverter) ToEntity(model *ProductModel) *domain.Product {
	product := &domain.Product{
		ID:         model.ID,
		Name:       model.Name,
		Brand:      model.Brand,
		CostPrice:  model.CostPrice,
		SellPrice:  model.SellPrice,
		Quantity:   model.Quantity,
		CategoryID: model.CategoryID,
		SupplierID: model.SupplierID,
		IsArchived: model.IsArchived,
		CreatedAt:  model.CreatedAt,
		UpdatedAt:  model.UpdatedAt,
	}

	if model.CategoryID != nil && model.CategoryName != nil {
		product.Category = &domain.Category{ID: *model.CategoryID, Name: *model.CategoryName}
	}
	if model.SupplierID != nil && model.SupplierName != nil {
		product.Supplier = &domain.Supplier{ID: *model.SupplierID, Name: *model.SupplierName}
	}

	return product
}

// SaleConverter преобразует Sale и SaleItem между domain и моделями PostgreSQL.
type SaleConverter struct{}

func (SaleConverter) ToModel(entity *domain.Sale) *SaleModel {
	return &SaleModel{
		ID:              entity.ID,
		CustomerName:    entity.Customer.Name,
		CustomerPhone:   entity.Customer.Phone,
		CustomerAddress: entity.Customer.Address,
		Subtotal:        entity.Subtotal,
		DiscountAmount:  entity.DiscountAmount,
		TotalAmount:     entity.TotalAmount,
		IdempotencyKey:  entity.IdempotencyKey,
		CommittedAt:     entity.CommittedAt,
	}
}

func (SaleConverter) ToEntity(model *SaleModel) *domain.Sale {
	return &domain.Sale{
		ID: model.ID,
		Customer: domain.Customer{
			Name:    model.CustomerName,
			Phone:   model.CustomerPhone,
			Address: model.CustomerAddress,
		},
		Subtotal:       model.Subtotal,
		DiscountAmount: model.DiscountAmount,
		TotalAmount:    model.TotalAmount,
		IdempotencyKey: model.IdempotencyKey,
		CommittedAt:    model.CommittedAt,
	}
}

func (SaleConverter) ItemToModel(entity *domain.SaleItem) *SaleItemModel {
	model := &SaleItemModel{
		ID:           entity.ID,
		SaleID:       entity.SaleID,
		ProductID:    entity.ProductID,
		SellPrice:    entity.SellPrice,
		UnitDiscount: entity.UnitDiscount,
		NetPrice:     entity.NetPrice,
		QuantitySold: entity.QuantitySold,
		TotalPrice:   entity.TotalPrice,
	}
	if entity.CostPriceAtSale != nil {
		model.CostPriceAtSale = decimal.NewNullDecimal(*entity.CostPriceAtSale)
	}
	return model
}

func (SaleConverter) ItemToEntity(model *SaleItemModel) *domain.SaleItem {
	item := &domain.SaleItem{
		ID:           model.ID,
		SaleID:       model.SaleID,
		ProductID:    model.ProductID,
		SellPrice:    model.SellPrice,
		UnitDiscount: model.UnitDiscount,
		NetPrice:     model.NetPrice,
		QuantitySold: model.QuantitySold,
		TotalPrice:   model.TotalPrice,
	}
	if model.CostPriceAtSale.Valid {
		cost := model.CostPriceAtSale.Decimal
		item.CostPriceAtSale = &cost
	}
	return item
}

// OutboxEventConverter преобразует OutboxEvent между usecase и моделью PostgreSQL.
type OutboxEventConverter struct{}

func (OutboxEventConverter) ToModel(entity *usecase.OutboxEvent) *OutboxEventModel {
	return &OutboxEventModel{
		ID:          entity.ID,
		EventID:     entity.EventID,
		EventType:   string(entity.EventType),
		SaleID:      entity.SaleID,
		Payload:     entity.Payload,
		Status:      string(entity.Status),
		CreatedAt:   entity.CreatedAt,
		ProcessedAt: entity.ProcessedAt,
	}
}

func (OutboxEventConverter) ToEntity(model *OutboxEventModel) *usecase.OutboxEvent {
	return &usecase.OutboxEvent{
		ID:          model.ID,
		EventID:     model.EventID,
		EventType:   usecase.OutboxEventType(model.EventType),
		SaleID:      model.SaleID,
		Payload:     model.Payload,
		Status:      usecase.OutboxStatus(model.Status),
		CreatedAt:   model.CreatedAt,
		ProcessedAt: model.ProcessedAt,
	}
}

func (c OutboxEventConverter) ToArrEntity(models []*OutboxEventModel) []*usecase.OutboxEvent {
	result := make([]*usecase.OutboxEvent, 0, len(models))
	for _, model := range models {
		result = append(result, c.ToEntity(model))
	}
	return result
}
