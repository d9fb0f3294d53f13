package models

import (
	"time"

	"github.com/ChenZongYanLive/OrderManagementSystem/internal/domain/order"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OrderModel is the persistence model for the Order aggregate root.
type OrderModel struct {
	BaseModel
	OrderNumber     string          `gorm:"type:varchar(100);not null;uniqueIndex"`
	CustomerName    string          `gorm:"type:varchar(255);not null"`
	CustomerEmail   string          `gorm:"type:varchar(255)"`
	CustomerPhone   string          `gorm:"type:varchar(50)"`
	CustomerAddress string          `gorm:"type:text"`
	OrderDate       time.Time       `gorm:"not null;index"`
	Status          string          `gorm:"type:varchar(20);not null;default:'pending';index"`
	TotalAmount     decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0"`
	Currency        string          `gorm:"type:varchar(10);not null;default:'TWD'"`
	Notes           string          `gorm:"type:text"`
	Source          string          `gorm:"type:varchar(20);not null;default:'manual'"`
	ImportBatchID   *string         `gorm:"type:varchar(64);index"`

	Items []OrderItemModel `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
}

// TableName returns the table name for GORM
func (OrderModel) TableName() string {
	return "orders"
}

// ToDomain converts the persistence model to a domain Order. Items are
// included only when they were preloaded.
func (m *OrderModel) ToDomain() *order.Order {
	o := &order.Order{
		BaseAggregateRoot: m.aggregateRoot(),
		OrderNumber:       m.OrderNumber,
		CustomerName:      m.CustomerName,
		CustomerEmail:     m.CustomerEmail,
		CustomerPhone:     m.CustomerPhone,
		CustomerAddress:   m.CustomerAddress,
		OrderDate:         m.OrderDate,
		Status:            order.Status(m.Status),
		TotalAmount:       m.TotalAmount,
		Currency:          m.Currency,
		Notes:             m.Notes,
		Source:            order.Source(m.Source),
	}
	if m.ImportBatchID != nil {
		o.ImportBatchID = *m.ImportBatchID
	}
	o.Items = make([]order.Item, 0, len(m.Items))
	for i := range m.Items {
		o.Items = append(o.Items, m.Items[i].ToDomain())
	}
	return o
}

// FromDomain populates the persistence model from a domain Order, items included.
func (m *OrderModel) FromDomain(o *order.Order) {
	m.FromDomainBaseEntity(o.BaseEntity)
	m.OrderNumber = o.OrderNumber
	m.CustomerName = o.CustomerName
	m.CustomerEmail = o.CustomerEmail
	m.CustomerPhone = o.CustomerPhone
	m.CustomerAddress = o.CustomerAddress
	m.OrderDate = o.OrderDate
	m.Status = string(o.Status)
	m.TotalAmount = o.TotalAmount
	m.Currency = o.Currency
	m.Notes = o.Notes
	m.Source = string(o.Source)
	m.ImportBatchID = nil
	if o.ImportBatchID != "" {
		batchID := o.ImportBatchID
		m.ImportBatchID = &batchID
	}
	m.Items = make([]OrderItemModel, 0, len(o.Items))
	for i := range o.Items {
		var im OrderItemModel
		im.FromDomain(&o.Items[i], i+1)
		m.Items = append(m.Items, im)
	}
}

// OrderModelFromDomain creates a new persistence model from a domain Order.
func OrderModelFromDomain(o *order.Order) *OrderModel {
	m := &OrderModel{}
	m.FromDomain(o)
	return m
}

// OrderItemModel is the persistence model for one order line.
type OrderItemModel struct {
	BaseModel
	OrderID     uuid.UUID       `gorm:"type:uuid;not null;index"`
	LineNo      int             `gorm:"not null;default:0"`
	ProductName string          `gorm:"type:varchar(255);not null"`
	ProductSKU  string          `gorm:"column:product_sku;type:varchar(100)"`
	Quantity    int64           `gorm:"not null"`
	UnitPrice   decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	Subtotal    decimal.Decimal `gorm:"type:decimal(12,2);not null"`
}

// TableName returns the table name for GORM
func (OrderItemModel) TableName() string {
	return "order_items"
}

// ToDomain converts the persistence model to a domain Item.
func (m *OrderItemModel) ToDomain() order.Item {
	return order.Item{
		BaseEntity:  m.BaseModel.ToDomain(),
		OrderID:     m.OrderID,
		ProductName: m.ProductName,
		ProductSKU:  m.ProductSKU,
		Quantity:    m.Quantity,
		UnitPrice:   m.UnitPrice,
		Subtotal:    m.Subtotal,
	}
}

// FromDomain populates the persistence model from a domain Item at 1-based line lineNo.
func (m *OrderItemModel) FromDomain(it *order.Item, lineNo int) {
	m.FromDomainBaseEntity(it.BaseEntity)
	m.OrderID = it.OrderID
	m.LineNo = lineNo
	m.ProductName = it.ProductName
	m.ProductSKU = it.ProductSKU
	m.Quantity = it.Quantity
	m.UnitPrice = it.UnitPrice
	m.Subtotal = it.Subtotal
}
