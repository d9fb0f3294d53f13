package order

import (
	"github.com/ChenZongYanLive/OrderManagementSystem/internal/domain/shared"
	"github.com/shopspring/decimal"
)

const (
	AggregateType = "Order"

	EventTypeOrderImported = "order.imported"
)

// OrderImportedEvent is raised when an import batch persists an order.
type OrderImportedEvent struct {
	shared.BaseDomainEvent
	OrderNumber   string          `json:"order_number"`
	CustomerName  string          `json:"customer_name"`
	TotalAmount   decimal.Decimal `json:"total_amount"`
	Currency      string          `json:"currency"`
	ItemCount     int             `json:"item_count"`
	ImportBatchID string          `json:"import_batch_id"`
}

// NewOrderImportedEvent builds the event keyed by the order's batch.
func NewOrderImportedEvent(o *Order) *OrderImportedEvent {
	return &OrderImportedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeOrderImported, AggregateType, o.ID, o.ImportBatchID),
		OrderNumber:     o.OrderNumber,
		CustomerName:    o.CustomerName,
		TotalAmount:     o.TotalAmount,
		Currency:        o.Currency,
		ItemCount:       len(o.Items),
		ImportBatchID:   o.ImportBatchID,
	}
}
