package importapp

import (
	"time"

	"github.com/ChenZongYanLive/OrderManagementSystem/internal/domain/mapping"
	"github.com/ChenZongYanLive/OrderManagementSystem/internal/domain/order"
	"github.com/shopspring/decimal"
)

// draftFromRecord builds the order input of one canonical record. Values are
// expected in their coerced types; anything else is treated as absent and
// left to order validation.
func draftFromRecord(rec mapping.CanonicalRecord, batchID string) order.Draft {
	attrs := rec.Order
	d := order.Draft{
		OrderNumber:     attrs.String(mapping.FieldOrderNumber),
		CustomerName:    attrs.String(mapping.FieldCustomerName),
		CustomerEmail:   attrs.String(mapping.FieldCustomerEmail),
		CustomerPhone:   attrs.String(mapping.FieldCustomerPhone),
		CustomerAddress: attrs.String(mapping.FieldCustomerAddress),
		Status:          attrs.String(mapping.FieldStatus),
		Currency:        attrs.String(mapping.FieldCurrency),
		Notes:           attrs.String(mapping.FieldNotes),
		Source:          order.SourceImport,
		ImportBatchID:   batchID,
	}
	if ts, ok := attrs[mapping.FieldOrderDate].(time.Time); ok {
		d.OrderDate = &ts
	}
	// A supplied zero total is kept; only an absent one is computed.
	if total, ok := attrs[mapping.FieldTotalAmount].(decimal.Decimal); ok {
		d.TotalAmount = &total
	}

	d.Items = make([]order.ItemDraft, 0, len(rec.Items))
	for _, item := range rec.Items {
		d.Items = append(d.Items, itemDraft(item))
	}
	return d
}

func itemDraft(attrs mapping.Attributes) order.ItemDraft {
	it := order.ItemDraft{
		ProductName: attrs.String(mapping.FieldProductName),
		ProductSKU:  attrs.String(mapping.FieldProductSKU),
	}
	if qty, ok := attrs[mapping.FieldQuantity].(int64); ok {
		it.Quantity = qty
	}
	if price, ok := attrs[mapping.FieldUnitPrice].(decimal.Decimal); ok {
		it.UnitPrice = price
	}
	if sub, ok := attrs[mapping.FieldSubtotal].(decimal.Decimal); ok {
		it.Subtotal = &sub
	}
	return it
}
