package order

import (
	"regexp"
	"testing"
	"time"

	"github.com/ChenZongYanLive/OrderManagementSystem/internal/domain/shared"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func decPtr(s string) *decimal.Decimal {
	d := dec(s)
	return &d
}

func validDraft() Draft {
	return Draft{
		CustomerName: "Alice",
		Items: []ItemDraft{
			{ProductName: "Tea", Quantity: 3, UnitPrice: dec("250")},
			{ProductName: "Cup", Quantity: 1, UnitPrice: dec("100"), Subtotal: decPtr("750")},
		},
	}
}

func TestNew_Defaults(t *testing.T) {
	o, err := New(validDraft())
	require.NoError(t, err)

	assert.Regexp(t, regexp.MustCompile(`^ORD-\d+-[0-9a-z]{9}$`), o.OrderNumber)
	assert.Equal(t, StatusPending, o.Status)
	assert.Equal(t, DefaultCurrency, o.Currency)
	assert.Equal(t, SourceManual, o.Source)
	assert.False(t, o.OrderDate.IsZero())
	assert.Empty(t, o.GetDomainEvents())
	require.Len(t, o.Items, 2)
	for _, it := range o.Items {
		assert.Equal(t, o.ID, it.OrderID)
	}
}

func TestNew_TotalComputedFromSubtotals(t *testing.T) {
	o, err := New(validDraft())
	require.NoError(t, err)

	assert.True(t, o.Items[0].Subtotal.Equal(dec("750")))
	assert.True(t, o.Items[1].Subtotal.Equal(dec("750")))
	assert.True(t, o.TotalAmount.Equal(dec("1500")), "got %s", o.TotalAmount)
}

func TestNew_SuppliedZeroTotalIsKept(t *testing.T) {
	d := validDraft()
	d.TotalAmount = decPtr("0")

	o, err := New(d)
	require.NoError(t, err)
	assert.True(t, o.TotalAmount.IsZero())
}

func TestNew_Validation(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Draft)
		wantMsg string
	}{
		{"missing customer", func(d *Draft) { d.CustomerName = "  " }, "customer_name is required"},
		{"long customer", func(d *Draft) {
			b := make([]rune, 256)
			for i := range b {
				b[i] = '名'
			}
			d.CustomerName = string(b)
		}, "at most 255"},
		{"bad email", func(d *Draft) { d.CustomerEmail = "not-an-email" }, "customer_email must be a valid email address"},
		{"long phone", func(d *Draft) { d.CustomerPhone = "012345678901234567890123456789012345678901234567890" }, "customer_phone"},
		{"bad status", func(d *Draft) { d.Status = "shipped" }, `invalid status "shipped"`},
		{"no items", func(d *Draft) { d.Items = nil }, "at least one item is required"},
		{"negative quantity", func(d *Draft) { d.Items[0].Quantity = -1 }, "item 1: quantity must be greater than 0"},
		{"zero quantity", func(d *Draft) { d.Items[1].Quantity = 0 }, "item 2: quantity must be greater than 0"},
		{"negative price", func(d *Draft) { d.Items[0].UnitPrice = dec("-1") }, "item 1: unit_price must not be negative"},
		{"missing product", func(d *Draft) { d.Items[0].ProductName = "" }, "item 1: product_name is required"},
		{"negative total", func(d *Draft) { d.TotalAmount = decPtr("-5") }, "total_amount must not be negative"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := validDraft()
			tt.mutate(&d)

			o, err := New(d)
			require.Error(t, err)
			assert.Nil(t, o)
			assert.Equal(t, shared.CodeValidation, shared.ErrorCode(err))
			assert.Contains(t, err.Error(), tt.wantMsg)
		})
	}
}

func TestNew_ImportedOrderRaisesEvent(t *testing.T) {
	d := validDraft()
	d.Source = SourceImport
	d.ImportBatchID = "batch-1"
	date := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)
	d.OrderDate = &date
	d.Status = "Completed"

	o, err := New(d)
	require.NoError(t, err)
	assert.Equal(t, date, o.OrderDate)
	assert.Equal(t, StatusCompleted, o.Status)

	events := o.GetDomainEvents()
	require.Len(t, events, 1)
	ev, ok := events[0].(*OrderImportedEvent)
	require.True(t, ok)
	assert.Equal(t, EventTypeOrderImported, ev.EventType())
	assert.Equal(t, "batch-1", ev.PartitionKey())
	assert.Equal(t, 2, ev.ItemCount)
}

func TestOrder_Update(t *testing.T) {
	o, err := New(validDraft())
	require.NoError(t, err)

	status := "processing"
	notes := "call first"
	require.NoError(t, o.Update(Patch{Status: &status, Notes: &notes}))
	assert.Equal(t, StatusProcessing, o.Status)
	assert.Equal(t, "call first", o.Notes)
	assert.Equal(t, "Alice", o.CustomerName)

	bad := "nobody@"
	err = o.Update(Patch{CustomerEmail: &bad})
	require.Error(t, err)
	assert.Equal(t, "", o.CustomerEmail, "failed update leaves the order unchanged")
}
