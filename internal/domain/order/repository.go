package order

import (
	"context"

	"github.com/ChenZongYanLive/OrderManagementSystem/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Filter narrows order listings.
type Filter struct {
	shared.PageRequest
	Status *Status
	// Search matches order number or customer name, case-insensitively.
	Search string
	// SortBy and SortOrder are checked against a whitelist by the repository;
	// unknown values fall back to created_at DESC.
	SortBy    string
	SortOrder string
}

// Statistics summarizes all orders.
type Statistics struct {
	TotalOrders int64            `json:"total_orders"`
	ByStatus    map[Status]int64 `json:"by_status"`
	// TotalRevenue excludes cancelled orders.
	TotalRevenue decimal.Decimal `json:"total_revenue"`
}

// Repository persists orders together with their items.
type Repository interface {
	// CreateWithItems inserts the order and all items in one transaction. A
	// duplicate order number fails with shared.ErrAlreadyExists.
	CreateWithItems(ctx context.Context, o *Order) error
	FindByID(ctx context.Context, id uuid.UUID) (*Order, error)
	// FindAll returns a page of orders, newest first, and the total count.
	FindAll(ctx context.Context, filter Filter) ([]*Order, int64, error)
	// Update saves order-level fields; items are not touched.
	Update(ctx context.Context, o *Order) error
	// Delete removes the order and its items.
	Delete(ctx context.Context, id uuid.UUID) error
	Statistics(ctx context.Context) (*Statistics, error)
}
