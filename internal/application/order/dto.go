package orderapp

import (
	"time"

	"github.com/ChenZongYanLive/OrderManagementSystem/internal/domain/order"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CreateOrderRequest represents a request to enter an order by hand
type CreateOrderRequest struct {
	OrderNumber     string                 `json:"order_number" binding:"max=100"`
	CustomerName    string                 `json:"customer_name" binding:"required,max=255"`
	CustomerEmail   string                 `json:"customer_email" binding:"omitempty,email"`
	CustomerPhone   string                 `json:"customer_phone" binding:"max=50"`
	CustomerAddress string                 `json:"customer_address"`
	OrderDate       *time.Time             `json:"order_date"`
	Status          string                 `json:"status" binding:"omitempty,oneof=pending processing completed cancelled"`
	TotalAmount     *decimal.Decimal       `json:"total_amount"`
	Currency        string                 `json:"currency" binding:"max=10"`
	Notes           string                 `json:"notes"`
	Items           []CreateOrderItemInput `json:"items" binding:"required,min=1,dive"`
}

// CreateOrderItemInput represents an item in the create order request
type CreateOrderItemInput struct {
	ProductName string           `json:"product_name" binding:"required,max=255"`
	ProductSKU  string           `json:"product_sku" binding:"max=100"`
	Quantity    int64            `json:"quantity" binding:"required"`
	UnitPrice   decimal.Decimal  `json:"unit_price"`
	Subtotal    *decimal.Decimal `json:"subtotal"`
}

// UpdateOrderRequest represents a partial update; omitted fields are kept
type UpdateOrderRequest struct {
	CustomerName    *string `json:"customer_name" binding:"omitempty,max=255"`
	CustomerEmail   *string `json:"customer_email"`
	CustomerPhone   *string `json:"customer_phone" binding:"omitempty,max=50"`
	CustomerAddress *string `json:"customer_address"`
	Status          *string `json:"status"`
	Notes           *string `json:"notes"`
}

// OrderListFilter represents filter options for the order list
type OrderListFilter struct {
	Status    string `form:"status" binding:"omitempty,oneof=pending processing completed cancelled"`
	Search    string `form:"search"`
	Page      int    `form:"page" binding:"omitempty,min=1"`
	PageSize  int    `form:"page_size" binding:"omitempty,min=1,max=100"`
	SortBy    string `form:"sort_by"`
	SortOrder string `form:"sort_order" binding:"omitempty,oneof=asc desc ASC DESC"`
}

// OrderItemResponse represents an order item in API responses
type OrderItemResponse struct {
	ID          uuid.UUID       `json:"id"`
	ProductName string          `json:"product_name"`
	ProductSKU  string          `json:"product_sku,omitempty"`
	Quantity    int64           `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	Subtotal    decimal.Decimal `json:"subtotal"`
}

// OrderResponse represents an order in API responses
type OrderResponse struct {
	ID              uuid.UUID           `json:"id"`
	OrderNumber     string              `json:"order_number"`
	CustomerName    string              `json:"customer_name"`
	CustomerEmail   string              `json:"customer_email,omitempty"`
	CustomerPhone   string              `json:"customer_phone,omitempty"`
	CustomerAddress string              `json:"customer_address,omitempty"`
	OrderDate       time.Time           `json:"order_date"`
	Status          string              `json:"status"`
	TotalAmount     decimal.Decimal     `json:"total_amount"`
	Currency        string              `json:"currency"`
	Notes           string              `json:"notes,omitempty"`
	Source          string              `json:"source"`
	ImportBatchID   string              `json:"import_batch_id,omitempty"`
	Items           []OrderItemResponse `json:"items"`
	ItemCount       int                 `json:"item_count"`
	CreatedAt       time.Time           `json:"created_at"`
	UpdatedAt       time.Time           `json:"updated_at"`
}

// StatisticsResponse summarizes all orders
type StatisticsResponse struct {
	TotalOrders  int64            `json:"total_orders"`
	ByStatus     map[string]int64 `json:"by_status"`
	TotalRevenue decimal.Decimal  `json:"total_revenue"`
}

// ToOrderResponse converts a domain order to a response. List results carry
// no items, only the count.
func ToOrderResponse(o *order.Order) OrderResponse {
	items := make([]OrderItemResponse, len(o.Items))
	for i, it := range o.Items {
		items[i] = OrderItemResponse{
			ID:          it.ID,
			ProductName: it.ProductName,
			ProductSKU:  it.ProductSKU,
			Quantity:    it.Quantity,
			UnitPrice:   it.UnitPrice,
			Subtotal:    it.Subtotal,
		}
	}
	return OrderResponse{
		ID:              o.ID,
		OrderNumber:     o.OrderNumber,
		CustomerName:    o.CustomerName,
		CustomerEmail:   o.CustomerEmail,
		CustomerPhone:   o.CustomerPhone,
		CustomerAddress: o.CustomerAddress,
		OrderDate:       o.OrderDate,
		Status:          string(o.Status),
		TotalAmount:     o.TotalAmount,
		Currency:        o.Currency,
		Notes:           o.Notes,
		Source:          string(o.Source),
		ImportBatchID:   o.ImportBatchID,
		Items:           items,
		ItemCount:       len(o.Items),
		CreatedAt:       o.CreatedAt,
		UpdatedAt:       o.UpdatedAt,
	}
}

// ToOrderResponses converts a list of domain orders
func ToOrderResponses(orders []*order.Order) []OrderResponse {
	out := make([]OrderResponse, len(orders))
	for i, o := range orders {
		out[i] = ToOrderResponse(o)
	}
	return out
}

func toDraft(req CreateOrderRequest) order.Draft {
	items := make([]order.ItemDraft, len(req.Items))
	for i, it := range req.Items {
		items[i] = order.ItemDraft{
			ProductName: it.ProductName,
			ProductSKU:  it.ProductSKU,
			Quantity:    it.Quantity,
			UnitPrice:   it.UnitPrice,
			Subtotal:    it.Subtotal,
		}
	}
	return order.Draft{
		OrderNumber:     req.OrderNumber,
		CustomerName:    req.CustomerName,
		CustomerEmail:   req.CustomerEmail,
		CustomerPhone:   req.CustomerPhone,
		CustomerAddress: req.CustomerAddress,
		OrderDate:       req.OrderDate,
		Status:          req.Status,
		TotalAmount:     req.TotalAmount,
		Currency:        req.Currency,
		Notes:           req.Notes,
		Source:          order.SourceManual,
		Items:           items,
	}
}
