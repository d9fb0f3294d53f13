// Package orderapp implements manual order entry and order queries.
package orderapp

import (
	"context"

	"github.com/ChenZongYanLive/OrderManagementSystem/internal/domain/order"
	"github.com/ChenZongYanLive/OrderManagementSystem/internal/domain/shared"
	"github.com/ChenZongYanLive/OrderManagementSystem/internal/infrastructure/logger"
	"github.com/ChenZongYanLive/OrderManagementSystem/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// OrderService handles order business operations
type OrderService struct {
	repo   order.Repository
	logger *zap.Logger
}

// NewOrderService creates a new OrderService
func NewOrderService(repo order.Repository, logger *zap.Logger) *OrderService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &OrderService{repo: repo, logger: logger}
}

// Create validates and stores a manually entered order with its items
func (s *OrderService) Create(ctx context.Context, req CreateOrderRequest) (*OrderResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "order", "create")
	defer span.End()

	o, err := order.New(toDraft(req))
	if err != nil {
		return nil, err
	}
	if err := s.repo.CreateWithItems(ctx, o); err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	telemetry.SetAttributes(span,
		telemetry.SpanAttrOrderID, o.ID.String(),
		telemetry.SpanAttrOrderNumber, o.OrderNumber,
	)
	logger.WithLogger(ctx, s.logger).Info("Order created",
		zap.String("order_id", o.ID.String()),
		zap.String("order_number", o.OrderNumber),
	)

	resp := ToOrderResponse(o)
	return &resp, nil
}

// GetByID retrieves an order with its items
func (s *OrderService) GetByID(ctx context.Context, id uuid.UUID) (*OrderResponse, error) {
	o, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := ToOrderResponse(o)
	return &resp, nil
}

// List retrieves a page of orders, newest first unless sorted otherwise
func (s *OrderService) List(ctx context.Context, filter OrderListFilter) (shared.Paginated[OrderResponse], error) {
	page := shared.PageRequest{Page: filter.Page, PageSize: filter.PageSize}.Normalize()
	f := order.Filter{
		PageRequest: page,
		Search:      filter.Search,
		SortBy:      filter.SortBy,
		SortOrder:   filter.SortOrder,
	}
	if filter.Status != "" {
		status := order.Status(filter.Status)
		if !status.IsValid() {
			return shared.Paginated[OrderResponse]{}, shared.NewValidationError("invalid status filter: " + filter.Status)
		}
		f.Status = &status
	}

	orders, total, err := s.repo.FindAll(ctx, f)
	if err != nil {
		return shared.Paginated[OrderResponse]{}, err
	}
	return shared.NewPaginated(ToOrderResponses(orders), total, page), nil
}

// Update applies a partial update to the order-level fields
func (s *OrderService) Update(ctx context.Context, id uuid.UUID, req UpdateOrderRequest) (*OrderResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "order", "update",
		telemetry.WithAttribute(telemetry.SpanAttrOrderID, id.String()))
	defer span.End()

	o, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := o.Update(order.Patch{
		CustomerName:    req.CustomerName,
		CustomerEmail:   req.CustomerEmail,
		CustomerPhone:   req.CustomerPhone,
		CustomerAddress: req.CustomerAddress,
		Status:          req.Status,
		Notes:           req.Notes,
	}); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, o); err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	telemetry.SetAttribute(span, telemetry.SpanAttrOrderStatus, string(o.Status))

	resp := ToOrderResponse(o)
	return &resp, nil
}

// Delete removes an order; its items go with it
func (s *OrderService) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	logger.WithLogger(ctx, s.logger).Info("Order deleted", zap.String("order_id", id.String()))
	return nil
}

// Statistics returns order counts per status and the revenue of every
// order that is not cancelled. Statuses without orders report 0.
func (s *OrderService) Statistics(ctx context.Context) (*StatisticsResponse, error) {
	stats, err := s.repo.Statistics(ctx)
	if err != nil {
		return nil, err
	}
	byStatus := make(map[string]int64, len(order.AllStatuses))
	for _, st := range order.AllStatuses {
		byStatus[string(st)] = stats.ByStatus[st]
	}
	return &StatisticsResponse{
		TotalOrders:  stats.TotalOrders,
		ByStatus:     byStatus,
		TotalRevenue: stats.TotalRevenue,
	}, nil
}
