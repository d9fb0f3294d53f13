package persistence

import (
	"context"
	"fmt"
	"strings"

	"github.com/ChenZongYanLive/OrderManagementSystem/internal/domain/order"
	"github.com/ChenZongYanLive/OrderManagementSystem/internal/domain/shared"
	"github.com/ChenZongYanLive/OrderManagementSystem/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormOrderRepository implements order.Repository using GORM
type GormOrderRepository struct {
	db *gorm.DB
}

// NewGormOrderRepository creates a new GormOrderRepository
func NewGormOrderRepository(db *gorm.DB) *GormOrderRepository {
	return &GormOrderRepository{db: db}
}

// CreateWithItems inserts the order row and its items in one transaction.
func (r *GormOrderRepository) CreateWithItems(ctx context.Context, o *order.Order) error {
	model := models.OrderModelFromDomain(o)
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Create(model).Error; err != nil {
			return err
		}
		if len(model.Items) == 0 {
			return nil
		}
		return tx.Create(&model.Items).Error
	})
	return translateError(err, fmt.Sprintf("order number %q already exists", o.OrderNumber))
}

// FindByID finds an order with its items
func (r *GormOrderRepository) FindByID(ctx context.Context, id uuid.UUID) (*order.Order, error) {
	var model models.OrderModel
	if err := r.db.WithContext(ctx).
		Preload("Items", orderItemsByLine).
		Where("id = ?", id).
		First(&model).Error; err != nil {
		return nil, translateError(err, "")
	}
	return model.ToDomain(), nil
}

// FindAll returns a page of orders with their items and the total count
func (r *GormOrderRepository) FindAll(ctx context.Context, filter order.Filter) ([]*order.Order, int64, error) {
	page := filter.PageRequest.Normalize()

	query := r.db.WithContext(ctx).Model(&models.OrderModel{})
	query = r.applyFilter(query, filter)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, translateError(err, "")
	}

	var orderModels []models.OrderModel
	if err := query.
		Preload("Items", orderItemsByLine).
		Order(orderByClause(filter.SortBy, filter.SortOrder, OrderSortFields, "created_at")).
		Offset(page.Offset()).
		Limit(page.PageSize).
		Find(&orderModels).Error; err != nil {
		return nil, 0, translateError(err, "")
	}

	orders := make([]*order.Order, len(orderModels))
	for i := range orderModels {
		orders[i] = orderModels[i].ToDomain()
	}
	return orders, total, nil
}

// Update writes the mutable order-level columns
func (r *GormOrderRepository) Update(ctx context.Context, o *order.Order) error {
	result := r.db.WithContext(ctx).
		Model(&models.OrderModel{}).
		Where("id = ?", o.ID).
		Updates(map[string]any{
			"customer_name":    o.CustomerName,
			"customer_email":   o.CustomerEmail,
			"customer_phone":   o.CustomerPhone,
			"customer_address": o.CustomerAddress,
			"status":           string(o.Status),
			"notes":            o.Notes,
			"updated_at":       o.UpdatedAt,
		})
	if result.Error != nil {
		return translateError(result.Error, "")
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// Delete removes an order and its items
func (r *GormOrderRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("order_id = ?", id).Delete(&models.OrderItemModel{}).Error; err != nil {
			return translateError(err, "")
		}
		result := tx.Where("id = ?", id).Delete(&models.OrderModel{})
		if result.Error != nil {
			return translateError(result.Error, "")
		}
		if result.RowsAffected == 0 {
			return shared.ErrNotFound
		}
		return nil
	})
}

type statusAggregate struct {
	Status  string
	Count   int64
	Revenue decimal.Decimal
}

// Statistics counts orders per status and sums revenue over non-cancelled orders
func (r *GormOrderRepository) Statistics(ctx context.Context) (*order.Statistics, error) {
	var rows []statusAggregate
	if err := r.db.WithContext(ctx).
		Model(&models.OrderModel{}).
		Select("status, COUNT(*) AS count, COALESCE(SUM(total_amount), 0) AS revenue").
		Group("status").
		Scan(&rows).Error; err != nil {
		return nil, translateError(err, "")
	}

	stats := &order.Statistics{
		ByStatus:     make(map[order.Status]int64, len(order.AllStatuses)),
		TotalRevenue: decimal.Zero,
	}
	for _, s := range order.AllStatuses {
		stats.ByStatus[s] = 0
	}
	for _, row := range rows {
		status := order.Status(row.Status)
		stats.ByStatus[status] += row.Count
		stats.TotalOrders += row.Count
		if status != order.StatusCancelled {
			stats.TotalRevenue = stats.TotalRevenue.Add(row.Revenue)
		}
	}
	return stats, nil
}

func (r *GormOrderRepository) applyFilter(query *gorm.DB, filter order.Filter) *gorm.DB {
	if filter.Status != nil {
		query = query.Where("status = ?", string(*filter.Status))
	}
	if search := strings.TrimSpace(filter.Search); search != "" {
		pattern := "%" + strings.ToLower(escapeLike(search)) + "%"
		query = query.Where("(LOWER(order_number) LIKE ? ESCAPE '\\' OR LOWER(customer_name) LIKE ? ESCAPE '\\')", pattern, pattern)
	}
	return query
}

func orderItemsByLine(db *gorm.DB) *gorm.DB {
	return db.Order("line_no ASC")
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}

// Compile-time interface compliance check
var _ order.Repository = (*GormOrderRepository)(nil)
