package persistence

import (
	"context"
	"fmt"

	"github.com/ChenZongYanLive/OrderManagementSystem/internal/domain/bulk"
	"github.com/ChenZongYanLive/OrderManagementSystem/internal/domain/shared"
	"github.com/ChenZongYanLive/OrderManagementSystem/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormImportLogRepository implements bulk.ImportLogRepository using GORM
type GormImportLogRepository struct {
	db *gorm.DB
}

// NewGormImportLogRepository creates a new GormImportLogRepository
func NewGormImportLogRepository(db *gorm.DB) *GormImportLogRepository {
	return &GormImportLogRepository{db: db}
}

// Create inserts a new import log
func (r *GormImportLogRepository) Create(ctx context.Context, log *bulk.ImportLog) error {
	model := models.ImportLogModelFromDomain(log)
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		return translateError(err, fmt.Sprintf("import batch %q already exists", log.BatchID))
	}
	return nil
}

// Update writes the counters, status, error details and completion time of a batch
func (r *GormImportLogRepository) Update(ctx context.Context, log *bulk.ImportLog) error {
	model := models.ImportLogModelFromDomain(log)
	result := r.db.WithContext(ctx).
		Model(&models.ImportLogModel{}).
		Where("batch_id = ?", log.BatchID).
		Updates(map[string]any{
			"total_records": model.TotalRecords,
			"success_count": model.SuccessCount,
			"error_count":   model.ErrorCount,
			"status":        model.Status,
			"error_details": model.ErrorDetails,
			"completed_at":  model.CompletedAt,
			"updated_at":    model.UpdatedAt,
		})
	if result.Error != nil {
		return translateError(result.Error, "")
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// FindByBatchID finds an import log by its batch id
func (r *GormImportLogRepository) FindByBatchID(ctx context.Context, batchID string) (*bulk.ImportLog, error) {
	var model models.ImportLogModel
	if err := r.db.WithContext(ctx).Where("batch_id = ?", batchID).First(&model).Error; err != nil {
		return nil, translateError(err, "")
	}
	return model.ToDomain(), nil
}

// FindAll returns a page of import logs, most recent first
func (r *GormImportLogRepository) FindAll(ctx context.Context, page shared.PageRequest) ([]*bulk.ImportLog, int64, error) {
	page = page.Normalize()
	query := r.db.WithContext(ctx).Model(&models.ImportLogModel{})

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, translateError(err, "")
	}

	var logModels []models.ImportLogModel
	if err := query.
		Order("created_at DESC, id DESC").
		Offset(page.Offset()).
		Limit(page.PageSize).
		Find(&logModels).Error; err != nil {
		return nil, 0, translateError(err, "")
	}

	logs := make([]*bulk.ImportLog, len(logModels))
	for i := range logModels {
		logs[i] = logModels[i].ToDomain()
	}
	return logs, total, nil
}

// Compile-time interface compliance check
var _ bulk.ImportLogRepository = (*GormImportLogRepository)(nil)
