package persistence

import (
	"context"
	"fmt"
	"time"

	"github.com/ChenZongYanLive/OrderManagementSystem/internal/domain/mapping"
	"github.com/ChenZongYanLive/OrderManagementSystem/internal/domain/shared"
	"github.com/ChenZongYanLive/OrderManagementSystem/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormTemplateRepository implements mapping.TemplateRepository using GORM.
// Default flag changes run in a transaction that clears the other defaults
// of the kind before setting the new one.
type GormTemplateRepository struct {
	db *gorm.DB
}

// NewGormTemplateRepository creates a new GormTemplateRepository
func NewGormTemplateRepository(db *gorm.DB) *GormTemplateRepository {
	return &GormTemplateRepository{db: db}
}

// Create inserts a template, replacing the kind's default when t.IsDefault is set
func (r *GormTemplateRepository) Create(ctx context.Context, t *mapping.MappingTemplate) error {
	var model models.MappingTemplateModel
	if err := model.FromDomain(t); err != nil {
		return shared.NewPersistenceError(err)
	}
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if t.IsDefault {
			if err := clearDefaults(tx, t.Kind, uuid.Nil); err != nil {
				return err
			}
		}
		return tx.Create(&model).Error
	})
	return translateError(err, fmt.Sprintf("template name %q already exists", t.Name))
}

// FindAll lists templates, default first then by name
func (r *GormTemplateRepository) FindAll(ctx context.Context, kind mapping.Kind) ([]*mapping.MappingTemplate, error) {
	query := r.db.WithContext(ctx).Model(&models.MappingTemplateModel{})
	if kind != "" {
		query = query.Where("file_type = ?", string(kind))
	}
	var templateModels []models.MappingTemplateModel
	if err := query.Order("is_default DESC, name ASC").Find(&templateModels).Error; err != nil {
		return nil, translateError(err, "")
	}

	templates := make([]*mapping.MappingTemplate, 0, len(templateModels))
	for i := range templateModels {
		t, err := templateModels[i].ToDomain()
		if err != nil {
			return nil, shared.NewPersistenceError(err)
		}
		templates = append(templates, t)
	}
	return templates, nil
}

// FindByID finds a template by ID
func (r *GormTemplateRepository) FindByID(ctx context.Context, id uuid.UUID) (*mapping.MappingTemplate, error) {
	return r.findOne(ctx, "id = ?", id)
}

// FindByName finds a template by its unique name
func (r *GormTemplateRepository) FindByName(ctx context.Context, name string) (*mapping.MappingTemplate, error) {
	return r.findOne(ctx, "name = ?", name)
}

// FindDefaultByKind finds the default template of a kind
func (r *GormTemplateRepository) FindDefaultByKind(ctx context.Context, kind mapping.Kind) (*mapping.MappingTemplate, error) {
	return r.findOne(ctx, "file_type = ? AND is_default = ?", string(kind), true)
}

// Update saves every column of the template
func (r *GormTemplateRepository) Update(ctx context.Context, t *mapping.MappingTemplate) error {
	var model models.MappingTemplateModel
	if err := model.FromDomain(t); err != nil {
		return shared.NewPersistenceError(err)
	}
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if t.IsDefault {
			if err := clearDefaults(tx, t.Kind, t.ID); err != nil {
				return err
			}
		}
		result := tx.Model(&models.MappingTemplateModel{}).
			Where("id = ?", t.ID).
			Updates(map[string]any{
				"name":           model.Name,
				"description":    model.Description,
				"file_type":      model.FileType,
				"mapping_config": model.MappingConfig,
				"is_default":     model.IsDefault,
				"updated_at":     model.UpdatedAt,
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return shared.ErrNotFound
		}
		return nil
	})
	return translateError(err, fmt.Sprintf("template name %q already exists", t.Name))
}

// Delete deletes a template by ID
func (r *GormTemplateRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.MappingTemplateModel{})
	if result.Error != nil {
		return translateError(result.Error, "")
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// SetDefault makes id the only default template of kind. Nothing changes
// when id is unknown or belongs to another kind.
func (r *GormTemplateRepository) SetDefault(ctx context.Context, id uuid.UUID, kind mapping.Kind) (*mapping.MappingTemplate, error) {
	var model models.MappingTemplateModel
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("id = ?", id).First(&model).Error; err != nil {
			return err
		}
		if model.FileType != string(kind) {
			return shared.NewValidationError(fmt.Sprintf(
				"template %s is a %s template and cannot be the default for %s", id, model.FileType, kind))
		}
		if err := clearDefaults(tx, kind, id); err != nil {
			return err
		}
		model.IsDefault = true
		model.UpdatedAt = time.Now()
		return tx.Model(&models.MappingTemplateModel{}).
			Where("id = ?", id).
			Updates(map[string]any{"is_default": true, "updated_at": model.UpdatedAt}).Error
	})
	if err != nil {
		return nil, translateError(err, "")
	}
	t, err := model.ToDomain()
	if err != nil {
		return nil, shared.NewPersistenceError(err)
	}
	return t, nil
}

func (r *GormTemplateRepository) findOne(ctx context.Context, query string, args ...any) (*mapping.MappingTemplate, error) {
	var model models.MappingTemplateModel
	if err := r.db.WithContext(ctx).Where(query, args...).First(&model).Error; err != nil {
		return nil, translateError(err, "")
	}
	t, err := model.ToDomain()
	if err != nil {
		return nil, shared.NewPersistenceError(err)
	}
	return t, nil
}

// clearDefaults unsets is_default on every template of kind except keep.
func clearDefaults(tx *gorm.DB, kind mapping.Kind, keep uuid.UUID) error {
	query := tx.Model(&models.MappingTemplateModel{}).
		Where("file_type = ? AND is_default = ?", string(kind), true)
	if keep != uuid.Nil {
		query = query.Where("id <> ?", keep)
	}
	return query.Updates(map[string]any{"is_default": false, "updated_at": time.Now()}).Error
}

// Compile-time interface compliance check
var _ mapping.TemplateRepository = (*GormTemplateRepository)(nil)
