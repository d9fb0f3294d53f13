package importapp

import (
	"context"
	"errors"

	"github.com/ChenZongYanLive/OrderManagementSystem/internal/domain/mapping"
	"github.com/ChenZongYanLive/OrderManagementSystem/internal/domain/shared"
	"github.com/ChenZongYanLive/OrderManagementSystem/internal/infrastructure/logger"
	"github.com/ChenZongYanLive/OrderManagementSystem/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// CreateTemplateInput is the input of TemplateService.Create
type CreateTemplateInput struct {
	Name        string
	Description string
	Kind        string
	Mapping     mapping.FieldMapping
	IsDefault   bool
}

// SystemFields is the field catalogue offered on the mapping screen.
type SystemFields struct {
	OrderFields []mapping.FieldDefinition `json:"order_fields"`
	ItemFields  []mapping.FieldDefinition `json:"item_fields"`
}

// TemplateService manages mapping templates. Default templates are read
// through cache, which is invalidated on every write touching a kind.
type TemplateService struct {
	repo   mapping.TemplateRepository
	cache  mapping.TemplateCache
	logger *zap.Logger
}

// NewTemplateService creates a TemplateService. cache may be nil.
func NewTemplateService(repo mapping.TemplateRepository, cache mapping.TemplateCache, logger *zap.Logger) *TemplateService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TemplateService{repo: repo, cache: cache, logger: logger}
}

// SystemFields returns the order and item field definitions.
func (s *TemplateService) SystemFields() SystemFields {
	return SystemFields{
		OrderFields: mapping.OrderFields(),
		ItemFields:  mapping.ItemFields(),
	}
}

// Create stores a new template. A duplicate name fails with ALREADY_EXISTS.
func (s *TemplateService) Create(ctx context.Context, in CreateTemplateInput) (*mapping.MappingTemplate, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "template", "create")
	defer span.End()

	kind, err := mapping.ParseKind(in.Kind)
	if err != nil {
		return nil, err
	}
	t, err := mapping.NewMappingTemplate(in.Name, in.Description, kind, in.Mapping, in.IsDefault)
	if err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, t); err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	if t.IsDefault {
		s.invalidate(ctx, kind)
	}
	telemetry.SetAttribute(span, telemetry.SpanAttrTemplateID, t.ID)
	return t, nil
}

// List returns templates, default first then by name. An empty kind lists all.
func (s *TemplateService) List(ctx context.Context, kind string) ([]*mapping.MappingTemplate, error) {
	var k mapping.Kind
	if kind != "" {
		parsed, err := mapping.ParseKind(kind)
		if err != nil {
			return nil, err
		}
		k = parsed
	}
	return s.repo.FindAll(ctx, k)
}

// Get returns a template by id
func (s *TemplateService) Get(ctx context.Context, id uuid.UUID) (*mapping.MappingTemplate, error) {
	return s.repo.FindByID(ctx, id)
}

// GetByName returns a template by its unique name
func (s *TemplateService) GetByName(ctx context.Context, name string) (*mapping.MappingTemplate, error) {
	return s.repo.FindByName(ctx, name)
}

// GetDefault returns the default template of kind, or NOT_FOUND.
func (s *TemplateService) GetDefault(ctx context.Context, kind mapping.Kind) (*mapping.MappingTemplate, error) {
	if s.cache != nil {
		t, err := s.cache.GetDefault(ctx, kind)
		if err != nil {
			logger.WithLogger(ctx, s.logger).Warn("Template cache read failed", zap.String("kind", string(kind)), zap.Error(err))
		} else if t != nil {
			return t, nil
		}
	}

	t, err := s.repo.FindDefaultByKind(ctx, kind)
	if err != nil {
		return nil, err
	}
	if s.cache != nil {
		if err := s.cache.SetDefault(ctx, kind, t); err != nil {
			logger.WithLogger(ctx, s.logger).Warn("Template cache write failed", zap.String("kind", string(kind)), zap.Error(err))
		}
	}
	return t, nil
}

// FindDefault is GetDefault with NOT_FOUND turned into (nil, nil).
func (s *TemplateService) FindDefault(ctx context.Context, kind mapping.Kind) (*mapping.MappingTemplate, error) {
	t, err := s.GetDefault(ctx, kind)
	if errors.Is(err, shared.ErrNotFound) {
		return nil, nil
	}
	return t, err
}

// Update applies a partial update; omitted fields keep their value.
func (s *TemplateService) Update(ctx context.Context, id uuid.UUID, patch mapping.TemplatePatch) (*mapping.MappingTemplate, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "template", "update",
		telemetry.WithAttribute(telemetry.SpanAttrTemplateID, id))
	defer span.End()

	t, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := t.Apply(patch); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, t); err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	s.invalidate(ctx, t.Kind)
	return t, nil
}

// Delete removes a template
func (s *TemplateService) Delete(ctx context.Context, id uuid.UUID) error {
	t, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.invalidate(ctx, t.Kind)
	return nil
}

// SetDefault makes id the only default of kind. On failure no default changes.
func (s *TemplateService) SetDefault(ctx context.Context, id uuid.UUID, kind string) (*mapping.MappingTemplate, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "template", "set_default",
		telemetry.WithAttribute(telemetry.SpanAttrTemplateID, id))
	defer span.End()

	k, err := mapping.ParseKind(kind)
	if err != nil {
		return nil, err
	}
	t, err := s.repo.SetDefault(ctx, id, k)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	s.invalidate(ctx, k)
	return t, nil
}

func (s *TemplateService) invalidate(ctx context.Context, kind mapping.Kind) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx, kind); err != nil {
		logger.WithLogger(ctx, s.logger).Warn("Template cache invalidation failed", zap.String("kind", string(kind)), zap.Error(err))
	}
}
