package handler

import (
	"context"

	importapp "github.com/ChenZongYanLive/OrderManagementSystem/internal/application/import"
	"github.com/ChenZongYanLive/OrderManagementSystem/internal/domain/mapping"
	"github.com/ChenZongYanLive/OrderManagementSystem/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// TemplateService is the application surface the field mapping endpoints need.
type TemplateService interface {
	SystemFields() importapp.SystemFields
	Create(ctx context.Context, in importapp.CreateTemplateInput) (*mapping.MappingTemplate, error)
	List(ctx context.Context, kind string) ([]*mapping.MappingTemplate, error)
	Get(ctx context.Context, id uuid.UUID) (*mapping.MappingTemplate, error)
	GetByName(ctx context.Context, name string) (*mapping.MappingTemplate, error)
	GetDefault(ctx context.Context, kind mapping.Kind) (*mapping.MappingTemplate, error)
	Update(ctx context.Context, id uuid.UUID, patch mapping.TemplatePatch) (*mapping.MappingTemplate, error)
	Delete(ctx context.Context, id uuid.UUID) error
	SetDefault(ctx context.Context, id uuid.UUID, kind string) (*mapping.MappingTemplate, error)
}

// FieldMappingHandler serves the system field catalogue and mapping templates
type FieldMappingHandler struct {
	BaseHandler
	templates TemplateService
}

// NewFieldMappingHandler creates a new FieldMappingHandler
func NewFieldMappingHandler(templates TemplateService) *FieldMappingHandler {
	return &FieldMappingHandler{templates: templates}
}

// SystemFields returns the order and item fields a header can map to
// GET /api/v1/field-mappings/system-fields
func (h *FieldMappingHandler) SystemFields(c *gin.Context) {
	h.Success(c, h.templates.SystemFields())
}

// ListTemplates lists templates, optionally for one file type
// GET /api/v1/field-mappings/templates
func (h *FieldMappingHandler) ListTemplates(c *gin.Context) {
	var q dto.ListTemplatesQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		h.BindError(c, err)
		return
	}

	templates, err := h.templates.List(c.Request.Context(), q.FileType)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, dto.ToTemplateResponses(templates))
}

// CreateTemplate stores a new template
// POST /api/v1/field-mappings/templates
func (h *FieldMappingHandler) CreateTemplate(c *gin.Context) {
	var req dto.CreateTemplateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	t, err := h.templates.Create(c.Request.Context(), importapp.CreateTemplateInput{
		Name:        req.Name,
		Description: req.Description,
		Kind:        req.FileType,
		Mapping:     req.MappingConfig,
		IsDefault:   req.IsDefault,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, dto.ToTemplateResponse(t))
}

// GetTemplate returns one template
// GET /api/v1/field-mappings/templates/:id
func (h *FieldMappingHandler) GetTemplate(c *gin.Context) {
	id, ok := h.parseID(c, "id")
	if !ok {
		return
	}

	t, err := h.templates.Get(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, dto.ToTemplateResponse(t))
}

// GetTemplateByName returns the template with the given name
// GET /api/v1/field-mappings/templates/by-name/:name
func (h *FieldMappingHandler) GetTemplateByName(c *gin.Context) {
	t, err := h.templates.GetByName(c.Request.Context(), c.Param("name"))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, dto.ToTemplateResponse(t))
}

// GetDefaultTemplate returns the default template of a file type
// GET /api/v1/field-mappings/templates/default/:kind
func (h *FieldMappingHandler) GetDefaultTemplate(c *gin.Context) {
	kind, err := mapping.ParseKind(c.Param("kind"))
	if err != nil {
		h.HandleError(c, err)
		return
	}

	t, err := h.templates.GetDefault(c.Request.Context(), kind)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, dto.ToTemplateResponse(t))
}

// UpdateTemplate applies a partial update
// PUT /api/v1/field-mappings/templates/:id
func (h *FieldMappingHandler) UpdateTemplate(c *gin.Context) {
	id, ok := h.parseID(c, "id")
	if !ok {
		return
	}

	var req dto.UpdateTemplateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	t, err := h.templates.Update(c.Request.Context(), id, mapping.TemplatePatch{
		Name:        req.Name,
		Description: req.Description,
		Mapping:     req.MappingConfig,
		IsDefault:   req.IsDefault,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, dto.ToTemplateResponse(t))
}

// DeleteTemplate removes a template
// DELETE /api/v1/field-mappings/templates/:id
func (h *FieldMappingHandler) DeleteTemplate(c *gin.Context) {
	id, ok := h.parseID(c, "id")
	if !ok {
		return
	}

	if err := h.templates.Delete(c.Request.Context(), id); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}

// SetDefaultTemplate makes a template the default for a file type
// POST /api/v1/field-mappings/templates/:id/set-default
func (h *FieldMappingHandler) SetDefaultTemplate(c *gin.Context) {
	id, ok := h.parseID(c, "id")
	if !ok {
		return
	}

	var req dto.SetDefaultTemplateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	t, err := h.templates.SetDefault(c.Request.Context(), id, req.FileType)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, dto.ToTemplateResponse(t))
}
