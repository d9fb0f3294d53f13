package dto

import (
	"time"

	"github.com/ChenZongYanLive/OrderManagementSystem/internal/domain/bulk"
	"github.com/ChenZongYanLive/OrderManagementSystem/internal/domain/mapping"
	"github.com/google/uuid"
)

// CreateTemplateRequest represents a request to create a mapping template
type CreateTemplateRequest struct {
	Name          string               `json:"name" binding:"required,max=255"`
	Description   string               `json:"description"`
	FileType      string               `json:"file_type" binding:"required"`
	MappingConfig mapping.FieldMapping `json:"mapping_config" binding:"required"`
	IsDefault     bool                 `json:"is_default"`
}

// UpdateTemplateRequest represents a partial template update
type UpdateTemplateRequest struct {
	Name          *string              `json:"name" binding:"omitempty,max=255"`
	Description   *string              `json:"description"`
	MappingConfig mapping.FieldMapping `json:"mapping_config"`
	IsDefault     *bool                `json:"is_default"`
}

// SetDefaultTemplateRequest names the kind a template becomes default for
type SetDefaultTemplateRequest struct {
	FileType string `json:"file_type" binding:"required"`
}

// ListTemplatesQuery filters the template list
type ListTemplatesQuery struct {
	FileType string `form:"file_type"`
}

// TemplateResponse represents a mapping template in API responses
type TemplateResponse struct {
	ID            uuid.UUID            `json:"id"`
	Name          string               `json:"name"`
	Description   string               `json:"description,omitempty"`
	FileType      mapping.Kind         `json:"file_type"`
	MappingConfig mapping.FieldMapping `json:"mapping_config"`
	IsDefault     bool                 `json:"is_default"`
	CreatedAt     time.Time            `json:"created_at"`
	UpdatedAt     time.Time            `json:"updated_at"`
}

// ToTemplateResponse converts a template; nil stays nil
func ToTemplateResponse(t *mapping.MappingTemplate) *TemplateResponse {
	if t == nil {
		return nil
	}
	return &TemplateResponse{
		ID:            t.ID,
		Name:          t.Name,
		Description:   t.Description,
		FileType:      t.Kind,
		MappingConfig: t.Mapping,
		IsDefault:     t.IsDefault,
		CreatedAt:     t.CreatedAt,
		UpdatedAt:     t.UpdatedAt,
	}
}

// ToTemplateResponses converts a list of templates
func ToTemplateResponses(ts []*mapping.MappingTemplate) []*TemplateResponse {
	out := make([]*TemplateResponse, len(ts))
	for i, t := range ts {
		out[i] = ToTemplateResponse(t)
	}
	return out
}

// PreviewResponse is returned by the preview endpoint
type PreviewResponse struct {
	FileType         mapping.Kind                 `json:"file_type"`
	Headers          []string                     `json:"headers"`
	SampleRecords    []*mapping.RawRecord         `json:"sample_records"`
	InferredTypes    map[string]mapping.FieldType `json:"inferred_types"`
	SuggestedMapping mapping.FieldMapping         `json:"suggested_mapping"`
	DefaultTemplate  *TemplateResponse            `json:"default_template"`
	TotalRecords     int                          `json:"total_records"`
}

// ImportLogResponse represents an import batch in API responses
type ImportLogResponse struct {
	ID           uuid.UUID          `json:"id"`
	BatchID      string             `json:"batch_id"`
	FileName     string             `json:"file_name"`
	FileType     mapping.Kind       `json:"file_type"`
	Mode         bulk.ImportMode    `json:"mode"`
	TotalRecords int                `json:"total_records"`
	SuccessCount int                `json:"success_count"`
	ErrorCount   int                `json:"error_count"`
	Status       bulk.ImportStatus  `json:"status"`
	ErrorDetails []bulk.ErrorDetail `json:"error_details"`
	CreatedAt    time.Time          `json:"created_at"`
	CompletedAt  *time.Time         `json:"completed_at,omitempty"`
}

// ToImportLogResponse converts an import log
func ToImportLogResponse(l *bulk.ImportLog) ImportLogResponse {
	details := l.ErrorDetails
	if details == nil {
		details = []bulk.ErrorDetail{}
	}
	return ImportLogResponse{
		ID:           l.ID,
		BatchID:      l.BatchID,
		FileName:     l.FileName,
		FileType:     l.Kind,
		Mode:         l.Mode,
		TotalRecords: l.TotalRecords,
		SuccessCount: l.SuccessCount,
		ErrorCount:   l.ErrorCount,
		Status:       l.Status,
		ErrorDetails: details,
		CreatedAt:    l.CreatedAt,
		CompletedAt:  l.CompletedAt,
	}
}

// ToImportLogResponses converts a list of import logs; list entries omit
// the per-record details
func ToImportLogResponses(logs []*bulk.ImportLog) []ImportLogResponse {
	out := make([]ImportLogResponse, len(logs))
	for i, l := range logs {
		out[i] = ToImportLogResponse(l)
		out[i].ErrorDetails = nil
	}
	return out
}
