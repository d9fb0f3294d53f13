package models

import (
	"encoding/json"
	"fmt"

	"github.com/ChenZongYanLive/OrderManagementSystem/internal/domain/mapping"
)

// MappingTemplateModel is the persistence model for a saved field mapping.
type MappingTemplateModel struct {
	BaseModel
	Name          string `gorm:"type:varchar(255);not null;uniqueIndex"`
	Description   string `gorm:"type:text"`
	FileType      string `gorm:"type:varchar(20);not null;index"`
	MappingConfig string `gorm:"type:jsonb;not null"`
	IsDefault     bool   `gorm:"not null;default:false"`
}

// TableName returns the table name for GORM
func (MappingTemplateModel) TableName() string {
	return "field_mapping_templates"
}

// ToDomain converts the persistence model to a domain MappingTemplate.
func (m *MappingTemplateModel) ToDomain() (*mapping.MappingTemplate, error) {
	fm := mapping.FieldMapping{}
	if m.MappingConfig != "" {
		if err := json.Unmarshal([]byte(m.MappingConfig), &fm); err != nil {
			return nil, fmt.Errorf("decode mapping_config of template %s: %w", m.ID, err)
		}
	}
	return &mapping.MappingTemplate{
		BaseAggregateRoot: m.aggregateRoot(),
		Name:              m.Name,
		Description:       m.Description,
		Kind:              mapping.Kind(m.FileType),
		Mapping:           fm,
		IsDefault:         m.IsDefault,
	}, nil
}

// FromDomain populates the persistence model from a domain MappingTemplate.
func (m *MappingTemplateModel) FromDomain(t *mapping.MappingTemplate) error {
	raw, err := json.Marshal(t.Mapping)
	if err != nil {
		return fmt.Errorf("encode mapping_config: %w", err)
	}
	m.FromDomainBaseEntity(t.BaseEntity)
	m.Name = t.Name
	m.Description = t.Description
	m.FileType = string(t.Kind)
	m.MappingConfig = string(raw)
	m.IsDefault = t.IsDefault
	return nil
}
