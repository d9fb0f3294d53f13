package mapping

import (
	"fmt"
	"strings"

	"github.com/ChenZongYanLive/OrderManagementSystem/internal/domain/shared"
)

// MappingTemplate is a named, reusable FieldMapping scoped to one file kind.
type MappingTemplate struct {
	shared.BaseAggregateRoot
	Name        string
	Description string
	Kind        Kind
	Mapping     FieldMapping
	IsDefault   bool
}

// NewMappingTemplate validates and builds a template.
func NewMappingTemplate(name, description string, kind Kind, m FieldMapping, isDefault bool) (*MappingTemplate, error) {
	t := &MappingTemplate{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Description:       strings.TrimSpace(description),
		IsDefault:         isDefault,
	}
	if err := t.Rename(name); err != nil {
		return nil, err
	}
	if !kind.IsValid() {
		return nil, shared.NewDomainError(shared.CodeUnsupportedKind, fmt.Sprintf("unsupported file kind: %q", kind))
	}
	t.Kind = kind
	if err := t.ReplaceMapping(m); err != nil {
		return nil, err
	}
	return t, nil
}

// Rename changes the template name.
func (t *MappingTemplate) Rename(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return shared.NewValidationError("template name is required")
	}
	if len([]rune(name)) > 255 {
		return shared.NewValidationError("template name must be at most 255 characters")
	}
	t.Name = name
	t.Touch()
	return nil
}

// ReplaceMapping swaps the mapping content after validating it.
func (t *MappingTemplate) ReplaceMapping(m FieldMapping) error {
	if err := m.Validate(); err != nil {
		return err
	}
	t.Mapping = m
	t.Touch()
	return nil
}

// TemplatePatch is a partial update; nil fields keep their current value.
type TemplatePatch struct {
	Name        *string
	Description *string
	Mapping     FieldMapping
	IsDefault   *bool
}

// Apply updates the template from p. Default status changes must go through
// the repository so the per-kind invariant holds.
func (t *MappingTemplate) Apply(p TemplatePatch) error {
	if p.Name != nil {
		if err := t.Rename(*p.Name); err != nil {
			return err
		}
	}
	if p.Description != nil {
		t.Description = strings.TrimSpace(*p.Description)
	}
	if p.Mapping != nil {
		if err := t.ReplaceMapping(p.Mapping); err != nil {
			return err
		}
	}
	if p.IsDefault != nil {
		t.IsDefault = *p.IsDefault
	}
	t.Touch()
	return nil
}
