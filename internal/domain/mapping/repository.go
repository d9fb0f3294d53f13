package mapping

import (
	"context"

	"github.com/google/uuid"
)

// TemplateRepository persists mapping templates. Implementations keep at
// most one default template per kind at every observable point.
type TemplateRepository interface {
	// Create fails with shared.ErrAlreadyExists on a duplicate name. A
	// template created as default replaces the previous default of its kind.
	Create(ctx context.Context, t *MappingTemplate) error
	// FindAll lists templates, default first then by name. An empty kind
	// lists every kind.
	FindAll(ctx context.Context, kind Kind) ([]*MappingTemplate, error)
	FindByID(ctx context.Context, id uuid.UUID) (*MappingTemplate, error)
	FindByName(ctx context.Context, name string) (*MappingTemplate, error)
	// FindDefaultByKind returns shared.ErrNotFound when the kind has no default.
	FindDefaultByKind(ctx context.Context, kind Kind) (*MappingTemplate, error)
	// Update saves all fields. Setting IsDefault clears the other defaults of
	// the template's kind in the same transaction.
	Update(ctx context.Context, t *MappingTemplate) error
	Delete(ctx context.Context, id uuid.UUID) error
	// SetDefault clears every default of kind and marks id, atomically. It
	// fails without changes when id does not exist or is of another kind.
	SetDefault(ctx context.Context, id uuid.UUID, kind Kind) (*MappingTemplate, error)
}

// TemplateCache keeps the default template of each kind. A miss is
// (nil, nil). Implementations may expire entries on their own.
type TemplateCache interface {
	GetDefault(ctx context.Context, kind Kind) (*MappingTemplate, error)
	SetDefault(ctx context.Context, kind Kind, t *MappingTemplate) error
	// Invalidate drops the cached defaults of kinds, or of every kind when
	// none is given.
	Invalidate(ctx context.Context, kinds ...Kind) error
}
