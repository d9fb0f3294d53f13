package mapping

import (
	"fmt"
	"strings"

	"github.com/ChenZongYanLive/OrderManagementSystem/internal/domain/shared"
)

// Attributes holds canonical field values keyed by field name.
type Attributes map[string]any

// String returns the value of key as a string, or "" when absent.
func (a Attributes) String(key string) string {
	if v, ok := a[key]; ok && v != nil {
		return stringify(v)
	}
	return ""
}

// Has reports whether key holds a non-nil value.
func (a Attributes) Has(key string) bool {
	v, ok := a[key]
	return ok && v != nil
}

// CanonicalRecord is one raw record converted into the canonical shape.
type CanonicalRecord struct {
	Order Attributes
	Items []Attributes
}

// RecordTransform converts a raw record into the canonical shape.
type RecordTransform interface {
	// Name identifies the strategy in logs.
	Name() string
	Transform(raw *RawRecord) (CanonicalRecord, error)
}

// Resolve copies each mapped header's value into its target field. Unmapped
// headers and nil values are skipped. Headers are visited in record order so
// a later header wins when two map to the same field.
func Resolve(raw *RawRecord, m FieldMapping) Attributes {
	out := make(Attributes)
	for _, h := range raw.Headers() {
		target, ok := m[h]
		if !ok {
			continue
		}
		field, mapped := target.Field()
		if !mapped {
			continue
		}
		if v, _ := raw.Get(h); v != nil {
			out[field] = v
		}
	}
	return out
}

// Split partitions attributes into the order-level and item-level sets.
// Keys in neither set are dropped.
func Split(attrs Attributes) (order Attributes, item Attributes) {
	order = make(Attributes)
	item = make(Attributes)
	for k, v := range attrs {
		switch {
		case IsOrderAttribute(k):
			order[k] = v
		case IsItemAttribute(k):
			item[k] = v
		}
	}
	return order, item
}

// TemplateStrategy applies a caller-supplied mapping: resolve, split, then
// coerce. Each record yields at most one item.
type TemplateStrategy struct {
	mapping FieldMapping
}

// NewTemplateStrategy validates the mapping and returns a strategy using it.
func NewTemplateStrategy(m FieldMapping) (*TemplateStrategy, error) {
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return &TemplateStrategy{mapping: m}, nil
}

// Name implements RecordTransform.
func (s *TemplateStrategy) Name() string { return "template" }

// Transform implements RecordTransform.
func (s *TemplateStrategy) Transform(raw *RawRecord) (CanonicalRecord, error) {
	orderAttrs, itemAttrs := Split(Resolve(raw, s.mapping))
	rec := CanonicalRecord{Order: CoerceAttributes(orderAttrs)}
	if item := CoerceAttributes(itemAttrs); len(item) > 0 {
		rec.Items = []Attributes{item}
	}
	return rec, nil
}

// ValidateRequired checks the required flags of the field catalogue: every
// required order field must be present and non-blank, at least one item must
// exist, and each item must carry its required fields.
func ValidateRequired(rec CanonicalRecord) error {
	var problems []string
	for _, d := range orderFieldDefs {
		if d.Required && isBlank(rec.Order[d.Name]) {
			problems = append(problems, fmt.Sprintf("missing required field: %s (%s)", d.Label, d.Name))
		}
	}
	if len(rec.Items) == 0 {
		problems = append(problems, "at least one item is required")
	}
	for i, item := range rec.Items {
		for _, d := range itemFieldDefs {
			if d.Required && isBlank(item[d.Name]) {
				problems = append(problems, fmt.Sprintf("item %d missing required field: %s (%s)", i+1, d.Label, d.Name))
			}
		}
	}
	if len(problems) > 0 {
		return shared.NewValidationError(strings.Join(problems, "; "))
	}
	return nil
}

func isBlank(v any) bool {
	if v == nil {
		return true
	}
	if s, ok := v.(string); ok {
		return strings.TrimSpace(s) == ""
	}
	return false
}
