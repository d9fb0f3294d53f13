package mapping

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/ChenZongYanLive/OrderManagementSystem/internal/domain/shared"
)

// Target is where one source header goes: a canonical field, or nowhere.
// The zero value is Unmapped.
type Target struct {
	field string
}

// MapTo targets the given canonical field.
func MapTo(field string) Target {
	return Target{field: field}
}

// Unmapped is the explicit "map to nothing" target.
func Unmapped() Target {
	return Target{}
}

// Field returns the target field and whether the header is mapped.
func (t Target) Field() (string, bool) {
	return t.field, t.field != ""
}

// IsMapped reports whether the header maps to a field.
func (t Target) IsMapped() bool {
	return t.field != ""
}

// MarshalJSON writes null for Unmapped.
func (t Target) MarshalJSON() ([]byte, error) {
	if !t.IsMapped() {
		return []byte("null"), nil
	}
	return json.Marshal(t.field)
}

// UnmarshalJSON accepts a field name, or null / "" for Unmapped.
func (t *Target) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		*t = Unmapped()
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("mapping target must be a string or null: %w", err)
	}
	*t = MapTo(s)
	return nil
}

// FieldMapping associates source headers with targets.
type FieldMapping map[string]Target

// Headers returns the mapped-over source headers sorted for stable output.
func (m FieldMapping) Headers() []string {
	out := make([]string, 0, len(m))
	for h := range m {
		out = append(out, h)
	}
	sort.Strings(out)
	return out
}

// Validate checks that every mapped target is a known canonical attribute.
func (m FieldMapping) Validate() error {
	if len(m) == 0 {
		return shared.NewValidationError("mapping must contain at least one header")
	}
	for _, h := range m.Headers() {
		field, ok := m[h].Field()
		if !ok {
			continue
		}
		if !IsOrderAttribute(field) && !IsItemAttribute(field) {
			return shared.NewValidationError(fmt.Sprintf("header %q maps to unknown field %q", h, field))
		}
	}
	return nil
}

// MappedCount returns how many headers have a target.
func (m FieldMapping) MappedCount() int {
	n := 0
	for _, t := range m {
		if t.IsMapped() {
			n++
		}
	}
	return n
}
