package mapping

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCoerce_EmptyAlwaysNil(t *testing.T) {
	types := []FieldType{TypeString, TypeNumber, TypeInteger, TypeDate, TypeBoolean}
	for _, ft := range types {
		t.Run(string(ft), func(t *testing.T) {
			assert.Nil(t, Coerce("", ft))
			assert.Nil(t, Coerce(nil, ft))
		})
	}
}

func TestCoerce_Number(t *testing.T) {
	tests := []struct {
		name  string
		in    any
		want  string
		isNil bool
	}{
		{"plain", "12.5", "12.5", false},
		{"thousands separator", "1,234.50", "1234.5", false},
		{"currency symbol", "$99", "99", false},
		{"local currency", "NT$1,500", "1500", false},
		{"accounting negative", "(12.5)", "-12.5", false},
		{"native float", 3.25, "3.25", false},
		{"json number", json.Number("750"), "750", false},
		{"garbage", "abc", "", true},
		{"boolean is not a number", true, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Coerce(tt.in, TypeNumber)
			if tt.isNil {
				assert.Nil(t, got)
				return
			}
			d, ok := got.(decimal.Decimal)
			require.True(t, ok)
			assert.True(t, d.Equal(decimal.RequireFromString(tt.want)), "got %s", d)
		})
	}
}

func TestCoerce_IntegerTruncatesTowardZero(t *testing.T) {
	assert.Equal(t, int64(3), Coerce("3.9", TypeInteger))
	assert.Equal(t, int64(-2), Coerce("-2.7", TypeInteger))
	assert.Equal(t, int64(5), Coerce(5.0, TypeInteger))
	assert.Nil(t, Coerce("two", TypeInteger))
}

func TestCoerce_Boolean(t *testing.T) {
	tests := []struct {
		in   any
		want bool
	}{
		{"true", true},
		{"Y", true},
		{"yes", true},
		{"1", true},
		{"no", false},
		{"anything", false},
		{true, true},
		{false, false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Coerce(tt.in, TypeBoolean), "input %v", tt.in)
	}
}

func TestCoerce_Date(t *testing.T) {
	got := Coerce("2024-03-05", TypeDate)
	assert.Equal(t, time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC), got)

	got = Coerce("2024-03-05T10:00:00+08:00", TypeDate)
	assert.Equal(t, time.Date(2024, 3, 5, 2, 0, 0, 0, time.UTC), got)

	got = Coerce("03/05/2024", TypeDate)
	assert.Equal(t, time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC), got)

	assert.Nil(t, Coerce("not a date", TypeDate))
}

func TestCoerce_String(t *testing.T) {
	assert.Equal(t, "12", Coerce(12.0, TypeString))
	assert.Equal(t, "7", Coerce(json.Number("7"), TypeString))
	assert.Equal(t, "true", Coerce(true, TypeString))
	assert.Equal(t, "A-1", Coerce("A-1", TypeString))
}

func TestCoerceAttributes_DropsNil(t *testing.T) {
	out := CoerceAttributes(Attributes{
		FieldCustomerName: "Alice",
		FieldTotalAmount:  "n/a",
		FieldOrderDate:    "",
	})

	assert.Equal(t, Attributes{FieldCustomerName: "Alice"}, out)
}
