package persistence

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateSortOrder(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"ASC", "ASC"},
		{"asc", "ASC"},
		{" asc ", "ASC"},
		{"DESC", "DESC"},
		{"desc", "DESC"},
		{"", "DESC"},
		{"random", "DESC"},
		{"ASC; DROP TABLE orders", "DESC"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, ValidateSortOrder(tt.input))
		})
	}
}

func TestValidateSortField(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"allowed field", "order_number", "order_number"},
		{"trimmed field", "  total_amount ", "total_amount"},
		{"empty falls back", "", "created_at"},
		{"unknown falls back", "password", "created_at"},
		{"injection falls back", "created_at; DROP TABLE orders", "created_at"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ValidateSortField(tt.input, OrderSortFields, "created_at"))
		})
	}
}

func TestOrderByClause(t *testing.T) {
	assert.Equal(t, "created_at DESC, id DESC", orderByClause("", "", OrderSortFields, "created_at"))
	assert.Equal(t, "total_amount ASC, id ASC", orderByClause("total_amount", "asc", OrderSortFields, "created_at"))
	assert.Equal(t, "created_at ASC, id ASC", orderByClause("nope", "ASC", OrderSortFields, "created_at"))
}
