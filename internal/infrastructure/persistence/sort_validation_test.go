package persistence

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateSortOrder(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"empty string returns DESC", "", "DESC"},
		{"ASC uppercase returns ASC", "ASC", "ASC"},
		{"asc lowercase returns ASC", "asc", "ASC"},
		{"desc lowercase returns DESC", "desc", "DESC"},
		{"invalid value returns DESC", "INVALID", "DESC"},
		{"sql injection attempt returns DESC", "ASC; DROP TABLE invoices;--", "DESC"},
		{"whitespace around ASC returns ASC", "  asc  ", "ASC"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ValidateSortOrder(tt.input))
		})
	}
}

func TestValidateSortField(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		allowed  map[string]string
		expected string
	}{
		{"empty string returns default", "", InvoiceSortFields, "created_at"},
		{"api name maps to column", "totalAmount", InvoiceSortFields, "total_amount"},
		{"column name is accepted", "remaining_amount", InvoiceSortFields, "remaining_amount"},
		{"unknown field returns default", "password", InvoiceSortFields, "created_at"},
		{"sql injection attempt returns default", "date; DROP TABLE payments", PaymentSortFields, "created_at"},
		{"payment amount", "amount", PaymentSortFields, "amount"},
		{"invoice field not allowed on payments", "totalAmount", PaymentSortFields, "created_at"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ValidateSortField(tt.input, tt.allowed, "created_at"))
		})
	}
}

func TestOrderClause(t *testing.T) {
	assert.Equal(t, "total_amount ASC, id ASC", orderClause("totalAmount", "asc", InvoiceSortFields, "created_at"))
	assert.Equal(t, "date DESC, id DESC", orderClause("", "", PaymentSortFields, "date"))
}
