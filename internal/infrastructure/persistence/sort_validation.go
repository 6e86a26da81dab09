package persistence

import (
	"strings"
)

// ValidateSortOrder validates and normalizes the sort order to ASC or DESC.
// Returns "DESC" as the default if the input is invalid or empty.
func ValidateSortOrder(orderDir string) string {
	if strings.ToUpper(strings.TrimSpace(orderDir)) == "ASC" {
		return "ASC"
	}
	return "DESC"
}

// ValidateSortField maps a caller sort field to a column through a whitelist.
// Both the API name (camelCase) and the column name are accepted.
func ValidateSortField(sortField string, allowedFields map[string]string, defaultColumn string) string {
	trimmed := strings.TrimSpace(sortField)
	if trimmed == "" {
		return defaultColumn
	}
	if column, ok := allowedFields[trimmed]; ok {
		return column
	}
	return defaultColumn
}

// orderClause builds a safe ORDER BY expression with a stable tiebreak on id
func orderClause(sortField, orderDir string, allowedFields map[string]string, defaultColumn string) string {
	return ValidateSortField(sortField, allowedFields, defaultColumn) + " " + ValidateSortOrder(orderDir) + ", id " + ValidateSortOrder(orderDir)
}

// InvoiceSortFields contains allowed sort fields for invoices
var InvoiceSortFields = map[string]string{
	"created_at":       "created_at",
	"createdAt":        "created_at",
	"updated_at":       "updated_at",
	"updatedAt":        "updated_at",
	"date":             "date",
	"status":           "status",
	"total_amount":     "total_amount",
	"totalAmount":      "total_amount",
	"remaining_amount": "remaining_amount",
	"remainingAmount":  "remaining_amount",
	"customer_name":    "customer_name",
	"customerName":     "customer_name",
}

// PaymentSortFields contains allowed sort fields for payments
var PaymentSortFields = map[string]string{
	"created_at": "created_at",
	"createdAt":  "created_at",
	"date":       "date",
	"amount":     "amount",
}
