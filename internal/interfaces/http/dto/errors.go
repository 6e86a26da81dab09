package dto

import "net/http"

// Error codes returned in ErrorInfo.Code. Generic codes use the ERR_ prefix;
// invoice lifecycle codes are passed through from the domain unchanged so
// callers can branch on the recovery they need.

// General error codes
const (
	ErrCodeUnknown  = "ERR_UNKNOWN"
	ErrCodeInternal = "ERR_INTERNAL"
)

// Input error codes
const (
	ErrCodeValidation  = "ERR_VALIDATION"
	ErrCodeBadRequest  = "ERR_BAD_REQUEST"
	ErrCodeInvalidJSON = "ERR_INVALID_JSON"
	ErrCodeTooLarge    = "ERR_PAYLOAD_TOO_LARGE"
)

// Authentication error codes
const (
	ErrCodeUnauthorized = "ERR_UNAUTHORIZED"
	ErrCodeForbidden    = "ERR_FORBIDDEN"
	ErrCodeTokenExpired = "ERR_TOKEN_EXPIRED"
	ErrCodeTokenInvalid = "ERR_TOKEN_INVALID"
	ErrCodeNoTenant     = "ERR_TENANT_REQUIRED"
)

// Resource error codes
const (
	ErrCodeNotFound            = "ERR_NOT_FOUND"
	ErrCodeConflict            = "ERR_CONFLICT"
	ErrCodeConcurrencyConflict = "ERR_CONCURRENCY_CONFLICT"
	ErrCodeInvalidState        = "ERR_INVALID_STATE"
	ErrCodeInsufficientStock   = "ERR_INSUFFICIENT_STOCK"
)

// Invoice lifecycle codes
const (
	ErrCodePaymentNotFound        = "PAYMENT_NOT_FOUND"
	ErrCodeInvoiceNotEditable     = "INVOICE_NOT_EDITABLE"
	ErrCodeHasPayments            = "HAS_PAYMENTS"
	ErrCodeAmountExceedsRemaining = "AMOUNT_EXCEEDS_REMAINING"
	ErrCodeInvoiceNotPayable      = "INVOICE_NOT_PAYABLE"
	ErrCodeInvoiceBusy            = "INVOICE_BUSY"
	ErrCodePortUnavailable        = "PORT_UNAVAILABLE"
)

// ErrorCodeHTTPStatus maps error codes to HTTP status codes
var ErrorCodeHTTPStatus = map[string]int{
	ErrCodeUnknown:  http.StatusInternalServerError,
	ErrCodeInternal: http.StatusInternalServerError,

	ErrCodeValidation:  http.StatusBadRequest,
	ErrCodeBadRequest:  http.StatusBadRequest,
	ErrCodeInvalidJSON: http.StatusBadRequest,
	ErrCodeTooLarge:    http.StatusRequestEntityTooLarge,

	ErrCodeUnauthorized: http.StatusUnauthorized,
	ErrCodeTokenExpired: http.StatusUnauthorized,
	ErrCodeTokenInvalid: http.StatusUnauthorized,
	ErrCodeNoTenant:     http.StatusUnauthorized,
	ErrCodeForbidden:    http.StatusForbidden,

	ErrCodeNotFound:        http.StatusNotFound,
	ErrCodePaymentNotFound: http.StatusNotFound,

	ErrCodeConflict:            http.StatusConflict,
	ErrCodeConcurrencyConflict: http.StatusConflict,
	ErrCodeInvoiceBusy:         http.StatusConflict,

	// Business rule violations -> 422 Unprocessable Entity
	ErrCodeInvalidState:           http.StatusUnprocessableEntity,
	ErrCodeInsufficientStock:      http.StatusUnprocessableEntity,
	ErrCodeInvoiceNotEditable:     http.StatusUnprocessableEntity,
	ErrCodeHasPayments:            http.StatusUnprocessableEntity,
	ErrCodeAmountExceedsRemaining: http.StatusUnprocessableEntity,
	ErrCodeInvoiceNotPayable:      http.StatusUnprocessableEntity,

	ErrCodePortUnavailable: http.StatusServiceUnavailable,
}

// GetHTTPStatus returns the HTTP status code for an error code
// Returns 500 Internal Server Error if the error code is not found
func GetHTTPStatus(code string) int {
	if status, ok := ErrorCodeHTTPStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// DomainErrorCodeMapping maps generic domain codes to the ERR_ codes
var DomainErrorCodeMapping = map[string]string{
	"NOT_FOUND":               ErrCodeNotFound,
	"VALIDATION_ERROR":        ErrCodeValidation,
	"INVALID_STATE":           ErrCodeInvalidState,
	"CONCURRENT_MODIFICATION": ErrCodeConcurrencyConflict,
	"FORBIDDEN":               ErrCodeForbidden,
	"INSUFFICIENT_STOCK":      ErrCodeInsufficientStock,
	"INTERNAL_ERROR":          ErrCodeInternal,
}

// NormalizeErrorCode converts a generic domain code to its ERR_ form.
// Other codes are returned as-is.
func NormalizeErrorCode(code string) string {
	if mapped, ok := DomainErrorCodeMapping[code]; ok {
		return mapped
	}
	return code
}
