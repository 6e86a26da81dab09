package invoicing

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// InvoiceStatus is the persisted status ordinal. The numeric values are a
// storage and wire contract shared with existing clients and must not change.
type InvoiceStatus int

const (
	StatusDraft         InvoiceStatus = 0
	StatusPending       InvoiceStatus = 1
	StatusConfirmed     InvoiceStatus = 2
	StatusCancelled     InvoiceStatus = 3
	StatusPaid          InvoiceStatus = 4
	StatusPartiallyPaid InvoiceStatus = 5
	StatusOverdue       InvoiceStatus = 6
	StatusReturned      InvoiceStatus = 7
)

var statusNames = map[InvoiceStatus]string{
	StatusDraft:         "Draft",
	StatusPending:       "Pending",
	StatusConfirmed:     "Confirmed",
	StatusCancelled:     "Cancelled",
	StatusPaid:          "Paid",
	StatusPartiallyPaid: "PartiallyPaid",
	StatusOverdue:       "Overdue",
	StatusReturned:      "Returned",
}

// String returns the status name
func (s InvoiceStatus) String() string {
	if name, ok := statusNames[s]; ok {
		return name
	}
	return fmt.Sprintf("InvoiceStatus(%d)", int(s))
}

// IsValid reports whether s is one of the known ordinals
func (s InvoiceStatus) IsValid() bool {
	_, ok := statusNames[s]
	return ok
}

// IsConfirmedFamily reports whether stock and balance effects are applied,
// i.e. the status is neither Draft nor Cancelled.
func (s InvoiceStatus) IsConfirmedFamily() bool {
	return s.IsValid() && s != StatusDraft && s != StatusCancelled
}

// ParseStatus accepts an ordinal ("2") or a case-insensitive name ("confirmed")
func ParseStatus(v string) (InvoiceStatus, error) {
	v = strings.TrimSpace(v)
	for status, name := range statusNames {
		if strings.EqualFold(name, v) || fmt.Sprint(int(status)) == v {
			return status, nil
		}
	}
	return 0, NewValidationError("status", fmt.Sprintf("unknown invoice status %q", v))
}

// DeriveStatus computes the status of a confirmed-family invoice from its
// amounts: nothing paid is Confirmed, nothing remaining is Paid, anything in
// between is PartiallyPaid.
func DeriveStatus(total, paid decimal.Decimal) InvoiceStatus {
	if !paid.IsPositive() {
		return StatusConfirmed
	}
	if !Remaining(total, paid).IsPositive() {
		return StatusPaid
	}
	return StatusPartiallyPaid
}
