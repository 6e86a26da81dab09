package telemetry

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/solimansoliman/SmartAccountant-v1005-sub002/internal/domain/shared"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// ErrMeterNil is returned when no meter is supplied
var ErrMeterNil = errors.New("telemetry: meter cannot be nil")

// InvoiceMetrics records reconciliation engine activity
type InvoiceMetrics struct {
	invoiceTransitions *Counter
	paymentsRecorded   *Counter
	paymentsReversed   *Counter
	amountRecorded     *Counter
	failures           *Counter
	duration           *Histogram
}

// NewInvoiceMetrics creates the invoice instruments on meter
func NewInvoiceMetrics(meter metric.Meter) (*InvoiceMetrics, error) {
	if meter == nil {
		return nil, ErrMeterNil
	}

	m := &InvoiceMetrics{}
	var err error
	if m.invoiceTransitions, err = NewCounter(meter, "sa_invoice_transitions_total",
		"Invoice lifecycle transitions by operation", "{transitions}"); err != nil {
		return nil, err
	}
	if m.paymentsRecorded, err = NewCounter(meter, "sa_payments_recorded_total",
		"Payments appended to a ledger", "{payments}"); err != nil {
		return nil, err
	}
	if m.paymentsReversed, err = NewCounter(meter, "sa_payments_reversed_total",
		"Payments reversed", "{payments}"); err != nil {
		return nil, err
	}
	if m.amountRecorded, err = NewCounter(meter, "sa_payment_amount_total",
		"Recorded payment amount in minor units", "{cents}"); err != nil {
		return nil, err
	}
	if m.failures, err = NewCounter(meter, "sa_reconciliation_failures_total",
		"Rejected or failed reconciliation operations by error code", "{failures}"); err != nil {
		return nil, err
	}
	if m.duration, err = NewHistogram(meter, "sa_reconciliation_duration_seconds",
		"Duration of reconciliation operations", "s", OperationDurationBuckets...); err != nil {
		return nil, err
	}
	return m, nil
}

// RecordTransition counts a committed lifecycle operation
func (m *InvoiceMetrics) RecordTransition(ctx context.Context, tenantID uuid.UUID, operation string) {
	m.invoiceTransitions.Inc(ctx, AttrTenantID.String(tenantID.String()), AttrOperation.String(operation))
}

// RecordPayment counts a recorded payment and its amount
func (m *InvoiceMetrics) RecordPayment(ctx context.Context, tenantID uuid.UUID, method string, amount decimal.Decimal) {
	attrs := []attribute.KeyValue{AttrTenantID.String(tenantID.String()), AttrPaymentMethod.String(method)}
	m.paymentsRecorded.Inc(ctx, attrs...)
	m.amountRecorded.Add(ctx, amount.Shift(2).IntPart(), attrs...)
}

// RecordReversal counts a reversed payment
func (m *InvoiceMetrics) RecordReversal(ctx context.Context, tenantID uuid.UUID) {
	m.paymentsReversed.Inc(ctx, AttrTenantID.String(tenantID.String()))
}

// RecordOutcome records duration and, for failures, the error code
func (m *InvoiceMetrics) RecordOutcome(ctx context.Context, operation string, started time.Time, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
		code := "INTERNAL_ERROR"
		if de, ok := shared.AsDomainError(err); ok {
			code = de.Code
		}
		m.failures.Inc(ctx, AttrOperation.String(operation), AttrErrorCode.String(code))
	}
	m.duration.RecordDuration(ctx, time.Since(started), AttrOperation.String(operation), AttrOutcome.String(outcome))
}
