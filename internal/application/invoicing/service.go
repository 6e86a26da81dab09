package invoicing

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/solimansoliman/SmartAccountant-v1005-sub002/internal/domain/invoicing"
	"github.com/solimansoliman/SmartAccountant-v1005-sub002/internal/domain/shared"
	"github.com/solimansoliman/SmartAccountant-v1005-sub002/internal/infrastructure/logger"
	"github.com/solimansoliman/SmartAccountant-v1005-sub002/internal/infrastructure/telemetry"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

const serviceName = "ReconciliationService"

// Operation names used in spans, logs and metrics
const (
	OpCreateInvoice    = "create_invoice"
	OpUpdateInvoice    = "update_invoice"
	OpConfirmInvoice   = "confirm_invoice"
	OpUnconfirmInvoice = "unconfirm_invoice"
	OpCancelInvoice    = "cancel_invoice"
	OpDeleteInvoice    = "delete_invoice"
	OpAddPayment       = "add_payment"
	OpDeletePayment    = "delete_payment"
	OpRecordReceipt    = "record_receipt"
	OpReverseReceipt   = "reverse_receipt"
)

const maxPageSize = 100

// Config tunes the reconciliation service
type Config struct {
	// ConflictRetries is how often an operation is retried after a version conflict
	ConflictRetries int
	DefaultCurrency string
}

// ReconciliationService orchestrates every invoice and payment mutation.
// Mutations of one invoice are serialized by the guard and run in one
// transaction together with their stock and balance effects.
type ReconciliationService struct {
	scope      TransactionScope
	invoices   invoicing.InvoiceRepository
	payments   invoicing.PaymentRepository
	activities invoicing.ActivityRepository
	guard      MutationGuard
	publisher  shared.EventPublisher
	metrics    *telemetry.InvoiceMetrics
	config     Config
}

// NewReconciliationService creates the service
func NewReconciliationService(
	scope TransactionScope,
	invoices invoicing.InvoiceRepository,
	payments invoicing.PaymentRepository,
	activities invoicing.ActivityRepository,
	guard MutationGuard,
	cfg Config,
) *ReconciliationService {
	if cfg.ConflictRetries < 0 {
		cfg.ConflictRetries = 0
	}
	return &ReconciliationService{
		scope:      scope,
		invoices:   invoices,
		payments:   payments,
		activities: activities,
		guard:      guard,
		config:     cfg,
	}
}

// SetEventPublisher sets the publisher that receives events after commit
func (s *ReconciliationService) SetEventPublisher(publisher shared.EventPublisher) {
	s.publisher = publisher
}

// SetInvoiceMetrics sets the metrics recorder
func (s *ReconciliationService) SetInvoiceMetrics(m *telemetry.InvoiceMetrics) {
	s.metrics = m
}

// ==================== Invoice lifecycle ====================

// CreateInvoice creates an invoice, confirms it and records the initial
// payment in one transaction
func (s *ReconciliationService) CreateInvoice(ctx context.Context, tc shared.TenantContext, req CreateInvoiceRequest) (resp *InvoiceResponse, err error) {
	ctx, finish := s.begin(ctx, tc, OpCreateInvoice)
	defer func() { finish(err) }()

	if err = tc.Validate(); err != nil {
		return nil, err
	}

	currency := tc.Currency
	if currency == "" {
		currency = s.config.DefaultCurrency
	}
	inv, err := invoicing.NewInvoice(tc.TenantID, invoicing.NewInvoiceInput{
		CustomerID:   req.CustomerID,
		CustomerName: req.CustomerName,
		Date:         dateOrZero(req.Date),
		PaymentType:  invoicing.PaymentType(strings.ToLower(strings.TrimSpace(req.Type))),
		Currency:     currency,
		Items:        toItemInputs(req.Items),
		Notes:        req.Notes,
		CreatedBy:    tc.UserID,
	})
	if err != nil {
		return nil, err
	}
	if err = checkTotalAmount(inv, req.TotalAmount); err != nil {
		return nil, err
	}

	paid, err := initialPaidAmount(inv, req.PaidAmount)
	if err != nil {
		return nil, err
	}

	var events []shared.DomainEvent
	err = s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		decision, err := inv.Confirm()
		if err != nil {
			return err
		}
		if err := s.applyEffects(ctx, repos, inv, decision); err != nil {
			return err
		}

		if paid.IsPositive() {
			_, decision, err := inv.RecordPayment(invoicing.PaymentInput{
				Amount:    paid,
				Date:      dateOrZero(req.Date),
				Method:    invoicing.PaymentMethod(req.PaymentMethod),
				CreatedBy: tc.UserID,
			})
			if err != nil {
				return err
			}
			if err := s.applyEffects(ctx, repos, inv, decision); err != nil {
				return err
			}
		}

		if err := inv.CheckInvariants(); err != nil {
			return err
		}
		if err := repos.InvoiceRepo().Save(ctx, inv); err != nil {
			return err
		}
		events = inv.GetDomainEvents()
		inv.ClearDomainEvents()
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publish(ctx, events)
	if s.metrics != nil {
		s.metrics.RecordTransition(ctx, tc.TenantID, OpCreateInvoice)
		if paid.IsPositive() {
			s.metrics.RecordPayment(ctx, tc.TenantID, string(inv.Payments()[0].Method), paid)
		}
	}
	logger.FromContext(ctx).Info("invoice created",
		zap.String("invoice_id", inv.ID.String()),
		zap.String("status", inv.Status.String()),
		zap.String("total_amount", inv.TotalAmount.String()),
		zap.String("paid_amount", inv.PaidAmount.String()),
	)

	out := ToInvoiceResponse(inv)
	return &out, nil
}

// initialPaidAmount resolves the creation-time payment: cash invoices are
// fully paid unless told otherwise, credit invoices start unpaid
func initialPaidAmount(inv *invoicing.Invoice, requested *decimal.Decimal) (decimal.Decimal, error) {
	if requested == nil {
		if inv.PaymentType == invoicing.PaymentTypeCash {
			return inv.TotalAmount, nil
		}
		return decimal.Zero, nil
	}
	paid := *requested
	if paid.IsNegative() {
		return decimal.Zero, invoicing.NewValidationError("paidAmount", "paid amount cannot be negative")
	}
	if paid.GreaterThan(inv.TotalAmount) {
		return decimal.Zero, invoicing.ErrAmountExceedsRemaining.
			WithDetail("paidAmount", "paid amount exceeds the invoice total "+inv.TotalAmount.StringFixed(invoicing.MoneyScale))
	}
	return paid, nil
}

// checkTotalAmount rejects a caller-sent total that differs from the item sum
func checkTotalAmount(inv *invoicing.Invoice, sent *decimal.Decimal) error {
	if sent != nil && !sent.Equal(inv.TotalAmount) {
		return invoicing.NewValidationError("totalAmount", "total amount must equal the sum of item totals")
	}
	return nil
}

// UpdateInvoice edits a Draft invoice
func (s *ReconciliationService) UpdateInvoice(ctx context.Context, tc shared.TenantContext, invoiceID uuid.UUID, req UpdateInvoiceRequest) (*InvoiceResponse, error) {
	inv, _, err := s.mutateInvoice(ctx, tc, OpUpdateInvoice, invoiceID,
		func(_ context.Context, _ TransactionalRepositories, inv *invoicing.Invoice) (invoicing.Decision, error) {
			in := invoicing.UpdateInput{
				CustomerID:   req.CustomerID,
				CustomerName: req.CustomerName,
				Date:         req.Date.timePtr(),
				Notes:        req.Notes,
			}
			if req.Items != nil {
				in.Items = toItemInputs(*req.Items)
				in.ReplaceItems = true
			}
			if err := inv.Update(in); err != nil {
				return invoicing.Decision{}, err
			}
			if err := checkTotalAmount(inv, req.TotalAmount); err != nil {
				return invoicing.Decision{}, err
			}
			if req.PaidAmount != nil && !req.PaidAmount.Equal(inv.PaidAmount) {
				return invoicing.Decision{}, invoicing.NewValidationError("paidAmount", "paid amount is derived from payments; use the payment operations")
			}
			return invoicing.Decision{Next: inv.Status}, nil
		})
	return responseOf(inv, err)
}

// ConfirmInvoice confirms a Draft invoice
func (s *ReconciliationService) ConfirmInvoice(ctx context.Context, tc shared.TenantContext, invoiceID uuid.UUID) (*InvoiceResponse, error) {
	inv, _, err := s.mutateInvoice(ctx, tc, OpConfirmInvoice, invoiceID,
		func(_ context.Context, _ TransactionalRepositories, inv *invoicing.Invoice) (invoicing.Decision, error) {
			return inv.Confirm()
		})
	return responseOf(inv, err)
}

// UnconfirmInvoice moves an unpaid confirmed invoice back to Draft
func (s *ReconciliationService) UnconfirmInvoice(ctx context.Context, tc shared.TenantContext, invoiceID uuid.UUID) (*InvoiceResponse, error) {
	inv, _, err := s.mutateInvoice(ctx, tc, OpUnconfirmInvoice, invoiceID,
		func(_ context.Context, _ TransactionalRepositories, inv *invoicing.Invoice) (invoicing.Decision, error) {
			return inv.Unconfirm()
		})
	return responseOf(inv, err)
}

// CancelInvoice cancels an unpaid invoice
func (s *ReconciliationService) CancelInvoice(ctx context.Context, tc shared.TenantContext, invoiceID uuid.UUID) (*InvoiceResponse, error) {
	inv, _, err := s.mutateInvoice(ctx, tc, OpCancelInvoice, invoiceID,
		func(_ context.Context, _ TransactionalRepositories, inv *invoicing.Invoice) (invoicing.Decision, error) {
			return inv.Cancel()
		})
	return responseOf(inv, err)
}

// DeleteInvoice reverses the invoice's remaining effects and removes it with
// its items and payments
func (s *ReconciliationService) DeleteInvoice(ctx context.Context, tc shared.TenantContext, invoiceID uuid.UUID) error {
	_, _, err := s.mutateInvoice(ctx, tc, OpDeleteInvoice, invoiceID,
		func(_ context.Context, _ TransactionalRepositories, inv *invoicing.Invoice) (invoicing.Decision, error) {
			return inv.PrepareDelete()
		})
	return err
}

// ==================== Payments ====================

// AddPayment records a payment against an invoice. A repeated idempotency
// key returns the payment recorded by the first request.
func (s *ReconciliationService) AddPayment(ctx context.Context, tc shared.TenantContext, invoiceID uuid.UUID, req AddPaymentRequest) (*PaymentResult, error) {
	return s.addPayment(ctx, tc, invoiceID, uuid.Nil, req)
}

func (s *ReconciliationService) addPayment(ctx context.Context, tc shared.TenantContext, invoiceID, customerID uuid.UUID, req AddPaymentRequest) (*PaymentResult, error) {
	key := strings.TrimSpace(req.IdempotencyKey)
	var recorded *invoicing.Payment

	inv, decision, err := s.mutateInvoice(ctx, tc, OpAddPayment, invoiceID,
		func(ctx context.Context, repos TransactionalRepositories, inv *invoicing.Invoice) (invoicing.Decision, error) {
			if customerID != uuid.Nil && customerID != inv.CustomerID {
				return invoicing.Decision{}, invoicing.NewValidationError("customerId", "payment customer does not match the invoice customer")
			}
			if key != "" {
				existing, err := repos.PaymentRepo().FindByIdempotencyKey(ctx, tc.TenantID, key)
				switch {
				case err == nil:
					if existing.InvoiceID == nil || *existing.InvoiceID != inv.ID {
						return invoicing.Decision{}, invoicing.NewValidationError("idempotencyKey", "idempotency key was already used for another payment")
					}
					recorded = existing
					return invoicing.Decision{Next: inv.Status, NoOp: true}, nil
				case !errors.Is(err, shared.ErrNotFound):
					return invoicing.Decision{}, err
				}
			}

			payment, decision, err := inv.RecordPayment(invoicing.PaymentInput{
				Amount:         req.Amount,
				Date:           dateOrZero(req.Date),
				Method:         invoicing.PaymentMethod(req.PaymentMethod),
				Notes:          req.Notes,
				IdempotencyKey: key,
				CreatedBy:      tc.UserID,
			})
			if err != nil {
				return invoicing.Decision{}, err
			}
			recorded = payment
			return decision, nil
		})
	if err != nil {
		return nil, err
	}

	if !decision.NoOp && s.metrics != nil {
		s.metrics.RecordPayment(ctx, tc.TenantID, string(recorded.Method), recorded.Amount)
	}
	invResp := ToInvoiceResponse(inv)
	return &PaymentResult{Payment: ToPaymentResponse(*recorded), Invoice: &invResp}, nil
}

// DeletePayment reverses a payment of an invoice. Reversing an already
// reversed payment succeeds without effects.
func (s *ReconciliationService) DeletePayment(ctx context.Context, tc shared.TenantContext, invoiceID, paymentID uuid.UUID) (*InvoiceResponse, error) {
	inv, decision, err := s.mutateInvoice(ctx, tc, OpDeletePayment, invoiceID,
		func(_ context.Context, _ TransactionalRepositories, inv *invoicing.Invoice) (invoicing.Decision, error) {
			_, decision, err := inv.ReversePayment(paymentID)
			return decision, err
		})
	if err == nil && !decision.NoOp && s.metrics != nil {
		s.metrics.RecordReversal(ctx, tc.TenantID)
	}
	return responseOf(inv, err)
}

// CreatePayment records a payment. With an invoice it settles that invoice;
// without one it is an on-account receipt that lowers the customer balance.
func (s *ReconciliationService) CreatePayment(ctx context.Context, tc shared.TenantContext, req CreatePaymentRequest) (*PaymentResult, error) {
	if req.PaymentType != "" && !invoicing.PaymentType(req.PaymentType).IsValid() {
		return nil, invoicing.NewValidationError("paymentType", "payment type must be cash or credit")
	}
	if req.InvoiceID != nil && *req.InvoiceID != uuid.Nil {
		return s.addPayment(ctx, tc, *req.InvoiceID, req.CustomerID, AddPaymentRequest{
			Amount:         req.Amount,
			Date:           req.Date,
			PaymentMethod:  req.PaymentMethod,
			Notes:          req.Notes,
			IdempotencyKey: req.IdempotencyKey,
		})
	}
	return s.recordReceipt(ctx, tc, req)
}

func (s *ReconciliationService) recordReceipt(ctx context.Context, tc shared.TenantContext, req CreatePaymentRequest) (result *PaymentResult, err error) {
	ctx, finish := s.begin(ctx, tc, OpRecordReceipt)
	defer func() { finish(err) }()

	if err = tc.Validate(); err != nil {
		return nil, err
	}
	payment, err := invoicing.NewPayment(tc.TenantID, req.CustomerID, nil, invoicing.PaymentInput{
		Amount:         req.Amount,
		Date:           dateOrZero(req.Date),
		Method:         invoicing.PaymentMethod(req.PaymentMethod),
		Notes:          req.Notes,
		IdempotencyKey: req.IdempotencyKey,
		CreatedBy:      tc.UserID,
	})
	if err != nil {
		return nil, err
	}

	replayed := false
	err = s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		if payment.IdempotencyKey != "" {
			existing, err := repos.PaymentRepo().FindByIdempotencyKey(ctx, tc.TenantID, payment.IdempotencyKey)
			if err == nil {
				payment, replayed = existing, true
				return nil
			}
			if !errors.Is(err, shared.ErrNotFound) {
				return err
			}
		}
		if err := repos.PaymentRepo().Save(ctx, payment); err != nil {
			return err
		}
		if err := repos.BalancePort().Decrease(ctx, tc.TenantID, payment.CustomerID, payment.Amount); err != nil {
			return portError(invoicing.EffectDecreaseBalance, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if !replayed {
		if s.metrics != nil {
			s.metrics.RecordPayment(ctx, tc.TenantID, string(payment.Method), payment.Amount)
		}
		logger.FromContext(ctx).Info("on-account payment recorded",
			zap.String("payment_id", payment.ID.String()),
			zap.String("customer_id", payment.CustomerID.String()),
			zap.String("amount", payment.Amount.String()),
		)
	}
	return &PaymentResult{Payment: ToPaymentResponse(*payment)}, nil
}

// DeleteStandalonePayment reverses any payment by id
func (s *ReconciliationService) DeleteStandalonePayment(ctx context.Context, tc shared.TenantContext, paymentID uuid.UUID) (*PaymentResult, error) {
	if err := tc.Validate(); err != nil {
		return nil, err
	}
	existing, err := s.findPayment(ctx, s.payments, tc.TenantID, paymentID)
	if err != nil {
		return nil, err
	}

	if existing.InvoiceID != nil {
		inv, err := s.DeletePayment(ctx, tc, *existing.InvoiceID, paymentID)
		if err != nil {
			return nil, err
		}
		result := &PaymentResult{Payment: ToPaymentResponse(*existing), Invoice: inv}
		for _, p := range inv.Payments {
			if p.ID == paymentID {
				result.Payment = p
			}
		}
		return result, nil
	}
	return s.reverseReceipt(ctx, tc, paymentID)
}

func (s *ReconciliationService) reverseReceipt(ctx context.Context, tc shared.TenantContext, paymentID uuid.UUID) (result *PaymentResult, err error) {
	ctx, finish := s.begin(ctx, tc, OpReverseReceipt)
	defer func() { finish(err) }()

	release, err := s.acquire(ctx, PaymentLockKey(tc.TenantID, paymentID))
	if err != nil {
		return nil, err
	}
	defer release()

	var payment *invoicing.Payment
	reversed := false
	err = s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		p, err := s.findPayment(ctx, repos.PaymentRepo(), tc.TenantID, paymentID)
		if err != nil {
			return err
		}
		payment = p
		if !p.Reverse(time.Now()) {
			return nil
		}
		reversed = true
		if err := repos.PaymentRepo().Save(ctx, p); err != nil {
			return err
		}
		if err := repos.BalancePort().Increase(ctx, tc.TenantID, p.CustomerID, p.Amount); err != nil {
			return portError(invoicing.EffectIncreaseBalance, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if reversed && s.metrics != nil {
		s.metrics.RecordReversal(ctx, tc.TenantID)
	}
	return &PaymentResult{Payment: ToPaymentResponse(*payment)}, nil
}

// ==================== Reads ====================

// GetInvoice returns one invoice with its items and payments
func (s *ReconciliationService) GetInvoice(ctx context.Context, tc shared.TenantContext, invoiceID uuid.UUID) (*InvoiceResponse, error) {
	if err := tc.Validate(); err != nil {
		return nil, err
	}
	inv, err := s.findInvoice(ctx, s.invoices, tc.TenantID, invoiceID)
	return responseOf(inv, err)
}

// ListInvoices returns a page of invoices
func (s *ReconciliationService) ListInvoices(ctx context.Context, tc shared.TenantContext, req ListInvoicesRequest) (*shared.Paginated[InvoiceResponse], error) {
	if err := tc.Validate(); err != nil {
		return nil, err
	}

	filter := pageFilter(req.Page, req.PageSize)
	if req.OrderBy != "" {
		filter.OrderBy = req.OrderBy
	}
	if req.OrderDir != "" {
		filter.OrderDir = req.OrderDir
	}
	if req.Status != nil {
		filter.Filters["status"] = int(*req.Status)
	}
	if req.CustomerID != nil {
		filter.Filters["customer_id"] = *req.CustomerID
	}

	invoices, err := s.invoices.FindAllForTenant(ctx, tc.TenantID, filter)
	if err != nil {
		return nil, err
	}
	total, err := s.invoices.CountForTenant(ctx, tc.TenantID, filter)
	if err != nil {
		return nil, err
	}

	items := make([]InvoiceResponse, len(invoices))
	for i := range invoices {
		items[i] = ToInvoiceResponse(&invoices[i])
	}
	page := shared.NewPaginated(items, total, filter.Page, filter.PageSize)
	return &page, nil
}

// ListInvoicePayments returns the payment ledger of an invoice
func (s *ReconciliationService) ListInvoicePayments(ctx context.Context, tc shared.TenantContext, invoiceID uuid.UUID, includeReversed bool) ([]PaymentResponse, error) {
	if err := tc.Validate(); err != nil {
		return nil, err
	}
	if _, err := s.findInvoice(ctx, s.invoices, tc.TenantID, invoiceID); err != nil {
		return nil, err
	}
	payments, err := s.payments.FindByInvoice(ctx, tc.TenantID, invoiceID, includeReversed)
	if err != nil {
		return nil, err
	}
	return ToPaymentResponses(payments), nil
}

// ListCustomerPayments returns a page of a customer's payments
func (s *ReconciliationService) ListCustomerPayments(ctx context.Context, tc shared.TenantContext, customerID uuid.UUID, page, pageSize int) (*shared.Paginated[PaymentResponse], error) {
	if err := tc.Validate(); err != nil {
		return nil, err
	}
	if customerID == uuid.Nil {
		return nil, invoicing.NewValidationError("customerId", "customer is required")
	}

	filter := pageFilter(page, pageSize)
	filter.OrderBy = "date"
	payments, err := s.payments.FindByCustomer(ctx, tc.TenantID, customerID, filter)
	if err != nil {
		return nil, err
	}
	total, err := s.payments.CountByCustomer(ctx, tc.TenantID, customerID, filter)
	if err != nil {
		return nil, err
	}
	result := shared.NewPaginated(ToPaymentResponses(payments), total, filter.Page, filter.PageSize)
	return &result, nil
}

// ListInvoiceActivities returns the audit trail of an invoice, oldest first.
// The trail outlives the invoice.
func (s *ReconciliationService) ListInvoiceActivities(ctx context.Context, tc shared.TenantContext, invoiceID uuid.UUID) ([]ActivityResponse, error) {
	if err := tc.Validate(); err != nil {
		return nil, err
	}
	activities, err := s.activities.FindByInvoice(ctx, tc.TenantID, invoiceID)
	if err != nil {
		return nil, err
	}
	out := make([]ActivityResponse, len(activities))
	for i, a := range activities {
		out[i] = ActivityResponse{ID: a.ID, EventType: a.EventType, Summary: a.Summary, OccurredAt: a.OccurredAt}
	}
	return out, nil
}

// ==================== Orchestration ====================

// mutation changes a loaded invoice and returns the decision whose effects
// must be applied through the ledger ports
type mutation func(ctx context.Context, repos TransactionalRepositories, inv *invoicing.Invoice) (invoicing.Decision, error)

// mutateInvoice runs fn under the invoice guard inside a transaction,
// applies its effects, persists the invoice and publishes its events after
// commit. Version conflicts reload and retry.
func (s *ReconciliationService) mutateInvoice(ctx context.Context, tc shared.TenantContext, op string, invoiceID uuid.UUID, fn mutation) (inv *invoicing.Invoice, decision invoicing.Decision, err error) {
	ctx, finish := s.begin(ctx, tc, op, attribute.String("invoice_id", invoiceID.String()))
	defer func() { finish(err) }()

	if err = tc.Validate(); err != nil {
		return nil, decision, err
	}
	release, err := s.acquire(ctx, InvoiceLockKey(tc.TenantID, invoiceID))
	if err != nil {
		return nil, decision, err
	}
	defer release()

	var events []shared.DomainEvent
	for attempt := 0; ; attempt++ {
		events = nil
		err = s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
			current, err := s.findInvoice(ctx, repos.InvoiceRepo(), tc.TenantID, invoiceID)
			if err != nil {
				return err
			}
			d, err := fn(ctx, repos, current)
			if err != nil {
				return err
			}
			inv, decision = current, d
			if d.NoOp {
				return nil
			}

			if err := s.applyEffects(ctx, repos, current, d); err != nil {
				return err
			}
			if d.Has(invoicing.EffectRemoveInvoice) {
				if err := repos.InvoiceRepo().DeleteForTenant(ctx, tc.TenantID, invoiceID); err != nil {
					return err
				}
			} else {
				if err := current.CheckInvariants(); err != nil {
					return err
				}
				if err := repos.InvoiceRepo().SaveWithLock(ctx, current); err != nil {
					return err
				}
			}
			events = current.GetDomainEvents()
			current.ClearDomainEvents()
			return nil
		})
		if err == nil || !errors.Is(err, shared.ErrConcurrencyConflict) || attempt >= s.config.ConflictRetries {
			break
		}
		logger.FromContext(ctx).Warn("invoice version conflict, retrying",
			zap.String("invoice_id", invoiceID.String()),
			zap.String("operation", op),
			zap.Int("attempt", attempt+1),
		)
	}
	if err != nil {
		return nil, decision, err
	}

	s.publish(ctx, events)
	if decision.NoOp {
		logger.FromContext(ctx).Debug("invoice operation already satisfied",
			zap.String("invoice_id", invoiceID.String()),
			zap.String("operation", op),
		)
		return inv, decision, nil
	}

	if s.metrics != nil {
		s.metrics.RecordTransition(ctx, tc.TenantID, op)
	}
	logger.FromContext(ctx).Info("invoice operation committed",
		zap.String("invoice_id", invoiceID.String()),
		zap.String("operation", op),
		zap.String("status", inv.Status.String()),
		zap.String("remaining_amount", inv.RemainingAmount.String()),
	)
	return inv, decision, nil
}

// applyEffects performs the stock and balance effects of a decision.
// Payment effects are already reflected in the aggregate.
func (s *ReconciliationService) applyEffects(ctx context.Context, repos TransactionalRepositories, inv *invoicing.Invoice, decision invoicing.Decision) error {
	for _, effect := range decision.Effects {
		var err error
		switch effect.Kind {
		case invoicing.EffectDecrementStock:
			if lines := inv.StockLines(); len(lines) > 0 {
				err = repos.StockPort().Decrement(ctx, inv.TenantID, lines)
			}
		case invoicing.EffectRestoreStock:
			if lines := inv.StockLines(); len(lines) > 0 {
				err = repos.StockPort().Restore(ctx, inv.TenantID, lines)
			}
		case invoicing.EffectIncreaseBalance:
			if effect.Amount.IsPositive() {
				err = repos.BalancePort().Increase(ctx, inv.TenantID, inv.CustomerID, effect.Amount)
			}
		case invoicing.EffectDecreaseBalance:
			if effect.Amount.IsPositive() {
				err = repos.BalancePort().Decrease(ctx, inv.TenantID, inv.CustomerID, effect.Amount)
			}
		}
		if err != nil {
			return portError(effect.Kind, err)
		}
	}
	return nil
}

// portError keeps business errors and marks anything else as a retryable
// port failure
func portError(kind invoicing.EffectKind, err error) error {
	if _, ok := shared.AsDomainError(err); ok {
		return err
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return invoicing.ErrPortUnavailable.WithDetail("effect", string(kind)).Wrap(err)
}

func (s *ReconciliationService) acquire(ctx context.Context, key string) (func(), error) {
	release, err := s.guard.Acquire(ctx, key)
	if err == nil {
		return release, nil
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return nil, ctxErr
	}
	if _, ok := shared.AsDomainError(err); ok {
		return nil, err
	}
	return nil, ErrInvoiceBusy.Wrap(err)
}

func (s *ReconciliationService) findInvoice(ctx context.Context, repo invoicing.InvoiceRepository, tenantID, invoiceID uuid.UUID) (*invoicing.Invoice, error) {
	inv, err := repo.FindByIDForTenant(ctx, tenantID, invoiceID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, invoicing.ErrInvoiceNotFound.WithDetail("id", invoiceID.String())
		}
		return nil, err
	}
	return inv, nil
}

func (s *ReconciliationService) findPayment(ctx context.Context, repo invoicing.PaymentRepository, tenantID, paymentID uuid.UUID) (*invoicing.Payment, error) {
	p, err := repo.FindByIDForTenant(ctx, tenantID, paymentID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, invoicing.ErrPaymentNotFound.WithDetail("id", paymentID.String())
		}
		return nil, err
	}
	return p, nil
}

func (s *ReconciliationService) publish(ctx context.Context, events []shared.DomainEvent) {
	if s.publisher == nil || len(events) == 0 {
		return
	}
	if err := s.publisher.Publish(ctx, events...); err != nil {
		logger.FromContext(ctx).Error("failed to publish invoice events",
			zap.Int("event_count", len(events)),
			zap.Error(err),
		)
	}
}

// begin opens a span for op and returns the function that closes it
func (s *ReconciliationService) begin(ctx context.Context, tc shared.TenantContext, op string, attrs ...attribute.KeyValue) (context.Context, func(error)) {
	started := time.Now()
	attrs = append(attrs, telemetry.AttrTenantID.String(tc.TenantID.String()))
	ctx, span := telemetry.StartServiceSpan(ctx, serviceName, op, attrs...)
	return ctx, func(err error) {
		if s.metrics != nil {
			s.metrics.RecordOutcome(ctx, op, started, err)
		}
		telemetry.EndSpan(span, err)
	}
}

func pageFilter(page, pageSize int) shared.Filter {
	filter := shared.DefaultFilter()
	if page > 0 {
		filter.Page = page
	}
	if pageSize > 0 {
		filter.PageSize = pageSize
	}
	if filter.PageSize > maxPageSize {
		filter.PageSize = maxPageSize
	}
	return filter
}

func responseOf(inv *invoicing.Invoice, err error) (*InvoiceResponse, error) {
	if err != nil {
		return nil, err
	}
	out := ToInvoiceResponse(inv)
	return &out, nil
}
