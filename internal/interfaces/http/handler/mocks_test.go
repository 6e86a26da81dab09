package handler

import (
	"context"

	"github.com/google/uuid"
	appinvoicing "github.com/solimansoliman/SmartAccountant-v1005-sub002/internal/application/invoicing"
	appledger "github.com/solimansoliman/SmartAccountant-v1005-sub002/internal/application/ledger"
	"github.com/solimansoliman/SmartAccountant-v1005-sub002/internal/domain/shared"
	"github.com/stretchr/testify/mock"
)

type mockInvoiceService struct {
	mock.Mock
}

func (m *mockInvoiceService) invoice(args mock.Arguments) (*appinvoicing.InvoiceResponse, error) {
	if v := args.Get(0); v != nil {
		return v.(*appinvoicing.InvoiceResponse), args.Error(1)
	}
	return nil, args.Error(1)
}

func paymentResult(args mock.Arguments) (*appinvoicing.PaymentResult, error) {
	if v := args.Get(0); v != nil {
		return v.(*appinvoicing.PaymentResult), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockInvoiceService) CreateInvoice(ctx context.Context, tc shared.TenantContext, req appinvoicing.CreateInvoiceRequest) (*appinvoicing.InvoiceResponse, error) {
	return m.invoice(m.Called(ctx, tc, req))
}

func (m *mockInvoiceService) UpdateInvoice(ctx context.Context, tc shared.TenantContext, id uuid.UUID, req appinvoicing.UpdateInvoiceRequest) (*appinvoicing.InvoiceResponse, error) {
	return m.invoice(m.Called(ctx, tc, id, req))
}

func (m *mockInvoiceService) ConfirmInvoice(ctx context.Context, tc shared.TenantContext, id uuid.UUID) (*appinvoicing.InvoiceResponse, error) {
	return m.invoice(m.Called(ctx, tc, id))
}

func (m *mockInvoiceService) UnconfirmInvoice(ctx context.Context, tc shared.TenantContext, id uuid.UUID) (*appinvoicing.InvoiceResponse, error) {
	return m.invoice(m.Called(ctx, tc, id))
}

func (m *mockInvoiceService) CancelInvoice(ctx context.Context, tc shared.TenantContext, id uuid.UUID) (*appinvoicing.InvoiceResponse, error) {
	return m.invoice(m.Called(ctx, tc, id))
}

func (m *mockInvoiceService) DeleteInvoice(ctx context.Context, tc shared.TenantContext, id uuid.UUID) error {
	return m.Called(ctx, tc, id).Error(0)
}

func (m *mockInvoiceService) GetInvoice(ctx context.Context, tc shared.TenantContext, id uuid.UUID) (*appinvoicing.InvoiceResponse, error) {
	return m.invoice(m.Called(ctx, tc, id))
}

func (m *mockInvoiceService) ListInvoices(ctx context.Context, tc shared.TenantContext, req appinvoicing.ListInvoicesRequest) (*shared.Paginated[appinvoicing.InvoiceResponse], error) {
	args := m.Called(ctx, tc, req)
	if v := args.Get(0); v != nil {
		return v.(*shared.Paginated[appinvoicing.InvoiceResponse]), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockInvoiceService) AddPayment(ctx context.Context, tc shared.TenantContext, id uuid.UUID, req appinvoicing.AddPaymentRequest) (*appinvoicing.PaymentResult, error) {
	return paymentResult(m.Called(ctx, tc, id, req))
}

func (m *mockInvoiceService) DeletePayment(ctx context.Context, tc shared.TenantContext, id, paymentID uuid.UUID) (*appinvoicing.InvoiceResponse, error) {
	return m.invoice(m.Called(ctx, tc, id, paymentID))
}

func (m *mockInvoiceService) ListInvoicePayments(ctx context.Context, tc shared.TenantContext, id uuid.UUID, includeReversed bool) ([]appinvoicing.PaymentResponse, error) {
	args := m.Called(ctx, tc, id, includeReversed)
	if v := args.Get(0); v != nil {
		return v.([]appinvoicing.PaymentResponse), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockInvoiceService) ListInvoiceActivities(ctx context.Context, tc shared.TenantContext, id uuid.UUID) ([]appinvoicing.ActivityResponse, error) {
	args := m.Called(ctx, tc, id)
	if v := args.Get(0); v != nil {
		return v.([]appinvoicing.ActivityResponse), args.Error(1)
	}
	return nil, args.Error(1)
}

type mockPaymentService struct {
	mock.Mock
}

func (m *mockPaymentService) CreatePayment(ctx context.Context, tc shared.TenantContext, req appinvoicing.CreatePaymentRequest) (*appinvoicing.PaymentResult, error) {
	return paymentResult(m.Called(ctx, tc, req))
}

func (m *mockPaymentService) DeleteStandalonePayment(ctx context.Context, tc shared.TenantContext, id uuid.UUID) (*appinvoicing.PaymentResult, error) {
	return paymentResult(m.Called(ctx, tc, id))
}

func (m *mockPaymentService) ListCustomerPayments(ctx context.Context, tc shared.TenantContext, customerID uuid.UUID, page, pageSize int) (*shared.Paginated[appinvoicing.PaymentResponse], error) {
	args := m.Called(ctx, tc, customerID, page, pageSize)
	if v := args.Get(0); v != nil {
		return v.(*shared.Paginated[appinvoicing.PaymentResponse]), args.Error(1)
	}
	return nil, args.Error(1)
}

type mockLedgerService struct {
	mock.Mock
}

func (m *mockLedgerService) GetCustomerBalance(ctx context.Context, tc shared.TenantContext, id uuid.UUID) (*appledger.BalanceResponse, error) {
	args := m.Called(ctx, tc, id)
	if v := args.Get(0); v != nil {
		return v.(*appledger.BalanceResponse), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockLedgerService) GetProductStock(ctx context.Context, tc shared.TenantContext, id uuid.UUID) (*appledger.StockResponse, error) {
	args := m.Called(ctx, tc, id)
	if v := args.Get(0); v != nil {
		return v.(*appledger.StockResponse), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockLedgerService) SetProductStock(ctx context.Context, tc shared.TenantContext, id uuid.UUID, req appledger.SetStockRequest) (*appledger.StockResponse, error) {
	args := m.Called(ctx, tc, id, req)
	if v := args.Get(0); v != nil {
		return v.(*appledger.StockResponse), args.Error(1)
	}
	return nil, args.Error(1)
}
