package handler

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	appinvoicing "github.com/solimansoliman/SmartAccountant-v1005-sub002/internal/application/invoicing"
	"github.com/solimansoliman/SmartAccountant-v1005-sub002/internal/domain/invoicing"
	"github.com/solimansoliman/SmartAccountant-v1005-sub002/internal/domain/shared"
	"github.com/solimansoliman/SmartAccountant-v1005-sub002/internal/interfaces/http/dto"
	"github.com/solimansoliman/SmartAccountant-v1005-sub002/internal/interfaces/http/middleware"
)

// InvoiceService is the invoice lifecycle the handler drives
type InvoiceService interface {
	CreateInvoice(ctx context.Context, tc shared.TenantContext, req appinvoicing.CreateInvoiceRequest) (*appinvoicing.InvoiceResponse, error)
	UpdateInvoice(ctx context.Context, tc shared.TenantContext, invoiceID uuid.UUID, req appinvoicing.UpdateInvoiceRequest) (*appinvoicing.InvoiceResponse, error)
	ConfirmInvoice(ctx context.Context, tc shared.TenantContext, invoiceID uuid.UUID) (*appinvoicing.InvoiceResponse, error)
	UnconfirmInvoice(ctx context.Context, tc shared.TenantContext, invoiceID uuid.UUID) (*appinvoicing.InvoiceResponse, error)
	CancelInvoice(ctx context.Context, tc shared.TenantContext, invoiceID uuid.UUID) (*appinvoicing.InvoiceResponse, error)
	DeleteInvoice(ctx context.Context, tc shared.TenantContext, invoiceID uuid.UUID) error
	GetInvoice(ctx context.Context, tc shared.TenantContext, invoiceID uuid.UUID) (*appinvoicing.InvoiceResponse, error)
	ListInvoices(ctx context.Context, tc shared.TenantContext, req appinvoicing.ListInvoicesRequest) (*shared.Paginated[appinvoicing.InvoiceResponse], error)
	AddPayment(ctx context.Context, tc shared.TenantContext, invoiceID uuid.UUID, req appinvoicing.AddPaymentRequest) (*appinvoicing.PaymentResult, error)
	DeletePayment(ctx context.Context, tc shared.TenantContext, invoiceID, paymentID uuid.UUID) (*appinvoicing.InvoiceResponse, error)
	ListInvoicePayments(ctx context.Context, tc shared.TenantContext, invoiceID uuid.UUID, includeReversed bool) ([]appinvoicing.PaymentResponse, error)
	ListInvoiceActivities(ctx context.Context, tc shared.TenantContext, invoiceID uuid.UUID) ([]appinvoicing.ActivityResponse, error)
}

// InvoiceHandler serves /invoices
type InvoiceHandler struct {
	BaseHandler
	service InvoiceService
}

// NewInvoiceHandler creates the handler
func NewInvoiceHandler(service InvoiceService) *InvoiceHandler {
	return &InvoiceHandler{service: service}
}

// ListInvoicesQuery holds the list filters
type ListInvoicesQuery struct {
	dto.PageQuery
	Status     string `form:"status"`
	CustomerID string `form:"customerId" binding:"omitempty,uuid"`
	OrderBy    string `form:"orderBy"`
	OrderDir   string `form:"orderDir" binding:"omitempty,oneof=asc desc ASC DESC"`
}

// ListPaymentsQuery toggles reversed entries in an invoice's payment list
type ListPaymentsQuery struct {
	IncludeReversed bool `form:"includeReversed"`
}

// Create handles POST /invoices
func (h *InvoiceHandler) Create(c *gin.Context) {
	tc, ok := h.tenantContext(c)
	if !ok {
		return
	}
	var req appinvoicing.CreateInvoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleBindError(c, err)
		return
	}

	resp, err := h.service.CreateInvoice(c.Request.Context(), tc, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, resp)
}

// List handles GET /invoices
func (h *InvoiceHandler) List(c *gin.Context) {
	tc, ok := h.tenantContext(c)
	if !ok {
		return
	}
	var q ListInvoicesQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		middleware.HandleBindError(c, err)
		return
	}

	req := appinvoicing.ListInvoicesRequest{
		Page:     q.Page,
		PageSize: q.PageSize,
		OrderBy:  q.OrderBy,
		OrderDir: q.OrderDir,
	}
	if q.Status != "" {
		status, err := invoicing.ParseStatus(q.Status)
		if err != nil {
			h.HandleError(c, err)
			return
		}
		req.Status = &status
	}
	if q.CustomerID != "" {
		customerID, ok := h.uuidQuery(c, "customerId", q.CustomerID)
		if !ok {
			return
		}
		req.CustomerID = &customerID
	}

	page, err := h.service.ListInvoices(c.Request.Context(), tc, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, page.Items, page.Total, page.Page, page.PageSize)
}

// Get handles GET /invoices/:id
func (h *InvoiceHandler) Get(c *gin.Context) {
	h.withInvoice(c, h.service.GetInvoice)
}

// Update handles PUT /invoices/:id
func (h *InvoiceHandler) Update(c *gin.Context) {
	tc, ok := h.tenantContext(c)
	if !ok {
		return
	}
	id, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}
	var req appinvoicing.UpdateInvoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleBindError(c, err)
		return
	}

	resp, err := h.service.UpdateInvoice(c.Request.Context(), tc, id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// Delete handles DELETE /invoices/:id
func (h *InvoiceHandler) Delete(c *gin.Context) {
	tc, ok := h.tenantContext(c)
	if !ok {
		return
	}
	id, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}
	if err := h.service.DeleteInvoice(c.Request.Context(), tc, id); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}

// Confirm handles POST /invoices/:id/confirm
func (h *InvoiceHandler) Confirm(c *gin.Context) {
	h.withInvoice(c, h.service.ConfirmInvoice)
}

// Unconfirm handles POST /invoices/:id/unconfirm
func (h *InvoiceHandler) Unconfirm(c *gin.Context) {
	h.withInvoice(c, h.service.UnconfirmInvoice)
}

// Cancel handles POST /invoices/:id/cancel
func (h *InvoiceHandler) Cancel(c *gin.Context) {
	h.withInvoice(c, h.service.CancelInvoice)
}

// ListPayments handles GET /invoices/:id/payments
func (h *InvoiceHandler) ListPayments(c *gin.Context) {
	tc, ok := h.tenantContext(c)
	if !ok {
		return
	}
	id, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}
	var q ListPaymentsQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		middleware.HandleBindError(c, err)
		return
	}

	payments, err := h.service.ListInvoicePayments(c.Request.Context(), tc, id, q.IncludeReversed)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, payments)
}

// AddPayment handles POST /invoices/:id/payments
func (h *InvoiceHandler) AddPayment(c *gin.Context) {
	tc, ok := h.tenantContext(c)
	if !ok {
		return
	}
	id, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}
	var req appinvoicing.AddPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleBindError(c, err)
		return
	}
	req.IdempotencyKey = c.GetHeader(middleware.IdempotencyKeyHeader)

	result, err := h.service.AddPayment(c.Request.Context(), tc, id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, result)
}

// DeletePayment handles DELETE /invoices/:id/payments/:paymentId
func (h *InvoiceHandler) DeletePayment(c *gin.Context) {
	tc, ok := h.tenantContext(c)
	if !ok {
		return
	}
	id, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}
	paymentID, ok := h.uuidParam(c, "paymentId")
	if !ok {
		return
	}

	resp, err := h.service.DeletePayment(c.Request.Context(), tc, id, paymentID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// ListActivities handles GET /invoices/:id/activities
func (h *InvoiceHandler) ListActivities(c *gin.Context) {
	tc, ok := h.tenantContext(c)
	if !ok {
		return
	}
	id, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}

	activities, err := h.service.ListInvoiceActivities(c.Request.Context(), tc, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, activities)
}

type invoiceOp func(ctx context.Context, tc shared.TenantContext, invoiceID uuid.UUID) (*appinvoicing.InvoiceResponse, error)

func (h *InvoiceHandler) withInvoice(c *gin.Context, op invoiceOp) {
	tc, ok := h.tenantContext(c)
	if !ok {
		return
	}
	id, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}

	resp, err := op(c.Request.Context(), tc, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}
