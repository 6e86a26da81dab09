package handler

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	appinvoicing "github.com/solimansoliman/SmartAccountant-v1005-sub002/internal/application/invoicing"
	"github.com/solimansoliman/SmartAccountant-v1005-sub002/internal/domain/shared"
	"github.com/solimansoliman/SmartAccountant-v1005-sub002/internal/interfaces/http/dto"
	"github.com/solimansoliman/SmartAccountant-v1005-sub002/internal/interfaces/http/middleware"
)

// PaymentService records and reverses customer receipts
type PaymentService interface {
	CreatePayment(ctx context.Context, tc shared.TenantContext, req appinvoicing.CreatePaymentRequest) (*appinvoicing.PaymentResult, error)
	DeleteStandalonePayment(ctx context.Context, tc shared.TenantContext, paymentID uuid.UUID) (*appinvoicing.PaymentResult, error)
	ListCustomerPayments(ctx context.Context, tc shared.TenantContext, customerID uuid.UUID, page, pageSize int) (*shared.Paginated[appinvoicing.PaymentResponse], error)
}

// PaymentHandler serves /payments
type PaymentHandler struct {
	BaseHandler
	service PaymentService
}

// NewPaymentHandler creates the handler
func NewPaymentHandler(service PaymentService) *PaymentHandler {
	return &PaymentHandler{service: service}
}

// CustomerPaymentsQuery selects one customer's receipts
type CustomerPaymentsQuery struct {
	dto.PageQuery
	CustomerID string `form:"customerId" binding:"required,uuid"`
}

// Create handles POST /payments. A body with invoiceId settles that
// invoice; without one the receipt is recorded on account.
func (h *PaymentHandler) Create(c *gin.Context) {
	tc, ok := h.tenantContext(c)
	if !ok {
		return
	}
	var req appinvoicing.CreatePaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleBindError(c, err)
		return
	}
	req.IdempotencyKey = c.GetHeader(middleware.IdempotencyKeyHeader)

	result, err := h.service.CreatePayment(c.Request.Context(), tc, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, result)
}

// ListByCustomer handles GET /payments?customerId=
func (h *PaymentHandler) ListByCustomer(c *gin.Context) {
	tc, ok := h.tenantContext(c)
	if !ok {
		return
	}
	var q CustomerPaymentsQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		middleware.HandleBindError(c, err)
		return
	}

	customerID, ok := h.uuidQuery(c, "customerId", q.CustomerID)
	if !ok {
		return
	}
	page, err := h.service.ListCustomerPayments(c.Request.Context(), tc, customerID, q.Page, q.PageSize)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, page.Items, page.Total, page.Page, page.PageSize)
}

// Delete handles DELETE /payments/:id
func (h *PaymentHandler) Delete(c *gin.Context) {
	tc, ok := h.tenantContext(c)
	if !ok {
		return
	}
	id, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}

	result, err := h.service.DeleteStandalonePayment(c.Request.Context(), tc, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}
