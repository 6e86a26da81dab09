package handler

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	appledger "github.com/solimansoliman/SmartAccountant-v1005-sub002/internal/application/ledger"
	"github.com/solimansoliman/SmartAccountant-v1005-sub002/internal/domain/shared"
	"github.com/solimansoliman/SmartAccountant-v1005-sub002/internal/interfaces/http/middleware"
)

// LedgerService reads balances and manages stock levels
type LedgerService interface {
	GetCustomerBalance(ctx context.Context, tc shared.TenantContext, customerID uuid.UUID) (*appledger.BalanceResponse, error)
	GetProductStock(ctx context.Context, tc shared.TenantContext, productID uuid.UUID) (*appledger.StockResponse, error)
	SetProductStock(ctx context.Context, tc shared.TenantContext, productID uuid.UUID, req appledger.SetStockRequest) (*appledger.StockResponse, error)
}

// LedgerHandler serves /customers/:id/balance and /products/:id/stock
type LedgerHandler struct {
	BaseHandler
	service LedgerService
}

// NewLedgerHandler creates the handler
func NewLedgerHandler(service LedgerService) *LedgerHandler {
	return &LedgerHandler{service: service}
}

// GetBalance handles GET /customers/:id/balance
func (h *LedgerHandler) GetBalance(c *gin.Context) {
	tc, ok := h.tenantContext(c)
	if !ok {
		return
	}
	id, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}
	resp, err := h.service.GetCustomerBalance(c.Request.Context(), tc, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// GetStock handles GET /products/:id/stock
func (h *LedgerHandler) GetStock(c *gin.Context) {
	tc, ok := h.tenantContext(c)
	if !ok {
		return
	}
	id, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}
	resp, err := h.service.GetProductStock(c.Request.Context(), tc, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// SetStock handles PUT /products/:id/stock
func (h *LedgerHandler) SetStock(c *gin.Context) {
	tc, ok := h.tenantContext(c)
	if !ok {
		return
	}
	id, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}
	var req appledger.SetStockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleBindError(c, err)
		return
	}
	resp, err := h.service.SetProductStock(c.Request.Context(), tc, id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}
