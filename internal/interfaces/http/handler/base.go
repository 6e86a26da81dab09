package handler

import (
	"errors"
	"net/http"
	"sort"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/solimansoliman/SmartAccountant-v1005-sub002/internal/domain/shared"
	"github.com/solimansoliman/SmartAccountant-v1005-sub002/internal/infrastructure/logger"
	"github.com/solimansoliman/SmartAccountant-v1005-sub002/internal/interfaces/http/dto"
	"github.com/solimansoliman/SmartAccountant-v1005-sub002/internal/interfaces/http/middleware"
	"go.uber.org/zap"
)

// BaseHandler provides common handler utilities
type BaseHandler struct{}

// tenantContext returns the context resolved by the tenant middleware.
// It writes a 401 and returns false when there is none.
func (h *BaseHandler) tenantContext(c *gin.Context) (shared.TenantContext, bool) {
	tc, ok := middleware.GetTenantContext(c)
	if !ok {
		h.Error(c, http.StatusUnauthorized, dto.ErrCodeNoTenant, "Tenant identification required")
		return shared.TenantContext{}, false
	}
	return tc, true
}

// uuidParam parses a path parameter. It writes a 400 and returns false on
// a malformed id.
func (h *BaseHandler) uuidParam(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		h.ValidationError(c, []dto.ValidationDetail{{Field: name, Message: "Invalid UUID format"}})
		return uuid.Nil, false
	}
	return id, true
}

// uuidQuery parses a query value. A malformed id goes through HandleError
// as a validation error and returns false.
func (h *BaseHandler) uuidQuery(c *gin.Context, field, raw string) (uuid.UUID, bool) {
	id, err := uuid.Parse(raw)
	if err != nil {
		h.HandleError(c, shared.ErrValidation.WithMessage("Invalid UUID format").WithDetail(field, "Invalid UUID format"))
		return uuid.Nil, false
	}
	return id, true
}

// Success sends a success response
func (h *BaseHandler) Success(c *gin.Context, data any) {
	c.JSON(http.StatusOK, dto.NewSuccessResponse(data))
}

// SuccessWithMeta sends a success response with pagination meta
func (h *BaseHandler) SuccessWithMeta(c *gin.Context, data any, total int64, page, pageSize int) {
	c.JSON(http.StatusOK, dto.NewPagedResponse(data, total, page, pageSize))
}

// Created sends a 201 created response
func (h *BaseHandler) Created(c *gin.Context, data any) {
	c.JSON(http.StatusCreated, dto.NewSuccessResponse(data))
}

// NoContent sends a 204 no content response
func (h *BaseHandler) NoContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}

// Error sends an error response with the given status code
func (h *BaseHandler) Error(c *gin.Context, statusCode int, code, message string) {
	c.JSON(statusCode, dto.NewErrorResponse(code, message, middleware.GetRequestID(c)))
}

// ValidationError sends a 400 validation error response with details
func (h *BaseHandler) ValidationError(c *gin.Context, details []dto.ValidationDetail) {
	c.JSON(http.StatusBadRequest, dto.NewValidationErrorResponse(
		"Request validation failed",
		middleware.GetRequestID(c),
		details,
	))
}

// HandleError converts an error returned by a service to an HTTP response.
// Domain errors keep their code and details; anything else is a 500.
func (h *BaseHandler) HandleError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	requestID := middleware.GetRequestID(c)

	var domainErr *shared.DomainError
	if errors.As(err, &domainErr) {
		code := dto.NormalizeErrorCode(domainErr.Code)
		statusCode := dto.GetHTTPStatus(code)
		resp := dto.NewErrorResponse(code, domainErr.Message, requestID)
		resp.Error.Details = detailsOf(domainErr)
		resp.Error.Retryable = domainErr.Retryable
		if statusCode >= http.StatusInternalServerError {
			logger.FromContext(c.Request.Context()).Warn("Request failed", zap.String("code", code), zap.Error(err))
		}
		c.JSON(statusCode, resp)
		return
	}

	logger.FromContext(c.Request.Context()).Error("Unhandled error", zap.Error(err))
	_ = c.Error(err)
	c.JSON(http.StatusInternalServerError, dto.NewErrorResponse(
		dto.ErrCodeInternal,
		"An unexpected error occurred",
		requestID,
	))
}

func detailsOf(err *shared.DomainError) []dto.ValidationDetail {
	if len(err.Details) == 0 {
		return nil
	}
	out := make([]dto.ValidationDetail, 0, len(err.Details))
	for field, msg := range err.Details {
		out = append(out, dto.ValidationDetail{Field: field, Message: msg})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Field < out[j].Field })
	return out
}
