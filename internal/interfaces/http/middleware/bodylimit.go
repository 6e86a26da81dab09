package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/solimansoliman/SmartAccountant-v1005-sub002/internal/interfaces/http/dto"
)

// BodyLimit rejects bodies larger than maxBytes. Chunked bodies are capped
// with http.MaxBytesReader and fail while being decoded.
func BodyLimit(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if maxBytes <= 0 {
			c.Next()
			return
		}
		if c.Request.ContentLength > maxBytes {
			c.AbortWithStatusJSON(http.StatusRequestEntityTooLarge, dto.NewErrorResponse(
				dto.ErrCodeTooLarge,
				"Request body exceeds maximum allowed size",
				GetRequestID(c),
			))
			return
		}
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}
