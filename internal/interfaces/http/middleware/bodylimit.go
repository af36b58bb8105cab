package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/huzaifanasir-fabtechsol/backend/internal/interfaces/http/dto"
)

// BodyLimit rejects bodies over maxBytes: up front when Content-Length is
// declared, on read for streamed bodies
func BodyLimit(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.ContentLength > maxBytes {
			c.AbortWithStatusJSON(http.StatusRequestEntityTooLarge, dto.NewErrorResponseWithRequestID(
				dto.ErrCodePayloadTooLarge, "Request body exceeds maximum allowed size", GetRequestID(c)))
			return
		}
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}
