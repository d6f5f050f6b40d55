// Package middleware holds the gin middleware chain: request IDs, access
// logging, CORS, and metrics.
package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/harkencre/appraisal-platform/pkg/types/common"
)

// HeaderRequestID is the request ID header honored and echoed by the server.
const HeaderRequestID = "X-Request-ID"

// RequestID assigns each request an ID, reusing the client's when supplied.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(HeaderRequestID)
		if id == "" {
			id = uuid.New().String()
		}
		c.Set(string(common.ContextKeyRequestID), id)
		c.Writer.Header().Set(HeaderRequestID, id)
		c.Next()
	}
}

// GetRequestID reads the request ID set by RequestID.
func GetRequestID(c *gin.Context) string {
	if v, ok := c.Get(string(common.ContextKeyRequestID)); ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}
