package middleware

import (
	"net/http"
	"plan-beyond-server/internal/common/httpx"

	"github.com/gin-gonic/gin"
)

const DefaultMaxBodyBytes int64 = 1 << 20

// BodyLimitMiddleware 限制请求体大小
func BodyLimitMiddleware(maxBytes int64) gin.HandlerFunc {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBodyBytes
	}
	return func(c *gin.Context) {
		if c.Request.ContentLength > maxBytes {
			httpx.WriteError(c, http.StatusRequestEntityTooLarge, "Request body too large.")
			c.Abort()
			return
		}

		// 使用 MaxBytesReader 限制读取的字节数（应对未声明 Content-Length 的请求）
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}
