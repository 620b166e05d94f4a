package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/DH0263/dittonweb-sub000/pkg/response"
)

// requestIDMaxLen 外部传入 ID 的最大长度
const requestIDMaxLen = 64

// RequestID 沿用控制台传入的 X-Request-ID，缺失或不合法时生成 UUID
// 写入 gin.Context 与响应头，响应信封中的 request_id 取同一值
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		rid := c.GetHeader("X-Request-ID")
		if !validRequestID(rid) {
			rid = uuid.NewString()
		}

		c.Set(response.RequestIDKey, rid)
		c.Header("X-Request-ID", rid)
		c.Next()
	}
}

// validRequestID 只接受字母、数字、'-'、'_'、'.'，避免把换行等写进日志
func validRequestID(s string) bool {
	if s == "" || len(s) > requestIDMaxLen {
		return false
	}
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		case r == '-' || r == '_' || r == '.':
		default:
			return false
		}
	}
	return true
}
