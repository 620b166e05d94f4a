package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/DH0263/dittonweb-sub000/internal/metrics"
	"github.com/DH0263/dittonweb-sub000/pkg/redis"
	"github.com/DH0263/dittonweb-sub000/pkg/response"
)

// RateLimit 按 (客户端 IP, 路由) 的 Redis 滑动窗口限流
// rdb 为 nil 或 Redis 出错时放行；拒绝时带 Retry-After
func RateLimit(rdb *redis.Client, limit int, window time.Duration, logger *zap.Logger) gin.HandlerFunc {
	retryAfter := strconv.Itoa(int(window.Seconds()))
	return func(c *gin.Context) {
		if rdb == nil || limit <= 0 {
			c.Next()
			return
		}

		route := c.FullPath()
		key := "ditton:rate_limit:" + c.ClientIP() + ":" + route
		allowed, err := rdb.CheckRateLimit(c.Request.Context(), key, limit, window)
		if err != nil {
			logger.Warn("限流检查失败，放行", zap.String("route", route), zap.Error(err))
			c.Next()
			return
		}

		if !allowed {
			metrics.RateLimited.WithLabelValues(route).Inc()
			c.Header("Retry-After", retryAfter)
			response.Error(c, http.StatusTooManyRequests, 10004, "请求过于频繁，请稍后再试")
			c.Abort()
			return
		}

		c.Next()
	}
}
