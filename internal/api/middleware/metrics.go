package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/DH0263/dittonweb-sub000/internal/metrics"
)

// Metrics Prometheus 请求计数与耗时
// route 取注册的路由模板，未匹配路由记为 "unmatched"
func Metrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		metrics.HTTPRequests.WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).Inc()
		metrics.HTTPDuration.WithLabelValues(c.Request.Method, route).Observe(time.Since(start).Seconds())
	}
}
