package handler

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/DH0263/dittonweb-sub000/pkg/response"
)

// MustGetStaffID 从 Gin 上下文中安全提取 staff_id。
// 如果 JWT 中间件未正确注入，返回 false 并写入 401 响应。
// 调用方应在 ok=false 时直接 return。
func MustGetStaffID(c *gin.Context) (int64, bool) {
	v, exists := c.Get("staff_id")
	if !exists {
		response.Unauthorized(c, 10002, "未认证")
		return 0, false
	}
	id, ok := v.(int64)
	if !ok || id <= 0 {
		response.Unauthorized(c, 10002, "未认证")
		return 0, false
	}
	return id, true
}

// GetStaffName 当前值班人员姓名，缺失时为空串
func GetStaffName(c *gin.Context) string {
	if v, ok := c.Get("staff_name"); ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

// getTokenInfo 当前 Token 的 jti 与过期时间
func getTokenInfo(c *gin.Context) (string, time.Time) {
	var (
		jti string
		exp time.Time
	)
	if v, ok := c.Get("token_id"); ok {
		jti, _ = v.(string)
	}
	if v, ok := c.Get("token_exp"); ok {
		exp, _ = v.(time.Time)
	}
	return jti, exp
}

// parseIDParam 解析路径中的正整数 ID，失败时写入 400
func parseIDParam(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		response.BadRequest(c, 10001, name+" 无效")
		return 0, false
	}
	return id, true
}
