package response

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// RequestIDKey gin.Context 中请求 ID 的键，由 middleware.RequestID 写入
const RequestIDKey = "request_id"

// Response 统一响应结构
// request_id 与响应头 X-Request-ID 相同，控制台报错时据此对照服务端日志
type Response struct {
	Code      int         `json:"code"`
	Message   string      `json:"message"`
	Data      interface{} `json:"data,omitempty"`
	RequestID string      `json:"request_id,omitempty"`
}

func write(c *gin.Context, httpStatus, code int, message string, data interface{}) {
	c.JSON(httpStatus, Response{
		Code:      code,
		Message:   message,
		Data:      data,
		RequestID: c.GetString(RequestIDKey),
	})
}

// ── 成功响应 ──

// OK 200 成功响应
func OK(c *gin.Context, data interface{}) {
	write(c, http.StatusOK, 0, "success", data)
}

// OKWithMessage 200 成功并附带提示（如强制结束的幂等返回）
func OKWithMessage(c *gin.Context, message string, data interface{}) {
	write(c, http.StatusOK, 0, message, data)
}

// Created 201 创建成功
func Created(c *gin.Context, data interface{}) {
	write(c, http.StatusCreated, 0, "success", data)
}

// ── 错误响应 ──

// Error 通用错误响应
func Error(c *gin.Context, httpStatus int, code int, message string) {
	write(c, httpStatus, code, message, nil)
}

// ErrorWithData 带业务数据的错误响应（如教时不一致时返回当前/请求教时）
func ErrorWithData(c *gin.Context, httpStatus int, code int, message string, data interface{}) {
	write(c, httpStatus, code, message, data)
}

// ── 常见快捷方式 ──

// BadRequest 400
func BadRequest(c *gin.Context, code int, message string) {
	Error(c, http.StatusBadRequest, code, message)
}

// Unauthorized 401
func Unauthorized(c *gin.Context, code int, message string) {
	Error(c, http.StatusUnauthorized, code, message)
}

// Forbidden 403
func Forbidden(c *gin.Context, code int, message string) {
	Error(c, http.StatusForbidden, code, message)
}

// NotFound 404
func NotFound(c *gin.Context, code int, message string) {
	Error(c, http.StatusNotFound, code, message)
}

// Conflict 409
func Conflict(c *gin.Context, code int, message string) {
	Error(c, http.StatusConflict, code, message)
}

// InternalError 500
func InternalError(c *gin.Context) {
	Error(c, http.StatusInternalServerError, 50000, "服务器内部错误")
}
